// Package cmd wires the SMTP sink and the web interface into the smtpview
// command.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/felo/smtpview/internal/config"
	"github.com/felo/smtpview/internal/handlers"
	"github.com/felo/smtpview/internal/ingest"
	"github.com/felo/smtpview/internal/smtpd"
	"github.com/felo/smtpview/internal/store"
	"github.com/felo/smtpview/web"
)

var (
	configPath string
	httpPort   int
	smtpPort   int
	seedDir    string
)

var rootCmd = &cobra.Command{
	Use:   "smtpview",
	Short: "Catch outgoing mail over SMTP and browse it in the browser",
	Long: `smtpview runs a development SMTP sink next to a webmail viewer.
Point your application's SMTP settings at it and every submitted message
shows up in the browser instead of being delivered.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	rootCmd.Flags().IntVar(&httpPort, "http-port", 0, "web interface port (overrides config)")
	rootCmd.Flags().IntVar(&smtpPort, "smtp-port", 0, "SMTP listen port (overrides config)")
	rootCmd.Flags().StringVar(&seedDir, "seed", "", "directory of .eml files to load on startup")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if httpPort != 0 {
		cfg.HTTP.Port = httpPort
	}
	if smtpPort != 0 {
		cfg.SMTP.Port = smtpPort
	}
	if seedDir != "" {
		cfg.SeedDir = seedDir
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	// Messages live in memory only; a restart starts with an empty inbox
	st, err := store.Open("")
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	if cfg.SeedDir != "" {
		result, err := ingest.SeedDir(st, cfg.SeedDir)
		if err != nil {
			return fmt.Errorf("failed to seed from %s: %w", cfg.SeedDir, err)
		}
		log.Printf("Seeded %d messages from %s (%d skipped, %d failed)",
			result.Loaded, cfg.SeedDir, result.Skipped, result.Failed)
	}

	h := handlers.New(st, cfg)
	if err := h.LoadTemplates(web.Assets); err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}

	staticFS, err := fs.Sub(web.Assets, "static")
	if err != nil {
		return fmt.Errorf("failed to get static files: %w", err)
	}

	httpSrv := &http.Server{
		Addr:         cfg.HTTPAddress(),
		Handler:      h.Routes(staticFS),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // SSE connections stay open
		IdleTimeout:  60 * time.Second,
	}
	smtpSrv := smtpd.NewServer(cfg.SMTP, st)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("Web interface on %s", cfg.URL())
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("web server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		log.Printf("SMTP sink on %s", cfg.SMTPAddress())
		if err := smtpSrv.ListenAndServe(); err != nil {
			// go-smtp returns a non-sentinel error after Close
			select {
			case <-ctx.Done():
				return nil
			default:
				return fmt.Errorf("smtp server failed: %w", err)
			}
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Println("Shutting down gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Web server shutdown error: %v", err)
		}
		if err := smtpSrv.Close(); err != nil {
			log.Printf("SMTP server shutdown error: %v", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	log.Println("Stopped")
	return nil
}
