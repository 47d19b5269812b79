// Package smtpd accepts mail submissions and hands them to the store. Every
// recipient is accepted; this is a development sink, not a relay.
package smtpd

import (
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/emersion/go-smtp"

	"github.com/felo/smtpview/internal/config"
	"github.com/felo/smtpview/internal/store"
)

// Backend creates a session per connection.
type Backend struct {
	store *store.Store
}

// NewServer builds the SMTP server around the store.
func NewServer(cfg config.SMTPConfig, st *store.Store) *smtp.Server {
	srv := smtp.NewServer(&Backend{store: st})
	srv.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	srv.Domain = cfg.Domain
	srv.MaxMessageBytes = cfg.MaxMessageSize
	srv.MaxRecipients = 100
	srv.ReadTimeout = time.Minute
	srv.WriteTimeout = time.Minute
	srv.AllowInsecureAuth = true
	return srv
}

func (b *Backend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &Session{store: b.store}, nil
}

// Session collects a single message. Envelope addresses are noted for
// logging only; the stored message keeps its header addresses.
type Session struct {
	store *store.Store
	from  string
}

func (s *Session) Mail(from string, _ *smtp.MailOptions) error {
	s.from = from
	return nil
}

func (s *Session) Rcpt(_ string, _ *smtp.RcptOptions) error {
	return nil
}

// Data reads the submitted message and stores it. Duplicate Message-IDs are
// rejected permanently, unparseable messages transiently.
func (s *Session) Data(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read message data: %w", err)
	}

	summary, err := s.store.Add(raw)
	if errors.Is(err, store.ErrDuplicateID) {
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 5, 0},
			Message:      "Message-ID already exists",
		}
	}
	if err != nil {
		log.Printf("Failed to accept message from %s: %v", s.from, err)
		return &smtp.SMTPError{
			Code:         451,
			EnhancedCode: smtp.EnhancedCode{4, 6, 0},
			Message:      "Failed to parse message",
		}
	}

	log.Printf("Received message %s from %s", summary.ID, s.from)
	return nil
}

func (s *Session) Reset() {
	s.from = ""
}

func (s *Session) Logout() error {
	return nil
}
