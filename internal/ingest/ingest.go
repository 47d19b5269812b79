// Package ingest seeds the store from a directory of .eml files.
package ingest

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/felo/smtpview/internal/store"
)

// Result counts the outcome of one seed run.
type Result struct {
	Loaded  int
	Skipped int
	Failed  int
}

// Scan recursively collects .eml files under root, sorted by path so seed
// order is stable across runs.
func Scan(root string) ([]string, error) {
	var files []string

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("error accessing path %s: %w", path, err)
		}
		if info.IsDir() {
			return nil
		}
		if strings.ToLower(filepath.Ext(path)) == ".eml" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan directory: %w", err)
	}

	sort.Strings(files)
	return files, nil
}

// SeedDir loads every .eml file under root into the store. Files that fail
// to parse are logged and skipped; duplicates of already-loaded messages
// count as skipped.
func SeedDir(st *store.Store, root string) (*Result, error) {
	files, err := Scan(root)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for _, file := range files {
		raw, err := os.ReadFile(file)
		if err != nil {
			log.Printf("Failed to read %s: %v", file, err)
			result.Failed++
			continue
		}

		_, err = st.Add(raw)
		if errors.Is(err, store.ErrDuplicateID) {
			result.Skipped++
			continue
		}
		if err != nil {
			log.Printf("Failed to load %s: %v", file, err)
			result.Failed++
			continue
		}
		result.Loaded++
	}

	return result, nil
}
