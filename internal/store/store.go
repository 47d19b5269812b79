// Package store keeps received messages in a volatile sqlite index and
// notifies subscribers of new arrivals. Nothing survives a restart.
package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/felo/smtpview/internal/parser"
	"github.com/felo/smtpview/internal/view"
)

var (
	// ErrDuplicateID reports an attempt to re-use an existing Message-ID.
	ErrDuplicateID = errors.New("message ID already exists")
	// ErrNotFound reports an unknown message ID.
	ErrNotFound = errors.New("message not found")
)

// BodyKind tells the list view whether a message body is a plain payload or
// a multipart envelope.
type BodyKind string

const (
	BodyData          BodyKind = "data"
	BodyMimeMultipart BodyKind = "mime-multipart"
)

// Summary is the list-view projection of a message.
type Summary struct {
	ID      string                  `json:"id"`
	Date    int64                   `json:"date"`
	From    []parser.Mailbox        `json:"from"`
	Subject string                  `json:"subject,omitempty"`
	To      []parser.AddressOrGroup `json:"to"`
	Body    BodyKind                `json:"body"`
	Preview string                  `json:"preview,omitempty"`
}

// Store is the in-memory message index. Safe for concurrent use; sqlite
// access is serialized through a single connection.
type Store struct {
	db *sql.DB

	mu          sync.Mutex
	subscribers map[chan Summary]struct{}
}

// Open opens the sqlite-backed store and initializes its schema. An empty
// DSN selects an in-memory database.
func Open(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = ":memory:"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps the in-memory database alive and suits
	// SQLite best anyway
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{
		db:          db,
		subscribers: make(map[chan Summary]struct{}),
	}, nil
}

// Close closes the database. Subscribers are not closed; callers are
// expected to unsubscribe themselves.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add parses a raw message, assigns it an ID when the headers carry none,
// inserts it, and notifies subscribers. Duplicate IDs are rejected with
// ErrDuplicateID.
func (s *Store) Add(raw []byte) (*Summary, error) {
	msg, err := parser.Read(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}

	id := msg.ID
	if id == "" {
		id = "<" + uuid.NewString() + "@smtpview>"
	}

	summary := Summary{
		ID:      id,
		Date:    msg.Date.Unix(),
		From:    msg.From,
		Subject: msg.Subject,
		To:      msg.To,
		Body:    bodyKind(msg.Body),
		Preview: msg.Preview(),
	}

	sender, err := json.Marshal(summary.From)
	if err != nil {
		return nil, fmt.Errorf("failed to encode sender: %w", err)
	}
	recipients, err := json.Marshal(summary.To)
	if err != nil {
		return nil, fmt.Errorf("failed to encode recipients: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO messages (id, date, subject, sender, recipients, preview, body_kind, raw)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, id, summary.Date, summary.Subject, string(sender), string(recipients),
		summary.Preview, string(summary.Body), raw)
	if err != nil {
		var exists bool
		if scanErr := s.db.QueryRow("SELECT EXISTS(SELECT 1 FROM messages WHERE id = ?)", id).Scan(&exists); scanErr == nil && exists {
			return nil, ErrDuplicateID
		}
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}

	s.broadcast(summary)

	return &summary, nil
}

// List returns message summaries in arrival order.
func (s *Store) List() ([]Summary, error) {
	rows, err := s.db.Query(`
		SELECT id, date, subject, sender, recipients, preview, body_kind
		FROM messages
		ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		var (
			summary    Summary
			sender     string
			recipients string
			kind       string
		)
		if err := rows.Scan(&summary.ID, &summary.Date, &summary.Subject,
			&sender, &recipients, &summary.Preview, &kind); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		if err := json.Unmarshal([]byte(sender), &summary.From); err != nil {
			return nil, fmt.Errorf("failed to decode sender: %w", err)
		}
		if err := json.Unmarshal([]byte(recipients), &summary.To); err != nil {
			return nil, fmt.Errorf("failed to decode recipients: %w", err)
		}
		summary.Body = BodyKind(kind)
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

// Count returns the number of stored messages.
func (s *Store) Count() (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM messages").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}

// Get re-parses the stored raw bytes into a full message. Every call parses
// afresh; there is no parsed-body cache.
func (s *Store) Get(id string) (*parser.Message, error) {
	var raw []byte
	err := s.db.QueryRow("SELECT raw FROM messages WHERE id = ?", id).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load message: %w", err)
	}

	msg, err := parser.Read(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	msg.ID = id
	return msg, nil
}

// FetchPart resolves exactly one body-tree node, implementing view.Fetcher
// for in-process rendering. Descendants are not included: multipart nodes
// yield only a descriptor of their children.
func (s *Store) FetchPart(ctx context.Context, id string, path view.Path) (*view.Part, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	msg, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	ent, err := msg.Body.Part(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	return entityPart(ent), nil
}

// entityPart projects a body-tree node onto the wire part shape.
func entityPart(ent *parser.Entity) *view.Part {
	if ent.Kind == parser.KindMultipart {
		desc := &view.MultipartDesc{Kind: string(ent.Multipart.Kind)}
		for _, child := range ent.Multipart.Parts {
			desc.Parts = append(desc.Parts, view.ChildInfo{ContentType: child.ContentType})
		}
		return &view.Part{ContentType: ent.ContentType, Multipart: desc}
	}

	part := &view.Part{ContentType: ent.ContentType}
	if ent.Kind == parser.KindText {
		part.Data = []byte(ent.Text)
	} else {
		part.Data = ent.Data
	}
	return part
}

// Subscribe registers a listener for new message summaries. The channel is
// buffered; a subscriber that falls behind misses updates instead of
// blocking intake.
func (s *Store) Subscribe() chan Summary {
	ch := make(chan Summary, 16)
	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener and closes its channel.
func (s *Store) Unsubscribe(ch chan Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subscribers[ch]; ok {
		delete(s.subscribers, ch)
		close(ch)
	}
}

func (s *Store) broadcast(summary Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- summary:
		default:
			// Subscriber channel full, skip
		}
	}
}

func bodyKind(body *parser.Entity) BodyKind {
	if body != nil && body.Kind == parser.KindMultipart {
		return BodyMimeMultipart
	}
	return BodyData
}
