package smtpd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/emersion/go-smtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felo/smtpview/internal/config"
	"github.com/felo/smtpview/internal/store"
)

func newTestSession(t *testing.T) (*store.Store, smtp.Session) {
	t.Helper()

	st := store.SetupTestStore(t)
	backend := &Backend{store: st}
	session, err := backend.NewSession(nil)
	require.NoError(t, err)
	return st, session
}

func deliver(t *testing.T, session smtp.Session, raw []byte) error {
	t.Helper()

	require.NoError(t, session.Mail("sender@example.com", nil))
	require.NoError(t, session.Rcpt("rcpt@example.com", nil))
	err := session.Data(bytes.NewReader(raw))
	session.Reset()
	return err
}

// Test that a delivered message lands in the store
func TestDeliver(t *testing.T) {
	st, session := newTestSession(t)

	err := deliver(t, session, store.TestMessage("<d1@example.com>", "Hi", "body"))
	require.NoError(t, err)

	count, err := st.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

// Test permanent rejection of duplicate Message-IDs
func TestDeliverDuplicate(t *testing.T) {
	_, session := newTestSession(t)

	raw := store.TestMessage("<dup@example.com>", "Hi", "body")
	require.NoError(t, deliver(t, session, raw))

	err := deliver(t, session, raw)
	var smtpErr *smtp.SMTPError
	require.ErrorAs(t, err, &smtpErr)
	assert.Equal(t, 550, smtpErr.Code)
}

// Test transient rejection of unparseable submissions
func TestDeliverUnparseable(t *testing.T) {
	st, session := newTestSession(t)

	// A header line without a colon is invalid
	err := deliver(t, session, []byte("not a header line\r\n\r\nbody\r\n"))
	var smtpErr *smtp.SMTPError
	require.ErrorAs(t, err, &smtpErr)
	assert.Equal(t, 451, smtpErr.Code)

	count, err := st.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

// Test that every recipient is accepted
func TestRcptAcceptsAnything(t *testing.T) {
	_, session := newTestSession(t)

	assert.NoError(t, session.Rcpt("anyone@anywhere.invalid", nil))
	assert.NoError(t, session.Rcpt(strings.Repeat("x", 64)+"@example.com", nil))
}

// Test server construction from config
func TestNewServer(t *testing.T) {
	st := store.SetupTestStore(t)

	cfg := config.SMTPConfig{Host: "localhost", Port: 2525, MaxMessageSize: 1024}
	srv := NewServer(cfg, st)

	assert.Equal(t, "localhost:2525", srv.Addr)
	assert.Equal(t, int64(1024), srv.MaxMessageBytes)
}
