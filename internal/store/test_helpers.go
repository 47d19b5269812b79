package store

import (
	"fmt"
	"testing"
)

// SetupTestStore creates an in-memory store for tests.
func SetupTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open("")
	if err != nil {
		t.Fatalf("Failed to open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestMessage builds a minimal raw message for tests.
func TestMessage(id, subject, body string) []byte {
	raw := ""
	if id != "" {
		raw += "Message-Id: " + id + "\r\n"
	}
	raw += "From: Alice <alice@example.com>\r\n" +
		"To: bob@example.com\r\n" +
		"Subject: " + subject + "\r\n" +
		"Date: Tue, 15 Mar 2022 10:00:00 +0000\r\n" +
		"\r\n" +
		body + "\r\n"
	return []byte(raw)
}

// TestMultipartMessage builds a raw multipart message with the given
// subtype and text/plain parts.
func TestMultipartMessage(id, subtype string, parts ...string) []byte {
	raw := "Message-Id: " + id + "\r\n" +
		"From: alice@example.com\r\n" +
		"To: bob@example.com\r\n" +
		"Subject: multipart test\r\n" +
		"MIME-Version: 1.0\r\n" +
		fmt.Sprintf("Content-Type: multipart/%s; boundary=\"bnd\"\r\n", subtype) +
		"\r\n"
	for _, part := range parts {
		raw += "--bnd\r\n" +
			"Content-Type: text/plain\r\n" +
			"\r\n" +
			part + "\r\n"
	}
	raw += "--bnd--\r\n"
	return []byte(raw)
}
