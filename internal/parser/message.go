package parser

import (
	"fmt"
	"html"
	"io"
	"mime"
	"strings"
	"time"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/charset"
	gomail "github.com/emersion/go-message/mail"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/encoding/charmap"
)

func init() {
	// Register additional charsets that are commonly used in emails
	charset.RegisterEncoding("windows-1252", charmap.Windows1252)
	charset.RegisterEncoding("iso-8859-1", charmap.ISO8859_1)
	charset.RegisterEncoding("iso-8859-15", charmap.ISO8859_15)
}

// Read parses a raw RFC 5322 message into a Message with its full body tree.
// Transfer encodings and text charsets are decoded during the read; the
// resulting tree carries only decoded text or raw binary payloads.
func Read(r io.Reader) (*Message, error) {
	ent, err := message.Read(r)
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, fmt.Errorf("failed to read message: %w", err)
	}

	msg := &Message{
		ID:      strings.TrimSpace(ent.Header.Get("Message-Id")),
		Subject: decodeMIMEWord(ent.Header.Get("Subject")),
	}

	header := gomail.Header{Header: ent.Header}
	if date, err := header.Date(); err == nil {
		msg.Date = date
	} else {
		// Use arrival time as fallback
		msg.Date = time.Now()
	}

	if raw := ent.Header.Get("From"); raw != "" {
		from, err := ParseMailboxList(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse From: %w", err)
		}
		msg.From = from
	}

	if raw := ent.Header.Get("To"); raw != "" {
		to, err := ParseAddressList(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse To: %w", err)
		}
		msg.To = to
	}

	body, err := readEntity(ent)
	if err != nil {
		return nil, err
	}
	msg.Body = body

	return msg, nil
}

// readEntity converts one go-message entity (and, for multiparts, its
// children) into a body-tree node.
func readEntity(e *message.Entity) (*Entity, error) {
	contentType, _, err := e.Header.ContentType()
	if err != nil {
		// Malformed Content-Type header; treat the payload as plain text
		contentType = "text/plain"
	}
	contentType = strings.ToLower(contentType)

	if mr := e.MultipartReader(); mr != nil {
		mp := &Multipart{
			Kind: MultipartKind(strings.TrimPrefix(contentType, "multipart/")),
		}
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("failed to read part: %w", err)
			}
			child, err := readEntity(part)
			if err != nil {
				return nil, err
			}
			mp.Parts = append(mp.Parts, child)
		}
		return &Entity{Kind: KindMultipart, ContentType: contentType, Multipart: mp}, nil
	}

	body, err := io.ReadAll(e.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	if strings.HasPrefix(contentType, "text/") {
		return &Entity{Kind: KindText, ContentType: contentType, Text: string(body)}, nil
	}
	return &Entity{Kind: KindBinary, ContentType: contentType, Data: body}, nil
}

// htmlStripper removes all markup; used to derive plain-text previews from
// HTML-only messages.
var htmlStripper = bluemonday.StrictPolicy()

const previewLimit = 200

// Preview returns a short plain-text snippet of the message body for the
// list view: the first text/plain leaf, or the first text/html leaf with
// its markup stripped.
func (m *Message) Preview() string {
	if m.Body == nil {
		return ""
	}
	if leaf := findLeaf(m.Body, "text/plain"); leaf != nil {
		return snippet(leaf.Text)
	}
	if leaf := findLeaf(m.Body, "text/html"); leaf != nil {
		return snippet(html.UnescapeString(htmlStripper.Sanitize(leaf.Text)))
	}
	return ""
}

// findLeaf returns the first leaf with the given content type, in tree order.
func findLeaf(e *Entity, contentType string) *Entity {
	if e.Kind == KindMultipart {
		for _, part := range e.Multipart.Parts {
			if leaf := findLeaf(part, contentType); leaf != nil {
				return leaf
			}
		}
		return nil
	}
	if e.ContentType == contentType {
		return e
	}
	return nil
}

// snippet collapses whitespace and truncates to the preview limit.
func snippet(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) > previewLimit {
		return string(runes[:previewLimit]) + "…"
	}
	return s
}

// decodeMIMEWord decodes MIME-encoded words (RFC 2047)
// Example: =?UTF-8?Q?Invitaci=C3=B3n?= -> Invitación
func decodeMIMEWord(s string) string {
	dec := &mime.WordDecoder{CharsetReader: charset.Reader}
	decoded, err := dec.DecodeHeader(s)
	if err != nil {
		// If decoding fails, return original string
		return s
	}
	return decoded
}
