package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/felo/smtpview/internal/store"
)

// messageRow is the template projection of a message summary.
type messageRow struct {
	ID        string
	Subject   string
	From      string
	To        string
	Date      string
	Preview   string
	Multipart bool
}

// Index displays the message list
func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.store.List()
	if err != nil {
		log.Printf("Error listing messages: %v", err)
		http.Error(w, "Failed to list messages", http.StatusInternalServerError)
		return
	}

	rows := make([]messageRow, len(summaries))
	for i, summary := range summaries {
		rows[i] = summaryRow(summary)
	}

	data := map[string]interface{}{
		"PageTitle": "Inbox - smtpview",
		"Messages":  rows,
		"Count":     len(rows),
		"SMTPAddr":  h.cfg.SMTPAddress(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		log.Printf("Template error: %v", err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

func summaryRow(summary store.Summary) messageRow {
	subject := summary.Subject
	if subject == "" {
		subject = "(no subject)"
	}

	var from []string
	for _, m := range summary.From {
		from = append(from, m.String())
	}
	var to []string
	for _, a := range summary.To {
		to = append(to, a.String())
	}

	return messageRow{
		ID:        summary.ID,
		Subject:   subject,
		From:      strings.Join(from, ", "),
		To:        strings.Join(to, ", "),
		Date:      time.Unix(summary.Date, 0).Format("Jan 2, 2006 3:04 PM"),
		Preview:   summary.Preview,
		Multipart: summary.Body == store.BodyMimeMultipart,
	}
}
