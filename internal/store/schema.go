package store

// Volatile message index: summary columns for the list view plus the raw
// message bytes. Body trees are re-parsed from raw on demand rather than
// stored in parsed form.
const schema = `
CREATE TABLE IF NOT EXISTS messages (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,  -- arrival order
    id TEXT UNIQUE NOT NULL,                -- Message-ID (or generated)
    date INTEGER NOT NULL,                  -- send time, unix seconds
    subject TEXT,
    sender TEXT NOT NULL,                   -- JSON array of mailboxes
    recipients TEXT NOT NULL,               -- JSON array of mailbox-or-group entries
    preview TEXT,                           -- plain-text snippet for the list view
    body_kind TEXT NOT NULL,                -- data | mime-multipart
    raw BLOB NOT NULL,                      -- original RFC 5322 bytes
    received_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`
