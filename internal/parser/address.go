package parser

import (
	"fmt"
	"net/mail"
	"strings"
)

// ParseAddressList parses an RFC 5322 address list, keeping group syntax
// intact. net/mail (and go-message on top of it) flattens or rejects groups,
// so the list and group structure is handled here and net/mail is used only
// for the individual mailbox terms.
func ParseAddressList(s string) ([]AddressOrGroup, error) {
	var out []AddressOrGroup

	for _, item := range splitAddressList(s) {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		if name, members, ok := splitGroup(item); ok {
			group := Group{Name: unquoteName(decodeMIMEWord(strings.TrimSpace(name)))}
			for _, m := range splitOnTopLevel(members, ',') {
				m = strings.TrimSpace(m)
				if m == "" {
					continue
				}
				mb, err := ParseMailbox(m)
				if err != nil {
					return nil, fmt.Errorf("group %q: %w", group.Name, err)
				}
				group.Members = append(group.Members, *mb)
			}
			out = append(out, AddressOrGroup{Group: &group})
			continue
		}

		mb, err := ParseMailbox(item)
		if err != nil {
			return nil, err
		}
		out = append(out, AddressOrGroup{Mailbox: mb})
	}

	return out, nil
}

// ParseMailboxList parses a mailbox list (e.g. the From header), which does
// not allow groups.
func ParseMailboxList(s string) ([]Mailbox, error) {
	var out []Mailbox
	for _, item := range splitOnTopLevel(s, ',') {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		mb, err := ParseMailbox(item)
		if err != nil {
			return nil, err
		}
		out = append(out, *mb)
	}
	return out, nil
}

// ParseMailbox parses a single mailbox term (name-addr or addr-spec).
func ParseMailbox(s string) (*Mailbox, error) {
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return nil, fmt.Errorf("parse mailbox %q: %w", s, err)
	}

	at := strings.LastIndex(addr.Address, "@")
	if at < 0 {
		return nil, fmt.Errorf("parse mailbox %q: missing domain", s)
	}

	return &Mailbox{
		Name: decodeMIMEWord(addr.Name),
		Address: Address{
			Local:  addr.Address[:at],
			Domain: addr.Address[at+1:],
		},
	}, nil
}

// splitAddressList splits on commas that are not inside quoted strings,
// angle brackets, or a group's member list.
func splitAddressList(s string) []string {
	var (
		items   []string
		start   int
		quoted  bool
		escaped bool
		inAngle bool
		inGroup bool
	)

	for i, r := range s {
		switch {
		case escaped:
			escaped = false
		case r == '\\' && quoted:
			escaped = true
		case r == '"':
			quoted = !quoted
		case quoted:
		case r == '<':
			inAngle = true
		case r == '>':
			inAngle = false
		case r == ':' && !inAngle:
			inGroup = true
		case r == ';':
			inGroup = false
		case r == ',' && !inAngle && !inGroup:
			items = append(items, s[start:i])
			start = i + 1
		}
	}

	return append(items, s[start:])
}

// splitGroup detects group syntax (display-name ":" mailbox-list ";") and
// returns the name and the raw member list.
func splitGroup(item string) (name, members string, ok bool) {
	var (
		quoted  bool
		escaped bool
		inAngle bool
	)

	for i, r := range item {
		switch {
		case escaped:
			escaped = false
		case r == '\\' && quoted:
			escaped = true
		case r == '"':
			quoted = !quoted
		case quoted:
		case r == '<':
			inAngle = true
		case r == '>':
			inAngle = false
		case r == ':' && !inAngle:
			members = strings.TrimSpace(item[i+1:])
			members = strings.TrimSuffix(members, ";")
			return item[:i], members, true
		}
	}

	return "", "", false
}

// splitOnTopLevel splits on sep outside quoted strings and angle brackets.
func splitOnTopLevel(s string, sep rune) []string {
	var (
		items   []string
		start   int
		quoted  bool
		escaped bool
		inAngle bool
	)

	for i, r := range s {
		switch {
		case escaped:
			escaped = false
		case r == '\\' && quoted:
			escaped = true
		case r == '"':
			quoted = !quoted
		case quoted:
		case r == '<':
			inAngle = true
		case r == '>':
			inAngle = false
		case r == sep && !inAngle:
			items = append(items, s[start:i])
			start = i + 1
		}
	}

	return append(items, s[start:])
}

// unquoteName strips surrounding double quotes from a display name and
// unescapes its contents.
func unquoteName(s string) string {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}

	var b strings.Builder
	escaped := false
	for _, r := range s[1 : len(s)-1] {
		if escaped {
			b.WriteRune(r)
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
