package parser

import (
	"encoding/json"
	"fmt"
	"time"
)

// Address is the addr-spec of a mailbox: local part and domain.
type Address struct {
	Local  string `json:"local"`
	Domain string `json:"domain"`
}

// String formats the address as local@domain.
func (a Address) String() string {
	return a.Local + "@" + a.Domain
}

// Mailbox is a single sender or recipient: an address with an optional
// display name.
type Mailbox struct {
	Name    string  `json:"name,omitempty"`
	Address Address `json:"address"`
}

// String formats the mailbox as `Name <local@domain>`, or the bare address
// when there is no display name.
func (m Mailbox) String() string {
	if m.Name == "" {
		return m.Address.String()
	}
	return m.Name + " <" + m.Address.String() + ">"
}

// Group is a named, ordered collection of mailboxes (RFC 5322 group syntax).
// Groups never contain other groups.
type Group struct {
	Name    string    `json:"name"`
	Members []Mailbox `json:"members"`
}

// String formats the group as `Name: member, member;`.
func (g Group) String() string {
	s := g.Name + ":"
	for i, m := range g.Members {
		if i > 0 {
			s += ","
		}
		s += " " + m.String()
	}
	return s + ";"
}

// AddressOrGroup holds either a mailbox or a group. Exactly one of the two
// fields is set.
type AddressOrGroup struct {
	Mailbox *Mailbox
	Group   *Group
}

// String formats whichever variant is set.
func (a AddressOrGroup) String() string {
	switch {
	case a.Mailbox != nil:
		return a.Mailbox.String()
	case a.Group != nil:
		return a.Group.String()
	default:
		return ""
	}
}

// MarshalJSON encodes the variant as {"mailbox": ...} or {"group": ...}.
func (a AddressOrGroup) MarshalJSON() ([]byte, error) {
	switch {
	case a.Mailbox != nil:
		return json.Marshal(map[string]*Mailbox{"mailbox": a.Mailbox})
	case a.Group != nil:
		return json.Marshal(map[string]*Group{"group": a.Group})
	default:
		return nil, fmt.Errorf("address-or-group has no variant set")
	}
}

// UnmarshalJSON decodes the {"mailbox": ...} / {"group": ...} encoding.
func (a *AddressOrGroup) UnmarshalJSON(data []byte) error {
	var raw struct {
		Mailbox *Mailbox `json:"mailbox"`
		Group   *Group   `json:"group"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Mailbox == nil && raw.Group == nil {
		return fmt.Errorf("address-or-group has no variant set")
	}
	a.Mailbox = raw.Mailbox
	a.Group = raw.Group
	return nil
}

// Message is a parsed mail message. Immutable once parsed.
type Message struct {
	ID      string
	Date    time.Time
	From    []Mailbox
	To      []AddressOrGroup
	Subject string
	// Body is the root of the MIME body tree. Messages without MIME
	// structure are represented as a single text/plain leaf.
	Body *Entity
}

// EntityKind discriminates the body-node union. Dispatch is always on the
// explicit kind, never on payload shape.
type EntityKind int

const (
	// KindText is a leaf with decoded textual content.
	KindText EntityKind = iota
	// KindBinary is a leaf with raw, opaque content.
	KindBinary
	// KindMultipart is a container of ordered child entities.
	KindMultipart
)

// MultipartKind is the lowercased multipart subtype. Only Mixed and
// Alternative are recognized by the renderer; other subtypes pass through
// parsing untouched and are rejected at render time.
type MultipartKind string

const (
	MultipartMixed       MultipartKind = "mixed"
	MultipartAlternative MultipartKind = "alternative"
)

// Entity is one node of the body tree: either a leaf (text or binary
// payload) or a multipart container.
type Entity struct {
	Kind EntityKind
	// ContentType is the bare type/subtype, lowercased, parameters stripped.
	ContentType string
	// Text holds the payload when Kind == KindText.
	Text string
	// Data holds the payload when Kind == KindBinary.
	Data []byte
	// Multipart holds the children when Kind == KindMultipart.
	Multipart *Multipart
}

// Multipart is the payload of a multipart entity.
type Multipart struct {
	Kind  MultipartKind
	Parts []*Entity
}

// Part walks the body tree by zero-based child indices and returns the
// addressed node. An empty index list addresses the root. It fails when an
// index is out of range or the walk descends into a leaf.
func (e *Entity) Part(indices []int) (*Entity, error) {
	node := e
	for _, i := range indices {
		if node.Kind != KindMultipart {
			return nil, fmt.Errorf("part %d: node %s is not multipart", i, node.ContentType)
		}
		if i < 0 || i >= len(node.Multipart.Parts) {
			return nil, fmt.Errorf("part %d: index out of range (%d parts)", i, len(node.Multipart.Parts))
		}
		node = node.Multipart.Parts[i]
	}
	return node, nil
}
