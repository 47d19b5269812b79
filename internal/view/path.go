// Package view implements the MIME body resolution for the webmail UI: it
// fetches body-tree nodes one at a time through a path-addressed endpoint
// and renders them to HTML, dispatching on content type.
package view

import (
	"fmt"
	"strconv"
	"strings"
)

// Path addresses a node in a message body tree as a sequence of zero-based
// child indices. The empty path is the tree root.
type Path []int

// ParsePath parses the "/0/1" form. The empty string and "/" both address
// the root; a leading slash is optional.
func ParsePath(s string) (Path, error) {
	s = strings.Trim(s, "/")
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, "/")
	path := make(Path, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid path segment %q", part)
		}
		path = append(path, n)
	}
	return path, nil
}

// String renders the path as "/0/1"; the root path renders as "".
func (p Path) String() string {
	if len(p) == 0 {
		return ""
	}
	var b strings.Builder
	for _, i := range p {
		b.WriteByte('/')
		b.WriteString(strconv.Itoa(i))
	}
	return b.String()
}

// Child returns a new path addressing the i-th child of p.
func (p Path) Child(i int) Path {
	child := make(Path, len(p)+1)
	copy(child, p)
	child[len(p)] = i
	return child
}
