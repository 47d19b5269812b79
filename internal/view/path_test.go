package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test parse/print round trips of body-tree paths
func TestPathRoundTrip(t *testing.T) {
	tests := []struct {
		in   string
		path Path
		out  string
	}{
		{"", nil, ""},
		{"/", nil, ""},
		{"0", Path{0}, "/0"},
		{"/0", Path{0}, "/0"},
		{"/0/1", Path{0, 1}, "/0/1"},
		{"2/10/0", Path{2, 10, 0}, "/2/10/0"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			path, err := ParsePath(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.path, path)
			assert.Equal(t, tt.out, path.String())
		})
	}
}

// Test rejection of malformed path segments
func TestParsePathInvalid(t *testing.T) {
	for _, in := range []string{"/a", "/0/x", "/-1", "/1.5", "/0//1"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParsePath(in)
			assert.Error(t, err)
		})
	}
}

// Test that Child does not alias the parent path
func TestPathChild(t *testing.T) {
	parent := Path{0}
	a := parent.Child(1)
	b := parent.Child(2)

	assert.Equal(t, Path{0, 1}, a)
	assert.Equal(t, Path{0, 2}, b)
	assert.Equal(t, Path{0}, parent)
}
