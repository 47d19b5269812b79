package view

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
)

// Part is one fetched node of a message body tree. Multipart is set for
// multipart envelopes; Data carries the literal payload otherwise.
type Part struct {
	// ContentType is the bare type/subtype with parameters stripped.
	ContentType string
	Multipart   *MultipartDesc
	Data        []byte
}

// MultipartDesc is the wire descriptor of a multipart node: its kind and
// the content types of its children, in order. Children themselves are
// fetched lazily by path.
type MultipartDesc struct {
	Kind  string      `json:"kind"`
	Parts []ChildInfo `json:"parts"`
}

// ChildInfo describes one child of a multipart node.
type ChildInfo struct {
	ContentType string `json:"contentType"`
}

// Fetcher retrieves exactly one body-tree node per call; descendants are
// never fetched with their parent. Implementations must not cache:
// re-fetching the same path yields a fresh node.
type Fetcher interface {
	FetchPart(ctx context.Context, id string, path Path) (*Part, error)
}

// HTTPFetcher consumes the retrieval endpoint over HTTP: multipart
// envelopes arrive as application/json descriptors, anything else as a raw
// payload tagged by the Content-Type response header.
type HTTPFetcher struct {
	// BaseURL is the server root, without a trailing slash.
	BaseURL string
	// Client defaults to http.DefaultClient.
	Client *http.Client
}

func (f *HTTPFetcher) FetchPart(ctx context.Context, id string, path Path) (*Part, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	endpoint := f.BaseURL + "/messages/" + url.PathEscape(id) + path.String()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	contentType := BareContentType(resp.Header.Get("Content-Type"))

	if contentType == "application/json" {
		var desc MultipartDesc
		if err := json.NewDecoder(resp.Body).Decode(&desc); err != nil {
			return nil, &MalformedResponseError{ContentType: contentType, Err: err}
		}
		if desc.Kind == "" {
			return nil, &MalformedResponseError{ContentType: contentType, Err: fmt.Errorf("descriptor has no kind")}
		}
		return &Part{ContentType: "multipart/" + desc.Kind, Multipart: &desc}, nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &TransportError{Err: err}
	}

	return &Part{ContentType: contentType, Data: data}, nil
}

// BareContentType strips parameters from a Content-Type value and lowercases
// the type/subtype, for dispatch matching.
func BareContentType(value string) string {
	if value == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(value)
	if err != nil {
		// Fall back to a manual strip of the parameter section
		mediaType = strings.TrimSpace(strings.SplitN(value, ";", 2)[0])
	}
	return strings.ToLower(mediaType)
}
