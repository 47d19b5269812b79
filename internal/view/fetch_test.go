package view

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test fetching a multipart descriptor over HTTP
func TestHTTPFetcherMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages/m1/0", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"kind":"alternative","parts":[{"contentType":"text/plain"},{"contentType":"text/html"}]}`))
	}))
	defer srv.Close()

	f := &HTTPFetcher{BaseURL: srv.URL}
	part, err := f.FetchPart(context.Background(), "m1", Path{0})
	require.NoError(t, err)

	require.NotNil(t, part.Multipart)
	assert.Equal(t, "alternative", part.Multipart.Kind)
	require.Len(t, part.Multipart.Parts, 2)
	assert.Equal(t, "text/html", part.Multipart.Parts[1].ContentType)
}

// Test fetching a leaf and stripping content-type parameters
func TestHTTPFetcherLeaf(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "Text/Plain; charset=utf-8")
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	f := &HTTPFetcher{BaseURL: srv.URL}
	part, err := f.FetchPart(context.Background(), "m1", nil)
	require.NoError(t, err)

	assert.Nil(t, part.Multipart)
	assert.Equal(t, "text/plain", part.ContentType)
	assert.Equal(t, []byte("hello"), part.Data)
}

// Test that endpoint failures surface as transport errors
func TestHTTPFetcherStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	f := &HTTPFetcher{BaseURL: srv.URL}
	_, err := f.FetchPart(context.Background(), "m1", nil)

	var transport *TransportError
	require.ErrorAs(t, err, &transport)
}

// Test that a non-JSON body claiming a descriptor is reported as malformed
func TestHTTPFetcherMalformedDescriptor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("this is not json"))
	}))
	defer srv.Close()

	f := &HTTPFetcher{BaseURL: srv.URL}
	_, err := f.FetchPart(context.Background(), "m1", nil)

	var malformed *MalformedResponseError
	require.ErrorAs(t, err, &malformed)
}

// Test that a cancelled context is reported as the context error
func TestHTTPFetcherContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := &HTTPFetcher{BaseURL: srv.URL}
	_, err := f.FetchPart(ctx, "m1", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

// Test bare content type normalization
func TestBareContentType(t *testing.T) {
	assert.Equal(t, "text/html", BareContentType("text/html; charset=utf-8"))
	assert.Equal(t, "text/html", BareContentType("TEXT/HTML"))
	assert.Equal(t, "image/png", BareContentType("image/png"))
	assert.Equal(t, "", BareContentType(""))
}
