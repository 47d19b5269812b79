package view

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedFetcher blocks each fetch until released, so tests can control when
// an in-flight fetch completes relative to unmounts.
type gatedFetcher struct {
	mu      sync.Mutex
	part    *Part
	gate    chan struct{}
	started chan struct{}
}

func newGatedFetcher(part *Part) *gatedFetcher {
	return &gatedFetcher{
		part:    part,
		gate:    make(chan struct{}),
		started: make(chan struct{}, 8),
	}
}

func (f *gatedFetcher) FetchPart(ctx context.Context, id string, path Path) (*Part, error) {
	f.started <- struct{}{}
	select {
	case <-f.gate:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.part == nil {
		return nil, &TransportError{Err: fmt.Errorf("gone")}
	}
	return f.part, nil
}

func (f *gatedFetcher) setPart(part *Part) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.part = part
}

// Test the unfetched -> loading -> rendered transitions
func TestNodeViewLifecycle(t *testing.T) {
	f := newGatedFetcher(textPart("hello"))
	node := NewNodeView(NewRenderer(f), "m1", nil)

	assert.Equal(t, StateUnfetched, node.State())

	done := node.Mount(context.Background())
	<-f.started
	assert.Equal(t, StateLoading, node.State())

	close(f.gate)
	<-done

	assert.Equal(t, StateRendered, node.State())
	html, err := node.Result()
	require.NoError(t, err)
	assert.Contains(t, string(html), "hello")
}

// Test the loading -> error transition and that remounting re-attempts
func TestNodeViewErrorAndRemount(t *testing.T) {
	f := &fakeFetcher{
		parts: map[string]*Part{},
		errs:  map[string]error{"": &TransportError{Err: fmt.Errorf("down")}},
	}
	node := NewNodeView(NewRenderer(f), "m1", nil)

	<-node.Mount(context.Background())
	assert.Equal(t, StateError, node.State())
	_, err := node.Result()
	require.Error(t, err)

	// The endpoint recovers; remounting retries the fetch
	f.mu.Lock()
	delete(f.errs, "")
	f.parts[""] = textPart("back")
	f.mu.Unlock()

	<-node.Mount(context.Background())
	assert.Equal(t, StateRendered, node.State())
	html, err := node.Result()
	require.NoError(t, err)
	assert.Contains(t, string(html), "back")
}

// Test that unmounting cancels the in-flight fetch
func TestNodeViewUnmountCancels(t *testing.T) {
	f := newGatedFetcher(textPart("never shown"))
	node := NewNodeView(NewRenderer(f), "m1", nil)

	done := node.Mount(context.Background())
	<-f.started

	node.Unmount()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled mount did not finish")
	}

	assert.Equal(t, StateUnfetched, node.State())
	html, err := node.Result()
	assert.NoError(t, err)
	assert.Empty(t, string(html))
}

// Test that a late result from an abandoned fetch is never applied to a
// remounted node at the same path
func TestNodeViewStaleResultDiscarded(t *testing.T) {
	f := newGatedFetcher(textPart("old"))
	node := NewNodeView(NewRenderer(f), "m1", nil)

	first := node.Mount(context.Background())
	<-f.started

	// The view is replaced while the first fetch is still in flight
	node.Unmount()
	f.setPart(textPart("new"))

	second := node.Mount(context.Background())
	<-f.started

	// Release both fetches; the first mount's result must be dropped
	close(f.gate)
	<-first
	<-second

	assert.Equal(t, StateRendered, node.State())
	html, err := node.Result()
	require.NoError(t, err)
	assert.Contains(t, string(html), "new")
	assert.NotContains(t, string(html), "old")
}

// Test that mounting over an existing mount supersedes it
func TestNodeViewRemountSupersedes(t *testing.T) {
	f := newGatedFetcher(textPart("old"))
	node := NewNodeView(NewRenderer(f), "m1", nil)

	first := node.Mount(context.Background())
	<-f.started

	f.setPart(textPart("new"))
	second := node.Mount(context.Background())
	<-f.started

	close(f.gate)
	<-first
	<-second

	html, err := node.Result()
	require.NoError(t, err)
	assert.Contains(t, string(html), "new")
}

// Test that cancelling the mount context leaves the node without a result
func TestNodeViewContextCancel(t *testing.T) {
	f := newGatedFetcher(textPart("late"))
	node := NewNodeView(NewRenderer(f), "m1", nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := node.Mount(ctx)
	<-f.started

	cancel()
	<-done

	html, _ := node.Result()
	assert.NotContains(t, string(html), "late")
}
