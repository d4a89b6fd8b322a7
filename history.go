package hxpage

import (
	"errors"
	"fmt"
	"net/url"
	"sync"
)

// Location is the current path and full URL.
type Location struct {
	Path string
	URL  string
}

// History is the navigation environment: it reports the current location
// and records pushed paths without a page reload.
type History interface {
	Location() Location
	Push(path string) error
}

// MemoryHistory is a History backed by a stack of URLs.
type MemoryHistory struct {
	mu      sync.Mutex
	entries []*url.URL
}

// NewMemoryHistory creates a history whose first entry is rawURL.
func NewMemoryHistory(rawURL string) (*MemoryHistory, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("hxpage: history url: %w", err)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return &MemoryHistory{entries: []*url.URL{u}}, nil
}

// Location implements History.
func (h *MemoryHistory) Location() Location {
	h.mu.Lock()
	defer h.mu.Unlock()
	u := h.entries[len(h.entries)-1]
	return Location{Path: u.Path, URL: u.String()}
}

// Push resolves path against the current URL and makes it current.
func (h *MemoryHistory) Push(path string) error {
	if path == "" {
		return errors.New("hxpage: empty navigation path")
	}
	ref, err := url.Parse(path)
	if err != nil {
		return fmt.Errorf("hxpage: navigation path %q: %w", path, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, h.entries[len(h.entries)-1].ResolveReference(ref))
	return nil
}

// Back drops the current entry. It reports false when there is nothing to
// go back to.
func (h *MemoryHistory) Back() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) < 2 {
		return false
	}
	h.entries = h.entries[:len(h.entries)-1]
	return true
}

// Len returns the number of entries.
func (h *MemoryHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}
