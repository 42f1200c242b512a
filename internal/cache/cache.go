// Package cache holds rendered response snapshots for a bounded time
// window. It is a visibility optimization only: a new post is never lost,
// its appearance on a cached feed is just delayed until the window expires
// or the cache is cleared.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

type Snapshots struct {
	store *gocache.Cache
}

// NewSnapshots builds a snapshot cache with the given time-to-live.
func NewSnapshots(ttl time.Duration) *Snapshots {
	return &Snapshots{store: gocache.New(ttl, 2*ttl)}
}

func (s *Snapshots) Get(key string) ([]byte, bool) {
	raw, found := s.store.Get(key)
	if !found {
		return nil, false
	}
	body, ok := raw.([]byte)
	return body, ok
}

func (s *Snapshots) Set(key string, body []byte) {
	s.store.SetDefault(key, body)
}

// Clear drops every cached snapshot. The next request for any key
// recomputes fresh content.
func (s *Snapshots) Clear() {
	s.store.Flush()
}
