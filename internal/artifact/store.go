// Package artifact implements the run-scoped artifact exchange area.
// Each key has exactly one legal writer, determined statically from the
// expanded instance set, and publish is write-once, so readers observe
// either a published blob or a structured miss.
package artifact

import (
	"fmt"
	"sync"
	"time"
)

// Store is a name-keyed, write-once-per-run blob area. One Store exists
// per pipeline run; it is never shared across runs.
type Store struct {
	mu        sync.RWMutex
	producers map[string]string // key -> producing instance ID
	blobs     map[string]*entry
}

type entry struct {
	data      []byte
	retention time.Duration
}

// NewStore creates an empty store for one run.
func NewStore() *Store {
	return &Store{
		producers: make(map[string]string),
		blobs:     make(map[string]*entry),
	}
}

// RegisterProducer records the single legal writer for a key. Two
// instances declaring the same key is a definition error.
func (s *Store) RegisterProducer(key, instanceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.producers[key]; ok {
		return fmt.Errorf("artifact %q declared by both %q and %q", key, prev, instanceID)
	}
	s.producers[key] = instanceID
	return nil
}

// Producer returns the registered producing instance for a key.
func (s *Store) Producer(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.producers[key]
	return id, ok
}

// Publish stores a blob under key. It fails on a repeat publish and on a
// key with no registered producer. Retention is advisory metadata, not
// enforced here.
func (s *Store) Publish(key string, data []byte, retention time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.producers[key]; !ok {
		return fmt.Errorf("artifact %q has no registered producer", key)
	}
	if _, ok := s.blobs[key]; ok {
		return fmt.Errorf("artifact %q already published in this run", key)
	}
	s.blobs[key] = &entry{
		data:      append([]byte(nil), data...),
		retention: retention,
	}
	return nil
}

// Fetch returns a copy of the blob for key. An unpublished key fails,
// distinguishing a key nobody produces from one whose producer did not
// reach success.
func (s *Store) Fetch(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if e, ok := s.blobs[key]; ok {
		return append([]byte(nil), e.data...), nil
	}
	if producer, ok := s.producers[key]; ok {
		return nil, fmt.Errorf("artifact %q not available: producer %q did not succeed", key, producer)
	}
	return nil, fmt.Errorf("artifact %q has no producer", key)
}

// Retention returns the advisory retention recorded for a published key.
func (s *Store) Retention(key string) (time.Duration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.blobs[key]; ok {
		return e.retention, true
	}
	return 0, false
}
