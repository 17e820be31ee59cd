// Package artifact keeps generated files in memory until they are revoked.
//
// An artifact id plays the role a browser object URL plays for a Blob: it is
// handed to the UI, resolves to the bytes while live, and must be revoked
// once the owning session moves on.
package artifact

import (
	"sync"

	"github.com/google/uuid"
)

const (
	ContentTypePNG  = "image/png"
	ContentTypeHTML = "text/html; charset=utf-8"
)

type Artifact struct {
	ID          string
	Name        string
	ContentType string
	Body        []byte
	ETag        string
}

type Store struct {
	mu    sync.RWMutex
	items map[string]*Artifact
}

func NewStore() *Store {
	return &Store{items: make(map[string]*Artifact)}
}

// Put registers body and returns the live artifact.
func (s *Store) Put(name, contentType string, body []byte, etag string) *Artifact {
	a := &Artifact{
		ID:          uuid.New().String(),
		Name:        name,
		ContentType: contentType,
		Body:        body,
		ETag:        etag,
	}

	s.mu.Lock()
	s.items[a.ID] = a
	s.mu.Unlock()

	return a
}

func (s *Store) Get(id string) (*Artifact, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.items[id]
	return a, ok
}

// Revoke drops the artifacts; unknown ids are ignored.
func (s *Store) Revoke(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		delete(s.items, id)
	}
}

// Len reports the number of live artifacts.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.items)
}

// Bytes reports the total size of live artifact bodies.
func (s *Store) Bytes() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, a := range s.items {
		n += int64(len(a.Body))
	}
	return n
}
