package artifact

import (
	"sync"
	"testing"
)

func TestStore(t *testing.T) {
	s := NewStore()

	a := s.Put("qr-code.png", ContentTypePNG, []byte("png"), "")
	b := s.Put("a.txt-download.html", ContentTypeHTML, []byte("<html>"), "etag")

	if a.ID == b.ID {
		t.Fatal("expected distinct ids")
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
	if s.Bytes() != 9 {
		t.Errorf("Bytes() = %d, want 9", s.Bytes())
	}

	got, ok := s.Get(a.ID)
	if !ok || got.Name != "qr-code.png" {
		t.Errorf("Get(%s) = %+v, %v", a.ID, got, ok)
	}

	s.Revoke(a.ID, "unknown")
	if _, ok := s.Get(a.ID); ok {
		t.Error("revoked artifact still resolvable")
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestStore_Concurrent(t *testing.T) {
	s := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a := s.Put("x", ContentTypePNG, []byte{1}, "")
			s.Get(a.ID)
			s.Revoke(a.ID)
		}()
	}
	wg.Wait()

	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}
