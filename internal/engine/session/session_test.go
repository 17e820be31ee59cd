package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"qrpack/internal/engine/artifact"
	"qrpack/internal/engine/input"
	"qrpack/internal/engine/pack"
	"qrpack/internal/engine/symbol"
)

func newTestManager(t *testing.T, maxBytes int64) *Manager {
	t.Helper()

	enc, err := symbol.NewEncoder(256)
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	gen := NewGenerator(enc, pack.NewBuilder(maxBytes), artifact.NewStore())
	return NewManager(gen, time.Minute)
}

func TestGenerate_URLMode(t *testing.T) {
	m := newTestManager(t, 0)
	s, created := m.Get("")
	if !created {
		t.Fatal("expected a new session")
	}

	result, err := s.Generate(context.Background(), input.Request{Mode: input.ModeURL, URL: "example.com"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if result.Content != "https://example.com" {
		t.Errorf("Content = %q, want https://example.com", result.Content)
	}
	if result.Symbol.Name != SymbolFilename {
		t.Errorf("Symbol.Name = %q, want %q", result.Symbol.Name, SymbolFilename)
	}
	if result.Package != nil {
		t.Error("URL mode must not produce a package")
	}

	ready, ok := s.Current().(Ready)
	if !ok {
		t.Fatalf("state = %s, want ready", s.Current().Name())
	}
	if ready.Result != result {
		t.Error("Ready must hold the returned result")
	}
	if m.Generator().Store().Len() != 1 {
		t.Errorf("live artifacts = %d, want 1", m.Generator().Store().Len())
	}
}

func TestGenerate_FileMode(t *testing.T) {
	m := newTestManager(t, 0)
	s, _ := m.Get("")
	content := []byte("hello.txt!")

	result, err := s.Generate(context.Background(), input.Request{
		Mode:     input.ModeFile,
		File:     content,
		Filename: "a.txt",
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if result.Content != "Download: a.txt" {
		t.Errorf("Content = %q, want label", result.Content)
	}
	if strings.Contains(result.Content, string(content)) || strings.Contains(result.Content, "://") {
		t.Errorf("label %q must not carry content or an address", result.Content)
	}
	if result.Package == nil || result.Package.Name != "a.txt-download.html" {
		t.Fatalf("Package = %+v", result.Package)
	}

	got, err := pack.Extract(result.Package.Body)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got.Filename != "a.txt" || string(got.Data) != "hello.txt!" {
		t.Errorf("package round-trip = %q/%q", got.Filename, got.Data)
	}
	if result.File.Size != 10 {
		t.Errorf("File.Size = %d", result.File.Size)
	}
	if m.Generator().Store().Len() != 2 {
		t.Errorf("live artifacts = %d, want 2", m.Generator().Store().Len())
	}
}

func TestGenerate_ValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		req     input.Request
		wantErr error
	}{
		{name: "Empty URL", req: input.Request{Mode: input.ModeURL}, wantErr: input.ErrEmptyURL},
		{name: "Malformed URL", req: input.Request{Mode: input.ModeURL, URL: "exa mple.com"}, wantErr: input.ErrMalformedURL},
		{name: "No File", req: input.Request{Mode: input.ModeFile, Filename: "a.txt"}, wantErr: input.ErrEmptyFile},
		{name: "Oversized File", req: input.Request{Mode: input.ModeFile, File: make([]byte, 11), Filename: "a.txt"}, wantErr: pack.ErrFileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestManager(t, 10)
			s, _ := m.Get("")

			_, err := s.Generate(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Generate() error = %v, want %v", err, tt.wantErr)
			}

			idle, ok := s.Current().(Idle)
			if !ok {
				t.Fatalf("state = %s, want idle", s.Current().Name())
			}
			if !errors.Is(idle.Err, tt.wantErr) {
				t.Errorf("Idle.Err = %v", idle.Err)
			}
			if m.Generator().Store().Len() != 0 {
				t.Error("a rejected generation must not leave artifacts")
			}
			if m.Generator().Stats().Rejected.Load() != 1 {
				t.Errorf("Rejected = %d", m.Generator().Stats().Rejected.Load())
			}
		})
	}
}

func TestGenerate_CapacityFailure(t *testing.T) {
	m := newTestManager(t, 0)
	s, _ := m.Get("")

	_, err := s.Generate(context.Background(), input.Request{
		Mode: input.ModeURL,
		URL:  "example.com/" + strings.Repeat("a", 3000),
	})
	if !errors.Is(err, symbol.ErrCapacityExceeded) {
		t.Fatalf("Generate() error = %v, want capacity error", err)
	}
	if _, ok := s.Current().(Idle); !ok {
		t.Errorf("state = %s, want idle", s.Current().Name())
	}
	if m.Generator().Store().Len() != 0 {
		t.Error("a failed generation must not leave artifacts")
	}
	if m.Generator().Stats().Failed.Load() != 1 {
		t.Errorf("Failed = %d", m.Generator().Stats().Failed.Load())
	}
}

func TestGenerate_BusyIsNoOp(t *testing.T) {
	m := newTestManager(t, 0)
	s, _ := m.Get("")

	if !s.begin(input.ModeURL) {
		t.Fatal("begin() should succeed from idle")
	}

	_, err := s.Generate(context.Background(), input.Request{Mode: input.ModeURL, URL: "example.com"})
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("Generate() error = %v, want ErrBusy", err)
	}
	if _, ok := s.Current().(Validating); !ok {
		t.Errorf("state = %s, want validating", s.Current().Name())
	}
	if err := s.Reset(); !errors.Is(err, ErrBusy) {
		t.Errorf("Reset() error = %v, want ErrBusy", err)
	}
	if m.Generator().Stats().Started.Load() != 0 {
		t.Error("a busy call must not start a generation")
	}
}

func TestReject(t *testing.T) {
	m := newTestManager(t, 0)
	s, _ := m.Get("")

	first, err := s.Generate(context.Background(), input.Request{Mode: input.ModeURL, URL: "example.com"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	uploadErr := errors.Join(pack.ErrFileTooLarge, errors.New("http: request body too large"))
	if err := s.Reject(input.ModeFile, uploadErr); !errors.Is(err, pack.ErrFileTooLarge) {
		t.Fatalf("Reject() error = %v, want ErrFileTooLarge", err)
	}

	idle, ok := s.Current().(Idle)
	if !ok {
		t.Fatalf("state = %s, want idle", s.Current().Name())
	}
	if !errors.Is(idle.Err, pack.ErrFileTooLarge) {
		t.Errorf("Idle.Err = %v", idle.Err)
	}
	if _, ok := m.Generator().Store().Get(first.Symbol.ID); ok {
		t.Error("previous symbol should be revoked")
	}

	stats := m.Generator().Stats()
	if stats.Started.Load() != 2 || stats.Rejected.Load() != 1 {
		t.Errorf("stats started=%d rejected=%d", stats.Started.Load(), stats.Rejected.Load())
	}

	// Busy sessions keep their state
	if !s.begin(input.ModeURL) {
		t.Fatal("begin() should succeed from idle")
	}
	if err := s.Reject(input.ModeFile, uploadErr); !errors.Is(err, ErrBusy) {
		t.Errorf("Reject() while busy = %v, want ErrBusy", err)
	}
	if _, ok := s.Current().(Validating); !ok {
		t.Errorf("state = %s, want validating", s.Current().Name())
	}
}

func TestGenerate_CanceledContext(t *testing.T) {
	m := newTestManager(t, 0)
	s, _ := m.Get("")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Generate(ctx, input.Request{Mode: input.ModeURL, URL: "example.com"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Generate() error = %v", err)
	}
	if _, ok := s.Current().(Idle); !ok {
		t.Errorf("state = %s, want idle", s.Current().Name())
	}
}

func TestRegenerate_ReleasesPrevious(t *testing.T) {
	m := newTestManager(t, 0)
	s, _ := m.Get("")
	store := m.Generator().Store()

	first, err := s.Generate(context.Background(), input.Request{Mode: input.ModeFile, File: []byte("one"), Filename: "one.txt"})
	if err != nil {
		t.Fatalf("first Generate() error = %v", err)
	}

	second, err := s.Generate(context.Background(), input.Request{Mode: input.ModeURL, URL: "example.com"})
	if err != nil {
		t.Fatalf("second Generate() error = %v", err)
	}

	for _, id := range first.artifactIDs() {
		if _, ok := store.Get(id); ok {
			t.Errorf("artifact %s from the previous result is still live", id)
		}
	}
	if _, ok := store.Get(second.Symbol.ID); !ok {
		t.Error("current symbol must be live")
	}
	if store.Len() != 1 {
		t.Errorf("live artifacts = %d, want 1", store.Len())
	}
}

func TestReset(t *testing.T) {
	m := newTestManager(t, 0)
	s, _ := m.Get("")

	if err := s.Reset(); err != nil {
		t.Fatalf("Reset() from idle error = %v", err)
	}

	if _, err := s.Generate(context.Background(), input.Request{Mode: input.ModeURL, URL: "example.com"}); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if err := s.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	if idle, ok := s.Current().(Idle); !ok || idle.Err != nil {
		t.Errorf("state = %#v, want clean idle", s.Current())
	}
	if m.Generator().Store().Len() != 0 {
		t.Errorf("live artifacts = %d after reset", m.Generator().Store().Len())
	}
}

func TestIdempotentGeneration(t *testing.T) {
	m := newTestManager(t, 0)
	s, _ := m.Get("")
	req := input.Request{Mode: input.ModeFile, File: []byte("same bytes"), Filename: "same.bin"}

	first, err := s.Generate(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	firstSymbol := append([]byte(nil), first.Symbol.Body...)
	firstDoc := append([]byte(nil), first.Package.Body...)

	second, err := s.Generate(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}

	if string(firstSymbol) != string(second.Symbol.Body) {
		t.Error("symbol differs between identical generations")
	}
	if string(firstDoc) != string(second.Package.Body) {
		t.Error("package differs between identical generations")
	}
}

func TestManager(t *testing.T) {
	m := newTestManager(t, 0)
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	now := base
	m.now = func() time.Time { return now }

	s, created := m.Get("")
	if !created {
		t.Fatal("expected creation")
	}
	again, created := m.Get(s.ID)
	if created || again != s {
		t.Error("known id must return the same session")
	}
	if _, created := m.Get("unknown"); !created {
		t.Error("unknown id must create a session")
	}
	if m.Len() != 2 {
		t.Errorf("Len() = %d, want 2", m.Len())
	}

	if _, err := s.Generate(context.Background(), input.Request{Mode: input.ModeURL, URL: "example.com"}); err != nil {
		t.Fatal(err)
	}

	now = base.Add(30 * time.Second)
	if n := m.Sweep(); n != 0 {
		t.Errorf("Sweep() removed %d fresh sessions", n)
	}

	now = base.Add(2 * time.Minute)
	if n := m.Sweep(); n != 2 {
		t.Errorf("Sweep() removed %d, want 2", n)
	}
	if m.Len() != 0 {
		t.Errorf("Len() = %d after sweep", m.Len())
	}
	if m.Generator().Store().Len() != 0 {
		t.Error("sweep must revoke artifacts")
	}
}
