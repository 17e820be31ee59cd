package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"qrpack/internal/engine/input"
	"qrpack/internal/pkg/logger"
)

// ErrBusy is returned when a generation is already in flight. The call has
// no effect.
var ErrBusy = errors.New("a generation is already in progress")

// Session is one user's interactive state:
// Idle → Validating → Generating → Ready → Idle (reset).
type Session struct {
	ID string

	mu       sync.Mutex
	state    State
	lastSeen time.Time

	gen *Generator
	log zerolog.Logger
	now func() time.Time
}

func newSession(id string, gen *Generator, now func() time.Time) *Session {
	return &Session{
		ID:       id,
		state:    Idle{},
		lastSeen: now(),
		gen:      gen,
		log:      logger.Session(id),
		now:      now,
	}
}

// Current returns the present state.
func (s *Session) Current() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Generate validates req and produces its artifacts. While another
// generation of this session is in flight it returns ErrBusy and changes
// nothing. Artifacts from a previous Ready state are revoked first.
func (s *Session) Generate(ctx context.Context, req input.Request) (*Result, error) {
	if !s.begin(req.Mode) {
		return nil, ErrBusy
	}

	start := time.Now()
	s.gen.stats.Started.Add(1)

	validated, err := s.gen.validate(req)
	if err != nil {
		s.gen.stats.Rejected.Add(1)
		s.fail(err)
		s.log.Info().Err(err).Str("mode", string(req.Mode)).Msg("generation rejected")
		return nil, err
	}

	s.transition(Generating{Mode: validated.Mode})

	result, err := s.gen.generate(ctx, validated)
	if err != nil {
		s.gen.stats.Failed.Add(1)
		s.fail(err)
		s.log.Warn().Err(err).Str("mode", string(req.Mode)).Msg("generation failed")
		return nil, err
	}

	s.transition(Ready{Result: result})
	s.gen.stats.Succeeded.Add(1)

	event := s.log.Info().
		Str("mode", string(result.Mode)).
		Int("symbol_bytes", len(result.Symbol.Body)).
		Dur("duration", time.Since(start))
	if result.File != nil {
		event = event.Int64("file_bytes", result.File.Size).Str("media_type", result.File.MediaType)
	}
	event.Msg("generation ready")

	return result, nil
}

// Reject records a request that failed before it could be validated, such
// as an upload over the body cap. It behaves like a Generate that fails
// validation: previous artifacts are released and the session returns to
// Idle with err. While busy it returns ErrBusy and changes nothing.
func (s *Session) Reject(mode input.Mode, err error) error {
	if !s.begin(mode) {
		return ErrBusy
	}

	s.gen.stats.Started.Add(1)
	s.gen.stats.Rejected.Add(1)
	s.fail(err)
	s.log.Info().Err(err).Str("mode", string(mode)).Msg("generation rejected")
	return err
}

// Reset discards a Ready result and its artifacts. It is a no-op when Idle
// and returns ErrBusy while a generation is in flight.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastSeen = s.now()
	if busy(s.state) {
		return ErrBusy
	}

	s.releaseLocked()
	s.state = Idle{}
	return nil
}

// LastSeen reports when the session was last used.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastSeen
}

// begin moves to Validating unless a generation is already running.
func (s *Session) begin(mode input.Mode) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastSeen = s.now()
	if busy(s.state) {
		return false
	}

	s.releaseLocked()
	s.state = Validating{Mode: mode}
	return true
}

func (s *Session) transition(next State) {
	s.mu.Lock()
	s.state = next
	s.mu.Unlock()
}

func (s *Session) fail(err error) {
	s.transition(Idle{Err: err})
}

// releaseLocked revokes artifacts held by a Ready state.
func (s *Session) releaseLocked() {
	if ready, ok := s.state.(Ready); ok {
		s.gen.store.Revoke(ready.Result.artifactIDs()...)
	}
}

// expire resets an idle session whose last use is older than cutoff.
func (s *Session) expire(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if busy(s.state) || s.lastSeen.After(cutoff) {
		return false
	}

	s.releaseLocked()
	s.state = Idle{}
	return true
}
