package session

import (
	"qrpack/internal/engine/artifact"
	"qrpack/internal/engine/input"
)

// State is one of Idle, Validating, Generating or Ready. Each variant carries
// exactly the data that is meaningful in that state.
type State interface {
	Name() string
	isState()
}

// Idle is the resting state. Err holds the message of the generation that
// last failed, if any.
type Idle struct {
	Err error
}

type Validating struct {
	Mode input.Mode
}

type Generating struct {
	Mode input.Mode
}

// Ready holds the artifacts of a finished generation until reset.
type Ready struct {
	Result *Result
}

func (Idle) Name() string       { return "idle" }
func (Validating) Name() string { return "validating" }
func (Generating) Name() string { return "generating" }
func (Ready) Name() string      { return "ready" }

func (Idle) isState()       {}
func (Validating) isState() {}
func (Generating) isState() {}
func (Ready) isState()      {}

// Result is what a generation publishes.
type Result struct {
	Mode input.Mode
	// Content is the exact text encoded in the symbol: the normalized URL in
	// URL mode, the file label in file mode.
	Content       string
	Symbol        *artifact.Artifact
	SymbolDataURI string
	// Package is nil in URL mode.
	Package *artifact.Artifact
	File    *FileInfo
}

type FileInfo struct {
	Filename  string
	MediaType string
	Size      int64
	Digest    string
}

func (r *Result) artifactIDs() []string {
	ids := []string{r.Symbol.ID}
	if r.Package != nil {
		ids = append(ids, r.Package.ID)
	}
	return ids
}

// busy reports whether a generation is in flight.
func busy(s State) bool {
	switch s.(type) {
	case Validating, Generating:
		return true
	default:
		return false
	}
}
