// Package pack builds self-contained HTML documents that hand an embedded
// file back to the user as a download when opened in a browser.
//
// The file travels inside the document as a base64 data: URI. Opening the
// document creates a transient anchor pointing at that URI with the original
// filename, clicks it and updates the status text. The document references
// nothing outside itself and carries no timestamps, so identical input yields
// byte-identical output.
package pack

import (
	"bytes"
	_ "embed"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"html/template"
	"mime"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/crypto/blake2b"
)

// DefaultMaxBytes is the largest file accepted when no ceiling is configured.
// Base64 inflates it by a third, so documents stay below ~27 MiB.
const DefaultMaxBytes int64 = 20 << 20

const fallbackMediaType = "application/octet-stream"

var (
	ErrEmptyFile    = errors.New("file is empty")
	ErrFileTooLarge = errors.New("file exceeds the package size limit")
	ErrRenderFailed = errors.New("failed to render download package")
)

//go:embed document.html.tmpl
var documentSource string

var documentTemplate = template.Must(template.New("document").Parse(documentSource))

// Package is a rendered download document plus what went into it.
type Package struct {
	Filename     string
	DownloadName string
	MediaType    string
	Size         int64
	Digest       string
	Document     []byte
}

type Builder struct {
	maxBytes int64
}

// NewBuilder returns a Builder that rejects files larger than maxBytes.
// A non-positive maxBytes selects DefaultMaxBytes.
func NewBuilder(maxBytes int64) *Builder {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Builder{maxBytes: maxBytes}
}

func (b *Builder) MaxBytes() int64 {
	return b.maxBytes
}

// CheckSize validates a file length without touching its content.
func (b *Builder) CheckSize(n int64) error {
	if n <= 0 {
		return ErrEmptyFile
	}
	if n > b.maxBytes {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrFileTooLarge, n, b.maxBytes)
	}
	return nil
}

func (b *Builder) Build(data []byte, filename string) (*Package, error) {
	if err := b.CheckSize(int64(len(data))); err != nil {
		return nil, err
	}

	name := SanitizeFilename(filename)
	mediaType := detectMediaType(name, data)

	var buf bytes.Buffer
	err := documentTemplate.Execute(&buf, struct {
		Filename string
		Payload  string
	}{
		Filename: name,
		Payload:  DataURI(mediaType, data),
	})
	if err != nil {
		return nil, errors.Join(ErrRenderFailed, err)
	}

	return &Package{
		Filename:     name,
		DownloadName: DownloadName(name),
		MediaType:    mediaType,
		Size:         int64(len(data)),
		Digest:       Digest(data),
		Document:     buf.Bytes(),
	}, nil
}

// DataURI encodes data as a base64 data: URI.
func DataURI(mediaType string, data []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Digest returns the hex BLAKE2b-256 of data.
func Digest(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// detectMediaType prefers the extension, then sniffs content. Parameters
// such as charset are dropped so the data: URI stays a plain type/subtype.
func detectMediaType(filename string, data []byte) string {
	mt := mime.TypeByExtension(filepath.Ext(filename))
	if mt == "" {
		mt = mimetype.Detect(data).String()
	}

	parsed, _, err := mime.ParseMediaType(mt)
	if err != nil || parsed == "" {
		return fallbackMediaType
	}
	return parsed
}
