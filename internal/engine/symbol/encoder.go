// Package symbol renders text as a QR symbol PNG.
//
// Every symbol uses error-correction tier H (about 30% of the symbol may be
// damaged and still scan), pure black modules on a pure white background and
// the standard four-module quiet zone. Output is a deterministic function of
// the content and the pixel size.
package symbol

import (
	"encoding/base64"
	"errors"
	"fmt"
	"image/color"
	"strings"

	"github.com/skip2/go-qrcode"
)

const (
	DefaultSize = 512
	MinSize     = 128
	MaxSize     = 2048
)

var (
	// ErrEmptyContent is returned when the content is empty or whitespace.
	ErrEmptyContent = errors.New("content cannot be empty")
	// ErrCapacityExceeded is returned when the content does not fit in the
	// largest tier-H symbol. Content is never truncated.
	ErrCapacityExceeded = errors.New("content exceeds QR capacity at error-correction level H")
	// ErrEncodingFailed wraps any other failure of the underlying encoder.
	ErrEncodingFailed = errors.New("failed to generate QR code")
	// ErrInvalidSize is returned for pixel sizes outside [MinSize, MaxSize].
	ErrInvalidSize = fmt.Errorf("invalid size: must be between %d and %d", MinSize, MaxSize)
)

// Symbol is a rendered QR code.
type Symbol struct {
	Content string
	Size    int
	PNG     []byte
}

// DataURI returns the PNG as a data: URI suitable for an <img> src.
func (s *Symbol) DataURI() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(s.PNG)
}

// Encoder renders symbols at a fixed pixel size.
type Encoder struct {
	size int
}

// NewEncoder returns an Encoder for the given pixel size; zero selects
// DefaultSize.
func NewEncoder(size int) (*Encoder, error) {
	if size == 0 {
		size = DefaultSize
	}
	if size < MinSize || size > MaxSize {
		return nil, ErrInvalidSize
	}
	return &Encoder{size: size}, nil
}

// Size reports the edge length of rendered symbols in pixels.
func (e *Encoder) Size() int {
	return e.size
}

func (e *Encoder) Encode(content string) (*Symbol, error) {
	png, err := GenerateQRCode(content, e.size)
	if err != nil {
		return nil, err
	}
	return &Symbol{Content: content, Size: e.size, PNG: png}, nil
}

// GenerateQRCode returns a size×size PNG encoding content exactly.
func GenerateQRCode(content string, size int) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	// Default size
	if size == 0 {
		size = DefaultSize
	}

	if size < MinSize || size > MaxSize {
		return nil, ErrInvalidSize
	}

	qr, err := qrcode.New(content, qrcode.Highest)
	if err != nil {
		return nil, classify(err)
	}

	qr.DisableBorder = false
	qr.ForegroundColor = color.Black
	qr.BackgroundColor = color.White

	png, err := qr.PNG(size)
	if err != nil {
		return nil, errors.Join(ErrEncodingFailed, err)
	}
	return png, nil
}

// classify maps go-qrcode's untyped errors onto the package sentinels.
func classify(err error) error {
	if strings.Contains(err.Error(), "too long") {
		return errors.Join(ErrCapacityExceeded, err)
	}
	return errors.Join(ErrEncodingFailed, err)
}
