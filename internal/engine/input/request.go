package input

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

type Mode string

const (
	ModeURL  Mode = "url"
	ModeFile Mode = "file"
)

var (
	ErrUnknownMode  = errors.New("mode must be 'url' or 'file'")
	ErrEmptyURL     = errors.New("please enter a URL")
	ErrMalformedURL = errors.New("please enter a valid URL")
	ErrEmptyFile    = errors.New("please upload a file")
)

// Request is one user-triggered generation. It is never stored beyond the
// generation that consumes it.
type Request struct {
	Mode     Mode
	URL      string
	File     []byte
	Filename string
}

// ParseMode accepts the form values used by the UI; empty means URL mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeURL:
		return ModeURL, nil
	case ModeFile:
		return ModeFile, nil
	default:
		return "", ErrUnknownMode
	}
}

// Validate checks the request and, in URL mode, returns it with the URL
// normalized. No encoding work happens here.
func (r Request) Validate() (Request, error) {
	switch r.Mode {
	case ModeURL:
		normalized, err := NormalizeURL(r.URL)
		if err != nil {
			return r, err
		}
		r.URL = normalized
		return r, nil
	case ModeFile:
		if len(r.File) == 0 {
			return r, ErrEmptyFile
		}
		return r, nil
	default:
		return r, ErrUnknownMode
	}
}

var schemePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*$`)

// hasScheme reports whether s starts with "<scheme>://". A "://" that only
// appears after a path, query or fragment delimiter belongs to the URL body.
func hasScheme(s string) bool {
	scheme, _, ok := strings.Cut(s, "://")
	return ok && schemePattern.MatchString(scheme)
}

// NormalizeURL trims raw and prefixes https:// when it carries no http(s)
// scheme. The result must parse as an absolute http or https URL with a host.
func NormalizeURL(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", ErrEmptyURL
	}

	if !hasScheme(candidate) {
		candidate = "https://" + candidate
	}

	u, err := url.Parse(candidate)
	if err != nil {
		return "", ErrMalformedURL
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", ErrMalformedURL
	}
	if u.Hostname() == "" || strings.ContainsAny(candidate, " \t\r\n") {
		return "", ErrMalformedURL
	}

	return candidate, nil
}

// FileLabel is the text encoded into the file-mode symbol. It names the file
// and nothing else: no content, no address.
func FileLabel(filename string) string {
	return "Download: " + filename
}
