package pack

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	maxFilenameBytes = 255
	fallbackFilename = "file"
)

// SanitizeFilename reduces an uploaded name to a single safe path element.
// The result is NFC-normalized, free of directories, control characters and
// format characters such as bidi overrides, at most 255 bytes long, and never
// empty. HTML/JS escaping is still applied when the name is rendered into a
// document.
func SanitizeFilename(name string) string {
	name = norm.NFC.String(name)

	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}

	name = strings.Map(func(r rune) rune {
		if r == utf8.RuneError || unicode.IsControl(r) || unicode.Is(unicode.Cf, r) {
			return -1
		}
		return r
	}, name)

	// trailing dots and spaces are stripped by some filesystems
	name = strings.TrimLeft(name, " ")
	name = strings.TrimRight(name, " .")

	name = truncate(name, maxFilenameBytes)

	if name == "" {
		return fallbackFilename
	}
	return name
}

const downloadSuffix = "-download.html"

// DownloadName is the name offered for the package document itself.
func DownloadName(filename string) string {
	return truncate(SanitizeFilename(filename), maxFilenameBytes-len(downloadSuffix)) + downloadSuffix
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	for len(s) > n {
		_, size := utf8.DecodeLastRuneInString(s)
		s = s[:len(s)-size]
	}
	return s
}
