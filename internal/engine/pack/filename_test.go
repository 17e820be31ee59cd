package pack

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Plain", input: "a.txt", expected: "a.txt"},
		{name: "Unix Path", input: "../../etc/passwd", expected: "passwd"},
		{name: "Windows Path", input: `C:\Users\me\report.pdf`, expected: "report.pdf"},
		{name: "Control Characters", input: "re\x00port\n.pdf", expected: "report.pdf"},
		{name: "Trailing Dots", input: "notes.txt. . ", expected: "notes.txt"},
		{name: "Dot Dot", input: "..", expected: "file"},
		{name: "Empty", input: "", expected: "file"},
		{name: "Hidden File", input: ".env", expected: ".env"},
		{name: "Invalid UTF-8", input: "bad\xffname.bin", expected: "badname.bin"},
		{name: "NFC", input: "cafe\u0301.txt", expected: "caf\u00e9.txt"},
		{name: "Bidi Override", input: "invoice\u202Etxt.exe", expected: "invoicetxt.exe"},
		{name: "Zero Width", input: "a\u200Bb\uFEFF.txt", expected: "ab.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeFilename(tt.input)
			if got != tt.expected {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSanitizeFilename_Length(t *testing.T) {
	long := strings.Repeat("é", 200) + ".txt"

	got := SanitizeFilename(long)
	if len(got) > maxFilenameBytes {
		t.Errorf("expected at most %d bytes, got %d", maxFilenameBytes, len(got))
	}
	if !utf8.ValidString(got) {
		t.Error("truncation split a rune")
	}

	dl := DownloadName(long)
	if len(dl) > maxFilenameBytes {
		t.Errorf("download name has %d bytes", len(dl))
	}
	if !strings.HasSuffix(dl, "-download.html") {
		t.Errorf("download name %q lacks suffix", dl)
	}
}
