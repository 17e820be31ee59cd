package pack

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

var ErrMalformedDocument = errors.New("not a download package document")

var (
	payloadPattern  = regexp.MustCompile(`const fileData = ("(?:[^"\\]|\\.)*");`)
	filenamePattern = regexp.MustCompile(`const fileName = ("(?:[^"\\]|\\.)*");`)
)

// Contents is what a download package hands back when opened.
type Contents struct {
	Filename  string
	MediaType string
	Data      []byte
	Digest    string
}

// Extract recovers the embedded file from a document produced by Build.
func Extract(document []byte) (*Contents, error) {
	payload, err := scriptString(payloadPattern, document)
	if err != nil {
		return nil, err
	}
	filename, err := scriptString(filenamePattern, document)
	if err != nil {
		return nil, err
	}

	mediaType, data, err := parseDataURI(payload)
	if err != nil {
		return nil, err
	}

	return &Contents{
		Filename:  filename,
		MediaType: mediaType,
		Data:      data,
		Digest:    Digest(data),
	}, nil
}

func scriptString(re *regexp.Regexp, document []byte) (string, error) {
	m := re.FindSubmatch(document)
	if m == nil {
		return "", ErrMalformedDocument
	}

	var s string
	if err := json.Unmarshal(m[1], &s); err != nil {
		return "", errors.Join(ErrMalformedDocument, err)
	}
	return s, nil
}

func parseDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, ErrMalformedDocument
	}
	mediaType, encoded, ok := strings.Cut(rest, ";base64,")
	if !ok {
		return "", nil, ErrMalformedDocument
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", nil, errors.Join(ErrMalformedDocument, err)
	}
	return mediaType, data, nil
}
