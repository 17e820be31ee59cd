package handlers

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"strings"

	"qrpack/internal/api/middleware"
	"qrpack/internal/engine/input"
	"qrpack/internal/engine/pack"
	"qrpack/internal/engine/session"
	"qrpack/internal/engine/symbol"
	"qrpack/internal/pkg/errors"
)

// multipartSlack covers form fields and part headers around the file.
const multipartSlack = 1 << 20

type GenerateHandler struct {
	maxFileBytes int64
}

func NewGenerateHandler(maxFileBytes int64) *GenerateHandler {
	if maxFileBytes <= 0 {
		maxFileBytes = pack.DefaultMaxBytes
	}
	return &GenerateHandler{maxFileBytes: maxFileBytes}
}

func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	s, ok := middleware.SessionFrom(r.Context())
	if !ok {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Session unavailable", nil)
		return
	}

	req, err := h.readRequest(w, r)
	if err != nil {
		writeGenerationError(w, s.Reject(req.Mode, err))
		return
	}

	if _, err := s.Generate(r.Context(), req); err != nil {
		writeGenerationError(w, err)
		return
	}

	errors.WriteJSON(w, http.StatusOK, stateView(s.Current()))
}

func (h *GenerateHandler) Reset(w http.ResponseWriter, r *http.Request) {
	s, ok := middleware.SessionFrom(r.Context())
	if !ok {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Session unavailable", nil)
		return
	}

	if err := s.Reset(); err != nil {
		writeGenerationError(w, err)
		return
	}

	errors.WriteJSON(w, http.StatusOK, stateView(s.Current()))
}

func (h *GenerateHandler) Current(w http.ResponseWriter, r *http.Request) {
	s, ok := middleware.SessionFrom(r.Context())
	if !ok {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Session unavailable", nil)
		return
	}

	errors.WriteJSON(w, http.StatusOK, stateView(s.Current()))
}

// readRequest decodes a multipart or urlencoded form. The body is capped so
// an oversized upload fails while reading, before any encoding.
func (h *GenerateHandler) readRequest(w http.ResponseWriter, r *http.Request) (input.Request, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileBytes+multipartSlack)

	err := r.ParseMultipartForm(h.maxFileBytes + multipartSlack)
	if stderrors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		// only a file upload can outgrow the form
		return input.Request{Mode: input.ModeFile}, uploadError(err)
	}

	mode, err := input.ParseMode(r.FormValue("mode"))
	if err != nil {
		return input.Request{}, err
	}

	req := input.Request{Mode: mode, URL: r.FormValue("url")}
	if mode != input.ModeFile {
		return req, nil
	}

	file, header, err := r.FormFile("file")
	if stderrors.Is(err, http.ErrMissingFile) {
		return req, nil
	}
	if err != nil {
		return req, uploadError(err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return req, uploadError(err)
	}

	req.File = data
	req.Filename = header.Filename
	return req, nil
}

func uploadError(err error) error {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return stderrors.Join(pack.ErrFileTooLarge, err)
	}
	return stderrors.Join(input.ErrEmptyFile, err)
}

// writeGenerationError maps the generation error taxonomy onto HTTP.
func writeGenerationError(w http.ResponseWriter, err error) {
	switch {
	case stderrors.Is(err, session.ErrBusy):
		errors.WriteError(w, http.StatusConflict, errors.ErrCodeGenerationPending, session.ErrBusy.Error(), nil)
	case stderrors.Is(err, pack.ErrFileTooLarge):
		errors.WriteError(w, http.StatusRequestEntityTooLarge, errors.ErrCodePackagingFailed, pack.ErrFileTooLarge.Error(), nil)
	case stderrors.Is(err, pack.ErrEmptyFile), stderrors.Is(err, pack.ErrRenderFailed):
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodePackagingFailed, firstLine(err), nil)
	case stderrors.Is(err, input.ErrEmptyURL),
		stderrors.Is(err, input.ErrMalformedURL),
		stderrors.Is(err, input.ErrEmptyFile),
		stderrors.Is(err, input.ErrUnknownMode):
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, firstLine(err), nil)
	case stderrors.Is(err, symbol.ErrCapacityExceeded):
		errors.WriteError(w, http.StatusUnprocessableEntity, errors.ErrCodeCapacityExceeded, symbol.ErrCapacityExceeded.Error(), nil)
	case stderrors.Is(err, symbol.ErrEncodingFailed), stderrors.Is(err, symbol.ErrEmptyContent):
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeEncodingFailed, symbol.ErrEncodingFailed.Error(), nil)
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		errors.WriteError(w, http.StatusServiceUnavailable, errors.ErrCodeInternal, "Generation interrupted", nil)
	default:
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to generate QR code. Please try again.", nil)
	}
}

// firstLine drops the causes errors.Join appends after the sentinel.
func firstLine(err error) string {
	line, _, _ := strings.Cut(err.Error(), "\n")
	return line
}
