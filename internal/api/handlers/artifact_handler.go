package handlers

import (
	"bytes"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	apiContext "qrpack/internal/api/context"
	"qrpack/internal/api/middleware"
	"qrpack/internal/engine/artifact"
	"qrpack/internal/engine/pack"
	"qrpack/internal/engine/session"
	"qrpack/internal/pkg/errors"
)

type ArtifactHandler struct {
	store    *artifact.Store
	maxBytes int64
}

func NewArtifactHandler(store *artifact.Store, maxFileBytes int64) *ArtifactHandler {
	if maxFileBytes <= 0 {
		maxFileBytes = pack.DefaultMaxBytes
	}
	return &ArtifactHandler{store: store, maxBytes: maxFileBytes}
}

// Download serves an artifact of the caller's current result. ?inline=1
// serves it for display instead of as an attachment.
func (h *ArtifactHandler) Download(w http.ResponseWriter, r *http.Request) {
	s, ok := middleware.SessionFrom(r.Context())
	if !ok {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Session unavailable", nil)
		return
	}
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	id := params.ByName("artifact_id")

	if !ownsArtifact(s.Current(), id) {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Artifact not found", nil)
		return
	}

	a, ok := h.store.Get(id)
	if !ok {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Artifact not found", nil)
		return
	}

	disposition := "attachment"
	if r.URL.Query().Get("inline") == "1" {
		disposition = "inline"
	}

	w.Header().Set("Content-Type", a.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": a.Name}))
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if a.ETag != "" {
		w.Header().Set("ETag", `"`+a.ETag+`"`)
	}

	http.ServeContent(w, r, a.Name, time.Time{}, bytes.NewReader(a.Body))
}

type inspectResponse struct {
	Filename  string `json:"filename"`
	MediaType string `json:"media_type"`
	Size      int    `json:"size"`
	Digest    string `json:"digest"`
}

// Inspect reports what a previously downloaded package would hand back.
func (h *ArtifactHandler) Inspect(w http.ResponseWriter, r *http.Request) {
	// base64 plus the page around it
	limit := h.maxBytes/3*4 + multipartSlack + 64<<10
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	file, _, err := r.FormFile("file")
	if err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Please upload a download package", nil)
		return
	}
	defer file.Close()

	document, err := io.ReadAll(file)
	if err != nil {
		errors.WriteError(w, http.StatusRequestEntityTooLarge, errors.ErrCodeInvalidInput, "Document too large", nil)
		return
	}

	contents, err := pack.Extract(document)
	if err != nil {
		errors.WriteError(w, http.StatusUnprocessableEntity, errors.ErrCodeInvalidInput, pack.ErrMalformedDocument.Error(), nil)
		return
	}

	errors.WriteJSON(w, http.StatusOK, inspectResponse{
		Filename:  contents.Filename,
		MediaType: contents.MediaType,
		Size:      len(contents.Data),
		Digest:    contents.Digest,
	})
}

func ownsArtifact(st session.State, id string) bool {
	ready, ok := st.(session.Ready)
	if !ok {
		return false
	}
	if ready.Result.Symbol.ID == id {
		return true
	}
	return ready.Result.Package != nil && ready.Result.Package.ID == id
}
