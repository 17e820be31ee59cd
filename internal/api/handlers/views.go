package handlers

import (
	"qrpack/internal/engine/artifact"
	"qrpack/internal/engine/session"
)

type stateResponse struct {
	State   string        `json:"state"`
	Mode    string        `json:"mode,omitempty"`
	Message string        `json:"message,omitempty"`
	Content string        `json:"content,omitempty"`
	Symbol  *artifactView `json:"symbol,omitempty"`
	Package *artifactView `json:"package,omitempty"`
	File    *fileView     `json:"file,omitempty"`
}

type artifactView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
	URL         string `json:"url"`
	DataURI     string `json:"data_uri,omitempty"`
}

type fileView struct {
	Filename  string `json:"filename"`
	MediaType string `json:"media_type"`
	Size      int64  `json:"size"`
	Digest    string `json:"digest"`
}

func stateView(st session.State) stateResponse {
	resp := stateResponse{State: st.Name()}

	switch st := st.(type) {
	case session.Idle:
		if st.Err != nil {
			resp.Message = firstLine(st.Err)
		}
	case session.Validating:
		resp.Mode = string(st.Mode)
	case session.Generating:
		resp.Mode = string(st.Mode)
	case session.Ready:
		r := st.Result
		resp.Mode = string(r.Mode)
		resp.Content = r.Content
		resp.Symbol = newArtifactView(r.Symbol)
		resp.Symbol.DataURI = r.SymbolDataURI
		if r.Package != nil {
			resp.Package = newArtifactView(r.Package)
		}
		if r.File != nil {
			resp.File = &fileView{
				Filename:  r.File.Filename,
				MediaType: r.File.MediaType,
				Size:      r.File.Size,
				Digest:    r.File.Digest,
			}
		}
	}

	return resp
}

func newArtifactView(a *artifact.Artifact) *artifactView {
	return &artifactView{
		ID:          a.ID,
		Name:        a.Name,
		ContentType: a.ContentType,
		Size:        len(a.Body),
		URL:         "/api/v1/artifacts/" + a.ID,
	}
}
