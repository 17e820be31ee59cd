// Package web holds the single-page UI served at /.
package web

import (
	_ "embed"
	"net/http"
)

//go:embed index.html
var index []byte

// Index serves the UI page.
func Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(index)
}
