package session

import (
	"context"
	"sync/atomic"

	"qrpack/internal/engine/artifact"
	"qrpack/internal/engine/input"
	"qrpack/internal/engine/pack"
	"qrpack/internal/engine/symbol"
)

// SymbolFilename is the download name of the symbol in both modes.
const SymbolFilename = "qr-code.png"

// Generator turns validated requests into published artifacts.
type Generator struct {
	encoder *symbol.Encoder
	builder *pack.Builder
	store   *artifact.Store
	stats   Stats
}

// Stats counts generation outcomes since startup.
type Stats struct {
	Started   atomic.Int64
	Succeeded atomic.Int64
	Rejected  atomic.Int64
	Failed    atomic.Int64
}

func NewGenerator(encoder *symbol.Encoder, builder *pack.Builder, store *artifact.Store) *Generator {
	return &Generator{encoder: encoder, builder: builder, store: store}
}

func (g *Generator) Stats() *Stats {
	return &g.stats
}

func (g *Generator) Store() *artifact.Store {
	return g.store
}

// validate runs every check that can fail before encoding starts, including
// the package size ceiling.
func (g *Generator) validate(req input.Request) (input.Request, error) {
	req, err := req.Validate()
	if err != nil {
		return req, err
	}
	if req.Mode == input.ModeFile {
		if err := g.builder.CheckSize(int64(len(req.File))); err != nil {
			return req, err
		}
	}
	return req, nil
}

// run carries one generation through the pipeline.
type run struct {
	req    input.Request
	pkg    *pack.Package
	sym    *symbol.Symbol
	result *Result
}

type stage func(*run) error

func (g *Generator) stages(mode input.Mode) []stage {
	if mode == input.ModeFile {
		return []stage{g.buildPackage, g.encodeLabel, g.publish}
	}
	return []stage{g.encodeURL, g.publish}
}

// generate executes the stages in order and stops at the first error.
// Artifacts are only registered by the last stage, so a failed run leaves
// nothing behind.
func (g *Generator) generate(ctx context.Context, req input.Request) (*Result, error) {
	r := &run{req: req}
	for _, st := range g.stages(req.Mode) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := st(r); err != nil {
			return nil, err
		}
	}
	return r.result, nil
}

func (g *Generator) buildPackage(r *run) error {
	pkg, err := g.builder.Build(r.req.File, r.req.Filename)
	if err != nil {
		return err
	}
	r.pkg = pkg
	return nil
}

func (g *Generator) encodeLabel(r *run) error {
	sym, err := g.encoder.Encode(input.FileLabel(r.pkg.Filename))
	if err != nil {
		return err
	}
	r.sym = sym
	return nil
}

func (g *Generator) encodeURL(r *run) error {
	sym, err := g.encoder.Encode(r.req.URL)
	if err != nil {
		return err
	}
	r.sym = sym
	return nil
}

func (g *Generator) publish(r *run) error {
	result := &Result{
		Mode:          r.req.Mode,
		Content:       r.sym.Content,
		SymbolDataURI: r.sym.DataURI(),
	}

	result.Symbol = g.store.Put(SymbolFilename, artifact.ContentTypePNG, r.sym.PNG, "")

	if r.pkg != nil {
		result.Package = g.store.Put(r.pkg.DownloadName, artifact.ContentTypeHTML, r.pkg.Document, r.pkg.Digest)
		result.File = &FileInfo{
			Filename:  r.pkg.Filename,
			MediaType: r.pkg.MediaType,
			Size:      r.pkg.Size,
			Digest:    r.pkg.Digest,
		}
	}

	r.result = result
	return nil
}
