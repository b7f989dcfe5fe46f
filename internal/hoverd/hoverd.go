// Package hoverd implements the LSP side of cmd/cfg-hoverd: it answers
// textDocument/hover requests by looking up the hover overrides a compile
// left behind in a *namespace.Namespace. Grounded on
// internal/lsp/handler.go's KansoHandler, with the completion/semantic-token
// capabilities the frontend needs dropped (there's no surface syntax here to
// tokenize) and a TextDocumentHover method added in their place — the
// teacher's own handler never implements hover.
//
// There's no real editor-visible source file to hover over at this layer
// (spec.md §1 scopes the frontend out), so the "document" a client opens is
// the lirtext.Print dump of one function's CFG, and a hover position's line
// and character are read back as the block index and instruction index that
// produced it — the same (function, block, instruction) triple
// internal/strength keys its RecordHover calls with.
package hoverd

import (
	"fmt"
	"log"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"cfgmid/internal/ast"
	"cfgmid/internal/namespace"
)

// Handler serves hover text out of a compiled namespace's accumulated
// RecordHover annotations. One Handler is built per compile; it never
// re-runs the pipeline, it only reads what cmd/cfg-hoverd already ran.
type Handler struct {
	ns *namespace.Namespace
}

// NewHandler wraps ns, which must already have been run through the full
// reachability/selector/pass pipeline — otherwise its hover overrides are
// empty and every hover request gets a nil result (no hover shown).
func NewHandler(ns *namespace.Namespace) *Handler {
	return &Handler{ns: ns}
}

// Initialize responds to the LSP client's initialize request and advertises
// that this server only supports hover.
func (h *Handler) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Println("cfg-hoverd Initialize called")

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: ptrBool(true),
				Change:    ptrSyncKind(protocol.TextDocumentSyncKindNone),
			},
			HoverProvider: &protocol.HoverOptions{},
		},
	}, nil
}

// Initialized completes the handshake. There's nothing left to do: the
// namespace passed to NewHandler is already fully compiled.
func (h *Handler) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	log.Println("cfg-hoverd Initialized")
	return nil
}

// Shutdown handles the LSP shutdown request.
func (h *Handler) Shutdown(ctx *glsp.Context) error {
	log.Println("cfg-hoverd Shutdown")
	return nil
}

// SetTrace handles $/setTrace notifications; this server doesn't vary its
// own log verbosity in response, so it's a no-op.
func (h *Handler) SetTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

// TextDocumentDidOpen and TextDocumentDidClose exist only to satisfy the
// TextDocumentSync capability editors expect; this server never tracks
// document content of its own.
func (h *Handler) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	return nil
}

func (h *Handler) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	return nil
}

// TextDocumentHover answers a hover request by mapping the request's
// (document, line, character) back to the (function, block, instruction)
// triple internal/strength recorded it under.
func (h *Handler) TextDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	fnName, err := uriToFunction(params.TextDocument.URI)
	if err != nil {
		return nil, err
	}

	loc := ast.Loc{
		File: fnName,
		Line: int(params.Position.Line),
		Col:  int(params.Position.Character),
	}

	message, ok := h.ns.HoverAt(loc)
	if !ok {
		return nil, nil
	}

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindPlainText,
			Value: message,
		},
	}, nil
}

// uriToFunction recovers the function name a hover request's document URI
// names: cmd/cfg-hoverd serves one synthetic document per function, named
// "<function>.cfg".
func uriToFunction(rawURI protocol.DocumentUri) (string, error) {
	u, err := url.Parse(string(rawURI))
	if err != nil {
		return "", fmt.Errorf("invalid URI %s: %w", rawURI, err)
	}

	base := filepath.Base(filepath.FromSlash(u.Path))
	return strings.TrimSuffix(base, ".cfg"), nil
}

func ptrBool(b bool) *bool {
	return &b
}

func ptrSyncKind(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}
