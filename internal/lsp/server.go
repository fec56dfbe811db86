// Package lsp provides the Language Server Protocol surface of
// detekt-ls: document open/save events trigger lint runs, and run
// results flow back as publishDiagnostics and showMessage
// notifications.
package lsp

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/nielsdekker/detekt-ls/internal/config"
	"github.com/nielsdekker/detekt-ls/internal/invoke"
	"github.com/nielsdekker/detekt-ls/internal/sarif"
	"github.com/nielsdekker/detekt-ls/pkg/version"
)

// serverName identifies the server to clients.
const serverName = "detekt-ls"

// diagnosticSource labels published diagnostics in the editor UI.
const diagnosticSource = "detekt"

// Linter starts asynchronous lint runs and invalidates cached
// resolutions. Implemented by lint.Orchestrator.
type Linter interface {
	Trigger(ctx context.Context, id invoke.Identity)
	Invalidate(id invoke.Identity)
}

// notifier sends a server-to-client notification. Satisfied by
// glsp.Context.Notify.
type notifier func(method string, params any)

// Server implements the detekt-ls LSP server. It is also the lint
// Publisher: completed runs notify the connected client.
type Server struct {
	handler protocol.Handler
	linter  Linter
	cfg     *config.Config
	logger  *slog.Logger

	mu     sync.Mutex
	notify notifier
}

// NewServer creates an LSP server triggering runs on the given linter.
func NewServer(linter Linter, cfg *config.Config, logger *slog.Logger) *Server {
	srv := &Server{
		linter: linter,
		cfg:    cfg,
		logger: logger,
	}

	srv.handler = protocol.Handler{
		Initialize:           srv.initialize,
		Initialized:          srv.initialized,
		Shutdown:             srv.shutdown,
		SetTrace:             srv.setTrace,
		TextDocumentDidOpen:  srv.didOpen,
		TextDocumentDidSave:  srv.didSave,
		TextDocumentDidClose: srv.didClose,
	}

	return srv
}

// Run starts the LSP server on stdio and blocks until the client
// disconnects.
func (srv *Server) Run() error {
	lspServer := server.NewServer(&srv.handler, serverName, false)

	return lspServer.RunStdio()
}

func (srv *Server) initialize(_ *glsp.Context, _ *protocol.InitializeParams) (any, error) {
	// CreateServerCapabilities derives sync capabilities (open/close,
	// save) from the registered handlers.
	capabilities := srv.handler.CreateServerCapabilities()

	ver := version.Version

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &ver,
		},
	}, nil
}

func (srv *Server) initialized(ctx *glsp.Context, _ *protocol.InitializedParams) error {
	srv.setNotifier(ctx.Notify)

	return nil
}

func (srv *Server) shutdown(_ *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)

	return nil
}

func (srv *Server) setTrace(_ *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)

	return nil
}

func (srv *Server) didOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	srv.setNotifier(ctx.Notify)
	srv.trigger(params.TextDocument.URI)

	return nil
}

func (srv *Server) didSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	srv.setNotifier(ctx.Notify)
	srv.trigger(params.TextDocument.URI)

	return nil
}

func (srv *Server) didClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	srv.setNotifier(ctx.Notify)
	srv.closeDocument(params.TextDocument.URI)

	return nil
}

// closeDocument clears the document's diagnostics and drops its cached
// resolution, so reopening picks up a moved or new config.
func (srv *Server) closeDocument(uri string) {
	id, ok := srv.identify(uri)
	if !ok {
		return
	}

	srv.PublishDiagnostics(id, nil)
	srv.linter.Invalidate(id)
}

// trigger starts a run when the document matches a trigger pattern.
func (srv *Server) trigger(uri string) {
	id, ok := srv.identify(uri)
	if !ok {
		return
	}

	srv.linter.Trigger(context.Background(), id)
}

// identify converts a document URI into a target identity, filtering
// out non-file URIs and documents outside the trigger patterns.
func (srv *Server) identify(uri string) (invoke.Identity, bool) {
	path, ok := uriToPath(uri)
	if !ok {
		return invoke.Identity{}, false
	}

	if !srv.cfg.TriggerMatch(path) {
		return invoke.Identity{}, false
	}

	return invoke.Identity{URI: uri, Path: path}, true
}

func (srv *Server) setNotifier(fn glsp.NotifyFunc) {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	srv.notify = notifier(fn)
}

func (srv *Server) client() (notifier, bool) {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	return srv.notify, srv.notify != nil
}

// PublishDiagnostics sends textDocument/publishDiagnostics for the
// identity. An empty list clears previously published diagnostics.
func (srv *Server) PublishDiagnostics(id invoke.Identity, diags []sarif.Diagnostic) {
	notify, ok := srv.client()
	if !ok {
		return
	}

	notify("textDocument/publishDiagnostics", &protocol.PublishDiagnosticsParams{
		URI:         id.URI,
		Diagnostics: toProtocolDiagnostics(diags),
	})
}

// PublishWarning surfaces a non-fatal notice via window/showMessage.
func (srv *Server) PublishWarning(id invoke.Identity, msg string) {
	srv.showMessage(protocol.MessageTypeWarning, serverName+": "+msg+" ("+id.Path+")")
}

// PublishError surfaces a fatal run failure via window/showMessage.
func (srv *Server) PublishError(id invoke.Identity, err error) {
	srv.logger.Warn("lint run failed", "uri", id.URI, "error", err)
	srv.showMessage(protocol.MessageTypeError, serverName+": "+err.Error())
}

func (srv *Server) showMessage(kind protocol.MessageType, msg string) {
	notify, ok := srv.client()
	if !ok {
		return
	}

	notify("window/showMessage", &protocol.ShowMessageParams{
		Type:    kind,
		Message: msg,
	})
}

// toProtocolDiagnostics converts normalized diagnostics into LSP
// diagnostics. Positions are already zero-based; negative values from
// location-less findings clamp to zero.
func toProtocolDiagnostics(diags []sarif.Diagnostic) []protocol.Diagnostic {
	out := make([]protocol.Diagnostic, 0, len(diags))

	for _, d := range diags {
		severity := toProtocolSeverity(d.Severity)
		source := diagnosticSource

		pd := protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: clampUint32(d.StartLine), Character: clampUint32(d.StartColumn)},
				End:   protocol.Position{Line: clampUint32(d.EndLine), Character: clampUint32(d.EndColumn)},
			},
			Severity: &severity,
			Source:   &source,
			Message:  d.Message,
		}

		if d.RuleID != "" {
			code := protocol.IntegerOrString{Value: d.RuleID}
			pd.Code = &code
		}

		out = append(out, pd)
	}

	return out
}

func toProtocolSeverity(s sarif.Severity) protocol.DiagnosticSeverity {
	switch s {
	case sarif.SeverityError:
		return protocol.DiagnosticSeverityError
	case sarif.SeverityWarning:
		return protocol.DiagnosticSeverityWarning
	case sarif.SeverityInfo:
		return protocol.DiagnosticSeverityInformation
	case sarif.SeverityHint:
		return protocol.DiagnosticSeverityHint
	default:
		return protocol.DiagnosticSeverityWarning
	}
}

func clampUint32(v int) protocol.UInteger {
	if v < 0 {
		return 0
	}

	return protocol.UInteger(v)
}

// uriToPath converts a file:// URI into a filesystem path.
func uriToPath(uri string) (string, bool) {
	if !strings.HasPrefix(uri, "file://") {
		return "", false
	}

	parsed, err := url.Parse(uri)
	if err != nil {
		return "", false
	}

	return parsed.Path, true
}
