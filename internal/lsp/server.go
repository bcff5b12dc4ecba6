// Package lsp serves the generators to editors over the Language Server
// Protocol. The two generators are exposed as workspace commands acting on
// an open document.
package lsp

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"
	"go.uber.org/zap"

	"github.com/tapsiturbi/ui5-ts-codegen/internal/config"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/discover"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/generator"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/host"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/logger"
)

// Name is the server name and the configuration section read from the
// client.
const Name = "ui5-ts-codegen"

// Workspace commands.
const (
	CommandModel   = Name + ".modelGenerator"
	CommandControl = Name + ".controlGenerator"
)

// Server holds the editor session state.
type Server struct {
	Version string

	store *Store
	log   *zap.SugaredLogger

	mu     sync.RWMutex
	root   string
	cfg    config.Config
	client host.StaticSettings

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New returns a Server rooted at root until the client names a workspace.
func New(root string, cfg config.Config, log *zap.SugaredLogger) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		store:  NewStore(),
		log:    logger.Component(log, "lsp"),
		root:   root,
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Handler returns the protocol handler table.
func (s *Server) Handler() *protocol.Handler {
	return &protocol.Handler{
		Initialize:                      s.Initialize,
		Initialized:                     s.Initialized,
		Shutdown:                        s.Shutdown,
		TextDocumentDidOpen:             s.TextDocumentDidOpen,
		TextDocumentDidChange:           s.TextDocumentDidChange,
		TextDocumentDidClose:            s.TextDocumentDidClose,
		WorkspaceDidChangeConfiguration: s.WorkspaceDidChangeConfiguration,
		WorkspaceExecuteCommand:         s.WorkspaceExecuteCommand,
	}
}

// RunStdio serves until the client disconnects.
func (s *Server) RunStdio() error {
	defer s.wait()
	srv := glspserver.NewServer(s.Handler(), Name, false)
	return srv.RunStdio()
}

// wait lets in-flight runs finish before releasing the server context.
func (s *Server) wait() {
	s.wg.Wait()
	s.cancel()
}

func (s *Server) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	s.log.Infow("client initializing", "client", params.ClientInfo)

	if root := workspaceRoot(params); root != "" {
		cfg, err := config.LoadDir(root)
		if err != nil {
			s.log.Warnw("using default configuration", "root", root, logger.FieldError, err)
			ctx.Notify(protocol.ServerWindowShowMessage, protocol.ShowMessageParams{
				Type:    protocol.MessageTypeWarning,
				Message: generator.Message(err),
			})
		}
		s.mu.Lock()
		s.root, s.cfg = root, cfg
		s.mu.Unlock()
	}
	s.configure(params.InitializationOptions)

	syncKind := protocol.TextDocumentSyncKindFull
	openClose := true
	version := s.Version
	if version == "" {
		version = "dev"
	}
	return protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: &openClose,
				Change:    &syncKind,
			},
			ExecuteCommandProvider: &protocol.ExecuteCommandOptions{
				Commands: []string{CommandModel, CommandControl},
			},
		},
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    Name,
			Version: &version,
		},
	}, nil
}

func (s *Server) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	s.log.Infow("client initialized")
	return nil
}

func (s *Server) Shutdown(ctx *glsp.Context) error {
	// Runs in flight still need the reader to answer their applyEdit
	// requests, so they are left to finish in RunStdio.
	s.log.Infow("client shutting down")
	return nil
}

func (s *Server) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	if err := s.store.Open(uri, params.TextDocument.Text); err != nil {
		s.log.Warnw("rejecting document", "uri", uri, logger.FieldError, err)
		return err
	}
	s.log.Debugw("document opened", "uri", uri, "length", len(params.TextDocument.Text))
	return nil
}

func (s *Server) TextDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	for _, change := range params.ContentChanges {
		if whole, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
			s.store.Change(uri, whole.Text)
		}
	}
	return nil
}

func (s *Server) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.store.Close(string(params.TextDocument.URI))
	return nil
}

func (s *Server) WorkspaceDidChangeConfiguration(ctx *glsp.Context, params *protocol.DidChangeConfigurationParams) error {
	s.configure(params.Settings)
	return nil
}

// WorkspaceExecuteCommand starts a generator on the document named by the
// first argument, or the active document. The result is reported through
// window/showMessage once the run finishes.
func (s *Server) WorkspaceExecuteCommand(ctx *glsp.Context, params *protocol.ExecuteCommandParams) (any, error) {
	gen, err := s.generatorFor(params.Command)
	if err != nil {
		return nil, err
	}
	uri := commandURI(params.Arguments)
	if uri == "" {
		uri = s.store.Active()
	}
	text, ok := s.store.Get(uri)
	if !ok {
		return nil, errors.WithHint(errors.Newf("document %q is not open", uri), "Open the TypeScript file before running the command.")
	}
	doc, err := NewDocument(uri, text, ctx.Call)
	if err != nil {
		return nil, err
	}

	n := notifier{notify: ctx.Notify}
	opts := s.options()
	// applyEdit is a request to the client; it cannot be awaited on the
	// reader goroutine.
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_, _ = generator.Run(s.ctx, gen, doc, n, opts)
	}()
	return nil, nil
}

func (s *Server) generatorFor(command string) (generator.Generator, error) {
	switch command {
	case CommandControl:
		return generator.Control{}, nil
	case CommandModel:
		return generator.Model{ParentClassNames: s.ParentClassNames()}, nil
	}
	return nil, errors.Newf("unknown command %q", command)
}

// ParentClassNames is the client setting, the project file otherwise.
func (s *Server) ParentClassNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if names := s.client.StringSlice(host.KeyParentClassName); len(names) > 0 {
		return append([]string(nil), names...)
	}
	return host.ParentClassNames(s.cfg)
}

func (s *Server) configure(settings any) {
	names := parentClassNames(settings)
	if names == nil {
		return
	}
	s.mu.Lock()
	s.client = host.StaticSettings{host.KeyParentClassName: names}
	s.mu.Unlock()
	s.log.Infow("configuration changed", config.KeyParentClassName, names)
}

func (s *Server) options() generator.Options {
	s.mu.RLock()
	root, cfg := s.root, s.cfg
	s.mu.RUnlock()

	opts := generator.Options{RootClasses: cfg.RootClasses, Strategy: cfg.Strategy(), Log: s.log}
	decls, err := discover.Declarations(root, cfg.Declarations)
	if err != nil {
		s.log.Warnw("declaration discovery failed", logger.FieldError, err)
	}
	opts.Declarations = decls
	return opts
}

func workspaceRoot(params *protocol.InitializeParams) string {
	if params.RootURI != nil {
		if path, err := uriToPath(string(*params.RootURI)); err == nil {
			return path
		}
	}
	if params.RootPath != nil {
		return *params.RootPath
	}
	return ""
}

// commandURI reads a document URI from command arguments: a string, or an
// object with a "uri" or "external" field as editors serialize Uri values.
func commandURI(args []any) string {
	if len(args) == 0 {
		return ""
	}
	switch v := args[0].(type) {
	case string:
		return v
	case map[string]any:
		for _, key := range []string{"uri", "external"} {
			if s, ok := v[key].(string); ok {
				return s
			}
		}
	}
	return ""
}

// parentClassNames reads the parentClassName setting from initialization
// options or a didChangeConfiguration payload, where it may be nested
// under the Name section. It returns nil when the setting is absent.
func parentClassNames(settings any) []string {
	m, ok := settings.(map[string]any)
	if !ok {
		return nil
	}
	if section, ok := m[Name]; ok {
		return parentClassNames(section)
	}
	switch v := m[config.KeyParentClassName].(type) {
	case string:
		return []string{v}
	case []any:
		var names []string
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				names = append(names, s)
			}
		}
		return names
	}
	return nil
}
