package lsp

import (
	"context"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/tapsiturbi/ui5-ts-codegen/internal/merge"
)

// maxDocuments caps the open-document store.
const maxDocuments = 200

// Store keeps the text of the documents the editor has open.
type Store struct {
	mu     sync.RWMutex
	docs   map[string]string
	active string
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{docs: make(map[string]string)}
}

// Open records uri as open with text and makes it the active document.
func (s *Store) Open(uri, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[uri]; !ok && len(s.docs) >= maxDocuments {
		return errors.Newf("document limit reached (%d documents open)", maxDocuments)
	}
	s.docs[uri] = text
	s.active = uri
	return nil
}

// Change replaces the text of uri. Unknown documents are ignored.
func (s *Store) Change(uri, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[uri]; ok {
		s.docs[uri] = text
		s.active = uri
	}
}

// Close forgets uri.
func (s *Store) Close(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, uri)
	if s.active == uri {
		s.active = ""
	}
}

// Get returns the text of uri.
func (s *Store) Get(uri string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	text, ok := s.docs[uri]
	return text, ok
}

// Active is the most recently opened or changed document, "" if none.
func (s *Store) Active() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Document is an open editor buffer. Edits go back through
// workspace/applyEdit.
type Document struct {
	uri  string
	path string
	text string
	call glsp.CallFunc
}

// NewDocument snapshots text for uri.
func NewDocument(uri, text string, call glsp.CallFunc) (*Document, error) {
	path, err := uriToPath(uri)
	if err != nil {
		return nil, err
	}
	return &Document{uri: uri, path: path, text: text, call: call}, nil
}

func (d *Document) URI() string  { return d.uri }
func (d *Document) Path() string { return d.path }
func (d *Document) Text() string { return d.text }

// Apply sends e as a single text edit. A client that reports the edit as
// not applied yields an error.
func (d *Document) Apply(ctx context.Context, e merge.Edit) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.StartOffset < 0 || e.EndOffset < e.StartOffset || e.EndOffset > len(d.text) {
		return errors.Newf("edit range %d:%d outside document of length %d", e.StartOffset, e.EndOffset, len(d.text))
	}

	label := "ui5-ts-codegen"
	params := protocol.ApplyWorkspaceEditParams{
		Label: &label,
		Edit: protocol.WorkspaceEdit{
			Changes: map[protocol.DocumentUri][]protocol.TextEdit{
				protocol.DocumentUri(d.uri): {{
					Range: protocol.Range{
						Start: utf16Position(d.text, e.StartOffset),
						End:   utf16Position(d.text, e.EndOffset),
					},
					NewText: e.Text,
				}},
			},
		},
	}
	var resp protocol.ApplyWorkspaceEditResponse
	d.call(protocol.ServerWorkspaceApplyEdit, params, &resp)
	if !resp.Applied {
		reason := "no reason given"
		if resp.FailureReason != nil {
			reason = *resp.FailureReason
		}
		return errors.Newf("editor did not apply the edit to %s: %s", d.uri, reason)
	}

	out, err := merge.Apply(d.text, e)
	if err != nil {
		return err
	}
	d.text = out
	return nil
}

// utf16Position converts a byte offset in text to an LSP position, whose
// character is counted in UTF-16 code units.
func utf16Position(text string, offset int) protocol.Position {
	if offset > len(text) {
		offset = len(text)
	}
	head := text[:offset]
	line := strings.Count(head, "\n")
	col := head[strings.LastIndexByte(head, '\n')+1:]

	var units int
	for len(col) > 0 {
		r, size := utf8.DecodeRuneInString(col)
		col = col[size:]
		if n := utf16.RuneLen(r); n > 0 {
			units += n
		} else {
			units++
		}
	}
	return protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(units)}
}

func uriToPath(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", errors.Wrapf(err, "parse uri %q", uri)
	}
	if u.Scheme != "file" {
		return "", errors.WithHint(errors.Newf("unsupported document uri %q", uri), "Only documents saved on disk can be generated into.")
	}
	path := u.Path
	// file:///c:/x on Windows
	if len(path) > 2 && path[0] == '/' && path[2] == ':' {
		path = path[1:]
	}
	return filepath.FromSlash(path), nil
}

// notifier sends window/showMessage notifications.
type notifier struct {
	notify glsp.NotifyFunc
}

func (n notifier) Info(msg string) { n.show(protocol.MessageTypeInfo, msg) }

func (n notifier) Error(msg string) { n.show(protocol.MessageTypeError, msg) }

func (n notifier) show(kind protocol.MessageType, msg string) {
	n.notify(protocol.ServerWindowShowMessage, protocol.ShowMessageParams{Type: kind, Message: msg})
}
