package host

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"

	"github.com/tapsiturbi/ui5-ts-codegen/internal/merge"
)

// ErrStale is returned when a file changed on disk after it was read.
var ErrStale = errors.New("file changed since it was read")

// FileDocument is a Document backed by a file. Edits are written back only
// if the file still hashes to what was read.
type FileDocument struct {
	path    string
	text    string
	version uint64

	// DryRun writes the edited document to Out instead of the file.
	DryRun bool
	Out    io.Writer
}

// OpenFile reads path into a FileDocument.
func OpenFile(path string) (*FileDocument, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve %s", path)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return &FileDocument{path: abs, text: string(data), version: xxhash.Sum64(data)}, nil
}

func (d *FileDocument) URI() string  { return "file://" + filepath.ToSlash(d.path) }
func (d *FileDocument) Path() string { return d.path }
func (d *FileDocument) Text() string { return d.text }

// Version is the content hash the document was read at.
func (d *FileDocument) Version() uint64 { return d.version }

func (d *FileDocument) Apply(ctx context.Context, e merge.Edit) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	out, err := merge.Apply(d.text, e)
	if err != nil {
		return err
	}
	if d.DryRun {
		w := d.Out
		if w == nil {
			w = os.Stdout
		}
		_, err := fmt.Fprint(w, out)
		return err
	}

	info, err := os.Stat(d.path)
	if err != nil {
		return errors.Wrapf(err, "stat %s", d.path)
	}
	current, err := os.ReadFile(d.path)
	if err != nil {
		return errors.Wrapf(err, "read %s", d.path)
	}
	if xxhash.Sum64(current) != d.version {
		return errors.WithHint(errors.Wrapf(ErrStale, "%s", d.path), "Re-run the generator on the current file contents.")
	}
	if err := os.WriteFile(d.path, []byte(out), info.Mode().Perm()); err != nil {
		return errors.Wrapf(err, "write %s", d.path)
	}
	d.text = out
	d.version = xxhash.Sum64String(out)
	return nil
}
