package snapshot

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

// Writer persists snapshots under a data directory, one file per
// cycle. Files are created fresh and never modified afterwards; two
// cycles within the same second overwrite each other, which is a known
// limitation of the epoch-second naming.
type Writer struct {
	fs  afero.Fs
	dir string
}

// NewWriter creates the data directory if needed and returns a writer
// bound to it.
func NewWriter(fs afero.Fs, dir string) (*Writer, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("writer: create data dir: %w", err)
	}
	return &Writer{fs: fs, dir: dir}, nil
}

// Write serializes the snapshot and writes it to
// <dir>/<captured_at>.snapshot, returning the path. A failed write
// removes the partial file best-effort so readers do not pick it up.
func (w *Writer) Write(s *Snapshot) (string, error) {
	path := filepath.Join(w.dir, FileName(s.CapturedAt))
	f, err := w.fs.Create(path)
	if err != nil {
		return "", fmt.Errorf("writer: create %s: %w", path, err)
	}
	if _, err := f.Write(Encode(s)); err != nil {
		f.Close()
		_ = w.fs.Remove(path)
		return "", fmt.Errorf("writer: write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		_ = w.fs.Remove(path)
		return "", fmt.Errorf("writer: close %s: %w", path, err)
	}
	return path, nil
}

// FileName returns the snapshot file name for a capture time.
func FileName(epoch int64) string {
	return fmt.Sprintf("%d.snapshot", epoch)
}

// ReadFile decodes one snapshot file. The collector never reads its own
// output; this is for the query client and tests.
func ReadFile(fs afero.Fs, path string) (*Snapshot, error) {
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	s, err := Decode(b)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return s, nil
}
