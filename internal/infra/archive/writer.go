// Package archive appends newly seen stories to monthly text logs.
//
// Each month gets one file named archive-YYYY-MM.txt holding lines of the form
// "YYYY-MM-DD <title> : <url>". Files are only ever appended to.
package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"hackerfeed/internal/domain/entity"
)

// FileMode is the permission used when an archive file is created.
const FileMode os.FileMode = 0o644

// Writer appends archive entries under a base directory.
type Writer struct {
	dir string
}

// NewWriter returns a writer storing archives in dir ("." when empty).
func NewWriter(dir string) *Writer {
	if dir == "" {
		dir = "."
	}
	return &Writer{dir: dir}
}

// FileName returns the archive file name for the month containing date.
func FileName(date time.Time) string {
	return fmt.Sprintf("archive-%04d-%02d.txt", date.Year(), int(date.Month()))
}

// Path returns the full path of the archive file for date.
func (w *Writer) Path(date time.Time) string {
	return filepath.Join(w.dir, FileName(date))
}

// Append writes all entries to the archive file selected by date in a single
// write. The file is created if needed and never truncated. Errors wrap
// entity.ErrArchiveIO.
func (w *Writer) Append(date time.Time, entries []entity.ArchiveEntry) error {
	if len(entries) == 0 {
		return nil
	}

	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.Line())
	}

	path := w.Path(date)
	// #nosec G304 -- path is built from the configured archive directory and a fixed name pattern
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, FileMode)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", entity.ErrArchiveIO, path, err)
	}

	if _, err := f.WriteString(b.String()); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: write %s: %v", entity.ErrArchiveIO, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", entity.ErrArchiveIO, path, err)
	}
	return nil
}
