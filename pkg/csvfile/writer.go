package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var ErrBadFilename = errors.New("filename must name a file inside the output directory")

// Writer stores each recording as a flat CSV file under Dir. Existing files
// with the same name are overwritten.
type Writer struct {
	Dir string
}

func NewWriter(dir string) Writer {
	return Writer{Dir: dir}
}

func (w Writer) Write(filename string, rows [][]string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) || filename == "." || filename == ".." {
		return "", fmt.Errorf("%w: %q", ErrBadFilename, filename)
	}
	path := filepath.Join(w.Dir, filename)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}

	cw := csv.NewWriter(f)
	if err := cw.WriteAll(rows); err != nil {
		f.Close()
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", path, err)
	}
	return path, nil
}
