package csvfile

import (
	"encoding/csv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
)

func readBack(t *testing.T, path string) [][]string {
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	require.NoError(t, err)
	return rows
}

func TestRowsRoundTrip(t *testing.T) {
	w := NewWriter(t.TempDir())
	rows := [][]string{
		{"proximity", "10", "20"},
		{"5", "6", "7"},
		{"odd \"quoted\" field", "", " spaced "},
		{"short"},
	}

	path, err := w.Write("wave_1.csv", rows)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(w.Dir, "wave_1.csv"), path)
	assert.Equal(t, rows, readBack(t, path))
}

func TestEmptySessionWritesEmptyFile(t *testing.T) {
	w := NewWriter(t.TempDir())

	path, err := w.Write("_1.csv", nil)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestOverwritesExistingFile(t *testing.T) {
	w := NewWriter(t.TempDir())

	_, err := w.Write("wave_1.csv", [][]string{{"a", "b"}, {"c", "d"}, {"e", "f"}})
	require.NoError(t, err)
	path, err := w.Write("wave_1.csv", [][]string{{"x"}})
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"x"}}, readBack(t, path))
}

func TestMissingDirectory(t *testing.T) {
	w := NewWriter(filepath.Join(t.TempDir(), "does", "not", "exist"))

	_, err := w.Write("wave_1.csv", [][]string{{"a"}})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRejectsFilenamesOutsideDir(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(filepath.Join(root, "out"))
	require.NoError(t, os.Mkdir(w.Dir, 0o755))

	for _, name := range []string{"../x_1.csv", "sub/x_1.csv", ".", "..", ""} {
		_, err := w.Write(name, [][]string{{"a"}})
		assert.ErrorIs(t, err, ErrBadFilename, name)
	}

	_, err := os.Stat(filepath.Join(root, "x_1.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
