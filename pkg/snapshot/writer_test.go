package snapshot

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_WriteAndReadBack(t *testing.T) {
	fs := afero.NewMemMapFs()
	w, err := NewWriter(fs, "/var/lib/procshot")
	require.NoError(t, err)

	want := sampleSnapshot()
	path, err := w.Write(want)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/procshot/1700000000.snapshot", path)

	exists, err := afero.Exists(fs, path)
	require.NoError(t, err)
	assert.True(t, exists)

	got, err := ReadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestWriter_SameSecondOverwrites(t *testing.T) {
	fs := afero.NewMemMapFs()
	w, err := NewWriter(fs, "/data")
	require.NoError(t, err)

	first := sampleSnapshot()
	_, err = w.Write(first)
	require.NoError(t, err)

	// Same capture second, different contents: silent overwrite is the
	// documented behavior.
	second := sampleSnapshot()
	second.TotalCPUTime++
	path, err := w.Write(second)
	require.NoError(t, err)

	got, err := ReadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, second.TotalCPUTime, got.TotalCPUTime)

	infos, err := afero.ReadDir(fs, "/data")
	require.NoError(t, err)
	assert.Len(t, infos, 1)
}

func TestWriter_ReadOnlyFilesystem(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, base.MkdirAll("/data", 0o755))

	w, err := NewWriter(afero.NewReadOnlyFs(base), "/data")
	if err != nil {
		// MkdirAll on a read-only fs may already refuse; that is an
		// acceptable failure point too.
		return
	}
	_, err = w.Write(sampleSnapshot())
	require.Error(t, err)
}

func TestReadFile_MissingFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	_, err := ReadFile(fs, "/nope/1.snapshot")
	require.Error(t, err)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "1700000000.snapshot", FileName(1700000000))
}
