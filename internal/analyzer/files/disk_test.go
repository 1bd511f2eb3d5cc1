package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskSaveAndRemove(t *testing.T) {
	root := t.TempDir()
	d, err := NewDisk(filepath.Join(root, "uploads"), filepath.Join(root, "graphs"))
	require.NoError(t, err)

	assert.DirExists(t, d.UploadDir())
	assert.DirExists(t, d.GraphDir())

	path, err := d.SaveUpload("abc", ".csv", []byte("a,b\n1,2\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "uploads", "abc.csv"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(raw))

	require.NoError(t, d.Remove(path, filepath.Join(root, "missing.png"), ""))
	assert.NoFileExists(t, path)
}

func TestDiskSaveUploadRejectsPathSeparators(t *testing.T) {
	d, err := NewDisk(t.TempDir(), t.TempDir())
	require.NoError(t, err)

	_, err = d.SaveUpload("../evil", "csv", nil)
	assert.Error(t, err)

	_, err = d.SaveUpload("ok", "x/y", nil)
	assert.Error(t, err)
}
