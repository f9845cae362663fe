package output

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "schemas.rb")

	wrote, err := WriteFile(path, []byte("A = 1\n"), WriteOptions{})
	require.NoError(t, err)
	require.True(t, wrote)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "A = 1\n", string(content))

	wrote, err = WriteFile(path, []byte("A = 1\n"), WriteOptions{})
	require.NoError(t, err)
	require.False(t, wrote)

	wrote, err = WriteFile(path, []byte("A = 2\n"), WriteOptions{})
	require.NoError(t, err)
	require.True(t, wrote)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestWriteFileCheck(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schemas.rb")

	_, err := WriteFile(path, []byte("A = 1\n"), WriteOptions{Check: true})
	require.ErrorIs(t, err, ErrOutdated)
	require.NoFileExists(t, path)

	require.NoError(t, os.WriteFile(path, []byte("A = 1\n"), 0o644))

	wrote, err := WriteFile(path, []byte("A = 1\n"), WriteOptions{Check: true})
	require.NoError(t, err)
	require.False(t, wrote)

	_, err = WriteFile(path, []byte("A = 2\n"), WriteOptions{Check: true})
	require.ErrorIs(t, err, ErrOutdated)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "A = 1\n", string(content))
}
