package mmap

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMmap_OpenReadClose(t *testing.T) {
	content := []byte("Hello, Mmap!")
	path := filepath.Join(t.TempDir(), "mmap_test")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	m, err := Open(path, Random)
	require.NoError(t, err)

	assert.Equal(t, len(content), m.Size())
	assert.Equal(t, content, m.Bytes())

	buf := make([]byte, 5)
	n, err := m.ReadAt(buf, 7)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "Mmap!", string(buf))

	n, err = m.ReadAt(make([]byte, 10), 100)
	assert.Equal(t, 0, n)
	assert.Equal(t, io.EOF, err)

	buf3 := make([]byte, 10)
	n, err = m.ReadAt(buf3, 7)
	assert.Equal(t, 5, n)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, "Mmap!", string(buf3[:n]))

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
}

func TestMmap_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	m, err := Open(path, Sequential)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Size())
	assert.Nil(t, m.Bytes())
	require.NoError(t, m.Close())
}

func TestMmap_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope"), Random)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMmap_SequentialMatchesFile(t *testing.T) {
	content := make([]byte, 3*os.Getpagesize()+17)
	for i := range content {
		content[i] = byte(i * 31)
	}
	path := filepath.Join(t.TempDir(), "pages")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	m, err := Open(path, Sequential)
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, content, m.Bytes())
}
