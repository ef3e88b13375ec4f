package vectorstore

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_AppendGet(t *testing.T) {
	m := NewMemory(3)
	assert.Equal(t, 3, m.Dimension())
	assert.Equal(t, 0, m.Count())

	src := []float32{1, 2, 3}
	id, err := m.Append(src)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), id)

	// Append copies.
	src[0] = 42
	assert.Equal(t, []float32{1, 2, 3}, m.Get(0))

	id, err = m.Append([]float32{4, 5, 6})
	require.NoError(t, err)
	assert.Equal(t, uint32(1), id)
	assert.Equal(t, 2, m.Count())

	_, err = m.Append([]float32{1})
	assert.ErrorIs(t, err, ErrWrongDimension)
}

func TestMemory_ConcurrentAppend(t *testing.T) {
	m := NewMemory(2)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, err := m.Append([]float32{float32(j), 0})
				assert.NoError(t, err)
				_ = m.Get(0)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 800, m.Count())
}

func TestFromVectors(t *testing.T) {
	m, err := FromVectors(2, [][]float32{{1, 0}, {0, 1}})
	require.NoError(t, err)
	assert.Equal(t, 2, m.Count())

	_, err = FromVectors(2, [][]float32{{1, 0}, {0}})
	assert.ErrorIs(t, err, ErrWrongDimension)
}

func TestNormalized(t *testing.T) {
	src, err := FromVectors(2, [][]float32{{3, 4}, {0, 0}})
	require.NoError(t, err)

	calls := 0
	out := Normalized(src, func(v []float32) bool {
		calls++
		v[0], v[1] = 0.6, 0.8
		return true
	})
	assert.Equal(t, 2, calls)
	assert.Equal(t, []float32{0.6, 0.8}, out.Get(0))
	// Source is untouched.
	assert.Equal(t, []float32{3, 4}, src.Get(0))
}

func TestFvecs_RoundTrip(t *testing.T) {
	src, err := FromVectors(3, [][]float32{{1, 2, 3}, {-1, 0.5, 7}, {0, 0, 0}})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteFvecs(&buf, src))
	assert.Equal(t, 3*(4+12), buf.Len())

	got, err := ReadFvecs(bytes.NewReader(buf.Bytes()), 0)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Dimension())
	require.Equal(t, 3, got.Count())
	for i := 0; i < 3; i++ {
		assert.Equal(t, src.Get(uint32(i)), got.Get(uint32(i)))
	}

	limited, err := ReadFvecs(bytes.NewReader(buf.Bytes()), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, limited.Count())
}

func TestReadFvecs_Malformed(t *testing.T) {
	_, err := ReadFvecs(bytes.NewReader(nil), 0)
	assert.ErrorIs(t, err, ErrMalformedFvecs)

	// Truncated body.
	_, err = ReadFvecs(bytes.NewReader([]byte{2, 0, 0, 0, 1, 2, 3}), 0)
	assert.ErrorIs(t, err, ErrMalformedFvecs)

	// Negative dimension.
	_, err = ReadFvecs(bytes.NewReader([]byte{0xff, 0xff, 0xff, 0xff}), 0)
	assert.ErrorIs(t, err, ErrMalformedFvecs)
}

func TestMapped(t *testing.T) {
	src, err := FromVectors(4, [][]float32{{1, 2, 3, 4}, {5, 6, 7, 8}})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "base.fvecs")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, WriteFvecs(f, src))
	require.NoError(t, f.Close())

	m, err := OpenMapped(path)
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, 4, m.Dimension())
	assert.Equal(t, 2, m.Count())
	assert.Equal(t, []float32{5, 6, 7, 8}, m.Get(1))
}

func TestMapped_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.fvecs")
	require.NoError(t, os.WriteFile(path, []byte{2, 0, 0, 0, 1, 2, 3, 4, 5}, 0o600))

	_, err := OpenMapped(path)
	assert.ErrorIs(t, err, ErrMalformedFvecs)
}
