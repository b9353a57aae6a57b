package memory

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewIsZeroedAndPageAligned(t *testing.T) {
	m := New(2, 0, false)
	require.Equal(t, 2*PageSize, m.Len())
	for _, b := range m.Bytes() {
		require.Zero(t, b)
	}
}

func TestWriteThenRead(t *testing.T) {
	m := New(1, 0, false)
	require.NoError(t, m.Write(16, []byte("hi")))
	got, err := m.Read(15, 4)
	require.NoError(t, err)
	require.Equal(t, []byte{0x00, 0x68, 0x69, 0x00}, got)
}

func TestWriteOutOfBounds(t *testing.T) {
	m := New(1, 0, false)
	require.Error(t, m.Write(PageSize-1, []byte("hi")))
}

func TestGrowRespectsMax(t *testing.T) {
	m := New(1, 2, true)
	old, ok := m.Grow(1)
	require.True(t, ok)
	require.Equal(t, uint32(1), old)
	require.Equal(t, uint32(2), m.Pages())

	_, ok = m.Grow(1)
	require.False(t, ok)
	require.Equal(t, uint32(2), m.Pages())
}

func TestGrowWithoutMax(t *testing.T) {
	m := New(1, 0, false)
	_, ok := m.Grow(5)
	require.True(t, ok)
	require.Equal(t, uint32(6), m.Pages())
}
