package cache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPutGetRoundTrip(t *testing.T) {
	c := New(t.TempDir())
	hash := ContentHash([]byte("package main"))

	_, ok := c.Get(hash, "symbols.compact")
	require.False(t, ok)

	require.NoError(t, c.Put(hash, "symbols.compact", []byte(`{"symbols":[]}`)))

	got, ok := c.Get(hash, "symbols.compact")
	require.True(t, ok)
	require.Equal(t, `{"symbols":[]}`, string(got))
}

func TestContentHashStableAcrossCalls(t *testing.T) {
	a := ContentHash([]byte("hello"))
	b := ContentHash([]byte("hello"))
	require.Equal(t, a, b)

	c := ContentHash([]byte("hello world"))
	require.NotEqual(t, a, c)
}

func TestConcurrentWritersByteIdentical(t *testing.T) {
	c := New(t.TempDir())
	hash := ContentHash([]byte("x"))
	payload := []byte(`{"symbols":[{"name":"main"}]}`)

	for i := 0; i < 5; i++ {
		require.NoError(t, c.Put(hash, "symbols.compact", payload))
	}

	got, ok := c.Get(hash, "symbols.compact")
	require.True(t, ok)
	require.Equal(t, payload, got)
}
