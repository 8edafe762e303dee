package web

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPreviewCacheEvictsOldest(t *testing.T) {
	c := newPreviewCache(2)
	c.Add("a", []byte("1"))
	c.Add("b", []byte("2"))
	c.Add("c", []byte("3"))

	_, ok := c.Get("a")
	require.False(t, ok)

	v, ok := c.Get("b")
	require.True(t, ok)
	require.Equal(t, []byte("2"), v)

	v, ok = c.Get("c")
	require.True(t, ok)
	require.Equal(t, []byte("3"), v)
}

func TestPreviewCacheRefreshesRecency(t *testing.T) {
	c := newPreviewCache(2)
	c.Add("a", []byte("1"))
	c.Add("b", []byte("2"))
	c.Get("a") // touch a, making b the least recently used
	c.Add("c", []byte("3"))

	_, ok := c.Get("b")
	require.False(t, ok)

	_, ok = c.Get("a")
	require.True(t, ok)
}
