package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := Connect("redis://" + mr.Addr() + "/0")
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	v, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, v)

	ok, err := c.SetNX(ctx, "k", "1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = c.SetNX(ctx, "k", "2", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	v, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	require.NoError(t, c.Del(ctx, "k"))
	assert.False(t, mr.Exists("k"))
	require.NoError(t, c.Ping(ctx))
}

func TestConnectInvalidURL(t *testing.T) {
	_, err := Connect("http://nope")
	assert.Error(t, err)
}
