package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/hotel-lister/internal/cache"
)

func newTestClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return client, mr
}

func TestConnect_InvalidURL(t *testing.T) {
	_, err := cache.Connect(context.Background(), "not-a-url")
	require.Error(t, err)
}

func TestConnect_UnreachableServer(t *testing.T) {
	_, err := cache.Connect(context.Background(), "redis://localhost:19999")
	require.Error(t, err)
}

func TestConnect_OK(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := cache.Connect(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	assert.Equal(t, time.Second, client.Options().ReadTimeout)
	assert.Equal(t, time.Second, client.Options().WriteTimeout)
}

func TestConnect_URLTimeoutsWin(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := cache.Connect(context.Background(), "redis://"+mr.Addr()+"?read_timeout=250ms")
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	assert.Equal(t, 250*time.Millisecond, client.Options().ReadTimeout)
}
