package main

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenLikeStore(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		likes, closeLikes, err := openLikeStore(ctx, testConfig())
		require.NoError(t, err)
		assert.NotNil(t, likes)
		assert.NotPanics(t, closeLikes)
	})

	t.Run("invalid url", func(t *testing.T) {
		cfg := testConfig()
		cfg.RedisURL = "://nope"

		_, _, err := openLikeStore(ctx, cfg)
		assert.Error(t, err)
	})

	t.Run("redis connection is closed", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := testConfig()
		cfg.RedisURL = "redis://" + mr.Addr()

		_, closeLikes, err := openLikeStore(ctx, cfg)
		require.NoError(t, err)
		require.Eventually(t, func() bool { return mr.CurrentConnectionCount() > 0 }, time.Second, 10*time.Millisecond)

		closeLikes()
		assert.Eventually(t, func() bool { return mr.CurrentConnectionCount() == 0 }, time.Second, 10*time.Millisecond)
	})
}
