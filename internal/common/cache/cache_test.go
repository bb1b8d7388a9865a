// internal/common/cache/cache_test.go
package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ranking-workers/internal/common/logger"
)

type cachedDataset struct {
	GeneratedAt time.Time `json:"generatedAt"`
	Companies   []string  `json:"companies"`
	Average     *float64  `json:"averageRating"`
	Internal    string    `json:"-"`
}

func createTestCache(t *testing.T, codec Codec) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, "rankings", codec, logger.NewTestLogger(t)), mr
}

func TestCache_RoundTrip(t *testing.T) {
	avg := 4.25
	value := cachedDataset{
		GeneratedAt: time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC),
		Companies:   []string{"alpha", "beta"},
		Average:     &avg,
		Internal:    "dropped",
	}

	for _, codec := range []Codec{JSON, MsgPack} {
		t.Run(codec.Name(), func(t *testing.T) {
			c, _ := createTestCache(t, codec)
			ctx := context.Background()
			key := c.Key("dataset", "rankings", "abc")

			var miss cachedDataset
			hit, err := c.Get(ctx, key, &miss)
			require.NoError(t, err)
			assert.False(t, hit)

			require.NoError(t, c.Set(ctx, key, value, time.Minute, "rankings"))

			var got cachedDataset
			hit, err = c.Get(ctx, key, &got)
			require.NoError(t, err)
			require.True(t, hit)
			assert.True(t, value.GeneratedAt.Equal(got.GeneratedAt))
			assert.Equal(t, value.Companies, got.Companies)
			require.NotNil(t, got.Average)
			assert.Equal(t, 4.25, *got.Average)
			assert.Empty(t, got.Internal)
		})
	}
}

func TestCache_TTL(t *testing.T) {
	c, mr := createTestCache(t, JSON)
	ctx := context.Background()
	key := c.Key("history", "c1", "30")

	require.NoError(t, c.Set(ctx, key, []int{1}, 5*time.Minute, "ranking-history"))
	assert.Equal(t, 5*time.Minute, mr.TTL(key))

	mr.FastForward(5*time.Minute + time.Second)

	var out []int
	hit, err := c.Get(ctx, key, &out)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCache_Invalidate(t *testing.T) {
	c, mr := createTestCache(t, JSON)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, c.Key("dataset", "rankings", "a"), 1, time.Minute, "rankings"))
	require.NoError(t, c.Set(ctx, c.Key("dataset", "rankings", "b"), 2, time.Minute, "rankings"))
	require.NoError(t, c.Set(ctx, c.Key("dataset", "reviews", "a"), 3, time.Minute, "reviews-ranking"))

	removed, err := c.Invalidate(ctx, "rankings", "unknown")
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	assert.False(t, mr.Exists(c.Key("dataset", "rankings", "a")))
	assert.False(t, mr.Exists("rankings:tag:rankings"))
	assert.True(t, mr.Exists(c.Key("dataset", "reviews", "a")))
}

func TestCache_UndecodablePayloadIsMiss(t *testing.T) {
	c, mr := createTestCache(t, JSON)
	key := c.Key("dataset", "rankings", "broken")
	require.NoError(t, mr.Set(key, "{not json"))

	var out cachedDataset
	hit, err := c.Get(context.Background(), key, &out)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCache_GetError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := New(client, "rankings", JSON, logger.NewTestLogger(t))

	mock.ExpectGet("rankings:dataset:x").SetErr(errors.New("connection reset"))

	var out cachedDataset
	hit, err := c.Get(context.Background(), "rankings:dataset:x", &out)
	assert.Error(t, err)
	assert.False(t, hit)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCodecByName(t *testing.T) {
	codec, err := CodecByName("")
	require.NoError(t, err)
	assert.Equal(t, "json", codec.Name())

	codec, err = CodecByName("msgpack")
	require.NoError(t, err)
	assert.Equal(t, "msgpack", codec.Name())

	_, err = CodecByName("gob")
	assert.Error(t, err)
}
