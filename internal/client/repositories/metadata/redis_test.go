package metadata

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupRedis connects to GOPHAUTH_TEST_REDIS_URL and returns a repository
// on a random hash key. The test is skipped when no server is configured.
func setupRedis(t *testing.T) *RedisRepository {
	t.Helper()
	url := os.Getenv("GOPHAUTH_TEST_REDIS_URL")
	if url == "" {
		t.Skip("GOPHAUTH_TEST_REDIS_URL is not set")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)

	rdb := redis.NewClient(opt)
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(context.Background()).Err())

	key := "gophauth:test:" + uuid.NewString()
	t.Cleanup(func() { _ = rdb.Del(context.Background(), key).Err() })
	return NewRedisRepository(rdb, key)
}

func TestNewRedisRepository_DefaultKey(t *testing.T) {
	r := NewRedisRepository(nil, "")
	assert.Equal(t, DefaultRedisKey, r.key)
}

func TestRedis_SetGetDelete(t *testing.T) {
	r := setupRedis(t)
	ctx := context.Background()

	v, err := r.Get(ctx, "token")
	require.NoError(t, err)
	require.Nil(t, v)

	require.NoError(t, r.Set(ctx, "token", []byte("abc")))
	v, err = r.Get(ctx, "token")
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), v)

	require.NoError(t, r.Delete(ctx, "token"))
	require.NoError(t, r.Delete(ctx, "token"))
	v, err = r.Get(ctx, "token")
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestRedis_ReplaceAndClear(t *testing.T) {
	r := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "stale", []byte("x")))
	require.NoError(t, r.Replace(ctx, map[string][]byte{"user": []byte(`{"id":7}`), "sessionId": []byte("7")}))

	m, err := r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"user": []byte(`{"id":7}`), "sessionId": []byte("7")}, m)

	require.NoError(t, r.Clear(ctx))
	m, err = r.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, m)
}
