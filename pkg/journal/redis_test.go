package journal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/SimplexDevelopment/SimplexSS/internal/testutil"
	sserrors "github.com/SimplexDevelopment/SimplexSS/pkg/common/errors"
)

func redisClient(t *testing.T) *redis.Client {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   1,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		t.Skip("Redis not available, skipping")
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestNewRedis_Validation(t *testing.T) {
	_, err := NewRedis(RedisConfig{})
	testutil.AssertEqual(t, sserrors.IsValidationError(err), true)

	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer func() { _ = rdb.Close() }()

	_, err = NewRedis(RedisConfig{Redis: rdb, MaxLen: -1})
	testutil.AssertEqual(t, sserrors.IsValidationError(err), true)

	j, err := NewRedis(RedisConfig{Redis: rdb})
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, j.Key(), "simplexss:activations")
	testutil.AssertEqual(t, j.cfg.MaxLen, int64(DefaultMaxLen))
	testutil.AssertEqual(t, j.cfg.RedisTimeout, 500*time.Millisecond)
	testutil.AssertEqual(t, j.Sink(), "redis")
}

func TestRedis_AppendRecent(t *testing.T) {
	rdb := redisClient(t)
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	key := "simplexss:test:" + uuid.NewString()
	t.Cleanup(func() { rdb.Del(context.Background(), key) })

	j, err := NewRedis(RedisConfig{Redis: rdb, Key: key, InstanceID: "node-1"})
	testutil.AssertNoError(t, err)

	started := time.Unix(1700000000, 42)
	testutil.AssertNoError(t, j.Append(ctx, Record{Pool: "P", Service: "a", Started: started, Duration: time.Millisecond}))
	testutil.AssertNoError(t, j.Append(ctx, Record{Pool: "P", Service: "b", Err: "boom"}))

	got, err := j.Recent(ctx, 1)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(got), 1)
	testutil.AssertEqual(t, got[0].Service, "b")
	testutil.AssertEqual(t, got[0].Err, "boom")

	all, err := j.Recent(ctx, 0)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(all), 2)
	testutil.AssertEqual(t, all[1].Instance, "node-1")
	testutil.AssertEqual(t, all[1].Started.Equal(started), true)
	testutil.AssertEqual(t, all[1].Duration, time.Millisecond)
	testutil.AssertEqual(t, all[1].ID != "", true)
}

func TestRedis_AppendFailureIsRedisError(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	defer func() { _ = rdb.Close() }()

	j, err := NewRedis(RedisConfig{Redis: rdb, RedisTimeout: 100 * time.Millisecond})
	testutil.AssertNoError(t, err)

	err = j.Append(context.Background(), Record{Service: "a"})
	var re *RedisError
	testutil.AssertEqual(t, errors.As(err, &re), true)
	testutil.AssertEqual(t, re.Operation, "xadd")
}
