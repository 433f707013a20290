package journal

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	sserrors "github.com/SimplexDevelopment/SimplexSS/pkg/common/errors"
	"github.com/SimplexDevelopment/SimplexSS/pkg/common/validation"
)

// RedisConfig configures a Redis journal.
type RedisConfig struct {
	// Redis client. The journal does not close it.
	Redis redis.UniversalClient

	// Key of the Redis stream.
	Key string

	// MaxLen caps the stream approximately (XADD MAXLEN ~).
	MaxLen int64

	// InstanceID is written into records that carry none.
	InstanceID string

	// RedisTimeout bounds each Redis call.
	RedisTimeout time.Duration
}

// DefaultRedisConfig returns defaults for everything but the client.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Key:          "simplexss:activations",
		MaxLen:       DefaultMaxLen,
		InstanceID:   InstanceID(),
		RedisTimeout: 500 * time.Millisecond,
	}
}

// Redis is a Journal backed by a Redis stream.
type Redis struct {
	cfg RedisConfig
}

// NewRedis validates cfg, fills defaults and returns the journal.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	if err := validation.ValidateNotNil("journal", "redis", cfg.Redis); err != nil {
		return nil, err
	}
	if cfg.MaxLen < 0 {
		return nil, sserrors.NewValidationError("journal", "max_len", cfg.MaxLen, "cannot be negative")
	}

	def := DefaultRedisConfig()
	if cfg.Key == "" {
		cfg.Key = def.Key
	}
	if cfg.MaxLen == 0 {
		cfg.MaxLen = def.MaxLen
	}
	if cfg.InstanceID == "" {
		cfg.InstanceID = def.InstanceID
	}
	if cfg.RedisTimeout == 0 {
		cfg.RedisTimeout = def.RedisTimeout
	}
	return &Redis{cfg: cfg}, nil
}

// Key returns the stream key.
func (r *Redis) Key() string { return r.cfg.Key }

func (r *Redis) Append(ctx context.Context, rec Record) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.RedisTimeout)
	defer cancel()

	if rec.Instance == "" {
		rec.Instance = r.cfg.InstanceID
	}
	err := r.cfg.Redis.XAdd(ctx, &redis.XAddArgs{
		Stream: r.cfg.Key,
		MaxLen: r.cfg.MaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"pool":     rec.Pool,
			"service":  rec.Service,
			"instance": rec.Instance,
			"started":  rec.Started.UnixNano(),
			"duration": int64(rec.Duration),
			"err":      rec.Err,
		},
	}).Err()
	if err != nil {
		return &RedisError{Operation: "xadd", Err: err}
	}
	return nil
}

func (r *Redis) Recent(ctx context.Context, n int) ([]Record, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.RedisTimeout)
	defer cancel()

	var (
		msgs []redis.XMessage
		err  error
	)
	if n > 0 {
		msgs, err = r.cfg.Redis.XRevRangeN(ctx, r.cfg.Key, "+", "-", int64(n)).Result()
	} else {
		msgs, err = r.cfg.Redis.XRevRange(ctx, r.cfg.Key, "+", "-").Result()
	}
	if err != nil {
		return nil, &RedisError{Operation: "xrevrange", Err: err}
	}

	out := make([]Record, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, decode(msg))
	}
	return out, nil
}

func (r *Redis) Sink() string { return "redis" }

// Close is a no-op; the client belongs to the caller.
func (r *Redis) Close() error { return nil }

func decode(msg redis.XMessage) Record {
	rec := Record{
		ID:       msg.ID,
		Pool:     str(msg.Values["pool"]),
		Service:  str(msg.Values["service"]),
		Instance: str(msg.Values["instance"]),
		Err:      str(msg.Values["err"]),
	}
	if ns, err := strconv.ParseInt(str(msg.Values["started"]), 10, 64); err == nil {
		rec.Started = time.Unix(0, ns)
	}
	if d, err := strconv.ParseInt(str(msg.Values["duration"]), 10, 64); err == nil {
		rec.Duration = time.Duration(d)
	}
	return rec
}

func str(v interface{}) string {
	s, _ := v.(string)
	return s
}

// RedisError represents a failed Redis operation.
type RedisError struct {
	Operation string
	Err       error
}

func (e *RedisError) Error() string {
	return "journal: redis " + e.Operation + ": " + e.Err.Error()
}

func (e *RedisError) Unwrap() error {
	return e.Err
}
