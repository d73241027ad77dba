package stats

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultPrefix = "simplenet:stats"
	defaultTTL    = 24 * time.Hour
	defaultBucket = "minute"
)

// RedisStore persists admission counters to Redis so several server
// instances can share one view. Writes ride a single pipeline per
// event.
type RedisStore struct {
	rdb          *redis.Client
	prefix       string
	ttl          time.Duration
	bucket       string
	trackClients bool
}

type RedisOption func(*RedisStore)

func WithPrefix(p string) RedisOption {
	return func(s *RedisStore) {
		p = strings.Trim(strings.TrimSpace(p), ":")
		if p != "" {
			s.prefix = p
		}
	}
}

func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithBucket(name string) RedisOption {
	return func(s *RedisStore) {
		name = strings.TrimSpace(name)
		if name != "" {
			s.bucket = name
		}
	}
}

func WithTrackClients(track bool) RedisOption {
	return func(s *RedisStore) {
		s.trackClients = track
	}
}

func NewRedisStore(rdb *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		rdb:    rdb,
		prefix: defaultPrefix,
		ttl:    defaultTTL,
		bucket: defaultBucket,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) Record(ctx context.Context, ev Event) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	field := "denied"
	if ev.Allowed {
		field = "allowed"
	}
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}

	totalKey := s.prefix + ":total"
	bucketKey := fmt.Sprintf("%s:%s:%s", s.prefix, s.bucket, at.UTC().Format("200601021504"))
	statusKey := s.prefix + ":status"

	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, totalKey, field, 1)
	pipe.HIncrBy(ctx, bucketKey, field, 1)
	pipe.Expire(ctx, bucketKey, s.ttl)
	pipe.HIncrBy(ctx, statusKey, strconv.Itoa(ev.Status), 1)
	if s.trackClients && ev.ClientID != "" {
		clientKey := s.prefix + ":client:" + ev.ClientID
		pipe.HIncrBy(ctx, clientKey, field, 1)
		pipe.Expire(ctx, clientKey, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("stats: record: %w", err)
	}
	return nil
}
