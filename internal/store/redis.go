package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jo-room/job-scrape/internal/model"
)

var _ model.RunStore = (*RedisStore)(nil)

// RedisClient is the subset of redis.UniversalClient the store needs.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Copy(ctx context.Context, sourceKey, destKey string, db int, replace bool) *redis.IntCmd
}

// RedisStore keeps the run record as a JSON document under a single key.
type RedisStore struct {
	client RedisClient
	key    string
	db     int
	now    func() time.Time
	logger *slog.Logger
}

// NewRedisStore returns a store for key in database db.
func NewRedisStore(client RedisClient, key string, db int, logger *slog.Logger) *RedisStore {
	return &RedisStore{client: client, key: key, db: db, now: time.Now, logger: logger}
}

// Load reads and decodes the record. A missing key yields ErrNotFound.
func (s *RedisStore) Load(ctx context.Context) (*model.RunRecord, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: redis key %s", ErrNotFound, s.key)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	return Decode("redis key "+s.key, data)
}

// Save writes rec according to opts. Backups go to <key>_backup and
// non-destructive saves to <key>_<timestamp>, which leave <key> and its backup
// alone. None of the keys expire.
func (s *RedisStore) Save(ctx context.Context, rec *model.RunRecord, opts model.SaveOptions) (string, error) {
	if opts.SkipWrite {
		s.logger.Info("skipping run record write", "key", s.key)
		return "", nil
	}

	data, err := Encode(rec)
	if err != nil {
		return "", err
	}

	dest := s.key
	if opts.NonDestructive {
		dest = s.key + "_" + s.now().Format(timestampLayout)
	}

	if opts.BackupFirst && dest == s.key {
		backup := s.key + "_backup"
		n, err := s.client.Copy(ctx, s.key, backup, s.db, true).Result()
		if err != nil {
			return "", fmt.Errorf("redis copy %s: %w", s.key, err)
		}
		if n > 0 {
			s.logger.Info("backed up run record", "from", s.key, "to", backup)
		}
	}

	if err := s.client.Set(ctx, dest, data, 0).Err(); err != nil {
		return "", fmt.Errorf("redis set %s: %w", dest, err)
	}
	s.logger.Info("wrote run record", "key", dest)
	return dest, nil
}
