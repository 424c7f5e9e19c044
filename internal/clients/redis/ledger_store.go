package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	types "github.com/lumehq/lume-backend/internal/domain"
	"github.com/lumehq/lume-backend/internal/platform/logger"
)

// LedgerStore holds per-user, per-day action ledgers as capped Redis
// lists. Each key expires on its own; the store never scans keys.
type LedgerStore interface {
	// Append pushes an entry and trims the list to the newest max
	// entries, dropping the oldest on overflow.
	Append(ctx context.Context, key string, entry types.LedgerEntry, max int) error
	// Entries returns the full list for the key, oldest first. A missing
	// key yields an empty slice.
	Entries(ctx context.Context, key string) ([]types.LedgerEntry, error)
	Close() error
}

type ledgerStore struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewLedgerStore(log *logger.Logger) (LedgerStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &ledgerStore{
		log: log.With("service", "RedisLedgerStore"),
		rdb: rdb,
		// Two days covers every timezone's "today" without a midnight
		// cleanup job.
		ttl: 48 * time.Hour,
	}, nil
}

func (s *ledgerStore) Append(ctx context.Context, key string, entry types.LedgerEntry, max int) error {
	if s == nil || s.rdb == nil {
		return fmt.Errorf("ledger store not initialized")
	}
	if key == "" {
		return fmt.Errorf("ledger key required")
	}
	if max <= 0 {
		max = types.MaxLedgerEntriesPerDay
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	pipe := s.rdb.TxPipeline()
	pipe.RPush(ctx, key, raw)
	pipe.LTrim(ctx, key, -int64(max), -1)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("ledger append: %w", err)
	}
	return nil
}

func (s *ledgerStore) Entries(ctx context.Context, key string) ([]types.LedgerEntry, error) {
	if s == nil || s.rdb == nil {
		return nil, fmt.Errorf("ledger store not initialized")
	}
	raws, err := s.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("ledger read: %w", err)
	}

	out := make([]types.LedgerEntry, 0, len(raws))
	for _, raw := range raws {
		var e types.LedgerEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			s.log.Warn("dropping unreadable ledger entry", "key", key, "error", err)
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *ledgerStore) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}
