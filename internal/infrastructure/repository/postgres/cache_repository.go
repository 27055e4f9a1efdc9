package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/asklegal/engine/internal/core/domain"
)

// CacheRepository stores answered queries with a per-entry TTL. Expiry is
// lazy: expired rows read as misses and are cleared opportunistically on
// the next write.
type CacheRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewCacheRepository(db *sql.DB) *CacheRepository {
	return &CacheRepository{db: db, now: time.Now}
}

func (r *CacheRepository) Get(ctx context.Context, key string) (domain.CacheEntry, bool, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT cache_key, answer, source, excerpts, created_at, ttl_seconds
FROM answer_cache
WHERE cache_key = $1
`, key)

	var entry domain.CacheEntry
	var excerptsRaw []byte
	var source string
	var ttlSeconds int64

	err := row.Scan(&entry.Key, &entry.Answer, &source, &excerptsRaw, &entry.CreatedAt, &ttlSeconds)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.CacheEntry{}, false, nil
		}
		return domain.CacheEntry{}, false, fmt.Errorf("read cache entry: %w", err)
	}

	entry.Source = domain.SourceTag(source)
	entry.TTL = time.Duration(ttlSeconds) * time.Second
	if err := json.Unmarshal(excerptsRaw, &entry.Excerpts); err != nil {
		return domain.CacheEntry{}, false, fmt.Errorf("unmarshal cache excerpts: %w", err)
	}

	if entry.Expired(r.now()) {
		return domain.CacheEntry{}, false, nil
	}
	return entry, true, nil
}

func (r *CacheRepository) Put(ctx context.Context, entry domain.CacheEntry) error {
	excerptsJSON, err := json.Marshal(entry.Excerpts)
	if err != nil {
		return fmt.Errorf("marshal cache excerpts: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO answer_cache (cache_key, answer, source, excerpts, created_at, ttl_seconds)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (cache_key) DO UPDATE SET
	answer = EXCLUDED.answer,
	source = EXCLUDED.source,
	excerpts = EXCLUDED.excerpts,
	created_at = EXCLUDED.created_at,
	ttl_seconds = EXCLUDED.ttl_seconds
`,
		entry.Key, entry.Answer, string(entry.Source), excerptsJSON, entry.CreatedAt, int64(entry.TTL.Seconds()),
	)
	if err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}

	// Sweep rows whose TTL has lapsed while we hold a connection anyway.
	_, err = r.db.ExecContext(ctx, `
DELETE FROM answer_cache
WHERE created_at + make_interval(secs => ttl_seconds) < $1
`, r.now())
	if err != nil {
		return fmt.Errorf("sweep expired cache entries: %w", err)
	}
	return nil
}
