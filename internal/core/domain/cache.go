package domain

import "time"

// CacheEntry is a memoized answer. Entries are owned by the cache component
// and expire lazily: an expired entry reads as a miss and is only removed on
// the next Put to the same key.
type CacheEntry struct {
	Key       string        `json:"key"`
	Answer    string        `json:"answer"`
	Source    SourceTag     `json:"source"`
	Excerpts  []string      `json:"excerpts"`
	CreatedAt time.Time     `json:"created_at"`
	TTL       time.Duration `json:"ttl"`
}

func (e CacheEntry) Expired(now time.Time) bool {
	return now.After(e.CreatedAt.Add(e.TTL))
}
