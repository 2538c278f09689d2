package bcache

import "sync/atomic"

type stats struct {
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
	reads     atomic.Int64
	writes    atomic.Int64
}

// Stats is a snapshot of the cache's counters.
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Reads     int64 `json:"reads"`
	Writes    int64 `json:"writes"`
}

func (c *Cache) Stats() Stats {
	return Stats{
		Hits:      c.stats.hits.Load(),
		Misses:    c.stats.misses.Load(),
		Evictions: c.stats.evictions.Load(),
		Reads:     c.stats.reads.Load(),
		Writes:    c.stats.writes.Load(),
	}
}
