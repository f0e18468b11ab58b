package raftlog

import "github.com/iamNilotpal/raftlog/internal/core/domain"

type cachedEntry struct {
	entry domain.Entry
	size  int64
}

// inflightCache keeps the most recently appended entries in memory, bounded
// by entry count and encoded size. Indexes in the cache are consecutive.
// It is guarded by the log's lock.
type inflightCache struct {
	maxEntries int
	maxBytes   int64

	first   int64 // Index of entries[0].
	entries []cachedEntry
	bytes   int64
}

func newInflightCache(maxEntries int, maxBytes int64) *inflightCache {
	return &inflightCache{maxEntries: maxEntries, maxBytes: maxBytes}
}

func (c *inflightCache) enabled() bool {
	return c.maxEntries > 0
}

// put caches the entry at index. A put that does not follow the last cached
// index starts the cache over.
func (c *inflightCache) put(index int64, entry domain.Entry, size int64) {
	if !c.enabled() {
		return
	}

	if len(c.entries) > 0 && index != c.first+int64(len(c.entries)) {
		c.reset()
	}
	if len(c.entries) == 0 {
		c.first = index
	}

	c.entries = append(c.entries, cachedEntry{entry: entry, size: size})
	c.bytes += size

	drop := 0
	for len(c.entries)-drop > c.maxEntries || (c.bytes > c.maxBytes && len(c.entries)-drop > 1) {
		c.bytes -= c.entries[drop].size
		c.entries[drop] = cachedEntry{}
		drop++
	}
	if drop > 0 {
		c.entries = c.entries[drop:]
		c.first += int64(drop)
	}
}

func (c *inflightCache) get(index int64) (domain.Entry, bool) {
	if index < c.first || index >= c.first+int64(len(c.entries)) {
		return domain.Entry{}, false
	}
	return c.entries[index-c.first].entry, true
}

// truncateFrom drops index and everything after it.
func (c *inflightCache) truncateFrom(index int64) {
	if index <= c.first {
		c.reset()
		return
	}
	end := index - c.first
	if end >= int64(len(c.entries)) {
		return
	}

	for i := end; i < int64(len(c.entries)); i++ {
		c.bytes -= c.entries[i].size
		c.entries[i] = cachedEntry{}
	}
	c.entries = c.entries[:end]
}

func (c *inflightCache) reset() {
	c.entries = nil
	c.bytes = 0
}
