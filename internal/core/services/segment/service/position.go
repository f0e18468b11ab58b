package segment

import (
	"sort"
	"sync"
)

const maxPositions = 1024

type position struct {
	index  int64
	offset int64
}

// positionCache remembers the byte offset of every stride-th record of a
// segment so readers can seek close to their start index. The first entry
// is always the header boundary.
type positionCache struct {
	mu        sync.Mutex
	start     int64
	stride    int64
	positions []position
}

func newPositionCache(start, headerEnd int64, stride int) *positionCache {
	if stride < 1 {
		stride = 1
	}
	return &positionCache{
		start:     start,
		stride:    int64(stride),
		positions: []position{{index: start, offset: headerEnd}},
	}
}

// wants reports whether index falls on a checkpoint.
func (p *positionCache) wants(index int64) bool {
	return index > p.start && (index-p.start)%p.stride == 0
}

func (p *positionCache) put(index, offset int64) {
	if !p.wants(index) {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	i := sort.Search(len(p.positions), func(i int) bool { return p.positions[i].index >= index })
	if i < len(p.positions) && p.positions[i].index == index {
		return
	}

	p.positions = append(p.positions, position{})
	copy(p.positions[i+1:], p.positions[i:])
	p.positions[i] = position{index: index, offset: offset}

	if len(p.positions) > maxPositions {
		p.thin()
	}
}

// lookup returns the closest checkpoint at or before index.
func (p *positionCache) lookup(index int64) position {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := sort.Search(len(p.positions), func(i int) bool { return p.positions[i].index > index })
	if i == 0 {
		return p.positions[0]
	}
	return p.positions[i-1]
}

// thin drops every other checkpoint, keeping the header boundary.
func (p *positionCache) thin() {
	kept := p.positions[:1]
	for i := 2; i < len(p.positions); i += 2 {
		kept = append(kept, p.positions[i])
	}
	p.positions = kept
}
