package sm

import (
	"math"
	"testing"

	segment "github.com/iamNilotpal/raftlog/internal/core/services/segment/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenEndRangeMap(t *testing.T) {
	v0, v1, v2 := &segment.SegmentFile{}, &segment.SegmentFile{}, &segment.SegmentFile{}
	m := NewOpenEndRangeMap()

	_, _, ok := m.Lookup(0)
	assert.False(t, ok)

	assert.Empty(t, m.ReplaceFrom(0, v0))
	assert.Empty(t, m.ReplaceFrom(10, v1))

	seg, limit, ok := m.Lookup(9)
	require.True(t, ok)
	assert.Same(t, v0, seg)
	assert.Equal(t, int64(10), limit)

	seg, limit, ok = m.Lookup(1000)
	require.True(t, ok)
	assert.Same(t, v1, seg)
	assert.Equal(t, int64(math.MaxInt64), limit)

	_, _, ok = m.Lookup(-1)
	assert.False(t, ok)

	t.Run("replacing below an existing start removes it", func(t *testing.T) {
		removed := m.ReplaceFrom(5, v2)
		require.Len(t, removed, 1)
		assert.Same(t, v1, removed[0])

		_, _, ok := m.RangeOf(v1)
		assert.False(t, ok)

		start, limit, ok := m.RangeOf(v0)
		require.True(t, ok)
		assert.Equal(t, int64(0), start)
		assert.Equal(t, int64(5), limit)
	})

	t.Run("remove before", func(t *testing.T) {
		m.RemoveBefore(5)
		assert.Equal(t, 1, m.Len())

		_, _, ok := m.Lookup(4)
		assert.False(t, ok)

		seg, _, ok := m.Lookup(5)
		require.True(t, ok)
		assert.Same(t, v2, seg)
	})
}
