package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	require.NotNil(t, m)

	m.RecordAppend(3, 120, 2)
	m.RecordSegmentCreated("rotate", 2)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestMetrics_Recording(t *testing.T) {
	m := New(nil)

	m.RecordAppend(2, 64, 1)
	m.RecordAppend(1, 32, 2)
	assert.Equal(t, float64(3), testutil.ToFloat64(m.EntriesAppended))
	assert.Equal(t, float64(96), testutil.ToFloat64(m.BytesAppended))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.AppendIndex))

	m.RecordSegmentCreated("truncate", 3)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SegmentsCreated.WithLabelValues("truncate")))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.Segments))

	m.RecordPrune(2, 1, 40)
	assert.Equal(t, float64(2), testutil.ToFloat64(m.SegmentsPruned))
	assert.Equal(t, float64(40), testutil.ToFloat64(m.PrevIndex))

	m.ReaderOpened()
	m.ReaderOpened()
	m.ReaderClosed()
	assert.Equal(t, float64(1), testutil.ToFloat64(m.OpenReaders))

	m.RecordCacheLookup(true)
	m.RecordCacheLookup(false)
	m.RecordCacheLookup(false)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.CacheLookups.WithLabelValues("miss")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordAppend(1, 1, 1)
		m.RecordSegmentCreated("rotate", 1)
		m.RecordPrune(1, 1, 1)
		m.RecordState(1, 1)
		m.RecordDisposed()
		m.ReaderOpened()
		m.ReaderClosed()
		m.RecordCacheLookup(true)
		m.ObserveRecovery(0.1)
	})
}
