// Package metrics exposes Prometheus instrumentation for the segmented log.
//
// All recording methods are safe to call on a nil *Metrics, so components
// record unconditionally and callers opt in by passing a non-nil value.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "raftlog"

// Metrics contains all log-level metrics.
type Metrics struct {
	// EntriesAppended counts entries written by Append.
	EntriesAppended prometheus.Counter

	// BytesAppended counts record bytes written, headers and checksums included.
	BytesAppended prometheus.Counter

	// SegmentsCreated counts new segment files by cause: rotate, truncate, skip, recovery.
	SegmentsCreated *prometheus.CounterVec

	// SegmentsPruned counts segment files removed by Prune.
	SegmentsPruned prometheus.Counter

	// SegmentsDisposed counts segments whose writer and readers were all released.
	SegmentsDisposed prometheus.Counter

	// Segments is the number of segment files currently known to the log.
	Segments prometheus.Gauge

	// OpenReaders is the number of read handles open across all segments.
	OpenReaders prometheus.Gauge

	// AppendIndex and PrevIndex mirror the log's state.
	AppendIndex prometheus.Gauge
	PrevIndex   prometheus.Gauge

	// CacheLookups counts in-flight cache lookups by result: hit or miss.
	CacheLookups *prometheus.CounterVec

	// RecoveryDuration observes how long startup recovery took.
	RecoveryDuration prometheus.Histogram
}

// New creates the metrics and registers them with reg. A nil reg creates
// unregistered metrics, which is convenient in tests.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EntriesAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_appended_total",
			Help:      "Total number of entries appended to the log.",
		}),
		BytesAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_appended_total",
			Help:      "Total number of record bytes written to segment files.",
		}),
		SegmentsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_created_total",
			Help:      "Total number of segment files created, by cause.",
		}, []string{"cause"}),
		SegmentsPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_pruned_total",
			Help:      "Total number of segment files removed by pruning.",
		}),
		SegmentsDisposed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_disposed_total",
			Help:      "Total number of segments fully released after being superseded.",
		}),
		Segments: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "segments",
			Help:      "Number of segment files known to the log.",
		}),
		OpenReaders: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_readers",
			Help:      "Number of open segment read handles.",
		}),
		AppendIndex: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "append_index",
			Help:      "Index of the last appended entry.",
		}),
		PrevIndex: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "prev_index",
			Help:      "Index preceding the first retained entry.",
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "In-flight cache lookups, by result.",
		}, []string{"result"}),
		RecoveryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recovery_duration_seconds",
			Help:      "Time spent recovering the log at startup.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.EntriesAppended,
			m.BytesAppended,
			m.SegmentsCreated,
			m.SegmentsPruned,
			m.SegmentsDisposed,
			m.Segments,
			m.OpenReaders,
			m.AppendIndex,
			m.PrevIndex,
			m.CacheLookups,
			m.RecoveryDuration,
		)
	}

	return m
}

// RecordAppend records a batch of appended entries.
func (m *Metrics) RecordAppend(entries int, bytes int64, appendIndex int64) {
	if m == nil {
		return
	}
	m.EntriesAppended.Add(float64(entries))
	m.BytesAppended.Add(float64(bytes))
	m.AppendIndex.Set(float64(appendIndex))
}

// RecordSegmentCreated records a new segment file.
func (m *Metrics) RecordSegmentCreated(cause string, total int) {
	if m == nil {
		return
	}
	m.SegmentsCreated.WithLabelValues(cause).Inc()
	m.Segments.Set(float64(total))
}

// RecordSegments sets the number of known segment files.
func (m *Metrics) RecordSegments(total int) {
	if m == nil {
		return
	}
	m.Segments.Set(float64(total))
}

// RecordPrune records segments removed by pruning and the new prefix.
func (m *Metrics) RecordPrune(pruned int, total int, prevIndex int64) {
	if m == nil {
		return
	}
	m.SegmentsPruned.Add(float64(pruned))
	m.Segments.Set(float64(total))
	m.PrevIndex.Set(float64(prevIndex))
}

// RecordState mirrors the log's indexes.
func (m *Metrics) RecordState(appendIndex, prevIndex int64) {
	if m == nil {
		return
	}
	m.AppendIndex.Set(float64(appendIndex))
	m.PrevIndex.Set(float64(prevIndex))
}

// RecordDisposed records a fully released segment.
func (m *Metrics) RecordDisposed() {
	if m == nil {
		return
	}
	m.SegmentsDisposed.Inc()
}

// ReaderOpened and ReaderClosed track open read handles.
func (m *Metrics) ReaderOpened() {
	if m == nil {
		return
	}
	m.OpenReaders.Inc()
}

func (m *Metrics) ReaderClosed() {
	if m == nil {
		return
	}
	m.OpenReaders.Dec()
}

// RecordCacheLookup records an in-flight cache hit or miss.
func (m *Metrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.CacheLookups.WithLabelValues("miss").Inc()
}

// ObserveRecovery records the duration of a recovery run in seconds.
func (m *Metrics) ObserveRecovery(seconds float64) {
	if m == nil {
		return
	}
	m.RecoveryDuration.Observe(seconds)
}
