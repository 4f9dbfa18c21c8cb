package fatfs

import (
	"sync"
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
//	type PrometheusCollector struct {
//	    ops *prometheus.CounterVec
//	}
//
//	func (p *PrometheusCollector) RecordOperation(op string, d time.Duration, err error) {
//	    p.ops.WithLabelValues(op, strconv.FormatBool(err == nil)).Inc()
//	}
type MetricsCollector interface {
	// RecordOperation is called after every public operation.
	// err is nil if the operation succeeded.
	RecordOperation(op string, duration time.Duration, err error)

	// RecordBlocks is called when an operation changed the allocation table.
	RecordBlocks(allocated, freed int)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordOperation(string, time.Duration, error) {}
func (NoopMetricsCollector) RecordBlocks(int, int)                        {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	OpCount         atomic.Int64
	OpErrors        atomic.Int64
	OpTotalNanos    atomic.Int64
	BlocksAllocated atomic.Int64
	BlocksFreed     atomic.Int64

	mu    sync.Mutex
	perOp map[string]int64
}

// RecordOperation implements MetricsCollector.
func (b *BasicMetricsCollector) RecordOperation(op string, duration time.Duration, err error) {
	b.OpCount.Add(1)
	b.OpTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.OpErrors.Add(1)
	}

	b.mu.Lock()
	if b.perOp == nil {
		b.perOp = make(map[string]int64)
	}
	b.perOp[op]++
	b.mu.Unlock()
}

// RecordBlocks implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBlocks(allocated, freed int) {
	b.BlocksAllocated.Add(int64(allocated))
	b.BlocksFreed.Add(int64(freed))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	s := BasicMetricsStats{
		OpCount:         b.OpCount.Load(),
		OpErrors:        b.OpErrors.Load(),
		BlocksAllocated: b.BlocksAllocated.Load(),
		BlocksFreed:     b.BlocksFreed.Load(),
		PerOp:           make(map[string]int64),
	}
	if s.OpCount > 0 {
		s.OpAvgNanos = b.OpTotalNanos.Load() / s.OpCount
	}

	b.mu.Lock()
	for op, n := range b.perOp {
		s.PerOp[op] = n
	}
	b.mu.Unlock()

	return s
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	OpCount         int64
	OpErrors        int64
	OpAvgNanos      int64
	BlocksAllocated int64
	BlocksFreed     int64
	PerOp           map[string]int64
}
