package ipxdb

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting build metrics.
// Implement this interface to integrate with monitoring systems.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    buildCounter  prometheus.Counter
//	    buildDuration prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordBuild(dataBlocks, indexBlocks int, duration time.Duration, err error) {
//	    p.buildCounter.Inc()
//	    p.buildDuration.Observe(duration.Seconds())
//	}
type MetricsCollector interface {
	// RecordLoad is called after the segment loading step.
	// count is the number of segments loaded, err is nil on success.
	RecordLoad(count int, duration time.Duration, err error)

	// RecordBuild is called after each build run.
	// dataBlocks and indexBlocks are the written block counts.
	RecordBuild(dataBlocks, indexBlocks int, duration time.Duration, err error)

	// RecordVerify is called after each verification pass.
	RecordVerify(duration time.Duration, err error)

	// RecordPublish is called after each publish attempt.
	RecordPublish(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordLoad(int, time.Duration, error)       {}
func (NoopMetricsCollector) RecordBuild(int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordVerify(time.Duration, error)          {}
func (NoopMetricsCollector) RecordPublish(time.Duration, error)         {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	LoadCount        atomic.Int64
	LoadErrors       atomic.Int64
	LoadSegments     atomic.Int64
	BuildCount       atomic.Int64
	BuildErrors      atomic.Int64
	BuildTotalNanos  atomic.Int64
	BuildDataBlocks  atomic.Int64
	BuildIndexBlocks atomic.Int64
	VerifyCount      atomic.Int64
	VerifyErrors     atomic.Int64
	PublishCount     atomic.Int64
	PublishErrors    atomic.Int64
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(count int, _ time.Duration, err error) {
	b.LoadCount.Add(1)
	b.LoadSegments.Add(int64(count))
	if err != nil {
		b.LoadErrors.Add(1)
	}
}

// RecordBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBuild(dataBlocks, indexBlocks int, duration time.Duration, err error) {
	b.BuildCount.Add(1)
	b.BuildTotalNanos.Add(duration.Nanoseconds())
	b.BuildDataBlocks.Add(int64(dataBlocks))
	b.BuildIndexBlocks.Add(int64(indexBlocks))
	if err != nil {
		b.BuildErrors.Add(1)
	}
}

// RecordVerify implements MetricsCollector.
func (b *BasicMetricsCollector) RecordVerify(_ time.Duration, err error) {
	b.VerifyCount.Add(1)
	if err != nil {
		b.VerifyErrors.Add(1)
	}
}

// RecordPublish implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPublish(_ time.Duration, err error) {
	b.PublishCount.Add(1)
	if err != nil {
		b.PublishErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		LoadCount:        b.LoadCount.Load(),
		LoadErrors:       b.LoadErrors.Load(),
		LoadSegments:     b.LoadSegments.Load(),
		BuildCount:       b.BuildCount.Load(),
		BuildErrors:      b.BuildErrors.Load(),
		BuildAvgNanos:    b.avgBuildNanos(),
		BuildDataBlocks:  b.BuildDataBlocks.Load(),
		BuildIndexBlocks: b.BuildIndexBlocks.Load(),
		VerifyCount:      b.VerifyCount.Load(),
		VerifyErrors:     b.VerifyErrors.Load(),
		PublishCount:     b.PublishCount.Load(),
		PublishErrors:    b.PublishErrors.Load(),
	}
}

func (b *BasicMetricsCollector) avgBuildNanos() int64 {
	count := b.BuildCount.Load()
	if count == 0 {
		return 0
	}
	return b.BuildTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	LoadCount        int64
	LoadErrors       int64
	LoadSegments     int64
	BuildCount       int64
	BuildErrors      int64
	BuildAvgNanos    int64
	BuildDataBlocks  int64
	BuildIndexBlocks int64
	VerifyCount      int64
	VerifyErrors     int64
	PublishCount     int64
	PublishErrors    int64
}
