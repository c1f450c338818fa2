package conann

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics
// from the calibration and search pipeline. Implement this to integrate
// with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordScoreMatrixBuild is called after each ScoreMatrixBuilder pass.
	RecordScoreMatrixBuild(queries int, duration time.Duration, err error)

	// RecordCalibration is called after each Calibrate call.
	RecordCalibration(duration time.Duration, err error)

	// RecordSearch is called after each adaptive search call.
	RecordSearch(listsProbed int, duration time.Duration, err error)

	// RecordCacheHit is called on a cache read hit.
	RecordCacheHit()

	// RecordCacheMiss is called on a cache read miss.
	RecordCacheMiss()
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordScoreMatrixBuild(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordCalibration(time.Duration, error)          {}
func (NoopMetricsCollector) RecordSearch(int, time.Duration, error)         {}
func (NoopMetricsCollector) RecordCacheHit()                                {}
func (NoopMetricsCollector) RecordCacheMiss()                               {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	ScoreMatrixBuildCount      atomic.Int64
	ScoreMatrixBuildErrors     atomic.Int64
	ScoreMatrixBuildTotalNanos atomic.Int64
	CalibrationCount           atomic.Int64
	CalibrationErrors          atomic.Int64
	CalibrationTotalNanos      atomic.Int64
	SearchCount                atomic.Int64
	SearchErrors               atomic.Int64
	SearchTotalNanos           atomic.Int64
	SearchTotalListsProbed     atomic.Int64
	CacheHits                  atomic.Int64
	CacheMisses                atomic.Int64
}

func (b *BasicMetricsCollector) RecordScoreMatrixBuild(_ int, duration time.Duration, err error) {
	b.ScoreMatrixBuildCount.Add(1)
	b.ScoreMatrixBuildTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ScoreMatrixBuildErrors.Add(1)
	}
}

func (b *BasicMetricsCollector) RecordCalibration(duration time.Duration, err error) {
	b.CalibrationCount.Add(1)
	b.CalibrationTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.CalibrationErrors.Add(1)
	}
}

func (b *BasicMetricsCollector) RecordSearch(listsProbed int, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	b.SearchTotalListsProbed.Add(int64(listsProbed))
	if err != nil {
		b.SearchErrors.Add(1)
	}
}

func (b *BasicMetricsCollector) RecordCacheHit() {
	b.CacheHits.Add(1)
}

func (b *BasicMetricsCollector) RecordCacheMiss() {
	b.CacheMisses.Add(1)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	searchCount := b.SearchCount.Load()
	var avgProbes float64
	if searchCount > 0 {
		avgProbes = float64(b.SearchTotalListsProbed.Load()) / float64(searchCount)
	}
	return BasicMetricsStats{
		ScoreMatrixBuildCount:  b.ScoreMatrixBuildCount.Load(),
		ScoreMatrixBuildErrors: b.ScoreMatrixBuildErrors.Load(),
		CalibrationCount:       b.CalibrationCount.Load(),
		CalibrationErrors:      b.CalibrationErrors.Load(),
		SearchCount:            searchCount,
		SearchErrors:           b.SearchErrors.Load(),
		SearchAvgListsProbed:   avgProbes,
		CacheHits:              b.CacheHits.Load(),
		CacheMisses:            b.CacheMisses.Load(),
	}
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	ScoreMatrixBuildCount  int64
	ScoreMatrixBuildErrors int64
	CalibrationCount       int64
	CalibrationErrors      int64
	SearchCount            int64
	SearchErrors           int64
	SearchAvgListsProbed   float64
	CacheHits              int64
	CacheMisses            int64
}
