package infrastructure

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// RuntimeMetrics records Go runtime health through the OTel meter so the
// Prometheus endpoint exposes process vitals alongside conversion metrics.
type RuntimeMetrics struct {
	goroutines metric.Int64Gauge
	heapAlloc  metric.Int64Gauge
	memSys     metric.Int64Gauge
	gcCount    metric.Int64Counter
	gcPause    metric.Float64Histogram
	uptime     metric.Float64Gauge

	mu        sync.Mutex
	lastNumGC uint32
}

// RuntimeStats is one snapshot of the collected runtime figures.
type RuntimeStats struct {
	Goroutines  int
	HeapAlloc   uint64
	MemSys      uint64
	GCCount     uint32
	LastGCPause time.Duration
	CPUCount    int
	Uptime      time.Duration
	Timestamp   time.Time
}

// NewRuntimeMetrics registers the runtime instruments on meter.
func NewRuntimeMetrics(meter metric.Meter) (*RuntimeMetrics, error) {
	goroutines, err := meter.Int64Gauge(
		"runtime_goroutines",
		metric.WithDescription("Number of active goroutines"),
	)
	if err != nil {
		return nil, err
	}

	heapAlloc, err := meter.Int64Gauge(
		"runtime_heap_alloc_bytes",
		metric.WithDescription("Bytes of allocated heap objects"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	memSys, err := meter.Int64Gauge(
		"runtime_memory_sys_bytes",
		metric.WithDescription("Bytes of memory obtained from the OS"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	gcCount, err := meter.Int64Counter(
		"runtime_gc_total",
		metric.WithDescription("Completed garbage collection cycles"),
	)
	if err != nil {
		return nil, err
	}

	gcPause, err := meter.Float64Histogram(
		"runtime_gc_pause_seconds",
		metric.WithDescription("Recent garbage collection pause durations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	uptime, err := meter.Float64Gauge(
		"runtime_uptime_seconds",
		metric.WithDescription("Process uptime"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &RuntimeMetrics{
		goroutines: goroutines,
		heapAlloc:  heapAlloc,
		memSys:     memSys,
		gcCount:    gcCount,
		gcPause:    gcPause,
		uptime:     uptime,
	}, nil
}

// Collect reads the runtime state, records it on the instruments and
// returns the snapshot. The GC counter receives only the cycles completed
// since the previous Collect call.
func (rm *RuntimeMetrics) Collect(ctx context.Context, startTime time.Time) *RuntimeStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	stats := &RuntimeStats{
		Goroutines:  runtime.NumGoroutine(),
		HeapAlloc:   mem.Alloc,
		MemSys:      mem.Sys,
		GCCount:     mem.NumGC,
		LastGCPause: time.Duration(mem.PauseNs[(mem.NumGC+255)%256]),
		CPUCount:    runtime.NumCPU(),
		Uptime:      time.Since(startTime),
		Timestamp:   time.Now(),
	}

	rm.goroutines.Record(ctx, int64(stats.Goroutines))
	rm.heapAlloc.Record(ctx, int64(stats.HeapAlloc))
	rm.memSys.Record(ctx, int64(stats.MemSys))
	rm.uptime.Record(ctx, stats.Uptime.Seconds())

	rm.mu.Lock()
	delta := stats.GCCount - rm.lastNumGC
	rm.lastNumGC = stats.GCCount
	rm.mu.Unlock()

	if delta > 0 {
		rm.gcCount.Add(ctx, int64(delta))
		rm.gcPause.Record(ctx, stats.LastGCPause.Seconds())
	}

	return stats
}

// RuntimeCollector samples RuntimeMetrics on a fixed interval.
type RuntimeCollector struct {
	metrics   *RuntimeMetrics
	startTime time.Time
	interval  time.Duration
	stopCh    chan struct{}
	stopOnce  sync.Once
}

// NewRuntimeCollector builds a collector over meter. A non-positive
// interval falls back to 30 seconds.
func NewRuntimeCollector(meter metric.Meter, interval time.Duration) (*RuntimeCollector, error) {
	metrics, err := NewRuntimeMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create runtime metrics: %w", err)
	}

	if interval <= 0 {
		interval = 30 * time.Second
	}

	return &RuntimeCollector{
		metrics:   metrics,
		startTime: time.Now(),
		interval:  interval,
		stopCh:    make(chan struct{}),
	}, nil
}

// Start collects once immediately and then on every interval tick until
// Stop is called or ctx is cancelled. Run it on its own goroutine.
func (rc *RuntimeCollector) Start(ctx context.Context) {
	ticker := time.NewTicker(rc.interval)
	defer ticker.Stop()

	rc.metrics.Collect(ctx, rc.startTime)

	for {
		select {
		case <-ticker.C:
			rc.metrics.Collect(ctx, rc.startTime)
		case <-rc.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop ends periodic collection. Safe to call more than once.
func (rc *RuntimeCollector) Stop() {
	rc.stopOnce.Do(func() {
		close(rc.stopCh)
	})
}

// Current records and returns a fresh snapshot.
func (rc *RuntimeCollector) Current(ctx context.Context) *RuntimeStats {
	return rc.metrics.Collect(ctx, rc.startTime)
}
