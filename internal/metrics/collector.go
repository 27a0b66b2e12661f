package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Collector provides simple built-in metrics collection with no external dependencies
type Collector struct {
	patchMetrics      *PatchMetrics
	operationCounters map[string]*int64
	mu                sync.RWMutex
	startTime         time.Time
}

// PatchMetrics tracks engine-level activity
type PatchMetrics struct {
	// Patch calls
	PatchesApplied  int64 `json:"patches_applied"`
	RegistriesBuilt int64 `json:"registries_built"`
	Invalidations   int64 `json:"invalidations"`

	// Scalar writes
	ScalarWrites int64 `json:"scalar_writes"`

	// List reconciliation
	ItemsCreated  int64 `json:"items_created"`
	ItemsMoved    int64 `json:"items_moved"`
	ItemsRemoved  int64 `json:"items_removed"`
	ItemsPatched  int64 `json:"items_patched"`
	MaxListLength int64 `json:"max_list_length"`

	// Stream coalescing
	StreamUpdates int64 `json:"stream_updates"`
	StreamFlushes int64 `json:"stream_flushes"`

	// Problems
	Warnings   int64 `json:"warnings"`
	HardErrors int64 `json:"hard_errors"`

	// Derived rates
	CoalescingRatio float64 `json:"coalescing_ratio"`
	ErrorRate       float64 `json:"error_rate"`

	// Named counters, such as feed frames
	Counters map[string]int64 `json:"counters,omitempty"`

	// Uptime
	StartTime time.Time     `json:"start_time"`
	Uptime    time.Duration `json:"uptime"`
}

// NewCollector creates a new metrics collector
func NewCollector() *Collector {
	return &Collector{
		patchMetrics: &PatchMetrics{
			StartTime: time.Now(),
		},
		operationCounters: make(map[string]*int64),
		startTime:         time.Now(),
	}
}

// IncrementPatchApplied records a completed patch call
func (c *Collector) IncrementPatchApplied() {
	atomic.AddInt64(&c.patchMetrics.PatchesApplied, 1)
}

// IncrementRegistryBuilt records a registry (re)build
func (c *Collector) IncrementRegistryBuilt() {
	atomic.AddInt64(&c.patchMetrics.RegistriesBuilt, 1)
}

// IncrementInvalidation records an explicit invalidation
func (c *Collector) IncrementInvalidation() {
	atomic.AddInt64(&c.patchMetrics.Invalidations, 1)
}

// AddScalarWrites records scalar target writes
func (c *Collector) AddScalarWrites(n int64) {
	atomic.AddInt64(&c.patchMetrics.ScalarWrites, n)
}

// RecordReconcile records the outcome of one list reconciliation
func (c *Collector) RecordReconcile(length, created, moved, removed int64) {
	atomic.AddInt64(&c.patchMetrics.ItemsCreated, created)
	atomic.AddInt64(&c.patchMetrics.ItemsMoved, moved)
	atomic.AddInt64(&c.patchMetrics.ItemsRemoved, removed)
	atomic.AddInt64(&c.patchMetrics.ItemsPatched, length)

	// Update max list length if needed
	for {
		max := atomic.LoadInt64(&c.patchMetrics.MaxListLength)
		if length <= max {
			break
		}
		if atomic.CompareAndSwapInt64(&c.patchMetrics.MaxListLength, max, length) {
			break
		}
	}
}

// IncrementStreamUpdate records a call to a stream updater
func (c *Collector) IncrementStreamUpdate() {
	atomic.AddInt64(&c.patchMetrics.StreamUpdates, 1)
}

// IncrementStreamFlush records a deferred flush actually running
func (c *Collector) IncrementStreamFlush() {
	atomic.AddInt64(&c.patchMetrics.StreamFlushes, 1)
}

// IncrementWarning records a soft warning
func (c *Collector) IncrementWarning() {
	atomic.AddInt64(&c.patchMetrics.Warnings, 1)
}

// IncrementHardError records a hard error
func (c *Collector) IncrementHardError() {
	atomic.AddInt64(&c.patchMetrics.HardErrors, 1)
}

// IncrementCustomCounter increments a custom named counter
func (c *Collector) IncrementCustomCounter(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if counter, exists := c.operationCounters[name]; exists {
		atomic.AddInt64(counter, 1)
	} else {
		var newCounter int64 = 1
		c.operationCounters[name] = &newCounter
	}
}

// GetMetrics returns current patch metrics
func (c *Collector) GetMetrics() PatchMetrics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	counters := make(map[string]int64, len(c.operationCounters))
	for name, counter := range c.operationCounters {
		counters[name] = atomic.LoadInt64(counter)
	}

	// Return a copy with current atomic values
	return PatchMetrics{
		PatchesApplied:  atomic.LoadInt64(&c.patchMetrics.PatchesApplied),
		RegistriesBuilt: atomic.LoadInt64(&c.patchMetrics.RegistriesBuilt),
		Invalidations:   atomic.LoadInt64(&c.patchMetrics.Invalidations),
		ScalarWrites:    atomic.LoadInt64(&c.patchMetrics.ScalarWrites),
		ItemsCreated:    atomic.LoadInt64(&c.patchMetrics.ItemsCreated),
		ItemsMoved:      atomic.LoadInt64(&c.patchMetrics.ItemsMoved),
		ItemsRemoved:    atomic.LoadInt64(&c.patchMetrics.ItemsRemoved),
		ItemsPatched:    atomic.LoadInt64(&c.patchMetrics.ItemsPatched),
		MaxListLength:   atomic.LoadInt64(&c.patchMetrics.MaxListLength),
		StreamUpdates:   atomic.LoadInt64(&c.patchMetrics.StreamUpdates),
		StreamFlushes:   atomic.LoadInt64(&c.patchMetrics.StreamFlushes),
		Warnings:        atomic.LoadInt64(&c.patchMetrics.Warnings),
		HardErrors:      atomic.LoadInt64(&c.patchMetrics.HardErrors),
		CoalescingRatio: c.GetCoalescingRatio(),
		ErrorRate:       c.GetErrorRate(),
		Counters:        counters,
		StartTime:       c.patchMetrics.StartTime,
		Uptime:          time.Since(c.startTime),
	}
}

// GetCustomCounters returns all custom counters
func (c *Collector) GetCustomCounters() map[string]int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[string]int64)
	for name, counter := range c.operationCounters {
		result[name] = atomic.LoadInt64(counter)
	}
	return result
}

// Reset resets all metrics to zero
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Reset patch metrics
	for _, counter := range []*int64{
		&c.patchMetrics.PatchesApplied,
		&c.patchMetrics.RegistriesBuilt,
		&c.patchMetrics.Invalidations,
		&c.patchMetrics.ScalarWrites,
		&c.patchMetrics.ItemsCreated,
		&c.patchMetrics.ItemsMoved,
		&c.patchMetrics.ItemsRemoved,
		&c.patchMetrics.ItemsPatched,
		&c.patchMetrics.MaxListLength,
		&c.patchMetrics.StreamUpdates,
		&c.patchMetrics.StreamFlushes,
		&c.patchMetrics.Warnings,
		&c.patchMetrics.HardErrors,
	} {
		atomic.StoreInt64(counter, 0)
	}

	// Reset custom counters
	c.operationCounters = make(map[string]*int64)

	// Reset start time
	c.startTime = time.Now()
	c.patchMetrics.StartTime = c.startTime
}

// GetCoalescingRatio returns how many stream updates were folded into each flush
func (c *Collector) GetCoalescingRatio() float64 {
	updates := atomic.LoadInt64(&c.patchMetrics.StreamUpdates)
	flushes := atomic.LoadInt64(&c.patchMetrics.StreamFlushes)

	if flushes == 0 {
		return 0.0
	}

	return float64(updates) / float64(flushes)
}

// GetErrorRate returns hard errors as a percentage of patch attempts
func (c *Collector) GetErrorRate() float64 {
	applied := atomic.LoadInt64(&c.patchMetrics.PatchesApplied)
	errors := atomic.LoadInt64(&c.patchMetrics.HardErrors)

	if applied+errors == 0 {
		return 0.0
	}

	return float64(errors) / float64(applied+errors) * 100.0
}
