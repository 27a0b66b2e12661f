package metrics

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"
)

func TestNewCollector(t *testing.T) {
	collector := NewCollector()

	if collector == nil {
		t.Fatal("NewCollector() returned nil")
	}

	if collector.patchMetrics == nil {
		t.Fatal("patchMetrics not initialized")
	}

	if collector.operationCounters == nil {
		t.Fatal("operationCounters not initialized")
	}

	metrics := collector.GetMetrics()
	if metrics.PatchesApplied != 0 {
		t.Errorf("Expected no patches, got %d", metrics.PatchesApplied)
	}

	if collector.GetCoalescingRatio() != 0.0 {
		t.Errorf("Expected coalescing ratio 0 without flushes, got %f", collector.GetCoalescingRatio())
	}
}

func TestReconcileMetrics(t *testing.T) {
	collector := NewCollector()

	collector.RecordReconcile(3, 3, 0, 0)
	collector.RecordReconcile(5, 2, 1, 0)
	collector.RecordReconcile(2, 0, 1, 3)

	metrics := collector.GetMetrics()

	if metrics.ItemsCreated != 5 {
		t.Errorf("Expected 5 items created, got %d", metrics.ItemsCreated)
	}

	if metrics.ItemsMoved != 2 {
		t.Errorf("Expected 2 items moved, got %d", metrics.ItemsMoved)
	}

	if metrics.ItemsRemoved != 3 {
		t.Errorf("Expected 3 items removed, got %d", metrics.ItemsRemoved)
	}

	if metrics.ItemsPatched != 10 {
		t.Errorf("Expected 10 items patched, got %d", metrics.ItemsPatched)
	}

	// Max list length should remain the largest seen
	if metrics.MaxListLength != 5 {
		t.Errorf("Expected max list length 5, got %d", metrics.MaxListLength)
	}
}

func TestStreamMetrics(t *testing.T) {
	collector := NewCollector()

	for i := 0; i < 6; i++ {
		collector.IncrementStreamUpdate()
	}
	collector.IncrementStreamFlush()
	collector.IncrementStreamFlush()

	if ratio := collector.GetCoalescingRatio(); ratio != 3.0 {
		t.Errorf("Expected coalescing ratio 3.0, got %.1f", ratio)
	}
}

func TestErrorRate(t *testing.T) {
	collector := NewCollector()

	if collector.GetErrorRate() != 0.0 {
		t.Error("Expected error rate 0 without activity")
	}

	collector.IncrementPatchApplied()
	collector.IncrementPatchApplied()
	collector.IncrementPatchApplied()
	collector.IncrementHardError()

	if rate := collector.GetErrorRate(); rate != 25.0 {
		t.Errorf("Expected error rate 25%%, got %.1f%%", rate)
	}
}

func TestCustomCounters(t *testing.T) {
	collector := NewCollector()

	collector.IncrementCustomCounter("sse_frames")
	collector.IncrementCustomCounter("sse_frames")
	collector.IncrementCustomCounter("ws_frames")

	counters := collector.GetCustomCounters()
	if counters["sse_frames"] != 2 || counters["ws_frames"] != 1 {
		t.Errorf("Unexpected custom counters: %v", counters)
	}

	snapshot := collector.GetMetrics().Counters
	if snapshot["sse_frames"] != 2 {
		t.Errorf("Expected counters in snapshot, got %v", snapshot)
	}

	// The snapshot is a copy.
	snapshot["sse_frames"] = 99
	if collector.GetCustomCounters()["sse_frames"] != 2 {
		t.Error("Snapshot counters must not alias the collector")
	}
}

func TestDerivedRates(t *testing.T) {
	collector := NewCollector()

	for i := 0; i < 6; i++ {
		collector.IncrementStreamUpdate()
	}
	collector.IncrementStreamFlush()
	collector.IncrementStreamFlush()

	for i := 0; i < 3; i++ {
		collector.IncrementPatchApplied()
	}
	collector.IncrementHardError()

	metrics := collector.GetMetrics()
	if metrics.CoalescingRatio != 3.0 {
		t.Errorf("Expected coalescing ratio 3, got %f", metrics.CoalescingRatio)
	}
	if metrics.ErrorRate != 25.0 {
		t.Errorf("Expected error rate 25, got %f", metrics.ErrorRate)
	}
}

func TestReset(t *testing.T) {
	collector := NewCollector()

	collector.IncrementPatchApplied()
	collector.AddScalarWrites(4)
	collector.IncrementCustomCounter("x")
	collector.Reset()

	metrics := collector.GetMetrics()
	if metrics.PatchesApplied != 0 || metrics.ScalarWrites != 0 {
		t.Errorf("Expected counters reset, got %+v", metrics)
	}
	if len(collector.GetCustomCounters()) != 0 {
		t.Error("Expected custom counters reset")
	}
}

func TestConcurrentIncrements(t *testing.T) {
	collector := NewCollector()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			collector.IncrementStreamUpdate()
			collector.IncrementCustomCounter("shared")
		}()
	}
	wg.Wait()

	if got := collector.GetMetrics().StreamUpdates; got != 50 {
		t.Errorf("Expected 50 stream updates, got %d", got)
	}
	if got := collector.GetCustomCounters()["shared"]; got != 50 {
		t.Errorf("Expected shared counter 50, got %d", got)
	}
}

func TestMetricsJSON(t *testing.T) {
	collector := NewCollector()
	collector.IncrementRegistryBuilt()

	data, err := json.Marshal(collector.GetMetrics())
	if err != nil {
		t.Fatalf("Failed to marshal metrics: %v", err)
	}

	if !strings.Contains(string(data), `"registries_built":1`) {
		t.Errorf("Expected registries_built in JSON, got %s", data)
	}
	if !strings.Contains(string(data), `"coalescing_ratio":0`) {
		t.Errorf("Expected coalescing_ratio in JSON, got %s", data)
	}
	if strings.Contains(string(data), `"counters"`) {
		t.Errorf("Expected empty counters to be omitted, got %s", data)
	}
}
