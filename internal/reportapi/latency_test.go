package reportapi

import (
	"math"
	"sync"
	"testing"
)

func TestLatencyTracker_Empty(t *testing.T) {
	p50, p95, p99 := NewLatencyTracker(100).Percentiles()
	if p50 != 0 || p95 != 0 || p99 != 0 {
		t.Errorf("empty tracker: expected (0,0,0), got (%f,%f,%f)", p50, p95, p99)
	}
}

func TestLatencyTracker_Percentiles(t *testing.T) {
	lt := NewLatencyTracker(1000)
	for i := 1; i <= 100; i++ {
		lt.Record(float64(i))
	}
	p50, p95, p99 := lt.Percentiles()
	if math.Abs(p50-50.5) > 1.0 {
		t.Errorf("p50: got %f, expected ~50.5", p50)
	}
	if math.Abs(p95-95.05) > 1.0 {
		t.Errorf("p95: got %f, expected ~95.05", p95)
	}
	if math.Abs(p99-99.01) > 1.0 {
		t.Errorf("p99: got %f, expected ~99.01", p99)
	}
}

func TestLatencyTracker_Wraparound(t *testing.T) {
	lt := NewLatencyTracker(10)
	for i := 1; i <= 20; i++ {
		lt.Record(float64(i))
	}
	if lt.Count() != 10 {
		t.Fatalf("count = %d, want 10", lt.Count())
	}
	p50, _, _ := lt.Percentiles()
	if math.Abs(p50-15.5) > 0.01 {
		t.Errorf("p50 after wrap: got %f, want 15.5", p50)
	}
}

func TestLatencyTracker_Concurrent(t *testing.T) {
	lt := NewLatencyTracker(100)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				lt.Record(1)
				lt.Percentiles()
			}
		}()
	}
	wg.Wait()
	if lt.Count() != 100 {
		t.Errorf("count = %d, want 100", lt.Count())
	}
}
