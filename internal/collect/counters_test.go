package collect

import (
	"sync"
	"testing"
)

func TestCountersConcurrentIncrement(t *testing.T) {
	var counters Counters
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				counters.addHandled()
				counters.addSkipped()
				counters.addFailed()
			}
		}()
	}
	wg.Wait()

	s := counters.Snapshot()
	if s.Handled != 800 || s.Skipped != 800 || s.Failed != 800 {
		t.Fatalf("unexpected counts: %+v", s)
	}
	if s.Total() != 2400 {
		t.Fatalf("expected total 2400, got %d", s.Total())
	}
}

func TestSnapshotIsPointInTime(t *testing.T) {
	var counters Counters
	counters.addHandled()
	before := counters.Snapshot()
	counters.addHandled()
	if before.Handled != 1 {
		t.Fatalf("snapshot moved with the counter: %+v", before)
	}
	if counters.Snapshot().Handled != 2 {
		t.Fatal("expected second increment to land")
	}
}
