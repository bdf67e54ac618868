package collect

import "sync/atomic"

// Counters tracks terminal item outcomes for one collector run. The three
// values are monotonically increasing and safe for concurrent increment;
// exactly one of them moves per item that reaches a terminal state.
type Counters struct {
	handled atomic.Int64
	skipped atomic.Int64
	failed  atomic.Int64
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Handled int64
	Skipped int64
	Failed  int64
}

func (c *Counters) addHandled() { c.handled.Add(1) }
func (c *Counters) addSkipped() { c.skipped.Add(1) }
func (c *Counters) addFailed()  { c.failed.Add(1) }

// Snapshot returns the current counter values.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		Handled: c.handled.Load(),
		Skipped: c.skipped.Load(),
		Failed:  c.failed.Load(),
	}
}

// Total returns how many items have reached a terminal state.
func (s Snapshot) Total() int64 {
	return s.Handled + s.Skipped + s.Failed
}
