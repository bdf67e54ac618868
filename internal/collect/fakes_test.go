package collect_test

import (
	"context"
	"sync"
	"time"

	"diana/internal/dixel"
	"diana/internal/keymap"
	"diana/internal/source"
)

// fakeSource is a scriptable source whose call counts the tests assert on.
// Clone returns the same instance so counts aggregate across workers.
type fakeSource struct {
	mu          sync.Mutex
	findResults []map[string]string
	findErr     error
	staged      bool
	payload     []byte
	getErr      error
	getDelay    time.Duration

	findCalls   int
	existsCalls int
	anonCalls   int
	getCalls    int
	deleteCalls int

	inFlight    int
	maxInFlight int
}

func (f *fakeSource) Find(_ context.Context, _ map[string]string, _ bool) ([]map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.findCalls++
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.findResults, nil
}

func (f *fakeSource) Exists(_ context.Context, _ *dixel.Dixel) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.existsCalls++
	return f.staged, nil
}

func (f *fakeSource) Anonymize(_ context.Context, item *dixel.Dixel, _ bool) (*dixel.Dixel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.anonCalls++
	return item, nil
}

func (f *fakeSource) Get(_ context.Context, item *dixel.Dixel, _ dixel.View) (*dixel.Dixel, error) {
	f.mu.Lock()
	f.getCalls++
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	delay, err, payload := f.getDelay, f.getErr, f.payload
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	out := dixel.New(item.Accession())
	out.MergeTags(item.Tags)
	out.File = payload
	return out, nil
}

func (f *fakeSource) Delete(_ context.Context, _ *dixel.Dixel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	return nil
}

func (f *fakeSource) Clone() source.Source { return f }

func (f *fakeSource) calls() (find, exists, anon, get, del int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.findCalls, f.existsCalls, f.anonCalls, f.getCalls, f.deleteCalls
}

// fakeDest is an in-memory destination keyed by the item filename.
type fakeDest struct {
	mu       sync.Mutex
	existing map[string]bool
	puts     int
	putErr   error
}

func newFakeDest(preloaded ...*dixel.Dixel) *fakeDest {
	d := &fakeDest{existing: make(map[string]bool)}
	for _, item := range preloaded {
		d.existing[item.Filename()] = true
	}
	return d
}

func (d *fakeDest) Exists(item *dixel.Dixel) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.existing[item.Filename()]
}

func (d *fakeDest) Put(item *dixel.Dixel) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.putErr != nil {
		return d.putErr
	}
	d.puts++
	d.existing[item.Filename()] = true
	return nil
}

// memorySink collects key rows, optionally failing every Put.
type memorySink struct {
	mu   sync.Mutex
	rows []keymap.Row
	err  error
}

func (s *memorySink) Put(_ context.Context, row keymap.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.rows = append(s.rows, row)
	return nil
}

func (s *memorySink) all() []keymap.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]keymap.Row{}, s.rows...)
}
