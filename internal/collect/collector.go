package collect

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"diana/internal/config"
	"diana/internal/dixel"
	"diana/internal/keymap"
	"diana/internal/ledger"
	"diana/internal/logging"
	"diana/internal/source"
	"diana/internal/store"
)

// lockFilename is the run lock under the data directory. One collector run
// per destination tree at a time.
const lockFilename = ".diana.lock"

// Summary reports the aggregate outcome of one collector run.
type Summary struct {
	Handled int64
	Skipped int64
	Failed  int64
	// Elapsed is wall-clock run time, floored at one second so the rate is
	// always defined.
	Elapsed time.Duration
	// Rate is handled items per elapsed second.
	Rate float64
}

// Option overrides a collaborator the collector would otherwise derive from
// configuration.
type Option func(*Collector)

// WithDestination substitutes the payload destination store.
func WithDestination(d store.Destination) Option {
	return func(c *Collector) { c.destination = d }
}

// WithReportDestination substitutes the report store.
func WithReportDestination(d store.Destination) Option {
	return func(c *Collector) { c.reportDest = d }
}

// WithKeySink substitutes the key sink. An injected sink is used as-is in
// both serial and pooled mode; the caller owns its lifecycle.
func WithKeySink(s keymap.Sink) Option {
	return func(c *Collector) { c.keys = s }
}

// WithLedger substitutes the retry ledger. The caller owns its lifecycle.
func WithLedger(l *ledger.Ledger) Option {
	return func(c *Collector) { c.retries = l }
}

// Collector fans a worklist out across a bounded worker pool and aggregates
// terminal outcomes.
type Collector struct {
	cfg    *config.Config
	logger *slog.Logger

	destination store.Destination
	reportDest  store.Destination
	keys        keymap.Sink
	retries     *ledger.Ledger
}

// New constructs a collector from configuration. Options exist for callers
// that need to substitute collaborators.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Collector {
	c := &Collector{
		cfg:    cfg,
		logger: logging.WithComponent(logger, "collector"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run consumes the worklist to exhaustion and returns the final tally. A
// returned error means the run aborted on an unanticipated fault; the summary
// still reflects the items that reached a terminal state before the abort.
func (c *Collector) Run(ctx context.Context, worklist Worklist, src source.Source) (Summary, error) {
	start := time.Now()

	if err := c.cfg.EnsureDirectories(); err != nil {
		return Summary{}, err
	}

	lock := flock.New(filepath.Join(c.cfg.Paths.DataDir, lockFilename))
	locked, err := lock.TryLock()
	if err != nil {
		return Summary{}, fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return Summary{}, fmt.Errorf("another collector run holds %s", lock.Path())
	}
	defer lock.Unlock()

	destination := c.destination
	if destination == nil {
		if c.cfg.Collector.SaveAsImages {
			destination = store.NewImageDir(c.cfg.ImagesDir(), c.cfg.Collector.Anonymize, c.logger)
		} else {
			destination = store.NewDcmDir(c.cfg.ImagesDir(), c.logger)
		}
	}

	reportDest := c.reportDest
	if reportDest == nil && !c.cfg.Collector.InlineReports {
		reportDest = store.NewReportDir(c.cfg.ReportsDir(), c.cfg.Collector.Anonymize, c.logger)
	}

	keys := c.keys
	if keys == nil {
		name := fmt.Sprintf("key-%s.csv", start.Format("2006-01-02"))
		csvMap, err := keymap.OpenCSVMap(filepath.Join(c.cfg.MetaDir(), name), keymap.Columns)
		if err != nil {
			return Summary{}, err
		}
		keys = csvMap
	}

	retries := c.retries
	if retries == nil && c.cfg.Collector.RetryLedger {
		opened, err := ledger.Open(c.cfg)
		if err != nil {
			return Summary{}, err
		}
		defer opened.Close()
		retries = opened
	}

	counters := &Counters{}
	deps := Deps{
		Source:            src,
		Destination:       destination,
		ReportDestination: reportDest,
		Keys:              keys,
		Ledger:            retries,
		Counters:          counters,
		Logger:            c.logger,
		Anonymize:         c.cfg.Collector.Anonymize,
		ImageDerived:      c.cfg.Collector.SaveAsImages,
	}

	var runErr error
	if c.cfg.Collector.PoolSize <= 0 {
		runErr = c.runSerial(ctx, worklist, deps)
	} else {
		runErr = c.runPooled(ctx, worklist, deps)
	}

	return c.summarize(start, counters, runErr)
}

func (c *Collector) runSerial(ctx context.Context, worklist Worklist, deps Deps) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		accession, ok := worklist.Next()
		if !ok {
			return nil
		}
		if err := Handle(ctx, dixel.New(accession), deps); err != nil {
			return err
		}
	}
}

// runPooled pulls slices of twice the pool size and dispatches each across
// pool_size workers, every worker holding its own source session. A slice
// fully completes before the next is pulled, which bounds how many items are
// in flight.
func (c *Collector) runPooled(ctx context.Context, worklist Worklist, deps Deps) error {
	pool := c.cfg.Collector.PoolSize
	delay := time.Duration(c.cfg.Collector.DelaySeconds * float64(time.Second))

	// Unless the caller injected its own sink, route workers through the
	// queue so a single writer owns the key map. Close drains the backlog
	// before the summary is reported.
	if c.keys == nil && deps.Keys != nil {
		queue := keymap.NewQueueSink(deps.Keys, 2*pool, c.logger)
		deps.Keys = queue
		defer queue.Close()
	}

	first := true
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		slice := take(worklist, 2*pool)
		if len(slice) == 0 {
			return nil
		}
		if !first && delay > 0 {
			time.Sleep(delay)
		}
		first = false
		if err := c.dispatch(ctx, slice, pool, deps); err != nil {
			return err
		}
	}
}

func (c *Collector) dispatch(ctx context.Context, slice []string, pool int, deps Deps) error {
	work := make(chan string, len(slice))
	for _, accession := range slice {
		work <- accession
	}
	close(work)

	errs := make(chan error, pool)
	var wg sync.WaitGroup
	for i := 0; i < pool; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			workerDeps := deps
			workerDeps.Source = deps.Source.Clone()
			for accession := range work {
				if err := Handle(ctx, dixel.New(accession), workerDeps); err != nil {
					errs <- err
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	return <-errs
}

func (c *Collector) summarize(start time.Time, counters *Counters, runErr error) (Summary, error) {
	s := counters.Snapshot()
	elapsed := time.Since(start)
	seconds := int64(elapsed.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	summary := Summary{
		Handled: s.Handled,
		Skipped: s.Skipped,
		Failed:  s.Failed,
		Elapsed: time.Duration(seconds) * time.Second,
		Rate:    float64(s.Handled) / float64(seconds),
	}

	c.logger.Info(fmt.Sprintf("Handled %d objects in %d seconds", summary.Handled, seconds))
	c.logger.Info(fmt.Sprintf("Handling rate: %.2f objects per second", summary.Rate))
	c.logger.Info(fmt.Sprintf("Skipped %d objects", summary.Skipped))
	c.logger.Info(fmt.Sprintf("Failed %d objects", summary.Failed))

	return summary, runErr
}
