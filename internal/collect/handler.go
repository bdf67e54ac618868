package collect

import (
	"context"
	"fmt"
	"log/slog"

	"diana/internal/dixel"
	"diana/internal/keymap"
	"diana/internal/ledger"
	"diana/internal/logging"
	"diana/internal/services"
	"diana/internal/source"
	"diana/internal/store"
)

// Stage names recorded in progress output and the retry ledger.
const (
	stageResolve = "resolve"
	stageStage   = "stage"
	stageFetch   = "fetch"
)

// Deps carries the collaborators one handling pass needs. Destination and
// Counters are required; the rest are optional.
type Deps struct {
	Source            source.Source
	Destination       store.Destination
	ReportDestination store.Destination
	Keys              keymap.Sink
	Ledger            *ledger.Ledger
	Counters          *Counters
	Logger            *slog.Logger

	// Anonymize requests source-side de-identification before fetch.
	Anonymize bool
	// ImageDerived marks the destination as an image-derived store, which is
	// itself a sufficient de-identification step.
	ImageDerived bool
}

func (d Deps) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return logging.NewNop()
}

// Handle runs one study through the handling state machine. Expected
// failures are counted and logged, never returned; any returned error is an
// unanticipated fault the caller must treat as fatal for the worker. Exactly
// one of handled/skipped/failed increments before a nil return.
func Handle(ctx context.Context, item *dixel.Dixel, deps Deps) error {
	log := deps.logger()

	// Key extraction never aborts the item: an uncategorizable report
	// yields an empty category.
	radcat, err := item.Report.Radcat()
	if err != nil {
		log.Debug("report categorization failed",
			logging.String("accession", item.Accession()),
			logging.Error(err),
		)
		radcat = ""
	}

	item.NormalizeMeta()
	// The key map stores the sham identifier, never the raw accession.
	row := keymap.Row{
		ID: item.ShamID(),
		Fields: map[string]string{
			"modality":  item.Tags[dixel.TagModality],
			"body_part": item.Meta[dixel.MetaBodyParts],
			"cpts":      item.Meta[dixel.MetaCPTCodes],
			"age":       item.Meta[dixel.MetaPatientAge],
			"sex":       item.Tags[dixel.TagPatientSex],
			"status":    item.Meta[dixel.MetaPatientStatus],
			"radcat":    radcat,
		},
	}
	if deps.Keys != nil {
		if err := deps.Keys.Put(ctx, row); err != nil {
			// Key emission is never terminal for the item.
			log.Warn("key emission failed",
				logging.String("accession", item.Accession()),
				logging.Error(err),
			)
		}
	}

	if deps.ReportDestination != nil {
		if err := deps.ReportDestination.Put(item); err != nil {
			return fmt.Errorf("persist report for %s: %w", item.Accession(), err)
		}
	}

	if deps.Destination.Exists(item) {
		deps.Counters.addSkipped()
		log.Info("already collected, exiting early", logging.String("accession", item.Accession()))
		progress(log, deps.Counters)
		return nil
	}

	results, err := deps.Source.Find(ctx, item.Query(), true)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", item.Accession(), err)
	}
	if len(results) == 0 {
		return countFailed(ctx, deps, item, stageResolve, "no metadata found")
	}
	item.MergeTags(results[0])

	// find with retrieve stages the payload at the proxy; confirm it landed.
	staged, err := deps.Source.Exists(ctx, item)
	if err != nil {
		return fmt.Errorf("confirm staging for %s: %w", item.Accession(), err)
	}
	if !staged {
		return countFailed(ctx, deps, item, stageStage, "not staged at source")
	}

	if deps.Anonymize && !deps.ImageDerived {
		anonymized, err := deps.Source.Anonymize(ctx, item, true)
		if err != nil {
			return fmt.Errorf("anonymize %s: %w", item.Accession(), err)
		}
		item = anonymized
	}

	fetched, err := deps.Source.Get(ctx, item, dixel.ViewFile)
	if err != nil {
		if services.IsCounted(err) {
			return countFailed(ctx, deps, item, stageFetch, err.Error())
		}
		return fmt.Errorf("fetch %s: %w", item.Accession(), err)
	}
	item = fetched

	if err := deps.Destination.Put(item); err != nil {
		return fmt.Errorf("persist %s: %w", item.Accession(), err)
	}
	if err := deps.Source.Delete(ctx, item); err != nil {
		return fmt.Errorf("clean up %s at source: %w", item.Accession(), err)
	}

	deps.Counters.addHandled()
	progress(log, deps.Counters)
	return nil
}

// countFailed records one counted failure: increment, progress line, and a
// retry ledger row when a ledger is attached.
func countFailed(ctx context.Context, deps Deps, item *dixel.Dixel, stage, reason string) error {
	deps.Counters.addFailed()
	log := deps.logger()
	log.Error("item failed",
		logging.String("accession", item.Accession()),
		logging.String("stage", stage),
		logging.String("reason", reason),
	)
	if deps.Ledger != nil {
		if err := deps.Ledger.Append(ctx, item.Accession(), stage, reason); err != nil {
			log.Warn("retry ledger append failed",
				logging.String("accession", item.Accession()),
				logging.Error(err),
			)
		}
	}
	progress(log, deps.Counters)
	return nil
}

// progress emits the one-line running tally that accompanies every terminal
// item event.
func progress(log *slog.Logger, counters *Counters) {
	s := counters.Snapshot()
	log.Info(fmt.Sprintf("Handled %d items, skipped %d, failed %d", s.Handled, s.Skipped, s.Failed))
}
