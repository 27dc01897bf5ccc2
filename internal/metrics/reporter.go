package metrics

import (
	"go.uber.org/zap"
)

// Collector receives pass/fail observations for the workflow.
type Collector interface {
	RecordOutcome(ok bool)
}

// Reporter forwards workflow verdicts to the collector. It never fails:
// a collector problem must not mask the test failure that triggered the
// report, so transport-level panics are logged and swallowed.
//
// The reporter itself is not deduplicating. Each failing stage is a
// real failure event and may report independently; the at-most-once
// guarantee for the overall run verdict is enforced by the scenario's
// outcome state, not here.
type Reporter struct {
	collector Collector
	log       *zap.Logger
}

// NewReporter creates a reporter backed by the given collector.
func NewReporter(collector Collector, log *zap.Logger) *Reporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reporter{collector: collector, log: log}
}

// Report records a pass/fail observation.
func (r *Reporter) Report(ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Warn("outcome collector failed", zap.Any("panic", rec))
		}
	}()

	r.log.Info("reporting workflow outcome", zap.Bool("success", ok))
	if r.collector != nil {
		r.collector.RecordOutcome(ok)
	}
}
