// Package results records per-entry outcomes to the audit log and keeps the
// running tally of a batch run.
package results

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/xkilldash9x/recharge-cli/api/schemas"
)

// Aggregator writes one audit record per outcome and a single summary record
// when the run ends.
type Aggregator struct {
	mu        sync.Mutex
	audit     *zap.Logger
	org       string
	summary   schemas.Summary
	finalized bool
}

// NewAggregator creates an Aggregator for a batch of total entries.
func NewAggregator(audit *zap.Logger, org string, total int) *Aggregator {
	return &Aggregator{
		audit:   audit,
		org:     org,
		summary: schemas.Summary{Total: total, Outcomes: make([]schemas.Outcome, 0, total)},
	}
}

// Record appends o to the audit log and updates the tally. Outcomes arriving
// after Finalize, or beyond the batch size, are not counted; a warning naming
// the entry is written instead.
func (a *Aggregator) Record(o schemas.Outcome) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.finalized || len(a.summary.Outcomes) >= a.summary.Total {
		a.audit.Warn(fmt.Sprintf("%s - outcome not counted: %s (%s)", a.org, o.Entry, o.Status),
			zap.String("org", a.org),
			zap.String("phone", o.Entry.Phone),
			zap.String("code", o.Entry.Code),
			zap.String("status", o.Status.String()),
			zap.Bool("finalized", a.finalized),
			zap.Int("total", a.summary.Total),
		)
		return
	}
	a.summary.Outcomes = append(a.summary.Outcomes, o)

	fields := []zap.Field{
		zap.String("org", a.org),
		zap.String("phone", o.Entry.Phone),
		zap.String("code", o.Entry.Code),
		zap.String("status", o.Status.String()),
	}

	switch o.Status {
	case schemas.StatusSuccess:
		a.summary.Succeeded++
		a.audit.Info(fmt.Sprintf("%s - line recharged: %s", a.org, o.Entry), fields...)
	case schemas.StatusFailure:
		a.audit.Warn(fmt.Sprintf("%s - line not recharged: %s (%s)", a.org, o.Entry, o.Reason),
			append(fields, zap.String("reason", o.Reason))...)
	default:
		a.audit.Warn(fmt.Sprintf("%s - recharge cancelled: %s", a.org, o.Entry), fields...)
	}
}

// Finalize writes the summary record and returns the tally. Calls after the
// first return the same tally without writing again.
func (a *Aggregator) Finalize() schemas.Summary {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.finalized {
		a.finalized = true
		fields := []zap.Field{
			zap.String("org", a.org),
			zap.Int("total", a.summary.Total),
			zap.Int("succeeded", a.summary.Succeeded),
		}
		if a.summary.Complete() {
			a.audit.Info(fmt.Sprintf("%s - all %d lines recharged", a.org, a.summary.Total), fields...)
		} else {
			a.audit.Warn(fmt.Sprintf("%s - only %d of %d lines recharged", a.org, a.summary.Succeeded, a.summary.Total), fields...)
		}
	}
	return a.snapshot()
}

// Summary returns a copy of the current tally.
func (a *Aggregator) Summary() schemas.Summary {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshot()
}

func (a *Aggregator) snapshot() schemas.Summary {
	out := a.summary
	out.Outcomes = append([]schemas.Outcome(nil), a.summary.Outcomes...)
	return out
}
