// Package workflow drives the recharge portal for each entry of a batch.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/recharge-cli/api/schemas"
	"github.com/xkilldash9x/recharge-cli/internal/config"
	"github.com/xkilldash9x/recharge-cli/internal/retry"
)

// GenericRejection is the failure reason used when the portal flags an entry
// but its message cannot be read.
const GenericRejection = "rejected by portal"

// Retrier runs a step, escalating recoverable failures.
type Retrier interface {
	Do(ctx context.Context, name string, step retry.Step) error
}

// Recorder receives outcomes as they are produced.
type Recorder interface {
	Record(o schemas.Outcome)
	Finalize() schemas.Summary
}

// Runtime holds everything a run needs. It is built once per process and
// passed explicitly; nothing in this package keeps global state.
type Runtime struct {
	page     schemas.Page
	retrier  Retrier
	pacer    *Pacer
	locators config.Locators
	cfg      config.WorkflowConfig
	logger   *zap.Logger
}

// NewRuntime creates a Runtime.
func NewRuntime(page schemas.Page, retrier Retrier, pacer *Pacer, locators config.Locators, cfg config.WorkflowConfig, logger *zap.Logger) *Runtime {
	return &Runtime{
		page:     page,
		retrier:  retrier,
		pacer:    pacer,
		locators: locators,
		cfg:      cfg,
		logger:   logger.Named("workflow"),
	}
}

// Run processes every entry of b in order and returns the final tally.
//
// The cookie banner is dismissed once, before the first entry. Leaving the
// run at that point records nothing. Once the loop has started, a
// cancellation records a cancelled outcome for the entry in flight and the
// summary is written before the error is returned.
func (r *Runtime) Run(ctx context.Context, b schemas.Batch, rec Recorder) (schemas.Summary, error) {
	r.logger.Info("Starting run.", zap.String("org", b.Organisation), zap.Int("entries", b.Len()))

	if err := r.navigate(ctx); err != nil {
		return schemas.Summary{}, err
	}
	if err := r.retrier.Do(ctx, "accept cookies", r.acceptCookies); err != nil {
		r.logger.Warn("Run ended before the first entry.", zap.Error(err))
		return schemas.Summary{}, err
	}
	r.logger.Info("Cookies accepted.")

	for i, entry := range b.Entries {
		log := r.logger.With(zap.Int("index", i+1), zap.String("phone", entry.Phone))
		log.Info("Recharging line.")

		outcome, err := r.Recharge(ctx, entry)
		if err != nil {
			if schemas.IsCancellation(err) || ctx.Err() != nil {
				log.Warn("Run cancelled.", zap.Error(err))
				rec.Record(schemas.Cancelled(entry))
			} else {
				log.Error("Run aborted.", zap.Error(err))
			}
			return rec.Finalize(), err
		}

		log.Info("Line processed.", zap.Stringer("status", outcome.Status), zap.String("reason", outcome.Reason))
		rec.Record(outcome)
	}

	summary := rec.Finalize()
	r.logger.Info("Run finished.", zap.Int("succeeded", summary.Succeeded), zap.Int("total", summary.Total))
	return summary, nil
}

// Recharge submits one entry and reads the portal's verdict. Errors are only
// returned when the entry could not be submitted; a rejected code is a
// StatusFailure outcome.
func (r *Runtime) Recharge(ctx context.Context, e schemas.TopUpEntry) (schemas.Outcome, error) {
	if err := r.navigate(ctx); err != nil {
		return schemas.Outcome{}, err
	}

	if err := r.retrier.Do(ctx, "enter phone number", func(ctx context.Context) error {
		return r.enterPhone(ctx, e.Phone)
	}); err != nil {
		return schemas.Outcome{}, err
	}
	if err := r.pacer.Pause(ctx); err != nil {
		return schemas.Outcome{}, err
	}

	if err := r.retrier.Do(ctx, "enter code", func(ctx context.Context) error {
		return r.enterCode(ctx, e.Code)
	}); err != nil {
		return schemas.Outcome{}, err
	}
	if err := r.pacer.Pause(ctx); err != nil {
		return schemas.Outcome{}, err
	}

	return r.detect(ctx, e)
}

func (r *Runtime) navigate(ctx context.Context) error {
	r.logger.Debug("Loading recharge page.", zap.String("url", r.cfg.URL))
	if err := r.page.Navigate(ctx, r.cfg.URL); err != nil {
		return fmt.Errorf("failed to load %s: %w", r.cfg.URL, err)
	}
	return r.pacer.Wait(ctx, r.cfg.SettleInterval)
}

func (r *Runtime) acceptCookies(ctx context.Context) error {
	r.logger.Debug("Accepting cookies.")
	btn, err := r.page.Find(ctx, r.locators.CookieConsent)
	if err != nil {
		return err
	}
	return btn.Click(ctx)
}

func (r *Runtime) enterPhone(ctx context.Context, number string) error {
	r.logger.Debug("Entering phone number.")
	form, err := r.page.Find(ctx, r.locators.LineForm)
	if err != nil {
		return err
	}
	field, err := form.Find(ctx, r.locators.PhoneField)
	if err != nil {
		return err
	}
	if err := field.SendKeys(ctx, number); err != nil {
		return err
	}
	btn, err := r.page.Find(ctx, r.locators.PhoneSubmit)
	if err != nil {
		return err
	}
	return btn.Click(ctx)
}

func (r *Runtime) enterCode(ctx context.Context, code string) error {
	r.logger.Debug("Entering code.")
	field, err := r.page.Find(ctx, r.locators.CodeField)
	if err != nil {
		return err
	}
	if err := field.SendKeys(ctx, code); err != nil {
		return err
	}
	btn, err := r.page.Find(ctx, r.locators.CodeSubmit)
	if err != nil {
		return err
	}
	return btn.Click(ctx)
}

// detect reads the verdict. The entry counts as recharged only when the
// marker lookup completes and finds nothing; a lookup the browser did not
// answer is escalated like any other step.
func (r *Runtime) detect(ctx context.Context, e schemas.TopUpEntry) (schemas.Outcome, error) {
	var marker schemas.Element
	err := r.retrier.Do(ctx, "check the result", func(ctx context.Context) error {
		found, err := r.page.Find(ctx, r.locators.InvalidMarker)
		switch {
		case errors.Is(err, schemas.ErrElementNotFound):
			marker = nil
			return nil
		case err != nil:
			return err
		}
		marker = found
		return nil
	})
	if err != nil {
		if schemas.IsCancellation(err) || ctx.Err() != nil {
			return schemas.Outcome{}, err
		}
		return schemas.Outcome{}, fmt.Errorf("failed to check outcome: %w", err)
	}
	if marker == nil {
		return schemas.Succeeded(e), nil
	}

	text, err := marker.Text(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return schemas.Outcome{}, ctxErr
	}
	reason := strings.TrimSpace(text)
	if err != nil || reason == "" {
		r.logger.Debug("Could not read rejection message.", zap.Error(err))
		reason = GenericRejection
	}
	return schemas.Failed(e, reason), nil
}
