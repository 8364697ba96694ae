// Package retry escalates recoverable page failures to the operator and
// re-runs the failed step until it succeeds or the operator gives up.
package retry

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/recharge-cli/api/schemas"
	"github.com/xkilldash9x/recharge-cli/internal/config"
)

// Step is one retryable unit of browser work. It must re-query the page on
// every call.
type Step func(ctx context.Context) error

// Controller asks the operator what to do when a step fails with an error
// accepted by schemas.IsRecoverable.
type Controller struct {
	operator    schemas.Operator
	logger      *zap.Logger
	maxAttempts int
}

// New creates a Controller. A MaxAttempts of zero leaves the number of
// attempts up to the operator.
func New(op schemas.Operator, logger *zap.Logger, cfg config.RetryConfig) *Controller {
	return &Controller{
		operator:    op,
		logger:      logger.Named("retry"),
		maxAttempts: cfg.MaxAttempts,
	}
}

// Do runs step, and on a recoverable failure asks the operator whether to try
// again. Any other error is returned as is. Choosing Cancel returns an error
// wrapping schemas.ErrRunCancelled.
func (c *Controller) Do(ctx context.Context, name string, step Step) error {
	for attempt := 1; ; attempt++ {
		err := step(ctx)
		if err == nil {
			if attempt > 1 {
				c.logger.Info("Step succeeded after retry.", zap.String("step", name), zap.Int("attempt", attempt))
			}
			return nil
		}
		if !schemas.IsRecoverable(err) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		c.logger.Warn("Step failed.", zap.String("step", name), zap.Int("attempt", attempt), zap.Error(err))

		if c.maxAttempts > 0 && attempt >= c.maxAttempts {
			c.logger.Error("Giving up on step.", zap.String("step", name), zap.Int("max_attempts", c.maxAttempts))
			return fmt.Errorf("%s: %w after %d attempts: %v", name, schemas.ErrRetriesExhausted, attempt, err)
		}

		decision, err := c.operator.AskRetry(ctx, fmt.Sprintf("Failed to %s. Retry?", name))
		if err != nil {
			return fmt.Errorf("failed to ask for retry: %w", err)
		}
		c.logger.Info("Operator decided.", zap.String("step", name), zap.Stringer("decision", decision))
		if decision != schemas.DecisionRetry {
			return fmt.Errorf("%s: %w", name, schemas.ErrRunCancelled)
		}
	}
}
