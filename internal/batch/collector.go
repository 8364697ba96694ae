package batch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/recharge-cli/api/schemas"
)

const (
	batchTitle        = "Paste the lines to recharge (phone<TAB>code)"
	organisationTitle = "Organisation name"
)

// Collector drives the operator dialogs until a valid batch is entered or the
// operator gives up.
type Collector struct {
	operator   schemas.Operator
	normalizer Normalizer
	logger     *zap.Logger
	appName    string
}

// NewCollector creates a Collector. appName prefixes dialog titles.
func NewCollector(op schemas.Operator, n Normalizer, logger *zap.Logger, appName string) *Collector {
	return &Collector{
		operator:   op,
		normalizer: n,
		logger:     logger.Named("batch"),
		appName:    appName,
	}
}

// Collect prompts for the batch text, re-prompting on malformed input, then
// asks for the organisation name. A dismissed dialog ends with
// schemas.ErrUserCancelled.
func (c *Collector) Collect(ctx context.Context) (schemas.Batch, error) {
	entries, err := c.CollectEntries(ctx)
	if err != nil {
		return schemas.Batch{}, err
	}

	org, err := c.CollectOrganisation(ctx)
	if err != nil {
		return schemas.Batch{}, err
	}
	return schemas.Batch{Organisation: org, Entries: entries}, nil
}

// CollectEntries runs the batch dialog loop only.
func (c *Collector) CollectEntries(ctx context.Context) ([]schemas.TopUpEntry, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, ok, err := c.operator.AskBatch(ctx, c.title(batchTitle))
		if err != nil {
			return nil, fmt.Errorf("failed to read batch: %w", err)
		}
		// A confirmed empty batch is malformed input, not a dismissal.
		if !ok {
			c.logger.Info("Batch dialog dismissed.")
			return nil, schemas.ErrUserCancelled
		}

		entries, err := Parse(text, c.normalizer)
		if err == nil {
			c.logger.Info("Batch accepted.", zap.Int("entries", len(entries)))
			return entries, nil
		}

		var formatErr *schemas.FormatError
		var validationErr *schemas.ValidationError
		switch {
		case errors.As(err, &formatErr), errors.As(err, &validationErr):
			c.logger.Warn("Batch rejected, asking again.", zap.Error(err))
			if showErr := c.operator.ShowError(ctx, describe(err)); showErr != nil {
				return nil, fmt.Errorf("failed to show batch error: %w", showErr)
			}
		default:
			c.logger.Error("Unexpected error while reading batch, asking again.", zap.Error(err))
		}
	}
}

// CollectOrganisation asks for the organisation label. An empty answer counts
// as a dismissal.
func (c *Collector) CollectOrganisation(ctx context.Context) (string, error) {
	name, ok, err := c.operator.AskOrganisation(ctx, c.title(organisationTitle))
	if err != nil {
		return "", fmt.Errorf("failed to read organisation: %w", err)
	}
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		c.logger.Info("Organisation dialog dismissed.")
		return "", schemas.ErrUserCancelled
	}
	return name, nil
}

func (c *Collector) title(s string) string {
	if c.appName == "" {
		return s
	}
	return c.appName + " - " + s
}

func describe(err error) string {
	var validationErr *schemas.ValidationError
	if errors.As(err, &validationErr) {
		return fmt.Sprintf("The number %s is not a valid line. Check the batch and paste it again.", validationErr.Number)
	}
	return fmt.Sprintf("The batch could not be read (%v). Each line needs a number and a code separated by a tab.", err)
}
