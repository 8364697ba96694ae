package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/xkilldash9x/recharge-cli/api/schemas"
	"github.com/xkilldash9x/recharge-cli/internal/batch"
	"github.com/xkilldash9x/recharge-cli/internal/browser"
	"github.com/xkilldash9x/recharge-cli/internal/config"
	"github.com/xkilldash9x/recharge-cli/internal/observability"
	"github.com/xkilldash9x/recharge-cli/internal/phone"
	"github.com/xkilldash9x/recharge-cli/internal/prompt"
	"github.com/xkilldash9x/recharge-cli/internal/results"
	"github.com/xkilldash9x/recharge-cli/internal/retry"
	"github.com/xkilldash9x/recharge-cli/internal/workflow"
)

const shutdownTimeout = 15 * time.Second

// openPortal launches the browser and returns the page the workflow drives
// together with its shutdown function. Tests replace it to avoid Chrome.
var openPortal = func(ctx context.Context, cfg config.Interface, logger *zap.Logger) (schemas.Page, func(context.Context) error, error) {
	mgr, err := browser.NewManager(ctx, cfg.Browser(), logger)
	if err != nil {
		return nil, nil, err
	}
	return mgr.NewSession(cfg.Workflow()), mgr.Shutdown, nil
}

type runOptions struct {
	org         string
	batchFile   string
	dryRun      bool
	headless    bool
	url         string
	maxAttempts int
	promptMode  string
}

// newRunCmd creates and configures the `run` command.
func newRunCmd() *cobra.Command {
	opts := &runOptions{}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Collects a batch of lines and applies each top-up code through the portal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			opts.applyOverrides(cmd.Flags(), cfg)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid flags: %w", err)
			}
			return runRecharge(cmd.Context(), cfg, opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	flags := runCmd.Flags()
	flags.StringVar(&opts.org, "org", "", "organisation name used to label the audit log (asked when empty)")
	flags.StringVar(&opts.batchFile, "batch-file", "", "read the phone<TAB>code lines from a file instead of asking")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "validate and log the batch without opening the browser")
	flags.BoolVar(&opts.headless, "headless", false, "run the browser without a window")
	flags.StringVar(&opts.url, "url", "", "override the portal entry URL")
	flags.IntVar(&opts.maxAttempts, "max-attempts", 0, "stop after N failed attempts of a step (0 asks indefinitely)")
	flags.StringVar(&opts.promptMode, "prompt", "", "operator prompt mode: auto, tui or plain")

	return runCmd
}

// applyOverrides copies the flags the operator actually set onto cfg.
func (o *runOptions) applyOverrides(flags *pflag.FlagSet, cfg config.Interface) {
	if flags.Changed("headless") {
		cfg.SetBrowserHeadless(o.headless)
	}
	if flags.Changed("url") {
		cfg.SetWorkflowURL(o.url)
	}
	if flags.Changed("max-attempts") {
		cfg.SetRetryMaxAttempts(o.maxAttempts)
	}
	if flags.Changed("prompt") {
		cfg.SetPromptMode(o.promptMode)
	}
}

func runRecharge(ctx context.Context, cfg config.Interface, opts *runOptions, in io.Reader, out io.Writer) error {
	runID := uuid.New().String()
	logger := observability.GetLogger().With(zap.String("run_id", runID))

	validator, err := phone.NewValidator(cfg.Phone().Region)
	if err != nil {
		return err
	}
	operator, err := prompt.New(cfg.Prompt().Mode, in, out)
	if err != nil {
		return err
	}

	b, err := acquireBatch(ctx, cfg, opts, operator, validator, logger)
	if err != nil {
		if isCancellation(err) {
			logger.Info("Run cancelled before the browser was opened.", zap.Error(err))
			return nil
		}
		return err
	}

	logger.Info("Batch ready.",
		zap.String("organisation", b.Organisation),
		zap.Int("lines", b.Len()),
		zap.Bool("dry_run", opts.dryRun),
	)
	for i, e := range b.Entries {
		logger.Debug("Batch line.", zap.Int("line", i+1), zap.String("phone", e.Phone), zap.String("code", e.Code))
	}

	if opts.dryRun {
		fmt.Fprintf(out, "%s - %d lines ready to recharge (dry run, nothing sent)\n", b.Organisation, b.Len())
		return nil
	}

	return executeBatch(ctx, cfg, operator, b, logger, out)
}

// acquireBatch returns the batch either from --batch-file or by asking the
// operator. Only the interactive path re-prompts on bad input.
func acquireBatch(ctx context.Context, cfg config.Interface, opts *runOptions, op schemas.Operator, n batch.Normalizer, logger *zap.Logger) (schemas.Batch, error) {
	collector := batch.NewCollector(op, n, logger, cfg.Prompt().AppName)

	var entries []schemas.TopUpEntry
	if opts.batchFile != "" {
		raw, err := os.ReadFile(opts.batchFile)
		if err != nil {
			return schemas.Batch{}, fmt.Errorf("failed to read batch file: %w", err)
		}
		entries, err = batch.Parse(string(raw), n)
		if err != nil {
			return schemas.Batch{}, fmt.Errorf("batch file %s: %w", opts.batchFile, err)
		}
	} else {
		var err error
		if entries, err = collector.CollectEntries(ctx); err != nil {
			return schemas.Batch{}, err
		}
	}

	org := opts.org
	if org == "" {
		var err error
		if org, err = collector.CollectOrganisation(ctx); err != nil {
			return schemas.Batch{}, err
		}
	}
	return schemas.Batch{Organisation: org, Entries: entries}, nil
}

func executeBatch(ctx context.Context, cfg config.Interface, op schemas.Operator, b schemas.Batch, logger *zap.Logger, out io.Writer) error {
	locators, err := cfg.Selectors().Parse()
	if err != nil {
		return err
	}

	audit, closeAudit, err := observability.NewAuditLogger(cfg.Audit())
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer func() {
		_ = audit.Sync()
		_ = closeAudit()
	}()

	page, shutdown, err := openPortal(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		// The run context may already be cancelled; give the browser its own deadline.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Warn("Browser did not shut down cleanly.", zap.Error(err))
		}
	}()

	wf := cfg.Workflow()
	rt := workflow.NewRuntime(
		page,
		retry.New(op, logger, wf.Retry),
		workflow.NewPacer(wf.PacingMin, wf.PacingMax, nil, nil),
		locators,
		wf,
		logger,
	)

	summary, err := rt.Run(ctx, b, results.NewAggregator(audit, b.Organisation, b.Len()))
	if summary.Total > 0 {
		printSummary(out, b.Organisation, summary)
	}
	if err != nil {
		if isCancellation(err) {
			logger.Info("Run cancelled.", zap.Int("recorded", summary.Attempted()), zap.Error(err))
			return nil
		}
		logger.Error("Run aborted.", zap.Error(err))
		return err
	}
	return nil
}

func printSummary(out io.Writer, org string, s schemas.Summary) {
	if s.Complete() {
		fmt.Fprintf(out, "%s - all %d lines recharged\n", org, s.Total)
		return
	}
	fmt.Fprintf(out, "%s - only %d of %d lines recharged\n", org, s.Succeeded, s.Total)
	for _, o := range s.Outcomes {
		if o.Status == schemas.StatusSuccess {
			continue
		}
		if o.Reason != "" {
			fmt.Fprintf(out, "  %s: %s (%s)\n", o.Status, o.Entry, o.Reason)
		} else {
			fmt.Fprintf(out, "  %s: %s\n", o.Status, o.Entry)
		}
	}
}

// isCancellation covers both an operator's Cancel and a signal.
func isCancellation(err error) bool {
	return schemas.IsCancellation(err) || errors.Is(err, context.Canceled)
}
