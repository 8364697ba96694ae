package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/recharge-cli/api/schemas"
	"github.com/xkilldash9x/recharge-cli/internal/config"
	"github.com/xkilldash9x/recharge-cli/internal/mocks"
)

func writeBatchFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "batch.tsv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// fakePortal wires a mock page that accepts every entry.
func fakePortal(t *testing.T) (*mocks.MockPage, *bool) {
	t.Helper()
	locs, err := config.NewDefaultConfig().Selectors().Parse()
	require.NoError(t, err)

	page := new(mocks.MockPage)
	el := new(mocks.MockElement)
	page.On("Navigate", mock.Anything, mock.Anything).Return(nil)
	page.On("Find", mock.Anything, locs.InvalidMarker).Return(nil, schemas.ErrElementNotFound)
	page.On("Find", mock.Anything, mock.Anything).Return(el, nil)
	el.On("Find", mock.Anything, mock.Anything).Return(el, nil)
	el.On("SendKeys", mock.Anything, mock.Anything).Return(nil)
	el.On("Click", mock.Anything).Return(nil)

	shutdown := false
	openPortal = func(ctx context.Context, cfg config.Interface, logger *zap.Logger) (schemas.Page, func(context.Context) error, error) {
		return page, func(context.Context) error { shutdown = true; return nil }, nil
	}
	return page, &shutdown
}

func TestRunCmd_DryRun(t *testing.T) {
	t.Run("from a batch file", func(t *testing.T) {
		resetForTest(t)
		env := newTestEnv(t, "")
		file := writeBatchFile(t, env.dir, "06 12 34 56 78\t1234 5678\n0712345678\t9999\n")
		openPortal = func(context.Context, config.Interface, *zap.Logger) (schemas.Page, func(context.Context) error, error) {
			t.Fatal("dry run must not open the browser")
			return nil, nil, nil
		}

		out, err := execute(context.Background(), "", "--config", env.config,
			"run", "--batch-file", file, "--org", "ACME", "--dry-run")

		require.NoError(t, err)
		assert.Contains(t, out, "ACME - 2 lines ready to recharge")
		assert.NoFileExists(t, env.auditFile)
	})

	t.Run("from plain prompts", func(t *testing.T) {
		resetForTest(t)
		env := newTestEnv(t, "")

		stdin := "0612345678\t1234\n\nACME\n"
		out, err := execute(context.Background(), stdin, "--config", env.config, "run", "--dry-run")

		require.NoError(t, err)
		assert.Contains(t, out, "Recharges - Paste the lines to recharge")
		assert.Contains(t, out, "Organisation name")
		assert.Contains(t, out, "ACME - 1 lines ready to recharge")
	})

	t.Run("invalid line is re-prompted", func(t *testing.T) {
		resetForTest(t)
		env := newTestEnv(t, "")

		stdin := "0612345678\n\n0612345678\t1234\n\nACME\n"
		out, err := execute(context.Background(), stdin, "--config", env.config, "run", "--dry-run")

		require.NoError(t, err)
		assert.Contains(t, out, "ERROR:")
		assert.Contains(t, out, "ACME - 1 lines ready to recharge")
	})
}

func TestRunCmd_BatchFileErrors(t *testing.T) {
	t.Run("malformed line", func(t *testing.T) {
		resetForTest(t)
		env := newTestEnv(t, "")
		file := writeBatchFile(t, env.dir, "0612345678\t1234\n0712345678\n")

		_, err := execute(context.Background(), "", "--config", env.config,
			"run", "--batch-file", file, "--org", "ACME", "--dry-run")

		var formatErr *schemas.FormatError
		require.True(t, errors.As(err, &formatErr), "got %v", err)
		assert.Equal(t, 2, formatErr.Line)
	})

	t.Run("invalid number", func(t *testing.T) {
		resetForTest(t)
		env := newTestEnv(t, "")
		file := writeBatchFile(t, env.dir, "0012\t1234\n")

		_, err := execute(context.Background(), "", "--config", env.config,
			"run", "--batch-file", file, "--org", "ACME", "--dry-run")

		var validationErr *schemas.ValidationError
		assert.True(t, errors.As(err, &validationErr), "got %v", err)
	})

	t.Run("missing file", func(t *testing.T) {
		resetForTest(t)
		env := newTestEnv(t, "")

		_, err := execute(context.Background(), "", "--config", env.config,
			"run", "--batch-file", filepath.Join(env.dir, "nope.tsv"), "--dry-run")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read batch file")
	})
}

func TestRunCmd_DismissedDialogEndsCleanly(t *testing.T) {
	resetForTest(t)
	env := newTestEnv(t, "")
	openPortal = func(context.Context, config.Interface, *zap.Logger) (schemas.Page, func(context.Context) error, error) {
		t.Fatal("a dismissed batch must not open the browser")
		return nil, nil, nil
	}

	_, err := execute(context.Background(), "", "--config", env.config, "run")

	require.NoError(t, err)
	assert.NoFileExists(t, env.auditFile)
}

func TestRunCmd_FlagOverrides(t *testing.T) {
	t.Run("invalid prompt mode", func(t *testing.T) {
		resetForTest(t)
		env := newTestEnv(t, "")

		_, err := execute(context.Background(), "", "--config", env.config, "run", "--prompt", "gui")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid flags")
	})

	t.Run("negative attempts", func(t *testing.T) {
		resetForTest(t)
		env := newTestEnv(t, "")

		_, err := execute(context.Background(), "", "--config", env.config, "run", "--max-attempts=-1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_attempts")
	})

	t.Run("overrides reach the config", func(t *testing.T) {
		resetForTest(t)
		env := newTestEnv(t, "")
		file := writeBatchFile(t, env.dir, "0612345678\t1234\n")

		var seen config.Interface
		page, _ := fakePortal(t)
		inner := openPortal
		openPortal = func(ctx context.Context, cfg config.Interface, logger *zap.Logger) (schemas.Page, func(context.Context) error, error) {
			seen = cfg
			return inner(ctx, cfg, logger)
		}

		_, err := execute(context.Background(), "", "--config", env.config, "run",
			"--batch-file", file, "--org", "ACME",
			"--headless", "--url", "https://portal.test/recharge", "--max-attempts", "2")

		require.NoError(t, err)
		require.NotNil(t, seen)
		assert.True(t, seen.Browser().Headless)
		assert.Equal(t, "https://portal.test/recharge", seen.Workflow().URL)
		assert.Equal(t, 2, seen.Workflow().Retry.MaxAttempts)
		page.AssertCalled(t, "Navigate", mock.Anything, "https://portal.test/recharge")
	})
}

func TestRunCmd_FullRun(t *testing.T) {
	resetForTest(t)
	env := newTestEnv(t, "")
	file := writeBatchFile(t, env.dir, "0612345678\t1234\n0712345678\t5678\n")
	_, shutdown := fakePortal(t)

	out, err := execute(context.Background(), "", "--config", env.config,
		"run", "--batch-file", file, "--org", "ACME")

	require.NoError(t, err)
	assert.True(t, *shutdown, "browser is shut down after the run")
	assert.Contains(t, out, "ACME - all 2 lines recharged")

	audit, err := os.ReadFile(env.auditFile)
	require.NoError(t, err)
	assert.Contains(t, string(audit), "ACME - line recharged: 0612345678 / 1234")
	assert.Contains(t, string(audit), "ACME - line recharged: 0712345678 / 5678")
	assert.Contains(t, string(audit), "ACME - all 2 lines recharged")
}

func TestRunCmd_BrowserLaunchFailure(t *testing.T) {
	resetForTest(t)
	env := newTestEnv(t, "")
	file := writeBatchFile(t, env.dir, "0612345678\t1234\n")
	openPortal = func(context.Context, config.Interface, *zap.Logger) (schemas.Page, func(context.Context) error, error) {
		return nil, nil, errors.New("failed to launch browser: chrome not found")
	}

	_, err := execute(context.Background(), "", "--config", env.config,
		"run", "--batch-file", file, "--org", "ACME")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "chrome not found")
}

func TestRunCmd_CancelAtRetryExitsCleanly(t *testing.T) {
	resetForTest(t)
	env := newTestEnv(t, "")
	file := writeBatchFile(t, env.dir, "0612345678\t1234\n")

	page := new(mocks.MockPage)
	page.On("Navigate", mock.Anything, mock.Anything).Return(nil)
	page.On("Find", mock.Anything, mock.Anything).Return(nil, schemas.ErrElementNotFound)
	openPortal = func(context.Context, config.Interface, *zap.Logger) (schemas.Page, func(context.Context) error, error) {
		return page, func(context.Context) error { return nil }, nil
	}

	out, err := execute(context.Background(), "c\n", "--config", env.config,
		"run", "--batch-file", file, "--org", "ACME")

	require.NoError(t, err)
	assert.Contains(t, out, "Failed to accept cookies. Retry?")
	assert.NotContains(t, out, "lines recharged", "no summary when leaving at the cookie banner")
}

func TestPrintSummary(t *testing.T) {
	var buf syncBuffer
	printSummary(&buf, "ACME", schemas.Summary{
		Total:     3,
		Succeeded: 1,
		Outcomes: []schemas.Outcome{
			schemas.Succeeded(schemas.TopUpEntry{Phone: "0612345678", Code: "1"}),
			schemas.Failed(schemas.TopUpEntry{Phone: "0712345678", Code: "2"}, "Code déjà utilisé"),
			schemas.Cancelled(schemas.TopUpEntry{Phone: "0612121212", Code: "3"}),
		},
	})

	assert.Equal(t, "ACME - only 1 of 3 lines recharged\n"+
		"  failure: 0712345678 / 2 (Code déjà utilisé)\n"+
		"  cancelled: 0612121212 / 3\n", buf.String())
}

func TestApplyOverrides(t *testing.T) {
	cmd := newRunCmd()
	require.NoError(t, cmd.Flags().Parse([]string{"--headless", "--max-attempts", "2"}))

	cfg := new(mocks.MockConfig)
	cfg.On("SetBrowserHeadless", true).Once()
	cfg.On("SetRetryMaxAttempts", 2).Once()

	opts := &runOptions{headless: true, maxAttempts: 2}
	opts.applyOverrides(cmd.Flags(), cfg)

	cfg.AssertExpectations(t)
	cfg.AssertNotCalled(t, "SetWorkflowURL", mock.Anything)
	cfg.AssertNotCalled(t, "SetPromptMode", mock.Anything)
}

func TestRunRecharge_DryRunWithMockConfig(t *testing.T) {
	resetForTest(t)
	dir := t.TempDir()
	file := writeBatchFile(t, dir, "0612345678\t1234\n")

	cfg := new(mocks.MockConfig)
	cfg.On("Phone").Return(config.PhoneConfig{Region: "FR"})
	cfg.On("Prompt").Return(config.PromptConfig{Mode: "plain", AppName: "Recharges"})

	var out syncBuffer
	err := runRecharge(context.Background(), cfg, &runOptions{batchFile: file, org: "ACME", dryRun: true}, nil, &out)

	require.NoError(t, err)
	assert.Equal(t, "ACME - 1 lines ready to recharge (dry run, nothing sent)\n", out.String())
	cfg.AssertNotCalled(t, "Browser")
	cfg.AssertNotCalled(t, "Audit")
}
