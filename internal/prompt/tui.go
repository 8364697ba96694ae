package prompt

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/xkilldash9x/recharge-cli/api/schemas"
)

// TUI asks the operator through full-screen bubbletea dialogs.
type TUI struct {
	in      io.Reader
	out     io.Writer
	styles  Styles
	options []tea.ProgramOption
}

var _ schemas.Operator = (*TUI)(nil)

// NewTUI creates a TUI operator reading keys from in and drawing to out.
// Extra program options are appended to every dialog program.
func NewTUI(in io.Reader, out io.Writer, opts ...tea.ProgramOption) *TUI {
	return &TUI{in: in, out: out, styles: DefaultStyles(), options: opts}
}

func (t *TUI) AskBatch(ctx context.Context, title string) (string, bool, error) {
	d, err := t.run(ctx, newBatchDialog(title, t.styles))
	if err != nil {
		return "", false, err
	}
	return d.value, d.ok, nil
}

func (t *TUI) AskOrganisation(ctx context.Context, title string) (string, bool, error) {
	d, err := t.run(ctx, newTextDialog(title, t.styles))
	if err != nil {
		return "", false, err
	}
	return d.value, d.ok, nil
}

func (t *TUI) ShowError(ctx context.Context, message string) error {
	_, err := t.run(ctx, newNoticeDialog(message, t.styles))
	return err
}

func (t *TUI) AskRetry(ctx context.Context, message string) (schemas.RetryDecision, error) {
	d, err := t.run(ctx, newQuestionDialog(message, t.styles))
	if err != nil {
		return schemas.DecisionCancel, err
	}
	return d.decision, nil
}

// run blocks until the dialog quits or ctx is done.
func (t *TUI) run(ctx context.Context, d dialog) (dialog, error) {
	opts := append([]tea.ProgramOption{
		tea.WithContext(ctx),
		tea.WithInput(t.in),
		tea.WithOutput(t.out),
	}, t.options...)

	final, err := tea.NewProgram(d, opts...).Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return d, ctxErr
	}
	if err != nil {
		return d, fmt.Errorf("dialog failed: %w", err)
	}
	result, ok := final.(dialog)
	if !ok || !result.done {
		return d, fmt.Errorf("dialog ended without an answer")
	}
	return result, nil
}
