// Package prompt implements the operator dialogs: batch entry, organisation
// name, error notices and the retry-or-cancel question.
package prompt

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/xkilldash9x/recharge-cli/api/schemas"
)

// Supported prompt modes.
const (
	ModeAuto  = "auto"
	ModeTUI   = "tui"
	ModePlain = "plain"
)

// New returns the operator for mode. Auto picks the TUI when both in and out
// are terminals and plain prompts otherwise.
func New(mode string, in io.Reader, out io.Writer) (schemas.Operator, error) {
	switch mode {
	case ModeTUI:
		return NewTUI(in, out), nil
	case ModePlain:
		return NewConsole(in, out), nil
	case ModeAuto, "":
		if isTerminal(in) && isTerminal(out) {
			return NewTUI(in, out), nil
		}
		return NewConsole(in, out), nil
	default:
		return nil, fmt.Errorf("unknown prompt mode %q", mode)
	}
}

func isTerminal(v interface{}) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
