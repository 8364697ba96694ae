package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/xkilldash9x/recharge-cli/api/schemas"
)

// Console asks the operator with plain line-based prompts. It suits pipes,
// dumb terminals and scripted input.
type Console struct {
	in  io.Reader
	out io.Writer

	startOnce sync.Once
	lines     chan string
}

var _ schemas.Operator = (*Console)(nil)

// NewConsole creates a Console operator.
func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{in: in, out: out, lines: make(chan string)}
}

// AskBatch reads lines until an empty line. End of input before any line
// counts as a dismissal.
func (c *Console) AskBatch(ctx context.Context, title string) (string, bool, error) {
	fmt.Fprintf(c.out, "%s\n(one line per entry: phone<TAB>code; finish with an empty line)\n", title)

	var rows []string
	for {
		line, ok, err := c.readLine(ctx)
		if err != nil {
			return "", false, err
		}
		if !ok {
			if len(rows) == 0 {
				return "", false, nil
			}
			break
		}
		if strings.TrimSpace(line) == "" {
			if len(rows) == 0 {
				continue
			}
			break
		}
		rows = append(rows, line)
	}
	return strings.Join(rows, "\n"), true, nil
}

func (c *Console) AskOrganisation(ctx context.Context, title string) (string, bool, error) {
	fmt.Fprintf(c.out, "%s: ", title)
	line, ok, err := c.readLine(ctx)
	if err != nil || !ok {
		return "", false, err
	}
	return line, true, nil
}

func (c *Console) ShowError(ctx context.Context, message string) error {
	_, err := fmt.Fprintf(c.out, "ERROR: %s\n", message)
	return err
}

// AskRetry repeats the question until it gets a recognised answer. End of
// input cancels.
func (c *Console) AskRetry(ctx context.Context, message string) (schemas.RetryDecision, error) {
	for {
		fmt.Fprintf(c.out, "%s [r]etry/[c]ancel: ", message)
		line, ok, err := c.readLine(ctx)
		if err != nil {
			return schemas.DecisionCancel, err
		}
		if !ok {
			return schemas.DecisionCancel, nil
		}
		if decision, known := parseDecision(line); known {
			return decision, nil
		}
	}
}

// readLine returns the next input line; ok is false at end of input.
// Reading happens on a background goroutine so a blocked read never holds
// up cancellation.
func (c *Console) readLine(ctx context.Context) (string, bool, error) {
	c.startOnce.Do(func() {
		go func() {
			scanner := bufio.NewScanner(c.in)
			scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
			for scanner.Scan() {
				c.lines <- strings.TrimSuffix(scanner.Text(), "\r")
			}
			close(c.lines)
		}()
	})

	select {
	case <-ctx.Done():
		return "", false, ctx.Err()
	case line, ok := <-c.lines:
		return line, ok, nil
	}
}
