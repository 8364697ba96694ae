package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/hpcloud/tail"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/recharge-cli/internal/observability"
)

// newAuditCmd creates the `audit` command, which prints the results log.
func newAuditCmd() *cobra.Command {
	var (
		follow bool
		poll   bool
		lines  int
	)

	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Prints the audit log of recharged lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			path := cfg.Audit().LogFile
			out := cmd.OutOrStdout()

			if err := printLastLines(path, lines, out); err != nil {
				if os.IsNotExist(err) && !follow {
					fmt.Fprintf(out, "No audit log at %s yet.\n", path)
					return nil
				}
				if !os.IsNotExist(err) {
					return err
				}
			}
			if !follow {
				return nil
			}
			return followLog(cmd.Context(), path, poll, out)
		},
	}

	auditCmd.Flags().BoolVarP(&follow, "follow", "f", false, "keep printing records as they are appended")
	auditCmd.Flags().BoolVar(&poll, "poll", false, "poll the file instead of using file system notifications")
	auditCmd.Flags().IntVarP(&lines, "lines", "n", 0, "print only the last N records (0 prints the whole log)")
	return auditCmd
}

// printLastLines copies the last n lines of path to out, or all of them when
// n is not positive.
func printLastLines(path string, n int, out io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	if n <= 0 {
		for scanner.Scan() {
			fmt.Fprintln(out, scanner.Text())
		}
		return scanner.Err()
	}

	ring := make([]string, 0, n)
	for scanner.Scan() {
		if len(ring) == n {
			ring = ring[1:]
		}
		ring = append(ring, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	for _, line := range ring {
		fmt.Fprintln(out, line)
	}
	return nil
}

// followLog prints lines appended to path until ctx is done. The file may not
// exist yet; it is picked up once the first run creates it.
func followLog(ctx context.Context, path string, poll bool, out io.Writer) error {
	logger := observability.GetLogger().Named("audit")
	logger.Debug("Following audit log.", zap.String("path", path))

	t, err := tail.TailFile(path, tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: false,
		Poll:      poll,
		Location:  &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd},
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return fmt.Errorf("failed to follow audit log: %w", err)
	}
	defer func() {
		_ = t.Stop()
		t.Cleanup()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-t.Lines:
			if !ok {
				return t.Err()
			}
			if line.Err != nil {
				logger.Warn("Error while following audit log.", zap.Error(line.Err))
				continue
			}
			fmt.Fprintln(out, line.Text)
		}
	}
}
