// File: cmd/helpers_test.go
package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/recharge-cli/internal/observability"
)

// resetForTest clears the global viper instance and logger between tests.
func resetForTest(t *testing.T) {
	t.Helper()
	viper.Reset()
	observability.ResetForTest()
	original := openPortal
	t.Cleanup(func() {
		openPortal = original
		viper.Reset()
		observability.ResetForTest()
	})
}

// testEnv is an isolated working directory with its own config file.
type testEnv struct {
	dir       string
	config    string
	auditFile string
}

// newTestEnv writes a config whose log files live in a temp dir and whose
// pacing is disabled so workflow tests run instantly.
func newTestEnv(t *testing.T, extra string) *testEnv {
	t.Helper()
	dir := t.TempDir()
	env := &testEnv{dir: dir, auditFile: filepath.Join(dir, "audit.log")}

	content := fmt.Sprintf(`
logger:
  log_file: %s
  console_level: error
audit:
  log_file: %s
workflow:
  settle_interval: 0s
  pacing_min: 0s
  pacing_max: 0s
prompt:
  mode: plain
%s`, filepath.Join(dir, "recharge.log"), env.auditFile, extra)

	env.config = createTempConfig(t, dir, content)
	return env
}

// createTempConfig helper
func createTempConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// execute runs a fresh command tree with args and stdin, returning stdout.
func execute(ctx context.Context, stdin string, args ...string) (string, error) {
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return out.String(), err
}

// syncBuffer is a bytes.Buffer safe for a writer goroutine and a reader.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

var _ io.Writer = (*syncBuffer)(nil)

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
