// internal/browser/options_test.go
package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/recharge-cli/internal/config"
)

// lookup returns the effective value of a flag, honouring overrides.
func lookup(flags []flag, name string) (interface{}, bool) {
	var (
		v  interface{}
		ok bool
	)
	for _, f := range flags {
		if f.name == name {
			v, ok = f.value, true
		}
	}
	return v, ok
}

func TestAllocatorFlags(t *testing.T) {
	t.Run("headless follows the config", func(t *testing.T) {
		v, ok := lookup(allocatorFlags(config.BrowserConfig{Headless: true}, "darwin"), "headless")
		require.True(t, ok)
		assert.Equal(t, true, v)

		v, ok = lookup(allocatorFlags(config.BrowserConfig{}, "darwin"), "headless")
		require.True(t, ok)
		assert.Equal(t, false, v, "a visible browser overrides chromedp's headless default")
	})

	t.Run("cache disabled", func(t *testing.T) {
		flags := allocatorFlags(config.BrowserConfig{DisableCache: true}, "darwin")
		for _, name := range []string{"disk-cache-size", "media-cache-size", "disable-cache", "disable-application-cache"} {
			_, ok := lookup(flags, name)
			assert.True(t, ok, name)
		}

		_, ok := lookup(allocatorFlags(config.BrowserConfig{}, "darwin"), "disable-cache")
		assert.False(t, ok)
	})

	t.Run("viewport sets the window size", func(t *testing.T) {
		cfg := config.BrowserConfig{Viewport: map[string]int{"width": 1024, "height": 950}}
		v, ok := lookup(allocatorFlags(cfg, "darwin"), "window-size")
		require.True(t, ok)
		assert.Equal(t, "1024,950", v)

		_, ok = lookup(allocatorFlags(config.BrowserConfig{Viewport: map[string]int{"width": 1024}}, "darwin"), "window-size")
		assert.False(t, ok, "incomplete viewports are ignored")
	})

	t.Run("container flags on linux only", func(t *testing.T) {
		_, ok := lookup(allocatorFlags(config.BrowserConfig{}, "linux"), "no-sandbox")
		assert.True(t, ok)
		_, ok = lookup(allocatorFlags(config.BrowserConfig{}, "darwin"), "no-sandbox")
		assert.False(t, ok)
	})

	t.Run("custom args", func(t *testing.T) {
		cfg := config.BrowserConfig{Args: []string{"--custom-arg1", "lang=fr-FR", "--", "--headless=new"}}
		flags := allocatorFlags(cfg, "darwin")

		v, ok := lookup(flags, "custom-arg1")
		require.True(t, ok)
		assert.Equal(t, true, v)

		v, ok = lookup(flags, "lang")
		require.True(t, ok)
		assert.Equal(t, "fr-FR", v)

		v, _ = lookup(flags, "headless")
		assert.Equal(t, "new", v, "user args override the derived flags")

		_, ok = lookup(flags, "")
		assert.False(t, ok)
	})
}

func TestDefaultAllocatorOptions(t *testing.T) {
	base := len(DefaultAllocatorOptions(config.BrowserConfig{}))
	withPaths := DefaultAllocatorOptions(config.BrowserConfig{ExecPath: "/usr/bin/chromium", UserDataDir: "/tmp/profile"})
	assert.Equal(t, base+2, len(withPaths))
}
