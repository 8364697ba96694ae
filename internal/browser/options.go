// internal/browser/options.go
package browser

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/recharge-cli/internal/config"
)

// flag is one command line switch passed to the browser process. A false
// boolean value removes the switch.
type flag struct {
	name  string
	value interface{}
}

// DefaultAllocatorOptions assembles the exec allocator options for the
// configured browser, on top of chromedp's defaults.
func DefaultAllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption(nil), chromedp.DefaultExecAllocatorOptions[:]...)
	for _, f := range allocatorFlags(cfg, runtime.GOOS) {
		opts = append(opts, chromedp.Flag(f.name, f.value))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	if cfg.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(cfg.UserDataDir))
	}
	return opts
}

// allocatorFlags lists the switches derived from cfg. Later entries override
// earlier ones with the same name, including chromedp's defaults.
func allocatorFlags(cfg config.BrowserConfig, goos string) []flag {
	flags := []flag{{"headless", cfg.Headless}}

	if cfg.DisableCache {
		flags = append(flags,
			flag{"disk-cache-size", "0"},
			flag{"media-cache-size", "0"},
			flag{"disable-cache", true},
			flag{"disable-application-cache", true},
		)
	}

	if w, h := cfg.Viewport["width"], cfg.Viewport["height"]; w > 0 && h > 0 {
		flags = append(flags, flag{"window-size", fmt.Sprintf("%d,%d", w, h)})
	}

	// Flags required for running inside containers.
	if goos == "linux" {
		flags = append(flags,
			flag{"no-sandbox", true},
			flag{"disable-dev-shm-usage", true},
		)
	}

	// Extra flags from config.yaml, "--name" or "--name=value".
	for _, arg := range cfg.Args {
		key, value, found := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		if key == "" {
			continue
		}
		if found {
			flags = append(flags, flag{key, value})
		} else {
			flags = append(flags, flag{key, true})
		}
	}

	return flags
}
