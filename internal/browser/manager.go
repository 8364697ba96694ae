// internal/browser/manager.go
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/recharge-cli/internal/config"
)

const defaultLaunchTimeout = 30 * time.Second

// Manager owns the browser process and its single tab.
type Manager struct {
	logger *zap.Logger
	cfg    config.BrowserConfig

	// allocatorCtx manages the browser process; tabCtx is the tab every
	// session drives.
	allocatorCtx    context.Context
	allocatorCancel context.CancelFunc
	tabCtx          context.Context
	tabCancel       context.CancelFunc

	shutdownOnce sync.Once
}

// NewManager launches the browser and checks that it responds.
func NewManager(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Manager, error) {
	m := &Manager{
		logger: logger.Named("browser_manager"),
		cfg:    cfg,
	}
	if err := m.launchBrowser(ctx); err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	return m, nil
}

func (m *Manager) launchBrowser(ctx context.Context) error {
	m.logger.Info("Opening browser.", zap.Bool("headless", m.cfg.Headless))

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, DefaultAllocatorOptions(m.cfg)...)
	sugar := m.logger.Sugar()
	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(sugar.Debugf),
		chromedp.WithErrorf(sugar.Errorf),
	)

	// The first Run allocates the browser; it must not carry a timeout or the
	// browser would die with it.
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return fmt.Errorf("browser failed to start: %w", err)
	}

	timeout := m.cfg.LaunchTimeout
	if timeout <= 0 {
		timeout = defaultLaunchTimeout
	}
	probeCtx, probeCancel := context.WithTimeout(tabCtx, timeout)
	defer probeCancel()
	if err := chromedp.Run(probeCtx, chromedp.Navigate("about:blank")); err != nil {
		tabCancel()
		allocCancel()
		return fmt.Errorf("browser failed to respond: %w", err)
	}

	m.allocatorCtx, m.allocatorCancel = allocCtx, allocCancel
	m.tabCtx, m.tabCancel = tabCtx, tabCancel
	m.logger.Info("Browser launched successfully and is responsive.")
	return nil
}

// NewSession returns a Page bound to the manager's tab.
func (m *Manager) NewSession(wf config.WorkflowConfig) *Session {
	return newSession(m.tabCtx, m.logger, wf.InteractionTimeout, wf.NavigationTimeout)
}

// Shutdown closes the tab and terminates the browser process.
func (m *Manager) Shutdown(ctx context.Context) error {
	var err error
	m.shutdownOnce.Do(func() {
		m.logger.Info("Closing browser.")
		// chromedp.Cancel closes the tab and waits for the browser to exit.
		done := make(chan error, 1)
		go func() { done <- chromedp.Cancel(m.tabCtx) }()

		select {
		case err = <-done:
		case <-ctx.Done():
			m.logger.Warn("Shutdown deadline exceeded. Forcing browser termination.", zap.Error(ctx.Err()))
			err = ctx.Err()
		}
		m.tabCancel()
		m.allocatorCancel()
		<-m.allocatorCtx.Done()
	})
	return err
}
