// internal/browser/session_test.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/recharge-cli/api/schemas"
	"github.com/xkilldash9x/recharge-cli/internal/config"
)

func TestSelectorFor(t *testing.T) {
	tests := []struct {
		loc  schemas.Locator
		want string
	}{
		{schemas.CSS("#valider_ligne_btn"), "#valider_ligne_btn"},
		{schemas.XPath("//*[@id='chooseLineForm']"), "//*[@id='chooseLineForm']"},
		{schemas.Name("codeCoupon"), `[name="codeCoupon"]`},
		{schemas.Name(`we"ird\name`), `[name="we\"ird\\name"]`},
	}
	for _, tt := range tests {
		t.Run(tt.loc.String(), func(t *testing.T) {
			sel, by, err := selectorFor(tt.loc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, sel)
			assert.NotNil(t, by)
		})
	}

	_, _, err := selectorFor(schemas.Locator{Strategy: "id", Value: "x"})
	assert.Error(t, err)
}

func TestCombineContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	t.Run("secondary cancellation propagates", func(t *testing.T) {
		type key struct{}
		primary := context.WithValue(context.Background(), key{}, "tab")
		secondary, cancelSecondary := context.WithCancel(context.Background())

		combined, cancel := CombineContext(primary, secondary)
		defer cancel()
		assert.Equal(t, "tab", combined.Value(key{}))

		cancelSecondary()
		select {
		case <-combined.Done():
		case <-time.After(time.Second):
			t.Fatal("combined context was not canceled")
		}
	})

	t.Run("primary cancellation propagates", func(t *testing.T) {
		primary, cancelPrimary := context.WithCancel(context.Background())
		combined, cancel := CombineContext(primary, context.Background())
		defer cancel()

		cancelPrimary()
		<-combined.Done()
		assert.ErrorIs(t, combined.Err(), context.Canceled)
	})
}

func TestClassify(t *testing.T) {
	s := newSession(context.Background(), zaptest.NewLogger(t), time.Second, 0)
	assert.Equal(t, defaultNavigationTimeout, s.navigationTimeout)

	t.Run("deadline becomes the sentinel", func(t *testing.T) {
		err := s.classify(context.Background(), context.DeadlineExceeded, schemas.ErrPageUnavailable, "find css:.x")
		assert.ErrorIs(t, err, schemas.ErrPageUnavailable)
		assert.NotErrorIs(t, err, schemas.ErrElementNotFound)
		assert.True(t, schemas.IsRecoverable(err))
	})

	t.Run("driver errors become the sentinel", func(t *testing.T) {
		err := s.classify(context.Background(), errors.New("could not compute box model"), schemas.ErrNotInteractable, "click css:.x")
		assert.ErrorIs(t, err, schemas.ErrNotInteractable)
		assert.Contains(t, err.Error(), "could not compute box model")
	})

	t.Run("caller cancellation wins", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := s.classify(ctx, context.Canceled, schemas.ErrNotInteractable, "click css:.x")
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, schemas.IsRecoverable(err))
	})

	t.Run("closed tab is not recoverable", func(t *testing.T) {
		tab, cancel := context.WithCancel(context.Background())
		cancel()
		closed := newSession(tab, zaptest.NewLogger(t), time.Second, time.Second)
		err := closed.classify(context.Background(), errors.New("websocket closed"), schemas.ErrNotInteractable, "click css:.x")
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, schemas.IsRecoverable(err))
	})
}

func TestFind_DriverFailureIsNotAbsence(t *testing.T) {
	// A session without a browser behind it never gets an answer to its query.
	s := newSession(context.Background(), zaptest.NewLogger(t), time.Second, time.Second)

	_, err := s.Find(context.Background(), schemas.CSS(".nonValide"))

	require.Error(t, err)
	assert.NotErrorIs(t, err, schemas.ErrElementNotFound)
	assert.ErrorIs(t, err, schemas.ErrPageUnavailable)
	assert.True(t, schemas.IsRecoverable(err))
}

const portalPage = `<!DOCTYPE html>
<html><body>
<div id="CkC"><div><a class="A" href="#" onclick="this.parentNode.parentNode.remove(); return false;">OK</a></div></div>
<form id="chooseLineForm" onsubmit="return false;">
  <input name="lineToBeRecharged" type="text">
  <button id="valider_ligne_btn" type="button" onclick="document.getElementById('step2').style.display='block'">Valider</button>
</form>
<div id="step2" style="display:none">
  <input name="codeCoupon" type="text">
  <button id="code_coupon_btn_valider" type="button"
    onclick="if (document.getElementsByName('codeCoupon')[0].value !== '1234') { var d = document.createElement('div'); d.className = 'nonValide'; d.textContent = ' Code invalide '; document.body.appendChild(d); }">OK</button>
</div>
<input name="hidden" type="text" style="display:none">
</body></html>`

// findChrome skips the test when no browser binary is available.
func findChrome(t *testing.T) string {
	t.Helper()
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	t.Skip("no chrome or chromium binary found")
	return ""
}

func TestSession_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser integration test in short mode")
	}
	execPath := findChrome(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, portalPage)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cfg := config.NewDefaultConfig()
	browserCfg := cfg.Browser()
	browserCfg.Headless = true
	browserCfg.ExecPath = execPath

	m, err := NewManager(ctx, browserCfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer func() { _ = m.Shutdown(context.Background()) }()

	wf := cfg.Workflow()
	wf.InteractionTimeout = 2 * time.Second
	page := m.NewSession(wf)
	locs, err := cfg.Selectors().Parse()
	require.NoError(t, err)

	require.NoError(t, page.Navigate(ctx, server.URL))

	cookie, err := page.Find(ctx, locs.CookieConsent)
	require.NoError(t, err)
	require.NoError(t, cookie.Click(ctx))

	form, err := page.Find(ctx, locs.LineForm)
	require.NoError(t, err)
	field, err := form.Find(ctx, locs.PhoneField)
	require.NoError(t, err)
	require.NoError(t, field.SendKeys(ctx, "0612345678"))

	btn, err := page.Find(ctx, locs.PhoneSubmit)
	require.NoError(t, err)
	require.NoError(t, btn.Click(ctx))

	_, err = page.Find(ctx, locs.InvalidMarker)
	assert.ErrorIs(t, err, schemas.ErrElementNotFound)

	code, err := page.Find(ctx, locs.CodeField)
	require.NoError(t, err)
	require.NoError(t, code.SendKeys(ctx, "9999"))
	submit, err := page.Find(ctx, locs.CodeSubmit)
	require.NoError(t, err)
	require.NoError(t, submit.Click(ctx))

	marker, err := page.Find(ctx, locs.InvalidMarker)
	require.NoError(t, err)
	text, err := marker.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Code invalide", strings.TrimSpace(text))

	hidden, err := page.Find(ctx, schemas.Name("hidden"))
	require.NoError(t, err)
	assert.ErrorIs(t, hidden.SendKeys(ctx, "x"), schemas.ErrNotInteractable)
}
