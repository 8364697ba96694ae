// internal/browser/session.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/recharge-cli/api/schemas"
)

const (
	defaultInteractionTimeout = 5 * time.Second
	defaultNavigationTimeout  = 90 * time.Second
)

// Session drives one tab and implements schemas.Page. Every lookup queries
// the live DOM.
type Session struct {
	ctx                context.Context
	logger             *zap.Logger
	interactionTimeout time.Duration
	navigationTimeout  time.Duration
}

var _ schemas.Page = (*Session)(nil)

func newSession(tabCtx context.Context, logger *zap.Logger, interaction, navigation time.Duration) *Session {
	if interaction <= 0 {
		interaction = defaultInteractionTimeout
	}
	if navigation <= 0 {
		navigation = defaultNavigationTimeout
	}
	return &Session{
		ctx:                tabCtx,
		logger:             logger.Named("session"),
		interactionTimeout: interaction,
		navigationTimeout:  navigation,
	}
}

// Navigate loads url in the tab and waits for the load event.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Debug("Navigating.", zap.String("url", url))

	navCtx, navCancel := context.WithTimeout(ctx, s.navigationTimeout)
	defer navCancel()

	if err := s.runActions(navCtx, chromedp.Navigate(url)); err != nil {
		if ctx.Err() != nil || s.ctx.Err() != nil {
			return fmt.Errorf("navigation canceled: %w", err)
		}
		if navCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("navigation to %s timed out after %v: %w", url, s.navigationTimeout, navCtx.Err())
		}
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

// Find returns the first element in the document matching loc. Only a query
// that completed with no match yields schemas.ErrElementNotFound.
func (s *Session) Find(ctx context.Context, loc schemas.Locator) (schemas.Element, error) {
	return s.find(ctx, loc, nil)
}

func (s *Session) find(ctx context.Context, loc schemas.Locator, parent *cdp.Node) (schemas.Element, error) {
	sel, by, err := selectorFor(loc)
	if err != nil {
		return nil, err
	}
	queryOpts := []chromedp.QueryOption{by, chromedp.AtLeast(0)}
	if parent != nil {
		if loc.Strategy == schemas.ByXPath {
			return nil, fmt.Errorf("xpath lookups inside an element are not supported: %s", loc)
		}
		queryOpts = append(queryOpts, chromedp.FromNode(parent))
	}

	var nodes []*cdp.Node
	err = s.withTimeout(ctx, func(opCtx context.Context) error {
		return s.runActions(opCtx, chromedp.Nodes(sel, &nodes, queryOpts...))
	})
	if err != nil {
		// The query never completed, so absence is unknown.
		return nil, s.classify(ctx, err, schemas.ErrPageUnavailable, "find "+loc.String())
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%s: %w", loc, schemas.ErrElementNotFound)
	}
	return &element{session: s, node: nodes[0], loc: loc}, nil
}

// withTimeout runs fn under the per-call interaction timeout.
func (s *Session) withTimeout(ctx context.Context, fn func(context.Context) error) error {
	opCtx, cancel := context.WithTimeout(ctx, s.interactionTimeout)
	defer cancel()
	return fn(opCtx)
}

// runActions executes chromedp actions so that they respect both the tab's
// lifetime and the caller's context.
func (s *Session) runActions(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

// classify maps a chromedp failure onto the error vocabulary of the
// workflow. Cancellation of the caller or the tab wins; anything else during
// an element operation becomes the given recoverable sentinel.
func (s *Session) classify(ctx context.Context, err error, sentinel error, op string) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if tabErr := s.ctx.Err(); tabErr != nil {
		return fmt.Errorf("browser closed during %s: %w", op, tabErr)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: timed out after %v: %w", op, s.interactionTimeout, sentinel)
	}
	return fmt.Errorf("%s: %v: %w", op, err, sentinel)
}

// selectorFor translates a locator into a chromedp selector and query option.
func selectorFor(loc schemas.Locator) (string, chromedp.QueryOption, error) {
	switch loc.Strategy {
	case schemas.ByCSS:
		return loc.Value, chromedp.ByQuery, nil
	case schemas.ByXPath:
		return loc.Value, chromedp.BySearch, nil
	case schemas.ByName:
		return nameSelector(loc.Value), chromedp.ByQuery, nil
	default:
		return "", nil, fmt.Errorf("unknown locator strategy %q", loc.Strategy)
	}
}

func nameSelector(name string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(name)
	return `[name="` + escaped + `"]`
}

// element is a handle to a DOM node found by a Session.
type element struct {
	session *Session
	node    *cdp.Node
	loc     schemas.Locator
}

var _ schemas.Element = (*element)(nil)

func (e *element) Find(ctx context.Context, loc schemas.Locator) (schemas.Element, error) {
	return e.session.find(ctx, loc, e.node)
}

func (e *element) SendKeys(ctx context.Context, text string) error {
	return e.do(ctx, "type into "+e.loc.String(),
		chromedp.SendKeys(e.ids(), text, chromedp.ByNodeID))
}

func (e *element) Click(ctx context.Context) error {
	return e.do(ctx, "click "+e.loc.String(),
		chromedp.Click(e.ids(), chromedp.ByNodeID))
}

func (e *element) Text(ctx context.Context) (string, error) {
	var text string
	err := e.do(ctx, "read "+e.loc.String(),
		chromedp.Text(e.ids(), &text, chromedp.ByNodeID))
	return text, err
}

func (e *element) ids() []cdp.NodeID {
	return []cdp.NodeID{e.node.NodeID}
}

func (e *element) do(ctx context.Context, op string, action chromedp.Action) error {
	err := e.session.withTimeout(ctx, func(opCtx context.Context) error {
		return e.session.runActions(opCtx, action)
	})
	if err != nil {
		return e.session.classify(ctx, err, schemas.ErrNotInteractable, op)
	}
	return nil
}
