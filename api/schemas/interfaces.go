package schemas

import (
	"context"
)

// -- Browser Interfaces --

// Page is the browser capability the recharge workflow depends on. Every
// lookup queries the live document; implementations must not cache handles
// between calls.
//
//go:generate mockery --name Page --output ../../internal/mocks --outpkg mocks
type Page interface {
	// Navigate loads url and returns once the navigation has committed.
	Navigate(ctx context.Context, url string) error
	// Find returns the first element matching loc, or ErrElementNotFound.
	Find(ctx context.Context, loc Locator) (Element, error)
}

// Element is a handle to a node found on the current page. A handle is only
// valid until the next navigation.
//
//go:generate mockery --name Element --output ../../internal/mocks --outpkg mocks
type Element interface {
	// Find looks up a descendant of this element.
	Find(ctx context.Context, loc Locator) (Element, error)
	// SendKeys types text into the element. ErrNotInteractable if it cannot
	// receive input.
	SendKeys(ctx context.Context, text string) error
	// Click clicks the element. ErrNotInteractable if it cannot be clicked.
	Click(ctx context.Context) error
	// Text returns the element's rendered text.
	Text(ctx context.Context) (string, error)
}

// -- Operator Interfaces --

// Operator is the human in the loop. All methods block until the operator
// answers or ctx is done.
//
//go:generate mockery --name Operator --output ../../internal/mocks --outpkg mocks
type Operator interface {
	// AskBatch collects the raw tab-separated batch text. ok is false when the
	// operator dismissed the dialog without entering anything.
	AskBatch(ctx context.Context, title string) (text string, ok bool, err error)
	// AskOrganisation collects the organisation name used to label the audit log.
	AskOrganisation(ctx context.Context, title string) (name string, ok bool, err error)
	// ShowError notifies the operator of a recoverable input problem.
	ShowError(ctx context.Context, message string) error
	// AskRetry asks whether the failed step should be retried.
	AskRetry(ctx context.Context, message string) (RetryDecision, error)
}
