package schemas

import (
	"fmt"
	"strings"
)

// -- Batch Schemas --

// TopUpEntry is one (phone number, top-up code) pair to be processed.
// Phone holds the normalized national dialing string (digits only).
type TopUpEntry struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// String renders the entry the way it appears in the audit log.
func (e TopUpEntry) String() string {
	return fmt.Sprintf("%s / %s", e.Phone, e.Code)
}

// Batch is the ordered set of entries submitted by the operator for one run.
// It must not be modified once execution starts.
type Batch struct {
	Organisation string       `json:"organisation"`
	Entries      []TopUpEntry `json:"entries"`
}

// Len returns the number of entries in the batch.
func (b Batch) Len() int { return len(b.Entries) }

// -- Outcome Schemas --

// OutcomeStatus is the terminal state of a single entry.
type OutcomeStatus string

const (
	StatusSuccess   OutcomeStatus = "success"
	StatusFailure   OutcomeStatus = "failure"
	StatusCancelled OutcomeStatus = "cancelled"
)

func (s OutcomeStatus) String() string { return string(s) }

// IsValid reports whether s is one of the known statuses.
func (s OutcomeStatus) IsValid() bool {
	switch s {
	case StatusSuccess, StatusFailure, StatusCancelled:
		return true
	}
	return false
}

// Outcome is the result of one workflow pass over an entry. Reason is only
// set for failures and carries the text displayed by the portal.
type Outcome struct {
	Entry  TopUpEntry    `json:"entry"`
	Status OutcomeStatus `json:"status"`
	Reason string        `json:"reason,omitempty"`
}

// Succeeded returns an outcome with StatusSuccess.
func Succeeded(e TopUpEntry) Outcome {
	return Outcome{Entry: e, Status: StatusSuccess}
}

// Failed returns an outcome with StatusFailure and the given reason.
func Failed(e TopUpEntry, reason string) Outcome {
	return Outcome{Entry: e, Status: StatusFailure, Reason: reason}
}

// Cancelled returns an outcome for an entry interrupted by the operator.
func Cancelled(e TopUpEntry) Outcome {
	return Outcome{Entry: e, Status: StatusCancelled}
}

// Summary is the running tally of a batch run.
type Summary struct {
	Total     int       `json:"total"`
	Succeeded int       `json:"succeeded"`
	Outcomes  []Outcome `json:"outcomes"`
}

// Attempted is the number of entries that produced an outcome.
func (s Summary) Attempted() int { return len(s.Outcomes) }

// Complete reports whether every entry in the batch was recharged.
func (s Summary) Complete() bool { return s.Total > 0 && s.Succeeded == s.Total }

// -- Retry Schemas --

// RetryDecision is the operator's answer to a recoverable failure.
type RetryDecision int

const (
	// DecisionCancel aborts the whole run.
	DecisionCancel RetryDecision = iota
	// DecisionRetry re-runs the step that failed.
	DecisionRetry
)

func (d RetryDecision) String() string {
	if d == DecisionRetry {
		return "retry"
	}
	return "cancel"
}

// -- Locator Schemas --

// LocatorStrategy selects how a Locator's value is interpreted by the driver.
type LocatorStrategy string

const (
	ByCSS   LocatorStrategy = "css"
	ByXPath LocatorStrategy = "xpath"
	ByName  LocatorStrategy = "name"
)

// Locator is an opaque selector supplied by configuration.
type Locator struct {
	Strategy LocatorStrategy `json:"strategy"`
	Value    string          `json:"value"`
}

// CSS, XPath and Name are shorthands for building locators in code.
func CSS(v string) Locator   { return Locator{Strategy: ByCSS, Value: v} }
func XPath(v string) Locator { return Locator{Strategy: ByXPath, Value: v} }
func Name(v string) Locator  { return Locator{Strategy: ByName, Value: v} }

func (l Locator) String() string {
	return string(l.Strategy) + ":" + l.Value
}

// ParseLocator reads a "strategy:value" string. Without a known prefix the
// value is treated as CSS, unless it starts with "/" or "(" which is XPath.
func ParseLocator(s string) (Locator, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Locator{}, fmt.Errorf("empty locator")
	}
	if prefix, rest, ok := strings.Cut(s, ":"); ok {
		switch LocatorStrategy(strings.ToLower(prefix)) {
		case ByCSS, ByXPath, ByName:
			rest = strings.TrimSpace(rest)
			if rest == "" {
				return Locator{}, fmt.Errorf("locator %q has no value", s)
			}
			return Locator{Strategy: LocatorStrategy(strings.ToLower(prefix)), Value: rest}, nil
		}
	}
	if strings.HasPrefix(s, "/") || strings.HasPrefix(s, "(") {
		return XPath(s), nil
	}
	return CSS(s), nil
}
