// File: internal/mocks/mocks.go
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/recharge-cli/api/schemas"
	"github.com/xkilldash9x/recharge-cli/internal/config"
)

// -- Config Mock --

// MockConfig mocks the config.Interface.
type MockConfig struct {
	mock.Mock
}

var _ config.Interface = (*MockConfig)(nil)

// --- Getters ---

func (m *MockConfig) Logger() config.LoggerConfig {
	args := m.Called()
	return args.Get(0).(config.LoggerConfig)
}

func (m *MockConfig) Audit() config.AuditConfig {
	args := m.Called()
	return args.Get(0).(config.AuditConfig)
}

func (m *MockConfig) Browser() config.BrowserConfig {
	args := m.Called()
	return args.Get(0).(config.BrowserConfig)
}

func (m *MockConfig) Workflow() config.WorkflowConfig {
	args := m.Called()
	return args.Get(0).(config.WorkflowConfig)
}

func (m *MockConfig) Selectors() config.SelectorsConfig {
	args := m.Called()
	return args.Get(0).(config.SelectorsConfig)
}

func (m *MockConfig) Phone() config.PhoneConfig {
	args := m.Called()
	return args.Get(0).(config.PhoneConfig)
}

func (m *MockConfig) Prompt() config.PromptConfig {
	args := m.Called()
	return args.Get(0).(config.PromptConfig)
}

// --- Setters ---

func (m *MockConfig) SetBrowserHeadless(b bool) {
	m.Called(b)
}

func (m *MockConfig) SetWorkflowURL(u string) {
	m.Called(u)
}

func (m *MockConfig) SetRetryMaxAttempts(n int) {
	m.Called(n)
}

func (m *MockConfig) SetPromptMode(mode string) {
	m.Called(mode)
}

// -- Page Mock --

// MockPage mocks schemas.Page.
type MockPage struct {
	mock.Mock
}

var _ schemas.Page = (*MockPage)(nil)

func (m *MockPage) Navigate(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}

func (m *MockPage) Find(ctx context.Context, loc schemas.Locator) (schemas.Element, error) {
	args := m.Called(ctx, loc)
	if el := args.Get(0); el != nil {
		return el.(schemas.Element), args.Error(1)
	}
	return nil, args.Error(1)
}

// -- Element Mock --

// MockElement mocks schemas.Element.
type MockElement struct {
	mock.Mock
}

var _ schemas.Element = (*MockElement)(nil)

func (m *MockElement) Find(ctx context.Context, loc schemas.Locator) (schemas.Element, error) {
	args := m.Called(ctx, loc)
	if el := args.Get(0); el != nil {
		return el.(schemas.Element), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockElement) SendKeys(ctx context.Context, text string) error {
	return m.Called(ctx, text).Error(0)
}

func (m *MockElement) Click(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockElement) Text(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// -- Operator Mock --

// MockOperator mocks schemas.Operator.
type MockOperator struct {
	mock.Mock
}

var _ schemas.Operator = (*MockOperator)(nil)

func (m *MockOperator) AskBatch(ctx context.Context, title string) (string, bool, error) {
	args := m.Called(ctx, title)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockOperator) AskOrganisation(ctx context.Context, title string) (string, bool, error) {
	args := m.Called(ctx, title)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockOperator) ShowError(ctx context.Context, message string) error {
	return m.Called(ctx, message).Error(0)
}

func (m *MockOperator) AskRetry(ctx context.Context, message string) (schemas.RetryDecision, error) {
	args := m.Called(ctx, message)
	return args.Get(0).(schemas.RetryDecision), args.Error(1)
}
