// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/xkilldash9x/recharge-cli/api/schemas"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Audit() AuditConfig
	Browser() BrowserConfig
	Workflow() WorkflowConfig
	Selectors() SelectorsConfig
	Phone() PhoneConfig
	Prompt() PromptConfig

	// Flag overrides
	SetBrowserHeadless(bool)
	SetWorkflowURL(string)
	SetRetryMaxAttempts(int)
	SetPromptMode(string)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	AuditCfg     AuditConfig     `mapstructure:"audit" yaml:"audit"`
	BrowserCfg   BrowserConfig   `mapstructure:"browser" yaml:"browser"`
	WorkflowCfg  WorkflowConfig  `mapstructure:"workflow" yaml:"workflow"`
	SelectorsCfg SelectorsConfig `mapstructure:"selectors" yaml:"selectors"`
	PhoneCfg     PhoneConfig     `mapstructure:"phone" yaml:"phone"`
	PromptCfg    PromptConfig    `mapstructure:"prompt" yaml:"prompt"`
}

var _ Interface = (*Config)(nil)

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig       { return c.LoggerCfg }
func (c *Config) Audit() AuditConfig         { return c.AuditCfg }
func (c *Config) Browser() BrowserConfig     { return c.BrowserCfg }
func (c *Config) Workflow() WorkflowConfig   { return c.WorkflowCfg }
func (c *Config) Selectors() SelectorsConfig { return c.SelectorsCfg }
func (c *Config) Phone() PhoneConfig         { return c.PhoneCfg }
func (c *Config) Prompt() PromptConfig       { return c.PromptCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetBrowserHeadless(b bool) { c.BrowserCfg.Headless = b }
func (c *Config) SetWorkflowURL(u string)   { c.WorkflowCfg.URL = u }
func (c *Config) SetRetryMaxAttempts(n int) { c.WorkflowCfg.Retry.MaxAttempts = n }
func (c *Config) SetPromptMode(mode string) { c.PromptCfg.Mode = mode }

// LoggerConfig holds all the configuration for the operational logger.
// Level applies to the file output, ConsoleLevel to the terminal.
type LoggerConfig struct {
	Level        string      `mapstructure:"level" yaml:"level"`
	ConsoleLevel string      `mapstructure:"console_level" yaml:"console_level"`
	Format       string      `mapstructure:"format" yaml:"format"`
	AddSource    bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName  string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile      string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize      int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups   int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge       int         `mapstructure:"max_age" yaml:"max_age"`
	Compress     bool        `mapstructure:"compress" yaml:"compress"`
	Colors       ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// AuditConfig configures the append-only results log.
type AuditConfig struct {
	LogFile    string `mapstructure:"log_file" yaml:"log_file"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// BrowserConfig holds settings for the browser instance driving the portal.
// LaunchTimeout bounds the initial about:blank liveness probe.
type BrowserConfig struct {
	Headless      bool           `mapstructure:"headless" yaml:"headless"`
	DisableCache  bool           `mapstructure:"disable_cache" yaml:"disable_cache"`
	ExecPath      string         `mapstructure:"exec_path" yaml:"exec_path"`
	UserDataDir   string         `mapstructure:"user_data_dir" yaml:"user_data_dir"`
	Args          []string       `mapstructure:"args" yaml:"args"`
	Viewport      map[string]int `mapstructure:"viewport" yaml:"viewport"`
	LaunchTimeout time.Duration  `mapstructure:"launch_timeout" yaml:"launch_timeout"`
}

// WorkflowConfig tunes the per-entry recharge sequence.
type WorkflowConfig struct {
	URL                string        `mapstructure:"url" yaml:"url"`
	SettleInterval     time.Duration `mapstructure:"settle_interval" yaml:"settle_interval"`
	PacingMin          time.Duration `mapstructure:"pacing_min" yaml:"pacing_min"`
	PacingMax          time.Duration `mapstructure:"pacing_max" yaml:"pacing_max"`
	InteractionTimeout time.Duration `mapstructure:"interaction_timeout" yaml:"interaction_timeout"`
	NavigationTimeout  time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	Retry              RetryConfig   `mapstructure:"retry" yaml:"retry"`
}

// RetryConfig is the retry policy applied at every page step.
// MaxAttempts of 0 means the operator is asked indefinitely.
type RetryConfig struct {
	MaxAttempts int `mapstructure:"max_attempts" yaml:"max_attempts"`
}

// SelectorsConfig holds the opaque locators of the portal's page elements.
// Values use the "css:", "xpath:" or "name:" prefix understood by
// schemas.ParseLocator.
type SelectorsConfig struct {
	CookieConsent string `mapstructure:"cookie_consent" yaml:"cookie_consent"`
	LineForm      string `mapstructure:"line_form" yaml:"line_form"`
	PhoneField    string `mapstructure:"phone_field" yaml:"phone_field"`
	PhoneSubmit   string `mapstructure:"phone_submit" yaml:"phone_submit"`
	CodeField     string `mapstructure:"code_field" yaml:"code_field"`
	CodeSubmit    string `mapstructure:"code_submit" yaml:"code_submit"`
	InvalidMarker string `mapstructure:"invalid_marker" yaml:"invalid_marker"`
}

// Locators is the parsed form of SelectorsConfig.
type Locators struct {
	CookieConsent schemas.Locator
	LineForm      schemas.Locator
	PhoneField    schemas.Locator
	PhoneSubmit   schemas.Locator
	CodeField     schemas.Locator
	CodeSubmit    schemas.Locator
	InvalidMarker schemas.Locator
}

// Parse converts every configured selector into a locator.
func (s SelectorsConfig) Parse() (Locators, error) {
	var out Locators
	fields := []struct {
		key string
		raw string
		dst *schemas.Locator
	}{
		{"cookie_consent", s.CookieConsent, &out.CookieConsent},
		{"line_form", s.LineForm, &out.LineForm},
		{"phone_field", s.PhoneField, &out.PhoneField},
		{"phone_submit", s.PhoneSubmit, &out.PhoneSubmit},
		{"code_field", s.CodeField, &out.CodeField},
		{"code_submit", s.CodeSubmit, &out.CodeSubmit},
		{"invalid_marker", s.InvalidMarker, &out.InvalidMarker},
	}
	for _, f := range fields {
		loc, err := schemas.ParseLocator(f.raw)
		if err != nil {
			return Locators{}, fmt.Errorf("selectors.%s: %w", f.key, err)
		}
		*f.dst = loc
	}
	return out, nil
}

// PhoneConfig selects the numbering plan used to validate lines.
type PhoneConfig struct {
	Region string `mapstructure:"region" yaml:"region"`
}

// PromptConfig controls how the operator is asked for input.
// Mode is one of "auto", "tui" or "plain".
type PromptConfig struct {
	Mode    string `mapstructure:"mode" yaml:"mode"`
	AppName string `mapstructure:"app_name" yaml:"app_name"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "debug")
	v.SetDefault("logger.console_level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "recharge")
	v.SetDefault("logger.log_file", "logs/recharge.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 30)
	v.SetDefault("logger.max_age", 90)
	v.SetDefault("logger.compress", false)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")

	// -- Audit --
	v.SetDefault("audit.log_file", "logs/resultats_recharge.log")
	v.SetDefault("audit.max_backups", 0)
	v.SetDefault("audit.max_age", 0)
	v.SetDefault("audit.compress", false)

	// -- Browser --
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.disable_cache", true)
	v.SetDefault("browser.viewport", map[string]int{"width": 1024, "height": 950})
	v.SetDefault("browser.launch_timeout", "30s")

	// -- Workflow --
	v.SetDefault("workflow.url", "https://www.sfr.fr/espace-client/rechargement/saisie-ligne.html")
	v.SetDefault("workflow.settle_interval", "1s")
	v.SetDefault("workflow.pacing_min", "640ms")
	v.SetDefault("workflow.pacing_max", "1280ms")
	v.SetDefault("workflow.interaction_timeout", "5s")
	v.SetDefault("workflow.navigation_timeout", "90s")
	v.SetDefault("workflow.retry.max_attempts", 0)

	// -- Selectors --
	v.SetDefault("selectors.cookie_consent", "css:#CkC > div > a.A")
	v.SetDefault("selectors.line_form", "xpath://*[@id='chooseLineForm']")
	v.SetDefault("selectors.phone_field", "name:lineToBeRecharged")
	v.SetDefault("selectors.phone_submit", "css:#valider_ligne_btn")
	v.SetDefault("selectors.code_field", "name:codeCoupon")
	v.SetDefault("selectors.code_submit", "css:#code_coupon_btn_valider")
	v.SetDefault("selectors.invalid_marker", "css:.nonValide")

	// -- Phone --
	v.SetDefault("phone.region", "FR")

	// -- Prompt --
	v.SetDefault("prompt.mode", "auto")
	v.SetDefault("prompt.app_name", "Recharges")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// expandPaths resolves "~" in every file system path of the config.
func (c *Config) expandPaths() error {
	paths := []*string{
		&c.LoggerCfg.LogFile,
		&c.AuditCfg.LogFile,
		&c.BrowserCfg.ExecPath,
		&c.BrowserCfg.UserDataDir,
	}
	for _, p := range paths {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("failed to expand path %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.AuditCfg.LogFile == "" {
		return fmt.Errorf("audit.log_file is a required configuration field")
	}
	if err := c.WorkflowCfg.Validate(); err != nil {
		return fmt.Errorf("workflow configuration invalid: %w", err)
	}
	if _, err := c.SelectorsCfg.Parse(); err != nil {
		return err
	}
	if c.PhoneCfg.Region == "" {
		return fmt.Errorf("phone.region is a required configuration field")
	}
	switch strings.ToLower(c.PromptCfg.Mode) {
	case "auto", "tui", "plain":
	default:
		return fmt.Errorf("prompt.mode must be one of auto, tui, plain (got %q)", c.PromptCfg.Mode)
	}
	return nil
}

// Validate checks the workflow timings and retry policy.
func (w *WorkflowConfig) Validate() error {
	if w.URL == "" {
		return fmt.Errorf("url is required")
	}
	if w.SettleInterval < 0 {
		return fmt.Errorf("settle_interval must not be negative")
	}
	if w.PacingMin < 0 || w.PacingMax < w.PacingMin {
		return fmt.Errorf("pacing_min must be non-negative and not exceed pacing_max")
	}
	if w.InteractionTimeout <= 0 {
		return fmt.Errorf("interaction_timeout must be a positive duration")
	}
	if w.Retry.MaxAttempts < 0 {
		return fmt.Errorf("retry.max_attempts must be 0 (unbounded) or positive")
	}
	return nil
}
