package config

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
)

// Adapter names known to the configuration.
const (
	SourceRemoteOK = "remoteok"
	SourceTechJobs = "techjobsforgood"
	SourceIdealist = "idealist"
	SourceHH       = "hh"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	DefaultThreshold   = 80
	DefaultRunDeadline = 10 * time.Minute
	DefaultRPS         = 1.0
	DefaultKeyword     = "analytics"

	DefaultCriteria = `- Analytics or data roles
- Nonprofit, public interest, or mission-driven organizations
- Remote or NYC-based
- Skills in SQL, Tableau, data storytelling`
)

// Config is built once at start and passed to every component.
type Config struct {
	UserAgent   string        `mapstructure:"user-agent" json:"user-agent"`
	Criteria    string        `mapstructure:"criteria" json:"criteria"`
	Threshold   *int          `mapstructure:"threshold" json:"threshold"`
	RunDeadline time.Duration `mapstructure:"run-deadline" json:"run-deadline"`
	MaxParallel int           `mapstructure:"max-parallel" json:"max-parallel"`
	AutoApprove bool          `mapstructure:"auto-approve" json:"auto-approve"`
	// DisableFilters lists filter steps to skip, for example excluded_companies.
	DisableFilters []string `mapstructure:"disable-filters" json:"disable-filters"`

	Oracle  *OracleConfig            `mapstructure:"oracle" json:"oracle"`
	Sink    *SinkConfig              `mapstructure:"sink" json:"sink"`
	Exclude *ExcludeConfig           `mapstructure:"exclude" json:"exclude"`
	Sources map[string]*SourceConfig `mapstructure:"sources" json:"sources"`
}

type OracleConfig struct {
	Provider string `mapstructure:"provider" json:"provider"`
	Model    string `mapstructure:"model" json:"model"`
	// Endpoint overrides the chat completions URL of the openai provider.
	Endpoint      string `mapstructure:"endpoint" json:"endpoint"`
	APIKey        string `mapstructure:"api-key" json:"-"`
	APIKeyFile    string `mapstructure:"api-key-file" json:"api-key-file"`
	APIKeyKeyring string `mapstructure:"api-key-keyring" json:"api-key-keyring"`
	MaxRetries    int    `mapstructure:"max-retries" json:"max-retries"`
	MaxLogLength  int    `mapstructure:"max-log-length" json:"max-log-length"`
}

type SinkConfig struct {
	URL     string        `mapstructure:"url" json:"url"`
	Timeout time.Duration `mapstructure:"timeout" json:"timeout"`
}

type ExcludeConfig struct {
	Companies []string `mapstructure:"companies" json:"companies"`
}

type SourceConfig struct {
	Enabled   *bool    `mapstructure:"enabled" json:"enabled"`
	BaseURL   string   `mapstructure:"base-url" json:"base-url"`
	Keywords  []string `mapstructure:"keywords" json:"keywords"`
	Locations []string `mapstructure:"locations" json:"locations"`
	// Areas are hh.ru area ids.
	Areas     []int         `mapstructure:"areas" json:"areas"`
	Schedules []string      `mapstructure:"schedules" json:"schedules"`
	Timeout   time.Duration `mapstructure:"timeout" json:"timeout"`
	// RequestTimeout bounds a single HTTP request of the adapter.
	RequestTimeout time.Duration `mapstructure:"request-timeout" json:"request-timeout"`
	Pages          int           `mapstructure:"pages" json:"pages"`
	// Render loads pages with a headless browser (idealist).
	Render            bool    `mapstructure:"render" json:"render"`
	RequestsPerSecond float64 `mapstructure:"requests-per-second" json:"requests-per-second"`
	TokenFile         string  `mapstructure:"token-file" json:"token-file"`
}

// IsEnabled reports whether the adapter should run.
func (s *SourceConfig) IsEnabled() bool {
	return s != nil && s.Enabled != nil && *s.Enabled
}

// KnownSources lists adapters in their declared order.
func KnownSources() []string {
	return []string{SourceRemoteOK, SourceTechJobs, SourceIdealist, SourceHH}
}

func defaultEnabled(name string) bool {
	// hh.ru is opt-in.
	return name != SourceHH
}

// SetDefaults fills every unset value.
func (c *Config) SetDefaults() {
	if strings.TrimSpace(c.Criteria) == "" {
		c.Criteria = DefaultCriteria
	}
	if c.Threshold == nil {
		threshold := DefaultThreshold
		c.Threshold = &threshold
	}
	if c.RunDeadline <= 0 {
		c.RunDeadline = DefaultRunDeadline
	}

	if c.Oracle == nil {
		c.Oracle = &OracleConfig{}
	}
	c.Oracle.Provider = strings.ToLower(strings.TrimSpace(c.Oracle.Provider))
	if c.Oracle.Provider == "" {
		c.Oracle.Provider = ProviderOpenAI
	}

	if c.Sink == nil {
		c.Sink = &SinkConfig{}
	}
	if c.Exclude == nil {
		c.Exclude = &ExcludeConfig{}
	}

	if c.Sources == nil {
		c.Sources = make(map[string]*SourceConfig)
	}
	for _, name := range KnownSources() {
		src := c.Sources[name]
		if src == nil {
			src = &SourceConfig{}
			c.Sources[name] = src
		}
		if src.Enabled == nil {
			enabled := defaultEnabled(name)
			src.Enabled = &enabled
		}
		if len(src.Keywords) == 0 {
			src.Keywords = []string{DefaultKeyword}
		}
		if src.Pages <= 0 {
			src.Pages = 1
		}
		if src.RequestsPerSecond == 0 {
			src.RequestsPerSecond = DefaultRPS
		}
	}

	if c.MaxParallel <= 0 {
		c.MaxParallel = len(c.EnabledSources())
	}
}

// EnabledSources returns enabled adapter names in declared order.
func (c *Config) EnabledSources() []string {
	var names []string
	for _, name := range KnownSources() {
		if c.Sources[name].IsEnabled() {
			names = append(names, name)
		}
	}
	return names
}

// MinimumScore returns the configured threshold.
func (c *Config) MinimumScore() int {
	if c.Threshold == nil {
		return DefaultThreshold
	}
	return *c.Threshold
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if score := c.MinimumScore(); score < 0 || score > 100 {
		errs = append(errs, fmt.Errorf("threshold must be within 0..100, got %d", score))
	}

	switch c.Oracle.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		errs = append(errs, fmt.Errorf("unsupported oracle provider %q", c.Oracle.Provider))
	}

	if strings.TrimSpace(c.Sink.URL) == "" {
		errs = append(errs, errors.New("sink.url is required"))
	} else if u, err := url.Parse(c.Sink.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("sink.url %q is not an absolute http(s) url", c.Sink.URL))
	}

	if err := c.ValidateSources(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// ValidateSources checks only the source section, which is enough to list adapters.
func (c *Config) ValidateSources() error {
	var errs []error

	var unknown []string
	for name := range c.Sources {
		if !isKnown(name) {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		errs = append(errs, fmt.Errorf("unknown sources: %s", strings.Join(unknown, ", ")))
	}

	if len(c.EnabledSources()) == 0 {
		errs = append(errs, errors.New("at least one source must be enabled"))
	}

	if hh := c.Sources[SourceHH]; hh.IsEnabled() && len(hh.Areas) == 0 && len(hh.Locations) > 0 {
		errs = append(errs, errors.New("sources.hh uses areas, not locations"))
	}

	return errors.Join(errs...)
}

func isKnown(name string) bool {
	for _, known := range KnownSources() {
		if name == known {
			return true
		}
	}
	return false
}
