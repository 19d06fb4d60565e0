package app

import (
	"fmt"
	"os"
	"time"

	"trendlens-backend/internal/components/telemetry"
	"trendlens-backend/internal/components/throttle"
	"trendlens-backend/internal/opportunity"
	"trendlens-backend/internal/scrapers/stock"
	"trendlens-backend/pkg/configutil"
)

const ConfigFile = "trendlens.json5"

// SecondsRange is a delay range in seconds.
type SecondsRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func (r SecondsRange) Range() throttle.Range {
	return throttle.Seconds(r.Min, r.Max)
}

// DelaysConfig leaves a range nil to use its default, an explicit {min: 0, max: 0} disables
// the delay.
type DelaysConfig struct {
	Page   *SecondsRange `json:"page"`
	Demand *SecondsRange `json:"demand"`
	Render *SecondsRange `json:"render"`
}

type TimeoutsConfig struct {
	DemandSeconds  float64 `json:"demand_seconds"`
	FetchSeconds   float64 `json:"fetch_seconds"`
	BrowserSeconds float64 `json:"browser_seconds"`
}

type TrendsConfig struct {
	BaseUrl  string `json:"base_url"`
	Language string `json:"language"`
	// TzOffset is nil for the default, 0 is UTC.
	TzOffset *int `json:"tz_offset"`
}

// ThresholdsConfig leaves a field nil to use its default, so that min_demand: 0 stays
// expressible.
type ThresholdsConfig struct {
	MinDemand      *int   `json:"min_demand"`
	MaxCompetition *int64 `json:"max_competition"`
}

// Thresholds must be called on a config with defaults applied.
func (t ThresholdsConfig) Thresholds() opportunity.Thresholds {
	return opportunity.Thresholds{
		MinDemand:      *t.MinDemand,
		MaxCompetition: *t.MaxCompetition,
	}
}

type BrowserConfig struct {
	Headful   bool   `json:"headful"`
	Bin       string `json:"bin"`
	NoSandbox bool   `json:"no_sandbox"`
}

type LogConfig struct {
	Level string `json:"level"`
	Json  bool   `json:"json"`
}

type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type Config struct {
	Keywords []string `json:"keywords"`
	// KeywordsFile is read when Keywords is empty, one keyword per line.
	KeywordsFile string `json:"keywords_file"`

	Source          string                 `json:"source"`
	SecondarySource string                 `json:"secondary_source"`
	SkipEmpty       bool                   `json:"skip_empty"`
	Workers         int                    `json:"workers"`
	Thresholds      ThresholdsConfig       `json:"thresholds"`
	// MinIntervalSeconds is the minimum spacing of any two outbound requests across workers.
	MinIntervalSeconds float64 `json:"min_interval_seconds"`

	Delays   DelaysConfig   `json:"delays"`
	Timeouts TimeoutsConfig `json:"timeouts"`

	Trends         TrendsConfig      `json:"trends"`
	Browser        BrowserConfig     `json:"browser"`
	SourceBaseUrls map[string]string `json:"source_base_urls"`

	DisableCloudflareBypass bool `json:"disable_cloudflare_bypass"`
	// RandomUserAgents draws user agents from a large public list instead of the built-in pool.
	RandomUserAgents bool     `json:"random_user_agents"`
	UserAgents       []string `json:"user_agents"`

	// DumpDir, when set, receives a copy of every http response, see pkg/restyutil.
	DumpDir string `json:"dump_dir"`

	Log       LogConfig        `json:"log"`
	Telemetry telemetry.Config `json:"telemetry"`
	Server    ServerConfig     `json:"server"`
}

var (
	defaultPageDelay   = SecondsRange{Min: 1, Max: 4}
	defaultDemandDelay = SecondsRange{Min: 8, Max: 12}
	defaultRenderDelay = SecondsRange{Min: 4, Max: 6}
	defaultTzOffset    = 360
)

// WithDefaults fills every unset field.
func (c Config) WithDefaults() Config {
	if c.Source == "" {
		c.Source = string(stock.Shutterstock)
	}
	if c.Workers == 0 {
		c.Workers = 1
	}
	if c.Thresholds.MinDemand == nil {
		v := opportunity.DefaultThresholds.MinDemand
		c.Thresholds.MinDemand = &v
	}
	if c.Thresholds.MaxCompetition == nil {
		v := opportunity.DefaultThresholds.MaxCompetition
		c.Thresholds.MaxCompetition = &v
	}
	if c.Delays.Page == nil {
		r := defaultPageDelay
		c.Delays.Page = &r
	}
	if c.Delays.Demand == nil {
		r := defaultDemandDelay
		c.Delays.Demand = &r
	}
	if c.Delays.Render == nil {
		r := defaultRenderDelay
		c.Delays.Render = &r
	}
	if c.Timeouts.DemandSeconds == 0 {
		c.Timeouts.DemandSeconds = 30
	}
	if c.Timeouts.FetchSeconds == 0 {
		c.Timeouts.FetchSeconds = 30
	}
	if c.Timeouts.BrowserSeconds == 0 {
		c.Timeouts.BrowserSeconds = 90
	}
	if c.Trends.Language == "" {
		c.Trends.Language = "en-US"
	}
	if c.Trends.TzOffset == nil {
		v := defaultTzOffset
		c.Trends.TzOffset = &v
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	return c
}

func (c Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.MinIntervalSeconds < 0 {
		return fmt.Errorf("min interval must not be negative")
	}
	if c.Thresholds.MinDemand == nil || c.Thresholds.MaxCompetition == nil || c.Trends.TzOffset == nil {
		return fmt.Errorf("config is missing defaults")
	}
	err := c.Thresholds.Thresholds().Validate()
	if err != nil {
		return fmt.Errorf("thresholds: %w", err)
	}
	for name, r := range map[string]*SecondsRange{
		"page":   c.Delays.Page,
		"demand": c.Delays.Demand,
		"render": c.Delays.Render,
	} {
		if r == nil {
			continue
		}
		err := r.Range().Validate()
		if err != nil {
			return fmt.Errorf("%s delay: %w", name, err)
		}
	}
	if c.Timeouts.DemandSeconds <= 0 || c.Timeouts.FetchSeconds <= 0 || c.Timeouts.BrowserSeconds <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	return nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// LoadConfig reads trendlens.json5 (and its local override) from the working directory or
// one of its parents. A missing file yields the defaults.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	var err error
	if path == "" {
		cfg, err = configutil.ReadRecursively[Config](ConfigFile)
	} else {
		cfg, err = configutil.ReadConfig[Config](path)
	}
	if err != nil && !os.IsNotExist(err) {
		return Config{}, err
	}

	cfg = cfg.WithDefaults()
	err = cfg.Validate()
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadKeywords returns the configured keywords, falling back to the keywords file and then
// to the default list.
func (c Config) LoadKeywords() ([]string, error) {
	if len(c.Keywords) > 0 {
		return c.Keywords, nil
	}
	if c.KeywordsFile != "" {
		f, err := os.Open(c.KeywordsFile)
		if err != nil {
			return nil, fmt.Errorf("open keywords file: %w", err)
		}
		defer f.Close()
		return opportunity.ParseKeywords(f)
	}
	return opportunity.DefaultKeywords, nil
}

func (c Config) RunConfig() opportunity.RunConfig {
	return opportunity.RunConfig{
		Thresholds: c.Thresholds.Thresholds(),
		Primary:    stock.SourceID(c.Source),
		Secondary:  stock.SourceID(c.SecondarySource),
		SkipEmpty:  c.SkipEmpty,
		Workers:    c.Workers,
	}
}
