package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/teemow/calbook/internal/availability"
	"github.com/teemow/calbook/internal/booking"
	"github.com/teemow/calbook/internal/calendar"
	"github.com/teemow/calbook/internal/google"
	"github.com/teemow/calbook/internal/synthetic"
)

// EnvPrefix prefixes every environment variable, e.g. CALBOOK_MAX_SLOTS.
const EnvPrefix = "CALBOOK"

// SourceAuto selects the live source when a token is stored for the account
// and the synthetic source otherwise.
const SourceAuto = "auto"

// Config holds all calbook settings.
type Config struct {
	Source           string        `mapstructure:"source"`
	FallbackPolicy   string        `mapstructure:"fallback_policy"`
	FallbackOnCreate bool          `mapstructure:"fallback_on_create"`
	SlotDuration     time.Duration `mapstructure:"slot_duration"`
	MaxSlots         int           `mapstructure:"max_slots"`
	ProviderTimeout  time.Duration `mapstructure:"provider_timeout"`
	CalendarID       string        `mapstructure:"calendar_id"`
	Account          string        `mapstructure:"account"`
	TokenDir         string        `mapstructure:"token_dir"`

	LogFormat string `mapstructure:"log_format"`
	Debug     bool   `mapstructure:"debug"`

	Retry     RetryConfig     `mapstructure:"retry"`
	Synthetic SyntheticConfig `mapstructure:"synthetic"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Google    GoogleConfig    `mapstructure:"google"`
}

// RetryConfig bounds retries against the live provider.
type RetryConfig struct {
	MaxAttempts     int           `mapstructure:"max_attempts"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	MaxElapsed      time.Duration `mapstructure:"max_elapsed"`
}

// SyntheticConfig describes the blocked time of the synthetic source.
type SyntheticConfig struct {
	// Timezone anchors daily rules, e.g. "Europe/Berlin".
	Timezone string         `mapstructure:"timezone"`
	Seed     string         `mapstructure:"seed"`
	LinkBase string         `mapstructure:"link_base"`
	Daily    []DailyRule    `mapstructure:"daily"`
	Blocked  []BlockedRange `mapstructure:"blocked"`
}

// DailyRule blocks the same time range on every matching day.
type DailyRule struct {
	Label string `mapstructure:"label"`
	// Time is "HH:MM-HH:MM".
	Time     string   `mapstructure:"time"`
	Weekdays []string `mapstructure:"weekdays"`
}

// BlockedRange blocks an absolute range given as RFC 3339 timestamps.
type BlockedRange struct {
	Label string `mapstructure:"label"`
	Start string `mapstructure:"start"`
	End   string `mapstructure:"end"`
}

// HTTPConfig configures the JSON HTTP API.
type HTTPConfig struct {
	Addr      string  `mapstructure:"addr"`
	RateLimit float64 `mapstructure:"rate_limit"`
	Burst     int     `mapstructure:"burst"`
}

// GoogleConfig holds the OAuth client used for token refresh and `auth`.
type GoogleConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
}

// flagKeys maps command line flag names to config keys.
var flagKeys = map[string]string{
	"source":               "source",
	"fallback-policy":      "fallback_policy",
	"fallback-on-create":   "fallback_on_create",
	"slot-duration":        "slot_duration",
	"max-slots":            "max_slots",
	"provider-timeout":     "provider_timeout",
	"calendar-id":          "calendar_id",
	"account":              "account",
	"token-dir":            "token_dir",
	"log-format":           "log_format",
	"debug":                "debug",
	"http-addr":            "http.addr",
	"rate-limit":           "http.rate_limit",
	"burst":                "http.burst",
	"google-client-id":     "google.client_id",
	"google-client-secret": "google.client_secret",
}

// NewViper returns a viper instance with defaults and environment binding.
func NewViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The Google client is shared with other tools under its usual name.
	_ = v.BindEnv("google.client_id", EnvPrefix+"_GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_ID")
	_ = v.BindEnv("google.client_secret", EnvPrefix+"_GOOGLE_CLIENT_SECRET", "GOOGLE_CLIENT_SECRET")
	return v
}

func setDefaults(v *viper.Viper) {
	retry := calendar.DefaultRetryPolicy()
	rules := synthetic.DefaultRules()

	v.SetDefault("source", SourceAuto)
	v.SetDefault("fallback_policy", string(booking.PolicyPropagate))
	v.SetDefault("fallback_on_create", false)
	v.SetDefault("slot_duration", availability.DefaultSlotDuration)
	v.SetDefault("max_slots", 0)
	v.SetDefault("provider_timeout", calendar.DefaultTimeout)
	v.SetDefault("calendar_id", calendar.DefaultCalendarID)
	v.SetDefault("account", google.DefaultAccount)
	v.SetDefault("token_dir", "")
	v.SetDefault("log_format", "text")
	v.SetDefault("debug", false)

	v.SetDefault("retry.max_attempts", retry.MaxAttempts)
	v.SetDefault("retry.initial_interval", retry.InitialInterval)
	v.SetDefault("retry.max_interval", retry.MaxInterval)
	v.SetDefault("retry.max_elapsed", retry.MaxElapsed)

	v.SetDefault("synthetic.timezone", "UTC")
	v.SetDefault("synthetic.seed", rules.Seed)
	v.SetDefault("synthetic.link_base", rules.LinkBase)
	v.SetDefault("synthetic.daily", []map[string]any{
		{"label": "Lunch", "time": "12:00-13:00"},
	})

	v.SetDefault("http.addr", ":8000")
	v.SetDefault("http.rate_limit", 10.0)
	v.SetDefault("http.burst", 20)

	v.SetDefault("google.client_id", "")
	v.SetDefault("google.client_secret", "")
}

// BindFlags binds every known flag present in fs to its config key.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag --%s: %w", name, err)
		}
	}
	return nil
}

// LoadDotEnv loads environment variables from the given files, ".env" when
// none are given. Missing files are ignored; variables already set win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads the config file and unmarshals v. An empty configFile searches
// for calbook.yaml in the working directory and the user config directory;
// not finding one is not an error.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("calbook")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "calbook"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that are not validated when the service is built.
func (c *Config) Validate() error {
	switch c.Source {
	case SourceAuto, booking.SourceLive, booking.SourceSynthetic:
	default:
		return fmt.Errorf("invalid source %q, must be auto, live or synthetic", c.Source)
	}
	if _, err := booking.ParseFallbackPolicy(c.FallbackPolicy); err != nil {
		return err
	}
	if c.MaxSlots < 0 {
		return fmt.Errorf("max_slots must not be negative, got %d", c.MaxSlots)
	}
	if c.SlotDuration < 0 {
		return fmt.Errorf("slot_duration must not be negative, got %s", c.SlotDuration)
	}
	if err := google.ValidateAccountName(c.Account); err != nil {
		return err
	}
	if c.HTTP.RateLimit < 0 || c.HTTP.Burst < 0 {
		return fmt.Errorf("http rate limit and burst must not be negative")
	}
	return nil
}

// Policy returns the parsed fallback policy.
func (c *Config) Policy() booking.FallbackPolicy {
	p, _ := booking.ParseFallbackPolicy(c.FallbackPolicy)
	return p
}

// RetryPolicy converts the retry settings.
func (c *Config) RetryPolicy() calendar.RetryPolicy {
	return calendar.RetryPolicy{
		MaxAttempts:     c.Retry.MaxAttempts,
		InitialInterval: c.Retry.InitialInterval,
		MaxInterval:     c.Retry.MaxInterval,
		MaxElapsed:      c.Retry.MaxElapsed,
	}
}

// Credentials returns the Google OAuth client credentials.
func (c *Config) Credentials() google.Credentials {
	return google.Credentials{ClientID: c.Google.ClientID, ClientSecret: c.Google.ClientSecret}
}

// ResolvedTokenDir returns TokenDir or the default token directory.
func (c *Config) ResolvedTokenDir() string {
	if c.TokenDir != "" {
		return c.TokenDir
	}
	return google.DefaultTokenDir()
}

// SyntheticRules converts the synthetic settings into rules.
func (c *Config) SyntheticRules() (synthetic.Rules, error) {
	sc := c.Synthetic
	rules := synthetic.Rules{Seed: sc.Seed, LinkBase: sc.LinkBase, Location: time.UTC}

	if sc.Timezone != "" {
		loc, err := time.LoadLocation(sc.Timezone)
		if err != nil {
			return synthetic.Rules{}, fmt.Errorf("invalid synthetic timezone %q: %w", sc.Timezone, err)
		}
		rules.Location = loc
	}

	for _, d := range sc.Daily {
		block, err := synthetic.ParseDailyBlock(d.Label, d.Time)
		if err != nil {
			return synthetic.Rules{}, err
		}
		if block.Weekdays, err = synthetic.ParseWeekdays(d.Weekdays); err != nil {
			return synthetic.Rules{}, fmt.Errorf("daily block %q: %w", d.Label, err)
		}
		rules.Daily = append(rules.Daily, block)
	}

	for _, b := range sc.Blocked {
		start, err := booking.ParseTimestamp(b.Start)
		if err != nil {
			return synthetic.Rules{}, fmt.Errorf("blocked range %q: %w", b.Label, err)
		}
		end, err := booking.ParseTimestamp(b.End)
		if err != nil {
			return synthetic.Rules{}, fmt.Errorf("blocked range %q: %w", b.Label, err)
		}
		rules.Blocked = append(rules.Blocked, synthetic.Block{Label: b.Label, Start: start, End: end})
	}

	return rules, rules.Validate()
}
