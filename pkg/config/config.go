// Package config loads the YAML description of a SimplexSS process: tick
// rate, logging, metrics, the optional Redis journal, and the pools with
// their services.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	sserrors "github.com/SimplexDevelopment/SimplexSS/pkg/common/errors"
	"github.com/SimplexDevelopment/SimplexSS/pkg/common/validation"
	"github.com/SimplexDevelopment/SimplexSS/pkg/host"
	"github.com/SimplexDevelopment/SimplexSS/pkg/scheduling/scheduler"
	"github.com/SimplexDevelopment/SimplexSS/pkg/service"
)

const (
	DefaultTickInterval = "50ms"
	DefaultLogLevel     = "info"
	DefaultMetricsAddr  = ":9090"
	DefaultJournalKey   = "simplexss:activations"
)

const sample = `# simplexss process configuration
tick_interval: 50ms

logging:
  level: info
  console: true

metrics:
  enabled: true
  addr: ":9090"

# journal:
#   redis_addr: localhost:6379
#   key: simplexss:activations
#   max_len: 10000

pools:
  - name: world
    strategy: host-thread
    services:
      - name: heartbeat
        period: 1s
      - name: autosave
        delay: 10s
        every: "@every 5m"
  - name: background
    strategy: parallel
    max_workers: 2
    services:
      - name: cleanup
        delay: 2s
`

// Config models the process configuration file.
type Config struct {
	TickInterval string        `yaml:"tick_interval"`
	Logging      LoggingConfig `yaml:"logging"`
	Metrics      MetricsConfig `yaml:"metrics"`
	Journal      JournalConfig `yaml:"journal"`
	Pools        []PoolConfig  `yaml:"pools"`
}

type LoggingConfig struct {
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr,omitempty"`
}

// JournalConfig enables the Redis activation journal when RedisAddr is set.
type JournalConfig struct {
	RedisAddr string `yaml:"redis_addr,omitempty"`
	Key       string `yaml:"key,omitempty"`
	MaxLen    int64  `yaml:"max_len,omitempty"`
}

// Enabled reports whether a journal is configured.
func (j JournalConfig) Enabled() bool { return j.RedisAddr != "" }

// PoolConfig declares one pool.
type PoolConfig struct {
	Name       string          `yaml:"name"`
	Strategy   string          `yaml:"strategy"`
	MaxWorkers int             `yaml:"max_workers,omitempty"`
	Services   []ServiceConfig `yaml:"services"`
}

// ServiceConfig declares one service. Delay and Period are Go durations
// converted to ticks; Every is a cron "@every" descriptor.
type ServiceConfig struct {
	Name          string `yaml:"name"`
	Delay         string `yaml:"delay,omitempty"`
	Period        string `yaml:"period,omitempty"`
	Every         string `yaml:"every,omitempty"`
	Periodic      bool   `yaml:"periodic,omitempty"`
	Interruptible bool   `yaml:"interruptible,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Sample returns an annotated example configuration.
func Sample() string { return sample }

// Load reads, decodes and validates the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes data strictly: unknown fields are errors. Defaults are
// applied before validation.
func Parse(data []byte) (*Config, error) {
	c := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("yaml decode: %w", err)
	}

	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.TickInterval) == "" {
		c.TickInterval = DefaultTickInterval
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		c.Metrics.Addr = DefaultMetricsAddr
	}
	if c.Journal.Enabled() && c.Journal.Key == "" {
		c.Journal.Key = DefaultJournalKey
	}
	for i := range c.Pools {
		if c.Pools[i].Strategy == "" {
			c.Pools[i].Strategy = scheduler.KindSequential.String()
		}
	}
}

// Validate checks every field. Errors are joined so one pass reports all
// problems.
func (c *Config) Validate() error {
	var errs []error

	if d, err := parseDuration("tick_interval", c.TickInterval); err != nil {
		errs = append(errs, err)
	} else if d <= 0 {
		errs = append(errs, sserrors.NewValidationError("config", "tick_interval", c.TickInterval, "must be positive"))
	}

	if err := validation.ValidateOneOf("config", "logging.level", strings.ToLower(c.Logging.Level),
		"trace", "debug", "info", "warn", "error"); err != nil {
		errs = append(errs, err)
	}

	if c.Journal.MaxLen < 0 {
		errs = append(errs, sserrors.NewValidationError("config", "journal.max_len", c.Journal.MaxLen, "cannot be negative"))
	}

	for i, p := range c.Pools {
		errs = append(errs, p.validate(fmt.Sprintf("pools[%d]", i)))
	}

	return errors.Join(errs...)
}

// Tick returns the parsed tick interval.
func (c *Config) Tick() time.Duration {
	d, _ := parseDuration("tick_interval", c.TickInterval)
	return d
}

func (p PoolConfig) validate(path string) error {
	var errs []error
	if err := validation.ValidateNotEmpty("config", path+".name", p.Name); err != nil {
		errs = append(errs, err)
	}
	if _, err := scheduler.ParseKind(p.Strategy); err != nil {
		errs = append(errs, err)
	}
	if p.MaxWorkers < 0 || p.MaxWorkers > scheduler.MaxParallelWorkers {
		errs = append(errs, sserrors.NewValidationError("config", path+".max_workers", p.MaxWorkers,
			fmt.Sprintf("must be between 0 and %d", scheduler.MaxParallelWorkers)))
	}

	seen := make(map[string]bool, len(p.Services))
	for i, s := range p.Services {
		sp := fmt.Sprintf("%s.services[%d]", path, i)
		if seen[s.Name] {
			errs = append(errs, sserrors.NewValidationError("config", sp+".name", s.Name, "duplicate in pool"))
		}
		seen[s.Name] = true
		if _, err := s.Options(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", sp, err))
		}
	}
	return errors.Join(errs...)
}

// StrategyFor builds the pool's strategy. h is only used for host-thread pools.
func (p PoolConfig) StrategyFor(h host.Scheduler) (scheduler.Strategy, error) {
	kind, err := scheduler.ParseKind(p.Strategy)
	if err != nil {
		return scheduler.Strategy{}, err
	}
	switch kind {
	case scheduler.KindParallel:
		return scheduler.Parallel(p.MaxWorkers), nil
	case scheduler.KindHostThread:
		return scheduler.HostThread(h), nil
	default:
		return scheduler.Sequential(), nil
	}
}

// Options converts the declaration into service options. Lifecycle bodies
// are left to the caller.
func (s ServiceConfig) Options() ([]service.Option, error) {
	if err := validation.ValidateNotEmpty("config", "service.name", s.Name); err != nil {
		return nil, err
	}
	if s.Period != "" && s.Every != "" {
		return nil, sserrors.NewValidationError("config", "service.period", s.Period, "conflicts with every").
			WithHint("set either period or every")
	}

	var opts []service.Option

	delay, err := parseDuration("delay", s.Delay)
	if err != nil {
		return nil, err
	}
	if delay > 0 {
		opts = append(opts, service.WithDelay(host.FromDuration(delay)))
	}

	switch {
	case s.Every != "":
		if _, err := host.ParseEvery(s.Every); err != nil {
			return nil, err
		}
		opts = append(opts, service.WithEvery(s.Every))
	case s.Period != "":
		period, err := parseDuration("period", s.Period)
		if err != nil {
			return nil, err
		}
		ticks := host.FromDuration(period)
		if ticks <= 0 {
			return nil, sserrors.NewValidationError("config", "service.period", s.Period, "shorter than one tick").
				WithHint("periods are whole ticks of 50ms")
		}
		opts = append(opts, service.WithPeriod(ticks))
	case s.Periodic:
		opts = append(opts, service.Repeating())
	}

	if s.Interruptible {
		opts = append(opts, service.Interruptible())
	}
	return opts, nil
}

func parseDuration(field, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, sserrors.NewValidationError("config", field, raw, "invalid duration")
	}
	if d < 0 {
		return 0, sserrors.NewValidationError("config", field, raw, "must be >= 0")
	}
	return d, nil
}
