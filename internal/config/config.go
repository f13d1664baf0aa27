package config

import (
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vango-dev/reactor/internal/errors"
	"github.com/vango-dev/reactor/pkg/reactive"
	"gopkg.in/yaml.v3"
)

const (
	// EnvPrefix prefixes environment overrides (REACTOR_LOG_LEVEL, ...).
	EnvPrefix = "REACTOR_"

	// DefaultPort is the default devtools server port.
	DefaultPort = 7070

	// DefaultHost is the default devtools server host.
	DefaultHost = "localhost"

	// DefaultWorkload is the graph shape used when none is configured.
	DefaultWorkload = "diamond"

	// DefaultNamespace is the default Prometheus namespace.
	DefaultNamespace = "reactor"
)

// FileNames are the configuration files looked up by Load, in order.
var FileNames = []string{"reactor.yaml", "reactor.yml", "reactor.json"}

// Config represents the complete reactor configuration.
type Config struct {
	// Log configures the slog logger handed to runtimes.
	Log LogConfig `json:"log" yaml:"log"`

	// Budget bounds every runtime's propagation work.
	Budget BudgetConfig `json:"budget" yaml:"budget"`

	// Bench configures the bench command.
	Bench BenchConfig `json:"bench" yaml:"bench"`

	// Devtools configures the inspector server.
	Devtools DevtoolsConfig `json:"devtools" yaml:"devtools"`

	// Metrics configures Prometheus metrics.
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`

	// Tracing configures OpenTelemetry tracing.
	Tracing TracingConfig `json:"tracing" yaml:"tracing"`

	// Report configures benchmark report output.
	Report ReportConfig `json:"report" yaml:"report"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// LogConfig contains logger settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// BudgetConfig mirrors reactive.Budget.
type BudgetConfig struct {
	// MaxPassesPerFlush is left nil to take the runtime default; an explicit
	// 0 removes the limit.
	MaxPassesPerFlush    *int `json:"maxPassesPerFlush,omitempty" yaml:"maxPassesPerFlush,omitempty"`
	MaxEffectRunsPerPass int  `json:"maxEffectRunsPerPass,omitempty" yaml:"maxEffectRunsPerPass,omitempty"`
}

// BenchProfile is a named workload setting.
type BenchProfile struct {
	Workload   string `json:"workload,omitempty" yaml:"workload,omitempty"`
	Size       int    `json:"size,omitempty" yaml:"size,omitempty"`
	Iterations int    `json:"iterations,omitempty" yaml:"iterations,omitempty"`
}

// BenchConfig contains bench command defaults and named profiles.
type BenchConfig struct {
	BenchProfile `yaml:",inline"`

	// Profiles are selectable with bench --profile.
	Profiles map[string]BenchProfile `json:"profiles,omitempty" yaml:"profiles,omitempty"`
}

// DevtoolsConfig contains inspector server settings.
type DevtoolsConfig struct {
	Host string `json:"host,omitempty" yaml:"host,omitempty"`
	Port int    `json:"port,omitempty" yaml:"port,omitempty"`

	// Workload is the demo graph the server drives.
	Workload string `json:"workload,omitempty" yaml:"workload,omitempty"`

	// Tick is how often the demo graph is written (e.g., "500ms").
	Tick string `json:"tick,omitempty" yaml:"tick,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	Enabled    bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	TracerName string `json:"tracerName,omitempty" yaml:"tracerName,omitempty"`
}

// ReportConfig contains benchmark report settings.
type ReportConfig struct {
	// Output is the local report path. Empty disables the file.
	Output string `json:"output,omitempty" yaml:"output,omitempty"`

	// Bucket is the S3 bucket to upload to. Empty disables the upload.
	Bucket string `json:"bucket,omitempty" yaml:"bucket,omitempty"`
	Region string `json:"region,omitempty" yaml:"region,omitempty"`
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads configuration from the first of FileNames present in dir and
// applies environment overrides. A directory without a config file yields
// the defaults.
func Load(dir string) (*Config, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	cfg := New()
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// LoadFile reads configuration from the specified file path. The format
// follows the extension: .json is JSON, anything else YAML.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("C001").Wrap(err)
	}

	cfg := &Config{}
	if err := unmarshal(path, data, cfg); err != nil {
		return nil, errors.Wrapf(err, "C002", "Invalid config syntax in %s", filepath.Base(path))
	}

	cfg.configPath = path
	cfg.applyDefaults()
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

func unmarshal(path string, data []byte, cfg *Config) error {
	if isJSON(path) {
		return json.Unmarshal(data, cfg)
	}
	return yaml.Unmarshal(data, cfg)
}

// SaveTo writes the configuration to the specified path, as JSON or YAML
// by extension.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	if isJSON(path) {
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return errors.New("C001").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("C001").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if c.Bench.Workload == "" {
		c.Bench.Workload = DefaultWorkload
	}
	if c.Bench.Size == 0 {
		c.Bench.Size = 64
	}
	if c.Bench.Iterations == 0 {
		c.Bench.Iterations = 10000
	}

	if c.Devtools.Host == "" {
		c.Devtools.Host = DefaultHost
	}
	if c.Devtools.Port == 0 {
		c.Devtools.Port = DefaultPort
	}
	if c.Devtools.Workload == "" {
		c.Devtools.Workload = "dynamic"
	}
	if c.Devtools.Tick == "" {
		c.Devtools.Tick = "500ms"
	}

	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = "reactor"
	}
	if c.Report.Prefix == "" {
		c.Report.Prefix = "bench/"
	}
}

// applyEnv overrides fields from REACTOR_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(EnvPrefix + key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.New("C003").Wrap(err).
				WithDetail(EnvPrefix + key + " must be an integer")
		}
		*dst = n
		return nil
	}
	flag := func(key string, dst *bool) error {
		v, ok := lookup(EnvPrefix + key)
		if !ok || v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.New("C003").Wrap(err).
				WithDetail(EnvPrefix + key + " must be a boolean")
		}
		*dst = b
		return nil
	}

	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("BENCH_WORKLOAD", &c.Bench.Workload)
	str("DEVTOOLS_HOST", &c.Devtools.Host)
	str("METRICS_NAMESPACE", &c.Metrics.Namespace)
	str("REPORT_BUCKET", &c.Report.Bucket)
	str("REPORT_REGION", &c.Report.Region)

	if v, ok := lookup(EnvPrefix + "BUDGET_MAX_PASSES"); ok && v != "" {
		var n int
		if c.Budget.MaxPassesPerFlush != nil {
			n = *c.Budget.MaxPassesPerFlush
		}
		if err := num("BUDGET_MAX_PASSES", &n); err != nil {
			return err
		}
		c.Budget.MaxPassesPerFlush = &n
	}
	for key, dst := range map[string]*int{
		"BUDGET_MAX_EFFECT_RUNS": &c.Budget.MaxEffectRunsPerPass,
		"BENCH_SIZE":             &c.Bench.Size,
		"BENCH_ITERATIONS":       &c.Bench.Iterations,
		"DEVTOOLS_PORT":          &c.Devtools.Port,
	} {
		if err := num(key, dst); err != nil {
			return err
		}
	}
	for key, dst := range map[string]*bool{
		"METRICS_ENABLED": &c.Metrics.Enabled,
		"TRACING_ENABLED": &c.Tracing.Enabled,
	} {
		if err := flag(key, dst); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.New("C003").
			WithDetail("log.format must be text or json, got " + strconv.Quote(c.Log.Format))
	}
	if (c.Budget.MaxPassesPerFlush != nil && *c.Budget.MaxPassesPerFlush < 0) || c.Budget.MaxEffectRunsPerPass < 0 {
		return errors.New("C003").
			WithDetail("budget limits must not be negative")
	}
	if c.Devtools.Port < 0 || c.Devtools.Port > 65535 {
		return errors.New("C003").
			WithDetail("devtools.port must be between 0 and 65535")
	}
	if _, err := time.ParseDuration(c.Devtools.Tick); err != nil {
		return errors.New("C003").Wrap(err).
			WithDetail("devtools.tick must be a duration such as 500ms")
	}
	for name, p := range c.Bench.Profiles {
		if p.Size < 0 || p.Iterations < 0 {
			return errors.New("C003").
				WithDetail("bench profile " + strconv.Quote(name) + " has a negative size or iteration count")
		}
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, errors.New("C003").Wrap(err).
			WithDetail("log.level must be debug, info, warn or error")
	}
	return level, nil
}

// Logger builds the slog logger described by the Log section.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// RuntimeBudget converts the Budget section for reactive.WithBudget.
func (c *Config) RuntimeBudget() reactive.Budget {
	b := reactive.DefaultBudget()
	if c.Budget.MaxPassesPerFlush != nil {
		b.MaxPassesPerFlush = *c.Budget.MaxPassesPerFlush
	}
	b.MaxEffectRunsPerPass = c.Budget.MaxEffectRunsPerPass
	return b
}

// Profile returns the named bench profile with unset fields taken from the
// bench defaults. The empty name selects the defaults.
func (c *Config) Profile(name string) (BenchProfile, bool) {
	base := c.Bench.BenchProfile
	if name == "" {
		return base, true
	}
	p, ok := c.Bench.Profiles[name]
	if !ok {
		return BenchProfile{}, false
	}
	if p.Workload == "" {
		p.Workload = base.Workload
	}
	if p.Size == 0 {
		p.Size = base.Size
	}
	if p.Iterations == 0 {
		p.Iterations = base.Iterations
	}
	return p, true
}

// DevtoolsAddress returns the listen address for the devtools server.
func (c *Config) DevtoolsAddress() string {
	return net.JoinHostPort(c.Devtools.Host, strconv.Itoa(c.Devtools.Port))
}

// TickInterval returns the parsed devtools tick.
func (c *Config) TickInterval() time.Duration {
	d, err := time.ParseDuration(c.Devtools.Tick)
	if err != nil {
		return 500 * time.Millisecond
	}
	return d
}
