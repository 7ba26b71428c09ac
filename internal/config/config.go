package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"vahanpulse/pkg/contracts/domain"
)

// EnvPrefix namespaces every environment variable, e.g. VAHAN_SERVER_PORT.
const EnvPrefix = "VAHAN"

// DefaultSourceURL is the public CSV export the dashboard was first built against.
const DefaultSourceURL = "https://docs.google.com/spreadsheets/d/1q4Qn32MBJ8IfKWUlHy5907cjRD-uiKu_/export?format=csv"

// Source kinds.
const (
	SourceURL    = "url"
	SourceSheets = "sheets"
	SourceFile   = "file"
	SourceSample = "sample"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Source    SourceConfig    `yaml:"source" envconfig:"SOURCE"`
	Schema    SchemaConfig    `yaml:"schema" envconfig:"SCHEMA"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	RateLimit RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"HOST"`
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
	AllowedOrigins  []string      `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	EnableCORS      bool          `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL"`
	Output      string `yaml:"output" envconfig:"OUTPUT"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// PathsConfig holds the raw and cleaned dataset locations.
type PathsConfig struct {
	DataDir     string `yaml:"data_dir" envconfig:"DATA_DIR"`
	RawPath     string `yaml:"raw_path" envconfig:"RAW_PATH"`
	CleanedPath string `yaml:"cleaned_path" envconfig:"CLEANED_PATH"`
	// SaveRaw keeps a copy of every fetched raw table at RawPath.
	SaveRaw bool `yaml:"save_raw" envconfig:"SAVE_RAW"`
}

// SourceConfig selects where raw registrations come from.
type SourceConfig struct {
	Kind             string        `yaml:"kind" envconfig:"KIND"`
	URL              string        `yaml:"url" envconfig:"URL"`
	Timeout          time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
	FilePath         string        `yaml:"file_path" envconfig:"FILE_PATH"`
	Sheet            string        `yaml:"sheet" envconfig:"SHEET"`
	SpreadsheetID    string        `yaml:"spreadsheet_id" envconfig:"SPREADSHEET_ID"`
	SheetRange       string        `yaml:"sheet_range" envconfig:"SHEET_RANGE"`
	APIKey           string        `yaml:"api_key" envconfig:"API_KEY"`
	CredentialsFile  string        `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE"`
	FallbackToSample bool          `yaml:"fallback_to_sample" envconfig:"FALLBACK_TO_SAMPLE"`
	SampleMonths     int           `yaml:"sample_months" envconfig:"SAMPLE_MONTHS"`
	SampleSeed       int64         `yaml:"sample_seed" envconfig:"SAMPLE_SEED"`
}

// SchemaConfig carries the column inference rules and collision policy.
type SchemaConfig struct {
	CollisionPolicy string              `yaml:"collision_policy" envconfig:"COLLISION_POLICY"`
	Rules           []domain.ColumnRule `yaml:"rules" ignored:"true"`
}

// TelemetryConfig configures tracing and metrics export.
type TelemetryConfig struct {
	ServiceName    string  `yaml:"service_name" envconfig:"SERVICE_NAME"`
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	EnableTracing  bool    `yaml:"enable_tracing" envconfig:"ENABLE_TRACING"`
	EnableMetrics  bool    `yaml:"enable_metrics" envconfig:"ENABLE_METRICS"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT"`
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in increasing precedence. A .env file in the working directory
// is loaded into the environment first when present.
func Load() (*Config, error) {
	return LoadFile(getConfigFilePath())
}

// LoadFile is Load with an explicit YAML path. An empty path skips the file.
func LoadFile(path string) (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML document onto cfg; absent keys keep their value.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// validate validates the configuration and fills derived defaults.
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server timeouts must be positive")
	}

	switch strings.ToLower(c.Logging.Output) {
	case "console", "file", "both":
	default:
		return fmt.Errorf("invalid logging output %q", c.Logging.Output)
	}
	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		return fmt.Errorf("logging output %q requires a file path", c.Logging.Output)
	}

	switch c.Source.Kind {
	case SourceURL:
		if c.Source.URL == "" {
			return fmt.Errorf("source kind url requires source.url")
		}
	case SourceSheets:
		if c.Source.SpreadsheetID == "" {
			return fmt.Errorf("source kind sheets requires source.spreadsheet_id")
		}
	case SourceFile:
		if c.Source.FilePath == "" {
			return fmt.Errorf("source kind file requires source.file_path")
		}
	case SourceSample:
	default:
		return fmt.Errorf("unknown source kind %q", c.Source.Kind)
	}
	if c.Source.Timeout <= 0 {
		return fmt.Errorf("source timeout must be positive")
	}
	if c.Source.SampleMonths <= 0 {
		return fmt.Errorf("sample months must be positive")
	}

	policy, err := domain.ParseCollisionPolicy(c.Schema.CollisionPolicy)
	if err != nil {
		return err
	}
	c.Schema.CollisionPolicy = string(policy)
	if len(c.Schema.Rules) == 0 {
		c.Schema.Rules = domain.DefaultColumnRules()
	}
	for _, rule := range c.Schema.Rules {
		if err := rule.Validate(); err != nil {
			return err
		}
	}

	if c.Paths.CleanedPath == "" {
		return fmt.Errorf("paths.cleaned_path must be set")
	}

	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate limit rps and burst must be positive when enabled")
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if path := os.Getenv(EnvPrefix + "_CONFIG_FILE"); path != "" {
		return path
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// CollisionPolicy returns the parsed schema collision policy.
func (c *Config) CollisionPolicy() domain.CollisionPolicy {
	policy, err := domain.ParseCollisionPolicy(c.Schema.CollisionPolicy)
	if err != nil {
		return domain.CollisionKeepFirst
	}
	return policy
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			RequestTimeout:  30 * time.Second,
			AllowedOrigins:  []string{"http://localhost:8080"},
			EnableCORS:      true,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/vahan.log",
		},
		Paths: PathsConfig{
			DataDir:     "data",
			RawPath:     "data/raw/vehicle_data_raw.csv",
			CleanedPath: "data/processed/vehicle_data_cleaned.xlsx",
			SaveRaw:     true,
		},
		Source: SourceConfig{
			Kind:             SourceURL,
			URL:              DefaultSourceURL,
			Timeout:          30 * time.Second,
			SheetRange:       "A:Z",
			FallbackToSample: true,
			SampleMonths:     48,
			SampleSeed:       42,
		},
		Schema: SchemaConfig{
			CollisionPolicy: string(domain.CollisionKeepFirst),
			Rules:           domain.DefaultColumnRules(),
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "vahanpulse",
			Environment:    "development",
			EnableTracing:  false,
			EnableMetrics:  true,
			TraceExporter:  "stdout",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			RPS:     50,
			Burst:   100,
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingPeriod:      54 * time.Second,
			PongWait:        60 * time.Second,
		},
	}
}
