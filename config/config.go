package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"retail-analytics/models"
)

// EnvPrefix is prepended to every environment variable name, e.g. RETAIL_TOP_N.
const EnvPrefix = "RETAIL"

// DefaultConfigFile is read when RETAIL_CONFIG_FILE is unset and the file exists.
const DefaultConfigFile = "retail.yaml"

// Config holds all application configuration. Values are layered: built-in
// defaults, then the optional YAML file, then RETAIL_* environment variables.
type Config struct {
	// DataPath is a .csv/.tsv/.xlsx path, a postgres:// URL, or "postgres"
	// to connect with the Postgres* fields below.
	DataPath   string `yaml:"data_path" envconfig:"DATA_PATH" validate:"required"`
	Sheet      string `yaml:"sheet" envconfig:"SHEET"`
	DateColumn string `yaml:"date_column" envconfig:"DATE_COLUMN" validate:"required"`
	TopN       int    `yaml:"top_n" envconfig:"TOP_N" validate:"min=1"`

	// MissingStrategy maps column names to a missing-value strategy.
	MissingStrategy map[string]string `yaml:"missing_strategy" envconfig:"MISSING_STRATEGY" validate:"dive,keys,required,endkeys,strategy"`

	PostgresHost     string `yaml:"postgres_host" envconfig:"POSTGRES_HOST"`
	PostgresPort     string `yaml:"postgres_port" envconfig:"POSTGRES_PORT"`
	PostgresUser     string `yaml:"postgres_user" envconfig:"POSTGRES_USER"`
	PostgresPassword string `yaml:"postgres_password" envconfig:"POSTGRES_PASSWORD"`
	PostgresDB       string `yaml:"postgres_db" envconfig:"POSTGRES_DB"`
	PostgresSSLMode  string `yaml:"postgres_sslmode" envconfig:"POSTGRES_SSLMODE"`
	PostgresTable    string `yaml:"postgres_table" envconfig:"POSTGRES_TABLE" validate:"required"`

	RenderCharts   bool   `yaml:"render_charts" envconfig:"RENDER_CHARTS"`
	ChartsDir      string `yaml:"charts_dir" envconfig:"CHARTS_DIR" validate:"required"`
	ChartFormat    string `yaml:"chart_format" envconfig:"CHART_FORMAT" validate:"oneof=png jpg jpeg pdf svg"`
	FigureWidth    int    `yaml:"figure_width" envconfig:"FIGURE_WIDTH" validate:"min=100"`
	FigureHeight   int    `yaml:"figure_height" envconfig:"FIGURE_HEIGHT" validate:"min=100"`
	ChromeBin      string `yaml:"chrome_bin" envconfig:"CHROME_BIN"`
	MaxConcurrency int    `yaml:"max_concurrency" envconfig:"MAX_CONCURRENCY" validate:"min=1"`
	RateLimitMs    int    `yaml:"rate_limit_ms" envconfig:"RATE_LIMIT_MS" validate:"min=0"`
	MaxRetries     int    `yaml:"max_retries" envconfig:"MAX_RETRIES" validate:"min=1"`

	MetricsTextfile string `yaml:"metrics_textfile" envconfig:"METRICS_TEXTFILE"`

	LogLevel  string `yaml:"log_level" envconfig:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogFormat string `yaml:"log_format" envconfig:"LOG_FORMAT" validate:"oneof=console json"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DataPath:   "data/retail_transactions.csv",
		DateColumn: "Date",
		TopN:       10,

		PostgresHost:    "localhost",
		PostgresPort:    "5432",
		PostgresUser:    "analyst",
		PostgresDB:      "retail_db",
		PostgresSSLMode: "disable",
		PostgresTable:   "transactions",

		ChartsDir:      "./outputs/charts",
		ChartFormat:    "png",
		FigureWidth:    1200,
		FigureHeight:   800,
		MaxConcurrency: 2,
		MaxRetries:     3,

		LogLevel:  "info",
		LogFormat: "console",
	}
}

// Load reads the .env file, the optional YAML config file and the
// environment, and returns a validated Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	cfg := Default()

	path := os.Getenv(EnvPrefix + "_CONFIG_FILE")
	if path == "" {
		path = DefaultConfigFile
		if _, err := os.Stat(path); err != nil {
			path = ""
		}
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("config: load env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %q: %w", path, err)
	}
	return nil
}

// Validate checks every field constraint and returns all violations joined.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.RegisterValidation("strategy", validStrategy); err != nil {
		return fmt.Errorf("config: register strategy validation: %w", err)
	}
	err := v.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("config: validate: %w", err)
	}
	errs := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, &models.ValidationError{
			Field:   fe.Field(),
			Message: formatFieldError(fe),
		})
	}
	return errors.Join(errs...)
}

// validStrategy accepts exactly the names the cleaner resolves.
func validStrategy(fl validator.FieldLevel) bool {
	_, err := models.ParseStrategy(fl.Field().String())
	return err == nil
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "strategy":
		return fmt.Sprintf("unknown strategy %q", fmt.Sprint(fe.Value()))
	case "min":
		return "must be at least " + fe.Param()
	case "oneof":
		return fmt.Sprintf("%q must be one of: %s", fmt.Sprint(fe.Value()), strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

// UsesPostgres reports whether transactions are read from PostgreSQL.
func (c *Config) UsesPostgres() bool {
	return c.DataPath == "postgres" ||
		strings.HasPrefix(c.DataPath, "postgres://") ||
		strings.HasPrefix(c.DataPath, "postgresql://")
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	if c.DataPath != "postgres" && c.UsesPostgres() {
		return c.DataPath
	}
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}
