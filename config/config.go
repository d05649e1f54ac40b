package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"equitySim/internal/adapters/logger"
)

const dateLayout = "2006-01-02"

// Config holds all application configuration.
type Config struct {
	// Simulation
	Tickers         []string  `yaml:"tickers"`
	StartDate       time.Time `yaml:"-"`
	EndDate         time.Time `yaml:"-"`
	InitialCapital  float64   `yaml:"initial_capital"`
	Commission      float64   `yaml:"commission"` // Flat commission per trade
	OrderQty        float64   `yaml:"order_qty"`  // Shares per signal-driven order
	RaiseOnWarnings bool      `yaml:"raise_on_warnings"`

	// Raw date strings, parsed into StartDate/EndDate during validation.
	StartDateStr string `yaml:"start_date"`
	EndDateStr   string `yaml:"end_date"`

	// Strategy Parameters
	Strategy      string `yaml:"strategy"` // buy_and_hold or sma_crossover
	ShortMAPeriod int    `yaml:"short_ma_period"`
	LongMAPeriod  int    `yaml:"long_ma_period"`

	// Trading calendar: nyse or always
	Calendar string `yaml:"calendar"`

	// Data source: csv or binance
	DataSource string `yaml:"data_source"`
	CSVDir     string `yaml:"csv_dir"`

	// Binance API (only used when DataSource is binance)
	APIKey    string `yaml:"-"`
	SecretKey string `yaml:"-"`
	Interval  string `yaml:"interval"` // Kline interval, e.g. 1d

	// Database
	DBPath string `yaml:"db_path"`

	// Logging
	LogLevel logger.LogLevel `yaml:"-"`
}

// LoadConfig loads configuration from environment variables (.env file),
// optionally overlaid with a YAML file when path is non-empty. File values
// take precedence over the environment; validation runs on the merged
// result and every problem is reported in one error.
func LoadConfig(path string) (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string

	// Simulation
	cfg.Tickers = splitList(getEnv("TICKERS", ""))
	cfg.StartDateStr = getEnv("START_DATE", "")
	cfg.EndDateStr = getEnv("END_DATE", "")

	cfg.InitialCapital, err = getEnvAsFloatRequired("INITIAL_CAPITAL", 100000.0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid INITIAL_CAPITAL: %v", err))
	}

	cfg.Commission, err = getEnvAsFloatRequired("COMMISSION", 0.0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid COMMISSION: %v", err))
	}

	cfg.OrderQty, err = getEnvAsFloatRequired("ORDER_QTY", 100.0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid ORDER_QTY: %v", err))
	}

	cfg.RaiseOnWarnings = getEnvAsBool("RAISE_ON_WARNINGS", false)

	// Strategy Parameters
	cfg.Strategy = getEnv("STRATEGY", "buy_and_hold")
	cfg.ShortMAPeriod = getEnvAsInt("SHORT_MA_PERIOD", 20)
	cfg.LongMAPeriod = getEnvAsInt("LONG_MA_PERIOD", 50)

	cfg.Calendar = getEnv("CALENDAR", "nyse")

	// Data source
	cfg.DataSource = getEnv("DATA_SOURCE", "csv")
	cfg.CSVDir = getEnv("CSV_DIR", "./data/bars")
	cfg.APIKey = getEnv("BINANCE_API_KEY", "")
	cfg.SecretKey = getEnv("BINANCE_API_SECRET", "")
	cfg.Interval = getEnv("INTERVAL", "1d")

	// Database
	cfg.DBPath = getEnv("DB_PATH", "./data/equity_sim.db")

	// Logging
	logLevelStr := getEnv("LOG_LEVEL", "INFO")
	cfg.LogLevel = logger.ParseLevel(logLevelStr)

	// YAML overlay
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	errs = append(errs, cfg.validate()...)
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// mergeFile overlays values from a YAML file onto the config.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// validate checks the merged config and parses the date strings. It returns
// every problem found rather than stopping at the first.
func (c *Config) validate() []string {
	var errs []string
	var err error

	if len(c.Tickers) == 0 {
		errs = append(errs, "TICKERS must list at least one ticker")
	}

	if c.StartDateStr == "" {
		errs = append(errs, "START_DATE must be set")
	} else if c.StartDate, err = time.Parse(dateLayout, c.StartDateStr); err != nil {
		errs = append(errs, fmt.Sprintf("invalid START_DATE: %v", err))
	}
	if c.EndDateStr == "" {
		errs = append(errs, "END_DATE must be set")
	} else if c.EndDate, err = time.Parse(dateLayout, c.EndDateStr); err != nil {
		errs = append(errs, fmt.Sprintf("invalid END_DATE: %v", err))
	}
	if !c.StartDate.IsZero() && !c.EndDate.IsZero() && !c.StartDate.Before(c.EndDate) {
		errs = append(errs, "START_DATE must be before END_DATE")
	}

	if c.InitialCapital <= 0 {
		errs = append(errs, "INITIAL_CAPITAL must be positive")
	}
	if c.Commission < 0 {
		errs = append(errs, "COMMISSION cannot be negative")
	}
	if c.OrderQty <= 0 {
		errs = append(errs, "ORDER_QTY must be positive")
	}

	switch c.Strategy {
	case "buy_and_hold":
	case "sma_crossover":
		if c.ShortMAPeriod <= 0 || c.LongMAPeriod <= 0 {
			errs = append(errs, "MA periods must be positive")
		}
		if c.ShortMAPeriod >= c.LongMAPeriod {
			errs = append(errs, "SHORT_MA_PERIOD must be less than LONG_MA_PERIOD")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown STRATEGY %q (want buy_and_hold or sma_crossover)", c.Strategy))
	}

	switch c.Calendar {
	case "nyse", "always":
	default:
		errs = append(errs, fmt.Sprintf("unknown CALENDAR %q (want nyse or always)", c.Calendar))
	}

	switch c.DataSource {
	case "csv":
		if c.CSVDir == "" {
			errs = append(errs, "CSV_DIR must be set when DATA_SOURCE is csv")
		}
	case "binance":
		if c.Interval == "" {
			errs = append(errs, "INTERVAL must be set when DATA_SOURCE is binance")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown DATA_SOURCE %q (want csv or binance)", c.DataSource))
	}

	if c.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}

	return errs
}

// --- Env Var Helpers ---

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloatRequired(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
