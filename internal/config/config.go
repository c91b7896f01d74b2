package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverLevelDB  = "leveldb"
	DriverMemory   = "memory"
)

const (
	defaultHTTPAddr      = ":8080"
	defaultPprofAddr     = "localhost:6060"
	defaultQuoteBaseURL  = "https://query2.finance.yahoo.com"
	defaultQuoteTimeout  = 5 * time.Second
	defaultQuoteTTL      = time.Minute
	defaultRefreshSpec   = "@every 5m"
	defaultLevelDBPath   = "data/holdings"
	defaultBreakerErrors = 5
	defaultBreakerReset  = 30 * time.Second
)

// Config holds every setting the server needs. Values come from an optional
// TOML file first and are then overridden by environment variables.
type Config struct {
	HTTPAddr    string   `toml:"http_addr"`
	PprofAddr   string   `toml:"pprof_addr"`
	CORSOrigins []string `toml:"cors_allowed_origins"`

	Log struct {
		Level       string `toml:"level"`
		Development bool   `toml:"development"`
	} `toml:"log"`

	Store struct {
		Driver           string `toml:"driver"`
		ConnectionString string `toml:"connection_string"`
		RedisAddr        string `toml:"redis_addr"`
		RedisPassword    string `toml:"redis_password"`
		LevelDBPath      string `toml:"leveldb_path"`
	} `toml:"store"`

	Quote struct {
		BaseURL          string   `toml:"base_url"`
		Timeout          Duration `toml:"timeout"`
		CacheTTL         Duration `toml:"cache_ttl"`
		RefreshSchedule  string   `toml:"refresh_schedule"`
		BreakerThreshold int      `toml:"breaker_threshold"`
		BreakerReset     Duration `toml:"breaker_reset"`
	} `toml:"quote"`
}

// Duration lets TOML files carry values such as "5s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func Default() *Config {
	cfg := &Config{
		HTTPAddr:  defaultHTTPAddr,
		PprofAddr: defaultPprofAddr,
	}
	cfg.Log.Level = "info"
	cfg.Store.Driver = DriverPostgres
	cfg.Store.LevelDBPath = defaultLevelDBPath
	cfg.Quote.BaseURL = defaultQuoteBaseURL
	cfg.Quote.Timeout = Duration{defaultQuoteTimeout}
	cfg.Quote.CacheTTL = Duration{defaultQuoteTTL}
	cfg.Quote.RefreshSchedule = defaultRefreshSpec
	cfg.Quote.BreakerThreshold = defaultBreakerErrors
	cfg.Quote.BreakerReset = Duration{defaultBreakerReset}
	return cfg
}

// Load reads .env, the optional CONFIG_FILE and the environment, in that order.
func Load() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, continuing with system environment variables")
	}

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("could not decode config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, cfg.Valid()
}

func (c *Config) applyEnv(lookupEnv func(string) (string, bool)) error {
	getenv := func(key string) string {
		v, _ := lookupEnv(key)
		return v
	}
	setString := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	setDuration := func(key string, dst *Duration) error {
		v := getenv(key)
		if v == "" {
			return nil
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		dst.Duration = parsed
		return nil
	}

	setString("HTTP_ADDR", &c.HTTPAddr)
	// an explicitly empty PPROF_ADDR disables the profiler
	if v, ok := lookupEnv("PPROF_ADDR"); ok {
		c.PprofAddr = v
	}
	if v := getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		c.CORSOrigins = splitList(v)
	}

	setString("LOG_LEVEL", &c.Log.Level)
	if v := getenv("LOG_DEVELOPMENT"); v != "" {
		dev, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid LOG_DEVELOPMENT: %w", err)
		}
		c.Log.Development = dev
	}

	setString("STORE_DRIVER", &c.Store.Driver)
	setString("DB_CONNECTION_STRING", &c.Store.ConnectionString)
	setString("REDIS_ADDR", &c.Store.RedisAddr)
	setString("REDIS_PASSWORD", &c.Store.RedisPassword)
	setString("LEVELDB_PATH", &c.Store.LevelDBPath)

	setString("QUOTE_BASE_URL", &c.Quote.BaseURL)
	setString("QUOTE_REFRESH_SCHEDULE", &c.Quote.RefreshSchedule)
	if err := setDuration("QUOTE_TIMEOUT", &c.Quote.Timeout); err != nil {
		return err
	}
	if err := setDuration("QUOTE_CACHE_TTL", &c.Quote.CacheTTL); err != nil {
		return err
	}
	if err := setDuration("QUOTE_BREAKER_RESET", &c.Quote.BreakerReset); err != nil {
		return err
	}
	if v := getenv("QUOTE_BREAKER_THRESHOLD"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid QUOTE_BREAKER_THRESHOLD: %w", err)
		}
		c.Quote.BreakerThreshold = n
	}
	return nil
}

// Valid validate config
func (c *Config) Valid() error {
	if strings.TrimSpace(c.HTTPAddr) == "" {
		return errors.New("http_addr undefined")
	}

	switch c.Store.Driver {
	case DriverPostgres:
		if c.Store.ConnectionString == "" {
			return errors.New("missing DB_CONNECTION_STRING in environment variables")
		}
	case DriverRedis:
		if c.Store.RedisAddr == "" {
			return errors.New("missing REDIS_ADDR in environment variables")
		}
	case DriverLevelDB:
		if c.Store.LevelDBPath == "" {
			return errors.New("missing LEVELDB_PATH in environment variables")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("store driver invalid: %s", c.Store.Driver)
	}

	if c.Quote.BaseURL == "" {
		return errors.New("quote base url undefined")
	}
	if c.Quote.Timeout.Duration <= 0 {
		return errors.New("quote timeout must be positive")
	}
	if c.Quote.CacheTTL.Duration < 0 {
		return errors.New("quote cache ttl must not be negative")
	}
	if c.Quote.BreakerThreshold <= 0 {
		return errors.New("quote breaker threshold must be positive")
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
