package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Upstream dataset defaults. ForecastURL carries the {id} placeholder
// substituted with a city's global id.
const (
	DefaultDistrictsURL    = "https://api.ipma.pt/open-data/distrits-islands.json"
	DefaultWeatherTypesURL = "https://api.ipma.pt/open-data/weather-type-classe.json"
	DefaultForecastURL     = "https://api.ipma.pt/open-data/forecast/meteorology/cities/daily/{id}.json"
	DefaultWarningsURL     = "https://api.ipma.pt/open-data/forecast/warnings/warnings_www.json"
	DefaultObservationsURL = "https://api.ipma.pt/open-data/observation/meteorology/stations/observations.json"
)

// Config holds service configuration loaded from YAML and env. Environment
// variables win over file values.
type Config struct {
	CIMode bool // CI env set: stub responses, no catalog load, no upstream calls

	ServerPort string

	DistrictsURL    string
	WeatherTypesURL string
	ForecastURL     string
	WarningsURL     string
	ObservationsURL string
	IPMATimeout     time.Duration

	RequestTimeout time.Duration

	CacheTTL        time.Duration
	CacheFailureTTL time.Duration // lifetime of cached fetch failures; 0 disables negative caching
	CacheCapacity   int
	CacheBackend    string // "in_memory" or "memcached"

	MemcachedAddrs        string
	MemcachedTimeout      time.Duration
	MemcachedMaxIdleConns int

	RateLimitRPS   int // 0 disables rate limiting
	RateLimitBurst int

	CatalogRefreshInterval time.Duration // 0 disables background refresh
	CatalogRefreshJitter   time.Duration

	ShutdownTimeout               time.Duration
	ShutdownInFlightTimeout       time.Duration
	ShutdownInFlightCheckInterval time.Duration
}

type fileConfig struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	IPMA struct {
		DistrictsURL    string `yaml:"districts_url"`
		WeatherTypesURL string `yaml:"weather_types_url"`
		ForecastURL     string `yaml:"forecast_url"`
		WarningsURL     string `yaml:"warnings_url"`
		ObsURL          string `yaml:"obs_url"`
		Timeout         string `yaml:"timeout"`
	} `yaml:"ipma"`

	Request struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"request"`

	Cache struct {
		Backend    string `yaml:"backend"`
		TTL        string `yaml:"ttl"`
		FailureTTL string `yaml:"failure_ttl"`
		Capacity   int    `yaml:"capacity"`
		Memcached  struct {
			Addrs        string `yaml:"addrs"`
			Timeout      string `yaml:"timeout"`
			MaxIdleConns int    `yaml:"max_idle_conns"`
		} `yaml:"memcached"`
	} `yaml:"cache"`

	Catalog struct {
		RefreshInterval string `yaml:"refresh_interval"`
		RefreshJitter   string `yaml:"refresh_jitter"`
	} `yaml:"catalog"`

	Reliability struct {
		RateLimitRPS   int `yaml:"rate_limit_rps"`
		RateLimitBurst int `yaml:"rate_limit_burst"`
	} `yaml:"reliability"`

	Shutdown struct {
		Timeout               string `yaml:"timeout"`
		InFlightTimeout       string `yaml:"in_flight_timeout"`
		InFlightCheckInterval string `yaml:"in_flight_check_interval"`
	} `yaml:"shutdown"`
}

// Load reads configuration from config/{ENV_NAME}.yaml (default dev), then
// applies environment overrides. A missing config file is fine; the service
// runs on defaults alone.
func Load() (*Config, error) {
	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	var fc fileConfig
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	configPath := filepath.Join(cwd, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg := &Config{}

	_, cfg.CIMode = os.LookupEnv("CI")

	cfg.ServerPort = strings.TrimSpace(os.Getenv("PORT"))
	if cfg.ServerPort == "" {
		cfg.ServerPort = fc.Server.Port
	}
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}

	cfg.DistrictsURL = urlValue("IPMA_DISTRICTS_URL", fc.IPMA.DistrictsURL, DefaultDistrictsURL)
	cfg.WeatherTypesURL = urlValue("IPMA_WEATHER_TYPES_URL", fc.IPMA.WeatherTypesURL, DefaultWeatherTypesURL)
	cfg.ForecastURL = urlValue("IPMA_FORECAST_URL", fc.IPMA.ForecastURL, DefaultForecastURL)
	cfg.WarningsURL = urlValue("IPMA_WARNINGS_URL", fc.IPMA.WarningsURL, DefaultWarningsURL)
	cfg.ObservationsURL = urlValue("IPMA_OBS_URL", fc.IPMA.ObsURL, DefaultObservationsURL)

	cfg.IPMATimeout = parseDuration(os.Getenv("IPMA_TIMEOUT"), 0)
	if cfg.IPMATimeout <= 0 {
		cfg.IPMATimeout = parseDuration(fc.IPMA.Timeout, 10*time.Second)
	}

	cfg.RequestTimeout = parseDuration(fc.Request.Timeout, 15*time.Second)

	cfg.CacheTTL = parseDuration(fc.Cache.TTL, 600*time.Second)
	cfg.CacheFailureTTL = parseDurationOrZero(fc.Cache.FailureTTL, 60*time.Second)
	cfg.CacheCapacity = fc.Cache.Capacity
	if cfg.CacheCapacity <= 0 {
		cfg.CacheCapacity = 128
	}
	cfg.CacheBackend = strings.TrimSpace(strings.ToLower(os.Getenv("CACHE_BACKEND")))
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = strings.TrimSpace(strings.ToLower(fc.Cache.Backend))
	}
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = "in_memory"
	}

	cfg.MemcachedAddrs = strings.TrimSpace(os.Getenv("MEMCACHED_ADDRS"))
	if cfg.MemcachedAddrs == "" {
		cfg.MemcachedAddrs = strings.TrimSpace(fc.Cache.Memcached.Addrs)
	}
	if cfg.MemcachedAddrs == "" {
		cfg.MemcachedAddrs = "localhost:11211"
	}
	cfg.MemcachedTimeout = parseDuration(fc.Cache.Memcached.Timeout, 500*time.Millisecond)
	cfg.MemcachedMaxIdleConns = fc.Cache.Memcached.MaxIdleConns
	if cfg.MemcachedMaxIdleConns <= 0 {
		cfg.MemcachedMaxIdleConns = 2
	}

	cfg.CatalogRefreshInterval = parseDurationOrZero(fc.Catalog.RefreshInterval, 6*time.Hour)
	cfg.CatalogRefreshJitter = parseDurationOrZero(fc.Catalog.RefreshJitter, 10*time.Minute)

	cfg.RateLimitRPS = fc.Reliability.RateLimitRPS
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 20
	}
	if cfg.RateLimitRPS < 0 {
		cfg.RateLimitRPS = 0
	}
	cfg.RateLimitBurst = fc.Reliability.RateLimitBurst
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 2 * cfg.RateLimitRPS
	}

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)
	cfg.ShutdownInFlightTimeout = parseDuration(fc.Shutdown.InFlightTimeout, 10*time.Second)
	cfg.ShutdownInFlightCheckInterval = parseDuration(fc.Shutdown.InFlightCheckInterval, 100*time.Millisecond)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// urlValue resolves a URL setting: env wins, then file, then default.
func urlValue(envName, fileVal, defaultVal string) string {
	if v := strings.TrimSpace(os.Getenv(envName)); v != "" {
		return v
	}
	if v := strings.TrimSpace(fileVal); v != "" {
		return v
	}
	return defaultVal
}

// parseDuration parses a duration string and returns defaultVal if parsing fails or result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	d := parseDurationOrZero(s, defaultVal)
	if d <= 0 {
		return defaultVal
	}
	return d
}

// parseDurationOrZero parses a duration string, returning defaultVal on empty
// string or parse error. Zero and negative values are returned as-is so "0"
// can mean "disabled".
func parseDurationOrZero(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}

// validate performs post-load validation. The forecast URL must carry the
// {id} placeholder, the cache backend must be known, and the request timeout
// is raised above the upstream timeout when needed so handlers do not give up
// before the upstream call can finish.
func validate(cfg *Config) error {
	if !strings.Contains(cfg.ForecastURL, "{id}") {
		return fmt.Errorf("ipma.forecast_url must contain {id}, got %q", cfg.ForecastURL)
	}
	switch cfg.CacheBackend {
	case "in_memory", "memcached":
		// valid
	default:
		return fmt.Errorf("cache.backend must be in_memory or memcached, got %q", cfg.CacheBackend)
	}
	if cfg.RequestTimeout <= cfg.IPMATimeout {
		cfg.RequestTimeout = cfg.IPMATimeout + time.Second
	}
	if cfg.CatalogRefreshInterval < 0 {
		cfg.CatalogRefreshInterval = 0
	}
	if cfg.CatalogRefreshJitter < 0 {
		cfg.CatalogRefreshJitter = 0
	}
	if cfg.CacheFailureTTL < 0 {
		cfg.CacheFailureTTL = 0
	}
	return nil
}
