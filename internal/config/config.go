package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ilyakaznacheev/cleanenv"
)

// Config represents the application configuration structure.
// It contains settings for the environment, the remote scanning service,
// the scan pipeline, caching, history, monitoring, notifications and the HTTP server.
type Config struct {
	// Environment specifies the current running environment (development, production, etc.)
	Environment string `env:"ENVIRONMENT" env-default:"development" yaml:"environment"`
	// LogLevel overrides the environment's default log level when set
	LogLevel string `env:"LOG_LEVEL" yaml:"logLevel"`

	// VirusTotal contains the remote scanning service settings
	VirusTotal struct {
		// APIKey is sent in the x-apikey header of every request
		APIKey string `env:"VIRUSTOTAL_API_KEY" yaml:"apiKey"`
		// BaseURL is the REST root of the API
		BaseURL string `env:"VIRUSTOTAL_BASE_URL" env-default:"https://www.virustotal.com/api/v3" yaml:"baseURL"`
		// GUIURL is the root used to build permalinks
		GUIURL string `env:"VIRUSTOTAL_GUI_URL" env-default:"https://www.virustotal.com/gui" yaml:"guiURL"`
		// RequestInterval is the minimum spacing between two outbound requests
		RequestInterval time.Duration `env:"VIRUSTOTAL_REQUEST_INTERVAL" env-default:"15s" yaml:"requestInterval"`
		// RequestTimeout bounds a single HTTP request, uploads included
		RequestTimeout time.Duration `env:"VIRUSTOTAL_REQUEST_TIMEOUT" env-default:"5m" yaml:"requestTimeout"`
		// SkipAPIKeyCheck disables validating the key on startup of long running commands
		SkipAPIKeyCheck bool `env:"VIRUSTOTAL_SKIP_API_KEY_CHECK" env-default:"false" yaml:"skipAPIKeyCheck"`
	} `yaml:"virusTotal"`

	// Scanner contains the scan pipeline and background scheduler settings
	Scanner struct {
		// MaxConcurrentScans is the number of scan attempts allowed to run at once
		MaxConcurrentScans int `env:"SCANNER_MAX_CONCURRENT_SCANS" env-default:"3" yaml:"maxConcurrentScans"`
		// RetryAttempts is the number of retries after the first failed attempt
		RetryAttempts int `env:"SCANNER_RETRY_ATTEMPTS" env-default:"3" yaml:"retryAttempts"`
		// RetryDelay is the (base) delay between attempts
		RetryDelay time.Duration `env:"SCANNER_RETRY_DELAY" env-default:"60s" yaml:"retryDelay"`
		// RetryBackoff selects the backoff strategy: fixed or exponential
		RetryBackoff string `env:"SCANNER_RETRY_BACKOFF" env-default:"fixed" yaml:"retryBackoff"`
		// ScanBatchSize is the number of files dispatched together by the scheduler
		ScanBatchSize int `env:"SCANNER_SCAN_BATCH_SIZE" env-default:"5" yaml:"scanBatchSize"`
		// AutoRescanIntervalHours enables background rescans when set.
		// It is re-read from the config file on every scheduler cycle.
		AutoRescanIntervalHours *int `yaml:"autoRescanIntervalHours"`
		// ScanHistoryLimit caps the number of kept history entries
		ScanHistoryLimit int `env:"SCANNER_SCAN_HISTORY_LIMIT" env-default:"1000" yaml:"scanHistoryLimit"`
		// PollAttempts is the number of analysis polls before giving up
		PollAttempts int `env:"SCANNER_POLL_ATTEMPTS" env-default:"30" yaml:"pollAttempts"`
		// PollInterval is the delay between two analysis polls
		PollInterval time.Duration `env:"SCANNER_POLL_INTERVAL" env-default:"2s" yaml:"pollInterval"`
		// CycleInterval is the pause between two scheduler cycles
		CycleInterval time.Duration `env:"SCANNER_CYCLE_INTERVAL" env-default:"1h" yaml:"cycleInterval"`
		// SettingsRetryInterval is the pause after a failed or disabled settings load
		SettingsRetryInterval time.Duration `env:"SCANNER_SETTINGS_RETRY_INTERVAL" env-default:"60s" yaml:"settingsRetryInterval"` //nolint: lll
		// HashBufferSize is the read chunk used while hashing, e.g. "64KiB"
		HashBufferSize string `env:"SCANNER_HASH_BUFFER_SIZE" env-default:"64KiB" yaml:"hashBufferSize"`
	} `yaml:"scanner"`

	// Cache contains the result cache settings
	Cache struct {
		// Backend is either memory or redis
		Backend string `env:"CACHE_BACKEND" env-default:"memory" yaml:"backend"`
		// TTL is how long a verdict is served from the cache
		TTL time.Duration `env:"CACHE_TTL" env-default:"24h" yaml:"ttl"`
		// PurgeInterval is how often expired in-memory entries are dropped
		PurgeInterval time.Duration `env:"CACHE_PURGE_INTERVAL" env-default:"10m" yaml:"purgeInterval"`
		Redis         struct {
			Addr      string `env:"CACHE_REDIS_ADDR" env-default:"localhost:6379" yaml:"addr"`
			Password  string `env:"CACHE_REDIS_PASSWORD" yaml:"password"`
			DB        int    `env:"CACHE_REDIS_DB" env-default:"0" yaml:"db"`
			KeyPrefix string `env:"CACHE_REDIS_KEY_PREFIX" env-default:"filescanner:result:" yaml:"keyPrefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	// History contains the scan history persistence settings
	History struct {
		// Path of the bbolt database file holding the history
		Path string `env:"HISTORY_PATH" env-default:"filescanner.db" yaml:"path"`
		// OpenTimeout bounds waiting for the database file lock
		OpenTimeout time.Duration `env:"HISTORY_OPEN_TIMEOUT" env-default:"1s" yaml:"openTimeout"`
	} `yaml:"history"`

	// Monitor contains the tracked file discovery and filter settings
	Monitor struct {
		// Roots are walked to seed the tracked files
		Roots []string `env:"MONITOR_ROOTS" env-separator:"," yaml:"roots"`
		// Extensions restricts tracked files to these extensions when not empty
		Extensions []string `env:"MONITOR_EXTENSIONS" env-separator:"," yaml:"extensions"`
		// Exclude holds doublestar patterns of paths that are never tracked
		Exclude []string `env:"MONITOR_EXCLUDE" env-separator:"," yaml:"exclude"`
		// MinFileSize and MaxFileSize are human sizes, e.g. "1B" or "650MB"; empty means unbounded
		MinFileSize string `env:"MONITOR_MIN_FILE_SIZE" yaml:"minFileSize"`
		MaxFileSize string `env:"MONITOR_MAX_FILE_SIZE" env-default:"650MB" yaml:"maxFileSize"`
		// MaxDepth limits discovery below each root
		MaxDepth int `env:"MONITOR_MAX_DEPTH" env-default:"8" yaml:"maxDepth"`
	} `yaml:"monitor"`

	// Notify contains the notification settings
	Notify struct {
		// URLs are shoutrrr service URLs, e.g. "slack://token@channel"
		URLs []string `env:"NOTIFY_URLS" env-separator:"," yaml:"urls"`
		// Events are the event kinds delivered through URLs
		Events []string `env:"NOTIFY_EVENTS" env-separator:"," env-default:"COMPLETED,FAILED" yaml:"events"`
		// DetectionsOnly drops COMPLETED events with a CLEAN verdict
		DetectionsOnly bool `env:"NOTIFY_DETECTIONS_ONLY" env-default:"false" yaml:"detectionsOnly"`
	} `yaml:"notify"`

	// HTTP contains all HTTP server related configurations
	HTTP struct {
		// Addr is the address and port the HTTP server will listen on
		Addr string `env:"HTTP_ADDR" env-default:":8080" yaml:"addr"`
		// ReadTimeout is the maximum duration for reading the entire request, including the body
		ReadTimeout time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"1m" yaml:"readTimeout"`
		// ReadHeaderTimeout is the amount of time allowed to read request headers
		ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" env-default:"10s" yaml:"readHeaderTimeout"`
		// WriteTimeout is the maximum duration before timing out writes of the response
		WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"2m" yaml:"writeTimeout"`
		// IdleTimeout is the maximum amount of time to wait for the next request when keep-alives are enabled
		IdleTimeout time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"2m" yaml:"idleTimeout"`
		// RequestTimeout is the maximum time allowed for processing a single request
		RequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT" env-default:"10s" yaml:"requestTimeout"`
		// MaxHeaderBytes controls the maximum number of bytes the server will read parsing the request header
		MaxHeaderBytes int `env:"HTTP_MAX_HEADER_BYTES" env-default:"0" yaml:"maxHeaderBytes"`
		// MetricsPath defines the URL path where metrics are exposed
		MetricsPath string `env:"HTTP_METRICS_PATH" env-default:"/metrics" yaml:"metricsPath"`
		// CORSOrigins lists the allowed origins; empty allows any
		CORSOrigins []string `env:"HTTP_CORS_ORIGINS" env-separator:"," yaml:"corsOrigins"`
	} `yaml:"http"`

	// JWT contains the keys used to sign and verify API tokens
	JWT struct {
		// PublicKey verifies bearer tokens; authentication is disabled when empty
		PublicKey string `env:"JWT_PUBLIC_KEY" yaml:"publicKey"`
		// PrivateKey signs tokens issued by the jwt command
		PrivateKey string `env:"JWT_PRIVATE_KEY" yaml:"privateKey"`
	} `yaml:"jwt"`

	// GracefulShutdownTimeout is the maximum duration to wait for ongoing requests to complete during shutdown
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_TIMEOUT" env-default:"10s" yaml:"gracefulShutdownTimeout"` //nolint: lll
}

// Load receives the path for yaml config file and returns a filled Config struct.
func Load(configPath string) (*Config, error) {
	var cfg Config
	err := cleanenv.ReadConfig(configPath, &cfg)
	if err != nil {
		return nil, fmt.Errorf("could not read config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Validate checks values that cleanenv cannot check by itself.
func (c *Config) Validate() error {
	var errs []error
	if c.Scanner.MaxConcurrentScans < 1 {
		errs = append(errs, errors.New("scanner.maxConcurrentScans must be at least 1"))
	}
	if c.Scanner.RetryAttempts < 0 {
		errs = append(errs, errors.New("scanner.retryAttempts must not be negative"))
	}
	if c.Scanner.ScanBatchSize < 1 {
		errs = append(errs, errors.New("scanner.scanBatchSize must be at least 1"))
	}
	if c.Scanner.PollAttempts < 1 {
		errs = append(errs, errors.New("scanner.pollAttempts must be at least 1"))
	}
	if c.Scanner.ScanHistoryLimit < 1 {
		errs = append(errs, errors.New("scanner.scanHistoryLimit must be at least 1"))
	}
	if h := c.Scanner.AutoRescanIntervalHours; h != nil && *h < 1 {
		errs = append(errs, errors.New("scanner.autoRescanIntervalHours must be at least 1 when set"))
	}
	if c.Scanner.RetryBackoff != "fixed" && c.Scanner.RetryBackoff != "exponential" {
		errs = append(errs, fmt.Errorf("scanner.retryBackoff %q is neither fixed nor exponential", c.Scanner.RetryBackoff))
	}
	if _, err := c.HashBufferSize(); err != nil {
		errs = append(errs, err)
	}
	if c.Scanner.CycleInterval <= 0 {
		errs = append(errs, errors.New("scanner.cycleInterval must be positive"))
	}
	if c.Scanner.SettingsRetryInterval <= 0 {
		errs = append(errs, errors.New("scanner.settingsRetryInterval must be positive"))
	}
	if c.Cache.PurgeInterval <= 0 {
		errs = append(errs, errors.New("cache.purgeInterval must be positive"))
	}
	if c.Cache.Backend != "memory" && c.Cache.Backend != "redis" {
		errs = append(errs, fmt.Errorf("cache.backend %q is neither memory nor redis", c.Cache.Backend))
	}
	minSize, maxSize, err := c.FileSizeBounds()
	if err != nil {
		errs = append(errs, err)
	} else if maxSize > 0 && minSize > maxSize {
		errs = append(errs, errors.New("monitor.minFileSize is above monitor.maxFileSize"))
	}

	return errors.Join(errs...)
}

// RescanInterval returns the background rescan interval and whether
// background rescans are enabled.
func (c *Config) RescanInterval() (time.Duration, bool) {
	if c.Scanner.AutoRescanIntervalHours == nil || *c.Scanner.AutoRescanIntervalHours < 1 {
		return 0, false
	}

	return time.Duration(*c.Scanner.AutoRescanIntervalHours) * time.Hour, true
}

// HashBufferSize parses Scanner.HashBufferSize.
func (c *Config) HashBufferSize() (int, error) {
	n, err := humanize.ParseBytes(c.Scanner.HashBufferSize)
	if err != nil {
		return 0, fmt.Errorf("scanner.hashBufferSize: %w", err)
	}
	if n == 0 {
		return 0, errors.New("scanner.hashBufferSize must not be zero")
	}

	return int(n), nil //nolint: gosec
}

// FileSizeBounds parses the monitor size limits; zero means unbounded.
func (c *Config) FileSizeBounds() (int64, int64, error) {
	parse := func(name, s string) (int64, error) {
		if s == "" {
			return 0, nil
		}
		n, err := humanize.ParseBytes(s)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", name, err)
		}

		return int64(n), nil //nolint: gosec
	}

	minSize, err := parse("monitor.minFileSize", c.Monitor.MinFileSize)
	if err != nil {
		return 0, 0, err
	}
	maxSize, err := parse("monitor.maxFileSize", c.Monitor.MaxFileSize)
	if err != nil {
		return 0, 0, err
	}

	return minSize, maxSize, nil
}
