package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Ingest   IngestConfig
	Profile  ProfileConfig
	Enrich   EnrichConfig
	Export   ExportConfig
}

type AppConfig struct {
	AppName     string
	Environment string
	HTTPPort    string
}

type DatabaseConfig struct {
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	ConnectTimeout        time.Duration
	PoolMaxConns          int32
	PoolMinConns          int32
	PoolMaxConnLifetime   time.Duration
	PoolMaxConnIdleTime   time.Duration
	PoolHealthCheckPeriod time.Duration
}

type JWTConfig struct {
	AdminKey         string
	AccessSecret     string
	AccessExpiresIn  time.Duration
	RefreshSecret    string
	RefreshExpiresIn time.Duration
}

// IngestConfig carries the run caps. The daily budgets treat 0 as unlimited;
// MaxFetchPerRun must always be bounded.
type IngestConfig struct {
	MaxCallsPerDay     int
	MaxNewJobsPerDay   int
	MaxFetchPerRun     int
	PerSourceLimit     int
	RequestTimeout     time.Duration
	GreenhousePerPage  int
	GreenhouseMaxPages int
	CronSpec           string
}

type ProfileConfig struct {
	CVPath string
}

type EnrichConfig struct {
	Enabled bool
	APIKey  string
	BaseURL string
	Model   string
	Limit   int
}

type ExportConfig struct {
	Enabled          bool
	NotionToken      string
	NotionVersion    string
	NotionDataSource string
	SyncLimit        int
	FitMin           int
}

var (
	errMissingRequiredEnv = errors.New("missing required environment variables")
	errInvalidConfig      = errors.New("invalid configuration")
)

func Load() (Config, error) {
	cfg := Config{}

	var missing []string
	req := func(key string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}
	opt := func(key string) string {
		return strings.TrimSpace(os.Getenv(key))
	}
	optInt := func(key string, def int) int {
		raw := strings.TrimSpace(os.Getenv(key))
		if raw == "" {
			return def
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			missing = append(missing, key+" (not an integer)")
			return def
		}
		return v
	}
	optBool := func(key string, def bool) bool {
		raw := strings.TrimSpace(os.Getenv(key))
		switch raw {
		case "":
			return def
		case "0", "false":
			return false
		case "1", "true":
			return true
		}
		missing = append(missing, key+" (not a boolean)")
		return def
	}
	optSeconds := func(key string, def time.Duration) time.Duration {
		raw := strings.TrimSpace(os.Getenv(key))
		if raw == "" {
			return def
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			missing = append(missing, key+" (not a duration in seconds)")
			return def
		}
		return time.Duration(v) * time.Second
	}

	cfg.App = AppConfig{
		AppName:     req("APP_NAME"),
		Environment: req("APP_ENV"),
		HTTPPort:    opt("HTTP_PORT"),
	}

	cfg.Database = DatabaseConfig{
		DBHost:                opt("DB_HOST"),
		DBPort:                opt("DB_PORT"),
		DBName:                opt("DB_NAME"),
		DBUser:                opt("DB_USER"),
		DBPassword:            opt("DB_PASSWORD"),
		DBSSLMode:             opt("DB_SSL_MODE"),
		ConnectTimeout:        optSeconds("DB_CONNECT_TIMEOUT_S", 5*time.Second),
		PoolMaxConns:          int32(optInt("DB_POOL_MAX_CONNS", 0)),
		PoolMinConns:          int32(optInt("DB_POOL_MIN_CONNS", 0)),
		PoolMaxConnLifetime:   optSeconds("DB_POOL_MAX_CONN_LIFETIME_S", 0),
		PoolMaxConnIdleTime:   optSeconds("DB_POOL_MAX_CONN_IDLE_S", 0),
		PoolHealthCheckPeriod: optSeconds("DB_POOL_HEALTHCHECK_S", 0),
	}

	cfg.JWT = JWTConfig{
		AdminKey:         opt("ADMIN_API_KEY"),
		AccessSecret:     opt("JWT_ACCESS_SECRET"),
		AccessExpiresIn:  optSeconds("JWT_ACCESS_EXPIRES_S", 15*time.Minute),
		RefreshSecret:    opt("JWT_REFRESH_SECRET"),
		RefreshExpiresIn: optSeconds("JWT_REFRESH_EXPIRES_S", 24*time.Hour),
	}

	cfg.Ingest = IngestConfig{
		MaxCallsPerDay:     optInt("MAX_CALLS_PER_DAY", 50),
		MaxNewJobsPerDay:   optInt("MAX_NEW_JOBS_PER_DAY", 200),
		MaxFetchPerRun:     optInt("MAX_FETCH_PER_RUN", 50),
		PerSourceLimit:     optInt("INGEST_PER_SOURCE_LIMIT", 0),
		RequestTimeout:     optSeconds("REQUEST_TIMEOUT_S", 20*time.Second),
		GreenhousePerPage:  optInt("GREENHOUSE_PER_PAGE", 100),
		GreenhouseMaxPages: optInt("GREENHOUSE_MAX_PAGES", 50),
		CronSpec:           opt("INGEST_CRON_SPEC"),
	}

	cfg.Profile = ProfileConfig{
		CVPath: opt("CV_PATH"),
	}

	cfg.Enrich = EnrichConfig{
		Enabled: optBool("ENRICH_ENABLED", false),
		APIKey:  opt("OPENAI_API_KEY"),
		BaseURL: opt("OPENAI_BASE_URL"),
		Model:   opt("OPENAI_MODEL"),
		Limit:   optInt("ENRICH_LIMIT", 25),
	}

	cfg.Export = ExportConfig{
		Enabled:          optBool("SYNC_TO_NOTION", false),
		NotionToken:      opt("NOTION_TOKEN"),
		NotionVersion:    opt("NOTION_VERSION"),
		NotionDataSource: opt("NOTION_DATA_SOURCE_ID"),
		SyncLimit:        optInt("SYNC_LIMIT", 50),
		FitMin:           optInt("FIT_MIN", 60),
	}
	if cfg.Export.NotionVersion == "" {
		cfg.Export.NotionVersion = "2025-09-03"
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errMissingRequiredEnv, strings.Join(missing, ", "))
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate fails fast on out-of-range values so a misconfigured cap can never
// silently disable enforcement mid-run.
func Validate(cfg Config) error {
	var problems []string

	checkInt := func(name string, v, minV, maxV int) {
		if v < minV {
			problems = append(problems, fmt.Sprintf("%s must be >= %d (got %d)", name, minV, v))
		}
		if v > maxV {
			problems = append(problems, fmt.Sprintf("%s must be <= %d (got %d)", name, maxV, v))
		}
	}

	checkInt("MAX_CALLS_PER_DAY", cfg.Ingest.MaxCallsPerDay, 0, 10000)
	checkInt("MAX_NEW_JOBS_PER_DAY", cfg.Ingest.MaxNewJobsPerDay, 0, 50000)
	checkInt("MAX_FETCH_PER_RUN", cfg.Ingest.MaxFetchPerRun, 1, 50000)
	checkInt("INGEST_PER_SOURCE_LIMIT", cfg.Ingest.PerSourceLimit, 0, 1000000)
	checkInt("GREENHOUSE_PER_PAGE", cfg.Ingest.GreenhousePerPage, 1, 500)
	checkInt("GREENHOUSE_MAX_PAGES", cfg.Ingest.GreenhouseMaxPages, 1, 500)
	checkInt("SYNC_LIMIT", cfg.Export.SyncLimit, 1, 500)
	checkInt("FIT_MIN", cfg.Export.FitMin, 0, 100)

	if cfg.Ingest.RequestTimeout < time.Second || cfg.Ingest.RequestTimeout > 120*time.Second {
		problems = append(problems, fmt.Sprintf("REQUEST_TIMEOUT_S must be within 1..120 (got %s)", cfg.Ingest.RequestTimeout))
	}

	if cfg.Export.Enabled {
		if cfg.Export.NotionToken == "" {
			problems = append(problems, "NOTION_TOKEN is required when SYNC_TO_NOTION=1")
		}
		if cfg.Export.NotionDataSource == "" {
			problems = append(problems, "NOTION_DATA_SOURCE_ID is required when SYNC_TO_NOTION=1")
		}
	}

	if cfg.Enrich.Enabled && cfg.Enrich.APIKey == "" {
		problems = append(problems, "OPENAI_API_KEY is required when ENRICH_ENABLED=1")
	}

	if cfg.JWT.AdminKey != "" && cfg.JWT.AccessSecret == "" {
		problems = append(problems, "JWT_ACCESS_SECRET is required when ADMIN_API_KEY is set")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", errInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// IsInvalid reports whether err came from range validation rather than a
// missing variable; both abort the process before any run starts.
func IsInvalid(err error) bool {
	return errors.Is(err, errInvalidConfig)
}
