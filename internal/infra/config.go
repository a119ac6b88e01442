package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	JobStoreFile     = "file"
	JobStorePostgres = "postgres"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv  string
	Port    string
	DataDir string

	OpenAIAPIKey           string
	OpenAIModel            string
	OpenAIBaseURL          string
	OpenAIOrg              string
	OpenAITimeout          time.Duration
	OpenAIStructuredOutput bool

	HeyGenAPIKey        string
	HeyGenBaseURL       string
	HeyGenOrientation   string
	HeyGenSubmitTimeout time.Duration
	HeyGenStatusTimeout time.Duration

	RateLimitRequests int
	RateLimitWindow   time.Duration

	APIKey            string
	CORSOrigins       []string
	TrustProxyHeaders bool

	JobStoreBackend string
	DatabaseURL     string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:                 getEnv("APP_ENV", "development"),
		Port:                   getEnv("PORT", "8000"),
		DataDir:                getEnv("WAITLIST_DIR", "."),
		OpenAIAPIKey:           strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:            getEnv("OPENAI_MODEL", "gpt-4o"),
		OpenAIBaseURL:          getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIOrg:              os.Getenv("OPENAI_ORG"),
		OpenAITimeout:          time.Second * time.Duration(getEnvInt("OPENAI_TIMEOUT_SECONDS", 60)),
		OpenAIStructuredOutput: getEnvBool("OPENAI_STRUCTURED_OUTPUT", true),
		HeyGenAPIKey:           strings.TrimSpace(os.Getenv("HEYGEN_API_KEY")),
		HeyGenBaseURL:          getEnv("HEYGEN_BASE_URL", "https://api.heygen.com"),
		HeyGenOrientation:      getEnv("HEYGEN_ORIENTATION", "landscape"),
		HeyGenSubmitTimeout:    time.Second * time.Duration(getEnvInt("HEYGEN_SUBMIT_TIMEOUT_SECONDS", 60)),
		HeyGenStatusTimeout:    time.Second * time.Duration(getEnvInt("HEYGEN_STATUS_TIMEOUT_SECONDS", 15)),
		RateLimitRequests:      getEnvInt("RATE_LIMIT_REQUESTS", 10),
		RateLimitWindow:        time.Second * time.Duration(getEnvInt("RATE_LIMIT_WINDOW_SEC", 3600)),
		APIKey:                 strings.TrimSpace(os.Getenv("STRANG_API_KEY")),
		CORSOrigins:            parseOrigins(getEnv("CORS_ORIGINS", "*")),
		TrustProxyHeaders:      getEnvBool("TRUST_PROXY_HEADERS", false),
		JobStoreBackend:        strings.ToLower(getEnv("JOB_STORE_BACKEND", JobStoreFile)),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		HTTPReadTimeout:        time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:       time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 150)),
		HTTPIdleTimeout:        time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.RateLimitRequests <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_REQUESTS must be positive")
	}
	if cfg.RateLimitWindow <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_WINDOW_SEC must be positive")
	}

	switch cfg.JobStoreBackend {
	case JobStoreFile:
	case JobStorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when JOB_STORE_BACKEND=postgres")
		}
	default:
		return nil, fmt.Errorf("unsupported JOB_STORE_BACKEND %q", cfg.JobStoreBackend)
	}

	return cfg, nil
}

// OpenAIConfigured reports whether a non-blank OpenAI key is present.
func (c *Config) OpenAIConfigured() bool {
	return c != nil && c.OpenAIAPIKey != ""
}

// HeyGenConfigured reports whether a non-blank HeyGen key is present.
func (c *Config) HeyGenConfigured() bool {
	return c != nil && c.HeyGenAPIKey != ""
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return fallback
}

// parseOrigins splits a comma separated origin list. "*" allows every origin.
func parseOrigins(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "*" {
		return []string{"*"}
	}
	var origins []string
	for _, part := range strings.Split(raw, ",") {
		if o := strings.TrimSpace(part); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
