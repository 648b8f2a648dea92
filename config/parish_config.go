// Package config loads and validates the runtime configuration from the
// environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is built once at startup and passed read-only into every
// constructor. Nothing mutates it after Load returns.
type Config struct {
	Environment string
	Port        string
	LogLevel    string

	Mail       MailConfig
	LLM        LLMConfig
	Knowledge  KnowledgeConfig
	Validation ValidationConfig
	Schedule   ScheduleConfig
	Redis      RedisConfig
	Mongo      MongoConfig
	Database   DatabaseConfig
	Auth       AuthConfig
	Worker     WorkerConfig
}

type MailConfig struct {
	ImpersonateEmail      string
	CredentialsFile       string
	LabelName             string
	ErrorLabelName        string
	ValidationFailedLabel string
	MaxEmailsPerRun       int
	DryRun                bool
	// WatchTopic is the Pub/Sub topic for Gmail push notifications.
	// Empty disables watch renewal.
	WatchTopic string
	// SenderBlocklist are exact addresses or domains never replied to.
	SenderBlocklist    []string
	IgnoreKeywords     []string
	ForceReplyKeywords []string
}

type LLMConfig struct {
	Provider        string // "gemini" or "openai"
	GeminiAPIKey    string
	OpenAIAPIKey    string
	Model           string
	Temperature     float64
	MaxOutputTokens int
	RequestTimeout  time.Duration
	Retry           RetryPolicy
}

// RetryPolicy is the explicit retry contract for provider calls. The
// Retryable predicate decides per-error; everything else is fixed at load
// time.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
}

// Delay returns the backoff before attempt n (1-based, n>=2).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 2; i < attempt; i++ {
		d = time.Duration(float64(d) * p.Multiplier)
	}
	return d
}

type KnowledgeConfig struct {
	SpreadsheetID     string
	SheetName         string
	ReplacementsSheet string
	BookingsSheet     string
	CacheTTL          time.Duration
}

type ValidationConfig struct {
	MinValidScore    float64
	StrictScore      float64
	StrictMode       bool
	MinLength        int
	OptimalMinLength int
	WarnMaxLength    int
}

type ScheduleConfig struct {
	Timezone string
	// SuspensionDisabled forces the suspension check to false, for tests
	// and manual runs.
	SuspensionDisabled bool
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
	// MemoryTTL bounds thread and sender memory entries.
	MemoryTTL time.Duration
}

type MongoConfig struct {
	URI      string
	Database string
	// ArchiveTTL expires rejected replies from the archive.
	ArchiveTTL time.Duration
}

type DatabaseConfig struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type AuthConfig struct {
	JWTSecret      string
	PubSubAudience string
	MonitoredEmail string
}

type WorkerConfig struct {
	PollInterval    time.Duration
	ShutdownTimeout time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Port:        getEnv("PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		Mail: MailConfig{
			ImpersonateEmail:      getEnv("IMPERSONATE_EMAIL", "segreteria@parrocchia.it"),
			CredentialsFile:       getEnv("GOOGLE_CREDENTIALS_FILE", "credentials.json"),
			LabelName:             getEnv("LABEL_NAME", "IA"),
			ErrorLabelName:        getEnv("ERROR_LABEL_NAME", "IA-errore"),
			ValidationFailedLabel: getEnv("VALIDATION_FAILED_LABEL", "IA-scartata"),
			MaxEmailsPerRun:       getEnvInt("MAX_EMAILS_PER_RUN", 10),
			DryRun:                getEnvBool("DRY_RUN", false),
			WatchTopic:            getEnv("GMAIL_WATCH_TOPIC", ""),
			SenderBlocklist:       getEnvSlice("IGNORE_SENDERS", nil),
			IgnoreKeywords:        getEnvSlice("IGNORE_KEYWORDS", nil),
			ForceReplyKeywords: getEnvSlice("FORCE_REPLY_KEYWORDS", []string{
				"non va bene", "sbagliato", "errore", "non funziona",
				"non è giusto", "non corretto", "non va",
			}),
		},

		LLM: LLMConfig{
			Provider:        getEnv("LLM_PROVIDER", "gemini"),
			GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
			OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
			Model:           getEnv("LLM_MODEL", "gemini-2.0-flash"),
			Temperature:     getEnvFloat("LLM_TEMPERATURE", 0.6),
			MaxOutputTokens: getEnvInt("LLM_MAX_OUTPUT_TOKENS", 800),
			RequestTimeout:  getEnvDuration("LLM_TIMEOUT", 30*time.Second),
			Retry: RetryPolicy{
				MaxAttempts: getEnvInt("LLM_MAX_RETRIES", 3),
				BaseDelay:   getEnvDuration("LLM_RETRY_BASE_DELAY", 2*time.Second),
				Multiplier:  getEnvFloat("LLM_RETRY_MULTIPLIER", 2.0),
			},
		},

		Knowledge: KnowledgeConfig{
			SpreadsheetID:     getEnv("SPREADSHEET_ID", ""),
			SheetName:         getEnv("SHEET_NAME", "Istruzioni"),
			ReplacementsSheet: getEnv("REPLACEMENTS_SHEET", "Sostituzioni"),
			BookingsSheet:     getEnv("BOOKINGS_SHEET", "Prenotazioni"),
			CacheTTL:          getEnvDuration("KB_CACHE_TTL", time.Hour),
		},

		Validation: ValidationConfig{
			MinValidScore:    getEnvFloat("VALIDATION_MIN_SCORE", 0.6),
			StrictScore:      getEnvFloat("VALIDATION_STRICT_SCORE", 0.8),
			StrictMode:       getEnvBool("VALIDATION_STRICT", false),
			MinLength:        getEnvInt("VALIDATION_MIN_LENGTH", 25),
			OptimalMinLength: getEnvInt("VALIDATION_OPTIMAL_MIN_LENGTH", 100),
			WarnMaxLength:    getEnvInt("VALIDATION_WARN_MAX_LENGTH", 3000),
		},

		Schedule: ScheduleConfig{
			Timezone:           getEnv("TIMEZONE", "Europe/Rome"),
			SuspensionDisabled: getEnvBool("SUSPENSION_DISABLED", false),
		},

		Redis: RedisConfig{
			URL:       getEnv("REDIS_URL", "localhost:6379"),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvInt("REDIS_DB", 0),
			MemoryTTL: getEnvDuration("MEMORY_TTL", 30*24*time.Hour),
		},

		Mongo: MongoConfig{
			URI:        getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:   getEnv("MONGODB_DATABASE", "parish"),
			ArchiveTTL: getEnvDuration("ARCHIVE_TTL", 90*24*time.Hour),
		},

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        int32(getEnvInt("DB_MAX_CONNS", 10)),
			MinConns:        int32(getEnvInt("DB_MIN_CONNS", 2)),
			MaxConnLifetime: getEnvDuration("DB_MAX_CONN_LIFETIME", time.Hour),
		},

		Auth: AuthConfig{
			JWTSecret:      getEnv("JWT_SECRET", ""),
			PubSubAudience: getEnv("PUBSUB_AUDIENCE", ""),
			MonitoredEmail: getEnv("MONITORED_EMAIL", getEnv("IMPERSONATE_EMAIL", "segreteria@parrocchia.it")),
		},

		Worker: WorkerConfig{
			PollInterval:    getEnvDuration("WORKER_POLL_INTERVAL", 5*time.Minute),
			ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.LLM.Provider {
	case "gemini":
		if c.LLM.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when LLM_PROVIDER=gemini")
		}
	case "openai":
		if c.LLM.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
		}
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER %q", c.LLM.Provider)
	}
	if c.LLM.Retry.MaxAttempts < 1 {
		return fmt.Errorf("LLM_MAX_RETRIES must be at least 1")
	}
	if c.Validation.MinValidScore <= 0 || c.Validation.MinValidScore > 1 {
		return fmt.Errorf("VALIDATION_MIN_SCORE must be in (0,1]")
	}
	if c.Mail.MaxEmailsPerRun < 1 {
		return fmt.Errorf("MAX_EMAILS_PER_RUN must be at least 1")
	}
	return nil
}

func (c *Config) IsDevelopment() bool { return c.Environment == "development" }
func (c *Config) IsProduction() bool  { return c.Environment == "production" }

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		// plain integers are read as seconds
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return fallback
}
