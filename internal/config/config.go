package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Plan generation providers.
const (
	ProviderOpenAI = "openai"
	ProviderGroq   = "groq"
	ProviderGemini = "gemini"
)

// Plan output formats. Structured asks the provider for schema-conforming JSON,
// markdown asks for freeform text that goes through the normalizer heuristics.
const (
	FormatStructured = "structured"
	FormatMarkdown   = "markdown"
)

// Config holds the configuration for the application.
type Config struct {
	Env          string
	Port         string
	DatabasePath string
	JWTSecret    string
	CookieSecure bool

	// Generation service
	PlanProvider  string
	PlanFormat    string
	PlanTimeout   time.Duration
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	GroqAPIKey    string
	GroqModel     string
	GeminiAPIKey  string
	GeminiModel   string

	// Email
	SESEmail  string
	AWSRegion string

	// Telegram Config
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
	AdminTelegramID        int64
}

// LoadDotEnv loads variables from a .env file when one exists. Variables already
// present in the environment win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable not set")
	}

	provider := strings.ToLower(getEnv("PLAN_PROVIDER", ProviderOpenAI))
	switch provider {
	case ProviderOpenAI, ProviderGroq, ProviderGemini:
	default:
		return nil, fmt.Errorf("PLAN_PROVIDER environment variable is invalid: %q", provider)
	}

	format := strings.ToLower(getEnv("PLAN_FORMAT", FormatStructured))
	if format != FormatStructured && format != FormatMarkdown {
		return nil, fmt.Errorf("PLAN_FORMAT environment variable is invalid: %q", format)
	}

	timeoutSeconds, err := strconv.Atoi(getEnv("PLAN_TIMEOUT_SECONDS", "90"))
	if err != nil || timeoutSeconds <= 0 {
		return nil, fmt.Errorf("PLAN_TIMEOUT_SECONDS environment variable is invalid: %q", os.Getenv("PLAN_TIMEOUT_SECONDS"))
	}

	cookieSecure := false
	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		cookieSecure, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("COOKIE_SECURE environment variable is invalid: %q", v)
		}
	}

	// Telegram Config (optional for the web server and CLI, required for the bot)
	allowed, err := parseIDList(os.Getenv("TELEGRAM_ALLOWED_USER_IDS"))
	if err != nil {
		return nil, fmt.Errorf("TELEGRAM_ALLOWED_USER_IDS environment variable is invalid: %w", err)
	}
	var adminID int64
	if v := os.Getenv("ADMIN_TELEGRAM_ID"); v != "" {
		adminID, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ADMIN_TELEGRAM_ID environment variable is invalid: %q", v)
		}
	}

	return &Config{
		Env:                    getEnv("APP_ENV", "development"),
		Port:                   getEnv("PORT", "8080"),
		DatabasePath:           getEnv("DATABASE_PATH", "data/keto-planner.db"),
		JWTSecret:              jwtSecret,
		CookieSecure:           cookieSecure,
		PlanProvider:           provider,
		PlanFormat:             format,
		PlanTimeout:            time.Duration(timeoutSeconds) * time.Second,
		OpenAIAPIKey:           os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:            getEnv("OPENAI_MODEL", "gpt-4o"),
		OpenAIBaseURL:          os.Getenv("OPENAI_BASE_URL"),
		GroqAPIKey:             os.Getenv("GROQ_API_KEY"),
		GroqModel:              getEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),
		GeminiAPIKey:           os.Getenv("GEMINI_API_KEY"),
		GeminiModel:            getEnv("GEMINI_MODEL", "gemini-1.5-pro"),
		SESEmail:               os.Getenv("SES_EMAIL"),
		AWSRegion:              getEnv("AWS_REGION", "us-east-1"),
		TelegramBotToken:       os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL:     os.Getenv("TELEGRAM_WEBHOOK_URL"),
		TelegramAllowedUserIDs: allowed,
		AdminTelegramID:        adminID,
	}, nil
}

// IsProduction reports whether APP_ENV selects production behaviour.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Env)
	return env == "prod" || env == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseIDList(s string) ([]int64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
