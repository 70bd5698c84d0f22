package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// CasdoorConfig holds the identity provider connection settings.
type CasdoorConfig struct {
	Endpoint     string `validate:"required,url"`
	ClientID     string `validate:"required"`
	ClientSecret string `validate:"required"`
	Cert         string
	Organization string `validate:"required"`
	Application  string `validate:"required"`
}

// TestConfig holds the exam-domain settings. Timer variant picks exactly one
// of the two timing models; the duration fields for the unselected model are
// ignored.
type TestConfig struct {
	QuestionBankPath string `validate:"required"`
	GradingScalePath string `validate:"required"`

	TimerVariant   string        `validate:"oneof=whole_test per_question"`
	Duration       time.Duration `validate:"min=1m"`
	QuestionBudget time.Duration `validate:"min=1s"`
	AutoSaveEvery  int           `validate:"min=1"`
	PassThreshold  float64       `validate:"gt=0,lte=1"`
	MaxAttempts    int           `validate:"min=1"`
	RandomizeOrder bool
	TeacherEmail   string        `validate:"required,email"`
	ResultCacheTTL time.Duration
}

// Config is the full application configuration, read from the environment
// (with .env support for local development).
type Config struct {
	Environment string `validate:"oneof=development staging production"`
	Port        string `validate:"required"`
	LogLevel    slog.Level

	DatabaseURL string `validate:"required"`
	RedisURL    string

	KafkaBrokers []string

	Casdoor CasdoorConfig
	Test    TestConfig
}

// LoadConfig reads configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment variables
// win over .env values.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Port:        getEnv("PORT", "8080"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),

		KafkaBrokers: splitList(getEnv("KAFKA_BROKERS", "")),

		Casdoor: CasdoorConfig{
			Endpoint:     getEnv("CASDOOR_ENDPOINT", ""),
			ClientID:     getEnv("CASDOOR_CLIENT_ID", ""),
			ClientSecret: getEnv("CASDOOR_CLIENT_SECRET", ""),
			Cert:         getEnv("CASDOOR_CERT", ""),
			Organization: getEnv("CASDOOR_ORGANIZATION", ""),
			Application:  getEnv("CASDOOR_APPLICATION", ""),
		},

		Test: TestConfig{
			QuestionBankPath: getEnv("QUESTION_BANK_PATH", "data/test_questions.json"),
			GradingScalePath: getEnv("GRADING_SCALE_PATH", "data/grading_scale.json"),

			TimerVariant:   getEnv("TEST_TIMER_VARIANT", "whole_test"),
			Duration:       time.Duration(getEnvInt("TEST_DURATION_MINUTES", 30)) * time.Minute,
			QuestionBudget: time.Duration(getEnvInt("TEST_QUESTION_SECONDS", 20)) * time.Second,
			AutoSaveEvery:  getEnvInt("TEST_AUTO_SAVE_INTERVAL", 5),
			PassThreshold:  getEnvFloat("TEST_PASS_THRESHOLD", 0.48),
			MaxAttempts:    getEnvInt("TEST_MAX_ATTEMPTS", 2),
			RandomizeOrder: getEnvBool("TEST_RANDOMIZE_QUESTIONS", true),
			TeacherEmail:   getEnv("TEACHER_NOTIFICATION_EMAIL", ""),
			ResultCacheTTL: time.Duration(getEnvInt("RESULT_CACHE_TTL_SECONDS", 60)) * time.Second,
		},
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

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

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseLogLevel(v string) slog.Level {
	switch strings.ToLower(v) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
