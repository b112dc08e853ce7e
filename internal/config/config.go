package config

import (
	"os"
	"strconv"
	"strings"
)

// Backend selects which remote grading wire format the service talks.
type Backend string

const (
	// BackendProxy is the purpose-built grading proxy (canonical).
	BackendProxy Backend = "proxy"
	// BackendOpenAI is a chat-completion style endpoint.
	BackendOpenAI Backend = "openai"
)

type Config struct {
	HTTPAddr    string
	CORSOrigins []string

	DBDriver string
	DBDSN    string

	BlobBasePath string

	AuthSecret string

	// Remote grading backend.
	AIBackend     Backend
	AIBaseURL     string
	AIAPIKey      string
	AIModel       string
	AIMaxTokens   int
	AITemperature float64

	DefaultRubric string
	SystemPrompt  string

	// Extraction limits.
	ExtractMaxChars int

	// Optional LTI AGS write-back for assignment grades.
	GradebookEnabled      bool
	GradebookTokenURL     string
	GradebookClientID     string
	GradebookClientSecret string
}

func FromEnv() Config {
	backend := Backend(envOr("AI_BACKEND", string(BackendProxy)))
	baseURL := os.Getenv("AI_BASE_URL")
	if baseURL == "" {
		switch backend {
		case BackendOpenAI:
			baseURL = "https://api.openai.com/v1"
		default:
			baseURL = "http://localhost:8081"
		}
	}
	return Config{
		HTTPAddr:    envOr("HTTP_ADDR", ":8080"),
		CORSOrigins: csvOr("CORS_ORIGINS", "http://localhost:3000"),

		DBDriver: envOr("DB_DRIVER", "sqlite"),
		DBDSN:    envOr("DB_DSN", ""),

		BlobBasePath: envOr("BLOB_BASE_PATH", "./data"),

		AuthSecret: envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),

		AIBackend:     backend,
		AIBaseURL:     strings.TrimSuffix(baseURL, "/"),
		AIAPIKey:      os.Getenv("AI_API_KEY"),
		AIModel:       envOr("AI_MODEL", "gpt-4o-mini"),
		AIMaxTokens:   envInt("AI_MAX_TOKENS", 1000),
		AITemperature: envFloat("AI_TEMPERATURE", 0.3),

		DefaultRubric: os.Getenv("DEFAULT_RUBRIC"),
		SystemPrompt:  os.Getenv("SYSTEM_PROMPT"),

		ExtractMaxChars: envInt("EXTRACT_MAX_CHARS", 15000),

		GradebookEnabled:      envBool("GRADEBOOK_ENABLED", false),
		GradebookTokenURL:     os.Getenv("GRADEBOOK_TOKEN_URL"),
		GradebookClientID:     os.Getenv("GRADEBOOK_CLIENT_ID"),
		GradebookClientSecret: os.Getenv("GRADEBOOK_CLIENT_SECRET"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func envInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envFloat(k string, def float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
