package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// AxiomConfig holds Axiom log shipping configuration.
type AxiomConfig struct {
	Send          bool
	APIKey        string
	OrgID         string
	Dataset       string
	FlushInterval time.Duration
}

// GeminiConfig is the primary provider.
type GeminiConfig struct {
	APIKey string
	URL    string
}

// GroqConfig is the secondary provider (OpenAI-compatible chat completions).
type GroqConfig struct {
	APIKey string
	URL    string
	Model  string
}

// HuggingFaceConfig is the tertiary provider; every model is tried in listed order.
type HuggingFaceConfig struct {
	APIKey string
	URL    string
	Models []string
}

// ProvidersConfig groups the LLM providers and the fixed per-attempt timeout.
type ProvidersConfig struct {
	Gemini      GeminiConfig
	Groq        GroqConfig
	HuggingFace HuggingFaceConfig
	Timeout     time.Duration
}

// SearchConfig configures the web search backends used by the researcher
// stage. Order lists backend names in try order.
type SearchConfig struct {
	Order             []string
	TavilyAPIKey      string
	TavilyURL         string
	DuckDuckGoURL     string
	DuckDuckGoEnabled bool
	MaxResults        int
	Timeout           time.Duration
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Port           string
	MaxUploadMB    int
	RequestTimeout time.Duration
}

// StatusConfig configures the optional Redis request status store.
type StatusConfig struct {
	RedisURL string
	TTL      time.Duration
}

// ArchiveConfig configures the optional S3 report archive.
type ArchiveConfig struct {
	Bucket          string
	Prefix          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// Config is the top-level configuration. It is built once at startup and
// passed by value; nothing below main reads the environment.
type Config struct {
	Logging   LoggingConfig
	Axiom     AxiomConfig
	Providers ProvidersConfig
	Search    SearchConfig
	Server    ServerConfig
	Status    StatusConfig
	Archive   ArchiveConfig
}

const (
	defaultGeminiURL      = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.5-flash:generateContent"
	defaultGroqURL        = "https://api.groq.com/openai/v1/chat/completions"
	defaultGroqModel      = "llama-3.1-8b-instant"
	defaultHuggingFaceURL = "https://router.huggingface.co/models"
	defaultHFModels       = "google/gemma-2-9b-it,microsoft/Phi-3-mini-4k-instruct,mistralai/Mistral-7B-Instruct-v0.3,HuggingFaceH4/zephyr-7b-beta,TinyLlama/TinyLlama-1.1B-Chat-v1.0"
	defaultTavilyURL      = "https://api.tavily.com/search"
	defaultDuckDuckGoURL  = "https://api.duckduckgo.com/"
	defaultSearchOrder    = "gemini,tavily,duckduckgo"
)

// Load reads an optional .env file and then the environment.
func Load() Config {
	// a missing .env is the normal case in containers
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
	cfg := Config{}

	cfg.Logging = LoggingConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
		File:       getEnv("LOG_FILE", "logs/jarvis.log"),
		MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
		MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
		MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
		Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
	}

	cfg.Axiom = AxiomConfig{
		Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
		APIKey:        getEnv("AXIOM_API_KEY", ""),
		OrgID:         getEnv("AXIOM_ORG_ID", ""),
		Dataset:       getEnv("AXIOM_DATASET", "dev") + "_jarvis",
		FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
	}

	cfg.Providers = ProvidersConfig{
		Gemini: GeminiConfig{
			APIKey: strings.TrimSpace(getEnv("GOOGLE_API_KEY", "")),
			URL:    getEnv("GEMINI_API_URL", defaultGeminiURL),
		},
		Groq: GroqConfig{
			APIKey: strings.TrimSpace(getEnv("GROQ_API_KEY", "")),
			URL:    getEnv("GROQ_API_URL", defaultGroqURL),
			Model:  getEnv("GROQ_MODEL", defaultGroqModel),
		},
		HuggingFace: HuggingFaceConfig{
			APIKey: strings.TrimSpace(getEnv("HUGGINGFACE_API_KEY", "")),
			URL:    strings.TrimRight(getEnv("HUGGINGFACE_API_URL", defaultHuggingFaceURL), "/"),
			Models: parseList(getEnv("HUGGINGFACE_MODELS", defaultHFModels)),
		},
		Timeout: parseDuration(getEnv("PROVIDER_TIMEOUT", "30s"), 30*time.Second),
	}

	cfg.Search = SearchConfig{
		Order:             parseList(strings.ToLower(getEnv("SEARCH_PROVIDERS", defaultSearchOrder))),
		TavilyAPIKey:      strings.TrimSpace(getEnv("TAVILY_API_KEY", "")),
		TavilyURL:         getEnv("TAVILY_API_URL", defaultTavilyURL),
		DuckDuckGoURL:     getEnv("DUCKDUCKGO_API_URL", defaultDuckDuckGoURL),
		DuckDuckGoEnabled: parseBool(getEnv("DUCKDUCKGO_ENABLED", "true")),
		MaxResults:        parseInt(getEnv("SEARCH_MAX_RESULTS", "10"), 10),
		Timeout:           parseDuration(getEnv("SEARCH_TIMEOUT", "30s"), 30*time.Second),
	}

	cfg.Server = ServerConfig{
		Port:           getEnv("PORT", "8002"),
		MaxUploadMB:    parseInt(getEnv("MAX_UPLOAD_MB", "20"), 20),
		RequestTimeout: parseDuration(getEnv("REQUEST_TIMEOUT", "5m"), 5*time.Minute),
	}

	cfg.Status = StatusConfig{
		RedisURL: getEnv("REDIS_URL", ""),
		TTL:      parseDuration(getEnv("STATUS_TTL", "24h"), 24*time.Hour),
	}

	cfg.Archive = ArchiveConfig{
		Bucket:          getEnv("ARCHIVE_S3_BUCKET", ""),
		Prefix:          getEnv("ARCHIVE_S3_PREFIX", "reports/"),
		Region:          getEnv("AWS_REGION", ""),
		AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
	}

	return cfg
}

// Configured lists the provider families that have a credential, in priority order.
func (p ProvidersConfig) Configured() []string {
	var out []string
	if p.Gemini.APIKey != "" {
		out = append(out, "gemini")
	}
	if p.Groq.APIKey != "" {
		out = append(out, "groq")
	}
	if p.HuggingFace.APIKey != "" && len(p.HuggingFace.Models) > 0 {
		out = append(out, "huggingface")
	}
	return out
}

// Helpers
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func parseBool(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

// parseList splits a comma separated list, dropping blanks and keeping order.
func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func devDefaultPretty() string {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))
	if env == "dev" || env == "development" || env == "local" {
		return "true"
	}
	return "false"
}
