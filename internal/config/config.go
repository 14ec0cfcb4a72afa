package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration
type Config struct {
	// Environment
	Environment string
	Port        string

	// LLM API Keys
	OpenAIAPIKey string // OpenAI API key for GPT models
	GeminiAPIKey string // Google Gemini API key

	// Track planner
	PlannerModel   string        // empty disables LLM-assisted planning
	PlannerTimeout time.Duration // hard timeout of one planning call

	// Composition engine
	MaxIterations      int  // refinement passes per request
	ParallelGeneration bool // fan out per-track generation

	// Storage: empty keeps compositions in memory
	DatabaseURL      string
	MemoryStoreLimit int // compositions kept by the in-memory store

	// Observability
	SentryDSN         string // Sentry DSN for error tracking
	LangfusePublicKey string // Langfuse public key
	LangfuseSecretKey string // Langfuse secret key
	LangfuseHost      string // Langfuse host URL (cloud or self-hosted)
	LangfuseEnabled   bool   // Feature flag for Langfuse
	CloudWatchEnabled bool   // Publish composition metrics to CloudWatch

	// Auth mode
	// - "none": No auth (self-hosted, local dev)
	// - "gateway": Trust X-User-* headers from an upstream gateway
	// - "jwt": Validate bearer tokens signed with JWTSecret
	AuthMode  string
	JWTSecret string
}

const (
	defaultPlannerTimeoutMS = 8000
	defaultMaxIterations    = 2
	defaultMemoryStoreLimit = 500
)

func Load() *Config {
	return &Config{
		Environment:        getEnv("ENVIRONMENT", "development"),
		Port:               getEnv("PORT", "8080"),
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),
		PlannerModel:       getEnv("PLANNER_MODEL", ""),
		PlannerTimeout:     time.Duration(getEnvInt("PLANNER_TIMEOUT_MS", defaultPlannerTimeoutMS)) * time.Millisecond,
		MaxIterations:      getEnvInt("MAX_ITERATIONS", defaultMaxIterations),
		ParallelGeneration: getEnv("PARALLEL_GENERATION", "false") == "true",
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		MemoryStoreLimit:   getEnvInt("MEMORY_STORE_LIMIT", defaultMemoryStoreLimit),
		SentryDSN:          getEnv("SENTRY_DSN", ""),
		LangfusePublicKey:  getEnv("LANGFUSE_PUBLIC_KEY", ""),
		LangfuseSecretKey:  getEnv("LANGFUSE_SECRET_KEY", ""),
		LangfuseHost:       getEnv("LANGFUSE_HOST", "https://cloud.langfuse.com"),
		LangfuseEnabled:    getEnv("LANGFUSE_ENABLED", "false") == "true",
		CloudWatchEnabled:  getEnv("CLOUDWATCH_ENABLED", "false") == "true",
		AuthMode:           getEnv("AUTH_MODE", "none"), // Default to no auth for self-hosted
		JWTSecret:          getEnv("JWT_SECRET", ""),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

// IsGatewayMode returns true if running behind a trusted gateway
func (c *Config) IsGatewayMode() bool {
	return c.AuthMode == "gateway"
}

// IsJWTMode returns true if requests carry bearer tokens
func (c *Config) IsJWTMode() bool {
	return c.AuthMode == "jwt"
}

// IsProduction returns true in the production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
