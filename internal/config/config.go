package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the meeting service configuration, loaded from environment.
type Config struct {
	Port string

	// Webhook verification
	WebhookSecret string
	WebhookAPIKey string

	// Call/chat provider
	CallProviderBaseURL string
	CallProviderAPIKey  string
	ChatProviderBaseURL string
	ChatProviderAPIKey  string

	// Model provider
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	SummarizeModel string
	AssistantModel string

	// CRUD API auth
	APIJWTSecret string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Pipeline tuning
	PipelineStepRetries  int
	PipelineRetryBackoff time.Duration
	PipelineLockTTL      time.Duration
	CheckpointTTL        time.Duration

	// Instance identifier for multi-pod logging
	InstanceID string
}

// LoadFromEnv loads the service configuration from environment variables.
func LoadFromEnv() *Config {
	return &Config{
		Port: getEnvOrDefault("PORT", "8080"),

		WebhookSecret: getEnvOrDefault("WEBHOOK_SECRET", ""),
		WebhookAPIKey: getEnvOrDefault("WEBHOOK_API_KEY", ""),

		CallProviderBaseURL: getEnvOrDefault("CALL_PROVIDER_BASE_URL", "https://video.stream-api.io"),
		CallProviderAPIKey:  getEnvOrDefault("CALL_PROVIDER_API_KEY", ""),
		ChatProviderBaseURL: getEnvOrDefault("CHAT_PROVIDER_BASE_URL", "https://chat.stream-api.io"),
		ChatProviderAPIKey:  getEnvOrDefault("CHAT_PROVIDER_API_KEY", ""),

		OpenAIAPIKey:   getEnvOrDefault("OPENAI_API_KEY", ""),
		OpenAIBaseURL:  getEnvOrDefault("OPENAI_BASE_URL", "https://api.openai.com"),
		SummarizeModel: getEnvOrDefault("SUMMARIZE_MODEL", "gpt-4o"),
		AssistantModel: getEnvOrDefault("ASSISTANT_MODEL", "gpt-4o"),

		APIJWTSecret: getEnvOrDefault("API_JWT_SECRET", ""),

		RedisHost:     getEnvOrDefault("REDIS_HOST", "localhost"),
		RedisPort:     getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: getEnvOrDefault("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsIntOrDefault("REDIS_DB", 0),

		PipelineStepRetries:  getEnvAsIntOrDefault("PIPELINE_STEP_RETRIES", 3),
		PipelineRetryBackoff: time.Duration(getEnvAsIntOrDefault("PIPELINE_RETRY_BACKOFF_SECONDS", 5)) * time.Second,
		PipelineLockTTL:      time.Duration(getEnvAsIntOrDefault("PIPELINE_LOCK_TTL_MINUTES", 15)) * time.Minute,
		CheckpointTTL:        time.Duration(getEnvAsIntOrDefault("PIPELINE_CHECKPOINT_TTL_HOURS", 24)) * time.Hour,

		InstanceID: instanceID(),
	}
}

func instanceID() string {
	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		return hostname
	}
	return "meeting-service"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
