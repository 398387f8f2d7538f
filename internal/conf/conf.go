package conf

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config represents application configuration
type Config struct {
	// Telegram bot token
	BotToken string `envconfig:"BOT_TOKEN" required:"true"`

	// OpenAI configuration
	OpenAIAPIKey          string `envconfig:"OPENAI_API_KEY" required:"true"`
	OpenAIModelText       string `envconfig:"OPENAI_MODEL_TEXT" default:"gpt-4o-mini"`
	OpenAIModelTranscribe string `envconfig:"OPENAI_MODEL_TRANSCRIBE" default:"whisper-1"`

	// Supabase (PostgREST) configuration
	SupabaseURL            string `envconfig:"SUPABASE_URL" required:"true"`
	SupabaseServiceRoleKey string `envconfig:"SUPABASE_SERVICE_ROLE_KEY" required:"true"`

	// Product links
	PrivacyURL string `envconfig:"PRIVACY_URL" default:"https://example.com/privacy"`
	WebAppURL  string `envconfig:"WEBAPP_URL" default:"https://n0tes-black.vercel.app/"`

	// Batching
	DebounceMillis int `envconfig:"BATCH_DEBOUNCE_MS" default:"1200"`

	// Local files
	UsageDBPath      string `envconfig:"USAGE_DB_PATH"`
	TextsPath        string `envconfig:"TEXTS_CONFIG_PATH"`
	SystemPromptPath string `envconfig:"SYSTEM_PROMPT_PATH" default:"system-prompt.md"`

	// Health endpoint
	HealthPort int `envconfig:"HEALTH_PORT" default:"8081"`

	Debug bool `envconfig:"DEBUG"`
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DebounceWindow returns the batch debounce window as a duration
func (c *Config) DebounceWindow() time.Duration {
	return time.Duration(c.DebounceMillis) * time.Millisecond
}
