package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	// LLM settings; extraction and response generation fall back to the
	// rule-based path when the key is empty or the model call fails.
	OpenAIAPIKey  string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string        `env:"OPENAI_BASE_URL"`
	OpenAIModel   string        `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	LLMTimeout    time.Duration `env:"LLM_TIMEOUT" envDefault:"15s"`

	// Conversation engine
	SessionWindow int           `env:"SESSION_WINDOW" envDefault:"10"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"1h"`

	// Storage
	DBPath string `env:"DB_PATH" envDefault:"data/innerlog.db"`

	// Identity: colon-separated token=id pairs plus an optional JSON file,
	// e.g. API_TOKENS="tok1=1:tok2=2".
	APITokens      []string `env:"API_TOKENS" envSeparator:":"`
	TokensFilePath string   `env:"TOKENS_FILE_PATH" envDefault:"data/tokens.json"`
}

func New() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}
