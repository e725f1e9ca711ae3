package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Chative-Order-Intake/agent/contract"
	chatmodelx "github.com/tanpawarit/Chative-Order-Intake/pkg/chatmodel"
)

type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://api.openai.com/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" default:"gpt-4.1-mini"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"800"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.2"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"20s"`

	MaxAttempts  int           `envconfig:"MAX_ATTEMPTS" split_words:"true" default:"3"`
	RetryBackoff time.Duration `envconfig:"RETRY_BACKOFF" split_words:"true" default:"500ms"`
	ProbeOnStart bool          `envconfig:"PROBE_ON_START" split_words:"true" default:"true"`
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: llm api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: llm model is required", contractx.ErrValidation)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("%w: llm max attempts must be >= 1, got %d", contractx.ErrValidation, c.MaxAttempts)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: llm timeout must be positive", contractx.ErrValidation)
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("%w: llm retry backoff must be >= 0", contractx.ErrValidation)
	}
	return nil
}

// ChatModel maps the settings onto the chat model builder. The per-attempt
// deadline is enforced by the caller, so the HTTP timeout gets a small margin.
func (c Config) ChatModel() chatmodelx.Config {
	maxCompletionToken := c.MaxCompletionToken
	return chatmodelx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              strings.TrimSpace(c.Model),
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        c.Temperature,
		Timeout:            c.Timeout + time.Second,
	}
}
