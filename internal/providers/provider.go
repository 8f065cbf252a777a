package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ErrUnknownProvider is returned by [New] for an unrecognized name.
var ErrUnknownProvider = errors.New("unknown provider")

// Request contains the prompts sent to an LLM for analysis.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
}

// Response contains the raw response from an LLM.
type Response struct {
	Content    string
	TokensUsed int
}

// Provider is the outbound analysis collaborator.
type Provider interface {
	Analyze(ctx context.Context, req Request) (Response, error)
	Name() string
}

// Options tune a provider. Zero values fall back to environment variables
// and built-in defaults.
type Options struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	Logger     *zap.Logger
}

func (o Options) logger(name string) *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger.Named("provider").With(zap.String("provider", name))
}

func (o Options) client(def time.Duration) *http.Client {
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = def
	}
	return &http.Client{Timeout: timeout}
}

func (o Options) retries() int {
	if o.MaxRetries <= 0 {
		return defaultMaxRetries
	}
	return o.MaxRetries
}

// Names lists the accepted provider names.
func Names() []string {
	return []string{"anthropic", "openai", "ollama"}
}

// New creates a provider by name.
func New(provider, model string, opts Options) (Provider, error) {
	switch provider {
	case "anthropic":
		return NewAnthropic(model, opts)
	case "openai":
		return NewOpenAI(model, opts)
	case "ollama", "lmstudio":
		return NewOllama(model, opts)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(provider string) string {
	switch provider {
	case "anthropic":
		return "claude-sonnet-4-20250514"
	case "openai":
		return "gpt-4o"
	case "ollama", "lmstudio":
		return "llama3"
	default:
		return ""
	}
}
