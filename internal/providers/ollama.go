package providers

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultOllamaURL = "http://localhost:11434"

// Ollama implements Provider for Ollama and LM Studio through their
// OpenAI-compatible endpoint. It runs locally, so no key is required.
type Ollama struct {
	apiKey     string
	model      string
	baseURL    string
	maxRetries int
	client     *http.Client
	logger     *zap.Logger
}

// NewOllama creates a new Ollama provider from opts, OLLAMA_HOST and
// REDLINE_OLLAMA_API_KEY.
func NewOllama(model string, opts Options) (*Ollama, error) {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = os.Getenv("OLLAMA_HOST")
	}
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	apiKey := opts.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("REDLINE_OLLAMA_API_KEY")
	}

	return &Ollama{
		apiKey:     apiKey,
		model:      model,
		baseURL:    normalizeOllamaURL(baseURL),
		maxRetries: opts.retries(),
		client:     opts.client(300 * time.Second),
		logger:     opts.logger("ollama"),
	}, nil
}

// normalizeOllamaURL accepts a bare host, a /v1 root or the full endpoint.
func normalizeOllamaURL(u string) string {
	u = strings.TrimRight(u, "/")
	u = strings.TrimSuffix(u, "/v1/chat/completions")
	u = strings.TrimSuffix(u, "/v1")
	return u + "/v1/chat/completions"
}

func (o *Ollama) Name() string { return "ollama" }

func (o *Ollama) Analyze(ctx context.Context, req Request) (Response, error) {
	headers := map[string]string{}
	if o.apiKey != "" {
		headers["Authorization"] = "Bearer " + o.apiKey
	}
	return chatCompletion(ctx, o.client, o.logger, o.maxRetries, o.baseURL, headers, o.model, req)
}
