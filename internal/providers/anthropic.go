package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
)

const (
	anthropicAPIURL     = "https://api.anthropic.com/v1/messages"
	anthropicAPIVersion = "2023-06-01"
)

// Anthropic implements Provider for Anthropic's Messages API.
type Anthropic struct {
	apiKey     string
	model      string
	url        string
	maxRetries int
	client     *http.Client
	logger     *zap.Logger
}

// NewAnthropic creates a new Anthropic provider. The key comes from opts or
// ANTHROPIC_API_KEY.
func NewAnthropic(model string, opts Options) (*Anthropic, error) {
	key := opts.APIKey
	if key == "" {
		key = os.Getenv("ANTHROPIC_API_KEY")
	}
	if key == "" {
		return nil, &missingCredentialError{envVar: "ANTHROPIC_API_KEY"}
	}
	url := opts.BaseURL
	if url == "" {
		url = anthropicAPIURL
	}
	return &Anthropic{
		apiKey:     key,
		model:      model,
		url:        url,
		maxRetries: opts.retries(),
		client:     opts.client(120 * time.Second),
		logger:     opts.logger("anthropic"),
	}, nil
}

func (a *Anthropic) Name() string { return "anthropic" }

func (a *Anthropic) Analyze(ctx context.Context, req Request) (Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	body := anthropicRequest{
		Model:     a.model,
		MaxTokens: maxTokens,
		System:    req.SystemPrompt,
		Messages: []anthropicMessage{
			{Role: "user", Content: req.UserPrompt},
		},
	}
	if req.Temperature > 0 {
		body.Temperature = &req.Temperature
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return Response{}, fmt.Errorf("marshaling request: %w", err)
	}
	headers := map[string]string{
		"x-api-key":         a.apiKey,
		"anthropic-version": anthropicAPIVersion,
	}

	var resp Response
	err = retryWithBackoff(ctx, a.logger, a.maxRetries, func() error {
		respBody, err := postJSON(ctx, a.client, a.url, headers, payload)
		if err != nil {
			return err
		}

		var result anthropicResponse
		if err := json.Unmarshal(respBody, &result); err != nil {
			return fmt.Errorf("parsing response: %w", err)
		}

		var content string
		for _, block := range result.Content {
			if block.Type == "text" {
				content += block.Text
			}
		}
		if content == "" {
			return fmt.Errorf("empty text content in API response")
		}

		resp = Response{
			Content:    content,
			TokensUsed: result.Usage.InputTokens + result.Usage.OutputTokens,
		}
		return nil
	})

	return resp, err
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature *float64           `json:"temperature,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []anthropicBlock `json:"content"`
	Usage   anthropicUsage   `json:"usage"`
}

type anthropicBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}
