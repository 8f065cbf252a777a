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

const defaultOpenAIURL = "https://api.openai.com/v1/chat/completions"

// OpenAI implements Provider for OpenAI's chat completions API.
type OpenAI struct {
	apiKey     string
	model      string
	baseURL    string
	maxRetries int
	client     *http.Client
	logger     *zap.Logger
}

// NewOpenAI creates a new OpenAI provider. The key comes from opts or
// OPENAI_API_KEY; REDLINE_OPENAI_BASE_URL points it at a compatible gateway.
func NewOpenAI(model string, opts Options) (*OpenAI, error) {
	key := opts.APIKey
	if key == "" {
		key = os.Getenv("OPENAI_API_KEY")
	}
	if key == "" {
		return nil, &missingCredentialError{envVar: "OPENAI_API_KEY"}
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = os.Getenv("REDLINE_OPENAI_BASE_URL")
	}
	if baseURL == "" {
		baseURL = defaultOpenAIURL
	}
	return &OpenAI{
		apiKey:     key,
		model:      model,
		baseURL:    baseURL,
		maxRetries: opts.retries(),
		client:     opts.client(120 * time.Second),
		logger:     opts.logger("openai"),
	}, nil
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Analyze(ctx context.Context, req Request) (Response, error) {
	headers := map[string]string{"Authorization": "Bearer " + o.apiKey}
	return chatCompletion(ctx, o.client, o.logger, o.maxRetries, o.baseURL, headers, o.model, req)
}

// chatCompletion is shared by every OpenAI-compatible endpoint.
func chatCompletion(ctx context.Context, client *http.Client, logger *zap.Logger, maxRetries int, url string, headers map[string]string, model string, req Request) (Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	body := openaiRequest{
		Model: model,
		Messages: []openaiMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.UserPrompt},
		},
		MaxTokens: maxTokens,
	}
	if req.Temperature > 0 {
		body.Temperature = &req.Temperature
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return Response{}, fmt.Errorf("marshaling request: %w", err)
	}

	var resp Response
	err = retryWithBackoff(ctx, logger, maxRetries, func() error {
		respBody, err := postJSON(ctx, client, url, headers, payload)
		if err != nil {
			return err
		}

		var result openaiResponse
		if err := json.Unmarshal(respBody, &result); err != nil {
			return fmt.Errorf("parsing response: %w", err)
		}
		if len(result.Choices) == 0 {
			return fmt.Errorf("no choices in response")
		}
		if result.Choices[0].Message.Content == "" {
			return fmt.Errorf("empty text content in API response")
		}

		resp = Response{
			Content:    result.Choices[0].Message.Content,
			TokensUsed: result.Usage.TotalTokens,
		}
		return nil
	})

	return resp, err
}

type openaiRequest struct {
	Model       string          `json:"model"`
	Messages    []openaiMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature *float64        `json:"temperature,omitempty"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiResponse struct {
	Choices []openaiChoice `json:"choices"`
	Usage   openaiUsage    `json:"usage"`
}

type openaiChoice struct {
	Message openaiMessage `json:"message"`
}

type openaiUsage struct {
	TotalTokens int `json:"total_tokens"`
}
