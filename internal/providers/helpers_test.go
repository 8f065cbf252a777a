package providers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

// fastBackoff shrinks retry delays for the duration of a test.
func fastBackoff(t *testing.T) {
	t.Helper()
	orig := backoffUnit
	backoffUnit = time.Millisecond
	t.Cleanup(func() { backoffUnit = orig })
}

func chatServer(t *testing.T, content string, tokens int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := openaiResponse{
			Choices: []openaiChoice{
				{Message: openaiMessage{Role: "assistant", Content: content}},
			},
			Usage: openaiUsage{TotalTokens: tokens},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)
	return server
}

func testAnthropic(url string) *Anthropic {
	return &Anthropic{
		apiKey:     "test-key",
		model:      "claude-sonnet-4-20250514",
		url:        url,
		maxRetries: defaultMaxRetries,
		client:     http.DefaultClient,
		logger:     zap.NewNop(),
	}
}

func testOpenAI(url string) *OpenAI {
	return &OpenAI{
		apiKey:     "test-key",
		model:      "gpt-4o",
		baseURL:    url,
		maxRetries: defaultMaxRetries,
		client:     http.DefaultClient,
		logger:     zap.NewNop(),
	}
}

func testOllama(url string) *Ollama {
	return &Ollama{
		model:      "llama3",
		baseURL:    url,
		maxRetries: defaultMaxRetries,
		client:     http.DefaultClient,
		logger:     zap.NewNop(),
	}
}
