package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenAI_Analyze(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Error("Missing or wrong Authorization header")
		}
		var body openaiRequest
		json.NewDecoder(r.Body).Decode(&body)
		if len(body.Messages) != 2 || body.Messages[0].Role != "system" || body.Messages[1].Role != "user" {
			t.Errorf("unexpected messages: %+v", body.Messages)
		}
		if body.Temperature == nil || *body.Temperature != 0.2 {
			t.Errorf("Temperature = %v, want 0.2", body.Temperature)
		}

		json.NewEncoder(w).Encode(openaiResponse{
			Choices: []openaiChoice{
				{Message: openaiMessage{Role: "assistant", Content: "[]"}},
			},
			Usage: openaiUsage{TotalTokens: 50},
		})
	}))
	defer server.Close()

	resp, err := testOpenAI(server.URL).Analyze(context.Background(), Request{
		SystemPrompt: "test",
		UserPrompt:   "test",
		MaxTokens:    10,
		Temperature:  0.2,
	})
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if resp.Content != "[]" {
		t.Errorf("Content = %q, want %q", resp.Content, "[]")
	}
	if resp.TokensUsed != 50 {
		t.Errorf("TokensUsed = %d, want 50", resp.TokensUsed)
	}
}

func TestOpenAI_BadResponses(t *testing.T) {
	tests := []struct {
		name string
		resp openaiResponse
	}{
		{"no choices", openaiResponse{Choices: []openaiChoice{}}},
		{"empty content", openaiResponse{Choices: []openaiChoice{{Message: openaiMessage{Role: "assistant"}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(tt.resp)
			}))
			defer server.Close()

			if _, err := testOpenAI(server.URL).Analyze(context.Background(), Request{UserPrompt: "test"}); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestOpenAI_AuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(403)
		w.Write([]byte(`{"error":"forbidden"}`))
	}))
	defer server.Close()

	_, err := testOpenAI(server.URL).Analyze(context.Background(), Request{UserPrompt: "test"})
	if !IsAuthError(err) {
		t.Errorf("Expected auth error, got: %v", err)
	}
}

func TestOpenAI_RateLimitRetried(t *testing.T) {
	fastBackoff(t)
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(429)
			return
		}
		json.NewEncoder(w).Encode(openaiResponse{
			Choices: []openaiChoice{{Message: openaiMessage{Content: "[]"}}},
		})
	}))
	defer server.Close()

	if _, err := testOpenAI(server.URL).Analyze(context.Background(), Request{UserPrompt: "test"}); err != nil {
		t.Fatalf("Analyze should succeed after retry: %v", err)
	}
	if attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts)
	}
}

func TestOpenAI_ClientErrorNotRetried(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(400)
		w.Write([]byte(`{"error":"bad request"}`))
	}))
	defer server.Close()

	_, err := testOpenAI(server.URL).Analyze(context.Background(), Request{UserPrompt: "test"})
	if err == nil {
		t.Fatal("expected error")
	}
	if IsAuthError(err) {
		t.Error("400 is not an auth error")
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts)
	}
}

func TestNewOpenAI_BaseURL(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "k")
	t.Setenv("REDLINE_OPENAI_BASE_URL", "")
	o, err := NewOpenAI("gpt-4o", Options{})
	if err != nil {
		t.Fatalf("NewOpenAI: %v", err)
	}
	if o.baseURL != defaultOpenAIURL {
		t.Errorf("baseURL = %q", o.baseURL)
	}

	t.Setenv("REDLINE_OPENAI_BASE_URL", "http://gateway.local/v1/chat/completions")
	o, _ = NewOpenAI("gpt-4o", Options{})
	if o.baseURL != "http://gateway.local/v1/chat/completions" {
		t.Errorf("baseURL = %q", o.baseURL)
	}

	o, _ = NewOpenAI("gpt-4o", Options{BaseURL: "http://explicit"})
	if o.baseURL != "http://explicit" {
		t.Errorf("explicit BaseURL should win, got %q", o.baseURL)
	}

	t.Setenv("OPENAI_API_KEY", "")
	if _, err := NewOpenAI("gpt-4o", Options{}); !IsMissingCredential(err) {
		t.Errorf("expected missing credential, got %v", err)
	}
}
