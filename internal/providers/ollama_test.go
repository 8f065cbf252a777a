package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllama_Analyze(t *testing.T) {
	server := chatServer(t, "[]", 100)

	resp, err := testOllama(server.URL).Analyze(context.Background(), Request{
		SystemPrompt: "test",
		UserPrompt:   "test",
	})
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if resp.Content != "[]" || resp.TokensUsed != 100 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestOllama_AuthorizationHeader(t *testing.T) {
	tests := []struct {
		name   string
		apiKey string
		want   string
	}{
		{"keyless", "", ""},
		{"with key", "test-ollama-key", "Bearer test-ollama-key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("Authorization"); got != tt.want {
					t.Errorf("Authorization = %q, want %q", got, tt.want)
				}
				w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"[]"}}]}`))
			}))
			defer server.Close()

			o := testOllama(server.URL)
			o.apiKey = tt.apiKey
			if _, err := o.Analyze(context.Background(), Request{UserPrompt: "test"}); err != nil {
				t.Fatalf("Analyze error: %v", err)
			}
		})
	}
}

func TestOllama_ServerErrorExhaustsRetries(t *testing.T) {
	fastBackoff(t)
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(500)
		w.Write([]byte(`{"error":"internal server error"}`))
	}))
	defer server.Close()

	_, err := testOllama(server.URL).Analyze(context.Background(), Request{UserPrompt: "test"})
	if err == nil {
		t.Fatal("Expected error for server error response")
	}
	// 1 initial + 3 retries
	if attempts != 4 {
		t.Errorf("Expected 4 attempts, got %d", attempts)
	}
}

func TestNewOllama_URLNormalization(t *testing.T) {
	tests := []struct {
		name    string
		host    string
		wantURL string
	}{
		{"default", "", "http://localhost:11434/v1/chat/completions"},
		{"trailing slash", "http://localhost:11434/", "http://localhost:11434/v1/chat/completions"},
		{"with v1", "http://localhost:11434/v1", "http://localhost:11434/v1/chat/completions"},
		{"with full path", "http://localhost:11434/v1/chat/completions", "http://localhost:11434/v1/chat/completions"},
		{"custom host", "http://192.168.1.100:11434", "http://192.168.1.100:11434/v1/chat/completions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("OLLAMA_HOST", tt.host)
			t.Setenv("REDLINE_OLLAMA_API_KEY", "")

			o, err := NewOllama("llama3", Options{})
			if err != nil {
				t.Fatalf("NewOllama error: %v", err)
			}
			if o.baseURL != tt.wantURL {
				t.Errorf("baseURL = %q, want %q", o.baseURL, tt.wantURL)
			}
		})
	}
}
