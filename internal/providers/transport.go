package providers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// postJSON sends payload and classifies the status code into the typed
// errors retryWithBackoff understands.
func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, payload []byte) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	httpResp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	switch {
	case httpResp.StatusCode == http.StatusTooManyRequests:
		return nil, &rateLimitError{}
	case httpResp.StatusCode == http.StatusUnauthorized || httpResp.StatusCode == http.StatusForbidden:
		return nil, &authError{message: string(respBody)}
	case httpResp.StatusCode >= 500:
		return nil, &serverError{statusCode: httpResp.StatusCode, body: string(respBody)}
	case httpResp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("API error (status %d): %s", httpResp.StatusCode, string(respBody))
	}
	return respBody, nil
}
