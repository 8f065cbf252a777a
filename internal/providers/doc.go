// Package providers implements the Provider interface for each supported LLM
// backend: Anthropic, OpenAI, and Ollama / LM Studio for local models.
//
// All providers share one HTTP helper that maps status codes to typed errors
// and a retry helper with exponential back-off for rate limits and 5xx
// responses. Authentication failures and a missing API key are reported as
// distinct error kinds; see [IsAuthError] and [IsMissingCredential].
//
// Use [New] to obtain a Provider by name and model string.
package providers
