// Package client implements the HTTP clients for the document-AI
// service: validation, extraction, explanation, and product generation.
// Every call goes circuit breaker → retry with backoff → JSON POST with
// a per-call deadline.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mhaikal/finfit-advisor-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("infra/client")

// DocAI is the shared transport for all four collaborator endpoints.
type DocAI struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	cb          *gobreaker.CircuitBreaker
	cfg         resilience.Config
	callTimeout time.Duration
}

// NewDocAI creates a client for the document-AI service.
func NewDocAI(httpClient *http.Client, baseURL, apiKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, callTimeout time.Duration) *DocAI {
	return &DocAI{
		httpClient:  httpClient,
		baseURL:     baseURL,
		apiKey:      apiKey,
		cb:          cb,
		cfg:         cfg,
		callTimeout: callTimeout,
	}
}

// post sends one JSON request through the breaker and retry policy and
// decodes the 200 response into out.
func (c *DocAI) post(ctx context.Context, path string, payload any, out any) error {
	if c.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.callTimeout)
		defer cancel()
	}

	_, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := json.Marshal(payload)
			if err != nil {
				return err
			}

			url := c.baseURL + path
			httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
			if err != nil {
				return err
			}
			httpReq.Header.Set("Content-Type", "application/json")
			if c.apiKey != "" {
				httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
			}

			resp, err := c.httpClient.Do(httpReq)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				// Drain a little context for the error message; bodies are
				// never surfaced to the user directly.
				snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
				return fmt.Errorf("doc-ai %s returned status %d: %s", path, resp.StatusCode, snippet)
			}

			return json.NewDecoder(resp.Body).Decode(out)
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return nil, nil
	})
	return err
}
