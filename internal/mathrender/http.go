package mathrender

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

// HTTPRenderer calls a remote LaTeX to MathML service.
//
// The service accepts POST {"latex": "...", "display": true} and answers
// {"mathml": "..."} or {"error": "..."}.
type HTTPRenderer struct {
	endpoint   string
	apiKey     string
	attempts   uint
	delay      time.Duration
	httpClient *http.Client
}

// HTTPOption configures an HTTPRenderer.
type HTTPOption func(*HTTPRenderer)

// WithRetry sets the number of attempts and the initial backoff delay.
func WithRetry(attempts uint, delay time.Duration) HTTPOption {
	return func(r *HTTPRenderer) {
		if attempts > 0 {
			r.attempts = attempts
		}
		if delay > 0 {
			r.delay = delay
		}
	}
}

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(r *HTTPRenderer) { r.httpClient = c }
}

func NewHTTPRenderer(endpoint, apiKey string, opts ...HTTPOption) *HTTPRenderer {
	r := &HTTPRenderer{
		endpoint: endpoint,
		apiKey:   apiKey,
		attempts: 3,
		delay:    time.Second,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type renderRequest struct {
	Latex   string `json:"latex"`
	Display bool   `json:"display"`
}

type renderResponse struct {
	MathML string `json:"mathml"`
	Error  string `json:"error,omitempty"`
}

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// Render posts latex to the service, retrying 429 and 5xx answers with
// exponential backoff.
func (r *HTTPRenderer) Render(ctx context.Context, latex string, display bool) (string, error) {
	var out string
	err := retry.Do(
		func() error {
			var err error
			out, err = r.renderOnce(ctx, latex, display)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(r.attempts),
		retry.Delay(r.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(IsRetryable),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return "", err
	}
	return out, nil
}

func (r *HTTPRenderer) renderOnce(ctx context.Context, latex string, display bool) (string, error) {
	body, err := json.Marshal(renderRequest{Latex: latex, Display: display})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("render service: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", &RetryableError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("render service status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var rr renderResponse
	if err := json.Unmarshal(respBody, &rr); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if rr.Error != "" {
		return "", fmt.Errorf("%w: %s", ErrParse, rr.Error)
	}
	if strings.TrimSpace(rr.MathML) == "" {
		return "", fmt.Errorf("empty response from render service")
	}
	return CleanMathML(rr.MathML)
}

// Close releases idle connections.
func (r *HTTPRenderer) Close() {
	r.httpClient.CloseIdleConnections()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
