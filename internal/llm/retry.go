package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

const maxAttempts = 3

// retrySleepFunc waits between retries and returns early with ctx.Err() on cancellation (injectable for tests)
var retrySleepFunc = sleepContext

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// StatusError is a non-200 reply from an HTTP backend
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

// withRetry runs call, retrying transient failures with exponential backoff
func withRetry(ctx context.Context, call func() error) error {
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err = call()
		if err == nil || !isRetryable(err) || ctx.Err() != nil {
			return err
		}
		if attempt < maxAttempts-1 {
			if serr := retrySleepFunc(ctx, time.Duration(1<<uint(attempt))*time.Second); serr != nil {
				return serr
			}
		}
	}
	return err
}

// isRetryable reports 429, 5xx and transient network failures
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return retryableStatus(statusErr.StatusCode)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.HTTPStatusCode)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return retryableStatus(reqErr.HTTPStatusCode)
	}

	s := strings.ToLower(err.Error())
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset")
}

func retryableStatus(code int) bool {
	return code == 429 || (code >= 500 && code < 600)
}
