package correction

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

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"

	"github.com/SAP-F-2025/exercise-engine/internal/models"
	"github.com/SAP-F-2025/exercise-engine/internal/utils"
)

// Client sends one correction request and returns the raw response body.
type Client interface {
	Correct(ctx context.Context, exerciseType models.ExerciseType, payload any) (json.RawMessage, error)
}

type HTTPConfig struct {
	BaseURL      string
	Timeout      time.Duration
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	// FailureThreshold is the number of consecutive failures that opens the
	// circuit.
	FailureThreshold int
	OpenTimeout      time.Duration
	Logger           utils.Logger
}

func DefaultHTTPConfig(baseURL string) HTTPConfig {
	return HTTPConfig{
		BaseURL:          baseURL,
		Timeout:          10 * time.Second,
		MaxAttempts:      3,
		InitialDelay:     200 * time.Millisecond,
		MaxDelay:         2 * time.Second,
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
	}
}

// HTTPClient posts answers to {BaseURL}/correcoes/{type}. Transport errors,
// 429 and 5xx are retried with exponential backoff behind a circuit breaker.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	retrier retry.Retry[json.RawMessage]
	breaker circuitbreaker.CircuitBreaker[json.RawMessage]
	logger  utils.Logger
}

func NewHTTPClient(cfg HTTPConfig) *HTTPClient {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Logger == nil {
		cfg.Logger = utils.NewDefaultLogger()
	}

	c := &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  cfg.Logger.With("component", "correction_client"),
	}

	c.breaker = circuitbreaker.New[json.RawMessage](circuitbreaker.Config{
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			return int(counts.ConsecutiveFailures) >= cfg.FailureThreshold
		},
		OnStateChange: func(from, to circuitbreaker.State) {
			c.logger.Warn("correction circuit breaker state change",
				"from", from.String(),
				"to", to.String())
		},
	})

	c.retrier = retry.New[json.RawMessage](retry.Config{
		MaxAttempts:   cfg.MaxAttempts,
		InitialDelay:  cfg.InitialDelay,
		MaxDelay:      cfg.MaxDelay,
		Multiplier:    2.0,
		BackoffPolicy: retry.BackoffExponential,
		Jitter:        true,
		IsRetryable:   isRetryable,
	})

	return c
}

func isRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var sr *ServerRejection
	if errors.As(err, &sr) {
		return sr.Temporary()
	}
	return IsNetworkError(err)
}

func (c *HTTPClient) endpoint(t models.ExerciseType) string {
	return fmt.Sprintf("%s/correcoes/%s", c.baseURL, t)
}

func (c *HTTPClient) Correct(ctx context.Context, exerciseType models.ExerciseType, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode correction payload: %w", err)
	}
	url := c.endpoint(exerciseType)

	var lastErr error
	result, err := c.breaker.Execute(ctx, func(ctx context.Context) (json.RawMessage, error) {
		return c.retrier.Do(ctx, func(ctx context.Context) (json.RawMessage, error) {
			res, err := c.post(ctx, url, body)
			lastErr = err
			return res, err
		})
	})
	if err != nil {
		switch {
		case IsNetworkError(err) || IsServerRejection(err):
		case lastErr != nil:
			err = lastErr
		default:
			// Open circuit: no attempt was made.
			err = &NetworkError{Op: "post " + string(exerciseType), Err: err}
		}
		c.logger.WarnContext(ctx, "correction request failed",
			"exercise_type", exerciseType,
			"error", err)
		return nil, err
	}
	return result, nil
}

func (c *HTTPClient) post(ctx context.Context, url string, body []byte) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &NetworkError{Op: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: "post", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &NetworkError{Op: "read response", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ServerRejection{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	return json.RawMessage(data), nil
}

// Close releases idle keep-alive connections.
func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}
