package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const maxBodyBytes = 4 << 20

// BreakerSettings controls the circuit breaker placed in front of a gateway
type BreakerSettings struct {
	MaxRequests         uint32
	Interval            time.Duration
	Timeout             time.Duration
	ConsecutiveFailures uint32
}

// DefaultBreakerSettings returns the settings used when none are configured
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests:         1,
		Interval:            time.Minute,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
	}
}

type response struct {
	statusCode int
	status     string
	body       []byte
}

// transport performs exactly one GET per call. The breaker only counts
// transport errors and 5xx answers; 4xx is the caller's problem, not the gateway's.
type transport struct {
	name       string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *zap.Logger
}

func newTransport(name string, httpClient *http.Client, settings BreakerSettings, logger *zap.Logger) *transport {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if settings.ConsecutiveFailures == 0 {
		settings = DefaultBreakerSettings()
	}
	threshold := settings.ConsecutiveFailures

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Gateway circuit breaker changed state",
				zap.String("gateway", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &transport{
		name:       name,
		httpClient: httpClient,
		breaker:    cb,
		logger:     logger,
	}
}

func (t *transport) get(ctx context.Context, rawURL string) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", t.name, err)
	}
	req.Header.Set("Accept", "application/json")

	result, err := t.breaker.Execute(func() (interface{}, error) {
		resp, err := t.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return nil, err
		}

		out := &response{
			statusCode: resp.StatusCode,
			status:     statusText(resp),
			body:       body,
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return out, &StatusError{StatusCode: out.statusCode, Status: out.status}
		}
		return out, nil
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%s: %w: %w", t.name, ErrNetworkFailure, ErrBreakerOpen)
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return nil, statusErr
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", t.name, ErrNetworkFailure, err)
	}

	resp, ok := result.(*response)
	if !ok {
		return nil, fmt.Errorf("%s: %w: unexpected result type from circuit breaker", t.name, ErrNetworkFailure)
	}
	if resp.statusCode < 200 || resp.statusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.statusCode, Status: resp.status}
	}
	return resp, nil
}

// statusText strips the numeric code from resp.Status, e.g. "404 Not Found" -> "Not Found"
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

func statusCodeOf(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}
