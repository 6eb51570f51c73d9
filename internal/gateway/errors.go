package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNetworkFailure is returned when the gateway could not be reached or gave no response
	ErrNetworkFailure = errors.New("network failure")
	// ErrParseFailure is returned for malformed bodies or missing required fields
	ErrParseFailure = errors.New("malformed gateway response")
	// ErrBreakerOpen is returned without touching the network while the circuit is open
	ErrBreakerOpen = errors.New("circuit breaker open")
	// ErrNotConfigured is returned when a gateway is missing mandatory settings
	ErrNotConfigured = errors.New("gateway not configured")
)

// StatusError is a non-2xx answer from a gateway
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gateway returned %d %s", e.StatusCode, e.Status)
}

// NotFound reports whether the gateway answered 404
func (e *StatusError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Outcome is the coarse result class of a gateway call
type Outcome string

const (
	OutcomeOK      Outcome = "ok"
	OutcomeNetwork Outcome = "network"
	OutcomeGateway Outcome = "gateway"
	OutcomeParse   Outcome = "parse"
	OutcomeBreaker Outcome = "breaker"
)

// Classify maps an error returned by this package to its outcome
func Classify(err error) Outcome {
	var statusErr *StatusError
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrBreakerOpen):
		return OutcomeBreaker
	case errors.As(err, &statusErr), errors.Is(err, ErrNotConfigured):
		return OutcomeGateway
	case errors.Is(err, ErrParseFailure):
		return OutcomeParse
	default:
		return OutcomeNetwork
	}
}
