package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/Veraticus/shadow-payroll/internal/common"
)

// TransportKind classifies why a provider call failed.
type TransportKind string

// Transport failure kinds.
const (
	KindTimeout     TransportKind = "timeout"
	KindCanceled    TransportKind = "canceled"
	KindRateLimited TransportKind = "rate_limited"
	KindServer      TransportKind = "server_error"
	KindClient      TransportKind = "client_error"
	KindNetwork     TransportKind = "network"
)

// TransportError reports that the provider did not return a usable reply.
type TransportError struct {
	Err        error
	Provider   string
	Kind       TransportKind
	StatusCode int
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s (status %d): %v", e.Provider, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *TransportError) Unwrap() []error {
	return []error{common.ErrTransport, e.Err}
}

// Retryable reports whether an identical request may succeed later.
func (e *TransportError) Retryable() bool {
	switch e.Kind {
	case KindTimeout, KindRateLimited, KindServer, KindNetwork:
		return true
	default:
		return false
	}
}

func transportFailure(provider string, err error) *TransportError {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &TransportError{Provider: provider, Kind: KindTimeout, Err: err}
	case errors.Is(err, context.Canceled):
		return &TransportError{Provider: provider, Kind: KindCanceled, Err: err}
	case errors.As(err, &netErr) && netErr.Timeout():
		return &TransportError{Provider: provider, Kind: KindTimeout, Err: err}
	default:
		return &TransportError{Provider: provider, Kind: KindNetwork, Err: err}
	}
}

func statusFailure(provider string, status int, err error) *TransportError {
	kind := KindClient
	switch {
	case status == http.StatusTooManyRequests:
		kind = KindRateLimited
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		kind = KindTimeout
	case status >= 500:
		kind = KindServer
	}
	return &TransportError{Provider: provider, Kind: kind, StatusCode: status, Err: err}
}

// ContextFailure classifies a context error raised while waiting on provider.
func ContextFailure(provider string, err error) error {
	return transportFailure(provider, err)
}
