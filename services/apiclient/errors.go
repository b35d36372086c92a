package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"

	"github.com/pkg/errors"
)

// Kind tells where a request failed.
type Kind int

const (
	// KindServer is a non-2xx response.
	KindServer Kind = iota + 1
	// KindNetwork is a request that got no response, timeouts included.
	KindNetwork
	// KindRequest is a request that could not be built, or a response that could not be decoded.
	KindRequest
)

func (k Kind) String() string {
	switch k {
	case KindServer:
		return "server"
	case KindNetwork:
		return "network"
	case KindRequest:
		return "request"
	default:
		return "unknown"
	}
}

// APIError is the only error returned by the Client.
type APIError struct {
	Kind    Kind
	Method  string
	Path    string
	Status  int // 0 unless Kind is KindServer
	Code    string
	Message string
	Details interface{}
	Err     error
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: %s error %d: %s", e.Method, e.Path, e.Kind, e.Status, msg)
	}
	return fmt.Sprintf("%s %s: %s error: %s", e.Method, e.Path, e.Kind, msg)
}

func (e *APIError) Unwrap() error { return e.Err }

// Timeout reports whether the request timed out or its context deadline passed.
func (e *APIError) Timeout() bool {
	if e.Kind != KindNetwork || e.Err == nil {
		return false
	}
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// IsKind reports whether err is an *APIError of kind k.
func IsKind(err error, k Kind) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == k
}

// IsStatus reports whether err is a server *APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == KindServer && apiErr.Status == status
}

func requestError(method, path string, err error, msg string) *APIError {
	return &APIError{Kind: KindRequest, Method: method, Path: path, Message: msg, Err: err}
}

func networkError(method, path string, err error) *APIError {
	return &APIError{Kind: KindNetwork, Method: method, Path: path, Message: errors.Cause(err).Error(), Err: err}
}

// serverError decodes the error body sent by the API: {"error": msg}, {"message", "code", "details"}
// or a map of field errors.
func serverError(method, path string, status int, body []byte) *APIError {
	apiErr := &APIError{Kind: KindServer, Method: method, Path: path, Status: status}

	var fields map[string]interface{}
	if err := json.Unmarshal(body, &fields); err == nil {
		for _, key := range []string{"error", "message"} {
			if msg, ok := fields[key].(string); ok {
				apiErr.Message = msg
				delete(fields, key)
				break
			}
		}
		if code, ok := fields["code"].(string); ok {
			apiErr.Code = code
			delete(fields, "code")
		}
		if details, ok := fields["details"]; ok {
			apiErr.Details = details
		} else if apiErr.Message == "" && len(fields) > 0 {
			apiErr.Details = fields // validation errors by field
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}
