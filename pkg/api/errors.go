package api

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks a lookup failure: the remote call succeeded but the
	// requested record is not part of the response.
	ErrNotFound = errors.New("not found")

	// ErrMalformedEnvelope is returned when a response body is not a
	// {"data": ..., "error": ...} envelope.
	ErrMalformedEnvelope = errors.New("malformed response envelope")
)

// RemoteError is an error reported by the platform in the envelope's error field
type RemoteError struct {
	StatusCode int             // HTTP status, 0 when the error arrived with a 2xx response
	Code       string          // Platform error code, if any
	Message    string          // Human readable message
	Details    json.RawMessage // Raw error payload
}

func (e *RemoteError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Details)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("API error (status %d, code %s): %s", e.StatusCode, e.codeOrUnknown(), msg)
	}
	return fmt.Sprintf("API error (code %s): %s", e.codeOrUnknown(), msg)
}

func (e *RemoteError) codeOrUnknown() string {
	if e.Code == "" {
		return "unknown"
	}
	return e.Code
}

// HTTPError is a non-2xx response that did not carry an envelope error
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("API returned status %d: %s", e.StatusCode, e.Body)
}

// IsNotFound reports whether err is a lookup failure or a remote 404
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var remote *RemoteError
	if errors.As(err, &remote) && remote.StatusCode == 404 {
		return true
	}
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == 404
}

// newRemoteError builds a RemoteError from the raw envelope error payload.
// The payload is usually {"code": ..., "message": ..., "details": ...} but
// plain strings are accepted too.
func newRemoteError(statusCode int, raw json.RawMessage) *RemoteError {
	remote := &RemoteError{StatusCode: statusCode, Details: raw}

	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err == nil {
		if code, ok := fields["code"]; ok && code != nil {
			remote.Code = formatScalar(code)
		}
		if msg, ok := fields["message"].(string); ok {
			remote.Message = msg
		}
		return remote
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		remote.Message = text
	}
	return remote
}

func formatScalar(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
