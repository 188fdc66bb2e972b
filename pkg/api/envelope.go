package api

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Envelope is the wrapper every platform endpoint responds with
type Envelope struct {
	Data  json.RawMessage `json:"data"`
	Error json.RawMessage `json:"error,omitempty"`
}

// DecodeEnvelope validates body as an envelope and decodes its data field
// into out. A non-empty error field yields a *RemoteError; a body without a
// data field yields ErrMalformedEnvelope. out may be nil to discard data.
func DecodeEnvelope(body []byte, out interface{}) error {
	env, err := parseEnvelope(body)
	if err != nil {
		return err
	}
	if !isEmptyJSON(env.Error) {
		return newRemoteError(0, env.Error)
	}
	if env.Data == nil {
		return fmt.Errorf("%w: missing data field", ErrMalformedEnvelope)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode data: %w", err)
	}
	return nil
}

func parseEnvelope(body []byte) (*Envelope, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	env := &Envelope{}
	if data, ok := fields["data"]; ok {
		env.Data = data
	}
	if errField, ok := fields["error"]; ok {
		env.Error = errField
	}
	return env, nil
}

// isEmptyJSON treats absent, null, {}, [], "" and false as "no error"
func isEmptyJSON(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return true
	}
	var v interface{}
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return false
	}
	switch t := v.(type) {
	case nil:
		return true
	case map[string]interface{}:
		return len(t) == 0
	case []interface{}:
		return len(t) == 0
	case string:
		return t == ""
	case bool:
		return !t
	default:
		return false
	}
}
