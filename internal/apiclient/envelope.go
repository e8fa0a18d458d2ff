package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Envelope is the one response shape the backend answers with: a single
// object under result or a list under results.
type Envelope struct {
	Result  json.RawMessage `json:"result,omitempty"`
	Results json.RawMessage `json:"results,omitempty"`
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}

// DecodeEnvelope unpacks body into out. A body that is not an object with
// result or results fails with ErrMalformedResponse.
func DecodeEnvelope(body []byte, out any) error {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	var payload json.RawMessage
	switch {
	case present(env.Result):
		payload = env.Result
	case present(env.Results):
		payload = env.Results
	default:
		return fmt.Errorf("%w: neither result nor results present", ErrMalformedResponse)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}
