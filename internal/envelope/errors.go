package envelope

import (
	"errors"
	"fmt"
)

// ErrMalformedEnvelope marks a parseable response missing its body container.
var ErrMalformedEnvelope = errors.New("malformed envelope")

// APIError is a well-formed response whose resultCode is not "00", or a
// gateway error such as an unregistered service key.
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %s: %s", e.Code, e.Message)
}

// DecodeError is a response that could not be interpreted. Raw holds the
// body so the caller can dump it for inspection.
type DecodeError struct {
	Raw    []byte
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decoding response: %s: %v", e.Reason, e.Err)
	}
	return "decoding response: " + e.Reason
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
