package suggest

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned for inputs the pipeline refuses to work with,
	// such as an empty theme title.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidAIResponse marks model output that is malformed or violates the schema.
	ErrInvalidAIResponse = errors.New("invalid ai response")
)

// InvalidResponseError carries the reason a model response was rejected along with the
// raw text, which is only ever written to server logs.
type InvalidResponseError struct {
	Reason string
	Raw    string
	Err    error
}

func (e *InvalidResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrInvalidAIResponse, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrInvalidAIResponse, e.Reason)
}

func (e *InvalidResponseError) Is(target error) bool {
	return target == ErrInvalidAIResponse
}

func (e *InvalidResponseError) Unwrap() error {
	return e.Err
}

func invalidResponse(raw, reason string, err error) error {
	return &InvalidResponseError{Reason: reason, Raw: raw, Err: err}
}
