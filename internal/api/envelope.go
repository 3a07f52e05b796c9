package api

import (
	"strconv"

	"github.com/danielgtaylor/huma/v2"
)

// Envelope is the uniform wrapper around every JSON API response.
// Success responses carry the payload under "data"; failures carry a
// structured error under "error". Raw byte responses (image downloads)
// bypass the envelope.
type Envelope struct {
	Success bool           `json:"success"`
	Data    any            `json:"data,omitempty"`
	Error   *EnvelopeError `json:"error,omitempty"`
}

// EnvelopeError is the error payload inside a failed envelope.
type EnvelopeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer wraps outgoing response bodies in the Envelope
// structure. Registered on the huma config so every structured response
// passes through it.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	if apiErr, ok := v.(*APIError); ok {
		return &Envelope{
			Success: false,
			Error: &EnvelopeError{
				Code:    apiErr.Code,
				Message: apiErr.Message,
				Details: apiErr.Details,
			},
		}, nil
	}

	// Errors that didn't come through our error hook (huma's own models)
	// still get a failure envelope based on the status code.
	if code, err := strconv.Atoi(status); err == nil && code >= 400 {
		if statusErr, ok := v.(error); ok {
			return &Envelope{
				Success: false,
				Error: &EnvelopeError{
					Code:    statusToCode(code),
					Message: statusErr.Error(),
				},
			}, nil
		}
	}

	return &Envelope{Success: true, Data: v}, nil
}
