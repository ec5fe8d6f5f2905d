package client

import (
	"encoding/json"
	"errors"
	"strings"
)

// Generic messages used when the server gives no usable explanation.
const (
	FetchFailedMessage    = "An error occurred while fetching the data."
	MutationFailedMessage = "Request failed"
)

var (
	// ErrInvalidMethod is returned when a mutation uses a method other than
	// POST, PUT or DELETE.
	ErrInvalidMethod = errors.New("mutation method must be POST, PUT or DELETE")

	errInvalidJSON = errors.New("response body is not valid JSON")
)

// ErrorResponse is the error body returned by the API.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// APIError is the single failure shape for reads and writes. Error returns
// Message unchanged so it can be shown to the user as is.
type APIError struct {
	StatusCode int // 0 when no response was received
	Message    string
	Err        error  // underlying network or decode error, if any
	RequestID  string // X-Request-ID sent with the failed request
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// AsAPIError checks if an error is an APIError and returns it.
func AsAPIError(err error) (*APIError, bool) {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// serverMessage extracts the first non-empty field of body, in order, or
// returns fallback.
func serverMessage(body []byte, fallback string, fields ...string) string {
	var er ErrorResponse
	if json.Unmarshal(body, &er) != nil {
		return fallback
	}
	for _, f := range fields {
		var v string
		switch f {
		case "error":
			v = er.Error
		case "message":
			v = er.Message
		}
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return fallback
}
