package client

import (
	"errors"
	"fmt"
)

// ErrJobFailed is returned by Wait when the job ends in the failed state.
var ErrJobFailed = errors.New("allocation job failed")

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d %s: %s", e.StatusCode, e.Code, e.Message)
}
