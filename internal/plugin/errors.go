package plugin

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

// FetchError reports a failed region scan.
type FetchError struct {
	Region string
	// Code is the provider error code when known (e.g. "UnauthorizedOperation"),
	// otherwise "timeout", "canceled" or "unknown".
	Code string
	Err  error
}

func newFetchError(region string, err error) *FetchError {
	return &FetchError{Region: region, Code: classify(err), Err: err}
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Region, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func classify(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}
	return "unknown"
}
