package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	// ErrUnrecognizedFormat indicates image bytes whose format or
	// dimensions could not be determined
	ErrUnrecognizedFormat = errors.New("unrecognized image format")

	// ErrProcessingExhausted indicates the image pipeline failed on every
	// attempt of its retry budget
	ErrProcessingExhausted = errors.New("image processing exhausted")

	// ErrNoImageSource indicates an image block carrying neither a file
	// reference nor an external URL
	ErrNoImageSource = errors.New("image block has no source")

	// ErrRunInProgress indicates a sync run is already executing
	ErrRunInProgress = errors.New("sync run already in progress")

	// ErrIndexMiss indicates an asset index lookup found no entry
	ErrIndexMiss = errors.New("asset index miss")
)

// APIError represents a non-success response from the content API.
type APIError struct {
	Endpoint   string
	StatusCode int
	Body       string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("content api error on %s: status %d: %s", e.Endpoint, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("content api error on %s: %v", e.Endpoint, e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// NewAPIError creates a new APIError
func NewAPIError(endpoint string, statusCode int, body string, err error) *APIError {
	return &APIError{
		Endpoint:   endpoint,
		StatusCode: statusCode,
		Body:       body,
		Err:        err,
	}
}

// ProcessError represents a failure inside the image pipeline
// (download, inspect or upload) for one source URL.
type ProcessError struct {
	SourceURL string
	Stage     string // download, inspect, upload
	Err       error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("image %s failed for %s: %v", e.Stage, e.SourceURL, e.Err)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// NewProcessError creates a new ProcessError
func NewProcessError(sourceURL, stage string, err error) *ProcessError {
	return &ProcessError{
		SourceURL: sourceURL,
		Stage:     stage,
		Err:       err,
	}
}

// PageSyncError wraps any failure inside one page's sync sequence. It is
// caught at the page boundary and never propagates to sibling pages.
type PageSyncError struct {
	PageID string
	Stage  string // fetching, rewriting, replacing, marking
	Err    error
}

func (e *PageSyncError) Error() string {
	return fmt.Sprintf("page %s failed while %s: %v", e.PageID, e.Stage, e.Err)
}

func (e *PageSyncError) Unwrap() error {
	return e.Err
}

// NewPageSyncError creates a new PageSyncError
func NewPageSyncError(pageID, stage string, err error) *PageSyncError {
	return &PageSyncError{
		PageID: pageID,
		Stage:  stage,
		Err:    err,
	}
}

// IsNotFound reports whether the error is a content API 404. Deletes of
// already-removed blocks surface this way and are treated as success.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}

// IsRetryable checks if an error is worth retrying
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 429, 502, 503, 504:
			return true
		}
	}
	return false
}
