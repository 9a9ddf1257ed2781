package ytdirect

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind string

const (
	KindInvalidInput     = ErrorKind("invalid_input")
	KindFetchFailed      = ErrorKind("fetch_failed")
	KindExtractionFailed = ErrorKind("extraction_failed")
	KindNotFound         = ErrorKind("not_found")
)

var (
	ErrInvalidInput     = fmt.Errorf("ytdirect.ErrInvalidInput: invalid input")
	ErrFetchFailed      = fmt.Errorf("ytdirect.ErrFetchFailed: could not fetch video page")
	ErrExtractionFailed = fmt.Errorf("ytdirect.ErrExtractionFailed: could not extract video details")
	ErrNotFound         = fmt.Errorf("ytdirect.ErrNotFound: video not found")

	ErrNoTitle   = fmt.Errorf("ytdirect.ErrNoTitle: no title found")
	ErrNoVideoID = fmt.Errorf("ytdirect.ErrNoVideoID: no video id found")
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindInvalidInput:
		return ErrInvalidInput
	case KindFetchFailed:
		return ErrFetchFailed
	case KindExtractionFailed:
		return ErrExtractionFailed
	case KindNotFound:
		return ErrNotFound
	default:
		return nil
	}
}

// Error is the only error type surfaced to callers of this package.
// StatusCode is the upstream HTTP status for fetch failures, or zero.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func newError(kind ErrorKind, statusCode int, message string, err error) *Error {
	return &Error{Kind: kind, StatusCode: statusCode, Message: message, Err: err}
}

func InvalidInput(message string, err error) *Error {
	return newError(KindInvalidInput, 0, message, err)
}

func FetchFailed(statusCode int, message string, err error) *Error {
	return newError(KindFetchFailed, statusCode, message, err)
}

func ExtractionFailed(err error) *Error {
	message := "Video details not found"
	switch {
	case errors.Is(err, ErrNoVideoID):
		message = "Video details not found: no video id found"
	case errors.Is(err, ErrNoTitle):
		message = "Video details not found: no title found"
	}

	return newError(KindExtractionFailed, 0, message, err)
}

func NotFound(message string) *Error {
	return newError(KindNotFound, 0, message, nil)
}

func (e *Error) Error() string {
	s := string(e.Kind) + ": " + e.Message
	if e.StatusCode != 0 {
		s += fmt.Sprintf(" (status code %d)", e.StatusCode)
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}

	return s
}

func (e *Error) Unwrap() []error {
	var a []error
	if s := e.Kind.sentinel(); s != nil {
		a = append(a, s)
	}
	if e.Err != nil {
		a = append(a, e.Err)
	}

	return a
}

// HTTPStatus is the status code reported to inbound callers.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindFetchFailed:
		if e.StatusCode >= 400 && e.StatusCode <= 599 {
			return e.StatusCode
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// StatusCode and Message map any error to what inbound callers see. Errors
// that did not come from this package are reported as unexpected.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.HTTPStatus()
	}

	return http.StatusInternalServerError
}

func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}

	return "An unexpected error occurred"
}
