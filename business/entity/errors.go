package entity

import (
	"errors"

	"github.com/forest33/framescope/pkg/cursor"
)

var (
	ErrTruncated               = cursor.ErrTruncated
	ErrMalformedHeader         = errors.New("malformed header")
	ErrCaptureTimeout          = errors.New("capture timeout")
	ErrSessionClosed           = errors.New("capture session closed")
	ErrSessionAlreadyStarted   = errors.New("capture session already started")
	ErrNoCaptureDevice         = errors.New("capture device or file is not specified")
	ErrUnsupportedLinkType     = errors.New("unsupported link type")
	ErrTooManyCaptureErrors    = errors.New("too many consecutive capture errors")
	ErrReportNotFound          = errors.New("report not found")
	ErrValidation              = errors.New("validation error")
	ErrCommandArgumentRequired = errors.New("command argument required")
)

// CaptureError is returned by a capture session when reading the next frame
// failed. Fatal errors end the session, recoverable errors may be retried.
type CaptureError struct {
	Err   error
	Fatal bool
}

func (e *CaptureError) Error() string {
	if e.Fatal {
		return "fatal capture error: " + e.Err.Error()
	}
	return "capture error: " + e.Err.Error()
}

func (e *CaptureError) Unwrap() error {
	return e.Err
}

func NewRecoverableCaptureError(err error) error {
	return &CaptureError{Err: err}
}

func NewFatalCaptureError(err error) error {
	return &CaptureError{Err: err, Fatal: true}
}

// IsFatalCaptureError returns true if err ends the capture session.
func IsFatalCaptureError(err error) bool {
	if errors.Is(err, ErrSessionClosed) {
		return true
	}
	var capErr *CaptureError
	if errors.As(err, &capErr) {
		return capErr.Fatal
	}
	return false
}

// IsCaptureTimeout returns true if no frame arrived within the read timeout.
func IsCaptureTimeout(err error) bool {
	return errors.Is(err, ErrCaptureTimeout)
}
