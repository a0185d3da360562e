package entity

import (
	"time"
)

// CaptureSource opens capture sessions and enumerates devices.
type CaptureSource interface {
	Open(device string, snapshotLength int, promiscuous bool, timeout time.Duration) (CaptureSession, error)
	ListDevices() ([]string, error)
}

// CaptureSession delivers captured frames one at a time.
//
// Next returns ErrCaptureTimeout when nothing arrived within the read timeout
// and a *CaptureError when reading failed. Close is idempotent and must not
// be called concurrently with an outstanding Next.
type CaptureSession interface {
	Next() (*Frame, error)
	Close()
}

// CaptureState capture session counters
type CaptureState struct {
	SessionID   string    `json:"session_id"`
	Device      string    `json:"device"`
	Running     bool      `json:"running"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at,omitempty"`
	Frames      uint64    `json:"frames"`
	Bytes       uint64    `json:"bytes"`
	Reports     uint64    `json:"reports"`
	Malformed   uint64    `json:"malformed"`
	Timeouts    uint64    `json:"timeouts"`
	Errors      uint64    `json:"errors"`
	FinishError string    `json:"finish_error,omitempty"`
}
