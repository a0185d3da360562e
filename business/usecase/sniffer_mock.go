package usecase

import (
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/forest33/framescope/business/entity"
)

// MockStep is one scripted result of MockCaptureSession.Next.
type MockStep struct {
	Data []byte
	Err  error
}

type MockCaptureSource struct {
	Devices []string
	Steps   []MockStep
	// Endless sessions report timeouts after the script instead of end of input.
	Endless bool
	OpenErr error

	opened   []string
	sessions []*MockCaptureSession
	mux      sync.Mutex
}

type MockCaptureSession struct {
	steps   []MockStep
	idx     int
	endless bool
	device  string
	closed  atomic.Int32
}

func (m *MockCaptureSource) Open(device string, _ int, _ bool, _ time.Duration) (entity.CaptureSession, error) {
	m.mux.Lock()
	defer m.mux.Unlock()

	if m.OpenErr != nil {
		return nil, m.OpenErr
	}

	sess := &MockCaptureSession{steps: m.Steps, endless: m.Endless, device: device}
	m.opened = append(m.opened, device)
	m.sessions = append(m.sessions, sess)

	return sess, nil
}

func (m *MockCaptureSource) ListDevices() ([]string, error) {
	return m.Devices, nil
}

func (m *MockCaptureSource) lastSession() *MockCaptureSession {
	m.mux.Lock()
	defer m.mux.Unlock()
	if len(m.sessions) == 0 {
		return nil
	}
	return m.sessions[len(m.sessions)-1]
}

func (s *MockCaptureSession) Next() (*entity.Frame, error) {
	if s.closed.Load() > 0 {
		return nil, entity.ErrSessionClosed
	}

	if s.idx >= len(s.steps) {
		if s.endless {
			time.Sleep(time.Millisecond)
			return nil, entity.ErrCaptureTimeout
		}
		return nil, entity.NewFatalCaptureError(io.EOF)
	}

	step := s.steps[s.idx]
	s.idx++
	if step.Err != nil {
		return nil, step.Err
	}

	frame := entity.NewFrame(step.Data)
	frame.Device = s.device
	frame.Timestamp = time.Now()

	return frame, nil
}

func (s *MockCaptureSession) Close() {
	s.closed.Add(1)
}

// MockTracingDecoder records SetTracing calls and delegates decoding.
type MockTracingDecoder struct {
	entity.PacketDecoder
	tracing atomic.Bool
}

func (m *MockTracingDecoder) SetTracing(enabled bool) {
	m.tracing.Store(enabled)
}
