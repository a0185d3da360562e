package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/forest33/framescope/adapter/history"
	"github.com/forest33/framescope/adapter/packet"
	"github.com/forest33/framescope/business/entity"
	"github.com/forest33/framescope/pkg/config"
	"github.com/forest33/framescope/pkg/logger"
)

var testLog = logger.New(logger.Config{Level: "error", Quiet: true})

func arpFrame() []byte {
	frame := []byte{
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
		0x00, 0x11, 0x22, 0x33, 0x44, 0x55,
		0x08, 0x06,
	}
	return append(frame, make([]byte, 28)...)
}

func newTestConfig(t *testing.T) *entity.SnifferConfig {
	t.Helper()
	cfg := &entity.SnifferConfig{}
	if err := config.Parse(cfg); err != nil {
		t.Fatalf("failed to fill config defaults: %v", err)
	}
	cfg.Capture.Device = "mock0"
	cfg.Capture.MaxConsecutiveErrors = 2
	cfg.History.Size = 10
	return cfg
}

func newTestUseCase(t *testing.T, cfg *entity.SnifferConfig, source entity.CaptureSource, decoder entity.PacketDecoder) *SnifferUseCase {
	t.Helper()

	if decoder == nil {
		decoder = packet.New(&packet.Config{}, testLog)
	}
	hist, err := history.New(&history.Config{Size: cfg.History.Size})
	if err != nil {
		t.Fatal(err)
	}

	uc, err := NewSnifferUseCase(context.Background(), testLog, cfg, nil, source, decoder, hist)
	if err != nil {
		t.Fatalf("failed to create usecase: %v", err)
	}
	t.Cleanup(uc.Close)

	return uc
}

func waitFinished(t *testing.T, uc *SnifferUseCase) entity.CaptureState {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := uc.Wait(ctx); err != nil {
		t.Fatalf("session did not finish: %v", err)
	}
	return uc.GetState()
}

func TestCaptureSession(t *testing.T) {
	source := &MockCaptureSource{
		Steps: []MockStep{
			{Data: arpFrame()},
			{Err: entity.ErrCaptureTimeout},
			{Data: arpFrame()[:10]},
			{Err: entity.NewRecoverableCaptureError(errors.New("buffer overrun"))},
			{Data: arpFrame()},
			{Err: entity.ErrCaptureTimeout},
			{Data: arpFrame()},
		},
	}

	uc := newTestUseCase(t, newTestConfig(t), source, nil)
	sub := uc.Subscribe()

	if err := uc.Start(); err != nil {
		t.Fatalf("failed to start: %v", err)
	}
	state := waitFinished(t, uc)

	if state.Running || state.FinishError != "" {
		t.Fatalf("unexpected final state %+v", state)
	}
	if state.SessionID == "" || state.Device != "mock0" {
		t.Errorf("wrong session identity %+v", state)
	}

	expected := entity.CaptureState{Frames: 4, Bytes: 42*3 + 10, Reports: 3, Malformed: 1, Timeouts: 2, Errors: 1}
	if state.Frames != expected.Frames || state.Bytes != expected.Bytes || state.Reports != expected.Reports ||
		state.Malformed != expected.Malformed || state.Timeouts != expected.Timeouts || state.Errors != expected.Errors {
		t.Errorf("wrong counters %+v", state)
	}

	if closed := source.lastSession().closed.Load(); closed != 1 {
		t.Errorf("session closed %d times", closed)
	}

	reports := uc.GetReports(0)
	if len(reports) != 3 {
		t.Fatalf("expected 3 reports in history, got %d", len(reports))
	}
	for i, rec := range reports {
		if rec.ID != uint64(i+1) || rec.Summary != "ethertype=0x0806 len=42" || rec.Device != "mock0" {
			t.Errorf("wrong record %d: %+v", i, rec)
		}
	}

	rec, err := uc.GetReport(2)
	if err != nil || rec.ID != 2 {
		t.Errorf("GetReport(2) = %+v, %v", rec, err)
	}
	if _, err := uc.GetReport(42); !errors.Is(err, entity.ErrReportNotFound) {
		t.Errorf("expected ErrReportNotFound, got %v", err)
	}

	for i := 0; i < 3; i++ {
		select {
		case rec := <-sub:
			if rec.ID != uint64(i+1) {
				t.Errorf("subscriber got id %d, expected %d", rec.ID, i+1)
			}
		default:
			t.Fatalf("subscriber missed report %d", i+1)
		}
	}
}

func TestCaptureTooManyErrors(t *testing.T) {
	readErr := entity.NewRecoverableCaptureError(errors.New("read failed"))
	source := &MockCaptureSource{
		Steps: []MockStep{
			{Err: readErr},
			{Err: readErr},
			{Data: arpFrame()},
			{Err: readErr},
			{Err: readErr},
			{Err: readErr},
			{Data: arpFrame()},
		},
	}

	uc := newTestUseCase(t, newTestConfig(t), source, nil)
	if err := uc.Start(); err != nil {
		t.Fatalf("failed to start: %v", err)
	}
	state := waitFinished(t, uc)

	if !strings.Contains(state.FinishError, entity.ErrTooManyCaptureErrors.Error()) {
		t.Fatalf("expected too many errors, got %q", state.FinishError)
	}
	if state.Reports != 1 || state.Errors != 5 {
		t.Errorf("wrong counters %+v", state)
	}
}

func TestCaptureFatalError(t *testing.T) {
	source := &MockCaptureSource{
		Steps: []MockStep{
			{Data: arpFrame()},
			{Err: entity.NewFatalCaptureError(errors.New("device removed"))},
			{Data: arpFrame()},
		},
	}

	uc := newTestUseCase(t, newTestConfig(t), source, nil)
	if err := uc.Start(); err != nil {
		t.Fatalf("failed to start: %v", err)
	}
	state := waitFinished(t, uc)

	if !strings.Contains(state.FinishError, "device removed") {
		t.Fatalf("expected fatal error, got %q", state.FinishError)
	}
	if state.Reports != 1 {
		t.Errorf("frames after a fatal error were read: %+v", state)
	}
}

func TestStartStop(t *testing.T) {
	source := &MockCaptureSource{Endless: true, Steps: []MockStep{{Data: arpFrame()}}}
	uc := newTestUseCase(t, newTestConfig(t), source, nil)

	if err := uc.Start(); err != nil {
		t.Fatalf("failed to start: %v", err)
	}
	if err := uc.Start(); !errors.Is(err, entity.ErrSessionAlreadyStarted) {
		t.Fatalf("expected ErrSessionAlreadyStarted, got %v", err)
	}
	if !uc.GetState().Running {
		t.Fatal("session is not running")
	}

	uc.Stop()

	state := uc.GetState()
	if state.Running || state.FinishError != "" {
		t.Fatalf("unexpected state after stop %+v", state)
	}
	if closed := source.lastSession().closed.Load(); closed != 1 {
		t.Errorf("session closed %d times", closed)
	}

	// a stopped use case can start again with a new session
	first := state.SessionID
	if err := uc.Start(); err != nil {
		t.Fatalf("failed to restart: %v", err)
	}
	uc.Stop()
	if uc.GetState().SessionID == first {
		t.Error("session id was reused")
	}
}

func TestStartErrors(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Capture.Device = ""
	uc := newTestUseCase(t, cfg, &MockCaptureSource{}, nil)
	if err := uc.Start(); !errors.Is(err, entity.ErrNoCaptureDevice) {
		t.Fatalf("expected ErrNoCaptureDevice, got %v", err)
	}

	openErr := errors.New("permission denied")
	uc = newTestUseCase(t, newTestConfig(t), &MockCaptureSource{OpenErr: openErr}, nil)
	if err := uc.Start(); !errors.Is(err, openErr) {
		t.Fatalf("expected open error, got %v", err)
	}
	if uc.GetState().Running {
		t.Fatal("session running after failed open")
	}
}

func TestReplay(t *testing.T) {
	source := &MockCaptureSource{
		Steps: []MockStep{
			{Data: arpFrame()},
			{Data: arpFrame()[:5]},
			{Data: arpFrame()},
		},
	}
	uc := newTestUseCase(t, newTestConfig(t), source, nil)

	sess, err := source.Open("file.pcap", 1600, false, 0)
	if err != nil {
		t.Fatal(err)
	}

	var got []*entity.ReportRecord
	state, err := uc.Replay(context.Background(), sess, func(rec *entity.ReportRecord) {
		got = append(got, rec)
	})
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}

	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 2 || got[0].Device != "file.pcap" {
		t.Fatalf("wrong replayed reports %+v", got)
	}
	if state.Frames != 3 || state.Reports != 2 || state.Malformed != 1 {
		t.Errorf("wrong replay counters %+v", state)
	}
	if len(uc.GetReports(0)) != 0 {
		t.Error("replay must not fill the live history")
	}
}

func TestConfigObserver(t *testing.T) {
	decoder := &MockTracingDecoder{PacketDecoder: packet.New(&packet.Config{}, testLog)}
	cfg := newTestConfig(t)
	cfg.Decoder.Tracing = true

	uc := newTestUseCase(t, cfg, &MockCaptureSource{Devices: []string{"eth0", "lo"}}, decoder)
	if !decoder.tracing.Load() {
		t.Fatal("tracing not applied on start")
	}

	reloaded := newTestConfig(t)
	reloaded.Logger.Level = "error"
	reloaded.Decoder.Tracing = false
	uc.configObserver(reloaded)

	if decoder.tracing.Load() {
		t.Fatal("tracing not disabled on reload")
	}

	devices, err := uc.GetDevices()
	if err != nil || len(devices) != 2 || devices[0] != "eth0" {
		t.Fatalf("unexpected devices %v, error %v", devices, err)
	}
}

func TestUnsubscribe(t *testing.T) {
	uc := newTestUseCase(t, newTestConfig(t), &MockCaptureSource{}, nil)

	sub := uc.Subscribe()
	uc.Unsubscribe(sub)

	if _, ok := <-sub; ok {
		t.Fatal("channel is open after unsubscribe")
	}

	// unknown channels are ignored
	uc.Unsubscribe(make(chan *entity.ReportRecord))
}
