package usecase

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/forest33/framescope/business/entity"
	"github.com/forest33/framescope/pkg/logger"
)

// SnifferUseCase runs one capture session at a time: frames are read from the
// capture source, decoded and published to the history and subscribers.
type SnifferUseCase struct {
	ctx        context.Context
	log        *logger.Logger
	cfg        *entity.SnifferConfig
	cfgHandler configHandler
	source     entity.CaptureSource
	decoder    entity.PacketDecoder
	history    entity.ReportHistory

	runMux  sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running atomic.Bool

	stateMux sync.RWMutex
	state    entity.CaptureState
	counters *captureCounters

	subMux      sync.RWMutex
	subscribers map[<-chan *entity.ReportRecord]chan *entity.ReportRecord
}

type captureCounters struct {
	frames    atomic.Uint64
	bytes     atomic.Uint64
	reports   atomic.Uint64
	malformed atomic.Uint64
	timeouts  atomic.Uint64
	errors    atomic.Uint64
}

// NewSnifferUseCase creates a new SnifferUseCase
func NewSnifferUseCase(ctx context.Context, log *logger.Logger, cfg *entity.SnifferConfig, cfgHandler configHandler,
	source entity.CaptureSource, decoder entity.PacketDecoder, history entity.ReportHistory) (*SnifferUseCase, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	uc := &SnifferUseCase{
		ctx:         ctx,
		log:         log.Layer("sniffer"),
		cfg:         cfg,
		cfgHandler:  cfgHandler,
		source:      source,
		decoder:     decoder,
		history:     history,
		counters:    &captureCounters{},
		subscribers: make(map[<-chan *entity.ReportRecord]chan *entity.ReportRecord),
	}

	return uc, uc.init()
}

func (uc *SnifferUseCase) init() error {
	setTracing(uc.decoder, uc.cfg.Decoder.Tracing)

	if uc.cfgHandler != nil {
		if err := uc.cfgHandler.AddObserver(uc.configObserver); err != nil {
			uc.log.Warn().Err(err).Str("path", uc.cfgHandler.GetPath()).Msg("config file is not watched")
		}
	}

	return nil
}

func (uc *SnifferUseCase) configObserver(data interface{}) {
	cfg, ok := data.(*entity.SnifferConfig)
	if !ok {
		return
	}

	uc.log.SetLevel(cfg.Logger.Level)
	setTracing(uc.decoder, cfg.Decoder.Tracing)

	uc.log.Info().
		Str("level", cfg.Logger.Level).
		Bool("tracing", cfg.Decoder.Tracing).
		Msg("configuration reloaded")
}

// Start opens the configured device or file and starts the read loop.
func (uc *SnifferUseCase) Start() error {
	uc.runMux.Lock()
	defer uc.runMux.Unlock()

	if uc.running.Load() {
		return entity.ErrSessionAlreadyStarted
	}

	name := uc.cfg.Capture.Source()
	if name == "" {
		return entity.ErrNoCaptureDevice
	}

	sess, err := uc.source.Open(name, uc.cfg.Capture.SnapshotLength, *uc.cfg.Capture.Promiscuous,
		time.Duration(uc.cfg.Capture.TimeoutMs)*time.Millisecond)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(uc.ctx)
	uc.cancel = cancel
	uc.done = make(chan struct{})
	uc.running.Store(true)

	counters := &captureCounters{}
	uc.stateMux.Lock()
	uc.counters = counters
	uc.state = entity.CaptureState{
		SessionID: uuid.NewString(),
		Device:    name,
		Running:   true,
		StartedAt: time.Now(),
	}
	sessionID := uc.state.SessionID
	uc.stateMux.Unlock()

	uc.log.Info().
		Str("session", sessionID).
		Str("source", name).
		Bool("file", uc.cfg.Capture.UseFile()).
		Msg("capture session started")

	go func(done chan struct{}) {
		defer close(done)
		uc.finish(sessionID, uc.run(ctx, sess, counters, uc.publish))
	}(uc.done)

	return nil
}

// Stop ends the running session and waits until its loop has closed it.
func (uc *SnifferUseCase) Stop() {
	uc.runMux.Lock()
	cancel, done := uc.cancel, uc.done
	uc.runMux.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
}

// Wait blocks until the current session ends on its own or ctx is done.
func (uc *SnifferUseCase) Wait(ctx context.Context) error {
	uc.runMux.Lock()
	done := uc.done
	uc.runMux.Unlock()

	if done == nil {
		return nil
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the session and closes every subscription.
func (uc *SnifferUseCase) Close() {
	uc.Stop()

	uc.subMux.Lock()
	defer uc.subMux.Unlock()
	for key, ch := range uc.subscribers {
		close(ch)
		delete(uc.subscribers, key)
	}
}

// Replay drives sess to its end in the calling goroutine, passing every report
// to handler. The session is closed on return; end of input is not an error.
func (uc *SnifferUseCase) Replay(ctx context.Context, sess entity.CaptureSession, handler entity.ReportHandler) (*entity.CaptureState, error) {
	var (
		counters = &captureCounters{}
		lastID   uint64
		started  = time.Now()
	)

	err := uc.run(ctx, sess, counters, func(rec *entity.ReportRecord) {
		lastID++
		rec.ID = lastID
		handler(rec)
	})

	state := counters.snapshot()
	state.StartedAt = started
	state.FinishedAt = time.Now()
	if err != nil {
		state.FinishError = err.Error()
	}

	return &state, err
}

func (uc *SnifferUseCase) run(ctx context.Context, sess entity.CaptureSession, counters *captureCounters, handler entity.ReportHandler) error {
	defer sess.Close()

	var consecutiveErrors int

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		frame, err := sess.Next()
		if err != nil {
			switch {
			case entity.IsCaptureTimeout(err):
				counters.timeouts.Add(1)
				continue
			case entity.IsFatalCaptureError(err):
				if errors.Is(err, io.EOF) {
					return nil
				}
				return err
			}

			counters.errors.Add(1)
			consecutiveErrors++
			uc.log.Warn().Err(err).Int("in_a_row", consecutiveErrors).Msg("capture error")
			if consecutiveErrors > uc.cfg.Capture.MaxConsecutiveErrors {
				return errors.Wrap(entity.ErrTooManyCaptureErrors, err.Error())
			}
			continue
		}

		consecutiveErrors = 0
		counters.frames.Add(1)
		counters.bytes.Add(uint64(frame.OriginalLength))

		report, err := uc.decoder.Decode(frame)
		if err != nil {
			counters.malformed.Add(1)
			uc.log.Debug().Err(err).
				Int("captured", frame.CapturedLength).
				Str("device", frame.Device).
				Msg("frame not decoded")
			continue
		}

		counters.reports.Add(1)
		handler(entity.NewReportRecord(frame, report))
	}
}

func (uc *SnifferUseCase) finish(sessionID string, err error) {
	uc.stateMux.Lock()
	uc.state.Running = false
	uc.state.FinishedAt = time.Now()
	if err != nil {
		uc.state.FinishError = err.Error()
	}
	uc.stateMux.Unlock()

	uc.running.Store(false)

	if err != nil {
		uc.log.Error().Err(err).Str("session", sessionID).Msg("capture session failed")
		return
	}

	state := uc.GetState()
	uc.log.Info().
		Str("session", sessionID).
		Uint64("frames", state.Frames).
		Uint64("reports", state.Reports).
		Uint64("malformed", state.Malformed).
		Msg("capture session finished")
}

func (uc *SnifferUseCase) publish(rec *entity.ReportRecord) {
	uc.history.Add(rec)

	uc.subMux.RLock()
	defer uc.subMux.RUnlock()

	for _, ch := range uc.subscribers {
		select {
		case ch <- rec:
		default:
			uc.log.Debug().Uint64("id", rec.ID).Msg("subscriber is slow, report dropped")
		}
	}
}

// Subscribe returns a channel receiving every report published from now on.
// Reports are dropped for a subscriber that does not keep up.
func (uc *SnifferUseCase) Subscribe() <-chan *entity.ReportRecord {
	ch := make(chan *entity.ReportRecord, subscriberBufferSize)

	uc.subMux.Lock()
	uc.subscribers[ch] = ch
	uc.subMux.Unlock()

	return ch
}

func (uc *SnifferUseCase) Unsubscribe(ch <-chan *entity.ReportRecord) {
	uc.subMux.Lock()
	defer uc.subMux.Unlock()

	if c, ok := uc.subscribers[ch]; ok {
		close(c)
		delete(uc.subscribers, ch)
	}
}

func (uc *SnifferUseCase) GetReports(limit int) []*entity.ReportRecord {
	return uc.history.List(limit)
}

func (uc *SnifferUseCase) GetReport(id uint64) (*entity.ReportRecord, error) {
	return uc.history.Get(id)
}

func (uc *SnifferUseCase) GetDevices() ([]string, error) {
	return uc.source.ListDevices()
}

func (uc *SnifferUseCase) GetState() entity.CaptureState {
	uc.stateMux.RLock()
	defer uc.stateMux.RUnlock()

	state := uc.counters.snapshot()
	state.SessionID = uc.state.SessionID
	state.Device = uc.state.Device
	state.Running = uc.state.Running
	state.StartedAt = uc.state.StartedAt
	state.FinishedAt = uc.state.FinishedAt
	state.FinishError = uc.state.FinishError

	return state
}

func (c *captureCounters) snapshot() entity.CaptureState {
	return entity.CaptureState{
		Frames:    c.frames.Load(),
		Bytes:     c.bytes.Load(),
		Reports:   c.reports.Load(),
		Malformed: c.malformed.Load(),
		Timeouts:  c.timeouts.Load(),
		Errors:    c.errors.Load(),
	}
}
