// Package main framescope sniffer main package
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/forest33/framescope/adapter/history"
	rest "github.com/forest33/framescope/adapter/http"
	"github.com/forest33/framescope/adapter/packet"
	"github.com/forest33/framescope/adapter/pcap"
	"github.com/forest33/framescope/adapter/pcapfile"
	"github.com/forest33/framescope/adapter/tui"
	"github.com/forest33/framescope/business/entity"
	"github.com/forest33/framescope/business/usecase"
	"github.com/forest33/framescope/pkg/automaxprocs"
	"github.com/forest33/framescope/pkg/config"
	"github.com/forest33/framescope/pkg/logger"
	"github.com/forest33/framescope/pkg/profiler"
)

var (
	cfg        = &entity.SnifferConfig{}
	cfgHandler *config.Config
	zlog       *logger.Logger
	ctx        context.Context
	cancel     context.CancelFunc

	sourceAdapter  entity.CaptureSource
	decoderAdapter *packet.Decoder
	historyAdapter *history.History
	restServer     *rest.Server
	prof           *profiler.Profiler

	snifferUseCase *usecase.SnifferUseCase
)

func init() {
	var err error
	cfgHandler, err = config.New(entity.DefaultSnifferConfigFileName, "", cfg)
	if err != nil {
		log.Fatalf("failed to parse config file: %v", err)
	}

	zlog = logger.New(logger.Config{
		Level:             cfg.Logger.Level,
		TimeFieldFormat:   cfg.Logger.TimeFieldFormat,
		PrettyPrint:       *cfg.Logger.PrettyPrint,
		DisableSampling:   *cfg.Logger.DisableSampling,
		RedirectStdLogger: *cfg.Logger.RedirectStdLogger,
		ErrorStack:        *cfg.Logger.ErrorStack,
		ShowCaller:        *cfg.Logger.ShowCaller,
		FileName:          cfg.Logger.FileName,
		Quiet:             *cfg.UI.Enabled && len(os.Args[1:]) == 0,
	})
	cfgHandler.SetLogger(zlog)

	if cfg.Runtime.GoMaxProcs != 0 {
		runtime.GOMAXPROCS(cfg.Runtime.GoMaxProcs)
	} else {
		automaxprocs.Init(zlog)
	}

	ctx, cancel = context.WithCancel(context.Background())
}

func main() {
	defer shutdown()

	initAdapters()
	initUseCases()

	if len(os.Args[1:]) > 0 {
		parseCommandLine()
		return
	}

	if *cfg.Profiler.Enabled {
		prof = profiler.Start(&profiler.Config{
			Host: cfg.Profiler.Host,
			Port: cfg.Profiler.Port,
		}, zlog)
	}

	if err := snifferUseCase.Start(); err != nil {
		zlog.Fatalf("failed to start capture: %v", err)
	}

	initRestServer()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		cancel()
	}()

	if *cfg.UI.Enabled {
		if err := tui.Run(ctx, &tui.Config{
			RefreshInterval: time.Duration(cfg.UI.RefreshMs) * time.Millisecond,
			VisibleRows:     cfg.UI.VisibleRows,
			HistoryRows:     cfg.History.Size,
		}, snifferUseCase); err != nil {
			zlog.Error().Err(err).Msg("terminal UI failed")
		}
		return
	}

	// a file capture ends on its own, a live one runs until a signal
	if err := snifferUseCase.Wait(ctx); err == nil && !*cfg.Rest.Enabled {
		return
	}
	<-ctx.Done()
}

func initAdapters() {
	var err error

	decoderAdapter = packet.New(&packet.Config{
		Tracing: cfg.Decoder.Tracing,
	}, zlog)

	historyAdapter, err = history.New(&history.Config{
		Size: cfg.History.Size,
	})
	if err != nil {
		zlog.Fatalf("failed to create report history: %v", err)
	}

	if cfg.Capture.UseFile() {
		sourceAdapter = pcapfile.New(&pcapfile.Config{
			Path: cfg.Capture.Source(),
		}, zlog)
	} else {
		sourceAdapter = pcap.New(zlog)
	}
}

func initUseCases() {
	var err error

	snifferUseCase, err = usecase.NewSnifferUseCase(ctx, zlog, cfg, cfgHandler, sourceAdapter, decoderAdapter, historyAdapter)
	if err != nil {
		zlog.Fatalf("failed to create sniffer: %v", err)
	}
}

func initRestServer() {
	if !*cfg.Rest.Enabled {
		return
	}

	var err error
	restServer, err = rest.New(&rest.Config{
		Host: cfg.Rest.Host,
		Port: cfg.Rest.Port,
	}, zlog, snifferUseCase)
	if err != nil {
		zlog.Fatalf("failed to start HTTP server: %v", err)
	}
	restServer.Start()
}

func shutdown() {
	if restServer != nil {
		restServer.Stop()
	}
	if snifferUseCase != nil {
		snifferUseCase.Close()
		state := snifferUseCase.GetState()
		zlog.Info().
			Uint64("frames", state.Frames).
			Uint64("reports", state.Reports).
			Uint64("malformed", state.Malformed).
			Msg("sniffer stopped")
	}
	if prof != nil {
		prof.Stop()
	}
	cfgHandler.Close()
	cancel()
}
