package profiler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/forest33/framescope/pkg/logger"
)

const shutdownTimeout = 3 * time.Second

type Config struct {
	Host string
	Port int
}

type Profiler struct {
	log *logger.Logger
	srv *http.Server
}

// Start serves the pprof handlers on cfg.Host:cfg.Port until Stop is called.
func Start(cfg *Config, log *logger.Logger) *Profiler {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	p := &Profiler{
		log: log,
		srv: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}

	log.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Msg("starting profiler")

	go func() {
		if err := p.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("failed to start profiler")
		}
	}()

	return p
}

func (p *Profiler) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := p.srv.Shutdown(ctx); err != nil {
		p.log.Error().Err(err).Msg("failed to stop profiler")
	}
}
