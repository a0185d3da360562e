package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/forest33/framescope/business/entity"
	"github.com/forest33/framescope/pkg/logger"
)

const (
	defaultReportsLimit = 100
	shutdownTimeout     = 3 * time.Second
)

type Server struct {
	cfg            *Config
	log            *logger.Logger
	snifferUseCase SnifferUseCase
	router         *gin.Engine
	srv            *http.Server
}

type Config struct {
	Host string
	Port int
}

type SnifferUseCase interface {
	Start() error
	Stop()
	GetState() entity.CaptureState
	GetReports(limit int) []*entity.ReportRecord
	GetReport(id uint64) (*entity.ReportRecord, error)
	GetDevices() ([]string, error)
}

type reportsResponse struct {
	Count   int                    `json:"count"`
	Reports []*entity.ReportRecord `json:"reports"`
}

type devicesResponse struct {
	Devices []string `json:"devices"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func New(cfg *Config, log *logger.Logger, snifferUseCase SnifferUseCase) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		cfg:            cfg,
		log:            log.Layer("rest"),
		snifferUseCase: snifferUseCase,
		router:         gin.New(),
	}

	return s, s.init()
}

func (s *Server) init() error {
	s.router.Use(gin.Recovery(), s.requestLogger)

	api := s.router.Group("/api/v1")
	api.GET("/state", s.handlerState)
	api.GET("/reports", s.handlerReports)
	api.GET("/reports/:id", s.handlerReport)
	api.GET("/devices", s.handlerDevices)
	api.POST("/capture/start", s.handlerStart)
	api.POST("/capture/stop", s.handlerStop)

	s.srv = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return nil
}

func (s *Server) Start() {
	go func() {
		s.log.Info().
			Str("host", s.cfg.Host).
			Int("port", s.cfg.Port).
			Msg("starting HTTP server")

		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Fatalf("failed to start HTTP server: %v", err)
		}
	}()
}

func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		s.log.Error().Err(err).Msg("failed to stop HTTP server")
	}
}

func (s *Server) requestLogger(ctx *gin.Context) {
	start := time.Now()
	ctx.Next()
	s.log.Debug().
		Str("method", ctx.Request.Method).
		Str("path", ctx.Request.URL.Path).
		Int("status", ctx.Writer.Status()).
		Dur("latency", time.Since(start)).
		Msg("request")
}

func (s *Server) handlerState(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, s.snifferUseCase.GetState())
}

func (s *Server) handlerReports(ctx *gin.Context) {
	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", strconv.Itoa(defaultReportsLimit)))
	if err != nil || limit < 0 {
		ctx.JSON(http.StatusBadRequest, &errorResponse{Error: "limit must be a non-negative integer"})
		return
	}

	reports := s.snifferUseCase.GetReports(limit)
	ctx.JSON(http.StatusOK, &reportsResponse{
		Count:   len(reports),
		Reports: reports,
	})
}

func (s *Server) handlerReport(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, &errorResponse{Error: "wrong report id"})
		return
	}

	rec, err := s.snifferUseCase.GetReport(id)
	if err != nil {
		s.writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, rec)
}

func (s *Server) handlerDevices(ctx *gin.Context) {
	devices, err := s.snifferUseCase.GetDevices()
	if err != nil {
		s.writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, &devicesResponse{Devices: devices})
}

func (s *Server) handlerStart(ctx *gin.Context) {
	if err := s.snifferUseCase.Start(); err != nil {
		s.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, s.snifferUseCase.GetState())
}

func (s *Server) handlerStop(ctx *gin.Context) {
	s.snifferUseCase.Stop()
	ctx.JSON(http.StatusOK, s.snifferUseCase.GetState())
}

func (s *Server) writeError(ctx *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, entity.ErrReportNotFound):
		status = http.StatusNotFound
	case errors.Is(err, entity.ErrSessionAlreadyStarted):
		status = http.StatusConflict
	case errors.Is(err, entity.ErrNoCaptureDevice), errors.Is(err, entity.ErrUnsupportedLinkType):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		s.log.Error().Err(err).Str("path", ctx.Request.URL.Path).Msg("request failed")
	}

	ctx.JSON(status, &errorResponse{Error: err.Error()})
}
