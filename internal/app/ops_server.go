package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Freeeeeet/tutor_booking/internal/metrics"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const healthTimeout = 2 * time.Second

// Pinger проверка доступности хранилища, реализуется *pgxpool.Pool
type Pinger interface {
	Ping(ctx context.Context) error
}

// OpsServer служебный HTTP-сервер: /healthz и /metrics
type OpsServer struct {
	srv    *http.Server
	logger *zap.Logger
}

func NewOpsServer(addr string, db Pinger, gatherer prometheus.Gatherer, logger *zap.Logger) *OpsServer {
	return &OpsServer{
		srv: &http.Server{
			Addr:              addr,
			Handler:           OpsHandler(db, gatherer, logger),
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// OpsHandler собирает роутер служебных эндпоинтов
func OpsHandler(db Pinger, gatherer prometheus.Gatherer, logger *zap.Logger) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", healthz(db, logger)).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler(gatherer)).Methods(http.MethodGet)

	stdLog := zap.NewStdLog(logger)
	return handlers.RecoveryHandler(handlers.RecoveryLogger(stdLog))(
		handlers.LoggingHandler(stdLog.Writer(), r),
	)
}

type healthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func healthz(db Pinger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		status, resp := http.StatusOK, healthResponse{Status: "ok"}
		if err := db.Ping(ctx); err != nil {
			logger.Warn("Health check failed", zap.Error(err))
			status, resp = http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Error: err.Error()}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			logger.Error("Failed to encode health response", zap.Error(err))
		}
	}
}

// Start запускает сервер в фоне
func (s *OpsServer) Start() {
	go func() {
		s.logger.Info("Ops server listening", zap.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Ops server failed", zap.Error(err))
		}
	}()
}

// Shutdown останавливает сервер, дожидаясь активных запросов
func (s *OpsServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
