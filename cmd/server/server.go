package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/yourorg/epic-mining-calc/internal/config"
	"github.com/yourorg/epic-mining-calc/internal/metrics"
	"github.com/yourorg/epic-mining-calc/internal/query"
	"github.com/yourorg/epic-mining-calc/internal/security"
	"github.com/yourorg/epic-mining-calc/internal/service"
)

const version = "1.0.0"

// startTime records when the service was initialized for uptime reporting
var startTime = time.Now()

// Server is the HTTP front of the profit service
type Server struct {
	config    config.Config
	svc       *service.ProfitService
	signer    *security.ReportSigner
	rateLimit *rate.Limiter
	handler   http.Handler
	server    *http.Server
}

// CalculateRequest is the body of POST /calculate. Query may be a string or
// a bare number.
type CalculateRequest struct {
	Query       interface{} `json:"query"`
	Hashrate    uint64      `json:"hashrate"`
	Algorithm   string      `json:"algorithm"`
	PoolFee     *float64    `json:"pool_fee"`
	Currency    string      `json:"currency"`
	Consumption *float64    `json:"consumption"`
	Energy      float64     `json:"energy"`
	Name        string      `json:"name"`
	Days        int         `json:"days"`
}

func (r CalculateRequest) toServiceRequest() service.Request {
	return service.Request{
		Query:       query.Text(r.Query),
		Hashrate:    r.Hashrate,
		Algorithm:   r.Algorithm,
		PoolFee:     r.PoolFee,
		Currency:    r.Currency,
		Consumption: r.Consumption,
		Energy:      r.Energy,
		Days:        r.Days,
		Name:        r.Name,
	}
}

// NewServer creates the server and its routes. A nil signer publishes plain reports.
func NewServer(cfg config.Config, svc *service.ProfitService, signer *security.ReportSigner) *Server {
	s := &Server{
		config: cfg,
		svc:    svc,
		signer: signer,
	}
	if cfg.RateLimitRPS > 0 {
		s.rateLimit = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}

	r := mux.NewRouter()
	r.Use(requestIDMiddleware, instrumentMiddleware)
	r.HandleFunc("/calculate", s.handleCalculate).Methods(http.MethodPost)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/circuit", s.handleCircuit).Methods(http.MethodGet, http.MethodPost)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	s.handler = cors.AllowAll().Handler(r)
	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until SIGINT or SIGTERM, then shuts down gracefully
func (s *Server) Start() {
	s.server = &http.Server{
		Addr:         ":" + s.config.Port,
		Handler:      s.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("Server starting on port %s", s.config.Port)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("Error starting server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		logrus.Fatalf("Server shutdown failed: %v", err)
	}
	logrus.Info("Server stopped")
}

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r)

	if s.rateLimit != nil && !s.rateLimit.Allow() {
		metrics.ObserveRateLimited()
		errorResponse(w, r, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	var req CalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.config.RequestTimeout)
	defer cancel()

	rep, err := s.svc.Calculate(ctx, req.toServiceRequest())
	if err != nil {
		code := statusFor(err)
		log.WithError(err).WithField("status", code).Warn("Calculation failed")
		errorResponse(w, r, code, err.Error())
		return
	}

	if s.signer == nil {
		writeJSON(w, http.StatusOK, rep)
		return
	}

	signed, err := s.signer.Sign(rep)
	if err != nil {
		log.WithError(err).Error("Failed to sign report")
		errorResponse(w, r, http.StatusInternalServerError, "failed to sign report")
		return
	}
	writeJSON(w, http.StatusOK, signed)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "OK",
		"version":   version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	status := map[string]interface{}{
		"status":  "operational",
		"uptime":  time.Since(startTime).Round(time.Second).String(),
		"version": version,
		"configuration": map[string]interface{}{
			"default_currency": s.config.DefaultCurrency,
			"circuit_breaker":  s.config.EnableCircuitBreaker,
			"signed_reports":   s.signer != nil,
			"cache_ttl":        s.config.CacheTTL.String(),
		},
	}

	if cb := s.svc.Breaker(); cb != nil {
		status["circuit_state"] = cb.GetState().String()
		if sample, ok := cb.LastGood(s.config.DefaultCurrency); ok {
			status["last_block_height"] = sample.Snapshot.Height
			if !sample.Snapshot.Timestamp.IsZero() {
				status["last_block_age"] = humanize.Time(sample.Snapshot.Timestamp)
			}
		}
	}
	writeJSON(w, http.StatusOK, status)
}

// handleCircuit reports the breaker state; POST ?action=reset closes it
func (s *Server) handleCircuit(w http.ResponseWriter, r *http.Request) {
	cb := s.svc.Breaker()
	if cb == nil {
		errorResponse(w, r, http.StatusServiceUnavailable, "circuit breaker not enabled")
		return
	}

	response := map[string]interface{}{}
	if r.Method == http.MethodPost && r.URL.Query().Get("action") == "reset" {
		cb.Reset()
		response["message"] = "Circuit breaker reset"
		requestLogger(r).Info("Circuit breaker reset")
	}

	response["state"] = cb.GetState().String()
	response["last_good_count"] = cb.LastGoodCount()
	if reason := cb.Reason(); reason != "" {
		response["reason"] = reason
	}
	writeJSON(w, http.StatusOK, response)
}

type ctxKey struct{}

// requestIDMiddleware tags every request with an X-Request-ID, reusing the
// caller's when present
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func requestID(r *http.Request) string {
	id, _ := r.Context().Value(ctxKey{}).(string)
	return id
}

func requestLogger(r *http.Request) *logrus.Entry {
	return logrus.WithFields(logrus.Fields{
		"request_id": requestID(r),
		"method":     r.Method,
		"path":       r.URL.Path,
	})
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.code = code
	sr.ResponseWriter.WriteHeader(code)
}

func instrumentMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		metrics.ObserveRequest(route, rec.code, started)
	})
}
