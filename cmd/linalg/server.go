package main

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/23skdu/longbow-linalg/internal/codec"
)

const (
	contentTypeCBOR  = "application/cbor"
	contentTypeArrow = "application/vnd.apache.arrow.stream"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linalg_http_requests_total",
		Help: "HTTP requests by operation and status code",
	}, []string{"op", "code"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "linalg_request_duration_seconds",
		Help:    "Time spent processing compute requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"transport"})
)

type Server struct {
	engine Computer
	alloc  memory.Allocator
}

func NewServer(engine Computer) *Server {
	return &Server{
		engine: engine,
		alloc:  memory.NewGoAllocator(),
	}
}

// Handler routes the compute, metrics and health endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /v1/{op}", s.handleCompute)
	mux.HandleFunc("POST /v1/{op}/arrow", s.handleComputeArrow)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

func startServer(addr string, engine Computer) {
	srv := NewServer(engine)

	log.Info().Str("addr", addr).Msg("Starting linalg HTTP server")
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

func (s *Server) handleCompute(w http.ResponseWriter, r *http.Request) {
	op := r.PathValue("op")
	ctx, span := tracer.Start(r.Context(), "handleCompute")
	defer span.End()
	span.SetAttributes(attribute.String("op", op))

	start := time.Now()
	defer func() {
		requestDuration.WithLabelValues("cbor").Observe(time.Since(start).Seconds())
	}()

	req, err := codec.DecodeRequest(r.Body)
	if err != nil {
		span.RecordError(err)
		s.fail(w, op, http.StatusBadRequest, fmt.Errorf("cbor decode: %w", err))
		return
	}
	operands, err := req.Matrices()
	if err != nil {
		s.fail(w, op, http.StatusBadRequest, err)
		return
	}

	out, err := s.engine.Compute(ctx, op, operands...)
	if err != nil {
		span.RecordError(err)
		code, _ := errorStatus(err)
		s.fail(w, op, code, err)
		return
	}

	w.Header().Set("Content-Type", contentTypeCBOR)
	requestsTotal.WithLabelValues(opLabel(op), strconv.Itoa(http.StatusOK)).Inc()
	if err := codec.Encode(w, codec.FromMatrix(out)); err != nil {
		log.Error().Err(err).Str("op", op).Msg("Failed to write CBOR response")
	}
}

func (s *Server) handleComputeArrow(w http.ResponseWriter, r *http.Request) {
	op := r.PathValue("op")
	ctx, span := tracer.Start(r.Context(), "handleComputeArrow")
	defer span.End()
	span.SetAttributes(attribute.String("op", op))

	start := time.Now()
	defer func() {
		requestDuration.WithLabelValues("arrow").Observe(time.Since(start).Seconds())
	}()

	operands, err := codec.ReadStream(r.Body, s.alloc)
	if err != nil {
		span.RecordError(err)
		s.fail(w, op, http.StatusBadRequest, fmt.Errorf("read ipc stream: %w", err))
		return
	}

	out, err := s.engine.Compute(ctx, op, operands...)
	if err != nil {
		span.RecordError(err)
		code, _ := errorStatus(err)
		s.fail(w, op, code, err)
		return
	}

	w.Header().Set("Content-Type", contentTypeArrow)
	requestsTotal.WithLabelValues(opLabel(op), strconv.Itoa(http.StatusOK)).Inc()
	if err := codec.WriteStream(w, s.alloc, out); err != nil {
		log.Error().Err(err).Str("op", op).Msg("Failed to write Arrow response")
	}
}

func (s *Server) fail(w http.ResponseWriter, op string, code int, err error) {
	requestsTotal.WithLabelValues(opLabel(op), strconv.Itoa(code)).Inc()
	if code >= http.StatusInternalServerError {
		log.Error().Err(err).Str("op", op).Msg("Request failed")
	} else {
		log.Debug().Err(err).Str("op", op).Int("code", code).Msg("Request rejected")
	}
	http.Error(w, err.Error(), code)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
