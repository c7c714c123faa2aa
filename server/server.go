// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jcodagnone/closest/nearest"
	"github.com/jcodagnone/closest/selection"
	"github.com/jcodagnone/closest/spatial"
	"go.uber.org/zap"
)

// maxBatchQueries bounds the size of a single POST /api/nearest request.
const maxBatchQueries = 1000

// Server answers k-closest queries over a record set loaded at startup.
// Records are shared read-only between requests.
type Server struct {
	records []nearest.Record
	unit    spatial.Unit
	seed    uint64
	logger  *zap.Logger
}

// NewServer creates a Server. A non-zero seed gives each request its own
// deterministic pivot source; otherwise the global generator is used.
func NewServer(records []nearest.Record, unit spatial.Unit, seed uint64, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Server{
		records: records,
		unit:    unit,
		seed:    seed,
		logger:  logger,
	}
}

func (s *Server) evaluator() *nearest.Evaluator {
	src := selection.Global()
	if s.seed != 0 {
		src = selection.NewSource(s.seed)
	}

	return nearest.NewEvaluator(
		nearest.WithUnit(s.unit),
		nearest.WithSource(src),
		nearest.WithLogger(s.logger),
	)
}

// Router returns the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/api/nearest", s.nearest)
	r.POST("/api/nearest", s.nearestBatch)
	r.GET("/api/records/count", s.countRecords)

	return r
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info("listening", zap.String("addr", addr), zap.Int("records", len(s.records)))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		s.logger.Debug("request",
			zap.String("method", ctx.Request.Method),
			zap.String("path", ctx.Request.URL.Path),
			zap.Int("status", ctx.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

func parseFloatParam(ctx *gin.Context, name string) (float64, bool) {
	f, err := spatial.ParseCoordinate(ctx.Query(name))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name + " parameter"})

		return 0, false
	}

	return f, true
}

func (s *Server) nearest(ctx *gin.Context) {
	lat, ok := parseFloatParam(ctx, "lat")
	if !ok {
		return
	}

	lng, ok := parseFloatParam(ctx, "lng")
	if !ok {
		return
	}

	k, err := strconv.Atoi(ctx.DefaultQuery("k", "1"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid k parameter"})

		return
	}

	q := nearest.Query{Point: spatial.Point{Lat: lat, Lng: lng}, K: k}
	ctx.JSON(http.StatusOK, s.evaluator().Evaluate(s.records, q))
}

type batchRequest struct {
	Queries []nearest.Query `json:"queries" binding:"required"`
}

func (s *Server) nearestBatch(ctx *gin.Context) {
	var req batchRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	if len(req.Queries) > maxBatchQueries {
		ctx.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "too many queries"})

		return
	}

	results, err := s.evaluator().EvaluateAll(ctx.Request.Context(), s.records, req.Queries, nil)
	if err != nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, gin.H{"results": results})
}

func (s *Server) countRecords(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"count": len(s.records), "unit": s.unit})
}
