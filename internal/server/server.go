package server

import (
	"context"
	"net/http"
	gosync "sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/quantmind-br/pagesync-go/internal/domain"
	"github.com/quantmind-br/pagesync-go/internal/utils"
)

// Runner starts one synchronization pass.
type Runner interface {
	Run(ctx context.Context) (*domain.Report, error)
}

// Server exposes the manual trigger surface and, when configured, kicks
// off scheduled runs. Concurrent runs over the same page set are
// undefined upstream, so runs are serialized behind an in-flight flag.
type Server struct {
	runner   Runner
	logger   *utils.Logger
	interval time.Duration

	running atomic.Bool
	mu      gosync.Mutex
	last    *domain.Report
	lastErr error
}

// Options contains options for creating a Server
type Options struct {
	Runner Runner
	Logger *utils.Logger
	// Interval schedules automatic runs; zero disables the scheduler
	Interval time.Duration
}

// New creates a new trigger server
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Server{
		runner:   opts.Runner,
		logger:   logger.WithComponent("server"),
		interval: opts.Interval,
	}
}

// Handler builds the HTTP handler
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.POST("/sync", s.handleSync)
	r.GET("/status", s.handleStatus)

	return r
}

// ListenAndServe serves the trigger surface and runs the scheduler
// until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	if s.interval > 0 {
		go s.schedule(ctx)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info().Str("addr", addr).Dur("interval", s.interval).Msg("Trigger server listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// schedule triggers a run every interval, skipping ticks that land
// while a run is still in flight.
func (s *Server) schedule(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.runOnce(ctx); err != nil {
				if err == domain.ErrRunInProgress {
					s.logger.Warn().Msg("Scheduled run skipped, previous run still in flight")
				} else {
					s.logger.Error().Err(err).Msg("Scheduled run failed")
				}
			}
		}
	}
}

// runOnce executes a serialized run.
func (s *Server) runOnce(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return domain.ErrRunInProgress
	}
	defer s.running.Store(false)

	report, err := s.runner.Run(ctx)

	s.mu.Lock()
	s.last = report
	s.lastErr = err
	s.mu.Unlock()

	return err
}

func (s *Server) handleSync(c *gin.Context) {
	// The run must survive the client disconnecting: cancelling
	// mid-replace strands pages whose deletes landed but whose appends
	// did not. Only the response is tied to the request.
	err := s.runOnce(context.WithoutCancel(c.Request.Context()))
	switch {
	case err == domain.ErrRunInProgress:
		c.JSON(http.StatusConflict, gin.H{"error": "sync run already in progress"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		s.mu.Lock()
		report := s.last
		s.mu.Unlock()
		c.JSON(http.StatusOK, reportView(report))
	}
}

func (s *Server) handleStatus(c *gin.Context) {
	s.mu.Lock()
	report, lastErr := s.last, s.lastErr
	s.mu.Unlock()

	if report == nil && lastErr == nil {
		c.JSON(http.StatusOK, gin.H{"state": "idle"})
		return
	}
	resp := gin.H{"state": "idle"}
	if s.running.Load() {
		resp["state"] = "running"
	}
	if lastErr != nil {
		resp["last_error"] = lastErr.Error()
	}
	if report != nil {
		resp["last_run"] = reportView(report)
	}
	c.JSON(http.StatusOK, resp)
}

// reportView flattens a report into a JSON-friendly shape
func reportView(r *domain.Report) gin.H {
	if r == nil {
		return nil
	}
	pages := make([]gin.H, 0, len(r.Pages))
	for _, p := range r.Pages {
		view := gin.H{
			"page_id": p.PageID,
			"title":   p.Title,
			"outcome": string(p.Outcome),
			"blocks":  p.Blocks,
			"written": p.Written,
			"images":  p.Images,
		}
		if p.Degraded > 0 {
			view["degraded"] = p.Degraded
		}
		if p.Err != nil {
			view["error"] = p.Err.Error()
		}
		pages = append(pages, view)
	}
	return gin.H{
		"started_at":  r.StartedAt,
		"finished_at": r.FinishedAt,
		"done":        r.Succeeded(),
		"failed":      len(r.Failed()),
		"pages":       pages,
	}
}
