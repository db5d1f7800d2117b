// Package server - HTTP API управления задачами: запуск, пауза, продолжение,
// остановка, статус, список задач и метрики Prometheus.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"clinicAgent/internal/jobs"
	"clinicAgent/internal/logger"
	"clinicAgent/internal/sheets"
)

// Jobs - операции менеджера задач, доступные через API.
type Jobs interface {
	Start(sheetURL string) *jobs.Job
	Get(id string) (*jobs.Job, error)
	List() []*jobs.Job
	Pause(id string) error
	Resume(id string) error
	Stop(id string) error
}

type Server struct {
	addr     string
	log      *logger.Zap
	jobs     Jobs
	gatherer prometheus.Gatherer
}

// New создает сервер. gatherer может быть nil - тогда /metrics не регистрируется.
func New(addr string, j Jobs, gatherer prometheus.Gatherer, log *logger.Zap) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		addr:     addr,
		log:      log.Named("http"),
		jobs:     j,
		gatherer: gatherer,
	}
}

// Handler собирает маршруты.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	// Простейший лог-мидлвар
	r.Use(func(c *gin.Context) {
		c.Next()
		s.log.Debug("HTTP",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
		)
	})

	r.GET("/_healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	if s.gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	r.POST("/start", s.start)
	r.GET("/status/:job_id", s.status)
	r.POST("/pause/:job_id", s.control(s.jobs.Pause))
	r.POST("/resume/:job_id", s.control(s.jobs.Resume))
	r.POST("/stop/:job_id", s.control(s.jobs.Stop))
	r.GET("/jobs", s.list)

	return r
}

type startRequest struct {
	SheetURL string `json:"sheet_url" form:"sheet_url"`
}

// start принимает JSON или форму.
func (s *Server) start(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	u := strings.TrimSpace(req.SheetURL)
	if !sheets.IsValidSheetURL(u) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Google Sheet link."})
		return
	}

	j := s.jobs.Start(u)
	s.log.Info("Задача запущена через API", zap.String("job_id", j.ID))
	c.JSON(http.StatusOK, gin.H{"job_id": j.ID})
}

func (s *Server) status(c *gin.Context) {
	j, err := s.jobs.Get(c.Param("job_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown job_id"})
		return
	}
	c.JSON(http.StatusOK, j.Snapshot())
}

func (s *Server) control(op func(id string) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := op(c.Param("job_id")); err != nil {
			if errors.Is(err, jobs.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "unknown job_id"})
				return
			}
			s.log.Error("Ошибка управления задачей", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

type jobSummary struct {
	JobID     string      `json:"job_id"`
	SheetURL  string      `json:"sheet_url"`
	Status    jobs.Status `json:"status"`
	Progress  int         `json:"progress"`
	CreatedAt time.Time   `json:"created_at"`
}

func (s *Server) list(c *gin.Context) {
	all := s.jobs.List()
	out := make([]jobSummary, 0, len(all))
	for _, j := range all {
		snap := j.Snapshot()
		out = append(out, jobSummary{
			JobID:     snap.JobID,
			SheetURL:  snap.SheetURL,
			Status:    snap.Status,
			Progress:  snap.Progress,
			CreatedAt: j.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, out)
}

// Run слушает addr до отмены ctx, затем завершает активные запросы.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Сервер запущен", zap.String("addr", s.addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
