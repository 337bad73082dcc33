package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"class_newsletter_writer/app"
	"class_newsletter_writer/logging"
)

const requestIDHeader = "X-Request-ID"

// Options tunes the HTTP surface.
type Options struct {
	AllowOrigins   []string
	RequestTimeout time.Duration
}

type Server struct {
	svc     *app.Service
	log     *logging.Logger
	timeout time.Duration
	engine  *gin.Engine
}

func New(svc *app.Service, log *logging.Logger, opts Options) (*Server, error) {
	if svc == nil {
		return nil, errors.New("app service required")
	}
	if log == nil {
		log = logging.Nop()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}
	s := &Server{svc: svc, log: log.With("component", "server"), timeout: opts.RequestTimeout}
	s.engine = s.routes(opts)
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes(opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("class-newsletter"))
	r.Use(s.requestID(), s.requestLogger(), s.deadline())
	if len(opts.AllowOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: opts.AllowOrigins,
			AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders: []string{"Content-Type", requestIDHeader},
		}))
	}

	r.GET("/healthcheck", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	api := r.Group("/api")
	{
		api.GET("/state", s.handleState)

		api.PUT("/credential", s.handleSaveCredential)
		api.DELETE("/credential", s.handleDeleteCredential)

		api.POST("/newsletters", s.handleGenerate)
		api.POST("/newsletters/preview", s.handlePreview)

		api.POST("/style/analyze", s.handleAnalyze)
		api.POST("/style/reload", s.handleReload)

		api.POST("/sheets/samples", s.handleSampleSheet)
		api.POST("/sheets/profile", s.handleProfileSheet)

		api.GET("/selection", s.handleSelection)
		api.POST("/cells", s.handleWriteCell)
	}
	return r
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", addr)
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// --- Middleware ---

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		fields := []interface{}{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", c.GetString("request_id"),
		}
		switch {
		case status >= 500:
			s.log.Error("HTTP request", fields...)
		case status >= 400:
			s.log.Warn("HTTP request", fields...)
		default:
			s.log.Info("HTTP request", fields...)
		}
	}
}

func (s *Server) deadline() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// --- Handlers ---

type credentialReq struct {
	APIKey string `json:"apiKey"`
}

type previewReq struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

type cellReq struct {
	SheetName string `json:"sheetName"`
	CellA1    string `json:"cellA1" binding:"required"`
	Text      string `json:"text"`
}

func (s *Server) handleState(c *gin.Context) {
	st, err := s.svc.InitState(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (s *Server) handleSaveCredential(c *gin.Context) {
	var req credentialReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	if err := s.svc.SaveCredential(c.Request.Context(), req.APIKey); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleDeleteCredential(c *gin.Context) {
	if err := s.svc.DeleteCredential(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleGenerate(c *gin.Context) {
	var in app.GenerateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBadRequest(c, err)
		return
	}
	res, err := s.svc.GenerateNewsletter(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handlePreview(c *gin.Context) {
	var req previewReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	page, err := s.svc.PreviewHTML(req.Title, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}

func (s *Server) handleAnalyze(c *gin.Context) {
	sum, err := s.svc.AnalyzeStyle(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (s *Server) handleReload(c *gin.Context) {
	sum, err := s.svc.ReloadProfile(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (s *Server) handleSampleSheet(c *gin.Context) {
	if err := s.svc.EnsureSampleSheet(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleProfileSheet(c *gin.Context) {
	if err := s.svc.ShowProfileSheet(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleSelection(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"content": s.svc.SelectedContent(c.Request.Context())})
}

func (s *Server) handleWriteCell(c *gin.Context) {
	var req cellReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	res, err := s.svc.WriteToCell(c.Request.Context(), req.SheetName, req.CellA1, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
