// Package server exposes the intake pipeline and the read-only query API
// over HTTP.
package server

import (
	"errors"

	apperrors "loan-intake/internal/common/errors"
	"loan-intake/internal/common/logger"
	"loan-intake/internal/common/ratelimit"
	fileintake "loan-intake/internal/intake/file-intake"
	"loan-intake/internal/intake/pipeline"
	repattribution "loan-intake/internal/intake/rep-attribution"
	storeapplication "loan-intake/internal/intake/store-application"
	"loan-intake/web"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Options struct {
	BaseURL        string
	MaxUploadBytes int64
}

// Dependencies are built once at startup. Limiter is optional.
type Dependencies struct {
	Pipeline *pipeline.Pipeline
	Store    storeapplication.Store
	Reps     *repattribution.Handler
	Files    *fileintake.Handler
	Limiter  *ratelimit.Limiter
}

type Server struct {
	opts      Options
	deps      Dependencies
	responder *apperrors.Responder
	logger    logger.Logger
}

func New(opts Options, deps Dependencies, log logger.Logger) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 32 << 20
	}
	log = log.WithFields(map[string]interface{}{"component": "http"})
	return &Server{
		opts:      opts,
		deps:      deps,
		responder: apperrors.NewResponder(log),
		logger:    log,
	}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() (*gin.Engine, error) {
	tmpl, err := web.Templates()
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), AccessLog(s.logger), Metrics())
	r.SetHTMLTemplate(tmpl)
	r.MaxMultipartMemory = s.opts.MaxUploadBytes

	pages := r.Group("", NoCache())
	pages.GET("/", s.home)
	pages.GET("/thank-you", s.thankYou)
	pages.GET("/admin", s.staticPage("dashboard.html"))
	pages.GET("/admin/reps", s.staticPage("reps.html"))

	forms := pages.Group("", RateLimit(s.deps.Limiter, s.responder))
	forms.POST("/submit", s.submit)
	forms.POST("/upload-docs", s.uploadDocs)

	r.GET("/uploads/*path", s.uploaded)

	api := r.Group("/api")
	api.GET("/submissions", s.listSubmissions)
	api.GET("/submissions/:id", s.getSubmission)
	api.GET("/reps", s.listReps)

	r.GET("/health", s.health)
	r.GET("/ready", s.ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r, nil
}

// standardError maps stage sentinels onto HTTP-facing errors.
func standardError(err error, resource, id string) error {
	switch {
	case errors.Is(err, storeapplication.ErrApplicationNotFound):
		return apperrors.NewResourceNotFoundError(resource, id)
	case errors.Is(err, storeapplication.ErrDatabaseInsertFailed):
		return apperrors.NewDatabaseInsertFailedError(err)
	case errors.Is(err, storeapplication.ErrQueryFailed):
		return apperrors.NewQueryExecutionFailedError(err)
	case errors.Is(err, fileintake.ErrFileSaveFailed):
		return apperrors.NewFileSaveFailedError(resource, err)
	default:
		return apperrors.NewInternalError(err)
	}
}
