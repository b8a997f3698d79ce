package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	apperrors "loan-intake/internal/common/errors"
	fileintake "loan-intake/internal/intake/file-intake"
	storeapplication "loan-intake/internal/intake/store-application"
	"loan-intake/internal/models"
	"loan-intake/pkg/registry"

	"github.com/gin-gonic/gin"
)

// RepDirect selects applications with no rep attribution.
const RepDirect = "direct"

// submission is the dashboard view of an application. loan_amount is a JSON
// number here, unlike the stored decimal string.
type submission struct {
	ID                int64             `json:"id"`
	CreatedAt         time.Time         `json:"created_at"`
	BusinessLegalName string            `json:"business_legal_name"`
	Industry          string            `json:"industry"`
	LoanAmount        float64           `json:"loan_amount"`
	Owners            []string          `json:"owners"`
	Payload           map[string]string `json:"payload"`
	CompanyWebsite    *string           `json:"company_website"`
	RepName           *string           `json:"rep_name"`
	RepEmail          *string           `json:"rep_email"`
}

type submissionFile struct {
	ID          int64          `json:"id"`
	Filename    string         `json:"filename"`
	StoragePath string         `json:"storage_path"`
	SizeBytes   int64          `json:"size_bytes"`
	DocType     models.DocType `json:"doc_type"`
	URL         string         `json:"url"`
}

type submissionDetail struct {
	submission
	Files []submissionFile `json:"files"`
}

func toSubmission(app models.Application) submission {
	owners := app.Owners
	if owners == nil {
		owners = []string{}
	}
	return submission{
		ID:                app.ID,
		CreatedAt:         app.CreatedAt,
		BusinessLegalName: app.BusinessLegalName,
		Industry:          app.Industry,
		LoanAmount:        app.LoanAmount.InexactFloat64(),
		Owners:            owners,
		Payload:           app.Payload,
		CompanyWebsite:    app.CompanyWebsite,
		RepName:           app.RepName,
		RepEmail:          app.RepEmail,
	}
}

func toSubmissionFile(f models.ApplicationFile) submissionFile {
	return submissionFile{
		ID:          f.ID,
		Filename:    f.Filename,
		StoragePath: f.StoragePath,
		SizeBytes:   f.SizeBytes,
		DocType:     f.DocType,
		URL:         fileintake.PublicURL(f.StoragePath),
	}
}

// listSubmissions pages newest first. rep=direct lists unattributed
// applications; an unknown rep code matches nothing.
func (s *Server) listSubmissions(c *gin.Context) {
	limit, offset := storeapplication.ParsePage(c.Query("limit"), c.Query("offset"))
	filter := storeapplication.ListFilter{Limit: limit, Offset: offset}

	switch code := registry.NormalizeCode(c.Query("rep")); code {
	case "":
	case RepDirect:
		filter.DirectOnly = true
	default:
		ref := s.deps.Reps.Referral(code)
		if ref == nil {
			c.JSON(http.StatusOK, []submission{})
			return
		}
		email := ref.Rep.Email
		filter.RepEmail = &email
	}

	apps, err := s.deps.Store.ListApplications(c.Request.Context(), filter)
	if err != nil {
		s.responder.JSON(c, standardError(err, "applications", ""))
		return
	}

	out := make([]submission, 0, len(apps))
	for _, app := range apps {
		out = append(out, toSubmission(app))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getSubmission(c *gin.Context) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		s.responder.JSON(c, apperrors.NewResourceNotFoundError("application", raw))
		return
	}

	ctx := c.Request.Context()
	app, err := s.deps.Store.GetApplication(ctx, id)
	if err != nil {
		s.responder.JSON(c, standardError(err, "application", raw))
		return
	}
	files, err := s.deps.Store.ListFiles(ctx, id)
	if err != nil {
		s.responder.JSON(c, standardError(err, "files", raw))
		return
	}

	detail := submissionDetail{submission: toSubmission(*app), Files: make([]submissionFile, 0, len(files))}
	for _, f := range files {
		detail.Files = append(detail.Files, toSubmissionFile(f))
	}
	c.JSON(http.StatusOK, detail)
}

func (s *Server) listReps(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Reps.Links(s.opts.BaseURL))
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := s.deps.Store.Ping(ctx); err != nil {
		s.logger.Warn("readiness check failed", map[string]interface{}{"error": err})
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"error":  err.Error(),
			"time":   time.Now().Format(time.RFC3339),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Format(time.RFC3339),
	})
}
