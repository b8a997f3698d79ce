package server

import (
	"errors"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	apperrors "loan-intake/internal/common/errors"
	"loan-intake/internal/common/metrics"
	fileintake "loan-intake/internal/intake/file-intake"
	"loan-intake/internal/intake/pipeline"
	repattribution "loan-intake/internal/intake/rep-attribution"
	"loan-intake/internal/models"
	"loan-intake/web"

	"github.com/gin-gonic/gin"
)

func (s *Server) home(c *gin.Context) {
	c.HTML(http.StatusOK, "form.html", web.FormPage{
		Fields: models.Fields{},
		Rep:    badge(s.deps.Reps.Referral(c.Query("rep"))),
	})
}

func (s *Server) thankYou(c *gin.Context) {
	page := web.ThankYouPage{}
	if sid, err := strconv.ParseInt(c.Query("sid"), 10, 64); err == nil && sid > 0 {
		page.SID = sid
		if app, err := s.deps.Store.GetApplication(c.Request.Context(), sid); err == nil {
			page.Business = app.BusinessLegalName
		}
	}
	c.HTML(http.StatusOK, "thank_you.html", page)
}

func (s *Server) staticPage(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := web.Page(name)
		if err != nil {
			s.responder.Text(c, apperrors.NewResourceNotFoundError("page", name))
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", body)
	}
}

func (s *Server) submit(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		s.responder.Text(c, apperrors.NewInvalidRequestError(err.Error()))
		return
	}

	fields := models.NewFields(c.Request.PostForm)
	res, err := s.deps.Pipeline.Submit(c.Request.Context(), &pipeline.Submission{
		Fields:       fields,
		RepCode:      fields.Get("rep"),
		RepSignature: fields.Get("rep_sig"),
		BankFiles:    uploads(c.Request.MultipartForm, "bank_files", models.DocTypeBankStatement),
	})
	switch {
	case pipeline.IsValidationError(err):
		metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeInvalid).Inc()
		if c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON {
			s.responder.JSON(c, apperrors.NewApplicationValidationFailedError(res.Errors))
			return
		}
		c.HTML(http.StatusBadRequest, "form.html", web.FormPage{
			Fields: res.Fields,
			Errors: res.Errors,
			Rep:    s.repBadge(res.Rep),
		})
		return
	case err != nil:
		metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		s.responder.Text(c, standardError(err, "application", ""))
		return
	}

	metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeAccepted).Inc()
	for _, f := range res.Files {
		metrics.UploadsTotal.WithLabelValues(string(f.DocType), metrics.OutcomeAccepted).Inc()
	}
	for range res.FailedFiles {
		metrics.UploadsTotal.WithLabelValues(string(models.DocTypeBankStatement), metrics.OutcomeFailed).Inc()
	}
	c.Redirect(http.StatusFound, "/thank-you?sid="+strconv.FormatInt(res.ApplicationID, 10))
}

func (s *Server) uploadDocs(c *gin.Context) {
	sid, err := strconv.ParseInt(c.PostForm("sid"), 10, 64)
	if err != nil || sid <= 0 {
		s.responder.Text(c, apperrors.NewInvalidRequestError("sid is required"))
		return
	}

	var files []fileintake.Upload
	for _, slot := range []models.DocType{models.DocTypeVoidedCheck, models.DocTypeIDDoc} {
		if fh, err := c.FormFile(string(slot)); err == nil {
			files = append(files, fileintake.FromFileHeader(slot, fh))
		}
	}

	att, err := s.deps.Pipeline.AttachDocuments(c.Request.Context(), sid, files)
	if err != nil {
		s.responder.Text(c, standardError(err, "application", strconv.FormatInt(sid, 10)))
		return
	}
	for _, f := range att.Saved.Saved {
		metrics.UploadsTotal.WithLabelValues(string(f.DocType), metrics.OutcomeAccepted).Inc()
	}

	c.HTML(http.StatusOK, "thank_you.html", web.ThankYouPage{
		SID:      sid,
		Business: att.Application.BusinessLegalName,
		Uploaded: att.Saved.SavedTypes(),
	})
}

func (s *Server) uploaded(c *gin.Context) {
	requested := c.Param("path")
	full, err := s.deps.Files.Resolve(requested)
	if err != nil {
		s.responder.Text(c, apperrors.NewResourceNotFoundError("file", requested))
		return
	}
	if info, err := os.Stat(full); err != nil || info.IsDir() {
		s.responder.Text(c, apperrors.NewResourceNotFoundError("file", requested))
		return
	}
	c.Header("Content-Disposition", `inline; filename="`+filepath.Base(full)+`"`)
	c.File(full)
}

func uploads(form *multipart.Form, field string, docType models.DocType) []fileintake.Upload {
	if form == nil {
		return nil
	}
	var out []fileintake.Upload
	for _, fh := range form.File[field] {
		out = append(out, fileintake.FromFileHeader(docType, fh))
	}
	return out
}

func badge(ref *repattribution.Referral) *web.Badge {
	if ref == nil {
		return nil
	}
	return &web.Badge{Code: ref.Code, Signature: ref.Signature, Name: ref.Rep.Name}
}

// repBadge re-issues hidden fields only for a rep that already passed
// signature verification.
func (s *Server) repBadge(rep *models.Rep) *web.Badge {
	if rep == nil {
		return nil
	}
	return badge(s.deps.Reps.Referral(rep.Code))
}
