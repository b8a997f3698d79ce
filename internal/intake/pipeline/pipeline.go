// Package pipeline runs the intake stages for one submission: attribution,
// validation, assembly, persistence, file intake, then the optional PDF and
// notification stages whose failures never reach the caller.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"loan-intake/internal/common/logger"
	"loan-intake/internal/common/observability"
	assemblesubmission "loan-intake/internal/intake/assemble-submission"
	fileintake "loan-intake/internal/intake/file-intake"
	rendersummarypdf "loan-intake/internal/intake/render-summary-pdf"
	repattribution "loan-intake/internal/intake/rep-attribution"
	sendnotification "loan-intake/internal/intake/send-notification"
	storeapplication "loan-intake/internal/intake/store-application"
	validateapplicationdata "loan-intake/internal/intake/validate-application-data"
	"loan-intake/internal/models"
)

// Stages holds the stage handlers. Renderer and Notifier are optional.
type Stages struct {
	Attribution *repattribution.Handler
	Validator   *validateapplicationdata.Handler
	Assembler   *assemblesubmission.Handler
	Storer      *storeapplication.Handler
	Files       *fileintake.Handler
	Renderer    *rendersummarypdf.Handler
	Notifier    *sendnotification.Handler
}

type Pipeline struct {
	stages Stages
	store  storeapplication.Store
	obs    *observability.Observability
	logger logger.Logger
}

func New(stages Stages, store storeapplication.Store, obs *observability.Observability, log logger.Logger) *Pipeline {
	return &Pipeline{
		stages: stages,
		store:  store,
		obs:    obs,
		logger: log.WithFields(map[string]interface{}{"component": "pipeline"}),
	}
}

// Submission is one POST /submit.
type Submission struct {
	Fields       models.Fields
	RepCode      string
	RepSignature string
	BankFiles    []fileintake.Upload
}

// Result is filled as far as the pipeline got. On a validation failure only
// Fields, Errors and Rep are set.
type Result struct {
	ApplicationID int64
	Fields        models.Fields
	Errors        map[string]string
	Rep           *models.Rep
	Files         []models.ApplicationFile
	FailedFiles   []string
	PDFRendered   bool
	Notification  *sendnotification.Output
}

// Submit validates and persists a submission. It returns an error wrapping
// validateapplicationdata.ErrApplicationValidationFailed when fields are
// rejected, and a store error when the record could not be written.
func (p *Pipeline) Submit(ctx context.Context, sub *Submission) (*Result, error) {
	fields := assemblesubmission.Normalize(sub.Fields)
	res := &Result{Fields: fields}

	attribution, _ := p.stages.Attribution.Execute(ctx, &repattribution.Input{
		Code:      sub.RepCode,
		Signature: sub.RepSignature,
	})
	res.Rep = attribution.Rep

	done := p.obs.Track(ctx, validateapplicationdata.Stage)
	validation, err := p.stages.Validator.Execute(ctx, &validateapplicationdata.Input{
		Fields:    fields,
		BankFiles: countNamed(sub.BankFiles),
	})
	done(err)
	if err != nil {
		res.Errors = validation.Errors
		return res, err
	}

	assembled, err := p.stages.Assembler.Execute(ctx, &assemblesubmission.Input{Fields: fields, Rep: res.Rep})
	if err != nil {
		return res, err
	}
	app := assembled.Application

	done = p.obs.Track(ctx, storeapplication.Stage)
	stored, err := p.stages.Storer.Execute(ctx, &storeapplication.Input{Application: app})
	done(err)
	if err != nil {
		return res, err
	}
	res.ApplicationID = stored.ApplicationID
	app.ID = stored.ApplicationID

	done = p.obs.Track(ctx, fileintake.Stage)
	files, err := p.stages.Files.Execute(ctx, &fileintake.Input{
		ApplicationID: stored.ApplicationID,
		Uploads:       sub.BankFiles,
	})
	done(err)
	if err != nil {
		// The application row exists; a stored application with no files
		// is a valid end state.
		p.logger.Error("bank statements not saved", map[string]interface{}{
			"applicationId": stored.ApplicationID,
			"error":         err,
		})
	}
	if files != nil {
		res.Files = files.Saved
		res.FailedFiles = files.Failed
	}

	attachment := p.render(ctx, app, assembled.Form, res.Rep)
	res.PDFRendered = attachment != nil
	res.Notification = p.notify(ctx, app, res.Rep, attachment, res.Files)

	p.logger.Info("submission accepted", map[string]interface{}{
		"applicationId": res.ApplicationID,
		"files":         len(res.Files),
		"attributed":    res.Rep != nil,
	})
	return res, nil
}

func (p *Pipeline) render(ctx context.Context, app *models.Application, form models.ApplicantForm, rep *models.Rep) *sendnotification.Attachment {
	if p.stages.Renderer == nil {
		p.obs.RecordStage(ctx, rendersummarypdf.Stage, 0, observability.StatusSkipped)
		return nil
	}
	done := p.obs.Track(ctx, rendersummarypdf.Stage)
	out, err := p.stages.Renderer.Execute(ctx, &rendersummarypdf.Input{
		ApplicationID: app.ID,
		SubmittedAt:   app.CreatedAt,
		Form:          form,
		Rep:           rep,
	})
	done(err)
	if err != nil {
		p.logger.Error("summary PDF not rendered", map[string]interface{}{
			"applicationId": app.ID,
			"error":         err,
		})
		return nil
	}
	return &sendnotification.Attachment{Filename: out.Filename, Content: out.PDF}
}

func (p *Pipeline) notify(ctx context.Context, app *models.Application, rep *models.Rep, pdf *sendnotification.Attachment, files []models.ApplicationFile) *sendnotification.Output {
	if p.stages.Notifier == nil {
		p.obs.RecordStage(ctx, sendnotification.Stage, 0, observability.StatusSkipped)
		return nil
	}
	done := p.obs.Track(ctx, sendnotification.Stage)
	out, err := p.stages.Notifier.Execute(ctx, &sendnotification.Input{
		Application: app,
		Rep:         rep,
		PDF:         pdf,
		Files:       files,
	})
	if err == nil && out.Status == sendnotification.StatusFailed {
		err = sendnotification.ErrNotificationSendFailed
	}
	done(err)
	if err != nil {
		p.logger.Error("staff notification failed", map[string]interface{}{
			"applicationId": app.ID,
			"error":         err,
		})
	}
	return out
}

// ErrApplicationNotFound is returned by AttachDocuments for an unknown sid.
var ErrApplicationNotFound = storeapplication.ErrApplicationNotFound

// Attachment is the result of a post-submission upload.
type Attachment struct {
	Application *models.Application
	Saved       *fileintake.Output
}

// AttachDocuments stores follow-up documents for an existing application.
func (p *Pipeline) AttachDocuments(ctx context.Context, applicationID int64, uploads []fileintake.Upload) (*Attachment, error) {
	app, err := p.store.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	done := p.obs.Track(ctx, fileintake.Stage)
	out, err := p.stages.Files.Execute(ctx, &fileintake.Input{
		ApplicationID: applicationID,
		Uploads:       uploads,
	})
	done(err)
	if err != nil {
		return nil, fmt.Errorf("attach documents: %w", err)
	}
	return &Attachment{Application: app, Saved: out}, nil
}

// IsValidationError reports whether err came from rejected fields.
func IsValidationError(err error) bool {
	return errors.Is(err, validateapplicationdata.ErrApplicationValidationFailed)
}

func countNamed(uploads []fileintake.Upload) int {
	n := 0
	for _, u := range uploads {
		if u.Filename != "" {
			n++
		}
	}
	return n
}
