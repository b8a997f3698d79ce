// internal/intake/store-application/supabase.go
package storeapplication

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"loan-intake/internal/common/supabase"
	"loan-intake/internal/models"

	"github.com/shopspring/decimal"
)

const applicationColumns = "id, created_at, business_legal_name, industry, loan_amount, owners, payload, ein, business_phone, company_website, rep_name, rep_email"
const fileColumns = "id, application_id, filename, storage_path, size_bytes, doc_type"

// SupabaseStore persists through the PostgREST API of a Supabase project.
type SupabaseStore struct {
	client       *supabase.Client
	applications string
	files        string
}

func NewSupabaseStore(client *supabase.Client, applicationsTable, filesTable string) *SupabaseStore {
	return &SupabaseStore{client: client, applications: applicationsTable, files: filesTable}
}

type applicationInsert struct {
	BusinessLegalName string            `json:"business_legal_name"`
	Industry          string            `json:"industry"`
	LoanAmount        decimal.Decimal   `json:"loan_amount"`
	Owners            []string          `json:"owners"`
	Payload           map[string]string `json:"payload"`
	EIN               *string           `json:"ein"`
	BusinessPhone     *string           `json:"business_phone"`
	CompanyWebsite    *string           `json:"company_website"`
	RepName           *string           `json:"rep_name"`
	RepEmail          *string           `json:"rep_email"`
}

type fileInsert struct {
	ApplicationID int64          `json:"application_id"`
	Filename      string         `json:"filename"`
	StoragePath   string         `json:"storage_path"`
	SizeBytes     int64          `json:"size_bytes"`
	DocType       models.DocType `json:"doc_type"`
}

func (s *SupabaseStore) InsertApplication(ctx context.Context, app *models.Application) (int64, error) {
	resp, err := s.client.From(s.applications).ExecuteInsert(ctx, applicationInsert{
		BusinessLegalName: app.BusinessLegalName,
		Industry:          app.Industry,
		LoanAmount:        app.LoanAmount,
		Owners:            nonNil(app.Owners),
		Payload:           app.Payload,
		EIN:               app.EIN,
		BusinessPhone:     app.BusinessPhone,
		CompanyWebsite:    app.CompanyWebsite,
		RepName:           app.RepName,
		RepEmail:          app.RepEmail,
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDatabaseInsertFailed, err)
	}
	if err := resp.Error(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDatabaseInsertFailed, err)
	}

	var rows []struct {
		ID        int64     `json:"id"`
		CreatedAt time.Time `json:"created_at"`
	}
	if err := resp.JSON(&rows); err != nil {
		return 0, fmt.Errorf("%w: decode response: %v", ErrDatabaseInsertFailed, err)
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("%w: no row returned", ErrDatabaseInsertFailed)
	}

	app.ID = rows[0].ID
	app.CreatedAt = rows[0].CreatedAt
	return app.ID, nil
}

func (s *SupabaseStore) InsertFile(ctx context.Context, file *models.ApplicationFile) error {
	resp, err := s.client.From(s.files).ExecuteInsert(ctx, fileInsert{
		ApplicationID: file.ApplicationID,
		Filename:      file.Filename,
		StoragePath:   file.StoragePath,
		SizeBytes:     file.SizeBytes,
		DocType:       file.DocType,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseInsertFailed, err)
	}
	if err := resp.Error(); err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseInsertFailed, err)
	}

	var rows []struct {
		ID int64 `json:"id"`
	}
	if err := resp.JSON(&rows); err == nil && len(rows) > 0 {
		file.ID = rows[0].ID
	}
	return nil
}

func (s *SupabaseStore) GetApplication(ctx context.Context, id int64) (*models.Application, error) {
	resp, err := s.client.From(s.applications).
		Select(applicationColumns).
		Eq("id", id).
		Single().
		Execute(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	// PostgREST answers 406 when a single-object request matched no row.
	if resp.StatusCode == http.StatusNotAcceptable {
		return nil, fmt.Errorf("%w: id %d", ErrApplicationNotFound, id)
	}
	if err := resp.Error(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}

	var app models.Application
	if err := resp.JSON(&app); err != nil {
		return nil, fmt.Errorf("%w: decode application: %v", ErrQueryFailed, err)
	}
	return &app, nil
}

func (s *SupabaseStore) ListApplications(ctx context.Context, filter ListFilter) ([]models.Application, error) {
	q := s.client.From(s.applications).
		Select(applicationColumns).
		Order("id", false).
		Limit(filter.Limit).
		Offset(filter.Offset)
	switch {
	case filter.DirectOnly:
		q = q.Is("rep_email", "null")
	case filter.RepEmail != nil:
		q = q.Eq("rep_email", *filter.RepEmail)
	}

	resp, err := q.Execute(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	if err := resp.Error(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}

	apps := []models.Application{}
	if err := resp.JSON(&apps); err != nil {
		return nil, fmt.Errorf("%w: decode applications: %v", ErrQueryFailed, err)
	}
	return apps, nil
}

func (s *SupabaseStore) ListFiles(ctx context.Context, applicationID int64) ([]models.ApplicationFile, error) {
	resp, err := s.client.From(s.files).
		Select(fileColumns).
		Eq("application_id", applicationID).
		Order("id", true).
		Execute(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	if err := resp.Error(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}

	files := []models.ApplicationFile{}
	if err := resp.JSON(&files); err != nil {
		return nil, fmt.Errorf("%w: decode files: %v", ErrQueryFailed, err)
	}
	return files, nil
}

func (s *SupabaseStore) Ping(ctx context.Context) error {
	resp, err := s.client.From(s.applications).Select("id").Limit(1).Execute(ctx)
	if err != nil {
		return err
	}
	return resp.Error()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
