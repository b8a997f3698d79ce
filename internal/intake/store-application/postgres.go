// internal/intake/store-application/postgres.go
package storeapplication

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"loan-intake/internal/models"

	"github.com/lib/pq"
)

// PostgresStore writes the same two tables directly over database/sql.
type PostgresStore struct {
	db           *sql.DB
	applications string
	files        string
}

func NewPostgresStore(db *sql.DB, applicationsTable, filesTable string) *PostgresStore {
	return &PostgresStore{
		db:           db,
		applications: pq.QuoteIdentifier(applicationsTable),
		files:        pq.QuoteIdentifier(filesTable),
	}
}

// EnsureSchema creates both tables when they do not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			business_legal_name TEXT NOT NULL,
			industry TEXT NOT NULL,
			loan_amount NUMERIC(14,2) NOT NULL DEFAULT 0,
			owners JSONB NOT NULL DEFAULT '[]',
			payload JSONB NOT NULL DEFAULT '{}',
			ein TEXT,
			business_phone TEXT,
			company_website TEXT,
			rep_name TEXT,
			rep_email TEXT
		)`, s.applications),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			application_id BIGINT NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
			filename TEXT NOT NULL,
			storage_path TEXT NOT NULL,
			size_bytes BIGINT NOT NULL,
			doc_type TEXT NOT NULL
		)`, s.files, s.applications),
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) InsertApplication(ctx context.Context, app *models.Application) (int64, error) {
	ownersJSON, err := json.Marshal(nonNil(app.Owners))
	if err != nil {
		return 0, fmt.Errorf("%w: marshal owners: %v", ErrDatabaseInsertFailed, err)
	}
	payloadJSON, err := json.Marshal(app.Payload)
	if err != nil {
		return 0, fmt.Errorf("%w: marshal payload: %v", ErrDatabaseInsertFailed, err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (
			business_legal_name, industry, loan_amount, owners, payload,
			ein, business_phone, company_website, rep_name, rep_email
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`, s.applications)

	err = s.db.QueryRowContext(ctx, query,
		app.BusinessLegalName,
		app.Industry,
		app.LoanAmount,
		ownersJSON,
		payloadJSON,
		app.EIN,
		app.BusinessPhone,
		app.CompanyWebsite,
		app.RepName,
		app.RepEmail,
	).Scan(&app.ID, &app.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("%w: insert failed: %v", ErrDatabaseInsertFailed, err)
	}
	return app.ID, nil
}

func (s *PostgresStore) InsertFile(ctx context.Context, file *models.ApplicationFile) error {
	query := fmt.Sprintf(`INSERT INTO %s (application_id, filename, storage_path, size_bytes, doc_type)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`, s.files)

	err := s.db.QueryRowContext(ctx, query,
		file.ApplicationID,
		file.Filename,
		file.StoragePath,
		file.SizeBytes,
		string(file.DocType),
	).Scan(&file.ID)
	if err != nil {
		return fmt.Errorf("%w: insert file failed: %v", ErrDatabaseInsertFailed, err)
	}
	return nil
}

const selectApplication = `SELECT id, created_at, business_legal_name, industry, loan_amount,
	owners, payload, ein, business_phone, company_website, rep_name, rep_email FROM `

func (s *PostgresStore) GetApplication(ctx context.Context, id int64) (*models.Application, error) {
	row := s.db.QueryRowContext(ctx, selectApplication+s.applications+` WHERE id = $1`, id)
	app, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrApplicationNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	return app, nil
}

func (s *PostgresStore) ListApplications(ctx context.Context, filter ListFilter) ([]models.Application, error) {
	var (
		where []string
		args  []interface{}
	)
	switch {
	case filter.DirectOnly:
		where = append(where, "rep_email IS NULL")
	case filter.RepEmail != nil:
		args = append(args, *filter.RepEmail)
		where = append(where, fmt.Sprintf("rep_email = $%d", len(args)))
	}

	query := selectApplication + s.applications
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	defer rows.Close()

	apps := []models.Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
		}
		apps = append(apps, *app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	return apps, nil
}

func (s *PostgresStore) ListFiles(ctx context.Context, applicationID int64) ([]models.ApplicationFile, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT id, application_id, filename, storage_path, size_bytes, doc_type
		FROM %s WHERE application_id = $1 ORDER BY id`, s.files), applicationID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	defer rows.Close()

	files := []models.ApplicationFile{}
	for rows.Next() {
		var f models.ApplicationFile
		var docType string
		if err := rows.Scan(&f.ID, &f.ApplicationID, &f.Filename, &f.StoragePath, &f.SizeBytes, &docType); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
		}
		f.DocType = models.DocType(docType)
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	return files, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanApplication(row scanner) (*models.Application, error) {
	var (
		app                                    models.Application
		ownersJSON, payloadJSON                []byte
		ein, phone, website, repName, repEmail sql.NullString
	)
	err := row.Scan(
		&app.ID, &app.CreatedAt, &app.BusinessLegalName, &app.Industry, &app.LoanAmount,
		&ownersJSON, &payloadJSON, &ein, &phone, &website, &repName, &repEmail,
	)
	if err != nil {
		return nil, err
	}
	if len(ownersJSON) > 0 {
		if err := json.Unmarshal(ownersJSON, &app.Owners); err != nil {
			return nil, fmt.Errorf("decode owners: %w", err)
		}
	}
	if len(payloadJSON) > 0 {
		if err := json.Unmarshal(payloadJSON, &app.Payload); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
	}
	app.EIN = nullable(ein)
	app.BusinessPhone = nullable(phone)
	app.CompanyWebsite = nullable(website)
	app.RepName = nullable(repName)
	app.RepEmail = nullable(repEmail)
	return &app, nil
}

func nullable(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
