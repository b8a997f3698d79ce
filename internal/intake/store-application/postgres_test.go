// internal/intake/store-application/postgres_test.go
package storeapplication

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"loan-intake/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var appColumns = []string{
	"id", "created_at", "business_legal_name", "industry", "loan_amount",
	"owners", "payload", "ein", "business_phone", "company_website", "rep_name", "rep_email",
}

func strPtr(s string) *string { return &s }

func createTestApplication() *models.Application {
	return &models.Application{
		BusinessLegalName: "Acme Bakery LLC",
		Industry:          "Food Service",
		LoanAmount:        decimal.NewFromInt(25000),
		Owners:            []string{"Jane Doe"},
		Payload:           map[string]string{"business_legal_name": "Acme Bakery LLC"},
		EIN:               strPtr("12-3456789"),
		RepName:           strPtr("Ana Reyes"),
		RepEmail:          strPtr("ana@example.com"),
	}
}

func TestPostgresStore_InsertApplication(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`INSERT INTO "applications"`).
		WithArgs(
			"Acme Bakery LLC",
			"Food Service",
			"25000",
			[]byte(`["Jane Doe"]`),
			[]byte(`{"business_legal_name":"Acme Bakery LLC"}`),
			"12-3456789",
			nil,
			nil,
			"Ana Reyes",
			"ana@example.com",
		).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(42, created))

	store := NewPostgresStore(db, "applications", "application_files")
	app := createTestApplication()

	id, err := store.InsertApplication(context.Background(), app)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, int64(42), app.ID)
	assert.Equal(t, created, app.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_InsertApplication_Error(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO "applications"`).WillReturnError(errors.New("connection reset"))

	store := NewPostgresStore(db, "applications", "application_files")
	_, err = store.InsertApplication(context.Background(), createTestApplication())

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDatabaseInsertFailed))
	assert.Contains(t, err.Error(), "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_InsertFile(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO "application_files"`).
		WithArgs(int64(42), "a_b.png", "uploads/42__bank_statement__a_b.png", int64(10), "bank_statement").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	store := NewPostgresStore(db, "applications", "application_files")
	file := &models.ApplicationFile{
		ApplicationID: 42,
		Filename:      "a_b.png",
		StoragePath:   "uploads/42__bank_statement__a_b.png",
		SizeBytes:     10,
		DocType:       models.DocTypeBankStatement,
	}

	require.NoError(t, store.InsertFile(context.Background(), file))
	assert.Equal(t, int64(7), file.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetApplication(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT id, created_at`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(appColumns).AddRow(
			42, created, "Acme Bakery LLC", "Food Service", "25000.50",
			[]byte(`["Jane Doe"]`), []byte(`{"industry":"Food Service"}`),
			"12-3456789", nil, nil, nil, nil,
		))

	store := NewPostgresStore(db, "applications", "application_files")
	app, err := store.GetApplication(context.Background(), 42)

	require.NoError(t, err)
	assert.Equal(t, int64(42), app.ID)
	assert.Equal(t, "25000.5", app.LoanAmount.String())
	assert.Equal(t, []string{"Jane Doe"}, app.Owners)
	assert.Equal(t, "Food Service", app.Payload["industry"])
	require.NotNil(t, app.EIN)
	assert.Nil(t, app.BusinessPhone)
	assert.Nil(t, app.RepEmail)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetApplication_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, created_at`).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows(appColumns))

	store := NewPostgresStore(db, "applications", "application_files")
	_, err = store.GetApplication(context.Background(), 9)

	assert.True(t, errors.Is(err, ErrApplicationNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListApplications(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		filter    ListFilter
		wantQuery string
		wantArgs  []driver.Value
	}{
		{
			name:      "all",
			filter:    ListFilter{Limit: 100},
			wantQuery: `FROM "applications" ORDER BY id DESC LIMIT \$1 OFFSET \$2`,
			wantArgs:  []driver.Value{100, 0},
		},
		{
			name:      "by rep",
			filter:    ListFilter{Limit: 10, Offset: 20, RepEmail: strPtr("ana@example.com")},
			wantQuery: `WHERE rep_email = \$1 ORDER BY id DESC LIMIT \$2 OFFSET \$3`,
			wantArgs:  []driver.Value{"ana@example.com", 10, 20},
		},
		{
			name:      "direct only",
			filter:    ListFilter{Limit: 5, DirectOnly: true},
			wantQuery: `WHERE rep_email IS NULL ORDER BY id DESC LIMIT \$1 OFFSET \$2`,
			wantArgs:  []driver.Value{5, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			mock.ExpectQuery(tt.wantQuery).
				WithArgs(tt.wantArgs...).
				WillReturnRows(sqlmock.NewRows(appColumns).
					AddRow(2, created, "Beta", "Retail", "10", []byte(`[]`), []byte(`{}`), nil, nil, nil, nil, nil).
					AddRow(1, created, "Alpha", "Retail", "0", []byte(`["A B"]`), []byte(`{}`), nil, nil, nil, "Ana Reyes", "ana@example.com"))

			store := NewPostgresStore(db, "applications", "application_files")
			apps, err := store.ListApplications(context.Background(), tt.filter)

			require.NoError(t, err)
			require.Len(t, apps, 2)
			assert.Equal(t, int64(2), apps[0].ID)
			assert.Equal(t, "ana@example.com", *apps[1].RepEmail)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresStore_ListFiles(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM "application_files" WHERE application_id = \$1`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "application_id", "filename", "storage_path", "size_bytes", "doc_type"}).
			AddRow(1, 42, "jan.pdf", "uploads/42__bank_statement__jan.pdf", 1024, "bank_statement").
			AddRow(2, 42, "check.png", "uploads/42__voided_check__check.png", 2048, "voided_check"))

	store := NewPostgresStore(db, "applications", "application_files")
	files, err := store.ListFiles(context.Background(), 42)

	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, models.DocTypeVoidedCheck, files[1].DocType)
	assert.Equal(t, int64(2048), files[1].SizeBytes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_EnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "applications"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "application_files"`).WillReturnResult(sqlmock.NewResult(0, 0))

	store := NewPostgresStore(db, "applications", "application_files")
	require.NoError(t, store.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Ping(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing().WillReturnError(errors.New("down"))

	store := NewPostgresStore(db, "applications", "application_files")
	assert.Error(t, store.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
