// internal/intake/store-application/store.go
package storeapplication

import (
	"context"
	"errors"
	"strconv"

	"loan-intake/internal/models"
)

var (
	ErrDatabaseInsertFailed = errors.New("DATABASE_INSERT_FAILED")
	ErrApplicationNotFound  = errors.New("APPLICATION_NOT_FOUND")
	ErrQueryFailed          = errors.New("QUERY_EXECUTION_FAILED")
)

const (
	DefaultLimit = 100
	MaxLimit     = 500
)

// Store is the persistence gateway for applications and their files.
type Store interface {
	InsertApplication(ctx context.Context, app *models.Application) (int64, error)
	InsertFile(ctx context.Context, file *models.ApplicationFile) error
	GetApplication(ctx context.Context, id int64) (*models.Application, error)
	ListApplications(ctx context.Context, filter ListFilter) ([]models.Application, error)
	ListFiles(ctx context.Context, applicationID int64) ([]models.ApplicationFile, error)
	Ping(ctx context.Context) error
}

// ListFilter pages newest-first. RepEmail and DirectOnly are exclusive;
// DirectOnly selects applications with no rep.
type ListFilter struct {
	Limit      int
	Offset     int
	RepEmail   *string
	DirectOnly bool
}

// ParsePage reads limit/offset query values. Any unparsable or out-of-range
// value resets both to the defaults; limit is capped at MaxLimit.
func ParsePage(limitStr, offsetStr string) (limit, offset int) {
	limit, offset = DefaultLimit, 0
	l, lerr := parseOr(limitStr, DefaultLimit)
	o, oerr := parseOr(offsetStr, 0)
	if lerr != nil || oerr != nil || l < 1 || o < 0 {
		return DefaultLimit, 0
	}
	if l > MaxLimit {
		l = MaxLimit
	}
	return l, o
}

func parseOr(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}
