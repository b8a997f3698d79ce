// internal/intake/store-application/handler.go
package storeapplication

import (
	"context"
	"fmt"

	"loan-intake/internal/common/logger"
	"loan-intake/internal/models"
)

const (
	Stage = "store-application"
)

type Input struct {
	Application *models.Application
}

type Output struct {
	ApplicationID int64
}

type Handler struct {
	store  Store
	logger logger.Logger
}

func NewHandler(store Store, log logger.Logger) *Handler {
	return &Handler{
		store:  store,
		logger: log.WithFields(map[string]interface{}{"stage": Stage}),
	}
}

// Execute inserts the assembled record. A missing row is an insert failure.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	id, err := h.store.InsertApplication(ctx, input.Application)
	if err != nil {
		h.logger.Error("application insert failed", map[string]interface{}{
			"error":    err,
			"business": input.Application.BusinessLegalName,
		})
		return nil, err
	}
	if id == 0 {
		return nil, fmt.Errorf("%w: store returned no id", ErrDatabaseInsertFailed)
	}

	h.logger.Info("application record created", map[string]interface{}{
		"applicationId": id,
		"ownerCount":    len(input.Application.Owners),
	})
	return &Output{ApplicationID: id}, nil
}
