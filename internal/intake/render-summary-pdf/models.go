// internal/intake/render-summary-pdf/models.go
package rendersummarypdf

import (
	"time"

	"loan-intake/internal/models"
)

type Input struct {
	ApplicationID int64
	SubmittedAt   time.Time
	Form          models.ApplicantForm
	Rep           *models.Rep
}

type Output struct {
	Filename string
	PDF      []byte
}

type Config struct {
	Compress bool
	PageSize string
}

func DefaultConfig() *Config {
	return &Config{Compress: true, PageSize: "Letter"}
}
