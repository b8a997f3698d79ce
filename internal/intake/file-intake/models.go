// internal/intake/file-intake/models.go
package fileintake

import (
	"io"
	"mime/multipart"

	"loan-intake/internal/models"
)

// Upload is one file as received from a form slot.
type Upload struct {
	DocType  models.DocType
	Filename string
	Open     func() (io.ReadCloser, error)
}

// FromFileHeader adapts a multipart part to an Upload.
func FromFileHeader(docType models.DocType, fh *multipart.FileHeader) Upload {
	return Upload{
		DocType:  docType,
		Filename: fh.Filename,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

type Input struct {
	ApplicationID int64
	Uploads       []Upload
}

type Output struct {
	Saved  []models.ApplicationFile
	Failed []string
}

// SavedTypes lists the doc types that were stored, in upload order.
func (o *Output) SavedTypes() []string {
	out := make([]string, 0, len(o.Saved))
	for _, f := range o.Saved {
		out = append(out, string(f.DocType))
	}
	return out
}
