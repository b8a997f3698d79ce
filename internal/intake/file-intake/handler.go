// internal/intake/file-intake/handler.go
package fileintake

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"loan-intake/internal/common/logger"
	storeapplication "loan-intake/internal/intake/store-application"
	"loan-intake/internal/models"
)

const (
	Stage = "file-intake"
)

// maxNameAttempts bounds the " (n)" suffixes tried for a colliding name.
const maxNameAttempts = 100

var (
	ErrFileSaveFailed = errors.New("FILE_SAVE_FAILED")
	ErrInvalidPath    = errors.New("INVALID_PATH")
	ErrInvalidDocType = errors.New("INVALID_DOC_TYPE")
)

type Handler struct {
	uploadDir string
	store     storeapplication.Store
	logger    logger.Logger
}

func NewHandler(uploadDir string, store storeapplication.Store, log logger.Logger) *Handler {
	return &Handler{
		uploadDir: uploadDir,
		store:     store,
		logger:    log.WithFields(map[string]interface{}{"stage": Stage}),
	}
}

// Execute stores every named upload. Failures are logged and reported in
// Output.Failed; they never abort the remaining files.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	out := &Output{}
	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return out, fmt.Errorf("%w: create upload dir: %v", ErrFileSaveFailed, err)
	}

	for _, up := range input.Uploads {
		if up.Filename == "" {
			continue
		}
		file, err := h.save(ctx, input.ApplicationID, up)
		if err != nil {
			h.logger.Error("file save failed", map[string]interface{}{
				"applicationId": input.ApplicationID,
				"docType":       up.DocType,
				"filename":      up.Filename,
				"error":         err,
			})
			out.Failed = append(out.Failed, up.Filename)
			continue
		}
		out.Saved = append(out.Saved, *file)
	}

	h.logger.Info("uploads processed", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"saved":         len(out.Saved),
		"failed":        len(out.Failed),
	})
	return out, nil
}

func (h *Handler) save(ctx context.Context, applicationID int64, up Upload) (*models.ApplicationFile, error) {
	if !up.DocType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDocType, up.DocType)
	}

	src, err := up.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open upload: %v", ErrFileSaveFailed, err)
	}
	defer src.Close()

	dst, safe, dest, err := h.create(applicationID, up.DocType, SanitizeFilename(up.Filename))
	if err != nil {
		return nil, err
	}
	size, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dest)
		return nil, fmt.Errorf("%w: write %s: %v", ErrFileSaveFailed, dest, err)
	}

	file := &models.ApplicationFile{
		ApplicationID: applicationID,
		Filename:      safe,
		StoragePath:   dest,
		SizeBytes:     size,
		DocType:       up.DocType,
	}
	if err := h.store.InsertFile(ctx, file); err != nil {
		// The bytes are on disk; only the metadata row is missing.
		h.logger.Warn("file metadata insert failed", map[string]interface{}{
			"applicationId": applicationID,
			"storagePath":   dest,
			"error":         err,
		})
	}
	return file, nil
}

// create opens a new file for the upload without touching an existing one.
// A taken name gets a " (2)", " (3)", ... suffix before its extension.
func (h *Handler) create(applicationID int64, docType models.DocType, safe string) (*os.File, string, string, error) {
	ext := filepath.Ext(safe)
	stem := strings.TrimSuffix(safe, ext)
	name := safe
	for n := 2; ; n++ {
		dest := filepath.Join(h.uploadDir, StorageKey(applicationID, docType, name))
		f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, name, dest, nil
		}
		if !errors.Is(err, fs.ErrExist) || n > maxNameAttempts {
			return nil, "", "", fmt.Errorf("%w: create %s: %v", ErrFileSaveFailed, dest, err)
		}
		name = fmt.Sprintf("%s (%d)%s", stem, n, ext)
	}
}

// Resolve maps a request path under /uploads to a file inside the upload
// directory. Anything escaping the directory is rejected.
func (h *Handler) Resolve(requestPath string) (string, error) {
	rel := strings.TrimPrefix(requestPath, "/")
	if rel == "" || strings.Contains(rel, "\\") {
		return "", ErrInvalidPath
	}
	clean := filepath.Clean(filepath.FromSlash(rel))
	if clean == "." || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", ErrInvalidPath
	}
	return filepath.Join(h.uploadDir, clean), nil
}

// SanitizeFilename replaces path separators so the name stays a single
// path element.
func SanitizeFilename(name string) string {
	return strings.NewReplacer("/", "_", "\\", "_").Replace(name)
}

func StorageKey(applicationID int64, docType models.DocType, safeName string) string {
	return strconv.FormatInt(applicationID, 10) + "__" + string(docType) + "__" + safeName
}

// PublicURL is the /uploads link for a stored file.
func PublicURL(storagePath string) string {
	return "/uploads/" + url.PathEscape(filepath.Base(storagePath))
}
