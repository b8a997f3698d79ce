// pkg/registry/file.go
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ReadRepFile loads the raw directory file for editing. A missing file
// yields an empty RepFile and an error satisfying os.IsNotExist.
func ReadRepFile(path string) (*RepFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return &RepFile{Version: "1"}, err
	}
	var file RepFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode rep directory: %w", err)
	}
	return &file, nil
}

// Add appends a rep. The code is normalized and must be new.
func (f *RepFile) Add(rec RepRecord) error {
	rec.Code = NormalizeCode(rec.Code)
	if rec.Code == "" {
		return fmt.Errorf("code is required")
	}
	if f.index(rec.Code) >= 0 {
		return fmt.Errorf("rep with code %s already exists", rec.Code)
	}
	f.Reps = append(f.Reps, rec)
	return nil
}

// Update sets name or email on an existing rep.
func (f *RepFile) Update(code, field, value string) error {
	i := f.index(NormalizeCode(code))
	if i < 0 {
		return fmt.Errorf("rep with code %s not found", code)
	}
	switch field {
	case "name":
		f.Reps[i].Name = strings.TrimSpace(value)
	case "email":
		f.Reps[i].Email = strings.TrimSpace(value)
	default:
		return fmt.Errorf("unknown field: %s", field)
	}
	return nil
}

// Remove drops a rep by code.
func (f *RepFile) Remove(code string) error {
	i := f.index(NormalizeCode(code))
	if i < 0 {
		return fmt.Errorf("rep with code %s not found", code)
	}
	f.Reps = append(f.Reps[:i], f.Reps[i+1:]...)
	return nil
}

func (f *RepFile) index(code string) int {
	for i, r := range f.Reps {
		if NormalizeCode(r.Code) == code {
			return i
		}
	}
	return -1
}

// SaveRepFile validates f the same way the server does at startup and
// writes it to path.
func SaveRepFile(path string, f *RepFile) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal rep directory: %w", err)
	}
	if _, err := ParseRegistry(data); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write rep directory: %w", err)
	}
	return nil
}
