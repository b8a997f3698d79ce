// pkg/registry/registry.go
package registry

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"loan-intake/internal/common/validation"
	"loan-intake/internal/models"

	"gopkg.in/yaml.v3"
)

// Directory is the immutable rep lookup built once at startup.
type Directory struct {
	reps map[string]models.Rep
}

// LoadRegistry reads and validates the rep directory file at path.
func LoadRegistry(path string) (*Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rep directory: %w", err)
	}
	return ParseRegistry(data)
}

// ParseRegistry validates raw YAML against the directory schema and indexes
// reps by normalized code. Duplicate codes are rejected.
func ParseRegistry(data []byte) (*Directory, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse rep directory: %w", err)
	}

	schema, err := validation.CompileSchema(repFileSchema)
	if err != nil {
		return nil, err
	}
	result, err := schema.Validate(doc)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return nil, fmt.Errorf("invalid rep directory: %s", strings.Join(result.GetErrorMessages(), "; "))
	}

	var file RepFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode rep directory: %w", err)
	}

	reps := make([]models.Rep, 0, len(file.Reps))
	for _, r := range file.Reps {
		reps = append(reps, models.Rep{Code: r.Code, Name: strings.TrimSpace(r.Name), Email: strings.TrimSpace(r.Email)})
	}
	return NewDirectory(reps)
}

// NewDirectory indexes reps by normalized code.
func NewDirectory(reps []models.Rep) (*Directory, error) {
	d := &Directory{reps: make(map[string]models.Rep, len(reps))}
	for _, r := range reps {
		code := NormalizeCode(r.Code)
		if code == "" {
			return nil, fmt.Errorf("rep %q has an empty code", r.Name)
		}
		if _, dup := d.reps[code]; dup {
			return nil, fmt.Errorf("duplicate rep code %q", code)
		}
		r.Code = code
		d.reps[code] = r
	}
	return d, nil
}

// NormalizeCode lowercases and trims a referral code.
func NormalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// Lookup resolves a code case-insensitively.
func (d *Directory) Lookup(code string) (models.Rep, bool) {
	if d == nil {
		return models.Rep{}, false
	}
	r, ok := d.reps[NormalizeCode(code)]
	return r, ok
}

// All returns every rep sorted by code.
func (d *Directory) All() []models.Rep {
	if d == nil {
		return nil
	}
	out := make([]models.Rep, 0, len(d.reps))
	for _, r := range d.reps {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func (d *Directory) Len() int {
	if d == nil {
		return 0
	}
	return len(d.reps)
}
