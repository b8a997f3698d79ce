// pkg/registry/schema.go
package registry

// RepFile is the on-disk layout of the rep directory.
type RepFile struct {
	Version string      `yaml:"version"`
	Reps    []RepRecord `yaml:"reps"`
}

type RepRecord struct {
	Code  string `yaml:"code"`
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

const repFileSchema = `{
  "type": "object",
  "required": ["reps"],
  "properties": {
    "version": {"type": ["string", "number"]},
    "reps": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["code", "name", "email"],
        "additionalProperties": false,
        "properties": {
          "code":  {"type": "string", "pattern": "^\\s*[A-Za-z0-9][A-Za-z0-9_-]*\\s*$"},
          "name":  {"type": "string", "minLength": 1},
          "email": {"type": "string", "format": "email"}
        }
      }
    }
  }
}`
