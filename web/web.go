// Package web embeds the applicant-facing templates and the static admin
// pages.
package web

import (
	"embed"
	"html/template"
	"io/fs"

	"loan-intake/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed public/*.html
var publicFS embed.FS

// Badge is the referral shown on the form. Code and Signature are posted
// back as hidden fields.
type Badge struct {
	Code      string
	Signature string
	Name      string
}

// FormPage is the data for form.html.
type FormPage struct {
	Fields models.Fields
	Errors map[string]string
	Rep    *Badge
}

// ThankYouPage is the data for thank_you.html.
type ThankYouPage struct {
	SID      int64
	Business string
	Uploaded []string
}

// Field is one rendered input.
type Field struct {
	Name    string
	Label   string
	Type    string
	Value   string
	Error   string
	Options []string
}

func field(p FormPage, typ, name, label string, options ...string) Field {
	return Field{
		Name:    name,
		Label:   label,
		Type:    typ,
		Value:   p.Fields[name],
		Error:   p.Errors[name],
		Options: options,
	}
}

// Templates parses the embedded page templates.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"text":   func(p FormPage, name, label string) Field { return field(p, "text", name, label) },
		"date":   func(p FormPage, name, label string) Field { return field(p, "date", name, label) },
		"email":  func(p FormPage, name, label string) Field { return field(p, "email", name, label) },
		"choice": func(p FormPage, name, label string, opts ...string) Field { return field(p, "select", name, label, opts...) },
	}).ParseFS(templateFS, "templates/*.html")
}

// Page returns a static admin page by file name.
func Page(name string) ([]byte, error) {
	return fs.ReadFile(publicFS, "public/"+name)
}
