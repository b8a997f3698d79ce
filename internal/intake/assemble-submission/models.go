// internal/intake/assemble-submission/models.go
package assemblesubmission

import "loan-intake/internal/models"

type Input struct {
	Fields models.Fields
	Rep    *models.Rep
}

type Output struct {
	Application *models.Application
	Form        models.ApplicantForm
}
