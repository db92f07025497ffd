package license

import (
	"github.com/kbukum/licensing/validation"
)

// CreateRequest is the body of a create call.
type CreateRequest struct {
	Description string `json:"description" validate:"max=255"`
	ProductName string `json:"productName" validate:"required,max=255"`
	LicenseType string `json:"licenseType" validate:"required,max=100"`
}

// Validate checks the struct tags.
func (r CreateRequest) Validate() error {
	return validation.Validate(r)
}

// UpdateRequest is the body of an update call.
type UpdateRequest struct {
	LicenseID   string `json:"licenseId" validate:"required,max=36"`
	Description string `json:"description" validate:"max=255"`
	ProductName string `json:"productName" validate:"required,max=255"`
	LicenseType string `json:"licenseType" validate:"required,max=100"`
}

// Validate checks the struct tags.
func (r UpdateRequest) Validate() error {
	return validation.Validate(r)
}
