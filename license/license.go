// Package license manages license records and enriches them with the owning
// organization fetched through a resilience-protected client.
package license

import (
	"embed"

	"github.com/kbukum/licensing/organization"
)

// Migrations holds the versioned schema for the licenses table.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsPath is the directory of Migrations.
const MigrationsPath = "migrations"

// License is a stored license record. The organization fields are merged in
// from the organization service and never persisted.
type License struct {
	LicenseID      string `json:"licenseId" gorm:"column:license_id;primaryKey;size:36"`
	OrganizationID string `json:"organizationId" gorm:"column:organization_id;size:36;not null;index"`
	Description    string `json:"description" gorm:"column:description;size:255"`
	ProductName    string `json:"productName" gorm:"column:product_name;size:255;not null"`
	LicenseType    string `json:"licenseType" gorm:"column:license_type;size:100;not null"`
	Comment        string `json:"comment" gorm:"column:comment;size:255"`

	OrganizationName string `json:"organizationName,omitempty" gorm:"-"`
	ContactName      string `json:"contactName,omitempty" gorm:"-"`
	ContactEmail     string `json:"contactEmail,omitempty" gorm:"-"`
	ContactPhone     string `json:"contactPhone,omitempty" gorm:"-"`
}

// TableName binds License to the licenses table.
func (License) TableName() string { return "licenses" }

// WithComment sets the comment and returns the license.
func (l *License) WithComment(comment string) *License {
	l.Comment = comment
	return l
}

// MergeOrganization copies the organization's name and contact details
// into l. The degraded organization is merged the same way as a real one.
func (l *License) MergeOrganization(org organization.Organization) {
	l.OrganizationName = org.Name
	l.ContactName = org.ContactName
	l.ContactEmail = org.ContactEmail
	l.ContactPhone = org.ContactPhone
}
