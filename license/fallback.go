package license

import (
	"github.com/kbukum/licensing/organization"
)

// FallbackProductName marks the degraded license list.
const FallbackProductName = "Sorry no licensing information currently available"

// FallbackLicenses returns the degraded list served when the license query
// is rejected: one sentinel license owned by organizationID.
func FallbackLicenses(organizationID string) []License {
	return []License{{
		LicenseID:      organization.FallbackID,
		OrganizationID: organizationID,
		ProductName:    FallbackProductName,
	}}
}
