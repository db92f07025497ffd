package organization

import (
	"github.com/kbukum/licensing/provider"
	"github.com/kbukum/licensing/resilience"
)

// Sentinel values of the degraded organization.
const (
	FallbackID   = "00000000-00-000000"
	FallbackName = "Sorry no organization information currently available"
)

var _ provider.FallbackFunc[string, Organization] = Fallback

// Fallback returns the degraded organization used when a protected fetch is
// rejected. It never blocks and never calls downstream.
func Fallback(_ string, _ resilience.Reason, _ error) Organization {
	return Organization{ID: FallbackID, Name: FallbackName}
}

// IsFallback reports whether org is the degraded sentinel.
func IsFallback(org Organization) bool {
	return org.ID == FallbackID
}
