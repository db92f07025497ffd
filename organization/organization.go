// Package organization fetches organization records from the organization
// service. Three interchangeable clients (direct REST, registry-resolved and
// declarative proxy) satisfy the same Client capability; a Selector picks one
// per call by mode name.
package organization

import (
	"github.com/kbukum/licensing/provider"
)

// ServiceName is the registry name of the organization service.
const ServiceName = "organization-service"

// Organization is the record returned by the organization service.
type Organization struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ContactName  string `json:"contactName"`
	ContactEmail string `json:"contactEmail"`
	ContactPhone string `json:"contactPhone"`
}

// Client fetches one organization by id.
type Client = provider.RequestResponse[string, Organization]
