package license

import (
	"context"

	"github.com/google/uuid"

	apperrors "github.com/kbukum/licensing/errors"
	"github.com/kbukum/licensing/logger"
	"github.com/kbukum/licensing/messages"
	"github.com/kbukum/licensing/observability"
	"github.com/kbukum/licensing/organization"
	"github.com/kbukum/licensing/provider"
	"github.com/kbukum/licensing/resilience"
)

// Resilience policy names.
const (
	OrganizationPolicy = organization.ServiceName
	ListPolicy         = "license-service"
)

// Config configures the license service.
type Config struct {
	// Comment is attached to every returned license.
	Comment string `mapstructure:"comment"`
}

// Service implements the license operations.
type Service struct {
	repo     Repository
	selector *organization.Selector
	policies *resilience.Registry
	catalog  *messages.Catalog
	cfg      Config
	log      *logger.Logger
}

// NewService wires the service. policies supplies the organization-service
// and license-service policies.
func NewService(repo Repository, selector *organization.Selector, policies *resilience.Registry, catalog *messages.Catalog, cfg Config, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:     repo,
		selector: selector,
		policies: policies,
		catalog:  catalog,
		cfg:      cfg,
		log:      log.WithComponent("license-service"),
	}
}

// Lookup returns the license enriched with its organization. The
// organization is fetched with the client named by mode under the
// organization-service policy; when the policy rejects the call the
// degraded organization is merged instead. Only NOT_FOUND and repository
// failures are returned.
func (s *Service) Lookup(ctx context.Context, licenseID, organizationID, mode string) (*License, error) {
	observability.SetSpanAttribute(ctx, observability.AttrLicenseID, licenseID)
	observability.SetSpanAttribute(ctx, observability.AttrOrganizationID, organizationID)

	l, err := s.repo.FindByOrganizationAndLicenseID(ctx, organizationID, licenseID)
	if err != nil {
		return nil, s.notFound(ctx, err, licenseID, organizationID)
	}

	client := provider.WithResilience(s.selector.Select(mode), s.policies.Get(OrganizationPolicy), organization.Fallback)
	org, err := client.Execute(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	if organization.IsFallback(org) {
		s.log.WithContext(ctx).Warn("organization unavailable, serving degraded license", logger.Fields(
			logger.FieldLicenseID, licenseID,
			logger.FieldOrganizationID, organizationID,
			logger.FieldClient, s.selector.Resolve(mode),
		))
	}

	l.MergeOrganization(org)
	return l.WithComment(s.cfg.Comment), nil
}

// Create stores a new license for the organization under a fresh id.
func (s *Service) Create(ctx context.Context, organizationID string, req CreateRequest) (*License, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	l := &License{
		LicenseID:      uuid.NewString(),
		OrganizationID: organizationID,
		Description:    req.Description,
		ProductName:    req.ProductName,
		LicenseType:    req.LicenseType,
		Comment:        s.cfg.Comment,
	}
	if err := s.repo.Save(ctx, l); err != nil {
		return nil, err
	}
	s.log.WithContext(ctx).Info("license created", logger.Fields(
		logger.FieldLicenseID, l.LicenseID, logger.FieldOrganizationID, organizationID,
	))
	return l, nil
}

// Update replaces an existing license of the organization.
func (s *Service) Update(ctx context.Context, organizationID string, req UpdateRequest) (*License, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindByOrganizationAndLicenseID(ctx, organizationID, req.LicenseID); err != nil {
		return nil, s.notFound(ctx, err, req.LicenseID, organizationID)
	}

	l := &License{
		LicenseID:      req.LicenseID,
		OrganizationID: organizationID,
		Description:    req.Description,
		ProductName:    req.ProductName,
		LicenseType:    req.LicenseType,
		Comment:        s.cfg.Comment,
	}
	if err := s.repo.Save(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// Delete removes the license and returns the localized confirmation.
func (s *Service) Delete(ctx context.Context, organizationID, licenseID string) (string, error) {
	if err := s.repo.Delete(ctx, organizationID, licenseID); err != nil {
		return "", err
	}
	return s.catalog.Localize(ctx, messages.KeyLicenseDelete, licenseID, organizationID), nil
}

// ListByOrganization returns the organization's licenses. The query runs
// under the license-service policy; any rejection yields FallbackLicenses.
func (s *Service) ListByOrganization(ctx context.Context, organizationID string) []License {
	log := s.log.WithContext(ctx)
	log.Debug("listing licenses", logger.Fields(logger.FieldOrganizationID, organizationID))

	licenses, degraded := resilience.ExecuteWithFallback(ctx, s.policies.Get(ListPolicy),
		func(ctx context.Context) ([]License, error) {
			return s.repo.FindByOrganization(ctx, organizationID)
		},
		func(reason resilience.Reason, _ error) []License {
			log.Warn("license query rejected, serving fallback list", logger.Fields(
				logger.FieldOrganizationID, organizationID, "reason", string(reason),
			))
			return FallbackLicenses(organizationID)
		},
	)
	if !degraded && licenses == nil {
		licenses = []License{}
	}
	return licenses
}

// notFound localizes NOT_FOUND errors; other errors pass through.
func (s *Service) notFound(ctx context.Context, err error, licenseID, organizationID string) error {
	if !apperrors.IsNotFound(err) {
		return err
	}
	return apperrors.NotFound("license", licenseID).
		WithDetail("organizationId", organizationID).
		WithMessage(s.catalog.Localize(ctx, messages.KeyLicenseSearchError, licenseID, organizationID)).
		WithCause(err)
}
