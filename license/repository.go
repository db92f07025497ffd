package license

import (
	"context"

	"github.com/kbukum/licensing/database"
)

// Repository persists licenses. Lookups of absent records return a
// NOT_FOUND AppError.
type Repository interface {
	FindByOrganizationAndLicenseID(ctx context.Context, organizationID, licenseID string) (*License, error)
	FindByOrganization(ctx context.Context, organizationID string) ([]License, error)
	Save(ctx context.Context, l *License) error
	Delete(ctx context.Context, organizationID, licenseID string) error
}

// Store is the GORM-backed Repository.
type Store struct {
	db *database.DB
}

var _ Repository = (*Store)(nil)

// NewStore returns a Store over db.
func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

// FindByOrganizationAndLicenseID returns the license of the organization.
func (s *Store) FindByOrganizationAndLicenseID(ctx context.Context, organizationID, licenseID string) (*License, error) {
	var l License
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND license_id = ?", organizationID, licenseID).
		First(&l).Error
	if err != nil {
		return nil, database.FromDatabase(err, "license", licenseID)
	}
	return &l, nil
}

// FindByOrganization returns every license of the organization ordered by id.
func (s *Store) FindByOrganization(ctx context.Context, organizationID string) ([]License, error) {
	var out []License
	err := s.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		Order("license_id").
		Find(&out).Error
	if err != nil {
		return nil, database.FromDatabase(err, "license", "")
	}
	return out, nil
}

// Save inserts l or replaces the stored record with the same id.
func (s *Store) Save(ctx context.Context, l *License) error {
	if err := s.db.WithContext(ctx).Save(l).Error; err != nil {
		return database.FromDatabase(err, "license", l.LicenseID)
	}
	return nil
}

// Delete removes the license. Deleting an absent license is not an error.
func (s *Store) Delete(ctx context.Context, organizationID, licenseID string) error {
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND license_id = ?", organizationID, licenseID).
		Delete(&License{}).Error
	if err != nil {
		return database.FromDatabase(err, "license", licenseID)
	}
	return nil
}
