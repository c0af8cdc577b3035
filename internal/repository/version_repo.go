package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/eventium/eventium-backend/internal/domain"
)

// VersionRepository append-only version ledger data access
type VersionRepository interface {
	WithTx(tx *gorm.DB) VersionRepository
	Create(version *domain.Version) error
	FindByEntityAndNumber(entityType, entityID string, versionNumber int) (*domain.Version, error)
	// FindByEntity returns versions ascending by version_number, optionally
	// bounded to an inclusive created_at window.
	FindByEntity(entityType, entityID string, startDate, endDate *time.Time) ([]*domain.Version, error)
	NextVersionNumber(entityType, entityID string) (int, error)
}

type versionRepository struct {
	db *gorm.DB
}

// NewVersionRepository creates a new VersionRepository
func NewVersionRepository(db *gorm.DB) VersionRepository {
	return &versionRepository{db: db}
}

func (r *versionRepository) WithTx(tx *gorm.DB) VersionRepository {
	return &versionRepository{db: tx}
}

func (r *versionRepository) Create(version *domain.Version) error {
	return r.db.Create(version).Error
}

func (r *versionRepository) FindByEntityAndNumber(entityType, entityID string, versionNumber int) (*domain.Version, error) {
	var version domain.Version
	err := r.db.
		Where("entity_type = ? AND entity_id = ? AND version_number = ?", entityType, entityID, versionNumber).
		First(&version).Error
	if err != nil {
		return nil, err
	}
	return &version, nil
}

func (r *versionRepository) FindByEntity(entityType, entityID string, startDate, endDate *time.Time) ([]*domain.Version, error) {
	query := r.db.Where("entity_type = ? AND entity_id = ?", entityType, entityID)
	if startDate != nil {
		query = query.Where("created_at >= ?", *startDate)
	}
	if endDate != nil {
		query = query.Where("created_at <= ?", *endDate)
	}

	var versions []*domain.Version
	err := query.Order("version_number ASC").Find(&versions).Error
	return versions, err
}

func (r *versionRepository) NextVersionNumber(entityType, entityID string) (int, error) {
	var maxVersion *int
	err := r.db.Model(&domain.Version{}).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Select("MAX(version_number)").
		Scan(&maxVersion).Error
	if err != nil {
		return 1, err
	}
	if maxVersion == nil {
		return 1, nil
	}
	return *maxVersion + 1, nil
}
