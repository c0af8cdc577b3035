package service

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/eventium/eventium-backend/internal/common"
	"github.com/eventium/eventium-backend/internal/domain"
	"github.com/eventium/eventium-backend/internal/repository"
)

// VersionService is the append-only version ledger. Every accepted entity
// mutation records exactly one Version; rows are never updated or deleted.
type VersionService struct {
	versions repository.VersionRepository
}

// NewVersionService creates a new VersionService
func NewVersionService(versions repository.VersionRepository) *VersionService {
	return &VersionService{versions: versions}
}

// WithTx returns a VersionService bound to the given transaction
func (s *VersionService) WithTx(tx *gorm.DB) *VersionService {
	return &VersionService{versions: s.versions.WithTx(tx)}
}

// CreateVersion appends a new version for the entity. The version number is
// the current per-entity maximum plus one, starting at 1.
func (s *VersionService) CreateVersion(
	entityType, entityID string,
	changes, previousState, currentState domain.StateDocument,
	createdBy string,
) (*domain.Version, error) {
	next, err := s.versions.NextVersionNumber(entityType, entityID)
	if err != nil {
		return nil, common.WrapStorage("next version number", err)
	}

	version := &domain.Version{
		EntityType:    entityType,
		EntityID:      entityID,
		VersionNumber: next,
		Changes:       changes,
		PreviousState: previousState,
		CurrentState:  currentState,
		CreatedBy:     createdBy,
	}
	if err := s.versions.Create(version); err != nil {
		return nil, common.WrapStorage("create version", err)
	}
	return version, nil
}

// GetEntityChangelog returns the entity's versions ascending by version
// number, optionally bounded to an inclusive creation-date window.
func (s *VersionService) GetEntityChangelog(
	entityType, entityID string,
	startDate, endDate *time.Time,
) ([]*domain.Version, error) {
	versions, err := s.versions.FindByEntity(entityType, entityID, startDate, endDate)
	if err != nil {
		return nil, common.WrapStorage("load changelog", err)
	}
	return versions, nil
}

// GetVersion returns one version of an entity.
func (s *VersionService) GetVersion(entityType, entityID string, versionNumber int) (*domain.Version, error) {
	version, err := s.versions.FindByEntityAndNumber(entityType, entityID, versionNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrVersionNotFound
		}
		return nil, common.WrapStorage("load version", err)
	}
	return version, nil
}
