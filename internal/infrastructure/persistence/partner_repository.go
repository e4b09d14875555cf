package persistence

import (
	"context"
	"errors"

	"github.com/fleetops/backend/internal/domain/fleet"
	"github.com/fleetops/backend/internal/domain/shared"
	"github.com/fleetops/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPartnerRepository implements fleet.PartnerRepository using GORM
type GormPartnerRepository struct {
	db *gorm.DB
}

// NewGormPartnerRepository creates a new GormPartnerRepository
func NewGormPartnerRepository(db *gorm.DB) *GormPartnerRepository {
	return &GormPartnerRepository{db: db}
}

// FindByID finds a partner company by its ID
func (r *GormPartnerRepository) FindByID(ctx context.Context, id uuid.UUID) (*fleet.PartnerCompany, error) {
	var model models.PartnerCompanyModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns all partner companies ordered by name
func (r *GormPartnerRepository) FindAll(ctx context.Context) ([]fleet.PartnerCompany, error) {
	var partnerModels []models.PartnerCompanyModel
	if err := r.db.WithContext(ctx).Order("name asc").Find(&partnerModels).Error; err != nil {
		return nil, err
	}

	partners := make([]fleet.PartnerCompany, len(partnerModels))
	for i, model := range partnerModels {
		partners[i] = *model.ToDomain()
	}
	return partners, nil
}

// Save persists a partner company
func (r *GormPartnerRepository) Save(ctx context.Context, p *fleet.PartnerCompany) error {
	model := &models.PartnerCompanyModel{}
	model.FromDomain(p)
	return r.db.WithContext(ctx).Save(model).Error
}
