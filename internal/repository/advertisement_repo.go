package repository

import (
	"context"

	"admetrics/internal/domain"

	"gorm.io/gorm"
)

type AdvertisementRepository struct {
	db *gorm.DB
}

func NewAdvertisementRepository(db *gorm.DB) *AdvertisementRepository {
	return &AdvertisementRepository{db: db}
}

func (r *AdvertisementRepository) Create(ctx context.Context, ad *domain.Advertisement) error {
	return r.db.WithContext(ctx).Create(ad).Error
}

func (r *AdvertisementRepository) GetByID(ctx context.Context, id string) (*domain.Advertisement, error) {
	var ad domain.Advertisement
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&ad).Error; err != nil {
		return nil, err
	}
	return &ad, nil
}

func (r *AdvertisementRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Advertisement{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
