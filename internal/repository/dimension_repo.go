package repository

import (
	"context"
	"errors"

	"admetrics/internal/database"
	"admetrics/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DimensionRepository persists dimension rows. Deduplication is requested per
// call by the resolver; the repository only knows how to honor it.
type DimensionRepository struct {
	db *gorm.DB
}

func NewDimensionRepository(db *gorm.DB) *DimensionRepository {
	return &DimensionRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *DimensionRepository) WithTx(tx *gorm.DB) *DimensionRepository {
	return &DimensionRepository{db: tx}
}

// FindOrCreate stores row, or loads the existing match for key into row.
// A nil key means no dedup: row is always inserted.
//
// When key columns carry a unique index, a concurrent insert of the same key
// is absorbed by ON CONFLICT DO NOTHING followed by a re-read.
func FindOrCreate[T any](ctx context.Context, db *gorm.DB, row *T, key map[string]any) error {
	db = db.WithContext(ctx)
	if len(key) == 0 {
		return db.Create(row).Error
	}

	var existing T
	err := db.Where(key).First(&existing).Error
	if err == nil {
		*row = existing
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(row)
	if res.Error != nil {
		if !database.IsUniqueViolation(res.Error) {
			return res.Error
		}
	} else if res.RowsAffected > 0 {
		return nil
	}

	var winner T
	if err := db.Where(key).First(&winner).Error; err != nil {
		return err
	}
	*row = winner
	return nil
}

func (r *DimensionRepository) Gender(ctx context.Context, value string) (*domain.DimGender, error) {
	row := &domain.DimGender{Gender: value}
	if err := FindOrCreate(ctx, r.db, row, map[string]any{"gender": value}); err != nil {
		return nil, err
	}
	return row, nil
}

func (r *DimensionRepository) AgeGroup(ctx context.Context, ageRange string) (*domain.DimAgeGroup, error) {
	row := &domain.DimAgeGroup{AgeRange: ageRange}
	if err := FindOrCreate(ctx, r.db, row, map[string]any{"age_range": ageRange}); err != nil {
		return nil, err
	}
	return row, nil
}

func (r *DimensionRepository) Date(ctx context.Context, row *domain.DimDate) error {
	return FindOrCreate(ctx, r.db, row, nil)
}

func (r *DimensionRepository) Region(ctx context.Context, row *domain.DimRegion, dedup bool) error {
	var key map[string]any
	if dedup {
		key = map[string]any{
			"regionname":  row.RegionName,
			"cityname":    row.CityName,
			"countryname": row.CountryName,
		}
	}
	return FindOrCreate(ctx, r.db, row, key)
}

func (r *DimensionRepository) Platform(ctx context.Context, row *domain.DimPlatform, dedup bool) error {
	var key map[string]any
	if dedup {
		key = map[string]any{
			"platform_name":     row.PlatformName,
			"platform_hostname": row.PlatformHostname,
		}
	}
	return FindOrCreate(ctx, r.db, row, key)
}

func (r *DimensionRepository) Device(ctx context.Context, row *domain.DimDeviceType, dedup bool) error {
	var key map[string]any
	if dedup {
		key = map[string]any{"device_name": row.DeviceName}
	}
	return FindOrCreate(ctx, r.db, row, key)
}

func (r *DimensionRepository) Guest(ctx context.Context, row *domain.GuestUser) error {
	return FindOrCreate(ctx, r.db, row, nil)
}

func (r *DimensionRepository) DateByID(ctx context.Context, id string) (*domain.DimDate, error) {
	var d domain.DimDate
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}
