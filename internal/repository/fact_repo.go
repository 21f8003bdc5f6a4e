package repository

import (
	"context"

	"admetrics/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FactRepository struct {
	db *gorm.DB
}

func NewFactRepository(db *gorm.DB) *FactRepository {
	return &FactRepository{db: db}
}

func (r *FactRepository) DB() *gorm.DB { return r.db }

// WithTx returns a repository bound to tx.
func (r *FactRepository) WithTx(tx *gorm.DB) *FactRepository {
	return &FactRepository{db: tx}
}

// LatestForUser returns the caller's most recent row for the advertisement,
// locking it for update where the engine supports row locks.
func (r *FactRepository) LatestForUser(ctx context.Context, advertiseID, userID string) (*domain.FactAdMetricsDaily, error) {
	var f domain.FactAdMetricsDaily
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("advertise_id = ? AND register_user = ?", advertiseID, userID).
		Order("day desc").
		Order("created_at desc").
		First(&f).Error
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *FactRepository) ForUserOnDay(ctx context.Context, advertiseID, userID, day string) (*domain.FactAdMetricsDaily, error) {
	var f domain.FactAdMetricsDaily
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("advertise_id = ? AND register_user = ? AND day = ?", advertiseID, userID, day).
		First(&f).Error
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// InsertIfAbsent inserts f unless a row already holds its
// (advertise_id, register_user, day) key. It reports whether f was inserted.
func (r *FactRepository) InsertIfAbsent(ctx context.Context, f *domain.FactAdMetricsDaily) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "advertise_id"}, {Name: "register_user"}, {Name: "day"}},
			DoNothing: true,
		}).
		Create(f)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *FactRepository) Create(ctx context.Context, f *domain.FactAdMetricsDaily) error {
	return r.db.WithContext(ctx).Create(f).Error
}

// SaveCounters persists the mutable metric columns of f.
func (r *FactRepository) SaveCounters(ctx context.Context, f *domain.FactAdMetricsDaily) error {
	return r.db.WithContext(ctx).
		Model(f).
		Select("likes", "clicks", "conversions", "impressions", "updated_at").
		Updates(f).Error
}

func (r *FactRepository) GetByID(ctx context.Context, id string) (*domain.FactAdMetricsDaily, error) {
	var f domain.FactAdMetricsDaily
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&f).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

// FactFilter selects rows for listing. A date range wins over the single
// dimension filters, and among those only the first non-empty one in
// region, platform, device, gender order applies.
type FactFilter struct {
	StartDate    string
	EndDate      string
	RegionID     string
	PlatformID   string
	DeviceTypeID string
	GenderID     string
}

func (r *FactRepository) List(ctx context.Context, f FactFilter) ([]domain.FactAdMetricsDaily, error) {
	q := r.db.WithContext(ctx).Model(&domain.FactAdMetricsDaily{})

	switch {
	case f.StartDate != "" || f.EndDate != "":
		q = q.Joins("JOIN dimdates ON dimdates.id = fact_admetrics_daily.dim_date_id")
		if f.StartDate != "" {
			q = q.Where("dimdates.date_created >= ?", f.StartDate)
		}
		if f.EndDate != "" {
			q = q.Where("dimdates.date_created <= ?", f.EndDate)
		}
	case f.RegionID != "":
		q = q.Where("fact_admetrics_daily.region_id = ?", f.RegionID)
	case f.PlatformID != "":
		q = q.Where("fact_admetrics_daily.platform_id = ?", f.PlatformID)
	case f.DeviceTypeID != "":
		q = q.Where("fact_admetrics_daily.device_type_id = ?", f.DeviceTypeID)
	case f.GenderID != "":
		q = q.Where("fact_admetrics_daily.gender_id = ?", f.GenderID)
	}

	rows := []domain.FactAdMetricsDaily{}
	if err := q.Order("fact_admetrics_daily.day asc").Order("fact_admetrics_daily.id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
