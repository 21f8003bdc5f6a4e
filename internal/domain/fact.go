package domain

import (
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DayLayout is the calendar-day format shared by DimDate.DateCreated and
// FactAdMetricsDaily.Day.
const DayLayout = "2006-01-02"

var ErrInvalidClicks = errors.New("click counter is not a non-negative integer")

// FactAdMetricsDaily is one engagement record for an advertisement on a given day
// for exactly one identity (RegisterUser XOR GuestUser).
//
// At most one row exists per (advertisement, registered user, day); the unique
// index enforces it. Guest rows have a NULL RegisterUser and never collide.
type FactAdMetricsDaily struct {
	ID           string  `json:"id" gorm:"type:varchar(36);primaryKey"`
	AdvertiseID  string  `json:"advertise_id" gorm:"type:varchar(36);not null;index;uniqueIndex:idx_fact_ad_user_day,priority:1"`
	Impressions  bool    `json:"impressions" gorm:"index"`
	Clicks       string  `json:"clicks" gorm:"index;not null;default:'0'"`
	Likes        bool    `json:"likes" gorm:"index"`
	Conversions  bool    `json:"conversions" gorm:"index"`
	RegisterUser *string `json:"register_user" gorm:"type:varchar(36);index;uniqueIndex:idx_fact_ad_user_day,priority:2"`
	GuestUser    *string `json:"guest_user" gorm:"type:varchar(36);index"`
	DimDateID    string  `json:"dim_date_id" gorm:"type:varchar(36);index"`
	Day          string  `json:"day" gorm:"type:varchar(10);not null;index;uniqueIndex:idx_fact_ad_user_day,priority:3"`
	PlatformID   string  `json:"platform_id" gorm:"type:varchar(36);index"`
	DeviceTypeID string  `json:"device_type_id" gorm:"type:varchar(36);index"`
	RegionID     string  `json:"region_id" gorm:"type:varchar(36);index"`
	GenderID     string  `json:"gender_id" gorm:"type:varchar(36);index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (FactAdMetricsDaily) TableName() string {
	return "fact_admetrics_daily"
}

func (f *FactAdMetricsDaily) BeforeCreate(_ *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.Clicks == "" {
		f.Clicks = "0"
	}
	return nil
}

// HasSingleIdentity reports whether exactly one of RegisterUser and GuestUser is set.
func (f *FactAdMetricsDaily) HasSingleIdentity() bool {
	hasUser := f.RegisterUser != nil && *f.RegisterUser != ""
	hasGuest := f.GuestUser != nil && *f.GuestUser != ""
	return hasUser != hasGuest
}

// IncrementClicks adds exactly one to the stored counter.
func (f *FactAdMetricsDaily) IncrementClicks() error {
	n, err := strconv.ParseInt(f.Clicks, 10, 64)
	if err != nil || n < 0 {
		return ErrInvalidClicks
	}
	f.Clicks = strconv.FormatInt(n+1, 10)
	return nil
}
