package domain

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Dimension tables are small lookup entities referenced by fact rows.
// Which of them are deduplicated is decided by the resolver policy, not here;
// the unique indexes below back the always-deduplicated ones.

type DimDate struct {
	ID          string `json:"id" gorm:"type:varchar(36);primaryKey"`
	DateCreated string `json:"date_created" gorm:"index"`
	TimeCreated string `json:"time_created" gorm:"index"`
}

func (DimDate) TableName() string { return "dimdates" }

func (d *DimDate) BeforeCreate(_ *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

type DimRegion struct {
	ID          string `json:"id" gorm:"type:varchar(36);primaryKey"`
	RegionName  string `json:"regionname" gorm:"column:regionname;index"`
	CityName    string `json:"cityname" gorm:"column:cityname;index"`
	CountryName string `json:"countryname" gorm:"column:countryname;index"`
}

func (DimRegion) TableName() string { return "dimregion" }

func (d *DimRegion) BeforeCreate(_ *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

type DimAgeGroup struct {
	ID       string `json:"id" gorm:"type:varchar(36);primaryKey"`
	AgeRange string `json:"age_range" gorm:"uniqueIndex"`
}

func (DimAgeGroup) TableName() string { return "dimagegroup" }

func (d *DimAgeGroup) BeforeCreate(_ *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

type DimGender struct {
	ID     string `json:"id" gorm:"type:varchar(36);primaryKey"`
	Gender string `json:"gender" gorm:"uniqueIndex"`
}

func (DimGender) TableName() string { return "dimgender" }

func (d *DimGender) BeforeCreate(_ *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

type DimPlatform struct {
	ID               string `json:"id" gorm:"type:varchar(36);primaryKey"`
	PlatformName     string `json:"platform_name" gorm:"index"`
	PlatformHostname string `json:"platform_hostname" gorm:"index"`
}

func (DimPlatform) TableName() string { return "dimplatform" }

func (d *DimPlatform) BeforeCreate(_ *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

type DimDeviceType struct {
	ID         string `json:"id" gorm:"type:varchar(36);primaryKey"`
	DeviceName string `json:"device_name" gorm:"index"`
}

func (DimDeviceType) TableName() string { return "dimdevicetype" }

func (d *DimDeviceType) BeforeCreate(_ *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}
