package domain

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Advertisement is a campaign. Cost and end date/time are computed once at
// creation and never re-evaluated.
type Advertisement struct {
	ID           string  `json:"id" gorm:"type:varchar(36);primaryKey"`
	PromoterName string  `json:"ad_promot_company_name" gorm:"column:ad_promot_company_name;index"`
	Message      string  `json:"ad_message" gorm:"column:ad_message;type:text"`
	BuyURL       string  `json:"buy_url" gorm:"column:buy_url;type:text"`
	RunHours     string  `json:"ad_run_hours" gorm:"column:ad_run_hours;index"`
	Cost         string  `json:"ad_cost" gorm:"column:ad_cost;index;default:'0'"`
	IsActive     bool    `json:"is_ad_active" gorm:"column:is_ad_active;default:true"`
	EndDate      string  `json:"advertise_end_date" gorm:"column:advertise_end_date;index"`
	EndTime      string  `json:"advertise_end_time" gorm:"column:advertise_end_time;index"`
	UserID       *string `json:"user" gorm:"column:user_id;type:varchar(36);index"`

	Owner *User `json:"-" gorm:"foreignKey:UserID"`
}

func (Advertisement) TableName() string {
	return "advertisement"
}

func (a *Advertisement) BeforeCreate(_ *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
