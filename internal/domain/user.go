package domain

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderOther   Gender = "other"
	GenderUnknown Gender = "unknown"
)

// ValidGender reports whether g (already lowercased) is an accepted gender value.
func ValidGender(g string) bool {
	switch Gender(g) {
	case GenderMale, GenderFemale, GenderOther, GenderUnknown:
		return true
	}
	return false
}

// User is a registered account. Created once at registration.
type User struct {
	ID           string `json:"id" gorm:"type:varchar(36);primaryKey"`
	Name         string `json:"Name" gorm:"index"`
	Email        string `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string `json:"-" gorm:"column:password;not null"`
	DateOfBirth  string `json:"dateofbirth" gorm:"column:dateofbirth;index"`
	IsSuperadmin bool   `json:"is_superadmin" gorm:"default:false"`
	GenderID     string `json:"gender_id" gorm:"type:varchar(36);index"`
	AgeGroupID   string `json:"agegroup_id" gorm:"column:agegroup_id;type:varchar(36);index"`
	CreatedDate  string `json:"created_date"`
	CreatedTime  string `json:"created_time"`

	Gender   *DimGender   `json:"gender,omitempty" gorm:"foreignKey:GenderID"`
	AgeGroup *DimAgeGroup `json:"age_group,omitempty" gorm:"foreignKey:AgeGroupID"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// GuestUser is an anonymous caller identity, created per anonymous interaction.
type GuestUser struct {
	ID        string `json:"id" gorm:"type:varchar(36);primaryKey"`
	IPAddress string `json:"ip_address" gorm:"index"`
	GuestName string `json:"guest_name" gorm:"index"`
	Location  string `json:"location" gorm:"index"`
}

func (GuestUser) TableName() string {
	return "guest_user"
}

func (g *GuestUser) BeforeCreate(_ *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}
