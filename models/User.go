package models

import (
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	RoleLandlord = "LANDLORD"
	RoleTenant   = "TENANT"
)

type User struct {
	gorm.Model
	FirstName          string         `json:"firstName"`
	LastName           string         `json:"lastName"`
	Email              string         `json:"email" gorm:"uniqueIndex;not null"`
	Password           string         `json:"-"`
	Role               string         `json:"role" gorm:"type:varchar(10);not null;index"` // LANDLORD | TENANT, fixed at signup
	PhoneNumber        string         `json:"phoneNumber"`
	AvatarURL          string         `json:"avatarURL"`
	CoverPhotoURL      string         `json:"coverPhotoURL"`
	EmailNotifications *bool          `json:"emailNotifications" gorm:"default:true"`
	PushNotifications  *bool          `json:"pushNotifications" gorm:"default:true"`
	PushTokens         datatypes.JSON `json:"pushTokens"`

	Properties []Property `json:"properties,omitempty" gorm:"foreignKey:LandlordID;references:ID"`
}

var ErrRoleImmutable = errors.New("user role cannot be changed after creation")

// BeforeUpdate rejects role changes; the role is chosen once at signup.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	if tx.Statement.Changed("Role") {
		return ErrRoleImmutable
	}
	return nil
}

func (u *User) IsLandlord() bool { return u.Role == RoleLandlord }
func (u *User) IsTenant() bool   { return u.Role == RoleTenant }

// DisplayName is "First Last", falling back to the email handle when both
// names are blank.
func (u *User) DisplayName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name != "" {
		return name
	}
	for i := 0; i < len(u.Email); i++ {
		if u.Email[i] == '@' {
			return u.Email[:i]
		}
	}
	return u.Email
}
