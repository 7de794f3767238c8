package models

import "gorm.io/gorm"

// ChatRoom is the conversation context between one landlord and one tenant
// about one property. Exactly one room exists per triple; the participants
// never change after creation.
type ChatRoom struct {
	gorm.Model
	LandlordID uint     `json:"landlordID" gorm:"not null;uniqueIndex:idx_room_triple"`
	TenantID   uint     `json:"tenantID" gorm:"not null;uniqueIndex:idx_room_triple"`
	PropertyID uint     `json:"propertyID" gorm:"not null;uniqueIndex:idx_room_triple"`
	Landlord   User     `json:"landlord" gorm:"foreignKey:LandlordID;constraint:OnDelete:CASCADE"`
	Tenant     User     `json:"tenant" gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE"`
	Property   Property `json:"property" gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE"`

	Messages []Message `json:"-" gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE"`
}

// IsParticipant reports whether userID is the room's landlord or tenant.
func (r *ChatRoom) IsParticipant(userID uint) bool {
	return userID == r.LandlordID || userID == r.TenantID
}

// OtherParticipant returns the participant that is not userID.
func (r *ChatRoom) OtherParticipant(userID uint) uint {
	if userID == r.LandlordID {
		return r.TenantID
	}
	return r.LandlordID
}
