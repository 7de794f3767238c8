package models

import "gorm.io/gorm"

// Message belongs to exactly one room. CreatedAt is assigned by the server
// and defines the order within a room (id breaks ties). Only IsRead ever
// changes after creation.
type Message struct {
	gorm.Model
	RoomID   uint   `json:"roomID" gorm:"not null;index"`
	SenderID uint   `json:"senderID" gorm:"not null;index"`
	Sender   User   `json:"sender" gorm:"foreignKey:SenderID"`
	Content  string `json:"content" gorm:"type:text;not null"`

	// ReplyTo references an earlier message in the same room; deleting the
	// referenced message nulls the link.
	ReplyToID *uint    `json:"replyToID" gorm:"index"`
	ReplyTo   *Message `json:"replyTo,omitempty" gorm:"foreignKey:ReplyToID;constraint:OnDelete:SET NULL"`

	// ListingID optionally attaches a property card to the message.
	ListingID *uint     `json:"listingID" gorm:"index"`
	Listing   *Property `json:"listing,omitempty" gorm:"foreignKey:ListingID;constraint:OnDelete:SET NULL"`

	AttachmentURL string `json:"attachmentURL" gorm:"size:500"`
	IsRead        bool   `json:"isRead" gorm:"default:false;index"`
}
