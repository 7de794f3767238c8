package models

import "gorm.io/gorm"

const (
	NotificationNewMessage     = "NEW_MESSAGE"
	NotificationPropertyUpdate = "PROPERTY_UPDATE"
	NotificationReviewPosted   = "REVIEW_POSTED"
	NotificationLeaseConfirmed = "LEASE_CONFIRMED"
)

type Notification struct {
	gorm.Model
	UserID   uint   `json:"userID" gorm:"not null;index"`
	SenderID *uint  `json:"senderID" gorm:"index"` // user who triggered the event, if any
	Type     string `json:"type" gorm:"size:20;not null"`
	Title    string `json:"title" gorm:"size:255"`
	Message  string `json:"message" gorm:"type:text"`
	IsRead   bool   `json:"isRead" gorm:"default:false;index"`

	RelatedPropertyID *uint `json:"relatedPropertyID"`
	RelatedChatID     *uint `json:"relatedChatID"`
	RelatedReviewID   *uint `json:"relatedReviewID"`
}
