package services

import (
	"encoding/json"
	"fmt"
	"log"

	"homehive-server/models"
	"homehive-server/storage"
	"homehive-server/utils"
)

// NotificationService turns domain events into Notification rows and
// best-effort push deliveries. It never reports failure to publishers.
type NotificationService struct{}

func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// RegisterConsumers subscribes the service to the event bus.
func (ns *NotificationService) RegisterConsumers(bus *EventBus) {
	bus.Subscribe("notifications", ns.handleEvent)
}

func (ns *NotificationService) handleEvent(event interface{}) {
	switch e := event.(type) {
	case MessageCreated:
		ns.onMessageCreated(e)
	case ReviewPosted:
		ns.onReviewPosted(e)
	}
}

func (ns *NotificationService) onMessageCreated(e MessageCreated) {
	senderID := e.SenderID
	roomID := e.RoomID
	notification := models.Notification{
		UserID:        e.RecipientID,
		SenderID:      &senderID,
		Type:          models.NotificationNewMessage,
		Title:         "New message",
		Message:       fmt.Sprintf("%s sent you a message", e.Message.SenderName),
		RelatedChatID: &roomID,
	}
	if err := storage.DB.Create(&notification).Error; err != nil {
		log.Printf("❌ notifications: failed to store message notification: %v", err)
		return
	}

	ns.push(e.RecipientID, notification.Title, notification.Message, map[string]string{
		"type":   "message_received",
		"chatId": fmt.Sprintf("%d", e.RoomID),
		"userId": fmt.Sprintf("%d", e.SenderID),
	})
}

func (ns *NotificationService) onReviewPosted(e ReviewPosted) {
	tenantID := e.TenantID
	reviewID := e.ReviewID
	propertyID := e.PropertyID
	notification := models.Notification{
		UserID:            e.LandlordID,
		SenderID:          &tenantID,
		Type:              models.NotificationReviewPosted,
		Title:             "New review",
		Message:           fmt.Sprintf("%s left a %d-star review on %s", e.TenantName, e.Rating, e.PropertyTitle),
		RelatedReviewID:   &reviewID,
		RelatedPropertyID: &propertyID,
	}
	if err := storage.DB.Create(&notification).Error; err != nil {
		log.Printf("❌ notifications: failed to store review notification: %v", err)
		return
	}

	ns.push(e.LandlordID, notification.Title, notification.Message, map[string]string{
		"type":       "review_posted",
		"reviewId":   fmt.Sprintf("%d", e.ReviewID),
		"propertyId": fmt.Sprintf("%d", e.PropertyID),
	})
}

// push sends to every device token of a user who allows push notifications.
func (ns *NotificationService) push(userID uint, title, body string, data map[string]string) {
	var user models.User
	if err := storage.DB.First(&user, userID).Error; err != nil {
		log.Printf("❌ notifications: user %d not found: %v", userID, err)
		return
	}

	if user.PushNotifications != nil && !*user.PushNotifications {
		return
	}
	if user.PushTokens == nil {
		return
	}

	var tokens []string
	if err := json.Unmarshal(user.PushTokens, &tokens); err != nil {
		log.Printf("❌ notifications: bad push tokens for user %d: %v", userID, err)
		return
	}

	for _, token := range tokens {
		if err := utils.SendNotification(token, title, body, data); err != nil {
			log.Printf("⚠️  notifications: push to user %d failed: %v", userID, err)
		}
	}
}
