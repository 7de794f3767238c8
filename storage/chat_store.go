package storage

import (
	"errors"
	"time"

	"homehive-server/models"

	"gorm.io/gorm"
)

// ChatStore is the gorm implementation of services.ChatStore.
type ChatStore struct {
	db *gorm.DB
}

func NewChatStore(db *gorm.DB) *ChatStore {
	return &ChatStore{db: db}
}

func (s *ChatStore) RoomByID(id uint) (*models.ChatRoom, error) {
	var room models.ChatRoom
	if err := s.db.First(&room, id).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

// GetOrCreateRoom is idempotent under concurrent creation: the unique index
// on the triple makes the losing insert fail, after which the winner's row is
// returned.
func (s *ChatStore) GetOrCreateRoom(landlordID, tenantID, propertyID uint) (*models.ChatRoom, bool, error) {
	var room models.ChatRoom
	err := s.db.
		Where("landlord_id = ? AND tenant_id = ? AND property_id = ?", landlordID, tenantID, propertyID).
		First(&room).Error
	if err == nil {
		return &room, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	room = models.ChatRoom{LandlordID: landlordID, TenantID: tenantID, PropertyID: propertyID}
	if createErr := s.db.Create(&room).Error; createErr != nil {
		// Lost the race; the other writer's room is the room.
		if retryErr := s.db.
			Where("landlord_id = ? AND tenant_id = ? AND property_id = ?", landlordID, tenantID, propertyID).
			First(&room).Error; retryErr != nil {
			return nil, false, createErr
		}
		return &room, false, nil
	}
	return &room, true, nil
}

func (s *ChatStore) MessageByID(id uint) (*models.Message, error) {
	var msg models.Message
	if err := s.db.First(&msg, id).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

func (s *ChatStore) PropertyByID(id uint) (*models.Property, error) {
	var property models.Property
	if err := s.db.Preload("Images").First(&property, id).Error; err != nil {
		return nil, err
	}
	return &property, nil
}

func (s *ChatStore) UserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *ChatStore) CreateMessage(m *models.Message) error {
	return s.db.Create(m).Error
}

func (s *ChatStore) TouchRoom(roomID uint) error {
	return s.db.Model(&models.ChatRoom{}).
		Where("id = ?", roomID).
		Update("updated_at", time.Now()).Error
}

// MarkRead is a set-based conditional update; running it twice, or from both
// participants at once, converges on the same rows.
func (s *ChatStore) MarkRead(roomID, readerID uint) error {
	return s.db.Model(&models.Message{}).
		Where("room_id = ? AND is_read = ? AND sender_id <> ?", roomID, false, readerID).
		Update("is_read", true).Error
}

func (s *ChatStore) UnreadCount(roomID, userID uint) (int64, error) {
	var count int64
	err := s.db.Model(&models.Message{}).
		Where("room_id = ? AND is_read = ? AND sender_id <> ?", roomID, false, userID).
		Count(&count).Error
	return count, err
}
