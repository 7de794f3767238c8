package services

import (
	"errors"
	"log"
	"strings"
	"time"

	"homehive-server/models"

	"gorm.io/gorm"
)

var (
	ErrRoomNotFound    = errors.New("chat room not found")
	ErrAccessDenied    = errors.New("access denied")
	ErrEmptyContent    = errors.New("empty message content")
	ErrListingNotFound = errors.New("listing not found")
)

// ChatStore is the persistence surface the chat service needs. The gorm
// implementation lives in storage; tests use an in-memory fake. Missing rows
// surface as gorm.ErrRecordNotFound.
type ChatStore interface {
	RoomByID(id uint) (*models.ChatRoom, error)
	GetOrCreateRoom(landlordID, tenantID, propertyID uint) (*models.ChatRoom, bool, error)
	MessageByID(id uint) (*models.Message, error)
	PropertyByID(id uint) (*models.Property, error)
	UserByID(id uint) (*models.User, error)
	CreateMessage(m *models.Message) error
	TouchRoom(roomID uint) error
	MarkRead(roomID, readerID uint) error
	UnreadCount(roomID, userID uint) (int64, error)
}

// MessagePayload is the enriched wire representation of a persisted message.
type MessagePayload struct {
	ID            uint            `json:"id"`
	RoomID        uint            `json:"roomID"`
	SenderID      uint            `json:"senderID"`
	SenderName    string          `json:"senderName"`
	Content       string          `json:"content"`
	ReplyTo       *ReplyPreview   `json:"replyTo,omitempty"`
	Listing       *ListingPreview `json:"listing,omitempty"`
	AttachmentURL string          `json:"attachmentURL,omitempty"`
	IsRead        bool            `json:"isRead"`
	Timestamp     time.Time       `json:"timestamp"`
}

type ReplyPreview struct {
	ID         uint   `json:"id"`
	SenderName string `json:"senderName"`
	Content    string `json:"content"`
}

type ListingPreview struct {
	ID            uint   `json:"id"`
	Title         string `json:"title"`
	CoverImageURL string `json:"coverImageURL"`
}

type SendMessageInput struct {
	RoomID        uint
	SenderID      uint
	Content       string
	ReplyToID     *uint
	ListingID     *uint
	AttachmentURL string
}

type ChatService struct {
	store ChatStore
	bus   *EventBus
}

func NewChatService(store ChatStore, bus *EventBus) *ChatService {
	return &ChatService{store: store, bus: bus}
}

// VerifyRoomAccess returns the room when userID is one of its participants.
// Fails closed: unknown room or anonymous caller is a denial.
func (s *ChatService) VerifyRoomAccess(roomID, userID uint) (*models.ChatRoom, error) {
	if userID == 0 {
		return nil, ErrAccessDenied
	}
	room, err := s.store.RoomByID(roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	if !room.IsParticipant(userID) {
		return nil, ErrAccessDenied
	}
	return room, nil
}

// GetOrCreateRoom returns the room for (property's landlord, tenant,
// property), creating it on first contact. Idempotent under concurrent
// creation attempts.
func (s *ChatService) GetOrCreateRoom(tenantID, propertyID uint) (*models.ChatRoom, bool, error) {
	property, err := s.store.PropertyByID(propertyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrListingNotFound
		}
		return nil, false, err
	}
	return s.store.GetOrCreateRoom(property.LandlordID, tenantID, propertyID)
}

// Send persists a message and returns its enriched representation.
//
// Room existence and sender membership are both checked before any write.
// Content is trimmed; empty content is ErrEmptyContent (the realtime path
// drops it silently, the request path maps it to a validation error). A
// reply-to reference outside the room and an unknown listing reference are
// dropped, not errors.
func (s *ChatService) Send(in SendMessageInput) (*MessagePayload, error) {
	room, err := s.VerifyRoomAccess(in.RoomID, in.SenderID)
	if err != nil {
		return nil, err
	}

	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	msg := models.Message{
		RoomID:        room.ID,
		SenderID:      in.SenderID,
		Content:       content,
		AttachmentURL: in.AttachmentURL,
	}

	var replied *models.Message
	if in.ReplyToID != nil {
		if ref, refErr := s.store.MessageByID(*in.ReplyToID); refErr == nil && ref.RoomID == room.ID {
			id := ref.ID
			msg.ReplyToID = &id
			replied = ref
		}
	}

	var listing *models.Property
	if in.ListingID != nil {
		if prop, propErr := s.store.PropertyByID(*in.ListingID); propErr == nil {
			id := prop.ID
			msg.ListingID = &id
			listing = prop
		}
	}

	if err := s.store.CreateMessage(&msg); err != nil {
		return nil, err
	}

	// Recently-active ordering for room lists; last writer wins.
	if err := s.store.TouchRoom(room.ID); err != nil {
		log.Printf("⚠️  chat: failed to touch room %d: %v", room.ID, err)
	}

	payload := s.enrich(&msg, replied, listing)

	s.bus.Publish(MessageCreated{
		RoomID:      room.ID,
		SenderID:    msg.SenderID,
		RecipientID: room.OtherParticipant(msg.SenderID),
		Message:     *payload,
	})

	return payload, nil
}

// enrich builds the wire representation: sender display name plus summaries
// of the replied-to message and the attached listing. Lookup failures leave
// the corresponding field absent.
func (s *ChatService) enrich(msg *models.Message, replied *models.Message, listing *models.Property) *MessagePayload {
	payload := &MessagePayload{
		ID:            msg.ID,
		RoomID:        msg.RoomID,
		SenderID:      msg.SenderID,
		Content:       msg.Content,
		AttachmentURL: msg.AttachmentURL,
		IsRead:        msg.IsRead,
		Timestamp:     msg.CreatedAt,
	}

	if sender, err := s.store.UserByID(msg.SenderID); err == nil {
		payload.SenderName = sender.DisplayName()
	}

	if replied != nil {
		preview := ReplyPreview{ID: replied.ID, Content: replied.Content}
		if replySender, err := s.store.UserByID(replied.SenderID); err == nil {
			preview.SenderName = replySender.DisplayName()
		}
		payload.ReplyTo = &preview
	}

	if listing != nil {
		payload.Listing = &ListingPreview{
			ID:            listing.ID,
			Title:         listing.Title,
			CoverImageURL: listing.CoverImageURL(),
		}
	}

	return payload
}

// Enrich builds the wire representation for an already-persisted message,
// resolving its references through the store. Used by the history endpoint.
func (s *ChatService) Enrich(msg *models.Message) *MessagePayload {
	var replied *models.Message
	if msg.ReplyToID != nil {
		if ref, err := s.store.MessageByID(*msg.ReplyToID); err == nil {
			replied = ref
		}
	}
	var listing *models.Property
	if msg.ListingID != nil {
		if prop, err := s.store.PropertyByID(*msg.ListingID); err == nil {
			listing = prop
		}
	}
	return s.enrich(msg, replied, listing)
}

// MarkRead flags every unread message in the room that the caller did not
// send. Safe to call repeatedly and concurrently.
func (s *ChatService) MarkRead(roomID, userID uint) error {
	if _, err := s.VerifyRoomAccess(roomID, userID); err != nil {
		return err
	}
	return s.store.MarkRead(roomID, userID)
}

// UnreadCount counts messages in the room not yet read by userID.
func (s *ChatService) UnreadCount(roomID, userID uint) (int64, error) {
	return s.store.UnreadCount(roomID, userID)
}
