package routes

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"homehive-server/models"
	"homehive-server/services"
	"homehive-server/storage"
	"homehive-server/utils"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

func chatService() *services.ChatService {
	return services.NewChatService(storage.NewChatStore(storage.DB), services.Events)
}

type roomResponse struct {
	ID          uint                     `json:"id"`
	Landlord    models.User              `json:"landlord"`
	Tenant      models.User              `json:"tenant"`
	Property    models.Property          `json:"property"`
	LastMessage *services.MessagePayload `json:"lastMessage"`
	UnreadCount int64                    `json:"unreadCount"`
	CreatedAt   time.Time                `json:"createdAt"`
	UpdatedAt   time.Time                `json:"updatedAt"`
}

// ListChatRooms returns every room the caller participates in, most recently
// active first, each with its last message and the caller's unread count.
func ListChatRooms(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)

	var rooms []models.ChatRoom
	if err := storage.DB.
		Preload("Landlord").Preload("Tenant").Preload("Property.Images").
		Where("landlord_id = ? OR tenant_id = ?", claims.ID, claims.ID).
		Order("updated_at DESC").
		Find(&rooms).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	svc := chatService()
	responses := make([]roomResponse, 0, len(rooms))
	for _, room := range rooms {
		resp := roomResponse{
			ID:        room.ID,
			Landlord:  room.Landlord,
			Tenant:    room.Tenant,
			Property:  room.Property,
			CreatedAt: room.CreatedAt,
			UpdatedAt: room.UpdatedAt,
		}

		var last models.Message
		if err := storage.DB.Where("room_id = ?", room.ID).
			Order("created_at DESC, id DESC").
			First(&last).Error; err == nil {
			resp.LastMessage = svc.Enrich(&last)
		}

		if count, err := svc.UnreadCount(room.ID, claims.ID); err == nil {
			resp.UnreadCount = count
		}

		responses = append(responses, resp)
	}

	ctx.JSON(iris.Map{"rooms": responses})
}

type CreateChatRoomInput struct {
	PropertyID uint `json:"propertyID" validate:"required"`
}

// CreateOrGetChatRoom opens (or returns) the room between the calling tenant
// and the property's landlord. Tenants initiate contact.
func CreateOrGetChatRoom(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)

	var input CreateChatRoomInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	room, created, err := chatService().GetOrCreateRoom(claims.ID, input.PropertyID)
	if err != nil {
		if errors.Is(err, services.ErrListingNotFound) {
			utils.CreateError(iris.StatusNotFound, "Not Found", "Property not found.", ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}

	if err := storage.DB.
		Preload("Landlord").Preload("Tenant").Preload("Property.Images").
		First(room, room.ID).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if created {
		ctx.StatusCode(iris.StatusCreated)
	}
	ctx.JSON(iris.Map{"room": room, "created": created})
}

// ListRoomMessages returns a room's history in creation order.
func ListRoomMessages(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)
	roomID, err := ctx.Params().GetUint("roomID")
	if err != nil {
		ctx.StopWithStatus(http.StatusBadRequest)
		return
	}

	svc := chatService()
	if _, accessErr := svc.VerifyRoomAccess(roomID, claims.ID); accessErr != nil {
		handleChatError(accessErr, ctx)
		return
	}

	limit := ctx.URLParamIntDefault("limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	cursor, _ := ctx.URLParamInt("cursor")

	q := storage.DB.Where("room_id = ?", roomID)
	if cursor > 0 {
		q = q.Where("id < ?", cursor)
	}
	var msgs []models.Message
	if err := q.Order("id DESC").Limit(limit).Find(&msgs).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	// reverse to chronological
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}

	payloads := make([]*services.MessagePayload, 0, len(msgs))
	for i := range msgs {
		payloads = append(payloads, svc.Enrich(&msgs[i]))
	}

	nextCursor := 0
	if len(msgs) > 0 {
		nextCursor = int(msgs[0].ID)
	}
	ctx.JSON(iris.Map{"messages": payloads, "nextCursor": nextCursor})
}

type SendMessageInput struct {
	Message       string `json:"message" validate:"required,max=5000"`
	ReplyTo       *uint  `json:"reply_to"`
	Listing       *uint  `json:"listing"`
	AttachmentURL string `json:"attachmentURL" validate:"omitempty,url,max=500"`
}

// SendRoomMessage is the request-style send path. Unlike the realtime path,
// empty content is a validation error here.
func SendRoomMessage(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)
	roomID, err := ctx.Params().GetUint("roomID")
	if err != nil {
		ctx.StopWithStatus(http.StatusBadRequest)
		return
	}

	var input SendMessageInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	payload, sendErr := chatService().Send(services.SendMessageInput{
		RoomID:        roomID,
		SenderID:      claims.ID,
		Content:       input.Message,
		ReplyToID:     input.ReplyTo,
		ListingID:     input.Listing,
		AttachmentURL: input.AttachmentURL,
	})
	if sendErr != nil {
		if errors.Is(sendErr, services.ErrEmptyContent) {
			utils.CreateError(iris.StatusBadRequest, "Validation Error", "Message content must not be empty.", ctx)
			return
		}
		handleChatError(sendErr, ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{"message": payload})
}

// MarkRoomRead marks every message the caller did not send as read.
func MarkRoomRead(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)
	roomID, err := ctx.Params().GetUint("roomID")
	if err != nil {
		ctx.StopWithStatus(http.StatusBadRequest)
		return
	}

	if markErr := chatService().MarkRead(roomID, claims.ID); markErr != nil {
		handleChatError(markErr, ctx)
		return
	}

	ctx.JSON(iris.Map{"message": "Messages marked as read"})
}

// GetUnreadCount returns the caller's total unread messages across rooms.
func GetUnreadCount(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)

	var count int64
	if err := storage.DB.Model(&models.Message{}).
		Joins("JOIN chat_rooms ON chat_rooms.id = messages.room_id").
		Where("(chat_rooms.landlord_id = ? OR chat_rooms.tenant_id = ?)", claims.ID, claims.ID).
		Where("messages.is_read = ? AND messages.sender_id <> ?", false, claims.ID).
		Count(&count).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"unreadCount": count})
}

// Typing sets a short-lived typing flag for the caller in the room.
func Typing(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)
	roomID, err := ctx.Params().GetUint("roomID")
	if err != nil {
		ctx.StopWithStatus(http.StatusBadRequest)
		return
	}

	if _, accessErr := chatService().VerifyRoomAccess(roomID, claims.ID); accessErr != nil {
		handleChatError(accessErr, ctx)
		return
	}

	storage.Redis.Set(ctx, typingKey(roomID, claims.ID), "1", 5*time.Second)
	ctx.JSON(iris.Map{"success": true})
}

// ListTyping reports whether the other participant is typing.
func ListTyping(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)
	roomID, err := ctx.Params().GetUint("roomID")
	if err != nil {
		ctx.StopWithStatus(http.StatusBadRequest)
		return
	}

	room, accessErr := chatService().VerifyRoomAccess(roomID, claims.ID)
	if accessErr != nil {
		handleChatError(accessErr, ctx)
		return
	}

	otherID := room.OtherParticipant(claims.ID)
	typing := false
	if val, redisErr := storage.Redis.Get(ctx, typingKey(roomID, otherID)).Result(); redisErr == nil && val == "1" {
		typing = true
	}

	ctx.JSON(iris.Map{"typing": typing, "userID": otherID})
}

func typingKey(roomID, userID uint) string {
	return fmt.Sprintf("typing:room:%d:user:%d", roomID, userID)
}

func handleChatError(err error, ctx iris.Context) {
	switch {
	case errors.Is(err, services.ErrRoomNotFound):
		utils.CreateError(iris.StatusNotFound, "Not Found", "Chat room not found.", ctx)
	case errors.Is(err, services.ErrAccessDenied):
		utils.CreateForbidden(ctx)
	default:
		utils.CreateInternalServerError(ctx)
	}
}
