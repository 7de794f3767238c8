package services

import (
	"sync"
	"testing"
	"time"

	"homehive-server/models"

	"gorm.io/gorm"
)

// fakeChatStore is an in-memory ChatStore for service tests.
type fakeChatStore struct {
	mu         sync.Mutex
	nextMsgID  uint
	nextRoomID uint
	rooms      map[uint]*models.ChatRoom
	messages   map[uint]*models.Message
	properties map[uint]*models.Property
	users      map[uint]*models.User
}

func newFakeChatStore() *fakeChatStore {
	return &fakeChatStore{
		nextMsgID:  1,
		nextRoomID: 1,
		rooms:      make(map[uint]*models.ChatRoom),
		messages:   make(map[uint]*models.Message),
		properties: make(map[uint]*models.Property),
		users:      make(map[uint]*models.User),
	}
}

func (f *fakeChatStore) addRoom(landlordID, tenantID, propertyID uint) *models.ChatRoom {
	f.mu.Lock()
	defer f.mu.Unlock()
	room := &models.ChatRoom{LandlordID: landlordID, TenantID: tenantID, PropertyID: propertyID}
	room.ID = f.nextRoomID
	f.nextRoomID++
	f.rooms[room.ID] = room
	return room
}

func (f *fakeChatStore) addUser(id uint, firstName, lastName, email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &models.User{FirstName: firstName, LastName: lastName, Email: email}
	u.ID = id
	f.users[id] = u
}

func (f *fakeChatStore) addProperty(id, landlordID uint, title, coverURL string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := &models.Property{LandlordID: landlordID, Title: title}
	p.ID = id
	if coverURL != "" {
		p.Images = []models.PropertyImage{{ImageURL: coverURL, IsCover: true}}
	}
	f.properties[id] = p
}

func (f *fakeChatStore) RoomByID(id uint) (*models.ChatRoom, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return room, nil
}

func (f *fakeChatStore) GetOrCreateRoom(landlordID, tenantID, propertyID uint) (*models.ChatRoom, bool, error) {
	f.mu.Lock()
	for _, room := range f.rooms {
		if room.LandlordID == landlordID && room.TenantID == tenantID && room.PropertyID == propertyID {
			f.mu.Unlock()
			return room, false, nil
		}
	}
	f.mu.Unlock()
	return f.addRoom(landlordID, tenantID, propertyID), true, nil
}

func (f *fakeChatStore) MessageByID(id uint) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.messages[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return msg, nil
}

func (f *fakeChatStore) PropertyByID(id uint) (*models.Property, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.properties[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (f *fakeChatStore) UserByID(id uint) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (f *fakeChatStore) CreateMessage(m *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m.ID = f.nextMsgID
	f.nextMsgID++
	m.CreatedAt = time.Now()
	stored := *m
	f.messages[m.ID] = &stored
	return nil
}

func (f *fakeChatStore) TouchRoom(roomID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if room, ok := f.rooms[roomID]; ok {
		room.UpdatedAt = time.Now()
	}
	return nil
}

func (f *fakeChatStore) MarkRead(roomID, readerID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, msg := range f.messages {
		if msg.RoomID == roomID && !msg.IsRead && msg.SenderID != readerID {
			msg.IsRead = true
		}
	}
	return nil
}

func (f *fakeChatStore) UnreadCount(roomID, userID uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, msg := range f.messages {
		if msg.RoomID == roomID && !msg.IsRead && msg.SenderID != userID {
			count++
		}
	}
	return count, nil
}

func newTestChatService() (*ChatService, *fakeChatStore, *EventBus) {
	store := newFakeChatStore()
	bus := NewEventBus()
	return NewChatService(store, bus), store, bus
}

func TestVerifyRoomAccess(t *testing.T) {
	svc, store, _ := newTestChatService()
	room := store.addRoom(1, 2, 10)

	if _, err := svc.VerifyRoomAccess(room.ID, 1); err != nil {
		t.Fatalf("landlord should have access: %v", err)
	}
	if _, err := svc.VerifyRoomAccess(room.ID, 2); err != nil {
		t.Fatalf("tenant should have access: %v", err)
	}
	if _, err := svc.VerifyRoomAccess(room.ID, 99); err != ErrAccessDenied {
		t.Fatalf("expected ErrAccessDenied for outsider, got %v", err)
	}
	if _, err := svc.VerifyRoomAccess(room.ID, 0); err != ErrAccessDenied {
		t.Fatalf("expected ErrAccessDenied for anonymous caller, got %v", err)
	}
	if _, err := svc.VerifyRoomAccess(404, 1); err != ErrRoomNotFound {
		t.Fatalf("expected ErrRoomNotFound for unknown room, got %v", err)
	}
}

func TestSendRejectsEmptyContent(t *testing.T) {
	svc, store, _ := newTestChatService()
	room := store.addRoom(1, 2, 10)

	for _, content := range []string{"", "   ", "\n\t "} {
		if _, err := svc.Send(SendMessageInput{RoomID: room.ID, SenderID: 2, Content: content}); err != ErrEmptyContent {
			t.Fatalf("content %q: expected ErrEmptyContent, got %v", content, err)
		}
	}
	if len(store.messages) != 0 {
		t.Fatalf("no message rows should exist, got %d", len(store.messages))
	}
}

func TestSendDeniesOutsider(t *testing.T) {
	svc, store, _ := newTestChatService()
	room := store.addRoom(1, 2, 10)

	if _, err := svc.Send(SendMessageInput{RoomID: room.ID, SenderID: 99, Content: "hi"}); err != ErrAccessDenied {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
	if len(store.messages) != 0 {
		t.Fatalf("no message rows should exist, got %d", len(store.messages))
	}
}

func TestSendTrimsAndPersists(t *testing.T) {
	svc, store, _ := newTestChatService()
	room := store.addRoom(1, 2, 10)
	store.addUser(2, "Amina", "Khan", "amina@example.com")

	payload, err := svc.Send(SendMessageInput{RoomID: room.ID, SenderID: 2, Content: "  hello there  "})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if payload.Content != "hello there" {
		t.Fatalf("expected trimmed content, got %q", payload.Content)
	}
	if payload.SenderName != "Amina Khan" {
		t.Fatalf("expected sender name, got %q", payload.SenderName)
	}
	if stored := store.messages[payload.ID]; stored == nil || stored.Content != "hello there" {
		t.Fatalf("message not persisted correctly: %+v", stored)
	}
}

func TestSenderNameFallsBackToEmailHandle(t *testing.T) {
	svc, store, _ := newTestChatService()
	room := store.addRoom(1, 2, 10)
	store.addUser(2, "", "", "tenant42@example.com")

	payload, err := svc.Send(SendMessageInput{RoomID: room.ID, SenderID: 2, Content: "hi"})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if payload.SenderName != "tenant42" {
		t.Fatalf("expected email handle fallback, got %q", payload.SenderName)
	}
}

func TestReplyToSameRoomIsKept(t *testing.T) {
	svc, store, _ := newTestChatService()
	room := store.addRoom(1, 2, 10)
	store.addUser(1, "Leo", "Park", "leo@example.com")
	store.addUser(2, "Amina", "Khan", "amina@example.com")

	first, err := svc.Send(SendMessageInput{RoomID: room.ID, SenderID: 1, Content: "is it available?"})
	if err != nil {
		t.Fatalf("first send failed: %v", err)
	}

	reply, err := svc.Send(SendMessageInput{RoomID: room.ID, SenderID: 2, Content: "yes it is", ReplyToID: &first.ID})
	if err != nil {
		t.Fatalf("reply send failed: %v", err)
	}
	if reply.ReplyTo == nil {
		t.Fatal("expected reply preview")
	}
	if reply.ReplyTo.ID != first.ID || reply.ReplyTo.Content != "is it available?" || reply.ReplyTo.SenderName != "Leo Park" {
		t.Fatalf("bad reply preview: %+v", reply.ReplyTo)
	}
}

func TestReplyToOtherRoomIsDropped(t *testing.T) {
	svc, store, _ := newTestChatService()
	roomA := store.addRoom(1, 2, 10)
	roomB := store.addRoom(1, 3, 10)

	foreign, err := svc.Send(SendMessageInput{RoomID: roomB.ID, SenderID: 3, Content: "other room"})
	if err != nil {
		t.Fatalf("setup send failed: %v", err)
	}

	payload, err := svc.Send(SendMessageInput{RoomID: roomA.ID, SenderID: 2, Content: "hi", ReplyToID: &foreign.ID})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if payload.ReplyTo != nil {
		t.Fatalf("cross-room reply reference should be dropped, got %+v", payload.ReplyTo)
	}
	if stored := store.messages[payload.ID]; stored.ReplyToID != nil {
		t.Fatalf("persisted ReplyToID should be nil, got %v", *stored.ReplyToID)
	}
}

func TestListingEnrichment(t *testing.T) {
	svc, store, _ := newTestChatService()
	room := store.addRoom(1, 2, 10)
	store.addProperty(10, 1, "Sunny 2BR", "https://img.example.com/cover.jpg")

	listingID := uint(10)
	payload, err := svc.Send(SendMessageInput{RoomID: room.ID, SenderID: 2, Content: "look at this", ListingID: &listingID})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if payload.Listing == nil {
		t.Fatal("expected listing preview")
	}
	if payload.Listing.Title != "Sunny 2BR" || payload.Listing.CoverImageURL != "https://img.example.com/cover.jpg" {
		t.Fatalf("bad listing preview: %+v", payload.Listing)
	}

	// Unknown listing is dropped, not an error.
	badID := uint(404)
	payload2, err := svc.Send(SendMessageInput{RoomID: room.ID, SenderID: 2, Content: "and this", ListingID: &badID})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if payload2.Listing != nil {
		t.Fatalf("unknown listing reference should be dropped, got %+v", payload2.Listing)
	}
}

func TestSendPublishesMessageCreated(t *testing.T) {
	svc, store, bus := newTestChatService()
	room := store.addRoom(1, 2, 10)

	received := make(chan MessageCreated, 1)
	bus.Subscribe("test", func(event interface{}) {
		if e, ok := event.(MessageCreated); ok {
			received <- e
		}
	})

	payload, err := svc.Send(SendMessageInput{RoomID: room.ID, SenderID: 2, Content: "hello"})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}

	select {
	case e := <-received:
		if e.RoomID != room.ID || e.SenderID != 2 || e.RecipientID != 1 {
			t.Fatalf("bad event: %+v", e)
		}
		if e.Message.ID != payload.ID {
			t.Fatalf("event message %d != payload %d", e.Message.ID, payload.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for MessageCreated")
	}
}

func TestMarkReadOnlyFlagsOthersMessages(t *testing.T) {
	svc, store, _ := newTestChatService()
	room := store.addRoom(1, 2, 10)

	if _, err := svc.Send(SendMessageInput{RoomID: room.ID, SenderID: 1, Content: "from landlord"}); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	mine, err := svc.Send(SendMessageInput{RoomID: room.ID, SenderID: 2, Content: "from tenant"})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if err := svc.MarkRead(room.ID, 2); err != nil {
		t.Fatalf("mark read failed: %v", err)
	}

	count, err := svc.UnreadCount(room.ID, 2)
	if err != nil || count != 0 {
		t.Fatalf("tenant unread = %d, err %v; want 0", count, err)
	}
	if store.messages[mine.ID].IsRead {
		t.Fatal("the reader's own message must stay unread for the other side")
	}
	landlordUnread, _ := svc.UnreadCount(room.ID, 1)
	if landlordUnread != 1 {
		t.Fatalf("landlord unread = %d, want 1", landlordUnread)
	}

	// Idempotent.
	if err := svc.MarkRead(room.ID, 2); err != nil {
		t.Fatalf("second mark read failed: %v", err)
	}
}

func TestMarkReadRequiresMembership(t *testing.T) {
	svc, store, _ := newTestChatService()
	room := store.addRoom(1, 2, 10)

	if err := svc.MarkRead(room.ID, 99); err != ErrAccessDenied {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
}

func TestGetOrCreateRoomIdempotent(t *testing.T) {
	svc, store, _ := newTestChatService()
	store.addProperty(10, 1, "Sunny 2BR", "")

	room1, created1, err := svc.GetOrCreateRoom(2, 10)
	if err != nil || !created1 {
		t.Fatalf("first call: room %v created %v err %v", room1, created1, err)
	}
	if room1.LandlordID != 1 || room1.TenantID != 2 || room1.PropertyID != 10 {
		t.Fatalf("bad room triple: %+v", room1)
	}

	room2, created2, err := svc.GetOrCreateRoom(2, 10)
	if err != nil || created2 {
		t.Fatalf("second call should reuse the room: created %v err %v", created2, err)
	}
	if room2.ID != room1.ID {
		t.Fatalf("expected same room, got %d and %d", room1.ID, room2.ID)
	}
}

func TestGetOrCreateRoomUnknownProperty(t *testing.T) {
	svc, _, _ := newTestChatService()

	if _, _, err := svc.GetOrCreateRoom(2, 404); err != ErrListingNotFound {
		t.Fatalf("expected ErrListingNotFound, got %v", err)
	}
}
