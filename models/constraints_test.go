package models

import (
	"sync"
	"testing"

	"gorm.io/gorm/schema"
)

func parseSchema(t *testing.T, model interface{}) *schema.Schema {
	t.Helper()
	s, err := schema.Parse(model, &sync.Map{}, schema.NamingStrategy{})
	if err != nil {
		t.Fatalf("parse schema: %v", err)
	}
	return s
}

func onDelete(t *testing.T, s *schema.Schema, relation string) string {
	t.Helper()
	rel, ok := s.Relationships.Relations[relation]
	if !ok {
		t.Fatalf("%s: no %s relation", s.Name, relation)
	}
	c := rel.ParseConstraint()
	if c == nil {
		t.Fatalf("%s.%s: no foreign key constraint", s.Name, relation)
	}
	return c.OnDelete
}

// Message references to an earlier message and to a listing must null out when
// the referenced row goes away, not block its deletion.
func TestMessageReferencesNullOnDelete(t *testing.T) {
	s := parseSchema(t, &Message{})
	for _, relation := range []string{"ReplyTo", "Listing"} {
		if got := onDelete(t, s, relation); got != "SET NULL" {
			t.Fatalf("Message.%s OnDelete = %q, want SET NULL", relation, got)
		}
	}
}

// Rooms ride on their participants and property; messages ride on their room.
func TestChatRowsCascadeOnDelete(t *testing.T) {
	room := parseSchema(t, &ChatRoom{})
	for _, relation := range []string{"Landlord", "Tenant", "Property", "Messages"} {
		if got := onDelete(t, room, relation); got != "CASCADE" {
			t.Fatalf("ChatRoom.%s OnDelete = %q, want CASCADE", relation, got)
		}
	}
}
