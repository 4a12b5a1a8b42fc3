package activity

import (
	"errors"
	"testing"
)

func TestParseInboundMessage(t *testing.T) {
	raw := []byte(`{"type":"message","text":"hello","from":{"id":"u1"},"recipient":{"id":"bot"},"conversation":{"id":"c1"}}`)
	a, err := ParseInbound(raw)
	if err != nil {
		t.Fatalf("ParseInbound() error = %v", err)
	}
	if a.Type != TypeMessage || a.Text != "hello" || a.Conversation.ID != "c1" {
		t.Fatalf("unexpected activity: %+v", a)
	}
}

func TestParseInboundRejectsUnknownType(t *testing.T) {
	_, err := ParseInbound([]byte(`{"type":"typing","conversation":{"id":"c1"}}`))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("error = %v, want ErrUnsupportedType", err)
	}
}

func TestParseInboundRequiresConversationID(t *testing.T) {
	_, err := ParseInbound([]byte(`{"type":"message","text":"hi"}`))
	if err == nil {
		t.Fatalf("ParseInbound() should reject missing conversation id")
	}
}

func TestNewReplySwapsAddressing(t *testing.T) {
	inbound := Activity{
		Type:         TypeMessage,
		From:         Account{ID: "u1"},
		Recipient:    Account{ID: "bot"},
		Conversation: Conversation{ID: "c1"},
	}
	reply := NewReply(inbound, "hi there")
	if reply.From.ID != "bot" || reply.Recipient.ID != "u1" {
		t.Fatalf("reply addressing = from %q to %q, want from bot to u1", reply.From.ID, reply.Recipient.ID)
	}
	if reply.Conversation.ID != "c1" {
		t.Fatalf("reply conversation = %q, want c1", reply.Conversation.ID)
	}
	if reply.ID == "" {
		t.Fatalf("reply ID should not be empty")
	}
}
