package activity

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Type identifies inbound and outbound activity variants.
type Type string

const (
	TypeMessage            Type = "message"
	TypeConversationUpdate Type = "conversationUpdate"
)

// HeroCardContentType is the attachment content type for rich photo cards.
const HeroCardContentType = "application/vnd.microsoft.card.hero"

// ActionTypeIMBack marks a card action whose value is echoed back into the
// conversation as the next inbound message text.
const ActionTypeIMBack = "imBack"

var ErrUnsupportedType = errors.New("unsupported activity type")

// Account identifies one conversation participant.
type Account struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Conversation identifies the conversation an activity belongs to.
type Conversation struct {
	ID string `json:"id"`
}

// Activity is one normalized chat event, inbound or outbound.
type Activity struct {
	Type         Type         `json:"type"`
	ID           string       `json:"id,omitempty"`
	Text         string       `json:"text,omitempty"`
	From         Account      `json:"from"`
	Recipient    Account      `json:"recipient"`
	Conversation Conversation `json:"conversation"`
	MembersAdded []Account    `json:"membersAdded,omitempty"`
	Attachments  []Attachment `json:"attachments,omitempty"`
}

// Attachment wraps one rich card in an outbound activity.
type Attachment struct {
	ContentType string   `json:"contentType"`
	Content     HeroCard `json:"content"`
}

// HeroCard is a rich reply unit: text, one image, selectable actions.
type HeroCard struct {
	Title    string       `json:"title"`
	Subtitle string       `json:"subtitle,omitempty"`
	Images   []CardImage  `json:"images,omitempty"`
	Buttons  []CardAction `json:"buttons,omitempty"`
}

type CardImage struct {
	URL string `json:"url"`
}

// CardAction is a quick-reply button; for imBack actions the value becomes
// the next inbound message text when invoked.
type CardAction struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	Value string `json:"value"`
}

// ParseInbound decodes and validates one inbound webhook activity.
func ParseInbound(raw []byte) (Activity, error) {
	var a Activity
	if err := json.Unmarshal(raw, &a); err != nil {
		return Activity{}, fmt.Errorf("invalid activity: %w", err)
	}

	switch a.Type {
	case TypeMessage:
		if a.Conversation.ID == "" {
			return Activity{}, errors.New("message activity missing conversation id")
		}
		return a, nil
	case TypeConversationUpdate:
		if a.Conversation.ID == "" {
			return Activity{}, errors.New("conversationUpdate activity missing conversation id")
		}
		return a, nil
	default:
		return Activity{}, ErrUnsupportedType
	}
}

// NewReply builds an outbound text message addressed back to the sender of
// the inbound activity.
func NewReply(inbound Activity, text string) Activity {
	return Activity{
		Type:         TypeMessage,
		ID:           uuid.NewString(),
		Text:         text,
		From:         inbound.Recipient,
		Recipient:    inbound.From,
		Conversation: inbound.Conversation,
	}
}

// NewCardReply builds an outbound message carrying the full card batch as
// attachments.
func NewCardReply(inbound Activity, cards []Attachment) Activity {
	a := NewReply(inbound, "")
	a.Attachments = cards
	return a
}
