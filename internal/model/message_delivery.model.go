package model

import (
	"time"

	"github.com/google/uuid"
)

// MessageDelivery is the per-recipient record of a dispatched message.
// ParentMessageID holds the id of the delivery this one replies to (not the
// parent message id), chaining a recipient's thread across messages.
type MessageDelivery struct {
	ID              uuid.UUID  `json:"id"`
	MessageID       uuid.UUID  `json:"message_id"`
	RecipientID     uuid.UUID  `json:"recipient_id"`
	ParentMessageID *uuid.UUID `json:"parent_message_id"`
	CreatedAt       time.Time  `json:"created_at"`
}

func (MessageDelivery) TableName() string { return "message_delivery" }

func NewMessageDelivery(messageID, recipientID uuid.UUID, parentDeliveryID *uuid.UUID) *MessageDelivery {
	return &MessageDelivery{
		ID:              uuid.New(),
		MessageID:       messageID,
		RecipientID:     recipientID,
		ParentMessageID: parentDeliveryID,
		CreatedAt:       time.Now().UTC(),
	}
}
