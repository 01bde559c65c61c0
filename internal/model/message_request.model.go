package model

import (
	"time"

	"github.com/google/uuid"
)

// MessageRequest records the targeting intent of one authoring request.
// Created once, never mutated.
type MessageRequest struct {
	ID                      uuid.UUID  `json:"id"`
	AuthorHandle            string     `json:"author_handle"`
	RecipientHandle         *string    `json:"recipient_handle"`
	RecipientOrganizationID *uuid.UUID `json:"recipient_organization_id"`
	RecipientRegionID       *uuid.UUID `json:"recipient_region_id"`
	ParentMessageID         *uuid.UUID `json:"parent_message_id"`
	MessageID               uuid.UUID  `json:"message_id"`
	CreatedAt               time.Time  `json:"created_at"`
}

func (MessageRequest) TableName() string { return "message_request" }

// NewMessageRequest builds the audit row for a message. The resolved target
// populates exactly one of the three recipient columns.
func NewMessageRequest(messageID uuid.UUID, authorHandle string, target Target, parentMessageID *uuid.UUID) *MessageRequest {
	r := &MessageRequest{
		ID:              uuid.New(),
		AuthorHandle:    authorHandle,
		MessageID:       messageID,
		ParentMessageID: parentMessageID,
		CreatedAt:       time.Now().UTC(),
	}
	switch target.Kind {
	case TargetDirect:
		handle := target.Handle
		r.RecipientHandle = &handle
	case TargetOrganization:
		id := target.OrganizationID
		r.RecipientOrganizationID = &id
	case TargetRegion:
		id := target.RegionID
		r.RecipientRegionID = &id
	}
	return r
}

// Target reconstructs the delivery target recorded on the request.
func (r *MessageRequest) Target() (Target, error) {
	return ResolveTarget(r.RecipientHandle, r.RecipientOrganizationID, r.RecipientRegionID)
}
