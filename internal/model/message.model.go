package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAuthorHandleRequired    = errors.New("author_handle is required")
	ErrRecipientHandleRequired = errors.New("recipient_handle is required")
	ErrSubjectRequired         = errors.New("subject is required")
	ErrBodyRequired            = errors.New("body is required")
	ErrComposedAtRequired      = errors.New("composed_at is required")
)

type Message struct {
	ID              uuid.UUID  `json:"id"`
	ParentMessageID *uuid.UUID `json:"parent_message_id"`
	AuthorID        uuid.UUID  `json:"author_id"`
	Subject         string     `json:"subject"`
	Body            string     `json:"body"`
	ComposedAt      time.Time  `json:"composed_at"`
	VideoLink       *string    `json:"video_link"`
	SurveyID        *uuid.UUID `json:"survey_id"`
	SurveyResponse  *string    `json:"survey_response"`
	Active          bool       `json:"active"`
	CreatedAt       time.Time  `json:"created_at"`
}

func (Message) TableName() string { return "message" }

// MessageParams carries the author-supplied fields of a new message.
type MessageParams struct {
	Subject         string
	Body            string
	ComposedAt      time.Time
	ParentMessageID *uuid.UUID
	VideoLink       *string
	SurveyID        *uuid.UUID
	SurveyResponse  *string
}

// NewMessage builds an immutable message row. ComposedAt falls back to the
// current time when the caller left it zero.
func NewMessage(authorID uuid.UUID, p MessageParams) *Message {
	composedAt := p.ComposedAt
	if composedAt.IsZero() {
		composedAt = time.Now().UTC()
	}
	return &Message{
		ID:              uuid.New(),
		ParentMessageID: p.ParentMessageID,
		AuthorID:        authorID,
		Subject:         p.Subject,
		Body:            p.Body,
		ComposedAt:      composedAt,
		VideoLink:       p.VideoLink,
		SurveyID:        p.SurveyID,
		SurveyResponse:  p.SurveyResponse,
		Active:          true,
		CreatedAt:       time.Now().UTC(),
	}
}

// ComposeRequest is the input of the direct write path: one author, one
// recipient handle, survey by reference only.
type ComposeRequest struct {
	AuthorHandle    string
	RecipientHandle string
	Subject         string
	Body            string
	ComposedAt      time.Time
	ParentMessageID *uuid.UUID
	SurveyID        *uuid.UUID
	SurveyResponse  *string
	VideoLink       *string
}

func (r ComposeRequest) Validate() error {
	if r.AuthorHandle == "" {
		return ErrAuthorHandleRequired
	}
	if r.RecipientHandle == "" {
		return ErrRecipientHandleRequired
	}
	if r.Subject == "" {
		return ErrSubjectRequired
	}
	if r.Body == "" {
		return ErrBodyRequired
	}
	if r.ComposedAt.IsZero() {
		return ErrComposedAtRequired
	}
	return nil
}

// SendRequest is the input of the fan-out write path. Exactly one of
// RecipientHandle, OrganizationID and RegionID selects the delivery target;
// an inline survey payload creates the survey alongside the message.
type SendRequest struct {
	AuthorHandle    string
	Subject         string
	Body            string
	ComposedAt      time.Time
	RecipientHandle *string
	OrganizationID  *uuid.UUID
	RegionID        *uuid.UUID
	ParentMessageID *uuid.UUID
	VideoLink       *string
	Survey          *SurveyPayload
}

func (r SendRequest) Validate() error {
	if r.AuthorHandle == "" {
		return ErrAuthorHandleRequired
	}
	if r.Subject == "" {
		return ErrSubjectRequired
	}
	if r.Body == "" {
		return ErrBodyRequired
	}
	if _, err := r.Target(); err != nil {
		return err
	}
	if r.Survey != nil {
		if err := r.Survey.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Target resolves the request's three optional recipient fields into the
// delivery target union.
func (r SendRequest) Target() (Target, error) {
	return ResolveTarget(r.RecipientHandle, r.OrganizationID, r.RegionID)
}

// MessageFilter controls the paginated message listing.
type MessageFilter struct {
	AuthorHandle string
	Since        *time.Time // inclusive lower bound on composed_at
	Limit        int        // (0,100], default 100
	Offset       int        // >= 0
}

const DefaultListLimit = 100

// Window returns the effective limit/offset after clamping.
func (f MessageFilter) Window() (limit, offset int) {
	limit = f.Limit
	if limit <= 0 || limit > DefaultListLimit {
		limit = DefaultListLimit
	}
	offset = f.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
