package model

import (
	"time"

	"github.com/google/uuid"
)

// MessageView is the public representation of a message, assembled from the
// message row, its request's targeting intent and the attached survey.
type MessageView struct {
	ID              uuid.UUID      `json:"id"`
	ParentMessageID *uuid.UUID     `json:"parent_message_id"`
	From            AuthorRef      `json:"from"`
	To              []RecipientRef `json:"to"`
	Subject         string         `json:"subject"`
	Body            string         `json:"body"`
	ComposedAt      time.Time      `json:"composed_at"`
	VideoLink       *string        `json:"video_link"`
	Survey          *SurveyView    `json:"survey"`
}

type AuthorRef struct {
	Author string `json:"author"`
	Type   string `json:"type"`
}

type RecipientRef struct {
	Recipient string `json:"recipient"`
	Type      string `json:"type"`
}

type SurveyView struct {
	ID        uuid.UUID      `json:"id"`
	Title     string         `json:"title"`
	Questions []QuestionView `json:"questions"`
	Response  bool           `json:"response"`
	Answers   []string       `json:"answers"`
}

type QuestionView struct {
	Prompt  string   `json:"prompt"`
	Choices []string `json:"choices"`
}

// Links are the pagination cursors of a message listing.
type Links struct {
	Prev *string `json:"prev"`
	Next *string `json:"next"`
}

// ListResult is the response shape of the message listing.
type ListResult struct {
	Messages []*MessageView `json:"messages"`
	Links    Links          `json:"links"`
}
