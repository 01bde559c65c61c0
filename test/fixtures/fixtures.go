package fixtures

import (
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/messaging-api/internal/model"
)

var (
	TestAuthorHandle    = "alice"
	TestRecipientHandle = "bob"
	TestThirdHandle     = "carol"

	TestOrganizationID = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	TestRegionID       = uuid.MustParse("22222222-2222-2222-2222-222222222222")
)

func NewComposeRequest(authorHandle, recipientHandle string) model.ComposeRequest {
	return model.ComposeRequest{
		AuthorHandle:    authorHandle,
		RecipientHandle: recipientHandle,
		Subject:         "Weekly update",
		Body:            "Everything is on track.",
		ComposedAt:      time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

func NewDirectSendRequest(authorHandle, recipientHandle string) model.SendRequest {
	return model.SendRequest{
		AuthorHandle:    authorHandle,
		Subject:         "Direct notice",
		Body:            "Please read this.",
		RecipientHandle: &recipientHandle,
	}
}

func NewOrganizationSendRequest(authorHandle string, organizationID uuid.UUID) model.SendRequest {
	return model.SendRequest{
		AuthorHandle:   authorHandle,
		Subject:        "Org-wide notice",
		Body:           "All hands on deck.",
		OrganizationID: &organizationID,
	}
}

func NewRegionSendRequest(authorHandle string, regionID uuid.UUID) model.SendRequest {
	return model.SendRequest{
		AuthorHandle: authorHandle,
		Subject:      "Regional notice",
		Body:         "Weather warning for the area.",
		RegionID:     &regionID,
	}
}

func NewSurveyPayload() model.SurveyPayload {
	return model.SurveyPayload{
		Title: "Readiness check",
		Questions: []model.QuestionPayload{
			{Prompt: "Are you available?", Choices: []string{"yes", "no"}},
			{Prompt: "Do you need supplies?", Choices: []string{"yes", "no", "unsure"}},
		},
	}
}

func OversizedSurveyPayload() model.SurveyPayload {
	return model.SurveyPayload{
		Title: "Too many questions",
		Questions: []model.QuestionPayload{
			{Prompt: "Q1", Choices: []string{"a", "b"}},
			{Prompt: "Q2", Choices: []string{"a", "b"}},
			{Prompt: "Q3", Choices: []string{"a", "b"}},
			{Prompt: "Q4", Choices: []string{"a", "b"}},
		},
	}
}

func FilterForAuthor(authorHandle string) model.MessageFilter {
	return model.MessageFilter{
		AuthorHandle: authorHandle,
		Limit:        model.DefaultListLimit,
		Offset:       0,
	}
}

func FilterWithPagination(authorHandle string, limit, offset int) model.MessageFilter {
	return model.MessageFilter{
		AuthorHandle: authorHandle,
		Limit:        limit,
		Offset:       offset,
	}
}

func FilterSince(authorHandle string, since time.Time) model.MessageFilter {
	return model.MessageFilter{
		AuthorHandle: authorHandle,
		Since:        &since,
		Limit:        model.DefaultListLimit,
	}
}
