package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/nimasrn/messaging-api/internal/model"
	"github.com/nimasrn/messaging-api/internal/services"
	xhttp "github.com/nimasrn/messaging-api/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

type MockMessageService struct {
	mock.Mock
}

func (m *MockMessageService) Compose(ctx context.Context, req model.ComposeRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockMessageService) Send(ctx context.Context, req model.SendRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockMessageService) List(ctx context.Context, f model.MessageFilter) ([]*model.MessageView, model.Links, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(model.Links), args.Error(2)
	}
	return args.Get(0).([]*model.MessageView), args.Get(1).(model.Links), args.Error(2)
}

func (m *MockMessageService) Get(ctx context.Context, id uuid.UUID) (*model.MessageView, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MessageView), args.Error(1)
}

func setupTestContext(method, path string, body []byte) *xhttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(path)
	if body != nil {
		ctx.Request.SetBody(body)
	}
	return ctx
}

func errorMessage(t *testing.T, ctx *xhttp.RequestCtx) string {
	t.Helper()
	var response map[string]string
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &response))
	return response["message"]
}

func validComposeBody() composeMessageRequest {
	return composeMessageRequest{
		AuthorHandle:    "author",
		RecipientHandle: "recipient",
		Subject:         "Subject",
		Body:            "Body",
		ComposedAt:      "2024-05-01T12:00:00Z",
	}
}

func TestMessageHandler_ComposeMessage(t *testing.T) {
	t.Run("successful compose returns 204 with empty body", func(t *testing.T) {
		svc := new(MockMessageService)
		handler := NewMessageHandler(svc)

		bodyBytes, _ := json.Marshal(validComposeBody())
		svc.On("Compose", mock.Anything, mock.MatchedBy(func(p model.ComposeRequest) bool {
			return p.AuthorHandle == "author" && p.RecipientHandle == "recipient" && !p.ComposedAt.IsZero()
		})).Return(nil)

		ctx := setupTestContext("POST", "/message", bodyBytes)
		handler.ComposeMessage(ctx)

		assert.Equal(t, 204, ctx.Response.StatusCode())
		assert.Empty(t, ctx.Response.Body())
		svc.AssertExpectations(t)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		svc := new(MockMessageService)
		handler := NewMessageHandler(svc)

		ctx := setupTestContext("POST", "/message", []byte("invalid json"))
		handler.ComposeMessage(ctx)

		assert.Equal(t, 422, ctx.Response.StatusCode())
		assert.Contains(t, errorMessage(t, ctx), "invalid JSON")
	})

	t.Run("missing composed_at", func(t *testing.T) {
		svc := new(MockMessageService)
		handler := NewMessageHandler(svc)

		body := validComposeBody()
		body.ComposedAt = ""
		bodyBytes, _ := json.Marshal(body)

		ctx := setupTestContext("POST", "/message", bodyBytes)
		handler.ComposeMessage(ctx)

		assert.Equal(t, 422, ctx.Response.StatusCode())
		assert.Equal(t, "composed_at is required", errorMessage(t, ctx))
		svc.AssertNotCalled(t, "Compose", mock.Anything, mock.Anything)
	})

	t.Run("malformed parent_message_id", func(t *testing.T) {
		svc := new(MockMessageService)
		handler := NewMessageHandler(svc)

		bad := "not-a-uuid"
		body := validComposeBody()
		body.ParentMessageID = &bad
		bodyBytes, _ := json.Marshal(body)

		ctx := setupTestContext("POST", "/message", bodyBytes)
		handler.ComposeMessage(ctx)

		assert.Equal(t, 422, ctx.Response.StatusCode())
	})

	t.Run("malformed video_link", func(t *testing.T) {
		svc := new(MockMessageService)
		handler := NewMessageHandler(svc)

		bad := "::not a uri"
		body := validComposeBody()
		body.VideoLink = &bad
		bodyBytes, _ := json.Marshal(body)

		ctx := setupTestContext("POST", "/message", bodyBytes)
		handler.ComposeMessage(ctx)

		assert.Equal(t, 422, ctx.Response.StatusCode())
	})

	t.Run("author handle not found maps to 404", func(t *testing.T) {
		svc := new(MockMessageService)
		handler := NewMessageHandler(svc)

		bodyBytes, _ := json.Marshal(validComposeBody())
		svc.On("Compose", mock.Anything, mock.Anything).Return(services.ErrAuthorNotFound)

		ctx := setupTestContext("POST", "/message", bodyBytes)
		handler.ComposeMessage(ctx)

		assert.Equal(t, 404, ctx.Response.StatusCode())
		assert.Equal(t, "Author handle not found", errorMessage(t, ctx))
	})

	t.Run("unexpected error maps to 500 with generic body", func(t *testing.T) {
		svc := new(MockMessageService)
		handler := NewMessageHandler(svc)

		bodyBytes, _ := json.Marshal(validComposeBody())
		svc.On("Compose", mock.Anything, mock.Anything).Return(errors.New("pq: connection refused"))

		ctx := setupTestContext("POST", "/message", bodyBytes)
		handler.ComposeMessage(ctx)

		assert.Equal(t, 500, ctx.Response.StatusCode())
		assert.NotContains(t, errorMessage(t, ctx), "pq:")
	})
}

func TestMessageHandler_SendMessage(t *testing.T) {
	t.Run("successful send returns 204", func(t *testing.T) {
		svc := new(MockMessageService)
		handler := NewMessageHandler(svc)

		handle := "recipient"
		reqBody := sendMessageRequest{
			AuthorHandle:    "author",
			Subject:         "Subject",
			Body:            "Body",
			RecipientHandle: &handle,
		}
		bodyBytes, _ := json.Marshal(reqBody)

		svc.On("Send", mock.Anything, mock.MatchedBy(func(p model.SendRequest) bool {
			return p.AuthorHandle == "author" && p.RecipientHandle != nil && *p.RecipientHandle == "recipient"
		})).Return(nil)

		ctx := setupTestContext("POST", "/message/send", bodyBytes)
		handler.SendMessage(ctx)

		assert.Equal(t, 204, ctx.Response.StatusCode())
		svc.AssertExpectations(t)
	})

	t.Run("survey payload is passed through", func(t *testing.T) {
		svc := new(MockMessageService)
		handler := NewMessageHandler(svc)

		orgID := uuid.New().String()
		reqBody := sendMessageRequest{
			AuthorHandle:   "author",
			Subject:        "Subject",
			Body:           "Body",
			OrganizationID: &orgID,
			Survey: &sendSurveyPayload{
				Title: "Quick check",
				Questions: []sendSurveyQuestions{
					{Prompt: "Did it rain?", Choices: []string{"yes", "no"}},
				},
			},
		}
		bodyBytes, _ := json.Marshal(reqBody)

		svc.On("Send", mock.Anything, mock.MatchedBy(func(p model.SendRequest) bool {
			return p.Survey != nil && p.Survey.Title == "Quick check" && len(p.Survey.Questions) == 1
		})).Return(nil)

		ctx := setupTestContext("POST", "/message/send", bodyBytes)
		handler.SendMessage(ctx)

		assert.Equal(t, 204, ctx.Response.StatusCode())
		svc.AssertExpectations(t)
	})

	t.Run("target violation maps to 422", func(t *testing.T) {
		svc := new(MockMessageService)
		handler := NewMessageHandler(svc)

		reqBody := sendMessageRequest{AuthorHandle: "author", Subject: "Subject", Body: "Body"}
		bodyBytes, _ := json.Marshal(reqBody)
		svc.On("Send", mock.Anything, mock.Anything).Return(model.ErrInvalidTarget)

		ctx := setupTestContext("POST", "/message/send", bodyBytes)
		handler.SendMessage(ctx)

		assert.Equal(t, 422, ctx.Response.StatusCode())
	})

	t.Run("empty organization maps to 422 with exact message", func(t *testing.T) {
		svc := new(MockMessageService)
		handler := NewMessageHandler(svc)

		orgID := uuid.New().String()
		reqBody := sendMessageRequest{AuthorHandle: "author", Subject: "Subject", Body: "Body", OrganizationID: &orgID}
		bodyBytes, _ := json.Marshal(reqBody)
		svc.On("Send", mock.Anything, mock.Anything).Return(services.ErrNoGroundUsersOrg)

		ctx := setupTestContext("POST", "/message/send", bodyBytes)
		handler.SendMessage(ctx)

		assert.Equal(t, 422, ctx.Response.StatusCode())
		assert.Equal(t, "No ground users found in the specified organization", errorMessage(t, ctx))
	})

	t.Run("malformed organization_id", func(t *testing.T) {
		svc := new(MockMessageService)
		handler := NewMessageHandler(svc)

		bad := "42"
		reqBody := sendMessageRequest{AuthorHandle: "author", Subject: "Subject", Body: "Body", OrganizationID: &bad}
		bodyBytes, _ := json.Marshal(reqBody)

		ctx := setupTestContext("POST", "/message/send", bodyBytes)
		handler.SendMessage(ctx)

		assert.Equal(t, 422, ctx.Response.StatusCode())
		svc.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})
}

func TestMessageHandler_ListMessages(t *testing.T) {
	t.Run("missing author_handle", func(t *testing.T) {
		svc := new(MockMessageService)
		handler := NewMessageHandler(svc)

		ctx := setupTestContext("GET", "/message", nil)
		handler.ListMessages(ctx)

		assert.Equal(t, 422, ctx.Response.StatusCode())
		svc.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	})

	t.Run("limit out of range", func(t *testing.T) {
		svc := new(MockMessageService)
		handler := NewMessageHandler(svc)

		ctx := setupTestContext("GET", "/message?author_handle=author&limit=101", nil)
		handler.ListMessages(ctx)

		assert.Equal(t, 422, ctx.Response.StatusCode())
	})

	t.Run("unknown author maps to 404", func(t *testing.T) {
		svc := new(MockMessageService)
		handler := NewMessageHandler(svc)

		svc.On("List", mock.Anything, mock.Anything).Return(nil, model.Links{}, services.ErrAuthorNotFound)

		ctx := setupTestContext("GET", "/message?author_handle=ghost", nil)
		handler.ListMessages(ctx)

		assert.Equal(t, 404, ctx.Response.StatusCode())
	})

	t.Run("successful listing returns messages and links", func(t *testing.T) {
		svc := new(MockMessageService)
		handler := NewMessageHandler(svc)

		next := "/message?author_handle=author&limit=1&offset=1"
		views := []*model.MessageView{
			{ID: uuid.New(), Subject: "Subject", Body: "Body", From: model.AuthorRef{Author: "author", Type: "user"}},
		}
		svc.On("List", mock.Anything, mock.MatchedBy(func(f model.MessageFilter) bool {
			return f.AuthorHandle == "author" && f.Limit == 1 && f.Offset == 0
		})).Return(views, model.Links{Next: &next}, nil)

		ctx := setupTestContext("GET", "/message?author_handle=author&limit=1", nil)
		handler.ListMessages(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())

		var response struct {
			Messages []json.RawMessage `json:"messages"`
			Links    model.Links       `json:"links"`
		}
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &response))
		assert.Len(t, response.Messages, 1)
		assert.Nil(t, response.Links.Prev)
		require.NotNil(t, response.Links.Next)
		assert.Equal(t, next, *response.Links.Next)
	})

	t.Run("empty result serializes as an empty array", func(t *testing.T) {
		svc := new(MockMessageService)
		handler := NewMessageHandler(svc)

		svc.On("List", mock.Anything, mock.Anything).Return([]*model.MessageView{}, model.Links{}, nil)

		ctx := setupTestContext("GET", "/message?author_handle=author", nil)
		handler.ListMessages(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		assert.Contains(t, string(ctx.Response.Body()), `"messages":[]`)
	})
}

func TestMessageHandler_GetMessage(t *testing.T) {
	t.Run("malformed id", func(t *testing.T) {
		svc := new(MockMessageService)
		handler := NewMessageHandler(svc)

		ctx := setupTestContext("GET", "/message/abc", nil)
		ctx.SetUserValue("message_id", "abc")
		handler.GetMessage(ctx)

		assert.Equal(t, 422, ctx.Response.StatusCode())
	})

	t.Run("missing message maps to 404", func(t *testing.T) {
		svc := new(MockMessageService)
		handler := NewMessageHandler(svc)

		id := uuid.New()
		svc.On("Get", mock.Anything, id).Return(nil, services.ErrMessageNotFound)

		ctx := setupTestContext("GET", "/message/"+id.String(), nil)
		ctx.SetUserValue("message_id", id.String())
		handler.GetMessage(ctx)

		assert.Equal(t, 404, ctx.Response.StatusCode())
	})

	t.Run("existing message", func(t *testing.T) {
		svc := new(MockMessageService)
		handler := NewMessageHandler(svc)

		id := uuid.New()
		view := &model.MessageView{ID: id, Subject: "Subject", Body: "Body"}
		svc.On("Get", mock.Anything, id).Return(view, nil)

		ctx := setupTestContext("GET", "/message/"+id.String(), nil)
		ctx.SetUserValue("message_id", id.String())
		handler.GetMessage(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())

		var response model.MessageView
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &response))
		assert.Equal(t, id, response.ID)
	})
}
