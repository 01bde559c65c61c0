package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"time"

	"github.com/fasthttp/router"
	"github.com/google/uuid"
	"github.com/nimasrn/messaging-api/internal/model"
	"github.com/nimasrn/messaging-api/internal/services"
	xhttp "github.com/nimasrn/messaging-api/pkg/http"
)

type MessageService interface {
	Compose(ctx context.Context, req model.ComposeRequest) error
	Send(ctx context.Context, req model.SendRequest) error
	List(ctx context.Context, f model.MessageFilter) ([]*model.MessageView, model.Links, error)
	Get(ctx context.Context, id uuid.UUID) (*model.MessageView, error)
}

type MessageHandler struct {
	svc MessageService
}

func RegisterMessageRoutes(e *router.Group, h *MessageHandler) {
	e.POST("/message", h.ComposeMessage)
	e.POST("/message/send", h.SendMessage)
	e.GET("/message", h.ListMessages)
	e.GET("/message/{message_id}", h.GetMessage)
}

func NewMessageHandler(messageService MessageService) *MessageHandler {
	return &MessageHandler{
		svc: messageService,
	}
}

type composeMessageRequest struct {
	AuthorHandle    string  `json:"author_handle"`
	RecipientHandle string  `json:"recipient_handle"`
	Subject         string  `json:"subject"`
	Body            string  `json:"body"`
	ComposedAt      string  `json:"composed_at"`
	ParentMessageID *string `json:"parent_message_id"`
	SurveyID        *string `json:"survey_id"`
	SurveyResponse  *string `json:"survey_response"`
	VideoLink       *string `json:"video_link"`
}

type sendMessageRequest struct {
	AuthorHandle    string             `json:"author_handle"`
	Subject         string             `json:"subject"`
	Body            string             `json:"body"`
	ComposedAt      *string            `json:"composed_at"`
	RecipientHandle *string            `json:"recipient_handle"`
	OrganizationID  *string            `json:"organization_id"`
	RegionID        *string            `json:"region_id"`
	ParentMessageID *string            `json:"parent_message_id"`
	VideoLink       *string            `json:"video_link"`
	Survey          *sendSurveyPayload `json:"survey"`
}

type sendSurveyPayload struct {
	Title     string                `json:"title"`
	Questions []sendSurveyQuestions `json:"questions"`
}

type sendSurveyQuestions struct {
	Prompt  string   `json:"prompt"`
	Choices []string `json:"choices"`
}

/* --------------------------------- Routes ----------------------------------- */

func (h *MessageHandler) ComposeMessage(ctx *xhttp.RequestCtx) {
	var req composeMessageRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusUnprocessableEntity, "invalid JSON: "+err.Error())
		return
	}

	if req.ComposedAt == "" {
		writeError(ctx, xhttp.StatusUnprocessableEntity, model.ErrComposedAtRequired.Error())
		return
	}
	composedAt, err := parseTime(req.ComposedAt)
	if err != nil {
		writeError(ctx, xhttp.StatusUnprocessableEntity, "composed_at must be an ISO timestamp")
		return
	}

	parentMessageID, err := parseOptionalUUID(req.ParentMessageID)
	if err != nil {
		writeError(ctx, xhttp.StatusUnprocessableEntity, "parent_message_id must be a valid uuid")
		return
	}
	surveyID, err := parseOptionalUUID(req.SurveyID)
	if err != nil {
		writeError(ctx, xhttp.StatusUnprocessableEntity, "survey_id must be a valid uuid")
		return
	}
	if err := validateVideoLink(req.VideoLink); err != nil {
		writeError(ctx, xhttp.StatusUnprocessableEntity, "video_link must be a valid uri")
		return
	}

	p := model.ComposeRequest{
		AuthorHandle:    req.AuthorHandle,
		RecipientHandle: req.RecipientHandle,
		Subject:         req.Subject,
		Body:            req.Body,
		ComposedAt:      composedAt,
		ParentMessageID: parentMessageID,
		SurveyID:        surveyID,
		SurveyResponse:  req.SurveyResponse,
		VideoLink:       req.VideoLink,
	}

	if err := h.svc.Compose(ctx, p); err != nil {
		writeServiceError(ctx, err)
		return
	}
	ctx.Response.SetStatusCode(xhttp.StatusNoContent)
}

func (h *MessageHandler) SendMessage(ctx *xhttp.RequestCtx) {
	var req sendMessageRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusUnprocessableEntity, "invalid JSON: "+err.Error())
		return
	}

	var composedAt time.Time
	if req.ComposedAt != nil && *req.ComposedAt != "" {
		t, err := parseTime(*req.ComposedAt)
		if err != nil {
			writeError(ctx, xhttp.StatusUnprocessableEntity, "composed_at must be an ISO timestamp")
			return
		}
		composedAt = t
	}

	organizationID, err := parseOptionalUUID(req.OrganizationID)
	if err != nil {
		writeError(ctx, xhttp.StatusUnprocessableEntity, "organization_id must be a valid uuid")
		return
	}
	regionID, err := parseOptionalUUID(req.RegionID)
	if err != nil {
		writeError(ctx, xhttp.StatusUnprocessableEntity, "region_id must be a valid uuid")
		return
	}
	parentMessageID, err := parseOptionalUUID(req.ParentMessageID)
	if err != nil {
		writeError(ctx, xhttp.StatusUnprocessableEntity, "parent_message_id must be a valid uuid")
		return
	}
	if err := validateVideoLink(req.VideoLink); err != nil {
		writeError(ctx, xhttp.StatusUnprocessableEntity, "video_link must be a valid uri")
		return
	}

	p := model.SendRequest{
		AuthorHandle:    req.AuthorHandle,
		Subject:         req.Subject,
		Body:            req.Body,
		ComposedAt:      composedAt,
		RecipientHandle: req.RecipientHandle,
		OrganizationID:  organizationID,
		RegionID:        regionID,
		ParentMessageID: parentMessageID,
		VideoLink:       req.VideoLink,
	}
	if req.Survey != nil {
		payload := model.SurveyPayload{Title: req.Survey.Title}
		for _, q := range req.Survey.Questions {
			payload.Questions = append(payload.Questions, model.QuestionPayload{Prompt: q.Prompt, Choices: q.Choices})
		}
		p.Survey = &payload
	}

	if err := h.svc.Send(ctx, p); err != nil {
		writeServiceError(ctx, err)
		return
	}
	ctx.Response.SetStatusCode(xhttp.StatusNoContent)
}

func (h *MessageHandler) ListMessages(ctx *xhttp.RequestCtx) {
	var f model.MessageFilter

	f.AuthorHandle = query(ctx, "author_handle")
	if f.AuthorHandle == "" {
		writeError(ctx, xhttp.StatusUnprocessableEntity, model.ErrAuthorHandleRequired.Error())
		return
	}

	if v := query(ctx, "since"); v != "" {
		t, err := parseTime(v)
		if err != nil {
			writeError(ctx, xhttp.StatusUnprocessableEntity, "since must be an ISO timestamp")
			return
		}
		f.Since = &t
	}
	if v := query(ctx, "limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > model.DefaultListLimit {
			writeError(ctx, xhttp.StatusUnprocessableEntity, "limit must be an integer between 1 and 100")
			return
		}
		f.Limit = n
	}
	if v := query(ctx, "offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(ctx, xhttp.StatusUnprocessableEntity, "offset must be a non-negative integer")
			return
		}
		f.Offset = n
	}

	messages, links, err := h.svc.List(ctx, f)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	if messages == nil {
		messages = []*model.MessageView{}
	}
	writeJSON(ctx, xhttp.StatusOK, model.ListResult{Messages: messages, Links: links})
}

func (h *MessageHandler) GetMessage(ctx *xhttp.RequestCtx) {
	raw, _ := ctx.UserValue("message_id").(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(ctx, xhttp.StatusUnprocessableEntity, "message_id must be a valid uuid")
		return
	}

	view, err := h.svc.Get(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, view)
}

/* -------------------------------- Helpers ------------------------------------ */

// writeServiceError maps domain errors onto the public status contract:
// validation failures are 422, unresolved handles and ids are 404, anything
// else is a 500 with a generic body.
func writeServiceError(ctx *xhttp.RequestCtx, err error) {
	switch {
	case isRequestValidation(err) || services.IsValidation(err):
		writeError(ctx, xhttp.StatusUnprocessableEntity, err.Error())
	case services.IsNotFound(err):
		writeError(ctx, xhttp.StatusNotFound, err.Error())
	default:
		writeError(ctx, xhttp.StatusInternalServerError, xhttp.StatusText(xhttp.StatusInternalServerError))
	}
}

func isRequestValidation(err error) bool {
	for _, target := range []error{
		model.ErrAuthorHandleRequired,
		model.ErrRecipientHandleRequired,
		model.ErrSubjectRequired,
		model.ErrBodyRequired,
		model.ErrComposedAtRequired,
		model.ErrSurveyTitleRequired,
		model.ErrSurveyQuestionsRequired,
		model.ErrSurveyTooManyQuestions,
		model.ErrSurveyQuestionShape,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	body := ctx.PostBody()
	return json.Unmarshal(body, dst)
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, _ := json.Marshal(v)
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeError(ctx *xhttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, map[string]string{"message": msg})
}

func query(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}

func parseTime(s string) (time.Time, error) {
	// Accept RFC3339 or YYYY-MM-DD
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func parseOptionalUUID(s *string) (*uuid.UUID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func validateVideoLink(s *string) error {
	if s == nil || *s == "" {
		return nil
	}
	_, err := url.ParseRequestURI(*s)
	return err
}
