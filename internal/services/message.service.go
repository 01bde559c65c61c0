package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	gateway "github.com/nimasrn/messaging-api/internal/gateways"
	"github.com/nimasrn/messaging-api/internal/model"
	"github.com/nimasrn/messaging-api/pkg/prom"
)

var (
	ErrAuthorNotFound       = errors.New("Author handle not found")
	ErrRecipientNotFound    = errors.New("Recipient handle not found")
	ErrMessageNotFound      = errors.New("Message not found")
	ErrOrganizationNotFound = errors.New("Organization not found")
	ErrNoGroundUsersOrg     = errors.New("No ground users found in the specified organization")
	ErrNoGroundUsersRegion  = errors.New("No ground users found in the specified region")
	ErrNoAuthorHandlesOrg   = errors.New("No author handles found for any of the ground users found in the specified organization")
	ErrNoAuthorHandlesReg   = errors.New("No author handles found for any of the ground users found in the specified region")
)

// IsNotFound reports whether err should surface as a 404.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAuthorNotFound) ||
		errors.Is(err, ErrRecipientNotFound) ||
		errors.Is(err, ErrMessageNotFound)
}

// IsValidation reports whether err should surface as a 422.
func IsValidation(err error) bool {
	return errors.Is(err, ErrOrganizationNotFound) ||
		errors.Is(err, ErrNoGroundUsersOrg) ||
		errors.Is(err, ErrNoGroundUsersRegion) ||
		errors.Is(err, ErrNoAuthorHandlesOrg) ||
		errors.Is(err, ErrNoAuthorHandlesReg) ||
		errors.Is(err, model.ErrInvalidTarget)
}

type MessageRepository interface {
	Create(ctx context.Context, m *model.Message) (*model.Message, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Message, error)
	ListForAuthor(ctx context.Context, authorID uuid.UUID, f model.MessageFilter) ([]*model.Message, error)
}

type MessageRequestRepository interface {
	Create(ctx context.Context, r *model.MessageRequest) (*model.MessageRequest, error)
	ListByMessageIDs(ctx context.Context, messageIDs []uuid.UUID) ([]*model.MessageRequest, error)
}

type MessageDeliveryRepository interface {
	Create(ctx context.Context, d *model.MessageDelivery) (*model.MessageDelivery, error)
	CreateBatch(ctx context.Context, deliveries []*model.MessageDelivery) error
	FindByMessageAndRecipient(ctx context.Context, messageID, recipientID uuid.UUID) (*model.MessageDelivery, error)
}

type SurveyRepository interface {
	Create(ctx context.Context, s *model.Survey) (*model.Survey, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Survey, error)
}

// StakeholderGateway resolves handles, organizations and regions against the
// stakeholder service. Calls are uncached: membership may change between
// requests and each send must see the current state.
type StakeholderGateway interface {
	GetAuthorID(ctx context.Context, handle string) (uuid.UUID, error)
	GetOrganization(ctx context.Context, id uuid.UUID) (*gateway.Stakeholder, error)
	GetGroundUsers(ctx context.Context, organizationID uuid.UUID) ([]gateway.GroundUser, error)
	GetGroundUsersByRegion(ctx context.Context, regionID uuid.UUID) ([]gateway.GroundUser, error)
}

type UnitOfWork interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type MessageService struct {
	messageRepo  MessageRepository
	requestRepo  MessageRequestRepository
	deliveryRepo MessageDeliveryRepository
	surveyRepo   SurveyRepository
	stakeholder  StakeholderGateway
	uow          UnitOfWork
}

func NewMessageService(
	messageRepo MessageRepository,
	requestRepo MessageRequestRepository,
	deliveryRepo MessageDeliveryRepository,
	surveyRepo SurveyRepository,
	stakeholder StakeholderGateway,
	uow UnitOfWork,
) *MessageService {
	return &MessageService{
		messageRepo:  messageRepo,
		requestRepo:  requestRepo,
		deliveryRepo: deliveryRepo,
		surveyRepo:   surveyRepo,
		stakeholder:  stakeholder,
		uow:          uow,
	}
}

// Compose handles the direct write path: one author, one recipient handle,
// survey by reference only. All rows are written in a single transaction.
func (s *MessageService) Compose(ctx context.Context, req model.ComposeRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	authorID, err := s.resolveAuthor(ctx, req.AuthorHandle)
	if err != nil {
		return err
	}
	recipientID, err := s.resolveRecipient(ctx, req.RecipientHandle)
	if err != nil {
		return err
	}

	target := model.Target{Kind: model.TargetDirect, Handle: req.RecipientHandle}

	return s.uow.WithinTransaction(ctx, func(ctx context.Context) error {
		msg := model.NewMessage(authorID, model.MessageParams{
			Subject:         req.Subject,
			Body:            req.Body,
			ComposedAt:      req.ComposedAt,
			ParentMessageID: req.ParentMessageID,
			VideoLink:       req.VideoLink,
			SurveyID:        req.SurveyID,
			SurveyResponse:  req.SurveyResponse,
		})
		if _, err := s.messageRepo.Create(ctx, msg); err != nil {
			return fmt.Errorf("create message: %w", err)
		}

		if _, err := s.requestRepo.Create(ctx, model.NewMessageRequest(msg.ID, req.AuthorHandle, target, req.ParentMessageID)); err != nil {
			return fmt.Errorf("create message request: %w", err)
		}

		parentDeliveryID, err := s.resolveParentDeliveryID(ctx, req.ParentMessageID, authorID)
		if err != nil {
			return err
		}

		if _, err := s.deliveryRepo.Create(ctx, model.NewMessageDelivery(msg.ID, recipientID, parentDeliveryID)); err != nil {
			return fmt.Errorf("create delivery: %w", err)
		}
		return nil
	})
}

// Send handles the fan-out write path: resolve the target, create the message
// with its request and optional survey, and one delivery per recipient. The
// whole set commits or rolls back together; a repeated request creates a new
// independent set of rows.
func (s *MessageService) Send(ctx context.Context, req model.SendRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	target, err := req.Target()
	if err != nil {
		return err
	}

	start := time.Now()
	deliveries := 0

	err = s.uow.WithinTransaction(ctx, func(ctx context.Context) error {
		authorID, err := s.resolveAuthor(ctx, req.AuthorHandle)
		if err != nil {
			return err
		}

		if target.Kind == model.TargetOrganization {
			if _, err := s.stakeholder.GetOrganization(ctx, target.OrganizationID); err != nil {
				if errors.Is(err, gateway.ErrStakeholderNotFound) {
					return ErrOrganizationNotFound
				}
				return fmt.Errorf("get organization: %w", err)
			}
		}

		var surveyID *uuid.UUID
		if req.Survey != nil {
			survey, err := model.NewSurvey(*req.Survey)
			if err != nil {
				return err
			}
			if _, err := s.surveyRepo.Create(ctx, survey); err != nil {
				return fmt.Errorf("create survey: %w", err)
			}
			surveyID = &survey.ID
		}

		msg := model.NewMessage(authorID, model.MessageParams{
			Subject:         req.Subject,
			Body:            req.Body,
			ComposedAt:      req.ComposedAt,
			ParentMessageID: req.ParentMessageID,
			VideoLink:       req.VideoLink,
			SurveyID:        surveyID,
		})
		if _, err := s.messageRepo.Create(ctx, msg); err != nil {
			return fmt.Errorf("create message: %w", err)
		}

		if _, err := s.requestRepo.Create(ctx, model.NewMessageRequest(msg.ID, req.AuthorHandle, target, req.ParentMessageID)); err != nil {
			return fmt.Errorf("create message request: %w", err)
		}

		parentDeliveryID, err := s.resolveParentDeliveryID(ctx, req.ParentMessageID, authorID)
		if err != nil {
			return err
		}

		recipients, err := s.resolveRecipients(ctx, target)
		if err != nil {
			return err
		}

		rows := make([]*model.MessageDelivery, 0, len(recipients))
		for _, rid := range recipients {
			rows = append(rows, model.NewMessageDelivery(msg.ID, rid, parentDeliveryID))
		}
		if err := s.deliveryRepo.CreateBatch(ctx, rows); err != nil {
			return fmt.Errorf("create deliveries: %w", err)
		}
		deliveries = len(rows)
		return nil
	})
	if err != nil {
		return err
	}

	prom.ObserveMessageSendDuration(time.Since(start).Seconds(), string(target.Kind))
	prom.AddDeliveriesCreated(float64(deliveries), string(target.Kind))
	return nil
}

// resolveRecipients expands the target into the recipient ids a delivery row
// must be written for.
func (s *MessageService) resolveRecipients(ctx context.Context, target model.Target) ([]uuid.UUID, error) {
	if target.Kind == model.TargetDirect {
		recipientID, err := s.resolveRecipient(ctx, target.Handle)
		if err != nil {
			return nil, err
		}
		return []uuid.UUID{recipientID}, nil
	}

	var (
		groundUsers []gateway.GroundUser
		err         error
	)
	if target.Kind == model.TargetOrganization {
		groundUsers, err = s.stakeholder.GetGroundUsers(ctx, target.OrganizationID)
	} else {
		groundUsers, err = s.stakeholder.GetGroundUsersByRegion(ctx, target.RegionID)
	}
	if err != nil {
		return nil, fmt.Errorf("get ground users: %w", err)
	}

	if len(groundUsers) == 0 {
		if target.Kind == model.TargetOrganization {
			return nil, ErrNoGroundUsersOrg
		}
		return nil, ErrNoGroundUsersRegion
	}

	// Ground users without an author handle cannot receive messages. They are
	// skipped as long as at least one attributable user remains.
	recipients := make([]uuid.UUID, 0, len(groundUsers))
	for _, gu := range groundUsers {
		if gu.AuthorHandle == "" {
			continue
		}
		recipients = append(recipients, gu.ID)
	}
	if len(recipients) == 0 {
		if target.Kind == model.TargetOrganization {
			return nil, ErrNoAuthorHandlesOrg
		}
		return nil, ErrNoAuthorHandlesReg
	}

	return recipients, nil
}

// resolveParentDeliveryID links a reply into its thread: the delivery of the
// parent message to the reply's author, when one exists. Absence is not an
// error; the reply simply starts unlinked.
func (s *MessageService) resolveParentDeliveryID(ctx context.Context, parentMessageID *uuid.UUID, authorID uuid.UUID) (*uuid.UUID, error) {
	if parentMessageID == nil {
		return nil, nil
	}

	delivery, err := s.deliveryRepo.FindByMessageAndRecipient(ctx, *parentMessageID, authorID)
	if err != nil {
		return nil, fmt.Errorf("find parent delivery: %w", err)
	}
	if delivery == nil {
		return nil, nil
	}
	return &delivery.ID, nil
}

func (s *MessageService) resolveAuthor(ctx context.Context, handle string) (uuid.UUID, error) {
	id, err := s.stakeholder.GetAuthorID(ctx, handle)
	if errors.Is(err, gateway.ErrStakeholderNotFound) {
		return uuid.Nil, ErrAuthorNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("resolve author: %w", err)
	}
	return id, nil
}

func (s *MessageService) resolveRecipient(ctx context.Context, handle string) (uuid.UUID, error) {
	id, err := s.stakeholder.GetAuthorID(ctx, handle)
	if errors.Is(err, gateway.ErrStakeholderNotFound) {
		return uuid.Nil, ErrRecipientNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("resolve recipient: %w", err)
	}
	return id, nil
}

// List returns the paginated message view for an author, oldest first.
func (s *MessageService) List(ctx context.Context, f model.MessageFilter) ([]*model.MessageView, model.Links, error) {
	authorID, err := s.resolveAuthor(ctx, f.AuthorHandle)
	if err != nil {
		return nil, model.Links{}, err
	}

	messages, err := s.messageRepo.ListForAuthor(ctx, authorID, f)
	if err != nil {
		return nil, model.Links{}, fmt.Errorf("list messages: %w", err)
	}

	views, err := s.buildViews(ctx, messages)
	if err != nil {
		return nil, model.Links{}, err
	}

	return views, buildLinks(f), nil
}

// Get returns the view of a single message.
func (s *MessageService) Get(ctx context.Context, id uuid.UUID) (*model.MessageView, error) {
	msg, err := s.messageRepo.GetByID(ctx, id)
	if err != nil {
		return nil, ErrMessageNotFound
	}

	views, err := s.buildViews(ctx, []*model.Message{msg})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// buildViews batch-loads the requests and surveys behind a page of messages
// and assembles the public shape.
func (s *MessageService) buildViews(ctx context.Context, messages []*model.Message) ([]*model.MessageView, error) {
	messageIDs := make([]uuid.UUID, 0, len(messages))
	surveyIDs := make([]uuid.UUID, 0)
	for _, m := range messages {
		messageIDs = append(messageIDs, m.ID)
		if m.SurveyID != nil {
			surveyIDs = append(surveyIDs, *m.SurveyID)
		}
	}

	requests, err := s.requestRepo.ListByMessageIDs(ctx, messageIDs)
	if err != nil {
		return nil, fmt.Errorf("list message requests: %w", err)
	}
	requestByMessage := make(map[uuid.UUID]*model.MessageRequest, len(requests))
	for _, r := range requests {
		requestByMessage[r.MessageID] = r
	}

	surveys, err := s.surveyRepo.ListByIDs(ctx, surveyIDs)
	if err != nil {
		return nil, fmt.Errorf("list surveys: %w", err)
	}
	surveyByID := make(map[uuid.UUID]*model.Survey, len(surveys))
	for _, sv := range surveys {
		surveyByID[sv.ID] = sv
	}

	views := make([]*model.MessageView, 0, len(messages))
	for _, m := range messages {
		views = append(views, buildView(m, requestByMessage[m.ID], surveyByID))
	}
	return views, nil
}

func buildView(m *model.Message, req *model.MessageRequest, surveyByID map[uuid.UUID]*model.Survey) *model.MessageView {
	v := &model.MessageView{
		ID:              m.ID,
		ParentMessageID: m.ParentMessageID,
		Subject:         m.Subject,
		Body:            m.Body,
		ComposedAt:      m.ComposedAt,
		VideoLink:       m.VideoLink,
	}

	if req != nil {
		v.From = model.AuthorRef{Author: req.AuthorHandle, Type: string(model.TargetDirect)}
		if target, err := req.Target(); err == nil {
			v.To = []model.RecipientRef{{Recipient: target.Recipient(), Type: string(target.Kind)}}
		}
	}

	if m.SurveyID != nil {
		if survey, ok := surveyByID[*m.SurveyID]; ok {
			sv := &model.SurveyView{
				ID:       survey.ID,
				Title:    survey.Title,
				Response: m.SurveyResponse != nil,
				Answers:  decodeAnswers(m.SurveyResponse),
			}
			for _, q := range survey.Questions {
				sv.Questions = append(sv.Questions, model.QuestionView{Prompt: q.Prompt, Choices: q.Choices})
			}
			v.Survey = sv
		}
	}

	return v
}

func decodeAnswers(raw *string) []string {
	if raw == nil {
		return []string{}
	}
	var answers []string
	if err := json.Unmarshal([]byte(*raw), &answers); err != nil {
		return []string{*raw}
	}
	return answers
}

// buildLinks produces the prev/next cursors for a listing. Next always points
// one page forward; prev only exists when a full page fits before the current
// offset.
func buildLinks(f model.MessageFilter) model.Links {
	limit, offset := f.Window()

	q := url.Values{}
	q.Set("author_handle", f.AuthorHandle)
	if f.Since != nil {
		q.Set("since", f.Since.UTC().Format(time.RFC3339))
	}
	q.Set("limit", strconv.Itoa(limit))

	links := model.Links{}
	next := pageURL(q, offset+limit)
	links.Next = &next
	if offset-limit >= 0 {
		prev := pageURL(q, offset-limit)
		links.Prev = &prev
	}
	return links
}

func pageURL(q url.Values, offset int) string {
	v := url.Values{}
	for k, vals := range q {
		v[k] = vals
	}
	v.Set("offset", strconv.Itoa(offset))
	return "/message?" + v.Encode()
}
