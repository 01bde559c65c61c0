package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/messaging-api/pkg/logger"
	"github.com/valyala/fasthttp"
)

var (
	// ErrStakeholderNotFound is returned when a handle or id does not resolve
	// to a stakeholder upstream.
	ErrStakeholderNotFound = errors.New("stakeholder not found")
)

// Stakeholder is an upstream identity: an author, an organization or a
// region owner.
type Stakeholder struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// GroundUser is a member of an organization or region. AuthorHandle may be
// empty when the upstream record carries no handle; such users cannot be
// message recipients.
type GroundUser struct {
	ID           uuid.UUID `json:"id"`
	AuthorHandle string    `json:"author_handle"`
}

type Config struct {
	BaseURL         string
	Timeout         time.Duration
	MaxRetries      int
	RetryDelay      time.Duration
	MaxConns        int
	ReadBufferSize  int
	WriteBufferSize int
}

// StakeholderClient talks to the stakeholder service over HTTP. Transport
// failures are retried; domain-level misses (404) are not.
type StakeholderClient struct {
	config *Config
	client *fasthttp.Client
}

func NewStakeholderClient(config *Config) (*StakeholderClient, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if config.BaseURL == "" {
		return nil, errors.New("stakeholder base url is required")
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}

	client := &fasthttp.Client{
		MaxConnsPerHost:     config.MaxConns,
		ReadTimeout:         config.Timeout,
		WriteTimeout:        config.Timeout,
		MaxIdleConnDuration: 60 * time.Second,
		ReadBufferSize:      config.ReadBufferSize,
		WriteBufferSize:     config.WriteBufferSize,
	}

	logger.Info("Stakeholder client initialized", "base_url", config.BaseURL, "timeout", config.Timeout)

	return &StakeholderClient{
		config: config,
		client: client,
	}, nil
}

// GetAuthorID resolves an author handle to a stakeholder id.
func (c *StakeholderClient) GetAuthorID(ctx context.Context, handle string) (uuid.UUID, error) {
	path := "/stakeholder/author?handle=" + url.QueryEscape(handle)
	body, err := c.doRequest(ctx, "GET", path)
	if err != nil {
		return uuid.Nil, err
	}

	var s Stakeholder
	if err := json.Unmarshal(body, &s); err != nil {
		return uuid.Nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return s.ID, nil
}

// GetOrganization looks an organization up by id.
func (c *StakeholderClient) GetOrganization(ctx context.Context, id uuid.UUID) (*Stakeholder, error) {
	path := "/stakeholder/organization/" + id.String()
	body, err := c.doRequest(ctx, "GET", path)
	if err != nil {
		return nil, err
	}

	var s Stakeholder
	if err := json.Unmarshal(body, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &s, nil
}

// GetGroundUsers returns the ground users of an organization.
func (c *StakeholderClient) GetGroundUsers(ctx context.Context, organizationID uuid.UUID) ([]GroundUser, error) {
	path := "/stakeholder/organization/" + organizationID.String() + "/ground-users"
	return c.fetchGroundUsers(ctx, path)
}

// GetGroundUsersByRegion returns the ground users of a region.
func (c *StakeholderClient) GetGroundUsersByRegion(ctx context.Context, regionID uuid.UUID) ([]GroundUser, error) {
	path := "/stakeholder/region/" + regionID.String() + "/ground-users"
	return c.fetchGroundUsers(ctx, path)
}

func (c *StakeholderClient) fetchGroundUsers(ctx context.Context, path string) ([]GroundUser, error) {
	body, err := c.doRequest(ctx, "GET", path)
	if err != nil {
		return nil, err
	}

	var resp struct {
		GroundUsers []GroundUser `json:"ground_users"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return resp.GroundUsers, nil
}

// doRequest performs the HTTP call with the configured retry loop. A 404
// short-circuits to ErrStakeholderNotFound without retrying.
func (c *StakeholderClient) doRequest(ctx context.Context, method, path string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.config.RetryDelay):
			}
		}

		body, err := c.doOnce(ctx, method, path)
		if err == nil {
			return body, nil
		}
		if errors.Is(err, ErrStakeholderNotFound) {
			return nil, err
		}

		logger.Warn("Stakeholder request failed, retrying", "error", err, "path", path, "attempt", attempt+1)
		lastErr = err
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", c.config.MaxRetries+1, lastErr)
}

func (c *StakeholderClient) doOnce(ctx context.Context, method, path string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.config.BaseURL + path)
	req.Header.SetMethod(method)
	req.Header.SetContentType("application/json")

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.config.Timeout)
	}

	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	statusCode := resp.StatusCode()
	if statusCode == fasthttp.StatusNotFound {
		return nil, ErrStakeholderNotFound
	}
	if statusCode != fasthttp.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", statusCode, resp.Body())
	}

	result := make([]byte, len(resp.Body()))
	copy(result, resp.Body())

	return result, nil
}
