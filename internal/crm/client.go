// Package crm talks to the external CRM that owns lead records.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"diagnostic-lead-service/internal/domain"
)

// ErrMissingLeadID is returned when the CRM accepts a lead but does not return its id.
var ErrMissingLeadID = errors.New("crm response carries no lead id")

// StatusError is a non-2xx CRM response.
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("crm %s: unexpected status %d: %s", e.Op, e.Code, e.Body)
}

// Client is the HTTP lead client. Calls are never retried.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     logrus.FieldLogger
}

// NewClient builds a client for the CRM rooted at baseURL.
func NewClient(baseURL, token string, timeout time.Duration, logger logrus.FieldLogger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.WithField("component", "crm"),
	}
}

type createLeadRequest struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	Company     string `json:"company"`
	Sector      string `json:"sector"`
	Size        string `json:"size"`
	RevenueBand string `json:"revenueBand,omitempty"`
	Role        string `json:"role,omitempty"`
	SourceTag   string `json:"sourceTag"`
}

type createLeadResponse struct {
	ID string `json:"id"`
}

type updateLeadRequest struct {
	Description string `json:"description"`
}

// CreateLead registers the visitor as a lead and returns the CRM identifier.
func (c *Client) CreateLead(ctx context.Context, info domain.UserInfo, sourceTag string) (string, error) {
	body := createLeadRequest{
		FirstName:   info.FirstName,
		LastName:    info.LastName,
		Email:       info.Email,
		Phone:       info.Phone,
		Company:     info.Company,
		Sector:      info.Sector,
		Size:        info.Size,
		RevenueBand: info.RevenueBand,
		Role:        info.Role,
		SourceTag:   sourceTag,
	}

	var resp createLeadResponse
	if err := c.do(ctx, "create", http.MethodPost, "/leads", body, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", ErrMissingLeadID
	}
	return resp.ID, nil
}

// UpdateLead replaces the description of lead id.
func (c *Client) UpdateLead(ctx context.Context, id, description string) error {
	return c.do(ctx, "update", http.MethodPatch, "/leads/"+url.PathEscape(id), updateLeadRequest{Description: description}, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("crm %s: encode: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("crm %s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("crm %s: %w", op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("crm %s: read response: %w", op, err)
	}

	c.logger.WithFields(logrus.Fields{
		"op":       op,
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	}).Debug("crm call")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Op: op, Code: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("crm %s: decode response: %w", op, err)
	}
	return nil
}
