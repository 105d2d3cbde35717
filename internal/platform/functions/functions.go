// Package functions calls the serverless functions the backend exposes,
// falling back to an in-process implementation when no remote URL is configured.
package functions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const SiteSurveyPDF = "generate-site-survey-pdf"

var ErrNotConfigured = errors.New("no function endpoint or local generator configured")

type SiteSurveyRequest struct {
	CustomerID string `json:"customer_id"`
	TicketID   string `json:"ticket_id"`
}

// Result is the function response body.
type Result struct {
	Success  bool   `json:"success"`
	FileName string `json:"file_name,omitempty"`
	Error    string `json:"error,omitempty"`
}

type SiteSurveyGenerator interface {
	GenerateSiteSurvey(ctx context.Context, customerID, ticketID string) (Result, error)
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
	local   SiteSurveyGenerator
}

func New(baseURL, token string, local SiteSurveyGenerator) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 60 * time.Second},
		local:   local,
	}
}

func (c *Client) GenerateSiteSurveyPDF(ctx context.Context, customerID, ticketID string) (Result, error) {
	if c.baseURL == "" {
		if c.local == nil {
			return Result{}, ErrNotConfigured
		}
		return c.local.GenerateSiteSurvey(ctx, customerID, ticketID)
	}
	return c.call(ctx, SiteSurveyPDF, SiteSurveyRequest{CustomerID: customerID, TicketID: ticketID})
}

func (c *Client) call(ctx context.Context, name string, payload any) (Result, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+name, bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("call %s: %w", name, err)
	}
	defer resp.Body.Close()

	var out Result
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return Result{}, fmt.Errorf("decode %s response (status %d): %w", name, resp.StatusCode, err)
	}
	if resp.StatusCode >= 300 || !out.Success {
		msg := out.Error
		if msg == "" {
			msg = resp.Status
		}
		return out, fmt.Errorf("%s failed: %s", name, msg)
	}
	return out, nil
}
