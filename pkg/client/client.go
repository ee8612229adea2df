// Package client provides a Go client for the TrendDesk API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client is a TrendDesk API client
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// New creates a new TrendDesk client
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Project represents a curated project
type Project struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Symbol           string `json:"symbol"`
	LogoURL          string `json:"logo,omitempty"`
	ContractOrWallet string `json:"contract_or_wallet,omitempty"`
	Description      string `json:"description,omitempty"`
	Chain            string `json:"chain"`
	SubmittedBy      string `json:"submitted_by"`
	SubmittedAt      string `json:"submitted_at"`
	PaymentVerified  bool   `json:"payment_verified"`
	Listed           bool   `json:"listed"`
	Votes            int    `json:"votes"`
}

// SubmitRequest is the request for submitting a project
type SubmitRequest struct {
	Name             string `json:"name"`
	Symbol           string `json:"symbol"`
	LogoURL          string `json:"logo,omitempty"`
	ContractOrWallet string `json:"contract_or_wallet,omitempty"`
	Description      string `json:"description,omitempty"`
	Chain            string `json:"chain"`
	SubmittedBy      string `json:"submitted_by"`
}

// VerifyResult is the outcome of a payment verification attempt
type VerifyResult struct {
	Status       string `json:"status"`
	Chain        string `json:"chain,omitempty"`
	Verified     bool   `json:"verified"`
	Code         string `json:"code,omitempty"`
	Reason       string `json:"reason"`
	Listed       bool   `json:"listed"`
	Published    bool   `json:"published"`
	PublishError string `json:"publish_error,omitempty"`
}

// VoteResult is the outcome of a vote attempt
type VoteResult struct {
	Outcome     string `json:"outcome"`
	Reason      string `json:"reason"`
	ProjectID   string `json:"project_id"`
	ProjectName string `json:"project_name,omitempty"`
	Votes       int    `json:"votes"`
}

// LeaderboardEntry is one ranked row of the leaderboard
type LeaderboardEntry struct {
	Rank      int    `json:"rank"`
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
	Symbol    string `json:"symbol"`
	Votes     int    `json:"votes"`
}

// VotersResponse lists the voters recorded for a project
type VotersResponse struct {
	Voters []string `json:"voters"`
	Count  int      `json:"count"`
}

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ListProjects lists all projects in submission order
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var resp struct {
		Projects []Project `json:"projects"`
	}
	if err := c.get(ctx, "/api/v1/projects", &resp); err != nil {
		return nil, err
	}
	return resp.Projects, nil
}

// GetProject gets a project by id
func (c *Client) GetProject(ctx context.Context, id string) (*Project, error) {
	var resp Project
	if err := c.get(ctx, "/api/v1/projects/"+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Submit submits a new project
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (*Project, error) {
	var resp Project
	if err := c.post(ctx, "/api/v1/projects", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// VerifyPayment runs one payment verification attempt for a project
func (c *Client) VerifyPayment(ctx context.Context, id, txRef string) (*VerifyResult, error) {
	var resp VerifyResult
	path := "/api/v1/projects/" + url.PathEscape(id) + "/verify"
	if err := c.post(ctx, path, map[string]string{"tx_ref": txRef}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Vote casts a vote for a project. Denied and duplicate votes come
// back as a VoteResult with the corresponding outcome, not an error.
func (c *Client) Vote(ctx context.Context, id, voterID string) (*VoteResult, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(map[string]string{"voter_id": voterID}); err != nil {
		return nil, err
	}

	path := "/api/v1/projects/" + url.PathEscape(id) + "/vote"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	// The vote endpoint reports rejections as typed results with 403/404
	// statuses; only envelope errors are real failures.
	var result VoteResult
	if json.Unmarshal(body, &result) == nil && result.Outcome != "" {
		return &result, nil
	}

	var errResp struct {
		Error APIError `json:"error"`
	}
	if json.Unmarshal(body, &errResp) == nil && errResp.Error.Code != "" {
		return nil, &errResp.Error
	}
	return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
}

// Voters lists the voters recorded for a project
func (c *Client) Voters(ctx context.Context, id string) (*VotersResponse, error) {
	var resp VotersResponse
	if err := c.get(ctx, "/api/v1/projects/"+url.PathEscape(id)+"/voters", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Leaderboard returns the current leaderboard, at most limit entries
func (c *Client) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	path := "/api/v1/leaderboard"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var resp struct {
		Entries []LeaderboardEntry `json:"entries"`
	}
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

// PostLeaderboard triggers an immediate leaderboard announcement
func (c *Client) PostLeaderboard(ctx context.Context) error {
	return c.post(ctx, "/api/v1/leaderboard/post", nil, nil)
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	return c.do(req, result)
}

func (c *Client) post(ctx context.Context, path string, body, result any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, result)
}

func (c *Client) do(req *http.Request, result any) error {
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.parseError(resp)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	req.Header.Set("Accept", "application/json")
}

func (c *Client) parseError(resp *http.Response) error {
	var errResp struct {
		Error APIError `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}
	return &errResp.Error
}
