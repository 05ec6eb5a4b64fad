package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"matlog/internal/belt"
	"matlog/internal/models"
	"matlog/internal/services"
)

// ProfilePatch is the payload for a partial profile update. Nil fields are
// not sent; an empty AcademyName clears the academy.
type ProfilePatch struct {
	Name           *string    `json:"name,omitempty"`
	AcademyName    *string    `json:"academyName,omitempty"`
	CurrentBelt    *belt.Rank `json:"currentBelt,omitempty"`
	CurrentStripes *int       `json:"currentStripes,omitempty"`
}

// Client is the training journal API client.
type Client struct {
	baseURL    string
	token      string
	userID     string
	httpClient *http.Client
}

// New creates a new API client. When userID is non-empty every returned
// profile, entry and promotion is checked against it.
func New(baseURL, token, userID string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		userID:  userID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) checkOwner(owner string) error {
	if c.userID != "" && owner != c.userID {
		return ErrAccountMismatch
	}
	return nil
}

// --- profile ---

// GetProfile returns nil when the user has not created a profile yet.
func (c *Client) GetProfile(ctx context.Context) (*models.Profile, error) {
	var p *models.Profile
	if err := c.get(ctx, "/api/profile", &p); err != nil {
		return nil, fmt.Errorf("client.GetProfile: %w", err)
	}
	if p != nil {
		if err := c.checkOwner(p.ID); err != nil {
			return nil, fmt.Errorf("client.GetProfile: %w", err)
		}
	}
	return p, nil
}

func (c *Client) CreateProfile(ctx context.Context, in models.NewProfile) (*models.Profile, error) {
	var p models.Profile
	if err := c.doRequest(ctx, http.MethodPost, "/api/profile", in, &p); err != nil {
		return nil, fmt.Errorf("client.CreateProfile: %w", err)
	}
	if err := c.checkOwner(p.ID); err != nil {
		return nil, fmt.Errorf("client.CreateProfile: %w", err)
	}
	return &p, nil
}

func (c *Client) UpdateProfile(ctx context.Context, patch ProfilePatch) (*models.Profile, error) {
	var p models.Profile
	if err := c.doRequest(ctx, http.MethodPatch, "/api/profile", patch, &p); err != nil {
		return nil, fmt.Errorf("client.UpdateProfile: %w", err)
	}
	if err := c.checkOwner(p.ID); err != nil {
		return nil, fmt.Errorf("client.UpdateProfile: %w", err)
	}
	return &p, nil
}

// --- journal ---

func (c *Client) ListJournal(ctx context.Context) ([]models.JournalEntry, error) {
	var entries []models.JournalEntry
	if err := c.get(ctx, "/api/journal", &entries); err != nil {
		return nil, fmt.Errorf("client.ListJournal: %w", err)
	}
	for _, e := range entries {
		if err := c.checkOwner(e.UserID); err != nil {
			return nil, fmt.Errorf("client.ListJournal: %w", err)
		}
	}
	return entries, nil
}

// GetJournalEntry returns nil when the entry does not exist or is not the
// caller's.
func (c *Client) GetJournalEntry(ctx context.Context, id string) (*models.JournalEntry, error) {
	var e *models.JournalEntry
	if err := c.get(ctx, "/api/journal/"+url.PathEscape(id), &e); err != nil {
		return nil, fmt.Errorf("client.GetJournalEntry: %w", err)
	}
	if e != nil {
		if err := c.checkOwner(e.UserID); err != nil {
			return nil, fmt.Errorf("client.GetJournalEntry: %w", err)
		}
	}
	return e, nil
}

func (c *Client) CreateJournalEntry(ctx context.Context, in models.NewJournalEntry) (*models.JournalEntry, error) {
	var e models.JournalEntry
	if err := c.doRequest(ctx, http.MethodPost, "/api/journal", in, &e); err != nil {
		return nil, fmt.Errorf("client.CreateJournalEntry: %w", err)
	}
	if err := c.checkOwner(e.UserID); err != nil {
		return nil, fmt.Errorf("client.CreateJournalEntry: %w", err)
	}
	return &e, nil
}

func (c *Client) DeleteJournalEntry(ctx context.Context, id string) error {
	if err := c.doRequest(ctx, http.MethodDelete, "/api/journal/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("client.DeleteJournalEntry: %w", err)
	}
	return nil
}

func (c *Client) SuggestTitle(ctx context.Context) (string, error) {
	var out struct {
		Title string `json:"title"`
	}
	if err := c.get(ctx, "/api/journal/title-suggestion", &out); err != nil {
		return "", fmt.Errorf("client.SuggestTitle: %w", err)
	}
	return out.Title, nil
}

// --- promotions ---

func (c *Client) ListPromotions(ctx context.Context) ([]models.Promotion, error) {
	var promotions []models.Promotion
	if err := c.get(ctx, "/api/promotions", &promotions); err != nil {
		return nil, fmt.Errorf("client.ListPromotions: %w", err)
	}
	for _, p := range promotions {
		if err := c.checkOwner(p.UserID); err != nil {
			return nil, fmt.Errorf("client.ListPromotions: %w", err)
		}
	}
	return promotions, nil
}

func (c *Client) CreatePromotion(ctx context.Context, in models.NewPromotion) (*models.Promotion, error) {
	var p models.Promotion
	if err := c.doRequest(ctx, http.MethodPost, "/api/promotions", in, &p); err != nil {
		return nil, fmt.Errorf("client.CreatePromotion: %w", err)
	}
	if err := c.checkOwner(p.UserID); err != nil {
		return nil, fmt.Errorf("client.CreatePromotion: %w", err)
	}
	return &p, nil
}

// --- overview ---

func (c *Client) Belts(ctx context.Context) ([]belt.Definition, error) {
	var defs []belt.Definition
	if err := c.get(ctx, "/api/belts", &defs); err != nil {
		return nil, fmt.Errorf("client.Belts: %w", err)
	}
	return defs, nil
}

func (c *Client) Dashboard(ctx context.Context) (*services.Dashboard, error) {
	var d services.Dashboard
	if err := c.get(ctx, "/api/dashboard", &d); err != nil {
		return nil, fmt.Errorf("client.Dashboard: %w", err)
	}
	if d.Profile != nil {
		if err := c.checkOwner(d.Profile.ID); err != nil {
			return nil, fmt.Errorf("client.Dashboard: %w", err)
		}
	}
	return &d, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.doRequest(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		// The API rejects writes whose Origin is not its own.
		req.Header.Set("Origin", c.origin())
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return &HTTPError{StatusCode: resp.StatusCode, Message: apiErr.Error}
		}
		return &HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("Request failed: %d", resp.StatusCode)}
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) origin() string {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return c.baseURL
	}
	return u.Scheme + "://" + u.Host
}
