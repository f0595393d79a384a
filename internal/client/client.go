// Package client is the JSON-over-HTTP consumer of the donation record
// store API exposed by internal/server.
package client

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

	"mealbridge/pkg/types"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// List fetches every donation record.
func (c *Client) List(ctx context.Context) ([]*types.DonationRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/donations", nil)
	if err != nil {
		return nil, fmt.Errorf("build list request: %w", err)
	}

	var records []*types.DonationRecord
	if err := c.do(req, http.StatusOK, &records); err != nil {
		return nil, fmt.Errorf("list donations: %w", err)
	}

	return records, nil
}

// Create posts a new donation. The server assigns id and createdAt when the
// caller leaves them empty, and returns the stored record.
func (c *Client) Create(ctx context.Context, record *types.DonationRecord) (*types.DonationRecord, error) {
	record.SyncCoordinates()

	body, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encode donation: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/donations", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var created types.DonationRecord
	if err := c.do(req, http.StatusCreated, &created); err != nil {
		return nil, fmt.Errorf("create donation: %w", err)
	}

	return &created, nil
}

// Update merges the given fields into an existing record.
func (c *Client) Update(ctx context.Context, id string, patch types.DonationPatch) (*types.DonationRecord, error) {
	body, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("encode patch: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/donations/%s", c.baseURL, url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build update request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var updated types.DonationRecord
	if err := c.do(req, http.StatusOK, &updated); err != nil {
		return nil, fmt.Errorf("update donation %s: %w", id, err)
	}

	return &updated, nil
}

// UpdateStatus merges only the status field.
func (c *Client) UpdateStatus(ctx context.Context, id string, status types.DonationStatus) (*types.DonationRecord, error) {
	return c.Update(ctx, id, types.DonationPatch{Status: &status})
}

func (c *Client) do(req *http.Request, wantStatus int, out any) error {
	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return types.ErrDonationNotFound
	}

	if res.StatusCode != wantStatus {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", res.StatusCode, string(body))
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

// NotFound reports whether err is the record store's unknown-id error.
func NotFound(err error) bool {
	return errors.Is(err, types.ErrDonationNotFound)
}
