package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	pkgerrors "github.com/pkg/errors"
)

var (
	ErrSyncConflict = errors.New("crm deal conflict")
	ErrDealNotFound = errors.New("crm deal not found")
)

// Client speaks the CRM's upsert-by-key deal API: a PUT on the deal key
// creates the deal or updates it in place, never a duplicate.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) UpsertDeal(ctx context.Context, deal Deal) error {
	body, err := json.Marshal(deal)
	if err != nil {
		return pkgerrors.Wrap(err, "encode deal")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/deals/"+deal.Key, bytes.NewReader(body))
	if err != nil {
		return pkgerrors.Wrap(err, "build deal request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return pkgerrors.Wrap(err, "crm request")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusConflict:
		msg, _ := io.ReadAll(resp.Body)
		return pkgerrors.Wrap(ErrSyncConflict, string(msg))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return pkgerrors.Errorf("crm http %d", resp.StatusCode)
	}
	return nil
}

// GetDeal reads a deal back, used for verification and by tests.
func (c *Client) GetDeal(ctx context.Context, key string) (Deal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/deals/"+key, nil)
	if err != nil {
		return Deal{}, pkgerrors.Wrap(err, "build deal request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Deal{}, pkgerrors.Wrap(err, "crm request")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Deal{}, ErrDealNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Deal{}, pkgerrors.Errorf("crm http %d", resp.StatusCode)
	}

	var deal Deal
	if err := json.NewDecoder(resp.Body).Decode(&deal); err != nil {
		return Deal{}, pkgerrors.Wrap(err, "decode deal")
	}
	return deal, nil
}
