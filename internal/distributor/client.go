package distributor

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	pkgerrors "github.com/pkg/errors"

	"fulfillment-engine/internal/models"
)

// Request is the distributor order-intake payload. The wire shape is owned
// here; nothing outside this package builds or parses it.
type Request struct {
	AccountCode string        `json:"account"`
	PoNumber    string        `json:"po_number"`
	Items       []RequestItem `json:"items"`
}

type RequestItem struct {
	StockID  string `json:"stock_id"`
	Quantity int    `json:"quantity"`
}

type Response struct {
	Status  string         `json:"status"`
	Message string         `json:"message"`
	OrderID string         `json:"order_id"`
	Items   []ResponseItem `json:"items"`
}

type ResponseItem struct {
	StockID string `json:"stock_id"`
	Status  string `json:"status"`
}

// Distributor status codes observed on the wire. Everything the engine does
// with them goes through Normalize.
const (
	statusAccepted = "ACCEPTED"
	statusPending  = "PENDING"
	statusQueued   = "QUEUED"
)

// Normalize folds the distributor's status code into the closed Outcome
// enumeration. Unrecognized codes are treated as application-level
// rejections, never as transient failures.
func Normalize(status string) models.Outcome {
	switch status {
	case statusAccepted:
		return models.OutcomeConfirmed
	case statusPending, statusQueued:
		return models.OutcomePending
	default:
		return models.OutcomeRejected
	}
}

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

// SubmitOrder posts one submission and returns the decoded response plus the
// raw body for the audit record. Any transport-level problem (connection,
// timeout, non-2xx, malformed body) is returned as an error; application
// outcomes live in Response.Status.
func (c *Client) SubmitOrder(ctx context.Context, req Request) (Response, []byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Response{}, nil, pkgerrors.Wrap(err, "encode submission")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return Response{}, nil, pkgerrors.Wrap(err, "build submission request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Response{}, nil, pkgerrors.Wrap(err, "distributor request")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, nil, pkgerrors.Wrap(err, "read distributor response")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Response{}, raw, pkgerrors.Errorf("distributor http %d", resp.StatusCode)
	}

	var out Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return Response{}, raw, pkgerrors.Wrap(err, "decode distributor response")
	}
	return out, raw, nil
}
