package distributor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"fulfillment-engine/internal/fulfillment"
	"fulfillment-engine/internal/models"
)

// ErrTransportExhausted is returned when the retry ceiling is hit without an
// application-level answer. The submission needs manual intervention.
var ErrTransportExhausted = errors.New("distributor unreachable, retries exhausted")

type api interface {
	SubmitOrder(ctx context.Context, req Request) (Response, []byte, error)
}

// SubmissionLog persists every attempt. Records are append-only.
type SubmissionLog interface {
	Append(sub models.DistributorSubmission) (models.DistributorSubmission, error)
}

type Submitter struct {
	api         api
	log         SubmissionLog
	maxAttempts int
	baseBackoff time.Duration
	now         func() time.Time
}

func NewSubmitter(client api, log SubmissionLog, maxAttempts int, baseBackoff time.Duration) *Submitter {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseBackoff <= 0 {
		baseBackoff = 500 * time.Millisecond
	}
	return &Submitter{
		api:         client,
		log:         log,
		maxAttempts: maxAttempts,
		baseBackoff: baseBackoff,
		now:         time.Now,
	}
}

// Submit sends one (route, account) group to the distributor and returns the
// latest attempt record. TransportFailure attempts are retried with
// exponential backoff up to the ceiling; Rejected is never retried. Handing
// in a held or unclassified item is a programming error upstream, so it
// panics rather than failing soft.
func (s *Submitter) Submit(ctx context.Context, orderID, poNumber string, group fulfillment.Group) (models.DistributorSubmission, error) {
	req := s.buildRequest(poNumber, group)
	payload, _ := json.Marshal(req)

	attempt := 0
	var last models.DistributorSubmission

	op := func() error {
		attempt++
		rec := models.DistributorSubmission{
			OrderRefer:  orderID,
			Route:       group.Route,
			AccountCode: group.AccountCode,
			Attempt:     attempt,
			Payload:     string(payload),
			CreatedAt:   s.now().UTC(),
		}

		resp, raw, err := s.api.SubmitOrder(ctx, req)
		rec.RawResponse = string(raw)
		if err != nil {
			rec.Outcome = models.OutcomeTransportFailure
			rec.StatusMessage = err.Error()
			last = s.append(rec)
			return err
		}

		rec.Outcome = Normalize(resp.Status)
		rec.StatusMessage = resp.Message
		rec.DistributorOrderID = resp.OrderID
		last = s.append(rec)
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.baseBackoff
	retry := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(s.maxAttempts-1)), ctx)

	if err := backoff.Retry(op, retry); err != nil {
		logrus.WithError(err).
			WithField("order_id", orderID).
			WithField("route", group.Route).
			WithField("attempts", attempt).
			Error("distributor submission escalated to manual intervention")
		return last, fmt.Errorf("%w: %s", ErrTransportExhausted, err)
	}
	return last, nil
}

func (s *Submitter) buildRequest(poNumber string, group fulfillment.Group) Request {
	req := Request{
		AccountCode: group.AccountCode,
		PoNumber:    poNumber,
	}
	for _, it := range group.Items {
		if it.Held() || !it.Classified() {
			panic(fmt.Sprintf("submitter given held or unclassified item %s", it.Sku))
		}
		if it.AccountCode != group.AccountCode {
			panic(fmt.Sprintf("item %s classified to account %s, group is %s",
				it.Sku, it.AccountCode, group.AccountCode))
		}
		req.Items = append(req.Items, RequestItem{StockID: it.StockID, Quantity: it.Quantity})
	}
	return req
}

func (s *Submitter) append(rec models.DistributorSubmission) models.DistributorSubmission {
	stored, err := s.log.Append(rec)
	if err != nil {
		// The attempt still happened; losing the audit row must not change
		// the submission outcome.
		logrus.WithError(err).WithField("order_id", rec.OrderRefer).Error("append submission record")
		return rec
	}
	return stored
}
