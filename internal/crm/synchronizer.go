package crm

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"fulfillment-engine/internal/models"
	"fulfillment-engine/internal/ordernum"
)

type dealAPI interface {
	UpsertDeal(ctx context.Context, deal Deal) error
	GetDeal(ctx context.Context, key string) (Deal, error)
}

// Synchronizer projects an order into the CRM. Idempotent by deal key: the
// canonical order number.
type Synchronizer struct {
	api dealAPI
}

func NewSynchronizer(api dealAPI) *Synchronizer {
	return &Synchronizer{api: api}
}

// Sync builds and upserts the deal for the order's current state. A
// SyncConflict is retried once with a re-derived payload, then escalated.
func (s *Synchronizer) Sync(ctx context.Context, order models.Order, subs []models.DistributorSubmission, holds []models.Hold) (Deal, error) {
	deal := BuildDeal(order, subs, holds)

	err := s.api.UpsertDeal(ctx, deal)
	if err == nil {
		return deal, nil
	}
	if !errors.Is(err, ErrSyncConflict) {
		return Deal{}, err
	}

	logrus.WithError(err).
		WithField("deal_key", deal.Key).
		Warn("crm deal conflict, retrying with corrected payload")

	// The stored deal disagrees with expectations, most often a stale or
	// malformed key. Re-derive the key from the canonical number and retry
	// exactly once.
	corrected := deal
	corrected.Key = correctedKey(order)
	corrected.Fields.OrderNumber = corrected.Key

	if err := s.api.UpsertDeal(ctx, corrected); err != nil {
		return Deal{}, err
	}
	return corrected, nil
}

// Verify reads the deal back and reports whether the CRM reflects the
// expected status.
func (s *Synchronizer) Verify(ctx context.Context, key, wantStatus string) (bool, error) {
	deal, err := s.api.GetDeal(ctx, key)
	if err != nil {
		return false, err
	}
	return deal.Fields.Status == wantStatus, nil
}

func correctedKey(order models.Order) string {
	if _, _, _, err := ordernum.Parse(order.OrderNumber); err == nil {
		return order.OrderNumber
	}
	// Last resort when the stored number itself is malformed: the internal
	// id still identifies the order uniquely.
	return order.ID
}
