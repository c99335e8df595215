package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"

	"fulfillment-engine/internal/compliance"
	"fulfillment-engine/internal/crm"
	"fulfillment-engine/internal/distributor"
	"fulfillment-engine/internal/fulfillment"
	"fulfillment-engine/internal/models"
	"fulfillment-engine/internal/ordernum"
)

func humanizeValidationErrors(errs validator.ValidationErrors) string {
	var b strings.Builder
	for _, fe := range errs {
		if fe.Param() != "" {
			fmt.Fprintf(&b, "%s: %s=%s; ", fe.Namespace(), fe.Tag(), fe.Param())
		} else {
			fmt.Fprintf(&b, "%s: %s; ", fe.Namespace(), fe.Tag())
		}
	}
	s := b.String()
	if len(s) > 2 {
		s = s[:len(s)-2]
	}
	return s
}

// HandleMessage decodes a paid-order event and reconciles the order. Decode
// and validation failures are permanent; the consumer routes them to the DLQ.
func (s *Service) HandleMessage(ctx context.Context, payload []byte) error {
	var ev models.PaidOrderEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return fmt.Errorf("%w: %s", ErrDecode, err)
	}
	if err := s.v.Struct(ev); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			return fmt.Errorf("%w: %s", ErrValidation, humanizeValidationErrors(verrs))
		}
		return fmt.Errorf("%w: %s", ErrValidation, err)
	}

	_, err := s.Reconcile(ctx, ev.Order(), ev.Ffl)
	return err
}

// Reconcile drives one order through the pipeline: holds, classification,
// pricing, number allocation, distributor submission and CRM sync. Safe to
// re-run: the order number is reused, holds are not re-raised and confirmed
// submissions are not repeated. Every state change is persisted before the
// next external call, so an abort leaves the last durable state.
func (s *Service) Reconcile(ctx context.Context, ord models.Order, ffl *models.FflRecord) (models.OrderProjection, error) {
	if err := s.v.Struct(ord); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			return models.OrderProjection{}, fmt.Errorf("%w: %s", ErrValidation, humanizeValidationErrors(verrs))
		}
		return models.OrderProjection{}, fmt.Errorf("%w: %s", ErrValidation, err)
	}

	existing, err := s.repo.Orders.Get(ord.ID)
	switch {
	case err == nil:
		// Allocation happens at most once per order.
		ord.OrderNumber = existing.OrderNumber
	case gorm.IsRecordNotFoundError(err):
	default:
		return models.OrderProjection{}, err
	}

	holds, err := s.repo.Holds.HoldsByOrder(ord.ID)
	if err != nil {
		return models.OrderProjection{}, err
	}
	for _, h := range compliance.Evaluate(ord, ffl, s.now().UTC()) {
		if holdPresent(holds, h.LineNo, h.Reason) {
			continue
		}
		stored, err := s.repo.Holds.CreateHold(h)
		if err != nil {
			return models.OrderProjection{}, err
		}
		holds = append(holds, stored)
	}
	stampHoldReasons(&ord, holds)

	ord.Items, err = fulfillment.Classify(ord.Items, s.env)
	if err != nil {
		return models.OrderProjection{}, fmt.Errorf("%w: %s", ErrValidation, err)
	}

	ord.Items, err = s.resolver.ResolveItems(ord.Items, ord.MembershipTier)
	if err != nil {
		return models.OrderProjection{}, fmt.Errorf("%w: %s", ErrValidation, err)
	}

	if ord.OrderNumber == "" {
		ord.OrderNumber = s.allocator.Allocate()
		// The trailing digit records the shipment count. Held items still ship
		// once cleared, so every item's route counts. The digit is fixed before
		// the number first leaves the engine so the CRM deal key is stable.
		routes := make(map[models.Route]bool)
		for _, it := range ord.Items {
			routes[fulfillment.RouteFor(it)] = true
		}
		if len(routes) > 1 {
			ord.OrderNumber, err = ordernum.WithShipments(ord.OrderNumber, len(routes))
			if err != nil {
				return models.OrderProjection{}, err
			}
		}
	}

	ord.Status = preSubmitStatus(ord, holds)
	if err := s.repo.Orders.CreateOrUpdate(ord); err != nil {
		return models.OrderProjection{}, err
	}

	subs, err := s.repo.Submissions.ListByOrder(ord.ID)
	if err != nil {
		return models.OrderProjection{}, err
	}

	newSubs, escalated := s.submitGroups(ctx, ord, pendingGroups(ord, subs))
	subs = append(subs, newSubs...)
	if len(newSubs) > 0 {
		ord.Status = models.OrderStatusSubmitted
	}

	holds, err = s.foldRejections(ord, subs, holds)
	if err != nil {
		return models.OrderProjection{}, err
	}
	stampHoldReasons(&ord, holds)

	// Rejected and Held are recorded durably before any further external
	// call, so the order cannot be lost mid-pipeline.
	if st := localStatus(ord, holds, subs); st != models.OrderStatusReconciled {
		ord.Status = st
	}
	if err := s.repo.Orders.CreateOrUpdate(ord); err != nil {
		return models.OrderProjection{}, err
	}
	if ctx.Err() != nil {
		return s.project(ord, holds, subs, ""), ctx.Err()
	}

	dealStatus := crm.DeriveStatus(ord, holds, crm.LatestPerGroup(subs))
	deal, syncErr := s.crm.Sync(ctx, ord, subs, holds)
	if syncErr == nil {
		dealStatus = deal.Fields.Status
		ord.Status = localStatus(ord, holds, subs)
		if err := s.repo.Orders.CreateOrUpdate(ord); err != nil {
			return models.OrderProjection{}, err
		}
	}

	proj := s.project(ord, holds, subs, dealStatus)
	s.repo.Projections.PutProjection(ord.OrderNumber, proj)

	switch {
	case syncErr != nil && crmConflict(syncErr):
		return proj, fmt.Errorf("%w: %s", ErrEscalated, syncErr)
	case syncErr != nil:
		return proj, syncErr
	case escalated:
		return proj, fmt.Errorf("%w: distributor retries exhausted for order %s", ErrEscalated, ord.ID)
	}
	return proj, nil
}

// ClearHold is the external clearing action. The affected items re-enter
// classification and the untouched tail of the pipeline runs again.
func (s *Service) ClearHold(ctx context.Context, orderNumber string, holdID uint) (models.OrderProjection, error) {
	ord, err := s.repo.Orders.GetByNumber(orderNumber)
	if gorm.IsRecordNotFoundError(err) {
		return models.OrderProjection{}, ErrNotFound
	}
	if err != nil {
		return models.OrderProjection{}, err
	}

	if _, err := s.repo.Holds.ClearHold(ord.ID, holdID, s.now().UTC()); err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return models.OrderProjection{}, ErrNotFound
		}
		return models.OrderProjection{}, err
	}

	holds, err := s.repo.Holds.HoldsByOrder(ord.ID)
	if err != nil {
		return models.OrderProjection{}, err
	}
	stampHoldReasons(&ord, holds)
	ord.Status = models.OrderStatusClassified

	// The hold evaluator is not re-run here: it never auto-clears, and the
	// clearance itself is the external fact that unblocked the item.
	return s.Reconcile(ctx, ord, &models.FflRecord{License: ord.FflLicense, Status: models.FflStatusVerified})
}

func (s *Service) submitGroups(ctx context.Context, ord models.Order, groups []fulfillment.Group) ([]models.DistributorSubmission, bool) {
	if len(groups) == 0 {
		return nil, false
	}

	// In-house and drop-ship are independent distributor interactions and
	// may run concurrently. CRM sync waits for both.
	type result struct {
		sub models.DistributorSubmission
		err error
	}
	results := make([]result, len(groups))

	var wg sync.WaitGroup
	for i, g := range groups {
		wg.Add(1)
		go func(i int, g fulfillment.Group) {
			defer wg.Done()
			sub, err := s.submitter.Submit(ctx, ord.ID, ord.OrderNumber, g)
			results[i] = result{sub: sub, err: err}
		}(i, g)
	}
	wg.Wait()

	var subs []models.DistributorSubmission
	escalated := false
	for _, r := range results {
		if r.sub.OrderRefer != "" {
			subs = append(subs, r.sub)
		}
		if r.err != nil {
			escalated = true
		}
	}
	return subs, escalated
}

// pendingGroups returns the submission groups that still need to go out:
// held items and items already confirmed by the distributor are excluded,
// and groups whose latest outcome is Rejected are terminal.
func pendingGroups(ord models.Order, subs []models.DistributorSubmission) []fulfillment.Group {
	confirmed := confirmedStockIDs(subs)
	rejectedRoutes := make(map[models.Route]bool)
	for _, sub := range crm.LatestPerGroup(subs) {
		if sub.Outcome == models.OutcomeRejected {
			rejectedRoutes[sub.Route] = true
		}
	}

	var items []models.LineItem
	for _, it := range ord.Items {
		if confirmed[it.StockID] || rejectedRoutes[it.Route] {
			continue
		}
		items = append(items, it)
	}
	return fulfillment.Groups(items)
}

func confirmedStockIDs(subs []models.DistributorSubmission) map[string]bool {
	out := make(map[string]bool)
	for _, sub := range subs {
		if sub.Outcome != models.OutcomeConfirmed {
			continue
		}
		var req distributor.Request
		if err := json.Unmarshal([]byte(sub.Payload), &req); err != nil {
			logrus.WithError(err).WithField("submission_id", sub.ID).Warn("unreadable submission payload")
			continue
		}
		for _, it := range req.Items {
			out[it.StockID] = true
		}
	}
	return out
}

// foldRejections raises a distributor-rejected hold on every item of a group
// whose latest outcome is Rejected, so the item is never resubmitted and the
// rejection is visible per line.
func (s *Service) foldRejections(ord models.Order, subs []models.DistributorSubmission, holds []models.Hold) ([]models.Hold, error) {
	rejected := make(map[models.Route]bool)
	for _, sub := range crm.LatestPerGroup(subs) {
		if sub.Outcome == models.OutcomeRejected {
			rejected[sub.Route] = true
		}
	}
	if len(rejected) == 0 {
		return holds, nil
	}

	for _, it := range ord.Items {
		if !rejected[it.Route] || holdPresent(holds, it.LineNo, models.HoldReasonDistributorRejected) {
			continue
		}
		stored, err := s.repo.Holds.CreateHold(models.Hold{
			OrderRefer: ord.ID,
			LineNo:     it.LineNo,
			Reason:     models.HoldReasonDistributorRejected,
			CreatedAt:  s.now().UTC(),
		})
		if err != nil {
			return holds, err
		}
		holds = append(holds, stored)
	}
	return holds, nil
}

func (s *Service) project(ord models.Order, holds []models.Hold, subs []models.DistributorSubmission, dealStatus string) models.OrderProjection {
	if dealStatus == "" {
		dealStatus = crm.DeriveStatus(ord, holds, crm.LatestPerGroup(subs))
	}
	return models.OrderProjection{
		Order:       ord,
		Holds:       holds,
		Submissions: subs,
		DealStatus:  dealStatus,
	}
}

func holdPresent(holds []models.Hold, lineNo int, reason models.HoldReason) bool {
	for _, h := range holds {
		if h.Active() && h.LineNo == lineNo && h.Reason == reason {
			return true
		}
	}
	return false
}

func stampHoldReasons(ord *models.Order, holds []models.Hold) {
	blocked := compliance.HeldLines(holds)
	for i := range ord.Items {
		switch {
		case blocked[0] != "":
			ord.Items[i].HoldReason = string(blocked[0])
		case blocked[ord.Items[i].LineNo] != "":
			ord.Items[i].HoldReason = string(blocked[ord.Items[i].LineNo])
		default:
			ord.Items[i].HoldReason = ""
		}
	}
}

func preSubmitStatus(ord models.Order, holds []models.Hold) models.OrderStatus {
	anyClear := false
	for _, it := range ord.Items {
		if !it.Held() {
			anyClear = true
			break
		}
	}
	if !anyClear && len(models.ActiveHolds(holds)) > 0 {
		return models.OrderStatusHeld
	}
	if anyClear {
		return models.OrderStatusClassified
	}
	return models.OrderStatusCreated
}

func localStatus(ord models.Order, holds []models.Hold, subs []models.DistributorSubmission) models.OrderStatus {
	latest := crm.LatestPerGroup(subs)
	for _, sub := range latest {
		if sub.Outcome == models.OutcomeRejected {
			return models.OrderStatusRejected
		}
	}
	if len(models.ActiveHolds(holds)) > 0 {
		return models.OrderStatusHeld
	}
	for _, sub := range latest {
		if sub.Outcome != models.OutcomeConfirmed {
			return models.OrderStatusSubmitted
		}
	}
	return models.OrderStatusReconciled
}

func (s *Service) GetCachedProjection(number string) (models.OrderProjection, error) {
	return s.repo.Projections.GetProjection(number)
}

func (s *Service) GetAllCachedProjections() ([]models.OrderProjection, error) {
	return s.repo.Projections.GetAllProjections()
}

func (s *Service) GetDbOrder(number string) (models.Order, error) {
	ord, err := s.repo.Orders.GetByNumber(number)
	if gorm.IsRecordNotFoundError(err) {
		return models.Order{}, ErrNotFound
	}
	return ord, err
}

func (s *Service) GetSubmissions(number string) ([]models.DistributorSubmission, error) {
	ord, err := s.repo.Orders.GetByNumber(number)
	if gorm.IsRecordNotFoundError(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.repo.Submissions.ListByOrder(ord.ID)
}

// WarmProjections rebuilds the projection cache from postgres at boot.
func (s *Service) WarmProjections() error {
	orders, err := s.repo.Orders.GetAll()
	if err != nil {
		return err
	}
	for _, ord := range orders {
		if ord.OrderNumber == "" {
			continue
		}
		if err := s.v.Struct(ord); err != nil {
			logrus.WithError(err).WithField("order_id", ord.ID).Warn("skip invalid order from DB")
			continue
		}
		holds, err := s.repo.Holds.HoldsByOrder(ord.ID)
		if err != nil {
			return err
		}
		subs, err := s.repo.Submissions.ListByOrder(ord.ID)
		if err != nil {
			return err
		}
		s.repo.Projections.PutProjection(ord.OrderNumber, s.project(ord, holds, subs, ""))
	}
	return nil
}

func crmConflict(err error) bool {
	return errors.Is(err, crm.ErrSyncConflict)
}
