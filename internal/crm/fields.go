package crm

import (
	"sort"
	"strings"
	"time"

	"fulfillment-engine/internal/models"
)

// CRM-facing deal statuses. Derived, never stored independently.
const (
	DealStatusRejected  = "Rejected"
	DealStatusHeld      = "Held"
	DealStatusConfirmed = "Confirmed"
	DealStatusPending   = "Pending"
)

// DealFields is the named scalar field set. Free text is never a substitute
// for one of these fields.
type DealFields struct {
	OrderNumber        string     `json:"order_number"`
	Status             string     `json:"status"`
	FulfillmentSummary string     `json:"fulfillment_summary"`
	AccountUsed        string     `json:"account_used"`
	HoldReason         string     `json:"hold_reason,omitempty"`
	ConfirmedAt        *time.Time `json:"confirmed_at,omitempty"`
	DistributorOrderID string     `json:"distributor_order_id,omitempty"`
	Escalation         string     `json:"escalation,omitempty"`
}

// DealItem is one subform row. The subform always carries the full original
// item list, held items included, because the deal is the human-facing
// record of what was ordered.
type DealItem struct {
	Sku              string `json:"sku"`
	StockID          string `json:"stock_id"`
	Quantity         int    `json:"quantity"`
	UnitPriceCents   int    `json:"unit_price_cents"`
	Category         string `json:"category"`
	Manufacturer     string `json:"manufacturer"`
	RequiresFfl      bool   `json:"requires_ffl"`
	DropShipEligible bool   `json:"drop_ship_eligible"`
	Held             bool   `json:"held"`
	HoldReason       string `json:"hold_reason,omitempty"`
}

type Deal struct {
	Key    string     `json:"key"`
	Fields DealFields `json:"fields"`
	Items  []DealItem `json:"line_items"`
}

// LatestPerGroup reduces the append-only submission log to the newest
// attempt per (route, account) group.
func LatestPerGroup(subs []models.DistributorSubmission) []models.DistributorSubmission {
	type key struct {
		route   models.Route
		account string
	}
	latest := make(map[key]models.DistributorSubmission)
	for _, s := range subs {
		k := key{s.Route, s.AccountCode}
		if cur, ok := latest[k]; !ok || s.Attempt > cur.Attempt || s.ID > cur.ID {
			latest[k] = s
		}
	}
	out := make([]models.DistributorSubmission, 0, len(latest))
	for _, s := range latest {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Route < out[j].Route })
	return out
}

// DeriveStatus is a pure function of the active hold set and the latest
// submission outcome per group; recomputing from the same inputs always
// yields the same answer.
func DeriveStatus(order models.Order, holds []models.Hold, latest []models.DistributorSubmission) string {
	for _, s := range latest {
		if s.Outcome == models.OutcomeRejected {
			return DealStatusRejected
		}
	}
	if len(models.ActiveHolds(holds)) > 0 {
		return DealStatusHeld
	}

	clearItems := 0
	for _, it := range order.Items {
		if !it.Held() {
			clearItems++
		}
	}
	if clearItems == 0 || len(latest) == 0 {
		return DealStatusPending
	}
	for _, s := range latest {
		if s.Outcome != models.OutcomeConfirmed {
			return DealStatusPending
		}
	}
	return DealStatusConfirmed
}

// BuildDeal assembles the projection for one order from its current state.
func BuildDeal(order models.Order, subs []models.DistributorSubmission, holds []models.Hold) Deal {
	latest := LatestPerGroup(subs)
	active := models.ActiveHolds(holds)

	fields := DealFields{
		OrderNumber:        order.OrderNumber,
		Status:             DeriveStatus(order, holds, latest),
		FulfillmentSummary: summarizeRoutes(order.Items),
		AccountUsed:        accountsUsed(order.Items),
	}
	if len(active) > 0 {
		fields.HoldReason = string(active[0].Reason)
	}
	for _, s := range latest {
		if s.Outcome == models.OutcomeConfirmed {
			ts := s.CreatedAt
			if fields.ConfirmedAt == nil || ts.After(*fields.ConfirmedAt) {
				fields.ConfirmedAt = &ts
			}
			if fields.DistributorOrderID == "" {
				fields.DistributorOrderID = s.DistributorOrderID
			}
		}
		if s.Outcome == models.OutcomeTransportFailure {
			fields.Escalation = "distributor unreachable, retries exhausted; manual intervention required"
		}
	}

	blocked := make(map[int]models.HoldReason)
	for _, h := range active {
		blocked[h.LineNo] = h.Reason
	}

	deal := Deal{Key: order.OrderNumber, Fields: fields}
	for _, it := range order.Items {
		row := DealItem{
			Sku:              it.Sku,
			StockID:          it.StockID,
			Quantity:         it.Quantity,
			UnitPriceCents:   it.UnitPriceCents,
			Category:         it.Category,
			Manufacturer:     it.Manufacturer,
			RequiresFfl:      it.RequiresFfl,
			DropShipEligible: it.DropShipEligible,
		}
		if reason, ok := blocked[it.LineNo]; ok {
			row.Held = true
			row.HoldReason = string(reason)
		} else if _, ok := blocked[0]; ok && len(blocked) > 0 {
			row.Held = true
			row.HoldReason = string(blocked[0])
		} else if it.Held() {
			row.Held = true
			row.HoldReason = it.HoldReason
		}
		deal.Items = append(deal.Items, row)
	}
	return deal
}

func summarizeRoutes(items []models.LineItem) string {
	var inHouse, dropShip bool
	for _, it := range items {
		switch it.Route {
		case models.RouteInHouse:
			inHouse = true
		case models.RouteDropShip:
			dropShip = true
		}
	}
	switch {
	case inHouse && dropShip:
		return "in-house + drop-ship"
	case dropShip:
		return "drop-ship"
	case inHouse:
		return "in-house"
	default:
		return "none"
	}
}

func accountsUsed(items []models.LineItem) string {
	seen := make(map[string]bool)
	var codes []string
	for _, it := range items {
		if it.AccountCode != "" && !seen[it.AccountCode] {
			seen[it.AccountCode] = true
			codes = append(codes, it.AccountCode)
		}
	}
	sort.Strings(codes)
	return strings.Join(codes, ",")
}
