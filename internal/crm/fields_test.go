package crm_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fulfillment-engine/internal/crm"
	"fulfillment-engine/internal/models"
)

func clearItem(lineNo int, sku string) models.LineItem {
	return models.LineItem{
		LineNo: lineNo, Sku: sku, StockID: "STK-" + sku, Quantity: 1,
		Route: models.RouteDropShip, AccountCode: "DROP-TEST",
	}
}

func heldItem(lineNo int, sku string) models.LineItem {
	it := clearItem(lineNo, sku)
	it.Route = ""
	it.AccountCode = ""
	it.HoldReason = string(models.HoldReasonFflNotOnFile)
	return it
}

func sub(outcome models.Outcome, attempt int) models.DistributorSubmission {
	return models.DistributorSubmission{
		Route: models.RouteDropShip, AccountCode: "DROP-TEST",
		Attempt: attempt, Outcome: outcome, CreatedAt: time.Now().UTC(),
	}
}

func TestLatestPerGroup_PicksNewestAttempt(t *testing.T) {
	subs := []models.DistributorSubmission{
		sub(models.OutcomeTransportFailure, 1),
		sub(models.OutcomeTransportFailure, 2),
		sub(models.OutcomeConfirmed, 3),
	}
	latest := crm.LatestPerGroup(subs)
	require.Len(t, latest, 1)
	require.Equal(t, models.OutcomeConfirmed, latest[0].Outcome)
	require.Equal(t, 3, latest[0].Attempt)
}

func TestDeriveStatus(t *testing.T) {
	ord := models.Order{Items: []models.LineItem{clearItem(1, "OPTIC-1")}}
	activeHold := []models.Hold{{LineNo: 1, Reason: models.HoldReasonFflNotOnFile}}

	cases := []struct {
		name   string
		order  models.Order
		holds  []models.Hold
		latest []models.DistributorSubmission
		want   string
	}{
		{"rejected wins over everything", ord, activeHold,
			[]models.DistributorSubmission{sub(models.OutcomeRejected, 1)}, crm.DealStatusRejected},
		{"active hold means held", ord, activeHold, nil, crm.DealStatusHeld},
		{"all groups confirmed", ord, nil,
			[]models.DistributorSubmission{sub(models.OutcomeConfirmed, 1)}, crm.DealStatusConfirmed},
		{"pending outcome stays pending", ord, nil,
			[]models.DistributorSubmission{sub(models.OutcomePending, 1)}, crm.DealStatusPending},
		{"transport failure stays pending", ord, nil,
			[]models.DistributorSubmission{sub(models.OutcomeTransportFailure, 3)}, crm.DealStatusPending},
		{"no submissions yet", ord, nil, nil, crm.DealStatusPending},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := crm.DeriveStatus(tc.order, tc.holds, tc.latest)
			require.Equal(t, tc.want, got)
			// pure: recomputation yields the same answer
			require.Equal(t, got, crm.DeriveStatus(tc.order, tc.holds, tc.latest))
		})
	}
}

func TestBuildDeal_SubformCarriesFullItemListWithHeldFlagged(t *testing.T) {
	ord := models.Order{
		ID:          "ord-1",
		OrderNumber: "TF00000010",
		Items:       []models.LineItem{heldItem(1, "RIFLE-1"), clearItem(2, "OPTIC-1")},
	}
	holds := []models.Hold{{OrderRefer: "ord-1", LineNo: 1, Reason: models.HoldReasonFflNotOnFile}}
	subs := []models.DistributorSubmission{sub(models.OutcomeConfirmed, 1)}

	deal := crm.BuildDeal(ord, subs, holds)

	require.Equal(t, "TF00000010", deal.Key)
	require.Equal(t, crm.DealStatusHeld, deal.Fields.Status)
	require.Equal(t, string(models.HoldReasonFflNotOnFile), deal.Fields.HoldReason)

	require.Len(t, deal.Items, 2)
	require.True(t, deal.Items[0].Held)
	require.Equal(t, string(models.HoldReasonFflNotOnFile), deal.Items[0].HoldReason)
	require.False(t, deal.Items[1].Held)
}

func TestBuildDeal_ConfirmedCarriesDistributorDetail(t *testing.T) {
	ord := models.Order{
		ID: "ord-1", OrderNumber: "TF00000010",
		Items: []models.LineItem{clearItem(1, "OPTIC-1")},
	}
	confirmed := sub(models.OutcomeConfirmed, 1)
	confirmed.DistributorOrderID = "D-42"

	deal := crm.BuildDeal(ord, []models.DistributorSubmission{confirmed}, nil)

	require.Equal(t, crm.DealStatusConfirmed, deal.Fields.Status)
	require.Equal(t, "D-42", deal.Fields.DistributorOrderID)
	require.NotNil(t, deal.Fields.ConfirmedAt)
	require.Equal(t, "drop-ship", deal.Fields.FulfillmentSummary)
	require.Equal(t, "DROP-TEST", deal.Fields.AccountUsed)
}

func TestBuildDeal_EscalationVisibleToOperators(t *testing.T) {
	ord := models.Order{
		ID: "ord-1", OrderNumber: "TF00000010",
		Items: []models.LineItem{clearItem(1, "OPTIC-1")},
	}
	subs := []models.DistributorSubmission{
		sub(models.OutcomeTransportFailure, 1),
		sub(models.OutcomeTransportFailure, 2),
		sub(models.OutcomeTransportFailure, 3),
	}

	deal := crm.BuildDeal(ord, subs, nil)

	require.Equal(t, crm.DealStatusPending, deal.Fields.Status)
	require.NotEmpty(t, deal.Fields.Escalation)
}

func TestBuildDeal_MixedRoutesSummary(t *testing.T) {
	inHouse := clearItem(1, "CASE-1")
	inHouse.Route = models.RouteInHouse
	inHouse.AccountCode = "WHSE-TEST"

	ord := models.Order{
		ID: "ord-1", OrderNumber: "TF00000010",
		Items: []models.LineItem{inHouse, clearItem(2, "OPTIC-1")},
	}

	deal := crm.BuildDeal(ord, nil, nil)
	require.Equal(t, "in-house + drop-ship", deal.Fields.FulfillmentSummary)
	require.Equal(t, "DROP-TEST,WHSE-TEST", deal.Fields.AccountUsed)
}
