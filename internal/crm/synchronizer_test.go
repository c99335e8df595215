package crm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fulfillment-engine/internal/crm"
	"fulfillment-engine/internal/models"
)

// fakeCRM implements upsert-by-key deal storage over HTTP.
type fakeCRM struct {
	mu       sync.Mutex
	deals    map[string]crm.Deal
	upserts  int
	conflict int // respond 409 this many times before accepting
}

func newFakeCRM() *fakeCRM {
	return &fakeCRM{deals: map[string]crm.Deal{}}
}

func (f *fakeCRM) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(r.URL.Path, "/deals/")
		f.mu.Lock()
		defer f.mu.Unlock()

		switch r.Method {
		case http.MethodPut:
			f.upserts++
			if f.conflict > 0 {
				f.conflict--
				w.WriteHeader(http.StatusConflict)
				_, _ = w.Write([]byte("deal key mismatch"))
				return
			}
			var deal crm.Deal
			if err := json.NewDecoder(r.Body).Decode(&deal); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			if _, exists := f.deals[key]; exists {
				w.WriteHeader(http.StatusOK)
			} else {
				w.WriteHeader(http.StatusCreated)
			}
			f.deals[key] = deal
		case http.MethodGet:
			deal, ok := f.deals[key]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_ = json.NewEncoder(w).Encode(deal)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

func testOrder() models.Order {
	return models.Order{
		ID:          "ord-1",
		OrderNumber: "TF00000010",
		Items: []models.LineItem{{
			LineNo: 1, Sku: "OPTIC-1", StockID: "STK-1", Quantity: 1,
			Route: models.RouteDropShip, AccountCode: "DROP-TEST",
		}},
	}
}

func TestSync_IdempotentByDealKey(t *testing.T) {
	fake := newFakeCRM()
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	s := crm.NewSynchronizer(crm.NewClient(srv.URL, time.Second))
	ord := testOrder()

	_, err := s.Sync(context.Background(), ord, nil, nil)
	require.NoError(t, err)
	_, err = s.Sync(context.Background(), ord, nil, nil)
	require.NoError(t, err)

	require.Len(t, fake.deals, 1, "second sync must update, not duplicate")
	require.Equal(t, 2, fake.upserts)
}

func TestSync_SecondSyncUpdatesStatus(t *testing.T) {
	fake := newFakeCRM()
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	s := crm.NewSynchronizer(crm.NewClient(srv.URL, time.Second))
	ord := testOrder()

	_, err := s.Sync(context.Background(), ord, nil, nil)
	require.NoError(t, err)

	confirmed := models.DistributorSubmission{
		Route: models.RouteDropShip, AccountCode: "DROP-TEST",
		Attempt: 1, Outcome: models.OutcomeConfirmed,
		DistributorOrderID: "D-1", CreatedAt: time.Now().UTC(),
	}
	_, err = s.Sync(context.Background(), ord, []models.DistributorSubmission{confirmed}, nil)
	require.NoError(t, err)

	ok, err := s.Verify(context.Background(), ord.OrderNumber, crm.DealStatusConfirmed)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestSync_ConflictRetriedOnceThenSucceeds(t *testing.T) {
	fake := newFakeCRM()
	fake.conflict = 1
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	s := crm.NewSynchronizer(crm.NewClient(srv.URL, time.Second))

	deal, err := s.Sync(context.Background(), testOrder(), nil, nil)
	require.NoError(t, err)
	require.Equal(t, "TF00000010", deal.Key)
	require.Equal(t, 2, fake.upserts)
}

func TestSync_SecondConflictEscalates(t *testing.T) {
	fake := newFakeCRM()
	fake.conflict = 2
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	s := crm.NewSynchronizer(crm.NewClient(srv.URL, time.Second))

	_, err := s.Sync(context.Background(), testOrder(), nil, nil)
	require.ErrorIs(t, err, crm.ErrSyncConflict)
	require.Equal(t, 2, fake.upserts, "exactly one retry")
}

func TestSync_MalformedStoredNumberFallsBackToOrderID(t *testing.T) {
	fake := newFakeCRM()
	fake.conflict = 1
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	s := crm.NewSynchronizer(crm.NewClient(srv.URL, time.Second))
	ord := testOrder()
	ord.OrderNumber = "garbage-key"

	deal, err := s.Sync(context.Background(), ord, nil, nil)
	require.NoError(t, err)
	require.Equal(t, "ord-1", deal.Key)
}

func TestGetDeal_NotFound(t *testing.T) {
	fake := newFakeCRM()
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	c := crm.NewClient(srv.URL, time.Second)
	_, err := c.GetDeal(context.Background(), "absent")
	require.ErrorIs(t, err, crm.ErrDealNotFound)
}
