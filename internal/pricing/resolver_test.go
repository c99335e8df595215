package pricing_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"fulfillment-engine/internal/models"
	"fulfillment-engine/internal/pricing"
)

func ladder(t *testing.T) *pricing.Ladder {
	t.Helper()
	l, err := pricing.NewLadder(map[string]pricing.Rung{
		"RIFLE-1": {RetailCents: 99900, MemberCents: 94900, PlatinumCents: 89900},
		"CASE-1":  {RetailCents: 4900, MemberCents: 4900, PlatinumCents: 4500},
	})
	require.NoError(t, err)
	return l
}

func TestNewLadder_RejectsNonMonotonicTiers(t *testing.T) {
	_, err := pricing.NewLadder(map[string]pricing.Rung{
		"BAD-1": {RetailCents: 100, MemberCents: 120, PlatinumCents: 90},
	})
	require.ErrorIs(t, err, pricing.ErrBadLadder)

	_, err = pricing.NewLadder(map[string]pricing.Rung{
		"BAD-2": {RetailCents: 100, MemberCents: 90, PlatinumCents: 0},
	})
	require.ErrorIs(t, err, pricing.ErrBadLadder)
}

func TestResolve_PerTier(t *testing.T) {
	r := pricing.NewResolver(ladder(t))

	cases := []struct {
		tier  models.PriceTier
		cents int
	}{
		{models.TierRetail, 99900},
		{models.TierMember, 94900},
		{models.TierPlatinum, 89900},
	}
	for _, tc := range cases {
		got, err := r.Resolve("RIFLE-1", tc.tier)
		require.NoError(t, err)
		require.Equal(t, tc.cents, got)
	}

	_, err := r.Resolve("NOPE-1", models.TierRetail)
	require.ErrorIs(t, err, pricing.ErrUnknownSku)
}

// The platinum price must be absent from every pre-checkout output shape.
func TestDisplay_NeverExposesPlatinumPrice(t *testing.T) {
	l := ladder(t)

	dp, err := l.Display("RIFLE-1")
	require.NoError(t, err)
	require.Equal(t, 99900, dp.RetailCents)
	require.Equal(t, 94900, dp.MemberCents)

	raw, err := json.Marshal(dp)
	require.NoError(t, err)
	require.NotContains(t, string(raw), "platinum")
	require.NotContains(t, string(raw), "89900")

	var asMap map[string]any
	require.NoError(t, json.Unmarshal(raw, &asMap))
	require.Len(t, asMap, 3) // sku + two visible tiers, nothing else
}

func TestResolveItems_StampsChargedPrice(t *testing.T) {
	r := pricing.NewResolver(ladder(t))
	items := []models.LineItem{
		{LineNo: 1, Sku: "RIFLE-1", Quantity: 1},
		{LineNo: 2, Sku: "CASE-1", Quantity: 2},
	}

	got, err := r.ResolveItems(items, models.TierMember)
	require.NoError(t, err)
	require.Equal(t, 94900, got[0].UnitPriceCents)
	require.Equal(t, 4900, got[1].UnitPriceCents)

	// input untouched
	require.Zero(t, items[0].UnitPriceCents)
}

func TestResolveItems_UnknownSkuFailsFast(t *testing.T) {
	r := pricing.NewResolver(ladder(t))
	_, err := r.ResolveItems([]models.LineItem{{LineNo: 1, Sku: "NOPE-1"}}, models.TierRetail)
	require.ErrorIs(t, err, pricing.ErrUnknownSku)
}
