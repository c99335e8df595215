package pricing

import (
	"encoding/json"
	"errors"
	"os"

	pkgerrors "github.com/pkg/errors"

	"fulfillment-engine/internal/models"
)

var (
	ErrUnknownSku = errors.New("unknown sku")
	ErrBadLadder  = errors.New("invalid price ladder")
)

// ladder entry prices are cents, one per tier. Platinum is the most
// exclusive tier and is never part of any pre-checkout read path.
type Rung struct {
	RetailCents   int `json:"retail_cents"`
	MemberCents   int `json:"member_cents"`
	PlatinumCents int `json:"platinum_cents"`
}

type Ladder struct {
	rungs map[string]Rung
}

// NewLadder validates monotonicity: each more exclusive tier is priced at
// or below the tier below it.
func NewLadder(rungs map[string]Rung) (*Ladder, error) {
	for sku, r := range rungs {
		if r.PlatinumCents <= 0 || r.MemberCents <= 0 || r.RetailCents <= 0 {
			return nil, pkgerrors.Wrapf(ErrBadLadder, "sku %s: non-positive price", sku)
		}
		if r.MemberCents > r.RetailCents || r.PlatinumCents > r.MemberCents {
			return nil, pkgerrors.Wrapf(ErrBadLadder, "sku %s: tiers not monotonic", sku)
		}
	}
	return &Ladder{rungs: rungs}, nil
}

func LoadLadder(path string) (*Ladder, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "read price ladder")
	}
	var rungs map[string]Rung
	if err := json.Unmarshal(raw, &rungs); err != nil {
		return nil, pkgerrors.Wrap(err, "decode price ladder")
	}
	return NewLadder(rungs)
}

// DisplayPrices is the catalog-facing view: retail and member only. The
// platinum price must never leave this package before checkout completes.
type DisplayPrices struct {
	Sku         string `json:"sku"`
	RetailCents int    `json:"retail_cents"`
	MemberCents int    `json:"member_cents"`
}

func (l *Ladder) Display(sku string) (DisplayPrices, error) {
	r, ok := l.rungs[sku]
	if !ok {
		return DisplayPrices{}, pkgerrors.Wrap(ErrUnknownSku, sku)
	}
	return DisplayPrices{Sku: sku, RetailCents: r.RetailCents, MemberCents: r.MemberCents}, nil
}

// Resolver fixes the unit price actually charged. It runs only after
// payment confirmation, which is what allows it to read the platinum tier.
type Resolver struct {
	ladder *Ladder
}

func NewResolver(l *Ladder) *Resolver {
	return &Resolver{ladder: l}
}

func (r *Resolver) Resolve(sku string, tier models.PriceTier) (int, error) {
	rg, ok := r.ladder.rungs[sku]
	if !ok {
		return 0, pkgerrors.Wrap(ErrUnknownSku, sku)
	}
	switch tier {
	case models.TierRetail:
		return rg.RetailCents, nil
	case models.TierMember:
		return rg.MemberCents, nil
	case models.TierPlatinum:
		return rg.PlatinumCents, nil
	default:
		return 0, pkgerrors.Wrapf(ErrBadLadder, "unknown tier %q", tier)
	}
}

// ResolveItems stamps the charged unit price onto every line item.
func (r *Resolver) ResolveItems(items []models.LineItem, tier models.PriceTier) ([]models.LineItem, error) {
	out := make([]models.LineItem, len(items))
	copy(out, items)
	for i := range out {
		cents, err := r.Resolve(out[i].Sku, tier)
		if err != nil {
			return nil, err
		}
		out[i].UnitPriceCents = cents
	}
	return out, nil
}
