package models

import "time"

// PaidOrderEvent is the intake message handed off by the payment collaborator
// once a charge is captured. It carries the cart snapshot, the payment result
// and the dealer the customer selected, if any.
type PaidOrderEvent struct {
	OrderID        string          `json:"order_id"        validate:"required"`
	CustomerID     string          `json:"customer_id"     validate:"required"`
	Environment    Environment     `json:"environment"     validate:"oneof=test production"`
	MembershipTier PriceTier       `json:"membership_tier" validate:"oneof=retail member platinum"`
	Payment        PaymentResult   `json:"payment"         validate:"required"`
	Ffl            *FflRecord      `json:"ffl"`
	ShippingAddr   *Address        `json:"shipping_address" validate:"required"`
	PaidAt         time.Time       `json:"paid_at"`
	Items          []PaidOrderItem `json:"items"          validate:"required,min=1,dive"`
}

type PaidOrderItem struct {
	Sku              string `json:"sku"      validate:"required"`
	StockID          string `json:"stock_id" validate:"required"`
	Quantity         int    `json:"quantity" validate:"gt=0"`
	Category         string `json:"category"`
	Manufacturer     string `json:"manufacturer"`
	RequiresFfl      bool   `json:"requires_ffl"`
	DropShipEligible bool   `json:"drop_ship_eligible"`
}

// Order materializes the event into the engine's own Order aggregate.
// Line numbers are assigned from position, 1-based.
func (e PaidOrderEvent) Order() Order {
	created := e.PaidAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	ord := Order{
		ID:             e.OrderID,
		CustomerID:     e.CustomerID,
		Environment:    e.Environment,
		MembershipTier: e.MembershipTier,
		Status:         OrderStatusCreated,
		DateCreated:    created,
		ShippingAddr:   e.ShippingAddr,
	}
	if e.Ffl != nil {
		ord.FflLicense = e.Ffl.License
	}
	for i, it := range e.Items {
		ord.Items = append(ord.Items, LineItem{
			OrderRefer:       e.OrderID,
			LineNo:           i + 1,
			Sku:              it.Sku,
			StockID:          it.StockID,
			Quantity:         it.Quantity,
			Category:         it.Category,
			Manufacturer:     it.Manufacturer,
			RequiresFfl:      it.RequiresFfl,
			DropShipEligible: it.DropShipEligible,
		})
	}
	return ord
}
