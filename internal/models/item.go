package models

type Route string

const (
	RouteInHouse  Route = "in-house"
	RouteDropShip Route = "drop-ship"
)

type LineItem struct {
	OrderRefer       string `json:"-"                  gorm:"type:varchar(64);index"`
	LineNo           int    `json:"line_no"            validate:"gt=0"`
	Sku              string `json:"sku"                validate:"required"`
	StockID          string `json:"stock_id"           validate:"required"`
	Quantity         int    `json:"quantity"           validate:"gt=0"`
	UnitPriceCents   int    `json:"unit_price_cents"`
	Category         string `json:"category"`
	Manufacturer     string `json:"manufacturer"`
	RequiresFfl      bool   `json:"requires_ffl"`
	DropShipEligible bool   `json:"drop_ship_eligible"`
	Route            Route  `json:"route"`
	AccountCode      string `json:"account_code"`
	HoldReason       string `json:"hold_reason"`
}

// Classified reports whether the item has been routed to a distributor account.
func (i LineItem) Classified() bool {
	return i.Route != "" && i.AccountCode != ""
}

func (i LineItem) Held() bool {
	return i.HoldReason != ""
}
