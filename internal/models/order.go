package models

import (
	"time"
)

type Environment string

const (
	EnvTest       Environment = "test"
	EnvProduction Environment = "production"
)

type OrderStatus string

const (
	OrderStatusCreated    OrderStatus = "created"
	OrderStatusClassified OrderStatus = "classified"
	OrderStatusSubmitted  OrderStatus = "submitted"
	OrderStatusReconciled OrderStatus = "reconciled"
	OrderStatusHeld       OrderStatus = "held"
	OrderStatusRejected   OrderStatus = "rejected"
)

type PriceTier string

const (
	TierRetail   PriceTier = "retail"
	TierMember   PriceTier = "member"
	TierPlatinum PriceTier = "platinum"
)

type Order struct {
	ID             string      `json:"id"               validate:"required" gorm:"primary_key;unique"`
	OrderNumber    string      `json:"order_number"     gorm:"unique_index"`
	CustomerID     string      `json:"customer_id"      validate:"required"`
	Environment    Environment `json:"environment"      validate:"oneof=test production"`
	MembershipTier PriceTier   `json:"membership_tier"  validate:"oneof=retail member platinum"`
	Status         OrderStatus `json:"status"`
	FflLicense     string      `json:"ffl_license"`
	DateCreated    time.Time   `json:"date_created"     validate:"required"`
	ShippingAddr   *Address    `json:"shipping_address" validate:"required" gorm:"foreignkey:OrderRefer;association_foreignkey:ID"`
	Items          []LineItem  `json:"items"            validate:"required,min=1,dive" gorm:"foreignkey:OrderRefer;association_foreignkey:ID"`
}

// RequiresFfl reports whether any line item must transfer through a licensed dealer.
func (o Order) RequiresFfl() bool {
	for _, it := range o.Items {
		if it.RequiresFfl {
			return true
		}
	}
	return false
}

func (o Order) Item(lineNo int) *LineItem {
	for i := range o.Items {
		if o.Items[i].LineNo == lineNo {
			return &o.Items[i]
		}
	}
	return nil
}

type Address struct {
	OrderRefer string `json:"-"      gorm:"type:varchar(64);index"`
	Name       string `json:"name"   validate:"required"`
	Phone      string `json:"phone"`
	Zip        string `json:"zip"    validate:"required"`
	City       string `json:"city"   validate:"required"`
	Street     string `json:"street" validate:"required"`
	Region     string `json:"region"`
	Email      string `json:"email"`
}

type PaymentResult struct {
	TransactionID string `json:"transaction_id" validate:"required"`
	AmountCents   int    `json:"amount_cents"   validate:"gt=0"`
}
