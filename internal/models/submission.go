package models

import "time"

// Outcome is the closed normalization of distributor status codes. All
// downstream logic switches on Outcome, never on raw codes.
type Outcome string

const (
	OutcomeConfirmed        Outcome = "confirmed"
	OutcomeRejected         Outcome = "rejected"
	OutcomePending          Outcome = "pending"
	OutcomeTransportFailure Outcome = "transport_failure"
)

// DistributorSubmission records one attempt to send a (route, account) group
// to the distributor. Rows are append-only; a retry is a new row.
type DistributorSubmission struct {
	ID                 uint      `json:"id"                   gorm:"primary_key;auto_increment"`
	OrderRefer         string    `json:"-"                    gorm:"type:varchar(64);index"`
	Route              Route     `json:"route"`
	AccountCode        string    `json:"account_code"`
	Attempt            int       `json:"attempt"`
	Payload            string    `json:"payload"              gorm:"type:text"`
	RawResponse        string    `json:"raw_response"         gorm:"type:text"`
	Outcome            Outcome   `json:"outcome"`
	DistributorOrderID string    `json:"distributor_order_id"`
	StatusMessage      string    `json:"status_message"`
	CreatedAt          time.Time `json:"created_at"`
}
