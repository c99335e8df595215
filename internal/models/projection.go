package models

// OrderProjection is the read-side view served by the HTTP API: the order
// with its current hold set and full submission audit trail.
type OrderProjection struct {
	Order       Order                   `json:"order"`
	Holds       []Hold                  `json:"holds"`
	Submissions []DistributorSubmission `json:"submissions"`
	DealStatus  string                  `json:"deal_status"`
}
