package models

import "time"

type HoldReason string

const (
	HoldReasonFflNotOnFile        HoldReason = "FFL not on file"
	HoldReasonDistributorRejected HoldReason = "distributor rejected item"
	HoldReasonManualReview        HoldReason = "manual review"
)

// Hold blocks a line item (or the whole order, LineNo == 0) from distributor
// submission until it is explicitly cleared.
type Hold struct {
	ID         uint       `json:"id"         gorm:"primary_key;auto_increment"`
	OrderRefer string     `json:"-"          gorm:"type:varchar(64);index"`
	LineNo     int        `json:"line_no"`
	Reason     HoldReason `json:"reason"     validate:"required"`
	CreatedAt  time.Time  `json:"created_at"`
	ClearedAt  *time.Time `json:"cleared_at"`
}

func (h Hold) Active() bool {
	return h.ClearedAt == nil
}

// ActiveHolds filters out cleared holds.
func ActiveHolds(holds []Hold) []Hold {
	out := make([]Hold, 0, len(holds))
	for _, h := range holds {
		if h.Active() {
			out = append(out, h)
		}
	}
	return out
}
