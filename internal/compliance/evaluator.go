package compliance

import (
	"time"

	"fulfillment-engine/internal/models"
)

// Evaluate raises holds for line items that legally require an FFL transfer
// when the order has no dealer on file. It never clears a previously raised
// hold; clearing is an explicit external action.
func Evaluate(order models.Order, ffl *models.FflRecord, now time.Time) []models.Hold {
	if fflCovers(ffl) {
		return nil
	}

	var holds []models.Hold
	for _, it := range order.Items {
		if !it.RequiresFfl {
			continue
		}
		holds = append(holds, models.Hold{
			OrderRefer: order.ID,
			LineNo:     it.LineNo,
			Reason:     models.HoldReasonFflNotOnFile,
			CreatedAt:  now,
		})
	}
	return holds
}

func fflCovers(ffl *models.FflRecord) bool {
	return ffl != nil && ffl.Status.AtLeast(models.FflStatusOnFile)
}

// HeldLines maps active holds to the line numbers they block. LineNo 0 is an
// order-level hold and blocks every line.
func HeldLines(holds []models.Hold) map[int]models.HoldReason {
	blocked := make(map[int]models.HoldReason)
	for _, h := range models.ActiveHolds(holds) {
		blocked[h.LineNo] = h.Reason
	}
	return blocked
}

// Blocks reports whether the given line is blocked by the active hold set.
func Blocks(holds []models.Hold, lineNo int) bool {
	for _, h := range models.ActiveHolds(holds) {
		if h.LineNo == 0 || h.LineNo == lineNo {
			return true
		}
	}
	return false
}
