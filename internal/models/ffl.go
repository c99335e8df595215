package models

type FflStatus string

const (
	FflStatusUnknown  FflStatus = "unknown"
	FflStatusPending  FflStatus = "pending"
	FflStatusOnFile   FflStatus = "on_file"
	FflStatusVerified FflStatus = "verified"
)

var fflStatusRank = map[FflStatus]int{
	FflStatusUnknown:  0,
	FflStatusPending:  1,
	FflStatusOnFile:   2,
	FflStatusVerified: 3,
}

// AtLeast reports whether the status ranks at or above min.
func (s FflStatus) AtLeast(min FflStatus) bool {
	return fflStatusRank[s] >= fflStatusRank[min]
}

// FflRecord is the directory collaborator's view of a licensed dealer.
type FflRecord struct {
	License string    `json:"license" validate:"required"`
	Name    string    `json:"name"`
	Zip     string    `json:"zip"`
	Status  FflStatus `json:"status"`
}
