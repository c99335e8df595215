package postgres

import (
	"time"

	"github.com/jinzhu/gorm"

	"fulfillment-engine/internal/models"
)

type HoldStoreRepo struct {
	db *gorm.DB
}

func NewHoldStore(db *gorm.DB) *HoldStoreRepo {
	return &HoldStoreRepo{db: db}
}

func (r *HoldStoreRepo) CreateHold(h models.Hold) (models.Hold, error) {
	if err := r.db.Create(&h).Error; err != nil {
		return models.Hold{}, err
	}
	return h, nil
}

// ClearHold stamps the cleared timestamp. Clearing an already cleared hold is
// a no-op and returns the stored row.
func (r *HoldStoreRepo) ClearHold(orderID string, holdID uint, at time.Time) (models.Hold, error) {
	var h models.Hold
	if err := r.db.Where("order_refer = ? AND id = ?", orderID, holdID).First(&h).Error; err != nil {
		return models.Hold{}, err
	}
	if h.ClearedAt != nil {
		return h, nil
	}
	if err := r.db.Model(&h).Update("cleared_at", at).Error; err != nil {
		return models.Hold{}, err
	}
	h.ClearedAt = &at
	return h, nil
}

func (r *HoldStoreRepo) HoldsByOrder(orderID string) ([]models.Hold, error) {
	var out []models.Hold
	q := r.db.Where("order_refer = ?", orderID).
		Order("id asc").
		Find(&out)
	return out, q.Error
}
