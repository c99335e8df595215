package postgres

import (
	"github.com/jinzhu/gorm"

	"fulfillment-engine/internal/models"
)

type SubmissionStoreRepo struct {
	db *gorm.DB
}

func NewSubmissionStore(db *gorm.DB) *SubmissionStoreRepo {
	return &SubmissionStoreRepo{db: db}
}

// Append inserts a new attempt row. Submission records are never updated.
func (r *SubmissionStoreRepo) Append(sub models.DistributorSubmission) (models.DistributorSubmission, error) {
	if err := r.db.Create(&sub).Error; err != nil {
		return models.DistributorSubmission{}, err
	}
	return sub, nil
}

func (r *SubmissionStoreRepo) ListByOrder(orderID string) ([]models.DistributorSubmission, error) {
	var out []models.DistributorSubmission
	q := r.db.Where("order_refer = ?", orderID).
		Order("id asc").
		Find(&out)
	return out, q.Error
}
