package repository

import (
	"time"

	"github.com/jinzhu/gorm"

	"fulfillment-engine/internal/models"
	"fulfillment-engine/internal/repository/cache"
	"fulfillment-engine/internal/repository/postgres"
)

type OrderStore interface {
	Create(ord models.Order) error
	CreateOrUpdate(ord models.Order) error
	Get(id string) (models.Order, error)
	GetByNumber(number string) (models.Order, error)
	GetAll() ([]models.Order, error)
	MaxSequence(env models.Environment) (int64, error)
}

type SubmissionStore interface {
	Append(sub models.DistributorSubmission) (models.DistributorSubmission, error)
	ListByOrder(orderID string) ([]models.DistributorSubmission, error)
}

type HoldStore interface {
	CreateHold(h models.Hold) (models.Hold, error)
	ClearHold(orderID string, holdID uint, at time.Time) (models.Hold, error)
	HoldsByOrder(orderID string) ([]models.Hold, error)
}

type ProjectionCache interface {
	PutProjection(number string, p models.OrderProjection)
	GetProjection(number string) (models.OrderProjection, error)
	GetAllProjections() ([]models.OrderProjection, error)
}

type Repository struct {
	Orders      OrderStore
	Submissions SubmissionStore
	Holds       HoldStore
	Projections ProjectionCache
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Orders:      postgres.NewOrderStore(db),
		Submissions: postgres.NewSubmissionStore(db),
		Holds:       postgres.NewHoldStore(db),
		Projections: cache.NewProjectionCache(cache.NewShardedCache()),
	}
}
