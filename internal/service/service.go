package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"fulfillment-engine/internal/crm"
	"fulfillment-engine/internal/fulfillment"
	"fulfillment-engine/internal/models"
	"fulfillment-engine/internal/ordernum"
	"fulfillment-engine/internal/pricing"
	"fulfillment-engine/internal/repository"
)

//go:generate mockgen -source=service.go -destination=mocks/mock.go

// Engine is the order reconciliation surface consumed by the kafka and HTTP
// delivery layers.
type Engine interface {
	HandleMessage(ctx context.Context, payload []byte) error
	Reconcile(ctx context.Context, order models.Order, ffl *models.FflRecord) (models.OrderProjection, error)
	ClearHold(ctx context.Context, orderNumber string, holdID uint) (models.OrderProjection, error)

	GetCachedProjection(number string) (models.OrderProjection, error)
	GetAllCachedProjections() ([]models.OrderProjection, error)
	GetDbOrder(number string) (models.Order, error)
	GetSubmissions(number string) ([]models.DistributorSubmission, error)
	WarmProjections() error
}

// Submitter sends one classified group to the distributor.
type Submitter interface {
	Submit(ctx context.Context, orderID, poNumber string, group fulfillment.Group) (models.DistributorSubmission, error)
}

// DealSync projects order state into the CRM.
type DealSync interface {
	Sync(ctx context.Context, order models.Order, subs []models.DistributorSubmission, holds []models.Hold) (crm.Deal, error)
}

type Service struct {
	repo      *repository.Repository
	allocator *ordernum.Allocator
	resolver  *pricing.Resolver
	submitter Submitter
	crm       DealSync
	env       models.Environment

	v   *validator.Validate
	now func() time.Time
}

func NewService(
	repo *repository.Repository,
	allocator *ordernum.Allocator,
	resolver *pricing.Resolver,
	submitter Submitter,
	dealSync DealSync,
	env models.Environment,
) *Service {
	return &Service{
		repo:      repo,
		allocator: allocator,
		resolver:  resolver,
		submitter: submitter,
		crm:       dealSync,
		env:       env,
		v:         validator.New(),
		now:       time.Now,
	}
}
