package postgres

import (
	"github.com/jinzhu/gorm"

	"fulfillment-engine/internal/models"
	"fulfillment-engine/internal/ordernum"
)

type OrderStoreRepo struct {
	db *gorm.DB
}

func NewOrderStore(db *gorm.DB) *OrderStoreRepo {
	return &OrderStoreRepo{db: db}
}

func (r *OrderStoreRepo) Create(o models.Order) error {
	if o.ShippingAddr != nil {
		o.ShippingAddr.OrderRefer = o.ID
	}
	for i := range o.Items {
		o.Items[i].OrderRefer = o.ID
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&o).Error
	})
}

// CreateOrUpdate upserts the order header and replaces its item rows inside
// one transaction, so re-running a reconciliation never duplicates lines.
func (r *OrderStoreRepo) CreateOrUpdate(o models.Order) error {
	if o.ShippingAddr != nil {
		o.ShippingAddr.OrderRefer = o.ID
	}
	for i := range o.Items {
		o.Items[i].OrderRefer = o.ID
	}

	return r.db.
		Set("gorm:association_autocreate", false).
		Set("gorm:association_autoupdate", false).
		Transaction(func(tx *gorm.DB) error {

			var count int
			if err := tx.Model(&models.Order{}).
				Where("id = ?", o.ID).
				Count(&count).Error; err != nil {
				return err
			}

			if count == 0 {
				hdr := models.Order{
					ID:             o.ID,
					OrderNumber:    o.OrderNumber,
					CustomerID:     o.CustomerID,
					Environment:    o.Environment,
					MembershipTier: o.MembershipTier,
					Status:         o.Status,
					FflLicense:     o.FflLicense,
					DateCreated:    o.DateCreated,
				}
				if err := tx.Create(&hdr).Error; err != nil {
					return err
				}
			} else {
				if err := tx.Model(&models.Order{}).
					Where("id = ?", o.ID).
					Updates(map[string]interface{}{
						"order_number":    o.OrderNumber,
						"customer_id":     o.CustomerID,
						"environment":     o.Environment,
						"membership_tier": o.MembershipTier,
						"status":          o.Status,
						"ffl_license":     o.FflLicense,
						"date_created":    o.DateCreated,
					}).Error; err != nil {
					return err
				}
			}

			if o.ShippingAddr != nil {
				var addr models.Address
				err := tx.Where("order_refer = ?", o.ID).First(&addr).Error
				switch {
				case gorm.IsRecordNotFoundError(err):
					if err := tx.Model(&models.Address{}).Create(o.ShippingAddr).Error; err != nil {
						return err
					}
				case err != nil:
					return err
				default:
					if err := tx.Model(&addr).Updates(o.ShippingAddr).Error; err != nil {
						return err
					}
				}
			}

			if err := tx.Where("order_refer = ?", o.ID).Delete(models.LineItem{}).Error; err != nil {
				return err
			}
			for i := range o.Items {
				if err := tx.Model(&models.LineItem{}).Create(&o.Items[i]).Error; err != nil {
					return err
				}
			}

			return nil
		})
}

func (r *OrderStoreRepo) Get(id string) (models.Order, error) {
	var o models.Order
	q := r.db.Preload("ShippingAddr").
		Preload("Items").
		Where("id = ?", id).
		First(&o)
	return o, q.Error
}

func (r *OrderStoreRepo) GetByNumber(number string) (models.Order, error) {
	var o models.Order
	q := r.db.Preload("ShippingAddr").
		Preload("Items").
		Where("order_number = ?", number).
		First(&o)
	return o, q.Error
}

func (r *OrderStoreRepo) GetAll() ([]models.Order, error) {
	var out []models.Order
	q := r.db.Preload("ShippingAddr").
		Preload("Items").
		Find(&out)
	return out, q.Error
}

// MaxSequence returns the highest sequence already allocated for the
// environment, for seeding the allocator at boot.
func (r *OrderStoreRepo) MaxSequence(env models.Environment) (int64, error) {
	var numbers []string
	q := r.db.Model(&models.Order{}).
		Where("environment = ? AND order_number <> ''", env).
		Pluck("order_number", &numbers)
	if q.Error != nil {
		return 0, q.Error
	}

	var max int64
	for _, num := range numbers {
		_, seq, _, err := ordernum.Parse(num)
		if err != nil {
			continue
		}
		if seq > max {
			max = seq
		}
	}
	return max, nil
}
