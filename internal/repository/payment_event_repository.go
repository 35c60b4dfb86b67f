package repository

import (
	"github.com/tapolio/tapolio-server/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentEventRepository interface {
	// Record stores the event once per checkout session; it reports whether a new row was written.
	Record(event *model.PaymentEvent) (bool, error)
	FindByCheckoutSessionID(id string) (*model.PaymentEvent, error)
}

type paymentEventRepository struct {
	db *gorm.DB
}

func NewPaymentEventRepository(db *gorm.DB) PaymentEventRepository {
	return &paymentEventRepository{db: db}
}

func (r *paymentEventRepository) Record(event *model.PaymentEvent) (bool, error) {
	res := r.db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "checkout_session_id"}}, DoNothing: true}).
		Create(event)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *paymentEventRepository) FindByCheckoutSessionID(id string) (*model.PaymentEvent, error) {
	var event model.PaymentEvent
	if err := r.db.Where("checkout_session_id = ?", id).First(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}
