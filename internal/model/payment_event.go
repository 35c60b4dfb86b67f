package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	PaymentSourceWebhook = "webhook"
	PaymentSourceVerify  = "verify"
)

// PaymentEvent is a reconciliation row for a paid checkout session.
// Credits are granted client side; this table only records what the processor confirmed.
type PaymentEvent struct {
	ID                uint           `gorm:"primarykey" json:"id"`
	CheckoutSessionID string         `json:"checkout_session_id" gorm:"not null;uniqueIndex;size:255"`
	UserID            string         `json:"user_id" gorm:"index"`
	Email             string         `json:"email,omitempty"`
	Credits           int            `json:"credits"`
	AmountTotal       int64          `json:"amount_total"` // cents
	Currency          string         `json:"currency"`
	CouponCode        string         `json:"coupon_code,omitempty"`
	ReferredBy        string         `json:"referred_by,omitempty"`
	Source            string         `json:"source"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}
