package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Plan is a subscription tier.
type Plan string

const (
	PlanBasic      Plan = "BASIC"
	PlanPro        Plan = "PRO"
	PlanEnterprise Plan = "ENTERPRISE"
)

// Valid reports whether p is a known plan.
func (p Plan) Valid() bool {
	switch p {
	case PlanBasic, PlanPro, PlanEnterprise:
		return true
	}
	return false
}

// SubscriptionStatus is the billing state of a subscription.
type SubscriptionStatus string

const (
	SubscriptionTrial    SubscriptionStatus = "TRIAL"
	SubscriptionActive   SubscriptionStatus = "ACTIVE"
	SubscriptionPastDue  SubscriptionStatus = "PAST_DUE"
	SubscriptionCanceled SubscriptionStatus = "CANCELED"
)

// Subscription is the one-to-one billing record of a store.
type Subscription struct {
	ID                 string             `gorm:"type:varchar(36);primaryKey" json:"id"`
	StoreID            string             `gorm:"type:varchar(36);not null;uniqueIndex" json:"store_id"`
	Plan               Plan               `gorm:"type:varchar(16);not null" json:"plan"`
	Status             SubscriptionStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	CurrentPeriodStart time.Time          `json:"current_period_start"`
	CurrentPeriodEnd   time.Time          `gorm:"index" json:"current_period_end"`
	CancelAtPeriodEnd  bool               `gorm:"not null;default:false" json:"cancel_at_period_end"`
	CanceledAt         *time.Time         `json:"canceled_at,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// TableName specifies the table name.
func (Subscription) TableName() string {
	return "subscriptions"
}

// BeforeCreate assigns a time-ordered id.
func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.Must(uuid.NewV7()).String()
	}
	return nil
}

// UpgradePlanRequest is the request to change a store's plan.
type UpgradePlanRequest struct {
	Plan Plan `json:"plan"`
}
