package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Platform is the storefront platform a store runs on.
type Platform string

const (
	PlatformShopify     Platform = "SHOPIFY"
	PlatformWooCommerce Platform = "WOOCOMMERCE"
)

// Valid reports whether p is a known platform.
func (p Platform) Valid() bool {
	return p == PlatformShopify || p == PlatformWooCommerce
}

// Store is the tenant root. Everything else hangs off a store.
type Store struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(256);not null" json:"name"`
	Domain    *string   `gorm:"type:varchar(256)" json:"domain,omitempty"`
	Platform  Platform  `gorm:"type:varchar(16);not null" json:"platform"`
	Timezone  string    `gorm:"type:varchar(64);not null" json:"timezone"`
	Currency  string    `gorm:"type:varchar(8);not null" json:"currency"`
	OwnerID   string    `gorm:"type:varchar(64);not null;index" json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Subscription *Subscription `gorm:"foreignKey:StoreID;constraint:OnDelete:CASCADE" json:"subscription,omitempty"`
	Integrations []Integration `gorm:"foreignKey:StoreID;constraint:OnDelete:CASCADE" json:"integrations,omitempty"`
}

// TableName specifies the table name.
func (Store) TableName() string {
	return "stores"
}

// BeforeCreate assigns a time-ordered id.
func (s *Store) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.Must(uuid.NewV7()).String()
	}
	return nil
}

// StoreCounts carries per-store aggregate counts for the owner's store list.
type StoreCounts struct {
	Conversations int64 `json:"conversations"`
	KnowledgeBase int64 `json:"knowledge_base"`
}

// StoreOverview is a store as listed for its owner.
type StoreOverview struct {
	Store
	Counts StoreCounts `json:"_count"`
}

// CreateStoreRequest is the request to create a store.
type CreateStoreRequest struct {
	Name     string   `json:"name"`
	Domain   string   `json:"domain,omitempty"`
	Platform Platform `json:"platform"`
	Timezone string   `json:"timezone,omitempty"`
	Currency string   `json:"currency,omitempty"`
}

// UpdateStoreRequest is a partial store update; nil fields are left untouched.
type UpdateStoreRequest struct {
	Name     *string   `json:"name,omitempty"`
	Domain   *string   `json:"domain,omitempty"`
	Platform *Platform `json:"platform,omitempty"`
	Timezone *string   `json:"timezone,omitempty"`
	Currency *string   `json:"currency,omitempty"`
}
