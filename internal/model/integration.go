package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// IntegrationType is the kind of external system connected to a store.
type IntegrationType string

const (
	IntegrationShopify     IntegrationType = "SHOPIFY"
	IntegrationWooCommerce IntegrationType = "WOOCOMMERCE"
	IntegrationWhatsApp    IntegrationType = "WHATSAPP"
)

// Valid reports whether t is a known integration type.
func (t IntegrationType) Valid() bool {
	switch t {
	case IntegrationShopify, IntegrationWooCommerce, IntegrationWhatsApp:
		return true
	}
	return false
}

// Integration is a connection between a store and a storefront or messaging
// channel. Credentials are stored but never serialised back to clients.
type Integration struct {
	ID          string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	StoreID     string          `gorm:"type:varchar(36);not null;index" json:"store_id"`
	Type        IntegrationType `gorm:"type:varchar(16);not null" json:"type"`
	Credentials datatypes.JSON  `json:"-"`
	Config      datatypes.JSON  `json:"config"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TableName specifies the table name.
func (Integration) TableName() string {
	return "integrations"
}

// BeforeCreate assigns a time-ordered id.
func (i *Integration) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.Must(uuid.NewV7()).String()
	}
	return nil
}

// ShopifyCredentials authenticate against a Shopify shop.
type ShopifyCredentials struct {
	ShopDomain  string `json:"shop_domain"`
	AccessToken string `json:"access_token"`
}

// WooCommerceCredentials authenticate against a WooCommerce REST API.
type WooCommerceCredentials struct {
	SiteURL        string `json:"site_url"`
	ConsumerKey    string `json:"consumer_key"`
	ConsumerSecret string `json:"consumer_secret"`
}

// WhatsAppCredentials authenticate against the WhatsApp Cloud API.
type WhatsAppCredentials struct {
	PhoneNumberID string `json:"phone_number_id"`
	AccessToken   string `json:"access_token"`
}

// IntegrationConfig carries per-integration settings. Known settings are typed;
// anything else travels in Opaque untouched.
type IntegrationConfig struct {
	SyncOrders     bool            `json:"sync_orders,omitempty"`
	WebhookSecret  string          `json:"webhook_secret,omitempty"`
	DefaultChannel Channel         `json:"default_channel,omitempty"`
	Opaque         json.RawMessage `json:"opaque,omitempty"`
}

// ConnectIntegrationRequest connects a store to an external system. Exactly one
// credentials block must match the integration type.
type ConnectIntegrationRequest struct {
	StoreID     string                  `json:"store_id"`
	Shopify     *ShopifyCredentials     `json:"shopify,omitempty"`
	WooCommerce *WooCommerceCredentials `json:"woocommerce,omitempty"`
	WhatsApp    *WhatsAppCredentials    `json:"whatsapp,omitempty"`
	Config      IntegrationConfig       `json:"config"`
}
