package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/storedesk/helpdesk/internal/model"
	"github.com/storedesk/helpdesk/internal/repository"
	"github.com/storedesk/helpdesk/pkg/logger"
)

// IntegrationService connects stores to storefronts and messaging channels.
// Integrations never affect conversations.
type IntegrationService struct {
	integrations *repository.IntegrationRepo
	logger       *logger.Logger
}

// NewIntegrationService creates an integration service.
func NewIntegrationService(integrations *repository.IntegrationRepo, log *logger.Logger) *IntegrationService {
	return &IntegrationService{integrations: integrations, logger: log}
}

// List returns the integrations of a store.
func (s *IntegrationService) List(ctx context.Context, storeID string) ([]model.Integration, error) {
	out, err := s.integrations.ListByStore(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list integrations: %w", err)
	}
	return out, nil
}

// Connect stores the credentials for kind. Exactly the credentials block
// matching kind must be present and complete.
func (s *IntegrationService) Connect(ctx context.Context, kind model.IntegrationType, req *model.ConnectIntegrationRequest) (*model.Integration, error) {
	if req.StoreID == "" {
		return nil, invalid("store id is required")
	}

	creds, err := credentialsFor(kind, req)
	if err != nil {
		return nil, err
	}
	if req.Config.DefaultChannel != "" && !req.Config.DefaultChannel.Valid() {
		return nil, invalid("unknown default channel %q", req.Config.DefaultChannel)
	}

	credsJSON, err := json.Marshal(creds)
	if err != nil {
		return nil, fmt.Errorf("failed to encode credentials: %w", err)
	}
	cfgJSON, err := json.Marshal(req.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}

	integration := &model.Integration{
		StoreID:     req.StoreID,
		Type:        kind,
		Credentials: datatypes.JSON(credsJSON),
		Config:      datatypes.JSON(cfgJSON),
	}
	if err := s.integrations.Create(ctx, integration); err != nil {
		return nil, fmt.Errorf("failed to create integration: %w", err)
	}

	s.logger.Info("integration connected",
		zap.String("store_id", req.StoreID),
		zap.String("type", string(kind)),
	)
	return integration, nil
}

// Delete removes an integration of a store.
func (s *IntegrationService) Delete(ctx context.Context, storeID, id string) error {
	if err := s.integrations.Delete(ctx, storeID, id); err != nil {
		return fmt.Errorf("integration %s: %w", id, err)
	}
	return nil
}

func credentialsFor(kind model.IntegrationType, req *model.ConnectIntegrationRequest) (any, error) {
	switch kind {
	case model.IntegrationShopify:
		c := req.Shopify
		if c == nil || blank(c.ShopDomain, c.AccessToken) {
			return nil, invalid("shopify shop_domain and access_token are required")
		}
		return c, nil
	case model.IntegrationWooCommerce:
		c := req.WooCommerce
		if c == nil || blank(c.SiteURL, c.ConsumerKey, c.ConsumerSecret) {
			return nil, invalid("woocommerce site_url, consumer_key and consumer_secret are required")
		}
		return c, nil
	case model.IntegrationWhatsApp:
		c := req.WhatsApp
		if c == nil || blank(c.PhoneNumberID, c.AccessToken) {
			return nil, invalid("whatsapp phone_number_id and access_token are required")
		}
		return c, nil
	default:
		return nil, invalid("unknown integration type %q", kind)
	}
}

func blank(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}
