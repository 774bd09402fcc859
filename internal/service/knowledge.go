package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/storedesk/helpdesk/internal/model"
	"github.com/storedesk/helpdesk/internal/repository"
)

// KnowledgeService manages a store's knowledge base.
type KnowledgeService struct {
	entries *repository.KnowledgeRepo
}

// NewKnowledgeService creates a knowledge-base service.
func NewKnowledgeService(entries *repository.KnowledgeRepo) *KnowledgeService {
	return &KnowledgeService{entries: entries}
}

// List returns every entry of a store, highest priority first.
func (s *KnowledgeService) List(ctx context.Context, storeID string) ([]model.KnowledgeBaseEntry, error) {
	out, err := s.entries.ListByStore(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list knowledge base: %w", err)
	}
	return out, nil
}

// Create adds an entry. Entries are active unless stated otherwise.
func (s *KnowledgeService) Create(ctx context.Context, req *model.CreateKnowledgeEntryRequest) (*model.KnowledgeBaseEntry, error) {
	if req.StoreID == "" {
		return nil, invalid("store id is required")
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		return nil, invalid("title and content are required")
	}

	entry := &model.KnowledgeBaseEntry{
		StoreID:  req.StoreID,
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
		Priority: req.Priority,
		IsActive: true,
	}
	if req.IsActive != nil {
		entry.IsActive = *req.IsActive
	}

	if err := s.entries.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to create entry: %w", err)
	}
	return entry, nil
}

// Get returns one entry.
func (s *KnowledgeService) Get(ctx context.Context, id string) (*model.KnowledgeBaseEntry, error) {
	entry, err := s.entries.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("knowledge base entry %s: %w", id, err)
	}
	return entry, nil
}

// Update applies a partial update to an entry.
func (s *KnowledgeService) Update(ctx context.Context, id string, req *model.UpdateKnowledgeEntryRequest) (*model.KnowledgeBaseEntry, error) {
	entry, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			return nil, invalid("title must not be empty")
		}
		entry.Title = *req.Title
	}
	if req.Content != nil {
		if strings.TrimSpace(*req.Content) == "" {
			return nil, invalid("content must not be empty")
		}
		entry.Content = *req.Content
	}
	if req.Category != nil {
		entry.Category = req.Category
	}
	if req.Priority != nil {
		entry.Priority = *req.Priority
	}
	if req.IsActive != nil {
		entry.IsActive = *req.IsActive
	}

	if err := s.entries.Save(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to update entry: %w", err)
	}
	return entry, nil
}

// Delete removes an entry.
func (s *KnowledgeService) Delete(ctx context.Context, id string) error {
	if err := s.entries.Delete(ctx, id); err != nil {
		return fmt.Errorf("knowledge base entry %s: %w", id, err)
	}
	return nil
}
