package service

import (
	"context"
	"fmt"
	"time"

	"github.com/storedesk/helpdesk/internal/model"
	"github.com/storedesk/helpdesk/internal/repository"
)

// DefaultRange is the report window used when no start date is given.
const DefaultRange = 30 * 24 * time.Hour

// ResolveRange fills in missing bounds: start defaults to 30 days before now
// and end defaults to now.
func ResolveRange(start, end *time.Time, now time.Time) (model.DateRange, error) {
	r := model.DateRange{Start: now.Add(-DefaultRange), End: now}
	if start != nil {
		r.Start = start.UTC()
	}
	if end != nil {
		r.End = end.UTC()
	}
	if r.End.Before(r.Start) {
		return model.DateRange{}, invalid("end date is before start date")
	}
	return r, nil
}

// AnalyticsService computes read-only dashboard reports.
type AnalyticsService struct {
	repo *repository.AnalyticsRepo
}

// NewAnalyticsService creates an analytics service.
func NewAnalyticsService(repo *repository.AnalyticsRepo) *AnalyticsService {
	return &AnalyticsService{repo: repo}
}

// Overview counts conversations and messages in range. The open count is a
// live snapshot and ignores the range.
func (s *AnalyticsService) Overview(ctx context.Context, storeID string, r model.DateRange) (*model.Overview, error) {
	total, err := s.repo.CountConversations(ctx, storeID, "", r.Start, r.End)
	if err != nil {
		return nil, fmt.Errorf("failed to count conversations: %w", err)
	}
	open, err := s.repo.CountByStatus(ctx, storeID, model.StatusOpen)
	if err != nil {
		return nil, fmt.Errorf("failed to count open conversations: %w", err)
	}
	resolved, err := s.repo.CountConversations(ctx, storeID, model.StatusResolved, r.Start, r.End)
	if err != nil {
		return nil, fmt.Errorf("failed to count resolved conversations: %w", err)
	}
	messages, err := s.repo.CountMessages(ctx, storeID, r.Start, r.End)
	if err != nil {
		return nil, fmt.Errorf("failed to count messages: %w", err)
	}

	o := &model.Overview{
		TotalConversations:    total,
		OpenConversations:     open,
		ResolvedConversations: resolved,
		TotalMessages:         messages,
	}
	if total > 0 {
		o.AverageMessagesPerConversation = float64(messages) / float64(total)
	}
	return o, nil
}

// CommonQuestions is not implemented and always reports no questions.
// Clustering customer messages into questions is an open extension point.
func (s *AnalyticsService) CommonQuestions(ctx context.Context, storeID string, limit int) ([]model.CommonQuestion, error) {
	return []model.CommonQuestion{}, nil
}

// ResponseTimes measures time to first reply: the gap between the first two
// messages of every conversation created in range. Conversations with fewer
// than two messages contribute 0.
func (s *AnalyticsService) ResponseTimes(ctx context.Context, storeID string, r model.DateRange) (*model.ResponseTimes, error) {
	ids, err := s.repo.ConversationIDs(ctx, storeID, r.Start, r.End)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	out := &model.ResponseTimes{ResponseTimes: make([]float64, 0, len(ids))}
	var sum float64
	for _, id := range ids {
		msgs, err := s.repo.FirstMessages(ctx, id, 2)
		if err != nil {
			return nil, fmt.Errorf("failed to load messages of %s: %w", id, err)
		}
		var gap float64
		if len(msgs) == 2 {
			gap = msgs[1].CreatedAt.Sub(msgs[0].CreatedAt).Seconds()
		}
		out.ResponseTimes = append(out.ResponseTimes, gap)
		sum += gap
	}
	if len(out.ResponseTimes) > 0 {
		out.AverageResponseTime = sum / float64(len(out.ResponseTimes))
	}
	return out, nil
}

// Satisfaction tallies the stored sentiment of conversations created in range.
func (s *AnalyticsService) Satisfaction(ctx context.Context, storeID string, r model.DateRange) (*model.Satisfaction, error) {
	sentiments, err := s.repo.Sentiments(ctx, storeID, r.Start, r.End)
	if err != nil {
		return nil, fmt.Errorf("failed to load sentiments: %w", err)
	}

	out := &model.Satisfaction{Total: int64(len(sentiments))}
	for _, sv := range sentiments {
		if sv == nil {
			continue
		}
		switch *sv {
		case model.SentimentPositive:
			out.Positive++
		case model.SentimentNeutral:
			out.Neutral++
		case model.SentimentNegative:
			out.Negative++
		}
	}
	return out, nil
}
