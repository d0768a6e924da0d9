package service

import (
	"context"

	"time-ledger/internal/insight"
	"time-ledger/internal/model"
)

// InsightService feeds a day's snapshot and the category catalogue to
// the insight engine.
type InsightService struct {
	activitySvc *ActivityService
	categorySvc *CategoryService
}

func NewInsightService(activitySvc *ActivityService, categorySvc *CategoryService) *InsightService {
	return &InsightService{activitySvc: activitySvc, categorySvc: categorySvc}
}

// Generate recomputes the insight list for one (user, date). An empty
// day yields an empty list, never an error.
func (s *InsightService) Generate(ctx context.Context, user *model.User, date string) ([]insight.Insight, error) {
	activities, err := s.activitySvc.ListDay(ctx, user, date)
	if err != nil {
		return nil, err
	}
	catalogue, err := s.categorySvc.Catalogue(ctx, user)
	if err != nil {
		return nil, err
	}
	return insight.Generate(activities, catalogue), nil
}
