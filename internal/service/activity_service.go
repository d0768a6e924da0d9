package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"time-ledger/internal/ledger"
	"time-ledger/internal/model"
	"time-ledger/internal/repository"
)

// ActivityService applies day-ledger mutations to storage. Every
// mutation loads the day's snapshot first, lets the ledger validate it
// against the minute budget, and persists only what the ledger accepts.
// Mutations for one (user, day) must not be interleaved; the bot's
// single update loop guarantees that.
type ActivityService struct {
	activityRepo *repository.ActivityRepository
	categorySvc  *CategoryService
}

func NewActivityService(activityRepo *repository.ActivityRepository, categorySvc *CategoryService) *ActivityService {
	return &ActivityService{activityRepo: activityRepo, categorySvc: categorySvc}
}

// ListDay returns the day bucket newest-first.
func (s *ActivityService) ListDay(ctx context.Context, user *model.User, date string) ([]model.Activity, error) {
	return s.activityRepo.ListByDay(ctx, user.ID, date)
}

// LogActivity books a new entry into the given day. The category must
// exist in the user's catalogue; the ledger enforces name, duration and
// the 1440-minute budget.
func (s *ActivityService) LogActivity(ctx context.Context, user *model.User, date string, in ledger.Input) (*model.Activity, error) {
	if err := s.requireCategory(ctx, user, in.CategoryID); err != nil {
		return nil, err
	}

	snapshot, err := s.activityRepo.ListByDay(ctx, user.ID, date)
	if err != nil {
		return nil, err
	}

	activity, err := ledger.Add(snapshot, in, time.Now())
	if err != nil {
		return nil, err
	}
	activity.UserID = user.ID
	activity.Date = date

	if err := s.activityRepo.Create(ctx, &activity); err != nil {
		return nil, err
	}
	return &activity, nil
}

// UpdateActivity patches an existing entry, re-checking the budget with
// the old duration swapped for the new one.
func (s *ActivityService) UpdateActivity(ctx context.Context, user *model.User, date, id string, patch ledger.Patch) (*model.Activity, error) {
	if patch.CategoryID != nil {
		if err := s.requireCategory(ctx, user, *patch.CategoryID); err != nil {
			return nil, err
		}
	}

	snapshot, err := s.activityRepo.ListByDay(ctx, user.ID, date)
	if err != nil {
		return nil, err
	}

	merged, err := ledger.Update(snapshot, id, patch)
	if err != nil {
		return nil, err
	}

	if err := s.activityRepo.Save(ctx, &merged); err != nil {
		return nil, err
	}
	return &merged, nil
}

// DeleteActivity removes an entry from its day. Absent ids are a
// silent no-op, so retried delete buttons stay harmless.
func (s *ActivityService) DeleteActivity(ctx context.Context, user *model.User, date, id string) error {
	return s.activityRepo.Delete(ctx, user.ID, date, id)
}

func (s *ActivityService) requireCategory(ctx context.Context, user *model.User, categoryID string) error {
	if _, err := s.categorySvc.GetByID(ctx, user, categoryID); err != nil {
		if errors.Is(err, ErrCategoryNotFound) {
			return fmt.Errorf("%w: unknown category %q", ledger.ErrInvalidInput, categoryID)
		}
		return err
	}
	return nil
}
