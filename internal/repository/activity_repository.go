package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"time-ledger/internal/model"
)

// ActivityRepository handles CRUD for day-bucketed activities.
type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// ListByDay returns one day bucket, newest entries first. An unknown
// (user, date) pair yields an empty slice.
func (r *ActivityRepository) ListByDay(ctx context.Context, userID uint, date string) ([]model.Activity, error) {
	var activities []model.Activity
	if err := r.db.WithContext(ctx).Where("user_id = ? AND date = ?", userID, date).
		Order("created_at DESC").
		Find(&activities).Error; err != nil {
		return nil, err
	}
	return activities, nil
}

func (r *ActivityRepository) Create(ctx context.Context, activity *model.Activity) error {
	if err := r.db.WithContext(ctx).Create(activity).Error; err != nil {
		return fmt.Errorf("create activity: %w", err)
	}
	return nil
}

func (r *ActivityRepository) Save(ctx context.Context, activity *model.Activity) error {
	if err := r.db.WithContext(ctx).Save(activity).Error; err != nil {
		return fmt.Errorf("save activity: %w", err)
	}
	return nil
}

// Delete removes an activity from its day bucket. Deleting an absent
// id is not an error.
func (r *ActivityRepository) Delete(ctx context.Context, userID uint, date, id string) error {
	if err := r.db.WithContext(ctx).Where("user_id = ? AND date = ? AND id = ?", userID, date, id).
		Delete(&model.Activity{}).Error; err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	return nil
}
