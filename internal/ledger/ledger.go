// Package ledger keeps the bookkeeping for one day bucket: a day never
// holds more than MaxMinutesPerDay minutes of activities. All functions
// operate on a snapshot passed in by the caller and never touch storage;
// the caller persists whatever a successful mutation returns.
package ledger

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"time-ledger/internal/model"
)

// MaxMinutesPerDay caps the sum of durations in a single day bucket.
const MaxMinutesPerDay = 1440 // 24 hours * 60 minutes

// ErrNotFound is returned by Update when the target id is not in the snapshot.
var ErrNotFound = errors.New("activity not found")

// ErrInvalidInput marks input the ledger refuses to book: blank names,
// non-positive durations. Wrapped with a reason; match with errors.Is.
var ErrInvalidInput = errors.New("invalid input")

// BudgetExceededError rejects a mutation that would push the day past
// MaxMinutesPerDay. Remaining is the day's free budget at rejection
// time so the caller can tell the user how much still fits.
type BudgetExceededError struct {
	Remaining int
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("cannot exceed %d minutes per day (%d minutes remaining)", MaxMinutesPerDay, e.Remaining)
}

// Input carries the caller-supplied fields of a new activity.
type Input struct {
	Name       string
	CategoryID string
	Duration   int
}

// Patch lists the fields Update may change. Nil fields keep the
// existing value.
type Patch struct {
	Name       *string
	CategoryID *string
	Duration   *int
}

// TotalMinutes sums the durations of the snapshot.
func TotalMinutes(activities []model.Activity) int {
	total := 0
	for _, a := range activities {
		total += a.Duration
	}
	return total
}

// RemainingMinutes is the day's unbooked budget.
func RemainingMinutes(activities []model.Activity) int {
	return MaxMinutesPerDay - TotalMinutes(activities)
}

// Add validates the candidate against the day budget and, on success,
// returns the new activity with identity and creation time assigned.
// The snapshot is not modified; the caller persists and appends.
func Add(activities []model.Activity, in Input, now time.Time) (model.Activity, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Activity{}, fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
	}
	if in.Duration <= 0 {
		return model.Activity{}, fmt.Errorf("%w: duration must be positive", ErrInvalidInput)
	}

	if TotalMinutes(activities)+in.Duration > MaxMinutesPerDay {
		return model.Activity{}, &BudgetExceededError{Remaining: RemainingMinutes(activities)}
	}

	return model.Activity{
		ID:         uuid.NewString(),
		Name:       name,
		CategoryID: in.CategoryID,
		Duration:   in.Duration,
		CreatedAt:  now,
	}, nil
}

// Update merges the patch into the activity with the given id and
// re-checks the budget with the old duration replaced by the new one.
// Returns the merged record for the caller to persist; the snapshot is
// left untouched.
func Update(activities []model.Activity, id string, patch Patch) (model.Activity, error) {
	idx := -1
	for i, a := range activities {
		if a.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return model.Activity{}, ErrNotFound
	}
	existing := activities[idx]

	newDuration := existing.Duration
	if patch.Duration != nil {
		newDuration = *patch.Duration
	}
	if newDuration <= 0 {
		return model.Activity{}, fmt.Errorf("%w: duration must be positive", ErrInvalidInput)
	}

	otherTotal := TotalMinutes(activities) - existing.Duration
	if otherTotal+newDuration > MaxMinutesPerDay {
		return model.Activity{}, &BudgetExceededError{Remaining: RemainingMinutes(activities)}
	}

	merged := existing
	merged.Duration = newDuration
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return model.Activity{}, fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
		}
		merged.Name = name
	}
	if patch.CategoryID != nil {
		merged.CategoryID = *patch.CategoryID
	}
	return merged, nil
}

// Remove returns the snapshot without the given id. Removing an absent
// id is a no-op, so a second Remove with the same id is harmless.
func Remove(activities []model.Activity, id string) []model.Activity {
	out := make([]model.Activity, 0, len(activities))
	for _, a := range activities {
		if a.ID != id {
			out = append(out, a)
		}
	}
	return out
}

// SortNewestFirst orders the snapshot by descending creation time, the
// order day views present activities in.
func SortNewestFirst(activities []model.Activity) {
	sort.SliceStable(activities, func(i, j int) bool {
		return activities[i].CreatedAt.After(activities[j].CreatedAt)
	})
}
