package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"time-ledger/internal/ledger"
	"time-ledger/internal/repository"
)

const testDate = "2026-08-31"

func TestLogActivityPersists(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	categorySvc := NewCategoryService(repository.NewCategoryRepository(db))
	svc := NewActivityService(repository.NewActivityRepository(db), categorySvc)
	user := newTestUser(t, db)

	activity, err := svc.LogActivity(ctx, user, testDate, ledger.Input{Name: "Standup", CategoryID: "work", Duration: 30})
	if err != nil {
		t.Fatalf("LogActivity: %v", err)
	}
	if activity.ID == "" || activity.Date != testDate || activity.UserID != user.ID {
		t.Errorf("activity not scoped to its day bucket: %+v", activity)
	}

	day, err := svc.ListDay(ctx, user, testDate)
	if err != nil {
		t.Fatalf("ListDay: %v", err)
	}
	if len(day) != 1 || day[0].ID != activity.ID {
		t.Fatalf("day = %+v, want the logged activity", day)
	}
}

func TestLogActivityUnknownCategory(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	categorySvc := NewCategoryService(repository.NewCategoryRepository(db))
	svc := NewActivityService(repository.NewActivityRepository(db), categorySvc)
	user := newTestUser(t, db)

	_, err := svc.LogActivity(ctx, user, testDate, ledger.Input{Name: "x", CategoryID: "nope", Duration: 30})
	if !errors.Is(err, ledger.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown category, got %v", err)
	}
}

func TestLogActivityEnforcesBudget(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	categorySvc := NewCategoryService(repository.NewCategoryRepository(db))
	svc := NewActivityService(repository.NewActivityRepository(db), categorySvc)
	user := newTestUser(t, db)

	if _, err := svc.LogActivity(ctx, user, testDate, ledger.Input{Name: "Sleep", CategoryID: "sleep", Duration: 1400}); err != nil {
		t.Fatalf("LogActivity: %v", err)
	}

	_, err := svc.LogActivity(ctx, user, testDate, ledger.Input{Name: "Overflow", CategoryID: "work", Duration: 100})
	var budgetErr *ledger.BudgetExceededError
	if !errors.As(err, &budgetErr) {
		t.Fatalf("expected BudgetExceededError, got %v", err)
	}
	if budgetErr.Remaining != 40 {
		t.Errorf("Remaining = %d, want 40", budgetErr.Remaining)
	}

	day, err := svc.ListDay(ctx, user, testDate)
	if err != nil {
		t.Fatalf("ListDay: %v", err)
	}
	if len(day) != 1 {
		t.Fatalf("rejected add must not persist anything, day has %d entries", len(day))
	}

	// The other day's bucket is unaffected by this one being nearly full.
	if _, err := svc.LogActivity(ctx, user, "2026-09-01", ledger.Input{Name: "Fresh day", CategoryID: "work", Duration: 100}); err != nil {
		t.Fatalf("other day bucket must have its own budget: %v", err)
	}
}

func TestUpdateActivityReChecksBudget(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	categorySvc := NewCategoryService(repository.NewCategoryRepository(db))
	svc := NewActivityService(repository.NewActivityRepository(db), categorySvc)
	user := newTestUser(t, db)

	first, err := svc.LogActivity(ctx, user, testDate, ledger.Input{Name: "Sleep", CategoryID: "sleep", Duration: 400})
	if err != nil {
		t.Fatalf("LogActivity: %v", err)
	}
	if _, err := svc.LogActivity(ctx, user, testDate, ledger.Input{Name: "Work", CategoryID: "work", Duration: 600}); err != nil {
		t.Fatalf("LogActivity: %v", err)
	}

	// 400 -> 840 keeps the total at exactly 1440.
	newDuration := 840
	updated, err := svc.UpdateActivity(ctx, user, testDate, first.ID, ledger.Patch{Duration: &newDuration})
	if err != nil {
		t.Fatalf("UpdateActivity: %v", err)
	}
	if updated.Duration != 840 {
		t.Errorf("Duration = %d, want 840", updated.Duration)
	}

	// 840 -> 841 would exceed the budget; state must stay put.
	newDuration = 841
	_, err = svc.UpdateActivity(ctx, user, testDate, first.ID, ledger.Patch{Duration: &newDuration})
	var budgetErr *ledger.BudgetExceededError
	if !errors.As(err, &budgetErr) {
		t.Fatalf("expected BudgetExceededError, got %v", err)
	}

	day, err := svc.ListDay(ctx, user, testDate)
	if err != nil {
		t.Fatalf("ListDay: %v", err)
	}
	for _, activity := range day {
		if activity.ID == first.ID && activity.Duration != 840 {
			t.Errorf("rejected update leaked into storage: %d", activity.Duration)
		}
	}
}

func TestUpdateActivityNotFound(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	categorySvc := NewCategoryService(repository.NewCategoryRepository(db))
	svc := NewActivityService(repository.NewActivityRepository(db), categorySvc)
	user := newTestUser(t, db)

	duration := 30
	if _, err := svc.UpdateActivity(ctx, user, testDate, "missing", ledger.Patch{Duration: &duration}); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteActivityIdempotent(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	categorySvc := NewCategoryService(repository.NewCategoryRepository(db))
	svc := NewActivityService(repository.NewActivityRepository(db), categorySvc)
	user := newTestUser(t, db)

	activity, err := svc.LogActivity(ctx, user, testDate, ledger.Input{Name: "Nap", CategoryID: "sleep", Duration: 20})
	if err != nil {
		t.Fatalf("LogActivity: %v", err)
	}

	if err := svc.DeleteActivity(ctx, user, testDate, activity.ID); err != nil {
		t.Fatalf("DeleteActivity: %v", err)
	}
	if err := svc.DeleteActivity(ctx, user, testDate, activity.ID); err != nil {
		t.Fatalf("second DeleteActivity must be a no-op, got %v", err)
	}

	day, err := svc.ListDay(ctx, user, testDate)
	if err != nil {
		t.Fatalf("ListDay: %v", err)
	}
	if len(day) != 0 {
		t.Fatalf("day should be empty after delete, has %d entries", len(day))
	}
}

func TestListDayNewestFirst(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	categorySvc := NewCategoryService(repository.NewCategoryRepository(db))
	svc := NewActivityService(repository.NewActivityRepository(db), categorySvc)
	user := newTestUser(t, db)

	first, err := svc.LogActivity(ctx, user, testDate, ledger.Input{Name: "Earlier", CategoryID: "work", Duration: 30})
	if err != nil {
		t.Fatalf("LogActivity: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	second, err := svc.LogActivity(ctx, user, testDate, ledger.Input{Name: "Later", CategoryID: "work", Duration: 30})
	if err != nil {
		t.Fatalf("LogActivity: %v", err)
	}

	day, err := svc.ListDay(ctx, user, testDate)
	if err != nil {
		t.Fatalf("ListDay: %v", err)
	}
	if len(day) != 2 || day[0].ID != second.ID || day[1].ID != first.ID {
		t.Fatalf("day order = %+v, want newest first", day)
	}
}
