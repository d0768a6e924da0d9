package service

import (
	"context"
	"strings"
	"testing"

	"time-ledger/internal/ledger"
	"time-ledger/internal/repository"
)

func TestDailyReportEmptyDay(t *testing.T) {
	db := newTestDB(t)
	categorySvc := NewCategoryService(repository.NewCategoryRepository(db))
	activitySvc := NewActivityService(repository.NewActivityRepository(db), categorySvc)
	svc := NewSummaryService(activitySvc, categorySvc)
	user := newTestUser(t, db)

	report, err := svc.DailyReport(context.Background(), user, testDate)
	if err != nil {
		t.Fatalf("DailyReport: %v", err)
	}
	if !strings.Contains(report, testDate) || !strings.Contains(report, "нет записей") {
		t.Errorf("empty-day report = %q", report)
	}
}

func TestDailyReportContents(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	categorySvc := NewCategoryService(repository.NewCategoryRepository(db))
	activitySvc := NewActivityService(repository.NewActivityRepository(db), categorySvc)
	svc := NewSummaryService(activitySvc, categorySvc)
	user := newTestUser(t, db)

	if _, err := activitySvc.LogActivity(ctx, user, testDate, ledger.Input{Name: "Ночной сон", CategoryID: "sleep", Duration: 420}); err != nil {
		t.Fatalf("LogActivity: %v", err)
	}
	if _, err := activitySvc.LogActivity(ctx, user, testDate, ledger.Input{Name: "Код-ревью", CategoryID: "work", Duration: 90}); err != nil {
		t.Fatalf("LogActivity: %v", err)
	}

	report, err := svc.DailyReport(ctx, user, testDate)
	if err != nil {
		t.Fatalf("DailyReport: %v", err)
	}

	// 510 of 1440 minutes: 35% logged, 15 h 30 min remaining.
	for _, want := range []string{
		"8 ч 30 мин",
		"35%",
		"15 ч 30 мин",
		"Sleep — 7 ч 0 мин (82%)",
		"Work — 1 ч 30 мин (18%)",
		"Ночной сон",
		"Код-ревью",
		"Great Sleep!",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
}
