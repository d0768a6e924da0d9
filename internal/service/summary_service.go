package service

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/shopspring/decimal"

	"time-ledger/internal/insight"
	"time-ledger/internal/ledger"
	"time-ledger/internal/model"
)

// SummaryService builds the human-readable day report: budget
// progress, per-category distribution, the activity list and the
// generated insights.
type SummaryService struct {
	activitySvc *ActivityService
	categorySvc *CategoryService
}

func NewSummaryService(activitySvc *ActivityService, categorySvc *CategoryService) *SummaryService {
	return &SummaryService{activitySvc: activitySvc, categorySvc: categorySvc}
}

// DailyReport renders the full HTML report for one (user, date).
func (s *SummaryService) DailyReport(ctx context.Context, user *model.User, date string) (string, error) {
	activities, err := s.activitySvc.ListDay(ctx, user, date)
	if err != nil {
		return "", err
	}
	catalogue, err := s.categorySvc.Catalogue(ctx, user)
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	builder.WriteString("📒 <b>Дневной отчёт</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", date))

	if len(activities) == 0 {
		builder.WriteString("За этот день пока нет записей. Добавь первую через /log.")
		return builder.String(), nil
	}

	total := ledger.TotalMinutes(activities)
	remaining := ledger.RemainingMinutes(activities)
	logged := decimal.NewFromInt(int64(total)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(ledger.MaxMinutesPerDay))

	builder.WriteString(fmt.Sprintf("⏱ Учтено: <b>%s</b> (%s%% дня)\n", formatMinutes(total), logged.StringFixed(0)))
	builder.WriteString(fmt.Sprintf("🕐 Осталось: %s\n\n", formatMinutes(remaining)))

	catNames := make(map[string]string, len(catalogue))
	for _, cat := range catalogue {
		catNames[cat.ID] = cat.Name
	}

	builder.WriteString("📊 <b>По категориям</b>\n")
	for _, summary := range insight.Summaries(activities, catalogue) {
		builder.WriteString(fmt.Sprintf("• %s — %s (%s%%)\n",
			html.EscapeString(summary.CategoryName),
			formatMinutes(summary.TotalMinutes),
			summary.Percentage.StringFixed(0)))
	}

	builder.WriteString("\n📝 <b>Записи</b>\n")
	for _, activity := range activities {
		name := catNames[activity.CategoryID]
		if name == "" {
			name = "Unknown"
		}
		builder.WriteString(fmt.Sprintf("• %s <i>(%s)</i> — %s\n",
			html.EscapeString(activity.Name),
			html.EscapeString(name),
			formatMinutes(activity.Duration)))
	}

	if insights := insight.Generate(activities, catalogue); len(insights) > 0 {
		builder.WriteString("\n🤖 <b>Инсайты</b>\n")
		for _, ins := range insights {
			builder.WriteString(fmt.Sprintf("%s <b>%s</b> — %s\n", ins.Icon, html.EscapeString(ins.Title), html.EscapeString(ins.Message)))
		}
	}

	return strings.TrimSpace(builder.String()), nil
}

// formatMinutes renders minutes as "7 ч 30 мин", dropping the hour part
// below one hour.
func formatMinutes(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	hours := minutes / 60
	mins := minutes % 60
	if hours == 0 {
		return fmt.Sprintf("%d мин", mins)
	}
	return fmt.Sprintf("%d ч %d мин", hours, mins)
}
