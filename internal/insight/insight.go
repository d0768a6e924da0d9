// Package insight derives canned observations from one day's
// activities. The engine is a fixed, ordered rule table over a few
// aggregates; it has no side effects and no error path.
package insight

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"time-ledger/internal/ledger"
	"time-ledger/internal/model"
)

// Type classifies an insight for presentation.
type Type string

const (
	TypeProductivity Type = "productivity"
	TypeHealth       Type = "health"
	TypeWellness     Type = "wellness"
	TypeBalance      Type = "balance"
	TypeTip          Type = "tip"
)

// Insight is one generated observation. IDs are stable per rule, not
// unique across calls; insights are recomputed on demand and never stored.
type Insight struct {
	ID      string
	Type    Type
	Icon    string
	Title   string
	Message string
}

// CategorySummary aggregates one category's share of the logged day.
type CategorySummary struct {
	CategoryID   string
	CategoryName string
	TotalMinutes int
	Percentage   decimal.Decimal
}

// aggregates is what the rules see: day totals plus per-category sums.
type aggregates struct {
	totalMinutes    int
	categoryMinutes map[string]int
	summaries       []CategorySummary
}

// rule produces at most one insight. Rules are independent; several can
// fire for the same day. The gaps between bands (6-7h sleep, 9-10h
// work, 0-30min exercise, 50-80% tracked) intentionally fire nothing.
type rule func(agg aggregates) *Insight

var rules = []rule{
	sleepRule,
	workRule,
	exerciseRule,
	entertainmentRule,
	studyRule,
	trackingRule,
	topCategoryRule,
}

// Generate evaluates the rule table over the day's activities. The
// category catalogue is only consulted for display names; unknown ids
// fall back to "Unknown". An empty day yields no insights.
func Generate(activities []model.Activity, categories []model.Category) []Insight {
	if len(activities) == 0 {
		return []Insight{}
	}

	agg := aggregates{
		totalMinutes:    ledger.TotalMinutes(activities),
		categoryMinutes: make(map[string]int),
	}
	for _, a := range activities {
		agg.categoryMinutes[a.CategoryID] += a.Duration
	}
	agg.summaries = Summaries(activities, categories)

	insights := make([]Insight, 0, len(rules))
	for _, r := range rules {
		if ins := r(agg); ins != nil {
			insights = append(insights, *ins)
		}
	}
	return insights
}

// Summaries computes per-category totals and their share of logged
// time, sorted by minutes descending. Ties keep the order categories
// were first encountered in the activity list.
func Summaries(activities []model.Activity, categories []model.Category) []CategorySummary {
	total := ledger.TotalMinutes(activities)
	if total == 0 {
		return nil
	}

	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	minutes := make(map[string]int)
	var order []string
	for _, a := range activities {
		if _, seen := minutes[a.CategoryID]; !seen {
			order = append(order, a.CategoryID)
		}
		minutes[a.CategoryID] += a.Duration
	}

	summaries := make([]CategorySummary, 0, len(order))
	for _, id := range order {
		name, ok := names[id]
		if !ok {
			name = "Unknown"
		}
		summaries = append(summaries, CategorySummary{
			CategoryID:   id,
			CategoryName: name,
			TotalMinutes: minutes[id],
			Percentage:   percentOf(minutes[id], total),
		})
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].TotalMinutes > summaries[j].TotalMinutes
	})
	return summaries
}

func sleepRule(agg aggregates) *Insight {
	hours := hoursOf(agg.categoryMinutes["sleep"])
	switch {
	case hours.LessThan(decimal.NewFromInt(6)):
		return &Insight{
			ID:    "sleep-low",
			Type:  TypeHealth,
			Icon:  "😴",
			Title: "Sleep Alert",
			Message: fmt.Sprintf("You logged %s hours of sleep. Adults typically need 7-9 hours. "+
				"Consider prioritizing rest for better productivity and health.", hours.StringFixed(1)),
		}
	case hours.GreaterThanOrEqual(decimal.NewFromInt(7)) && hours.LessThanOrEqual(decimal.NewFromInt(9)):
		return &Insight{
			ID:    "sleep-good",
			Type:  TypeHealth,
			Icon:  "✨",
			Title: "Great Sleep!",
			Message: fmt.Sprintf("%s hours of sleep is ideal! Quality rest supports cognitive function "+
				"and overall well-being.", hours.StringFixed(1)),
		}
	case hours.GreaterThan(decimal.NewFromInt(9)):
		return &Insight{
			ID:    "sleep-high",
			Type:  TypeHealth,
			Icon:  "💤",
			Title: "Extended Rest",
			Message: fmt.Sprintf("You logged %s hours of sleep. While occasional long sleep is fine, "+
				"consistently sleeping over 9 hours may indicate other factors worth exploring.", hours.StringFixed(1)),
		}
	}
	return nil
}

func workRule(agg aggregates) *Insight {
	hours := hoursOf(agg.categoryMinutes["work"])
	switch {
	case hours.GreaterThan(decimal.NewFromInt(10)):
		return &Insight{
			ID:    "work-high",
			Type:  TypeBalance,
			Icon:  "⚠️",
			Title: "Heavy Workload",
			Message: fmt.Sprintf("%s hours of work is significant. Remember to schedule breaks and "+
				"personal time to prevent burnout.", hours.StringFixed(1)),
		}
	case hours.GreaterThanOrEqual(decimal.NewFromInt(6)) && hours.LessThanOrEqual(decimal.NewFromInt(9)):
		return &Insight{
			ID:    "work-balanced",
			Type:  TypeProductivity,
			Icon:  "💼",
			Title: "Productive Day",
			Message: fmt.Sprintf("%s hours of focused work is a healthy amount. Great job maintaining "+
				"productivity!", hours.StringFixed(1)),
		}
	}
	return nil
}

func exerciseRule(agg aggregates) *Insight {
	minutes := agg.categoryMinutes["exercise"]
	switch {
	case minutes == 0:
		return &Insight{
			ID:    "exercise-zero",
			Type:  TypeWellness,
			Icon:  "🏃",
			Title: "Movement Opportunity",
			Message: "No exercise logged today. Even 15-30 minutes of physical activity can boost " +
				"energy, mood, and focus.",
		}
	case minutes >= 30:
		return &Insight{
			ID:    "exercise-good",
			Type:  TypeWellness,
			Icon:  "💪",
			Title: "Active Day!",
			Message: fmt.Sprintf("Great job with %d minutes of exercise! Regular physical activity "+
				"supports both physical and mental health.", minutes),
		}
	}
	return nil
}

func entertainmentRule(agg aggregates) *Insight {
	hours := hoursOf(agg.categoryMinutes["entertainment"])
	if hours.GreaterThan(decimal.NewFromInt(4)) {
		return &Insight{
			ID:    "entertainment-high",
			Type:  TypeBalance,
			Icon:  "📺",
			Title: "Screen Time Check",
			Message: fmt.Sprintf("%s hours of entertainment. Consider balancing with other activities "+
				"for variety.", hours.StringFixed(1)),
		}
	}
	return nil
}

func studyRule(agg aggregates) *Insight {
	minutes := agg.categoryMinutes["study"]
	if minutes > 0 {
		return &Insight{
			ID:    "study-positive",
			Type:  TypeProductivity,
			Icon:  "📚",
			Title: "Learning Investment",
			Message: fmt.Sprintf("%d minutes dedicated to learning! Continuous education is key to "+
				"personal and professional growth.", minutes),
		}
	}
	return nil
}

func trackingRule(agg aggregates) *Insight {
	logged := percentOf(agg.totalMinutes, ledger.MaxMinutesPerDay)
	switch {
	case logged.LessThan(decimal.NewFromInt(50)):
		return &Insight{
			ID:    "tracking-incomplete",
			Type:  TypeTip,
			Icon:  "📝",
			Title: "Tracking Tip",
			Message: fmt.Sprintf("You've logged %s%% of your day. Try to log more activities for "+
				"better insights and patterns.", logged.StringFixed(0)),
		}
	case logged.GreaterThanOrEqual(decimal.NewFromInt(80)):
		return &Insight{
			ID:    "tracking-complete",
			Type:  TypeTip,
			Icon:  "🎯",
			Title: "Excellent Tracking!",
			Message: fmt.Sprintf("%s%% of your day is logged. This comprehensive tracking gives you "+
				"great visibility into your time usage.", logged.StringFixed(0)),
		}
	}
	return nil
}

func topCategoryRule(agg aggregates) *Insight {
	if len(agg.summaries) == 0 {
		return nil
	}
	top := agg.summaries[0]
	return &Insight{
		ID:    "top-activity",
		Type:  TypeProductivity,
		Icon:  "📊",
		Title: "Time Leader",
		Message: fmt.Sprintf("%s was your top time investment at %s hours (%s%% of logged time).",
			top.CategoryName, hoursOf(top.TotalMinutes).StringFixed(1), top.Percentage.StringFixed(0)),
	}
}

// hoursOf converts minutes to decimal hours. decimal keeps the
// rendering exact: StringFixed rounds half away from zero, matching the
// thresholds' own units.
func hoursOf(minutes int) decimal.Decimal {
	return decimal.NewFromInt(int64(minutes)).Div(decimal.NewFromInt(60))
}

func percentOf(minutes, total int) decimal.Decimal {
	return decimal.NewFromInt(int64(minutes)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total)))
}
