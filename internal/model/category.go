package model

import "time"

// Category labels activities (work, sleep, exercise, etc.).
// Built-in categories live in code and are never persisted; only
// user-created ones are stored, scoped by user.
type Category struct {
	ID        string `gorm:"primaryKey"`
	UserID    uint   `gorm:"index"`
	Name      string
	Color     string
	Icon      string
	IsCustom  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BuiltinCategories is the fixed catalogue every user starts with.
// The ids are well-known tokens the insight rules key on.
var BuiltinCategories = []Category{
	{ID: "work", Name: "Work", Color: "hsl(var(--category-work))", Icon: "Briefcase"},
	{ID: "sleep", Name: "Sleep", Color: "hsl(var(--category-sleep))", Icon: "Moon"},
	{ID: "exercise", Name: "Exercise", Color: "hsl(var(--category-exercise))", Icon: "Dumbbell"},
	{ID: "study", Name: "Study", Color: "hsl(var(--category-study))", Icon: "BookOpen"},
	{ID: "entertainment", Name: "Entertainment", Color: "hsl(var(--category-entertainment))", Icon: "Tv"},
	{ID: "personal", Name: "Personal", Color: "hsl(var(--category-personal))", Icon: "User"},
	{ID: "meals", Name: "Meals", Color: "hsl(var(--category-meals))", Icon: "UtensilsCrossed"},
	{ID: "commute", Name: "Commute", Color: "hsl(var(--category-commute))", Icon: "Car"},
}

// CategoryColors is the palette for custom categories. The color is
// picked by customCount mod len(CategoryColors), so it cycles
// deterministically as a user accumulates categories.
var CategoryColors = []string{
	"hsl(217, 91%, 50%)", // Blue
	"hsl(262, 83%, 58%)", // Purple
	"hsl(142, 76%, 36%)", // Green
	"hsl(38, 92%, 50%)",  // Yellow
	"hsl(340, 82%, 52%)", // Pink
	"hsl(173, 80%, 40%)", // Teal
	"hsl(25, 95%, 53%)",  // Orange
	"hsl(210, 20%, 50%)", // Gray
	"hsl(0, 72%, 51%)",   // Red
	"hsl(280, 87%, 50%)", // Violet
}

// CategoryIcons lists the icon tokens offered when creating a custom
// category. Tokens are opaque here; the presentation layer resolves them.
var CategoryIcons = []string{
	"Briefcase", "Moon", "Dumbbell", "BookOpen", "Tv", "User",
	"UtensilsCrossed", "Car", "Heart", "Music", "Gamepad2",
	"Coffee", "Plane", "ShoppingBag", "Palette", "Code",
}
