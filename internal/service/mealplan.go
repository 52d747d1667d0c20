package service

import (
	"fmt"
	"strings"
)

// DayPlan is one labelled meal in a plan
type DayPlan struct {
	Label string
	Meal  string
}

var (
	todayPlan = []DayPlan{
		{"Breakfast", "Yogurt + oats"},
		{"Lunch", "Chicken salad"},
		{"Dinner", "Lentil soup"},
	}
	tomorrowPlan = []DayPlan{
		{"Breakfast", "Omelette"},
		{"Lunch", "Tuna wrap"},
		{"Dinner", "Rice + veggies"},
	}
	weeklyPlan = []DayPlan{
		{"Mon", "Chicken + rice"},
		{"Tue", "Pasta"},
		{"Wed", "Soup"},
		{"Thu", "Salad"},
		{"Fri", "Fish"},
		{"Sat", "Beans"},
		{"Sun", "Roast chicken"},
	}
)

// TodayPlanMessage renders today's meal plan
func TodayPlanMessage() string {
	return "Today's meal plan:\n" + bulletList(todayPlan)
}

// TomorrowPlanMessage renders tomorrow's meal plan
func TomorrowPlanMessage() string {
	return "Tomorrow's meal plan:\n" + bulletList(tomorrowPlan)
}

// WeeklyPlanMessage renders the plan for the week, one day per line
func WeeklyPlanMessage() string {
	lines := make([]string, len(weeklyPlan))
	for i, d := range weeklyPlan {
		lines[i] = fmt.Sprintf("%s: %s", d.Label, d.Meal)
	}
	return "Weekly plan:\n" + strings.Join(lines, "\n")
}

func bulletList(plan []DayPlan) string {
	lines := make([]string, len(plan))
	for i, d := range plan {
		lines[i] = fmt.Sprintf("- %s: %s", d.Label, d.Meal)
	}
	return strings.Join(lines, "\n")
}
