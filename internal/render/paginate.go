// Package render turns a normalized plan into the views each front-end shows.
package render

import "keto-planner/internal/planner"

// Page is a slice of consecutive days.
type Page struct {
	Number int
	Days   []planner.DayPlan
}

// Paginate splits the plan days into pages of perPage days. A perPage of
// zero or less means one day per page.
func Paginate(plan *planner.MealPlan, perPage int) []Page {
	if plan == nil || len(plan.Days) == 0 {
		return nil
	}
	if perPage <= 0 {
		perPage = 1
	}

	var pages []Page
	for start := 0; start < len(plan.Days); start += perPage {
		end := min(start+perPage, len(plan.Days))
		pages = append(pages, Page{Number: len(pages) + 1, Days: plan.Days[start:end]})
	}
	return pages
}
