package render

import (
	"fmt"
	"strings"

	"keto-planner/internal/planner"
)

// PlainText renders res as an email body.
func PlainText(res planner.Result) string {
	if !res.Parsed() {
		return strings.TrimSpace(res.Raw) + "\n"
	}

	plan := res.Plan
	var b strings.Builder
	if plan.Introduction != "" {
		b.WriteString(strings.TrimSpace(plan.Introduction) + "\n\n")
	}
	for _, d := range plan.Days {
		b.WriteString(strings.ToUpper(d.Day) + "\n")
		for _, m := range planner.Meals {
			text, nutrition, _ := d.Meal(m)
			if text == "" && m == planner.Snacks {
				continue
			}
			fmt.Fprintf(&b, "  %s: %s\n", m, strings.ReplaceAll(strings.TrimSpace(text), "\n", "\n    "))
			if line := nutritionLine(nutrition); line != "" {
				fmt.Fprintf(&b, "    (%s)\n", line)
			}
		}
		if line := nutritionLine(d.DailyTotals); line != "" {
			fmt.Fprintf(&b, "  Daily Totals: %s\n", line)
		}
		b.WriteString("\n")
	}
	if plan.ShoppingList != "" {
		b.WriteString("SHOPPING LIST\n" + strings.TrimSpace(plan.ShoppingList) + "\n\n")
	}
	if plan.Guidelines != "" {
		b.WriteString("GUIDELINES\n" + strings.TrimSpace(plan.Guidelines) + "\n")
	}
	return b.String()
}
