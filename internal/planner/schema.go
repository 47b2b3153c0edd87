package planner

import "keto-planner/internal/llm"

func str(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func object(props map[string]any, required ...string) map[string]any {
	o := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		o["required"] = required
	}
	return o
}

func nutritionSchema(desc string) map[string]any {
	n := object(map[string]any{
		"calories": str(`Calories as text, e.g. "450 kcal"`),
		"protein":  str(`Protein as text, e.g. "30g"`),
		"fat":      str(`Fat as text, e.g. "35g"`),
		"carbs":    str(`Net carbs as text, e.g. "5g"`),
	})
	n["description"] = desc
	return n
}

func recipeSchema() map[string]any {
	return object(map[string]any{
		"ingredients":  str("Markdown bullet list of ingredients with quantities"),
		"instructions": str("Markdown numbered preparation steps"),
	})
}

// MealPlanSchema is the JSON Schema requested from structured providers.
// Field names match the MealPlan JSON tags.
func MealPlanSchema() llm.Schema {
	day := object(map[string]any{
		"day":                str(`Day label, e.g. "Day 1"`),
		"breakfast":          str("Breakfast name and short description"),
		"breakfastNutrition": nutritionSchema("Breakfast nutrition"),
		"breakfastRecipe":    recipeSchema(),
		"lunch":              str("Lunch name and short description"),
		"lunchNutrition":     nutritionSchema("Lunch nutrition"),
		"lunchRecipe":        recipeSchema(),
		"dinner":             str("Dinner name and short description"),
		"dinnerNutrition":    nutritionSchema("Dinner nutrition"),
		"dinnerRecipe":       recipeSchema(),
		"snacks":             str("Optional snacks"),
		"snacksNutrition":    nutritionSchema("Snacks nutrition"),
		"dailyTotals":        nutritionSchema("Totals for the whole day"),
	}, "day", "breakfast", "lunch", "dinner")

	summary := object(map[string]any{
		"totalCalories":        str("Total calories for the week"),
		"averageDailyCalories": str("Average calories per day"),
		"totalProtein":         str("Total protein for the week"),
		"averageDailyProtein":  str("Average protein per day"),
		"totalFat":             str("Total fat for the week"),
		"averageDailyFat":      str("Average fat per day"),
		"totalCarbs":           str("Total net carbs for the week"),
		"averageDailyCarbs":    str("Average net carbs per day"),
	})

	return llm.Schema{
		Name:        "keto_meal_plan",
		Description: "A personalized 7-day keto meal plan",
		Definition: object(map[string]any{
			"introduction":  str("Short personalized introduction"),
			"guidelines":    str("Markdown list of keto guidelines for this person"),
			"days":          map[string]any{"type": "array", "items": day},
			"shoppingList":  str("Markdown shopping list grouped by category"),
			"weeklySummary": summary,
		}, "days"),
	}
}
