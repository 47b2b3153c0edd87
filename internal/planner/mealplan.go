package planner

// Nutrition holds macro figures exactly as the model wrote them ("450 kcal", "30g").
type Nutrition struct {
	Calories string `json:"calories,omitempty"`
	Protein  string `json:"protein,omitempty"`
	Fat      string `json:"fat,omitempty"`
	Carbs    string `json:"carbs,omitempty"`
}

// Empty reports whether no figure was captured.
func (n *Nutrition) Empty() bool {
	return n == nil || (n.Calories == "" && n.Protein == "" && n.Fat == "" && n.Carbs == "")
}

// Recipe is the opaque ingredients/instructions text for one meal.
type Recipe struct {
	Ingredients  string `json:"ingredients,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

// DayPlan is one day of the plan. Breakfast, lunch and dinner are always
// present, possibly empty.
type DayPlan struct {
	Day string `json:"day"`

	Breakfast          string     `json:"breakfast"`
	BreakfastNutrition *Nutrition `json:"breakfastNutrition,omitempty"`
	BreakfastRecipe    *Recipe    `json:"breakfastRecipe,omitempty"`

	Lunch          string     `json:"lunch"`
	LunchNutrition *Nutrition `json:"lunchNutrition,omitempty"`
	LunchRecipe    *Recipe    `json:"lunchRecipe,omitempty"`

	Dinner          string     `json:"dinner"`
	DinnerNutrition *Nutrition `json:"dinnerNutrition,omitempty"`
	DinnerRecipe    *Recipe    `json:"dinnerRecipe,omitempty"`

	Snacks          string     `json:"snacks,omitempty"`
	SnacksNutrition *Nutrition `json:"snacksNutrition,omitempty"`

	DailyTotals *Nutrition `json:"dailyTotals,omitempty"`
}

// WeeklySummary aggregates nutrition over the whole plan.
type WeeklySummary struct {
	TotalCalories        string `json:"totalCalories,omitempty"`
	AverageDailyCalories string `json:"averageDailyCalories,omitempty"`
	TotalProtein         string `json:"totalProtein,omitempty"`
	AverageDailyProtein  string `json:"averageDailyProtein,omitempty"`
	TotalFat             string `json:"totalFat,omitempty"`
	AverageDailyFat      string `json:"averageDailyFat,omitempty"`
	TotalCarbs           string `json:"totalCarbs,omitempty"`
	AverageDailyCarbs    string `json:"averageDailyCarbs,omitempty"`
}

// MealPlan is the structured plan. A plan with no days is not a parsed plan.
type MealPlan struct {
	Introduction  string         `json:"introduction,omitempty"`
	Guidelines    string         `json:"guidelines,omitempty"`
	Days          []DayPlan      `json:"days"`
	ShoppingList  string         `json:"shoppingList,omitempty"`
	WeeklySummary *WeeklySummary `json:"weeklySummary,omitempty"`
}

// Meal names one of the meal slots of a day.
type Meal string

const (
	Breakfast Meal = "Breakfast"
	Lunch     Meal = "Lunch"
	Dinner    Meal = "Dinner"
	Snacks    Meal = "Snacks"
)

// Meals lists the meal slots in display order.
var Meals = []Meal{Breakfast, Lunch, Dinner, Snacks}

// Meal returns the text, nutrition and recipe of one slot.
func (d *DayPlan) Meal(m Meal) (string, *Nutrition, *Recipe) {
	switch m {
	case Breakfast:
		return d.Breakfast, d.BreakfastNutrition, d.BreakfastRecipe
	case Lunch:
		return d.Lunch, d.LunchNutrition, d.LunchRecipe
	case Dinner:
		return d.Dinner, d.DinnerNutrition, d.DinnerRecipe
	case Snacks:
		return d.Snacks, d.SnacksNutrition, nil
	}
	return "", nil, nil
}

func (d *DayPlan) setMeal(m Meal, section MealSection) {
	var n *Nutrition
	if !section.Nutrition.Empty() {
		n = section.Nutrition
	}
	switch m {
	case Breakfast:
		d.Breakfast, d.BreakfastNutrition, d.BreakfastRecipe = section.Text, n, section.Recipe
	case Lunch:
		d.Lunch, d.LunchNutrition, d.LunchRecipe = section.Text, n, section.Recipe
	case Dinner:
		d.Dinner, d.DinnerNutrition, d.DinnerRecipe = section.Text, n, section.Recipe
	case Snacks:
		d.Snacks, d.SnacksNutrition = section.Text, n
	}
}
