package form

// Group identifies one of the multi-select questions.
type Group string

const (
	GroupMeats       Group = "disliked_meats"
	GroupIngredients Group = "disliked_ingredients"
	GroupHealth      Group = "health_conditions"
)

// Option is a selectable value with its display label.
type Option struct {
	Value string
	Label string
}

var GenderOptions = []Option{
	{string(GenderMale), "Male"},
	{string(GenderFemale), "Female"},
}

var FamiliarityOptions = []Option{
	{string(FamiliarityBeginner), "Beginner"},
	{string(FamiliaritySomewhat), "Somewhat Familiar"},
	{string(FamiliarityExpert), "Expert"},
}

var PrepTimeOptions = []Option{
	{string(PrepTime15), "15 Minutes"},
	{string(PrepTime30), "30 Minutes"},
	{string(PrepTime60), "60+ Minutes"},
}

var ActivityOptions = []Option{
	{string(ActivityNone), "Not Active"},
	{string(ActivityModerate), "Moderately Active"},
	{string(ActivityVery), "Very Active"},
}

var UnitOptions = []Option{
	{string(UnitsMetric), "Metric (cm / kg)"},
	{string(UnitsImperial), "Imperial (ft / lbs)"},
}

var MeatOptions = []Option{
	{TagNone, "None"},
	{TagVegetarian, "Vegetarian"},
	{"beef", "Beef"},
	{"chicken", "Chicken"},
	{"pork", "Pork"},
	{"lamb", "Lamb"},
	{"fish", "Fish"},
	{"seafood", "Seafood"},
	{TagOther, "Other"},
}

var IngredientOptions = []Option{
	{TagNone, "None"},
	{"onions", "Onions"},
	{"mushrooms", "Mushrooms"},
	{"eggs", "Eggs"},
	{"nuts", "Nuts"},
	{"cheese", "Cheese"},
	{"milk", "Milk"},
	{"avocados", "Avocados"},
	{"seafood", "Seafood"},
	{"olives", "Olives"},
	{"capers", "Capers"},
	{"coconut", "Coconut"},
	{"goat_cheese", "Goat Cheese"},
	{TagOther, "Other"},
}

var HealthOptions = []Option{
	{TagNone, "None"},
	{"diabetes", "Diabetes"},
	{"kidney_disease", "Kidney Disease"},
	{"liver_disease", "Liver Disease"},
	{"pancreas_disease", "Pancreas Disease"},
	{"recovering_surgery", "Recovering from Surgery"},
	{"mental_health", "Mental Health Issues"},
	{"cancer", "Cancer"},
	{"heart_disease_stroke", "Heart Disease or Stroke"},
	{"high_blood_pressure", "High Blood Pressure"},
	{"thyroid_issues", "Thyroid Issues"},
	{"high_cholesterol", "High Cholesterol"},
	{TagOther, "Other"},
}

// Options returns the catalog for a multi-select group.
func Options(g Group) []Option {
	switch g {
	case GroupMeats:
		return MeatOptions
	case GroupIngredients:
		return IngredientOptions
	case GroupHealth:
		return HealthOptions
	}
	return nil
}

// IsSentinel reports whether selecting tag in g must clear every other tag.
func IsSentinel(g Group, tag string) bool {
	if tag == TagNone {
		return true
	}
	return g == GroupMeats && tag == TagVegetarian
}

// Label returns the display label for value, or value itself when unknown.
func Label(opts []Option, value string) string {
	for _, o := range opts {
		if o.Value == value {
			return o.Label
		}
	}
	return value
}

func known(opts []Option, value string) bool {
	for _, o := range opts {
		if o.Value == value {
			return true
		}
	}
	return false
}
