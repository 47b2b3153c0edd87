package web

import (
	"net/url"
	"strconv"
	"strings"

	"keto-planner/internal/form"
)

// answersFromForm reads every questionnaire field present in values.
// Unparseable numbers are left unset so validation reports them.
func answersFromForm(values url.Values) form.Answers {
	a := form.Answers{
		Gender:                     form.Gender(values.Get("gender")),
		Familiarity:                form.Familiarity(values.Get("familiarity")),
		PrepTime:                   form.PrepTime(values.Get("prep_time")),
		DislikedMeats:              values["disliked_meats"],
		OtherMeatDescription:       strings.TrimSpace(values.Get("other_meat_description")),
		DislikedIngredients:        values["disliked_ingredients"],
		OtherIngredientDescription: strings.TrimSpace(values.Get("other_ingredient_description")),
		ActivityLevel:              form.ActivityLevel(values.Get("activity_level")),
		HealthConditions:           values["health_conditions"],
		OtherHealthDescription:     strings.TrimSpace(values.Get("other_health_description")),
		Units:                      form.Units(values.Get("units")),

		HeightCM:         parseFloat(values.Get("height_cm")),
		CurrentWeightKG:  parseFloat(values.Get("current_weight_kg")),
		TargetWeightKG:   parseFloat(values.Get("target_weight_kg")),
		HeightFT:         parseInt(values.Get("height_ft")),
		HeightIN:         parseInt(values.Get("height_in")),
		CurrentWeightLbs: parseFloat(values.Get("current_weight_lbs")),
		TargetWeightLbs:  parseFloat(values.Get("target_weight_lbs")),
	}
	if age := parseInt(values.Get("age")); age != nil {
		a.Age = *age
	}
	return a
}

func parseFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

func parseInt(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

type optionView struct {
	Value   string
	Label   string
	Checked bool
}

// stepPage is the data of step.html.
type stepPage struct {
	Step       form.Step
	Title      string
	Kind       string // radio, checkbox, measurements or summary
	Field      string
	Options    []optionView
	OtherField string
	OtherValue string
	Values     map[string]string
	Rows       []form.Row
	Reached    []stepLink
	Errors     form.ValidationErrors
	Message    string
	SignedIn   bool
}

type stepLink struct {
	Step    int
	Title   string
	Current bool
}

var radioFields = map[form.Step]string{
	form.StepGender:      "gender",
	form.StepFamiliarity: "familiarity",
	form.StepPrepTime:    "prep_time",
	form.StepActivity:    "activity_level",
}

var checkboxFields = map[form.Group]struct{ field, other string }{
	form.GroupMeats:       {"disliked_meats", "other_meat_description"},
	form.GroupIngredients: {"disliked_ingredients", "other_ingredient_description"},
	form.GroupHealth:      {"health_conditions", "other_health_description"},
}

// newStepPage describes st.Step, showing the values of shown.
func newStepPage(st form.State, shown form.Answers) stepPage {
	p := stepPage{Step: st.Step, Title: st.Step.Title()}
	for s := form.StepGender; s <= st.Reached && s <= form.StepSummary; s++ {
		p.Reached = append(p.Reached, stepLink{Step: int(s), Title: s.Title(), Current: s == st.Step})
	}

	if field, ok := radioFields[st.Step]; ok {
		p.Kind, p.Field = "radio", field
		current := form.Choice(shown, st.Step)
		for _, o := range form.ChoiceOptions(st.Step) {
			p.Options = append(p.Options, optionView{Value: o.Value, Label: o.Label, Checked: o.Value == current})
		}
		return p
	}

	if g, ok := st.Step.Group(); ok {
		cf := checkboxFields[g]
		p.Kind, p.Field, p.OtherField = "checkbox", cf.field, cf.other
		p.OtherValue = shown.OtherDescription(g)
		selected := map[string]bool{}
		for _, tag := range shown.Selection(g) {
			selected[tag] = true
		}
		for _, o := range form.Options(g) {
			p.Options = append(p.Options, optionView{Value: o.Value, Label: o.Label, Checked: selected[o.Value]})
		}
		return p
	}

	if st.Step == form.StepMeasurements {
		p.Kind = "measurements"
		p.Values = measurementValues(shown)
		return p
	}

	p.Kind = "summary"
	p.Rows = form.Describe(st.Answers)
	return p
}

func measurementValues(a form.Answers) map[string]string {
	v := map[string]string{"units": string(a.Units)}
	if v["units"] == "" {
		v["units"] = string(form.UnitsMetric)
	}
	if a.Age > 0 {
		v["age"] = strconv.Itoa(a.Age)
	}
	floats := map[string]*float64{
		"height_cm":          a.HeightCM,
		"current_weight_kg":  a.CurrentWeightKG,
		"target_weight_kg":   a.TargetWeightKG,
		"current_weight_lbs": a.CurrentWeightLbs,
		"target_weight_lbs":  a.TargetWeightLbs,
	}
	for k, f := range floats {
		if f != nil {
			v[k] = form.FormatNumber(*f)
		}
	}
	if a.HeightFT != nil {
		v["height_ft"] = strconv.Itoa(*a.HeightFT)
	}
	if a.HeightIN != nil {
		v["height_in"] = strconv.Itoa(*a.HeightIN)
	}
	return v
}
