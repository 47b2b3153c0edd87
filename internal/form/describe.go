package form

import (
	"fmt"
	"strings"
)

// Row is one line of the summary table.
type Row struct {
	Label string
	Value string
}

// Describe renders the record as ordered label/value rows for the summary step.
func Describe(a Answers) []Row {
	rows := []Row{
		{"Gender", Label(GenderOptions, string(a.Gender))},
		{"Keto Familiarity", Label(FamiliarityOptions, string(a.Familiarity))},
		{"Meal Prep Time", Label(PrepTimeOptions, string(a.PrepTime))},
		{"Disliked Meats", DescribeSelection(a, GroupMeats)},
		{"Disliked Ingredients", DescribeSelection(a, GroupIngredients)},
		{"Activity Level", Label(ActivityOptions, string(a.ActivityLevel))},
		{"Health Conditions", DescribeSelection(a, GroupHealth)},
	}
	if a.Age > 0 {
		rows = append(rows, Row{"Age", fmt.Sprintf("%d", a.Age)})
	}
	return append(rows, describeMeasurements(a)...)
}

// DescribeSelection joins the labels of a group, spelling out the "other" text.
func DescribeSelection(a Answers, g Group) string {
	tags := a.Selection(g)
	if len(tags) == 0 {
		return "None"
	}

	opts := Options(g)
	labels := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag == TagOther {
			if desc := strings.TrimSpace(a.OtherDescription(g)); desc != "" {
				labels = append(labels, fmt.Sprintf("Other (%s)", desc))
				continue
			}
		}
		labels = append(labels, Label(opts, tag))
	}
	return strings.Join(labels, ", ")
}

// Height renders the height in the record's unit system, or "" if unset.
func Height(a Answers) string {
	switch a.Units {
	case UnitsMetric:
		if a.HeightCM != nil {
			return FormatNumber(*a.HeightCM) + " cm"
		}
	case UnitsImperial:
		if a.HeightFT != nil {
			in := 0
			if a.HeightIN != nil {
				in = *a.HeightIN
			}
			return fmt.Sprintf("%d ft %d in", *a.HeightFT, in)
		}
	}
	return ""
}

// Weights renders current and target weight in the record's unit system.
func Weights(a Answers) (current, target string) {
	unit := "kg"
	cur, tgt := a.CurrentWeightKG, a.TargetWeightKG
	if a.Units == UnitsImperial {
		unit = "lbs"
		cur, tgt = a.CurrentWeightLbs, a.TargetWeightLbs
	}
	if cur != nil {
		current = FormatNumber(*cur) + " " + unit
	}
	if tgt != nil {
		target = FormatNumber(*tgt) + " " + unit
	}
	return current, target
}

func describeMeasurements(a Answers) []Row {
	var rows []Row
	if h := Height(a); h != "" {
		rows = append(rows, Row{"Height", h})
	}
	cur, tgt := Weights(a)
	if cur != "" {
		rows = append(rows, Row{"Current Weight", cur})
	}
	if tgt != "" {
		rows = append(rows, Row{"Target Weight", tgt})
	}
	return rows
}
