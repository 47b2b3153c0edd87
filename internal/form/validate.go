package form

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// ValidationErrors maps a field name to a user-facing message.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+v[k])
	}
	return "invalid answers: " + strings.Join(parts, "; ")
}

const (
	minAge, maxAge           = 16, 100
	minHeightCM, maxHeightCM = 100, 250
	minWeightKG, maxWeightKG = 30, 300
	minHeightFT, maxHeightFT = 3, 8
	minHeightIN, maxHeightIN = 0, 11
	minWeightLb, maxWeightLb = 60, 660
)

// Validate checks the slice of a that step owns. It returns nil or ValidationErrors.
func Validate(step Step, a Answers) error {
	errs := ValidationErrors{}

	switch step {
	case StepGender:
		requireChoice(errs, "gender", GenderOptions, string(a.Gender), "Please select your gender.")
	case StepFamiliarity:
		requireChoice(errs, "familiarity", FamiliarityOptions, string(a.Familiarity), "Please select your familiarity with keto.")
	case StepPrepTime:
		requireChoice(errs, "prep_time", PrepTimeOptions, string(a.PrepTime), "Please select a preparation time.")
	case StepActivity:
		requireChoice(errs, "activity_level", ActivityOptions, string(a.ActivityLevel), "Please select your activity level.")
	case StepMeats, StepIngredients, StepHealth:
		g, _ := step.Group()
		validateSelection(errs, g, a.Selection(g), a.OtherDescription(g))
	case StepMeasurements:
		validateMeasurements(errs, a)
	case StepSummary:
		return nil
	default:
		return ErrUnknownStep
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func requireChoice(errs ValidationErrors, field string, opts []Option, value, msg string) {
	if !known(opts, value) {
		errs[field] = msg
	}
}

func validateSelection(errs ValidationErrors, g Group, tags []string, other string) {
	field := string(g)
	if len(tags) == 0 {
		errs[field] = "You have to select at least one option."
		return
	}

	opts := Options(g)
	for _, tag := range tags {
		if !known(opts, tag) {
			errs[field] = fmt.Sprintf("Unknown option %q.", tag)
			return
		}
		if IsSentinel(g, tag) && len(tags) > 1 {
			errs[field] = fmt.Sprintf("%q cannot be combined with other options.", Label(opts, tag))
			return
		}
	}

	if slices.Contains(tags, TagOther) && strings.TrimSpace(other) == "" {
		errs[otherField(g)] = "Please describe the other option."
	}
}

func otherField(g Group) string {
	switch g {
	case GroupMeats:
		return "other_meat_description"
	case GroupIngredients:
		return "other_ingredient_description"
	default:
		return "other_health_description"
	}
}

func validateMeasurements(errs ValidationErrors, a Answers) {
	if a.Age == 0 {
		errs["age"] = "Age is required."
	} else if a.Age < minAge || a.Age > maxAge {
		errs["age"] = fmt.Sprintf("Age must be between %d and %d.", minAge, maxAge)
	}

	switch a.Units {
	case UnitsMetric:
		checkFloat(errs, "height_cm", "Height", a.HeightCM, minHeightCM, maxHeightCM)
		checkFloat(errs, "current_weight_kg", "Current weight", a.CurrentWeightKG, minWeightKG, maxWeightKG)
		checkFloat(errs, "target_weight_kg", "Target weight", a.TargetWeightKG, minWeightKG, maxWeightKG)
	case UnitsImperial:
		if a.HeightFT == nil {
			errs["height_ft"] = "Height (ft) is required."
		} else if *a.HeightFT < minHeightFT || *a.HeightFT > maxHeightFT {
			errs["height_ft"] = fmt.Sprintf("Height (ft) must be between %d and %d.", minHeightFT, maxHeightFT)
		}
		if a.HeightIN != nil && (*a.HeightIN < minHeightIN || *a.HeightIN > maxHeightIN) {
			errs["height_in"] = fmt.Sprintf("Height (in) must be between %d and %d.", minHeightIN, maxHeightIN)
		}
		checkFloat(errs, "current_weight_lbs", "Current weight", a.CurrentWeightLbs, minWeightLb, maxWeightLb)
		checkFloat(errs, "target_weight_lbs", "Target weight", a.TargetWeightLbs, minWeightLb, maxWeightLb)
	default:
		errs["units"] = "Please choose metric or imperial units."
	}
}

func checkFloat(errs ValidationErrors, field, name string, v *float64, lo, hi float64) {
	if v == nil {
		errs[field] = name + " is required."
		return
	}
	if *v < lo || *v > hi {
		errs[field] = fmt.Sprintf("%s must be between %s and %s.", name, FormatNumber(lo), FormatNumber(hi))
	}
}

// ValidateAll checks steps one through eight against a complete record.
func ValidateAll(a Answers) error {
	_, err := Finalize(a)
	return err
}
