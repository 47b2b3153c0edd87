// Package form holds the questionnaire record and the step sequence that fills it.
package form

import (
	"strconv"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

type Familiarity string

const (
	FamiliarityBeginner Familiarity = "beginner"
	FamiliaritySomewhat Familiarity = "somewhat_familiar"
	FamiliarityExpert   Familiarity = "expert"
)

type PrepTime string

const (
	PrepTime15 PrepTime = "15_mins"
	PrepTime30 PrepTime = "30_mins"
	PrepTime60 PrepTime = "60_plus_mins"
)

type ActivityLevel string

const (
	ActivityNone     ActivityLevel = "not_active"
	ActivityModerate ActivityLevel = "moderately_active"
	ActivityVery     ActivityLevel = "very_active"
)

type Units string

const (
	UnitsMetric   Units = "metric"
	UnitsImperial Units = "imperial"
)

// Sentinel and special tags used in the multi-select groups.
const (
	TagNone       = "none"
	TagVegetarian = "vegetarian"
	TagOther      = "other"
)

// Answers is the questionnaire record for one session. Measurement fields are
// pointers so that "not provided" is distinct from zero.
type Answers struct {
	Gender      Gender      `json:"gender,omitempty"`
	Familiarity Familiarity `json:"familiarity,omitempty"`
	PrepTime    PrepTime    `json:"prep_time,omitempty"`

	DislikedMeats              []string `json:"disliked_meats,omitempty"`
	OtherMeatDescription       string   `json:"other_meat_description,omitempty"`
	DislikedIngredients        []string `json:"disliked_ingredients,omitempty"`
	OtherIngredientDescription string   `json:"other_ingredient_description,omitempty"`

	ActivityLevel ActivityLevel `json:"activity_level,omitempty"`

	HealthConditions       []string `json:"health_conditions,omitempty"`
	OtherHealthDescription string   `json:"other_health_description,omitempty"`

	Age   int   `json:"age,omitempty"`
	Units Units `json:"units,omitempty"`

	HeightCM        *float64 `json:"height_cm,omitempty"`
	CurrentWeightKG *float64 `json:"current_weight_kg,omitempty"`
	TargetWeightKG  *float64 `json:"target_weight_kg,omitempty"`

	HeightFT         *int     `json:"height_ft,omitempty"`
	HeightIN         *int     `json:"height_in,omitempty"`
	CurrentWeightLbs *float64 `json:"current_weight_lbs,omitempty"`
	TargetWeightLbs  *float64 `json:"target_weight_lbs,omitempty"`
}

// Selection returns the tags chosen for a group.
func (a Answers) Selection(g Group) []string {
	switch g {
	case GroupMeats:
		return a.DislikedMeats
	case GroupIngredients:
		return a.DislikedIngredients
	case GroupHealth:
		return a.HealthConditions
	}
	return nil
}

// OtherDescription returns the free text attached to the "other" tag of a group.
func (a Answers) OtherDescription(g Group) string {
	switch g {
	case GroupMeats:
		return a.OtherMeatDescription
	case GroupIngredients:
		return a.OtherIngredientDescription
	case GroupHealth:
		return a.OtherHealthDescription
	}
	return ""
}

func (a *Answers) setSelection(g Group, tags []string) {
	switch g {
	case GroupMeats:
		a.DislikedMeats = tags
	case GroupIngredients:
		a.DislikedIngredients = tags
	case GroupHealth:
		a.HealthConditions = tags
	}
}

func (a *Answers) setOtherDescription(g Group, text string) {
	switch g {
	case GroupMeats:
		a.OtherMeatDescription = text
	case GroupIngredients:
		a.OtherIngredientDescription = text
	case GroupHealth:
		a.OtherHealthDescription = text
	}
}

func (a *Answers) clearMetric() {
	a.HeightCM, a.CurrentWeightKG, a.TargetWeightKG = nil, nil, nil
}

func (a *Answers) clearImperial() {
	a.HeightFT, a.HeightIN, a.CurrentWeightLbs, a.TargetWeightLbs = nil, nil, nil, nil
}

// FormatNumber renders a measurement without trailing zeros ("165", "72.5").
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Float returns a pointer to v. Handy for building measurement fields.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
