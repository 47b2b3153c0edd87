package form

// ChoiceOptions returns the catalog of a single-choice step, or nil for
// other steps.
func ChoiceOptions(step Step) []Option {
	switch step {
	case StepGender:
		return GenderOptions
	case StepFamiliarity:
		return FamiliarityOptions
	case StepPrepTime:
		return PrepTimeOptions
	case StepActivity:
		return ActivityOptions
	}
	return nil
}

// Choice returns the value of the single-choice field owned by step.
func Choice(a Answers, step Step) string {
	switch step {
	case StepGender:
		return string(a.Gender)
	case StepFamiliarity:
		return string(a.Familiarity)
	case StepPrepTime:
		return string(a.PrepTime)
	case StepActivity:
		return string(a.ActivityLevel)
	}
	return ""
}

// WithChoice returns a with the single-choice field owned by step set to value.
func WithChoice(a Answers, step Step, value string) Answers {
	switch step {
	case StepGender:
		a.Gender = Gender(value)
	case StepFamiliarity:
		a.Familiarity = Familiarity(value)
	case StepPrepTime:
		a.PrepTime = PrepTime(value)
	case StepActivity:
		a.ActivityLevel = ActivityLevel(value)
	}
	return a
}
