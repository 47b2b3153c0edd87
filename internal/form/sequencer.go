package form

import (
	"errors"
	"slices"
)

// Step is a position in the questionnaire.
type Step int

const (
	StepGender Step = iota + 1
	StepFamiliarity
	StepPrepTime
	StepMeats
	StepIngredients
	StepActivity
	StepHealth
	StepMeasurements
	StepSummary
)

// ErrTerminal is returned when a step is submitted from the summary.
var ErrTerminal = errors.New("summary step has no input; generate the plan instead")

// ErrUnknownStep is returned for step numbers outside the sequence.
var ErrUnknownStep = errors.New("unknown step")

var stepTitles = map[Step]string{
	StepGender:       "What is your gender?",
	StepFamiliarity:  "How familiar are you with the keto diet?",
	StepPrepTime:     "How much time do you have to prepare each meal?",
	StepMeats:        "Which meats do you NOT want in your plan?",
	StepIngredients:  "Which ingredients do you NOT want in your plan?",
	StepActivity:     "How active are you?",
	StepHealth:       "Do you have any health conditions?",
	StepMeasurements: "Your measurements",
	StepSummary:      "Summary",
}

// Title is the question shown for the step.
func (s Step) Title() string { return stepTitles[s] }

// Valid reports whether s is inside the sequence.
func (s Step) Valid() bool { return s >= StepGender && s <= StepSummary }

// Group returns the multi-select group a checkbox step edits.
func (s Step) Group() (Group, bool) {
	switch s {
	case StepMeats:
		return GroupMeats, true
	case StepIngredients:
		return GroupIngredients, true
	case StepHealth:
		return GroupHealth, true
	}
	return "", false
}

// State is the position in the questionnaire plus everything confirmed so far.
// It is passed in and returned by value; nothing here keeps state of its own.
type State struct {
	Step    Step    `json:"step"`
	Reached Step    `json:"reached"`
	Answers Answers `json:"answers"`
}

// NewState returns the empty state a session starts with.
func NewState() State {
	return State{Step: StepGender, Reached: StepGender}
}

// Reset discards every answer.
func Reset() State { return NewState() }

// Submit validates the current step's slice of input, merges it into the
// record and advances. On validation failure the state is returned unchanged.
func Submit(s State, input Answers) (State, error) {
	if s.Step == StepSummary {
		return s, ErrTerminal
	}
	if !s.Step.Valid() {
		return s, ErrUnknownStep
	}
	if err := Validate(s.Step, input); err != nil {
		return s, err
	}

	s.Answers = commit(s.Step, s.Answers, input)
	s.Step++
	if s.Step > s.Reached {
		s.Reached = s.Step
	}
	return s, nil
}

// Back moves one step backwards. Answers are kept.
func Back(s State) State {
	if s.Step > StepGender {
		s.Step--
	}
	return s
}

// GoTo jumps to a step that has already been reached. Answers are kept.
func GoTo(s State, step Step) (State, error) {
	if !step.Valid() || step > s.Reached {
		return s, ErrUnknownStep
	}
	s.Step = step
	return s, nil
}

// commit copies the fields owned by step from input into dst.
func commit(step Step, dst, input Answers) Answers {
	switch step {
	case StepGender:
		dst.Gender = input.Gender
	case StepFamiliarity:
		dst.Familiarity = input.Familiarity
	case StepPrepTime:
		dst.PrepTime = input.PrepTime
	case StepActivity:
		dst.ActivityLevel = input.ActivityLevel
	case StepMeats, StepIngredients, StepHealth:
		g, _ := step.Group()
		tags := slices.Clone(input.Selection(g))
		dst.setSelection(g, tags)
		if slices.Contains(tags, TagOther) {
			dst.setOtherDescription(g, input.OtherDescription(g))
		} else {
			dst.setOtherDescription(g, "")
		}
	case StepMeasurements:
		dst.Age = input.Age
		dst.Units = input.Units
		dst = commitMeasurements(dst, input)
	}
	return dst
}

func commitMeasurements(dst, input Answers) Answers {
	switch dst.Units {
	case UnitsMetric:
		dst.clearImperial()
		dst.HeightCM = copyFloat(input.HeightCM)
		dst.CurrentWeightKG = copyFloat(input.CurrentWeightKG)
		dst.TargetWeightKG = copyFloat(input.TargetWeightKG)
	case UnitsImperial:
		dst.clearMetric()
		dst.HeightFT = copyInt(input.HeightFT)
		dst.HeightIN = copyInt(input.HeightIN)
		if dst.HeightIN == nil {
			dst.HeightIN = Int(0)
		}
		dst.CurrentWeightLbs = copyFloat(input.CurrentWeightLbs)
		dst.TargetWeightLbs = copyFloat(input.TargetWeightLbs)
	}
	return dst
}

// Finalize validates a complete record in one pass and returns it with the
// unused measurement group cleared. The JSON API uses it in place of Submit.
func Finalize(a Answers) (Answers, error) {
	errs := ValidationErrors{}
	for step := StepGender; step < StepSummary; step++ {
		var ve ValidationErrors
		if err := Validate(step, a); errors.As(err, &ve) {
			for k, v := range ve {
				errs[k] = v
			}
		}
	}
	if len(errs) > 0 {
		return a, errs
	}

	out := Answers{}
	for step := StepGender; step < StepSummary; step++ {
		out = commit(step, out, a)
	}
	return out, nil
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
