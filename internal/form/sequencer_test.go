package form

import (
	"errors"
	"testing"
)

func sampleAnswers() Answers {
	return Answers{
		Gender:              GenderFemale,
		Familiarity:         FamiliarityBeginner,
		PrepTime:            PrepTime30,
		DislikedMeats:       []string{"pork"},
		DislikedIngredients: []string{TagNone},
		ActivityLevel:       ActivityModerate,
		HealthConditions:    []string{TagNone},
		Age:                 30,
		Units:               UnitsMetric,
		HeightCM:            Float(165),
		CurrentWeightKG:     Float(70),
		TargetWeightKG:      Float(60),
	}
}

func walk(t *testing.T, input Answers) State {
	t.Helper()
	s := NewState()
	for s.Step != StepSummary {
		next, err := Submit(s, input)
		if err != nil {
			t.Fatalf("Step %d failed: %v", s.Step, err)
		}
		if next.Step != s.Step+1 {
			t.Fatalf("Expected step %d, got %d", s.Step+1, next.Step)
		}
		s = next
	}
	return s
}

func TestSequencerWalk(t *testing.T) {
	s := walk(t, sampleAnswers())

	if s.Reached != StepSummary {
		t.Errorf("Expected reached to be summary, got %d", s.Reached)
	}
	if s.Answers.Gender != GenderFemale || s.Answers.PrepTime != PrepTime30 {
		t.Errorf("Expected answers to be committed, got %+v", s.Answers)
	}
	if s.Answers.HeightCM == nil || *s.Answers.HeightCM != 165 {
		t.Errorf("Expected height_cm 165, got %v", s.Answers.HeightCM)
	}

	if _, err := Submit(s, sampleAnswers()); !errors.Is(err, ErrTerminal) {
		t.Errorf("Expected ErrTerminal from summary, got %v", err)
	}
}

func TestSubmitInvalidKeepsState(t *testing.T) {
	s := NewState()
	next, err := Submit(s, Answers{})
	if err == nil {
		t.Fatal("Expected an error for missing gender")
	}
	if next.Step != StepGender {
		t.Errorf("Expected to stay on step 1, got %d", next.Step)
	}
}

func TestSubmitOnlyCommitsCurrentSlice(t *testing.T) {
	s := NewState()
	input := sampleAnswers()
	s, err := Submit(s, input)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if s.Answers.Familiarity != "" {
		t.Errorf("Expected familiarity to stay empty after step 1, got %q", s.Answers.Familiarity)
	}
}

func TestBackKeepsAnswers(t *testing.T) {
	s := walk(t, sampleAnswers())

	for i := 0; i < 20; i++ {
		s = Back(s)
	}
	if s.Step != StepGender {
		t.Fatalf("Expected to stop at step 1, got %d", s.Step)
	}
	if s.Answers.Gender != GenderFemale || len(s.Answers.DislikedMeats) != 1 {
		t.Errorf("Expected answers to survive backward navigation, got %+v", s.Answers)
	}

	s, err := GoTo(s, StepMeasurements)
	if err != nil {
		t.Fatalf("Expected GoTo a reached step to work, got %v", err)
	}
	if s.Step != StepMeasurements {
		t.Errorf("Expected step 8, got %d", s.Step)
	}
}

func TestGoToUnreached(t *testing.T) {
	s := NewState()
	if _, err := GoTo(s, StepHealth); !errors.Is(err, ErrUnknownStep) {
		t.Errorf("Expected ErrUnknownStep, got %v", err)
	}
}

func TestMeasurementsCommitKeepsOneGroup(t *testing.T) {
	s := State{Step: StepMeasurements, Reached: StepMeasurements, Answers: sampleAnswers()}

	input := Answers{
		Age:              30,
		Units:            UnitsImperial,
		HeightFT:         Int(5),
		CurrentWeightLbs: Float(154),
		TargetWeightLbs:  Float(132),
		HeightCM:         Float(165),
	}
	s, err := Submit(s, input)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if s.Answers.HeightCM != nil || s.Answers.CurrentWeightKG != nil || s.Answers.TargetWeightKG != nil {
		t.Errorf("Expected metric group to be cleared, got %+v", s.Answers)
	}
	if s.Answers.HeightIN == nil || *s.Answers.HeightIN != 0 {
		t.Errorf("Expected height_in to default to 0, got %v", s.Answers.HeightIN)
	}
}

func TestFinalize(t *testing.T) {
	a, err := Finalize(sampleAnswers())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if a.HeightFT != nil {
		t.Errorf("Expected imperial group to be empty, got %v", a.HeightFT)
	}

	bad := sampleAnswers()
	bad.Gender = ""
	bad.DislikedMeats = nil
	_, err = Finalize(bad)
	var ve ValidationErrors
	if !errors.As(err, &ve) {
		t.Fatalf("Expected ValidationErrors, got %v", err)
	}
	if len(ve) != 2 {
		t.Errorf("Expected 2 field errors, got %v", ve)
	}
}

func TestDescribe(t *testing.T) {
	a := sampleAnswers()
	a.DislikedMeats = []string{"pork", TagOther}
	a.OtherMeatDescription = "venison"

	got := map[string]string{}
	for _, r := range Describe(a) {
		got[r.Label] = r.Value
	}

	want := map[string]string{
		"Gender":         "Female",
		"Meal Prep Time": "30 Minutes",
		"Disliked Meats": "Pork, Other (venison)",
		"Height":         "165 cm",
		"Current Weight": "70 kg",
		"Target Weight":  "60 kg",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("Expected %s to be %q, got %q", k, v, got[k])
		}
	}

	imperial := Answers{Units: UnitsImperial, HeightFT: Int(5), HeightIN: Int(7)}
	if h := Height(imperial); h != "5 ft 7 in" {
		t.Errorf("Expected '5 ft 7 in', got %q", h)
	}
}
