package app

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"keto-planner/internal/auth"
	"keto-planner/internal/database"
	"keto-planner/internal/form"
	"keto-planner/internal/logger"
	"keto-planner/internal/metrics"
	"keto-planner/internal/planner"
	"keto-planner/internal/session"
	"keto-planner/internal/shared"
)

type MockGenerator struct {
	mu    sync.Mutex
	Calls int
	Err   error
	Delay time.Duration
}

func (m *MockGenerator) Generate(ctx context.Context, answers form.Answers) (*planner.Generation, error) {
	m.mu.Lock()
	m.Calls++
	err := m.Err
	m.mu.Unlock()

	time.Sleep(m.Delay)
	if err != nil {
		return nil, err
	}
	raw := `{"days":[{"day":"Day 1","breakfast":"Eggs","lunch":"Salad","dinner":"Steak"}]}`
	return &planner.Generation{
		Format: "structured",
		Raw:    raw,
		Result: planner.NormalizeJSON([]byte(raw)),
		Meta: shared.AgentMeta{
			AgentName: "PlanRequester",
			Usage:     shared.TokenUsage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30},
		},
	}, nil
}

type MockMailer struct {
	mu   sync.Mutex
	Sent []string
}

func (m *MockMailer) SendPlan(ctx context.Context, to string, week int, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, to)
	return nil
}

type fixture struct {
	app    *App
	gen    *MockGenerator
	mailer *MockMailer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.db")
	db, err := database.NewDB(path, logger.Nop())
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	f := &fixture{gen: &MockGenerator{}, mailer: &MockMailer{}}
	f.app = NewApp(
		f.gen,
		session.NewStore(db.SQL),
		planner.NewPlanRepository(db.SQL),
		auth.NewUsers(db.SQL),
		auth.NewProfiles(db.SQL),
		f.mailer,
		metrics.NewStore(db.SQL),
		path,
		logger.Nop(),
	)
	return f
}

// walk submits every step with valid answers.
func walk(t *testing.T, a *App, sid string) form.State {
	t.Helper()
	ctx := context.Background()
	inputs := []form.Answers{
		{Gender: form.GenderMale},
		{Familiarity: form.FamiliarityExpert},
		{PrepTime: form.PrepTime15},
		{DislikedMeats: []string{"pork"}},
		{DislikedIngredients: []string{form.TagNone}},
		{ActivityLevel: form.ActivityVery},
		{HealthConditions: []string{form.TagNone}},
		{Age: 30, Units: form.UnitsMetric, HeightCM: form.Float(180), CurrentWeightKG: form.Float(90), TargetWeightKG: form.Float(80)},
	}
	var st form.State
	for _, in := range inputs {
		var err error
		if st, err = a.SubmitStep(ctx, sid, in); err != nil {
			t.Fatalf("SubmitStep %d failed: %v", st.Step, err)
		}
	}
	return st
}

func TestFunnelState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	st, err := f.app.LoadState(ctx, "s1")
	if err != nil || st.Step != form.StepGender {
		t.Fatalf("Expected a fresh state, got %+v (%v)", st, err)
	}

	t.Run("invalid input keeps state", func(t *testing.T) {
		_, err := f.app.SubmitStep(ctx, "s1", form.Answers{Gender: "robot"})
		var ve form.ValidationErrors
		if !errors.As(err, &ve) {
			t.Fatalf("Expected validation errors, got %v", err)
		}
		st, _ := f.app.LoadState(ctx, "s1")
		if st.Step != form.StepGender {
			t.Errorf("Expected step to stay at 1, got %d", st.Step)
		}
	})

	st = walk(t, f.app, "s1")
	if st.Step != form.StepSummary {
		t.Fatalf("Expected summary step, got %d", st.Step)
	}

	back, err := f.app.Back(ctx, "s1")
	if err != nil || back.Step != form.StepMeasurements || back.Answers.Gender != form.GenderMale {
		t.Errorf("Expected back to keep answers, got %+v (%v)", back, err)
	}
	jumped, err := f.app.GoTo(ctx, "s1", form.StepMeats)
	if err != nil || jumped.Step != form.StepMeats {
		t.Errorf("Expected GoTo meats, got %+v (%v)", jumped, err)
	}

	if _, err := f.app.Reset(ctx, "s1"); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	st, _ = f.app.LoadState(ctx, "s1")
	if st.Step != form.StepGender || st.Answers.Gender != "" {
		t.Errorf("Expected reset state, got %+v", st)
	}
}

func TestGenerateAnonymousUsesCache(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	walk(t, f.app, "s1")

	out, err := f.app.Generate(ctx, "s1", "")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if out.Cached || out.PlanID != "" || !out.Generation.Result.Parsed() {
		t.Errorf("Unexpected first outcome: %+v", out)
	}

	again, err := f.app.Generate(ctx, "s1", "")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !again.Cached {
		t.Error("Expected second call to be served from the session")
	}
	if f.gen.Calls != 1 {
		t.Errorf("Expected one generation call, got %d", f.gen.Calls)
	}
	if got := again.Generation.Result.Plan.Days[0].Breakfast; got != "Eggs" {
		t.Errorf("Expected cached plan to round trip, got %q", got)
	}
	if len(f.mailer.Sent) != 0 {
		t.Errorf("Expected no email for anonymous visitors, got %v", f.mailer.Sent)
	}
}

func TestGenerateConcurrentCallsShareOneRequest(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.gen.Delay = 100 * time.Millisecond
	walk(t, f.app, "s1")

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.app.Generate(ctx, "s1", "")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
	}
	if f.gen.Calls != 1 {
		t.Errorf("Expected one generation call for the session, got %d", f.gen.Calls)
	}

	t.Run("other sessions are independent", func(t *testing.T) {
		walk(t, f.app, "s2")
		if _, err := f.app.Generate(ctx, "s2", ""); err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if f.gen.Calls != 2 {
			t.Errorf("Expected a second call for another session, got %d", f.gen.Calls)
		}
	})
}

func TestGenerateCachedPlanSavedAfterSignIn(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	walk(t, f.app, "s1")

	if _, err := f.app.Generate(ctx, "s1", ""); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	user, err := f.app.users.Register(ctx, "sam@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	out, err := f.app.Generate(ctx, "s1", user.ID)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !out.Cached || out.PlanID == "" {
		t.Fatalf("Expected the cached plan to be saved, got %+v", out)
	}
	if f.gen.Calls != 1 {
		t.Errorf("Expected no new generation call, got %d", f.gen.Calls)
	}

	again, err := f.app.Generate(ctx, "s1", user.ID)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if again.PlanID != out.PlanID {
		t.Errorf("Expected plan %s to be reused, got %s", out.PlanID, again.PlanID)
	}

	d, err := f.app.Dashboard(ctx, user.ID)
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}
	if len(d.Plans) != 1 {
		t.Errorf("Expected one saved plan on the dashboard, got %d", len(d.Plans))
	}
	if len(f.mailer.Sent) != 1 {
		t.Errorf("Expected one email, got %v", f.mailer.Sent)
	}
}

func TestGenerateIncompleteAnswers(t *testing.T) {
	f := newFixture(t)
	_, err := f.app.Generate(context.Background(), "s1", "")
	var ve form.ValidationErrors
	if !errors.As(err, &ve) {
		t.Fatalf("Expected validation errors, got %v", err)
	}
	if f.gen.Calls != 0 {
		t.Errorf("Expected no generation call, got %d", f.gen.Calls)
	}
}

func TestGenerateUpstreamError(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.gen.Err = planner.ErrUpstream
	walk(t, f.app, "s1")

	if _, err := f.app.Generate(ctx, "s1", ""); !errors.Is(err, planner.ErrUpstream) {
		t.Fatalf("Expected ErrUpstream, got %v", err)
	}
	if _, err := f.app.CachedPlan(ctx, "s1"); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("Expected nothing cached after a failure, got %v", err)
	}
}

func TestGenerateSignedInPersists(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user, err := f.app.users.Register(ctx, "jane@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	walk(t, f.app, "s1")

	out, err := f.app.Generate(ctx, "s1", user.ID)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if out.PlanID == "" {
		t.Fatal("Expected the plan to be saved")
	}

	stored, err := f.app.ViewPlan(ctx, out.PlanID, user.ID)
	if err != nil {
		t.Fatalf("ViewPlan failed: %v", err)
	}
	if stored.Raw() != out.Generation.Raw {
		t.Errorf("Expected stored raw text, got %q", stored.Raw())
	}
	if _, err := f.app.ViewPlan(ctx, out.PlanID, "someone-else"); !errors.Is(err, planner.ErrForbidden) {
		t.Errorf("Expected ErrForbidden, got %v", err)
	}

	d, err := f.app.Dashboard(ctx, user.ID)
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}
	if len(d.Plans) != 1 || d.Profile == nil || d.Profile.Gender != form.GenderMale {
		t.Errorf("Unexpected dashboard: %+v", d)
	}
	if len(f.mailer.Sent) != 1 || f.mailer.Sent[0] != "jane@example.com" {
		t.Errorf("Expected one email to jane@example.com, got %v", f.mailer.Sent)
	}

	report, err := f.app.MetricsReport(ctx)
	if err != nil {
		t.Fatalf("MetricsReport failed: %v", err)
	}
	if !strings.Contains(report, "1 plans") {
		t.Errorf("Expected the generation to be counted, got:\n%s", report)
	}
}

func TestGenerateFromAnswers(t *testing.T) {
	f := newFixture(t)
	_, err := f.app.GenerateFromAnswers(context.Background(), form.Answers{Gender: form.GenderMale}, "")
	var ve form.ValidationErrors
	if !errors.As(err, &ve) {
		t.Fatalf("Expected validation errors, got %v", err)
	}
	if _, ok := ve["familiarity"]; !ok {
		t.Errorf("Expected familiarity error, got %v", ve)
	}
}
