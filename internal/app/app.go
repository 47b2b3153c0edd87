// Package app is the questionnaire funnel shared by the web server and the
// Telegram bot: step submission, plan generation, caching and persistence.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/singleflight"

	"keto-planner/internal/auth"
	"keto-planner/internal/form"
	"keto-planner/internal/logger"
	"keto-planner/internal/metrics"
	"keto-planner/internal/notify"
	"keto-planner/internal/planner"
	"keto-planner/internal/render"
	"keto-planner/internal/session"
)

// DashboardLimit is how many recent plans the dashboard lists.
const DashboardLimit = 10

// PlanGenerator produces a plan from confirmed answers.
type PlanGenerator interface {
	Generate(ctx context.Context, answers form.Answers) (*planner.Generation, error)
}

// App holds the application's dependencies.
type App struct {
	requester    PlanGenerator
	sessions     *session.Store
	plans        *planner.PlanRepository
	users        *auth.Users
	profiles     *auth.Profiles
	mailer       notify.Mailer
	metricsStore *metrics.Store
	dataDir      string
	log          *logger.Logger

	// inflight collapses concurrent Generate calls for one session.
	inflight singleflight.Group
}

// NewApp creates and initializes a new App instance.
func NewApp(
	requester PlanGenerator,
	sessions *session.Store,
	plans *planner.PlanRepository,
	users *auth.Users,
	profiles *auth.Profiles,
	mailer notify.Mailer,
	metricsStore *metrics.Store,
	databasePath string,
	log *logger.Logger,
) *App {
	return &App{
		requester:    requester,
		sessions:     sessions,
		plans:        plans,
		users:        users,
		profiles:     profiles,
		mailer:       mailer,
		metricsStore: metricsStore,
		dataDir:      filepath.Dir(databasePath),
		log:          log,
	}
}

// Outcome is the result of a Generate call.
type Outcome struct {
	Generation *planner.Generation
	// PlanID is set when the plan was saved for a signed-in user.
	PlanID string
	// Cached is true when the session already held a plan and no request was made.
	Cached bool
}

// LoadState returns the session's questionnaire state, or a fresh one.
func (a *App) LoadState(ctx context.Context, sessionID string) (form.State, error) {
	var st form.State
	_, err := a.sessions.Get(ctx, sessionID, session.NameFormData, &st)
	if errors.Is(err, session.ErrNotFound) {
		return form.NewState(), nil
	}
	if err != nil {
		return form.State{}, err
	}
	if !st.Step.Valid() {
		return form.NewState(), nil
	}
	return st, nil
}

// SubmitStep validates and commits the current step. On validation failure
// the stored state is untouched and the error is a form.ValidationErrors.
func (a *App) SubmitStep(ctx context.Context, sessionID string, input form.Answers) (form.State, error) {
	st, err := a.LoadState(ctx, sessionID)
	if err != nil {
		return st, err
	}
	next, err := form.Submit(st, input)
	if err != nil {
		return st, err
	}
	return next, a.saveState(ctx, sessionID, next)
}

// Back moves the session one step backwards.
func (a *App) Back(ctx context.Context, sessionID string) (form.State, error) {
	st, err := a.LoadState(ctx, sessionID)
	if err != nil {
		return st, err
	}
	st = form.Back(st)
	return st, a.saveState(ctx, sessionID, st)
}

// GoTo jumps to an already reached step.
func (a *App) GoTo(ctx context.Context, sessionID string, step form.Step) (form.State, error) {
	st, err := a.LoadState(ctx, sessionID)
	if err != nil {
		return st, err
	}
	next, err := form.GoTo(st, step)
	if err != nil {
		return st, err
	}
	return next, a.saveState(ctx, sessionID, next)
}

// Reset discards the answers and any cached plan of the session.
func (a *App) Reset(ctx context.Context, sessionID string) (form.State, error) {
	if err := a.sessions.Clear(ctx, sessionID); err != nil {
		return form.State{}, err
	}
	return form.NewState(), nil
}

func (a *App) saveState(ctx context.Context, sessionID string, st form.State) error {
	return a.sessions.Put(ctx, sessionID, session.NameFormData, st)
}

// CachedPlan returns the plan generated earlier in this session.
// It returns session.ErrNotFound when there is none.
func (a *App) CachedPlan(ctx context.Context, sessionID string) (*planner.Generation, error) {
	var g planner.Generation
	if _, err := a.sessions.Get(ctx, sessionID, session.NameGeneratedPlan, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// Generate requests the plan for the session's answers. A plan cached in the
// session is returned without calling the generation service. userID is
// empty for anonymous visitors. Concurrent calls for the same session share
// one request.
func (a *App) Generate(ctx context.Context, sessionID, userID string) (*Outcome, error) {
	v, err, _ := a.inflight.Do(sessionID, func() (any, error) {
		return a.generateForSession(ctx, sessionID, userID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Outcome), nil
}

// savedPlan records which user a session's cached plan was saved for.
type savedPlan struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
}

func (a *App) generateForSession(ctx context.Context, sessionID, userID string) (*Outcome, error) {
	if g, err := a.CachedPlan(ctx, sessionID); err == nil {
		out := &Outcome{Generation: g, Cached: true}
		if userID != "" {
			out.PlanID = a.saveCached(ctx, sessionID, userID, g)
		}
		return out, nil
	} else if !errors.Is(err, session.ErrNotFound) {
		a.log.Warn("Failed to read cached plan, generating a new one", "session", sessionID, "error", err)
	}

	st, err := a.LoadState(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	answers, err := form.Finalize(st.Answers)
	if err != nil {
		return nil, err
	}

	out, err := a.generate(ctx, answers, userID)
	if err != nil {
		return nil, err
	}
	if err := a.sessions.Put(ctx, sessionID, session.NameGeneratedPlan, out.Generation); err != nil {
		a.log.Error("Failed to cache generated plan", "session", sessionID, "error", err)
	}
	a.rememberSaved(ctx, sessionID, userID, out.PlanID)
	return out, nil
}

// saveCached persists a plan generated before the visitor signed in. A plan
// already saved for this user is not saved twice.
func (a *App) saveCached(ctx context.Context, sessionID, userID string, g *planner.Generation) string {
	var saved savedPlan
	if _, err := a.sessions.Get(ctx, sessionID, session.NameSavedPlan, &saved); err == nil && saved.UserID == userID {
		return saved.ID
	}

	st, err := a.LoadState(ctx, sessionID)
	if err != nil {
		a.log.Warn("Cached plan not saved, state unavailable", "session", sessionID, "error", err)
		return ""
	}
	answers := st.Answers
	if final, err := form.Finalize(answers); err == nil {
		answers = final
	}

	id := a.persist(ctx, userID, answers, g)
	a.rememberSaved(ctx, sessionID, userID, id)
	return id
}

func (a *App) rememberSaved(ctx context.Context, sessionID, userID, planID string) {
	if userID == "" || planID == "" {
		return
	}
	if err := a.sessions.Put(ctx, sessionID, session.NameSavedPlan, savedPlan{ID: planID, UserID: userID}); err != nil {
		a.log.Warn("Failed to record saved plan", "session", sessionID, "error", err)
	}
}

// GenerateFromAnswers validates a complete record and requests its plan
// without touching any session. It backs the JSON API.
func (a *App) GenerateFromAnswers(ctx context.Context, answers form.Answers, userID string) (*Outcome, error) {
	answers, err := form.Finalize(answers)
	if err != nil {
		return nil, err
	}
	return a.generate(ctx, answers, userID)
}

func (a *App) generate(ctx context.Context, answers form.Answers, userID string) (*Outcome, error) {
	g, err := a.requester.Generate(ctx, answers)
	if err != nil {
		a.log.Error("Plan generation failed", "user", userID, "error", err)
		return nil, err
	}
	a.log.Info("Plan generated",
		"user", userID,
		"status", g.Result.Status,
		"overflow", g.Result.HasOverflow(),
		"latency_ms", g.Meta.Latency.Milliseconds(),
	)

	if err := a.metricsStore.RecordMeta(ctx, g.Meta); err != nil {
		a.log.Warn("Failed to record metrics", "agent", g.Meta.AgentName, "error", err)
	}

	out := &Outcome{Generation: g}
	if userID != "" {
		out.PlanID = a.persist(ctx, userID, answers, g)
	}
	return out, nil
}

// persist saves the plan, the profile and sends the plan email. Failures
// are logged; the visitor still gets the plan.
func (a *App) persist(ctx context.Context, userID string, answers form.Answers, g *planner.Generation) string {
	id, err := a.plans.Save(ctx, userID, g.Raw)
	if err != nil {
		a.log.Error("Failed to save plan", "user", userID, "error", err)
	}
	if err := a.profiles.Upsert(ctx, userID, answers); err != nil {
		a.log.Error("Failed to save profile", "user", userID, "error", err)
	}

	user, err := a.users.Get(ctx, userID)
	if err != nil {
		a.log.Warn("Plan email skipped, user not found", "user", userID, "error", err)
		return id
	}
	week, err := a.plans.CountByUserID(ctx, userID)
	if err != nil || week == 0 {
		week = 1
	}
	if err := a.mailer.SendPlan(ctx, user.Email, week, render.PlainText(g.Result)); err != nil {
		a.log.Error("Failed to send plan email", "user", userID, "error", err)
	}
	return id
}

// ViewPlan loads a saved plan for its owner.
func (a *App) ViewPlan(ctx context.Context, id, userID string) (*planner.StoredPlan, error) {
	return a.plans.GetForUser(ctx, id, userID)
}

// Dashboard is a signed-in user's overview.
type Dashboard struct {
	User    *auth.User
	Plans   []planner.StoredPlan
	Profile *form.Answers
}

// Dashboard loads the user's recent plans and saved profile.
func (a *App) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	user, err := a.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	plans, err := a.plans.ListRecentByUserID(ctx, userID, DashboardLimit)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{User: user, Plans: plans}
	profile, err := a.profiles.Get(ctx, userID)
	switch {
	case err == nil:
		d.Profile = &profile
	case !errors.Is(err, auth.ErrProfileNotFound):
		return nil, err
	}
	return d, nil
}

// MetricsReport renders the last week's generation usage and process health.
func (a *App) MetricsReport(ctx context.Context) (string, error) {
	usage, err := a.metricsStore.GetDailyUsage(ctx, 7)
	if err != nil {
		return "", fmt.Errorf("failed to load usage: %w", err)
	}
	return metrics.Report(usage, metrics.GetSysHealth(a.dataDir)), nil
}
