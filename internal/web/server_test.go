package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"keto-planner/internal/app"
	"keto-planner/internal/auth"
	"keto-planner/internal/database"
	"keto-planner/internal/form"
	"keto-planner/internal/logger"
	"keto-planner/internal/metrics"
	"keto-planner/internal/notify"
	"keto-planner/internal/planner"
	"keto-planner/internal/session"
)

type MockGenerator struct {
	Err error
}

func (m *MockGenerator) Generate(ctx context.Context, answers form.Answers) (*planner.Generation, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	raw := `{"introduction":"Hello","days":[{"day":"Day 1","breakfast":"Eggs","lunch":"Salad","dinner":"Steak"},{"day":"Day 2","breakfast":"Omelette","lunch":"Soup","dinner":"Fish"}]}`
	return &planner.Generation{Raw: raw, Result: planner.NormalizeJSON([]byte(raw))}, nil
}

type testEnv struct {
	router http.Handler
	gen    *MockGenerator
	plans  *planner.PlanRepository
	users  *auth.Users
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	path := filepath.Join(t.TempDir(), "web.db")
	db, err := database.NewDB(path, logger.Nop())
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	env := &testEnv{
		gen:   &MockGenerator{},
		plans: planner.NewPlanRepository(db.SQL),
		users: auth.NewUsers(db.SQL),
	}
	a := app.NewApp(
		env.gen,
		session.NewStore(db.SQL),
		env.plans,
		env.users,
		auth.NewProfiles(db.SQL),
		notify.NewLogMailer(logger.Nop()),
		metrics.NewStore(db.SQL),
		path,
		logger.Nop(),
	)
	env.router = NewServer(a, env.users, auth.NewTokens("test-secret", time.Hour), false, logger.Nop()).Router()
	return env
}

// client keeps cookies between requests like a browser.
type client struct {
	t       *testing.T
	handler http.Handler
	cookies map[string]*http.Cookie
}

func (e *testEnv) client(t *testing.T) *client {
	return &client{t: t, handler: e.router, cookies: map[string]*http.Cookie{}}
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	return rec
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (c *client) post(path string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *client) walk() {
	c.t.Helper()
	steps := []url.Values{
		{"gender": {"female"}},
		{"familiarity": {"beginner"}},
		{"prep_time": {"30_mins"}},
		{"disliked_meats": {"pork", "other"}, "other_meat_description": {"venison"}},
		{"disliked_ingredients": {"none"}},
		{"activity_level": {"moderately_active"}},
		{"health_conditions": {"none"}},
		{"age": {"34"}, "units": {"metric"}, "height_cm": {"165"}, "current_weight_kg": {"70"}, "target_weight_kg": {"62"}},
	}
	for i, v := range steps {
		rec := c.post("/start-plan", v)
		if rec.Code != http.StatusSeeOther {
			c.t.Fatalf("Step %d: expected 303, got %d: %s", i+1, rec.Code, rec.Body.String())
		}
	}
}

func TestHealthAndRoot(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)

	if rec := c.get("/health"); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("Unexpected health response: %d %s", rec.Code, rec.Body.String())
	}
	rec := c.get("/")
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/start-plan" {
		t.Errorf("Expected redirect to /start-plan, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if _, ok := c.cookies[SessionCookie]; !ok {
		t.Error("Expected a session cookie")
	}
	if rec := c.get("/metrics"); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Goroutines") {
		t.Errorf("Unexpected metrics response: %d %s", rec.Code, rec.Body.String())
	}
	if rec := c.get("/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
}

func TestFunnelFlow(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)

	rec := c.get("/start-plan")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `name="gender"`) {
		t.Fatalf("Expected gender step, got %d:\n%s", rec.Code, rec.Body.String())
	}

	t.Run("invalid step is re-rendered", func(t *testing.T) {
		rec := c.post("/start-plan", url.Values{"gender": {"robot"}})
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("Expected 422, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `class="error"`) {
			t.Errorf("Expected an error message, got:\n%s", rec.Body.String())
		}
	})

	c.walk()

	rec = c.get("/start-plan")
	body := rec.Body.String()
	if !strings.Contains(body, "Generate my plan") || !strings.Contains(body, "Other (venison)") || !strings.Contains(body, "165 cm") {
		t.Fatalf("Expected summary page, got:\n%s", body)
	}

	t.Run("back keeps answers", func(t *testing.T) {
		if rec := c.post("/start-plan/back", nil); rec.Code != http.StatusSeeOther {
			t.Fatalf("Expected 303, got %d", rec.Code)
		}
		body := c.get("/start-plan").Body.String()
		if !strings.Contains(body, `name="height_cm" value="165"`) {
			t.Errorf("Expected measurements to be prefilled, got:\n%s", body)
		}
		if rec := c.get("/start-plan?step=9"); !strings.Contains(rec.Body.String(), "Generate my plan") {
			t.Error("Expected to jump back to the summary")
		}
	})

	rec = c.post("/generate", nil)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/results" {
		t.Fatalf("Expected redirect to /results, got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	rec = c.get("/results")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Eggs") || !strings.Contains(rec.Body.String(), "Day 1 of 2") {
		t.Fatalf("Expected first day of the plan, got %d:\n%s", rec.Code, rec.Body.String())
	}
	if rec := c.get("/results?page=2"); !strings.Contains(rec.Body.String(), "Omelette") {
		t.Errorf("Expected second day on page 2, got:\n%s", rec.Body.String())
	}

	t.Run("reset clears plan", func(t *testing.T) {
		c.post("/start-plan/reset", nil)
		rec := c.get("/results")
		if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/start-plan" {
			t.Errorf("Expected redirect to /start-plan, got %d", rec.Code)
		}
	})
}

func TestGenerateUpstreamError(t *testing.T) {
	env := newTestEnv(t)
	env.gen.Err = planner.ErrUpstream
	c := env.client(t)
	c.walk()

	rec := c.post("/generate", nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("Expected 502, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "could not generate your plan") {
		t.Errorf("Expected a user-visible message, got:\n%s", rec.Body.String())
	}
}

func TestGenerateIncomplete(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)
	if rec := c.post("/generate", nil); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422, got %d", rec.Code)
	}
}

func TestAccountsAndPlans(t *testing.T) {
	env := newTestEnv(t)
	anon := env.client(t)

	for _, path := range []string{"/dashboard", "/plan/anything"} {
		rec := anon.get(path)
		if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/login" {
			t.Errorf("%s: expected redirect to /login, got %d %q", path, rec.Code, rec.Header().Get("Location"))
		}
	}

	c := env.client(t)
	rec := c.post("/register", url.Values{"email": {"jane@example.com"}, "password": {"correct-horse"}})
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/dashboard" {
		t.Fatalf("Expected redirect to dashboard, got %d: %s", rec.Code, rec.Body.String())
	}
	if _, ok := c.cookies[auth.CookieName]; !ok {
		t.Fatal("Expected auth cookie after registration")
	}

	c.walk()
	c.post("/generate", nil)

	rec = c.get("/dashboard")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "jane@example.com") {
		t.Fatalf("Expected dashboard, got %d:\n%s", rec.Code, rec.Body.String())
	}
	user, err := env.users.Authenticate(context.Background(), "jane@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	plans, err := env.plans.ListRecentByUserID(context.Background(), user.ID, 10)
	if err != nil || len(plans) != 1 {
		t.Fatalf("Expected one saved plan, got %d (%v)", len(plans), err)
	}
	if !strings.Contains(rec.Body.String(), "/plan/"+plans[0].ID) {
		t.Errorf("Expected a link to the saved plan")
	}

	if rec := c.get("/plan/" + plans[0].ID); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Eggs") {
		t.Errorf("Expected saved plan page, got %d", rec.Code)
	}
	if rec := c.get("/plan/does-not-exist"); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for an unknown plan, got %d", rec.Code)
	}

	t.Run("foreign plan", func(t *testing.T) {
		other := env.client(t)
		other.post("/register", url.Values{"email": {"bob@example.com"}, "password": {"another-pass"}})
		rec := other.get("/plan/" + plans[0].ID)
		if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/dashboard?error=Access+Denied" {
			t.Errorf("Expected access denied redirect, got %d %q", rec.Code, rec.Header().Get("Location"))
		}
	})

	t.Run("sign out and in", func(t *testing.T) {
		c.post("/auth/signout", nil)
		if rec := c.get("/dashboard"); rec.Code != http.StatusFound {
			t.Errorf("Expected redirect after sign out, got %d", rec.Code)
		}
		if rec := c.post("/login", url.Values{"email": {"jane@example.com"}, "password": {"wrong-pass"}}); rec.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401 for a wrong password, got %d", rec.Code)
		}
		if rec := c.post("/login", url.Values{"email": {"jane@example.com"}, "password": {"correct-horse"}}); rec.Code != http.StatusSeeOther {
			t.Errorf("Expected 303 after sign in, got %d", rec.Code)
		}
		if rec := c.get("/dashboard"); rec.Code != http.StatusOK {
			t.Errorf("Expected dashboard after sign in, got %d", rec.Code)
		}
	})
}

func TestAPIGeneratePlan(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/generate-plan", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return c.do(req)
	}

	valid := `{"gender":"male","familiarity":"expert","prep_time":"15_mins","disliked_meats":["none"],
		"disliked_ingredients":["none"],"activity_level":"very_active","health_conditions":["none"],
		"age":40,"units":"imperial","height_ft":6,"current_weight_lbs":200,"target_weight_lbs":180}`

	rec := post(valid)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Success bool             `json:"success"`
		Plan    planner.MealPlan `json:"plan"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if !resp.Success || len(resp.Plan.Days) != 2 || resp.Plan.Days[0].Breakfast != "Eggs" {
		t.Errorf("Unexpected response: %s", rec.Body.String())
	}

	t.Run("validation", func(t *testing.T) {
		rec := post(`{"gender":"male"}`)
		if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), `"success":false`) {
			t.Errorf("Expected 422, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("bad json", func(t *testing.T) {
		if rec := post(`{`); rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", rec.Code)
		}
	})

	t.Run("upstream", func(t *testing.T) {
		env.gen.Err = planner.ErrUpstream
		defer func() { env.gen.Err = nil }()
		if rec := post(valid); rec.Code != http.StatusBadGateway {
			t.Errorf("Expected 502, got %d", rec.Code)
		}
	})
}
