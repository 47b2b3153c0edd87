package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"keto-planner/internal/config"
	"keto-planner/internal/form"
	"keto-planner/internal/llm"
	"keto-planner/internal/shared"
)

// ErrUpstream wraps every failure of the generation service call.
var ErrUpstream = errors.New("plan generation failed")

const agentName = "PlanRequester"

// Generation is one completed plan request.
type Generation struct {
	Format      string           `json:"format"`
	Raw         string           `json:"raw"`
	Result      Result           `json:"result"`
	GeneratedAt time.Time        `json:"generatedAt"`
	Meta        shared.AgentMeta `json:"-"`
}

// Requester turns confirmed answers into a normalized plan with a single
// generation call.
type Requester struct {
	gen      llm.Generator
	format   string
	provider string
	now      func() time.Time
}

// NewRequester creates a Requester. format is config.FormatStructured or
// config.FormatMarkdown.
func NewRequester(gen llm.Generator, format, provider string) *Requester {
	if format != config.FormatMarkdown {
		format = config.FormatStructured
	}
	return &Requester{
		gen:      gen,
		format:   format,
		provider: provider,
		now:      time.Now,
	}
}

// Format reports which response format the Requester asks for.
func (r *Requester) Format() string { return r.format }

// Generate builds the prompt, calls the generation service once and
// normalizes the response. A malformed response is not an error; it comes
// back as an unparsed Result.
func (r *Requester) Generate(ctx context.Context, answers form.Answers) (*Generation, error) {
	prompt, err := BuildPrompt(answers, r.format)
	if err != nil {
		return nil, err
	}

	start := r.now()
	var resp llm.ContentResponse
	if r.format == config.FormatMarkdown {
		resp, err = r.gen.GenerateContent(ctx, prompt)
	} else {
		resp, err = r.gen.GenerateStructured(ctx, prompt, MealPlanSchema())
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	g := &Generation{
		Format:      r.format,
		Raw:         resp.Content,
		GeneratedAt: r.now().UTC(),
		Meta: shared.AgentMeta{
			AgentName: agentName,
			Provider:  r.provider,
			Usage:     resp.Usage,
			Latency:   time.Since(start),
		},
	}
	if r.format == config.FormatMarkdown {
		g.Raw = stripHTMLBreaks(g.Raw)
		g.Result = Normalize(g.Raw)
	} else {
		g.Result = NormalizeJSON([]byte(g.Raw))
	}
	return g, nil
}
