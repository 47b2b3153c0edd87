package planner

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"keto-planner/internal/config"
	"keto-planner/internal/form"
)

// SystemPrompt is sent as the system message with every plan request.
const SystemPrompt = "You are a helpful Keto Diet Nutritionist Assistant. You create safe, practical ketogenic meal plans tailored to a person's preferences, restrictions and health."

//go:embed prompts/*.md
var promptFS embed.FS

var prompts = template.Must(template.ParseFS(promptFS, "prompts/*.md"))

type promptData struct {
	Gender        string
	Familiarity   string
	PrepTime      string
	Meats         string
	Ingredients   string
	Activity      string
	Health        string
	Age           string
	Height        string
	CurrentWeight string
	TargetWeight  string
}

// BuildPrompt renders the plan request for answers. Markdown format asks for
// headed sections the normalizer understands; structured format relies on the schema.
func BuildPrompt(a form.Answers, format string) (string, error) {
	name := "plan.md"
	if format == config.FormatMarkdown {
		name = "legacy.md"
	}

	current, target := form.Weights(a)
	data := promptData{
		Gender:        form.Label(form.GenderOptions, string(a.Gender)),
		Familiarity:   form.Label(form.FamiliarityOptions, string(a.Familiarity)),
		PrepTime:      form.Label(form.PrepTimeOptions, string(a.PrepTime)),
		Meats:         describeTags(a, form.GroupMeats),
		Ingredients:   describeTags(a, form.GroupIngredients),
		Activity:      form.Label(form.ActivityOptions, string(a.ActivityLevel)),
		Health:        describeTags(a, form.GroupHealth),
		Age:           fmt.Sprintf("%d", a.Age),
		Height:        orUnknown(form.Height(a)),
		CurrentWeight: orUnknown(current),
		TargetWeight:  orUnknown(target),
	}

	var buf bytes.Buffer
	if err := prompts.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// describeTags lists a group's tags in lower case, e.g. "pork, other (venison)".
func describeTags(a form.Answers, g form.Group) string {
	tags := a.Selection(g)
	if len(tags) == 0 {
		return "none specified"
	}

	opts := form.Options(g)
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		switch tag {
		case form.TagNone:
			out = append(out, "none")
		case form.TagVegetarian:
			out = append(out, "vegetarian (no meat at all)")
		case form.TagOther:
			desc := strings.TrimSpace(a.OtherDescription(g))
			if desc == "" {
				out = append(out, "other")
				continue
			}
			out = append(out, fmt.Sprintf("other (%s)", desc))
		default:
			out = append(out, strings.ToLower(form.Label(opts, tag)))
		}
	}
	return strings.Join(out, ", ")
}

func orUnknown(s string) string {
	if s == "" {
		return "not provided"
	}
	return s
}
