package render

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"keto-planner/internal/planner"
)

// Raw HTML in generated text is dropped; goldmark omits it unless WithUnsafe is set.
var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Markdown converts generated markdown to safe HTML.
func Markdown(s string) template.HTML {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(s), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(s))
	}
	return template.HTML(buf.String())
}

// View is everything a results page needs.
type View struct {
	Parsed       bool
	Overflow     bool
	Introduction template.HTML
	Guidelines   template.HTML
	ShoppingList template.HTML
	Summary      *planner.WeeklySummary
	Days         []DayView
	Page         int
	TotalPages   int
	// Full holds the whole original text: the only content of an unparsed
	// result and the collapsible fallback of an overflowing one.
	Full template.HTML
}

// HasPrev reports whether a previous page exists.
func (v View) HasPrev() bool { return v.Page > 1 }

// HasNext reports whether a next page exists.
func (v View) HasNext() bool { return v.Page < v.TotalPages }

// PrevPage is the previous page number.
func (v View) PrevPage() int { return v.Page - 1 }

// NextPage is the next page number.
func (v View) NextPage() int { return v.Page + 1 }

// DayView is one rendered day.
type DayView struct {
	Label       string
	Meals       []MealView
	DailyTotals *planner.Nutrition
}

// MealView is one collapsible meal block.
type MealView struct {
	Name         string
	Content      template.HTML
	Nutrition    *planner.Nutrition
	Ingredients  template.HTML
	Instructions template.HTML
}

// HTML builds the view of one page of res. Pages are one day each and page
// is clamped to the valid range.
func HTML(res planner.Result, page int) View {
	if !res.Parsed() {
		return View{Full: Markdown(res.Raw)}
	}

	plan := res.Plan
	pages := Paginate(plan, 1)
	page = max(1, min(page, len(pages)))

	v := View{
		Parsed:       true,
		Overflow:     res.HasOverflow(),
		Introduction: Markdown(plan.Introduction),
		Guidelines:   Markdown(plan.Guidelines),
		ShoppingList: Markdown(plan.ShoppingList),
		Summary:      plan.WeeklySummary,
		Page:         page,
		TotalPages:   len(pages),
	}
	if v.Overflow {
		v.Full = Markdown(res.Raw)
	}
	for _, d := range pages[page-1].Days {
		v.Days = append(v.Days, dayView(d))
	}
	return v
}

func dayView(d planner.DayPlan) DayView {
	dv := DayView{Label: d.Day}
	if !d.DailyTotals.Empty() {
		dv.DailyTotals = d.DailyTotals
	}
	for _, m := range planner.Meals {
		text, nutrition, recipe := d.Meal(m)
		if m == planner.Snacks && text == "" {
			continue
		}
		mv := MealView{Name: string(m), Content: Markdown(text)}
		if !nutrition.Empty() {
			mv.Nutrition = nutrition
		}
		if recipe != nil {
			mv.Ingredients = Markdown(recipe.Ingredients)
			mv.Instructions = Markdown(recipe.Instructions)
		}
		dv.Meals = append(dv.Meals, mv)
	}
	return dv
}

var dayTemplate = template.Must(template.New("day").Parse(`<section class="day">
<h2>{{.Label}}</h2>
{{range .Meals}}<details class="meal">
<summary>{{.Name}}</summary>
{{.Content}}
{{with .Nutrition}}<p class="nutrition">{{with .Calories}}Calories: {{.}} {{end}}{{with .Protein}}Protein: {{.}} {{end}}{{with .Fat}}Fat: {{.}} {{end}}{{with .Carbs}}Carbs: {{.}}{{end}}</p>
{{end}}{{if or .Ingredients .Instructions}}<details class="recipe">
<summary>Recipe</summary>
{{with .Ingredients}}<h4>Ingredients</h4>
{{.}}{{end}}
{{with .Instructions}}<h4>Instructions</h4>
{{.}}{{end}}
</details>
{{end}}</details>
{{end}}{{with .DailyTotals}}<p class="daily-totals"><strong>Daily Totals:</strong> {{with .Calories}}Calories: {{.}} {{end}}{{with .Protein}}Protein: {{.}} {{end}}{{with .Fat}}Fat: {{.}} {{end}}{{with .Carbs}}Carbs: {{.}}{{end}}</p>
{{end}}</section>`))

// Fragment renders a day as collapsible HTML.
func (d DayView) Fragment() template.HTML {
	var buf bytes.Buffer
	if err := dayTemplate.Execute(&buf, d); err != nil {
		return template.HTML(template.HTMLEscapeString(d.Label))
	}
	return template.HTML(buf.String())
}
