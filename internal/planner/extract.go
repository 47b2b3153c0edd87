package planner

import (
	"regexp"
	"strings"
)

// MealSection is the text found for one meal inside a day segment.
type MealSection struct {
	Text      string
	Nutrition *Nutrition
	Recipe    *Recipe
}

// MealExtractor is one markup convention for locating a meal inside a day
// segment. Extractors are tried in order and the first match wins.
type MealExtractor interface {
	TryExtract(segment string, meal Meal) (MealSection, bool)
}

const anyMeal = `(?:Breakfast|Lunch|Dinner|Snacks?)`

func mealName(m Meal) string {
	if m == Snacks {
		return `Snacks?`
	}
	return string(m)
}

var (
	mealHeadingEnd  = regexp.MustCompile(`(?im)^[ \t]*#{3,4}[ \t]*(?:\*\*)?[ \t]*` + anyMeal + `\b`)
	boldMealEnd     = regexp.MustCompile(`(?i)\*\*[ \t]*` + anyMeal + `\b`)
	compactMealEnd  = regexp.MustCompile(`(?i)\*\*` + anyMeal + `:\*\*`)
	dailyTotalsLine = regexp.MustCompile(`(?im)^[ \t]*(?:#{1,4}[ \t]*|[-*+•][ \t]+)?(?:\*\*)?[ \t]*Daily Totals?\b`)
)

// patternExtractor finds a start marker for the meal and reads until the
// first terminator that follows it.
type patternExtractor struct {
	start      map[Meal]*regexp.Regexp
	terminator []*regexp.Regexp
	trimExtra  string
}

func newPatternExtractor(startTmpl string, trimExtra string, terminators ...*regexp.Regexp) *patternExtractor {
	e := &patternExtractor{
		start:      make(map[Meal]*regexp.Regexp, len(Meals)),
		terminator: append(terminators, dailyTotalsLine),
		trimExtra:  trimExtra,
	}
	for _, m := range Meals {
		e.start[m] = regexp.MustCompile(strings.ReplaceAll(startTmpl, "MEAL", mealName(m)))
	}
	return e
}

func (e *patternExtractor) TryExtract(segment string, meal Meal) (MealSection, bool) {
	re, ok := e.start[meal]
	if !ok {
		return MealSection{}, false
	}
	loc := re.FindStringIndex(segment)
	if loc == nil {
		return MealSection{}, false
	}

	begin := loc[1]
	end := len(segment)
	for _, term := range e.terminator {
		if t := term.FindStringIndex(segment[begin:]); t != nil && begin+t[0] < end {
			end = begin + t[0]
		}
	}

	content := segment[begin:end]
	text := cleanSection(content)
	if e.trimExtra != "" {
		text = strings.TrimRight(text, e.trimExtra)
	}
	return MealSection{
		Text:      text,
		Nutrition: findNutrition(content),
		Recipe:    findRecipe(content),
	}, true
}

// HeadingExtractor matches a level 3 or 4 heading naming the meal
// ("### Breakfast: Avocado Eggs"). The rest of the heading line is kept.
func HeadingExtractor() MealExtractor {
	return newPatternExtractor(`(?im)^[ \t]*#{3,4}[ \t]*(?:\*\*)?[ \t]*MEAL\b(?:\*\*)?[ \t]*[:\-–—]?[ \t]*`, "", mealHeadingEnd)
}

// BoldExtractor matches a bold meal label anywhere in the segment
// ("**Breakfast:** eggs", "1. **Lunch**: salad", "Today: **Dinner** - steak").
// Content runs until the next bold meal label.
func BoldExtractor() MealExtractor {
	return newPatternExtractor(`(?i)\*\*[ \t]*MEAL\b[: \t\-]*\*\*[: \t\-]*`, ",;", boldMealEnd)
}

// CompactExtractor matches a compact bold label anywhere in the text
// ("Meals: **Breakfast:**eggs, **Lunch:**salad").
func CompactExtractor() MealExtractor {
	return newPatternExtractor(`(?i)\*\*MEAL:\*\*[ \t]*`, ",;", compactMealEnd)
}

// DefaultExtractors is the extractor order used by Normalize.
func DefaultExtractors() []MealExtractor {
	return []MealExtractor{HeadingExtractor(), BoldExtractor(), CompactExtractor()}
}

var ruleLine = regexp.MustCompile(`^(?:[-*_+•=]+|\d+[.)])$`)

// cleanSection trims whitespace plus dangling bullets, list numbers and rules
// left behind by the terminator cut.
func cleanSection(s string) string {
	s = strings.TrimSpace(s)
	for s != "" {
		i := strings.LastIndexByte(s, '\n')
		last := strings.TrimSpace(s[i+1:])
		if !ruleLine.MatchString(last) {
			break
		}
		if i < 0 {
			return ""
		}
		s = strings.TrimSpace(s[:i])
	}
	return s
}

var (
	nutritionToken   = regexp.MustCompile(`(?i)\b(Net Carbs|Carbohydrates|Carbs|Calories|Protein|Fat)\b\**[ \t]*:\**[ \t]*([~≈]?[0-9](?:[^,|;\n]|,[0-9])*)`)
	ingredientsMark  = regexp.MustCompile(`(?im)^[ \t]*(?:#{4,6}[ \t]*|[-*+•][ \t]+)?(?:\*\*)?[ \t]*Ingredients\b[ \t]*(?:\*\*)?[ \t]*:?[ \t]*(?:\*\*)?`)
	instructionsMark = regexp.MustCompile(`(?im)^[ \t]*(?:#{4,6}[ \t]*|[-*+•][ \t]+)?(?:\*\*)?[ \t]*(?:Instructions|Directions)\b[ \t]*(?:\*\*)?[ \t]*:?[ \t]*(?:\*\*)?`)
)

// findNutrition collects labeled macro figures. Values stay as written.
func findNutrition(s string) *Nutrition {
	n := &Nutrition{}
	for _, m := range nutritionToken.FindAllStringSubmatch(s, -1) {
		value := strings.TrimRight(strings.TrimSpace(m[2]), "*)_ ")
		switch strings.ToLower(m[1]) {
		case "calories":
			setOnce(&n.Calories, value)
		case "protein":
			setOnce(&n.Protein, value)
		case "fat":
			setOnce(&n.Fat, value)
		default:
			setOnce(&n.Carbs, value)
		}
	}
	if n.Empty() {
		return nil
	}
	return n
}

func setOnce(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

// findRecipe splits an Ingredients / Instructions block out of a meal.
func findRecipe(s string) *Recipe {
	ing := ingredientsMark.FindStringIndex(s)
	ins := instructionsMark.FindStringIndex(s)
	if ing == nil && ins == nil {
		return nil
	}

	r := &Recipe{}
	if ing != nil {
		end := len(s)
		if ins != nil && ins[0] > ing[1] {
			end = ins[0]
		}
		r.Ingredients = cleanSection(s[ing[1]:end])
	}
	if ins != nil {
		end := len(s)
		if ing != nil && ing[0] > ins[1] {
			end = ing[0]
		}
		r.Instructions = cleanSection(s[ins[1]:end])
	}
	if r.Ingredients == "" && r.Instructions == "" {
		return nil
	}
	return r
}
