package planner

import (
	"encoding/json"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// Status tags a normalization result.
type Status string

const (
	StatusStructured Status = "structured"
	StatusUnparsed   Status = "unparsed"
)

// DefaultOverflowThreshold is the number of unmatched non-whitespace bytes
// above which the original text is kept next to the structured plan.
const DefaultOverflowThreshold = 100

// Result is the outcome of normalizing a generation response. Raw holds the
// original text when the result is unparsed, and also when a structured plan
// left significant text unmatched.
type Result struct {
	Status Status    `json:"status"`
	Plan   *MealPlan `json:"plan,omitempty"`
	Raw    string    `json:"raw,omitempty"`
}

// Parsed reports whether the result carries a plan with at least one day.
func (r Result) Parsed() bool {
	return r.Status == StatusStructured && r.Plan != nil && len(r.Plan.Days) > 0
}

// HasOverflow reports whether a parsed result also carries the original text.
func (r Result) HasOverflow() bool {
	return r.Parsed() && r.Raw != ""
}

// Normalizer turns generated plan text into a MealPlan.
type Normalizer struct {
	extractors        []MealExtractor
	overflowThreshold int
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithExtractors replaces the meal extractor order.
func WithExtractors(ex ...MealExtractor) NormalizerOption {
	return func(n *Normalizer) { n.extractors = ex }
}

// WithOverflowThreshold sets the unmatched-content threshold.
func WithOverflowThreshold(bytes int) NormalizerOption {
	return func(n *Normalizer) { n.overflowThreshold = bytes }
}

// NewNormalizer creates a Normalizer with the default extractors.
func NewNormalizer(opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{
		extractors:        DefaultExtractors(),
		overflowThreshold: DefaultOverflowThreshold,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

var defaultNormalizer = NewNormalizer()

// Normalize runs the default Normalizer over text.
func Normalize(text string) Result {
	return defaultNormalizer.Normalize(text)
}

// NormalizePlan accepts an already structured plan. A plan with days is
// returned as is; one without is reported as unparsed.
func NormalizePlan(p MealPlan) Result {
	if len(p.Days) > 0 {
		return Result{Status: StatusStructured, Plan: &p}
	}
	raw, _ := json.MarshalIndent(p, "", "  ")
	return Result{Status: StatusUnparsed, Raw: string(raw)}
}

// NormalizeJSON handles a structured generation response. A conforming
// object with days is used directly; anything else goes through Normalize.
func NormalizeJSON(raw []byte) Result {
	var p MealPlan
	if err := json.Unmarshal(raw, &p); err == nil && len(p.Days) > 0 {
		return Result{Status: StatusStructured, Plan: &p}
	}
	return Normalize(string(raw))
}

var (
	fencedBlock    = regexp.MustCompile("(?s)^```[a-zA-Z]*[ \t]*\n(.*?)\n?```$")
	dayHeading     = regexp.MustCompile(`(?im)^[ \t]*#{2,3}[ \t]*(?:\*\*)?[ \t]*Day[ \t]*(\d+)\b(?:\*\*)?[ \t]*[:\-–—]?[ \t]*`)
	dayStop        = regexp.MustCompile(`(?im)^[ \t]*#{1,3}[ \t]*(?:\*\*)?[ \t]*(?:[A-Za-z]+[ \t]+)?(?:Shopping List|Guidelines)\b`)
	guidelinesHead = regexp.MustCompile(`(?im)^[ \t]*#{1,3}[ \t]*(?:\*\*)?[ \t]*(?:[A-Za-z]+[ \t]+)?Guidelines\b(?:\*\*)?[ \t]*[:\-–—]?[ \t]*`)
	guidelinesEnd  = regexp.MustCompile(`(?im)^[ \t]*#{1,3}[ \t]*(?:\*\*)?[ \t]*(?:[A-Za-z]+[ \t]+)?Shopping List\b`)
	shoppingHead   = regexp.MustCompile(`(?im)^[ \t]*#{1,3}[ \t]*(?:\*\*)?[ \t]*(?:[A-Za-z]+[ \t]+)?Shopping List\b(?:\*\*)?[ \t]*[:\-–—]?[ \t]*`)
	shoppingEnd    = regexp.MustCompile(`(?im)^[ \t]*#{1,3}[ \t]*(?:\*\*)?[ \t]*(?:[A-Za-z]+[ \t]+)?(?:Guidelines|Adjustments)\b`)
	introGuideline = regexp.MustCompile(`\bGuidelines\b[:\s\-]*`)
)

type span struct{ start, end int }

type daySegment struct {
	label      string
	start, end int
	body       string
}

// Normalize never fails: text it cannot structure comes back unparsed.
func (n *Normalizer) Normalize(text string) Result {
	if plan, ok := embeddedPlan(text); ok {
		return Result{Status: StatusStructured, Plan: plan}
	}

	src := strings.ReplaceAll(text, "\r\n", "\n")
	segments := splitDays(src)
	if len(segments) == 0 {
		return Result{Status: StatusUnparsed, Raw: text}
	}

	plan := &MealPlan{Days: make([]DayPlan, 0, len(segments))}
	consumed := []span{{0, segments[0].start}}
	plan.Introduction = strings.TrimSpace(src[:segments[0].start])

	for _, seg := range segments {
		plan.Days = append(plan.Days, n.parseDay(seg))
		consumed = append(consumed, span{seg.start, seg.end})
	}

	if body, sp, ok := section(src, guidelinesHead, guidelinesEnd, dayHeading); ok {
		plan.Guidelines = body
		consumed = append(consumed, sp)
	} else if loc := introGuideline.FindStringIndex(plan.Introduction); loc != nil {
		plan.Guidelines = cleanSection(plan.Introduction[loc[1]:])
	}

	if body, sp, ok := section(src, shoppingHead, shoppingEnd, dayHeading); ok {
		plan.ShoppingList = body
		consumed = append(consumed, sp)
	}

	res := Result{Status: StatusStructured, Plan: plan}
	if unmatched(src, consumed) > n.overflowThreshold {
		res.Raw = text
	}
	return res
}

func (n *Normalizer) parseDay(seg daySegment) DayPlan {
	day := DayPlan{Day: seg.label}
	for _, meal := range Meals {
		for _, ex := range n.extractors {
			if section, ok := ex.TryExtract(seg.body, meal); ok {
				day.setMeal(meal, section)
				break
			}
		}
	}
	if loc := dailyTotalsLine.FindStringIndex(seg.body); loc != nil {
		day.DailyTotals = findNutrition(seg.body[loc[0]:])
	}
	return day
}

// embeddedPlan handles a response that is already JSON, optionally fenced.
func embeddedPlan(text string) (*MealPlan, bool) {
	trimmed := strings.TrimSpace(text)
	if m := fencedBlock.FindStringSubmatch(trimmed); m != nil {
		trimmed = strings.TrimSpace(m[1])
	}
	if trimmed == "" || (trimmed[0] != '{' && trimmed[0] != '[') {
		return nil, false
	}

	var plan MealPlan
	if err := json.Unmarshal([]byte(trimmed), &plan); err != nil {
		return nil, false
	}
	if len(plan.Days) == 0 {
		return nil, false
	}
	return &plan, true
}

// splitDays cuts the text at each Day heading. A day ends at the next Day
// heading, a Shopping List or Guidelines heading, or the end of the text.
func splitDays(src string) []daySegment {
	heads := dayHeading.FindAllStringSubmatchIndex(src, -1)
	if len(heads) == 0 {
		return nil
	}
	stops := dayStop.FindAllStringIndex(src, -1)

	segments := make([]daySegment, 0, len(heads))
	for i, h := range heads {
		end := len(src)
		if i+1 < len(heads) {
			end = heads[i+1][0]
		}
		for _, s := range stops {
			if s[0] >= h[1] && s[0] < end {
				end = s[0]
				break
			}
		}
		segments = append(segments, daySegment{
			label: "Day " + src[h[2]:h[3]],
			start: h[0],
			end:   end,
			body:  src[h[1]:end],
		})
	}
	return segments
}

// section returns the block that follows head, up to the first of the
// terminators or the end of the text.
func section(src string, head *regexp.Regexp, terminators ...*regexp.Regexp) (string, span, bool) {
	loc := head.FindStringIndex(src)
	if loc == nil {
		return "", span{}, false
	}
	end := len(src)
	for _, term := range terminators {
		for _, t := range term.FindAllStringIndex(src, -1) {
			if t[0] >= loc[1] {
				if t[0] < end {
					end = t[0]
				}
				break
			}
		}
	}
	return cleanSection(src[loc[1]:end]), span{loc[0], end}, true
}

// unmatched counts non-whitespace bytes outside every consumed span.
func unmatched(src string, consumed []span) int {
	sort.Slice(consumed, func(i, j int) bool { return consumed[i].start < consumed[j].start })

	count, pos := 0, 0
	for _, sp := range consumed {
		if sp.start > pos {
			count += nonSpace(src[pos:sp.start])
		}
		if sp.end > pos {
			pos = sp.end
		}
	}
	if pos < len(src) {
		count += nonSpace(src[pos:])
	}
	return count
}

func nonSpace(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

// UnmarshalJSON accepts a numeric day ("day": 3) as well as a label.
func (d *DayPlan) UnmarshalJSON(b []byte) error {
	type alias DayPlan
	aux := struct {
		Day json.RawMessage `json:"day"`
		*alias
	}{alias: (*alias)(d)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	d.Day = flexString(aux.Day)
	if _, err := strconv.Atoi(d.Day); err == nil {
		d.Day = "Day " + d.Day
	}
	return nil
}

// UnmarshalJSON accepts numeric macro figures and keeps them as text.
func (n *Nutrition) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	n.Calories = flexString(raw["calories"])
	n.Protein = flexString(raw["protein"])
	n.Fat = flexString(raw["fat"])
	n.Carbs = flexString(raw["carbs"])
	return nil
}

func flexString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}
