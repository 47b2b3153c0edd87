package render

import (
	"fmt"
	"regexp"
	"strings"

	"keto-planner/internal/planner"
)

// TelegramLimit is the maximum length of one Telegram message.
const TelegramLimit = 4096

var (
	mdHeading = regexp.MustCompile(`(?m)^[ \t]*#{1,6}[ \t]*(.+?)[ \t]*#*[ \t]*$`)
	mdBold    = regexp.MustCompile(`\*\*(.+?)\*\*`)
)

// telegramMarkdown maps common markdown to Telegram's legacy Markdown mode,
// which only knows single-asterisk bold.
func telegramMarkdown(s string) string {
	s = mdBold.ReplaceAllString(s, "*$1*")
	return mdHeading.ReplaceAllString(s, "*$1*")
}

// TelegramParts renders res as a series of messages: the introduction, one
// per day, then the shopping list and guidelines. Every part fits TelegramLimit.
func TelegramParts(res planner.Result) []string {
	if !res.Parsed() {
		return split(telegramMarkdown(strings.TrimSpace(res.Raw)), TelegramLimit)
	}

	plan := res.Plan
	var msgs []string
	if intro := strings.TrimSpace(plan.Introduction); intro != "" {
		msgs = append(msgs, telegramMarkdown(intro))
	}
	for _, d := range plan.Days {
		msgs = append(msgs, telegramDay(d))
	}
	if plan.ShoppingList != "" {
		msgs = append(msgs, "*Shopping List*\n\n"+telegramMarkdown(plan.ShoppingList))
	}
	if plan.Guidelines != "" {
		msgs = append(msgs, "*Guidelines*\n\n"+telegramMarkdown(plan.Guidelines))
	}

	var parts []string
	for _, m := range msgs {
		parts = append(parts, split(m, TelegramLimit)...)
	}
	return parts
}

func telegramDay(d planner.DayPlan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n", d.Day)
	for _, m := range planner.Meals {
		text, nutrition, recipe := d.Meal(m)
		if text == "" && m == planner.Snacks {
			continue
		}
		fmt.Fprintf(&b, "\n*%s:* %s\n", m, telegramMarkdown(text))
		if line := nutritionLine(nutrition); line != "" {
			fmt.Fprintf(&b, "_%s_\n", line)
		}
		if recipe != nil && recipe.Ingredients != "" {
			fmt.Fprintf(&b, "Ingredients:\n%s\n", telegramMarkdown(recipe.Ingredients))
		}
	}
	if line := nutritionLine(d.DailyTotals); line != "" {
		fmt.Fprintf(&b, "\n*Daily Totals:* %s\n", line)
	}
	return strings.TrimSpace(b.String())
}

func nutritionLine(n *planner.Nutrition) string {
	if n.Empty() {
		return ""
	}
	var fields []string
	for _, f := range []struct{ name, value string }{
		{"Calories", n.Calories}, {"Protein", n.Protein}, {"Fat", n.Fat}, {"Carbs", n.Carbs},
	} {
		if f.value != "" {
			fields = append(fields, f.name+": "+f.value)
		}
	}
	return strings.Join(fields, " | ")
}

// split cuts s into chunks of at most limit bytes, preferring line breaks.
func split(s string, limit int) []string {
	if s == "" {
		return nil
	}
	var out []string
	for len(s) > limit {
		cut := strings.LastIndex(s[:limit], "\n")
		if cut <= 0 {
			cut = limit
			for cut > 0 && !isRuneStart(s[cut]) {
				cut--
			}
		}
		out = append(out, strings.TrimRight(s[:cut], "\n"))
		s = strings.TrimLeft(s[cut:], "\n")
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
