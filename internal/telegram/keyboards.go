package telegram

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"keto-planner/internal/form"
)

// Callback actions. Data is "action" or "action|value".
const (
	actionPick     = "pick"
	actionToggle   = "toggle"
	actionDone     = "done"
	actionBack     = "back"
	actionReset    = "reset"
	actionGenerate = "gen"
)

const measurementHelp = "Send your measurements in one message:\n" +
	"`metric <age> <height cm> <weight kg> <target kg>`\n" +
	"`imperial <age> <feet> <inches> <weight lbs> <target lbs>`\n\n" +
	"Example: `metric 34 165 70 62.5`"

func isCheckboxStep(s form.Step) bool {
	_, ok := s.Group()
	return ok
}

// sendStep shows the question for st. draft carries the selection to
// render on checkbox steps.
func (b *Bot) sendStep(chatID int64, st form.State, draft form.Answers) {
	msg := tgbotapi.NewMessage(chatID, stepText(st, draft))
	msg.ParseMode = tgbotapi.ModeMarkdown
	if kb, ok := stepKeyboard(st, draft); ok {
		msg.ReplyMarkup = kb
	}
	b.send(msg)
}

func stepText(st form.State, draft form.Answers) string {
	header := fmt.Sprintf("*Step %d of %d*\n%s", st.Step, form.StepSummary, st.Step.Title())
	switch {
	case st.Step == form.StepMeasurements:
		return header + "\n\n" + measurementHelp
	case st.Step == form.StepSummary:
		var sb strings.Builder
		sb.WriteString(header + "\n")
		for _, row := range form.Describe(st.Answers) {
			fmt.Fprintf(&sb, "\n*%s:* %s", row.Label, row.Value)
		}
		return sb.String()
	case isCheckboxStep(st.Step):
		g, _ := st.Step.Group()
		text := header + "\n_Select all that apply, then tap Done._"
		if slices.Contains(draft.Selection(g), form.TagOther) {
			if desc := draft.OtherDescription(g); desc != "" {
				text += "\n\nOther: " + desc
			} else {
				text += "\n\nType a short description for *Other*."
			}
		}
		return text
	}
	return header
}

func stepKeyboard(st form.State, draft form.Answers) (tgbotapi.InlineKeyboardMarkup, bool) {
	switch {
	case st.Step == form.StepSummary:
		return tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🥑 Generate my plan", actionGenerate)),
			navRow(),
		), true
	case st.Step == form.StepMeasurements:
		return tgbotapi.NewInlineKeyboardMarkup(navRow()), true
	case isCheckboxStep(st.Step):
		g, _ := st.Step.Group()
		return checkboxKeyboard(g, draft), true
	}
	opts := form.ChoiceOptions(st.Step)
	if opts == nil {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	return radioKeyboard(opts, form.Choice(st.Answers, st.Step), st.Step > form.StepGender), true
}

func radioKeyboard(opts []form.Option, current string, withBack bool) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, o := range opts {
		label := o.Label
		if o.Value == current {
			label = "🔘 " + label
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, actionPick+"|"+o.Value),
		))
	}
	if withBack {
		rows = append(rows, navRow())
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func checkboxKeyboard(g form.Group, draft form.Answers) tgbotapi.InlineKeyboardMarkup {
	selected := draft.Selection(g)
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, o := range form.Options(g) {
		label := o.Label
		if slices.Contains(selected, o.Value) {
			label = "✅ " + label
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, actionToggle+"|"+o.Value))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Done ➡️", actionDone)),
		navRow(),
	)
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func navRow() []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", actionBack),
		tgbotapi.NewInlineKeyboardButtonData("🔄 Start over", actionReset),
	)
}

var errMeasurementFormat = errors.New("unreadable measurements")

// parseMeasurements reads the one-line measurements message. Range checks
// are left to form validation.
func parseMeasurements(text string) (form.Answers, error) {
	fields := strings.Fields(strings.ToLower(strings.ReplaceAll(text, ",", " ")))
	if len(fields) == 0 {
		return form.Answers{}, errMeasurementFormat
	}

	var a form.Answers
	switch form.Units(fields[0]) {
	case form.UnitsMetric:
		if len(fields) != 5 {
			return a, errMeasurementFormat
		}
		a.Units = form.UnitsMetric
		nums, err := parseFloats(fields[2:])
		if err != nil {
			return a, err
		}
		a.HeightCM, a.CurrentWeightKG, a.TargetWeightKG = &nums[0], &nums[1], &nums[2]
	case form.UnitsImperial:
		if len(fields) != 6 {
			return a, errMeasurementFormat
		}
		a.Units = form.UnitsImperial
		ft, err1 := strconv.Atoi(fields[2])
		in, err2 := strconv.Atoi(fields[3])
		if err1 != nil || err2 != nil {
			return a, errMeasurementFormat
		}
		a.HeightFT, a.HeightIN = form.Int(ft), form.Int(in)
		nums, err := parseFloats(fields[4:])
		if err != nil {
			return a, err
		}
		a.CurrentWeightLbs, a.TargetWeightLbs = &nums[0], &nums[1]
	default:
		return a, errMeasurementFormat
	}

	age, err := strconv.Atoi(fields[1])
	if err != nil {
		return a, errMeasurementFormat
	}
	a.Age = age
	return a, nil
}

func parseFloats(fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, errMeasurementFormat
		}
		out[i] = v
	}
	return out, nil
}
