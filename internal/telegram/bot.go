// Package telegram runs the questionnaire funnel as a Telegram chat.
package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"keto-planner/internal/app"
	"keto-planner/internal/config"
	"keto-planner/internal/form"
	"keto-planner/internal/logger"
	"keto-planner/internal/planner"
	"keto-planner/internal/render"
	"keto-planner/internal/session"
)

// draftName holds the checkbox selection being edited before it is submitted.
const draftName = "telegramDraft"

const generateTimeout = 2 * time.Minute

// Sender is the part of the Telegram API the bot uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot wraps the Telegram API and the funnel.
type Bot struct {
	api      Sender
	app      *app.App
	sessions *session.Store
	cfg      *config.Config
	log      *logger.Logger

	mu       sync.Mutex
	chats    map[int64]*sync.Mutex
	inflight sync.WaitGroup
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(cfg *config.Config, a *app.App, sessions *session.Store, log *logger.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	log.Info("Authorized on Telegram", "account", api.Self.UserName)

	wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook url %s: %w", cfg.TelegramWebhookURL, err)
	}
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	log.Info("Webhook set", "url", cfg.TelegramWebhookURL, "response", resp.Description)

	return newBot(api, cfg, a, sessions, log), nil
}

func newBot(api Sender, cfg *config.Config, a *app.App, sessions *session.Store, log *logger.Logger) *Bot {
	return &Bot{api: api, app: a, sessions: sessions, cfg: cfg, log: log, chats: make(map[int64]*sync.Mutex)}
}

// RegisterHandlers registers the webhook and health handlers on mux.
func (b *Bot) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/webhook", b.handleWebhook)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		b.log.Warn("Error parsing update", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)

	// Telegram retries slow webhooks; answer first and work in the background.
	b.inflight.Add(1)
	go func() {
		defer b.inflight.Done()
		b.HandleUpdate(context.Background(), update)
	}()
}

// Wait blocks until every update accepted by the webhook has been handled,
// or ctx ends.
func (b *Bot) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HandleUpdate processes one update synchronously. Updates for the same chat
// are handled one at a time.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	chatID, ok := updateChat(update)
	if !ok {
		return
	}
	lock := b.chatLock(chatID)
	lock.Lock()
	defer lock.Unlock()

	switch {
	case update.CallbackQuery != nil:
		q := update.CallbackQuery
		if !b.allowed(q.From) {
			return
		}
		b.handleCallback(ctx, q)
	case update.Message != nil:
		if !b.allowed(update.Message.From) {
			return
		}
		b.handleMessage(ctx, update.Message)
	}
}

func updateChat(update tgbotapi.Update) (int64, bool) {
	switch {
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil && update.CallbackQuery.Message.Chat != nil:
		return update.CallbackQuery.Message.Chat.ID, true
	case update.Message != nil && update.Message.Chat != nil:
		return update.Message.Chat.ID, true
	}
	return 0, false
}

func (b *Bot) chatLock(chatID int64) *sync.Mutex {
	b.mu.Lock()
	defer b.mu.Unlock()
	l, ok := b.chats[chatID]
	if !ok {
		l = &sync.Mutex{}
		b.chats[chatID] = l
	}
	return l
}

func (b *Bot) allowed(u *tgbotapi.User) bool {
	if u == nil {
		return false
	}
	if len(b.cfg.TelegramAllowedUserIDs) == 0 || slices.Contains(b.cfg.TelegramAllowedUserIDs, u.ID) {
		return true
	}
	b.log.Warn("Unauthorized access attempt", "user_id", u.ID, "username", u.UserName)
	return false
}

func sessionKey(chatID int64) string {
	return fmt.Sprintf("tg:%d", chatID)
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	sid := sessionKey(chatID)

	switch msg.Command() {
	case "start":
		b.restart(ctx, chatID)
		return
	case "metrics":
		b.handleMetricsRequest(ctx, msg)
		return
	}

	st, err := b.app.LoadState(ctx, sid)
	if err != nil {
		b.fail(chatID, "loading your answers", err)
		return
	}

	text := strings.TrimSpace(msg.Text)
	switch {
	case st.Step == form.StepMeasurements:
		b.submitMeasurements(ctx, chatID, text)
	case isCheckboxStep(st.Step):
		g, _ := st.Step.Group()
		draft := b.loadDraft(ctx, sid, st)
		if !slices.Contains(draft.Selection(g), form.TagOther) {
			b.sendText(chatID, "Please use the buttons below, or select *Other* to describe something else.")
			b.sendStep(chatID, st, draft)
			return
		}
		draft = form.WithOtherDescription(draft, g, text)
		b.saveDraft(ctx, sid, draft)
		b.sendText(chatID, fmt.Sprintf("Noted: _%s_. Tap *Done* when you are ready.", text))
		b.sendStep(chatID, st, draft)
	default:
		b.sendText(chatID, "Please use the buttons below. Send /start to begin again.")
		b.sendStep(chatID, st, st.Answers)
	}
}

func (b *Bot) restart(ctx context.Context, chatID int64) {
	st, err := b.app.Reset(ctx, sessionKey(chatID))
	if err != nil {
		b.fail(chatID, "starting over", err)
		return
	}
	b.sendText(chatID, "🥑 *Welcome to your personal keto planner!*\nAnswer a few questions and I will create a 7-day keto meal plan for you.")
	b.sendStep(chatID, st, st.Answers)
}

func (b *Bot) submitMeasurements(ctx context.Context, chatID int64, text string) {
	input, err := parseMeasurements(text)
	if err != nil {
		b.log.Debug("Bad measurements message", "chat", chatID, "error", err)
		b.sendText(chatID, "⚠️ I could not read those measurements.\n\n"+measurementHelp)
		return
	}
	b.submit(ctx, chatID, input)
}

// submit commits input for the current step and shows the next one.
func (b *Bot) submit(ctx context.Context, chatID int64, input form.Answers) {
	sid := sessionKey(chatID)
	st, err := b.app.SubmitStep(ctx, sid, input)
	var ve form.ValidationErrors
	switch {
	case errors.As(err, &ve):
		b.sendText(chatID, "⚠️ "+describeErrors(ve))
		b.sendStep(chatID, st, input)
		return
	case errors.Is(err, form.ErrTerminal):
		b.sendStep(chatID, st, st.Answers)
		return
	case err != nil:
		b.fail(chatID, "saving your answer", err)
		return
	}
	if err := b.sessions.Delete(ctx, sid, draftName); err != nil {
		b.log.Warn("Failed to clear draft", "session", sid, "error", err)
	}
	b.sendStep(chatID, st, st.Answers)
}

func (b *Bot) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	if q.Message == nil {
		return
	}
	chatID := q.Message.Chat.ID
	sid := sessionKey(chatID)
	action, value, _ := strings.Cut(q.Data, "|")

	// Answer callback to remove spinner
	if _, err := b.api.Request(tgbotapi.NewCallback(q.ID, "")); err != nil {
		b.log.Debug("Failed to answer callback", "error", err)
	}

	st, err := b.app.LoadState(ctx, sid)
	if err != nil {
		b.fail(chatID, "loading your answers", err)
		return
	}

	switch action {
	case actionPick:
		b.submit(ctx, chatID, form.WithChoice(form.Answers{}, st.Step, value))
	case actionToggle:
		g, ok := st.Step.Group()
		if !ok {
			b.sendStep(chatID, st, st.Answers)
			return
		}
		draft := b.loadDraft(ctx, sid, st)
		checked := !slices.Contains(draft.Selection(g), value)
		draft = form.ToggleAnswers(draft, g, value, checked)
		b.saveDraft(ctx, sid, draft)

		edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, q.Message.MessageID, stepText(st, draft), checkboxKeyboard(g, draft))
		edit.ParseMode = tgbotapi.ModeMarkdown
		b.send(edit)
	case actionDone:
		b.submit(ctx, chatID, b.loadDraft(ctx, sid, st))
	case actionBack:
		if err := b.sessions.Delete(ctx, sid, draftName); err != nil {
			b.log.Warn("Failed to clear draft", "session", sid, "error", err)
		}
		st, err := b.app.Back(ctx, sid)
		if err != nil {
			b.fail(chatID, "going back", err)
			return
		}
		b.sendStep(chatID, st, st.Answers)
	case actionReset:
		b.restart(ctx, chatID)
	case actionGenerate:
		b.generate(ctx, chatID)
	default:
		b.log.Warn("Unknown callback", "data", q.Data)
	}
}

func (b *Bot) generate(ctx context.Context, chatID int64) {
	status := tgbotapi.NewMessage(chatID, "🧑‍🍳 *Thinking...*\n(Creating your personalized keto plan)")
	status.ParseMode = tgbotapi.ModeMarkdown
	sent, err := b.api.Send(status)
	if err != nil {
		b.log.Error("Failed to send initial reply", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	out, err := b.app.Generate(ctx, sessionKey(chatID), "")
	if err != nil {
		text := "❌ *We could not generate your plan right now.* Please try again later."
		var ve form.ValidationErrors
		if errors.As(err, &ve) {
			text = "⚠️ Some answers are missing: " + describeErrors(ve) + "\nSend /start to begin again."
		}
		if !errors.Is(err, planner.ErrUpstream) && !errors.As(err, &ve) {
			b.log.Error("Error generating plan", "chat", chatID, "error", err)
		}
		edit := tgbotapi.NewEditMessageText(chatID, sent.MessageID, text)
		edit.ParseMode = tgbotapi.ModeMarkdown
		b.send(edit)
		return
	}

	parts := render.TelegramParts(out.Generation.Result)
	if len(parts) == 0 {
		parts = []string{"The plan came back empty. Please try again."}
	}
	edit := tgbotapi.NewEditMessageText(chatID, sent.MessageID, "✅ *Your plan is ready!*")
	edit.ParseMode = tgbotapi.ModeMarkdown
	b.send(edit)
	for _, p := range parts {
		b.sendText(chatID, p)
	}

	restart := tgbotapi.NewMessage(chatID, "Want a different plan? Start over anytime.")
	restart.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🔄 Start over", actionReset)),
	)
	b.send(restart)
}

func (b *Bot) handleMetricsRequest(ctx context.Context, msg *tgbotapi.Message) {
	if b.cfg.AdminTelegramID == 0 || msg.From == nil || msg.From.ID != b.cfg.AdminTelegramID {
		b.sendText(msg.Chat.ID, "⛔ *Access Denied*: Admin only.")
		return
	}
	report, err := b.app.MetricsReport(ctx)
	if err != nil {
		b.fail(msg.Chat.ID, "fetching metrics", err)
		return
	}
	b.sendText(msg.Chat.ID, "📊 *Usage & Health Report*\n\n"+report)
}

func (b *Bot) loadDraft(ctx context.Context, sid string, st form.State) form.Answers {
	var draft form.Answers
	if _, err := b.sessions.Get(ctx, sid, draftName, &draft); err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			b.log.Warn("Failed to load draft", "session", sid, "error", err)
		}
		return st.Answers
	}
	return draft
}

func (b *Bot) saveDraft(ctx context.Context, sid string, draft form.Answers) {
	if err := b.sessions.Put(ctx, sid, draftName, draft); err != nil {
		b.log.Warn("Failed to save draft", "session", sid, "error", err)
	}
}

func (b *Bot) fail(chatID int64, doing string, err error) {
	b.log.Error("Telegram request failed", "chat", chatID, "while", doing, "error", err)
	b.sendText(chatID, "❌ Something went wrong while "+doing+". Please try again or send /start.")
}

func (b *Bot) sendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	b.send(msg)
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.log.Warn("Failed to send telegram message", "error", err)
	}
}

func describeErrors(ve form.ValidationErrors) string {
	msgs := make([]string, 0, len(ve))
	for _, field := range sortedKeys(ve) {
		msgs = append(msgs, ve[field])
	}
	return strings.Join(msgs, " ")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
