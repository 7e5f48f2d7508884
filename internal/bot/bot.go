package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"daily-tasks/internal/calendar"
	"daily-tasks/internal/model"
	"daily-tasks/internal/planerr"
	"daily-tasks/internal/recurrence"
	"daily-tasks/internal/repository"
	"daily-tasks/internal/service"
)

const (
	cbDonePrefix = "done:"
	cbStarPrefix = "star:"
)

const (
	iconDone    = "✅"
	iconStar    = "⭐"
	iconRepeat  = "♻️"
	iconRefresh = "🔄"
)

// api is the part of tgbotapi.BotAPI the bot uses.
type api interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot is the owner-only Telegram UI over the task services.
type Bot struct {
	api     api
	chatID  int64
	tasks   *service.TaskService
	digest  *service.DigestService
	today   *service.TodaySyncService
	loc     *time.Location
	limiter *rate.Limiter
	log     zerolog.Logger
}

// New authorizes token with Telegram. Only messages from chatID are served.
func New(token string, chatID int64, tasks *service.TaskService, digest *service.DigestService, today *service.TodaySyncService, loc *time.Location, log zerolog.Logger) (*Bot, error) {
	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	b := newBot(botAPI, chatID, tasks, digest, today, loc, log)
	b.log.Info().Str("account", botAPI.Self.UserName).Msg("bot authorized")
	return b, nil
}

func newBot(a api, chatID int64, tasks *service.TaskService, digest *service.DigestService, today *service.TodaySyncService, loc *time.Location, log zerolog.Logger) *Bot {
	if loc == nil {
		loc = time.Local
	}
	return &Bot{
		api:    a,
		chatID: chatID,
		tasks:  tasks,
		digest: digest,
		today:  today,
		loc:    loc,
		// Telegram allows about one message per second in a private chat.
		limiter: rate.NewLimiter(rate.Every(time.Second), 3),
		log:     log.With().Str("component", "bot").Logger(),
	}
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info().Int64("chat_id", b.chatID).Msg("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		b.handleUpdate(ctx, update)
	}
	return ctx.Err()
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
			b.log.Error().Err(err).Msg("handle callback")
		}
	case update.Message != nil:
		if update.Message.Chat == nil || update.Message.Chat.ID != b.chatID {
			if update.Message.Chat != nil {
				b.log.Warn().Int64("chat_id", update.Message.Chat.ID).Msg("ignored message from foreign chat")
			}
			return
		}
		if err := b.handleMessage(ctx, update.Message); err != nil {
			b.log.Error().Err(err).Msg("handle message")
		}
	}
}

// Notify sends the today digest after a scheduled refresh changed the set.
func (b *Bot) Notify(ctx context.Context, res service.SyncResult) {
	text, err := b.digest.Today(ctx)
	if err != nil {
		b.log.Error().Err(err).Msg("build today digest")
		return
	}
	header := fmt.Sprintf("%s Today list refreshed: %d cleared, %d due today.\n\n", iconRefresh, res.Cleared, res.Set)
	if err := b.sendText(ctx, header+text); err != nil {
		b.log.Error().Err(err).Msg("send today digest")
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if !msg.IsCommand() {
		return b.sendText(ctx, "I only understand commands. Try /help.")
	}
	b.log.Info().Str("command", msg.Command()).Str("args", msg.CommandArguments()).Msg("command")

	args := strings.TrimSpace(msg.CommandArguments())
	switch msg.Command() {
	case "start", "help":
		return b.sendText(ctx, helpText)
	case "today":
		return b.handleToday(ctx)
	case "tasks":
		return b.handleList(ctx, repository.FilterAll, "📋 Tasks")
	case "planned":
		return b.handleList(ctx, repository.FilterPlanned, "🗓 Planned")
	case "add":
		return b.handleAdd(ctx, args)
	case "done":
		return b.handleCompleted(ctx, args, true)
	case "undo":
		return b.handleCompleted(ctx, args, false)
	case "star":
		return b.handleStar(ctx, args)
	case "repeat":
		return b.handleRepeat(ctx, args)
	case "step":
		return b.handleStep(ctx, args)
	case "delete":
		return b.handleDelete(ctx, args)
	case "refresh":
		return b.handleRefresh(ctx)
	default:
		return b.sendText(ctx, "Unknown command. See /help.")
	}
}

const helpText = "ℹ️ <b>Commands</b>\n" +
	"• /today — what is on today\n" +
	"• /tasks — all tasks\n" +
	"• /planned — tasks with a due date\n" +
	"• /add &lt;title&gt; [; due YYYY-MM-DD] [; today] — new task\n" +
	"• /done &lt;id&gt;, /undo &lt;id&gt; — toggle completion\n" +
	"• /star &lt;id&gt; — toggle the today flag\n" +
	"• /repeat &lt;id&gt; weekly mon,fri | monthly 10 | everyday | weekdays | reset | off\n" +
	"• /step &lt;id&gt; &lt;title&gt; — add a step\n" +
	"• /delete &lt;id&gt; — remove a task\n" +
	"• /refresh — rebuild the today list now\n" +
	"Ids can be shortened to their first characters."

func (b *Bot) handleToday(ctx context.Context) error {
	text, err := b.digest.Today(ctx)
	if err != nil {
		return b.replyError(ctx, err)
	}
	tasks, err := b.tasks.List(ctx, repository.FilterAll)
	if err != nil {
		return b.replyError(ctx, err)
	}
	var open []model.Task
	for _, task := range tasks {
		if !task.Completed && (task.IsToday || b.dueToday(task)) {
			open = append(open, task)
		}
	}
	return b.sendWithReplyMarkup(ctx, text, doneKeyboard(open))
}

func (b *Bot) handleList(ctx context.Context, filter repository.TaskFilter, heading string) error {
	tasks, err := b.tasks.List(ctx, filter)
	if err != nil {
		return b.replyError(ctx, err)
	}
	var open []model.Task
	for _, task := range tasks {
		if !task.Completed {
			open = append(open, task)
		}
	}
	return b.sendWithReplyMarkup(ctx, b.digest.List(tasks, heading), doneKeyboard(open))
}

func (b *Bot) handleAdd(ctx context.Context, args string) error {
	input, err := parseAddArgs(args, b.loc)
	if err != nil {
		return b.replyError(ctx, err)
	}
	task, err := b.tasks.CreateTask(ctx, input)
	if err != nil {
		return b.replyError(ctx, err)
	}
	return b.sendText(ctx, fmt.Sprintf("➕ Added %s <code>%s</code>", escape(task.Title), service.ShortID(task.ID)))
}

func (b *Bot) handleCompleted(ctx context.Context, args string, completed bool) error {
	if args == "" {
		return b.sendText(ctx, "Tell me which task: /done 1a2b3c4d")
	}
	task, err := b.tasks.GetTask(ctx, args)
	if err != nil {
		return b.replyError(ctx, err)
	}
	return b.setCompleted(ctx, task.ID, completed)
}

func (b *Bot) setCompleted(ctx context.Context, id string, completed bool) error {
	res, err := b.tasks.SetCompleted(ctx, id, completed)
	if err != nil {
		return b.replyError(ctx, err)
	}
	if !completed {
		return b.sendText(ctx, fmt.Sprintf("↩️ %s is open again.", escape(res.Task.Title)))
	}
	text := fmt.Sprintf("%s %s done.", iconDone, escape(res.Task.Title))
	if res.Spawned != nil && res.Spawned.DueDate != nil {
		text += fmt.Sprintf("\n%s Next one on %s <code>%s</code>", iconRepeat,
			res.Spawned.DueDate.In(b.loc).Format("Mon, 02 Jan"), service.ShortID(res.Spawned.ID))
	}
	return b.sendText(ctx, text)
}

func (b *Bot) handleStar(ctx context.Context, args string) error {
	if args == "" {
		return b.sendText(ctx, "Tell me which task: /star 1a2b3c4d")
	}
	task, err := b.tasks.GetTask(ctx, args)
	if err != nil {
		return b.replyError(ctx, err)
	}
	return b.toggleToday(ctx, task)
}

func (b *Bot) toggleToday(ctx context.Context, task *model.Task) error {
	updated, err := b.tasks.SetToday(ctx, task.ID, !task.IsToday)
	if err != nil {
		return b.replyError(ctx, err)
	}
	if updated.IsToday {
		return b.sendText(ctx, fmt.Sprintf("%s %s is on today's list.", iconStar, escape(updated.Title)))
	}
	return b.sendText(ctx, fmt.Sprintf("%s is off today's list.", escape(updated.Title)))
}

func (b *Bot) handleRepeat(ctx context.Context, args string) error {
	cmd, err := parseRepeatArgs(args)
	if err != nil {
		return b.replyError(ctx, err)
	}
	task, err := b.tasks.GetTask(ctx, cmd.id)
	if err != nil {
		return b.replyError(ctx, err)
	}
	if cmd.reset {
		if _, err := b.tasks.ResetRepeat(ctx, task.ID); err != nil {
			return b.replyError(ctx, err)
		}
		return b.sendText(ctx, fmt.Sprintf("%s %s will spawn again on its next completion.", iconRepeat, escape(task.Title)))
	}
	updated, err := b.tasks.SetRepeat(ctx, task.ID, cmd.rule)
	if err != nil {
		return b.replyError(ctx, err)
	}
	rule, _ := updated.Rule()
	if rule == nil {
		return b.sendText(ctx, fmt.Sprintf("%s no longer repeats.", escape(updated.Title)))
	}
	return b.sendText(ctx, fmt.Sprintf("%s %s repeats %s.", iconRepeat, escape(updated.Title), recurrence.Describe(rule)))
}

func (b *Bot) handleStep(ctx context.Context, args string) error {
	id, title, _ := strings.Cut(args, " ")
	if id == "" || strings.TrimSpace(title) == "" {
		return b.sendText(ctx, "Usage: /step &lt;id&gt; &lt;title&gt;")
	}
	task, err := b.tasks.GetTask(ctx, id)
	if err != nil {
		return b.replyError(ctx, err)
	}
	if _, err := b.tasks.AddStep(ctx, task.ID, title); err != nil {
		return b.replyError(ctx, err)
	}
	return b.sendText(ctx, fmt.Sprintf("☑️ Step added to %s.", escape(task.Title)))
}

func (b *Bot) handleDelete(ctx context.Context, args string) error {
	if args == "" {
		return b.sendText(ctx, "Tell me which task: /delete 1a2b3c4d")
	}
	task, err := b.tasks.GetTask(ctx, args)
	if err != nil {
		return b.replyError(ctx, err)
	}
	if err := b.tasks.DeleteTask(ctx, task.ID); err != nil {
		return b.replyError(ctx, err)
	}
	b.log.Info().Str("task_id", task.ID).Msg("task deleted")
	return b.sendText(ctx, fmt.Sprintf("🗑 %s deleted.", escape(task.Title)))
}

func (b *Bot) handleRefresh(ctx context.Context) error {
	res, err := b.today.Run(ctx, true)
	if err != nil {
		return b.replyError(ctx, err)
	}
	return b.sendText(ctx, fmt.Sprintf("%s Today list rebuilt: %d cleared, %d due today.", iconRefresh, res.Cleared, res.Set))
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.Message == nil || cb.Message.Chat == nil || cb.Message.Chat.ID != b.chatID {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Warn().Err(err).Msg("callback ack")
	}

	switch {
	case strings.HasPrefix(cb.Data, cbDonePrefix):
		return b.setCompleted(ctx, strings.TrimPrefix(cb.Data, cbDonePrefix), true)
	case strings.HasPrefix(cb.Data, cbStarPrefix):
		task, err := b.tasks.GetTask(ctx, strings.TrimPrefix(cb.Data, cbStarPrefix))
		if err != nil {
			return b.replyError(ctx, err)
		}
		return b.toggleToday(ctx, task)
	}
	return nil
}

func (b *Bot) dueToday(task model.Task) bool {
	if task.DueDate == nil {
		return false
	}
	return calendar.Today(b.loc).Contains(task.DueDate.In(b.loc))
}

// replyError reports user-facing errors in the chat and returns the rest.
func (b *Bot) replyError(ctx context.Context, err error) error {
	switch planerr.CodeOf(err) {
	case planerr.NotFound:
		return b.sendText(ctx, "Task not found.")
	case planerr.InvalidInput, planerr.InvalidRule:
		return b.sendText(ctx, "⚠️ "+escape(err.Error()))
	}
	if sendErr := b.sendText(ctx, "Something went wrong, try again later."); sendErr != nil {
		return errors.Join(err, sendErr)
	}
	return err
}

func (b *Bot) sendText(ctx context.Context, text string) error {
	return b.sendWithReplyMarkup(ctx, text, nil)
}

func (b *Bot) sendWithReplyMarkup(ctx context.Context, text string, markup interface{}) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(b.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	_, err := b.api.Send(msg)
	return err
}

// doneKeyboard has one done/star row per task; nil when there are none.
func doneKeyboard(tasks []model.Task) interface{} {
	if len(tasks) == 0 {
		return nil
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(tasks))
	for _, task := range tasks {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(iconDone+" "+shortTitle(task.Title, 24), cbDonePrefix+task.ID),
			tgbotapi.NewInlineKeyboardButtonData(iconStar, cbStarPrefix+task.ID),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	return string(runes[:maxLen-1]) + "…"
}

func escape(s string) string {
	return html.EscapeString(s)
}
