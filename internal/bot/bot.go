package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"time-ledger/internal/config"
	"time-ledger/internal/ledger"
	"time-ledger/internal/model"
	"time-ledger/internal/repository"
	"time-ledger/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageActivityName
	stageActivityCategory
	stageActivityDuration
	stageEditDuration
	stageCategoryName
	stageCategoryIcon
)

const (
	cbEditPrefix   = "edit:"
	cbDeletePrefix = "delete:"
)

const (
	btnConfirm          = "✅ Подтвердить"
	btnCancel           = "↩️ Отмена"
	btnCancelDialog     = "⏪ Отменить ввод"
	menuLabelLog        = "➕ Запись"
	menuLabelDay        = "📋 Мой день"
	menuLabelInsights   = "🤖 Инсайты"
	menuLabelReport     = "📊 Отчёт"
	menuLabelCategories = "📂 Категории"
	menuLabelHelp       = "ℹ️ Помощь"
)

const dateLayout = "2006-01-02"

type conversationState struct {
	stage        conversationStage
	activity     ledger.Input
	editID       string
	categoryName string
}

type confirmationRequest struct {
	activityID string
	name       string
}

// Bot aggregates the Telegram API with the ledger services.
type Bot struct {
	api           *tgbotapi.BotAPI
	userRepo      *repository.UserRepository
	categorySvc   *service.CategoryService
	activitySvc   *service.ActivityService
	insightSvc    *service.InsightService
	summarySvc    *service.SummaryService
	config        *config.Config
	conversations map[int64]*conversationState
	confirmations map[int64]confirmationRequest
	viewedDates   map[int64]string
	mu            sync.Mutex
}

func New(token string, userRepo *repository.UserRepository, categorySvc *service.CategoryService, activitySvc *service.ActivityService, insightSvc *service.InsightService, summarySvc *service.SummaryService, cfg *config.Config) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] bot authorized on account %s", api.Self.UserName)

	return &Bot{
		api:           api,
		userRepo:      userRepo,
		categorySvc:   categorySvc,
		activitySvc:   activitySvc,
		insightSvc:    insightSvc,
		summarySvc:    summarySvc,
		config:        cfg,
		conversations: make(map[int64]*conversationState),
		confirmations: make(map[int64]confirmationRequest),
		viewedDates:   make(map[int64]string),
	}, nil
}

// Start begins polling updates until ctx is cancelled. Updates are
// consumed one at a time, so ledger mutations for a user's day are
// never interleaved.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	log.Println("[info] start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				log.Printf("handle callback: %v", err)
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				log.Printf("handle message: %v", err)
			}
		}
	}

	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Ввод отменён. Продолжим, когда будешь готов.")
	}

	if !msg.IsCommand() {
		if handled, err := b.handleMenuAlias(ctx, msg); handled {
			return err
		}
	}

	if msg.IsCommand() {
		log.Printf("[info] command from %d: /%s %s", msg.From.ID, msg.Command(), msg.CommandArguments())
		return b.handleCommand(ctx, msg)
	}

	if pending, ok := b.getConfirmation(msg.From.ID); ok {
		return b.handleConfirmationResponse(ctx, msg, pending)
	}

	if b.hasConversation(msg.From.ID) {
		return b.handleConversation(ctx, msg)
	}

	return b.sendText(msg.Chat.ID, "Я пока не понял сообщение. Набери /log, чтобы добавить запись, или /help для списка команд.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.handleHelp(msg)
	case "log":
		return b.startLogConversation(ctx, msg)
	case "day":
		return b.handleDay(ctx, msg)
	case "date":
		return b.handleDate(ctx, msg)
	case "insights":
		return b.handleInsights(ctx, msg)
	case "report":
		return b.handleReport(ctx, msg)
	case "categories":
		return b.handleCategories(ctx, msg)
	case "newcategory":
		return b.startCategoryConversation(ctx, msg)
	case "delcategory":
		return b.handleDeleteCategory(ctx, msg)
	case "cancel":
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Текущий ввод отменён.")
	default:
		return b.sendText(msg.Chat.ID, "Команда не поддерживается. Загляни в /help.")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}

	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "друг"
	}

	text := fmt.Sprintf(
		"👋 Привет, %s!\n<b>Я дневник времени: веду учёт занятий по минутам.</b>\n\nКоманды:\n"+
			"• /log — записать занятие\n"+
			"• /day — записи выбранного дня\n"+
			"• /date &lt;ГГГГ-ММ-ДД&gt; — сменить день\n"+
			"• /insights — инсайты по дню\n"+
			"• /report — полный дневной отчёт\n"+
			"• /categories — категории\n"+
			"• /help — подсказки",
		escape(name),
	)

	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	text := "ℹ️ <b>Подсказки</b>\n" +
		"• /log — записать занятие пошагово (название → категория → минуты)\n" +
		"• /day — показать записи дня, кнопками можно изменить длительность или удалить\n" +
		"• /date &lt;ГГГГ-ММ-ДД&gt; — переключить просматриваемый день (/date today — сегодня)\n" +
		"• /insights — наблюдения по записям дня\n" +
		"• /report — отчёт: итоги, категории, записи, инсайты\n" +
		"• /categories — список категорий\n" +
		"• /newcategory — создать свою категорию\n" +
		"• /delcategory &lt;название&gt; — удалить свою категорию\n" +
		"• /cancel — отменить текущий ввод\n\n" +
		fmt.Sprintf("В сутках %d минут — больше записать нельзя. Вечерний отчёт приходит в %s.",
			ledger.MaxMinutesPerDay, b.config.ReportTime)
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleDate(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}

	args := strings.TrimSpace(msg.CommandArguments())
	if args == "" {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Сейчас выбран день: <b>%s</b>. Сменить: /date 2026-08-31 или /date today.", b.viewedDate(msg.From.ID)))
	}

	date := today()
	if !strings.EqualFold(args, "today") {
		parsed, err := time.ParseInLocation(dateLayout, args, time.Local)
		if err != nil {
			return b.sendText(msg.Chat.ID, "Не могу распознать дату. Используй формат <code>2026-08-31</code> или <code>today</code>.")
		}
		date = parsed.Format(dateLayout)
	}

	b.setViewedDate(msg.From.ID, date)
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🗓 Теперь смотрим день <b>%s</b>.", date))
}

func (b *Bot) startLogConversation(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}
	log.Printf("[info] start log conversation user=%d", msg.From.ID)
	b.setConversation(msg.From.ID, &conversationState{stage: stageActivityName})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 Новая запись.\n<b>Шаг 1:</b> чем ты занимался? (например, «Встреча с командой»)", cancelKeyboard())
}

func (b *Bot) startCategoryConversation(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}
	b.setConversation(msg.From.ID, &conversationState{stage: stageCategoryName})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🏷 Как назвать новую категорию?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	if state == nil {
		return nil
	}

	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageActivityName:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Название не может быть пустым. Попробуй ещё раз.", cancelKeyboard())
		}
		state.activity.Name = text
		state.stage = stageActivityCategory
		keyboard, err := b.categoryKeyboard(ctx, user)
		if err != nil {
			return err
		}
		return b.sendWithReplyMarkup(msg.Chat.ID, "🏷 <b>Шаг 2:</b> выбери категорию.", keyboard)
	case stageActivityCategory:
		category, err := b.categorySvc.FindByName(ctx, user, text)
		if err != nil {
			if errors.Is(err, service.ErrCategoryNotFound) {
				keyboard, kerr := b.categoryKeyboard(ctx, user)
				if kerr != nil {
					return kerr
				}
				return b.sendWithReplyMarkup(msg.Chat.ID, "Такой категории нет. Выбери из списка или создай её через /newcategory.", keyboard)
			}
			return err
		}
		state.activity.CategoryID = category.ID
		state.stage = stageActivityDuration
		remaining, err := b.remainingMinutes(ctx, user, b.viewedDate(msg.From.ID))
		if err != nil {
			return err
		}
		return b.sendWithReplyMarkup(msg.Chat.ID, fmt.Sprintf("⏱ <b>Шаг 3:</b> сколько минут? Свободно в этом дне: <b>%d мин</b>.", remaining), cancelKeyboard())
	case stageActivityDuration:
		duration, err := strconv.Atoi(text)
		if err != nil || duration <= 0 {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Длительность — целое число минут больше нуля, например 45.", cancelKeyboard())
		}
		state.activity.Duration = duration
		date := b.viewedDate(msg.From.ID)
		activity, err := b.activitySvc.LogActivity(ctx, user, date, state.activity)
		if err != nil {
			return b.replyDomainError(msg.Chat.ID, err)
		}
		b.clearConversation(msg.From.ID)
		log.Printf("[info] activity logged id=%s user=%d date=%s minutes=%d", activity.ID, user.ID, date, activity.Duration)
		if err := b.sendTextWithRemove(msg.Chat.ID, fmt.Sprintf("✅ Записал: «%s», %d мин.", escape(activity.Name), activity.Duration)); err != nil {
			return err
		}
		return b.sendDayView(ctx, msg.Chat.ID, user, date)
	case stageEditDuration:
		duration, err := strconv.Atoi(text)
		if err != nil || duration <= 0 {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Новая длительность — целое число минут больше нуля.", cancelKeyboard())
		}
		date := b.viewedDate(msg.From.ID)
		activity, err := b.activitySvc.UpdateActivity(ctx, user, date, state.editID, ledger.Patch{Duration: &duration})
		if err != nil {
			if errors.Is(err, ledger.ErrNotFound) {
				b.clearConversation(msg.From.ID)
				return b.sendTextWithRemove(msg.Chat.ID, "Запись не найдена — возможно, она уже удалена.")
			}
			return b.replyDomainError(msg.Chat.ID, err)
		}
		b.clearConversation(msg.From.ID)
		log.Printf("[info] activity updated id=%s user=%d minutes=%d", activity.ID, user.ID, activity.Duration)
		if err := b.sendTextWithRemove(msg.Chat.ID, fmt.Sprintf("✏️ Обновил «%s»: теперь %d мин.", escape(activity.Name), activity.Duration)); err != nil {
			return err
		}
		return b.sendDayView(ctx, msg.Chat.ID, user, date)
	case stageCategoryName:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Название не может быть пустым. Попробуй ещё раз.", cancelKeyboard())
		}
		state.categoryName = text
		state.stage = stageCategoryIcon
		return b.sendWithReplyMarkup(msg.Chat.ID, "🎨 Выбери иконку для категории.", iconKeyboard())
	case stageCategoryIcon:
		if !isKnownIcon(text) {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Выбери иконку кнопкой из списка.", iconKeyboard())
		}
		category, err := b.categorySvc.CreateCustom(ctx, user, state.categoryName, text)
		if err != nil {
			if errors.Is(err, service.ErrDuplicateCategory) {
				b.clearConversation(msg.From.ID)
				return b.sendTextWithRemove(msg.Chat.ID, "Категория с таким названием уже есть (регистр не учитывается).")
			}
			return b.sendTextWithRemove(msg.Chat.ID, fmt.Sprintf("Не удалось создать категорию: %s", escape(err.Error())))
		}
		b.clearConversation(msg.From.ID)
		log.Printf("[info] category created id=%s user=%d", category.ID, user.ID)
		return b.sendTextWithRemove(msg.Chat.ID, fmt.Sprintf("✅ Категория «%s» создана.", escape(category.Name)))
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Диалог сброшен. Попробуй ещё раз через /log.")
	}
}

func (b *Bot) handleDay(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	date := b.viewedDate(msg.From.ID)
	if args := strings.TrimSpace(msg.CommandArguments()); args != "" {
		parsed, err := time.ParseInLocation(dateLayout, args, time.Local)
		if err != nil {
			return b.sendText(msg.Chat.ID, "Не могу распознать дату. Используй формат <code>2026-08-31</code>.")
		}
		date = parsed.Format(dateLayout)
		b.setViewedDate(msg.From.ID, date)
	}

	return b.sendDayView(ctx, msg.Chat.ID, user, date)
}

func (b *Bot) sendDayView(ctx context.Context, chatID int64, user *model.User, date string) error {
	activities, err := b.activitySvc.ListDay(ctx, user, date)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Не удалось получить записи: %s", escape(err.Error())))
	}

	if len(activities) == 0 {
		return b.sendText(chatID, fmt.Sprintf("🗓 <b>%s</b>\nЗа этот день пока нет записей. Добавь первую через /log.", date))
	}

	catalogue, err := b.categorySvc.Catalogue(ctx, user)
	if err != nil {
		return err
	}
	catNames := make(map[string]string, len(catalogue))
	for _, cat := range catalogue {
		catNames[cat.ID] = cat.Name
	}

	ledger.SortNewestFirst(activities)
	total := ledger.TotalMinutes(activities)
	remaining := ledger.RemainingMinutes(activities)

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("🗓 <b>%s</b>\n", date))
	builder.WriteString(fmt.Sprintf("⏱ Учтено %d мин, свободно %d мин.\n\n", total, remaining))

	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, activity := range activities {
		name := catNames[activity.CategoryID]
		if name == "" {
			name = "Unknown"
		}
		builder.WriteString(fmt.Sprintf("• %s <i>(%s)</i> — %d мин\n", escape(activity.Name), escape(name), activity.Duration))
		buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("✏️ %s", shortName(activity.Name, 20)), cbEditPrefix+activity.ID),
			tgbotapi.NewInlineKeyboardButtonData("🗑 Удалить", cbDeletePrefix+activity.ID),
		))
	}

	out := tgbotapi.NewMessage(chatID, strings.TrimSpace(builder.String()))
	out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	out.ParseMode = tgbotapi.ModeHTML
	_, err = b.api.Send(out)
	return err
}

func (b *Bot) handleInsights(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	date := b.viewedDate(msg.From.ID)
	insights, err := b.insightSvc.Generate(ctx, user, date)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Не удалось построить инсайты: %s", escape(err.Error())))
	}

	if len(insights) == 0 {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("🗓 %s: записей пока нет, инсайтам не из чего собраться. Начни с /log.", date))
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("🤖 <b>Инсайты за %s</b>\n\n", date))
	for _, ins := range insights {
		builder.WriteString(fmt.Sprintf("%s <b>%s</b>\n%s\n\n", ins.Icon, escape(ins.Title), escape(ins.Message)))
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleReport(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	text, err := b.summarySvc.DailyReport(ctx, user, b.viewedDate(msg.From.ID))
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Не удалось сформировать отчёт: %s", escape(err.Error())))
	}
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleCategories(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	catalogue, err := b.categorySvc.Catalogue(ctx, user)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Не удалось получить категории: %s", escape(err.Error())))
	}
	var builder strings.Builder
	builder.WriteString("📂 <b>Категории</b>\n")
	for _, cat := range catalogue {
		marker := ""
		if cat.IsCustom {
			marker = " <i>(своя)</i>"
		}
		builder.WriteString(fmt.Sprintf("%s %s%s\n", categoryEmoji(cat), escape(cat.Name), marker))
	}
	builder.WriteString("\nСвою категорию можно создать через /newcategory и удалить через /delcategory &lt;название&gt;.")
	return b.sendText(msg.Chat.ID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleDeleteCategory(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())
	if args == "" {
		return b.sendText(msg.Chat.ID, "Укажи название категории: /delcategory Хобби")
	}

	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	category, err := b.categorySvc.FindByName(ctx, user, args)
	if err != nil {
		if errors.Is(err, service.ErrCategoryNotFound) {
			return b.sendText(msg.Chat.ID, "Такой категории нет.")
		}
		return err
	}

	if err := b.categorySvc.DeleteCustom(ctx, user, category.ID); err != nil {
		if errors.Is(err, service.ErrBuiltinCategory) {
			return b.sendText(msg.Chat.ID, "Встроенную категорию удалить нельзя.")
		}
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Не удалось удалить категорию: %s", escape(err.Error())))
	}

	log.Printf("[info] category deleted id=%s user=%d", category.ID, user.ID)
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🗑 Категория «%s» удалена.", escape(category.Name)))
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, req confirmationRequest) error {
	text := strings.TrimSpace(msg.Text)
	switch {
	case isConfirmInput(text):
		b.clearConfirmation(msg.From.ID)
		user, err := b.ensureUser(ctx, msg.From)
		if err != nil {
			return err
		}
		date := b.viewedDate(msg.From.ID)
		if err := b.activitySvc.DeleteActivity(ctx, user, date, req.activityID); err != nil {
			return b.sendTextWithRemove(msg.Chat.ID, fmt.Sprintf("Ошибка: %s", escape(err.Error())))
		}
		log.Printf("[info] activity deleted id=%s user=%d", req.activityID, user.ID)
		if err := b.sendTextWithRemove(msg.Chat.ID, fmt.Sprintf("🗑 Запись «%s» удалена.", escape(req.name))); err != nil {
			return err
		}
		return b.sendDayView(ctx, msg.Chat.ID, user, date)
	case isCancelInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.sendMenuPlaceholder(msg.Chat.ID)
	default:
		return b.sendWithReplyMarkup(msg.Chat.ID, "Подтверди или отмени удаление записи.", confirmKeyboard())
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}

	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Printf("callback ack: %v", err)
	}

	data := cb.Data
	switch {
	case strings.HasPrefix(data, cbEditPrefix):
		return b.askNewDuration(ctx, cb.Message.Chat.ID, cb.From, strings.TrimPrefix(data, cbEditPrefix))
	case strings.HasPrefix(data, cbDeletePrefix):
		return b.askDeleteConfirmation(ctx, cb.Message.Chat.ID, cb.From, strings.TrimPrefix(data, cbDeletePrefix))
	default:
		return nil
	}
}

func (b *Bot) askNewDuration(ctx context.Context, chatID int64, from *tgbotapi.User, activityID string) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	date := b.viewedDate(from.ID)
	activity, err := b.findActivity(ctx, user, date, activityID)
	if err != nil {
		return err
	}
	if activity == nil {
		return b.sendText(chatID, "Запись не найдена — возможно, она уже удалена.")
	}

	activities, err := b.activitySvc.ListDay(ctx, user, date)
	if err != nil {
		return err
	}
	free := ledger.RemainingMinutes(activities) + activity.Duration

	b.setConversation(from.ID, &conversationState{stage: stageEditDuration, editID: activityID})
	return b.sendWithReplyMarkup(chatID,
		fmt.Sprintf("✏️ «%s»: сейчас %d мин. Введи новую длительность (доступно до %d мин).",
			escape(activity.Name), activity.Duration, free),
		cancelKeyboard())
}

func (b *Bot) askDeleteConfirmation(ctx context.Context, chatID int64, from *tgbotapi.User, activityID string) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	activity, err := b.findActivity(ctx, user, b.viewedDate(from.ID), activityID)
	if err != nil {
		return err
	}
	if activity == nil {
		return b.sendText(chatID, "Запись не найдена — возможно, она уже удалена.")
	}

	b.setConfirmation(from.ID, confirmationRequest{activityID: activityID, name: activity.Name})
	return b.sendWithReplyMarkup(chatID, fmt.Sprintf("Удалить запись «%s» (%d мин)?", escape(activity.Name), activity.Duration), confirmKeyboard())
}

// SendDailyReports pushes today's report to every known user with at
// least one entry for the day.
func (b *Bot) SendDailyReports(ctx context.Context) error {
	users, err := b.userRepo.ListAll(ctx)
	if err != nil {
		return err
	}
	date := today()
	for _, user := range users {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		activities, err := b.activitySvc.ListDay(ctx, &user, date)
		if err != nil {
			log.Printf("list day for user %d: %v", user.TelegramID, err)
			continue
		}
		if len(activities) == 0 {
			continue
		}
		text, err := b.summarySvc.DailyReport(ctx, &user, date)
		if err != nil {
			log.Printf("build report for user %d: %v", user.TelegramID, err)
			continue
		}
		if err := b.sendText(user.TelegramID, text); err != nil {
			log.Printf("send report to %d: %v", user.TelegramID, err)
		}
	}
	return nil
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	switch text {
	case strings.ToLower(menuLabelLog):
		return true, b.startLogConversation(ctx, msg)
	case strings.ToLower(menuLabelDay):
		return true, b.handleDay(ctx, msg)
	case strings.ToLower(menuLabelInsights):
		return true, b.handleInsights(ctx, msg)
	case strings.ToLower(menuLabelReport):
		return true, b.handleReport(ctx, msg)
	case strings.ToLower(menuLabelCategories):
		return true, b.handleCategories(ctx, msg)
	case strings.ToLower(menuLabelHelp):
		return true, b.handleHelp(msg)
	default:
		return false, nil
	}
}

func (b *Bot) replyDomainError(chatID int64, err error) error {
	var budgetErr *ledger.BudgetExceededError
	switch {
	case errors.As(err, &budgetErr):
		return b.sendWithReplyMarkup(chatID,
			fmt.Sprintf("⛔ В сутках только %d минут. Свободно осталось: <b>%d мин</b> — уменьши длительность.",
				ledger.MaxMinutesPerDay, budgetErr.Remaining),
			cancelKeyboard())
	case errors.Is(err, ledger.ErrInvalidInput):
		return b.sendWithReplyMarkup(chatID, fmt.Sprintf("Не получилось: %s", escape(err.Error())), cancelKeyboard())
	default:
		return b.sendTextWithRemove(chatID, fmt.Sprintf("Ошибка: %s", escape(err.Error())))
	}
}

func (b *Bot) findActivity(ctx context.Context, user *model.User, date, id string) (*model.Activity, error) {
	activities, err := b.activitySvc.ListDay(ctx, user, date)
	if err != nil {
		return nil, err
	}
	for i := range activities {
		if activities[i].ID == id {
			return &activities[i], nil
		}
	}
	return nil, nil
}

func (b *Bot) remainingMinutes(ctx context.Context, user *model.User, date string) (int, error) {
	activities, err := b.activitySvc.ListDay(ctx, user, date)
	if err != nil {
		return 0, err
	}
	return ledger.RemainingMinutes(activities), nil
}

func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*model.User, error) {
	return b.userRepo.UpsertFromTelegram(ctx, from.ID, from.FirstName, from.LastName, from.UserName)
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendTextWithRemove(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	if _, err := b.api.Send(msg); err != nil {
		return err
	}
	return b.sendMenuPlaceholder(chatID)
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendMenuPlaceholder(chatID int64) error {
	msg := tgbotapi.NewMessage(chatID, "🔹 Главное меню")
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) viewedDate(userID int64) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if date, ok := b.viewedDates[userID]; ok {
		return date
	}
	return today()
}

func (b *Bot) setViewedDate(userID int64, date string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.viewedDates[userID] = date
}

func (b *Bot) getConfirmation(userID int64) (confirmationRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	req, ok := b.confirmations[userID]
	return req, ok
}

func (b *Bot) setConfirmation(userID int64, req confirmationRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirmations[userID] = req
}

func (b *Bot) clearConfirmation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.confirmations, userID)
}

func (b *Bot) setConversation(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) hasConversation(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.conversations[userID]
	return ok
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}

func (b *Bot) categoryKeyboard(ctx context.Context, user *model.User) (tgbotapi.ReplyKeyboardMarkup, error) {
	catalogue, err := b.categorySvc.Catalogue(ctx, user)
	if err != nil {
		return tgbotapi.ReplyKeyboardMarkup{}, err
	}

	var rows [][]tgbotapi.KeyboardButton
	var row []tgbotapi.KeyboardButton
	for _, cat := range catalogue {
		row = append(row, tgbotapi.NewKeyboardButton(cat.Name))
		if len(row) == 2 {
			rows = append(rows, tgbotapi.NewKeyboardButtonRow(row...))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(row...))
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancelDialog)))

	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb, nil
}

func iconKeyboard() tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	var row []tgbotapi.KeyboardButton
	for _, icon := range model.CategoryIcons {
		row = append(row, tgbotapi.NewKeyboardButton(icon))
		if len(row) == 4 {
			rows = append(rows, tgbotapi.NewKeyboardButtonRow(row...))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(row...))
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancelDialog)))

	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func confirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnConfirm),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelLog),
			tgbotapi.NewKeyboardButton(menuLabelDay),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelInsights),
			tgbotapi.NewKeyboardButton(menuLabelReport),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelCategories),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func isConfirmInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnConfirm) || value == "подтвердить" || value == "да"
}

func isCancelInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancel) || value == "отмена"
}

func isCancelDialogInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancelDialog) || value == "отменить ввод" || value == "отмена"
}

func isKnownIcon(text string) bool {
	for _, icon := range model.CategoryIcons {
		if icon == text {
			return true
		}
	}
	return false
}

func categoryEmoji(cat model.Category) string {
	if cat.IsCustom {
		return "🏷️"
	}
	switch cat.ID {
	case "work":
		return "💼"
	case "sleep":
		return "😴"
	case "exercise":
		return "💪"
	case "study":
		return "📚"
	case "entertainment":
		return "📺"
	case "personal":
		return "🧩"
	case "meals":
		return "🍽"
	case "commute":
		return "🚗"
	default:
		return "📁"
	}
}

func shortName(name string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(name, "\n", " "))
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func today() string {
	return time.Now().Format(dateLayout)
}

func escape(s string) string {
	return html.EscapeString(s)
}
