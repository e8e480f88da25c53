package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/slot_swapper/internal/apperr"
	"github.com/Freeeeeet/slot_swapper/internal/controller/state"
)

const helpText = "📚 Справка по командам:\n\n" +
	"/link КОД - Привязать Telegram к аккаунту\n" +
	"/pending - Входящие заявки на обмен\n" +
	"/outgoing - Мои заявки на обмен\n" +
	"/myslots - Мои слоты\n" +
	"/cancel - Отменить текущую операцию\n" +
	"/help - Показать эту справку\n\n" +
	"Слоты и новые заявки создаются в приложении, здесь можно принять или отклонить входящие заявки."

// HandleStart обрабатывает команду /start. "/start КОД" (deep link) сразу привязывает аккаунт.
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	if code := commandArgument(update.Message.Text); code != "" {
		h.linkAccount(ctx, b, update.Message, code)
		return
	}

	welcomeText := fmt.Sprintf(
		"👋 Привет, %s!\n\n"+
			"Это бот Slot Swapper: здесь приходят заявки на обмен слотами в календаре.\n\n"+
			"Чтобы начать, получите код привязки в приложении и отправьте /link КОД.\n\n"+
			"%s",
		update.Message.From.FirstName,
		helpText,
	)

	h.sendMessage(ctx, b, update.Message.Chat.ID, welcomeText)
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, helpText)
}

// HandleCancel обрабатывает команду /cancel - отмена текущего диалога
func (h *Handlers) HandleCancel(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	telegramID := update.Message.From.ID
	if h.stateManager.GetState(telegramID) == state.StateNone {
		h.sendMessage(ctx, b, update.Message.Chat.ID, "❌ Нет активных операций для отмены.")
		return
	}

	h.stateManager.ClearState(telegramID)
	h.sendMessage(ctx, b, update.Message.Chat.ID, "✅ Операция отменена.\n\nИспользуйте /help для просмотра доступных команд.")
}

// HandleLink обрабатывает /link КОД. Без кода бот ждёт его следующим сообщением.
func (h *Handlers) HandleLink(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	code := commandArgument(update.Message.Text)
	if code == "" {
		h.stateManager.SetState(update.Message.From.ID, state.StateEnteringLinkCode)
		h.sendMessage(ctx, b, update.Message.Chat.ID,
			"🔑 Отправьте код привязки из приложения.\n\nДля отмены: /cancel")
		return
	}

	h.linkAccount(ctx, b, update.Message, code)
}

// HandleTextMessage обрабатывает текстовые сообщения в зависимости от состояния пользователя
func (h *Handlers) HandleTextMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}

	// Игнорируем команды (они обрабатываются другими handlers)
	if strings.HasPrefix(update.Message.Text, "/") {
		return
	}

	switch h.stateManager.GetState(update.Message.From.ID) {
	case state.StateEnteringLinkCode:
		h.linkAccount(ctx, b, update.Message, strings.TrimSpace(update.Message.Text))
	default:
		h.sendMessage(ctx, b, update.Message.Chat.ID, "🤔 Не понимаю. Список команд: /help")
	}
}

// linkAccount погашает код и привязывает чат к аккаунту
func (h *Handlers) linkAccount(ctx context.Context, b *bot.Bot, msg *models.Message, code string) {
	telegramID := msg.From.ID

	user, err := h.userService.LinkTelegram(ctx, code, telegramID)
	if err != nil {
		switch apperr.KindOf(err) {
		case apperr.KindValidation:
			// Оставляем состояние: пользователь может прислать код ещё раз
			h.sendError(ctx, b, msg.Chat.ID, "❌ Код неверный или истёк. Получите новый код в приложении.")
		case apperr.KindConflict:
			h.stateManager.ClearState(telegramID)
			h.sendError(ctx, b, msg.Chat.ID, "❌ Этот Telegram уже привязан к другому аккаунту.")
		default:
			h.logger.Error("Failed to link telegram", zap.Int64("telegram_id", telegramID), zap.Error(err))
			h.sendError(ctx, b, msg.Chat.ID, "❌ Произошла ошибка. Попробуйте позже.")
		}
		return
	}

	h.stateManager.ClearState(telegramID)
	h.sendMessage(ctx, b, msg.Chat.ID, fmt.Sprintf(
		"✅ Telegram привязан к аккаунту %s.\n\nВходящие заявки: /pending", user.Name))
}

// commandArgument возвращает текст после команды: "/link ABC" -> "ABC"
func commandArgument(text string) string {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}
