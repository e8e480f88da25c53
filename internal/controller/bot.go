package controller

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/slot_swapper/internal/controller/callbacks"
	"github.com/Freeeeeet/slot_swapper/internal/controller/handlers"
	"github.com/Freeeeeet/slot_swapper/internal/controller/state"
	"github.com/Freeeeeet/slot_swapper/internal/service"
)

type BotController struct {
	bot             *bot.Bot
	handlers        *handlers.Handlers
	callbackHandler *callbacks.Handler
	logger          *zap.Logger
}

func NewBotController(
	botInstance *bot.Bot,
	userService *service.UserService,
	slotService *service.SlotService,
	swapService *service.SwapService,
	identity service.IdentityProvider,
	logger *zap.Logger,
) *BotController {
	// Создаём менеджер состояний
	stateManager := state.NewManager(state.DefaultTTL)

	// Создаём обработчики команд
	cmdHandlers := handlers.NewHandlers(
		userService,
		slotService,
		swapService,
		identity,
		stateManager,
		logger,
	)

	// Создаём callback handler с зависимостями
	callbackHandler := callbacks.NewHandler(
		userService,
		swapService,
		identity,
		logger,
		cmdHandlers.ShowPending,
	)

	return &BotController{
		bot:             botInstance,
		handlers:        cmdHandlers,
		callbackHandler: callbackHandler,
		logger:          logger,
	}
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	// /start и /link принимают код привязки аргументом
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, c.handlers.HandleStart)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/link", bot.MatchTypePrefix, c.handlers.HandleLink)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.handlers.HandleHelp)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/cancel", bot.MatchTypeExact, c.handlers.HandleCancel)

	// Обмены и слоты
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/pending", bot.MatchTypeExact, c.handlers.HandlePending)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/outgoing", bot.MatchTypeExact, c.handlers.HandleOutgoing)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/myslots", bot.MatchTypeExact, c.handlers.HandleMySlots)

	// Обработчик текстовых сообщений (для диалогов с состояниями)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "", bot.MatchTypePrefix, c.handlers.HandleTextMessage)

	// Обработчик нажатий на inline кнопки
	c.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, c.callbackHandler.HandleCallbackQuery)

	// Устанавливаем меню команд
	return c.setCommands(ctx)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Начать работу с ботом"},
		{Command: "pending", Description: "📬 Входящие заявки на обмен"},
		{Command: "outgoing", Description: "📤 Мои заявки на обмен"},
		{Command: "myslots", Description: "🗓 Мои слоты"},
		{Command: "link", Description: "🔑 Привязать аккаунт"},
		{Command: "help", Description: "❓ Справка по командам"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})

	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("✅ Bot commands menu set")
	return nil
}

// Start запускает long polling и блокируется до отмены ctx
func (c *BotController) Start(ctx context.Context) error {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
	c.logger.Info("Bot stopped")
	return nil
}
