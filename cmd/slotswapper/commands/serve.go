package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/go-telegram/bot"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Freeeeeet/slot_swapper/internal/app"
	"github.com/Freeeeeet/slot_swapper/internal/auth"
	"github.com/Freeeeeet/slot_swapper/internal/config"
	"github.com/Freeeeeet/slot_swapper/internal/controller"
	"github.com/Freeeeeet/slot_swapper/internal/httpapi"
	"github.com/Freeeeeet/slot_swapper/internal/httpapi/handlers"
	"github.com/Freeeeeet/slot_swapper/internal/httpapi/middleware"
	"github.com/Freeeeeet/slot_swapper/internal/linkcode"
	"github.com/Freeeeeet/slot_swapper/internal/repository"
	"github.com/Freeeeeet/slot_swapper/internal/repository/base"
	"github.com/Freeeeeet/slot_swapper/internal/repository/memory"
	"github.com/Freeeeeet/slot_swapper/internal/service"
)

// stores набор хранилищ под выбранный STORE
type stores struct {
	tx     service.TxManager
	users  service.UserStore
	slots  service.SlotStore
	swaps  service.SwapRegistry
	pinger handlers.Pinger
	close  func()
}

func serveCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the Telegram bot and background jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply pending migrations before start (postgres only)")
	return cmd
}

func serve(ctx context.Context, migrate bool) error {
	logger.Info("Starting slot swapper",
		zap.String("environment", cfg.Environment),
		zap.String("store", cfg.Store),
		zap.Bool("telegram", cfg.TelegramToken != ""),
	)

	shutdownTracing, err := app.InitTracing(ctx, cfg.OTelEnabled, cfg.Environment, os.Stdout, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("Failed to flush traces", zap.Error(err))
		}
	}()

	st, err := openStores(ctx, migrate)
	if err != nil {
		return err
	}
	defer st.close()

	codes, closeCodes, err := openLinkCodes(ctx)
	if err != nil {
		return err
	}
	defer closeCodes()

	// Сервисы
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL)
	userService := service.NewUserService(st.users, tokens, linkcode.NewIssuer(codes, cfg.LinkCodeTTL), logger)
	slotService := service.NewSlotService(st.tx, st.slots, logger)
	swapService := service.NewSwapService(st.tx, st.users, st.slots, st.swaps, logger)

	// HTTP
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	limiter := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst)
	routerCfg := httpapi.RouterConfig{
		AuthHandler:    handlers.NewAuthHandler(userService),
		AuthMiddleware: middleware.NewAuthMiddleware(tokens),
		SlotHandler:    handlers.NewSlotHandler(slotService),
		SwapHandler:    handlers.NewSwapHandler(swapService),
		HealthHandler:  handlers.NewHealthHandler(st.pinger),
		RateLimiter:    limiter,
		Logger:         logger,
		CORSOrigins:    cfg.CORSOrigins,
	}
	if cfg.OTelEnabled {
		routerCfg.TracingService = app.ServiceName
	}
	server := httpapi.NewServer(cfg.HTTPAddr, httpapi.NewRouter(routerCfg))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		return server.Run(gctx)
	})
	g.Go(func() error {
		limiter.Cleanup(gctx)
		return nil
	})
	g.Go(func() error {
		return app.NewScheduler(swapService, cfg.ReconcileEvery, logger).Run(gctx)
	})

	if cfg.TelegramToken != "" {
		botController, err := newBotController(userService, slotService, swapService, st.users)
		if err != nil {
			return err
		}
		if err := botController.RegisterHandlers(ctx); err != nil {
			// Меню команд не критично: бот работает и без него
			logger.Warn("Bot commands menu not set", zap.Error(err))
		}
		g.Go(func() error {
			return botController.Start(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Slot swapper stopped")
	return nil
}

func openStores(ctx context.Context, migrate bool) (*stores, error) {
	if cfg.Store == config.StoreMemory {
		logger.Warn("Using in-memory store: data is lost on restart")
		mem := memory.NewStore(cfg.LockTimeout)
		return &stores{
			tx:    mem,
			users: mem.Users(),
			slots: mem.Slots(),
			swaps: mem.Swaps(),
			close: func() {},
		}, nil
	}

	pool, err := openPool(ctx)
	if err != nil {
		return nil, err
	}

	if migrate {
		migrator, err := app.NewMigrator(pool, logger)
		if err != nil {
			pool.Close()
			return nil, err
		}
		err = migrator.Run(ctx)
		migrator.Close()
		if err != nil {
			pool.Close()
			return nil, err
		}
	}

	return &stores{
		tx:     base.NewTxManager(pool, cfg.LockTimeout),
		users:  repository.NewUserRepository(pool),
		slots:  repository.NewSlotRepository(pool),
		swaps:  repository.NewSwapRepository(pool),
		pinger: pool,
		close:  pool.Close,
	}, nil
}

// openLinkCodes хранилище кодов привязки Telegram: Redis если задан REDIS_ADDR, иначе память
func openLinkCodes(ctx context.Context) (linkcode.Store, func(), error) {
	if cfg.RedisAddr == "" {
		return linkcode.NewMemoryStore(), func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}
	logger.Info("✅ Connected to redis", zap.String("addr", cfg.RedisAddr))

	return linkcode.NewRedisStore(rdb, ""), func() { _ = rdb.Close() }, nil
}

func newBotController(
	userService *service.UserService,
	slotService *service.SlotService,
	swapService *service.SwapService,
	users service.UserStore,
) (*controller.BotController, error) {
	b, err := bot.New(cfg.TelegramToken,
		bot.WithErrorsHandler(func(err error) {
			logger.Error("Telegram bot error", zap.Error(err))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	return controller.NewBotController(
		b,
		userService,
		slotService,
		swapService,
		service.NewTelegramIdentity(users),
		logger,
	), nil
}
