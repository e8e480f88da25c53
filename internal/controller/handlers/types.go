package handlers

import (
	"go.uber.org/zap"

	"github.com/Freeeeeet/slot_swapper/internal/controller/state"
	"github.com/Freeeeeet/slot_swapper/internal/service"
)

// Handlers содержит все зависимости для обработки команд
type Handlers struct {
	userService  *service.UserService
	slotService  *service.SlotService
	swapService  *service.SwapService
	identity     service.IdentityProvider
	stateManager *state.Manager
	logger       *zap.Logger
}

// NewHandlers создаёт новый обработчик команд
func NewHandlers(
	userService *service.UserService,
	slotService *service.SlotService,
	swapService *service.SwapService,
	identity service.IdentityProvider,
	stateManager *state.Manager,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		userService:  userService,
		slotService:  slotService,
		swapService:  swapService,
		identity:     identity,
		stateManager: stateManager,
		logger:       logger,
	}
}
