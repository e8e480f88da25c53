package keyboard

import (
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"

	"github.com/Freeeeeet/slot_swapper/internal/controller/callbacks/callbacktypes"
)

// Builder упрощает создание inline клавиатур
type Builder struct {
	rows [][]models.InlineKeyboardButton
}

// NewBuilder создаёт новый builder клавиатуры
func NewBuilder() *Builder {
	return &Builder{
		rows: make([][]models.InlineKeyboardButton, 0),
	}
}

// Row добавляет новый ряд кнопок
func (b *Builder) Row(buttons ...models.InlineKeyboardButton) *Builder {
	if len(buttons) > 0 {
		b.rows = append(b.rows, buttons)
	}
	return b
}

// Button создаёт кнопку
func Button(text, callbackData string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{
		Text:         text,
		CallbackData: callbackData,
	}
}

// Build создаёт финальную клавиатуру
func (b *Builder) Build() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: b.rows,
	}
}

// SwapDecision кнопки принять/отклонить для входящей заявки
func SwapDecision(swapID uuid.UUID) *models.InlineKeyboardMarkup {
	return NewBuilder().
		Row(
			Button("✅ Принять", callbacktypes.WithID(callbacktypes.AcceptSwap, swapID)),
			Button("❌ Отклонить", callbacktypes.WithID(callbacktypes.RejectSwap, swapID)),
		).
		Build()
}

// Refresh одна кнопка обновления списка входящих заявок
func Refresh() *models.InlineKeyboardMarkup {
	return NewBuilder().
		Row(Button("🔄 Обновить", callbacktypes.RefreshPending)).
		Build()
}
