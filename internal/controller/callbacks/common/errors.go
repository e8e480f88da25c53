package common

import (
	"errors"

	"github.com/Freeeeeet/slot_swapper/internal/apperr"
)

// Общие ошибки для обработчиков
var (
	ErrNoMessage     = errors.New("no message in callback")
	ErrInvalidFormat = errors.New("invalid callback format")
)

// ErrorMessage возвращает пользовательское сообщение для ошибки
func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrNoMessage):
		return "❌ Ошибка обработки сообщения"
	case errors.Is(err, ErrInvalidFormat):
		return "❌ Неверный формат данных"
	}

	switch apperr.KindOf(err) {
	case apperr.KindUnauthenticated:
		return "❌ Аккаунт не привязан. Получите код в приложении и отправьте /link КОД"
	case apperr.KindNotFound:
		return "❌ Заявка или слот не найдены"
	case apperr.KindForbidden:
		return "❌ Решение по этой заявке принимает только получатель"
	case apperr.KindInvalidState:
		return "⚠️ Заявка уже обработана"
	case apperr.KindConflict:
		return "⚠️ Заявку или слоты уже изменил другой запрос. Обновите список"
	case apperr.KindBusy:
		return "⏳ Слоты сейчас заняты другой операцией. Попробуйте ещё раз"
	case apperr.KindValidation:
		return "❌ " + apperr.PublicMessage(err)
	default:
		return "❌ Произошла ошибка"
	}
}
