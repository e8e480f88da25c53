package state

import "time"

// UserState представляет текущее состояние пользователя в диалоге
type UserState string

const (
	StateNone UserState = "" // Нет активного состояния

	// Ждём код привязки после /link без аргумента
	StateEnteringLinkCode UserState = "entering_link_code"
)

// DefaultTTL через сколько незавершённый диалог сбрасывается
const DefaultTTL = 10 * time.Minute

type entry struct {
	state     UserState
	expiresAt time.Time
}
