package formatting

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Freeeeeet/slot_swapper/internal/model"
)

// SlotLine строки со слотом: статус, название, время
func SlotLine(slot *model.Slot) string {
	if slot == nil {
		return "❓ слот удалён"
	}
	display := GetSlotStatusDisplay(slot.Status)
	return fmt.Sprintf("%s %s\n    🕐 %s (%s)\n    %s",
		display.Emoji,
		slot.Title,
		FormatTimeRange(slot.StartTime, slot.EndTime),
		FormatDuration(slot.DurationMinutes()),
		display.Text,
	)
}

// SwapCard текст карточки заявки. names - имена участников по id,
// для отсутствующего имени пишется "неизвестно".
func SwapCard(d *model.SwapDetails, names map[uuid.UUID]string) string {
	name := func(id uuid.UUID) string {
		if n, ok := names[id]; ok && n != "" {
			return n
		}
		return "неизвестно"
	}

	status := GetSwapStatusDisplay(d.Swap.Status)

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s Заявка на обмен: %s\n\n", status.Emoji, status.Text)
	fmt.Fprintf(&sb, "👤 От: %s\n", name(d.Swap.RequesterID))
	fmt.Fprintf(&sb, "📤 Отдаёт:\n%s\n\n", SlotLine(d.RequesterSlot))
	fmt.Fprintf(&sb, "👤 Кому: %s\n", name(d.Swap.RequesteeID))
	fmt.Fprintf(&sb, "📥 Просит:\n%s", SlotLine(d.RequesteeSlot))
	if d.Swap.Message != nil {
		fmt.Fprintf(&sb, "\n\n💬 %s", *d.Swap.Message)
	}
	fmt.Fprintf(&sb, "\n\n📅 Создана: %s", FormatDateTime(d.Swap.CreatedAt))
	return sb.String()
}
