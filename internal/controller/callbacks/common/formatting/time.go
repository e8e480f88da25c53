package formatting

import (
	"fmt"
	"time"
)

// Время в боте показывается в UTC: часовой пояс пользователя не хранится
const displayZone = "UTC"

// FormatDateTime форматирует дату и время
func FormatDateTime(t time.Time) string {
	return t.UTC().Format("02.01.2006 15:04")
}

// FormatDate форматирует только дату
func FormatDate(t time.Time) string {
	return t.UTC().Format("02.01.2006")
}

// FormatTime форматирует только время
func FormatTime(t time.Time) string {
	return t.UTC().Format("15:04")
}

// FormatTimeRange форматирует интервал слота.
// Если слот укладывается в один день, дата не повторяется.
func FormatTimeRange(start, end time.Time) string {
	start, end = start.UTC(), end.UTC()
	if start.YearDay() == end.YearDay() && start.Year() == end.Year() {
		return fmt.Sprintf("%s %s-%s %s", FormatDate(start), FormatTime(start), FormatTime(end), displayZone)
	}
	return fmt.Sprintf("%s - %s %s", FormatDateTime(start), FormatDateTime(end), displayZone)
}

// FormatDuration форматирует длительность в минутах
func FormatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d мин", minutes)
	}
	hours := minutes / 60
	mins := minutes % 60
	if mins == 0 {
		return fmt.Sprintf("%d ч", hours)
	}
	return fmt.Sprintf("%d ч %d мин", hours, mins)
}
