package formatting

// pluralize выбирает форму слова для числа: одна, две-четыре, пять и больше
func pluralize(count int, one, few, many string) string {
	if count%10 == 1 && count%100 != 11 {
		return one
	}
	if count%10 >= 2 && count%10 <= 4 && (count%100 < 10 || count%100 >= 20) {
		return few
	}
	return many
}

// PluralizeSlots возвращает правильное склонение слова "слот"
func PluralizeSlots(count int) string {
	return pluralize(count, "слот", "слота", "слотов")
}

// PluralizeRequests возвращает правильное склонение слова "заявка"
func PluralizeRequests(count int) string {
	return pluralize(count, "заявка", "заявки", "заявок")
}
