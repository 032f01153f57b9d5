// Package renewal вычисляет дату продления подписки по частоте списаний.
package renewal

import (
	"time"
)

// Frequency частота списаний.
type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

// offsets приблизительные периоды в днях, месяц и год не учитывают календарь.
var offsets = map[Frequency]int{
	Daily:   1,
	Weekly:  7,
	Monthly: 30,
	Yearly:  365,
}

// Frequencies возвращает допустимые значения в стабильном порядке.
func Frequencies() []Frequency {
	return []Frequency{Daily, Weekly, Monthly, Yearly}
}

// OffsetDays возвращает смещение в днях и false для неизвестной частоты.
func OffsetDays(f Frequency) (int, bool) {
	days, ok := offsets[f]
	return days, ok
}

// Next возвращает start плюс смещение частоты f.
func Next(start time.Time, f Frequency) (time.Time, bool) {
	days, ok := OffsetDays(f)
	if !ok {
		return time.Time{}, false
	}
	return start.AddDate(0, 0, days), true
}

// Due сообщает, наступила ли дата продления относительно now.
// Дата, равная now, считается наступившей.
func Due(renewalDate, now time.Time) bool {
	return !renewalDate.After(now)
}
