package availability_service

import (
	"time"

	"github.com/skillswap/session-service/internal/core/domain"
	"github.com/skillswap/session-service/internal/core/json_types"
	"github.com/skillswap/session-service/internal/utils"
)

// DateSelectable - можно ли выбрать дату для бронирования.
// Прошедшие даты и даты за концом курса недоступны, дальше решает
// недельное расписание владельца.
func DateSelectable(now, date time.Time, availability domain.WeeklyAvailability, course *domain.CourseWindow) bool {
	// Сравнение только по дате, время отбрасываем
	if utils.StartCurrentDay(date).Before(utils.StartCurrentDay(now)) {
		return false
	}

	// Конец курса включительно до конца дня
	if course != nil && date.After(course.EndDate()) {
		return false
	}

	_, available := availability.WindowFor(date)
	return available
}

// SlotsForDate генерирует слоты фиксированного шага в окне доступности даты,
// от start до end, не включая end. Функция чистая: одинаковые входы дают
// одинаковый результат.
func SlotsForDate(now, date time.Time, availability domain.WeeklyAvailability, step time.Duration) []json_types.ClockTime {
	slots := make([]json_types.ClockTime, 0)

	if step <= 0 {
		return slots
	}

	window, available := availability.WindowFor(date)
	if !available {
		return slots
	}

	day := utils.StartCurrentDay(date)
	start := day.Add(time.Duration(window.Start.Minutes()) * time.Minute)
	end := day.Add(time.Duration(window.End.Minutes()) * time.Minute)

	// Для сегодняшней даты отсекаем слоты не позже текущего времени,
	// усеченного до шага сетки
	var cutoff time.Time
	if utils.SameDay(date, now) {
		cutoff = day.Add(now.Sub(day).Truncate(step))
	}

	for t := start; t.Before(end); t = t.Add(step) {
		if !cutoff.IsZero() && !t.After(cutoff) {
			continue
		}
		slots = append(slots, json_types.NewClock(t.Hour(), t.Minute()))
	}

	return slots
}
