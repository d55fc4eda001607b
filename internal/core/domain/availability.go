package domain

import (
	"time"

	"github.com/skillswap/session-service/internal/core/json_types"
)

type Weekday string

const (
	WeekdayMonday    Weekday = "monday"
	WeekdayTuesday   Weekday = "tuesday"
	WeekdayWednesday Weekday = "wednesday"
	WeekdayThursday  Weekday = "thursday"
	WeekdayFriday    Weekday = "friday"
	WeekdaySaturday  Weekday = "saturday"
	WeekdaySunday    Weekday = "sunday"
)

// WeekdayMap - соответствие дней недели стандартной библиотеки нашим
var WeekdayMap = map[time.Weekday]Weekday{
	time.Monday:    WeekdayMonday,
	time.Tuesday:   WeekdayTuesday,
	time.Wednesday: WeekdayWednesday,
	time.Thursday:  WeekdayThursday,
	time.Friday:    WeekdayFriday,
	time.Saturday:  WeekdaySaturday,
	time.Sunday:    WeekdaySunday,
}

// DayWindow - окно доступности на один день недели.
// Либо день выключен, либо задано окно start < end.
type DayWindow struct {
	Off   bool                 `json:"off,omitempty"`
	Start json_types.ClockTime `json:"start,omitempty"`
	End   json_types.ClockTime `json:"end,omitempty"`
}

// WeeklyAvailability - недельное расписание доступности пользователя.
// Времена в настенных часах таймзоны приложения, без смещения.
type WeeklyAvailability map[Weekday]DayWindow

// WindowFor возвращает окно на день недели даты.
// Отсутствующий день равнозначен выключенному.
func (a WeeklyAvailability) WindowFor(date time.Time) (DayWindow, bool) {
	window, exists := a[WeekdayMap[date.Weekday()]]
	if !exists || window.Off {
		return DayWindow{}, false
	}
	if window.Start.IsZero() || window.End.IsZero() || !window.Start.Before(window.End) {
		return DayWindow{}, false
	}
	return window, true
}
