package availability_service

import (
	"time"

	"github.com/skillswap/session-service/internal/core/domain"
	"github.com/skillswap/session-service/internal/utils"
)

// WeekForDate относит дату к номеру недели курса, [1, DurationWeeks].
// Дата ровно на границе в 7 дней уходит в следующую неделю: смещение
// на одну неделю здесь кладет контент не в тот бакет.
func WeekForDate(date time.Time, course domain.CourseWindow) int {
	start := utils.StartCurrentDay(course.StartDate.Date)
	day := utils.StartCurrentDay(date)

	days := int(day.Sub(start).Hours()/24 + 0.5)

	week := days/7 + 1
	if week < 1 {
		week = 1
	}
	if course.DurationWeeks >= 1 && week > course.DurationWeeks {
		week = course.DurationWeeks
	}

	return week
}
