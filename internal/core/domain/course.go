package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/skillswap/session-service/internal/core/json_types"
	"github.com/skillswap/session-service/internal/utils"
)

// CourseWindow - период действия курса: дата старта и длительность в неделях
type CourseWindow struct {
	ID            uuid.UUID       `json:"id"`
	Teacher       uuid.UUID       `json:"teacher"`
	Student       uuid.UUID       `json:"student"`
	StartDate     json_types.Date `json:"startDate"`
	DurationWeeks int             `json:"duration"`
}

// EndDate - конец курса, включительно до конца дня
func (c CourseWindow) EndDate() time.Time {
	return utils.EndCurrentDay(c.StartDate.Date.AddDate(0, 0, c.DurationWeeks*7))
}
