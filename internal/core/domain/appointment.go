package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/skillswap/session-service/internal/core/json_types"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusOngoing   AppointmentStatus = "ongoing"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCanceled  AppointmentStatus = "canceled"
)

// Appointment - встреча учителя и ученика на конкретную дату и время,
// опционально привязанная к неделе курса
type Appointment struct {
	ID          uuid.UUID            `json:"id"`
	Teacher     uuid.UUID            `json:"teacher"`
	Student     uuid.UUID            `json:"student"`
	CourseID    *uuid.UUID           `json:"courseId,omitempty"`
	Date        json_types.Date      `json:"date"`
	Time        json_types.ClockTime `json:"time"`
	Title       string               `json:"title,omitempty"`
	Description string               `json:"description,omitempty"`
	Week        int                  `json:"week,omitempty"`
	Status      AppointmentStatus    `json:"status"`
}

// StartAt собирает дату и время начала в один момент.
// false - если дата или время не распарсились, такая запись
// исключается из выборок, а не роняет обработку.
func (a Appointment) StartAt() (time.Time, bool) {
	if a.Date.Date.IsZero() || a.Time.IsZero() {
		return time.Time{}, false
	}
	d := a.Date.Date
	return time.Date(
		d.Year(), d.Month(), d.Day(),
		a.Time.Time.Hour(), a.Time.Time.Minute(), 0, 0,
		d.Location(),
	), true
}

// IsParticipant - является ли пользователь стороной встречи
func (a Appointment) IsParticipant(userID uuid.UUID) bool {
	return a.Teacher == userID || a.Student == userID
}

// PeerOf возвращает вторую сторону встречи
func (a Appointment) PeerOf(userID uuid.UUID) uuid.UUID {
	if a.Teacher == userID {
		return a.Student
	}
	return a.Teacher
}
