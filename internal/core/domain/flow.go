package domain

// BookingFlow - сценарий выбора слота. У записи на курс и у переноса
// встречи шаг сетки отличается, это две именованные конфигурации.
type BookingFlow string

const (
	BookingFlowCourse     BookingFlow = "booking"
	BookingFlowReschedule BookingFlow = "reschedule"
)
