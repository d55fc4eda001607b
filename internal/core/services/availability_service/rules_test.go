package availability_service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/skillswap/session-service/internal/core/domain"
	"github.com/skillswap/session-service/internal/core/json_types"
)

// 2024-01-01 - понедельник
func mondayAvailability() domain.WeeklyAvailability {
	return domain.WeeklyAvailability{
		domain.WeekdayMonday: {
			Start: json_types.NewClock(9, 0),
			End:   json_types.NewClock(11, 0),
		},
		domain.WeekdayTuesday: {Off: true},
	}
}

func TestDateSelectable_PastDate(t *testing.T) {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	date := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

	if DateSelectable(now, date, mondayAvailability(), nil) {
		t.Error("past date must not be selectable")
	}
}

func TestDateSelectable_TodayAllowed(t *testing.T) {
	// Сегодняшняя дата проходит проверку, даже если момент уже позже полуночи
	now := time.Date(2024, 1, 1, 18, 30, 0, 0, time.UTC)
	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	if !DateSelectable(now, date, mondayAvailability(), nil) {
		t.Error("today must be selectable when the weekday window is open")
	}
}

func TestDateSelectable_OffDay(t *testing.T) {
	now := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	date := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC) // вторник, off

	if DateSelectable(now, date, mondayAvailability(), nil) {
		t.Error("off day must not be selectable")
	}
}

func TestDateSelectable_MissingDay(t *testing.T) {
	now := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	date := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC) // среда, дня нет в расписании

	if DateSelectable(now, date, mondayAvailability(), nil) {
		t.Error("missing weekday must behave as off")
	}
}

func TestDateSelectable_BeyondCourseEnd(t *testing.T) {
	now := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	course := &domain.CourseWindow{
		ID:            uuid.New(),
		StartDate:     json_types.Date{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		DurationWeeks: 2,
	}

	// Последний день курса - 2024-01-15, он еще доступен
	lastDay := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	if !DateSelectable(now, lastDay, mondayAvailability(), course) {
		t.Error("course end date itself must be selectable")
	}

	beyond := time.Date(2024, 1, 22, 0, 0, 0, 0, time.UTC)
	if DateSelectable(now, beyond, mondayAvailability(), course) {
		t.Error("date beyond course end must not be selectable")
	}
}

func TestDateSelectable_InvalidWindow(t *testing.T) {
	now := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	date := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

	// start == end - окно пустое
	availability := domain.WeeklyAvailability{
		domain.WeekdayMonday: {
			Start: json_types.NewClock(9, 0),
			End:   json_types.NewClock(9, 0),
		},
	}

	if DateSelectable(now, date, availability, nil) {
		t.Error("window with start == end must not be selectable")
	}
}

func TestSlotsForDate_HalfHourGrid(t *testing.T) {
	now := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	date := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

	slots := SlotsForDate(now, date, mondayAvailability(), 30*time.Minute)

	expected := []string{"09:00", "09:30", "10:00", "10:30"}
	if len(slots) != len(expected) {
		t.Fatalf("expected %d slots, got %d", len(expected), len(slots))
	}
	for i, want := range expected {
		if got := slots[i].Time.Format("15:04"); got != want {
			t.Errorf("slot %d: expected %s, got %s", i, want, got)
		}
	}
}

func TestSlotsForDate_EndExclusive(t *testing.T) {
	now := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	date := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

	slots := SlotsForDate(now, date, mondayAvailability(), 60*time.Minute)

	// 09:00 и 10:00, 11:00 не включается
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}
	if last := slots[len(slots)-1].Time.Format("15:04"); last != "10:00" {
		t.Errorf("expected last slot 10:00, got %s", last)
	}
}

func TestSlotsForDate_TodayCutoff(t *testing.T) {
	// Сегодня понедельник, 09:45: слоты 09:00 и 09:30 уже прошли
	now := time.Date(2024, 1, 1, 9, 45, 0, 0, time.UTC)
	date := now

	slots := SlotsForDate(now, date, mondayAvailability(), 30*time.Minute)

	expected := []string{"10:00", "10:30"}
	if len(slots) != len(expected) {
		t.Fatalf("expected %d slots, got %d", len(expected), len(slots))
	}
	for i, want := range expected {
		if got := slots[i].Time.Format("15:04"); got != want {
			t.Errorf("slot %d: expected %s, got %s", i, want, got)
		}
	}
}

func TestSlotsForDate_TodayCutoffOnBoundary(t *testing.T) {
	// Ровно 09:30: слот 09:30 не позже усеченного текущего времени и отсекается
	now := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)

	slots := SlotsForDate(now, now, mondayAvailability(), 30*time.Minute)

	if len(slots) == 0 || slots[0].Time.Format("15:04") != "10:00" {
		t.Fatalf("expected first slot 10:00, got %v", slots)
	}
}

func TestSlotsForDate_OffDayEmpty(t *testing.T) {
	now := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	date := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	slots := SlotsForDate(now, date, mondayAvailability(), 30*time.Minute)

	if len(slots) != 0 {
		t.Errorf("expected empty slice for off day, got %d slots", len(slots))
	}
	if slots == nil {
		t.Error("expected empty slice, not nil")
	}
}

func TestSlotsForDate_NonPositiveStep(t *testing.T) {
	now := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	date := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

	if slots := SlotsForDate(now, date, mondayAvailability(), 0); len(slots) != 0 {
		t.Errorf("expected no slots for zero step, got %d", len(slots))
	}
}

func TestSlotsForDate_MinuteGrid(t *testing.T) {
	now := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	date := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

	slots := SlotsForDate(now, date, mondayAvailability(), time.Minute)

	// 09:00 .. 10:59 - 120 минутных слотов
	if len(slots) != 120 {
		t.Fatalf("expected 120 slots, got %d", len(slots))
	}
	if first := slots[0].Time.Format("15:04"); first != "09:00" {
		t.Errorf("expected first slot 09:00, got %s", first)
	}
	if last := slots[len(slots)-1].Time.Format("15:04"); last != "10:59" {
		t.Errorf("expected last slot 10:59, got %s", last)
	}
}
