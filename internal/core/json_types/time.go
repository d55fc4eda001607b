package json_types

import (
	"encoding/json"
	"fmt"
	"time"
)

// ClockTime - время вида "HH:MM" без даты и таймзоны
type ClockTime struct {
	Time time.Time
}

func (t *ClockTime) UnmarshalJSON(data []byte) error {
	if string(data) == "null" || len(data) < 2 {
		return nil
	}

	// Убираем кавычки вокруг строки
	str := string(data[1 : len(data)-1])
	parsed, err := ParseClock(str)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.Format("15:04"))
}

func (t ClockTime) IsZero() bool {
	return t.Time.IsZero()
}

// Minutes возвращает время как число минут от полуночи
func (t ClockTime) Minutes() int {
	return t.Time.Hour()*60 + t.Time.Minute()
}

func (t ClockTime) Before(other ClockTime) bool {
	return t.Minutes() < other.Minutes()
}

// NewClock собирает ClockTime из часов и минут
func NewClock(hour, minute int) ClockTime {
	return ClockTime{Time: time.Date(0, 1, 1, hour, minute, 0, 0, time.UTC)}
}

// ParseClock парсит строку "HH:MM", допускает хвост с секундами
func ParseClock(str string) (ClockTime, error) {
	if len(str) < 5 {
		return ClockTime{}, fmt.Errorf("invalid time string: %s", str)
	}
	parsed, err := time.Parse("15:04", str[:5])
	if err != nil {
		return ClockTime{}, fmt.Errorf("failed to parse time: %v", err)
	}
	return ClockTime{Time: parsed}, nil
}
