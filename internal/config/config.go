package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

type Environment string

const (
	EnvLocal      Environment = "local"
	EnvDev        Environment = "dev"
	EnvStage      Environment = "stage"
	EnvProduction Environment = "production"
)

// TimeZone - таймзона приложения, все "настенные" даты и времена считаются в ней.
// Отдельного поля таймзоны в доступности пользователя нет, это осознанное допущение.
var TimeZone *time.Location = time.UTC

type Config struct {
	App struct {
		Version  string      `env:"APP_VERSION" envDefault:"local"`
		Env      Environment `env:"APP_ENV" envDefault:"local"`
		Timezone string      `env:"APP_TIMEZONE" envDefault:"Europe/Moscow"`
	}

	HTTP struct {
		Port string `env:"HTTP_SERVER_PORT" envDefault:"8080"`
		Host string `env:"HTTP_SERVER_HOST" envDefault:"localhost"`
	}

	// Backend - REST-бэкенд платформы (записи, пользователи, курсы, кредиты)
	Backend struct {
		URL      string `env:"BACKEND_URL"`
		Username string `env:"BACKEND_USERNAME"`
		Password string `env:"BACKEND_PASSWORD"`
	}

	// Signal - брокер сигналинга для звонков и инвалидации кэша
	Signal struct {
		Enabled  bool   `env:"SIGNAL_ENABLED"`
		AmqpUri  string `env:"SIGNAL_AMQP_URI"`
		Exchange string `env:"SIGNAL_EXCHANGE" envDefault:"skillswap.calls"`

		QueueConfig struct {
			AvailabilityQueueName string `env:"SIGNAL_AVAILABILITY_QUEUE" envDefault:"session-svc.availability"`
			AppointmentQueueName  string `env:"SIGNAL_APPOINTMENT_QUEUE" envDefault:"session-svc.appointment"`
		}
	}

	Cache struct {
		Enabled   bool `env:"CACHE_ENABLED"`
		SlotsSize int  `env:"CACHE_SLOTS_SIZE" envDefault:"1000"`
	}

	Session struct {
		// Окно входа в звонок от начала записи, минуты
		JoinWindowMinutes int `env:"SESSION_JOIN_WINDOW_MINUTES" envDefault:"60"`
		// Период пересчета обратного отсчета, секунды
		CountdownTickSeconds int `env:"SESSION_COUNTDOWN_TICK_SECONDS" envDefault:"1"`
	}

	// Slots - шаг сетки слотов для двух сценариев бронирования.
	// Разные шаги у переноса и у записи на курс - намеренно, не унифицируем.
	Slots struct {
		BookingStepMinutes    int `env:"SLOT_STEP_BOOKING_MINUTES" envDefault:"1"`
		RescheduleStepMinutes int `env:"SLOT_STEP_RESCHEDULE_MINUTES" envDefault:"30"`
	}
}

func NewConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Приведение окружения к нижнему регистру для унификации
	cfg.App.Env = Environment(strings.ToLower(string(cfg.App.Env)))

	// Резолвим таймзону один раз при загрузке
	loc, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		loc = time.UTC
	}
	TimeZone = loc

	// Без брокера не работают ни сигналинг, ни инвалидация кэша
	if !cfg.Signal.Enabled {
		cfg.Cache.Enabled = false
	}

	return cfg, nil
}

func (c *Config) IsLocal() bool {
	return c.App.Env == EnvLocal
}

func (c *Config) IsNotLocal() bool {
	return c.App.Env == EnvDev || c.App.Env == EnvStage || c.App.Env == EnvProduction
}

func (c *Config) JoinWindow() time.Duration {
	return time.Duration(c.Session.JoinWindowMinutes) * time.Minute
}

func (c *Config) BookingStep() time.Duration {
	return time.Duration(c.Slots.BookingStepMinutes) * time.Minute
}

func (c *Config) RescheduleStep() time.Duration {
	return time.Duration(c.Slots.RescheduleStepMinutes) * time.Minute
}
