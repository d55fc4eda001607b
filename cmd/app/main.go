package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/skillswap/session-service/internal/adapters/in/http"
	"github.com/skillswap/session-service/internal/adapters/in/rabbitmq"
	"github.com/skillswap/session-service/internal/adapters/out/backend"
	"github.com/skillswap/session-service/internal/adapters/out/cache"
	"github.com/skillswap/session-service/internal/adapters/out/logger"
	"github.com/skillswap/session-service/internal/adapters/out/peersignal"
	"github.com/skillswap/session-service/internal/config"
	"github.com/skillswap/session-service/internal/core/ports/out"
	"github.com/skillswap/session-service/internal/core/services/availability_service"
	"github.com/skillswap/session-service/internal/core/services/session_service"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализация логгера с таймзоной
	mainLogger, err := logger.NewConsoleLogger(cfg.App.Timezone)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	log := mainLogger.WithModule("Main")

	log.Info("app.starting", out.LogFields{
		"version":       cfg.App.Version,
		"env":           cfg.App.Env,
		"timezone":      cfg.App.Timezone,
		"signalEnabled": cfg.Signal.Enabled,
		"cacheEnabled":  cfg.Cache.Enabled,
	})

	// Настройка Gin в зависимости от окружения
	if cfg.IsNotLocal() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Инициализация адаптеров
	backendAdapter := backend.NewBackendAdapter(cfg, mainLogger.WithModule("BackendAdapter"))

	cacheAdapter, err := cache.NewSlotsCacheAdapter(cfg, mainLogger)
	if err != nil {
		log.Error("app.cache.init_failed", out.LogFields{
			"error": err.Error(),
		})
		os.Exit(1)
	}

	transportFactory := peersignal.NewSignalTransportFactory(cfg, mainLogger)

	// Инициализация сервисов
	availabilityService := availability_service.NewAvailabilityService(
		backendAdapter,
		cacheAdapter,
		cfg,
		mainLogger,
	)
	sessionRegistry := session_service.NewSessionRegistry(
		backendAdapter,
		backendAdapter,
		transportFactory,
		cfg,
		mainLogger,
	)

	// Настройка HTTP сервера
	router := gin.Default()
	http.NewSchedulingController(availabilityService, cfg).RegisterRoutes(router)
	http.NewSessionController(sessionRegistry, cfg).RegisterRoutes(router)

	// Слушатель изменений бэкенда только если брокер включен
	if cfg.Signal.Enabled {
		listener, err := rabbitmq.NewChangeListener(
			cacheAdapter,
			sessionRegistry,
			cfg,
			mainLogger.WithModule("ChangeListener"),
		)
		if err != nil {
			log.Error("app.rabbitmq.init_failed", out.LogFields{
				"error": err.Error(),
			})
			os.Exit(1)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		if err := listener.Start(ctx); err != nil {
			log.Error("app.rabbitmq.start_failed", out.LogFields{
				"error": err.Error(),
			})
			os.Exit(1)
		}

		defer func() {
			if err := listener.Stop(); err != nil {
				log.Error("app.rabbitmq.stop_failed", out.LogFields{
					"error": err.Error(),
				})
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("app.http.starting", out.LogFields{
			"host": cfg.HTTP.Host,
			"port": cfg.HTTP.Port,
		})

		if err := router.Run(cfg.HTTP.Host + ":" + cfg.HTTP.Port); err != nil {
			log.Error("app.http.failed", out.LogFields{
				"error": err.Error(),
			})
			sigChan <- syscall.SIGTERM
		}
	}()

	sig := <-sigChan
	log.Info("app.shutdown.initiated", out.LogFields{
		"signal": sig.String(),
	})

	// Дополнительное логирование для разработки
	if cfg.IsLocal() {
		log.Debug("app.config.debug", out.LogFields{
			"config": map[string]interface{}{
				"http": map[string]string{
					"host": cfg.HTTP.Host,
					"port": cfg.HTTP.Port,
				},
				"backend": map[string]string{
					"url":      cfg.Backend.URL,
					"username": cfg.Backend.Username,
				},
				"signal": map[string]interface{}{
					"enabled":  cfg.Signal.Enabled,
					"exchange": cfg.Signal.Exchange,
				},
				"cache": map[string]interface{}{
					"enabled":    cfg.Cache.Enabled,
					"slots_size": cfg.Cache.SlotsSize,
				},
			},
		})
	}
}
