package main

import (
	"log/slog"
	"time"

	"github.com/dchirkin/provcore/internal/config"
)

type botConfig struct {
	Port            uint16        `env:"APP_PORT" envDefault:"8080"`
	LogLevel        slog.Level    `env:"APP_LOG_LEVEL" envDefault:"INFO"`
	ShutdownTimeout time.Duration `env:"APP_SHUTDOWN_TIMEOUT" envDefault:"30s"`

	Postgres  config.PostgresConfig
	Scheduler config.SchedulerConfig
	Orders    config.OrdersConfig
	Gateway   config.GatewayConfig
	Telegram  config.TelegramConfig
	Provision config.ProvisionConfig
}
