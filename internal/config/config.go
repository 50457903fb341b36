package config

import "time"

type PostgresConfig struct {
	DSN             string        `env:"PG_DSN"`
	MaxOpenConns    int           `env:"PG_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"PG_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxIdleTime time.Duration `env:"PG_CONN_MAX_IDLE_TIME" envDefault:"5m"`
	ConnMaxLifetime time.Duration `env:"PG_CONN_MAX_LIFETIME" envDefault:"30m"`
	// OpTimeout bounds every single storage operation. A repo method that
	// cannot get its answer within this window fails with
	// pgutils.ErrStorageTimeout instead of blocking the caller.
	OpTimeout time.Duration `env:"PG_OP_TIMEOUT" envDefault:"30s"`
}

type SchedulerConfig struct {
	DepositCheckInterval time.Duration `env:"SCHED_DEPOSIT_CHECK_INTERVAL" envDefault:"2m"`
	DepositCheckDelay    time.Duration `env:"SCHED_DEPOSIT_CHECK_DELAY" envDefault:"30s"`
	ExpireInterval       time.Duration `env:"SCHED_EXPIRE_INTERVAL" envDefault:"5m"`
	ExpireDelay          time.Duration `env:"SCHED_EXPIRE_DELAY" envDefault:"1m"`
	RenewalInterval      time.Duration `env:"SCHED_RENEWAL_INTERVAL" envDefault:"10m"`
	RenewalDelay         time.Duration `env:"SCHED_RENEWAL_DELAY" envDefault:"2m"`
	LockCleanupInterval  time.Duration `env:"SCHED_LOCK_CLEANUP_INTERVAL" envDefault:"1h"`
	LockCleanupDelay     time.Duration `env:"SCHED_LOCK_CLEANUP_DELAY" envDefault:"10m"`
}

type OrdersConfig struct {
	// RenewalWindow is how far ahead the renewal pass looks for expiring
	// orders.
	RenewalWindow time.Duration `env:"ORDERS_RENEWAL_WINDOW" envDefault:"72h"`
	// LockThreshold gates the lock registry cleanup. Below it the cleanup
	// pass is a no-op and does not touch storage.
	LockThreshold int `env:"ORDERS_LOCK_THRESHOLD" envDefault:"1000"`
}

type GatewayConfig struct {
	// BaseURL left empty disables gateway verification; pending deposits
	// then only move through the manual reconcile endpoint.
	BaseURL string        `env:"GATEWAY_BASE_URL" envDefault:""`
	APIKey  string        `env:"GATEWAY_API_KEY" envDefault:""`
	Timeout time.Duration `env:"GATEWAY_TIMEOUT" envDefault:"10s"`
}

type TelegramConfig struct {
	// Token left empty disables the Telegram notifier; the engine falls back
	// to a no-op one.
	Token       string `env:"TELEGRAM_TOKEN" envDefault:""`
	AdminChatID int64  `env:"TELEGRAM_ADMIN_CHAT_ID" envDefault:"0"`
}

type ProvisionConfig struct {
	ScriptsDir       string        `env:"PROVISION_SCRIPTS_DIR"`
	ProvisionTimeout time.Duration `env:"PROVISION_TIMEOUT" envDefault:"30m"`
	ManageTimeout    time.Duration `env:"PROVISION_MANAGE_TIMEOUT" envDefault:"5m"`
}
