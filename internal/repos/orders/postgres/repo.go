package orders

import (
	"database/sql"
	"time"

	"github.com/dchirkin/provcore/internal/repos/orders"
)

var _ orders.Orders = (*ordersRepo)(nil)

type ordersRepo struct {
	db        *sql.DB
	opTimeout time.Duration
}

func New(db *sql.DB, opTimeout time.Duration) *ordersRepo {
	return &ordersRepo{db: db, opTimeout: opTimeout}
}

const orderColumns = `id, account_id, protocol, config_count, price_minor, months, auto_renew,
	status, server_host, server_login, server_pass, expires_at, created_at`

func scanOrder(row interface{ Scan(...any) error }) (orders.Order, error) {
	var (
		o         orders.Order
		host      sql.NullString
		login     sql.NullString
		pass      sql.NullString
		expiresAt sql.NullTime
	)

	err := row.Scan(
		&o.ID,
		&o.AccountID,
		&o.Protocol,
		&o.ConfigCount,
		&o.PriceMinor,
		&o.Months,
		&o.AutoRenew,
		&o.Status,
		&host,
		&login,
		&pass,
		&expiresAt,
		&o.CreatedAt,
	)
	if err != nil {
		return orders.Order{}, err
	}

	if host.Valid {
		o.ServerHost = host.String
	}
	if login.Valid {
		o.ServerLogin = login.String
	}
	if pass.Valid {
		o.ServerPass = pass.String
	}
	if expiresAt.Valid {
		o.ExpiresAt = expiresAt.Time
	}

	return o, nil
}
