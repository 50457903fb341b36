package orders

import (
	"database/sql"
	"fmt"

	"github.com/dchirkin/provcore/internal/repos/orders"
)

func (r *ordersRepo) Create(tx *sql.Tx, o orders.Order) (orders.Order, error) {
	row := tx.QueryRow(`
		INSERT INTO orders (account_id, protocol, config_count, price_minor, months, auto_renew, status)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending')
		RETURNING `+orderColumns+`
	`, o.AccountID, o.Protocol, o.ConfigCount, o.PriceMinor, o.Months, o.AutoRenew)

	created, err := scanOrder(row)
	if err != nil {
		return orders.Order{}, fmt.Errorf("create order: %w", err)
	}

	return created, nil
}
