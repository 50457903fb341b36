package accounts

import (
	"database/sql"
	"time"

	"github.com/dchirkin/provcore/internal/repos/accounts"
)

var _ accounts.Accounts = (*accountsRepo)(nil)

type accountsRepo struct {
	db        *sql.DB
	opTimeout time.Duration
}

func New(db *sql.DB, opTimeout time.Duration) *accountsRepo {
	return &accountsRepo{db: db, opTimeout: opTimeout}
}
