package mysql

import (
	"context"
	"database/sql"

	"bidmarket/internal/domain"

	"github.com/pkg/errors"
)

// DBTX is the part of *sql.DB and *sql.Tx the repositories use.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// MySQLUnitOfWork runs the work function inside one database transaction.
type MySQLUnitOfWork struct {
	db *sql.DB
}

func NewMySQLUnitOfWork(db *sql.DB) *MySQLUnitOfWork {
	return &MySQLUnitOfWork{db: db}
}

func (u *MySQLUnitOfWork) RunInTx(ctx context.Context, fn func(ctx context.Context, stores domain.Stores) error) error {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed on begin transaction")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	stores := domain.Stores{
		Auctions: NewMySQLAuctionRepository(tx),
		Bids:     NewMySQLBidRepository(tx),
		Proxies:  NewMySQLProxyBidRepository(tx),
	}
	if err := fn(ctx, stores); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed on commit transaction")
	}
	return nil
}
