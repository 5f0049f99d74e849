package database

import (
	"context"
	"database/sql"
	"errors"
)

// TxProvider serves every acquisition from one caller-owned transaction.
// Releasing a connection leaves the transaction open; the caller commits or
// rolls back.
type TxProvider struct {
	tx *sql.Tx
}

// NewTxProvider returns a provider bound to tx.
func NewTxProvider(tx *sql.Tx) *TxProvider {
	return &TxProvider{tx: tx}
}

// Acquire returns a handle on the transaction.
func (p *TxProvider) Acquire(ctx context.Context) (Conn, error) {
	if p.tx == nil {
		return nil, errors.New("database: nil transaction")
	}
	return txConn{p.tx}, nil
}

type txConn struct {
	tx *sql.Tx
}

func (c txConn) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.tx.QueryContext(ctx, query, args...)
}

func (c txConn) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.tx.ExecContext(ctx, query, args...)
}

func (txConn) Close() error { return nil }

var _ ConnectionProvider = (*TxProvider)(nil)
