package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	cryptoutil "workforce/internal/platform/crypto"
)

// Store is the Postgres gateway. Each InTx call maps to one pgx transaction.
type Store struct {
	DB     *pgxpool.Pool
	Crypto *cryptoutil.Service
}

func NewStore(db *pgxpool.Pool, crypto *cryptoutil.Service) *Store {
	return &Store{DB: db, Crypto: crypto}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.DB.Ping(ctx)
}

func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	pgTx, err := s.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(ctx, &storeTx{tx: pgTx, crypto: s.Crypto}); err != nil {
		if rbErr := pgTx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return errors.Join(err, rbErr)
		}
		return err
	}
	if err := pgTx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type storeTx struct {
	tx     pgx.Tx
	crypto *cryptoutil.Service
}

// mapErr folds driver errors onto the gateway sentinels.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrRecordNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, pgErr.ConstraintName)
	}
	return err
}

func stateClause(state State) string {
	switch state {
	case StateActive:
		return "WHERE is_deleted = false"
	case StateDeleted:
		return "WHERE is_deleted = true"
	default:
		return ""
	}
}

// ErrSealedSalary reports a salary ciphertext that cannot be opened with the configured key.
var ErrSealedSalary = errors.New("salary ciphertext cannot be opened")

// sealSalary returns the plaintext and ciphertext column values for a salary. When encryption is
// configured the plaintext column is left NULL.
func sealSalary(crypto *cryptoutil.Service, salary decimal.Decimal) (any, []byte, error) {
	if !crypto.Configured() {
		return salary.String(), nil, nil
	}
	enc, err := crypto.EncryptString(salary.String())
	if err != nil {
		return nil, nil, fmt.Errorf("seal salary: %w", err)
	}
	return nil, enc, nil
}

// openSalary prefers the ciphertext column. A stored ciphertext that cannot be opened, including
// when no key is configured, is an error; the plaintext column is never used in its place.
func openSalary(crypto *cryptoutil.Service, encrypted []byte, plain string) (decimal.Decimal, error) {
	value := plain
	if len(encrypted) > 0 {
		if !crypto.Configured() {
			return decimal.Zero, fmt.Errorf("%w: no key configured", ErrSealedSalary)
		}
		decrypted, err := crypto.DecryptString(encrypted)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: %v", ErrSealedSalary, err)
		}
		value = decrypted
	}
	if value == "" {
		return decimal.Zero, nil
	}
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse salary: %w", err)
	}
	return parsed, nil
}
