package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mxe-wallet/mxe_wallet/internal/apperr"
)

// Repository persists wallets and their transaction history.
type Repository interface {
	Create(ctx context.Context, w Wallet) error
	ByEmail(ctx context.Context, email string) (Wallet, error)
	RecordTransaction(ctx context.Context, tx Transaction) error
	FindTransaction(ctx context.Context, email, id string) (Transaction, error)
	ListTransactions(ctx context.Context, email string, limit, offset int) ([]Transaction, error)
}

// PostgresRepository stores wallets in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a wallet record. A second wallet for the same account or
// email surfaces as Conflict.
func (r *PostgresRepository) Create(ctx context.Context, w Wallet) error {
	walletID, err := uuid.Parse(w.ID)
	if err != nil {
		return apperr.Internal("invalid wallet id", err)
	}
	accountID, err := uuid.Parse(w.AccountID)
	if err != nil {
		return apperr.Internal("invalid account id", err)
	}
	_, err = r.db.Exec(ctx, `INSERT INTO wallets (id, account_id, email, balance, currency, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $6)`,
		walletID, accountID, w.Email, w.Balance, w.Currency, w.CreatedAt.UTC())
	if err != nil {
		return mapPgError("create wallet", err)
	}
	return nil
}

// ByEmail fetches the wallet owned by the account with that email.
func (r *PostgresRepository) ByEmail(ctx context.Context, email string) (Wallet, error) {
	row := r.db.QueryRow(ctx, `SELECT id, account_id, email, balance, currency, created_at, updated_at
        FROM wallets WHERE email = $1`, email)
	var (
		id        uuid.UUID
		accountID uuid.UUID
		w         Wallet
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&id, &accountID, &w.Email, &w.Balance, &w.Currency, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, apperr.NotFound("wallet does not exist")
		}
		return Wallet{}, apperr.Internal("query wallet", err)
	}
	w.ID = id.String()
	w.AccountID = accountID.String()
	w.CreatedAt = createdAt.UTC()
	w.UpdatedAt = updatedAt.UTC()
	return w, nil
}

// RecordTransaction appends a movement to the wallet history. Duplicate
// references surface as Conflict so settlement retries stay idempotent.
func (r *PostgresRepository) RecordTransaction(ctx context.Context, tx Transaction) error {
	txID, err := uuid.Parse(tx.ID)
	if err != nil {
		return apperr.Internal("invalid transaction id", err)
	}
	walletID, err := uuid.Parse(tx.WalletID)
	if err != nil {
		return apperr.Internal("invalid wallet id", err)
	}
	_, err = r.db.Exec(ctx, `INSERT INTO wallet_transactions (id, wallet_id, account_email, reference, kind, amount, narration, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		txID, walletID, tx.AccountEmail, tx.Reference, tx.Kind, tx.Amount, tx.Narration, tx.CreatedAt.UTC())
	if err != nil {
		return mapPgError("record transaction", err)
	}
	return nil
}

// FindTransaction fetches a single movement scoped to the owner's email.
func (r *PostgresRepository) FindTransaction(ctx context.Context, email, id string) (Transaction, error) {
	txID, err := uuid.Parse(id)
	if err != nil {
		return Transaction{}, apperr.NotFound("transaction does not exist")
	}
	row := r.db.QueryRow(ctx, `SELECT id, wallet_id, account_email, reference, kind, amount, narration, created_at
        FROM wallet_transactions WHERE id = $1 AND account_email = $2`, txID, email)
	return scanTransaction(row)
}

// ListTransactions pages over the wallet history, newest first.
func (r *PostgresRepository) ListTransactions(ctx context.Context, email string, limit, offset int) ([]Transaction, error) {
	rows, err := r.db.Query(ctx, `SELECT id, wallet_id, account_email, reference, kind, amount, narration, created_at
        FROM wallet_transactions WHERE account_email = $1
        ORDER BY created_at DESC LIMIT $2 OFFSET $3`, email, limit, offset)
	if err != nil {
		return nil, apperr.Internal("list transactions", err)
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal("list transactions", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (Transaction, error) {
	var (
		id        uuid.UUID
		walletID  uuid.UUID
		tx        Transaction
		createdAt time.Time
	)
	err := row.Scan(&id, &walletID, &tx.AccountEmail, &tx.Reference, &tx.Kind, &tx.Amount, &tx.Narration, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, apperr.NotFound("transaction does not exist")
		}
		return Transaction{}, apperr.Internal("query transaction", err)
	}
	tx.ID = id.String()
	tx.WalletID = walletID.String()
	tx.CreatedAt = createdAt.UTC()
	return tx, nil
}

func mapPgError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return apperr.Conflict("record already exists")
	}
	return apperr.Internal(op, err)
}
