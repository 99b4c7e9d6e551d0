package infra

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
        id UUID PRIMARY KEY,
        mobile_number TEXT UNIQUE,
        email TEXT UNIQUE,
        first_name TEXT NOT NULL DEFAULT '',
        last_name TEXT NOT NULL DEFAULT '',
        mxe_tag TEXT UNIQUE,
        pin_hash BYTEA,
        role TEXT NOT NULL DEFAULT 'USER',
        is_mobile_verified BOOLEAN NOT NULL DEFAULT FALSE,
        is_account_verified BOOLEAN NOT NULL DEFAULT FALSE,
        bvn TEXT,
        national_id_card_url TEXT,
        is_federated BOOLEAN NOT NULL DEFAULT FALSE,
        created_at TIMESTAMPTZ NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS verification_tokens (
        account_id UUID PRIMARY KEY REFERENCES accounts(id) ON DELETE CASCADE,
        code TEXT NOT NULL,
        expires_at TIMESTAMPTZ NOT NULL,
        created_at TIMESTAMPTZ NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS account_verifications (
        account_id UUID PRIMARY KEY REFERENCES accounts(id) ON DELETE CASCADE,
        status TEXT NOT NULL DEFAULT 'UN_VERIFIED',
        created_at TIMESTAMPTZ NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL
    )`,
	`CREATE INDEX IF NOT EXISTS idx_account_verifications_status
        ON account_verifications (status, created_at)`,
	`CREATE TABLE IF NOT EXISTS wallets (
        id UUID PRIMARY KEY,
        account_id UUID NOT NULL UNIQUE REFERENCES accounts(id) ON DELETE CASCADE,
        email TEXT NOT NULL UNIQUE,
        balance BIGINT NOT NULL DEFAULT 0,
        currency TEXT NOT NULL DEFAULT 'NGN',
        created_at TIMESTAMPTZ NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS wallet_transactions (
        id UUID PRIMARY KEY,
        wallet_id UUID NOT NULL REFERENCES wallets(id) ON DELETE CASCADE,
        account_email TEXT NOT NULL,
        reference TEXT NOT NULL UNIQUE,
        kind TEXT NOT NULL,
        amount BIGINT NOT NULL,
        narration TEXT NOT NULL DEFAULT '',
        created_at TIMESTAMPTZ NOT NULL
    )`,
	`CREATE INDEX IF NOT EXISTS idx_wallet_transactions_email
        ON wallet_transactions (account_email, created_at)`,
}

// Migrate applies the schema. Statements are idempotent so startup can run
// this unconditionally.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
