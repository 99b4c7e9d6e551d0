package account

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

// ProfilePatch carries the fields written when a registration completes.
type ProfilePatch struct {
	Email     string
	FirstName string
	LastName  string
	MxeTag    string
	PINHash   []byte
	BVN       string
}

// DetailsPatch carries the mutable profile fields.
type DetailsPatch struct {
	FirstName string
	LastName  string
	MxeTag    string
}

// Repository persists accounts together with their verification token and
// KYC status records. Implementations surface NotFound and Conflict as
// apperr kinds so services can propagate them unchanged.
type Repository interface {
	CreateAccount(ctx context.Context, acct Account) (Account, error)
	FindByID(ctx context.Context, id string) (Account, error)
	FindByMobile(ctx context.Context, mobile string) (Account, error)
	FindByEmail(ctx context.Context, email string) (Account, error)
	FindByTag(ctx context.Context, tag string) (Account, error)
	DeleteAccount(ctx context.Context, id string) error
	CompleteProfile(ctx context.Context, id string, patch ProfilePatch) (Account, error)
	UpdateDetails(ctx context.Context, email string, patch DetailsPatch) (Account, error)
	UpdatePIN(ctx context.Context, id string, hash []byte) error
	SetRole(ctx context.Context, email string, role Role) error
	SetKYCDocuments(ctx context.Context, email, bvn, idCardURL string) error

	ReplaceToken(ctx context.Context, token VerificationToken) error
	TokenByAccount(ctx context.Context, accountID string) (VerificationToken, error)
	DeleteToken(ctx context.Context, accountID string) error
	// MarkMobileVerified flips the verified flag and deletes the live token
	// in the same transaction.
	MarkMobileVerified(ctx context.Context, accountID string) error

	StatusByAccount(ctx context.Context, accountID string) (Verification, error)
	// SetStatus records a KYC transition. Moving to VERIFIED also sets the
	// account's verified flag in the same transaction.
	SetStatus(ctx context.Context, accountID string, status Status) error
	ListPendingVerifications(ctx context.Context, limit, offset int) ([]Verification, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed account repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const accountColumns = `id, mobile_number, email, first_name, last_name, mxe_tag, pin_hash,
    role, is_mobile_verified, is_account_verified, bvn, national_id_card_url, is_federated,
    created_at, updated_at`

// CreateAccount inserts the account and its UN_VERIFIED KYC status row in one
// transaction. Duplicate mobile/email/tag surfaces as Conflict.
func (r *PostgresRepository) CreateAccount(ctx context.Context, acct Account) (Account, error) {
	id, err := uuid.Parse(acct.ID)
	if err != nil {
		return Account{}, apperr.Internal("invalid account id", err)
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return Account{}, apperr.Internal("begin transaction", err)
	}
	defer tx.Rollback(ctx)

	now := acct.CreatedAt.UTC()
	_, err = tx.Exec(ctx, `INSERT INTO accounts (id, mobile_number, email, first_name, last_name,
        mxe_tag, pin_hash, role, is_mobile_verified, is_account_verified, bvn,
        national_id_card_url, is_federated, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)`,
		id, textOrNil(acct.MobileNumber), textOrNil(acct.Email), acct.FirstName, acct.LastName,
		textOrNil(acct.MxeTag), acct.PINHash, string(acct.Role), acct.MobileVerified,
		acct.AccountVerified, textOrNil(acct.BVN), textOrNil(acct.NationalIDCardURL),
		acct.Federated, now)
	if err != nil {
		return Account{}, mapPgError("create account", err)
	}

	_, err = tx.Exec(ctx, `INSERT INTO account_verifications (account_id, status, created_at, updated_at)
        VALUES ($1, $2, $3, $3)`, id, string(StatusUnverified), now)
	if err != nil {
		return Account{}, mapPgError("create verification status", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Account{}, apperr.Internal("commit create account", err)
	}
	acct.UpdatedAt = now
	return acct, nil
}

// FindByID fetches an account by identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (Account, error) {
	acctID, err := uuid.Parse(id)
	if err != nil {
		return Account{}, apperr.NotFound("account does not exist")
	}
	return r.findBy(ctx, `id = $1`, acctID)
}

// FindByMobile fetches an account by mobile number.
func (r *PostgresRepository) FindByMobile(ctx context.Context, mobile string) (Account, error) {
	return r.findBy(ctx, `mobile_number = $1`, mobile)
}

// FindByEmail fetches an account by email.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (Account, error) {
	return r.findBy(ctx, `email = $1`, email)
}

// FindByTag fetches an account by mxe tag.
func (r *PostgresRepository) FindByTag(ctx context.Context, tag string) (Account, error) {
	return r.findBy(ctx, `mxe_tag = $1`, tag)
}

func (r *PostgresRepository) findBy(ctx context.Context, where string, arg any) (Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE `+where, arg)
	return scanAccount(row)
}

// DeleteAccount removes the account. Token and status rows cascade.
func (r *PostgresRepository) DeleteAccount(ctx context.Context, id string) error {
	acctID, err := uuid.Parse(id)
	if err != nil {
		return apperr.NotFound("account does not exist")
	}
	cmd, err := r.db.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, acctID)
	if err != nil {
		return mapPgError("delete account", err)
	}
	if cmd.RowsAffected() == 0 {
		return apperr.NotFound("account does not exist")
	}
	return nil
}

// CompleteProfile writes the registration-completion fields and returns the
// updated record. Email/tag collisions surface as Conflict.
func (r *PostgresRepository) CompleteProfile(ctx context.Context, id string, patch ProfilePatch) (Account, error) {
	acctID, err := uuid.Parse(id)
	if err != nil {
		return Account{}, apperr.NotFound("account does not exist")
	}
	row := r.db.QueryRow(ctx, `UPDATE accounts
        SET email = $2, first_name = $3, last_name = $4, mxe_tag = $5, pin_hash = $6,
            bvn = COALESCE($7, bvn), updated_at = $8
        WHERE id = $1
        RETURNING `+accountColumns,
		acctID, patch.Email, patch.FirstName, patch.LastName, patch.MxeTag, patch.PINHash,
		textOrNil(patch.BVN), time.Now().UTC())
	acct, err := scanAccount(row)
	if err != nil {
		return Account{}, err
	}
	return acct, nil
}

// UpdateDetails patches mutable profile fields addressed by email.
func (r *PostgresRepository) UpdateDetails(ctx context.Context, email string, patch DetailsPatch) (Account, error) {
	row := r.db.QueryRow(ctx, `UPDATE accounts
        SET first_name = $2, last_name = $3, mxe_tag = $4, updated_at = $5
        WHERE email = $1
        RETURNING `+accountColumns,
		email, patch.FirstName, patch.LastName, patch.MxeTag, time.Now().UTC())
	return scanAccount(row)
}

// UpdatePIN atomically replaces the stored PIN hash.
func (r *PostgresRepository) UpdatePIN(ctx context.Context, id string, hash []byte) error {
	acctID, err := uuid.Parse(id)
	if err != nil {
		return apperr.NotFound("account does not exist")
	}
	cmd, err := r.db.Exec(ctx, `UPDATE accounts SET pin_hash = $2, updated_at = $3 WHERE id = $1`,
		acctID, hash, time.Now().UTC())
	if err != nil {
		return mapPgError("update pin", err)
	}
	if cmd.RowsAffected() == 0 {
		return apperr.NotFound("account does not exist")
	}
	return nil
}

// SetRole updates the account role addressed by email.
func (r *PostgresRepository) SetRole(ctx context.Context, email string, role Role) error {
	cmd, err := r.db.Exec(ctx, `UPDATE accounts SET role = $2, updated_at = $3 WHERE email = $1`,
		email, string(role), time.Now().UTC())
	if err != nil {
		return mapPgError("set role", err)
	}
	if cmd.RowsAffected() == 0 {
		return apperr.NotFound("account does not exist")
	}
	return nil
}

// SetKYCDocuments stores the BVN and uploaded ID-card URL.
func (r *PostgresRepository) SetKYCDocuments(ctx context.Context, email, bvn, idCardURL string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE accounts SET bvn = $2, national_id_card_url = $3, updated_at = $4
        WHERE email = $1`, email, bvn, idCardURL, time.Now().UTC())
	if err != nil {
		return mapPgError("set kyc documents", err)
	}
	if cmd.RowsAffected() == 0 {
		return apperr.NotFound("account does not exist")
	}
	return nil
}

// ReplaceToken upserts the account's verification token, guaranteeing a
// single live token per account.
func (r *PostgresRepository) ReplaceToken(ctx context.Context, token VerificationToken) error {
	acctID, err := uuid.Parse(token.AccountID)
	if err != nil {
		return apperr.NotFound("account does not exist")
	}
	_, err = r.db.Exec(ctx, `INSERT INTO verification_tokens (account_id, code, expires_at, created_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (account_id) DO UPDATE
        SET code = EXCLUDED.code, expires_at = EXCLUDED.expires_at, created_at = EXCLUDED.created_at`,
		acctID, token.Code, token.ExpiresAt.UTC(), token.CreatedAt.UTC())
	if err != nil {
		return mapPgError("replace token", err)
	}
	return nil
}

// TokenByAccount fetches the live verification token for an account.
func (r *PostgresRepository) TokenByAccount(ctx context.Context, accountID string) (VerificationToken, error) {
	acctID, err := uuid.Parse(accountID)
	if err != nil {
		return VerificationToken{}, apperr.NotFound("verification otp not found")
	}
	row := r.db.QueryRow(ctx, `SELECT account_id, code, expires_at, created_at
        FROM verification_tokens WHERE account_id = $1`, acctID)
	var (
		id        uuid.UUID
		token     VerificationToken
		expiresAt time.Time
		createdAt time.Time
	)
	if err := row.Scan(&id, &token.Code, &expiresAt, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return VerificationToken{}, apperr.NotFound("verification otp not found")
		}
		return VerificationToken{}, apperr.Internal("query token", err)
	}
	token.AccountID = id.String()
	token.ExpiresAt = expiresAt.UTC()
	token.CreatedAt = createdAt.UTC()
	return token, nil
}

// DeleteToken removes the live token, if any. Deleting an absent token is
// not an error; expiry consumption races with resend.
func (r *PostgresRepository) DeleteToken(ctx context.Context, accountID string) error {
	acctID, err := uuid.Parse(accountID)
	if err != nil {
		return apperr.NotFound("account does not exist")
	}
	if _, err := r.db.Exec(ctx, `DELETE FROM verification_tokens WHERE account_id = $1`, acctID); err != nil {
		return mapPgError("delete token", err)
	}
	return nil
}

// MarkMobileVerified flips the flag and consumes the token atomically.
func (r *PostgresRepository) MarkMobileVerified(ctx context.Context, accountID string) error {
	acctID, err := uuid.Parse(accountID)
	if err != nil {
		return apperr.NotFound("account does not exist")
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return apperr.Internal("begin transaction", err)
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `UPDATE accounts SET is_mobile_verified = TRUE, updated_at = $2 WHERE id = $1`,
		acctID, time.Now().UTC())
	if err != nil {
		return mapPgError("mark mobile verified", err)
	}
	if cmd.RowsAffected() == 0 {
		return apperr.NotFound("account does not exist")
	}
	if _, err := tx.Exec(ctx, `DELETE FROM verification_tokens WHERE account_id = $1`, acctID); err != nil {
		return mapPgError("consume token", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return apperr.Internal("commit mark verified", err)
	}
	return nil
}

// StatusByAccount fetches the KYC review record for an account.
func (r *PostgresRepository) StatusByAccount(ctx context.Context, accountID string) (Verification, error) {
	acctID, err := uuid.Parse(accountID)
	if err != nil {
		return Verification{}, apperr.NotFound("verification status not found")
	}
	row := r.db.QueryRow(ctx, `SELECT account_id, status, created_at, updated_at
        FROM account_verifications WHERE account_id = $1`, acctID)
	return scanVerification(row)
}

// SetStatus records a KYC transition; VERIFIED also flips the account flag.
func (r *PostgresRepository) SetStatus(ctx context.Context, accountID string, status Status) error {
	acctID, err := uuid.Parse(accountID)
	if err != nil {
		return apperr.NotFound("account does not exist")
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return apperr.Internal("begin transaction", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	cmd, err := tx.Exec(ctx, `UPDATE account_verifications SET status = $2, updated_at = $3 WHERE account_id = $1`,
		acctID, string(status), now)
	if err != nil {
		return mapPgError("set status", err)
	}
	if cmd.RowsAffected() == 0 {
		return apperr.NotFound("verification status not found")
	}
	if status == StatusVerified {
		if _, err := tx.Exec(ctx, `UPDATE accounts SET is_account_verified = TRUE, updated_at = $2 WHERE id = $1`,
			acctID, now); err != nil {
			return mapPgError("set account verified", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return apperr.Internal("commit set status", err)
	}
	return nil
}

// ListPendingVerifications pages over PENDING review records.
func (r *PostgresRepository) ListPendingVerifications(ctx context.Context, limit, offset int) ([]Verification, error) {
	rows, err := r.db.Query(ctx, `SELECT account_id, status, created_at, updated_at
        FROM account_verifications WHERE status = $1
        ORDER BY created_at LIMIT $2 OFFSET $3`, string(StatusPending), limit, offset)
	if err != nil {
		return nil, apperr.Internal("list pending verifications", err)
	}
	defer rows.Close()

	var out []Verification
	for rows.Next() {
		v, err := scanVerification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal("list pending verifications", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (Account, error) {
	var (
		id        uuid.UUID
		mobile    *string
		email     *string
		tag       *string
		bvn       *string
		idCardURL *string
		role      string
		createdAt time.Time
		updatedAt time.Time
		acct      Account
	)
	err := row.Scan(&id, &mobile, &email, &acct.FirstName, &acct.LastName, &tag, &acct.PINHash,
		&role, &acct.MobileVerified, &acct.AccountVerified, &bvn, &idCardURL, &acct.Federated,
		&createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, apperr.NotFound("account does not exist")
		}
		return Account{}, mapPgError("query account", err)
	}
	acct.ID = id.String()
	acct.MobileNumber = deref(mobile)
	acct.Email = deref(email)
	acct.MxeTag = deref(tag)
	acct.BVN = deref(bvn)
	acct.NationalIDCardURL = deref(idCardURL)
	acct.Role = Role(role)
	acct.CreatedAt = createdAt.UTC()
	acct.UpdatedAt = updatedAt.UTC()
	return acct, nil
}

func scanVerification(row rowScanner) (Verification, error) {
	var (
		id        uuid.UUID
		status    string
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&id, &status, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Verification{}, apperr.NotFound("verification status not found")
		}
		return Verification{}, apperr.Internal("query verification status", err)
	}
	return Verification{
		AccountID: id.String(),
		Status:    Status(status),
		CreatedAt: createdAt.UTC(),
		UpdatedAt: updatedAt.UTC(),
	}, nil
}

// mapPgError converts driver failures into the application taxonomy. Unique
// violations become Conflict so the losing writer of a race sees a clean error.
func mapPgError(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("account does not exist")
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return apperr.Conflict("record already exists")
	}
	return apperr.Internal(op, err)
}

func textOrNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
