// Package wallet provisions stored-value wallets for completed accounts and
// serves their transaction history.
package wallet

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mxe-wallet/mxe_wallet/internal/account"
	"github.com/mxe-wallet/mxe_wallet/internal/apperr"
)

const defaultCurrency = "NGN"

// Service exposes wallet provisioning and statement reads.
type Service struct {
	wallets  Repository
	accounts account.Repository
	now      func() time.Time
}

// NewService builds the wallet service.
func NewService(wallets Repository, accounts account.Repository) *Service {
	return &Service{wallets: wallets, accounts: accounts, now: time.Now}
}

// Create provisions a wallet for the account owning the email. The account
// must have finished registration; an existing wallet surfaces as Conflict.
func (s *Service) Create(ctx context.Context, email string) (Wallet, error) {
	acct, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return Wallet{}, err
	}
	if !acct.MobileVerified {
		return Wallet{}, apperr.BadRequest("account registration is not complete")
	}
	w := Wallet{
		ID:        uuid.New().String(),
		AccountID: acct.ID,
		Email:     acct.Email,
		Balance:   0,
		Currency:  defaultCurrency,
		CreatedAt: s.now().UTC(),
	}
	w.UpdatedAt = w.CreatedAt
	if err := s.wallets.Create(ctx, w); err != nil {
		return Wallet{}, err
	}
	return w, nil
}

// Details returns the wallet together with the owner's public profile.
func (s *Service) Details(ctx context.Context, email string) (Details, error) {
	w, err := s.wallets.ByEmail(ctx, email)
	if err != nil {
		return Details{}, err
	}
	acct, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return Details{}, err
	}
	return Details{
		Wallet:    w,
		MxeTag:    acct.MxeTag,
		FirstName: acct.FirstName,
		LastName:  acct.LastName,
	}, nil
}

// TransactionPage is one page of wallet history with its echoed parameters.
type TransactionPage struct {
	Transactions []Transaction
	Page         int
	PageSize     int
}

// Transactions pages over the wallet history, newest first. The wallet must
// exist so an empty history is distinguishable from a missing wallet.
func (s *Service) Transactions(ctx context.Context, email string, page, pageSize int) (TransactionPage, error) {
	if page < 1 || pageSize < 1 {
		return TransactionPage{}, apperr.BadRequest("page and pageSize must be positive")
	}
	if _, err := s.wallets.ByEmail(ctx, email); err != nil {
		return TransactionPage{}, err
	}
	skip := (page - 1) * pageSize
	list, err := s.wallets.ListTransactions(ctx, email, pageSize, skip)
	if err != nil {
		return TransactionPage{}, err
	}
	return TransactionPage{Transactions: list, Page: page, PageSize: pageSize}, nil
}

// Transaction fetches one movement scoped to the owner's email.
func (s *Service) Transaction(ctx context.Context, email, id string) (Transaction, error) {
	return s.wallets.FindTransaction(ctx, email, id)
}
