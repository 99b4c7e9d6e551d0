package wallet

import (
	"context"
	"sync"

	"github.com/mxe-wallet/mxe_wallet/internal/apperr"
)

type memoryRepository struct {
	mu           sync.RWMutex
	wallets      map[string]Wallet
	transactions map[string][]Transaction
}

// NewMemoryRepository builds an in-memory repository for tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		wallets:      make(map[string]Wallet),
		transactions: make(map[string][]Transaction),
	}
}

func (r *memoryRepository) Create(_ context.Context, w Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.wallets {
		if existing.Email == w.Email || existing.AccountID == w.AccountID {
			return apperr.Conflict("record already exists")
		}
	}
	r.wallets[w.ID] = w
	return nil
}

func (r *memoryRepository) ByEmail(_ context.Context, email string) (Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, w := range r.wallets {
		if w.Email == email {
			return w, nil
		}
	}
	return Wallet{}, apperr.NotFound("wallet does not exist")
}

func (r *memoryRepository) RecordTransaction(_ context.Context, tx Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.wallets[tx.WalletID]; !ok {
		return apperr.NotFound("wallet does not exist")
	}
	for _, existing := range r.transactions[tx.AccountEmail] {
		if existing.Reference == tx.Reference {
			return apperr.Conflict("record already exists")
		}
	}
	// Newest first, matching the SQL ordering.
	list := r.transactions[tx.AccountEmail]
	idx := 0
	for idx < len(list) && list[idx].CreatedAt.After(tx.CreatedAt) {
		idx++
	}
	list = append(list, Transaction{})
	copy(list[idx+1:], list[idx:])
	list[idx] = tx
	r.transactions[tx.AccountEmail] = list
	return nil
}

func (r *memoryRepository) FindTransaction(_ context.Context, email, id string) (Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, tx := range r.transactions[email] {
		if tx.ID == id {
			return tx, nil
		}
	}
	return Transaction{}, apperr.NotFound("transaction does not exist")
}

func (r *memoryRepository) ListTransactions(_ context.Context, email string, limit, offset int) ([]Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := r.transactions[email]
	if offset >= len(list) {
		return nil, nil
	}
	end := offset + limit
	if end > len(list) {
		end = len(list)
	}
	out := make([]Transaction, end-offset)
	copy(out, list[offset:end])
	return out, nil
}
