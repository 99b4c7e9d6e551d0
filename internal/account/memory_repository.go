package account

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mxe-wallet/mxe_wallet/internal/apperr"
)

// memoryRepository is an in-process Repository for tests. It enforces the
// same uniqueness rules the database schema does.
type memoryRepository struct {
	mu       sync.RWMutex
	accounts map[string]Account
	tokens   map[string]VerificationToken
	statuses map[string]Verification
}

// NewMemoryRepository builds an in-memory account store for testing.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		accounts: make(map[string]Account),
		tokens:   make(map[string]VerificationToken),
		statuses: make(map[string]Verification),
	}
}

func (r *memoryRepository) CreateAccount(_ context.Context, acct Account) (Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkUnique(acct.ID, acct.MobileNumber, acct.Email, acct.MxeTag); err != nil {
		return Account{}, err
	}
	acct.UpdatedAt = acct.CreatedAt
	r.accounts[acct.ID] = acct
	r.statuses[acct.ID] = Verification{
		AccountID: acct.ID,
		Status:    StatusUnverified,
		CreatedAt: acct.CreatedAt,
		UpdatedAt: acct.CreatedAt,
	}
	return acct, nil
}

func (r *memoryRepository) checkUnique(selfID, mobile, email, tag string) error {
	for id, existing := range r.accounts {
		if id == selfID {
			continue
		}
		if mobile != "" && existing.MobileNumber == mobile {
			return apperr.Conflict("record already exists")
		}
		if email != "" && existing.Email == email {
			return apperr.Conflict("record already exists")
		}
		if tag != "" && existing.MxeTag == tag {
			return apperr.Conflict("record already exists")
		}
	}
	return nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	acct, ok := r.accounts[id]
	if !ok {
		return Account{}, apperr.NotFound("account does not exist")
	}
	return acct, nil
}

func (r *memoryRepository) FindByMobile(ctx context.Context, mobile string) (Account, error) {
	return r.findBy(func(a Account) bool { return a.MobileNumber != "" && a.MobileNumber == mobile })
}

func (r *memoryRepository) FindByEmail(ctx context.Context, email string) (Account, error) {
	return r.findBy(func(a Account) bool { return a.Email != "" && a.Email == email })
}

func (r *memoryRepository) FindByTag(ctx context.Context, tag string) (Account, error) {
	return r.findBy(func(a Account) bool { return a.MxeTag != "" && a.MxeTag == tag })
}

func (r *memoryRepository) findBy(match func(Account) bool) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, acct := range r.accounts {
		if match(acct) {
			return acct, nil
		}
	}
	return Account{}, apperr.NotFound("account does not exist")
}

func (r *memoryRepository) DeleteAccount(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[id]; !ok {
		return apperr.NotFound("account does not exist")
	}
	delete(r.accounts, id)
	delete(r.tokens, id)
	delete(r.statuses, id)
	return nil
}

func (r *memoryRepository) CompleteProfile(_ context.Context, id string, patch ProfilePatch) (Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	acct, ok := r.accounts[id]
	if !ok {
		return Account{}, apperr.NotFound("account does not exist")
	}
	if err := r.checkUnique(id, "", patch.Email, patch.MxeTag); err != nil {
		return Account{}, err
	}
	acct.Email = patch.Email
	acct.FirstName = patch.FirstName
	acct.LastName = patch.LastName
	acct.MxeTag = patch.MxeTag
	acct.PINHash = patch.PINHash
	if patch.BVN != "" {
		acct.BVN = patch.BVN
	}
	acct.UpdatedAt = time.Now().UTC()
	r.accounts[id] = acct
	return acct, nil
}

func (r *memoryRepository) UpdateDetails(_ context.Context, email string, patch DetailsPatch) (Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, acct := range r.accounts {
		if acct.Email != "" && acct.Email == email {
			if err := r.checkUnique(id, "", "", patch.MxeTag); err != nil {
				return Account{}, err
			}
			acct.FirstName = patch.FirstName
			acct.LastName = patch.LastName
			acct.MxeTag = patch.MxeTag
			acct.UpdatedAt = time.Now().UTC()
			r.accounts[id] = acct
			return acct, nil
		}
	}
	return Account{}, apperr.NotFound("account does not exist")
}

func (r *memoryRepository) UpdatePIN(_ context.Context, id string, hash []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	acct, ok := r.accounts[id]
	if !ok {
		return apperr.NotFound("account does not exist")
	}
	acct.PINHash = hash
	acct.UpdatedAt = time.Now().UTC()
	r.accounts[id] = acct
	return nil
}

func (r *memoryRepository) SetRole(_ context.Context, email string, role Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, acct := range r.accounts {
		if acct.Email != "" && acct.Email == email {
			acct.Role = role
			acct.UpdatedAt = time.Now().UTC()
			r.accounts[id] = acct
			return nil
		}
	}
	return apperr.NotFound("account does not exist")
}

func (r *memoryRepository) SetKYCDocuments(_ context.Context, email, bvn, idCardURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, acct := range r.accounts {
		if acct.Email != "" && acct.Email == email {
			acct.BVN = bvn
			acct.NationalIDCardURL = idCardURL
			acct.UpdatedAt = time.Now().UTC()
			r.accounts[id] = acct
			return nil
		}
	}
	return apperr.NotFound("account does not exist")
}

func (r *memoryRepository) ReplaceToken(_ context.Context, token VerificationToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[token.AccountID]; !ok {
		return apperr.NotFound("account does not exist")
	}
	r.tokens[token.AccountID] = token
	return nil
}

func (r *memoryRepository) TokenByAccount(_ context.Context, accountID string) (VerificationToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	token, ok := r.tokens[accountID]
	if !ok {
		return VerificationToken{}, apperr.NotFound("verification otp not found")
	}
	return token, nil
}

func (r *memoryRepository) DeleteToken(_ context.Context, accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, accountID)
	return nil
}

func (r *memoryRepository) MarkMobileVerified(_ context.Context, accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	acct, ok := r.accounts[accountID]
	if !ok {
		return apperr.NotFound("account does not exist")
	}
	acct.MobileVerified = true
	acct.UpdatedAt = time.Now().UTC()
	r.accounts[accountID] = acct
	delete(r.tokens, accountID)
	return nil
}

func (r *memoryRepository) StatusByAccount(_ context.Context, accountID string) (Verification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.statuses[accountID]
	if !ok {
		return Verification{}, apperr.NotFound("verification status not found")
	}
	return v, nil
}

func (r *memoryRepository) SetStatus(_ context.Context, accountID string, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.statuses[accountID]
	if !ok {
		return apperr.NotFound("verification status not found")
	}
	v.Status = status
	v.UpdatedAt = time.Now().UTC()
	r.statuses[accountID] = v
	if status == StatusVerified {
		if acct, ok := r.accounts[accountID]; ok {
			acct.AccountVerified = true
			acct.UpdatedAt = v.UpdatedAt
			r.accounts[accountID] = acct
		}
	}
	return nil
}

func (r *memoryRepository) ListPendingVerifications(_ context.Context, limit, offset int) ([]Verification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var pending []Verification
	for _, v := range r.statuses {
		if v.Status == StatusPending {
			pending = append(pending, v)
		}
	}
	// Order mirrors the SQL ORDER BY created_at.
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	if offset >= len(pending) {
		return nil, nil
	}
	pending = pending[offset:]
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}
