package wallet

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mxe-wallet/mxe_wallet/internal/account"
	"github.com/mxe-wallet/mxe_wallet/internal/apperr"
)

func seedAccount(t *testing.T, repo account.Repository, email string, verified bool) account.Account {
	t.Helper()
	acct, err := repo.CreateAccount(context.Background(), account.Account{
		ID:             uuid.New().String(),
		MobileNumber:   "+2348011111111",
		Email:          email,
		FirstName:      "Andy",
		LastName:       "Okafor",
		MxeTag:         "andy",
		Role:           account.RoleUser,
		MobileVerified: verified,
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return acct
}

func TestCreateWallet(t *testing.T) {
	accounts := account.NewMemoryRepository()
	svc := NewService(NewMemoryRepository(), accounts)
	ctx := context.Background()

	acct := seedAccount(t, accounts, "a@x.com", true)

	w, err := svc.Create(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	if w.AccountID != acct.ID || w.Email != "a@x.com" {
		t.Fatalf("wallet not linked to account: %+v", w)
	}
	if w.Balance != 0 || w.Currency != defaultCurrency {
		t.Fatalf("new wallet must start empty: %+v", w)
	}

	if _, err := svc.Create(ctx, "a@x.com"); apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict on second wallet, got %v", err)
	}
}

func TestCreateWalletRequiresCompletedAccount(t *testing.T) {
	accounts := account.NewMemoryRepository()
	svc := NewService(NewMemoryRepository(), accounts)
	ctx := context.Background()

	seedAccount(t, accounts, "a@x.com", false)

	if _, err := svc.Create(ctx, "a@x.com"); apperr.KindOf(err) != apperr.KindBadRequest {
		t.Fatalf("expected bad request for unverified account, got %v", err)
	}
	if _, err := svc.Create(ctx, "nobody@x.com"); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found for unknown account, got %v", err)
	}
}

func TestWalletDetails(t *testing.T) {
	accounts := account.NewMemoryRepository()
	svc := NewService(NewMemoryRepository(), accounts)
	ctx := context.Background()

	seedAccount(t, accounts, "a@x.com", true)
	if _, err := svc.Create(ctx, "a@x.com"); err != nil {
		t.Fatalf("create wallet: %v", err)
	}

	d, err := svc.Details(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if d.MxeTag != "andy" || d.FirstName != "Andy" || d.LastName != "Okafor" {
		t.Fatalf("profile not joined: %+v", d)
	}

	if _, err := svc.Details(ctx, "nobody@x.com"); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestTransactionsPagination(t *testing.T) {
	accounts := account.NewMemoryRepository()
	wallets := NewMemoryRepository()
	svc := NewService(wallets, accounts)
	ctx := context.Background()

	seedAccount(t, accounts, "a@x.com", true)
	w, err := svc.Create(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("create wallet: %v", err)
	}

	base := time.Now().UTC()
	for i := 0; i < 3; i++ {
		err := wallets.RecordTransaction(ctx, Transaction{
			ID:           uuid.New().String(),
			WalletID:     w.ID,
			AccountEmail: "a@x.com",
			Reference:    "ref-" + string(rune('a'+i)),
			Kind:         "CREDIT",
			Amount:       int64(100 * (i + 1)),
			Narration:    "funding",
			CreatedAt:    base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("record transaction: %v", err)
		}
	}

	page, err := svc.Transactions(ctx, "a@x.com", 1, 2)
	if err != nil {
		t.Fatalf("transactions: %v", err)
	}
	if len(page.Transactions) != 2 {
		t.Fatalf("expected 2 on first page, got %d", len(page.Transactions))
	}
	if page.Transactions[0].Reference != "ref-c" {
		t.Fatalf("expected newest first, got %s", page.Transactions[0].Reference)
	}

	page, err = svc.Transactions(ctx, "a@x.com", 2, 2)
	if err != nil {
		t.Fatalf("transactions: %v", err)
	}
	if len(page.Transactions) != 1 || page.Transactions[0].Reference != "ref-a" {
		t.Fatalf("unexpected second page: %+v", page.Transactions)
	}

	if _, err := svc.Transactions(ctx, "a@x.com", 0, 2); apperr.KindOf(err) != apperr.KindBadRequest {
		t.Fatalf("expected bad request for page 0, got %v", err)
	}
	if _, err := svc.Transactions(ctx, "nobody@x.com", 1, 2); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found for missing wallet, got %v", err)
	}
}

func TestDuplicateReferenceRejected(t *testing.T) {
	accounts := account.NewMemoryRepository()
	wallets := NewMemoryRepository()
	svc := NewService(wallets, accounts)
	ctx := context.Background()

	seedAccount(t, accounts, "a@x.com", true)
	w, err := svc.Create(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("create wallet: %v", err)
	}

	tx := Transaction{
		ID:           uuid.New().String(),
		WalletID:     w.ID,
		AccountEmail: "a@x.com",
		Reference:    "ref-1",
		Kind:         "CREDIT",
		Amount:       500,
		CreatedAt:    time.Now().UTC(),
	}
	if err := wallets.RecordTransaction(ctx, tx); err != nil {
		t.Fatalf("record: %v", err)
	}
	tx.ID = uuid.New().String()
	if err := wallets.RecordTransaction(ctx, tx); apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict on duplicate reference, got %v", err)
	}

	got, err := svc.Transaction(ctx, "a@x.com", tx.ID)
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("rejected transaction must not be stored, got %+v %v", got, err)
	}
}
