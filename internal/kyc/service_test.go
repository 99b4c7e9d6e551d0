package kyc

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mxe-wallet/mxe_wallet/internal/account"
	"github.com/mxe-wallet/mxe_wallet/internal/apperr"
	"github.com/mxe-wallet/mxe_wallet/internal/storage"
)

func seedAccount(t *testing.T, repo account.Repository, email string) account.Account {
	t.Helper()
	acct, err := repo.CreateAccount(context.Background(), account.Account{
		ID:             uuid.New().String(),
		MobileNumber:   "+2348011111111",
		Email:          email,
		Role:           account.RoleUser,
		MobileVerified: true,
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return acct
}

func idCard() Document {
	return Document{
		Name:        "idcard.png",
		ContentType: "image/png",
		Size:        4,
		Content:     strings.NewReader("data"),
	}
}

func TestRequestVerificationMovesToPending(t *testing.T) {
	repo := account.NewMemoryRepository()
	store := storage.NewMemoryStore()
	svc := NewService(repo, store)
	ctx := context.Background()

	acct := seedAccount(t, repo, "a@x.com")

	if err := svc.RequestVerification(ctx, "a@x.com", "12345678901", idCard()); err != nil {
		t.Fatalf("request verification: %v", err)
	}

	v, err := repo.StatusByAccount(ctx, acct.ID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if v.Status != account.StatusPending {
		t.Fatalf("expected PENDING, got %s", v.Status)
	}

	updated, err := repo.FindByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if updated.BVN != "12345678901" || updated.NationalIDCardURL == "" {
		t.Fatalf("documents not stored: %+v", updated)
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 stored object, got %d", store.Len())
	}
}

func TestRequestVerificationRequiresBVNAndDocument(t *testing.T) {
	repo := account.NewMemoryRepository()
	svc := NewService(repo, storage.NewMemoryStore())
	ctx := context.Background()

	acct := seedAccount(t, repo, "a@x.com")

	err := svc.RequestVerification(ctx, "a@x.com", "", idCard())
	if apperr.KindOf(err) != apperr.KindBadRequest {
		t.Fatalf("expected bad request without bvn, got %v", err)
	}
	err = svc.RequestVerification(ctx, "a@x.com", "12345678901", Document{})
	if apperr.KindOf(err) != apperr.KindBadRequest {
		t.Fatalf("expected bad request without document, got %v", err)
	}

	v, err := repo.StatusByAccount(ctx, acct.ID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if v.Status != account.StatusUnverified {
		t.Fatalf("rejected submission must not advance status, got %s", v.Status)
	}
}

func TestRequestVerificationUnknownAccount(t *testing.T) {
	svc := NewService(account.NewMemoryRepository(), storage.NewMemoryStore())
	err := svc.RequestVerification(context.Background(), "nobody@x.com", "1", idCard())
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRequestVerificationUploadFailure(t *testing.T) {
	repo := account.NewMemoryRepository()
	store := storage.NewMemoryStore()
	store.FailWith = context.DeadlineExceeded
	svc := NewService(repo, store)
	ctx := context.Background()

	acct := seedAccount(t, repo, "a@x.com")

	err := svc.RequestVerification(ctx, "a@x.com", "12345678901", idCard())
	if apperr.KindOf(err) != apperr.KindInternal {
		t.Fatalf("expected internal, got %v", err)
	}
	v, err := repo.StatusByAccount(ctx, acct.ID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if v.Status != account.StatusUnverified {
		t.Fatalf("failed upload must not advance status, got %s", v.Status)
	}
}

func TestApproveTransitions(t *testing.T) {
	repo := account.NewMemoryRepository()
	svc := NewService(repo, storage.NewMemoryStore())
	ctx := context.Background()

	acct := seedAccount(t, repo, "a@x.com")

	// Nothing submitted yet.
	err := svc.Approve(ctx, "a@x.com")
	if apperr.KindOf(err) != apperr.KindBadRequest {
		t.Fatalf("expected bad request from UN_VERIFIED, got %v", err)
	}

	if err := svc.RequestVerification(ctx, "a@x.com", "12345678901", idCard()); err != nil {
		t.Fatalf("request verification: %v", err)
	}
	if err := svc.Approve(ctx, "a@x.com"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	v, err := repo.StatusByAccount(ctx, acct.ID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if v.Status != account.StatusVerified {
		t.Fatalf("expected VERIFIED, got %s", v.Status)
	}
	updated, err := repo.FindByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if !updated.AccountVerified {
		t.Fatalf("approval must set the account verified flag")
	}

	// Approval is not idempotent.
	err = svc.Approve(ctx, "a@x.com")
	if apperr.KindOf(err) != apperr.KindBadRequest {
		t.Fatalf("expected bad request on re-approval, got %v", err)
	}

	// A verified account cannot resubmit.
	err = svc.RequestVerification(ctx, "a@x.com", "12345678901", idCard())
	if apperr.KindOf(err) != apperr.KindBadRequest {
		t.Fatalf("expected bad request on resubmission, got %v", err)
	}
}

func TestApproveUnknownAccount(t *testing.T) {
	svc := NewService(account.NewMemoryRepository(), storage.NewMemoryStore())
	err := svc.Approve(context.Background(), "nobody@x.com")
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListPendingPagination(t *testing.T) {
	repo := account.NewMemoryRepository()
	svc := NewService(repo, storage.NewMemoryStore())
	ctx := context.Background()

	emails := []string{"a@x.com", "b@x.com", "c@x.com"}
	for i, email := range emails {
		acct, err := repo.CreateAccount(ctx, account.Account{
			ID:             uuid.New().String(),
			MobileNumber:   "+23480111111" + string(rune('0'+i)),
			Email:          email,
			Role:           account.RoleUser,
			MobileVerified: true,
			CreatedAt:      time.Now().UTC().Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
		if err := repo.SetStatus(ctx, acct.ID, account.StatusPending); err != nil {
			t.Fatalf("set status: %v", err)
		}
	}

	page, err := svc.ListPending(ctx, 1, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Pending) != 2 || page.Page != 1 || page.PageSize != 2 {
		t.Fatalf("unexpected first page: %+v", page)
	}

	page, err = svc.ListPending(ctx, 2, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Pending) != 1 {
		t.Fatalf("expected 1 record on second page, got %d", len(page.Pending))
	}

	if _, err := svc.ListPending(ctx, 0, 2); apperr.KindOf(err) != apperr.KindBadRequest {
		t.Fatalf("expected bad request for page 0, got %v", err)
	}
}
