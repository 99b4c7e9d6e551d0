// Package kyc implements the account verification workflow: document
// submission, manual review and approval.
package kyc

import (
	"context"
	"io"

	"github.com/mxe-wallet/mxe_wallet/internal/account"
	"github.com/mxe-wallet/mxe_wallet/internal/apperr"
	"github.com/mxe-wallet/mxe_wallet/internal/storage"
)

// Service drives the UN_VERIFIED -> PENDING -> VERIFIED review pipeline.
type Service struct {
	repo  account.Repository
	store storage.Uploader
}

// NewService builds the KYC service.
func NewService(repo account.Repository, store storage.Uploader) *Service {
	return &Service{repo: repo, store: store}
}

// Document is an uploaded ID-card image.
type Document struct {
	Name        string
	ContentType string
	Size        int64
	Content     io.Reader
}

// RequestVerification stores the submitted BVN and ID card and moves the
// account into review. Both must be present in the submission; a VERIFIED
// account cannot resubmit.
func (s *Service) RequestVerification(ctx context.Context, email, bvn string, doc Document) error {
	acct, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if acct.AccountVerified {
		return apperr.BadRequest("account already verified")
	}
	if bvn == "" || doc.Content == nil {
		return apperr.BadRequest("verification failed: national id card or bvn not provided")
	}

	url, err := s.store.Upload(ctx, storage.BucketIDCard, storage.ObjectName(doc.Name), doc.ContentType, doc.Content, doc.Size)
	if err != nil {
		return apperr.Internal("upload id card", err)
	}
	if err := s.repo.SetKYCDocuments(ctx, email, bvn, url); err != nil {
		return err
	}
	return s.repo.SetStatus(ctx, acct.ID, account.StatusPending)
}

// Approve moves a PENDING account to VERIFIED. Approving an account that
// never submitted, or one already verified, is an error rather than a
// silent success.
func (s *Service) Approve(ctx context.Context, email string) error {
	acct, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	verification, err := s.repo.StatusByAccount(ctx, acct.ID)
	if err != nil {
		return err
	}
	switch verification.Status {
	case account.StatusUnverified:
		return apperr.BadRequest("user has not yet requested verification")
	case account.StatusVerified:
		return apperr.BadRequest("user already verified")
	}
	return s.repo.SetStatus(ctx, acct.ID, account.StatusVerified)
}

// Page is one page of pending review records with its echoed parameters.
type Page struct {
	Pending  []account.Verification
	Page     int
	PageSize int
}

// ListPending pages over accounts awaiting review, oldest first.
func (s *Service) ListPending(ctx context.Context, page, pageSize int) (Page, error) {
	if page < 1 || pageSize < 1 {
		return Page{}, apperr.BadRequest("page and pageSize must be positive")
	}
	skip := (page - 1) * pageSize
	pending, err := s.repo.ListPendingVerifications(ctx, pageSize, skip)
	if err != nil {
		return Page{}, err
	}
	return Page{Pending: pending, Page: page, PageSize: pageSize}, nil
}
