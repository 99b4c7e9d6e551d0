package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mxe-wallet/mxe_wallet/internal/account"
	"github.com/mxe-wallet/mxe_wallet/internal/apperr"
	"github.com/mxe-wallet/mxe_wallet/internal/config"
	"github.com/mxe-wallet/mxe_wallet/internal/otp"
	"github.com/mxe-wallet/mxe_wallet/internal/phone"
	"github.com/mxe-wallet/mxe_wallet/internal/sms"
)

const minPINLength = 4

// Service drives the registration/verification state machine and the
// credential lifecycle for accounts.
type Service struct {
	repo   account.Repository
	otp    otp.Generator
	sender sms.Sender
	issuer *Issuer
	otpTTL time.Duration
	region string
	now    func() time.Time
}

// NewService builds the auth service.
func NewService(cfg config.Config, repo account.Repository, gen otp.Generator, sender sms.Sender, issuer *Issuer) *Service {
	return &Service{
		repo:   repo,
		otp:    gen,
		sender: sender,
		issuer: issuer,
		otpTTL: cfg.OTPTTL,
		region: cfg.DefaultRegion,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// StartVerification begins registration for a mobile number: it creates the
// pending account, issues its verification token and sends the code by SMS.
//
// A verified account on the same number blocks re-registration; an unverified
// one is deleted first so an abandoned signup never reserves the number.
// Federated accounts are never deleted this way.
func (s *Service) StartVerification(ctx context.Context, mobileNumber, countryCode string) (account.Account, error) {
	normalized, err := phone.Normalize(mobileNumber, countryCode, s.region)
	if err != nil {
		return account.Account{}, err
	}

	existing, err := s.repo.FindByMobile(ctx, normalized)
	switch {
	case err == nil:
		if existing.MobileVerified || existing.Federated {
			return account.Account{}, apperr.Conflict("user with mobile number is already verified")
		}
		if err := s.repo.DeleteAccount(ctx, existing.ID); err != nil {
			return account.Account{}, err
		}
	case apperr.KindOf(err) != apperr.KindNotFound:
		return account.Account{}, err
	}

	code, err := s.otp.Generate()
	if err != nil {
		return account.Account{}, apperr.Internal("generate otp", err)
	}

	now := s.now()
	acct := account.Account{
		ID:           uuid.New().String(),
		MobileNumber: normalized,
		Role:         account.RoleUser,
		CreatedAt:    now,
	}
	// A concurrent registration for the same number loses here with Conflict;
	// the store's unique constraint is the arbiter.
	created, err := s.repo.CreateAccount(ctx, acct)
	if err != nil {
		return account.Account{}, err
	}

	token := account.VerificationToken{
		AccountID: created.ID,
		Code:      code,
		ExpiresAt: now.Add(s.otpTTL),
		CreatedAt: now,
	}
	if err := s.repo.ReplaceToken(ctx, token); err != nil {
		return account.Account{}, err
	}

	// Rows stay in place if delivery fails; a resend recovers the flow.
	if err := s.sender.Send(ctx, normalized, otpMessage(code)); err != nil {
		return account.Account{}, apperr.Internal("send verification message", err)
	}
	return created, nil
}

// ResendVerification regenerates the code, replaces the live token and
// re-sends. There is never more than one live token per account.
func (s *Service) ResendVerification(ctx context.Context, accountID string) error {
	acct, err := s.repo.FindByID(ctx, accountID)
	if err != nil {
		return err
	}
	if acct.MobileVerified {
		return apperr.Conflict("mobile number already verified")
	}

	code, err := s.otp.Generate()
	if err != nil {
		return apperr.Internal("generate otp", err)
	}
	now := s.now()
	token := account.VerificationToken{
		AccountID: acct.ID,
		Code:      code,
		ExpiresAt: now.Add(s.otpTTL),
		CreatedAt: now,
	}
	if err := s.repo.ReplaceToken(ctx, token); err != nil {
		return err
	}
	if err := s.sender.Send(ctx, acct.MobileNumber, otpMessage(code)); err != nil {
		return apperr.Internal("send verification message", err)
	}
	return nil
}

// VerifyMobile checks the submitted code and marks the account verified. The
// token is consumed on success or expiry; a wrong code leaves it intact.
func (s *Service) VerifyMobile(ctx context.Context, mobileNumber, code string) error {
	normalized, err := phone.Normalize(mobileNumber, "", s.region)
	if err != nil {
		return err
	}
	acct, err := s.repo.FindByMobile(ctx, normalized)
	if err != nil {
		return err
	}
	if acct.MobileVerified {
		return apperr.Conflict("mobile number already verified")
	}
	token, err := s.repo.TokenByAccount(ctx, acct.ID)
	if err != nil {
		return err
	}
	if token.Expired(s.now()) {
		if err := s.repo.DeleteToken(ctx, acct.ID); err != nil {
			return err
		}
		return apperr.Unauthorized("otp expired")
	}
	if subtle.ConstantTimeCompare([]byte(token.Code), []byte(code)) != 1 {
		return apperr.Unauthorized("incorrect otp")
	}
	return s.repo.MarkMobileVerified(ctx, acct.ID)
}

// CompleteProfileInput carries the fields submitted when a user finishes
// registration.
type CompleteProfileInput struct {
	MobileNumber string
	PIN          string
	ConfirmPIN   string
	Email        string
	MxeTag       string
	FirstName    string
	LastName     string
	BVN          string
}

// CompleteProfile sets the credentials and profile of a verified account.
// Email and tag collisions surface as Conflict from the repository.
func (s *Service) CompleteProfile(ctx context.Context, input CompleteProfileInput) (account.Account, error) {
	if input.PIN != input.ConfirmPIN {
		return account.Account{}, apperr.BadRequest("pin confirmation does not match")
	}
	if len(input.PIN) < minPINLength {
		return account.Account{}, apperr.BadRequest("pin must be at least 4 digits")
	}

	normalized, err := phone.Normalize(input.MobileNumber, "", s.region)
	if err != nil {
		return account.Account{}, err
	}
	acct, err := s.repo.FindByMobile(ctx, normalized)
	if err != nil {
		return account.Account{}, err
	}
	if !acct.MobileVerified {
		return account.Account{}, apperr.BadRequest("mobile number not verified")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.PIN), bcrypt.DefaultCost)
	if err != nil {
		return account.Account{}, apperr.Internal("hash pin", err)
	}
	return s.repo.CompleteProfile(ctx, acct.ID, account.ProfilePatch{
		Email:     input.Email,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		MxeTag:    input.MxeTag,
		PINHash:   hash,
		BVN:       input.BVN,
	})
}

// TagAvailable reports whether an mxe tag is free. Pure query; nothing is
// reserved.
func (s *Service) TagAvailable(ctx context.Context, tag string) (bool, error) {
	_, err := s.repo.FindByTag(ctx, tag)
	if err == nil {
		return false, nil
	}
	if apperr.KindOf(err) == apperr.KindNotFound {
		return true, nil
	}
	return false, err
}

// Login validates the PIN and issues a short-lived session token.
func (s *Service) Login(ctx context.Context, mobileNumber, pin string) (string, account.Account, error) {
	normalized, err := phone.Normalize(mobileNumber, "", s.region)
	if err != nil {
		return "", account.Account{}, err
	}
	acct, err := s.repo.FindByMobile(ctx, normalized)
	if err != nil {
		return "", account.Account{}, err
	}
	if bcrypt.CompareHashAndPassword(acct.PINHash, []byte(pin)) != nil {
		return "", account.Account{}, apperr.Unauthorized("incorrect pin")
	}
	token, err := s.issuer.Sign(acct)
	if err != nil {
		return "", account.Account{}, err
	}
	return token, acct, nil
}

// ChangePin verifies the old PIN and atomically replaces the hash.
func (s *Service) ChangePin(ctx context.Context, email, oldPin, newPin string) error {
	if len(newPin) < minPINLength {
		return apperr.BadRequest("pin must be at least 4 digits")
	}
	acct, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword(acct.PINHash, []byte(oldPin)) != nil {
		return apperr.Unauthorized("incorrect pin")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPin), bcrypt.DefaultCost)
	if err != nil {
		return apperr.Internal("hash pin", err)
	}
	return s.repo.UpdatePIN(ctx, acct.ID, hash)
}

// ElevateAdmin grants the ADMIN role to the account with the given email.
// The caller is expected to already be privileged; see routes for the gap.
func (s *Service) ElevateAdmin(ctx context.Context, email string) error {
	return s.repo.SetRole(ctx, email, account.RoleAdmin)
}

// UpdateDetails patches names and tag for the account with the given email.
func (s *Service) UpdateDetails(ctx context.Context, email string, patch account.DetailsPatch) (account.Account, error) {
	return s.repo.UpdateDetails(ctx, email, patch)
}

// FederatedLogin finds or creates an account for an externally attested
// identity and issues the usual session token. The provider's attestation
// substitutes for OTP verification, so the account is created pre-verified.
func (s *Service) FederatedLogin(ctx context.Context, email, firstName, lastName string) (string, account.Account, error) {
	if email == "" {
		return "", account.Account{}, apperr.BadRequest("email is required")
	}
	acct, err := s.repo.FindByEmail(ctx, email)
	if apperr.KindOf(err) == apperr.KindNotFound {
		acct, err = s.repo.CreateAccount(ctx, account.Account{
			ID:             uuid.New().String(),
			Email:          email,
			FirstName:      firstName,
			LastName:       lastName,
			Role:           account.RoleUser,
			MobileVerified: true,
			Federated:      true,
			CreatedAt:      s.now(),
		})
	}
	if err != nil {
		return "", account.Account{}, err
	}
	token, err := s.issuer.Sign(acct)
	if err != nil {
		return "", account.Account{}, err
	}
	return token, acct, nil
}

func otpMessage(code string) string {
	return fmt.Sprintf("Your mobile verification otp is %s", code)
}
