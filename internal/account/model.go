package account

import "time"

// Role determines what privileged operations an account may perform.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Status tracks the KYC document-review pipeline for an account.
type Status string

const (
	StatusUnverified Status = "UN_VERIFIED"
	StatusPending    Status = "PENDING"
	StatusVerified   Status = "VERIFIED"
)

// Account is the identity record behind a wallet. Mobile number, email and
// mxe tag are each globally unique when set; an account is usable for login
// only once a PIN hash and a verified mobile number exist.
type Account struct {
	ID                string
	MobileNumber      string
	Email             string
	FirstName         string
	LastName          string
	MxeTag            string
	PINHash           []byte
	Role              Role
	MobileVerified    bool
	AccountVerified   bool
	BVN               string
	NationalIDCardURL string
	Federated         bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// VerificationToken is the short-lived OTP proof bound 1:1 to an account.
// At most one live token exists per account; consuming or resending replaces it.
type VerificationToken struct {
	AccountID string
	Code      string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the token is past its validity window.
func (t VerificationToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// Verification is the KYC review record owned by an account.
type Verification struct {
	AccountID string
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}
