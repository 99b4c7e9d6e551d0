package wallet

import "time"

// Wallet is the stored-value record provisioned for a completed account.
type Wallet struct {
	ID        string
	AccountID string
	Email     string
	Balance   int64
	Currency  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Transaction is one movement on a wallet, written by settlement flows and
// read back here for statements.
type Transaction struct {
	ID           string
	WalletID     string
	AccountEmail string
	Reference    string
	Kind         string
	Amount       int64
	Narration    string
	CreatedAt    time.Time
}

// Details joins the wallet with its owner's public profile fields.
type Details struct {
	Wallet    Wallet
	MxeTag    string
	FirstName string
	LastName  string
}
