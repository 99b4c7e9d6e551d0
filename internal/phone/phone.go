// Package phone normalizes subscriber mobile numbers to E.164 before they are
// stored or handed to the SMS gateway.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"

	"github.com/mxe-wallet/mxe_wallet/internal/apperr"
)

// Normalize parses a raw mobile number and returns its E.164 form. Numbers
// without a leading + are interpreted against countryCode (e.g. "+234") when
// given, otherwise against the fallback region (ISO 3166-1 alpha-2).
func Normalize(raw, countryCode, region string) (string, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return "", apperr.BadRequest("mobile number is required")
	}

	if !strings.HasPrefix(cleaned, "+") && countryCode != "" {
		// Local numbers carry a trunk prefix (e.g. 08011111111) that the
		// country code replaces.
		cleaned = strings.TrimPrefix(cleaned, "0")
		cleaned = ensurePlus(countryCode) + cleaned
	}

	num, err := phonenumbers.Parse(cleaned, region)
	if err != nil {
		return "", apperr.BadRequest("mobile number could not be parsed")
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", apperr.BadRequest("mobile number is not valid")
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

func ensurePlus(countryCode string) string {
	if strings.HasPrefix(countryCode, "+") {
		return countryCode
	}
	return "+" + countryCode
}
