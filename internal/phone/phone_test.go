package phone

import (
	"testing"

	"github.com/mxe-wallet/mxe_wallet/internal/apperr"
)

func TestNormalizeE164Passthrough(t *testing.T) {
	got, err := Normalize("+2348011111111", "", "NG")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if got != "+2348011111111" {
		t.Fatalf("expected +2348011111111, got %s", got)
	}
}

func TestNormalizeLocalWithCountryCode(t *testing.T) {
	got, err := Normalize("08011111111", "+234", "NG")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if got != "+2348011111111" {
		t.Fatalf("expected +2348011111111, got %s", got)
	}
}

func TestNormalizeLocalWithRegionFallback(t *testing.T) {
	got, err := Normalize("08011111111", "", "NG")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if got != "+2348011111111" {
		t.Fatalf("expected +2348011111111, got %s", got)
	}
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	if _, err := Normalize("not-a-number", "", "NG"); err == nil {
		t.Fatalf("expected error")
	} else if apperr.KindOf(err) != apperr.KindBadRequest {
		t.Fatalf("expected bad request, got %v", err)
	}
}

func TestNormalizeRejectsEmpty(t *testing.T) {
	if _, err := Normalize("  ", "+234", "NG"); err == nil {
		t.Fatalf("expected error")
	}
}
