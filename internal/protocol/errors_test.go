package protocol

import (
	"errors"
	"testing"
)

func TestIsKnownCode(t *testing.T) {
	cases := []string{
		"",
		ErrProtoBadRequest,
		ErrBadRequest,
		ErrStale,
		ErrInternal,
		ErrUnknownItem,
		ErrNotInInventory,
		ErrSlotEmpty,
		ErrNotFound,
		ErrNotYourCorpse,
		ErrTooFar,
		ErrNoSpice,
		ErrNotForSale,
		ErrNotInSafeZone,
	}
	for _, c := range cases {
		if !IsKnownCode(c) {
			t.Fatalf("expected known code: %q", c)
		}
	}
	if IsKnownCode("E_NOT_DEFINED") {
		t.Fatalf("expected unknown code rejected")
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(nil); got != "" {
		t.Fatalf("CodeOf(nil) = %q", got)
	}
	if got := CodeOf(Errf(ErrTooFar, "corpse at %.1fm", 5.1)); got != ErrTooFar {
		t.Fatalf("CodeOf coded = %q", got)
	}
	if got := CodeOf(errors.New("disk on fire")); got != ErrInternal {
		t.Fatalf("CodeOf plain = %q, want %q", got, ErrInternal)
	}
}

func TestCodedErrorMessage(t *testing.T) {
	err := Errf(ErrNotYourCorpse, "corpse %s belongs to %s", "c1", "p2")
	want := "E_NOT_YOUR_CORPSE: corpse c1 belongs to p2"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}
