package protocol

import "fmt"

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Request/action layer.
	ErrBadRequest = "E_BAD_REQUEST"
	ErrStale      = "E_STALE"
	ErrInternal   = "E_INTERNAL"

	// Catalog/inventory/equipment.
	ErrUnknownItem    = "E_UNKNOWN_ITEM"
	ErrNotInInventory = "E_NOT_IN_INVENTORY"
	ErrSlotEmpty      = "E_SLOT_EMPTY"

	// Corpse recovery.
	ErrNotFound      = "E_NOT_FOUND"
	ErrNotYourCorpse = "E_NOT_YOUR_CORPSE"
	ErrTooFar        = "E_TOO_FAR"

	// Trading.
	ErrNoSpice       = "E_NO_SPICE"
	ErrNotForSale    = "E_NOT_FOR_SALE"
	ErrNotInSafeZone = "E_NOT_IN_SAFE_ZONE"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrBadRequest:      {},
	ErrStale:           {},
	ErrInternal:        {},
	ErrUnknownItem:     {},
	ErrNotInInventory:  {},
	ErrSlotEmpty:       {},
	ErrNotFound:        {},
	ErrNotYourCorpse:   {},
	ErrTooFar:          {},
	ErrNoSpice:         {},
	ErrNotForSale:      {},
	ErrNotInSafeZone:   {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}

// CodedError is the structured failure managers return instead of panicking.
// Code is one of the E_* constants; Reason is human readable.
type CodedError struct {
	Code   string
	Reason string
}

func (e *CodedError) Error() string { return e.Code + ": " + e.Reason }

// Errf builds a CodedError with a formatted reason.
func Errf(code, format string, args ...any) *CodedError {
	return &CodedError{Code: code, Reason: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the wire code from an error. Unknown error types map to
// E_INTERNAL; nil maps to the empty string.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	if ce, ok := err.(*CodedError); ok {
		return ce.Code
	}
	return ErrInternal
}

// ReasonOf extracts the human readable part, leaving the code to CodeOf.
func ReasonOf(err error) string {
	if err == nil {
		return ""
	}
	if ce, ok := err.(*CodedError); ok {
		return ce.Reason
	}
	return err.Error()
}
