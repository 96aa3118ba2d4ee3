package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Command layer.
	ErrBadRequest    = "E_BAD_REQUEST"
	ErrNoFunds       = "E_NO_FUNDS"
	ErrInvalidTarget = "E_INVALID_TARGET"
	ErrUnknownKind   = "E_UNKNOWN_KIND"
	ErrSoldOut       = "E_SOLD_OUT"
	ErrInternal      = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrBadRequest:      {},
	ErrNoFunds:         {},
	ErrInvalidTarget:   {},
	ErrUnknownKind:     {},
	ErrSoldOut:         {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
