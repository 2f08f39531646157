package apdu

import "fmt"

// Kind classifies the errors the core surfaces to callers.
// Driver-specific status-word classifications also use Kind=CardStatus,
// wrapping whatever error the driver's CheckSW callback produced.
type Kind int

const (
	// InvalidArguments: APDU validation failure, malformed path, oversized input.
	InvalidArguments Kind = iota
	// NotSupported: driver or reader dispatch slot is null.
	NotSupported
	// SlotNotFound: no slot matches the requested id.
	SlotNotFound
	// OutOfMemory: allocation failure.
	OutOfMemory
	// InvalidCard: no driver matched, or driver init returned invalid-card.
	InvalidCard
	// Transport: reader-callback failure, opaque from the core's view.
	Transport
	// CardStatus: a driver classified a non-success status word.
	CardStatus
)

func (k Kind) String() string {
	switch k {
	case InvalidArguments:
		return "invalid arguments"
	case NotSupported:
		return "not supported"
	case SlotNotFound:
		return "slot not found"
	case OutOfMemory:
		return "out of memory"
	case InvalidCard:
		return "invalid card"
	case Transport:
		return "transport"
	case CardStatus:
		return "card status"
	default:
		return "unknown"
	}
}

// Error is the error type returned throughout this module. Op names
// the failing operation (e.g. "apdu.Validate", "card.SelectFile") so
// callers can log a stable identifier without parsing message text.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether err carries the given Kind, looking through
// wrapped errors the way errors.Is expects.
func Is(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind == kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

func newErr(op string, kind Kind, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}
