// Package reader defines the physical-reader interfaces the rest of
// the core is built against, and a PC/SC adapter implementing them.
package reader

import (
	"errors"

	"github.com/opencard/scardcore/pkg/apdu"
)

// ErrSlotNotFound is the sentinel a Reader's Connect/Disconnect wraps
// when the requested slot does not address an existing slot.
// session.Connect classifies it as apdu.SlotNotFound.
var ErrSlotNotFound = errors.New("reader: no such slot")

// Reader is a physical reader subsystem addressing one or more card
// slots by integer index, capable of exchanging T=0 APDUs with
// whichever slot was most recently connected.
type Reader interface {
	apdu.Transmitter

	// Connect resolves slot and opens a connection to its card,
	// capturing the ATR for later retrieval via ATR(). Implementations
	// return an error satisfying errors.Is(err, ErrSlotNotFound) when
	// slot does not address an existing slot.
	Connect(slot int) error

	// ATR returns the answer-to-reset bytes captured by the most
	// recent Connect.
	ATR() []byte

	// Disconnect tears down slot's physical connection. action mirrors
	// the PC/SC disposition (leave/reset/unpower/eject the card).
	Disconnect(slot int, action DisconnectAction) error
}

// Locker is the optional per-slot exclusive-locking capability. A
// Reader is checked for it via type-assertion; readers that don't
// implement it are treated as nil-safe no-ops by session.Connect.
type Locker interface {
	Lock(slot int) error
	Unlock(slot int) error
}

// DisconnectAction selects what happens to the card on disconnect.
type DisconnectAction int

const (
	LeaveCard DisconnectAction = iota
	ResetCard
	UnpowerCard
	EjectCard
)
