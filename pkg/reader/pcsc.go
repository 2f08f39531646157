package reader

import (
	"fmt"
	"sync"

	"github.com/ebfe/scard"
)

// PCSC adapts a PC/SC context (github.com/ebfe/scard) to Reader,
// addressing slots by their index into the PC/SC reader enumeration.
// Lock/Unlock wrap scard's BeginTransaction/EndTransaction, matching
// OpenSC's reader->ops->lock/unlock hook (sc_lock/sc_unlock in
// card.c).
type PCSC struct {
	ctx   *scard.Context
	names []string

	card *scard.Card
	slot int
	atr  []byte

	mu sync.Mutex
}

// ListReaders enumerates connected PC/SC reader names.
func ListReaders() ([]string, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("reader: establish PC/SC context: %w", err)
	}
	defer ctx.Release()

	readers, err := ctx.ListReaders()
	if err != nil {
		return nil, fmt.Errorf("reader: list readers: %w", err)
	}
	return readers, nil
}

// Open establishes a PC/SC context and enumerates its readers, without
// connecting to any slot yet. Connect(slot) addresses a specific
// reader by its index into that enumeration.
func Open() (*PCSC, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("reader: establish PC/SC context: %w", err)
	}

	names, err := ctx.ListReaders()
	if err != nil {
		ctx.Release()
		return nil, fmt.Errorf("reader: list readers: %w", err)
	}

	return &PCSC{ctx: ctx, names: names}, nil
}

// Connect resolves slot against the enumerated reader list and opens a
// shared-mode connection to its card, capturing the ATR. Returns an
// error wrapping ErrSlotNotFound when slot is out of range.
func (p *PCSC) Connect(slot int) error {
	if slot < 0 || slot >= len(p.names) {
		return fmt.Errorf("reader: slot %d: %w (have %d)", slot, ErrSlotNotFound, len(p.names))
	}

	card, err := p.ctx.Connect(p.names[slot], scard.ShareShared, scard.ProtocolAny)
	if err != nil {
		return fmt.Errorf("reader: connect to slot %d (%q): %w", slot, p.names[slot], err)
	}

	status, err := card.Status()
	if err != nil {
		card.Disconnect(scard.LeaveCard)
		return fmt.Errorf("reader: status of slot %d: %w", slot, err)
	}

	p.mu.Lock()
	p.card, p.slot, p.atr = card, slot, status.Atr
	p.mu.Unlock()
	return nil
}

func (p *PCSC) ATR() []byte { return p.atr }

// Transmit sends the wire-framed APDU in send and copies the card's
// reply into recv, returning how many bytes were written. scard
// returns its own freshly-allocated slice per call; this copies into
// the caller's buffer to satisfy the Transmitter contract without
// handing back aliased memory.
func (p *PCSC) Transmit(send, recv []byte) (int, error) {
	reply, err := p.card.Transmit(send)
	if err != nil {
		return 0, fmt.Errorf("reader: transmit: %w", err)
	}
	n := len(reply)
	if n > len(recv) {
		n = len(recv)
	}
	copy(recv, reply[:n])
	return n, nil
}

// Lock claims exclusive access to slot's card. PCSC only ever holds
// one connected card at a time, so slot is used solely to keep the
// Locker contract honest about which slot is locked.
func (p *PCSC) Lock(slot int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.card.BeginTransaction(); err != nil {
		return fmt.Errorf("reader: begin transaction on slot %d: %w", slot, err)
	}
	return nil
}

func (p *PCSC) Unlock(slot int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.card.EndTransaction(scard.LeaveCard); err != nil {
		return fmt.Errorf("reader: end transaction on slot %d: %w", slot, err)
	}
	return nil
}

func (p *PCSC) Disconnect(slot int, action DisconnectAction) error {
	disp := scardDisposition(action)
	if err := p.card.Disconnect(disp); err != nil {
		return fmt.Errorf("reader: disconnect slot %d: %w", slot, err)
	}
	return p.ctx.Release()
}

func scardDisposition(action DisconnectAction) scard.Disposition {
	switch action {
	case ResetCard:
		return scard.ResetCard
	case UnpowerCard:
		return scard.UnpowerCard
	case EjectCard:
		return scard.EjectCard
	default:
		return scard.LeaveCard
	}
}
