// Package session implements the card object: driver dispatch,
// resolution, and lifecycle (connect/disconnect), the reference-
// counted exclusive lock, and the transient per-lock cache, grounded
// on OpenSC's struct sc_card and sc_connect_card/sc_disconnect_card.
package session

import (
	"errors"
	"fmt"

	"github.com/opencard/scardcore/internal/corelog"
	"github.com/opencard/scardcore/pkg/algorithm"
	"github.com/opencard/scardcore/pkg/apdu"
	"github.com/opencard/scardcore/pkg/driver"
	"github.com/opencard/scardcore/pkg/path"
	"github.com/opencard/scardcore/pkg/reader"
)

var errInvalidCard = errors.New("session: invalid or disconnected card")

// Capability is a bit in the card's capability bitset.
type Capability uint32

const (
	// CapExtendedAPDU means the façade's chunking shortcut should not
	// apply: the driver itself handles buffers larger than the
	// short-APDU chop size.
	CapExtendedAPDU Capability = 1 << iota
)

// Application is one entry in the card's EF.DIR application list.
type Application struct {
	AID   []byte
	Label string
	Path  path.Reference
}

// Card is the connected-session object the façade, driver, and
// callers share: reader/slot reference, captured ATR, resolved driver
// and its dispatch-table copy, algorithm registry, capability bitset,
// application list, exclusive lock, and a transient cache valid only
// while locked.
type Card struct {
	Reader reader.Reader
	Slot   int
	ATR    []byte

	driverName string
	table      driver.Table

	Algorithms   algorithm.Registry
	Capabilities Capability
	Applications []Application

	lock *locker

	// cache is the transient, lock-scoped state (e.g. currently
	// selected file path), zeroed on every unlock-to-zero.
	cache cardCache

	debug int
	magic int
}

type cardCache struct {
	selectedPath path.Reference
	valid        bool
}

// Connect resolves slot against rd, choosing a driver from ctx (forced,
// or the first of ctx.Drivers whose MatchCard accepts the reader's ATR
// and whose Init does not reject it), and returns the new session.
// Resolving an out-of-range slot fails with apdu.SlotNotFound; any
// other failure from rd.Connect fails with apdu.Transport.
//
// A driver's Init returning ErrInvalidCardForDriver is recovered
// locally: the driver pointer is cleared and the next candidate is
// tried. Any other Init error is fatal to Connect.
func Connect(ctx *driver.Context, rd reader.Reader, slot int) (*Card, error) {
	const op = "session.Connect"

	if err := rd.Connect(slot); err != nil {
		if errors.Is(err, reader.ErrSlotNotFound) {
			return nil, newErr(op, apdu.SlotNotFound, err)
		}
		return nil, newErr(op, apdu.Transport, err)
	}

	card := &Card{
		Reader: rd,
		Slot:   slot,
		ATR:    rd.ATR(),
		debug:  ctx.Debug,
	}
	card.setMagic()

	var lockFn, unlockFn func() error
	if lk, ok := rd.(reader.Locker); ok {
		lockFn = func() error { return lk.Lock(slot) }
		unlockFn = func() error { return lk.Unlock(slot) }
	}
	card.lock = newLocker(lockFn, unlockFn, card.invalidateCache)

	if ctx.ForcedDriver != nil {
		card.table = ctx.ForcedDriver.Table()
		card.driverName = ctx.ForcedDriver.Name()
		if card.table.Init != nil {
			if err := card.table.Init(card); err != nil {
				return nil, newErr(op, apdu.InvalidCard, fmt.Errorf("forced driver %q: %w", card.driverName, err))
			}
		}
		return card, nil
	}

	for _, d := range ctx.Drivers {
		if !d.MatchCard(card.ATR) {
			continue
		}
		if ctx.Debug >= 3 {
			corelog.Logger().Infof("%s: driver %q matched ATR, probing init", op, d.Name())
		}

		table := d.Table()
		var err error
		if table.Init != nil {
			err = table.Init(card)
		}
		if err == nil {
			card.table = table
			card.driverName = d.Name()
			return card, nil
		}
		if errors.Is(err, ErrInvalidCardForDriver) {
			if ctx.Debug >= 3 {
				corelog.Logger().Infof("%s: driver %q rejected card, continuing", op, d.Name())
			}
			continue
		}
		return nil, newErr(op, apdu.InvalidCard, fmt.Errorf("driver %q init: %w", d.Name(), err))
	}

	return nil, newErr(op, apdu.InvalidCard, fmt.Errorf("no driver matched ATR %X", card.ATR))
}

// ErrInvalidCardForDriver is returned by a driver's Init to signal
// "this isn't a card I handle" rather than a fatal failure, letting
// Connect continue probing the remaining candidates.
var ErrInvalidCardForDriver = errors.New("session: card rejected by this driver")

func newErr(op string, kind apdu.Kind, err error) error {
	return (&apdu.Error{Kind: kind, Op: op, Err: err})
}

// Disconnect tears the session down: it requires the lock to be fully
// released first, then invokes the driver's Finish and the reader's
// Disconnect. An error from either callback is logged, not returned.
func (c *Card) Disconnect(action reader.DisconnectAction) error {
	const op = "session.Card.Disconnect"

	if err := c.checkValid(); err != nil {
		return newErr(op, apdu.InvalidArguments, err)
	}
	if n := c.lock.Count(); n != 0 {
		return newErr(op, apdu.InvalidArguments, fmt.Errorf("disconnect with lock_count=%d, must be 0", n))
	}

	if c.table.Finish != nil {
		if err := c.table.Finish(c); err != nil {
			corelog.Logger().Warningf("%s: driver finish: %v", op, err)
		}
	}

	c.clearMagic()
	if err := c.Reader.Disconnect(c.Slot, action); err != nil {
		corelog.Logger().Warningf("%s: reader disconnect: %v", op, err)
	}
	return nil
}

// Lock/Unlock expose the session's reference-counted exclusive lock
// to the façade and the APDU engine.
func (c *Card) Lock() error   { return c.lock.Lock() }
func (c *Card) Unlock() error { return c.lock.Unlock() }

func (c *Card) invalidateCache() {
	c.cache = cardCache{}
}

// SelectedPath returns the path most recently stamped by a successful
// SelectFile, valid only while the lock is held.
func (c *Card) SelectedPath() (path.Reference, bool) {
	if !c.cache.valid {
		return path.Reference{}, false
	}
	return c.cache.selectedPath, true
}

// StampSelectedPath records ref as the currently selected path, valid
// until the lock next drops to zero. Called by the card façade after a
// successful SelectFile.
func (c *Card) StampSelectedPath(ref path.Reference) {
	c.cache.selectedPath = ref
	c.cache.valid = true
}

// Transmit runs one APDU exchange through the session's engine,
// implementing driver.Channel so driver operations can issue their own
// sub-commands (e.g. a GET DATA during init).
func (c *Card) Transmit(cmd *apdu.CommandAPDU, resp []byte) (int, apdu.StatusWord, error) {
	if err := c.checkValid(); err != nil {
		return 0, 0, newErr("session.Card.Transmit", apdu.InvalidArguments, err)
	}
	eng := &apdu.Engine{Transmitter: c.Reader, Locker: c.lock, Debug: c.debug}
	return eng.Transmit(cmd, resp)
}

// Table returns the driver's dispatch table, for the façade in
// pkg/card to call against.
func (c *Card) Table() driver.Table { return c.table }

// DriverName reports which driver matched this card, or "" if none
// (should not happen on a successfully connected Card).
func (c *Card) DriverName() string { return c.driverName }
