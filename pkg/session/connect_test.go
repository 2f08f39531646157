package session

import (
	"errors"
	"fmt"
	"testing"

	"github.com/opencard/scardcore/pkg/apdu"
	"github.com/opencard/scardcore/pkg/driver"
	"github.com/opencard/scardcore/pkg/path"
	"github.com/opencard/scardcore/pkg/reader"
)

// fakeReader is a scripted reader.Reader+reader.Locker test double: it
// never talks to real hardware, just records connect/lock/unlock/
// disconnect calls.
type fakeReader struct {
	atr                    []byte
	connectErr             error
	lastConnectSlot        int
	lockCalls, unlockCalls int
	disconnectCalls        int
	lastDisconnectAction   reader.DisconnectAction
}

func (f *fakeReader) Connect(slot int) error {
	f.lastConnectSlot = slot
	return f.connectErr
}
func (f *fakeReader) Transmit(send, recv []byte) (int, error) { return copy(recv, []byte{0x90, 0x00}), nil }
func (f *fakeReader) ATR() []byte                             { return f.atr }
func (f *fakeReader) Lock(slot int) error                     { f.lockCalls++; return nil }
func (f *fakeReader) Unlock(slot int) error                   { f.unlockCalls++; return nil }
func (f *fakeReader) Disconnect(slot int, action reader.DisconnectAction) error {
	f.disconnectCalls++
	f.lastDisconnectAction = action
	return nil
}

// fakeDriver implements driver.Driver with scripted Match/Init/Finish
// behavior, letting tests exercise Connect's probe loop without a real
// card driver.
type fakeDriver struct {
	name      string
	matches   bool
	initErr   error
	initCalls int
}

func (d *fakeDriver) Name() string            { return d.name }
func (d *fakeDriver) MatchCard(atr []byte) bool { return d.matches }
func (d *fakeDriver) Table() driver.Table {
	return driver.Table{
		Init: func(ch driver.Channel) error {
			d.initCalls++
			return d.initErr
		},
	}
}

func TestConnectForcedDriver(t *testing.T) {
	rd := &fakeReader{atr: []byte{0x3B, 0x00}}
	fd := &fakeDriver{name: "forced"}
	ctx := &driver.Context{ForcedDriver: fd}

	c, err := Connect(ctx, rd, 0)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if c.DriverName() != "forced" {
		t.Errorf("DriverName() = %q, want %q", c.DriverName(), "forced")
	}
	if fd.initCalls != 1 {
		t.Errorf("Init called %d times, want 1", fd.initCalls)
	}
}

// TestConnectProbesPastRejection covers scenario (e): the first driver
// in the probe list rejects the card (ErrInvalidCardForDriver) and the
// second one accepts it.
func TestConnectProbesPastRejection(t *testing.T) {
	rd := &fakeReader{atr: []byte{0x3B, 0x00}}
	rejecting := &fakeDriver{name: "rejecting", matches: true, initErr: ErrInvalidCardForDriver}
	accepting := &fakeDriver{name: "accepting", matches: true}
	ctx := &driver.Context{Drivers: []driver.Driver{rejecting, accepting}}

	c, err := Connect(ctx, rd, 0)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if c.DriverName() != "accepting" {
		t.Errorf("DriverName() = %q, want %q", c.DriverName(), "accepting")
	}
	if rejecting.initCalls != 1 || accepting.initCalls != 1 {
		t.Errorf("init calls = %d/%d, want 1/1", rejecting.initCalls, accepting.initCalls)
	}
}

// TestConnectSlotNotFound covers the resolve-the-slot failure mode: a
// reader that rejects the slot must surface as apdu.SlotNotFound
// before any driver is ever probed.
func TestConnectSlotNotFound(t *testing.T) {
	rd := &fakeReader{atr: []byte{0x3B, 0x00}, connectErr: fmt.Errorf("slot 3: %w", reader.ErrSlotNotFound)}
	fd := &fakeDriver{name: "never"}
	ctx := &driver.Context{ForcedDriver: fd}

	_, err := Connect(ctx, rd, 3)
	if err == nil {
		t.Fatal("expected an error for an unresolvable slot")
	}
	if !apdu.Is(err, apdu.SlotNotFound) {
		t.Errorf("expected SlotNotFound kind, got %v", err)
	}
	if fd.initCalls != 0 {
		t.Errorf("driver init called %d times, want 0 when the slot never resolved", fd.initCalls)
	}
	if rd.lastConnectSlot != 3 {
		t.Errorf("reader.Connect called with slot %d, want 3", rd.lastConnectSlot)
	}
}

func TestConnectNoDriverMatches(t *testing.T) {
	rd := &fakeReader{atr: []byte{0x3B, 0x00}}
	ctx := &driver.Context{Drivers: []driver.Driver{&fakeDriver{name: "never", matches: false}}}

	_, err := Connect(ctx, rd, 0)
	if err == nil {
		t.Fatal("expected an error when no driver matches")
	}
	if !apdu.Is(err, apdu.InvalidCard) {
		t.Errorf("expected InvalidCard kind, got %v", err)
	}
}

func TestConnectFatalInitError(t *testing.T) {
	rd := &fakeReader{atr: []byte{0x3B, 0x00}}
	boom := errors.New("boom")
	ctx := &driver.Context{Drivers: []driver.Driver{&fakeDriver{name: "broken", matches: true, initErr: boom}}}

	_, err := Connect(ctx, rd, 0)
	if err == nil {
		t.Fatal("expected a fatal init error to propagate")
	}
	if !apdu.Is(err, apdu.InvalidCard) {
		t.Errorf("expected InvalidCard kind, got %v", err)
	}
}

func TestDisconnectRequiresLockReleased(t *testing.T) {
	rd := &fakeReader{atr: []byte{0x3B, 0x00}}
	ctx := &driver.Context{ForcedDriver: &fakeDriver{name: "x"}}
	c, err := Connect(ctx, rd, 0)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}

	if err := c.Lock(); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if err := c.Disconnect(reader.LeaveCard); err == nil {
		t.Error("expected Disconnect to fail while the lock is still held")
	}
	if rd.disconnectCalls != 0 {
		t.Errorf("reader.Disconnect called %d times while locked, want 0", rd.disconnectCalls)
	}

	if err := c.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if err := c.Disconnect(reader.ResetCard); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if rd.disconnectCalls != 1 {
		t.Errorf("reader.Disconnect called %d times, want 1", rd.disconnectCalls)
	}
	if rd.lastDisconnectAction != reader.ResetCard {
		t.Errorf("disconnect action = %v, want ResetCard", rd.lastDisconnectAction)
	}
}

func TestSelectedPathClearsOnFullUnlock(t *testing.T) {
	rd := &fakeReader{atr: []byte{0x3B, 0x00}}
	ctx := &driver.Context{ForcedDriver: &fakeDriver{name: "x"}}
	c, err := Connect(ctx, rd, 0)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}

	if err := c.Lock(); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	ref := path.FromFileID(0x3F00)
	c.StampSelectedPath(ref)
	if got, ok := c.SelectedPath(); !ok || got.Len() != 2 {
		t.Fatalf("SelectedPath() = %v, %v; want a stamped 2-byte ref", got, ok)
	}

	if err := c.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if _, ok := c.SelectedPath(); ok {
		t.Error("SelectedPath should be invalidated once the lock drops to 0")
	}
}
