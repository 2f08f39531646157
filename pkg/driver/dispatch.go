// Package driver defines the card-driver dispatch contract: the
// operation table a driver supplies, ATR-based matching, and the
// ordered probe list used at connect time, grounded on OpenSC's
// sc_card_operations/sc_connect_card and on hsanjuan-go-nfctype4's
// CommandDriver interface shape.
package driver

import (
	"github.com/opencard/scardcore/pkg/apdu"
	"github.com/opencard/scardcore/pkg/file"
	"github.com/opencard/scardcore/pkg/path"
)

// Channel is what a driver operation needs from the card session: the
// ability to run one APDU exchange to completion (validation, locking
// already handled by the caller). session.Card implements this.
type Channel interface {
	Transmit(cmd *apdu.CommandAPDU, resp []byte) (n int, sw apdu.StatusWord, err error)
}

// Table is a driver's dispatch table: a set of optional operation
// closures. A nil entry means the driver does not support that
// operation (the façade maps that to NotSupported), mirroring a null
// function pointer in OpenSC's sc_card_operations struct.
type Table struct {
	Init    func(ch Channel) error
	Finish  func(ch Channel) error
	CheckSW func(sw apdu.StatusWord) error

	SelectFile func(ch Channel, ref path.Reference) (*file.Info, error)
	ListFiles  func(ch Channel, buf []byte) (int, error)
	CreateFile func(ch Channel, info *file.Info) error
	DeleteFile func(ch Channel, ref path.Reference) error

	ReadBinary   func(ch Channel, offset int, buf []byte, flags int) (int, error)
	WriteBinary  func(ch Channel, offset int, buf []byte, flags int) (int, error)
	UpdateBinary func(ch Channel, offset int, buf []byte, flags int) (int, error)
	EraseBinary  func(ch Channel, offset, count int) error

	ReadRecord   func(ch Channel, idx int, buf []byte, mode int) (int, error)
	WriteRecord  func(ch Channel, idx int, data []byte) error
	AppendRecord func(ch Channel, data []byte) error
	UpdateRecord func(ch Channel, idx int, data []byte) error

	GetChallenge func(ch Channel, buf []byte) (int, error)
	CardCtl      func(ch Channel, cmd int, args []byte) ([]byte, error)
}

// Driver resolves whether it can handle a card (by ATR) and supplies
// the operation table to copy into the card session on success.
type Driver interface {
	// Name identifies the driver in logs and trace output.
	Name() string

	// MatchCard reports whether this driver recognizes atr. It must
	// not mutate any shared state and must be safe to call from the
	// probe loop before Init.
	MatchCard(atr []byte) bool

	// Table returns the operation table to copy onto the card. Called
	// once, immediately before Init, when MatchCard (or a forced
	// selection) has chosen this driver.
	Table() Table
}
