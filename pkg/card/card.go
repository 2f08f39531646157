// Package card is the card operation façade: list/create/delete/select
// file, record and binary-transfer operations, and generic card
// control, each dispatching through the session's resolved driver
// table and failing with NotSupported when a slot is empty, grounded
// on OpenSC's sc_list_files/sc_read_binary/sc_select_file/sc_card_ctl
// family.
package card

import (
	"fmt"

	"github.com/opencard/scardcore/pkg/apdu"
	"github.com/opencard/scardcore/pkg/driver"
	"github.com/opencard/scardcore/pkg/file"
	"github.com/opencard/scardcore/pkg/path"
	"github.com/opencard/scardcore/pkg/session"
)

// ChopSize is the façade's auto-chunking threshold for binary
// transfers (SC_APDU_CHOP_SIZE in OpenSC): the largest single
// read/write/update request issued to the driver when the card does
// not advertise extended-APDU support.
const ChopSize = 240

func notSupported(op string) error {
	return &apdu.Error{Kind: apdu.NotSupported, Op: op, Err: fmt.Errorf("driver does not implement this operation")}
}

// ListFiles lists the current DF's children into buf, returning the
// number of bytes the driver wrote.
func ListFiles(c *session.Card, buf []byte) (int, error) {
	t := c.Table()
	if t.ListFiles == nil {
		return 0, notSupported("card.ListFiles")
	}
	return t.ListFiles(c, buf)
}

// CreateFile creates a file described by info under the current DF.
func CreateFile(c *session.Card, info *file.Info) error {
	t := c.Table()
	if t.CreateFile == nil {
		return notSupported("card.CreateFile")
	}
	return t.CreateFile(c, info)
}

// DeleteFile deletes the file at ref.
func DeleteFile(c *session.Card, ref path.Reference) error {
	t := c.Table()
	if t.DeleteFile == nil {
		return notSupported("card.DeleteFile")
	}
	return t.DeleteFile(c, ref)
}

// SelectFile selects ref and, on success, stamps it both as the
// returned Info's Path and as the session's currently-selected path.
// The reference is validated before the driver is ever invoked: a
// value of the wrong length for its type, an oversized or odd-length
// path, or a misplaced-MF full path fails with InvalidArguments and no
// driver call.
func SelectFile(c *session.Card, ref path.Reference) (*file.Info, error) {
	const op = "card.SelectFile"

	if err := ref.Validate(); err != nil {
		return nil, &apdu.Error{Kind: apdu.InvalidArguments, Op: op, Err: err}
	}

	t := c.Table()
	if t.SelectFile == nil {
		return nil, notSupported(op)
	}

	info, err := t.SelectFile(c, ref)
	if err != nil {
		return nil, err
	}
	if info != nil {
		info.Path = ref
	}
	c.StampSelectedPath(ref)
	return info, nil
}

// GetChallenge requests len(buf) bytes of card-generated randomness.
func GetChallenge(c *session.Card, buf []byte) (int, error) {
	t := c.Table()
	if t.GetChallenge == nil {
		return 0, notSupported("card.GetChallenge")
	}
	return t.GetChallenge(c, buf)
}

func ReadRecord(c *session.Card, idx int, buf []byte, mode int) (int, error) {
	t := c.Table()
	if t.ReadRecord == nil {
		return 0, notSupported("card.ReadRecord")
	}
	return t.ReadRecord(c, idx, buf, mode)
}

func WriteRecord(c *session.Card, idx int, data []byte) error {
	t := c.Table()
	if t.WriteRecord == nil {
		return notSupported("card.WriteRecord")
	}
	return t.WriteRecord(c, idx, data)
}

func AppendRecord(c *session.Card, data []byte) error {
	t := c.Table()
	if t.AppendRecord == nil {
		return notSupported("card.AppendRecord")
	}
	return t.AppendRecord(c, data)
}

func UpdateRecord(c *session.Card, idx int, data []byte) error {
	t := c.Table()
	if t.UpdateRecord == nil {
		return notSupported("card.UpdateRecord")
	}
	return t.UpdateRecord(c, idx, data)
}

func CardCtl(c *session.Card, cmd int, args []byte) ([]byte, error) {
	t := c.Table()
	if t.CardCtl == nil {
		return nil, notSupported("card.CardCtl")
	}
	return t.CardCtl(c, cmd, args)
}

// ReadBinary reads up to len(buf) bytes starting at offset. Requests
// larger than ChopSize are split into a locked sequence of ≤ChopSize
// driver calls unless the card advertises extended-APDU support. The
// loop is iterative rather than recursive.
func ReadBinary(c *session.Card, offset int, buf []byte, flags int) (int, error) {
	t := c.Table()
	if t.ReadBinary == nil {
		return 0, notSupported("card.ReadBinary")
	}
	if !needsChunking(c, len(buf)) {
		return t.ReadBinary(c, offset, buf, flags)
	}
	return chunk(c, offset, buf, flags, t.ReadBinary)
}

// WriteBinary is ReadBinary's write counterpart.
func WriteBinary(c *session.Card, offset int, buf []byte, flags int) (int, error) {
	t := c.Table()
	if t.WriteBinary == nil {
		return 0, notSupported("card.WriteBinary")
	}
	if !needsChunking(c, len(buf)) {
		return t.WriteBinary(c, offset, buf, flags)
	}
	return chunk(c, offset, buf, flags, t.WriteBinary)
}

// UpdateBinary is ReadBinary's update counterpart.
func UpdateBinary(c *session.Card, offset int, buf []byte, flags int) (int, error) {
	t := c.Table()
	if t.UpdateBinary == nil {
		return 0, notSupported("card.UpdateBinary")
	}
	if !needsChunking(c, len(buf)) {
		return t.UpdateBinary(c, offset, buf, flags)
	}
	return chunk(c, offset, buf, flags, t.UpdateBinary)
}

func needsChunking(c *session.Card, count int) bool {
	return count > ChopSize && c.Capabilities&session.CapExtendedAPDU == 0
}

type binaryOp func(ch driver.Channel, offset int, buf []byte, flags int) (int, error)

// chunk drives a single locked sequence of ≤ChopSize-sized calls to op,
// advancing offset and the buffer window by however many bytes op
// actually transferred, and stopping early on a short (zero-byte)
// transfer (treated as EOF).
func chunk(c *session.Card, offset int, buf []byte, flags int, op binaryOp) (int, error) {
	const opName = "card.chunk"

	if err := c.Lock(); err != nil {
		return 0, &apdu.Error{Kind: apdu.Transport, Op: opName, Err: err}
	}
	defer c.Unlock()

	total := 0
	remaining := buf
	for len(remaining) > 0 {
		n := len(remaining)
		if n > ChopSize {
			n = ChopSize
		}
		written, err := op(c, offset, remaining[:n], flags)
		if err != nil {
			return total, err
		}
		total += written
		offset += written
		remaining = remaining[written:]
		if written == 0 {
			break
		}
	}
	return total, nil
}
