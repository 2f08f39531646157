package driver

import (
	"github.com/opencard/scardcore/pkg/apdu"
	"github.com/opencard/scardcore/pkg/file"
	"github.com/opencard/scardcore/pkg/path"
)

// Generic is the baseline ISO/IEC 7816-4 driver: it issues the
// standard command set directly, with no vendor-specific quirks, and
// matches any ATR. It plays the role OpenSC's "default" driver plays
// when no more specific driver recognizes the card — card-specific
// drivers should precede it in a probe list so they get first refusal.
type Generic struct{}

func (Generic) Name() string { return "generic-iso7816" }

// MatchCard always accepts: Generic is meant to be the last entry in a
// probe list, not matched by ATR content.
func (Generic) MatchCard(atr []byte) bool { return true }

func (Generic) Table() Table {
	return Table{
		CheckSW: genericCheckSW,

		SelectFile: genericSelectFile,
		ReadBinary: genericReadBinary,
		WriteBinary: genericWriteBinary,
		UpdateBinary: genericUpdateBinary,

		ReadRecord:   genericReadRecord,
		WriteRecord:  genericWriteRecord,
		AppendRecord: genericAppendRecord,
		UpdateRecord: genericUpdateRecord,

		GetChallenge: genericGetChallenge,
	}
}

func genericCheckSW(sw apdu.StatusWord) error {
	if sw.IsSuccess() {
		return nil
	}
	return &apdu.Error{Kind: apdu.CardStatus, Op: "driver.Generic.CheckSW", Err: errSW(sw)}
}

type swErr apdu.StatusWord

func (e swErr) Error() string { return apdu.StatusWord(e).Verbose() }

func errSW(sw apdu.StatusWord) error { return swErr(sw) }

// selectionControlFCP is P2's selection-control value for a plain FCP
// request; callers that need FCI/FMD should issue their own command.
const selectionControlFCP = 0x04 // bits 4-3 = 01 (return FCP), occurrence=first (bits 2-1=00)

func genericSelectFile(ch Channel, ref path.Reference) (*file.Info, error) {
	p1 := selectP1(ref)
	ins, _ := apdu.NewInstruction(apdu.InsSelect)
	cmd := apdu.NewCommandAPDU(apdu.Class{}, ins, p1, selectionControlFCP, ref.Value, 256)

	resp := make([]byte, 256)
	n, sw, err := ch.Transmit(cmd, resp)
	if err != nil {
		return nil, err
	}
	if err := genericCheckSW(sw); err != nil {
		return nil, err
	}
	return file.ParseFCP(resp[:n], selectionControlFCP)
}

func selectP1(ref path.Reference) byte {
	switch ref.Type {
	case path.FileID:
		return 0x00
	case path.DFName:
		return 0x04
	case path.Path:
		return 0x09
	case path.FullPath:
		return 0x08
	default:
		return 0x00
	}
}

func genericReadBinary(ch Channel, offset int, buf []byte, flags int) (int, error) {
	ins, _ := apdu.NewInstruction(apdu.InsReadBinary)
	p1 := byte(offset >> 8 & 0x7F)
	p2 := byte(offset)
	cmd := apdu.NewCommandAPDU(apdu.Class{}, ins, p1, p2, nil, len(buf))
	n, sw, err := ch.Transmit(cmd, buf)
	if err != nil {
		return n, err
	}
	return n, genericCheckSW(sw)
}

func genericWriteBinary(ch Channel, offset int, buf []byte, flags int) (int, error) {
	ins, _ := apdu.NewInstruction(apdu.InsWriteBinary)
	p1 := byte(offset >> 8 & 0x7F)
	p2 := byte(offset)
	cmd := apdu.NewCommandAPDU(apdu.Class{}, ins, p1, p2, buf, 0)
	_, sw, err := ch.Transmit(cmd, nil)
	if err != nil {
		return 0, err
	}
	if err := genericCheckSW(sw); err != nil {
		return 0, err
	}
	return len(buf), nil
}

func genericUpdateBinary(ch Channel, offset int, buf []byte, flags int) (int, error) {
	ins, _ := apdu.NewInstruction(apdu.InsUpdateBinary)
	p1 := byte(offset >> 8 & 0x7F)
	p2 := byte(offset)
	cmd := apdu.NewCommandAPDU(apdu.Class{}, ins, p1, p2, buf, 0)
	_, sw, err := ch.Transmit(cmd, nil)
	if err != nil {
		return 0, err
	}
	if err := genericCheckSW(sw); err != nil {
		return 0, err
	}
	return len(buf), nil
}

func genericReadRecord(ch Channel, idx int, buf []byte, mode int) (int, error) {
	ins, _ := apdu.NewInstruction(apdu.InsReadRecord)
	cmd := apdu.NewCommandAPDU(apdu.Class{}, ins, byte(idx), byte(mode), nil, len(buf))
	n, sw, err := ch.Transmit(cmd, buf)
	if err != nil {
		return n, err
	}
	return n, genericCheckSW(sw)
}

func genericWriteRecord(ch Channel, idx int, data []byte) error {
	ins, _ := apdu.NewInstruction(apdu.InsWriteRecord)
	cmd := apdu.NewCommandAPDU(apdu.Class{}, ins, byte(idx), 0x04, data, 0)
	_, sw, err := ch.Transmit(cmd, nil)
	if err != nil {
		return err
	}
	return genericCheckSW(sw)
}

func genericAppendRecord(ch Channel, data []byte) error {
	ins, _ := apdu.NewInstruction(apdu.InsAppendRecord)
	cmd := apdu.NewCommandAPDU(apdu.Class{}, ins, 0x00, 0x00, data, 0)
	_, sw, err := ch.Transmit(cmd, nil)
	if err != nil {
		return err
	}
	return genericCheckSW(sw)
}

func genericUpdateRecord(ch Channel, idx int, data []byte) error {
	ins, _ := apdu.NewInstruction(apdu.InsUpdateRecord)
	cmd := apdu.NewCommandAPDU(apdu.Class{}, ins, byte(idx), 0x04, data, 0)
	_, sw, err := ch.Transmit(cmd, nil)
	if err != nil {
		return err
	}
	return genericCheckSW(sw)
}

func genericGetChallenge(ch Channel, buf []byte) (int, error) {
	ins, _ := apdu.NewInstruction(apdu.InsGetChallenge)
	cmd := apdu.NewCommandAPDU(apdu.Class{}, ins, 0x00, 0x00, nil, len(buf))
	n, sw, err := ch.Transmit(cmd, buf)
	if err != nil {
		return n, err
	}
	return n, genericCheckSW(sw)
}
