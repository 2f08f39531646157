// Package apdu implements APDU (Application Protocol Data Unit) framing,
// T=0 transmission, and the 61xx/6Cxx retry protocol defined by
// ISO/IEC 7816-3/7816-4.
package apdu

import "fmt"

// Limits from ISO/IEC 7816-3 short-length (non-extended) framing.
// Extended cases are reserved for a future revision; this module
// rejects them rather than silently switching encodings.
const (
	MaxShortLc = 256 // Lc: 1..256, 256 is the largest data field
	MaxShortLe = 256 // Le: 0..256, 0 on the wire encodes 256

	// MaxAPDUBufferSize is a safe short-APDU buffer size: header(4) +
	// Lc(1) + data(256) + Le(1).
	MaxAPDUBufferSize = 4 + 1 + MaxShortLc + 1
)

// Case is one of the four short-form APDU cases (ISO/IEC 7816-3).
// Extended cases are recognized as reserved values and always rejected
// by Validate.
type Case int

const (
	Case1  Case = iota // no data, no response
	Case2S             // no data, response expected
	Case3S             // data present, no response
	Case4S             // data present, response expected
	case2E             // reserved: extended, no data / response expected
	case3E             // reserved: extended, data present / no response
	case4E             // reserved: extended, data present / response expected
)

func (c Case) String() string {
	switch c {
	case Case1:
		return "case 1"
	case Case2S:
		return "case 2 short"
	case Case3S:
		return "case 3 short"
	case Case4S:
		return "case 4 short"
	case case2E, case3E, case4E:
		return "extended (reserved)"
	default:
		return "unknown case"
	}
}

// CommandAPDU is a command sent to the card. Ne is the expected
// response length: 0 means "no response expected"; 1..256 is the
// number of body bytes requested (256 is encoded on the wire as
// Le=0x00, per §3's "256-as-0x00" convention).
type CommandAPDU struct {
	Class       Class
	Instruction Instruction
	P1, P2      byte
	Data        []byte
	Ne          int
}

// NewCommandAPDU builds a command. It performs no validation; call
// Validate before transmitting.
func NewCommandAPDU(cla Class, ins Instruction, p1, p2 byte, data []byte, ne int) *CommandAPDU {
	return &CommandAPDU{Class: cla, Instruction: ins, P1: p1, P2: p2, Data: data, Ne: ne}
}

// bytes encodes the command for the given (already-validated) case.
// Unlike an auto-detecting encoder, the case always comes from
// Validate so the wire format matches exactly what was checked.
func (c *CommandAPDU) bytes(kase Case) ([]byte, error) {
	cla, err := c.Class.Encode()
	if err != nil {
		return nil, fmt.Errorf("apdu: encoding class: %w", err)
	}

	buf := make([]byte, 0, MaxAPDUBufferSize)
	buf = append(buf, cla, byte(c.Instruction.Raw), c.P1, c.P2)

	switch kase {
	case Case1:
		// header only
	case Case2S:
		buf = append(buf, leByte(c.Ne))
	case Case3S:
		buf = append(buf, byte(len(c.Data)))
		buf = append(buf, c.Data...)
	case Case4S:
		buf = append(buf, byte(len(c.Data)))
		buf = append(buf, c.Data...)
		buf = append(buf, leByte(c.Ne))
	default:
		return nil, fmt.Errorf("apdu: cannot encode %s", kase)
	}

	return buf, nil
}

// leByte encodes Ne as the wire Le byte: 256 is 0x00, everything else
// is itself.
func leByte(ne int) byte {
	if ne == 256 {
		return 0x00
	}
	return byte(ne)
}

// String renders the command's meta-data for logs.
func (c *CommandAPDU) String() string {
	return fmt.Sprintf("%s P1=%02X P2=%02X Lc=%d Le=%d", c.Instruction.Verbose(), c.P1, c.P2, len(c.Data), c.Ne)
}

// ResponseAPDU is the parsed reply from the card: body plus the
// trailing two-byte status word.
type ResponseAPDU struct {
	Data   []byte
	Status StatusWord
}

func (r *ResponseAPDU) String() string {
	return fmt.Sprintf("%d bytes, SW=%s", len(r.Data), r.Status.Verbose())
}
