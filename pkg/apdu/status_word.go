package apdu

import (
	"fmt"

	"github.com/opencard/scardcore/pkg/bits"
)

// StatusWord is the two-byte trailer (SW1, SW2) every R-APDU carries.
//
// Most status words are static (e.g. 0x9000), but four ranges carry
// dynamic, contextual information:
//
//   - 0x61XX: response available, XX bytes ready for GET RESPONSE.
//   - 0x6CXX: wrong Le, XX is the correct value.
//   - 0x62XX/0x64XX with SW2 in [0x02, 0x80]: triggering by the card.
//   - 0x63CX: counter warning, low nibble of SW2 is the counter value.
type StatusWord uint16

// NewStatusWord combines SW1/SW2 into a StatusWord.
func NewStatusWord(sw1, sw2 byte) StatusWord {
	return StatusWord(uint16(sw1)<<8 | uint16(sw2))
}

func (sw StatusWord) SW1() byte { return byte(sw >> 8) }
func (sw StatusWord) SW2() byte { return byte(sw) }

// IsTriggeringByCard reports a 62XX/64XX "triggering by the card" event.
func (sw StatusWord) IsTriggeringByCard() bool {
	sw2 := sw.SW2()
	if sw2 < 0x02 || sw2 > 0x80 {
		return false
	}
	return sw.SW1() == 0x62 || sw.SW1() == 0x64
}

// IsCounter reports a 63CX non-volatile-memory change counter.
func (sw StatusWord) IsCounter() bool {
	if sw.SW1() != 0x63 {
		return false
	}
	return bits.GetRange(sw.SW2(), 8, 5) == 0x0C
}

// IsSuccess is true for 9000 or 61XX (data still available).
func (sw StatusWord) IsSuccess() bool {
	return sw == SWNoError || sw.SW1() == 0x61
}

func (sw StatusWord) IsWarning() bool {
	sw1 := sw.SW1()
	return sw1 == 0x62 || sw1 == 0x63
}

func (sw StatusWord) IsError() bool {
	sw1 := sw.SW1()
	return sw1 >= 0x64 && sw1 <= 0x6F
}

// String renders the raw status word in hex, e.g. "9000".
func (sw StatusWord) String() string {
	return fmt.Sprintf("%04X", uint16(sw))
}

// Verbose renders a human-readable description, prioritizing the
// dynamic ISO 7816-4 ranges over the static table.
func (sw StatusWord) Verbose() string {
	sw1, sw2 := sw.SW1(), sw.SW2()

	if sw.IsTriggeringByCard() {
		action := "warning"
		if sw1 == 0x64 {
			action = "error/abort"
		}
		return fmt.Sprintf("%s (triggering): card expects query of %d bytes", action, sw2)
	}
	if sw.IsCounter() {
		return fmt.Sprintf("warning: state changed, counter = %d", bits.GetRange(sw2, 4, 1))
	}
	if sw1 == 0x61 {
		return fmt.Sprintf("process completed, %d bytes available", sw2)
	}
	if sw1 == 0x6C {
		return fmt.Sprintf("wrong length, correct Le is %d", sw2)
	}
	if name, ok := statusWordNames[sw]; ok {
		return fmt.Sprintf("[%s] %s", sw, name)
	}
	return fmt.Sprintf("[%s] %s", sw, sw.genericCategory())
}

func (sw StatusWord) genericCategory() string {
	switch sw.SW1() {
	case 0x62:
		return "warning: NV memory unchanged"
	case 0x63:
		return "warning: NV memory changed"
	case 0x64:
		return "execution error: NV memory unchanged"
	case 0x65:
		return "execution error: NV memory changed"
	case 0x66:
		return "execution error: security issue"
	case 0x68:
		return "checking error: function not supported"
	case 0x69:
		return "checking error: command not allowed"
	case 0x6A:
		return "checking error: wrong parameters"
	default:
		return "unknown status"
	}
}

// Standard status words (ISO/IEC 7816-4).
const (
	SWNoError StatusWord = 0x9000

	SWWarnNoInfo          StatusWord = 0x6200
	SWWarnDataCorrupted   StatusWord = 0x6281
	SWWarnEOFReached      StatusWord = 0x6282
	SWWarnFileDeactivated StatusWord = 0x6283

	SWWarnNVChangedNoInfo StatusWord = 0x6300
	SWWarnFileFilled      StatusWord = 0x6381

	SWErrWrongLength             StatusWord = 0x6700
	SWErrCheckingNoInfo          StatusWord = 0x6800
	SWErrLogicalChannelNotSupp   StatusWord = 0x6881
	SWErrSecureMessagingNotSupp  StatusWord = 0x6882

	SWErrCmdNotAllowedNoInfo StatusWord = 0x6900
	SWErrCmdIncompatibleFile StatusWord = 0x6981
	SWErrSecurityStatusNotSat StatusWord = 0x6982
	SWErrAuthMethodBlocked   StatusWord = 0x6983
	SWErrRefDataNotUsable    StatusWord = 0x6984
	SWErrCondOfUseNotSat     StatusWord = 0x6985
	SWErrCmdNotAllowedNoEF   StatusWord = 0x6986

	SWErrWrongParamsNoInfo  StatusWord = 0x6A00
	SWErrIncorrectParamsData StatusWord = 0x6A80
	SWErrFuncNotSupported   StatusWord = 0x6A81
	SWErrFileNotFound       StatusWord = 0x6A82
	SWErrRecordNotFound     StatusWord = 0x6A83
	SWErrNotEnoughMemory    StatusWord = 0x6A84
	SWErrIncorrectParamsP1P2 StatusWord = 0x6A86
	SWErrFileAlreadyExists  StatusWord = 0x6A89
)

var statusWordNames = map[StatusWord]string{
	SWNoError:                "success",
	SWWarnNoInfo:              "warning, no information given",
	SWWarnDataCorrupted:       "warning: part of returned data may be corrupted",
	SWWarnEOFReached:          "warning: end of file/record reached before Le bytes",
	SWWarnFileDeactivated:     "warning: selected file deactivated",
	SWWarnNVChangedNoInfo:     "warning: NV memory changed, no information given",
	SWWarnFileFilled:          "warning: file filled up by the last write",
	SWErrWrongLength:          "wrong length",
	SWErrCheckingNoInfo:       "function not supported",
	SWErrLogicalChannelNotSupp: "logical channel not supported",
	SWErrSecureMessagingNotSupp: "secure messaging not supported",
	SWErrCmdNotAllowedNoInfo:  "command not allowed, no information given",
	SWErrCmdIncompatibleFile:  "command incompatible with file structure",
	SWErrSecurityStatusNotSat: "security status not satisfied",
	SWErrAuthMethodBlocked:    "authentication method blocked",
	SWErrRefDataNotUsable:     "referenced data not usable",
	SWErrCondOfUseNotSat:      "conditions of use not satisfied",
	SWErrCmdNotAllowedNoEF:    "command not allowed, no current EF",
	SWErrWrongParamsNoInfo:    "wrong parameters P1-P2, no information given",
	SWErrIncorrectParamsData:  "incorrect parameters in the data field",
	SWErrFuncNotSupported:     "function not supported",
	SWErrFileNotFound:         "file not found",
	SWErrRecordNotFound:       "record not found",
	SWErrNotEnoughMemory:      "not enough memory space",
	SWErrIncorrectParamsP1P2:  "incorrect parameters P1-P2",
	SWErrFileAlreadyExists:    "file already exists",
}
