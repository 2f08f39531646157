package apdu

import (
	"fmt"

	"github.com/opencard/scardcore/pkg/bits"
)

// Instruction byte (INS) per ISO/IEC 7816-4.
//
// Bit 1 of INS often flags BER-TLV-formatted data (e.g. READ BINARY
// 0xB0 vs READ BINARY (BER-TLV) 0xB1). INS values with a high nibble
// of 6 or 9 are reserved for status words / T=0 transport control and
// are rejected.

// Ins is a typed instruction byte.
type Ins byte

// Standard instruction codes (ISO/IEC 7816-4).
const (
	InsDeactivateFile          Ins = 0x04
	InsEraseRecord             Ins = 0x0C
	InsEraseBinary             Ins = 0x0E
	InsVerify                  Ins = 0x20
	InsManageSecurityEnv       Ins = 0x22
	InsChangeReferenceData     Ins = 0x24
	InsDisableVerifReq         Ins = 0x26
	InsEnableVerifReq          Ins = 0x28
	InsPerformSecurityOp       Ins = 0x2A
	InsResetRetryCounter       Ins = 0x2C
	InsActivateFile            Ins = 0x44
	InsGenerateAsymmetricKey   Ins = 0x46
	InsManageChannel           Ins = 0x70
	InsExternalAuthenticate    Ins = 0x82
	InsGetChallenge            Ins = 0x84
	InsGeneralAuthenticate     Ins = 0x86
	InsInternalAuthenticate    Ins = 0x88
	InsSearchRecord            Ins = 0xA2
	InsSelect                  Ins = 0xA4
	InsReadBinary              Ins = 0xB0
	InsReadRecord              Ins = 0xB2
	InsGetResponse             Ins = 0xC0
	InsEnvelope                Ins = 0xC2
	InsGetData                 Ins = 0xCA
	InsWriteBinary             Ins = 0xD0
	InsWriteRecord             Ins = 0xD2
	InsUpdateBinary            Ins = 0xD6
	InsPutData                 Ins = 0xDA
	InsUpdateRecord            Ins = 0xDC
	InsCreateFile              Ins = 0xE0
	InsAppendRecord            Ins = 0xE2
	InsDeleteFile              Ins = 0xE4
	InsTerminateDF             Ins = 0xE6
	InsTerminateEF             Ins = 0xE8
	InsTerminateCardUsage      Ins = 0xFE
)

var insNames = map[Ins]string{
	InsDeactivateFile:        "DEACTIVATE FILE",
	InsEraseRecord:           "ERASE RECORD",
	InsEraseBinary:           "ERASE BINARY",
	InsVerify:                "VERIFY",
	InsManageSecurityEnv:     "MANAGE SECURITY ENVIRONMENT",
	InsChangeReferenceData:   "CHANGE REFERENCE DATA",
	InsDisableVerifReq:       "DISABLE VERIFICATION REQUIREMENT",
	InsEnableVerifReq:        "ENABLE VERIFICATION REQUIREMENT",
	InsPerformSecurityOp:     "PERFORM SECURITY OPERATION",
	InsResetRetryCounter:     "RESET RETRY COUNTER",
	InsActivateFile:          "ACTIVATE FILE",
	InsGenerateAsymmetricKey: "GENERATE ASYMMETRIC KEY PAIR",
	InsManageChannel:         "MANAGE CHANNEL",
	InsExternalAuthenticate: "EXTERNAL AUTHENTICATE",
	InsGetChallenge:         "GET CHALLENGE",
	InsGeneralAuthenticate:  "GENERAL AUTHENTICATE",
	InsInternalAuthenticate: "INTERNAL AUTHENTICATE",
	InsSearchRecord:         "SEARCH RECORD",
	InsSelect:               "SELECT",
	InsReadBinary:           "READ BINARY",
	InsReadRecord:           "READ RECORD",
	InsGetResponse:          "GET RESPONSE",
	InsEnvelope:             "ENVELOPE",
	InsGetData:              "GET DATA",
	InsWriteBinary:          "WRITE BINARY",
	InsWriteRecord:          "WRITE RECORD",
	InsUpdateBinary:         "UPDATE BINARY",
	InsPutData:              "PUT DATA",
	InsUpdateRecord:         "UPDATE RECORD",
	InsCreateFile:           "CREATE FILE",
	InsAppendRecord:         "APPEND RECORD",
	InsDeleteFile:           "DELETE FILE",
	InsTerminateDF:          "TERMINATE DF",
	InsTerminateEF:          "TERMINATE EF",
	InsTerminateCardUsage:   "TERMINATE CARD USAGE",
}

// String renders a known instruction name, or a hex fallback.
func (i Ins) String() string {
	if name, ok := insNames[i]; ok {
		return name
	}
	return fmt.Sprintf("INS(%02X)", byte(i))
}

// Instruction wraps Ins with the BER-TLV data-format hint (bit 1).
type Instruction struct {
	Raw      Ins
	IsBERTLV bool
}

// NewInstruction validates and decodes an instruction byte. INS values
// with a high nibble of 6 or 9 are reserved for SW1/T=0 control and
// are rejected.
func NewInstruction(ins Ins) (Instruction, error) {
	highNibble := byte(ins) & 0xF0
	if highNibble == 0x60 || highNibble == 0x90 {
		return Instruction{}, fmt.Errorf("apdu: INS %02X is reserved (6X/9X)", byte(ins))
	}
	return Instruction{Raw: ins, IsBERTLV: bits.IsSet(byte(ins), 1)}, nil
}

// Verbose renders a human-readable description, for logs and traces.
func (i Instruction) Verbose() string {
	format := "standard"
	if i.IsBERTLV {
		format = "BER-TLV"
	}
	return fmt.Sprintf("INS %02X %s (%s)", byte(i.Raw), i.Raw, format)
}
