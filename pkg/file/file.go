// Package file models the ISO/IEC 7816-4 file abstraction: the
// Type/Structure/Size/ACL metadata a SELECT command's FCP/FMD response
// carries, generalized from the EMV-specific FCI parsing in
// pkg/iso7816/fci.go and pkg/emv/directory.go.
package file

import (
	"fmt"
	"strings"

	"github.com/moov-io/bertlv"
	"github.com/opencard/scardcore/pkg/bits"
	"github.com/opencard/scardcore/pkg/path"
	"github.com/opencard/scardcore/pkg/tlv"
)

// Type classifies what kind of file FCP tag 82 (file descriptor)
// describes.
type Type int

const (
	TypeUnknown Type = iota
	TypeDF           // dedicated file (directory)
	TypeEF           // elementary file
)

func (t Type) String() string {
	switch t {
	case TypeDF:
		return "DF"
	case TypeEF:
		return "EF"
	default:
		return "unknown"
	}
}

// Structure is an EF's record structure, decoded from the low bits of
// the file descriptor byte (ISO/IEC 7816-4 table 14).
type Structure int

const (
	StructUnknown Structure = iota
	StructTransparent
	StructLinearFixed
	StructLinearFixedTLV
	StructLinearVariable
	StructLinearVariableTLV
	StructCyclic
	StructCyclicTLV
)

func (s Structure) String() string {
	switch s {
	case StructTransparent:
		return "transparent"
	case StructLinearFixed:
		return "linear fixed"
	case StructLinearFixedTLV:
		return "linear fixed TLV"
	case StructLinearVariable:
		return "linear variable"
	case StructLinearVariableTLV:
		return "linear variable TLV"
	case StructCyclic:
		return "cyclic"
	case StructCyclicTLV:
		return "cyclic TLV"
	default:
		return "unknown"
	}
}

// ACL is the file's access-condition byte set, indexed by operation.
// The original implementation keys these per SC_AC_OP_*; this keeps
// the same idea as a plain map so unknown/proprietary operations don't
// need dedicated fields.
type ACL map[string]byte

// Info is the parsed, card-agnostic metadata about a selected file,
// assembled from whichever of FCP/FMD the card returned.
type Info struct {
	Type        Type
	Structure   Structure
	Size        int // DataSizeExcludingStruct, or TotalFileSize if absent
	RecordCount int // 0 when not record-structured or card didn't report it
	ShortFileID byte
	ACL         ACL
	Path        path.Reference
	DFName      []byte // AID, present when Type == TypeDF

	Unknown []bertlv.TLV
}

// FCPTemplate is the FCP (File Control Parameters, tag 62) template
// ISO/IEC 7816-4 defines; field tags match the BER-TLV struct
// convention pkg/tlv implements.
type FCPTemplate struct {
	DataSizeExcludingStruct []byte `tlv:"80"`
	TotalFileSize           []byte `tlv:"81"`
	FileDescriptor          []byte `tlv:"82"`
	FileIdentifier          []byte `tlv:"83"`
	DFName                  []byte `tlv:"84"`
	ProprietaryInfoRaw      []byte `tlv:"85"`
	SecurityAttrProprietary []byte `tlv:"86"`
	ExtFileControlInfoID    []byte `tlv:"87"`
	ShortEFIdentifier       []byte `tlv:"88"`
	LifeCycleStatus         []byte `tlv:"8A"`
	SecAttrRefExpanded      []byte `tlv:"8B"`
	SecurityAttrCompact     []byte `tlv:"8C"`
	SecEnvTemplateID        []byte `tlv:"8D"`
	ChannelSecurityAttr     []byte `tlv:"8E"`
	SecAttrTemplateData     []byte `tlv:"A0"`
	SecAttrTemplateProp     []byte `tlv:"A1"`
	CryptoMechanismID       []byte `tlv:"AC"`

	Unknown []bertlv.TLV `tlv:",unknown"`
}

// FMDTemplate is the FMD (File Management Data, tag 64) template.
type FMDTemplate struct {
	ApplicationIdentifier []byte `tlv:"84"`
	ApplicationLabel      []byte `tlv:"50"`

	Unknown []bertlv.TLV `tlv:",unknown"`
}

// ParseFCP decodes a SELECT response's FCP data field into Info.
// control is P2's selection-control field (bits 4-3); when it
// indicates FCI rather than a bare FCP (the "6F"-wrapped form), the
// wrapper is unwrapped first.
func ParseFCP(data []byte, control byte) (*Info, error) {
	if len(data) == 0 {
		return &Info{}, nil
	}
	if data[0] >= 0xC0 {
		return &Info{}, fmt.Errorf("file: proprietary (non-BER-TLV) select response, cannot parse FCP")
	}

	packets, err := bertlv.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("file: BER-TLV decode: %w", err)
	}

	switch bits.GetRange(control, 4, 3) {
	case 0: // FCI, possibly 6F-wrapped
		for _, p := range packets {
			if strings.EqualFold(p.Tag, "6F") {
				packets = p.TLVs
				break
			}
		}
	case 1: // FCP directly
	case 2:
		return nil, fmt.Errorf("file: FMD selection control cannot be parsed as FCP")
	default:
		return &Info{}, nil
	}

	fcp := &FCPTemplate{}
	found := false
	for _, p := range packets {
		if strings.EqualFold(p.Tag, "62") {
			if err := tlv.UnmarshalFromPackets(p.TLVs, fcp); err != nil {
				return nil, fmt.Errorf("file: unmarshal FCP: %w", err)
			}
			found = true
			break
		}
	}
	if !found {
		if err := tlv.UnmarshalFromPackets(packets, fcp); err != nil {
			return nil, fmt.Errorf("file: unmarshal flat FCP: %w", err)
		}
	}

	return fromFCP(fcp), nil
}

func fromFCP(fcp *FCPTemplate) *Info {
	info := &Info{
		DFName:  fcp.DFName,
		Unknown: fcp.Unknown,
		ACL:     ACL{},
	}

	if len(fcp.TotalFileSize) > 0 {
		info.Size = intFromBytes(fcp.TotalFileSize)
	}
	if len(fcp.DataSizeExcludingStruct) > 0 {
		info.Size = intFromBytes(fcp.DataSizeExcludingStruct)
	}
	if len(fcp.ShortEFIdentifier) > 0 {
		info.ShortFileID = fcp.ShortEFIdentifier[0]
	}
	if len(fcp.FileIdentifier) == 2 {
		info.Path = path.FromFileID(uint16(fcp.FileIdentifier[0])<<8 | uint16(fcp.FileIdentifier[1]))
	}

	if len(fcp.FileDescriptor) > 0 {
		info.Type, info.Structure, info.RecordCount = decodeDescriptor(fcp.FileDescriptor)
	}

	return info
}

// decodeDescriptor decodes FCP tag 82 (ISO/IEC 7816-4 table 12/14):
// byte 1's bits 6-4 = 111 mark a DF, otherwise bits 3-1 give the EF
// structure; a fifth byte, when present, is read as the record count.
func decodeDescriptor(b []byte) (Type, Structure, int) {
	if len(b) == 0 {
		return TypeUnknown, StructUnknown, 0
	}
	descByte := b[0]

	if bits.GetRange(descByte, 6, 4) == 0x7 { // xx111xxx: DF
		return TypeDF, StructUnknown, 0
	}

	var structure Structure
	switch bits.GetRange(descByte, 3, 1) {
	case 0x1:
		structure = StructTransparent
	case 0x2:
		structure = StructLinearFixed
	case 0x3:
		structure = StructLinearFixedTLV
	case 0x4:
		structure = StructLinearVariable
	case 0x5:
		structure = StructLinearVariableTLV
	case 0x6:
		structure = StructCyclic
	case 0x7:
		structure = StructCyclicTLV
	default:
		structure = StructUnknown
	}

	recordCount := 0
	if len(b) >= 5 {
		recordCount = int(b[4])
	}

	return TypeEF, structure, recordCount
}

func intFromBytes(b []byte) int {
	n := 0
	for _, v := range b {
		n = n<<8 | int(v)
	}
	return n
}
