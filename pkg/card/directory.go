package card

import (
	"fmt"
	"strings"

	"github.com/moov-io/bertlv"
	"github.com/opencard/scardcore/pkg/path"
	"github.com/opencard/scardcore/pkg/session"
	"github.com/opencard/scardcore/pkg/tlv"
)

// applicationTemplate is one entry (tag 61) in an EF.DIR record, per
// ISO/IEC 7816-5's generic application directory — the same shape the
// original client parsed for EMV's Payment System Environment (tag 4F
// AID / tag 50 label), generalized here to the non-EMV fields ISO
// 7816-5 also defines (tag 51 application path, tag 73 discretionary
// data) rather than EMV's PSE-specific discretionary template.
type applicationTemplate struct {
	AID         []byte       `tlv:"4F"`
	Label       []byte       `tlv:"50"`
	Path        []byte       `tlv:"51"`
	Discretionary []byte     `tlv:"73"`

	Unknown []bertlv.TLV `tlv:",unknown"`
}

// directoryRecord is one EF.DIR record (template tag 61, repeatable).
type directoryRecord struct {
	Applications []applicationTemplate `tlv:"61"`

	Unknown []bertlv.TLV `tlv:",unknown"`
}

// ParseDirectoryRecord decodes one EF.DIR record's raw bytes into its
// application template entries.
func ParseDirectoryRecord(data []byte) ([]session.Application, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("card: empty EF.DIR record")
	}

	packets, err := bertlv.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("card: BER-TLV decode: %w", err)
	}

	rec := &directoryRecord{}
	if err := tlv.UnmarshalFromPackets(packets, rec); err != nil {
		return nil, fmt.Errorf("card: unmarshal EF.DIR record: %w", err)
	}

	apps := make([]session.Application, 0, len(rec.Applications))
	for _, a := range rec.Applications {
		app := session.Application{
			AID:   a.AID,
			Label: string(a.Label),
		}
		if len(a.Path) > 0 {
			app.Path = path.Reference{Type: path.Path, Value: a.Path}
		}
		apps = append(apps, app)
	}
	return apps, nil
}

// ListApplications selects EF.DIR (file id 2F00, a child of the MF)
// and reads every record from it, returning the combined application
// list and storing it as c.Applications. This is an (expansion) feature the original EMV demo never
// generalized past the Payment System Environment: generic ISO
// 7816-5 clients discover applications the same way, off the
// well-known EF.DIR identifier instead of a PSE AID lookup.
func ListApplications(c *session.Card) ([]session.Application, error) {
	const efDirID = 0x2F00

	ref := path.FromFileID(efDirID)
	if _, err := SelectFile(c, ref); err != nil {
		return nil, fmt.Errorf("card: select EF.DIR: %w", err)
	}

	var apps []session.Application
	buf := make([]byte, 256)
	for idx := 1; ; idx++ {
		n, err := ReadRecord(c, idx, buf, 0)
		if err != nil {
			break
		}
		if n == 0 {
			break
		}
		recApps, err := ParseDirectoryRecord(buf[:n])
		if err != nil {
			continue
		}
		apps = append(apps, recApps...)
	}
	c.Applications = apps
	return apps, nil
}

func (r directoryRecord) String() string {
	var sb strings.Builder
	sb.WriteString("EF.DIR record:")
	for i, a := range r.Applications {
		sb.WriteString(fmt.Sprintf(" [%d] AID=%X label=%q", i, a.AID, a.Label))
	}
	return sb.String()
}
