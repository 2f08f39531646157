package card

import (
	"bytes"
	"testing"

	"github.com/opencard/scardcore/pkg/driver"
	"github.com/opencard/scardcore/pkg/file"
	"github.com/opencard/scardcore/pkg/path"
)

// selectAndReadRecordTable builds a driver.Table that marks *selected
// true on SELECT and serves records 1..len(records) in order, returning
// 0 bytes once the index runs past the end (EOF).
func selectAndReadRecordTable(selected *bool, records [][]byte) driver.Table {
	return driver.Table{
		SelectFile: func(ch driver.Channel, ref path.Reference) (*file.Info, error) {
			*selected = true
			return &file.Info{Type: file.TypeEF}, nil
		},
		ReadRecord: func(ch driver.Channel, idx int, buf []byte, mode int) (int, error) {
			if idx < 1 || idx > len(records) {
				return 0, nil
			}
			return copy(buf, records[idx-1]), nil
		},
	}
}

func efDirRecordBytes(aid []byte, label string) []byte {
	inner := append([]byte{0x4F, byte(len(aid))}, aid...)
	inner = append(inner, 0x50, byte(len(label)))
	inner = append(inner, []byte(label)...)
	return append([]byte{0x61, byte(len(inner))}, inner...)
}

func efDirRecordBytesWithPath(aid []byte, label string, pathVal []byte) []byte {
	inner := append([]byte{0x4F, byte(len(aid))}, aid...)
	inner = append(inner, 0x50, byte(len(label)))
	inner = append(inner, []byte(label)...)
	inner = append(inner, 0x51, byte(len(pathVal)))
	inner = append(inner, pathVal...)
	return append([]byte{0x61, byte(len(inner))}, inner...)
}

func TestParseDirectoryRecord(t *testing.T) {
	aid := []byte{0xA0, 0x00, 0x00, 0x00, 0x03}
	data := efDirRecordBytes(aid, "TEST")

	apps, err := ParseDirectoryRecord(data)
	if err != nil {
		t.Fatalf("ParseDirectoryRecord: %v", err)
	}
	if len(apps) != 1 {
		t.Fatalf("got %d applications, want 1", len(apps))
	}
	if !bytes.Equal(apps[0].AID, aid) {
		t.Errorf("AID = %X, want %X", apps[0].AID, aid)
	}
	if apps[0].Label != "TEST" {
		t.Errorf("Label = %q, want %q", apps[0].Label, "TEST")
	}
}

func TestParseDirectoryRecordWithPath(t *testing.T) {
	aid := []byte{0xA0, 0x00, 0x00, 0x00, 0x03}
	pathVal := []byte{0x3F, 0x00, 0x50, 0x15}
	data := efDirRecordBytesWithPath(aid, "TEST", pathVal)

	apps, err := ParseDirectoryRecord(data)
	if err != nil {
		t.Fatalf("ParseDirectoryRecord: %v", err)
	}
	if len(apps) != 1 {
		t.Fatalf("got %d applications, want 1", len(apps))
	}
	if apps[0].Path.Type != path.Path {
		t.Errorf("Path.Type = %v, want path.Path", apps[0].Path.Type)
	}
	if !bytes.Equal(apps[0].Path.Value, pathVal) {
		t.Errorf("Path.Value = %X, want %X", apps[0].Path.Value, pathVal)
	}
}

func TestParseDirectoryRecordEmpty(t *testing.T) {
	if _, err := ParseDirectoryRecord(nil); err == nil {
		t.Error("expected an error for an empty EF.DIR record")
	}
}

// TestListApplications exercises the full select-then-read-records loop
// against a scripted driver, including the "multiple applications
// spread across more than one record" case.
func TestListApplications(t *testing.T) {
	rec1 := efDirRecordBytes([]byte{0xA0, 0x00, 0x00, 0x00, 0x01}, "APP ONE")
	rec2 := efDirRecordBytes([]byte{0xA0, 0x00, 0x00, 0x00, 0x02}, "APP TWO")
	records := [][]byte{rec1, rec2}

	selected := false
	c := newTestCard(t, selectAndReadRecordTable(&selected, records))

	apps, err := ListApplications(c)
	if err != nil {
		t.Fatalf("ListApplications: %v", err)
	}
	if !selected {
		t.Error("ListApplications never selected EF.DIR")
	}
	if len(apps) != 2 {
		t.Fatalf("got %d applications, want 2", len(apps))
	}
	if apps[0].Label != "APP ONE" || apps[1].Label != "APP TWO" {
		t.Errorf("labels = %q, %q", apps[0].Label, apps[1].Label)
	}
}
