package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/esmscan/esmscan"
	"github.com/esmscan/esmscan/internal/store"
)

func le32(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func le16(v uint16) []byte { return []byte{byte(v), byte(v >> 8)} }

func le64(v uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	return b
}

func buildRecord(tagStr string, formID uint32, payload []byte) []byte {
	var buf []byte
	buf = append(buf, []byte(tagStr)...)
	buf = append(buf, le32(uint32(len(payload)))...)
	buf = append(buf, le32(0)...) // flags
	buf = append(buf, le32(formID)...)
	buf = append(buf, le32(0)...) // revision
	buf = append(buf, le16(0)...) // version
	buf = append(buf, le16(0)...) // padding
	buf = append(buf, payload...)
	return buf
}

func buildSubrecord(tagStr string, data []byte) []byte {
	var buf []byte
	buf = append(buf, []byte(tagStr)...)
	buf = append(buf, le16(uint16(len(data)))...)
	buf = append(buf, data...)
	return buf
}

func buildTopGroup(label string, children []byte) []byte {
	var buf []byte
	buf = append(buf, []byte("GRUP")...)
	buf = append(buf, le32(uint32(24+len(children)))...)
	buf = append(buf, []byte(label)...)
	buf = append(buf, le32(0)...)           // group type
	buf = append(buf, make([]byte, 8)...) // padding
	buf = append(buf, children...)
	return buf
}

func buildMasterArchive(t *testing.T) string {
	t.Helper()
	edid := buildSubrecord("EDID", append([]byte("TestGun"), 0))
	full := buildSubrecord("FULL", le32(0x1000))
	rec := buildRecord("WEAP", 0x00001234, append(edid, full...))
	group := buildTopGroup("WEAP", rec)
	tes4 := buildRecord("TES4", 0, nil)
	buf := append(tes4, group...)

	path := filepath.Join(t.TempDir(), "test.esm")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// buildStringsArchive writes a general (GNRL) packed archive holding one
// ".strings" file with a single (0x1000, "Test Gun") entry, under the
// main-variant "seventysix_<lang>" path prefix.
func buildStringsArchive(t *testing.T, lang string) string {
	t.Helper()

	const headerSize = 24
	const dirEntrySize = 36

	var stringsData []byte
	stringsData = append(stringsData, le32(1)...) // count
	var payload []byte
	payload = append(payload, []byte("Test Gun")...)
	payload = append(payload, 0)
	stringsData = append(stringsData, le32(uint32(len(payload)))...) // data_size
	stringsData = append(stringsData, le32(0x1000)...)               // id
	stringsData = append(stringsData, le32(0)...)                    // offset within data block
	stringsData = append(stringsData, payload...)

	dataOffset := int64(headerSize + dirEntrySize)
	var dir []byte
	dir = append(dir, le32(0)...)
	dir = append(dir, []byte("str\x00")...)
	dir = append(dir, le32(0)...)
	dir = append(dir, le32(0)...)
	dir = append(dir, le64(uint64(dataOffset))...)
	dir = append(dir, le32(0)...)                             // packed_size=0
	dir = append(dir, le32(uint32(len(stringsData)))...)      // unpacked_size

	dir = append(dir, le32(0)...)

	name := "strings/seventysix_" + lang + ".strings"
	nameTableOffset := uint64(dataOffset) + uint64(len(stringsData))

	var buf []byte
	buf = append(buf, []byte("BTDX")...)
	buf = append(buf, le32(1)...)
	buf = append(buf, []byte("GNRL")...)
	buf = append(buf, le32(1)...) // file count
	buf = append(buf, le64(nameTableOffset)...)
	buf = append(buf, dir...)
	buf = append(buf, stringsData...)
	buf = append(buf, le16(uint16(len(name)))...)
	buf = append(buf, []byte(name)...)

	path := filepath.Join(t.TempDir(), "strings.ba2")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBuildEndToEnd(t *testing.T) {
	esmPath := buildMasterArchive(t)
	ba2Path := buildStringsArchive(t, "en")

	s, err := store.Open(filepath.Join(t.TempDir(), "snapshot.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer s.Close()

	var progress []Progress
	snapshotID, err := Build(s, Options{
		MasterArchivePath:  esmPath,
		StringsArchivePath: ba2Path,
		Label:              "test",
		Language:           "en",
	}, func(p Progress) { progress = append(progress, p) })
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(progress) == 0 {
		t.Fatal("expected at least one progress notification")
	}

	rec, err := s.GetRecord(snapshotID, esmscan.FormID(0x00001234))
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if rec == nil {
		t.Fatal("expected the WEAP record to have been inserted")
	}
	if rec.EditorID != "TestGun" {
		t.Errorf("EditorID = %q, want %q", rec.EditorID, "TestGun")
	}
	if rec.FullName != "Test Gun" {
		t.Errorf("FullName = %q, want %q (resolved via FULL -> string table)", rec.FullName, "Test Gun")
	}
	if rec.FullNameID == nil || *rec.FullNameID != 0x1000 {
		t.Errorf("FullNameID = %v, want 0x1000", rec.FullNameID)
	}

	snap, err := s.GetSnapshot(snapshotID)
	if err != nil {
		t.Fatal(err)
	}
	if snap.RecordCount != 1 {
		t.Errorf("RecordCount = %d, want 1", snap.RecordCount)
	}
}

func TestBuildDerivesLabelFromArchiveName(t *testing.T) {
	esmPath := buildMasterArchive(t)
	ba2Path := buildStringsArchive(t, "en")

	s, err := store.Open(filepath.Join(t.TempDir(), "snapshot.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	snapshotID, err := Build(s, Options{MasterArchivePath: esmPath, StringsArchivePath: ba2Path}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	snap, err := s.GetSnapshot(snapshotID)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Label == "" {
		t.Fatal("expected a non-empty auto-generated label")
	}
}
