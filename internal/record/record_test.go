package record

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"testing"

	"github.com/esmscan/esmscan"
)

func le32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func le16(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

// buildRecord returns the bytes of one uncompressed record header plus
// payload, given its tag, form id, and subrecord payload.
func buildRecord(tag string, formID uint32, payload []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(tag)
	buf.Write(le32(uint32(len(payload))))
	buf.Write(le32(0)) // flags
	buf.Write(le32(formID))
	buf.Write(le32(0)) // revision
	buf.Write(le16(0)) // version
	buf.Write(le16(0)) // padding to reach the 24-byte header
	buf.Write(payload)
	return buf.Bytes()
}

func buildSubrecord(tag string, data []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(tag)
	buf.Write(le16(uint16(len(data))))
	buf.Write(data)
	return buf.Bytes()
}

func buildTopGroup(label string, groupType uint32, children []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString("GRUP")
	size := uint32(groupHeaderSize + len(children))
	buf.Write(le32(size))
	buf.WriteString(label)
	buf.Write(le32(groupType))
	buf.Write(make([]byte, 8)) // padding to reach the 24-byte header
	buf.Write(children)
	return buf.Bytes()
}

func buildTES4() []byte {
	return buildRecord("TES4", 0, nil)
}

func TestParseSimpleRecord(t *testing.T) {
	edid := buildSubrecord("EDID", append([]byte("TestGun"), 0))
	rec := buildRecord("WEAP", 0x00001234, edid)
	group := buildTopGroup("WEAP", 0, rec)

	buf := append(buildTES4(), group...)

	records, err := Parse(buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	got := records[0]
	if got.Tag.String() != "WEAP" {
		t.Errorf("Tag = %q, want WEAP", got.Tag.String())
	}
	if got.FormID != esmscan.FormID(0x00001234) {
		t.Errorf("FormID = %#x, want 0x1234", uint32(got.FormID))
	}
	if got.EditorID() != "TestGun" {
		t.Errorf("EditorID() = %q, want %q", got.EditorID(), "TestGun")
	}
}

func TestParseMultipleSubrecordsFindAll(t *testing.T) {
	kw1 := buildSubrecord("KWDA", le32(1))
	kw2 := buildSubrecord("KWDA", le32(2))
	edid := buildSubrecord("EDID", append([]byte("Multi"), 0))
	payload := append(append(edid, kw1...), kw2...)
	rec := buildRecord("WEAP", 1, payload)
	group := buildTopGroup("WEAP", 0, rec)
	buf := append(buildTES4(), group...)

	records, err := Parse(buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	all := records[0].FindAll("KWDA")
	if len(all) != 2 {
		t.Fatalf("FindAll(KWDA) returned %d entries, want 2", len(all))
	}
}

func TestPlacementGroupSkipped(t *testing.T) {
	// Cell temporary children (group type 9) must never surface records.
	edid := buildSubrecord("EDID", append([]byte("Placed"), 0))
	rec := buildRecord("REFR", 1, edid)
	inner := buildTopGroup("CELL", 9, rec)
	outerRec := buildRecord("CELL", 2, nil)
	outer := buildTopGroup("CELL", 0, append(outerRec, inner...))

	buf := append(buildTES4(), outer...)
	records, err := Parse(buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	for _, r := range records {
		if r.Tag.String() == "REFR" {
			t.Fatalf("placement record %s leaked into the record list", r.Tag.String())
		}
	}
}

func TestTopLevelPlacementTagGroupSkipped(t *testing.T) {
	// A top-level group labeled with a placement tag must be skipped
	// wholesale, without descending into its children at all.
	rec := buildRecord("REFR", 9, nil)
	group := buildTopGroup("NAVM", 0, rec)
	buf := append(buildTES4(), group...)

	records, err := Parse(buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records from a placement-tagged top group, got %d", len(records))
	}
}

func TestCompressedRecord(t *testing.T) {
	edid := buildSubrecord("EDID", append([]byte("Zipped"), 0))
	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	if _, err := zw.Write(edid); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	var payload bytes.Buffer
	payload.Write(le32(uint32(len(edid))))
	payload.Write(compressed.Bytes())

	rec := buildRecord("WEAP", 5, payload.Bytes())
	rec[8] = 0x00
	rec[9] = 0x00
	rec[10] = 0x04 // flags bit 0x00040000, little-endian byte 2
	rec[11] = 0x00
	group := buildTopGroup("WEAP", 0, rec)
	buf := append(buildTES4(), group...)

	records, err := Parse(buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].EditorID() != "Zipped" {
		t.Errorf("EditorID() = %q, want %q", records[0].EditorID(), "Zipped")
	}
}

func TestTruncatedRecordSizeRejected(t *testing.T) {
	rec := buildRecord("WEAP", 1, []byte("short"))
	// Corrupt the declared data size to run past the group.
	binary.LittleEndian.PutUint32(rec[4:8], 0xFFFF)
	group := buildTopGroup("WEAP", 0, rec)
	buf := append(buildTES4(), group...)

	records, err := Parse(buf)
	if err != nil {
		t.Fatalf("Parse should not error on a corrupt record size, got %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected the corrupt record to be dropped, got %d records", len(records))
	}
}

func TestTruncatedSubrecordKeepsPriorOnes(t *testing.T) {
	edid := buildSubrecord("EDID", append([]byte("Partial"), 0))
	bad := []byte("DNAM")
	bad = append(bad, le16(200)...) // declares far more data than is present
	payload := append(edid, bad...)
	rec := buildRecord("WEAP", 1, payload)
	group := buildTopGroup("WEAP", 0, rec)
	buf := append(buildTES4(), group...)

	records, err := Parse(buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if _, ok := records[0].Find("DNAM"); ok {
		t.Fatal("truncated DNAM subrecord should not have been parsed")
	}
	if records[0].EditorID() != "Partial" {
		t.Errorf("EditorID() = %q, want %q", records[0].EditorID(), "Partial")
	}
}

func TestParseRejectsMissingTES4(t *testing.T) {
	if _, err := Parse([]byte("not an archive at all............")); err == nil {
		t.Fatal("expected an error for a missing TES4 header")
	}
}
