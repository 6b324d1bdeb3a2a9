package strtab

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func le32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

// buildPlainTable builds a ".strings" file: a directory of (id, offset)
// pairs followed by a data block of NUL-terminated strings.
func buildPlainTable(entries map[uint32]string) []byte {
	ids := make([]uint32, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}

	var data bytes.Buffer
	offsets := make(map[uint32]uint32, len(entries))
	for _, id := range ids {
		offsets[id] = uint32(data.Len())
		data.WriteString(entries[id])
		data.WriteByte(0)
	}

	var buf bytes.Buffer
	buf.Write(le32(uint32(len(ids))))
	buf.Write(le32(uint32(data.Len())))
	for _, id := range ids {
		buf.Write(le32(id))
		buf.Write(le32(offsets[id]))
	}
	buf.Write(data.Bytes())
	return buf.Bytes()
}

func TestParsePlainRoundTrip(t *testing.T) {
	buf := buildPlainTable(map[uint32]string{0x1000: "Hello"})

	got, err := Parse(buf, Plain)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(got) != 1 || got[0x1000] != "Hello" {
		t.Fatalf("Parse = %v, want {0x1000: Hello}", got)
	}
}

// buildLengthPrefixedTable builds a ".dlstrings"/".ilstrings" file: a u32
// length followed by that many bytes per entry.
func buildLengthPrefixedTable(entries map[uint32]string) []byte {
	ids := make([]uint32, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}

	var data bytes.Buffer
	offsets := make(map[uint32]uint32, len(entries))
	for _, id := range ids {
		offsets[id] = uint32(data.Len())
		text := entries[id]
		data.Write(le32(uint32(len(text) + 1)))
		data.WriteString(text)
		data.WriteByte(0)
	}

	var buf bytes.Buffer
	buf.Write(le32(uint32(len(ids))))
	buf.Write(le32(uint32(data.Len())))
	for _, id := range ids {
		buf.Write(le32(id))
		buf.Write(le32(offsets[id]))
	}
	buf.Write(data.Bytes())
	return buf.Bytes()
}

func TestParseLengthPrefixed(t *testing.T) {
	buf := buildLengthPrefixedTable(map[uint32]string{0x2000: "World"})

	got, err := Parse(buf, LengthPrefixed)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(got) != 1 || got[0x2000] != "World" {
		t.Fatalf("Parse = %v, want {0x2000: World}", got)
	}
}

func TestParseRespectsDeclaredCount(t *testing.T) {
	buf := buildPlainTable(map[uint32]string{1: "a", 2: "b", 3: "c"})
	got, err := Parse(buf, Plain)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d ids, want exactly the declared count of 3", len(got))
	}
}

func TestParseTruncatedHeader(t *testing.T) {
	if _, err := Parse([]byte{0x01, 0x02}, Plain); err == nil {
		t.Fatal("expected an error for a header shorter than 8 bytes")
	}
}

func TestVariantForSuffix(t *testing.T) {
	cases := map[string]Variant{
		"strings/seventysix_en.strings":   Plain,
		"strings/seventysix_en.dlstrings": LengthPrefixed,
		"strings/seventysix_en.ilstrings": LengthPrefixed,
	}
	for path, want := range cases {
		if got := VariantForSuffix(path); got != want {
			t.Errorf("VariantForSuffix(%q) = %v, want %v", path, got, want)
		}
	}
}
