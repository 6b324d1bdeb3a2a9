package binreader

import "testing"

func TestFixedWidthReads(t *testing.T) {
	buf := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}

	if v, err := U8(buf, 0); err != nil || v != 0x01 {
		t.Fatalf("U8 = %v, %v", v, err)
	}
	if v, err := U16le(buf, 0); err != nil || v != 0x0201 {
		t.Fatalf("U16le = %#x, %v", v, err)
	}
	if v, err := U32le(buf, 0); err != nil || v != 0x04030201 {
		t.Fatalf("U32le = %#x, %v", v, err)
	}
	if v, err := I32le(buf, 0); err != nil || v != 0x04030201 {
		t.Fatalf("I32le = %#x, %v", v, err)
	}
	if v, err := U64le(buf, 0); err != nil || v != 0x0807060504030201 {
		t.Fatalf("U64le = %#x, %v", v, err)
	}
}

func TestF32le(t *testing.T) {
	// 0.5 as IEEE-754 little-endian bytes.
	buf := []byte{0x00, 0x00, 0x00, 0x3F}
	v, err := F32le(buf, 0)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0.5 {
		t.Fatalf("F32le = %v, want 0.5", v)
	}
}

func TestTruncatedReads(t *testing.T) {
	buf := []byte{0x01, 0x02}

	if _, err := U32le(buf, 0); err == nil {
		t.Fatal("expected TruncatedBuffer, got nil")
	} else if _, ok := err.(*TruncatedBuffer); !ok {
		t.Fatalf("expected *TruncatedBuffer, got %T", err)
	}

	if _, err := U8(buf, 5); err == nil {
		t.Fatal("expected TruncatedBuffer for out-of-range offset")
	}
	if _, err := U8(buf, -1); err == nil {
		t.Fatal("expected TruncatedBuffer for negative offset")
	}
}

func TestNulString(t *testing.T) {
	buf := []byte("hello\x00world")

	s, consumed, err := NulString(buf, 0)
	if err != nil {
		t.Fatal(err)
	}
	if s != "hello" {
		t.Fatalf("NulString = %q, want %q", s, "hello")
	}
	if consumed != 6 {
		t.Fatalf("consumed = %d, want 6", consumed)
	}

	// No terminating NUL: the remainder of buf is returned.
	s2, consumed2, err := NulString(buf, 6)
	if err != nil {
		t.Fatal(err)
	}
	if s2 != "world" {
		t.Fatalf("NulString tail = %q, want %q", s2, "world")
	}
	if consumed2 != 5 {
		t.Fatalf("consumed = %d, want 5", consumed2)
	}
}

func TestLenString16(t *testing.T) {
	buf := []byte{0x05, 0x00, 'h', 'e', 'l', 'l', 'o', 0xFF}

	s, consumed, err := LenString16(buf, 0)
	if err != nil {
		t.Fatal(err)
	}
	if s != "hello" || consumed != 7 {
		t.Fatalf("LenString16 = %q, %d; want %q, 7", s, consumed, "hello")
	}

	short := []byte{0x05, 0x00, 'h', 'i'}
	if _, _, err := LenString16(short, 0); err == nil {
		t.Fatal("expected TruncatedBuffer for short payload")
	}
}

func TestLenString32(t *testing.T) {
	buf := []byte{0x03, 0x00, 0x00, 0x00, 'f', 'o', 'o'}

	s, consumed, err := LenString32(buf, 0)
	if err != nil {
		t.Fatal(err)
	}
	if s != "foo" || consumed != 7 {
		t.Fatalf("LenString32 = %q, %d; want %q, 7", s, consumed, "foo")
	}
}

func TestTrimString(t *testing.T) {
	cases := []struct {
		in   []byte
		want string
	}{
		{[]byte("EditorID\x00"), "EditorID"},
		{[]byte("NoTrailingNUL"), "NoTrailingNUL"},
		{[]byte("\x00\x00\x00"), ""},
		{[]byte{}, ""},
	}
	for _, c := range cases {
		if got := TrimString(c.in); got != c.want {
			t.Errorf("TrimString(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestToUTF8InvalidSequence(t *testing.T) {
	// A 0xFF byte never occurs in valid UTF-8; it should be replaced
	// rather than cause an error.
	buf := []byte{'a', 0xFF, 'b', 0x00}
	s, _, err := NulString(buf, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(s) == 0 {
		t.Fatal("expected a non-empty replacement string")
	}
}
