// Package strtab parses the three on-disk localized string-table variants
// (".strings", ".dlstrings", ".ilstrings") and merges them, for one
// language together with its optional "nw_" prefix variant, into a single
// string-id-to-text mapping.
package strtab

import (
	"strings"

	"golang.org/x/xerrors"

	"github.com/esmscan/esmscan/internal/archive"
	"github.com/esmscan/esmscan/internal/binreader"
)

const stringTableHeaderSize = 8 // count u32, data_size u32

// Variant distinguishes the two on-disk string-table layouts used by the
// three file suffixes.
type Variant int

const (
	// Plain is the ".strings" layout: NUL-terminated UTF-8 entries.
	Plain Variant = iota
	// LengthPrefixed is the ".dlstrings"/".ilstrings" layout: a u32
	// length followed by that many bytes, trailing NULs stripped.
	LengthPrefixed
)

// VariantForSuffix returns the Variant implied by a string-table file's
// path suffix.
func VariantForSuffix(path string) Variant {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".strings") {
		return Plain
	}
	return LengthPrefixed
}

// Parse decodes one string-table file's bytes into an id-to-text mapping.
func Parse(buf []byte, variant Variant) (map[uint32]string, error) {
	if len(buf) < stringTableHeaderSize {
		return nil, &binreader.TruncatedBuffer{Offset: 0, Need: stringTableHeaderSize, Have: len(buf)}
	}
	count, err := binreader.U32le(buf, 0)
	if err != nil {
		return nil, err
	}
	dataStart := stringTableHeaderSize + int(count)*8

	out := make(map[uint32]string, count)
	for i := uint32(0); i < count; i++ {
		dirOff := stringTableHeaderSize + int(i)*8
		id, err := binreader.U32le(buf, dirOff)
		if err != nil {
			return nil, xerrors.Errorf("directory entry %d: %w", i, err)
		}
		dataOffset, err := binreader.U32le(buf, dirOff+4)
		if err != nil {
			return nil, xerrors.Errorf("directory entry %d: %w", i, err)
		}
		strOff := dataStart + int(dataOffset)

		var text string
		switch variant {
		case Plain:
			text, _, err = binreader.NulString(buf, strOff)
			if err != nil {
				continue // recoverable: this string is dropped, loading continues
			}
		default:
			length, lerr := binreader.U32le(buf, strOff)
			if lerr != nil {
				continue
			}
			if ferr := need(buf, strOff+4, int(length)); ferr != nil {
				continue
			}
			raw := buf[strOff+4 : strOff+4+int(length)]
			text = stripTrailingNuls(raw)
		}
		out[id] = text
	}
	return out, nil
}

func need(buf []byte, off, n int) error {
	if off < 0 || n < 0 || off+n > len(buf) {
		return &binreader.TruncatedBuffer{Offset: off, Need: n, Have: len(buf) - off}
	}
	return nil
}

func stripTrailingNuls(b []byte) string {
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	return string(decodeLossy(b[:end]))
}

func decodeLossy(b []byte) []byte {
	// strings.ToValidUTF8 replaces invalid sequences with the
	// replacement character, matching DecodeUtf8 in the error taxonomy.
	return []byte(strings.ToValidUTF8(string(b), "�"))
}

// Counts reports, per source file name, how many string ids it
// contributed — used for diagnostics only.
type Counts map[string]int

// Load reads the three string-table files for lang (default "en") plus
// their optional "nw_<lang>" counterparts from inside gen, and merges
// them into a single mapping. Later loads overwrite earlier ones on id
// collision — this is deliberate: the id spaces do not overlap in
// practice, and no attempt is made to detect or warn about collisions.
//
// The game's main string files carry a "seventysix_" prefix ahead of
// the language code (e.g. "strings/seventysix_en.strings"); the "nw_"
// variant has no such prefix.
func Load(gen *archive.Reader, lang string) (map[uint32]string, Counts, error) {
	if lang == "" {
		lang = "en"
	}
	merged := make(map[uint32]string)
	counts := make(Counts)

	suffixes := []string{"strings", "dlstrings", "ilstrings"}
	prefixes := []string{"strings/seventysix_" + lang, "strings/nw_" + lang}
	candidates := make([]string, 0, len(suffixes)*len(prefixes))
	for _, suf := range suffixes {
		for _, pre := range prefixes {
			candidates = append(candidates, pre+"."+suf)
		}
	}

	for _, fragment := range candidates {
		entry, ok := gen.FindFragment(fragment)
		if !ok {
			continue
		}
		raw, err := gen.Extract(entry)
		if err != nil {
			continue // non-fatal: this source is skipped
		}
		variant := VariantForSuffix(entry.Path)
		m, err := Parse(raw, variant)
		if err != nil {
			continue
		}
		for id, text := range m {
			merged[id] = text
		}
		counts[entry.Path] = len(m)
	}

	return merged, counts, nil
}
