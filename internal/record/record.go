// Package record walks a master archive's group/record/subrecord tree and
// yields a flat, ordered sequence of records, each with its subrecords
// parsed into an ordered list. Parse errors on a single record are
// recoverable: the record is discarded and iteration continues. The
// recursive-descent walk follows the same shape as the directory/inode
// recursion in internal/squashfs/reader.go (teacher repo): a cursor
// advances through a flat byte region, recursing into nested containers
// and skipping ones it has no business entering.
package record

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zlib"
	"golang.org/x/xerrors"

	"github.com/esmscan/esmscan"
	"github.com/esmscan/esmscan/internal/binreader"
)

const (
	recordHeaderSize = 24
	groupHeaderSize  = 24
	subrecordHeaderSize = 6

	flagCompressed = 0x00040000

	// Group types whose children are cell persistent/temporary children —
	// placement refs — and must be skipped outright without recursing.
	groupTypeCellPersistentChildren = 8
	groupTypeCellTemporaryChildren  = 9
)

// Subrecord is a tagged, sized byte payload inside a record. Data is a
// slice of the record's (possibly decompressed) payload buffer.
type Subrecord struct {
	Tag  esmscan.Tag
	Data []byte
}

// Record is one parsed record: its identity fields plus its ordered list
// of subrecords.
type Record struct {
	Tag        esmscan.Tag
	FormID     esmscan.FormID
	Flags      uint32
	Revision   uint32
	Version    uint16
	Subrecords []Subrecord
}

// Find returns the first subrecord with the given tag, if any.
func (r *Record) Find(tag string) (Subrecord, bool) {
	for _, s := range r.Subrecords {
		if s.Tag.String() == tag {
			return s, true
		}
	}
	return Subrecord{}, false
}

// FindAll returns every subrecord with the given tag, in file order.
func (r *Record) FindAll(tag string) []Subrecord {
	var out []Subrecord
	for _, s := range r.Subrecords {
		if s.Tag.String() == tag {
			out = append(out, s)
		}
	}
	return out
}

// EditorID returns the record's EDID subrecord decoded as a string, or ""
// if absent.
func (r *Record) EditorID() string {
	s, ok := r.Find("EDID")
	if !ok {
		return ""
	}
	return binreader.TrimString(s.Data)
}

// Parse walks buf (the entire master archive, read once into memory) and
// returns every non-placement record it could parse, in file order.
//
// Header-level errors (a malformed leading TES4 record, a group whose
// declared size cannot be located in buf) are fatal and abort the parse,
// returning the records gathered so far alongside the error, per spec §7.
func Parse(buf []byte) ([]Record, error) {
	if len(buf) < recordHeaderSize {
		return nil, &binreader.TruncatedBuffer{Offset: 0, Need: recordHeaderSize, Have: len(buf)}
	}
	if string(buf[0:4]) != "TES4" {
		return nil, xerrors.Errorf("master archive does not start with a TES4 header record")
	}
	tes4Size, err := binreader.U32le(buf, 4)
	if err != nil {
		return nil, xerrors.Errorf("reading TES4 header: %w", err)
	}
	offset := recordHeaderSize + int(tes4Size)
	if offset > len(buf) {
		return nil, &binreader.TruncatedBuffer{Offset: recordHeaderSize, Need: int(tes4Size), Have: len(buf) - recordHeaderSize}
	}

	p := &parser{buf: buf}
	var records []Record
	for offset < len(buf) {
		recs, consumed, err := p.parseTopGroup(offset)
		if err != nil {
			return records, err
		}
		records = append(records, recs...)
		offset += consumed
	}
	return records, nil
}

type parser struct {
	buf []byte
}

// parseTopGroup parses one top-level GRUP, returning the records it
// (recursively) contains and the number of bytes consumed.
func (p *parser) parseTopGroup(offset int) ([]Record, int, error) {
	if offset+groupHeaderSize > len(p.buf) {
		return nil, 0, &binreader.TruncatedBuffer{Offset: offset, Need: groupHeaderSize, Have: len(p.buf) - offset}
	}
	if string(p.buf[offset:offset+4]) != "GRUP" {
		return nil, 0, xerrors.Errorf("expected GRUP at offset %d, got %q", offset, p.buf[offset:offset+4])
	}
	groupSize, err := binreader.U32le(p.buf, offset+4)
	if err != nil {
		return nil, 0, err
	}
	label := string(p.buf[offset+8 : offset+12])
	if int(groupSize) < groupHeaderSize || offset+int(groupSize) > len(p.buf) {
		return nil, 0, xerrors.Errorf("top-level group %q at offset %d declares size %d beyond archive bounds", label, offset, groupSize)
	}

	if esmscan.IsPlacementTag(label) {
		return nil, int(groupSize), nil
	}

	records := p.parseGroupChildren(offset+groupHeaderSize, offset+int(groupSize))
	return records, int(groupSize), nil
}

// parseGroupChildren walks the flat region [start, end) of a group body,
// which is a sequence of either nested GRUPs or records. Malformed input
// stops the walk at the point of corruption without panicking; whatever
// was already parsed is kept.
func (p *parser) parseGroupChildren(start, end int) []Record {
	var out []Record
	cursor := start
	for cursor+4 <= end && cursor+4 <= len(p.buf) {
		if string(p.buf[cursor:cursor+4]) == "GRUP" {
			if cursor+groupHeaderSize > end {
				break
			}
			childSize, err := binreader.U32le(p.buf, cursor+4)
			if err != nil {
				break
			}
			childType, err := binreader.U32le(p.buf, cursor+12)
			if err != nil {
				break
			}
			childEnd := cursor + int(childSize)
			if int(childSize) < groupHeaderSize || childEnd > end {
				break
			}
			switch childType {
			case groupTypeCellPersistentChildren, groupTypeCellTemporaryChildren:
				// Holds placement refs; skip without recursing.
			default:
				out = append(out, p.parseGroupChildren(cursor+groupHeaderSize, childEnd)...)
			}
			cursor = childEnd
			continue
		}

		rec, consumed, ok := p.parseRecord(cursor, end)
		if !ok {
			break
		}
		if rec != nil {
			out = append(out, *rec)
		}
		cursor += consumed
	}
	return out
}

// parseRecord parses one record header and its payload starting at
// cursor, which must lie within [cursor, end). It returns ok=false when
// the record cannot be located at all (truncated header, or a declared
// data size that runs past end) — the caller stops walking its group in
// that case, since the cursor can no longer be trusted. Recoverable
// payload-level failures (bad compression, truncated subrecords) instead
// return ok=true with rec=nil or a partially-decoded record, so sibling
// records keep parsing.
func (p *parser) parseRecord(cursor, end int) (rec *Record, consumed int, ok bool) {
	if cursor+recordHeaderSize > end {
		return nil, 0, false
	}
	tag := string(p.buf[cursor : cursor+4])
	dataSize, err := binreader.U32le(p.buf, cursor+4)
	if err != nil {
		return nil, 0, false
	}
	flags, err := binreader.U32le(p.buf, cursor+8)
	if err != nil {
		return nil, 0, false
	}
	formID, err := binreader.U32le(p.buf, cursor+12)
	if err != nil {
		return nil, 0, false
	}
	revision, err := binreader.U32le(p.buf, cursor+16)
	if err != nil {
		return nil, 0, false
	}
	version, err := binreader.U16le(p.buf, cursor+20)
	if err != nil {
		return nil, 0, false
	}

	recordEnd := cursor + recordHeaderSize + int(dataSize)
	if recordEnd > end {
		// Data size exceeds the containing group: reject, no crash.
		return nil, 0, false
	}
	consumed = recordEnd - cursor

	if esmscan.IsPlacementTag(tag) {
		return nil, consumed, true
	}

	payload := p.buf[cursor+recordHeaderSize : recordEnd]
	if flags&flagCompressed != 0 {
		inflated, ok := inflateRecord(payload)
		if !ok {
			return nil, consumed, true // dropped: bad compression
		}
		payload = inflated
	}

	return &Record{
		Tag:        esmscan.NewTag(tag),
		FormID:     esmscan.FormID(formID),
		Flags:      flags,
		Revision:   revision,
		Version:    version,
		Subrecords: parseSubrecords(payload),
	}, consumed, true
}

// inflateRecord decompresses a compressed record's payload: a leading u32
// uncompressed size followed by zlib-compressed bytes. It returns ok=false
// if the payload is too short, inflation fails, or the inflated length
// disagrees with the declared size.
func inflateRecord(payload []byte) ([]byte, bool) {
	if len(payload) < 4 {
		return nil, false
	}
	uncompressedSize, err := binreader.U32le(payload, 0)
	if err != nil {
		return nil, false
	}
	zr, err := zlib.NewReader(bytes.NewReader(payload[4:]))
	if err != nil {
		return nil, false
	}
	defer zr.Close()
	inflated, err := io.ReadAll(zr)
	if err != nil {
		return nil, false
	}
	if uint32(len(inflated)) != uncompressedSize {
		return nil, false
	}
	return inflated, true
}

// parseSubrecords parses a record's (possibly decompressed) payload into
// its ordered subrecord list. A subrecord whose size plus offset exceeds
// the payload is rejected; subrecords already parsed are retained.
func parseSubrecords(payload []byte) []Subrecord {
	var out []Subrecord
	cursor := 0
	for cursor+subrecordHeaderSize <= len(payload) {
		tag := string(payload[cursor : cursor+4])
		size, err := binreader.U16le(payload, cursor+4)
		if err != nil {
			break
		}
		dataStart := cursor + subrecordHeaderSize
		dataEnd := dataStart + int(size)
		if dataEnd > len(payload) {
			break
		}
		out = append(out, Subrecord{Tag: esmscan.NewTag(tag), Data: payload[dataStart:dataEnd]})
		cursor = dataEnd
	}
	return out
}
