// Package archive reads packed-archive container files (".ba2"): a
// container header, a per-file directory, and a name table, plus
// zlib-framed extraction of individual files. Two on-disk variants are
// supported: a general blob container ("GNRL") and a texture container
// ("DX10"), see general.go and texture.go.
//
// The reader style (fixed-size binary.Read-shaped header structs, a
// ReaderAt-backed random-access file, recursive-free flat directory
// walking) follows internal/squashfs/reader.go in the teacher repo, and
// the container header/directory/name-table shape follows the MPQ archive
// reader referenced in the retrieval pack (icza/mpq).
package archive

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/exp/mmap"
	"golang.org/x/xerrors"

	"github.com/esmscan/esmscan/internal/binreader"
)

// BadMagic is returned by Open when the file does not begin with the
// expected container magic.
type BadMagic struct {
	Want, Got string
}

func (e *BadMagic) Error() string {
	return fmt.Sprintf("bad magic: want %q, got %q", e.Want, e.Got)
}

// WrongVariant is returned by Open when the container's archive-type tag
// does not match the variant being opened (GNRL vs DX10).
type WrongVariant struct {
	Want, Got string
}

func (e *WrongVariant) Error() string {
	return fmt.Sprintf("wrong archive variant: want %q, got %q", e.Want, e.Got)
}

// ShortRead is returned when extracting a file's bytes could not read the
// number of bytes the directory entry promised.
type ShortRead struct {
	Want, Got int
}

func (e *ShortRead) Error() string {
	return fmt.Sprintf("short read: want %d bytes, got %d", e.Want, e.Got)
}

// InflateFailed wraps a zlib decompression failure while extracting a
// file's packed bytes.
type InflateFailed struct {
	Err error
}

func (e *InflateFailed) Error() string { return "inflate failed: " + e.Err.Error() }
func (e *InflateFailed) Unwrap() error { return e.Err }

const (
	magic       = "BTDX"
	containerHeaderSize = 24
)

// header is the 24-byte fixed container header shared by both variants.
type header struct {
	Magic           string
	Version         uint32
	ArchiveType     string
	FileCount       uint32
	NameTableOffset uint64
}

func readHeader(buf []byte) (header, error) {
	if len(buf) < containerHeaderSize {
		return header{}, &binreader.TruncatedBuffer{Offset: 0, Need: containerHeaderSize, Have: len(buf)}
	}
	magicBytes := buf[0:4]
	version, err := binreader.U32le(buf, 4)
	if err != nil {
		return header{}, err
	}
	typeBytes := buf[8:12]
	fileCount, err := binreader.U32le(buf, 12)
	if err != nil {
		return header{}, err
	}
	nameTableOffset, err := binreader.U64le(buf, 16)
	if err != nil {
		return header{}, err
	}
	return header{
		Magic:           string(magicBytes),
		Version:         version,
		ArchiveType:     string(typeBytes),
		FileCount:       fileCount,
		NameTableOffset: nameTableOffset,
	}, nil
}

// readNameTable reads file_count (u16 length, bytes) entries starting at
// offset, in directory order.
func readNameTable(buf []byte, offset int64, count uint32) ([]string, error) {
	names := make([]string, 0, count)
	off := int(offset)
	for i := uint32(0); i < count; i++ {
		name, consumed, err := binreader.LenString16(buf, off)
		if err != nil {
			return nil, xerrors.Errorf("name table entry %d: %w", i, err)
		}
		names = append(names, normalizePath(name))
		off += consumed
	}
	return names, nil
}

// normalizePath rewrites backslashes to forward slashes so that lookups
// are consistent regardless of the path separator baked into the archive.
func normalizePath(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}

// reader is the read-only random-access file handle shared by both
// container variants.
type reader struct {
	ra *mmap.ReaderAt
}

func (r *reader) readAt(off int64, n int) ([]byte, error) {
	buf := make([]byte, n)
	got, err := r.ra.ReadAt(buf, off)
	if got == n {
		return buf, nil
	}
	if err != nil {
		return nil, xerrors.Errorf("read %d bytes at %d: %w", n, off, err)
	}
	return nil, &ShortRead{Want: n, Got: got}
}

func (r *reader) Close() error { return r.ra.Close() }

// Entry describes one file inside a packed archive, independent of
// variant; callers use the concrete Reader's Extract to pull its bytes.
type Entry struct {
	Path         string
	DataOffset   int64
	PackedSize   uint32
	UnpackedSize uint32
}

// sortEntriesByPath returns entries sorted by normalized path, used by
// list_entries so iteration order is deterministic.
func sortEntriesByPath(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
