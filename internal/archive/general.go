package archive

import (
	"bytes"
	"io"
	"strings"

	"github.com/klauspost/compress/zlib"
	"golang.org/x/exp/mmap"
	"golang.org/x/xerrors"

	"github.com/esmscan/esmscan/internal/binreader"
)

const (
	generalVariant       = "GNRL"
	generalDirEntrySize  = 36 // name_hash u32, extension[4], dir_hash u32, unknown u32, data_offset u64, packed_size u32, unpacked_size u32, sentinel[4]
)

// Reader reads a general (GNRL) packed archive: an arbitrary collection of
// named blobs, each optionally zlib-compressed.
type Reader struct {
	r       reader
	entries []Entry
	byPath  map[string]int
}

// Open opens path as a general packed archive. It fails with *BadMagic if
// the container magic does not match, or *WrongVariant if the archive type
// is not GNRL.
func Open(path string) (*Reader, error) {
	ra, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	r := &Reader{r: reader{ra: ra}}
	if err := r.load(); err != nil {
		ra.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) load() error {
	hdrBuf, err := r.r.readAt(0, containerHeaderSize)
	if err != nil {
		return err
	}
	hdr, err := readHeader(hdrBuf)
	if err != nil {
		return err
	}
	if hdr.Magic != magic {
		return &BadMagic{Want: magic, Got: hdr.Magic}
	}
	if hdr.ArchiveType != generalVariant {
		return &WrongVariant{Want: generalVariant, Got: hdr.ArchiveType}
	}

	dirSize := int(hdr.FileCount) * generalDirEntrySize
	dirBuf, err := r.r.readAt(containerHeaderSize, dirSize)
	if err != nil {
		return xerrors.Errorf("reading file directory: %w", err)
	}

	type rawEntry struct {
		dataOffset   uint64
		packedSize   uint32
		unpackedSize uint32
	}
	raws := make([]rawEntry, hdr.FileCount)
	for i := range raws {
		off := i * generalDirEntrySize
		dataOffset, err := binreader.U64le(dirBuf, off+16)
		if err != nil {
			return xerrors.Errorf("directory entry %d: %w", i, err)
		}
		packedSize, err := binreader.U32le(dirBuf, off+24)
		if err != nil {
			return xerrors.Errorf("directory entry %d: %w", i, err)
		}
		unpackedSize, err := binreader.U32le(dirBuf, off+28)
		if err != nil {
			return xerrors.Errorf("directory entry %d: %w", i, err)
		}
		raws[i] = rawEntry{dataOffset: dataOffset, packedSize: packedSize, unpackedSize: unpackedSize}
	}

	// The name table starts at hdr.NameTableOffset and holds one
	// (u16 length, bytes) entry per file, in directory order.
	nameBuf, err := r.wholeFileFrom(int64(hdr.NameTableOffset))
	if err != nil {
		return xerrors.Errorf("reading name table: %w", err)
	}
	names, err := readNameTable(nameBuf, 0, hdr.FileCount)
	if err != nil {
		return err
	}
	if len(names) != len(raws) {
		return xerrors.Errorf("name table has %d entries, directory has %d", len(names), len(raws))
	}

	r.entries = make([]Entry, len(raws))
	r.byPath = make(map[string]int, len(raws))
	for i, raw := range raws {
		e := Entry{
			Path:         names[i],
			DataOffset:   int64(raw.dataOffset),
			PackedSize:   raw.packedSize,
			UnpackedSize: raw.unpackedSize,
		}
		r.entries[i] = e
		r.byPath[strings.ToLower(e.Path)] = i
	}
	return nil
}

// wholeFileFrom reads from off to the end of the file.
func (r *Reader) wholeFileFrom(off int64) ([]byte, error) {
	n := r.r.ra.Len() - int(off)
	if n < 0 {
		return nil, &binreader.TruncatedBuffer{Offset: int(off), Need: 0, Have: 0}
	}
	return r.r.readAt(off, n)
}

// Close releases the underlying file handle.
func (r *Reader) Close() error { return r.r.Close() }

// ListEntries returns every file entry, sorted by normalized path.
func (r *Reader) ListEntries() []Entry { return sortEntriesByPath(r.entries) }

// FindByPath looks up an entry by case-insensitive exact match on its
// normalized path.
func (r *Reader) FindByPath(p string) (Entry, bool) {
	i, ok := r.byPath[strings.ToLower(normalizePath(p))]
	if !ok {
		return Entry{}, false
	}
	return r.entries[i], true
}

// FindFragment returns the first entry (in directory order) whose
// normalized path contains s, case-insensitively.
func (r *Reader) FindFragment(s string) (Entry, bool) {
	s = strings.ToLower(s)
	for _, e := range r.entries {
		if strings.Contains(strings.ToLower(e.Path), s) {
			return e, true
		}
	}
	return Entry{}, false
}

// Extract reads and, if necessary, zlib-inflates entry's bytes.
func (r *Reader) Extract(e Entry) ([]byte, error) {
	if e.PackedSize > 0 {
		packed, err := r.r.readAt(e.DataOffset, int(e.PackedSize))
		if err != nil {
			return nil, err
		}
		zr, err := zlib.NewReader(bytes.NewReader(packed))
		if err != nil {
			return nil, &InflateFailed{Err: err}
		}
		defer zr.Close()
		out := make([]byte, 0, e.UnpackedSize)
		buf := bytes.NewBuffer(out)
		if _, err := io.Copy(buf, zr); err != nil {
			return nil, &InflateFailed{Err: err}
		}
		return buf.Bytes(), nil
	}
	return r.r.readAt(e.DataOffset, int(e.UnpackedSize))
}
