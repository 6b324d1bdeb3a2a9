package archive

import (
	"bytes"
	"io"
	"sort"
	"strings"

	"github.com/klauspost/compress/zlib"
	"golang.org/x/exp/mmap"
	"golang.org/x/xerrors"

	"github.com/esmscan/esmscan/internal/binreader"
)

const (
	textureVariant         = "DX10"
	textureFileHeaderSize  = 24 // name_hash u32@0, extension[4]@4, dir_hash u32@8, unknown u8@12, num_chunks u8@13, chunk_header_size u16@14, height u16@16, width u16@18, num_mips u8@20, dxgi_format u8@21, tile_mode u16@22
	textureChunkDescSize   = 24 // offset u64, packed_size u32, unpacked_size u32, start_mip u16, end_mip u16, padding[4]
)

// Chunk is one mip-range slice of a texture file.
type Chunk struct {
	DataOffset   int64
	PackedSize   uint32
	UnpackedSize uint32
	StartMip     uint16
	EndMip       uint16
}

// TextureEntry describes one file inside a texture (DX10) packed archive,
// including its per-chunk layout and texture-format metadata.
type TextureEntry struct {
	Path        string
	Height      uint16
	Width       uint16
	NumMips     uint8
	DXGIFormat  uint8
	TileMode    uint16
	Chunks      []Chunk
}

// TextureReader reads a texture (DX10) packed archive: multi-chunk,
// per-chunk mip-range files with texture-format metadata.
type TextureReader struct {
	r       reader
	entries []TextureEntry
	byPath  map[string]int
}

// OpenTexture opens path as a texture packed archive. It fails with
// *BadMagic if the container magic does not match, or *WrongVariant if the
// archive type is not DX10.
func OpenTexture(path string) (*TextureReader, error) {
	ra, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	r := &TextureReader{r: reader{ra: ra}}
	if err := r.load(); err != nil {
		ra.Close()
		return nil, err
	}
	return r, nil
}

func (r *TextureReader) load() error {
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
	if hdr.ArchiveType != textureVariant {
		return &WrongVariant{Want: textureVariant, Got: hdr.ArchiveType}
	}

	entries := make([]TextureEntry, hdr.FileCount)
	off := int64(containerHeaderSize)
	for i := range entries {
		fileHdr, err := r.r.readAt(off, textureFileHeaderSize)
		if err != nil {
			return xerrors.Errorf("file header %d: %w", i, err)
		}
		numChunks, err := binreader.U8(fileHdr, 13)
		if err != nil {
			return err
		}
		height, err := binreader.U16le(fileHdr, 16)
		if err != nil {
			return err
		}
		width, err := binreader.U16le(fileHdr, 18)
		if err != nil {
			return err
		}
		numMips, err := binreader.U8(fileHdr, 20)
		if err != nil {
			return err
		}
		dxgiFormat, err := binreader.U8(fileHdr, 21)
		if err != nil {
			return err
		}
		tileMode, err := binreader.U16le(fileHdr, 22)
		if err != nil {
			return err
		}
		off += textureFileHeaderSize

		chunks := make([]Chunk, numChunks)
		chunkBuf, err := r.r.readAt(off, int(numChunks)*textureChunkDescSize)
		if err != nil {
			return xerrors.Errorf("chunk descriptors for file %d: %w", i, err)
		}
		for c := range chunks {
			co := c * textureChunkDescSize
			dataOffset, err := binreader.U64le(chunkBuf, co)
			if err != nil {
				return err
			}
			packedSize, err := binreader.U32le(chunkBuf, co+8)
			if err != nil {
				return err
			}
			unpackedSize, err := binreader.U32le(chunkBuf, co+12)
			if err != nil {
				return err
			}
			startMip, err := binreader.U16le(chunkBuf, co+16)
			if err != nil {
				return err
			}
			endMip, err := binreader.U16le(chunkBuf, co+18)
			if err != nil {
				return err
			}
			chunks[c] = Chunk{
				DataOffset:   int64(dataOffset),
				PackedSize:   packedSize,
				UnpackedSize: unpackedSize,
				StartMip:     startMip,
				EndMip:       endMip,
			}
		}
		off += int64(numChunks) * textureChunkDescSize

		entries[i] = TextureEntry{
			Height:     height,
			Width:      width,
			NumMips:    numMips,
			DXGIFormat: dxgiFormat,
			TileMode:   tileMode,
			Chunks:     chunks,
		}
	}

	nameBuf, err := r.wholeFileFrom(int64(hdr.NameTableOffset))
	if err != nil {
		return xerrors.Errorf("reading name table: %w", err)
	}
	names, err := readNameTable(nameBuf, 0, hdr.FileCount)
	if err != nil {
		return err
	}
	if len(names) != len(entries) {
		return xerrors.Errorf("name table has %d entries, directory has %d", len(names), len(entries))
	}

	r.entries = entries
	r.byPath = make(map[string]int, len(entries))
	for i := range r.entries {
		r.entries[i].Path = names[i]
		r.byPath[strings.ToLower(names[i])] = i
	}
	return nil
}

func (r *TextureReader) wholeFileFrom(off int64) ([]byte, error) {
	n := r.r.ra.Len() - int(off)
	if n < 0 {
		return nil, &binreader.TruncatedBuffer{Offset: int(off), Need: 0, Have: 0}
	}
	return r.r.readAt(off, n)
}

// Close releases the underlying file handle.
func (r *TextureReader) Close() error { return r.r.Close() }

// ListEntries returns every texture file entry, sorted by normalized path.
func (r *TextureReader) ListEntries() []TextureEntry {
	out := make([]TextureEntry, len(r.entries))
	copy(out, r.entries)
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// FindByPath looks up a texture entry by case-insensitive exact match on
// its normalized path.
func (r *TextureReader) FindByPath(p string) (TextureEntry, bool) {
	i, ok := r.byPath[strings.ToLower(normalizePath(p))]
	if !ok {
		return TextureEntry{}, false
	}
	return r.entries[i], true
}

// ExtractChunk reads and, if necessary, zlib-inflates one chunk's bytes.
func (r *TextureReader) ExtractChunk(c Chunk) ([]byte, error) {
	if c.PackedSize > 0 {
		packed, err := r.r.readAt(c.DataOffset, int(c.PackedSize))
		if err != nil {
			return nil, err
		}
		zr, err := zlib.NewReader(bytes.NewReader(packed))
		if err != nil {
			return nil, &InflateFailed{Err: err}
		}
		defer zr.Close()
		buf := bytes.NewBuffer(make([]byte, 0, c.UnpackedSize))
		if _, err := io.Copy(buf, zr); err != nil {
			return nil, &InflateFailed{Err: err}
		}
		return buf.Bytes(), nil
	}
	return r.r.readAt(c.DataOffset, int(c.UnpackedSize))
}
