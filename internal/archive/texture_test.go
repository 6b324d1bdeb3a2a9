package archive

import (
	"os"
	"path/filepath"
	"testing"
)

// buildTextureFileHeader builds one 24-byte DX10 directory entry. chunkCount
// drives how many textureChunkDescSize blocks follow it in the directory,
// which is exactly the field a wrong byte offset would corrupt.
func buildTextureFileHeader(chunkCount uint8, height, width uint16, numMips, dxgiFormat uint8, tileMode uint16) []byte {
	buf := make([]byte, textureFileHeaderSize)
	// name_hash u32@0, extension[4]@4, dir_hash u32@8 left zero.
	buf[12] = 0 // unknown
	buf[13] = chunkCount
	// chunk_header_size u16@14 left zero.
	buf[16] = byte(height)
	buf[17] = byte(height >> 8)
	buf[18] = byte(width)
	buf[19] = byte(width >> 8)
	buf[20] = numMips
	buf[21] = dxgiFormat
	buf[22] = byte(tileMode)
	buf[23] = byte(tileMode >> 8)
	return buf
}

func buildChunkDesc(dataOffset uint64, packedSize, unpackedSize uint32, startMip, endMip uint16) []byte {
	buf := make([]byte, textureChunkDescSize)
	for i := 0; i < 8; i++ {
		buf[i] = byte(dataOffset >> (8 * i))
	}
	copy(buf[8:12], le32(packedSize))
	copy(buf[12:16], le32(unpackedSize))
	buf[16] = byte(startMip)
	buf[17] = byte(startMip >> 8)
	buf[18] = byte(endMip)
	buf[19] = byte(endMip >> 8)
	return buf
}

// buildTextureArchive writes a two-file DX10 container: the first entry
// has two chunks, the second has one. A wrong num_chunks offset (or any
// other shifted field) on the first entry advances the directory cursor by
// the wrong amount and corrupts the second entry's parse, so this layout
// catches offset bugs that a single-entry archive would miss.
func buildTextureArchive(t *testing.T, names []string) string {
	t.Helper()

	file0Chunks := []byte{}
	file0Chunks = append(file0Chunks, buildChunkDesc(1000, 100, 200, 0, 1)...)
	file0Chunks = append(file0Chunks, buildChunkDesc(1100, 50, 60, 2, 2)...)
	file0Hdr := buildTextureFileHeader(2, 512, 256, 9, 98, 0)

	file1Chunks := buildChunkDesc(2000, 10, 20, 0, 0)
	file1Hdr := buildTextureFileHeader(1, 64, 64, 1, 98, 1)

	var dir []byte
	dir = append(dir, file0Hdr...)
	dir = append(dir, file0Chunks...)
	dir = append(dir, file1Hdr...)
	dir = append(dir, file1Chunks...)

	nameTableOffset := uint64(containerHeaderSize + len(dir))

	var nameTable []byte
	for _, n := range names {
		nameTable = append(nameTable, le16(uint16(len(n)))...)
		nameTable = append(nameTable, []byte(n)...)
	}

	var buf []byte
	buf = append(buf, []byte(magic)...)
	buf = append(buf, le32(1)...)
	buf = append(buf, []byte(textureVariant)...)
	buf = append(buf, le32(uint32(len(names)))...)
	buf = append(buf, le64(nameTableOffset)...)
	buf = append(buf, dir...)
	buf = append(buf, nameTable...)

	path := filepath.Join(t.TempDir(), "test_tex.ba2")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTextureArchiveRoundTrip(t *testing.T) {
	path := buildTextureArchive(t, []string{"textures/foo.dds", "textures/bar.dds"})

	r, err := OpenTexture(path)
	if err != nil {
		t.Fatalf("OpenTexture: %v", err)
	}
	defer r.Close()

	entries := r.ListEntries()
	if len(entries) != 2 {
		t.Fatalf("ListEntries = %+v, want 2 entries", entries)
	}

	foo, ok := r.FindByPath("textures/foo.dds")
	if !ok {
		t.Fatal("FindByPath did not find textures/foo.dds")
	}
	if foo.Height != 512 || foo.Width != 256 || foo.NumMips != 9 || foo.DXGIFormat != 98 || foo.TileMode != 0 {
		t.Fatalf("foo = %+v, want height=512 width=256 numMips=9 dxgiFormat=98 tileMode=0", foo)
	}
	if len(foo.Chunks) != 2 {
		t.Fatalf("foo.Chunks = %+v, want 2 chunks", foo.Chunks)
	}
	if foo.Chunks[0].DataOffset != 1000 || foo.Chunks[0].PackedSize != 100 || foo.Chunks[0].UnpackedSize != 200 {
		t.Fatalf("foo.Chunks[0] = %+v", foo.Chunks[0])
	}
	if foo.Chunks[1].DataOffset != 1100 || foo.Chunks[1].StartMip != 2 || foo.Chunks[1].EndMip != 2 {
		t.Fatalf("foo.Chunks[1] = %+v", foo.Chunks[1])
	}

	// If num_chunks (or any earlier field) were read from the wrong byte
	// offset in file 0's header, the directory cursor would be thrown off
	// and file 1's header would be parsed from garbage bytes.
	bar, ok := r.FindByPath("textures/bar.dds")
	if !ok {
		t.Fatal("FindByPath did not find textures/bar.dds")
	}
	if bar.Height != 64 || bar.Width != 64 || bar.NumMips != 1 || bar.DXGIFormat != 98 || bar.TileMode != 1 {
		t.Fatalf("bar = %+v, want height=64 width=64 numMips=1 dxgiFormat=98 tileMode=1", bar)
	}
	if len(bar.Chunks) != 1 || bar.Chunks[0].DataOffset != 2000 {
		t.Fatalf("bar.Chunks = %+v, want one chunk at offset 2000", bar.Chunks)
	}
}
