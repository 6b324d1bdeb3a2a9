package record

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// ContentHash computes the deterministic change-detection hash for r: a
// SHA-256 over the concatenation of (subrecord tag, size, payload) for
// every subrecord in order. Record-level flags, revision, and version are
// deliberately excluded — only the subrecord bytes determine whether a
// record changed between two snapshots.
func (r *Record) ContentHash() [32]byte {
	h := sha256.New()
	var sizeBuf [2]byte
	for _, s := range r.Subrecords {
		h.Write(s.Tag[:])
		binary.LittleEndian.PutUint16(sizeBuf[:], uint16(len(s.Data)))
		h.Write(sizeBuf[:])
		h.Write(s.Data)
	}
	var sum [32]byte
	h.Sum(sum[:0])
	return sum
}

// ContentHashHex returns ContentHash encoded as lowercase hex, the form
// persisted by the snapshot store.
func (r *Record) ContentHashHex() string {
	sum := r.ContentHash()
	return hex.EncodeToString(sum[:])
}
