// Package esmscan holds the domain vocabulary shared by every package in
// this module: form ids, record type tags, and decoded-field value kinds.
package esmscan

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// HashBytes returns the lowercase hex SHA-256 digest of b, the form used
// for a snapshot's archive-identity fingerprint.
func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// FormID is the 32-bit unsigned identifier of a record. It is the primary
// key of a record within one snapshot.
type FormID uint32

// String renders a form id the way every decoded form-id-reference field
// is formatted: "0x" followed by 8 uppercase hex digits.
func (f FormID) String() string {
	return fmt.Sprintf("0x%08X", uint32(f))
}

// Tag is a 4-character record or subrecord type tag, e.g. "WEAP" or "EDID".
type Tag [4]byte

func (t Tag) String() string { return string(t[:]) }

// NewTag builds a Tag from a string; s must be exactly 4 bytes.
func NewTag(s string) Tag {
	var t Tag
	copy(t[:], s)
	return t
}

// placementTags are the record types describing where an object is placed
// in the world. Parsing deliberately never yields records of these types.
var placementTags = map[string]bool{
	"REFR": true,
	"NAVM": true,
	"ACHR": true,
	"PGRE": true,
	"PMIS": true,
	"PHZD": true,
	"PARW": true,
}

// IsPlacementTag reports whether tag names a placement record type that
// must be skipped during parsing.
func IsPlacementTag(tag string) bool {
	return placementTags[tag]
}

// ValueKind classifies a DecodedField's value for display-time formatting.
// The underlying value is always carried as a string so that diffing is
// uniform regardless of kind.
type ValueKind int

const (
	KindInteger ValueKind = iota
	KindFloat
	KindString
	KindFormIDRef
	KindFlags
	KindEnum
)

func (k ValueKind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindFormIDRef:
		return "form-id-reference"
	case KindFlags:
		return "flags"
	case KindEnum:
		return "enum"
	default:
		return "unknown"
	}
}
