package store

import (
	"time"

	"github.com/esmscan/esmscan"
)

// Snapshot is one parsed-and-persisted capture of a master archive.
type Snapshot struct {
	ID            int64
	Label         string
	CreatedAt     time.Time
	ArchiveHash   string
	ArchiveSize   int64
	RecordCount   int
	StringCount   int
	HasSubrecords bool
}

// Record is one row of the records table: a record's identity plus its
// resolved display name and description.
type Record struct {
	SnapshotID int64
	FormID     esmscan.FormID
	Type       string
	EditorID   string
	FullName   string
	FullNameID *uint32
	DescText   string
	DescID     *uint32
	DataHash   string
	Flags      uint32
	DataSize   int
}

// RecordInsert is the write-side shape of one records row, passed in
// bulk to InsertRecords.
type RecordInsert struct {
	FormID     esmscan.FormID
	Type       string
	EditorID   string
	FullName   string
	FullNameID *uint32
	DescText   string
	DescID     *uint32
	DataHash   string
	Flags      uint32
	DataSize   int
}

// DecodedField is one row of the decoded_fields table.
type DecodedField struct {
	FormID esmscan.FormID
	Name   string
	Value  string
	Kind   string
}

// StringEntry is one row of the strings table.
type StringEntry struct {
	ID     uint32
	Text   string
	Source string
}

// KeywordEntry is one row of the keywords table: a KYWD record's form id
// and editor id, denormalized for fast keyword-name lookups.
type KeywordEntry struct {
	FormID   esmscan.FormID
	EditorID string
}

// SubrecordEntry is one row of the subrecords table, populated only for
// "full" snapshots that retain raw payloads.
type SubrecordEntry struct {
	FormID   esmscan.FormID
	Type     string
	Index    int
	Data     []byte
}
