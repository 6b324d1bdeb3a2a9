package diff

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/esmscan/esmscan"
	"github.com/esmscan/esmscan/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "diff.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCompareAddedRemovedModified(t *testing.T) {
	s := newTestStore(t)

	oldID, err := s.CreateSnapshot("old", "h1", 1)
	if err != nil {
		t.Fatal(err)
	}
	newID, err := s.CreateSnapshot("new", "h2", 1)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.InsertRecords(oldID, []store.RecordInsert{
		{FormID: 0x00010001, Type: "WEAP", EditorID: "Stays", DataHash: "same", DataSize: 1},
		{FormID: 0x00020002, Type: "WEAP", EditorID: "Removed", DataHash: "gone", DataSize: 1},
	}, 100); err != nil {
		t.Fatal(err)
	}
	if err := s.InsertRecords(newID, []store.RecordInsert{
		{FormID: 0x00010001, Type: "WEAP", EditorID: "Stays", DataHash: "changed", DataSize: 1},
		{FormID: 0xCAFEBABE, Type: "WEAP", EditorID: "Added", DataHash: "fresh", DataSize: 1},
	}, 100); err != nil {
		t.Fatal(err)
	}

	engine := NewEngine(s)
	result, err := engine.Compare(oldID, newID, "")
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}

	if len(result.Added) != 1 || result.Added[0].FormID != esmscan.FormID(0xCAFEBABE) {
		t.Fatalf("Added = %+v, want exactly 0xCAFEBABE", result.Added)
	}
	if len(result.Removed) != 1 || result.Removed[0].FormID != esmscan.FormID(0x00020002) {
		t.Fatalf("Removed = %+v, want exactly 0x00020002", result.Removed)
	}
	if len(result.Modified) != 1 || result.Modified[0].New.FormID != esmscan.FormID(0x00010001) {
		t.Fatalf("Modified = %+v, want exactly 0x00010001", result.Modified)
	}
	if result.TotalChanges() != 3 {
		t.Fatalf("TotalChanges() = %d, want 3", result.TotalChanges())
	}
}

func TestCompareSameSnapshotIsEmpty(t *testing.T) {
	s := newTestStore(t)
	id, err := s.CreateSnapshot("only", "h", 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.InsertRecords(id, []store.RecordInsert{
		{FormID: 1, Type: "WEAP", DataHash: "x", DataSize: 1},
	}, 100); err != nil {
		t.Fatal(err)
	}

	engine := NewEngine(s)
	result, err := engine.Compare(id, id, "")
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if result.TotalChanges() != 0 {
		t.Fatalf("diff(S, S) produced %d changes, want 0", result.TotalChanges())
	}
}

func TestCompareSwappedArgumentsInvertAddedRemoved(t *testing.T) {
	s := newTestStore(t)
	a, err := s.CreateSnapshot("a", "h1", 1)
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.CreateSnapshot("b", "h2", 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.InsertRecords(a, []store.RecordInsert{
		{FormID: 1, Type: "WEAP", DataHash: "x", DataSize: 1},
	}, 100); err != nil {
		t.Fatal(err)
	}
	if err := s.InsertRecords(b, []store.RecordInsert{
		{FormID: 2, Type: "WEAP", DataHash: "y", DataSize: 1},
	}, 100); err != nil {
		t.Fatal(err)
	}

	engine := NewEngine(s)
	forward, err := engine.Compare(a, b, "")
	if err != nil {
		t.Fatal(err)
	}
	backward, err := engine.Compare(b, a, "")
	if err != nil {
		t.Fatal(err)
	}

	if len(forward.Added) != len(backward.Removed) || len(forward.Removed) != len(backward.Added) {
		t.Fatalf("diff(A,B) and diff(B,A) did not swap added/removed: forward=%+v backward=%+v", forward, backward)
	}
}

func TestCompareRestrictsToRecordType(t *testing.T) {
	s := newTestStore(t)
	oldID, err := s.CreateSnapshot("old", "h1", 1)
	if err != nil {
		t.Fatal(err)
	}
	newID, err := s.CreateSnapshot("new", "h2", 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.InsertRecords(newID, []store.RecordInsert{
		{FormID: 1, Type: "WEAP", DataHash: "a", DataSize: 1},
		{FormID: 2, Type: "ARMO", DataHash: "b", DataSize: 1},
	}, 100); err != nil {
		t.Fatal(err)
	}

	engine := NewEngine(s)
	result, err := engine.Compare(oldID, newID, "WEAP")
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Added) != 1 || result.Added[0].Type != "WEAP" {
		t.Fatalf("Added = %+v, want only the WEAP record", result.Added)
	}
}

func TestFieldChangeDamageExample(t *testing.T) {
	s := newTestStore(t)
	oldID, err := s.CreateSnapshot("old", "h1", 1)
	if err != nil {
		t.Fatal(err)
	}
	newID, err := s.CreateSnapshot("new", "h2", 1)
	if err != nil {
		t.Fatal(err)
	}
	fid := esmscan.FormID(0x00010001)
	if err := s.InsertRecords(oldID, []store.RecordInsert{{FormID: fid, Type: "WEAP", DataHash: "h-old", DataSize: 1}}, 100); err != nil {
		t.Fatal(err)
	}
	if err := s.InsertRecords(newID, []store.RecordInsert{{FormID: fid, Type: "WEAP", DataHash: "h-new", DataSize: 1}}, 100); err != nil {
		t.Fatal(err)
	}
	if err := s.InsertDecodedFields(oldID, []store.DecodedField{{FormID: fid, Name: "damage", Value: "10.0", Kind: "float"}}, 100); err != nil {
		t.Fatal(err)
	}
	if err := s.InsertDecodedFields(newID, []store.DecodedField{{FormID: fid, Name: "damage", Value: "12.0", Kind: "float"}}, 100); err != nil {
		t.Fatal(err)
	}

	engine := NewEngine(s)
	result, err := engine.Compare(oldID, newID, "")
	if err != nil {
		t.Fatal(err)
	}
	changes := result.FieldChanges[fid]
	if len(changes) != 1 {
		t.Fatalf("FieldChanges[fid] = %+v, want exactly one change", changes)
	}

	want := FieldChange{FormID: fid, Name: "damage", OldValue: "10.0", NewValue: "12.0", Kind: "float"}
	if diff := cmp.Diff(want, changes[0]); diff != "" {
		t.Fatalf("field change mismatch (-want +got):\n%s", diff)
	}
}
