// Package diff compares two snapshots, held in one store or in two, and reports
// added, removed, and modified records, plus a field-level breakdown of
// every modification. Comparison walks the cheap data_hash index first
// and only pulls full record rows for form ids that actually changed.
package diff

import (
	"sort"

	"github.com/esmscan/esmscan"
	"github.com/esmscan/esmscan/internal/store"
)

// Modification pairs a record's old and new row.
type Modification struct {
	Old store.Record
	New store.Record
}

// FieldChange is one decoded field whose value differs between two
// snapshots of the same record. Old or New is empty when the field was
// added or removed outright rather than merely changed.
type FieldChange struct {
	FormID   esmscan.FormID
	Name     string
	OldValue string
	NewValue string
	Kind     string
}

// Result is the outcome of comparing an older snapshot against a newer
// one, optionally restricted to a single record type.
type Result struct {
	OldSnapshotID int64
	NewSnapshotID int64
	Added         []store.Record
	Removed       []store.Record
	Modified      []Modification
	FieldChanges  map[esmscan.FormID][]FieldChange
}

// TotalChanges is the combined count of added, removed, and modified records.
func (r *Result) TotalChanges() int {
	return len(r.Added) + len(r.Removed) + len(r.Modified)
}

// Engine compares snapshots across one or two stores. Store and NewStore
// are the same handle in the common case of diffing two snapshots kept
// in one database; NewStore may point at a second database when
// comparing across separately-captured archives.
type Engine struct {
	Store    *store.Store
	NewStore *store.Store
}

// NewEngine builds an Engine that compares snapshots within a single store.
func NewEngine(s *store.Store) *Engine {
	return &Engine{Store: s, NewStore: s}
}

// Compare finds every record that was added, removed, or changed between
// oldID and newID. If recordType is non-empty, only records of that type
// are considered. Modified records additionally get a field-level diff.
func (e *Engine) Compare(oldID, newID int64, recordType string) (*Result, error) {
	newStore := e.NewStore
	if newStore == nil {
		newStore = e.Store
	}

	oldHashes, err := e.Store.GetRecordHashes(oldID)
	if err != nil {
		return nil, err
	}
	newHashes, err := newStore.GetRecordHashes(newID)
	if err != nil {
		return nil, err
	}

	result := &Result{
		OldSnapshotID: oldID,
		NewSnapshotID: newID,
		FieldChanges:  make(map[esmscan.FormID][]FieldChange),
	}

	for _, fid := range sortedDifference(newHashes, oldHashes) {
		rec, err := newStore.GetRecord(newID, fid)
		if err != nil {
			return nil, err
		}
		if rec != nil && (recordType == "" || rec.Type == recordType) {
			result.Added = append(result.Added, *rec)
		}
	}

	for _, fid := range sortedDifference(oldHashes, newHashes) {
		rec, err := e.Store.GetRecord(oldID, fid)
		if err != nil {
			return nil, err
		}
		if rec != nil && (recordType == "" || rec.Type == recordType) {
			result.Removed = append(result.Removed, *rec)
		}
	}

	for _, fid := range sortedIntersection(oldHashes, newHashes) {
		if oldHashes[fid] == newHashes[fid] {
			continue
		}
		oldRec, err := e.Store.GetRecord(oldID, fid)
		if err != nil {
			return nil, err
		}
		newRec, err := newStore.GetRecord(newID, fid)
		if err != nil {
			return nil, err
		}
		if oldRec == nil || newRec == nil {
			continue
		}
		if recordType != "" && oldRec.Type != recordType {
			continue
		}
		result.Modified = append(result.Modified, Modification{Old: *oldRec, New: *newRec})

		changes, err := e.diffFields(oldID, newID, fid)
		if err != nil {
			return nil, err
		}
		if len(changes) > 0 {
			result.FieldChanges[fid] = changes
		}
	}

	return result, nil
}

// diffFields compares the decoded field sets of the same record across
// two snapshots, preferring the new field's type label when the field
// still exists in the new snapshot.
func (e *Engine) diffFields(oldID, newID int64, formID esmscan.FormID) ([]FieldChange, error) {
	newStore := e.NewStore
	if newStore == nil {
		newStore = e.Store
	}

	oldFields, err := e.Store.GetDecodedFields(oldID, formID)
	if err != nil {
		return nil, err
	}
	newFields, err := newStore.GetDecodedFields(newID, formID)
	if err != nil {
		return nil, err
	}

	type valueAndKind struct {
		value   string
		kind    string
		present bool
	}
	oldByName := make(map[string]valueAndKind, len(oldFields))
	for _, f := range oldFields {
		oldByName[f.Name] = valueAndKind{f.Value, f.Kind, true}
	}
	newByName := make(map[string]valueAndKind, len(newFields))
	for _, f := range newFields {
		newByName[f.Name] = valueAndKind{f.Value, f.Kind, true}
	}

	names := make(map[string]struct{}, len(oldByName)+len(newByName))
	for name := range oldByName {
		names[name] = struct{}{}
	}
	for name := range newByName {
		names[name] = struct{}{}
	}
	sortedNames := make([]string, 0, len(names))
	for name := range names {
		sortedNames = append(sortedNames, name)
	}
	sort.Strings(sortedNames)

	var changes []FieldChange
	for _, name := range sortedNames {
		oldV := oldByName[name]
		newV := newByName[name]
		if oldV.value == newV.value && oldV.present == newV.present {
			continue
		}
		kind := oldV.kind
		if newV.present {
			kind = newV.kind
		}
		changes = append(changes, FieldChange{
			FormID:   formID,
			Name:     name,
			OldValue: oldV.value,
			NewValue: newV.value,
			Kind:     kind,
		})
	}
	return changes, nil
}

// sortedDifference returns the sorted keys present in a but not in b.
func sortedDifference(a, b map[esmscan.FormID]string) []esmscan.FormID {
	var out []esmscan.FormID
	for fid := range a {
		if _, ok := b[fid]; !ok {
			out = append(out, fid)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// sortedIntersection returns the sorted keys present in both a and b.
func sortedIntersection(a, b map[esmscan.FormID]string) []esmscan.FormID {
	var out []esmscan.FormID
	for fid := range a {
		if _, ok := b[fid]; ok {
			out = append(out, fid)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
