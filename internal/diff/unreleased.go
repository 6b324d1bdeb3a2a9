package diff

import (
	"github.com/esmscan/esmscan"
	"github.com/esmscan/esmscan/internal/store"
)

// highFormIDTypes restricts the high-form-id heuristic to record types
// that commonly carry new, unshipped content rather than engine-internal
// or placement records.
var highFormIDTypes = []string{
	"WEAP", "ARMO", "ALCH", "MISC", "NPC_", "QUST", "BOOK", "COBJ", "OMOD",
}

// cutTestPrefixes are editor-id prefixes that conventionally mark
// developer-only or cut content left behind in a shipped archive.
var cutTestPrefixes = []string{"zzz_", "CUT_", "TEST_", "test_", "DEBUG_", "DVLP_"}

// UnreleasedReport buckets records matching unreleased-content heuristics.
type UnreleasedReport struct {
	AtomicShop    []store.Record
	CutTest       []store.Record
	HighFormIDs   []store.Record
	DisabledQuest []store.Record
}

// FindUnreleased scans one snapshot for content that looks unshipped:
// Atomic Shop items staged ahead of going live (editor ids prefixed
// "ATX_"), cut or test content (a handful of conventional prefixes),
// records whose form id falls in the top 0.5% of the snapshot (often
// recently-added content) restricted to a handful of likely record
// types, and quests staged under the Atomic Shop prefix.
func FindUnreleased(s *store.Store, snapshotID int64) (*UnreleasedReport, error) {
	report := &UnreleasedReport{}

	atomicShop, err := s.SearchRecords(snapshotID, "", "", "ATX_*")
	if err != nil {
		return nil, err
	}
	report.AtomicShop = atomicShop

	for _, prefix := range cutTestPrefixes {
		matches, err := s.SearchRecords(snapshotID, "", "", prefix+"*")
		if err != nil {
			return nil, err
		}
		report.CutTest = append(report.CutTest, matches...)
	}

	maxFID, ok, err := s.GetMaxFormID(snapshotID)
	if err != nil {
		return nil, err
	}
	if ok {
		threshold := esmscan.FormID(uint32(float64(uint32(maxFID)) * 0.995))
		matches, err := s.GetRecordsAboveFormID(snapshotID, highFormIDTypes, threshold)
		if err != nil {
			return nil, err
		}
		report.HighFormIDs = matches
	}

	quests, err := s.SearchRecords(snapshotID, "", "QUST", "ATX_*")
	if err != nil {
		return nil, err
	}
	report.DisabledQuest = quests

	return report, nil
}
