package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/weldtech/weldwatch/internal/types"
)

func TestJournalSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cycles.journal")

	first := types.CycleResult{
		ID:              "a",
		Timestamp:       time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
		ReferenceHeight: 50.0,
		MinHeight:       47.0,
		MaxHeight:       50.1,
		WeldDepth:       3.0,
		PassFail:        types.VerdictPass,
		ModelID:         7,
		ModelName:       "BRKT-A",
		ModelType:       "bracket",
	}

	j, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := j.Append(first); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Reopen and append a second record: the journal must accumulate,
	// not truncate.
	second := first
	second.ID = "b"
	second.PassFail = types.VerdictFail
	second.WeldDepth = 0.7

	j, err = New(path)
	if err != nil {
		t.Fatalf("New after reopen: %v", err)
	}
	if err := j.Append(second); err != nil {
		t.Fatalf("Append after reopen: %v", err)
	}
	j.Close()

	records, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, expected 2", len(records))
	}
	if records[0].ID != first.ID || records[0].WeldDepth != first.WeldDepth ||
		records[0].PassFail != first.PassFail || !records[0].Timestamp.Equal(first.Timestamp) {
		t.Errorf("first record = %+v, expected %+v", records[0], first)
	}
	if records[1].ID != "b" || records[1].PassFail != types.VerdictFail {
		t.Errorf("second record = %+v, expected the FAIL cycle", records[1])
	}
}

func TestAppendAfterCloseFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cycles.journal")

	j, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	j.Close()

	if err := j.Append(types.CycleResult{ID: "x"}); err == nil {
		t.Error("Append on closed journal succeeded, expected error")
	}
}
