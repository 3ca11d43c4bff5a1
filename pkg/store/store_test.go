package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *BoltStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRuns(t *testing.T) {
	s := openTemp(t)

	older := NewRun("batch", "/songs")
	older.StartedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := NewRun("tempocheck", "/packs")
	newer.StartedAt = older.StartedAt.Add(time.Hour)
	newer.Total = 3

	require.NoError(t, s.SaveRun(older))
	require.NoError(t, s.SaveRun(newer))

	runs, err := s.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, newer.ID, runs[0].ID)
	assert.Equal(t, older.ID, runs[1].ID)

	got, err := s.GetRun(newer.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Total)
	assert.Equal(t, "tempocheck", got.Kind)

	_, err = s.GetRun("nope")
	assert.Error(t, err)
}

func TestSaveRunRejectsBadID(t *testing.T) {
	s := openTemp(t)
	assert.Error(t, s.SaveRun(Run{ID: "not-a-uuid"}))
}

func TestResults(t *testing.T) {
	s := openTemp(t)
	run := NewRun("batch", "/songs")
	require.NoError(t, s.SaveRun(run))

	records := []Record{
		{Path: "a.osu", Output: "a.sm"},
		{Path: "b.osu", Error: "[TimingPoints] row 2: expected 8 fields, got 7"},
		{Path: "c.sm", Values: map[string]float64{"corrected": 120, "declared": 120}},
	}
	for _, rec := range records {
		require.NoError(t, s.SaveResult(run.ID, rec))
	}

	got, err := s.Results(run.ID)
	require.NoError(t, err)
	assert.Equal(t, records, got)

	empty, err := s.Results(NewRun("x", "").ID)
	require.NoError(t, err)
	assert.Empty(t, empty)

	assert.Error(t, s.SaveResult("missing", Record{Path: "x"}))
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	s, err := Open(path)
	require.NoError(t, err)
	run := NewRun("batch", "/songs")
	require.NoError(t, s.SaveRun(run))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	runs, err := s.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
}
