package converter

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/james-see/osu2sm/pkg/grid"
)

func ratStrings(rs []*big.Rat) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.RatString()
	}
	return out
}

func taps(times ...float64) []HitObject {
	hits := make([]HitObject, len(times))
	for i, t := range times {
		hits[i] = HitObject{X: 0, Y: 192, Time: t, Type: 1}
	}
	return hits
}

func section(time, beatLength float64) TempoSection {
	return TempoSection{Time: time, BeatLength: beatLength, Meter: 4, Uninherited: true}
}

func TestQuantizerConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultQuantizerConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*QuantizerConfig)
	}{
		{"zero beats", func(c *QuantizerConfig) { c.BeatsPerMeasure = 0 }},
		{"zero resolution", func(c *QuantizerConfig) { c.Resolution = 0 }},
		{"zero denominator", func(c *QuantizerConfig) { c.MaxDenominator = 0 }},
		{"no lanes", func(c *QuantizerConfig) { c.Lanes = 0 }},
		{"too many lanes", func(c *QuantizerConfig) { c.Lanes = 17 }},
		{"no measures", func(c *QuantizerConfig) { c.MaxMeasures = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultQuantizerConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestPartition(t *testing.T) {
	timings := []TempoSection{
		section(1000, 500),
		{Time: 1500, BeatLength: -50},
		section(3000, 250),
	}
	hits := taps(0, 1000, 2999, 3000, 4000)

	owned, err := Partition(timings, hits)
	require.NoError(t, err)
	require.Len(t, owned, 2)

	assert.Equal(t, 1000.0, owned[0].Section.Time)
	assert.Equal(t, taps(0, 1000, 2999), owned[0].Notes)
	assert.Equal(t, taps(3000, 4000), owned[1].Notes)

	total := 0
	for _, o := range owned {
		total += len(o.Notes)
	}
	assert.Equal(t, len(hits), total)
}

func TestQuantizeBeat(t *testing.T) {
	tests := []struct {
		beats    float64
		expected string
	}{
		{0, "0"},
		{0.5, "1/2"},
		{0.336, "1/3"},
		{1.25, "5/4"},
		{2.9999, "3"},
		{0.02, "0"},
		{7.0 / 24.0, "7/24"},
	}

	for _, tt := range tests {
		got, err := QuantizeBeat(tt.beats, 24)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, got.RatString(), "beats %v", tt.beats)
	}
}

func TestBeatDeltas(t *testing.T) {
	owned := OwnedNotes{Section: section(0, 500), Notes: taps(0, 250, 500)}

	deltas, err := BeatDeltas(owned, 24)
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "1/2", "1/2"}, ratStrings(deltas))
}

func TestBeatDeltasNonIncreasing(t *testing.T) {
	owned := OwnedNotes{Section: section(1000, 500), Notes: taps(500, 1500, 1500, 1250, 2000)}

	deltas, err := BeatDeltas(owned, 24)
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "1", "0", "0", "1"}, ratStrings(deltas))
}

func TestBeatDeltasBoundedDenominator(t *testing.T) {
	owned := OwnedNotes{Section: section(0, 333.33), Notes: taps(17, 123, 401, 777, 1000, 1313)}

	deltas, err := BeatDeltas(owned, 24)
	require.NoError(t, err)
	for _, d := range deltas {
		assert.LessOrEqual(t, d.Denom().Int64(), int64(24), d.RatString())
	}
}

func TestQuantize(t *testing.T) {
	q := NewQuantizer(DefaultQuantizerConfig(), xLane{})

	hits := []HitObject{
		{X: 64, Time: 0},
		{X: 192, Time: 250},
		{X: 448, Time: 500},
	}
	result, err := q.Quantize([]TempoSection{section(0, 500)}, hits)
	require.NoError(t, err)

	require.Len(t, result.Measures, 1)
	assert.Equal(t, "1", result.Clock.RatString())

	want := grid.Empty(16, 4)
	want[0][0] = NoteTap
	want[2][1] = NoteTap
	want[4][3] = NoteTap
	assert.Equal(t, want, result.Measures[0])

	slots := []int{}
	for _, p := range result.Placements {
		slots = append(slots, p.Slot)
	}
	assert.Equal(t, []int{0, 2, 4}, slots)
}

func TestQuantizeRollsOverMeasures(t *testing.T) {
	q := NewQuantizer(DefaultQuantizerConfig(), fixedLane{lane: 2})

	// Beats 0, 3.5, 4, 9.25
	result, err := q.Quantize([]TempoSection{section(0, 500)}, taps(0, 1750, 2000, 4625))
	require.NoError(t, err)

	require.Len(t, result.Measures, 3)
	assert.Equal(t, "5/4", result.Clock.RatString())

	var got [][2]int
	for _, p := range result.Placements {
		got = append(got, [2]int{p.Measure, p.Slot})
	}
	assert.Equal(t, [][2]int{{0, 0}, {0, 14}, {1, 0}, {2, 5}}, got)
	assert.Equal(t, NoteTap, result.Measures[2][5][2])
	assert.Equal(t, NoteEmpty, result.Measures[1][5][2])
}

func TestQuantizeSkipsEmptyMeasures(t *testing.T) {
	q := NewQuantizer(DefaultQuantizerConfig(), fixedLane{})

	// Beats 0 and 41: measures 1 to 9 stay empty
	result, err := q.Quantize([]TempoSection{section(0, 500)}, taps(0, 20500))
	require.NoError(t, err)

	require.Len(t, result.Measures, 11)
	assert.Equal(t, "1", result.Clock.RatString())
	for i := 1; i < 10; i++ {
		assert.Equal(t, grid.Empty(16, 4), result.Measures[i], "measure %d", i)
	}
	assert.Equal(t, 10, result.Placements[1].Measure)
	assert.Equal(t, 4, result.Placements[1].Slot)
}

func TestQuantizeMeasureLimit(t *testing.T) {
	cfg := DefaultQuantizerConfig()
	cfg.MaxMeasures = 3
	q := NewQuantizer(cfg, fixedLane{})

	// Beat 11 is the last one that fits in three measures
	_, err := q.Quantize([]TempoSection{section(0, 500)}, taps(0, 5500))
	require.NoError(t, err)

	_, err = q.Quantize([]TempoSection{section(0, 500)}, taps(0, 6000))
	var limitErr *MeasureLimitError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, 3, limitErr.Limit)
	assert.Equal(t, 6000.0, limitErr.Time)
}

func TestQuantizeRejectsRunawayTempo(t *testing.T) {
	q := NewQuantizer(DefaultQuantizerConfig(), fixedLane{})

	// 0.001ms per beat puts a note at 200s some fifty million measures out
	_, err := q.Quantize([]TempoSection{section(0, 0.001)}, taps(200000))
	var limitErr *MeasureLimitError
	assert.ErrorAs(t, err, &limitErr)
}

func TestQuantizeCarriesClockAcrossSections(t *testing.T) {
	q := NewQuantizer(DefaultQuantizerConfig(), fixedLane{})

	timings := []TempoSection{section(0, 500), section(1000, 250)}
	// First section: beats 0, 1. Second: section start gap is not counted,
	// then 0 and 2 beats at the faster tempo.
	result, err := q.Quantize(timings, taps(0, 500, 1000, 1500))
	require.NoError(t, err)

	require.Len(t, result.deltas, 2)
	assert.Equal(t, []string{"0", "1"}, ratStrings(result.deltas[0]))
	assert.Equal(t, []string{"0", "2"}, ratStrings(result.deltas[1]))
	assert.Equal(t, "3", result.Clock.RatString())

	var slots []int
	for _, p := range result.Placements {
		slots = append(slots, p.Slot)
	}
	assert.Equal(t, []int{0, 4, 4, 12}, slots)
}

func TestQuantizeConservesBeats(t *testing.T) {
	q := NewQuantizer(DefaultQuantizerConfig(), fixedLane{})

	timings := []TempoSection{section(-30, 431), section(5000, 300)}
	result, err := q.Quantize(timings, taps(-30, 400, 920, 2222, 3100, 5000, 5150, 6000, 9001))
	require.NoError(t, err)

	sum := new(big.Rat)
	for _, deltas := range result.deltas {
		for _, d := range deltas {
			sum.Add(sum, d)
		}
	}
	want := new(big.Rat).Add(big.NewRat(int64(4*(len(result.Measures)-1)), 1), result.Clock)
	assert.Equal(t, 0, sum.Cmp(want), "sum %s, want %s", sum.RatString(), want.RatString())
	assert.Len(t, result.Placements, 9)
}

func TestQuantizeEmpty(t *testing.T) {
	q := NewQuantizer(DefaultQuantizerConfig(), fixedLane{})

	result, err := q.Quantize([]TempoSection{section(0, 500)}, nil)
	require.NoError(t, err)
	require.Len(t, result.Measures, 1)
	assert.Equal(t, grid.Empty(16, 4), result.Measures[0])
	assert.Equal(t, 0, result.Clock.Sign())
}

func TestQuantizeClampsLanes(t *testing.T) {
	q := NewQuantizer(DefaultQuantizerConfig(), fixedLane{lane: 9})

	result, err := q.Quantize([]TempoSection{section(0, 500)}, taps(0))
	require.NoError(t, err)
	assert.Equal(t, 3, result.Placements[0].Lane)

	q = NewQuantizer(DefaultQuantizerConfig(), fixedLane{lane: -1})
	result, err = q.Quantize([]TempoSection{section(0, 500)}, taps(0))
	require.NoError(t, err)
	assert.Equal(t, 0, result.Placements[0].Lane)
}

func TestQuantizeErrors(t *testing.T) {
	_, err := NewQuantizer(DefaultQuantizerConfig(), nil).Quantize([]TempoSection{section(0, 500)}, taps(0))
	assert.Error(t, err)

	cfg := DefaultQuantizerConfig()
	cfg.Lanes = 0
	_, err = NewQuantizer(cfg, fixedLane{}).Quantize([]TempoSection{section(0, 500)}, taps(0))
	assert.Error(t, err)

	_, err = NewQuantizer(DefaultQuantizerConfig(), fixedLane{}).Quantize(nil, taps(0))
	assert.ErrorIs(t, err, ErrNoUninheritedSection)
}

func TestQuantizeMergesSameSlot(t *testing.T) {
	q := NewQuantizer(DefaultQuantizerConfig(), xLane{})

	hits := []HitObject{{X: 0, Time: 0}, {X: 511, Time: 0}}
	result, err := q.Quantize([]TempoSection{section(0, 500)}, hits)
	require.NoError(t, err)
	assert.Equal(t, grid.Row{1, 0, 0, 1}, result.Measures[0][0])
}
