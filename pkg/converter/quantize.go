package converter

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/james-see/osu2sm/pkg/grid"
	"github.com/james-see/osu2sm/pkg/rational"
	"github.com/james-see/osu2sm/pkg/util"
)

// Note state codes written into rows
const (
	NoteEmpty uint8 = 0
	NoteTap   uint8 = 1
)

// QuantizerConfig controls how beats are folded into measures
type QuantizerConfig struct {
	BeatsPerMeasure int
	Resolution      int   // Rows per measure
	MaxDenominator  int64 // Bound on the sub-beat fraction
	Lanes           int
	MaxMeasures     int // Upper bound on the measures of one chart
}

// DefaultMaxMeasures is roughly two hours of 4/4 at 240 BPM.
const DefaultMaxMeasures = 8192

// DefaultQuantizerConfig returns 4/4 measures of 16 rows over 4 lanes, with
// sub-beat fractions limited to a denominator of 24.
func DefaultQuantizerConfig() QuantizerConfig {
	return QuantizerConfig{
		BeatsPerMeasure: 4,
		Resolution:      16,
		MaxDenominator:  24,
		Lanes:           4,
		MaxMeasures:     DefaultMaxMeasures,
	}
}

// Validate checks the configuration
func (c QuantizerConfig) Validate() error {
	switch {
	case c.BeatsPerMeasure <= 0:
		return fmt.Errorf("beats per measure must be positive, got %d", c.BeatsPerMeasure)
	case c.Resolution <= 0:
		return fmt.Errorf("resolution must be positive, got %d", c.Resolution)
	case c.MaxDenominator <= 0:
		return fmt.Errorf("max denominator must be positive, got %d", c.MaxDenominator)
	case c.Lanes <= 0 || c.Lanes > 16:
		return fmt.Errorf("lanes must be between 1 and 16, got %d", c.Lanes)
	case c.MaxMeasures <= 0:
		return fmt.Errorf("max measures must be positive, got %d", c.MaxMeasures)
	}
	return nil
}

// OwnedNotes is an uninherited tempo section and the hit objects it governs.
type OwnedNotes struct {
	Section TempoSection
	Notes   []HitObject
}

// Partition assigns every hit object to exactly one uninherited section: the
// last one starting at or before it. Objects earlier than the first section
// belong to the first section.
func Partition(timings []TempoSection, hits []HitObject) ([]OwnedNotes, error) {
	sections := Uninherited(timings)
	if len(sections) == 0 {
		return nil, &TempoResolutionError{Err: ErrNoUninheritedSection}
	}

	owned := make([]OwnedNotes, len(sections))
	for i, s := range sections {
		owned[i].Section = s
	}
	for _, hit := range hits {
		owner := 0
		for j := 1; j < len(sections); j++ {
			if hit.Time >= sections[j].Time {
				owner = j
			}
		}
		owned[owner].Notes = append(owned[owner].Notes, hit)
	}
	return owned, nil
}

// BeatDeltas returns, for each owned note, the quantized number of beats since
// the previous note (or the section start for the first one). A note that is
// not after the running time yields a zero delta.
func BeatDeltas(owned OwnedNotes, maxDenominator int64) ([]*big.Rat, error) {
	deltas := make([]*big.Rat, 0, len(owned.Notes))
	current := owned.Section.Time
	for _, note := range owned.Notes {
		beats := 0.0
		if note.Time > current {
			beats = (note.Time - current) / owned.Section.BeatLength
			current = note.Time
		}
		delta, err := QuantizeBeat(beats, maxDenominator)
		if err != nil {
			return nil, fmt.Errorf("note at %vms: %w", note.Time, err)
		}
		deltas = append(deltas, delta)
	}
	return deltas, nil
}

// QuantizeBeat keeps the integral part of beats exact and snaps only the
// fractional part to the closest fraction with denominator <= maxDenominator.
func QuantizeBeat(beats float64, maxDenominator int64) (*big.Rat, error) {
	x, err := rational.FromFloat(beats)
	if err != nil {
		return nil, err
	}
	whole, frac := rational.Split(x)
	snapped := rational.LimitDenominator(frac, maxDenominator)
	return snapped.Add(snapped, new(big.Rat).SetInt(whole)), nil
}

// Placement records where a hit object ended up in the grid.
type Placement struct {
	Measure int
	Slot    int
	Lane    int
	Beat    *big.Rat // Position within the measure, in beats
}

// Quantized is the output of the quantizer
type Quantized struct {
	Measures   []grid.Measure
	Placements []Placement
	deltas     [][]*big.Rat // Per uninherited section
	Clock      *big.Rat     // Position in the last measure after the last note
}

// Quantizer folds hit objects into fixed-size measures
type Quantizer struct {
	config QuantizerConfig
	lanes  LaneStrategy
}

// NewQuantizer creates a quantizer with the given configuration and lanes
func NewQuantizer(cfg QuantizerConfig, strategy LaneStrategy) *Quantizer {
	return &Quantizer{config: cfg, lanes: strategy}
}

// Quantize places every hit object on the grid. The beat clock is exact and
// carries across tempo sections.
func (q *Quantizer) Quantize(timings []TempoSection, hits []HitObject) (*Quantized, error) {
	if q.lanes == nil {
		return nil, errors.New("no lane strategy configured")
	}
	if err := q.config.Validate(); err != nil {
		return nil, err
	}

	owned, err := Partition(timings, hits)
	if err != nil {
		return nil, err
	}

	beatsPerMeasure := big.NewRat(int64(q.config.BeatsPerMeasure), 1)
	slotsPerBeat := big.NewRat(int64(q.config.Resolution), int64(q.config.BeatsPerMeasure))

	result := &Quantized{Clock: new(big.Rat)}
	measure := q.emptyMeasure()

	for _, section := range owned {
		deltas, err := BeatDeltas(section, q.config.MaxDenominator)
		if err != nil {
			return nil, err
		}
		result.deltas = append(result.deltas, deltas)

		for i, delta := range deltas {
			result.Clock.Add(result.Clock, delta)
			if result.Clock.Cmp(beatsPerMeasure) >= 0 {
				elapsed, _ := rational.Split(new(big.Rat).Quo(result.Clock, beatsPerMeasure))
				total := new(big.Int).Add(elapsed, big.NewInt(int64(len(result.Measures))+1))
				if total.Cmp(big.NewInt(int64(q.config.MaxMeasures))) > 0 {
					return nil, &MeasureLimitError{Limit: q.config.MaxMeasures, Time: section.Notes[i].Time}
				}
				skipped := int(elapsed.Int64())
				result.Measures = append(result.Measures, measure)
				for ; skipped > 1; skipped-- {
					result.Measures = append(result.Measures, q.emptyMeasure())
				}
				measure = q.emptyMeasure()
				result.Clock.Sub(result.Clock, new(big.Rat).Mul(new(big.Rat).SetInt(elapsed), beatsPerMeasure))
			}

			slot := int(rational.Floor(new(big.Rat).Mul(result.Clock, slotsPerBeat)))
			lane := util.Clamp(q.lanes.Lane(section.Notes[i], q.config.Lanes), 0, q.config.Lanes-1)
			measure[slot][lane] = NoteTap

			result.Placements = append(result.Placements, Placement{
				Measure: len(result.Measures),
				Slot:    slot,
				Lane:    lane,
				Beat:    new(big.Rat).Set(result.Clock),
			})
		}
	}

	result.Measures = append(result.Measures, measure)
	return result, nil
}

func (q *Quantizer) emptyMeasure() grid.Measure {
	return grid.Empty(q.config.Resolution, q.config.Lanes)
}
