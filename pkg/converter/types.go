// Package converter provides conversion from osu! beatmaps to StepMania simfiles
package converter

import "github.com/james-see/osu2sm/pkg/grid"

// TempoSection is one row of the [TimingPoints] section. Uninherited sections
// carry a real tempo; inherited ones only change scroll speed.
type TempoSection struct {
	Time        float64 // Start time in milliseconds
	BeatLength  float64 // Milliseconds per beat
	Meter       int
	SampleSet   string
	SampleIndex string
	Volume      string
	Uninherited bool
	Effects     string
}

// BPM returns the tempo of an uninherited section.
func (t TempoSection) BPM() float64 {
	return 60000.0 / t.BeatLength
}

// HitObject is one row of the [HitObjects] section.
type HitObject struct {
	X            int
	Y            int
	Time         float64 // Milliseconds
	Type         int
	HitSound     int
	ObjectParams string // Slider/spinner parameters, kept verbatim
	HitSample    string
}

// Metadata holds `key: value` pairs from a section such as [General].
type Metadata map[string]string

// Beatmap is a parsed osu! beatmap
type Beatmap struct {
	Sections   SectionMap
	Timings    []TempoSection
	HitObjects []HitObject
	General    Metadata
	Info       Metadata // [Metadata] section, empty when absent
}

// Chart is the destination StepMania document
type Chart struct {
	Title      string
	Artist     string
	Credit     string
	AudioPath  string
	Offset     string // Seconds, 3 decimals
	BPMs       string // Comma-joined start=bpm pairs
	InitialBPM float64
	Measures   []grid.Measure
	Notes      []Placement // Where each hit object landed, empty for imported simfiles
}

// Lanes returns the row width of the chart, zero when it has no rows
func (c *Chart) Lanes() int {
	for _, m := range c.Measures {
		if len(m) > 0 {
			return len(m[0])
		}
	}
	return 0
}

// LaneStrategy decides which lane a hit object lands in
type LaneStrategy interface {
	Name() string
	Lane(obj HitObject, lanes int) int
}

// Converter handles format conversions
type Converter struct {
	lanes    LaneStrategy
	config   QuantizerConfig
	template string
}

// New creates a new Converter with the specified lane strategy
func New(strategy LaneStrategy) *Converter {
	return &Converter{
		lanes:    strategy,
		config:   DefaultQuantizerConfig(),
		template: DefaultTemplate(),
	}
}

// GetLanes returns the current lane strategy
func (c *Converter) GetLanes() LaneStrategy {
	return c.lanes
}

// SetLanes sets the lane strategy for conversion
func (c *Converter) SetLanes(strategy LaneStrategy) {
	c.lanes = strategy
}

// SetConfig replaces the quantizer configuration
func (c *Converter) SetConfig(cfg QuantizerConfig) {
	c.config = cfg
}

// SetTemplate replaces the simfile template used by OsuToSM
func (c *Converter) SetTemplate(template string) {
	c.template = template
}
