package converter

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// General MIDI percussion keys used for lanes: kick, snare, closed hat, open hat
var drumKeys = []uint8{36, 38, 42, 46}

const drumChannel = 9

// MIDIConverter handles MIDI file parsing and generation
type MIDIConverter struct {
	ticksPerQuarter uint16
	tempo           float64
}

// NewMIDIConverter creates a new MIDI converter
func NewMIDIConverter() *MIDIConverter {
	return &MIDIConverter{
		ticksPerQuarter: 480,
		tempo:           120.0,
	}
}

// ParseMIDIFile reads a MIDI file and builds a beatmap from its notes
func (m *MIDIConverter) ParseMIDIFile(filename string, lanes int) (*Beatmap, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read MIDI file: %w", err)
	}
	return m.ParseMIDI(data, lanes)
}

// ParseMIDI turns the note-on events of every track into hit objects under a
// single tempo section at the file's opening tempo (120 BPM when none is set
// at tick 0). Note times are derived from ticks at that tempo, so later tempo
// changes never shift a note off its beat. Lane drum keys map back to their
// lane, other keys fold by key % lanes; the lane is stored as the centre x of
// that column.
func (m *MIDIConverter) ParseMIDI(data []byte, lanes int) (*Beatmap, error) {
	if lanes <= 0 {
		return nil, fmt.Errorf("lanes must be positive, got %d", lanes)
	}

	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse MIDI: %w", err)
	}
	ticks, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok || ticks.Resolution() == 0 {
		return nil, fmt.Errorf("unsupported MIDI time format %v", s.TimeFormat)
	}

	tempo := m.tempo
	var hits []HitObject
	var noteTicks []int64

	for _, track := range s.Tracks {
		var absTicks int64
		for _, ev := range track {
			absTicks += int64(ev.Delta)
			msg := ev.Message

			var bpm float64
			if absTicks == 0 && msg.GetMetaTempo(&bpm) && bpm > 0 {
				tempo = bpm
			}

			// Note On (0x90-0x9F) with non-zero velocity
			if len(msg) >= 3 && msg[0] >= 0x90 && msg[0] <= 0x9F && msg[2] > 0 {
				lane := keyLane(msg[1], lanes)
				hits = append(hits, HitObject{
					X:    (2*lane + 1) * 512 / (2 * lanes),
					Y:    192,
					Type: 1,
				})
				noteTicks = append(noteTicks, absTicks)
			}
		}
	}

	beatLength := 60000.0 / tempo
	for i := range hits {
		hits[i].Time = float64(noteTicks[i]) / float64(ticks.Resolution()) * beatLength
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Time < hits[j].Time
	})

	return &Beatmap{
		Timings: []TempoSection{{
			Time:        0,
			BeatLength:  beatLength,
			Meter:       4,
			Uninherited: true,
		}},
		HitObjects: hits,
		General:    Metadata{AudioFilenameKey: ""},
		Info:       Metadata{},
	}, nil
}

// GenerateMIDI renders a chart as a percussion track. Each lane plays its own
// drum key; note positions follow the measure grid in 4/4.
func (m *MIDIConverter) GenerateMIDI(chart *Chart) ([]byte, error) {
	if chart == nil {
		return nil, errors.New("nil chart")
	}

	tempo := chart.InitialBPM
	if tempo <= 0 {
		tempo = m.tempo
	}

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(m.ticksPerQuarter)

	var track smf.Track

	microsecondsPerBeat := uint32(60000000.0 / tempo)
	tempoData := smf.Message([]byte{
		0xFF, 0x51, 0x03,
		byte(microsecondsPerBeat >> 16),
		byte(microsecondsPerBeat >> 8),
		byte(microsecondsPerBeat),
	})
	track.Add(0, tempoData)

	timeSigData := smf.Message([]byte{0xFF, 0x58, 0x04, 0x04, 0x02, 0x18, 0x08})
	track.Add(0, timeSigData)

	ticksPerMeasure := uint32(m.ticksPerQuarter) * 4
	var currentTick uint32

	for mi, measure := range chart.Measures {
		if len(measure) == 0 {
			continue
		}
		spacing := ticksPerMeasure / uint32(len(measure))
		gate := uint32(m.ticksPerQuarter) / 8
		if gate > spacing {
			gate = spacing
		}
		if gate == 0 {
			return nil, fmt.Errorf("measure %d: %d rows is finer than the MIDI resolution", mi, len(measure))
		}

		for ri, row := range measure {
			var keys []uint8
			for lane, code := range row {
				if code != 0 {
					keys = append(keys, laneKey(lane))
				}
			}
			if len(keys) == 0 {
				continue
			}

			rowTick := uint32(mi)*ticksPerMeasure + uint32(ri)*spacing
			delta := rowTick - currentTick
			for _, key := range keys {
				track.Add(delta, midi.NoteOn(drumChannel, key, 100))
				delta = 0
			}
			delta = gate
			for _, key := range keys {
				track.Add(delta, midi.NoteOff(drumChannel, key))
				delta = 0
			}
			currentTick = rowTick + gate
		}
	}

	// Pad to the end of the last measure
	totalTicks := uint32(len(chart.Measures)) * ticksPerMeasure
	if currentTick < totalTicks {
		track.Add(totalTicks-currentTick, smf.Message([]byte{0xFF, 0x06, 0x00}))
	}

	track.Close(0)

	if err := s.Add(track); err != nil {
		return nil, fmt.Errorf("failed to add track: %w", err)
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write MIDI: %w", err)
	}

	return buf.Bytes(), nil
}

// WriteMIDIFile writes a chart as MIDI to a file
func (m *MIDIConverter) WriteMIDIFile(chart *Chart, filename string) error {
	data, err := m.GenerateMIDI(chart)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

func laneKey(lane int) uint8 {
	if lane < len(drumKeys) {
		return drumKeys[lane]
	}
	return uint8(48 + lane)
}

func keyLane(key uint8, lanes int) int {
	for lane, k := range drumKeys {
		if k == key && lane < lanes {
			return lane
		}
	}
	return int(key) % lanes
}
