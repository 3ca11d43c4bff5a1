package converter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/james-see/osu2sm/pkg/grid"
	"github.com/james-see/osu2sm/pkg/smencode"
)

// Format represents a file format
type Format string

const (
	FormatOsu     Format = "osu"
	FormatSM      Format = "sm"
	FormatMIDI    Format = "midi"
	FormatEncoded Format = "txt"
	FormatUnknown Format = "unknown"
)

// AudioFilenameKey is the [General] key naming the audio track
const AudioFilenameKey = "AudioFilename"

// DetectFormat detects the format of a file based on extension
func DetectFormat(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".osu":
		return FormatOsu
	case ".sm":
		return FormatSM
	case ".mid", ".midi":
		return FormatMIDI
	case ".txt":
		return FormatEncoded
	default:
		return FormatUnknown
	}
}

// DetectFormatFromContent detects format from file content
func DetectFormatFromContent(data []byte) Format {
	if len(data) < 4 {
		return FormatUnknown
	}

	// Check for MIDI file signature "MThd"
	if string(data[:4]) == "MThd" {
		return FormatMIDI
	}

	text, err := decodeText(data)
	if err != nil {
		return FormatUnknown
	}
	if strings.HasPrefix(strings.TrimSpace(text), "osu file format v") {
		return FormatOsu
	}
	if strings.Contains(text, "#NOTES:") {
		return FormatSM
	}

	return FormatUnknown
}

// ConvertFile converts a file from one format to another
func (c *Converter) ConvertFile(inputPath, outputPath string) error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}

	inputFormat := DetectFormat(inputPath)
	if inputFormat == FormatUnknown {
		inputFormat = DetectFormatFromContent(data)
	}

	outputFormat := DetectFormat(outputPath)
	if outputFormat == FormatUnknown {
		return errors.New("cannot determine output format from filename")
	}

	var outputData []byte

	switch {
	case inputFormat == FormatOsu && outputFormat == FormatSM:
		outputData, err = c.OsuToSM(data)
	case inputFormat == FormatOsu && outputFormat == FormatMIDI:
		outputData, err = c.OsuToMIDI(data)
	case inputFormat == FormatMIDI && outputFormat == FormatSM:
		outputData, err = c.MIDIToSM(data)
	case inputFormat == FormatSM && outputFormat == FormatEncoded:
		outputData, err = c.SMToEncoded(data)
	default:
		return fmt.Errorf("unsupported conversion: %s to %s", inputFormat, outputFormat)
	}

	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}

	if err := os.WriteFile(outputPath, outputData, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	return nil
}

// BuildChart resolves offset and tempos and quantizes the hit objects of bm
func (c *Converter) BuildChart(bm *Beatmap) (*Chart, error) {
	audio, ok := bm.General[AudioFilenameKey]
	if !ok {
		return nil, &StructuralParseError{Section: SectionGeneral, Reason: AudioFilenameKey + " not set"}
	}

	offset, err := ResolveOffset(bm.Timings)
	if err != nil {
		return nil, err
	}
	bpms, err := ConvertBPMs(bm.Timings)
	if err != nil {
		return nil, err
	}

	q, err := NewQuantizer(c.config, c.lanes).Quantize(bm.Timings, bm.HitObjects)
	if err != nil {
		return nil, err
	}

	return &Chart{
		Title:      bm.Info["Title"],
		Artist:     bm.Info["Artist"],
		Credit:     bm.Info["Creator"],
		AudioPath:  audio,
		Offset:     offset,
		BPMs:       bpms,
		InitialBPM: Uninherited(bm.Timings)[0].BPM(),
		Measures:   q.Measures,
		Notes:      q.Placements,
	}, nil
}

// OsuToChart parses .osu data and quantizes it into a Chart
func (c *Converter) OsuToChart(osuData []byte) (*Chart, error) {
	bm, err := ParseOsu(osuData)
	if err != nil {
		return nil, err
	}
	return c.BuildChart(bm)
}

// RenderSM serializes a chart through the configured simfile template
func (c *Converter) RenderSM(chart *Chart) ([]byte, error) {
	noteData, err := grid.Serialize(chart.Measures)
	if err != nil {
		return nil, err
	}
	return []byte(EmitTemplate(c.template, chart, noteData)), nil
}

// OsuToSM converts .osu data to a .sm simfile
func (c *Converter) OsuToSM(osuData []byte) ([]byte, error) {
	chart, err := c.OsuToChart(osuData)
	if err != nil {
		return nil, err
	}
	return c.RenderSM(chart)
}

// OsuToMIDI converts .osu data to a drum-track MIDI file
func (c *Converter) OsuToMIDI(osuData []byte) ([]byte, error) {
	chart, err := c.OsuToChart(osuData)
	if err != nil {
		return nil, err
	}
	return NewMIDIConverter().GenerateMIDI(chart)
}

// MIDIToSM converts MIDI data to a .sm simfile
func (c *Converter) MIDIToSM(midiData []byte) ([]byte, error) {
	bm, err := NewMIDIConverter().ParseMIDI(midiData, c.config.Lanes)
	if err != nil {
		return nil, err
	}
	chart, err := c.BuildChart(bm)
	if err != nil {
		return nil, err
	}
	return c.RenderSM(chart)
}

// SMToEncoded re-encodes the charts of a .sm simfile at 192 rows per measure
func (c *Converter) SMToEncoded(smData []byte) ([]byte, error) {
	difficulties, err := smencode.Encode(string(smData))
	if err != nil {
		return nil, err
	}
	out, err := smencode.Format(difficulties)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// GetSupportedConversions returns a list of supported conversion paths
func GetSupportedConversions() []string {
	return []string{
		"osu -> sm",
		"osu -> midi",
		"midi -> sm",
		"sm -> txt",
	}
}
