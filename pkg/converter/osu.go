package converter

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Section names used by osu! beatmaps
const (
	SectionGeneral      = "General"
	SectionMetadata     = "Metadata"
	SectionTimingPoints = "TimingPoints"
	SectionHitObjects   = "HitObjects"
)

const (
	timingPointFields = 8
	hitObjectMinimum  = 5
)

// ParseOsuFile reads a .osu file and returns a Beatmap
func ParseOsuFile(filename string) (*Beatmap, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read osu file: %w", err)
	}
	return ParseOsu(data)
}

var requiredSections = []string{SectionHitObjects, SectionTimingPoints, SectionGeneral}

// ParseOsu parses the text of a .osu file. Any malformed row fails the whole
// beatmap.
func ParseOsu(data []byte) (*Beatmap, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, err
	}
	sections := ParseSections(text)
	for _, name := range requiredSections {
		if !sections.Has(name) {
			return nil, missingSection(name)
		}
	}

	hitLines, _ := sections.Lines(SectionHitObjects)
	hits, err := ParseHitObjects(hitLines)
	if err != nil {
		return nil, err
	}

	timingLines, _ := sections.Lines(SectionTimingPoints)
	timings, err := ParseTimingPoints(timingLines)
	if err != nil {
		return nil, err
	}

	generalLines, _ := sections.Lines(SectionGeneral)
	general, err := ParseMetadata(SectionGeneral, generalLines)
	if err != nil {
		return nil, err
	}

	info := Metadata{}
	if lines, ok := sections.Lines(SectionMetadata); ok {
		if info, err = ParseMetadata(SectionMetadata, lines); err != nil {
			return nil, err
		}
	}

	return &Beatmap{
		Sections:   sections,
		Timings:    timings,
		HitObjects: hits,
		General:    general,
		Info:       info,
	}, nil
}

// ParseTimingPoints parses rows of
// time,beatLength,meter,sampleSet,sampleIndex,volume,uninherited,effects
func ParseTimingPoints(lines []string) ([]TempoSection, error) {
	var timings []TempoSection
	for _, line := range rows(lines) {
		fields := strings.Split(line.text, ",")
		if len(fields) != timingPointFields {
			return nil, malformedRow(SectionTimingPoints, line.row,
				"expected %d fields, got %d", timingPointFields, len(fields))
		}

		time, err := parseFloat(fields[0])
		if err != nil {
			return nil, malformedRow(SectionTimingPoints, line.row, "invalid time %q", fields[0])
		}
		beatLength, err := parseFloat(fields[1])
		if err != nil {
			return nil, malformedRow(SectionTimingPoints, line.row, "invalid beat length %q", fields[1])
		}
		meter, err := strconv.Atoi(strings.TrimSpace(fields[2]))
		if err != nil {
			return nil, malformedRow(SectionTimingPoints, line.row, "invalid meter %q", fields[2])
		}
		uninherited, err := strconv.Atoi(strings.TrimSpace(fields[6]))
		if err != nil {
			return nil, malformedRow(SectionTimingPoints, line.row, "invalid uninherited flag %q", fields[6])
		}

		section := TempoSection{
			Time:        time,
			BeatLength:  beatLength,
			Meter:       meter,
			SampleSet:   fields[3],
			SampleIndex: fields[4],
			Volume:      fields[5],
			Uninherited: uninherited == 1,
			Effects:     fields[7],
		}
		if section.Uninherited && section.BeatLength <= 0 {
			return nil, malformedRow(SectionTimingPoints, line.row,
				"uninherited timing point has non-positive beat length %v", beatLength)
		}
		timings = append(timings, section)
	}
	return timings, nil
}

// ParseHitObjects parses rows of x,y,time,type,hitSound,objectParams...,hitSample.
// Slider and spinner parameters contain commas themselves, so everything
// between hitSound and the final field is kept as one opaque string.
func ParseHitObjects(lines []string) ([]HitObject, error) {
	var hits []HitObject
	for _, line := range rows(lines) {
		fields := strings.Split(line.text, ",")
		if len(fields) < hitObjectMinimum {
			return nil, malformedRow(SectionHitObjects, line.row,
				"expected at least %d fields, got %d", hitObjectMinimum, len(fields))
		}

		var ints [4]int
		for i, idx := range []int{0, 1, 3, 4} {
			v, err := strconv.Atoi(strings.TrimSpace(fields[idx]))
			if err != nil {
				return nil, malformedRow(SectionHitObjects, line.row, "invalid integer field %d: %q", idx+1, fields[idx])
			}
			ints[i] = v
		}
		time, err := parseFloat(fields[2])
		if err != nil {
			return nil, malformedRow(SectionHitObjects, line.row, "invalid time %q", fields[2])
		}

		obj := HitObject{
			X:        ints[0],
			Y:        ints[1],
			Time:     time,
			Type:     ints[2],
			HitSound: ints[3],
		}
		if n := len(fields); n > hitObjectMinimum {
			obj.ObjectParams = strings.Join(fields[hitObjectMinimum:n-1], ",")
			obj.HitSample = fields[n-1]
		}
		hits = append(hits, obj)
	}
	return hits, nil
}

// ParseMetadata parses `key: value` rows. The value keeps any further colons.
func ParseMetadata(section string, lines []string) (Metadata, error) {
	meta := make(Metadata)
	for _, line := range rows(lines) {
		key, value, ok := strings.Cut(line.text, ":")
		if !ok {
			return nil, malformedRow(section, line.row, "expected key: value, got %q", line.text)
		}
		meta[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return meta, nil
}

// decodeText drops a byte order mark and converts UTF-16 input to UTF-8.
// Input without a BOM is taken as UTF-8.
func decodeText(data []byte) (string, error) {
	out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
	if err != nil {
		return "", fmt.Errorf("failed to decode beatmap text: %w", err)
	}
	return string(out), nil
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
