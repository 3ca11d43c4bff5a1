package converter

import (
	"fmt"
	"strings"
)

// Uninherited returns the authoritative tempo sections in source order.
func Uninherited(timings []TempoSection) []TempoSection {
	var out []TempoSection
	for _, t := range timings {
		if t.Uninherited {
			out = append(out, t)
		}
	}
	return out
}

// ResolveOffset returns the start of the first uninherited section in
// seconds, formatted with 3 decimals.
func ResolveOffset(timings []TempoSection) (string, error) {
	sections := Uninherited(timings)
	if len(sections) == 0 {
		return "", &TempoResolutionError{Err: ErrNoUninheritedSection}
	}
	return fmt.Sprintf("%.3f", sections[0].Time/1000.0), nil
}

// ConvertBPMs restates every uninherited section as start=bpm, both with 3
// decimals, joined by commas.
func ConvertBPMs(timings []TempoSection) (string, error) {
	sections := Uninherited(timings)
	if len(sections) == 0 {
		return "", &TempoResolutionError{Err: ErrNoUninheritedSection}
	}
	pairs := make([]string, 0, len(sections))
	for _, s := range sections {
		pairs = append(pairs, fmt.Sprintf("%.3f=%.3f", s.Time/1000.0, s.BPM()))
	}
	return strings.Join(pairs, ","), nil
}
