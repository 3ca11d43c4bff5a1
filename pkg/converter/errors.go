package converter

import (
	"errors"
	"fmt"
)

// ErrNoUninheritedSection is wrapped by TempoResolutionError.
var ErrNoUninheritedSection = errors.New("no uninherited timing point")

// StructuralParseError reports a missing section or a malformed row. Row is
// 1-based within the section and zero when the error concerns the section as
// a whole.
type StructuralParseError struct {
	Section string
	Row     int
	Reason  string
}

func (e *StructuralParseError) Error() string {
	if e.Row == 0 {
		return fmt.Sprintf("[%s]: %s", e.Section, e.Reason)
	}
	return fmt.Sprintf("[%s] row %d: %s", e.Section, e.Row, e.Reason)
}

// TempoResolutionError is returned when no authoritative tempo exists.
type TempoResolutionError struct {
	Err error
}

func (e *TempoResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve tempo: %v", e.Err)
}

func (e *TempoResolutionError) Unwrap() error {
	return e.Err
}

// MeasureLimitError is returned when placing the hit object at Time (ms)
// would grow the chart past Limit measures.
type MeasureLimitError struct {
	Limit int
	Time  float64
}

func (e *MeasureLimitError) Error() string {
	return fmt.Sprintf("note at %vms needs more than %d measures", e.Time, e.Limit)
}

func missingSection(name string) error {
	return &StructuralParseError{Section: name, Reason: "section not found"}
}

func malformedRow(section string, row int, format string, args ...any) error {
	return &StructuralParseError{Section: section, Row: row, Reason: fmt.Sprintf(format, args...)}
}
