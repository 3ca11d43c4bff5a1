// Package grid holds the measure/row representation of StepMania note data
// and its textual encoding.
package grid

import (
	"fmt"
	"strings"
)

// FixedLength is the row count measures are expanded to for encoding.
const FixedLength = 192

// Row is one grid line: a note-state code per lane (0 = empty).
type Row []uint8

// Measure is a fixed number of rows covering one measure.
type Measure []Row

// Empty returns a measure of the given number of all-zero rows.
func Empty(rows, lanes int) Measure {
	m := make(Measure, rows)
	for i := range m {
		m[i] = make(Row, lanes)
	}
	return m
}

// DivisibilityError is returned when a measure of Width rows cannot be
// spread evenly over Length rows.
type DivisibilityError struct {
	Width  int
	Length int
}

func (e *DivisibilityError) Error() string {
	return fmt.Sprintf("can't re-grid measure of width %d to %d rows", e.Width, e.Length)
}

// Serialize renders measures as StepMania note data: one line of digits per
// row, a "," line between measures and ";" after the last one.
func Serialize(measures []Measure) (string, error) {
	var b strings.Builder
	for i, measure := range measures {
		for r, row := range measure {
			for lane, code := range row {
				if code > 9 {
					return "", fmt.Errorf("measure %d row %d lane %d: note code %d is not a single digit", i, r, lane, code)
				}
				b.WriteByte('0' + code)
			}
			b.WriteByte('\n')
		}
		if i < len(measures)-1 {
			b.WriteString(",\n")
		}
	}
	b.WriteString(";")
	return b.String(), nil
}

// Regrid spreads the rows of m evenly over length rows. Row i lands at
// i*length/len(m); every other row is empty. An empty measure becomes length
// empty rows.
func Regrid(m Measure, length, lanes int) (Measure, error) {
	width := len(m)
	out := Empty(length, lanes)
	if width == 0 {
		return out, nil
	}
	if length%width != 0 {
		return nil, &DivisibilityError{Width: width, Length: length}
	}

	stride := length / width
	for i, row := range m {
		copy(out[i*stride], row)
	}
	return out, nil
}

// Width returns the lane count of the first row, or zero for an empty measure.
func (m Measure) Width() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}
