// Package smencode re-encodes the note data of a StepMania simfile onto a
// fixed 192-row grid per measure.
package smencode

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/james-see/osu2sm/pkg/grid"
)

const defaultLanes = 4

var measureRowRE = regexp.MustCompile(`^[0-9M=.\-]+$`)

// Mines and the less common note kinds are folded onto spare digits.
var noteSubs = strings.NewReplacer(
	"M", "9",
	"=", "8",
	".", "7",
	"-", "6",
)

// Difficulty is one chart of a simfile
type Difficulty struct {
	Measures []grid.Measure
	Lanes    int
}

// Widths returns the row count of each measure.
func (d Difficulty) Widths() []int {
	widths := make([]int, len(d.Measures))
	for i, m := range d.Measures {
		widths[i] = len(m)
	}
	return widths
}

// ParseFile reads a simfile and returns its charts at native resolution
func ParseFile(filename string) ([]Difficulty, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read sm file: %w", err)
	}
	return Parse(string(data))
}

// Parse scans simfile text for charts. A "//" line starts a chart, "," ends a
// measure and ";" ends both the measure and the chart. Rows keep their native
// count per measure.
func Parse(contents string) ([]Difficulty, error) {
	var (
		difficulties []Difficulty
		current      Difficulty
		measure      grid.Measure
		started      bool
	)

	closeMeasure := func() {
		current.Measures = append(current.Measures, measure)
		measure = nil
	}

	for i, line := range strings.Split(contents, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "//"):
			started = true
		case line == "" || !started:
			continue
		case strings.HasPrefix(line, ","):
			closeMeasure()
		case strings.HasPrefix(line, ";"):
			closeMeasure()
			if current.Lanes == 0 {
				current.Lanes = defaultLanes
			}
			difficulties = append(difficulties, current)
			current = Difficulty{}
			started = false
		case measureRowRE.MatchString(line):
			row, err := parseRow(noteSubs.Replace(line))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", i+1, err)
			}
			if current.Lanes == 0 {
				current.Lanes = len(row)
			} else if len(row) != current.Lanes {
				return nil, fmt.Errorf("line %d: row has %d lanes, chart has %d", i+1, len(row), current.Lanes)
			}
			measure = append(measure, row)
		}
	}
	return difficulties, nil
}

// Encode parses the simfile and expands every measure to grid.FixedLength
// rows. A measure whose row count does not divide it fails the whole file.
func Encode(contents string) ([]Difficulty, error) {
	difficulties, err := Parse(contents)
	if err != nil {
		return nil, err
	}
	for d, diff := range difficulties {
		for m, measure := range diff.Measures {
			padded, err := grid.Regrid(measure, grid.FixedLength, diff.Lanes)
			if err != nil {
				return nil, fmt.Errorf("difficulty %d measure %d: %w", d, m, err)
			}
			diff.Measures[m] = padded
		}
	}
	return difficulties, nil
}

// MeasureWidths returns the native measure row counts of each chart.
func MeasureWidths(contents string) ([][]int, error) {
	difficulties, err := Parse(contents)
	if err != nil {
		return nil, err
	}
	widths := make([][]int, len(difficulties))
	for i, d := range difficulties {
		widths[i] = d.Widths()
	}
	return widths, nil
}

// Format writes each difficulty under a "// Difficulty" header followed by
// its serialized grid.
func Format(difficulties []Difficulty) (string, error) {
	var b strings.Builder
	for i, d := range difficulties {
		rows := 0
		if len(d.Measures) > 0 {
			rows = len(d.Measures[0])
		}
		fmt.Fprintf(&b, "// Difficulty %d (%d x %d x %d)\n", i, len(d.Measures), rows, d.Lanes)
		data, err := grid.Serialize(d.Measures)
		if err != nil {
			return "", fmt.Errorf("difficulty %d: %w", i, err)
		}
		b.WriteString(data)
		b.WriteString("\n")
	}
	return b.String(), nil
}

func parseRow(line string) (grid.Row, error) {
	row := make(grid.Row, len(line))
	for i := 0; i < len(line); i++ {
		c := line[i]
		if c < '0' || c > '9' {
			return nil, fmt.Errorf("invalid note %q", c)
		}
		row[i] = c - '0'
	}
	return row, nil
}
