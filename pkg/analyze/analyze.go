// Package analyze summarises the measure widths used by simfiles.
package analyze

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/james-see/osu2sm/pkg/grid"
	"github.com/james-see/osu2sm/pkg/smencode"
	"github.com/james-see/osu2sm/pkg/util"
)

// ParseWidthLog reads lines such as "[16, 16, 192]" and returns the widths of
// each line. Blank lines are skipped.
func ParseWidthLog(r io.Reader) ([][]int, error) {
	var out [][]int
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		widths, err := parseList(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		out = append(out, widths)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func parseList(line string) ([]int, error) {
	if !strings.HasPrefix(line, "[") || !strings.HasSuffix(line, "]") {
		return nil, fmt.Errorf("expected [w, w, ...], got %q", line)
	}
	body := strings.TrimSpace(line[1 : len(line)-1])
	if body == "" {
		return []int{}, nil
	}

	parts := strings.Split(body, ",")
	widths := make([]int, 0, len(parts))
	for _, p := range parts {
		w, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid width %q", strings.TrimSpace(p))
		}
		if w < 0 {
			return nil, fmt.Errorf("negative width %d", w)
		}
		widths = append(widths, w)
	}
	return widths, nil
}

// FormatWidths renders widths the way ParseWidthLog reads them
func FormatWidths(widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = strconv.Itoa(w)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// FromSM returns one width log line per chart of the simfile at path
func FromSM(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	widths, err := smencode.MeasureWidths(string(data))
	if err != nil {
		return nil, err
	}
	lines := make([]string, len(widths))
	for i, w := range widths {
		lines[i] = FormatWidths(w)
	}
	return lines, nil
}

// Histogram counts how often each measure width occurs
type Histogram map[int]int

// Add counts every width of every list
func (h Histogram) Add(lists ...[]int) {
	for _, list := range lists {
		for _, w := range list {
			h[w]++
		}
	}
}

// Total is the number of measures counted
func (h Histogram) Total() uint64 {
	counts := make([]int, 0, len(h))
	for _, c := range h {
		counts = append(counts, c)
	}
	return util.Sum(counts)
}

// Bin is one width of a histogram
type Bin struct {
	Width       int
	Count       int
	Factors     map[int]int
	Regriddable bool // Width divides grid.FixedLength
}

// Sorted returns the bins in ascending width order
func (h Histogram) Sorted() []Bin {
	bins := make([]Bin, 0, len(h))
	for _, w := range util.SortedKeys(h) {
		bins = append(bins, Bin{
			Width:       w,
			Count:       h[w],
			Factors:     Factorize(w),
			Regriddable: w == 0 || grid.FixedLength%w == 0,
		})
	}
	return bins
}

// Factorize returns the prime factorisation of n as prime -> exponent. Values
// below 2 have no factors.
func Factorize(n int) map[int]int {
	factors := make(map[int]int)
	for p := 2; p*p <= n; p++ {
		for n%p == 0 {
			factors[p]++
			n /= p
		}
	}
	if n > 1 {
		factors[n]++
	}
	return factors
}

// FormatFactors renders a factorisation as "2^6 * 3"
func FormatFactors(factors map[int]int) string {
	if len(factors) == 0 {
		return "1"
	}
	var parts []string
	for _, p := range util.SortedKeys(factors) {
		if e := factors[p]; e > 1 {
			parts = append(parts, fmt.Sprintf("%d^%d", p, e))
		} else {
			parts = append(parts, strconv.Itoa(p))
		}
	}
	return strings.Join(parts, " * ")
}
