package converter

import (
	"regexp"
	"strings"
)

var sectionHeaderRE = regexp.MustCompile(`^\[([a-zA-Z]+)\]`)

// SectionMap holds the lines of each bracketed section of a beatmap, in
// source order. It is built once by ParseSections and never modified.
type SectionMap struct {
	sections map[string][]string
}

// ParseSections splits text into sections. A header line opens a section and
// is itself dropped, as are lines before the first header. A repeated header
// continues the existing section.
func ParseSections(text string) SectionMap {
	sections := make(map[string][]string)
	current := ""
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if m := sectionHeaderRE.FindStringSubmatch(line); m != nil {
			current = m[1]
			if _, ok := sections[current]; !ok {
				sections[current] = nil
			}
			continue
		}
		if current == "" {
			continue
		}
		sections[current] = append(sections[current], line)
	}
	return SectionMap{sections: sections}
}

// Lines returns a copy of the lines of the named section.
func (s SectionMap) Lines(name string) ([]string, bool) {
	lines, ok := s.sections[name]
	if !ok {
		return nil, false
	}
	out := make([]string, len(lines))
	copy(out, lines)
	return out, true
}

// Has reports whether the named section was present.
func (s SectionMap) Has(name string) bool {
	_, ok := s.sections[name]
	return ok
}

// rows drops blank and comment lines, keeping each line's 1-based position.
func rows(lines []string) []numberedLine {
	var out []numberedLine
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "//") {
			continue
		}
		out = append(out, numberedLine{row: i + 1, text: trimmed})
	}
	return out
}

type numberedLine struct {
	row  int
	text string
}
