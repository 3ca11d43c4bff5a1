package converter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSections(t *testing.T) {
	text := "osu file format v14\r\n\r\n[General]\r\nAudioFilename: a.mp3\r\n\r\n[Events]\r\n//Background\r\n[General]\r\nMode: 3\r\n"
	sections := ParseSections(text)

	assert.Len(t, sections.sections, 2)

	general, ok := sections.Lines("General")
	require.True(t, ok)
	assert.Equal(t, []string{"AudioFilename: a.mp3", "", "Mode: 3", ""}, general)

	events, ok := sections.Lines("Events")
	require.True(t, ok)
	assert.Equal(t, []string{"//Background"}, events)

	_, ok = sections.Lines("Difficulty")
	assert.False(t, ok)
	assert.False(t, sections.Has("Difficulty"))
	assert.True(t, sections.Has("Events"))
}

func TestParseSectionsEmptySection(t *testing.T) {
	sections := ParseSections("[Colours]\n[HitObjects]")

	lines, ok := sections.Lines("Colours")
	assert.True(t, ok)
	assert.Empty(t, lines)
}

func TestSectionLinesAreCopies(t *testing.T) {
	sections := ParseSections("[General]\nMode: 3\n")

	lines, _ := sections.Lines("General")
	lines[0] = "Mode: 0"

	again, _ := sections.Lines("General")
	assert.Equal(t, "Mode: 3", again[0])
}

func TestRowsSkipsBlankAndComments(t *testing.T) {
	got := rows([]string{"  a ", "", "// note", "   ", "b"})

	want := []numberedLine{
		{row: 1, text: "a"},
		{row: 5, text: "b"},
	}
	assert.Equal(t, want, got)
}
