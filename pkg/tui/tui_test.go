package tui

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/james-see/osu2sm/pkg/config"
)

const sampleOsu = `osu file format v14

[General]
AudioFilename: audio.mp3

[TimingPoints]
0,500,4,1,0,100,1,0

[HitObjects]
64,192,0,1,0,0:0:0:0:
448,192,500,1,0,0:0:0:0:
`

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestMenuNavigation(t *testing.T) {
	m := New(config.Default())

	next, _ := m.Update(keyMsg("k"))
	assert.Equal(t, 0, next.(Model).menuIndex)

	for i := 0; i < 10; i++ {
		next, _ = next.Update(keyMsg("j"))
	}
	assert.Equal(t, len(menuItems)-1, next.(Model).menuIndex)

	_, cmd := next.Update(keyMsg("enter"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestMenuSelectsConversion(t *testing.T) {
	m := New(config.Default())

	next, _ := m.Update(keyMsg("j"))
	next, _ = next.Update(keyMsg("j"))
	next, _ = next.Update(keyMsg("enter"))

	model := next.(Model)
	assert.Equal(t, StateFilePicker, model.state)
	assert.Equal(t, "MIDI → SM", model.conversion.Title)
	assert.Equal(t, []string{".mid", ".midi"}, model.filePicker.AllowedTypes)

	back, _ := model.Update(keyMsg("esc"))
	assert.Equal(t, StateMenu, back.(Model).state)
}

func TestConversionDone(t *testing.T) {
	m := New(config.Default())
	m.state = StateConverting

	next, _ := m.Update(conversionDoneMsg{err: errors.New("boom")})
	model := next.(Model)
	assert.Equal(t, StateResult, model.state)
	assert.Contains(t, model.View(), "boom")

	next, _ = model.Update(keyMsg("enter"))
	assert.Equal(t, StateMenu, next.(Model).state)
	assert.NoError(t, next.(Model).err)
}

func TestConvertFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "song.osu")
	require.NoError(t, os.WriteFile(input, []byte(sampleOsu), 0644))

	cfg := config.Default()
	cfg.Lanes = "column"

	for _, item := range menuItems[:2] {
		out, err := convertFile(cfg, item, input)
		require.NoError(t, err, item.Title)
		assert.Equal(t, filepath.Join(dir, "song"+item.OutputExt), out)
		assert.FileExists(t, out)
	}

	out, err := convertFile(cfg, menuItems[4], input)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "song.png"), out)
	assert.FileExists(t, out)

	encoded, err := convertFile(cfg, menuItems[3], filepath.Join(dir, "song.sm"))
	require.NoError(t, err)
	assert.FileExists(t, encoded)
}

func TestPerformConversion(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "song.osu")
	require.NoError(t, os.WriteFile(input, []byte(sampleOsu), 0644))

	m := New(config.Default())
	m.conversion = menuItems[0]
	m.selectedFile = input

	msg := m.performConversion()()
	done, ok := msg.(conversionDoneMsg)
	require.True(t, ok)
	require.NoError(t, done.err)
	assert.Equal(t, filepath.Join(dir, "song.sm"), done.outputFile)
}

func TestViewShowsResultAndLanes(t *testing.T) {
	cfg := config.Default()
	cfg.Lanes = "column"
	m := New(cfg)
	assert.Contains(t, m.View(), "lanes: column × 4")

	next, _ := m.Update(conversionDoneMsg{outputFile: "/tmp/song.sm"})
	model := next.(Model)
	model.selectedFile = "/tmp/song.osu"
	assert.Contains(t, model.View(), "song.osu → song.sm")
}
