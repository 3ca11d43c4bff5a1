package converter

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
)

//go:embed templates/default.sm
var defaultTemplate string

// DefaultTemplate returns the built-in dance-single simfile template
func DefaultTemplate() string {
	return defaultTemplate
}

// LoadTemplate reads a simfile template from disk
func LoadTemplate(filename string) (string, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return "", fmt.Errorf("failed to read template: %w", err)
	}
	return string(data), nil
}

// EmitTemplate substitutes the chart fields into template. Placeholders are
// replaced in a single pass, so values containing braces are left alone.
func EmitTemplate(template string, chart *Chart, noteData string) string {
	r := strings.NewReplacer(
		"{BPMS}", chart.BPMs,
		"{AUDIOPATH}", chart.AudioPath,
		"{OFFSET}", chart.Offset,
		"{NOTEDATA}", noteData,
		"{TITLE}", chart.Title,
		"{ARTIST}", chart.Artist,
		"{CREDIT}", chart.Credit,
	)
	return r.Replace(template)
}
