// Package preview draws note charts as PNG images.
package preview

import (
	"errors"
	"fmt"
	"image"
	"math/big"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/james-see/osu2sm/pkg/converter"
	"github.com/james-see/osu2sm/pkg/grid"
	"github.com/james-see/osu2sm/pkg/rational"
)

type Color struct {
	R, G, B float64
}

// Subdivision colours in the usual rhythm-game convention
var (
	colorQuarter   = Color{0.85, 0.15, 0.15}
	colorEighth    = Color{0.2, 0.35, 0.9}
	colorTwelfth   = Color{0.6, 0.2, 0.8}
	colorSixteenth = Color{0.95, 0.8, 0.1}
	colorOther     = Color{0.2, 0.75, 0.3}
)

// Options controls the layout of a preview
type Options struct {
	MeasuresPerColumn int
	MeasureHeight     float64
	LaneWidth         float64
	Margin            float64
	BeatsPerMeasure   int
}

// DefaultOptions returns a layout of 8 measures per column
func DefaultOptions() Options {
	return Options{
		MeasuresPerColumn: 8,
		MeasureHeight:     96,
		LaneWidth:         20,
		Margin:            30,
		BeatsPerMeasure:   4,
	}
}

func (o Options) validate() error {
	if o.MeasuresPerColumn <= 0 || o.MeasureHeight <= 0 || o.LaneWidth <= 0 || o.BeatsPerMeasure <= 0 {
		return fmt.Errorf("invalid preview options %+v", o)
	}
	return nil
}

func setRGBColor(dc *gg.Context, c Color) {
	dc.SetRGB(c.R, c.G, c.B)
}

// SubdivisionColor picks the colour of a note at row of a measure with width
// rows, by the coarsest beat subdivision the row falls on.
func SubdivisionColor(row, width, beatsPerMeasure int) Color {
	if width <= 0 {
		return colorOther
	}
	for _, sub := range []struct {
		perBeat int
		color   Color
	}{
		{1, colorQuarter},
		{2, colorEighth},
		{3, colorTwelfth},
		{4, colorSixteenth},
	} {
		if (row*beatsPerMeasure*sub.perBeat)%width == 0 {
			return sub.color
		}
	}
	return colorOther
}

// BeatColor colours a note by the denominator of its position within the
// beat, which keeps triplets apart from the 16th row they were placed on.
func BeatColor(beat *big.Rat) Color {
	if beat == nil {
		return colorOther
	}
	_, frac := rational.Split(beat)
	switch frac.Denom().Int64() {
	case 1:
		return colorQuarter
	case 2:
		return colorEighth
	case 3:
		return colorTwelfth
	case 4:
		return colorSixteenth
	}
	return colorOther
}

// noteKey addresses one cell of the chart
type noteKey struct {
	measure, row, lane int
}

type layout struct {
	opts    Options
	lanes   int
	columns int
	colW    float64
	w, h    float64
}

func newLayout(measures []grid.Measure, lanes int, opts Options) layout {
	columns := (len(measures) + opts.MeasuresPerColumn - 1) / opts.MeasuresPerColumn
	if columns == 0 {
		columns = 1
	}
	colW := float64(lanes)*opts.LaneWidth + opts.Margin
	return layout{
		opts:    opts,
		lanes:   lanes,
		columns: columns,
		colW:    colW,
		w:       float64(columns)*colW + opts.Margin,
		h:       float64(opts.MeasuresPerColumn)*opts.MeasureHeight + 2*opts.Margin,
	}
}

// origin returns the top-left corner of measure i
func (l layout) origin(i int) (float64, float64) {
	col := i / l.opts.MeasuresPerColumn
	pos := i % l.opts.MeasuresPerColumn
	return l.opts.Margin + float64(col)*l.colW, l.opts.Margin + float64(pos)*l.opts.MeasureHeight
}

func prepareScreen(dc *gg.Context, l layout) {
	dc.SetRGB(0.12, 0.12, 0.12)
	dc.DrawRectangle(0, 0, l.w, l.h)
	dc.Fill()
}

func drawMeasure(dc *gg.Context, l layout, i int, m grid.Measure, colors map[noteKey]Color) {
	x, y := l.origin(i)
	laneW := l.opts.LaneWidth
	measureW := float64(l.lanes) * laneW

	for lane := 1; lane < l.lanes; lane++ {
		lx := x + float64(lane)*laneW
		dc.SetRGBA(1, 1, 1, 0.1)
		dc.SetLineWidth(0.5)
		dc.DrawLine(lx, y, lx, y+l.opts.MeasureHeight)
		dc.Stroke()
	}

	beatH := l.opts.MeasureHeight / float64(l.opts.BeatsPerMeasure)
	for b := 1; b < l.opts.BeatsPerMeasure; b++ {
		by := y + float64(b)*beatH
		dc.SetRGBA(1, 1, 1, 0.25)
		dc.SetLineWidth(0.5)
		dc.DrawLine(x, by, x+measureW, by)
		dc.Stroke()
	}

	dc.SetRGBA(1, 1, 1, 0.7)
	dc.SetLineWidth(1)
	dc.DrawLine(x, y, x+measureW, y)
	dc.Stroke()

	dc.SetRGBA(1, 1, 1, 0.6)
	dc.DrawString(fmt.Sprintf("%d", i+1), x+measureW+4, y+10)

	if len(m) == 0 {
		return
	}
	rowH := l.opts.MeasureHeight / float64(len(m))
	noteH := l.opts.MeasureHeight / 32
	for r, row := range m {
		for lane, code := range row {
			if code == converter.NoteEmpty || lane >= l.lanes {
				continue
			}
			nx := x + float64(lane)*laneW + 1
			ny := y + float64(r)*rowH
			dc.DrawRoundedRectangle(nx, ny, laneW-2, noteH, noteH/3)
			c, ok := colors[noteKey{i, r, lane}]
			if !ok {
				c = SubdivisionColor(r, len(m), l.opts.BeatsPerMeasure)
			}
			setRGBColor(dc, c)
			dc.FillPreserve()
			dc.SetRGBA(0, 0, 0, 1)
			dc.SetLineWidth(1)
			dc.Stroke()
		}
	}
}

// Render draws measures top to bottom in columns
func Render(measures []grid.Measure, lanes int, opts Options) (image.Image, error) {
	return render(measures, lanes, opts, nil)
}

func render(measures []grid.Measure, lanes int, opts Options, colors map[noteKey]Color) (image.Image, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if lanes <= 0 {
		return nil, errors.New("lanes must be positive")
	}

	l := newLayout(measures, lanes, opts)
	dc := gg.NewContext(int(l.w), int(l.h))

	font, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	dc.SetFontFace(truetype.NewFace(font, &truetype.Options{Size: opts.Margin / 3}))

	prepareScreen(dc, l)
	for i, m := range measures {
		drawMeasure(dc, l, i, m, colors)
	}
	return dc.Image(), nil
}

// RenderChart draws the measures of a converted chart. Notes with a known
// beat position are coloured by BeatColor, the rest by their row.
func RenderChart(chart *converter.Chart, opts Options) (image.Image, error) {
	if chart == nil {
		return nil, errors.New("nil chart")
	}
	return render(chart.Measures, chart.Lanes(), opts, noteColors(chart))
}

func noteColors(chart *converter.Chart) map[noteKey]Color {
	colors := make(map[noteKey]Color, len(chart.Notes))
	for _, n := range chart.Notes {
		colors[noteKey{n.Measure, n.Slot, n.Lane}] = BeatColor(n.Beat)
	}
	return colors
}

// WritePNG renders the chart to a PNG file
func WritePNG(chart *converter.Chart, opts Options, path string) error {
	img, err := RenderChart(chart, opts)
	if err != nil {
		return err
	}
	return gg.SavePNG(path, img)
}
