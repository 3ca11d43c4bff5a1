package tempo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedEstimator struct {
	bpm float64
	err error
}

func (f fixedEstimator) EstimateTempo(_ context.Context, _ string) (float64, error) {
	return f.bpm, f.err
}

const simfile = "#TITLE:x;\n#MUSIC:song.ogg;\n#OFFSET:0.000;\n#BPMS:0.000=120.000,12.000=140.000;\n"

func TestReadDeclared(t *testing.T) {
	d, err := ReadDeclared(simfile)
	require.NoError(t, err)
	assert.Equal(t, Declared{BPM: 120, Music: "song.ogg"}, d)

	_, err = ReadDeclared("#MUSIC:song.ogg;")
	assert.Error(t, err)

	_, err = ReadDeclared("#BPMS:0.000=120.000;")
	assert.Error(t, err)

	_, err = ReadDeclared("#BPMS:fast;\n#MUSIC:a.ogg;")
	assert.Error(t, err)
}

func TestReconcile(t *testing.T) {
	tests := []struct {
		name      string
		estimated float64
		declared  float64
		ratio     string
		corrected float64
	}{
		{"exact", 120, 120, "1", 120},
		{"double", 240.4, 120, "2", 120.2},
		{"half", 60, 120, "1/2", 120},
		{"triplet", 180, 120, "3/2", 120},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := Reconcile(tt.estimated, tt.declared)
			require.NoError(t, err)
			assert.Equal(t, tt.ratio, rec.Ratio.RatString())
			assert.InDelta(t, tt.corrected, rec.Corrected, 1e-9)
			assert.InDelta(t, 100*(tt.corrected-tt.declared)/tt.declared, rec.Accuracy, 1e-9)
		})
	}
}

func TestReconcileErrors(t *testing.T) {
	_, err := Reconcile(120, 0)
	assert.Error(t, err)

	_, err = Reconcile(1, 120)
	assert.Error(t, err)
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	smPath := filepath.Join(dir, "chart.sm")
	require.NoError(t, os.WriteFile(smPath, []byte(simfile), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "song.ogg"), []byte("audio"), 0644))

	res, err := Check(context.Background(), fixedEstimator{bpm: 239}, smPath)
	require.NoError(t, err)
	assert.Equal(t, smPath, res.Path)
	assert.Equal(t, "2", res.Ratio)
	assert.InDelta(t, 119.5, res.Corrected, 1e-9)
	assert.InDelta(t, -0.41666, res.Accuracy, 1e-4)
}

func TestCheckCollaboratorErrors(t *testing.T) {
	dir := t.TempDir()
	smPath := filepath.Join(dir, "chart.sm")
	require.NoError(t, os.WriteFile(smPath, []byte(simfile), 0644))

	// audio missing
	_, err := Check(context.Background(), fixedEstimator{bpm: 120}, smPath)
	var collabErr *CollaboratorError
	require.ErrorAs(t, err, &collabErr)
	assert.Equal(t, smPath, collabErr.Path)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "song.ogg"), []byte("audio"), 0644))
	boom := errors.New("boom")
	_, err = Check(context.Background(), fixedEstimator{err: boom}, smPath)
	assert.ErrorIs(t, err, boom)
	assert.ErrorAs(t, err, &collabErr)

	_, err = Check(context.Background(), fixedEstimator{bpm: 120}, filepath.Join(dir, "missing.sm"))
	assert.ErrorAs(t, err, &collabErr)
}

func TestCommandEstimator(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}

	est := &CommandEstimator{Command: "sh", Args: []string{"-c", "echo 'analysing'; echo 128.5", "sh"}}
	bpm, err := est.EstimateTempo(context.Background(), "song.ogg")
	require.NoError(t, err)
	assert.Equal(t, 128.5, bpm)

	est = &CommandEstimator{Command: "sh", Args: []string{"-c", "exit 3", "sh"}}
	_, err = est.EstimateTempo(context.Background(), "song.ogg")
	assert.Error(t, err)

	est = &CommandEstimator{Command: "sh", Args: []string{"-c", "echo nothing", "sh"}}
	_, err = est.EstimateTempo(context.Background(), "song.ogg")
	assert.Error(t, err)
}

func TestNewCommandEstimator(t *testing.T) {
	est := NewCommandEstimator()
	assert.Equal(t, "aubio", est.Command)
	assert.Equal(t, []string{"tempo"}, est.Args)
}
