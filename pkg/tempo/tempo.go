// Package tempo cross-checks the declared tempo of a simfile against an
// estimate taken from its audio track.
package tempo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/james-see/osu2sm/pkg/rational"
)

// MaxRatioDenominator bounds the estimate/declared ratio when correcting for
// octave and triplet errors of the estimator.
const MaxRatioDenominator = 12

var (
	bpmsRE   = regexp.MustCompile(`#BPMS:\s*([^;]*)`)
	musicRE  = regexp.MustCompile(`#MUSIC:([^;\r\n]+);`)
	numberRE = regexp.MustCompile(`[-+]?[0-9]*\.?[0-9]+`)
)

// CollaboratorError wraps a failure of something the check depends on: the
// simfile, its audio or the estimator.
type CollaboratorError struct {
	Path string
	Err  error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("tempo check of %s: %v", e.Path, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// Estimator estimates the tempo of an audio file in BPM
type Estimator interface {
	EstimateTempo(ctx context.Context, audioPath string) (float64, error)
}

// CommandEstimator runs an external analyzer and takes the last number it
// prints as the tempo.
type CommandEstimator struct {
	Command string
	Args    []string
}

// NewCommandEstimator returns an estimator running `aubio tempo <file>`
func NewCommandEstimator() *CommandEstimator {
	return &CommandEstimator{Command: "aubio", Args: []string{"tempo"}}
}

// EstimateTempo runs the command with audioPath appended to its arguments
func (c *CommandEstimator) EstimateTempo(ctx context.Context, audioPath string) (float64, error) {
	cmdArgs := append(append([]string{}, c.Args...), audioPath)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Command, cmdArgs...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("error executing %s %s: %v: %s", c.Command, strings.Join(cmdArgs, " "), err, strings.TrimSpace(stderr.String()))
	}
	return lastNumber(stdout.String())
}

func lastNumber(out string) (float64, error) {
	matches := numberRE.FindAllString(out, -1)
	if len(matches) == 0 {
		return 0, errors.New("no tempo in estimator output")
	}
	return strconv.ParseFloat(matches[len(matches)-1], 64)
}

// Declared is the tempo information a simfile states about itself
type Declared struct {
	BPM   float64
	Music string
}

// ReadDeclared extracts the first BPM of #BPMS and the #MUSIC filename
func ReadDeclared(sm string) (Declared, error) {
	m := bpmsRE.FindStringSubmatch(sm)
	if m == nil {
		return Declared{}, errors.New("no #BPMS tag")
	}
	first, _, _ := strings.Cut(m[1], ",")
	_, value, ok := strings.Cut(first, "=")
	if !ok {
		return Declared{}, fmt.Errorf("malformed #BPMS entry %q", first)
	}
	bpm, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return Declared{}, fmt.Errorf("malformed #BPMS entry %q: %w", first, err)
	}

	music := musicRE.FindStringSubmatch(sm)
	if music == nil || strings.TrimSpace(music[1]) == "" {
		return Declared{}, errors.New("no #MUSIC tag")
	}
	return Declared{BPM: bpm, Music: strings.TrimSpace(music[1])}, nil
}

// Reconciled is an estimate scaled to the nearest simple multiple of the
// declared tempo.
type Reconciled struct {
	Ratio     *big.Rat
	Corrected float64
	Declared  float64
	Accuracy  float64 // Percent deviation of Corrected from Declared
}

// Reconcile divides estimated by the closest ratio to declared with a
// denominator of at most MaxRatioDenominator.
func Reconcile(estimated, declared float64) (Reconciled, error) {
	if declared <= 0 {
		return Reconciled{}, fmt.Errorf("declared tempo must be positive, got %v", declared)
	}
	x, err := rational.FromFloat(estimated / declared)
	if err != nil {
		return Reconciled{}, err
	}
	ratio := rational.LimitDenominator(x, MaxRatioDenominator)
	if ratio.Sign() <= 0 {
		return Reconciled{}, fmt.Errorf("estimate %v is not comparable to declared %v", estimated, declared)
	}

	r, _ := ratio.Float64()
	corrected := estimated / r
	return Reconciled{
		Ratio:     ratio,
		Corrected: corrected,
		Declared:  declared,
		Accuracy:  100.0 * (corrected - declared) / declared,
	}, nil
}

// Result is the outcome of checking one simfile
type Result struct {
	Path      string  `json:"path"`
	Ratio     string  `json:"ratio"`
	Estimated float64 `json:"estimated"`
	Corrected float64 `json:"corrected"`
	Declared  float64 `json:"declared"`
	Accuracy  float64 `json:"accuracy"`
}

// Check estimates the tempo of the audio referenced by the simfile at smPath,
// resolved relative to the simfile's directory, and reconciles it with the
// declared tempo.
func Check(ctx context.Context, est Estimator, smPath string) (Result, error) {
	fail := func(err error) (Result, error) {
		return Result{}, &CollaboratorError{Path: smPath, Err: err}
	}

	data, err := os.ReadFile(smPath)
	if err != nil {
		return fail(err)
	}
	declared, err := ReadDeclared(string(data))
	if err != nil {
		return fail(err)
	}

	audio := filepath.Join(filepath.Dir(smPath), declared.Music)
	if _, err := os.Stat(audio); err != nil {
		return fail(err)
	}

	estimated, err := est.EstimateTempo(ctx, audio)
	if err != nil {
		return fail(err)
	}

	rec, err := Reconcile(estimated, declared.BPM)
	if err != nil {
		return fail(err)
	}
	return Result{
		Path:      smPath,
		Ratio:     rec.Ratio.RatString(),
		Estimated: estimated,
		Corrected: rec.Corrected,
		Declared:  rec.Declared,
		Accuracy:  rec.Accuracy,
	}, nil
}
