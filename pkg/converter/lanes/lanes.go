// Package lanes provides lane assignment strategies for the quantizer
package lanes

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/james-see/osu2sm/pkg/converter"
)

// PlayfieldWidth is the width of the osu! playfield in osu!pixels
const PlayfieldWidth = 512

// Strategy names accepted by ByName
const (
	NameRandom = "random"
	NameColumn = "column"
)

// Random puts each note in a uniformly random lane. Lane content carries no
// meaning with this strategy.
type Random struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandom creates a Random strategy. The same seed gives the same lanes.
func NewRandom(seed int64) *Random {
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

// Name returns the strategy name
func (r *Random) Name() string {
	return NameRandom
}

// Lane returns a random lane in [0, lanes)
func (r *Random) Lane(_ converter.HitObject, lanes int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(lanes)
}

// Column maps the x coordinate onto equal-width lanes, the way osu!mania lays
// out its columns.
type Column struct{}

// NewColumn creates a Column strategy
func NewColumn() *Column {
	return &Column{}
}

// Name returns the strategy name
func (c *Column) Name() string {
	return NameColumn
}

// Lane returns floor(x * lanes / 512), clamped to the playfield
func (c *Column) Lane(obj converter.HitObject, lanes int) int {
	lane := obj.X * lanes / PlayfieldWidth
	if lane < 0 {
		return 0
	}
	if lane >= lanes {
		return lanes - 1
	}
	return lane
}

// ByName returns the strategy with the given name
func ByName(name string, seed int64) (converter.LaneStrategy, error) {
	switch strings.ToLower(name) {
	case NameRandom, "":
		return NewRandom(seed), nil
	case NameColumn, "columns", "x":
		return NewColumn(), nil
	default:
		return nil, fmt.Errorf("unknown lane strategy %q (want %s or %s)", name, NameRandom, NameColumn)
	}
}

// Names lists the available strategies
func Names() []string {
	return []string{NameRandom, NameColumn}
}
