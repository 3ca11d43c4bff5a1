// Package rational provides exact-fraction helpers used to snap timing values
// onto musical subdivisions.
package rational

import (
	"errors"
	"math"
	"math/big"
)

// ErrNotFinite is returned when a float cannot be represented as a fraction.
var ErrNotFinite = errors.New("value is not a finite number")

// FromFloat returns the exact rational value of f.
func FromFloat(f float64) (*big.Rat, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, ErrNotFinite
	}
	return new(big.Rat).SetFloat64(f), nil
}

// LimitDenominator returns the closest fraction to x whose denominator is at
// most maxDenominator. It walks the continued fraction expansion of x and
// picks between the last convergent and the best semiconvergent.
func LimitDenominator(x *big.Rat, maxDenominator int64) *big.Rat {
	if maxDenominator < 1 {
		maxDenominator = 1
	}
	limit := big.NewInt(maxDenominator)
	if x.Denom().Cmp(limit) <= 0 {
		return new(big.Rat).Set(x)
	}

	p0, q0 := big.NewInt(0), big.NewInt(1)
	p1, q1 := big.NewInt(1), big.NewInt(0)
	n := new(big.Int).Set(x.Num())
	d := new(big.Int).Set(x.Denom())

	a := new(big.Int)
	q2 := new(big.Int)
	for {
		a.Div(n, d)
		q2.Mul(a, q1)
		q2.Add(q2, q0)
		if q2.Cmp(limit) > 0 {
			break
		}
		p2 := new(big.Int).Mul(a, p1)
		p2.Add(p2, p0)
		p0, q0, p1, q1 = p1, q1, p2, new(big.Int).Set(q2)

		r := new(big.Int).Mul(a, d)
		r.Sub(n, r)
		n, d = d, r
	}

	// k = (limit - q0) / q1
	k := new(big.Int).Sub(limit, q0)
	k.Div(k, q1)

	bound1 := new(big.Rat).SetFrac(
		new(big.Int).Add(p0, new(big.Int).Mul(k, p1)),
		new(big.Int).Add(q0, new(big.Int).Mul(k, q1)),
	)
	bound2 := new(big.Rat).SetFrac(p1, q1)

	if distance(bound2, x).Cmp(distance(bound1, x)) <= 0 {
		return bound2
	}
	return bound1
}

// Split separates x into floor(x) and the fractional remainder in [0, 1).
func Split(x *big.Rat) (*big.Int, *big.Rat) {
	whole := new(big.Int).Div(x.Num(), x.Denom())
	frac := new(big.Rat).Sub(x, new(big.Rat).SetInt(whole))
	return whole, frac
}

// Floor returns floor(x) as an int64. Values outside int64 range saturate.
func Floor(x *big.Rat) int64 {
	whole, _ := Split(x)
	if !whole.IsInt64() {
		if whole.Sign() < 0 {
			return math.MinInt64
		}
		return math.MaxInt64
	}
	return whole.Int64()
}

func distance(a, b *big.Rat) *big.Rat {
	return new(big.Rat).Abs(new(big.Rat).Sub(a, b))
}
