package trajplan

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnitVectorAndLength(t *testing.T) {
	unit, length := UnitVector([]float64{3, 4, 0})
	assert.InDelta(t, 5.0, length, 1e-9)
	assert.InDelta(t, 0.6, unit[0], 1e-9)
	assert.InDelta(t, 0.8, unit[1], 1e-9)
	assert.InDelta(t, 0.0, unit[2], 1e-9)
}

func TestUnitVectorZeroLength(t *testing.T) {
	unit, length := UnitVector([]float64{0, 0, 0})
	assert.Zero(t, length)
	assert.Equal(t, []float64{0, 0, 0}, unit)
}

func TestCopyVectorIndependence(t *testing.T) {
	src := []float64{1, 2, 3}
	dst := CopyVector(src)
	dst[0] = 99
	assert.Equal(t, 1.0, src[0])
}

func TestAngularJerkFactorBounds(t *testing.T) {
	collinear := AngularJerkFactor([]float64{1, 0, 0}, []float64{1, 0, 0})
	assert.InDelta(t, 1.0, collinear, 1e-9)

	reversal := AngularJerkFactor([]float64{1, 0, 0}, []float64{-1, 0, 0})
	assert.InDelta(t, 0.0, reversal, 1e-9)

	rightAngle := AngularJerkFactor([]float64{1, 0, 0}, []float64{0, 1, 0})
	assert.InDelta(t, math.Cos(math.Pi/4), rightAngle, 1e-9)

	for _, ajf := range []float64{collinear, reversal, rightAngle} {
		assert.GreaterOrEqual(t, ajf, 0.0)
		assert.LessOrEqual(t, ajf, 1.0)
	}
}

func TestRegionLengthVelocityRoundTrip(t *testing.T) {
	const jm = 50_000_000.0
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		a := r.Float64() * 1e6
		b := r.Float64() * 1e6
		lo, hi := a, b
		if lo > hi {
			lo, hi = hi, lo
		}
		l := RegionLength(lo, hi, jm)
		got := RegionVelocity(lo, l, jm)
		assert.InDelta(t, hi, got, 1e-6*(math.Abs(hi)+1))
	}
}

func TestRegionLengthZeroDelta(t *testing.T) {
	assert.Zero(t, RegionLength(100, 100, 50_000_000))
}
