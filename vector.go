package trajplan

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// vectorEpsilon guards against division by a near-zero length when
// normalizing a vector; distinct from Config.Epsilon, which governs
// planning-level velocity/length comparisons.
const vectorEpsilon = 1e-12

// AxisVectorLength returns the Euclidean length of a per-axis travel
// vector. Ported from the source's mp_get_axis_vector_length, generalized
// from a hard-coded six-axis sum of squares to gonum/floats over a
// runtime-configured axis count.
func AxisVectorLength(travel []float64) float64 {
	sumSq := floats.Dot(travel, travel)
	return math.Sqrt(sumSq)
}

// UnitVector returns travel normalized to length 1, along with the
// travel's length. A zero-length travel returns an all-zero unit vector.
func UnitVector(travel []float64) (unit []float64, length float64) {
	length = AxisVectorLength(travel)
	unit = make([]float64, len(travel))
	if length < vectorEpsilon {
		return unit, length
	}
	for i, t := range travel {
		unit[i] = t / length
	}
	return unit, length
}

// CopyVector copies src into a freshly allocated slice of the same length,
// ported from the source's mp_copy_vector; exported since absolute
// repositioning (SetPosition) is a documented external call.
func CopyVector(src []float64) []float64 {
	dst := make([]float64, len(src))
	copy(dst, src)
	return dst
}

// AngularJerkFactor is the cosine of half the angle between two unit
// direction vectors: 1.0 for a collinear continuation, 0.0 for an exact
// 180-degree reversal. Computed over all configured axes via
// gonum/floats.Dot rather than a hard-coded X/Y/Z/A/B/C sum, since the
// port's axis count is a runtime Config value.
func AngularJerkFactor(a, b []float64) float64 {
	dot := floats.Dot(a, b)
	if dot > 1 {
		dot = 1
	} else if dot < -1 {
		dot = -1
	}
	return math.Cos(math.Acos(dot) / 2)
}

// RegionLength returns the distance an S-curve region needs to move
// between velocities vi and vf under maximum jerk jm: L = |dV| * sqrt(|dV| / Jm).
func RegionLength(vi, vf, jm float64) float64 {
	dv := math.Abs(vf - vi)
	if dv < vectorEpsilon || jm < vectorEpsilon {
		return 0
	}
	return dv * math.Sqrt(dv/jm)
}

// RegionVelocity is the inverse of RegionLength: the cruise velocity
// reachable from v0 over a region of length l under maximum jerk jm:
// V = cbrt(Jm) * L^(2/3) + v0.
func RegionVelocity(v0, length, jm float64) float64 {
	if length <= 0 {
		return v0
	}
	return math.Cbrt(jm)*math.Pow(length, 2.0/3.0) + v0
}
