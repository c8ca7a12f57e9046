package core

// RadicalInverse mirrors the base-b digits of i around the radix point,
// giving the i-th element of the van der Corput sequence in [0, 1)
func RadicalInverse(i, base int) float64 {
	inv := 1.0 / float64(base)
	f := inv
	result := 0.0
	for i > 0 {
		result += float64(i%base) * f
		i /= base
		f *= inv
	}
	return result
}

// Halton2D returns the i-th point of the Halton(2,3) sequence in [0,1)^2
func Halton2D(i int) Vec2 {
	return Vec2{X: RadicalInverse(i, 2), Y: RadicalInverse(i, 3)}
}

// SubPixelOffset returns a deterministic offset inside the unit pixel for the
// given sample index. Sample 0 is always the pixel center.
func SubPixelOffset(sample int) Vec2 {
	if sample <= 0 {
		return Vec2{0.5, 0.5}
	}
	return Halton2D(sample)
}
