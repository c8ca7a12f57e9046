package geometry

import (
	"fmt"

	"github.com/df07/go-progressive-raymarcher/pkg/core"
)

// Combine merges a running result A with a new shape B.
//
// OperationDefault keeps the nearer surface; exact ties keep A, so the first
// shape in list order wins. OperationBlend is the polynomial smooth minimum
// with radius k, which rounds the join and may undershoot min(dstA, dstB).
// k must be positive for blends; that is enforced when shapes are created.
func Combine(dstA float64, colorA core.Vec3, dstB float64, colorB core.Vec3, op Operation, k float64) (core.Vec3, float64) {
	switch op {
	case OperationDefault:
		if dstB < dstA {
			return colorB, dstB
		}
		return colorA, dstA
	case OperationBlend:
		h := core.Saturate(0.5 + 0.5*(dstB-dstA)/k)
		dst := core.Lerp(dstB, dstA, h) - k*h*(1-h)
		return colorB.Lerp(colorA, h), dst
	default:
		panic(fmt.Sprintf("geometry: combine with invalid operation %d", uint8(op)))
	}
}
