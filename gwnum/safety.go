package gwnum

import "math"

// safetyTracker implements spec section "safety-bound tracker": every unnormalized
// add (spec 4.6's PRESERVE_S1/S2/S3/S4 options leaving an operand un-normalized so
// several results can be added before the next multiply) consumes some of the
// shape's roundoff-error headroom. The tracker counts unnormalized adds and converts
// the count to "equivalent extra bits" so MaxErr/roundoff checks can account for the
// accumulated slack the same way spec describes: EB = log2(num_adds+1).
type safetyTracker struct {
	unnormalizedAdds uint64
}

func (s *safetyTracker) recordUnnormalizedAdd() {
	s.unnormalizedAdds++
}

func (s *safetyTracker) reset() {
	s.unnormalizedAdds = 0
}

// extraBits returns the current equivalent-extra-bits cost of the outstanding
// unnormalized adds.
func (s *safetyTracker) extraBits() float64 {
	return math.Log2(float64(s.unnormalizedAdds) + 1)
}
