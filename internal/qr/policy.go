package qr

import "fmt"

// Policy picks the payload among successfully decoded grids, given in
// detection order. It is never called with an empty slice.
type Policy func(candidates []Candidate) Candidate

// LastSuccess returns the last decoded grid
func LastSuccess(candidates []Candidate) Candidate {
	return candidates[len(candidates)-1]
}

// FirstSuccess returns the first decoded grid
func FirstSuccess(candidates []Candidate) Candidate {
	return candidates[0]
}

// HighestConfidence returns the grid that needed the fewest error
// corrections, preferring the earlier one on ties
func HighestConfidence(candidates []Candidate) Candidate {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.ErrorsCorrected < best.ErrorsCorrected {
			best = c
		}
	}
	return best
}

// Policy names accepted by ParsePolicy
const (
	PolicyLast       = "last"
	PolicyFirst      = "first"
	PolicyConfidence = "confidence"
)

// ParsePolicy maps a configuration name to a Policy
func ParsePolicy(name string) (Policy, error) {
	switch name {
	case "", PolicyLast:
		return LastSuccess, nil
	case PolicyFirst:
		return FirstSuccess, nil
	case PolicyConfidence:
		return HighestConfidence, nil
	default:
		return nil, fmt.Errorf("unknown qr policy %q (valid: %s, %s, %s)", name, PolicyLast, PolicyFirst, PolicyConfidence)
	}
}
