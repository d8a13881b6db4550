// Package scoring derives a domain's health score from its accumulated
// error signals.
package scoring

// Per-signal weights. A signal contributes its weight when the error is
// absent. The weights intentionally do not sum to 1.0: a 503 acts only as a
// hard override with no additive term, so a clean domain scores 0.7.
const (
	Weight404     = 0.4
	WeightWarning = 0.3
)

// Flags is the narrow slice of domain state scoring reads.
type Flags struct {
	Error404 bool
	Error503 bool
	Warning  bool
}

// Compute returns the weighted health score for a set of error flags. Pure
// and total; the caller persists the result. A 503 forces the score to 0
// regardless of the other signals.
func Compute(f Flags) float64 {
	if f.Error503 {
		return 0
	}

	score := 0.0
	if !f.Error404 {
		score += Weight404
	}
	if !f.Warning {
		score += WeightWarning
	}
	return score
}
