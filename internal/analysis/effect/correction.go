package effect

import (
	"math"

	"goexp/domain/experiment"
)

// PairCount is the number of unordered pairs among k arms.
func PairCount(k int) int {
	if k < 2 {
		return 0
	}
	return k * (k - 1) / 2
}

// Bonferroni scales a raw p-value by the comparison count, capped at 1.
func Bonferroni(pValue float64, comparisons int) float64 {
	return math.Min(1, pValue*float64(comparisons))
}

// ApplyCorrection returns a corrected copy of pairs. Under bonferroni every
// pair is scaled by the full pair count C(k,2), derived from the number of
// pairs supplied, and significance is re-evaluated as p_adjusted < alpha.
// Under none, p_adjusted equals p_value. The omnibus statistic is never corrected.
func ApplyCorrection(pairs []experiment.PairwiseComparison, correction experiment.Correction, confidence float64) []experiment.PairwiseComparison {
	alpha := alphaFor(confidence)
	out := make([]experiment.PairwiseComparison, len(pairs))
	for i, p := range pairs {
		switch correction {
		case experiment.CorrectionBonferroni:
			p.PValueAdjusted = Bonferroni(p.PValue, len(pairs))
		default:
			p.PValueAdjusted = p.PValue
		}
		p.IsSignificant = p.PValueAdjusted < alpha
		out[i] = p
	}
	return out
}
