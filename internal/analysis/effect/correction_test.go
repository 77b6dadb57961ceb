package effect

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"goexp/domain/experiment"
)

func TestPairCount(t *testing.T) {
	assert.Equal(t, 0, PairCount(1))
	assert.Equal(t, 1, PairCount(2))
	assert.Equal(t, 3, PairCount(3))
	assert.Equal(t, 45, PairCount(10))
}

func TestBonferroni(t *testing.T) {
	assert.InDelta(t, 0.03, Bonferroni(0.01, 3), 1e-12)
	assert.Equal(t, 1.0, Bonferroni(0.5, 3))
	assert.Equal(t, 0.0, Bonferroni(0, 10))
}

func TestApplyCorrection(t *testing.T) {
	pairs := []experiment.PairwiseComparison{
		{ArmA: "a", ArmB: "b", PValue: 0.01, PValueAdjusted: 0.01, IsSignificant: true},
		{ArmA: "a", ArmB: "c", PValue: 0.02, PValueAdjusted: 0.02, IsSignificant: true},
		{ArmA: "b", ArmB: "c", PValue: 0.4, PValueAdjusted: 0.4},
	}

	corrected := ApplyCorrection(pairs, experiment.CorrectionBonferroni, 95)
	assert.InDelta(t, 0.03, corrected[0].PValueAdjusted, 1e-12)
	assert.True(t, corrected[0].IsSignificant)
	assert.InDelta(t, 0.06, corrected[1].PValueAdjusted, 1e-12)
	assert.False(t, corrected[1].IsSignificant, "significance is judged on the adjusted value")
	assert.Equal(t, 1.0, corrected[2].PValueAdjusted)

	// input left untouched
	assert.Equal(t, 0.02, pairs[1].PValueAdjusted)
	assert.True(t, pairs[1].IsSignificant)

	none := ApplyCorrection(pairs, experiment.CorrectionNone, 95)
	for i := range none {
		assert.Equal(t, none[i].PValue, none[i].PValueAdjusted)
	}
	assert.True(t, none[1].IsSignificant)
}
