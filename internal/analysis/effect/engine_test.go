package effect

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goexp/domain/core"
	"goexp/domain/experiment"
)

func controlArm(visitors, conversions int) experiment.RateArm {
	return experiment.RateArm{Name: "control", Visitors: visitors, Conversions: conversions}
}

func variantArm(visitors, conversions int) experiment.RateArm {
	return experiment.RateArm{Name: "variant", Visitors: visitors, Conversions: conversions}
}

func TestAnalyzeRates_TenPercentLiftAtTenThousand(t *testing.T) {
	res, err := AnalyzeRates(controlArm(10000, 500), variantArm(10000, 550), 95)
	require.NoError(t, err)

	assert.InDelta(t, 0.05, res.ControlEstimate, 1e-12)
	assert.InDelta(t, 0.055, res.VariantEstimate, 1e-12)
	assert.InDelta(t, 10.0, res.LiftPercent, 1e-9)
	assert.InDelta(t, 0.005, res.LiftAbsolute, 1e-12)
	assert.InDelta(t, 1.585206, res.Statistic, 1e-5)

	// The pooled z-test puts this at p ≈ 0.113: a 10% lift on a 5% base is not
	// detectable with 10k per arm (the planner asks for ~31k).
	assert.InDelta(t, 0.1129195, res.PValue, 1e-5)
	assert.False(t, res.IsSignificant)
	assert.Equal(t, experiment.WinnerNone, res.Winner)
	assert.Equal(t, "no winner yet", string(res.Winner))

	// Interval uses the unpooled standard error.
	assert.InDelta(t, -0.00118166, res.CILower, 1e-7)
	assert.InDelta(t, 0.01118166, res.CIUpper, 1e-7)
	assert.Equal(t, float64(0), res.DegreesOfFreedom)
}

func TestAnalyzeRates_SignificantVariant(t *testing.T) {
	res, err := AnalyzeRates(controlArm(10000, 500), variantArm(10000, 600), 95)
	require.NoError(t, err)

	assert.InDelta(t, 3.101614, res.Statistic, 1e-5)
	assert.InDelta(t, 0.00192469, res.PValue, 1e-6)
	assert.True(t, res.IsSignificant)
	assert.Equal(t, experiment.WinnerVariant, res.Winner)
	assert.InDelta(t, 20.0, res.LiftPercent, 1e-9)
	assert.InDelta(t, 0.00368235, res.CILower, 1e-7)
	assert.InDelta(t, 0.01631765, res.CIUpper, 1e-7)
}

func TestAnalyzeRates_SignificantControl(t *testing.T) {
	res, err := AnalyzeRates(controlArm(10000, 600), variantArm(10000, 500), 95)
	require.NoError(t, err)

	assert.True(t, res.IsSignificant)
	assert.Equal(t, experiment.WinnerControl, res.Winner)
	assert.Less(t, res.LiftPercent, 0.0)
}

func TestAnalyzeRates_PooledAndUnpooledErrorsDiffer(t *testing.T) {
	a := experiment.RateArm{Name: "a", Visitors: 1000, Conversions: 100}
	b := experiment.RateArm{Name: "b", Visitors: 4000, Conversions: 200}

	f := RateFamily{}
	assert.NotEqual(t, f.TestError(a, b), f.IntervalError(a, b))
}

func TestAnalyzeRates_DegenerateZeroStandardError(t *testing.T) {
	for _, tc := range []struct {
		name string
		c1   int
		c2   int
	}{
		{"both zero", 0, 0},
		{"both all", 1000, 1000},
	} {
		t.Run(tc.name, func(t *testing.T) {
			res, err := AnalyzeRates(controlArm(1000, tc.c1), variantArm(1000, tc.c2), 95)
			require.NoError(t, err)

			assert.Equal(t, 0.0, res.Statistic)
			assert.Equal(t, 1.0, res.PValue)
			assert.False(t, res.IsSignificant)
			assert.Equal(t, experiment.WinnerNone, res.Winner)
			assert.Equal(t, 0.0, res.CILower)
			assert.Equal(t, 0.0, res.CIUpper)
		})
	}
}

func TestAnalyzeRates_ZeroBaselineLiftIsZero(t *testing.T) {
	res, err := AnalyzeRates(controlArm(1000, 0), variantArm(1000, 30), 95)
	require.NoError(t, err)

	assert.Equal(t, 0.0, res.LiftPercent)
	assert.InDelta(t, 0.03, res.LiftAbsolute, 1e-12)
	assert.True(t, res.IsSignificant)
}

func TestAnalyzeRates_UnnamedArmsAreLabeled(t *testing.T) {
	res, err := AnalyzeRates(experiment.RateArm{Visitors: 1000, Conversions: 50}, experiment.RateArm{Visitors: 1000, Conversions: 60}, 95)
	require.NoError(t, err)
	assert.Equal(t, "control", res.Control.Name)
	assert.Equal(t, "variant", res.Variant.Name)
}

func TestAnalyzeRates_Validation(t *testing.T) {
	_, err := AnalyzeRates(controlArm(100, 101), variantArm(100, 10), 95)
	assert.ErrorIs(t, err, core.ErrConversionsExceedVisitors)
	assert.Contains(t, err.Error(), "'control'")

	_, err = AnalyzeRates(controlArm(100, 10), variantArm(0, 0), 95)
	assert.ErrorIs(t, err, core.ErrNonPositiveVisitors)

	_, err = AnalyzeRates(controlArm(100, 10), variantArm(100, -1), 95)
	assert.ErrorIs(t, err, core.ErrNegativeConversions)

	_, err = AnalyzeRates(controlArm(100, 10), variantArm(100, 10), 100)
	assert.ErrorIs(t, err, core.ErrInvalidConfidence)
}

func TestAnalyzeMagnitudes_FivePointLift(t *testing.T) {
	res, err := AnalyzeMagnitudes(
		experiment.MagnitudeArm{Visitors: 500, Mean: 50, Std: 15},
		experiment.MagnitudeArm{Visitors: 500, Mean: 55, Std: 15},
		95,
	)
	require.NoError(t, err)

	assert.True(t, res.IsSignificant)
	assert.Equal(t, experiment.WinnerVariant, res.Winner)
	assert.InEpsilon(t, 10.0, res.LiftPercent, 0.1)
	assert.InDelta(t, 5.270463, res.Statistic, 1e-5)
	assert.InDelta(t, 998.0, res.DegreesOfFreedom, 1e-9)
	assert.Less(t, res.PValue, 1e-6)
	assert.InDelta(t, 3.138357, res.CILower, 1e-4)
	assert.InDelta(t, 6.861643, res.CIUpper, 1e-4)
	assert.Equal(t, "control", res.Control.Name)
	assert.Equal(t, "variant", res.Variant.Name)
}

func TestAnalyzeMagnitudes_NotSignificantAtSmallN(t *testing.T) {
	res, err := AnalyzeMagnitudes(
		experiment.MagnitudeArm{Visitors: 50, Mean: 50, Std: 25},
		experiment.MagnitudeArm{Visitors: 50, Mean: 51, Std: 25},
		95,
	)
	require.NoError(t, err)

	assert.False(t, res.IsSignificant)
	assert.Equal(t, experiment.WinnerNone, res.Winner)
	assert.InDelta(t, 0.2, res.Statistic, 1e-9)
	assert.InDelta(t, 98.0, res.DegreesOfFreedom, 1e-9)
	assert.InDelta(t, 0.841895, res.PValue, 1e-5)
}

func TestAnalyzeMagnitudes_UnequalVariancesUseSatterthwaite(t *testing.T) {
	a := experiment.MagnitudeArm{Name: "a", Visitors: 30, Mean: 10, Std: 2}
	b := experiment.MagnitudeArm{Name: "b", Visitors: 60, Mean: 11, Std: 6}

	df := MagnitudeFamily{}.DegreesOfFreedom(a, b)
	assert.Less(t, df, float64(30+60-2))
	assert.Greater(t, df, float64(29))
}

func TestAnalyzeMagnitudes_DegenerateZeroSpread(t *testing.T) {
	res, err := AnalyzeMagnitudes(
		experiment.MagnitudeArm{Visitors: 100, Mean: 10, Std: 0},
		experiment.MagnitudeArm{Visitors: 100, Mean: 10, Std: 0},
		95,
	)
	require.NoError(t, err)

	assert.Equal(t, 0.0, res.Statistic)
	assert.Equal(t, 1.0, res.PValue)
	assert.Equal(t, 198.0, res.DegreesOfFreedom)
	assert.Equal(t, experiment.WinnerNone, res.Winner)
	assert.Equal(t, 0.0, res.CILower)
	assert.Equal(t, 0.0, res.CIUpper)
}

func TestAnalyzeMagnitudes_Validation(t *testing.T) {
	good := experiment.MagnitudeArm{Visitors: 10, Mean: 1, Std: 1}

	_, err := AnalyzeMagnitudes(experiment.MagnitudeArm{Visitors: 0, Mean: 1, Std: 1}, good, 95)
	assert.ErrorIs(t, err, core.ErrNonPositiveVisitors)

	_, err = AnalyzeMagnitudes(good, experiment.MagnitudeArm{Visitors: 10, Mean: 1, Std: -1}, 95)
	assert.ErrorIs(t, err, core.ErrNegativeStd)

	_, err = AnalyzeMagnitudes(good, experiment.MagnitudeArm{Visitors: 1, Mean: 1, Std: 1}, 95)
	assert.ErrorIs(t, err, core.ErrInsufficientSamples)

	res, err := AnalyzeMagnitudes(experiment.MagnitudeArm{Name: "control", Visitors: 100, Mean: math.NaN(), Std: 5}, experiment.MagnitudeArm{Name: "variant", Visitors: 100, Mean: 50, Std: 5}, 95)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, core.ErrNonFiniteValue)
	assert.Contains(t, err.Error(), "'control'")

	_, err = AnalyzeMagnitudes(good, experiment.MagnitudeArm{Visitors: 10, Mean: 1, Std: math.Inf(1)}, 95)
	assert.ErrorIs(t, err, core.ErrNonFiniteValue)

	_, err = AnalyzeMagnitudesMulti([]experiment.MagnitudeArm{good, good, {Name: "c", Visitors: 10, Mean: math.Inf(1), Std: 1}}, 95, experiment.CorrectionBonferroni)
	assert.ErrorIs(t, err, core.ErrNonFiniteValue)
}

func TestAnalyzeMagnitudesMulti_ThreeArms(t *testing.T) {
	arms := []experiment.MagnitudeArm{
		{Name: "control", Visitors: 500, Mean: 50, Std: 15},
		{Name: "a", Visitors: 500, Mean: 52, Std: 15},
		{Name: "b", Visitors: 500, Mean: 55, Std: 15},
	}
	res, err := AnalyzeMagnitudesMulti(arms, 95, experiment.CorrectionBonferroni)
	require.NoError(t, err)

	assert.Equal(t, "b", res.BestArm)
	assert.Equal(t, "control", res.WorstArm)
	require.Len(t, res.Pairwise, 3)
	assert.Equal(t, [2]string{"control", "a"}, [2]string{res.Pairwise[0].ArmA, res.Pairwise[0].ArmB})
	assert.Equal(t, [2]string{"control", "b"}, [2]string{res.Pairwise[1].ArmA, res.Pairwise[1].ArmB})
	assert.Equal(t, [2]string{"a", "b"}, [2]string{res.Pairwise[2].ArmA, res.Pairwise[2].ArmB})

	assert.InDelta(t, 14.074074, res.Statistic, 1e-5)
	assert.Equal(t, 2, res.DegreesOfFreedom)
	assert.Equal(t, 1497, res.DFWithin)
	assert.InDelta(t, 8.7996e-7, res.PValue, 1e-9)
	assert.True(t, res.IsSignificant)

	for _, p := range res.Pairwise {
		assert.GreaterOrEqual(t, p.PValueAdjusted, p.PValue)
		assert.Equal(t, p.PValueAdjusted < 0.05, p.IsSignificant)
	}
}

func TestAnalyzeMagnitudesMulti_DegenerateANOVA(t *testing.T) {
	arms := []experiment.MagnitudeArm{
		{Name: "x", Visitors: 10, Mean: 5, Std: 0},
		{Name: "y", Visitors: 10, Mean: 7, Std: 0},
	}
	res, err := AnalyzeMagnitudesMulti(arms, 95, experiment.CorrectionNone)
	require.NoError(t, err)

	assert.Equal(t, 0.0, res.Statistic)
	assert.Equal(t, 1.0, res.PValue)
	assert.False(t, res.IsSignificant)

	identical := []experiment.MagnitudeArm{
		{Name: "x", Visitors: 10, Mean: 5, Std: 2},
		{Name: "y", Visitors: 10, Mean: 5, Std: 2},
	}
	res, err = AnalyzeMagnitudesMulti(identical, 95, experiment.CorrectionNone)
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Statistic)
	assert.Equal(t, 1.0, res.PValue)
}

func TestAnalyzeRatesMulti_ThreeArms(t *testing.T) {
	arms := []experiment.RateArm{
		{Name: "control", Visitors: 10000, Conversions: 500},
		{Name: "a", Visitors: 10000, Conversions: 550},
		{Name: "b", Visitors: 10000, Conversions: 600},
	}
	res, err := AnalyzeRatesMulti(arms, 95, experiment.CorrectionBonferroni)
	require.NoError(t, err)

	assert.InDelta(t, 9.62001, res.Statistic, 1e-4)
	assert.Equal(t, 2, res.DegreesOfFreedom)
	assert.InDelta(t, 0.00814782, res.PValue, 1e-6)
	assert.True(t, res.IsSignificant)
	assert.Equal(t, "b", res.BestArm)
	assert.Equal(t, "control", res.WorstArm)
	require.Len(t, res.Pairwise, 3)

	controlVsB := res.Pairwise[1]
	assert.InDelta(t, 0.00192469, controlVsB.PValue, 1e-6)
	assert.InDelta(t, 3*controlVsB.PValue, controlVsB.PValueAdjusted, 1e-12)
	assert.True(t, controlVsB.IsSignificant)

	controlVsA := res.Pairwise[0]
	assert.False(t, controlVsA.IsSignificant)
}

func TestAnalyzeRatesMulti_TwoArmsUsesYates(t *testing.T) {
	arms := []experiment.RateArm{
		{Name: "control", Visitors: 10000, Conversions: 500},
		{Name: "variant", Visitors: 10000, Conversions: 550},
	}
	res, err := AnalyzeRatesMulti(arms, 95, experiment.CorrectionBonferroni)
	require.NoError(t, err)

	assert.InDelta(t, 2.4133685, res.Statistic, 1e-6)
	assert.Equal(t, 1, res.DegreesOfFreedom)
	assert.InDelta(t, 0.1203032, res.PValue, 1e-6)

	// One pair: bonferroni with C = 1 leaves the p-value unchanged.
	require.Len(t, res.Pairwise, 1)
	assert.Equal(t, res.Pairwise[0].PValue, res.Pairwise[0].PValueAdjusted)
}

func TestAnalyzeRatesMulti_NoConversionsAnywhere(t *testing.T) {
	arms := []experiment.RateArm{
		{Name: "a", Visitors: 100},
		{Name: "b", Visitors: 200},
		{Name: "c", Visitors: 300},
	}
	res, err := AnalyzeRatesMulti(arms, 95, experiment.CorrectionBonferroni)
	require.NoError(t, err)

	assert.Equal(t, 0.0, res.Statistic)
	assert.Equal(t, 1.0, res.PValue)
	assert.Equal(t, 2, res.DegreesOfFreedom)
	// All tied: first encountered is best, last encountered is worst.
	assert.Equal(t, "a", res.BestArm)
	assert.Equal(t, "c", res.WorstArm)
}

func TestAnalyzeMulti_OmnibusAndPairwiseMayDisagree(t *testing.T) {
	arms := []experiment.RateArm{
		{Name: "control", Visitors: 10000, Conversions: 500},
		{Name: "a", Visitors: 10000, Conversions: 500},
		{Name: "b", Visitors: 10000, Conversions: 500},
		{Name: "c", Visitors: 10000, Conversions: 570},
		{Name: "d", Visitors: 10000, Conversions: 570},
		{Name: "e", Visitors: 10000, Conversions: 570},
	}
	res, err := AnalyzeRatesMulti(arms, 95, experiment.CorrectionBonferroni)
	require.NoError(t, err)

	assert.InDelta(t, 14.514863, res.Statistic, 1e-4)
	assert.Equal(t, 5, res.DegreesOfFreedom)
	assert.InDelta(t, 0.0126494, res.PValue, 1e-5)
	assert.True(t, res.IsSignificant)

	require.Len(t, res.Pairwise, 15)
	assert.Empty(t, res.SignificantPairs())
	assert.Equal(t, "c", res.BestArm)
	assert.Equal(t, "b", res.WorstArm)

	uncorrected, err := AnalyzeRatesMulti(arms, 95, experiment.CorrectionNone)
	require.NoError(t, err)
	assert.NotEmpty(t, uncorrected.SignificantPairs())
}

func TestAnalyzeMulti_Validation(t *testing.T) {
	_, err := AnalyzeRatesMulti([]experiment.RateArm{{Name: "solo", Visitors: 10}}, 95, experiment.CorrectionNone)
	assert.ErrorIs(t, err, core.ErrTooFewVariants)
	assert.True(t, core.IsDegenerateConfig(err))

	_, err = AnalyzeRatesMulti([]experiment.RateArm{
		{Name: "ok", Visitors: 10, Conversions: 1},
		{Name: "broken", Visitors: 10, Conversions: 11},
	}, 95, experiment.CorrectionNone)
	assert.ErrorIs(t, err, core.ErrConversionsExceedVisitors)
	assert.Contains(t, err.Error(), "'broken'")

	_, err = AnalyzeMagnitudesMulti([]experiment.MagnitudeArm{
		{Name: "a", Visitors: 10, Mean: 1, Std: 1},
		{Name: "b", Visitors: 10, Mean: 1, Std: 1},
	}, 95, experiment.Correction("holm"))
	assert.ErrorIs(t, err, core.ErrUnknownCorrection)
}

func TestAnalyze_Idempotent(t *testing.T) {
	arms := []experiment.MagnitudeArm{
		{Name: "control", Visitors: 500, Mean: 50, Std: 15},
		{Name: "a", Visitors: 450, Mean: 52, Std: 17},
		{Name: "b", Visitors: 520, Mean: 55, Std: 13},
	}
	first, err := AnalyzeMagnitudesMulti(arms, 95, experiment.CorrectionBonferroni)
	require.NoError(t, err)
	second, err := AnalyzeMagnitudesMulti(arms, 95, experiment.CorrectionBonferroni)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	r1, err := AnalyzeRates(controlArm(1234, 56), variantArm(1300, 71), 90)
	require.NoError(t, err)
	r2, err := AnalyzeRates(controlArm(1234, 56), variantArm(1300, 71), 90)
	require.NoError(t, err)
	assert.Equal(t, r1, r2)
}

func TestAnalyzeMulti_DoesNotAliasInput(t *testing.T) {
	arms := []experiment.RateArm{
		{Name: "a", Visitors: 100, Conversions: 10},
		{Name: "b", Visitors: 100, Conversions: 20},
	}
	res, err := AnalyzeRatesMulti(arms, 95, experiment.CorrectionNone)
	require.NoError(t, err)

	arms[0].Name = "mutated"
	assert.Equal(t, "a", res.Arms[0].Name)
}
