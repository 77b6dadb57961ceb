package report

import (
	"fmt"
	"strings"

	"goexp/domain/experiment"
)

// RateSummary renders a two-arm rate result as Markdown.
func RateSummary(res *experiment.TestResults[experiment.RateArm], opts Options) string {
	opts = rateOptions(opts, "A/B Test")
	c, v := res.Control, res.Variant

	lines := []string{fmt.Sprintf("## %s Results\n", opts.TestName)}
	armLines := []string{
		fmt.Sprintf("- **Control conversion rate:** %s (%s / %s)", percent(res.ControlEstimate), count(c.Conversions), count(c.Visitors)),
		fmt.Sprintf("- **Variant conversion rate:** %s (%s / %s)", percent(res.VariantEstimate), count(v.Conversions), count(v.Visitors)),
	}

	if res.IsSignificant {
		lines = append(lines, "### Significant Result\n",
			fmt.Sprintf("**The test variant performed significantly %s than the control.**\n", direction(res.ControlEstimate, res.VariantEstimate)))
		lines = append(lines, armLines...)
		lines = append(lines,
			fmt.Sprintf("- **Relative lift:** %+.1f%% %s", res.LiftPercent, change(res.LiftPercent)),
			fmt.Sprintf("- **P-value:** %.4f", res.PValue),
			fmt.Sprintf("- **Confidence level:** %s%%\n", level(res.Confidence)),
			"### What This Means\n",
			significantExplanation(res.PValue, res.Confidence))
		if res.Winner == experiment.WinnerVariant {
			lines = append(lines, fmt.Sprintf("The variant shows a **%.1f%%** improvement over control.", abs(res.LiftPercent)))
		} else {
			lines = append(lines, fmt.Sprintf("The control outperforms the variant by **%.1f%%**.", abs(res.LiftPercent)))
		}
		return strings.Join(lines, "\n")
	}

	lines = append(lines, "### Not Yet Significant\n",
		"**No statistically significant difference detected between control and variant.**\n")
	lines = append(lines, armLines...)
	lines = append(lines,
		fmt.Sprintf("- **Observed lift:** %+.1f%%", res.LiftPercent),
		fmt.Sprintf("- **P-value:** %.4f", res.PValue),
		fmt.Sprintf("- **Required confidence:** %s%%\n", level(res.Confidence)),
		"### What This Means\n",
		notSignificantExplanation(res.PValue, res.Confidence, fmt.Sprintf("%.1f%%", abs(res.LiftPercent))))
	return strings.Join(lines, "\n")
}

// MagnitudeSummary renders a two-arm magnitude result as Markdown.
func MagnitudeSummary(res *experiment.TestResults[experiment.MagnitudeArm], opts Options) string {
	opts = magnitudeOptions(opts, "Revenue Test", "Average Order Value")
	metric := strings.ToLower(opts.MetricName)
	cur := opts.Currency
	c, v := res.Control, res.Variant

	lines := []string{fmt.Sprintf("## %s Results\n", opts.TestName)}
	armLines := []string{
		fmt.Sprintf("- **Control %s:** %s (n=%s, std=%s)", metric, money(cur, c.Mean), count(c.Visitors), money(cur, c.Std)),
		fmt.Sprintf("- **Variant %s:** %s (n=%s, std=%s)", metric, money(cur, v.Mean), count(v.Visitors), money(cur, v.Std)),
	}

	if res.IsSignificant {
		lines = append(lines, "### Significant Result\n",
			fmt.Sprintf("**The test variant's %s is significantly %s than control.**\n", metric, direction(res.ControlEstimate, res.VariantEstimate)))
		lines = append(lines, armLines...)
		lines = append(lines,
			fmt.Sprintf("- **Relative lift:** %+.1f%% %s", res.LiftPercent, change(res.LiftPercent)),
			fmt.Sprintf("- **Absolute difference:** %s", signedMoney(cur, res.LiftAbsolute)),
			fmt.Sprintf("- **P-value:** %.4f", res.PValue),
			fmt.Sprintf("- **Confidence level:** %s%%\n", level(res.Confidence)),
			"### What This Means\n",
			significantExplanation(res.PValue, res.Confidence))
		if res.Winner == experiment.WinnerVariant {
			lines = append(lines, fmt.Sprintf("The variant shows a **%s** (%.1f%%) improvement over control.", money(cur, abs(res.LiftAbsolute)), abs(res.LiftPercent)))
		} else {
			lines = append(lines, fmt.Sprintf("The control outperforms the variant by **%s** (%.1f%%).", money(cur, abs(res.LiftAbsolute)), abs(res.LiftPercent)))
		}
		return strings.Join(lines, "\n")
	}

	lines = append(lines, "### Not Yet Significant\n",
		"**No statistically significant difference detected between control and variant.**\n")
	lines = append(lines, armLines...)
	lines = append(lines,
		fmt.Sprintf("- **Observed lift:** %+.1f%% (%s)", res.LiftPercent, signedMoney(cur, res.LiftAbsolute)),
		fmt.Sprintf("- **P-value:** %.4f", res.PValue),
		fmt.Sprintf("- **Required confidence:** %s%%\n", level(res.Confidence)),
		"### What This Means\n",
		notSignificantExplanation(res.PValue, res.Confidence, money(cur, abs(res.LiftAbsolute))))
	return strings.Join(lines, "\n")
}

func significantExplanation(pValue, confidence float64) string {
	return fmt.Sprintf("With %s%% confidence, the difference is statistically significant. "+
		"The p-value of **%.4f** indicates there's only a **%.2f%%** chance this result is due to random variation.",
		level(confidence), pValue, pValue*100)
}

func notSignificantExplanation(pValue, confidence float64, observed string) string {
	return fmt.Sprintf("The p-value of **%.4f** is above the **%s** threshold needed for %s%% confidence. "+
		"The observed %s difference could be due to random chance. Continue running the test to gather more data.",
		pValue, threshold(confidence), level(confidence), observed)
}

// RateRecommendation is the short verdict attached to API responses.
func RateRecommendation(res *experiment.TestResults[experiment.RateArm]) string {
	return recommendation(res.IsSignificant, res.PValue, res.Confidence,
		direction(res.ControlEstimate, res.VariantEstimate), percent(res.VariantEstimate), percent(res.ControlEstimate))
}

// MagnitudeRecommendation is RateRecommendation for mean-valued metrics.
func MagnitudeRecommendation(res *experiment.TestResults[experiment.MagnitudeArm], currency string) string {
	if currency == "" {
		currency = "$"
	}
	return recommendation(res.IsSignificant, res.PValue, res.Confidence,
		direction(res.ControlEstimate, res.VariantEstimate), money(currency, res.VariantEstimate), money(currency, res.ControlEstimate))
}

func recommendation(significant bool, pValue, confidence float64, dir, variant, control string) string {
	if significant {
		return fmt.Sprintf("**Test variant is significantly %s than control** (p-value: %.4f).\n\n"+
			"_What this means:_ With %s%% confidence, the difference between variant (%s) and control (%s) "+
			"is statistically real, not due to random chance. A p-value of %.4f means there's only a "+
			"%.2f%% probability this result occurred by chance.",
			dir, pValue, level(confidence), variant, control, pValue, pValue*100)
	}
	return fmt.Sprintf("**No significant difference detected** (p-value: %.4f).\n\n"+
		"_What this means:_ The observed difference between variant (%s) and control (%s) could be due to "+
		"random chance. A p-value of %.4f is above the %s threshold needed for %s%% confidence. "+
		"Consider running the test longer to collect more data.",
		pValue, variant, control, pValue, threshold(confidence), level(confidence))
}
