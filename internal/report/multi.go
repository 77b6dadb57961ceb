package report

import (
	"fmt"
	"sort"
	"strings"

	"goexp/domain/experiment"
)

type multiView struct {
	opts       Options
	omnibus    []string
	header     string
	rows       []string
	bestLabel  string
	liftPhrase func(p experiment.PairwiseComparison) string
}

// RateMultiSummary renders a k-arm rate result as Markdown.
func RateMultiSummary(res *experiment.MultiVariantResults[experiment.RateArm], opts Options) string {
	opts = rateOptions(opts, "Multi-Variant Test")

	arms := append([]experiment.RateArm(nil), res.Arms...)
	sort.SliceStable(arms, func(i, j int) bool { return arms[i].Rate() > arms[j].Rate() })

	rows := make([]string, 0, len(arms))
	for _, a := range arms {
		rows = append(rows, fmt.Sprintf("| %s | %s | %s | %s |",
			armLabel(a.Name, res.BestArm), count(a.Visitors), count(a.Conversions), percent(a.Rate())))
	}

	return renderMulti(res.IsSignificant, res.PValue, res.Confidence, res.Correction, res.BestArm, res.SignificantPairs(), multiView{
		opts: opts,
		omnibus: []string{
			"### Overall Test (Chi-Square)\n",
			fmt.Sprintf("- **Test statistic:** %.2f", res.Statistic),
			fmt.Sprintf("- **Degrees of freedom:** %d", res.DegreesOfFreedom),
		},
		header:    "| Variant | Visitors | Conversions | Rate |\n|---------|----------|-------------|------|",
		rows:      rows,
		bestLabel: "conversion rate",
		liftPhrase: func(p experiment.PairwiseComparison) string {
			return fmt.Sprintf("%.1f%% (p=%.4f)", abs(p.LiftPercent), p.PValueAdjusted)
		},
	})
}

// MagnitudeMultiSummary renders a k-arm magnitude result as Markdown.
func MagnitudeMultiSummary(res *experiment.MultiVariantResults[experiment.MagnitudeArm], opts Options) string {
	opts = magnitudeOptions(opts, "Multi-Variant Test", "Average Value")
	cur := opts.Currency

	arms := append([]experiment.MagnitudeArm(nil), res.Arms...)
	sort.SliceStable(arms, func(i, j int) bool { return arms[i].Mean > arms[j].Mean })

	rows := make([]string, 0, len(arms))
	for _, a := range arms {
		rows = append(rows, fmt.Sprintf("| %s | %s | %s | %s |",
			armLabel(a.Name, res.BestArm), count(a.Visitors), money(cur, a.Mean), money(cur, a.Std)))
	}

	return renderMulti(res.IsSignificant, res.PValue, res.Confidence, res.Correction, res.BestArm, res.SignificantPairs(), multiView{
		opts: opts,
		omnibus: []string{
			"### Overall Test (ANOVA)\n",
			fmt.Sprintf("- **F-statistic:** %.2f", res.Statistic),
			fmt.Sprintf("- **Degrees of freedom:** (%d, %d)", res.DegreesOfFreedom, res.DFWithin),
		},
		header:    "| Variant | Sample Size | Mean | Std Dev |\n|---------|-------------|------|---------|",
		rows:      rows,
		bestLabel: strings.ToLower(opts.MetricName),
		liftPhrase: func(p experiment.PairwiseComparison) string {
			return fmt.Sprintf("%s (%.1f%%, p=%.4f)", money(cur, abs(p.LiftAbsolute)), abs(p.LiftPercent), p.PValueAdjusted)
		},
	})
}

func renderMulti(significant bool, pValue, confidence float64, correction experiment.Correction, best string, sig []experiment.PairwiseComparison, v multiView) string {
	lines := []string{fmt.Sprintf("## %s Results\n", v.opts.TestName)}
	if significant {
		lines = append(lines, "### Significant Differences Detected\n",
			"**At least one variant performs differently from the others.**\n")
	} else {
		lines = append(lines, "### No Significant Differences\n",
			"**The observed differences could be due to random chance.**\n")
	}

	lines = append(lines, fmt.Sprintf("### Variant Performance (%s)\n", v.opts.MetricName), v.header)
	lines = append(lines, v.rows...)
	lines = append(lines, "")

	lines = append(lines, v.omnibus...)
	lines = append(lines,
		fmt.Sprintf("- **P-value:** %.4f", pValue),
		fmt.Sprintf("- **Confidence level:** %s%%\n", level(confidence)))

	if len(sig) > 0 {
		lines = append(lines, "### Significant Pairwise Differences\n")
		for _, p := range sig {
			winner, loser := p.ArmB, p.ArmA
			if p.LiftPercent <= 0 {
				winner, loser = p.ArmA, p.ArmB
			}
			lines = append(lines, fmt.Sprintf("- **%s** beats **%s** by %s", winner, loser, v.liftPhrase(p)))
		}
		lines = append(lines, "")
	}

	lines = append(lines, "### What This Means\n")
	switch {
	case significant && len(sig) > 0:
		lines = append(lines, fmt.Sprintf("With %s%% confidence, there are real differences between your variants. "+
			"**%s** has the highest %s. The pairwise comparisons above show which specific differences are statistically significant%s.",
			level(confidence), best, v.bestLabel, correctionNote(correction)))
	case significant:
		lines = append(lines, fmt.Sprintf("With %s%% confidence, there are real differences between your variants. "+
			"**%s** has the highest %s. However, no individual pairwise comparison reached significance%s.",
			level(confidence), best, v.bestLabel, correctionNote(correction)))
	default:
		lines = append(lines, fmt.Sprintf("The p-value of **%.4f** is above the **%s** threshold. "+
			"The differences you see could be due to random variation. Continue running the test to gather more data.",
			pValue, threshold(confidence)))
	}
	return strings.Join(lines, "\n")
}

func correctionNote(c experiment.Correction) string {
	if c == experiment.CorrectionBonferroni {
		return " (adjusted for multiple comparisons using Bonferroni correction)"
	}
	return ""
}

func armLabel(name, best string) string {
	if name == best {
		return name + " (best)"
	}
	return name
}

// RateMultiRecommendation is the short verdict attached to multi-arm API responses.
func RateMultiRecommendation(res *experiment.MultiVariantResults[experiment.RateArm]) string {
	bestValue := ""
	for _, a := range res.Arms {
		if a.Name == res.BestArm {
			bestValue = percent(a.Rate())
		}
	}
	return multiRecommendation(res.IsSignificant, res.PValue, res.Confidence, res.BestArm, "conversion rate", bestValue, res.Pairwise)
}

// MagnitudeMultiRecommendation is RateMultiRecommendation for mean-valued metrics.
func MagnitudeMultiRecommendation(res *experiment.MultiVariantResults[experiment.MagnitudeArm], currency string) string {
	if currency == "" {
		currency = "$"
	}
	bestValue := ""
	for _, a := range res.Arms {
		if a.Name == res.BestArm {
			bestValue = money(currency, a.Mean)
		}
	}
	return multiRecommendation(res.IsSignificant, res.PValue, res.Confidence, res.BestArm, "mean value", bestValue, res.Pairwise)
}

func multiRecommendation(significant bool, pValue, confidence float64, best, metric, bestValue string, pairs []experiment.PairwiseComparison) string {
	if !significant {
		return fmt.Sprintf("**No significant differences detected across variants** (p-value: %.4f).\n\n"+
			"_What this means:_ The observed differences between variants could be due to random chance. "+
			"A p-value of %.4f is above the %s threshold needed for %s%% confidence. "+
			"Consider running the test longer to collect more data.",
			pValue, pValue, threshold(confidence), level(confidence))
	}

	wins := 0
	for _, p := range pairs {
		if !p.IsSignificant {
			continue
		}
		if (p.ArmB == best && p.LiftPercent > 0) || (p.ArmA == best && p.LiftPercent < 0) {
			wins++
		}
	}
	tail := "Check pairwise comparisons for details."
	if wins > 0 {
		tail = fmt.Sprintf("It significantly outperforms %d other variant(s) in pairwise comparisons.", wins)
	}
	return fmt.Sprintf("**Significant differences detected across variants** (p-value: %.4f).\n\n"+
		"_What this means:_ With %s%% confidence, at least one variant performs differently from the others. "+
		"**%s** has the highest %s (%s). %s",
		pValue, level(confidence), best, metric, bestValue, tail)
}
