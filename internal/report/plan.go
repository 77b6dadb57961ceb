package report

import (
	"fmt"
	"strings"

	"goexp/domain/experiment"
)

// PlanSummary renders a sample-size plan as Markdown. Rate plans show
// percentages; magnitude plans show currency amounts and the assumed spread.
func PlanSummary(plan *experiment.SampleSizePlan, opts Options) string {
	var params []string
	var improves string

	if plan.Family == experiment.FamilyMagnitude {
		opts = magnitudeOptions(opts, "Revenue Test", "Average Order Value")
		cur := opts.Currency
		params = []string{
			fmt.Sprintf("### Test Parameters (%s)\n", opts.MetricName),
			fmt.Sprintf("- **Current mean:** %s", money(cur, plan.Baseline)),
			fmt.Sprintf("- **Standard deviation:** %s", money(cur, plan.StandardDeviation)),
			fmt.Sprintf("- **Minimum detectable lift:** %+.0f%%", plan.LiftPercent),
			fmt.Sprintf("- **Expected variant mean:** %s", money(cur, plan.Expected)),
		}
		improves = strings.ToLower(opts.MetricName)
	} else {
		opts = rateOptions(opts, "A/B Test")
		params = []string{
			"### Test Parameters\n",
			fmt.Sprintf("- **Current conversion rate:** %s", percent(plan.Baseline)),
			fmt.Sprintf("- **Minimum detectable lift:** %+.0f%%", plan.LiftPercent),
			fmt.Sprintf("- **Expected variant rate:** %s", percent(plan.Expected)),
		}
		improves = "conversion"
	}

	lines := []string{fmt.Sprintf("## %s Sample Size Plan\n", opts.TestName)}
	lines = append(lines, params...)
	lines = append(lines,
		fmt.Sprintf("- **Confidence level:** %s%%", level(plan.Confidence)),
		fmt.Sprintf("- **Statistical power:** %s%%\n", level(plan.Power)),
		"### Required Sample Size\n",
		fmt.Sprintf("- **Per variant:** %s visitors", count(plan.VisitorsPerVariant)),
	)
	if plan.NumVariants > 2 {
		lines = append(lines, fmt.Sprintf("- **Variants:** %d", plan.NumVariants))
	}
	lines = append(lines, fmt.Sprintf("- **Total:** %s visitors\n", count(plan.TotalVisitors)))

	if plan.TestDurationDays != nil {
		lines = append(lines, "### Estimated Duration\n", durationPhrase(*plan.TestDurationDays)+"\n")
	}

	lines = append(lines, "### What This Means\n",
		fmt.Sprintf("If the variant truly improves %s by %s%% or more, this test has a **%s%%** chance of detecting it. "+
			"There's a **%s%%** false positive risk (declaring a winner when there's no real difference).",
			improves, level(plan.LiftPercent), level(plan.Power), level(100-plan.Confidence)))
	return strings.Join(lines, "\n")
}
