package excel

import "goexp/domain/experiment"

// RawRowData represents a row of raw sheet data keyed by normalized header
type RawRowData map[string]string

// SheetData is one sheet (or a whole CSV file) as read from disk
type SheetData struct {
	Name    string       // Sheet name, or the file base name for CSV
	Headers []string     // Normalized column headers
	Rows    []RawRowData // Data rows
}

// SheetKind says how the rows of a sheet describe arms
type SheetKind string

const (
	KindRateSummary      SheetKind = "rate_summary"      // one row per arm: visitors, conversions
	KindMagnitudeSummary SheetKind = "magnitude_summary" // one row per arm: visitors, mean, std
	KindRateEvents       SheetKind = "rate_events"       // one row per visitor: converted flag
	KindMagnitudeValues  SheetKind = "magnitude_values"  // one row per visitor: observed value
)

// Family reports which engine the sheet's arms belong to
func (k SheetKind) Family() experiment.MetricFamily {
	switch k {
	case KindMagnitudeSummary, KindMagnitudeValues:
		return experiment.FamilyMagnitude
	default:
		return experiment.FamilyRate
	}
}

// ExperimentSheet is a sheet resolved into arms of a single family. Exactly
// one of RateArms and MagnitudeArms is populated.
type ExperimentSheet struct {
	Name          string
	Kind          SheetKind
	RateArms      []experiment.RateArm
	MagnitudeArms []experiment.MagnitudeArm
}

// Family is shorthand for Kind.Family()
func (s *ExperimentSheet) Family() experiment.MetricFamily {
	return s.Kind.Family()
}

// ArmCount returns the number of arms resolved from the sheet
func (s *ExperimentSheet) ArmCount() int {
	if s.Family() == experiment.FamilyMagnitude {
		return len(s.MagnitudeArms)
	}
	return len(s.RateArms)
}
