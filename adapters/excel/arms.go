package excel

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"

	"goexp/domain/experiment"
)

var (
	ErrUnrecognizedSheet = errors.New("sheet columns do not describe arms")
	ErrInvalidCell       = errors.New("invalid cell value")
)

// SheetParser resolves sheets into experiment arms
type SheetParser struct {
	aliases ColumnAliases
}

// NewSheetParser creates a parser. A nil alias table uses DefaultColumnAliases.
func NewSheetParser(aliases ColumnAliases) *SheetParser {
	if aliases == nil {
		aliases = DefaultColumnAliases()
	}
	return &SheetParser{aliases: aliases}
}

type columns struct {
	name, visitors, conversions, mean, std, value, converted string
}

// Detect works out the layout of a sheet from its headers.
// Summary layouts win over raw layouts when both could apply.
func (p *SheetParser) Detect(sheet *SheetData) (SheetKind, error) {
	kind, _, err := p.detect(sheet)
	return kind, err
}

func (p *SheetParser) detect(sheet *SheetData) (SheetKind, columns, error) {
	var cols columns
	var ok bool
	if cols.name, ok = p.aliases.resolve(ColumnName, sheet.Headers); !ok {
		return "", cols, fmt.Errorf("%w: sheet %q has no variant column", ErrUnrecognizedSheet, sheet.Name)
	}

	has := func(column string, dst *string) bool {
		h, found := p.aliases.resolve(column, sheet.Headers)
		*dst = h
		return found
	}

	switch {
	case has(ColumnVisitors, &cols.visitors) && has(ColumnConversions, &cols.conversions):
		return KindRateSummary, cols, nil
	case has(ColumnVisitors, &cols.visitors) && has(ColumnMean, &cols.mean) && has(ColumnStd, &cols.std):
		return KindMagnitudeSummary, cols, nil
	case has(ColumnConverted, &cols.converted):
		return KindRateEvents, cols, nil
	case has(ColumnValue, &cols.value):
		return KindMagnitudeValues, cols, nil
	}
	return "", cols, fmt.Errorf("%w: sheet %q headers %v", ErrUnrecognizedSheet, sheet.Name, sheet.Headers)
}

// Parse resolves a sheet into arms. Arms keep the order in which their names
// first appear. Range checks are left to the engines.
func (p *SheetParser) Parse(sheet *SheetData) (*ExperimentSheet, error) {
	kind, cols, err := p.detect(sheet)
	if err != nil {
		return nil, err
	}

	out := &ExperimentSheet{Name: sheet.Name, Kind: kind}
	switch kind {
	case KindRateSummary:
		out.RateArms, err = rateSummaryArms(sheet, cols)
	case KindMagnitudeSummary:
		out.MagnitudeArms, err = magnitudeSummaryArms(sheet, cols)
	case KindRateEvents:
		out.RateArms, err = rateEventArms(sheet, cols)
	case KindMagnitudeValues:
		out.MagnitudeArms, err = magnitudeValueArms(sheet, cols)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func rateSummaryArms(sheet *SheetData, cols columns) ([]experiment.RateArm, error) {
	arms := make([]experiment.RateArm, 0, len(sheet.Rows))
	for i, row := range sheet.Rows {
		visitors, err := parseCount(row[cols.visitors])
		if err != nil {
			return nil, cellError(sheet.Name, i, cols.visitors, err)
		}
		conversions, err := parseCount(row[cols.conversions])
		if err != nil {
			return nil, cellError(sheet.Name, i, cols.conversions, err)
		}
		arms = append(arms, experiment.RateArm{Name: row[cols.name], Visitors: visitors, Conversions: conversions})
	}
	return arms, nil
}

func magnitudeSummaryArms(sheet *SheetData, cols columns) ([]experiment.MagnitudeArm, error) {
	arms := make([]experiment.MagnitudeArm, 0, len(sheet.Rows))
	for i, row := range sheet.Rows {
		visitors, err := parseCount(row[cols.visitors])
		if err != nil {
			return nil, cellError(sheet.Name, i, cols.visitors, err)
		}
		mean, err := parseNumber(row[cols.mean])
		if err != nil {
			return nil, cellError(sheet.Name, i, cols.mean, err)
		}
		std, err := parseNumber(row[cols.std])
		if err != nil {
			return nil, cellError(sheet.Name, i, cols.std, err)
		}
		arms = append(arms, experiment.MagnitudeArm{Name: row[cols.name], Visitors: visitors, Mean: mean, Std: std})
	}
	return arms, nil
}

func rateEventArms(sheet *SheetData, cols columns) ([]experiment.RateArm, error) {
	var order []string
	byName := make(map[string]*experiment.RateArm)
	for i, row := range sheet.Rows {
		converted, err := parseFlag(row[cols.converted])
		if err != nil {
			return nil, cellError(sheet.Name, i, cols.converted, err)
		}
		name := row[cols.name]
		arm, ok := byName[name]
		if !ok {
			arm = &experiment.RateArm{Name: name}
			byName[name] = arm
			order = append(order, name)
		}
		arm.Visitors++
		if converted {
			arm.Conversions++
		}
	}

	arms := make([]experiment.RateArm, 0, len(order))
	for _, name := range order {
		arms = append(arms, *byName[name])
	}
	return arms, nil
}

func magnitudeValueArms(sheet *SheetData, cols columns) ([]experiment.MagnitudeArm, error) {
	var order []string
	values := make(map[string][]float64)
	for i, row := range sheet.Rows {
		v, err := parseNumber(row[cols.value])
		if err != nil {
			return nil, cellError(sheet.Name, i, cols.value, err)
		}
		name := row[cols.name]
		if _, ok := values[name]; !ok {
			order = append(order, name)
		}
		values[name] = append(values[name], v)
	}

	arms := make([]experiment.MagnitudeArm, 0, len(order))
	for _, name := range order {
		arm, err := summarize(name, values[name])
		if err != nil {
			return nil, fmt.Errorf("sheet %q arm %q: %w", sheet.Name, name, err)
		}
		arms = append(arms, arm)
	}
	return arms, nil
}

// summarize reduces raw observations to the summary statistics the engine
// consumes. A single observation has no sample spread and is reported with
// std 0; the engine rejects such arms for testing.
func summarize(name string, data []float64) (experiment.MagnitudeArm, error) {
	mean, err := stats.Mean(data)
	if err != nil {
		return experiment.MagnitudeArm{}, err
	}
	std := 0.0
	if len(data) > 1 {
		std, err = stats.StandardDeviationSample(data)
		if err != nil {
			return experiment.MagnitudeArm{}, err
		}
	}
	return experiment.MagnitudeArm{Name: name, Visitors: len(data), Mean: mean, Std: std}, nil
}

func cellError(sheet string, row int, column string, err error) error {
	// row+2: one for the header, one for 1-based numbering
	return fmt.Errorf("sheet %q row %d column %q: %w", sheet, row+2, column, err)
}

func parseNumber(s string) (float64, error) {
	clean := strings.NewReplacer(",", "", "$", "", "€", "", "£", "").Replace(strings.TrimSpace(s))
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidCell, s)
	}
	return v, nil
}

func parseCount(s string) (int, error) {
	v, err := parseNumber(s)
	if err != nil {
		return 0, err
	}
	if v != math.Trunc(v) {
		return 0, fmt.Errorf("%w: %q is not a whole number", ErrInvalidCell, s)
	}
	if v >= math.MaxInt || v < math.MinInt {
		return 0, fmt.Errorf("%w: %q is too large to count", ErrInvalidCell, s)
	}
	return int(v), nil
}

func parseFlag(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y":
		return true, nil
	case "0", "false", "no", "n", "":
		return false, nil
	}
	return false, fmt.Errorf("%w: %q is not a yes/no flag", ErrInvalidCell, s)
}
