package excel

import "strings"

// ColumnAliases maps each logical column to the header spellings accepted for it
type ColumnAliases map[string][]string

const (
	ColumnName        = "name"
	ColumnVisitors    = "visitors"
	ColumnConversions = "conversions"
	ColumnMean        = "mean"
	ColumnStd         = "std"
	ColumnValue       = "value"
	ColumnConverted   = "converted"
)

// DefaultColumnAliases returns the header spellings recognized out of the box
func DefaultColumnAliases() ColumnAliases {
	return ColumnAliases{
		ColumnName:        {"name", "variant", "arm", "group"},
		ColumnVisitors:    {"visitors", "n", "sample_size", "users"},
		ColumnConversions: {"conversions", "successes"},
		ColumnMean:        {"mean", "average", "avg"},
		ColumnStd:         {"std", "std_dev", "stddev", "standard_deviation", "sd"},
		ColumnValue:       {"value", "observation", "amount", "revenue"},
		ColumnConverted:   {"converted", "is_converted", "conversion"},
	}
}

// resolve returns the first header matching one of the column's aliases
func (a ColumnAliases) resolve(column string, headers []string) (string, bool) {
	for _, alias := range a[column] {
		for _, h := range headers {
			if h == alias {
				return h, true
			}
		}
	}
	return "", false
}

// normalizeHeader lowercases and snake-cases a header cell
func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, " ", "_")
	return strings.ReplaceAll(h, "-", "_")
}
