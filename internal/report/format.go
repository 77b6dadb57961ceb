package report

import (
	"fmt"
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Options names what is being reported. Zero fields take family defaults.
type Options struct {
	TestName   string
	MetricName string
	Currency   string
}

func rateOptions(o Options, testName string) Options {
	if o.TestName == "" {
		o.TestName = testName
	}
	if o.MetricName == "" {
		o.MetricName = "Conversion Rate"
	}
	return o
}

func magnitudeOptions(o Options, testName, metricName string) Options {
	if o.TestName == "" {
		o.TestName = testName
	}
	if o.MetricName == "" {
		o.MetricName = metricName
	}
	if o.Currency == "" {
		o.Currency = "$"
	}
	return o
}

// count groups thousands: 31234 -> "31,234".
func count(n int) string {
	return printer.Sprintf("%d", n)
}

func money(currency string, v float64) string {
	if v < 0 {
		return "-" + currency + printer.Sprintf("%.2f", -v)
	}
	return currency + printer.Sprintf("%.2f", v)
}

func signedMoney(currency string, v float64) string {
	if v < 0 {
		return money(currency, v)
	}
	return "+" + money(currency, v)
}

func percent(rate float64) string {
	return fmt.Sprintf("%.2f%%", rate*100)
}

func level(confidence float64) string {
	return strconv.FormatFloat(confidence, 'f', -1, 64)
}

func threshold(confidence float64) string {
	return fmt.Sprintf("%.2f", 1-confidence/100)
}

func direction(control, variant float64) string {
	if variant > control {
		return "higher"
	}
	return "lower"
}

func change(liftPercent float64) string {
	if liftPercent > 0 {
		return "increase"
	}
	return "decrease"
}

// durationPhrase renders a test length in days, weeks or months.
func durationPhrase(days int) string {
	switch {
	case days < 7:
		return fmt.Sprintf("Approximately **%d days** to complete.", days)
	case days < 30:
		return fmt.Sprintf("Approximately **%.1f weeks** (%d days) to complete.", float64(days)/7, days)
	default:
		return fmt.Sprintf("Approximately **%.1f months** (%d days) to complete.", float64(days)/30, days)
	}
}

func abs(v float64) float64 { return math.Abs(v) }
