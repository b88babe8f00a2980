package okr

import (
	"math"
	"strconv"
	"strings"
)

// FormatKind is the display style inferred from a target cell.
type FormatKind string

const (
	FormatPercentage FormatKind = "percentage"
	FormatCurrency   FormatKind = "currency"
	FormatPlain      FormatKind = "plain"
)

// Severity buckets a progress ratio for presentation.
type Severity string

const (
	SeverityExcellent Severity = "excellent"
	SeverityGood      Severity = "good"
	SeverityWarning   Severity = "warning"
	SeverityCritical  Severity = "critical"
)

// Color returns the progress-bar colour used for the severity.
func (s Severity) Color() string {
	switch s {
	case SeverityExcellent:
		return "#39FF14"
	case SeverityGood:
		return "#8149f2"
	case SeverityWarning:
		return "#FFD700"
	default:
		return "#FF0000"
	}
}

// Normalize converts a locale-formatted cell ("R$ 1.234,50", "45%", "12")
// to a number. The % and R$ symbols are dropped, every '.' is treated as a
// thousands separator and every ',' as the decimal separator. An empty
// result is 0.
func Normalize(raw string) (float64, error) {
	s := strings.ReplaceAll(raw, "%", "")
	s = strings.ReplaceAll(s, "R$", "")
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &FormatError{Value: raw, Err: err}
	}
	if !finite(v) {
		return 0, &FormatError{Value: raw, Err: errNotFinite}
	}
	return v, nil
}

// Classify infers the format kind from the raw target text. Percentage wins
// when both symbols are present.
func Classify(targetRaw string) FormatKind {
	switch {
	case strings.Contains(targetRaw, "%"):
		return FormatPercentage
	case strings.Contains(targetRaw, "R$"):
		return FormatCurrency
	default:
		return FormatPlain
	}
}

// Progress returns current as a percentage of target, capped at 100.
// A zero target yields 0. The low end is not clamped: a negative current
// gives a negative ratio.
func Progress(current, target float64) float64 {
	if target == 0 {
		return 0
	}
	return math.Min(current/target*100, 100)
}

// Remaining returns how much is left to reach target, never below 0.
func Remaining(current, target float64) float64 {
	if target > current {
		return target - current
	}
	return 0
}

// Bucket classifies a progress ratio. Lower bounds are inclusive.
func Bucket(ratio float64) Severity {
	switch {
	case ratio >= 91:
		return SeverityExcellent
	case ratio >= 81:
		return SeverityGood
	case ratio >= 61:
		return SeverityWarning
	default:
		return SeverityCritical
	}
}

// ProgressView is the derived, display-ready state of one record.
type ProgressView struct {
	Kind      FormatKind `json:"kind"`
	Current   float64    `json:"current"`
	Target    float64    `json:"target"`
	Ratio     float64    `json:"ratio"`
	Remaining float64    `json:"remaining"`
	Severity  Severity   `json:"severity"`
}

// View derives the progress view of a record. It fails with a *FormatError
// naming the offending field when the current or target cell is not numeric.
func View(rec KeyResultRecord) (ProgressView, error) {
	current, err := normalizeField("current_value", rec.CurrentValue)
	if err != nil {
		return ProgressView{}, err
	}
	target, err := normalizeField("target", rec.Target)
	if err != nil {
		return ProgressView{}, err
	}
	ratio := Progress(current, target)
	remaining := Remaining(current, target)
	// Finite inputs can still overflow, e.g. "-1e300" over "1e-10".
	if !finite(ratio) || !finite(remaining) {
		return ProgressView{}, &FormatError{Field: "ratio", Value: rec.CurrentValue + " / " + rec.Target, Err: errNotFinite}
	}
	return ProgressView{
		Kind:      Classify(rec.Target),
		Current:   current,
		Target:    target,
		Ratio:     ratio,
		Remaining: remaining,
		Severity:  Bucket(ratio),
	}, nil
}

// Display formats v in the view's format kind.
func (v ProgressView) Display(x float64) string {
	return FormatValue(x, v.Kind)
}

func normalizeField(field, raw string) (float64, error) {
	v, err := Normalize(raw)
	if fe, ok := err.(*FormatError); ok {
		fe.Field = field
		return 0, fe
	}
	return v, err
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
