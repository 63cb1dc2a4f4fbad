package models

import "strings"

// Effort is the implementation effort of a recommendation. It is a closed
// enum: free-form input that matches none of the known levels parses to
// EffortUnknown, which carries its own score weight instead of being silently
// coerced to medium.
type Effort string

const (
	EffortLow     Effort = "low"
	EffortMedium  Effort = "medium"
	EffortHigh    Effort = "high"
	EffortUnknown Effort = "unknown"
)

func ParseEffort(s string) Effort {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return EffortLow
	case "medium":
		return EffortMedium
	case "high":
		return EffortHigh
	default:
		return EffortUnknown
	}
}

// Weight is the multiplier the decision matrix applies to this effort level.
func (e Effort) Weight() float64 {
	switch e {
	case EffortLow:
		return 1.0
	case EffortMedium:
		return 0.7
	case EffortHigh:
		return 0.4
	default:
		return 0.5
	}
}

// Ordinal maps effort onto the 1..3 axis of the impact/effort quadrant.
// Unknown effort sits in the middle of the axis.
func (e Effort) Ordinal() int {
	switch e {
	case EffortLow:
		return 1
	case EffortMedium:
		return 2
	case EffortHigh:
		return 3
	default:
		return 2
	}
}

// Category is the impact-vs-effort quadrant label.
type Category string

const (
	QuickWin      Category = "quick_win"
	MajorProject  Category = "major_project"
	FillIn        Category = "fill_in"
	ThanklessTask Category = "thankless_task"
)
