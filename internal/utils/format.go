package utils

import (
	"fmt"
	"strings"
)

// FormatMetricValue renders a metric value with units inferred from its
// name, for use in human-readable reports.
func FormatMetricValue(name string, value float64) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "rate") || strings.Contains(lower, "bounce"):
		return fmt.Sprintf("%.1f%%", value)
	case strings.Contains(lower, "revenue") || strings.Contains(lower, "value"):
		return fmt.Sprintf("$%.0f", value)
	case strings.Contains(lower, "duration") || strings.Contains(lower, "time"):
		return fmt.Sprintf("%.1fs", value)
	default:
		return fmt.Sprintf("%.0f", value)
	}
}
