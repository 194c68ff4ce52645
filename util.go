package ns

import (
	"strconv"
)

// FormatReading renders a sensor value the way clients expect it on the wire:
// five significant figures.
func FormatReading(value float64) string {
	return strconv.FormatFloat(value, 'g', 5, 64)
}
