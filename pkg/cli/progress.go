package cli

import (
	"fmt"
	"strings"
)

// ProgressBarWidth is the number of cells in a rendered bar.
const ProgressBarWidth = 30

// ProgressBar renders percent (clamped to 0..100) as a fixed-width bar
// followed by the percentage, e.g. "[█████░░░░░] 50%".
func ProgressBar(percent int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := ProgressBarWidth * percent / 100
	return fmt.Sprintf("[%s%s] %d%%",
		strings.Repeat("█", filled),
		strings.Repeat("░", ProgressBarWidth-filled),
		percent)
}
