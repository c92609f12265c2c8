package diagnostics

import "fmt"

// rawOffsetRatio returns a string of the raw-offset-fast-path hit ratio.
func rawOffsetRatio(raw, full int64) string {
	total := raw + full
	if total == 0 {
		return "0.00%"
	}

	perc := (float64(raw) / float64(total)) * 100

	return fmt.Sprintf("%.2f%%", perc)
}
