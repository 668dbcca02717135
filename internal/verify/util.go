package verify

import "fmt"

// FormatSize renders byte counts the way `verify`'s summary line does:
// "1.5 KB" rather than a raw byte count, for a human skimming the output
// of a single artifact check.
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
