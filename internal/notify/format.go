package notify

import "fmt"

// UnknownDuration is displayed when content has no known length.
const UnknownDuration = "--:--"

// FormatDuration renders a millisecond offset as M:SS. Seconds are
// zero-padded, minutes grow without an hour rollover, and sub-second
// remainders truncate.
func FormatDuration(ms int64) string {
	seconds := ms / 1000
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
