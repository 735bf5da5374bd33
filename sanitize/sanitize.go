package sanitize

import (
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// maxLength is the character cap applied after escaping.
	maxLength = 4000
	// truncationMarker is appended when input is cut at maxLength.
	truncationMarker = "..."
)

// markupStripper removes any angle brackets and quotes that survive escaping.
var markupStripper = strings.NewReplacer("<", "", ">", "", `"`, "", "'", "")

// Sanitize escapes HTML markup characters in s, strips residual angle
// brackets and quotes, caps the result at 4000 characters (appending a
// truncation marker when cut), and trims surrounding whitespace.
// It is a pure function and never fails; empty input yields an empty string.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}

	s = html.EscapeString(s)
	s = markupStripper.Replace(s)

	if utf8.RuneCountInString(s) > maxLength {
		runes := []rune(s)
		s = string(runes[:maxLength]) + truncationMarker
	}

	return strings.TrimSpace(s)
}

// FormatDuration renders d for display: sub-second durations as whole
// milliseconds ("500ms"), durations of one second and above with two
// decimal places ("2.35s").
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.0fms", float64(d)/float64(time.Millisecond))
	}
	// Seconds computed from the millisecond count so that values like
	// 2345ms round half up to "2.35s" rather than down through the
	// nanosecond-ratio double.
	return fmt.Sprintf("%.2fs", float64(d.Milliseconds())/1000)
}
