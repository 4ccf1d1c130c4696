package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fpang/ai-slide-generator/internal/deck"
)

// FormatDurationShort formats a duration in a short format (M:SS or H:MM:SS).
func FormatDurationShort(d time.Duration) string {
	totalSeconds := int(d.Seconds())
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// PrintSlide writes a slide as numbered plain text.
func PrintSlide(w io.Writer, index int, s deck.Slide) {
	fmt.Fprintf(w, "\n[%d] %s\n", index+1, s.Title)
	for _, b := range deck.Bullets(s.Content) {
		fmt.Fprintf(w, "    • %s\n", b)
	}
	if s.ImageURL != "" {
		fmt.Fprintf(w, "    image: %s\n", shortRef(s.ImageURL))
	}
	if s.Critique != "" {
		fmt.Fprintf(w, "    critique: %s\n", s.Critique)
	}
}

// shortRef keeps inline data URIs from flooding the terminal.
func shortRef(ref string) string {
	if strings.HasPrefix(ref, "data:") {
		if i := strings.Index(ref, ","); i > 0 {
			return fmt.Sprintf("%s (%d bytes inline)", ref[:i], len(ref)-i-1)
		}
	}
	return ref
}
