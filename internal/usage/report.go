package usage

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// grouped formats n with thousands separators.
func grouped(n int) string {
	return printer.Sprintf("%d", n)
}

type opSummary struct {
	calls  int
	tokens int
	cost   float64
}

type imageSummary struct {
	attempts int
	success  int
	images   int
	cost     float64
}

// FormatReport renders a summary as the plain-text usage report. Groups are
// listed in first-seen order.
func FormatReport(s Summary, now time.Time) string {
	elapsed := int(now.Sub(time.UnixMilli(s.StartTime)).Round(time.Second) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Usage Report for Session: %s\n", s.ID)
	fmt.Fprintf(&b, "Duration: %dm %ds\n\n", elapsed/60, elapsed%60)

	b.WriteString("LLM Token Usage:\n")
	fmt.Fprintf(&b, "   Input Tokens: %s\n", grouped(s.TotalInputTokens))
	fmt.Fprintf(&b, "   Output Tokens: %s\n", grouped(s.TotalOutputTokens))
	fmt.Fprintf(&b, "   Total Tokens: %s\n\n", grouped(s.TotalTokens))

	if len(s.TokenUsages) > 0 {
		b.WriteString("Token Operations:\n")
		var order []string
		ops := make(map[string]*opSummary)
		for _, u := range s.TokenUsages {
			sum, ok := ops[u.Operation]
			if !ok {
				sum = &opSummary{}
				ops[u.Operation] = sum
				order = append(order, u.Operation)
			}
			sum.calls++
			sum.tokens += u.TotalTokens
			sum.cost += u.Cost
		}
		for _, op := range order {
			sum := ops[op]
			fmt.Fprintf(&b, "   %s: %d calls, %s tokens, $%.4f\n", op, sum.calls, grouped(sum.tokens), sum.cost)
		}
		b.WriteString("\n")
	}

	b.WriteString("Image Generation:\n")
	fmt.Fprintf(&b, "   Total Images: %d\n", s.TotalImages)
	if len(s.ImageUsages) > 0 {
		var order []string
		groups := make(map[string]*imageSummary)
		for _, u := range s.ImageUsages {
			key := u.Provider + "-" + u.Operation
			sum, ok := groups[key]
			if !ok {
				sum = &imageSummary{}
				groups[key] = sum
				order = append(order, key)
			}
			sum.attempts++
			sum.images += u.ImageCount
			sum.cost += u.Cost
			if u.Success {
				sum.success++
			}
		}
		for _, key := range order {
			sum := groups[key]
			fmt.Fprintf(&b, "   %s: %d/%d successful, %d images, $%.4f\n", key, sum.success, sum.attempts, sum.images, sum.cost)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Total Estimated Cost: $%.4f", s.EstimatedCost)
	return b.String()
}
