package output

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ConfidenceBar renders a confidence in [0,1] as a bar with a percentage.
// Example: "████████░░ 80%"
func ConfidenceBar(confidence float64, width int) string {
	if width <= 0 {
		width = 10
	}
	filled := int(confidence*float64(width) + 0.5)
	filled = max(0, min(width, filled))

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("%s %s", confidenceStyle(confidence).Render(bar),
		StyleBold.Render(fmt.Sprintf("%3.0f%%", confidence*100)))
}

func confidenceStyle(confidence float64) lipgloss.Style {
	switch {
	case confidence >= 0.7:
		return StyleSuccess
	case confidence >= 0.4:
		return StyleWarning
	default:
		return StyleMuted
	}
}

// TrendArrowPercent returns a styled indicator for a delta expressed as a
// fraction. higherIsBetter decides whether a rise is shown as good.
func TrendArrowPercent(delta float64, higherIsBetter bool) string {
	pct := delta * 100
	if math.Abs(pct) < 0.05 {
		return StyleMuted.Render("─")
	}

	rising := delta > 0
	improved := rising == higherIsBetter

	var arrow string
	if rising {
		arrow = fmt.Sprintf("▲ +%.1f pts", pct)
	} else {
		arrow = fmt.Sprintf("▼ %.1f pts", pct)
	}

	if improved {
		return StyleSuccess.Render(arrow)
	}
	return StyleError.Render(arrow)
}

// Section returns a styled section header with a horizontal rule.
func Section(title string) string {
	header := StyleHeader.Render(title)
	rule := StyleMuted.Render(strings.Repeat("─", ruleWidth))
	return fmt.Sprintf("\n %s\n %s", header, rule)
}
