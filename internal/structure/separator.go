package structure

import (
	"math"

	"github.com/lexforge/manualqa/internal/pagesource"
)

// findSeparator locates the thin black horizontal rule that separates body
// text from footnotes, returning its top offset. The separator is a fixed
// width in this document family; headers, footers and decorative underlines
// have different widths, so the width match is the discriminator. The first
// qualifying rectangle wins (at most one is expected per page).
func findSeparator(rects []pagesource.Rect, cfg Config) (float64, bool) {
	for _, r := range rects {
		isThin := r.Height < cfg.MaxRuleHeight
		isSeparatorWidth := math.Abs(r.Width-cfg.SeparatorWidth) < cfg.WidthTolerance
		if isThin && r.Black() && isSeparatorWidth {
			return r.Top, true
		}
	}
	return 0, false
}
