// Package window maps scroll geometry to the minimal row ranges a host has
// to ask for: the visible range it should paint and the render range worth
// materializing around it.
package window

import (
	"errors"
	"fmt"
	"math"

	"github.com/rowpane/rowpane/internal/grid"
)

// MaxRenderRows caps the render range. A wider range means the host asked
// for more rows than any screen can show, which is a wiring bug, not a
// situation to clamp silently.
const MaxRenderRows = 1000

var (
	// ErrBadGeometry is returned for NaN, infinite or negative geometry.
	ErrBadGeometry = errors.New("invalid geometry")
	// ErrRenderTooLarge is returned when the render range would exceed
	// [MaxRenderRows].
	ErrRenderTooLarge = errors.New("render range too large")
)

// Geometry describes a scroll position over a canvas. Units are arbitrary
// but must agree between the three float fields; a terminal host typically
// uses rows (canvas = numRows), a pixel host uses pixels.
type Geometry struct {
	// ScrollTop is the offset of the viewport's top edge into the canvas.
	ScrollTop float64
	// ViewportSize is the extent of the viewport along the scroll axis.
	ViewportSize float64
	// CanvasSize is the total extent of the scrollable canvas.
	CanvasSize float64
	// NumRows is the table's current row count.
	NumRows int
	// Overscan widens the visible range by whole rows on both sides so
	// small scrolls reuse already-painted rows.
	Overscan int
	// Padding widens the render range beyond the visible one so data
	// arrives before the user reaches it.
	Padding int
}

// Ranges is the result of [Compute].
type Ranges struct {
	// Visible is the range the host should paint now.
	Visible grid.Range
	// Render is the range worth fetching and materializing.
	Render grid.Range
}

// Compute derives the visible and render ranges for g.
//
// The raw visible span is scrollTop..scrollTop+viewport projected onto row
// indexes (floor on the top edge, ceil on the bottom), widened by Overscan
// and clamped to the table; Render widens that by Padding. Malformed
// geometry is a hard error: NaN here always means an upstream layout bug,
// and clamping it would hide the bug while quietly rendering row 0.
func Compute(g Geometry) (Ranges, error) {
	for name, f := range map[string]float64{
		"scrollTop":    g.ScrollTop,
		"viewportSize": g.ViewportSize,
		"canvasSize":   g.CanvasSize,
	} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return Ranges{}, fmt.Errorf("%w: %s is %v", ErrBadGeometry, name, f)
		}
		if f < 0 {
			return Ranges{}, fmt.Errorf("%w: %s is negative (%v)", ErrBadGeometry, name, f)
		}
	}
	if g.NumRows < 0 || g.Overscan < 0 || g.Padding < 0 {
		return Ranges{}, fmt.Errorf("%w: negative row counts", ErrBadGeometry)
	}
	if g.NumRows == 0 {
		return Ranges{}, nil
	}
	if g.CanvasSize == 0 {
		return Ranges{}, fmt.Errorf("%w: zero canvas for %d rows", ErrBadGeometry, g.NumRows)
	}

	rowsPerUnit := float64(g.NumRows) / g.CanvasSize
	top := math.Floor(g.ScrollTop * rowsPerUnit)
	bottom := math.Ceil((g.ScrollTop + g.ViewportSize) * rowsPerUnit)

	// Clamp in float space first so absurd offsets cannot overflow int.
	limit := float64(g.NumRows)
	top = min(max(top, 0), limit)
	bottom = min(max(bottom, 0), limit)

	visible := grid.Range{
		Start: int(top) - g.Overscan,
		End:   int(bottom) + g.Overscan,
	}.Clamp(g.NumRows)

	render := grid.Range{
		Start: visible.Start - g.Padding,
		End:   visible.End + g.Padding,
	}.Clamp(g.NumRows)

	if render.Len() > MaxRenderRows {
		return Ranges{}, fmt.Errorf("%w: %d rows (max %d)", ErrRenderTooLarge, render.Len(), MaxRenderRows)
	}
	return Ranges{Visible: visible, Render: render}, nil
}
