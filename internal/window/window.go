// Package window computes which slice of a time series is visible for a
// given zoom level and pan offset.
package window

import "math"

const (
	// MinVisible is the smallest number of points ever shown, regardless of zoom.
	MinVisible = 10
	// MaxZoom and MinZoom bound the zoom factor.
	MaxZoom = 5.0
	MinZoom = 1.0
	// ZoomStep is the multiplier applied by one zoom in or out.
	ZoomStep = 1.5
	// PanDivisions is how many pan steps span the full series.
	PanDivisions = 20
)

// Range is a half-open [Start, End) index range into a series.
type Range struct {
	Start int
	End   int
}

// Len returns the number of indices covered.
func (r Range) Len() int {
	return r.End - r.Start
}

// State is the zoom/pan position of a chart. Transitions return a new value.
type State struct {
	Zoom float64
	Pan  int
}

// Initial returns the unzoomed, unpanned state.
func Initial() State {
	return State{Zoom: MinZoom, Pan: 0}
}

// VisibleCount returns how many points fit at the given zoom.
func VisibleCount(total int, zoom float64) int {
	if total < 0 {
		total = 0
	}
	z := normalizeZoom(zoom)
	n := int(math.Floor(float64(total) / z))
	if n < MinVisible {
		n = MinVisible
	}
	return n
}

// ComputeVisibleRange returns the indices visible for a series of total points.
// Series shorter than MinVisible are shown in full.
func ComputeVisibleRange(total int, zoom float64, pan int) Range {
	if total <= 0 {
		return Range{}
	}
	visible := VisibleCount(total, zoom)
	start := clamp(pan, 0, maxPan(total, visible))
	end := start + visible
	if end > total {
		end = total
	}
	return Range{Start: start, End: end}
}

// Range returns the visible range of s over a series of total points.
func (s State) Range(total int) Range {
	return ComputeVisibleRange(total, s.Zoom, s.Pan)
}

// ZoomIn multiplies zoom by ZoomStep, capped at MaxZoom.
func (s State) ZoomIn(total int) State {
	s.Zoom = math.Min(normalizeZoom(s.Zoom)*ZoomStep, MaxZoom)
	return s.Clamp(total)
}

// ZoomOut divides zoom by ZoomStep, floored at MinZoom.
func (s State) ZoomOut(total int) State {
	s.Zoom = math.Max(normalizeZoom(s.Zoom)/ZoomStep, MinZoom)
	return s.Clamp(total)
}

// Reset returns to the initial state.
func (s State) Reset() State {
	return Initial()
}

// PanLeft moves the window one step toward earlier points.
func (s State) PanLeft(total int) State {
	s.Pan -= PanStep(total)
	return s.Clamp(total)
}

// PanRight moves the window one step toward later points.
func (s State) PanRight(total int) State {
	s.Pan += PanStep(total)
	return s.Clamp(total)
}

// Clamp keeps Pan within [0, total-visible] for the current zoom.
func (s State) Clamp(total int) State {
	s.Zoom = normalizeZoom(s.Zoom)
	s.Pan = clamp(s.Pan, 0, maxPan(total, VisibleCount(total, s.Zoom)))
	return s
}

// CanZoomIn reports whether ZoomIn would change the zoom factor.
func (s State) CanZoomIn() bool { return normalizeZoom(s.Zoom) < MaxZoom }

// CanZoomOut reports whether ZoomOut would change the zoom factor.
func (s State) CanZoomOut() bool { return normalizeZoom(s.Zoom) > MinZoom }

// CanPanLeft reports whether earlier points are hidden.
func (s State) CanPanLeft(total int) bool { return s.Range(total).Start > 0 }

// CanPanRight reports whether later points are hidden.
func (s State) CanPanRight(total int) bool { return s.Range(total).End < total }

// PanStep is the pan distance for a series of total points.
func PanStep(total int) int {
	step := total / PanDivisions
	if step < 1 {
		step = 1
	}
	return step
}

// Slice returns the visible portion of items.
func Slice[T any](items []T, r Range) []T {
	if r.Start < 0 || r.End > len(items) || r.Start >= r.End {
		return nil
	}
	return items[r.Start:r.End]
}

func maxPan(total, visible int) int {
	if total-visible < 0 {
		return 0
	}
	return total - visible
}

func normalizeZoom(z float64) float64 {
	if math.IsNaN(z) || z < MinZoom {
		return MinZoom
	}
	if z > MaxZoom {
		return MaxZoom
	}
	return z
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
