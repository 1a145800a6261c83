// Package scrollbar derives scroll-bar geometry from a zoom snapshot.
package scrollbar

import (
	"math"
	"time"

	"zoomimage/geom"
	"zoomimage/zoom"
)

// Spec describes the look of the bars in container pixels.
type Spec struct {
	Size      float64 // bar thickness
	Margin    float64 // distance from the container edges
	MinLength float64
}

// DefaultSpec returns the bar style used by the viewer.
func DefaultSpec() Spec {
	return Spec{Size: 6, Margin: 4, MinLength: 24}
}

// Bars holds the thumb rects in container coordinates. A bar is only
// present when the content overflows the container on its axis.
type Bars struct {
	Horizontal    geom.Rect
	Vertical      geom.Rect
	HasHorizontal bool
	HasVertical   bool
}

// overflow below this many pixels does not produce a bar
const overflowTolerance = 0.5

// Compute returns the bars for snap.
func Compute(spec Spec, snap zoom.Snapshot) Bars {
	var bars Bars
	if snap.Layout.IsEmpty() {
		return bars
	}
	container := snap.ContainerSize().ToSize()
	display := snap.ContentDisplayRect

	hOverflow := display.Width() > container.Width+overflowTolerance
	vOverflow := display.Height() > container.Height+overflowTolerance

	// leave the corner free when both bars are shown
	hTrack := container.Width - 2*spec.Margin
	vTrack := container.Height - 2*spec.Margin
	if hOverflow && vOverflow {
		hTrack -= spec.Size + spec.Margin
		vTrack -= spec.Size + spec.Margin
	}

	if hOverflow && hTrack > 0 {
		start, length := thumb(display.Left, display.Width(), container.Width, hTrack, spec.MinLength)
		top := container.Height - spec.Margin - spec.Size
		bars.Horizontal = geom.Rect{
			Left:   spec.Margin + start,
			Top:    top,
			Right:  spec.Margin + start + length,
			Bottom: top + spec.Size,
		}
		bars.HasHorizontal = true
	}
	if vOverflow && vTrack > 0 {
		start, length := thumb(display.Top, display.Height(), container.Height, vTrack, spec.MinLength)
		left := container.Width - spec.Margin - spec.Size
		bars.Vertical = geom.Rect{
			Left:   left,
			Top:    spec.Margin + start,
			Right:  left + spec.Size,
			Bottom: spec.Margin + start + length,
		}
		bars.HasVertical = true
	}
	return bars
}

// thumb returns the thumb position and length within a track for content
// of the given extent whose leading edge sits at pos.
func thumb(pos, extent, viewport, track, minLength float64) (start, length float64) {
	length = math.Max(math.Min(track*viewport/extent, track), math.Min(minLength, track))
	scrollRange := extent - viewport
	progress := 0.0
	if scrollRange > 0 {
		progress = math.Max(0, math.Min(1, -pos/scrollRange))
	}
	return (track - length) * progress, length
}

// Fader tracks when the transform last changed and returns the bar alpha.
type Fader struct {
	Delay    time.Duration
	Duration time.Duration

	last      geom.Transform
	changedAt time.Time
	seen      bool
}

// NewFader returns a Fader that stays opaque for 800ms after a change and
// then fades out over 200ms.
func NewFader() *Fader {
	return &Fader{Delay: 800 * time.Millisecond, Duration: 200 * time.Millisecond}
}

// Update records snap at now. It reports whether the transform changed.
func (f *Fader) Update(snap zoom.Snapshot, now time.Time) bool {
	if f.seen && snap.Transform == f.last {
		return false
	}
	f.last = snap.Transform
	f.seen = true
	f.changedAt = now
	return true
}

// Alpha returns the opacity in [0, 1] at now.
func (f *Fader) Alpha(now time.Time) float64 {
	if !f.seen {
		return 0
	}
	elapsed := now.Sub(f.changedAt)
	if elapsed <= f.Delay {
		return 1
	}
	if f.Duration <= 0 {
		return 0
	}
	fade := float64(elapsed-f.Delay) / float64(f.Duration)
	return math.Max(0, 1-fade)
}
