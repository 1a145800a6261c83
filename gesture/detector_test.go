package gesture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zoomimage/geom"
)

type recorder struct {
	changes    []Change
	ends       []geom.Offset
	velocities []geom.Offset
	taps       []geom.Offset
	doubleTaps []geom.Offset
	longPress  []geom.Offset
	panicOn    bool
}

func (r *recorder) OnGesture(c Change) {
	if r.panicOn {
		panic("handler torn down")
	}
	r.changes = append(r.changes, c)
}

func (r *recorder) OnEnd(focus, velocity geom.Offset) {
	r.ends = append(r.ends, focus)
	r.velocities = append(r.velocities, velocity)
}

func (r *recorder) OnTap(pos geom.Offset)       { r.taps = append(r.taps, pos) }
func (r *recorder) OnDoubleTap(pos geom.Offset) { r.doubleTaps = append(r.doubleTaps, pos) }
func (r *recorder) OnLongPress(pos geom.Offset) { r.longPress = append(r.longPress, pos) }

func (r *recorder) totalPan() geom.Offset {
	var sum geom.Offset
	for _, c := range r.changes {
		sum = sum.Add(c.Pan)
	}
	return sum
}

type stubEdges struct {
	allow bool
}

func (s stubEdges) CanDrag(bool, float64) bool { return s.allow }

var t0 = time.Unix(1000, 0)

func at(ms int) time.Time { return t0.Add(time.Duration(ms) * time.Millisecond) }

func ev(id int, kind Kind, x, y float64, ms int) PointerEvent {
	return PointerEvent{ID: id, Kind: kind, Position: geom.Offset{X: x, Y: y}, Time: at(ms)}
}

func TestDragEmitsPanAndFling(t *testing.T) {
	r := &recorder{}
	d := NewDetector(r, DefaultOptions(), nil)

	assert.True(t, d.OnEvent(ev(1, Down, 100, 100, 0)))
	assert.True(t, d.OnEvent(ev(1, Move, 120, 100, 10)))
	assert.Equal(t, StateDragging, d.State())
	for i := 1; i <= 5; i++ {
		assert.True(t, d.OnEvent(ev(1, Move, 120+float64(i*20), 100, 10+i*10)))
	}
	assert.True(t, d.OnEvent(ev(1, Up, 220, 100, 60)))

	assert.Equal(t, StateIdle, d.State())
	assert.InDelta(t, 100, r.totalPan().X, 1e-9)
	require.Len(t, r.velocities, 1)
	assert.InDelta(t, 2000, r.velocities[0].X, 1)
	assert.Empty(t, r.taps)
}

func TestTapWaitsForDoubleTapTimeout(t *testing.T) {
	r := &recorder{}
	d := NewDetector(r, DefaultOptions(), nil)

	d.OnEvent(ev(1, Down, 50, 50, 0))
	d.OnEvent(ev(1, Up, 50, 50, 50))
	d.Tick(at(100))
	assert.Empty(t, r.taps)
	d.Tick(at(400))
	assert.Equal(t, []geom.Offset{{X: 50, Y: 50}}, r.taps)
}

func TestTapIsImmediateWithoutDoubleTapTypes(t *testing.T) {
	r := &recorder{}
	opts := DefaultOptions()
	opts.Types = TypeDrag | TypeTwoFingerScale
	d := NewDetector(r, opts, nil)

	d.OnEvent(ev(1, Down, 50, 50, 0))
	d.OnEvent(ev(1, Up, 50, 50, 50))
	assert.Len(t, r.taps, 1)
}

func TestDoubleTap(t *testing.T) {
	r := &recorder{}
	d := NewDetector(r, DefaultOptions(), nil)

	d.OnEvent(ev(1, Down, 50, 50, 0))
	d.OnEvent(ev(1, Up, 50, 50, 50))
	d.OnEvent(ev(1, Down, 52, 51, 150))
	assert.Equal(t, StateDoubleTapPending, d.State())
	d.OnEvent(ev(1, Up, 52, 51, 200))
	d.Tick(at(1000))

	assert.Equal(t, []geom.Offset{{X: 52, Y: 51}}, r.doubleTaps)
	assert.Empty(t, r.taps)
}

func TestQuickSecondTapWithoutDoubleTapScale(t *testing.T) {
	r := &recorder{}
	opts := DefaultOptions()
	opts.Types = TypeDrag | TypeOneFingerScale
	d := NewDetector(r, opts, nil)

	d.OnEvent(ev(1, Down, 50, 50, 0))
	d.OnEvent(ev(1, Up, 50, 50, 50))
	d.OnEvent(ev(1, Down, 52, 51, 150))
	assert.Equal(t, StateDoubleTapPending, d.State())
	assert.Equal(t, []geom.Offset{{X: 50, Y: 50}}, r.taps)
	d.OnEvent(ev(1, Up, 52, 51, 200))
	d.Tick(at(1000))

	assert.Equal(t, []geom.Offset{{X: 50, Y: 50}, {X: 52, Y: 51}}, r.taps)
	assert.Empty(t, r.doubleTaps)
}

func TestDoubleTapDragScalesWithOneFinger(t *testing.T) {
	r := &recorder{}
	d := NewDetector(r, DefaultOptions(), nil)

	d.OnEvent(ev(1, Down, 50, 50, 0))
	d.OnEvent(ev(1, Up, 50, 50, 50))
	d.OnEvent(ev(1, Down, 50, 50, 150))
	d.OnEvent(ev(1, Move, 50, 70, 160))
	assert.Equal(t, StateOneFingerScaling, d.State())
	d.OnEvent(ev(1, Move, 50, 90, 170))
	d.OnEvent(ev(1, Up, 50, 90, 180))

	require.Len(t, r.changes, 1)
	assert.InDelta(t, 1.1, r.changes[0].Zoom, 1e-9)
	assert.Equal(t, geom.Offset{X: 50, Y: 50}, r.changes[0].Centroid)
	assert.Empty(t, r.doubleTaps)
	require.Len(t, r.ends, 1)
	assert.Equal(t, geom.Offset{}, r.velocities[0])
}

func TestPinchZoomAndNoJumpOnPointerChange(t *testing.T) {
	r := &recorder{}
	d := NewDetector(r, DefaultOptions(), nil)

	d.OnEvent(ev(1, Down, 100, 100, 0))
	d.OnEvent(ev(2, Down, 200, 100, 5))
	assert.Equal(t, StatePinching, d.State())

	d.OnEvent(ev(2, Move, 300, 100, 20))
	require.Len(t, r.changes, 1)
	// spread 50 -> 100
	assert.InDelta(t, 2, r.changes[0].Zoom, 1e-9)
	assert.Equal(t, 2, r.changes[0].Pointers)

	// Lifting one finger must not move the content.
	d.OnEvent(ev(2, Up, 300, 100, 30))
	assert.Equal(t, StateDragging, d.State())
	d.OnEvent(ev(1, Move, 110, 100, 40))
	last := r.changes[len(r.changes)-1]
	assert.Equal(t, geom.Offset{X: 10}, last.Pan)
	assert.Equal(t, 1.0, last.Zoom)

	d.OnEvent(ev(1, Up, 110, 100, 50))
	assert.Len(t, r.ends, 1)
	assert.Equal(t, StateIdle, d.State())
}

func TestDragVetoAtEdgeAndPinchWins(t *testing.T) {
	r := &recorder{}
	d := NewDetector(r, DefaultOptions(), nil)
	d.SetEdgeChecker(stubEdges{allow: false})

	d.OnEvent(ev(1, Down, 100, 100, 0))
	assert.False(t, d.OnEvent(ev(1, Move, 130, 100, 10)))
	assert.Equal(t, StateIgnored, d.State())
	assert.False(t, d.OnEvent(ev(1, Move, 150, 100, 20)))
	assert.Empty(t, r.changes)

	assert.True(t, d.OnEvent(ev(2, Down, 300, 100, 30)))
	assert.Equal(t, StatePinching, d.State())
	assert.True(t, d.OnEvent(ev(2, Move, 400, 100, 40)))
	assert.NotEmpty(t, r.changes)
}

func TestDisabledDragIsNotConsumed(t *testing.T) {
	r := &recorder{}
	opts := DefaultOptions()
	opts.Types = TypeTwoFingerScale
	d := NewDetector(r, opts, nil)

	d.OnEvent(ev(1, Down, 100, 100, 0))
	assert.False(t, d.OnEvent(ev(1, Move, 150, 100, 10)))
	assert.False(t, d.OnEvent(ev(1, Up, 150, 100, 20)))
	assert.Empty(t, r.ends)
}

func TestLongPress(t *testing.T) {
	r := &recorder{}
	d := NewDetector(r, DefaultOptions(), nil)

	d.OnEvent(ev(1, Down, 10, 20, 0))
	d.Tick(at(499))
	assert.Empty(t, r.longPress)
	d.Tick(at(500))
	assert.Equal(t, []geom.Offset{{X: 10, Y: 20}}, r.longPress)
	assert.True(t, d.OnEvent(ev(1, Move, 100, 20, 600)))
	d.OnEvent(ev(1, Up, 100, 20, 700))
	d.Tick(at(2000))
	assert.Empty(t, r.changes)
	assert.Empty(t, r.taps)
}

func TestHandlerPanicIsNotConsumed(t *testing.T) {
	r := &recorder{panicOn: true}
	d := NewDetector(r, DefaultOptions(), nil)

	d.OnEvent(ev(1, Down, 0, 0, 0))
	d.OnEvent(ev(1, Move, 50, 0, 10))
	assert.NotPanics(t, func() {
		assert.False(t, d.OnEvent(ev(1, Move, 60, 0, 20)))
	})
	assert.Equal(t, StateIdle, d.State())
	assert.Equal(t, 0, d.Pointers())
}

func TestWheel(t *testing.T) {
	r := &recorder{}
	d := NewDetector(r, DefaultOptions(), nil)
	assert.True(t, d.Wheel(geom.Offset{X: 5, Y: 5}, 1))
	require.Len(t, r.changes, 1)
	assert.InDelta(t, 1.1, r.changes[0].Zoom, 1e-9)

	d.SetTypes(TypeDrag)
	assert.False(t, d.Wheel(geom.Offset{}, 1))
}

func TestParseTypes(t *testing.T) {
	tests := []struct {
		in      string
		want    Types
		wantErr bool
	}{
		{"drag", TypeDrag, false},
		{"drag|two_finger_scale", TypeDrag | TypeTwoFingerScale, false},
		{"all", AllTypes, false},
		{"", 0, false},
		{"fly", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTypes(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVelocityTrackerWindow(t *testing.T) {
	var v VelocityTracker
	v.Add(at(0), geom.Offset{})
	v.Add(at(500), geom.Offset{X: 1000})
	v.Add(at(550), geom.Offset{X: 1100})
	assert.InDelta(t, 2000, v.Velocity().X, 1e-6)
}
