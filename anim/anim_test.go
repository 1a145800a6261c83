package anim

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zoomimage/geom"
)

func TestTweenRunsToCompletion(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	var fractions []float64
	ended := 0
	canceled := false

	var d Driver
	d.Start(&Tween{
		Duration: 100 * time.Millisecond,
		Easing:   Linear,
		OnUpdate: func(f float64) { fractions = append(fractions, f) },
		OnEnd: func(c bool) {
			ended++
			canceled = c
		},
	}, clock.Now())

	require.True(t, d.Running())
	d.Tick(clock.Advance(50 * time.Millisecond))
	assert.True(t, d.Running())
	d.Tick(clock.Advance(60 * time.Millisecond))
	assert.False(t, d.Running())

	assert.Equal(t, []float64{0, 0.5, 1}, fractions)
	assert.Equal(t, 1, ended)
	assert.False(t, canceled)
}

func TestDriverStartCancelsPrevious(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	var d Driver

	firstCanceled := false
	d.Start(&Tween{Duration: time.Second, OnEnd: func(c bool) { firstCanceled = c }}, clock.Now())

	secondUpdates := 0
	d.Start(&Tween{Duration: time.Second, OnUpdate: func(float64) { secondUpdates++ }}, clock.Now())

	assert.True(t, firstCanceled)
	d.Tick(clock.Advance(100 * time.Millisecond))
	assert.Equal(t, 2, secondUpdates)

	d.Stop()
	assert.False(t, d.Running())
	assert.False(t, d.Tick(clock.Advance(time.Second)))
}

func TestZeroDurationTween(t *testing.T) {
	var got float64
	var d Driver
	d.Start(&Tween{OnUpdate: func(f float64) { got = f }}, time.Now())
	assert.Equal(t, 1.0, got)
	assert.False(t, d.Running())
}

func TestFastOutSlowIn(t *testing.T) {
	assert.Equal(t, 0.0, FastOutSlowIn(0))
	assert.Equal(t, 1.0, FastOutSlowIn(1))
	prev := 0.0
	for i := 1; i <= 20; i++ {
		v := FastOutSlowIn(float64(i) / 20)
		assert.GreaterOrEqual(t, v, prev)
		prev = v
	}
	assert.Greater(t, FastOutSlowIn(0.5), 0.5)
}

func TestDecayTravelsAndStops(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	var total geom.Offset
	ended := false

	var d Driver
	d.Start(&Decay{
		Velocity: geom.Offset{X: 1000},
		Friction: -4.2,
		OnDelta: func(delta geom.Offset) bool {
			total = total.Add(delta)
			return true
		},
		OnEnd: func(bool) { ended = true },
	}, clock.Now())

	for i := 0; i < 600 && d.Running(); i++ {
		d.Tick(clock.Advance(16 * time.Millisecond))
	}

	assert.True(t, ended)
	expected := DecayDistance(1000, -4.2)
	assert.InDelta(t, expected, total.X, 1)
	assert.Equal(t, 0.0, total.Y)
}

func TestDecayStopsWhenBlocked(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	calls := 0
	var d Driver
	d.Start(&Decay{
		Velocity: geom.Offset{X: 5000, Y: 5000},
		OnDelta: func(geom.Offset) bool {
			calls++
			return false
		},
	}, clock.Now())
	d.Tick(clock.Advance(16 * time.Millisecond))
	assert.False(t, d.Running())
	assert.Equal(t, 1, calls)
	assert.False(t, math.IsNaN(DecayDistance(10, 0)))
}
