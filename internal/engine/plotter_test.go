package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rtsyn-dev/rtsyn/internal/engine"
)

func TestPlotterPacesPushesAtUIHz(t *testing.T) {
	p := engine.NewPlotter(0.001, 10) // refresh interval = 100ms
	base := time.Unix(0, 0)

	p.Push(base, engine.Sample{TimeSeconds: 0, Value: 1})
	p.Push(base.Add(10*time.Millisecond), engine.Sample{TimeSeconds: 0.01, Value: 2})
	p.Push(base.Add(150*time.Millisecond), engine.Sample{TimeSeconds: 0.15, Value: 3})

	samples := p.Samples()
	require.Len(t, samples, 2, "the second push landed inside the refresh interval and must be dropped")
	require.Equal(t, 1.0, samples[0].Value)
	require.Equal(t, 3.0, samples[1].Value)
}

func TestPlotterCapacityHasA128Floor(t *testing.T) {
	p := engine.NewPlotter(1, 1) // uiInterval/period = 1 -> raw cap well under the floor
	now := time.Unix(0, 0)
	for i := 0; i < 200; i++ {
		now = now.Add(time.Second)
		p.Push(now, engine.Sample{TimeSeconds: float64(i), Value: float64(i)})
	}
	samples := p.Samples()
	require.Len(t, samples, 128)
	require.Equal(t, float64(199), samples[len(samples)-1].Value)
}

func TestPlotterCapacityHas20000Ceiling(t *testing.T) {
	p := engine.NewPlotter(1e-9, 1) // raw cap far exceeds the ceiling
	now := time.Unix(0, 0)
	for i := 0; i < 20010; i++ {
		now = now.Add(time.Second)
		p.Push(now, engine.Sample{TimeSeconds: float64(i), Value: float64(i)})
	}
	samples := p.Samples()
	require.Len(t, samples, 20000)
	require.Equal(t, float64(20009), samples[len(samples)-1].Value)
}

func TestPlotterDrainEmptiesTheRing(t *testing.T) {
	p := engine.NewPlotter(0.001, 10)
	base := time.Unix(0, 0)
	p.Push(base, engine.Sample{TimeSeconds: 0, Value: 1})
	p.Push(base.Add(150*time.Millisecond), engine.Sample{TimeSeconds: 0.15, Value: 2})

	drained := p.Drain()
	require.Len(t, drained, 2)
	require.Empty(t, p.Samples(), "a drain must leave nothing behind for the next batch")

	p.Push(base.Add(400*time.Millisecond), engine.Sample{TimeSeconds: 0.4, Value: 3})
	require.Equal(t, []engine.Sample{{TimeSeconds: 0.4, Value: 3}}, p.Drain())
}

func TestPlotterResizeKeepsMostRecentSamples(t *testing.T) {
	p := engine.NewPlotter(1, 1) // cap 128
	now := time.Unix(0, 0)
	for i := 0; i < 128; i++ {
		now = now.Add(time.Second)
		p.Push(now, engine.Sample{TimeSeconds: float64(i), Value: float64(i)})
	}
	p.Resize(1, 60) // shrinks cap back toward the 128 floor regardless
	samples := p.Samples()
	require.LessOrEqual(t, len(samples), 128)
	require.Equal(t, float64(127), samples[len(samples)-1].Value)
}
