package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManual_FiresInOrder(t *testing.T) {
	m := NewManual()
	var order []string

	m.After(30*time.Millisecond, func() { order = append(order, "c") })
	m.After(10*time.Millisecond, func() { order = append(order, "a") })
	m.After(20*time.Millisecond, func() { order = append(order, "b") })

	m.Advance(15 * time.Millisecond)
	assert.Equal(t, []string{"a"}, order)
	assert.Equal(t, 2, m.Pending())

	m.Advance(100 * time.Millisecond)
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, 0, m.Pending())
	assert.Equal(t, 115*time.Millisecond, m.Now())
}

func TestManual_StopPreventsFiring(t *testing.T) {
	m := NewManual()
	fired := false

	timer := m.After(time.Second, func() { fired = true })
	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())

	m.Advance(2 * time.Second)
	assert.False(t, fired)
}

func TestManual_NestedScheduling(t *testing.T) {
	m := NewManual()
	count := 0

	var again func()
	again = func() {
		count++
		if count < 5 {
			m.After(10*time.Millisecond, again)
		}
	}
	m.After(10*time.Millisecond, again)

	m.Advance(50 * time.Millisecond)
	assert.Equal(t, 5, count)
}

func TestLoop_RunsCallbacksOnLoopGoroutine(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()

	var fired atomic.Int32
	done := make(chan struct{})
	l.After(5*time.Millisecond, func() {
		fired.Add(1)
		close(done)
	})

	stopped := l.After(time.Hour, func() { fired.Add(100) })
	assert.True(t, stopped.Stop())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop callback did not run")
	}

	l.Close()
	require.NoError(t, <-errCh)
	assert.Equal(t, int32(1), fired.Load())
}

func TestPipeline_ProgressAndStages(t *testing.T) {
	m := NewManual()
	var reports []Progress
	done := 0

	p := StartPipeline(m, PipelineSpec{
		Name:     "analysis",
		Stages:   []string{"one", "two", "three", "four"},
		Duration: 2 * time.Second,
		Ticks:    8,
	}, func(_ *Pipeline, pr Progress) {
		reports = append(reports, pr)
	}, func(_ *Pipeline) {
		done++
	})

	m.Advance(time.Second)
	require.Len(t, reports, 4)
	assert.Equal(t, 50, reports[3].Percent)
	assert.Equal(t, "three", reports[3].Stage)
	assert.Equal(t, 0, done)

	m.Advance(time.Second)
	require.Len(t, reports, 8)
	assert.Equal(t, 100, reports[7].Percent)
	assert.Equal(t, "four", reports[7].Stage)
	assert.Equal(t, 1, done)
	assert.True(t, p.Finished())
	assert.False(t, p.Cancel())
}

func TestPipeline_CancelStopsCallbacks(t *testing.T) {
	m := NewManual()
	ticks := 0
	done := false

	p := StartPipeline(m, PipelineSpec{Name: "x", Duration: time.Second, Ticks: 10},
		func(*Pipeline, Progress) { ticks++ },
		func(*Pipeline) { done = true })

	m.Advance(300 * time.Millisecond)
	assert.Equal(t, 3, ticks)

	assert.True(t, p.Cancel())
	m.Advance(5 * time.Second)

	assert.Equal(t, 3, ticks)
	assert.False(t, done)
	assert.True(t, p.Cancelled())
	assert.Equal(t, 0, m.Pending())
}
