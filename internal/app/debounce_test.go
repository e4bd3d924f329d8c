package app

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type collector struct {
	mu     sync.Mutex
	values []string
}

func (c *collector) add(v string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.values = append(c.values, v)
}

func (c *collector) get() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]string(nil), c.values...)
}

func TestDebouncer_CoalescesBurstIntoLastValue(t *testing.T) {
	sched := &fakeScheduler{}
	got := &collector{}
	d := NewDebouncer(300*time.Millisecond, sched, got.add)

	for _, q := range []string{"l", "lo", "lov", "love"} {
		d.Trigger(q)
	}

	assert.True(t, d.Pending())
	assert.Equal(t, 4, sched.scheduled(), "each keystroke restarts the window")
	assert.Equal(t, 1, sched.fireAll(), "only the last timer survives")
	assert.Equal(t, []string{"love"}, got.get())
	assert.False(t, d.Pending())

	assert.Zero(t, sched.fireAll())
	assert.Equal(t, []string{"love"}, got.get())
}

func TestDebouncer_WindowIsConfigured(t *testing.T) {
	sched := &fakeScheduler{}
	d := NewDebouncer(75*time.Millisecond, sched, func(string) {})

	d.Trigger("x")

	require.Equal(t, 1, sched.scheduled())
	assert.Equal(t, 75*time.Millisecond, sched.timers[0].d)
}

func TestDebouncer_Cancel(t *testing.T) {
	sched := &fakeScheduler{}
	got := &collector{}
	d := NewDebouncer(time.Second, sched, got.add)

	assert.False(t, d.Cancel())

	d.Trigger("a")
	assert.True(t, d.Cancel())
	assert.Zero(t, sched.fireAll())
	assert.Empty(t, got.get())
}

func TestDebouncer_StaleCallbackIsIgnored(t *testing.T) {
	sched := &fakeScheduler{}
	got := &collector{}
	d := NewDebouncer(time.Second, sched, got.add)

	d.Trigger("old")
	stale := sched.timers[0].f

	d.Trigger("new")

	// The runtime may run a timer that raced with Stop.
	stale()
	assert.Empty(t, got.get())

	sched.fireAll()
	assert.Equal(t, []string{"new"}, got.get())
}

func TestDebouncer_CloseDropsPendingAndLaterTriggers(t *testing.T) {
	sched := &fakeScheduler{}
	got := &collector{}
	d := NewDebouncer(time.Second, sched, got.add)

	d.Trigger("a")
	d.Close()
	d.Trigger("b")

	assert.Zero(t, sched.fireAll())
	assert.Equal(t, 1, sched.scheduled())
	assert.Empty(t, got.get())
}

func TestDebouncer_ZeroWindowFiresImmediately(t *testing.T) {
	sched := &fakeScheduler{}
	got := &collector{}
	d := NewDebouncer(0, sched, got.add)

	d.Trigger("a")
	d.Trigger("b")

	assert.Equal(t, []string{"a", "b"}, got.get())
	assert.Zero(t, sched.scheduled())
}

func TestDebouncer_SystemScheduler(t *testing.T) {
	defer goleak.VerifyNone(t)

	fired := make(chan string, 4)
	d := NewDebouncer(20*time.Millisecond, nil, func(v string) { fired <- v })

	d.Trigger("a")
	d.Trigger("ab")
	d.Trigger("abc")

	select {
	case v := <-fired:
		assert.Equal(t, "abc", v)
	case <-time.After(2 * time.Second):
		t.Fatal("debounced call never fired")
	}

	select {
	case v := <-fired:
		t.Fatalf("unexpected second call with %q", v)
	case <-time.After(60 * time.Millisecond):
	}

	d.Trigger("pending at close")
	d.Close()
}
