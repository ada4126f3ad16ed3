package game

import (
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// Timer 可取消的定时任务句柄；*time.Timer 满足该接口
type Timer interface {
	Stop() bool
}

// Scheduler 定时任务调度。实现方必须把回调投递到与其他动作相同的串行执行线上
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
	Every(d time.Duration, fn func()) Timer
}

// FakeClock is deterministic and test-friendly. 它同时是 Scheduler：
// Advance 推进时间并在调用方 goroutine 上依次触发到期任务。
type FakeClock struct {
	mu     sync.Mutex
	t      time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *FakeClock
	at      time.Time
	every   time.Duration
	fn      func()
	stopped bool
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{t: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func (c *FakeClock) AfterFunc(d time.Duration, fn func()) Timer {
	return c.schedule(d, 0, fn)
}

func (c *FakeClock) Every(d time.Duration, fn func()) Timer {
	return c.schedule(d, d, fn)
}

func (c *FakeClock) schedule(d, every time.Duration, fn func()) *fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	ft := &fakeTimer{clock: c, at: c.t.Add(d), every: every, fn: fn}
	c.timers = append(c.timers, ft)
	return ft
}

// Pending 尚未停止的任务数
func (c *FakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, ft := range c.timers {
		if !ft.stopped {
			n++
		}
	}
	return n
}

// Advance 推进时间，按到期先后触发任务（回调内可再调度或取消任务）
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.t.Add(d)
	c.mu.Unlock()
	for {
		c.mu.Lock()
		var next *fakeTimer
		for _, ft := range c.timers {
			if ft.stopped || ft.at.After(target) {
				continue
			}
			if next == nil || ft.at.Before(next.at) {
				next = ft
			}
		}
		if next == nil {
			c.t = target
			c.compactLocked()
			c.mu.Unlock()
			return
		}
		c.t = next.at
		if next.every > 0 {
			next.at = next.at.Add(next.every)
		} else {
			next.stopped = true
		}
		fn := next.fn
		c.mu.Unlock()
		fn()
	}
}

func (c *FakeClock) compactLocked() {
	kept := c.timers[:0]
	for _, ft := range c.timers {
		if !ft.stopped {
			kept = append(kept, ft)
		}
	}
	c.timers = kept
}

func (ft *fakeTimer) Stop() bool {
	ft.clock.mu.Lock()
	defer ft.clock.mu.Unlock()
	was := !ft.stopped
	ft.stopped = true
	return was
}
