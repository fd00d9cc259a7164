package sim

import (
    "container/heap"
    "time"
)

// Event is a callback executed at its scheduled time.
type Event func()

// Scheduler is a single-threaded discrete-event loop. Events are ordered by
// time and, for equal times, by insertion order. It is not safe for
// concurrent use; every callback runs on the goroutine calling Run.
type Scheduler struct {
    now     Time
    seq     uint64
    pq      eventPQ
    stopped bool
    fired   uint64
}

// NewScheduler returns an empty scheduler positioned at time zero.
func NewScheduler() *Scheduler {
    s := &Scheduler{}
    heap.Init(&s.pq)
    return s
}

// Now returns the current simulated time.
func (s *Scheduler) Now() Time { return s.now }

// At schedules fn at absolute time t. Times in the past are clamped to now.
func (s *Scheduler) At(t Time, fn Event) {
    if t < s.now { t = s.now }
    s.seq++
    heap.Push(&s.pq, &scheduled{at: t, seq: s.seq, fn: fn})
}

// After schedules fn d after the current time.
func (s *Scheduler) After(d time.Duration, fn Event) {
    if d < 0 { d = 0 }
    s.At(s.now.Add(d), fn)
}

// Pending reports how many events are waiting.
func (s *Scheduler) Pending() int { return s.pq.Len() }

// Fired reports how many events have been executed.
func (s *Scheduler) Fired() uint64 { return s.fired }

// Step executes the next event. It returns false when nothing is queued.
func (s *Scheduler) Step() bool {
    if s.pq.Len() == 0 { return false }
    ev := heap.Pop(&s.pq).(*scheduled)
    s.now = ev.at
    s.fired++
    ev.fn()
    return true
}

// Run executes events in order until the queue drains, Stop is called, or
// the next event lies beyond until. The clock is left at until when the
// horizon is reached, so Now() reports the end of the run.
func (s *Scheduler) Run(until Time) {
    s.stopped = false
    for !s.stopped && s.pq.Len() > 0 {
        if s.pq[0].at > until { break }
        s.Step()
    }
    if !s.stopped && s.now < until { s.now = until }
}

// Stop ends the current Run after the executing event returns.
func (s *Scheduler) Stop() { s.stopped = true }

type scheduled struct {
    at  Time
    seq uint64
    fn  Event
}

type eventPQ []*scheduled
func (p eventPQ) Len() int { return len(p) }
func (p eventPQ) Less(i, j int) bool {
    if p[i].at != p[j].at { return p[i].at < p[j].at }
    return p[i].seq < p[j].seq
}
func (p eventPQ) Swap(i, j int) { p[i], p[j] = p[j], p[i] }
func (p *eventPQ) Push(x interface{}) { *p = append(*p, x.(*scheduled)) }
func (p *eventPQ) Pop() interface{} {
    old := *p
    n := len(old)
    x := old[n-1]
    old[n-1] = nil
    *p = old[:n-1]
    return x
}
