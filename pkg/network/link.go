package network

import (
    "time"

    "coesim/pkg/sim"
)

// link models one outgoing interface: a fixed propagation latency plus
// serialization at rate bits per second. Frames leave in order; a frame
// queued while the interface is busy waits for the previous one.
type link struct {
    latency time.Duration
    bps     float64
    busy    sim.Time
}

func newLink(latency time.Duration, mbps float64) *link {
    return &link{latency: latency, bps: mbps * 1e6}
}

// transmit reserves the interface for size bytes starting at now and returns
// when the last bit reaches the other end.
func (l *link) transmit(now sim.Time, size int) sim.Time {
    start := now
    if l.busy > start { start = l.busy }
    var tx time.Duration
    if l.bps > 0 {
        tx = sim.Seconds(float64(size*8) / l.bps)
    }
    l.busy = start.Add(tx)
    return l.busy.Add(l.latency)
}
