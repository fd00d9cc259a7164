// Package sim provides the discrete-event core: a virtual clock, an event
// scheduler and seeded random streams.
package sim

import (
    "fmt"
    "math"
    "time"
)

// Time is a point in simulated time, measured from the start of the run.
type Time time.Duration

// Add returns t+d.
func (t Time) Add(d time.Duration) Time { return t + Time(d) }

// Sub returns the duration t-u.
func (t Time) Sub(u Time) time.Duration { return time.Duration(t - u) }

// Seconds returns t as floating point seconds.
func (t Time) Seconds() float64 { return time.Duration(t).Seconds() }

func (t Time) String() string { return fmt.Sprintf("+%s", time.Duration(t)) }

// Seconds converts floating point seconds into a duration, rounded to the
// nearest nanosecond.
func Seconds(s float64) time.Duration {
    return time.Duration(math.Round(s * float64(time.Second)))
}
