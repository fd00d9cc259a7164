// Package geo holds the planar geometry shared by configuration, mobility
// traces and beacons.
package geo

import (
    "fmt"
    "math"
)

// Position is a point in metres.
type Position struct {
    X float64 `mapstructure:"x" yaml:"x" json:"x"`
    Y float64 `mapstructure:"y" yaml:"y" json:"y"`
    Z float64 `mapstructure:"z" yaml:"z" json:"z"`
}

// Distance returns the euclidean distance between p and q.
func (p Position) Distance(q Position) float64 {
    dx, dy, dz := p.X-q.X, p.Y-q.Y, p.Z-q.Z
    return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Lerp returns the point a fraction f of the way from p to q.
func (p Position) Lerp(q Position, f float64) Position {
    if f <= 0 { return p }
    if f >= 1 { return q }
    return Position{X: p.X + (q.X-p.X)*f, Y: p.Y + (q.Y-p.Y)*f, Z: p.Z + (q.Z-p.Z)*f}
}

func (p Position) String() string { return fmt.Sprintf("(%.2f, %.2f, %.2f)", p.X, p.Y, p.Z) }
