package mobility

import (
    "math"
    "strings"
    "testing"
    "time"

    "coesim/pkg/sim"
)

const sample = `# generated by traceExporter
$node_(0) set X_ 0.0
$node_(0) set Y_ 0.0
$node_(0) set Z_ 0.0
$node_(1) set X_ 500.0
$node_(1) set Y_ 10.0
$ns_ at 1.0 "$node_(0) setdest 100.0 0.0 10.0"
$ns_ at 6.0 "$node_(0) setdest 0.0 0.0 5.0"
`

func secs(s float64) sim.Time { return sim.Time(sim.Seconds(s)) }

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestParseAndInterpolate(t *testing.T) {
    tr, err := Parse(strings.NewReader(sample))
    if err != nil { t.Fatalf("parse: %v", err) }
    if got := tr.Nodes(); len(got) != 2 || got[0] != 0 || got[1] != 1 { t.Fatalf("nodes = %v", got) }

    cases := []struct {
        at   float64
        want float64
    }{
        {0.5, 0},   // before first setdest
        {1.0, 0},   // start of motion
        {3.5, 25},  // 2.5 s at 10 m/s
        {6.0, 50},  // interrupted by the second command
        {8.0, 40},  // heading back at 5 m/s
        {20, 0},    // parked back at the origin
    }
    for _, c := range cases {
        p, ok := tr.Position(0, secs(c.at))
        if !ok { t.Fatalf("node 0 missing") }
        if !near(p.X, c.want) || p.Y != 0 { t.Fatalf("t=%v: x=%v want %v", c.at, p.X, c.want) }
    }
    if v := tr.Speed(0, secs(3)); v != 10 { t.Fatalf("speed = %v", v) }
    if v := tr.Speed(0, secs(30)); v != 0 { t.Fatalf("parked speed = %v", v) }
}

func TestStaticNode(t *testing.T) {
    tr, err := Parse(strings.NewReader(sample))
    if err != nil { t.Fatalf("parse: %v", err) }
    p, ok := tr.Position(1, sim.Time(time.Hour))
    if !ok || p.X != 500 || p.Y != 10 { t.Fatalf("static node moved: %v", p) }
    if _, ok := tr.Position(7, 0); ok { t.Fatalf("unknown node reported") }
    if tr.Has(7) || !tr.Has(1) { t.Fatalf("Has mismatch") }
}

func TestParseRejectsBadNumbers(t *testing.T) {
    if _, err := Parse(strings.NewReader(`$node_(0) set X_ abc`)); err == nil { t.Fatalf("expected error") }
    if _, err := Parse(strings.NewReader(`$ns_ at -1 "$node_(0) setdest 1 1 1"`)); err == nil { t.Fatalf("expected error for negative time") }
}
