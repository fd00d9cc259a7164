// Package mobility replays ns-2 movement traces, the format SUMO exports
// vehicle traces in.
//
// Supported statements:
//
//  $node_(3) set X_ 150.0
//  $node_(3) set Y_ 93.9
//  $node_(3) set Z_ 0.0
//  $ns_ at 4.5 "$node_(3) setdest 160.0 110.0 12.5"
//
// Anything else is ignored.
package mobility

import (
    "bufio"
    "fmt"
    "io"
    "os"
    "regexp"
    "sort"
    "strconv"
    "time"

    "go.uber.org/zap"

    "coesim/pkg/geo"
    "coesim/pkg/sim"
)

var (
    reSet     = regexp.MustCompile(`^\$node_\((\d+)\)\s+set\s+([XYZ])_\s+(\S+)`)
    reSetdest = regexp.MustCompile(`^\$ns_\s+at\s+(\S+)\s+"\$node_\((\d+)\)\s+setdest\s+(\S+)\s+(\S+)\s+(\S+)"`)
)

// Trace holds the movement of every node it mentions.
type Trace struct {
    nodes map[int]*track
}

// segment is straight-line motion from From at Start towards To at Speed m/s.
type segment struct {
    start sim.Time
    from  geo.Position
    to    geo.Position
    speed float64
}

type track struct {
    initial geo.Position
    moves   []setdest
    segs    []segment
}

type setdest struct {
    at    sim.Time
    to    geo.Position
    speed float64
}

// Load parses the trace file at path.
func Load(path string) (*Trace, error) {
    f, err := os.Open(path)
    if err != nil { return nil, err }
    defer f.Close()
    t, err := Parse(f)
    if err != nil { return nil, fmt.Errorf("%s: %w", path, err) }
    zap.L().Info("mobility trace loaded", zap.String("path", path), zap.Int("nodes", len(t.nodes)))
    return t, nil
}

// Parse reads a trace from r.
func Parse(r io.Reader) (*Trace, error) {
    t := &Trace{nodes: make(map[int]*track)}
    sc := bufio.NewScanner(r)
    line := 0
    for sc.Scan() {
        line++
        text := sc.Text()
        if m := reSet.FindStringSubmatch(text); m != nil {
            id, _ := strconv.Atoi(m[1])
            v, err := strconv.ParseFloat(m[3], 64)
            if err != nil { return nil, fmt.Errorf("line %d: %w", line, err) }
            tr := t.track(id)
            switch m[2] {
            case "X":
                tr.initial.X = v
            case "Y":
                tr.initial.Y = v
            case "Z":
                tr.initial.Z = v
            }
            continue
        }
        if m := reSetdest.FindStringSubmatch(text); m != nil {
            var nums [4]float64
            for i, s := range []string{m[1], m[3], m[4], m[5]} {
                v, err := strconv.ParseFloat(s, 64)
                if err != nil { return nil, fmt.Errorf("line %d: %w", line, err) }
                nums[i] = v
            }
            if nums[0] < 0 || nums[3] < 0 { return nil, fmt.Errorf("line %d: negative time or speed", line) }
            id, _ := strconv.Atoi(m[2])
            tr := t.track(id)
            tr.moves = append(tr.moves, setdest{
                at:    sim.Time(sim.Seconds(nums[0])),
                to:    geo.Position{X: nums[1], Y: nums[2], Z: tr.initial.Z},
                speed: nums[3],
            })
        }
    }
    if err := sc.Err(); err != nil { return nil, err }
    for _, tr := range t.nodes { tr.build() }
    return t, nil
}

func (t *Trace) track(id int) *track {
    tr := t.nodes[id]
    if tr == nil {
        tr = &track{}
        t.nodes[id] = tr
    }
    return tr
}

// build turns setdest commands into segments. A new command interrupts the
// current motion at the point reached so far.
func (tr *track) build() {
    sort.SliceStable(tr.moves, func(i, j int) bool { return tr.moves[i].at < tr.moves[j].at })
    tr.segs = tr.segs[:0]
    pos := tr.initial
    for _, mv := range tr.moves {
        if n := len(tr.segs); n > 0 { pos = tr.segs[n-1].at(mv.at) }
        tr.segs = append(tr.segs, segment{start: mv.at, from: pos, to: mv.to, speed: mv.speed})
    }
}

func (s segment) at(t sim.Time) geo.Position {
    if t <= s.start { return s.from }
    dist := s.from.Distance(s.to)
    if dist == 0 || s.speed == 0 { return s.from }
    travelled := s.speed * t.Sub(s.start).Seconds()
    return s.from.Lerp(s.to, travelled/dist)
}

// Nodes returns the node ids present in the trace, ascending.
func (t *Trace) Nodes() []int {
    out := make([]int, 0, len(t.nodes))
    for id := range t.nodes { out = append(out, id) }
    sort.Ints(out)
    return out
}

// Has reports whether node id appears in the trace.
func (t *Trace) Has(id int) bool { _, ok := t.nodes[id]; return ok }

// Position returns where node id is at time at. Unknown nodes report ok=false.
func (t *Trace) Position(id int, at sim.Time) (geo.Position, bool) {
    tr, ok := t.nodes[id]
    if !ok { return geo.Position{}, false }
    i := sort.Search(len(tr.segs), func(i int) bool { return tr.segs[i].start > at })
    if i == 0 { return tr.initial, true }
    return tr.segs[i-1].at(at), true
}

// Speed returns the instantaneous speed of node id in m/s.
func (t *Trace) Speed(id int, at sim.Time) float64 {
    tr, ok := t.nodes[id]
    if !ok { return 0 }
    i := sort.Search(len(tr.segs), func(i int) bool { return tr.segs[i].start > at })
    if i == 0 { return 0 }
    s := tr.segs[i-1]
    if s.speed == 0 { return 0 }
    arrive := s.start.Add(time.Duration(s.from.Distance(s.to) / s.speed * float64(time.Second)))
    if at >= arrive { return 0 }
    return s.speed
}
