package node

import (
    "testing"

    "coesim/pkg/protocol"
)

func TestParseStrategy(t *testing.T) {
    for _, name := range []string{"Random", "vccfirst", " EC_and_CC ", "VCC_AND_CC"} {
        if _, err := ParseStrategy(name); err != nil { t.Fatalf("%q: %v", name, err) }
    }
    if _, err := ParseStrategy("Greedy"); err == nil { t.Fatalf("expected error for unknown strategy") }
}

func TestPriorityStrategies(t *testing.T) {
    roomy := availability{edgeQueueLen: 0, edgeQueueCap: 100, neighbors: 2}
    edgeFull := availability{edgeQueueLen: 100, edgeQueueCap: 100, neighbors: 2}
    lonely := availability{edgeQueueLen: 3, edgeQueueCap: 100}
    starved := availability{edgeQueueLen: 100, edgeQueueCap: 100}

    cases := []struct {
        s    Strategy
        a    availability
        want protocol.Placement
    }{
        {StrategyVCCFirst, roomy, protocol.PlacementVehicle},
        {StrategyVCCFirst, lonely, protocol.PlacementEdge},
        {StrategyVCCFirst, starved, protocol.PlacementCloud},
        {StrategyECAndCC, roomy, protocol.PlacementEdge},
        {StrategyECAndCC, edgeFull, protocol.PlacementCloud},
        {StrategyVCCAndCC, roomy, protocol.PlacementVehicle},
        {StrategyVCCAndCC, lonely, protocol.PlacementCloud},
    }
    for _, c := range cases {
        got := c.s.decide(c.a, func(int, int) int { t.Fatalf("%s drew a random number", c.s); return 0 })
        if got != c.want { t.Fatalf("%s with %+v: got %s want %s", c.s, c.a, got, c.want) }
    }
}

func TestECAndCCNeverPicksVehicle(t *testing.T) {
    for q := 0; q <= 100; q++ {
        a := availability{edgeQueueLen: q, edgeQueueCap: 100, neighbors: 5}
        if p := StrategyECAndCC.decide(a, nil); p == protocol.PlacementVehicle { t.Fatalf("vehicle chosen at queue %d", q) }
    }
}

func TestRandomExcludesUnavailableTiers(t *testing.T) {
    type bounds struct{ lo, hi int }
    cases := []struct {
        a    availability
        want bounds
    }{
        {availability{edgeQueueLen: 0, edgeQueueCap: 100, neighbors: 1}, bounds{0, 2}},
        {availability{edgeQueueLen: 100, edgeQueueCap: 100, neighbors: 1}, bounds{1, 2}},
        {availability{edgeQueueLen: 99, edgeQueueCap: 100}, bounds{0, 1}},
        // the limit follows the configured capacity
        {availability{edgeQueueLen: 5, edgeQueueCap: 5, neighbors: 1}, bounds{1, 2}},
        {availability{edgeQueueLen: 100, edgeQueueCap: 200, neighbors: 1}, bounds{0, 2}},
    }
    for _, c := range cases {
        var got bounds
        StrategyRandom.decide(c.a, func(lo, hi int) int { got = bounds{lo, hi}; return hi })
        if got != c.want { t.Fatalf("%+v: drew from %v want %v", c.a, got, c.want) }
    }

    both := availability{edgeQueueLen: 100, edgeQueueCap: 100}
    p := StrategyRandom.decide(both, func(int, int) int { t.Fatalf("no draw expected"); return 0 })
    if p != protocol.PlacementCloud { t.Fatalf("got %s want cloud", p) }
}

func TestRandomIndexMapping(t *testing.T) {
    a := availability{edgeQueueCap: 100, neighbors: 1}
    want := []protocol.Placement{protocol.PlacementEdge, protocol.PlacementCloud, protocol.PlacementVehicle}
    for i, w := range want {
        if p := StrategyRandom.decide(a, func(int, int) int { return i }); p != w { t.Fatalf("index %d: got %s want %s", i, p, w) }
    }
}
