package node

import (
    "fmt"
    "strings"

    "coesim/pkg/protocol"
)

// Strategy selects how the edge places incoming tasks.
type Strategy int

const (
    // StrategyRandom picks uniformly among the tiers that can take the task.
    StrategyRandom Strategy = iota
    // StrategyVCCFirst prefers a vehicle, then the edge, then the cloud.
    StrategyVCCFirst
    // StrategyECAndCC uses the edge while it has room, then the cloud.
    StrategyECAndCC
    // StrategyVCCAndCC uses a vehicle when one is known, then the cloud.
    StrategyVCCAndCC
)

func (s Strategy) String() string {
    switch s {
    case StrategyRandom:
        return "Random"
    case StrategyVCCFirst:
        return "VCCFirst"
    case StrategyECAndCC:
        return "EC_and_CC"
    case StrategyVCCAndCC:
        return "VCC_and_CC"
    default:
        return fmt.Sprintf("Strategy(%d)", int(s))
    }
}

// ParseStrategy maps a configured name to a Strategy, ignoring case.
func ParseStrategy(name string) (Strategy, error) {
    for _, s := range []Strategy{StrategyRandom, StrategyVCCFirst, StrategyECAndCC, StrategyVCCAndCC} {
        if strings.EqualFold(strings.TrimSpace(name), s.String()) { return s, nil }
    }
    return 0, fmt.Errorf("unknown strategy %q", name)
}

// tiers returns the fallback order of a priority strategy. The cloud is
// always last and always accepts.
func (s Strategy) tiers() []protocol.Placement {
    switch s {
    case StrategyVCCFirst:
        return []protocol.Placement{protocol.PlacementVehicle, protocol.PlacementEdge, protocol.PlacementCloud}
    case StrategyECAndCC:
        return []protocol.Placement{protocol.PlacementEdge, protocol.PlacementCloud}
    case StrategyVCCAndCC:
        return []protocol.Placement{protocol.PlacementVehicle, protocol.PlacementCloud}
    default:
        return []protocol.Placement{protocol.PlacementCloud}
    }
}

// availability is what a policy may look at when placing a task.
type availability struct {
    edgeQueueLen int
    edgeQueueCap int
    neighbors    int
}

func (a availability) edgeHasRoom() bool { return a.edgeQueueLen < a.edgeQueueCap }

// priorityPlacement returns the first tier of order that can take a task.
func priorityPlacement(order []protocol.Placement, a availability) protocol.Placement {
    for _, p := range order {
        switch p {
        case protocol.PlacementVehicle:
            if a.neighbors > 0 { return p }
        case protocol.PlacementEdge:
            if a.edgeHasRoom() { return p }
        case protocol.PlacementCloud:
            return p
        }
    }
    return protocol.PlacementCloud
}

// randomPlacement draws uniformly over a contiguous index range of
// {0=Edge, 1=Cloud, 2=Vehicle}. A full edge queue removes index 0, an empty
// neighbor table removes index 2, and with both gone the cloud is the only
// choice. intRange must return a value in [min, max].
func randomPlacement(a availability, intRange func(min, max int) int) protocol.Placement {
    // compared against a fixed 100 before the capacity became configurable
    edgeOut := a.edgeQueueLen == a.edgeQueueCap
    vehicleOut := a.neighbors == 0
    if edgeOut && vehicleOut { return protocol.PlacementCloud }
    lo, hi := 0, 2
    if edgeOut { lo = 1 }
    if vehicleOut { hi = 1 }
    return protocol.Placements[intRange(lo, hi)]
}

// decide applies the strategy.
func (s Strategy) decide(a availability, intRange func(min, max int) int) protocol.Placement {
    if s == StrategyRandom { return randomPlacement(a, intRange) }
    return priorityPlacement(s.tiers(), a)
}
