package neighbors

import (
    "testing"
    "time"

    "coesim/pkg/protocol"
    "coesim/pkg/sim"
)

func at(ms int) sim.Time { return sim.Time(time.Duration(ms) * time.Millisecond) }

func entry(id uint32, ms int) Entry {
    return Entry{VehicleID: id, Addr: protocol.HostAddr(0x07000000+id, protocol.PortTask), LastBeaconAt: at(ms)}
}

func TestUpsertRefreshKeepsSingleEntry(t *testing.T) {
    tb := New()
    if !tb.Upsert(entry(1, 0)) { t.Fatalf("first upsert should create") }
    if tb.Upsert(entry(1, 100)) { t.Fatalf("second upsert should refresh") }
    if tb.Len() != 1 { t.Fatalf("len = %d", tb.Len()) }
    e, ok := tb.Get(entry(1, 0).Key())
    if !ok || e.LastBeaconAt != at(100) || e.FirstSeenAt != at(0) { t.Fatalf("unexpected entry %+v", e) }
}

func TestRemove(t *testing.T) {
    tb := New()
    for id := uint32(1); id <= 3; id++ { tb.Upsert(entry(id, 0)) }
    if _, ok := tb.Remove(entry(2, 0).Key()); !ok { t.Fatalf("remove existing failed") }
    if _, ok := tb.Remove(entry(2, 0).Key()); ok { t.Fatalf("double remove succeeded") }
    if _, ok := tb.Get(entry(3, 0).Key()); !ok { t.Fatalf("index not rebuilt after removal") }
    snap := tb.Snapshot()
    if len(snap) != 2 || snap[0].VehicleID != 1 || snap[1].VehicleID != 3 { t.Fatalf("order broken: %+v", snap) }
}

func TestSweepStalenessBoundary(t *testing.T) {
    tb := New()
    tb.Upsert(entry(1, 0))
    tb.Upsert(entry(2, 50))

    if got := tb.Sweep(at(499), 500*time.Millisecond); len(got) != 0 { t.Fatalf("evicted too early: %+v", got) }
    got := tb.Sweep(at(500), 500*time.Millisecond)
    if len(got) != 1 || got[0].VehicleID != 1 { t.Fatalf("want vehicle 1 evicted at exactly 500ms, got %+v", got) }
    if tb.Len() != 1 { t.Fatalf("len = %d", tb.Len()) }
    got = tb.Sweep(at(600), 500*time.Millisecond)
    if len(got) != 1 || got[0].VehicleID != 2 || tb.Len() != 0 { t.Fatalf("vehicle 2 should be evicted by 600ms") }
}

func TestSweepEvictsAllStaleAtOnce(t *testing.T) {
    tb := New()
    for id := uint32(1); id <= 5; id++ { tb.Upsert(entry(id, 0)) }
    tb.Upsert(entry(6, 400))
    if got := tb.Sweep(at(700), 500*time.Millisecond); len(got) != 5 { t.Fatalf("evicted %d, want 5", len(got)) }
    if _, ok := tb.Get(entry(6, 0).Key()); !ok { t.Fatalf("fresh entry lost") }
}

func TestPickIsUniformOverEntries(t *testing.T) {
    tb := New()
    if _, ok := tb.Pick(func(int) int { return 0 }); ok { t.Fatalf("pick on empty table") }
    for id := uint32(1); id <= 4; id++ { tb.Upsert(entry(id, 0)) }
    r := sim.NewRand(1, "pick")
    seen := map[uint32]int{}
    for i := 0; i < 4000; i++ {
        e, _ := tb.Pick(r.Intn)
        seen[e.VehicleID]++
    }
    for id := uint32(1); id <= 4; id++ {
        if seen[id] < 800 || seen[id] > 1200 { t.Fatalf("vehicle %d picked %d times", id, seen[id]) }
    }
    if tb.Len() != 4 { t.Fatalf("pick must not remove") }
}
