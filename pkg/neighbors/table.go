// Package neighbors keeps the edge node's view of vehicles that recently
// advertised spare capacity.
package neighbors

import (
    "time"

    "go.uber.org/zap"

    "coesim/pkg/geo"
    "coesim/pkg/protocol"
    "coesim/pkg/sim"
)

// Entry is one reachable vehicle.
type Entry struct {
    VehicleID    uint32        `json:"vehicle_id"`
    Addr         protocol.Addr `json:"addr"`
    LastBeaconAt sim.Time      `json:"last_beacon_at"`
    Position     geo.Position  `json:"position"`
    // FirstSeenAt is when the current entry was created; used for dwell time.
    FirstSeenAt sim.Time `json:"first_seen_at"`
}

// Key identifies an entry. A vehicle may appear once per address.
type Key struct {
    VehicleID uint32
    Addr      protocol.Addr
}

func (e Entry) Key() Key { return Key{VehicleID: e.VehicleID, Addr: e.Addr} }

// Table is an insertion-ordered set of entries. Ordering keeps random
// selection reproducible for a given seed. It is owned by the event loop and
// takes no locks.
type Table struct {
    entries []Entry
    index   map[Key]int
}

// New returns an empty table.
func New() *Table { return &Table{index: make(map[Key]int)} }

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.entries) }

// Get returns the entry for k.
func (t *Table) Get(k Key) (Entry, bool) {
    i, ok := t.index[k]
    if !ok { return Entry{}, false }
    return t.entries[i], true
}

// Upsert creates or refreshes an entry. It reports whether the entry is new.
func (t *Table) Upsert(e Entry) bool {
    k := e.Key()
    if i, ok := t.index[k]; ok {
        e.FirstSeenAt = t.entries[i].FirstSeenAt
        t.entries[i] = e
        zap.L().Debug("neighbor refresh", zap.Uint32("vehicle", e.VehicleID), zap.Stringer("addr", e.Addr), zap.Stringer("at", e.LastBeaconAt))
        return false
    }
    if e.FirstSeenAt == 0 { e.FirstSeenAt = e.LastBeaconAt }
    t.index[k] = len(t.entries)
    t.entries = append(t.entries, e)
    zap.L().Debug("neighbor added", zap.Uint32("vehicle", e.VehicleID), zap.Stringer("addr", e.Addr), zap.Int("size", len(t.entries)))
    return true
}

// Remove deletes the entry for k and returns it.
func (t *Table) Remove(k Key) (Entry, bool) {
    i, ok := t.index[k]
    if !ok { return Entry{}, false }
    e := t.entries[i]
    copy(t.entries[i:], t.entries[i+1:])
    t.entries = t.entries[:len(t.entries)-1]
    delete(t.index, k)
    for j := i; j < len(t.entries); j++ { t.index[t.entries[j].Key()] = j }
    zap.L().Debug("neighbor removed", zap.Uint32("vehicle", e.VehicleID), zap.Stringer("addr", e.Addr), zap.Int("size", len(t.entries)))
    return e, true
}

// Pick returns a uniformly chosen entry using intn, which must return a
// value in [0, n). The entry stays in the table.
func (t *Table) Pick(intn func(n int) int) (Entry, bool) {
    if len(t.entries) == 0 { return Entry{}, false }
    return t.entries[intn(len(t.entries))], true
}

// Sweep evicts every entry whose last beacon is at least maxAge old and
// returns the evicted entries in table order.
func (t *Table) Sweep(now sim.Time, maxAge time.Duration) []Entry {
    var stale []Entry
    keep := t.entries[:0]
    for _, e := range t.entries {
        if now.Sub(e.LastBeaconAt) >= maxAge {
            stale = append(stale, e)
            continue
        }
        keep = append(keep, e)
    }
    if len(stale) == 0 { return nil }
    clear(t.entries[len(keep):])
    t.entries = keep
    clear(t.index)
    for i, e := range t.entries { t.index[e.Key()] = i }
    for _, e := range stale {
        zap.L().Debug("neighbor stale", zap.Uint32("vehicle", e.VehicleID), zap.Stringer("addr", e.Addr), zap.Duration("age", now.Sub(e.LastBeaconAt)))
    }
    return stale
}

// Snapshot returns a copy of the entries in table order.
func (t *Table) Snapshot() []Entry { return append([]Entry(nil), t.entries...) }
