package sim

import (
    "hash/fnv"
    "math"
    "math/rand/v2"
    "time"
)

// Rand is a reproducible random stream. Streams derived from the same seed
// and name always produce the same sequence, independent of other streams.
type Rand struct {
    r *rand.Rand
}

// NewRand returns the stream identified by (seed, name).
func NewRand(seed uint64, name string) *Rand {
    h := fnv.New64a()
    _, _ = h.Write([]byte(name))
    return &Rand{r: rand.New(rand.NewPCG(seed, h.Sum64()))}
}

// Float64 returns a uniform value in [0,1).
func (r *Rand) Float64() float64 { return r.r.Float64() }

// IntRange returns a uniform integer in [min, max], both inclusive.
func (r *Rand) IntRange(min, max int) int {
    if max <= min { return min }
    return min + r.r.IntN(max-min+1)
}

// Intn returns a uniform integer in [0, n).
func (r *Rand) Intn(n int) int { return r.r.IntN(n) }

// Uniform returns a duration uniformly drawn from [min, max].
func (r *Rand) Uniform(min, max time.Duration) time.Duration {
    if max <= min { return min }
    return min + time.Duration(r.r.Int64N(int64(max-min)+1))
}

// Exponential draws from an exponential distribution with the given mean.
// When bound is positive, draws above it are discarded and redrawn.
func (r *Rand) Exponential(mean, bound time.Duration) time.Duration {
    if mean <= 0 { return 0 }
    for {
        v := -math.Log(1-r.r.Float64()) * float64(mean)
        d := time.Duration(v)
        if bound <= 0 || d <= bound { return d }
    }
}

// Read fills p with random bytes so the stream can feed uuid generation.
func (r *Rand) Read(p []byte) (int, error) {
    for i := 0; i < len(p); i += 8 {
        v := r.r.Uint64()
        for j := 0; j < 8 && i+j < len(p); j++ {
            p[i+j] = byte(v >> (8 * j))
        }
    }
    return len(p), nil
}
