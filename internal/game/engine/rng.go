package engine

// RNG is a counter-based generator. Each draw hashes (Seed, Counter) and then
// advances Counter, so a run is reproducible from its seed and the sequence
// of draws alone. It is a plain value and travels inside State.
type RNG struct {
	Seed    uint32 `json:"seed"`
	Counter uint32 `json:"counter"`
}

// NewRNG returns a generator at the start of its sequence.
func NewRNG(seed uint32) RNG {
	return RNG{Seed: seed}
}

// Uint32 returns the next 32-bit draw.
func (r *RNG) Uint32() uint32 {
	x := r.Seed + r.Counter*0x9e3779b9
	x ^= x >> 16
	x *= 0x7feb352d
	x ^= x >> 15
	x *= 0x846ca68b
	x ^= x >> 16
	r.Counter++
	return x
}

// Float64 returns the next draw scaled to [0, 1).
func (r *RNG) Float64() float64 {
	return float64(r.Uint32()) / (1 << 32)
}

// Intn returns the next draw as an integer in [0, n). It panics if n <= 0.
func (r *RNG) Intn(n int) int {
	if n <= 0 {
		panic("engine: RNG.Intn called with n <= 0")
	}
	return int(r.Float64() * float64(n))
}
