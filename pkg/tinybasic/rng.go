package tinybasic

// LCG is the linear congruential generator behind RND. Each interpreter
// owns one, so runs with the same seed are reproducible.
type LCG struct {
	state uint32
}

// NewLCG returns a generator starting at seed.
func NewLCG(seed uint32) *LCG {
	return &LCG{state: seed}
}

// Intn advances the generator and returns a value in [0, n). n must be > 0.
func (g *LCG) Intn(n int32) int32 {
	g.state = g.state*1103515245 + 12345
	return int32((g.state / 65536) % uint32(n))
}
