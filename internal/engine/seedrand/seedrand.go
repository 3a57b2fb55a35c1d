// Package seedrand provides the deterministic generator behind seeded
// content selection: a 53-bit string hash feeding a small xorshift-style
// generator. Outputs are bit-identical across machines, runs, and call
// orders, which lets independent participants agree on randomly scheduled
// days without any coordination.
package seedrand

// Hash53 hashes a string into a 53-bit value using two 32-bit accumulators
// with multiplicative mixing and a final xor-fold combine. seed varies the
// hash family; pass 0 for the default.
func Hash53(s string, seed uint32) int64 {
	h1 := 0xdeadbeef ^ seed
	h2 := 0x41c6ce57 ^ seed
	for i := 0; i < len(s); i++ {
		ch := uint32(s[i])
		h1 = (h1 ^ ch) * 2654435761
		h2 = (h2 ^ ch) * 1597334677
	}
	h1 = (h1 ^ h1>>16) * 2246822507
	h1 ^= (h2 ^ h2>>13) * 3266489909
	h2 = (h2 ^ h2>>16) * 2246822507
	h2 ^= (h1 ^ h1>>13) * 3266489909
	return int64(h2&0x1fffff)<<32 | int64(h1)
}

// Source is a deterministic generator over 32-bit state. It is not
// cryptographic and not safe for concurrent use; create one per
// evaluation.
type Source struct {
	state uint32
}

// New returns a Source seeded from a Hash53 value.
func New(seed int64) *Source {
	return &Source{state: uint32(seed)}
}

// Float64 returns the next value in [0, 1).
func (s *Source) Float64() float64 {
	s.state += 0x6d2b79f5
	t := s.state
	t = (t ^ t>>15) * (t | 1)
	t ^= t + (t^t>>7)*(t|61)
	return float64(t^t>>14) / 4294967296
}

// Intn returns a deterministic value in [0, n). n must be positive.
func (s *Source) Intn(n int) int {
	return int(s.Float64() * float64(n))
}

// Shuffle permutes n elements through the given swap function using a
// Fisher-Yates pass, mirroring the math/rand Shuffle contract.
func (s *Source) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		swap(i, s.Intn(i+1))
	}
}
