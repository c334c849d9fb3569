package testutil

import (
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/hupe1980/framecore/internal/contract"
	"github.com/stretchr/testify/require"
)

const keyAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_./"

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// Sizes returns n sizes uniformly drawn from [1, maxSize].
func (r *RNG) Sizes(n, maxSize int) []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]int, n)
	for i := range out {
		out[i] = 1 + r.rand.Intn(maxSize)
	}
	return out
}

// Bytes returns n pseudo-random bytes.
func (r *RNG) Bytes(n int) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]byte, n)
	_, _ = r.rand.Read(out)
	return out
}

// Key returns a printable key with a length in [1, maxLen].
func (r *RNG) Key(maxLen int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.keyLocked(maxLen)
}

func (r *RNG) keyLocked(maxLen int) string {
	n := 1 + r.rand.Intn(maxLen)
	b := make([]byte, n)
	for i := range b {
		b[i] = keyAlphabet[r.rand.Intn(len(keyAlphabet))]
	}
	return string(b)
}

// DistinctKeys returns n unique keys, each at most maxLen bytes long.
// maxLen must leave room for n distinct values.
func (r *RNG) DistinctKeys(n, maxLen int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{}, n)
	out := make([]string, 0, n)
	for len(out) < n {
		k := r.keyLocked(maxLen)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// Zipf generates a Zipf-distributed index in [0, n).
// s > 1 controls skew (higher = more skewed). Typical: s=1.1 to 2.0.
func (r *RNG) Zipf(n int, s float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n <= 1 {
		return 0
	}
	u := r.rand.Float64()
	idx := int(math.Pow(float64(n), math.Pow(u, s))) - 1
	return min(max(idx, 0), n-1)
}

// RequireViolation asserts that fn panics with a contract violation. It
// skips the test when contract checks are compiled out.
func RequireViolation(t testing.TB, fn func()) {
	t.Helper()

	if !contract.Enabled {
		t.Skip("contract checks disabled")
	}

	defer func() {
		t.Helper()
		r := recover()
		require.NotNil(t, r, "expected a contract violation")
		_, ok := r.(*contract.Violation)
		require.True(t, ok, "expected *contract.Violation, got %T: %v", r, r)
	}()

	fn()
}
