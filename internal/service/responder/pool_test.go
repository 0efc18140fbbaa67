package responder

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSeededPool(t *testing.T, variants ...string) *Pool {
	t.Helper()
	r := rand.New(rand.NewPCG(7, 11))
	pool, err := NewPool(variants, r.IntN)
	require.NoError(t, err)
	return pool
}

func TestNewPoolRejectsBadVariants(t *testing.T) {
	_, err := NewPool(nil, nil)
	assert.ErrorIs(t, err, ErrInvalidPool)

	_, err = NewPool([]string{"a", "a"}, nil)
	assert.ErrorIs(t, err, ErrInvalidPool)

	_, err = NewPool([]string{"a", "  "}, nil)
	assert.ErrorIs(t, err, ErrInvalidPool)
}

func TestPickServesEveryVariantOncePerCycle(t *testing.T) {
	pool := newSeededPool(t, "a", "b", "c", "d")

	seen := map[string]bool{}
	for i := 0; i < pool.Len(); i++ {
		got := pool.Pick()
		assert.False(t, seen[got], "variant %q served twice in one cycle", got)
		seen[got] = true
	}
	assert.Len(t, seen, 4)
	assert.Equal(t, 0, pool.Remaining())
}

func TestPickNeverRepeatsBackToBackWithinCycle(t *testing.T) {
	for seed := uint64(0); seed < 50; seed++ {
		r := rand.New(rand.NewPCG(seed, seed+1))
		pool, err := NewPool([]string{"x", "y", "z"}, r.IntN)
		require.NoError(t, err)

		prev := ""
		for i := 0; i < pool.Len(); i++ {
			got := pool.Pick()
			require.NotEqual(t, prev, got)
			prev = got
		}
	}
}

func TestPickResetsAfterExhaustion(t *testing.T) {
	pool := newSeededPool(t, "a", "b", "c")
	for i := 0; i < 3; i++ {
		pool.Pick()
	}
	require.Equal(t, 0, pool.Remaining())

	got := pool.Pick()
	assert.Contains(t, []string{"a", "b", "c"}, got)
	assert.Equal(t, []string{got}, pool.Used())
	assert.Equal(t, 2, pool.Remaining())
}

func TestSingleVariantPoolKeepsServing(t *testing.T) {
	pool := newSeededPool(t, "only")
	for i := 0; i < 5; i++ {
		assert.Equal(t, "only", pool.Pick())
		assert.Equal(t, []string{"only"}, pool.Used())
	}
}

func TestPickUsesFirstAvailableWithDeterministicSource(t *testing.T) {
	pool, err := NewPool([]string{"a", "b", "c"}, func(int) int { return 0 })
	require.NoError(t, err)

	assert.Equal(t, "a", pool.Pick())
	assert.Equal(t, "b", pool.Pick())
	assert.Equal(t, "c", pool.Pick())
	assert.Equal(t, "a", pool.Pick())
}

func TestResetClearsUsed(t *testing.T) {
	pool := newSeededPool(t, "a", "b")
	pool.Pick()
	pool.Reset()
	assert.Empty(t, pool.Used())
	assert.Equal(t, 2, pool.Remaining())
}
