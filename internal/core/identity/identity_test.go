package identity

import (
	"encoding/json"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequenceStrictlyIncreasing(t *testing.T) {
	g := NewSequence()

	id1 := g.Next()
	id2 := g.Next()

	assert.Equal(t, Identity(1), id1)
	assert.NotEqual(t, id1, id2)
	assert.True(t, id1.Less(id2))
	assert.Equal(t, -1, id1.Compare(id2))

	prev := id2
	for i := 0; i < 1000; i++ {
		next := g.Next()
		require.Greater(t, next, prev)
		prev = next
	}
	assert.Equal(t, prev, g.Last())
}

func TestSequenceFromIsDeterministic(t *testing.T) {
	a := NewSequenceFrom(41)
	b := NewSequenceFrom(41)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Next(), b.Next())
	}
	assert.Equal(t, Identity(51), a.Last())
}

func TestSequenceObserve(t *testing.T) {
	g := NewSequence()
	g.Next()

	g.Observe(100)
	assert.Equal(t, Identity(101), g.Next())

	// observing an older value does not move the counter back
	g.Observe(5)
	assert.Equal(t, Identity(102), g.Next())
}

func TestSequenceExhaustion(t *testing.T) {
	g := NewSequenceFrom(math.MaxUint64 - 1)
	assert.Equal(t, Identity(math.MaxUint64), g.Next())
	assert.PanicsWithValue(t, ErrIdentitySpaceExhausted, func() { g.Next() })
}

func TestSequenceConcurrentUnique(t *testing.T) {
	g := NewSequence()
	const workers, perWorker = 8, 2000

	var mu sync.Mutex
	seen := make(map[Identity]struct{}, workers*perWorker)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]Identity, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				local = append(local, g.Next())
			}
			mu.Lock()
			for _, id := range local {
				seen[id] = struct{}{}
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
	_, zero := seen[None]
	assert.False(t, zero)
}

func TestIdentityText(t *testing.T) {
	id := Identity(42)
	assert.Equal(t, "#42", id.String())
	assert.True(t, None.IsZero())
	assert.False(t, id.IsZero())

	data, err := json.Marshal(map[Identity]string{id: "x"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"42":"x"}`, string(data))

	var back map[Identity]string
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "x", back[id])

	raw, err := json.Marshal(struct {
		ID Identity `json:"id"`
	}{id})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":42}`, string(raw))

	var decoded struct {
		ID Identity `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"id":"42"}`), &decoded))
	assert.Equal(t, id, decoded.ID)

	parsed, err := Parse("#42")
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = Parse("abc")
	assert.ErrorIs(t, err, ErrInvalidIdentity)
}

func TestDefaultIsProcessWide(t *testing.T) {
	a := Next()
	b := Default().Next()
	assert.Greater(t, b, a)
}

func BenchmarkSequenceNext(b *testing.B) {
	g := NewSequence()
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = g.Next()
	}
}
