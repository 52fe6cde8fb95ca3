package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequentialIDs_StartsAtOne(t *testing.T) {
	ids := NewSequentialIDs()
	assert.Equal(t, uint64(0), ids.Current())
	assert.Equal(t, "00000000-0000-0000-0000-000000000001", ids.Next().String())
	assert.Equal(t, "00000000-0000-0000-0000-000000000002", ids.Next().String())
	assert.Equal(t, uint64(2), ids.Current())
}

func TestSequentialIDs_Reset(t *testing.T) {
	ids := NewSequentialIDs()
	ids.Next()
	ids.Next()

	ids.Reset()
	assert.Equal(t, uint64(0), ids.Current())
	assert.Equal(t, ID(1), ids.Next())
}

func TestID_Hex(t *testing.T) {
	assert.Equal(t, "00000000-0000-0000-0000-0000000000ff", ID(255).String())
}

func TestSequentialIDs_ThreadSafe(t *testing.T) {
	ids := NewSequentialIDs()
	const numGoroutines = 50
	const callsPerGoroutine = 100

	var mu sync.Mutex
	seen := make(map[string]bool)

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < callsPerGoroutine; j++ {
				id := ids.Next().String()
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, seen, numGoroutines*callsPerGoroutine, "every ID must be unique")
	assert.Equal(t, uint64(numGoroutines*callsPerGoroutine), ids.Current())
}
