package mocks

import (
	"sync"

	"github.com/mcoot/connectaword/internal/dependencies/random"
)

// MockRandom is a mock implementation of Random for testing.
// Shuffle leaves the order unchanged unless a permutation is queued.
type MockRandom struct {
	mu sync.Mutex

	// IntnResults is a queue of results to return from Intn
	IntnResults []int
	intnIndex   int

	// Permutations is a queue of index orders applied by Shuffle
	Permutations [][]int
	permIndex    int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Intn returns the next queued result, or 0 if none remaining
func (r *MockRandom) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.intnIndex >= len(r.IntnResults) {
		return 0
	}
	result := r.IntnResults[r.intnIndex]
	r.intnIndex++
	return result
}

// Shuffle applies the next queued permutation, or does nothing if none remaining.
// A permutation lists, for each output position, the input index to place there.
func (r *MockRandom) Shuffle(n int, swap func(i, j int)) {
	r.mu.Lock()
	if r.permIndex >= len(r.Permutations) {
		r.mu.Unlock()
		return
	}
	perm := r.Permutations[r.permIndex]
	r.permIndex++
	r.mu.Unlock()

	// pos[k] tracks where original element k currently sits
	pos := make([]int, n)
	at := make([]int, n)
	for i := range pos {
		pos[i] = i
		at[i] = i
	}
	for target, src := range perm {
		if target >= n || src >= n {
			break
		}
		from := pos[src]
		if from == target {
			continue
		}
		swap(target, from)
		displaced := at[target]
		at[target], at[from] = src, displaced
		pos[src], pos[displaced] = target, from
	}
}

// QueueIntn adds values to the Intn result queue
func (r *MockRandom) QueueIntn(values ...int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.IntnResults = append(r.IntnResults, values...)
}

// QueuePermutation adds an index order to the Shuffle queue
func (r *MockRandom) QueuePermutation(perm ...int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Permutations = append(r.Permutations, perm)
}
