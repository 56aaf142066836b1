package mocks

import (
	"sync"

	"github.com/mcoot/quizroom/internal/dependencies/random"
)

// MockRandom is a mock implementation of Random for testing.
// It is safe for use from several sessions at once.
type MockRandom struct {
	mu sync.Mutex

	// Uint32Results is a queue of results to return from Uint32
	Uint32Results []uint32
	uint32Index   int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Uint32 returns the next queued result, or 0 if none remaining
func (r *MockRandom) Uint32() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.uint32Index >= len(r.Uint32Results) {
		return 0
	}
	result := r.Uint32Results[r.uint32Index]
	r.uint32Index++
	return result
}

// QueueUint32 adds values to the Uint32 result queue
func (r *MockRandom) QueueUint32(values ...uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Uint32Results = append(r.Uint32Results, values...)
}
