package registry

import (
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/mcoot/quizroom/internal/model"
)

// shard is one independently locked partition of the game map
type shard struct {
	mu    sync.Mutex
	games map[model.GameCode]*model.GameState
}

func newShard() *shard {
	return &shard{games: make(map[model.GameCode]*model.GameState)}
}

// shardSet picks the partition responsible for a code.
// A single shard is one exclusive lock over every game.
type shardSet []*shard

func newShardSet(n int) shardSet {
	if n < 1 {
		n = 1
	}
	set := make(shardSet, n)
	for i := range set {
		set[i] = newShard()
	}
	return set
}

func (s shardSet) forCode(code model.GameCode) *shard {
	if len(s) == 1 {
		return s[0]
	}
	return s[xxhash.Sum64String(string(code))%uint64(len(s))]
}

// with runs fn while holding the lock of the shard owning code
func (s shardSet) with(code model.GameCode, fn func(games map[model.GameCode]*model.GameState)) {
	sh := s.forCode(code)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	fn(sh.games)
}
