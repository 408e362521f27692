package service

import (
	"math/rand"
	"sync"
	"time"
)

// RandSource yields uniform values in [0, 1). Sessions draw from it on
// concurrent goroutines, so implementations must be goroutine-safe;
// syncRand wraps a *rand.Rand that is not.
type RandSource interface {
	Float64() float64
}

// syncRand makes r safe for concurrent use. Sources built by NewRandSource
// are returned unchanged.
func syncRand(r RandSource) RandSource {
	if rr, ok := r.(*rand.Rand); ok {
		return &lockedRand{r: rr}
	}
	return r
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

// NewRandSource returns a goroutine-safe source seeded with seed
func NewRandSource(seed int64) RandSource {
	return &lockedRand{r: rand.New(rand.NewSource(seed))}
}

// NewTimeSeededRand returns a goroutine-safe source seeded from the clock
func NewTimeSeededRand() RandSource {
	return NewRandSource(time.Now().UnixNano())
}

// pick selects one candidate uniformly using r
func pick(r RandSource, candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	i := int(r.Float64() * float64(len(candidates)))
	if i >= len(candidates) {
		i = len(candidates) - 1
	}
	if i < 0 {
		i = 0
	}
	return candidates[i]
}
