package traffic

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"makro.app/internal/planner"
)

// DefaultMaxSimulatedDelay bounds simulated delays, in seconds.
const DefaultMaxSimulatedDelay = 600

// SimulatedEstimator stands in for a real provider with uniformly random
// delays in [0, max].
type SimulatedEstimator struct {
	mu  sync.Mutex
	rng *rand.Rand
	max int
}

func NewSimulatedEstimator(src rand.Source, max int) *SimulatedEstimator {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	if max < 0 {
		max = 0
	}
	return &SimulatedEstimator{rng: rand.New(src), max: max}
}

func (e *SimulatedEstimator) ExtraDelay(ctx context.Context, origin, destination planner.GeoPoint, departure time.Time) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Intn(e.max + 1)
}
