package optimizer

import (
	"fmt"
	"math/rand"

	"github.com/raykavin/stratevo/pkg/strategy"
)

// Initialize draws size candidates uniformly within bounds, named in
// sequence and carrying the bounds' default indicator set
func Initialize(size int, bounds strategy.Bounds, rng *rand.Rand) []strategy.Config {
	if size <= 0 {
		return nil
	}

	population := make([]strategy.Config, size)
	for i := range population {
		population[i] = bounds.Sample(fmt.Sprintf("candidate-%d", i), rng)
	}
	return population
}
