package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raykavin/stratevo/pkg/metric"
	"github.com/raykavin/stratevo/pkg/optimizer"
	"github.com/raykavin/stratevo/pkg/strategy"
)

func candidate(name string, score float64) optimizer.EvaluatedCandidate {
	return optimizer.EvaluatedCandidate{
		Config:  strategy.DefaultBounds().Midpoint(name),
		Metrics: metric.Metrics{TotalReturn: score, Trades: 3},
		Score:   score,
	}
}

func TestRunStorage_Generations(t *testing.T) {
	db, err := FromMemory()
	require.NoError(t, err)
	defer db.Close()

	// stored out of order, read back in generation order
	for _, gen := range []int{2, 0, 11, 1} {
		require.NoError(t, db.SaveGeneration("run1", optimizer.GenerationStats{
			Generation: gen,
			Best:       float64(gen),
			BestEver:   candidate("c", float64(gen)),
			Duration:   time.Second,
		}))
	}
	require.NoError(t, db.SaveGeneration("run2", optimizer.GenerationStats{Generation: 0}))

	history, err := db.Generations("run1")
	require.NoError(t, err)
	require.Len(t, history, 4)
	for i, gen := range []int{0, 1, 2, 11} {
		assert.Equal(t, gen, history[i].Generation)
	}
	assert.Equal(t, time.Second, history[0].Duration)

	empty, err := db.Generations("missing")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRunStorage_Best(t *testing.T) {
	db, err := FromFile(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Best("run1")
	require.ErrorIs(t, err, ErrRunNotFound)

	require.NoError(t, db.SaveBest("run1", candidate("first", 0.5)))
	require.NoError(t, db.SaveBest("run1", candidate("second", 0.7)))
	require.NoError(t, db.SaveBest("run2", candidate("other", 0.9)))
	require.NoError(t, db.SaveBest("run3", optimizer.EvaluatedCandidate{
		Config: strategy.DefaultBounds().Midpoint("idle"),
		Score:  optimizer.WorstScore,
	}))

	best, err := db.Best("run1")
	require.NoError(t, err)
	assert.Equal(t, "second", best.Config.Name)
	assert.Equal(t, 0.7, best.Score)
	assert.Equal(t, strategy.DefaultIndicators, best.Config.Indicators)

	runs, err := db.Runs()
	require.NoError(t, err)
	assert.Equal(t, []string{"run2", "run1", "run3"}, runs)
}

func TestRunStorage_InvalidRunID(t *testing.T) {
	db, err := FromMemory()
	require.NoError(t, err)
	defer db.Close()

	require.Error(t, db.SaveBest("", candidate("x", 1)))
	require.Error(t, db.SaveGeneration("a:b", optimizer.GenerationStats{}))
	_, err = db.Generations("*")
	require.Error(t, err)
}
