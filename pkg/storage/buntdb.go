package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/buntdb"

	"github.com/raykavin/stratevo/pkg/optimizer"
)

var ErrRunNotFound = errors.New("run not found")

const bestScoreIndex = "best_score"

// RunStorage persists optimization runs using BuntDB.
// Generation statistics are kept under ordered keys so they replay in order.
type RunStorage struct {
	db *buntdb.DB
}

// FromMemory creates an in-memory storage
func FromMemory() (*RunStorage, error) {
	return NewRunStorage(":memory:")
}

// FromFile creates a file-based storage
func FromFile(file string) (*RunStorage, error) {
	return NewRunStorage(file)
}

// NewRunStorage creates a new BuntDB storage instance
func NewRunStorage(sourceFile string) (*RunStorage, error) {
	db, err := buntdb.Open(sourceFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open buntdb: %w", err)
	}

	err = db.CreateIndex(bestScoreIndex, "run:*:best", buntdb.IndexJSON("score"))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &RunStorage{
		db: db,
	}, nil
}

func generationKey(runID string, generation int) string {
	return fmt.Sprintf("run:%s:gen:%06d", runID, generation)
}

func bestKey(runID string) string {
	return fmt.Sprintf("run:%s:best", runID)
}

func validateRunID(runID string) error {
	if runID == "" || strings.ContainsAny(runID, ":*?") {
		return fmt.Errorf("invalid run id %q", runID)
	}
	return nil
}

func (s *RunStorage) set(key string, value any) error {
	content, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	return s.db.Update(func(tx *buntdb.Tx) error {
		if _, _, err := tx.Set(key, string(content), nil); err != nil {
			return fmt.Errorf("failed to store %s: %w", key, err)
		}
		return nil
	})
}

// SaveGeneration stores the statistics of one generation
func (s *RunStorage) SaveGeneration(runID string, stats optimizer.GenerationStats) error {
	if err := validateRunID(runID); err != nil {
		return err
	}
	return s.set(generationKey(runID, stats.Generation), stats)
}

// Generations returns the stored statistics of a run, in generation order
func (s *RunStorage) Generations(runID string) ([]optimizer.GenerationStats, error) {
	if err := validateRunID(runID); err != nil {
		return nil, err
	}

	history := make([]optimizer.GenerationStats, 0)
	err := s.db.View(func(tx *buntdb.Tx) error {
		var decodeErr error
		err := tx.AscendKeys(fmt.Sprintf("run:%s:gen:*", runID), func(key, value string) bool {
			var stats optimizer.GenerationStats
			if err := json.Unmarshal([]byte(value), &stats); err != nil {
				decodeErr = fmt.Errorf("failed to unmarshal %s: %w", key, err)
				return false
			}
			history = append(history, stats)
			return true
		})
		if err != nil {
			return fmt.Errorf("failed to iterate over generations: %w", err)
		}
		return decodeErr
	})
	if err != nil {
		return nil, err
	}

	return history, nil
}

// SaveBest stores the best candidate of a run, replacing any previous one
func (s *RunStorage) SaveBest(runID string, candidate optimizer.EvaluatedCandidate) error {
	if err := validateRunID(runID); err != nil {
		return err
	}
	return s.set(bestKey(runID), candidate)
}

// Best returns the best candidate stored for a run
func (s *RunStorage) Best(runID string) (optimizer.EvaluatedCandidate, error) {
	var candidate optimizer.EvaluatedCandidate
	if err := validateRunID(runID); err != nil {
		return candidate, err
	}

	err := s.db.View(func(tx *buntdb.Tx) error {
		value, err := tx.Get(bestKey(runID))
		if errors.Is(err, buntdb.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(value), &candidate)
	})

	return candidate, err
}

// Runs returns the ids of every stored run, highest best score first
func (s *RunStorage) Runs() ([]string, error) {
	runs := make([]string, 0)
	err := s.db.View(func(tx *buntdb.Tx) error {
		return tx.Descend(bestScoreIndex, func(key, _ string) bool {
			runs = append(runs, strings.TrimSuffix(strings.TrimPrefix(key, "run:"), ":best"))
			return true
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate over runs: %w", err)
	}
	return runs, nil
}

// Close closes the database connection
func (s *RunStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
