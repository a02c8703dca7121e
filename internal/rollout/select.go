package rollout

import (
	"math/rand"
	"sort"

	"go.uber.org/zap"
)

// Selector picks the rollouts worth keeping from a completed batch:
// the worst, the best, and one random sample from the middle.
type Selector struct {
	rng *rand.Rand
	log *zap.Logger
}

// NewSelector creates a selector. A nil rng falls back to the global
// math/rand source; a nil logger is replaced with a nop logger.
func NewSelector(rng *rand.Rand, log *zap.Logger) *Selector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Selector{rng: rng, log: log}
}

func (s *Selector) intn(n int) int {
	if s.rng != nil {
		return s.rng.Intn(n)
	}
	return rand.Intn(n)
}

// Select returns up to 3 independent copies of the input records, each
// stamped with a SelectionType:
//   - a single-record batch yields that record stamped "only";
//   - otherwise the batch is stably sorted ascending by total_reward with
//     NaN ordered last, the first record is stamped "worst", the last
//     non-NaN record "best", and if any records remain strictly between
//     them one is chosen uniformly at random and stamped "random".
//
// NaN rewards are counted and logged but never fail the call.
func (s *Selector) Select(rollouts []Record) []Record {
	if len(rollouts) == 0 {
		return nil
	}
	if len(rollouts) == 1 {
		only := rollouts[0].Clone()
		only.SelectionType = SelectionOnly
		return []Record{only}
	}

	sorted := make([]Record, len(rollouts))
	copy(sorted, rollouts)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].TotalReward, sorted[j].TotalReward
		if a.IsNaN() {
			return false
		}
		if b.IsNaN() {
			return true
		}
		return a < b
	})

	nanCount := 0
	for _, r := range rollouts {
		if r.TotalReward.IsNaN() {
			nanCount++
		}
	}
	if nanCount > 0 {
		s.log.Warn("batch contains NaN rewards",
			zap.Int("nan_count", nanCount),
			zap.Int("batch_size", len(rollouts)))
	}

	// NaN sorts last, so index 0 is the worst real reward. The best is the
	// last non-NaN entry; only an all-NaN batch ever stamps NaN records.
	bestIdx := len(sorted) - 1
	if nanCount < len(sorted) {
		for bestIdx > 0 && sorted[bestIdx].TotalReward.IsNaN() {
			bestIdx--
		}
	}

	worst := sorted[0].Clone()
	worst.SelectionType = SelectionWorst

	best := sorted[bestIdx].Clone()
	best.SelectionType = SelectionBest

	selected := []Record{worst, best}

	// Random pick strictly between the worst and best indices.
	if bestIdx > 1 {
		idx := 1 + s.intn(bestIdx-1)
		random := sorted[idx].Clone()
		random.SelectionType = SelectionRandom
		selected = append(selected, random)
	}

	return selected
}
