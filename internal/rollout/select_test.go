package rollout

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(reward float64) Record {
	return Record{
		TotalReward: Reward(reward),
		Conversation: []Message{
			{Role: "user", Content: Text("hi")},
		},
		IndividualRewards: map[string]Reward{"r": Reward(reward)},
		SampleInfo:        map[string]any{"k": "v"},
	}
}

func TestSelectSingleRecord(t *testing.T) {
	s := NewSelector(nil, nil)
	out := s.Select([]Record{rec(5.0)})

	require.Len(t, out, 1)
	assert.Equal(t, SelectionOnly, out[0].SelectionType)
	assert.Equal(t, Reward(5.0), out[0].TotalReward)
}

func TestSelectEmptyBatch(t *testing.T) {
	s := NewSelector(nil, nil)
	assert.Empty(t, s.Select(nil))
}

func TestSelectTwoRecords(t *testing.T) {
	s := NewSelector(nil, nil)
	out := s.Select([]Record{rec(3.0), rec(1.0)})

	require.Len(t, out, 2, "two-record batch has no middle for a random pick")
	assert.Equal(t, SelectionWorst, out[0].SelectionType)
	assert.Equal(t, Reward(1.0), out[0].TotalReward)
	assert.Equal(t, SelectionBest, out[1].SelectionType)
	assert.Equal(t, Reward(3.0), out[1].TotalReward)
}

func TestSelectThreeRecordsIncludesRandom(t *testing.T) {
	s := NewSelector(rand.New(rand.NewSource(1)), nil)
	out := s.Select([]Record{rec(2.0), rec(1.0), rec(3.0)})

	require.Len(t, out, 3)
	assert.Equal(t, SelectionWorst, out[0].SelectionType)
	assert.Equal(t, Reward(1.0), out[0].TotalReward)
	assert.Equal(t, SelectionBest, out[1].SelectionType)
	assert.Equal(t, Reward(3.0), out[1].TotalReward)
	assert.Equal(t, SelectionRandom, out[2].SelectionType)
	assert.Equal(t, Reward(2.0), out[2].TotalReward, "only the middle record can be the random pick")
}

func TestSelectNaNNeverBestOrWorst(t *testing.T) {
	s := NewSelector(rand.New(rand.NewSource(1)), nil)
	out := s.Select([]Record{rec(math.NaN()), rec(1.0), rec(3.0)})

	for _, r := range out {
		if r.SelectionType == SelectionBest || r.SelectionType == SelectionWorst {
			assert.False(t, r.TotalReward.IsNaN(),
				"%s selection must not be NaN", r.SelectionType)
		}
	}
}

func TestSelectAllNaN(t *testing.T) {
	s := NewSelector(nil, nil)
	out := s.Select([]Record{rec(math.NaN()), rec(math.NaN())})

	require.Len(t, out, 2)
	assert.Equal(t, SelectionWorst, out[0].SelectionType)
	assert.Equal(t, SelectionBest, out[1].SelectionType)
}

func TestSelectBounds(t *testing.T) {
	s := NewSelector(rand.New(rand.NewSource(7)), nil)

	for _, size := range []int{1, 2, 3, 5, 16, 100} {
		rng := rand.New(rand.NewSource(int64(size)))
		batch := make([]Record, size)
		var min, max = math.Inf(1), math.Inf(-1)
		for i := range batch {
			reward := rng.NormFloat64()
			batch[i] = rec(reward)
			if reward < min {
				min = reward
			}
			if reward > max {
				max = reward
			}
		}

		out := s.Select(batch)
		require.NotEmpty(t, out)
		require.LessOrEqual(t, len(out), 3)

		for _, r := range out {
			switch r.SelectionType {
			case SelectionWorst:
				assert.Equal(t, Reward(min), r.TotalReward, "size %d", size)
			case SelectionBest:
				assert.Equal(t, Reward(max), r.TotalReward, "size %d", size)
			case SelectionRandom, SelectionOnly:
			default:
				t.Fatalf("unexpected selection type %q", r.SelectionType)
			}
		}
	}
}

func TestSelectReturnsIndependentCopies(t *testing.T) {
	s := NewSelector(nil, nil)
	input := []Record{rec(1.0), rec(2.0)}
	out := s.Select(input)

	require.Len(t, out, 2)
	out[0].Conversation[0].Role = "mutated"
	out[0].SampleInfo["k"] = "mutated"
	out[0].IndividualRewards["r"] = Reward(99)

	assert.Equal(t, "user", input[0].Conversation[0].Role)
	assert.Equal(t, "v", input[0].SampleInfo["k"])
	assert.Equal(t, Reward(1.0), input[0].IndividualRewards["r"])
	assert.Equal(t, SelectionType(""), input[0].SelectionType,
		"input records must not be stamped")
}

func TestSelectStableTieBreak(t *testing.T) {
	s := NewSelector(nil, nil)
	a, b := rec(1.0), rec(1.0)
	a.SampleID = "a"
	b.SampleID = "b"

	out := s.Select([]Record{a, b})
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].SampleID, "ties keep original order, so the first record is worst")
	assert.Equal(t, "b", out[1].SampleID)
}
