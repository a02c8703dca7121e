package rollout

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Tokenizer counts tokens for the curator's per-message breakdown. Only
// the length of the encoding is used.
type Tokenizer interface {
	Encode(text string) []int
}

// ScoreFunc is the wrapped scoring function supplied by the training loop.
// An error propagates out of Observe unchanged, before any buffering.
type ScoreFunc func(ctx any) (totalReward float64, rewards map[string]float64, err error)

// SampleContext is the narrow capability the default record builder needs
// from a scored interaction context. Callers with a different context shape
// supply a custom RecordBuilder instead.
type SampleContext interface {
	Conversation() []Message
	SampleInfo() map[string]any
}

// RecordBuilder turns a scored context into a draft record. The step passed
// in is advisory; the curator re-stamps Step under its lock at append time
// so batch membership and step number always agree.
type RecordBuilder func(ctx any, totalReward float64, rewards map[string]float64, step int, rendererName string) (Record, error)

// Config holds curator construction parameters.
type Config struct {
	// OutputPath is the rollouts.jsonl trace file.
	OutputPath string
	// RendererName is recorded verbatim on every record; the viewer uses
	// it to pick a channel-parsing strategy.
	RendererName string
	// Tokenizer backs the default record builder's token counts. Required
	// unless BuildRecord is set.
	Tokenizer Tokenizer
	// SamplesPerBatch is the batch size (batch_size * group_size upstream).
	SamplesPerBatch int
	// SaveEvery flushes 1 in N completed batches. The other N-1 batches
	// are dropped entirely.
	SaveEvery int
	// BuildRecord overrides the default SampleContext-based builder.
	BuildRecord RecordBuilder
	// Logger defaults to a nop logger.
	Logger *zap.Logger
}

// Curator wraps a scoring function and periodically persists a small
// selected subset of the scored rollouts. Observe is safe for concurrent
// callers; one mutex guards the batch buffer and the step counter together.
type Curator struct {
	score    ScoreFunc
	build    RecordBuilder
	writer   *Writer
	selector *Selector
	renderer string
	perBatch int
	every    int
	log      *zap.Logger

	mu     sync.Mutex
	buffer []Record
	step   int
}

// NewCurator validates the config and builds a curator around score.
func NewCurator(score ScoreFunc, cfg Config) (*Curator, error) {
	if score == nil {
		return nil, errors.New("rollout: score function required")
	}
	if cfg.OutputPath == "" {
		return nil, errors.New("rollout: output path required")
	}
	if cfg.SamplesPerBatch < 1 {
		return nil, fmt.Errorf("rollout: samples per batch must be >= 1, got %d", cfg.SamplesPerBatch)
	}
	if cfg.SaveEvery == 0 {
		cfg.SaveEvery = 10
	}
	if cfg.SaveEvery < 1 {
		return nil, fmt.Errorf("rollout: save every must be >= 1, got %d", cfg.SaveEvery)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	build := cfg.BuildRecord
	if build == nil {
		if cfg.Tokenizer == nil {
			return nil, errors.New("rollout: tokenizer required for the default record builder")
		}
		build = defaultRecordBuilder(cfg.Tokenizer)
	}

	return &Curator{
		score:    score,
		build:    build,
		writer:   NewWriter(cfg.OutputPath),
		selector: NewSelector(nil, cfg.Logger),
		renderer: cfg.RendererName,
		perBatch: cfg.SamplesPerBatch,
		every:    cfg.SaveEvery,
		log:      cfg.Logger,
	}, nil
}

// Observe scores one context, buffers the resulting record, and flushes a
// selected subset at batch boundaries. The score result passes through
// unchanged, so the curator is transparent to the training loop. Scoring
// and record building run outside the lock; only buffer/step updates and
// the infrequent flush write run inside it.
func (c *Curator) Observe(ctx any) (float64, map[string]float64, error) {
	total, rewards, err := c.score(ctx)
	if err != nil {
		return total, rewards, err
	}

	rec, err := c.build(ctx, total, rewards, c.Step(), c.renderer)
	if err != nil {
		return total, rewards, fmt.Errorf("build rollout record: %w", err)
	}

	c.mu.Lock()
	rec.Step = c.step
	c.buffer = append(c.buffer, rec)

	var flushErr error
	if len(c.buffer) >= c.perBatch {
		c.step++
		batch := c.buffer
		c.buffer = nil

		if c.step%c.every == 0 {
			selected := c.selector.Select(batch)
			if flushErr = c.writer.Append(selected); flushErr == nil {
				c.log.Info("saved rollouts",
					zap.Int("count", len(selected)),
					zap.Int("step", c.step),
					zap.String("path", c.writer.Path()))
			}
		}
	}
	c.mu.Unlock()

	if flushErr != nil {
		return total, rewards, fmt.Errorf("flush rollouts: %w", flushErr)
	}
	return total, rewards, nil
}

// Step returns the number of completed batches so far.
func (c *Curator) Step() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

// Buffered returns the number of records waiting in the current batch.
func (c *Curator) Buffered() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buffer)
}

// MessageTokens tokenizes a message's content and reasoning independently.
// Empty or absent text counts zero tokens.
func MessageTokens(msg Message, tok Tokenizer) TokenCount {
	var tc TokenCount
	if content := msg.Content.String(); content != "" {
		tc.ContentTokens = len(tok.Encode(content))
	}
	if msg.ReasoningContent != "" {
		tc.ReasoningTokens = len(tok.Encode(msg.ReasoningContent))
	}
	return tc
}

// defaultRecordBuilder extracts conversation and sample_info through the
// SampleContext interface; contexts of any other shape are an error rather
// than being probed structurally.
func defaultRecordBuilder(tok Tokenizer) RecordBuilder {
	return func(ctx any, totalReward float64, rewards map[string]float64, step int, rendererName string) (Record, error) {
		sample, ok := ctx.(SampleContext)
		if !ok {
			return Record{}, fmt.Errorf("context %T does not implement rollout.SampleContext; supply a custom RecordBuilder", ctx)
		}

		conversation := sample.Conversation()
		sampleInfo := sample.SampleInfo()
		if sampleInfo == nil {
			sampleInfo = map[string]any{}
		}

		tokenCounts := make([]TokenCount, len(conversation))
		for i, msg := range conversation {
			tokenCounts[i] = MessageTokens(msg, tok)
		}

		return Record{
			Timestamp:         time.Now().Format(time.RFC3339),
			Step:              step,
			SampleID:          sampleInfo["inspect_sample_id"],
			Conversation:      conversation,
			TokenCounts:       tokenCounts,
			SampleInfo:        sampleInfo,
			IndividualRewards: RewardMap(rewards),
			TotalReward:       Reward(totalReward),
			RendererName:      rendererName,
		}, nil
	}
}
