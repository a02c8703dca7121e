package main

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"rollscope/internal/rollout"
	"rollscope/internal/tokenizer"
)

var (
	genBatches   int
	genBatchSize int
	genSaveEvery int
	genRenderer  string
	genEncoding  string
)

// genCmd drives the real curation pipeline with synthetic scored rollouts
// so the viewer can be exercised without a training run.
var genCmd = &cobra.Command{
	Use:   "gen [rollouts.jsonl]",
	Short: "Generate a synthetic rollout trace",
	Long: `Generates synthetic scored conversations and pushes them through the
curator exactly as a training loop would: concurrent observations, batch
selection of best/worst/random, periodic appends to the trace file.`,
	Args: cobra.ExactArgs(1),
	RunE: runGen,
}

func init() {
	genCmd.Flags().IntVar(&genBatches, "batches", 20, "Number of batches to generate")
	genCmd.Flags().IntVar(&genBatchSize, "batch-size", 8, "Samples per batch")
	genCmd.Flags().IntVar(&genSaveEvery, "save-every", 2, "Persist 1 in N completed batches")
	genCmd.Flags().StringVar(&genRenderer, "renderer", "GptOssRenderer", "Renderer name to record (GptOssRenderer, Qwen3Renderer, ...)")
	genCmd.Flags().StringVar(&genEncoding, "encoding", tokenizer.DefaultEncoding, "tiktoken encoding for token counts")
}

// demoContext is the generator's scored interaction context.
type demoContext struct {
	conversation []rollout.Message
	sampleInfo   map[string]any
	reward       float64
}

func (d *demoContext) Conversation() []rollout.Message { return d.conversation }
func (d *demoContext) SampleInfo() map[string]any      { return d.sampleInfo }

func runGen(cmd *cobra.Command, args []string) error {
	tok, err := tokenizer.New(genEncoding)
	if err != nil {
		return err
	}

	score := func(ctx any) (float64, map[string]float64, error) {
		d := ctx.(*demoContext)
		return d.reward, map[string]float64{
			"correctness": d.reward,
			"format":      1.0,
		}, nil
	}

	curator, err := rollout.NewCurator(score, rollout.Config{
		OutputPath:      args[0],
		RendererName:    genRenderer,
		Tokenizer:       tok,
		SamplesPerBatch: genBatchSize,
		SaveEvery:       genSaveEvery,
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(rand.Int63()))
	for batch := 0; batch < genBatches; batch++ {
		// Dispatch one batch concurrently, the way a training loop does.
		var g errgroup.Group
		for i := 0; i < genBatchSize; i++ {
			ctx := synthContext(rng, genRenderer)
			g.Go(func() error {
				_, _, err := curator.Observe(ctx)
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return fmt.Errorf("generate batch %d: %w", batch, err)
		}
	}

	fmt.Printf("Wrote synthetic trace through step %d to %s\n", curator.Step(), args[0])
	return nil
}

var genPrompts = []string{
	"What is the capital of France?",
	"Sum the integers from 1 to 100.",
	"Explain the difference between a mutex and a semaphore.",
	"Write a haiku about filesystems.",
}

func synthContext(rng *rand.Rand, renderer string) *demoContext {
	prompt := genPrompts[rng.Intn(len(genPrompts))]
	reasoning := "Let me work through this step by step."
	answer := "Here is the answer, worked out in detail."

	var assistant string
	switch {
	case renderer == "Qwen3Renderer":
		assistant = "<think>" + reasoning + "</think>" + answer
	case renderer == "GptOssRenderer":
		assistant = "<|channel|>analysis<|message|>" + reasoning +
			"<|end|><|channel|>final<|message|>" + answer + "<|return|>"
	default:
		assistant = answer
	}

	return &demoContext{
		conversation: []rollout.Message{
			{Role: "system", Content: rollout.Text("You are a helpful assistant.")},
			{Role: "user", Content: rollout.Text(prompt)},
			{Role: "assistant", Content: rollout.Text(assistant)},
		},
		sampleInfo: map[string]any{
			"inspect_sample_id": uuid.NewString(),
			"source":            "rollscope gen",
		},
		reward: rng.NormFloat64(),
	}
}
