package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"rollscope/internal/channels"
	"rollscope/internal/rollout"
)

func TestEstimateTokensFromRawHarmony(t *testing.T) {
	msg := rollout.Message{
		Role: "assistant",
		Content: rollout.Text(
			"<|channel|>analysis<|message|>12345678<|end|><|channel|>final<|message|>1234<|return|>"),
	}

	content, reasoning := estimateTokens(msg)
	assert.Equal(t, 1, content, "4 chars of final text at 4 chars/token")
	assert.Equal(t, 2, reasoning, "8 chars of analysis text at 4 chars/token")
}

func TestEstimateTokensPlainText(t *testing.T) {
	msg := rollout.Message{Role: "assistant", Content: rollout.Text(strings.Repeat("a", 40))}
	content, reasoning := estimateTokens(msg)
	assert.Equal(t, 10, content)
	assert.Equal(t, 0, reasoning)
}

func TestRenderTokensPrefersExplicitCounts(t *testing.T) {
	rec := rollout.Record{
		Conversation: []rollout.Message{
			{Role: "assistant", Content: rollout.Text(strings.Repeat("a", 400))},
		},
		TokenCounts: []rollout.TokenCount{{ContentTokens: 7, ReasoningTokens: 3}},
	}

	out := renderTokens(rec, NewStyles("dark"))
	assert.Contains(t, out, "7")
	assert.Contains(t, out, "3")
	assert.NotContains(t, out, "100", "estimation must not be used when counts exist")
}

func TestRenderConversationColorsChannels(t *testing.T) {
	rec := rollout.Record{
		RendererName: "Qwen3Renderer",
		Conversation: []rollout.Message{
			{Role: "assistant", Content: rollout.Text("<think>plan</think>done")},
		},
	}

	out := renderConversation(rec, channels.FamilyQwen3, NewStyles("dark"))
	assert.Contains(t, out, "[ASSISTANT]")
	assert.Contains(t, out, "[thinking]")
	assert.Contains(t, out, "plan")
	assert.Contains(t, out, "done")
}

func TestRenderConversationSurfacesParserErrors(t *testing.T) {
	rec := rollout.Record{
		Conversation: []rollout.Message{
			{Role: "assistant", Content: rollout.Parts(rollout.ContentPart{Type: "mystery"})},
		},
	}

	out := renderConversation(rec, channels.FamilyGeneric, NewStyles("dark"))
	assert.Contains(t, out, "unparseable")
}

func TestRenderInfoShowsSelectionAndWatchState(t *testing.T) {
	rec := rollout.Record{
		Step:          4,
		SelectionType: rollout.SelectionBest,
		RendererName:  "TestRenderer",
		StopReason:    rollout.StopReasonLength,
	}

	out := renderInfo(rec, 0, 5, true, NewStyles("dark"))
	assert.Contains(t, out, "Rollout 1/5")
	assert.Contains(t, out, "best")
	assert.Contains(t, out, "[WATCHING]")
	assert.Contains(t, out, "length")
}
