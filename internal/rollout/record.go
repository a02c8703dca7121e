// Package rollout implements the write side of the rollout trace pipeline:
// the record schema persisted to rollouts.jsonl, the batch selector, the
// curator that wraps a scoring function, and the append-only writer/loader
// pair for the trace file.
package rollout

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// SelectionType records why a rollout was kept at flush time.
type SelectionType string

const (
	SelectionBest   SelectionType = "best"
	SelectionWorst  SelectionType = "worst"
	SelectionRandom SelectionType = "random"
	SelectionOnly   SelectionType = "only"
)

// StopReason mirrors the sampling client's stop reason for a rollout.
type StopReason string

const (
	StopReasonStop   StopReason = "stop"
	StopReasonLength StopReason = "length"
)

// Content part types for structured message content.
const (
	PartText             = "text"
	PartThinking         = "thinking"
	PartToolCall         = "tool_call"
	PartUnparsedToolCall = "unparsed_tool_call"
	PartImage            = "image"
)

// ToolFunction is the name/arguments pair of a tool invocation.
type ToolFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolCall is a parsed tool invocation embedded in message content.
type ToolCall struct {
	ID       string       `json:"id,omitempty"`
	Function ToolFunction `json:"function"`
}

// ContentPart is one typed element of structured message content.
// Exactly one of the payload fields is populated, keyed by Type.
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	Thinking string    `json:"thinking,omitempty"`
	ToolCall *ToolCall `json:"tool_call,omitempty"`
	RawText  string    `json:"raw_text,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// Content holds message content that is either a plain string or an ordered
// list of typed parts. Both forms round-trip through JSON unchanged.
type Content struct {
	text       string
	parts      []ContentPart
	structured bool
}

// Text builds plain-string content.
func Text(s string) Content {
	return Content{text: s}
}

// Parts builds structured content from typed parts.
func Parts(parts ...ContentPart) Content {
	return Content{parts: parts, structured: true}
}

// IsStructured reports whether the content is a list of typed parts.
func (c Content) IsStructured() bool { return c.structured }

// Plain returns the string form; empty for structured content.
func (c Content) Plain() string { return c.text }

// PartList returns the typed parts; nil for plain-string content.
func (c Content) PartList() []ContentPart { return c.parts }

// String renders the content for display: the raw string for plain content,
// compact JSON for structured content.
func (c Content) String() string {
	if !c.structured {
		return c.text
	}
	b, err := json.Marshal(c.parts)
	if err != nil {
		return fmt.Sprintf("%v", c.parts)
	}
	return string(b)
}

func (c Content) MarshalJSON() ([]byte, error) {
	if c.structured {
		return json.Marshal(c.parts)
	}
	return json.Marshal(c.text)
}

func (c *Content) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = Content{}
		return nil
	}
	switch data[0] {
	case '"':
		c.structured = false
		c.parts = nil
		return json.Unmarshal(data, &c.text)
	case '[':
		c.structured = true
		c.text = ""
		return json.Unmarshal(data, &c.parts)
	default:
		return fmt.Errorf("content must be a string or a list of parts, got %q", data[0])
	}
}

func (c Content) clone() Content {
	out := c
	if c.parts != nil {
		out.parts = make([]ContentPart, len(c.parts))
		copy(out.parts, c.parts)
		for i, p := range out.parts {
			if p.ToolCall != nil {
				tc := *p.ToolCall
				out.parts[i].ToolCall = &tc
			}
		}
	}
	return out
}

// Message is one turn of a recorded conversation.
type Message struct {
	Role             string  `json:"role"`
	Content          Content `json:"content"`
	ReasoningContent string  `json:"reasoning_content,omitempty"`
	Name             string  `json:"name,omitempty"`
	ToolCallID       string  `json:"tool_call_id,omitempty"`
}

// TokenCount is the per-message token breakdown computed at record time.
type TokenCount struct {
	ContentTokens   int `json:"content_tokens"`
	ReasoningTokens int `json:"reasoning_tokens"`
}

// ScoreDetail is one named score attached to a rollout by an evaluator.
type ScoreDetail struct {
	Value    float64        `json:"value"`
	Answer   any            `json:"answer,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Reward is a float64 whose JSON form encodes NaN as null, since
// encoding/json rejects bare NaN tokens. A null total_reward on disk
// therefore reads back as NaN.
type Reward float64

// IsNaN reports whether the reward marks a filtered/invalid sample.
func (r Reward) IsNaN() bool { return math.IsNaN(float64(r)) }

func (r Reward) MarshalJSON() ([]byte, error) {
	if r.IsNaN() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(r))
}

func (r *Reward) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*r = Reward(math.NaN())
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*r = Reward(f)
	return nil
}

// Record is the persisted unit of the trace file: one rollout kept by the
// selector, one compact JSON object per line.
type Record struct {
	// Index is the record's position among successfully parsed lines.
	// Assigned by the loader, never persisted.
	Index int `json:"-"`

	Timestamp         string                 `json:"timestamp"`
	Step              int                    `json:"step"`
	SelectionType     SelectionType          `json:"selection_type"`
	SampleID          any                    `json:"sample_id,omitempty"`
	Conversation      []Message              `json:"conversation"`
	TokenCounts       []TokenCount           `json:"token_counts"`
	IndividualRewards map[string]Reward      `json:"individual_rewards"`
	TotalReward       Reward                 `json:"total_reward"`
	RendererName      string                 `json:"renderer_name"`
	SampleInfo        map[string]any         `json:"sample_info"`
	Scores            map[string]ScoreDetail `json:"scores,omitempty"`
	StopReason        StopReason             `json:"stop_reason,omitempty"`
}

// Clone returns an independent copy of the record. Slices and top-level
// maps are copied; values inside free-form metadata maps are shared.
func (r Record) Clone() Record {
	out := r

	if r.Conversation != nil {
		out.Conversation = make([]Message, len(r.Conversation))
		for i, m := range r.Conversation {
			m.Content = m.Content.clone()
			out.Conversation[i] = m
		}
	}
	if r.TokenCounts != nil {
		out.TokenCounts = make([]TokenCount, len(r.TokenCounts))
		copy(out.TokenCounts, r.TokenCounts)
	}
	if r.IndividualRewards != nil {
		out.IndividualRewards = make(map[string]Reward, len(r.IndividualRewards))
		for k, v := range r.IndividualRewards {
			out.IndividualRewards[k] = v
		}
	}
	if r.SampleInfo != nil {
		out.SampleInfo = make(map[string]any, len(r.SampleInfo))
		for k, v := range r.SampleInfo {
			out.SampleInfo[k] = v
		}
	}
	if r.Scores != nil {
		out.Scores = make(map[string]ScoreDetail, len(r.Scores))
		for k, v := range r.Scores {
			out.Scores[k] = v
		}
	}
	return out
}

// RewardMap converts plain reward components into the NaN-safe form.
func RewardMap(rewards map[string]float64) map[string]Reward {
	if rewards == nil {
		return nil
	}
	out := make(map[string]Reward, len(rewards))
	for k, v := range rewards {
		out[k] = Reward(v)
	}
	return out
}
