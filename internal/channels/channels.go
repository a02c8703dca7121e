// Package channels decomposes recorded model output into semantic segments
// for display: plain text, hidden reasoning, tool calls, tool results, and
// auxiliary commentary. Parsing is pure and never mutates the record.
package channels

import (
	"fmt"
	"regexp"
	"strings"

	"rollscope/internal/rollout"
)

// Channel is the semantic category of a message segment.
type Channel string

const (
	ChannelThinking   Channel = "thinking"
	ChannelText       Channel = "text"
	ChannelToolCall   Channel = "tool_call"
	ChannelCommentary Channel = "commentary"
	ChannelToolResult Channel = "tool_result"
)

// Segment is one contiguous span of a message mapped to a channel.
type Segment struct {
	Channel Channel
	Content string
}

// Family is the renderer family a record's plain-text markup belongs to.
// Resolved once per record from renderer_name, not re-matched per parse.
type Family int

const (
	// FamilyGeneric has no inline reasoning markup; content is plain text.
	FamilyGeneric Family = iota
	// FamilyHarmony uses <|channel|>NAME<|message|>BODY tagged markers.
	FamilyHarmony
	// FamilyQwen3 wraps reasoning in <think>...</think> spans.
	FamilyQwen3
)

// DetectFamily maps a renderer name to its markup family. Unrecognized
// renderers degrade to generic text rather than failing.
func DetectFamily(rendererName string) Family {
	switch {
	case strings.Contains(rendererName, "GptOss"):
		return FamilyHarmony
	case strings.Contains(rendererName, "Qwen3"):
		return FamilyQwen3
	default:
		return FamilyGeneric
	}
}

// Harmony channel markers: <|channel|>NAME<|message|>BODY terminated by an
// end marker or end of string, non-greedy, spanning newlines.
var harmonyPattern = regexp.MustCompile(
	`(?s)<\|channel\|>(\w+)<\|message\|>(.*?)(?:<\|end\|>|<\|return\|>|<\|call\|>|$)`)

var thinkPattern = regexp.MustCompile(`(?s)<think>(.*?)</think>`)

// Parse maps one message to its ordered channel segments. The result is
// never empty; when nothing more specific matches, the raw content becomes
// a single text segment. An unrecognized structured content-part type is a
// contract violation and returns an error.
func Parse(msg rollout.Message, family Family) ([]Segment, error) {
	if msg.Role == "tool" {
		return []Segment{{ChannelToolResult, msg.Content.String()}}, nil
	}

	if msg.Content.IsStructured() {
		return parseStructured(msg.Content)
	}

	content := msg.Content.Plain()

	if msg.ReasoningContent != "" {
		segments := []Segment{{ChannelThinking, msg.ReasoningContent}}
		if content != "" {
			segments = append(segments, Segment{ChannelText, content})
		}
		return segments, nil
	}

	switch family {
	case FamilyHarmony:
		return parseHarmony(content), nil
	case FamilyQwen3:
		return parseQwen3(content), nil
	default:
		return []Segment{{ChannelText, content}}, nil
	}
}

func parseStructured(content rollout.Content) ([]Segment, error) {
	var segments []Segment
	for _, part := range content.PartList() {
		switch part.Type {
		case rollout.PartText:
			segments = append(segments, Segment{ChannelText, part.Text})
		case rollout.PartThinking:
			segments = append(segments, Segment{ChannelThinking, part.Thinking})
		case rollout.PartToolCall:
			var name, args string
			if part.ToolCall != nil {
				name = part.ToolCall.Function.Name
				args = part.ToolCall.Function.Arguments
			}
			if name == "" {
				name = "unknown"
			}
			segments = append(segments, Segment{ChannelToolCall, fmt.Sprintf("%s(%s)", name, args)})
		case rollout.PartUnparsedToolCall:
			segments = append(segments, Segment{ChannelToolCall, part.RawText})
		case rollout.PartImage:
			segments = append(segments, Segment{ChannelText, "[image]"})
		default:
			return nil, fmt.Errorf("unknown content part type %q", part.Type)
		}
	}
	if len(segments) == 0 {
		segments = []Segment{{ChannelText, content.String()}}
	}
	return segments, nil
}

func parseHarmony(content string) []Segment {
	var segments []Segment
	for _, m := range harmonyPattern.FindAllStringSubmatch(content, -1) {
		channel, body := m[1], m[2]
		switch channel {
		case "analysis":
			segments = append(segments, Segment{ChannelThinking, body})
		case "final":
			segments = append(segments, Segment{ChannelText, body})
		case "commentary":
			segments = append(segments, Segment{ChannelCommentary, body})
		default:
			segments = append(segments, Segment{ChannelText, body})
		}
	}
	if len(segments) == 0 {
		return []Segment{{ChannelText, content}}
	}
	return segments
}

func parseQwen3(content string) []Segment {
	var segments []Segment
	pos := 0
	for _, loc := range thinkPattern.FindAllStringSubmatchIndex(content, -1) {
		if loc[0] > pos {
			text := content[pos:loc[0]]
			if strings.TrimSpace(text) != "" {
				segments = append(segments, Segment{ChannelText, text})
			}
		}
		segments = append(segments, Segment{ChannelThinking, content[loc[2]:loc[3]]})
		pos = loc[1]
	}
	if pos < len(content) {
		text := content[pos:]
		if strings.TrimSpace(text) != "" {
			segments = append(segments, Segment{ChannelText, text})
		}
	}
	if len(segments) == 0 {
		return []Segment{{ChannelText, content}}
	}
	return segments
}

// ExtractHarmonyReasoning reduces raw Harmony markup to its concatenated
// analysis and final text. Used as a token-estimation fallback for records
// written before explicit token counts existed.
func ExtractHarmonyReasoning(content string) (reasoning, final string) {
	for _, m := range harmonyPattern.FindAllStringSubmatch(content, -1) {
		switch m[1] {
		case "analysis":
			reasoning += m[2]
		case "final":
			final += m[2]
		}
	}
	return reasoning, final
}
