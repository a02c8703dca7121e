package ui

import (
	"fmt"
	"sort"
	"strings"

	"rollscope/internal/channels"
	"rollscope/internal/rollout"
)

// renderInfo builds the rollout info panel: position, step, selection type,
// sample id, turn count, renderer, stop reason, and the watch indicator.
func renderInfo(rec rollout.Record, position, total int, live bool, s Styles) string {
	var sb strings.Builder
	sb.WriteString(s.Bold.Render(fmt.Sprintf("Rollout %d/%d", position+1, total)))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Step: %d\n", rec.Step))
	sb.WriteString("Selection: ")
	sb.WriteString(s.Selection(rec.SelectionType).Render(string(rec.SelectionType)))
	sb.WriteString("\n")
	if rec.SampleID != nil {
		sb.WriteString(fmt.Sprintf("Sample ID: %v\n", rec.SampleID))
	}
	sb.WriteString(fmt.Sprintf("Turns: %d\n", len(rec.Conversation)))
	sb.WriteString(fmt.Sprintf("Renderer: %s\n", rec.RendererName))
	if rec.StopReason != "" {
		sb.WriteString(fmt.Sprintf("Stop: %s\n", rec.StopReason))
	}
	if live {
		sb.WriteString(s.Watching.Render("[WATCHING]"))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(s.Dim.Render("h/l: rollouts  j/k: scroll  ?: help"))
	return sb.String()
}

// renderTokens shows the per-message token breakdown. Explicit token_counts
// win; records written before counts existed fall back to a length/4
// estimate, extracting Harmony reasoning when the raw markup is present.
func renderTokens(rec rollout.Record, s Styles) string {
	var sb strings.Builder
	sb.WriteString(s.Header.Render("Tokens"))
	sb.WriteString("\n")

	for i, msg := range rec.Conversation {
		role := msg.Role
		if role == "" {
			role = "unknown"
		}

		var contentTokens, reasoningTokens int
		if i < len(rec.TokenCounts) {
			contentTokens = rec.TokenCounts[i].ContentTokens
			reasoningTokens = rec.TokenCounts[i].ReasoningTokens
		} else {
			contentTokens, reasoningTokens = estimateTokens(msg)
		}

		sb.WriteString(s.Bold.Render(role + ": "))
		sb.WriteString(fmt.Sprintf("%d", contentTokens))
		if reasoningTokens > 0 {
			sb.WriteString(s.Dim.Render(" + "))
			sb.WriteString(s.Channel(channels.ChannelThinking).Render(fmt.Sprintf("%d", reasoningTokens)))
			sb.WriteString(s.Dim.Render(" reasoning"))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// estimateTokens approximates token counts at 4 characters per token for
// records that predate explicit counts.
func estimateTokens(msg rollout.Message) (content, reasoning int) {
	raw := msg.Content.Plain()
	if msg.ReasoningContent == "" && strings.Contains(raw, "<|channel|>") {
		analysis, final := channels.ExtractHarmonyReasoning(raw)
		return len(final) / 4, len(analysis) / 4
	}
	if msg.Content.IsStructured() {
		return 0, len(msg.ReasoningContent) / 4
	}
	return len(raw) / 4, len(msg.ReasoningContent) / 4
}

// renderRewards shows the total and per-component reward breakdown.
func renderRewards(rec rollout.Record, s Styles) string {
	var sb strings.Builder
	sb.WriteString(s.Header.Render("Rewards"))
	sb.WriteString("\n")
	sb.WriteString(s.Selection(rollout.SelectionBest).Render(fmt.Sprintf("Total: %.4f", float64(rec.TotalReward))))
	sb.WriteString("\n\n")

	names := make([]string, 0, len(rec.IndividualRewards))
	for name := range rec.IndividualRewards {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		value := float64(rec.IndividualRewards[name])
		line := fmt.Sprintf("%s: %.4f", name, value)
		if value > 0 {
			sb.WriteString(s.Channel(channels.ChannelToolResult).Render(line))
		} else {
			sb.WriteString(s.Dim.Render(line))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// renderScores shows evaluator score details: value, answer preview, and
// metadata pairs.
func renderScores(rec rollout.Record, s Styles) string {
	if len(rec.Scores) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(s.Header.Render("Scores"))
	sb.WriteString("\n")

	names := make([]string, 0, len(rec.Scores))
	for name := range rec.Scores {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		detail := rec.Scores[name]
		sb.WriteString("\n")
		sb.WriteString(s.Bold.Render(name + ":"))
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("  value: %.4f\n", detail.Value))
		if detail.Answer != nil {
			answer := fmt.Sprintf("%v", detail.Answer)
			if len(answer) > 50 {
				answer = answer[:50] + "..."
			}
			sb.WriteString(fmt.Sprintf("  answer: %s\n", answer))
		}
		keys := make([]string, 0, len(detail.Metadata))
		for k := range detail.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteString(s.Dim.Render(fmt.Sprintf("  %s: %v", k, detail.Metadata[k])))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// renderConversation builds the channel-colored conversation body for the
// viewport. Parser contract violations render inline rather than crashing
// the viewer.
func renderConversation(rec rollout.Record, family channels.Family, s Styles) string {
	var sb strings.Builder
	for i, msg := range rec.Conversation {
		role := msg.Role
		if role == "" {
			role = "unknown"
		}

		sb.WriteString(s.Divider.Render(strings.Repeat("-", 40)))
		sb.WriteString("\n")
		sb.WriteString(s.RoleHeader.Render("[" + strings.ToUpper(role) + "]"))
		sb.WriteString(s.Dim.Render(fmt.Sprintf(" (turn %d)", i+1)))
		sb.WriteString("\n\n")

		segments, err := channels.Parse(msg, family)
		if err != nil {
			sb.WriteString(s.Error.Render("[unparseable message: " + err.Error() + "]"))
			sb.WriteString("\n\n")
			continue
		}

		for _, seg := range segments {
			style := s.Channel(seg.Channel)
			if seg.Channel != channels.ChannelText {
				sb.WriteString(s.Dim.Render("[" + string(seg.Channel) + "] "))
			}
			sb.WriteString(style.Render(seg.Content))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
