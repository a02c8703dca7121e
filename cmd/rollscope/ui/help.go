package ui

import (
	"github.com/charmbracelet/glamour"
)

const helpMarkdown = `# rollscope

Replay rollouts recorded by an RL training run.

## Keys

| Key        | Action                          |
|------------|---------------------------------|
| left / h   | previous rollout                |
| right / l  | next rollout                    |
| j / k      | scroll conversation             |
| r          | reload the trace file           |
| w          | toggle live/follow mode         |
| ?          | toggle this help                |
| q          | quit                            |

## Channels

Conversation segments are colored by channel: *thinking* (cyan),
*tool_call* (yellow), *tool_result* (green), *commentary* (magenta).

In live mode the viewer reloads on every trace-file change and follows
the newest rollout.
`

// helpView renders the help overlay. Glamour failures fall back to the raw
// markdown; help must never crash the viewer.
func (m Model) helpView() string {
	width := m.width - 4
	if width < 40 {
		width = 40
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return helpMarkdown
	}
	out, err := r.Render(helpMarkdown)
	if err != nil {
		return helpMarkdown
	}
	return out
}
