// Package ui implements the interactive rollout viewer: a bubbletea
// application that renders one trace record at a time with channel-colored
// conversation output and sidebar panels.
package ui

import (
	"github.com/charmbracelet/lipgloss"

	"rollscope/internal/channels"
	"rollscope/internal/rollout"
)

// Channel colors match the semantic categories of message segments.
var (
	ColorThinking   = lipgloss.Color("6")  // cyan
	ColorText       = lipgloss.Color("7")  // white
	ColorToolCall   = lipgloss.Color("3")  // yellow
	ColorCommentary = lipgloss.Color("5")  // magenta
	ColorToolResult = lipgloss.Color("2")  // green

	ColorBest    = lipgloss.Color("2")
	ColorWorst   = lipgloss.Color("1")
	ColorRandom  = lipgloss.Color("3")
	ColorMuted   = lipgloss.Color("8")
	ColorWarning = lipgloss.Color("3")
	ColorError   = lipgloss.Color("1")
)

// Styles holds the lipgloss styles for the viewer.
type Styles struct {
	Header     lipgloss.Style
	Title      lipgloss.Style
	Bold       lipgloss.Style
	Dim        lipgloss.Style
	Watching   lipgloss.Style
	Error      lipgloss.Style
	RoleHeader lipgloss.Style
	Divider    lipgloss.Style
	Sidebar    lipgloss.Style
	Body       lipgloss.Style

	channel   map[channels.Channel]lipgloss.Style
	selection map[rollout.SelectionType]lipgloss.Style
}

// NewStyles builds the style set. The light theme only flips the base
// foreground; channel colors are shared.
func NewStyles(theme string) Styles {
	fg := lipgloss.Color("7")
	if theme == "light" {
		fg = lipgloss.Color("0")
	}

	s := Styles{
		Header:     lipgloss.NewStyle().Bold(true).Underline(true),
		Title:      lipgloss.NewStyle().Bold(true),
		Bold:       lipgloss.NewStyle().Bold(true),
		Dim:        lipgloss.NewStyle().Foreground(ColorMuted),
		Watching:   lipgloss.NewStyle().Bold(true).Foreground(ColorWarning),
		Error:      lipgloss.NewStyle().Bold(true).Foreground(ColorError),
		RoleHeader: lipgloss.NewStyle().Bold(true).Underline(true),
		Divider:    lipgloss.NewStyle().Foreground(ColorMuted),
		Sidebar:    lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).PaddingLeft(1),
		Body:       lipgloss.NewStyle().Foreground(fg),
	}

	s.channel = map[channels.Channel]lipgloss.Style{
		channels.ChannelThinking:   lipgloss.NewStyle().Foreground(ColorThinking),
		channels.ChannelText:       lipgloss.NewStyle().Foreground(fg),
		channels.ChannelToolCall:   lipgloss.NewStyle().Foreground(ColorToolCall),
		channels.ChannelCommentary: lipgloss.NewStyle().Foreground(ColorCommentary),
		channels.ChannelToolResult: lipgloss.NewStyle().Foreground(ColorToolResult),
	}

	s.selection = map[rollout.SelectionType]lipgloss.Style{
		rollout.SelectionBest:   lipgloss.NewStyle().Bold(true).Foreground(ColorBest),
		rollout.SelectionWorst:  lipgloss.NewStyle().Bold(true).Foreground(ColorWorst),
		rollout.SelectionRandom: lipgloss.NewStyle().Bold(true).Foreground(ColorRandom),
		rollout.SelectionOnly:   s.Dim,
	}

	return s
}

// Channel returns the style for a segment channel.
func (s Styles) Channel(c channels.Channel) lipgloss.Style {
	if st, ok := s.channel[c]; ok {
		return st
	}
	return s.Body
}

// Selection returns the style for a selection type.
func (s Styles) Selection(t rollout.SelectionType) lipgloss.Style {
	if st, ok := s.selection[t]; ok {
		return st
	}
	return s.Dim
}
