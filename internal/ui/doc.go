// Package ui holds the [lipgloss] palette used for human-facing CLI output.
//
// MCP tool results never pass through here; they stay plain text.
package ui
