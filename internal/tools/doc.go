// Package tools exposes the Spotify services as MCP tools.
//
// Every handler reports failures as an error result so a bad call never ends the client session.
// Results are rendered as text by the formatter package.
package tools
