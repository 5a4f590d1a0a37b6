// Package ui renders terminal output for the softap CLI with lipgloss:
// the command header, the readiness banner, status tables, task result
// lines and check reports. Components render to strings; the caller
// decides where they go.
package ui
