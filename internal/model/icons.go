package model

// Centralized icons for stage progress
// Using simple single-width characters for consistent terminal rendering
const (
	IconPending = "·"
	IconRunning = "▸"
	IconDone    = "✓"
	IconSkipped = "↷" // Stage already satisfied
	IconFailed  = "✗"
)
