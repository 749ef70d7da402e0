// Package ui provides the styled terminal output used by fleetdash's
// one-shot commands (list, history, note, init). The full-screen
// dashboard lives in the monitor package and has its own palette.
//
// # Color Scheme
//
// Colors are ANSI codes for broad terminal compatibility:
//
//	ColorSuccess   (green)  - Online servers, passed checks
//	ColorError     (red)    - Offline or expired servers, failures
//	ColorWarning   (yellow) - Usage above 70%
//	ColorInfo      (cyan)   - Titles and spinners
//	ColorMuted     (gray)   - Secondary text, timing info
//
// Use DisableColors() to switch to monochrome output (for --no-color).
//
// # Components
//
//	Spinner          - Animated status line for dashboard requests
//	RenderFleetTable - The `list` table, colored by usage threshold
//	RenderSimpleTable - Plain Bubbles table for sample history
//	RenderSparkline  - Block sparkline for recorded CPU and memory
//	RenderHeader     - Title block for interactive commands
//
// Spinner usage:
//
//	s := ui.NewSpinner("Fetching servers", os.Stderr)
//	s.Start()
//	// ... do work ...
//	s.Success() // or s.Fail()
package ui
