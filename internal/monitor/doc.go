// Package monitor implements the live fleet dashboard TUI.
//
// The dashboard follows Bubble Tea's Model-Update-View loop:
//
//  1. tickMsg fires every refresh interval
//  2. collectCmd reads the clock once and asks the Collector for a Refresh
//  3. the Collector fetches every Source in parallel, normalizes the
//     snapshots, parses notes, and hands live metrics to the Recorder
//  4. refreshMsg lands in Update, which pushes sparkline history and re-sorts
//  5. View renders cards or inline rows from that single refresh
//
// Every card drawn from one refresh shares its clock, so online state and
// billing days never disagree within a frame.
//
// # Keyboard Shortcuts
//
//	q, Ctrl+C   - Quit
//	r           - Refresh now
//	s           - Cycle sort order (default/name/cpu/mem/expiry)
//	l           - Toggle card / inline layout
//	t           - Toggle traffic totals on cards
//	j/k, ↑/↓    - Navigate (scroll in detail view)
//	Enter       - Server detail view
//	Esc         - Back
//	?           - Toggle help overlay
package monitor
