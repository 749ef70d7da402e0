package ui

// Unicode symbols for status indicators.
const (
	SymbolSuccess = "✓" // Step completed successfully
	SymbolFail    = "✗" // Step failed
	SymbolPending = "○" // Not yet started
	SymbolOnline  = "●" // Server reporting
	SymbolOffline = "○" // Server silent past the online window
	SymbolExpired = "⊘" // Billing period has ended
	SymbolSkipped = "–"
)
