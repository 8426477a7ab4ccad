package stockcount

import "mesa/internal/core/numerator"

const (
	// EntityName identifies stock counts in shared infrastructure such as
	// the audit trail.
	EntityName = "stock_count"

	// NumeratorStrategy defines the numbering strategy for stock counts.
	// Strict strategy keeps daily sequences gapless and unique under
	// concurrent creates.
	NumeratorStrategy = numerator.StrategyStrict
)

// NumberConfig yields count numbers like 2024-01-10-001, sequenced per
// creation day.
func NumberConfig() numerator.Config {
	return numerator.DailyConfig("")
}
