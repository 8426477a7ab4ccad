// Package numerator provides domain contracts for document auto-numbering.
package numerator

// Strategy defines the numbering generation strategy.
type Strategy int

const (
	// StrategyStrict uses UPDATE ... RETURNING for every number.
	// Guarantees sequential numbers without gaps and uniqueness under
	// concurrent creates. Suitable for accounting documents and stock counts.
	StrategyStrict Strategy = iota

	// StrategyCached allocates ranges of numbers in memory.
	// Much faster, but may produce gaps if application restarts.
	// Suitable for internal documents.
	StrategyCached
)

// Options configuration for number generation.
type Options struct {
	// Strategy to use for number generation
	Strategy Strategy
	// RangeSize is the number of IDs to allocate at once in Cached strategy.
	// Default is 50.
	RangeSize int64
}

// DefaultOptions returns standard options (Strict).
func DefaultOptions() *Options {
	return &Options{
		Strategy: StrategyStrict,
	}
}

// Config holds numbering configuration.
type Config struct {
	// Prefix added to all numbers (e.g., "PAY"). May be empty for
	// date-keyed sequences.
	Prefix string

	// IncludePeriod adds the period (year or date) to the number
	IncludePeriod bool

	// PadWidth is the minimum number width (default 5)
	PadWidth int

	// ResetPeriod: "day", "month", "year", "never"
	ResetPeriod string
}

// DefaultConfig returns sensible defaults (yearly reset).
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:        prefix,
		IncludePeriod: true,
		PadWidth:      5,
		ResetPeriod:   "year",
	}
}

// DailyConfig returns a date-sequenced configuration producing numbers like
// 2024-01-10-001, with the sequence scoped to the creation day.
func DailyConfig(prefix string) Config {
	return Config{
		Prefix:        prefix,
		IncludePeriod: true,
		PadWidth:      3,
		ResetPeriod:   "day",
	}
}
