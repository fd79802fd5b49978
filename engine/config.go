package engine

// Config bounds worst-case matching work. Ellipsis resolution is
// combinatorial in pathological cases, so every ceiling here is a normal,
// observable truncation rather than an error.
type Config struct {
	// MaxMatchesPerRule caps the number of matches emitted per pattern.
	// Hitting the cap stops the walk and marks the results truncated.
	MaxMatchesPerRule int
	// MaxCaptureTextBytes caps the materialized text per capture. Longer
	// captures keep their correct span and kind but truncated text.
	MaxCaptureTextBytes int
	// MaxDeepSearchNodes budgets node visits during ellipsis resolution.
	// Exceeding it abandons only the current candidate, never the walk.
	MaxDeepSearchNodes int
	// IncludeText controls whether matches and captures carry source text.
	// Disable for a low-overhead streaming mode that reports spans only.
	IncludeText bool
}

// DefaultConfig returns generous but bounded limits suitable for
// interactive use.
func DefaultConfig() Config {
	return Config{
		MaxMatchesPerRule:   10_000,
		MaxCaptureTextBytes: 1 << 20,
		MaxDeepSearchNodes:  100_000,
		IncludeText:         true,
	}
}
