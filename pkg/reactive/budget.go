package reactive

import "fmt"

// Budget bounds the work one flush may do. It protects against
// amplification bugs where effects write signals that re-trigger them.
// Zero fields mean "no limit".
type Budget struct {
	// MaxPassesPerFlush caps the number of serialized passes driven by one
	// outermost write or batch.
	MaxPassesPerFlush int

	// MaxEffectRunsPerPass caps how many effects one pass may run. Effects
	// beyond the cap are skipped with SkipBudget.
	MaxEffectRunsPerPass int
}

// DefaultBudget returns the budget used when none is configured.
func DefaultBudget() Budget {
	return Budget{
		MaxPassesPerFlush:    1000,
		MaxEffectRunsPerPass: 0,
	}
}

// checkPass returns ErrBudgetExceeded once passes exceeds the pass cap.
func (b Budget) checkPass(passes int) error {
	if b.MaxPassesPerFlush == 0 || passes <= b.MaxPassesPerFlush {
		return nil
	}
	return fmt.Errorf("%w: more than %d passes in one flush", ErrBudgetExceeded, b.MaxPassesPerFlush)
}

// checkEffectRun returns ErrBudgetExceeded once runs reaches the effect cap.
func (b Budget) checkEffectRun(runs int) error {
	if b.MaxEffectRunsPerPass == 0 || runs < b.MaxEffectRunsPerPass {
		return nil
	}
	return fmt.Errorf("%w: more than %d effect runs in one pass", ErrBudgetExceeded, b.MaxEffectRunsPerPass)
}
