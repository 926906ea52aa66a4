package engine

import "time"

// Classify labels ranked entries against a retention rule.
//
// Walking the ranking most recent first with a running protected count:
// entries modified at or after the cutoff (now minus RetentionDays days) are
// skipped; expired entries are protected until KeepLastN of them have been,
// and every expired entry after that is a delete candidate. This guarantees
// every protected entry outranks every deleted one, and that exactly
// min(KeepLastN, expired count) entries are protected.
//
// Entries passed in must all be resolved and already ranked; unclassifiable
// entries are handled before this stage.
func Classify(ranked []Entry, rule Rule, now time.Time) []Decision {
	cutoff := now.AddDate(0, 0, -rule.RetentionDays)

	decisions := make([]Decision, 0, len(ranked))
	protected := 0
	for rank, e := range ranked {
		var code DecisionCode
		switch {
		case !olderThan(e, cutoff):
			code = DecisionSkip
		case protected < rule.KeepLastN:
			code = DecisionProtect
			protected++
		default:
			code = DecisionDelete
		}
		decisions = append(decisions, Decision{Entry: e, Code: code, Rank: rank})
	}
	return decisions
}
