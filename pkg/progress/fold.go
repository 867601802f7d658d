package progress

import "slices"

// FoldFunc is one step of the aggregation pipeline. It must be pure.
// The boolean result is false when the event does not contribute to this
// summary; the accumulator is then left untouched.
type FoldFunc func(acc Summary, e Event) (Summary, bool)

// CountAll adds every event's count, whatever its type.
func CountAll(acc Summary, e Event) (Summary, bool) {
	acc.Count += e.Count
	return acc, true
}

// CountResolved folds Resolve events only, appending the event id.
// Repeated ids are appended again.
func CountResolved(acc Summary, e Event) (Summary, bool) {
	if e.Type != Resolve {
		return acc, false
	}
	// Clip so the new snapshot never writes into a previous one's array.
	return Summary{
		Count: acc.Count + e.Count,
		IDs:   append(slices.Clip(acc.IDs), e.ID),
	}, true
}

// Fold applies step to events starting from zero and returns the result.
// Invalid events are skipped, mirroring Channel.Post.
func Fold(step FoldFunc, zero Summary, events ...Event) Summary {
	acc := zero.Clone()
	for _, e := range events {
		if e.Validate() != nil {
			continue
		}
		if next, ok := step(acc, e); ok {
			acc = next
		}
	}
	return acc
}
