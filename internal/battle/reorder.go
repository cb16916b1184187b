package battle

import "github.com/park285/showdown-battle-bot/internal/domain"

// reorder fixes the server's out-of-order copy-ability announcements. When a
// pokemon's ability activates before the event revealing that it was copied,
// the copy triplet is moved in front of the earlier activation so the
// downstream model never sees an ability it cannot yet attribute.
//
// The pass scans the translated block read-only, builds a relocation plan,
// and materializes the result in one sweep; it never splices in place.
func reorder(events []domain.Event) []domain.Event {
	type candidate struct {
		idx int
		ev  domain.ActivateAbility
	}

	var candidates []candidate
	// insertions maps a destination index to the start of the triplet that
	// must be emitted just before it.
	insertions := make(map[int]int)
	relocated := make(map[int]bool)

	for i := 0; i < len(events); i++ {
		aa, ok := events[i].(domain.ActivateAbility)
		if !ok {
			continue
		}
		if aa.Ability != traceAbility {
			candidates = append(candidates, candidate{idx: i, ev: aa})
			continue
		}
		start, copied, ok := tripletAt(events, i)
		if !ok {
			candidates = append(candidates, candidate{idx: i, ev: aa})
			continue
		}
		// Earlier standalone activation of the copied ability on the
		// copier means the announcement arrived late; move the triplet in
		// front of it. The matched candidate and everything before it are
		// spent; candidates after it stay eligible for later triplets.
		for c := len(candidates) - 1; c >= 0; c-- {
			if candidates[c].ev.Mon == aa.Mon && candidates[c].ev.Ability == copied {
				insertions[candidates[c].idx] = start
				relocated[start] = true
				candidates = candidates[c+1:]
				break
			}
		}
		i = start + 2
	}

	if len(insertions) == 0 {
		return events
	}

	out := make([]domain.Event, 0, len(events))
	for i := 0; i < len(events); i++ {
		if start, ok := insertions[i]; ok {
			out = append(out, events[start], events[start+1], events[start+2])
		}
		if relocated[i] {
			i += 2
			continue
		}
		out = append(out, events[i])
	}
	return out
}

// tripletAt checks whether a copy-ability activation at index i heads a full
// triplet and returns its start index and the copied ability id.
func tripletAt(events []domain.Event, i int) (int, string, bool) {
	if i+2 >= len(events) {
		return 0, "", false
	}
	head := events[i].(domain.ActivateAbility)
	second, ok := events[i+1].(domain.ActivateAbility)
	if !ok || second.Mon != head.Mon || second.Ability == traceAbility {
		return 0, "", false
	}
	third, ok := events[i+2].(domain.ActivateAbility)
	if !ok || third.Ability != second.Ability || third.Mon == head.Mon {
		return 0, "", false
	}
	return i, second.Ability, true
}
