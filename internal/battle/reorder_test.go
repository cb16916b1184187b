package battle

import (
	"reflect"
	"testing"

	"github.com/park285/showdown-battle-bot/internal/domain"
)

var (
	copier = domain.Mon{Side: domain.SideUs, Name: "Ace"}
	owner  = domain.Mon{Side: domain.SideThem, Name: "Hippo"}
)

func triplet(ability string) []domain.Event {
	return tripletFor(copier, ability)
}

func tripletFor(mon domain.Mon, ability string) []domain.Event {
	return []domain.Event{
		domain.ActivateAbility{Mon: mon, Ability: traceAbility},
		domain.ActivateAbility{Mon: mon, Ability: ability},
		domain.ActivateAbility{Mon: owner, Ability: ability},
	}
}

func TestReorderNoTriplet(t *testing.T) {
	in := []domain.Event{
		domain.ActivateAbility{Mon: copier, Ability: "intimidate"},
		domain.TurnEnd{},
	}
	if out := reorder(in); !reflect.DeepEqual(out, in) {
		t.Fatalf("out = %#v", out)
	}
}

func TestReorderTripletWithoutEarlierActivation(t *testing.T) {
	in := triplet("sandstream")
	if out := reorder(in); !reflect.DeepEqual(out, in) {
		t.Fatalf("out = %#v", out)
	}
}

func TestReorderMovesTripletBeforeActivation(t *testing.T) {
	early := domain.ActivateAbility{Mon: copier, Ability: "intimidate"}
	boost := domain.Boost{Mon: owner, Stat: "atk", Amount: -1}
	in := append([]domain.Event{early, boost}, triplet("intimidate")...)

	want := append(triplet("intimidate"), early, boost)
	if out := reorder(in); !reflect.DeepEqual(out, want) {
		t.Fatalf("out = %#v\nwant %#v", out, want)
	}
}

func TestReorderIgnoresOtherMonActivation(t *testing.T) {
	// An earlier activation on a different pokemon is not a candidate.
	early := domain.ActivateAbility{Mon: owner, Ability: "intimidate"}
	in := append([]domain.Event{early}, triplet("intimidate")...)
	if out := reorder(in); !reflect.DeepEqual(out, in) {
		t.Fatalf("out = %#v", out)
	}
}

func TestReorderDiscardsConsumedCandidates(t *testing.T) {
	// Two triplets; the second must not match a candidate already consumed
	// by the first.
	early := domain.ActivateAbility{Mon: copier, Ability: "intimidate"}
	in := append([]domain.Event{early}, triplet("intimidate")...)
	in = append(in, triplet("intimidate")...)

	out := reorder(in)
	want := append(triplet("intimidate"), early)
	want = append(want, triplet("intimidate")...)
	if !reflect.DeepEqual(out, want) {
		t.Fatalf("out = %#v\nwant %#v", out, want)
	}
}

func TestReorderSpendsMatchAndEarlierOnly(t *testing.T) {
	// Matching a candidate spends it and everything before it; candidates
	// recorded after the match stay eligible for later triplets.
	other := domain.Mon{Side: domain.SideUs, Name: "Bee"}
	earlyAce := domain.ActivateAbility{Mon: copier, Ability: "intimidate"}
	earlyBee := domain.ActivateAbility{Mon: other, Ability: "levitate"}

	in := []domain.Event{earlyAce, earlyBee}
	in = append(in, tripletFor(copier, "intimidate")...)
	in = append(in, tripletFor(other, "levitate")...)

	want := append(tripletFor(copier, "intimidate"), earlyAce)
	want = append(want, tripletFor(other, "levitate")...)
	want = append(want, earlyBee)
	if out := reorder(in); !reflect.DeepEqual(out, want) {
		t.Fatalf("out = %#v\nwant %#v", out, want)
	}

	// Reversed: the match sits after the other candidate, which is then
	// spent along with it — the second triplet stays in place.
	in = []domain.Event{earlyBee, earlyAce}
	in = append(in, tripletFor(copier, "intimidate")...)
	in = append(in, tripletFor(other, "levitate")...)

	want = []domain.Event{earlyBee}
	want = append(want, tripletFor(copier, "intimidate")...)
	want = append(want, earlyAce)
	want = append(want, tripletFor(other, "levitate")...)
	if out := reorder(in); !reflect.DeepEqual(out, want) {
		t.Fatalf("out = %#v\nwant %#v", out, want)
	}
}

func TestReorderLoneCopyAbilityActivation(t *testing.T) {
	// A bare copy-ability activation with no following pair stays put.
	in := []domain.Event{
		domain.ActivateAbility{Mon: copier, Ability: traceAbility},
		domain.TurnEnd{},
	}
	if out := reorder(in); !reflect.DeepEqual(out, in) {
		t.Fatalf("out = %#v", out)
	}
}
