package bot

import (
	"testing"

	"github.com/park285/showdown-battle-bot/internal/domain"
	"github.com/park285/showdown-battle-bot/internal/psproto"
)

func TestDefaultChooserPicksFirstEnabledMove(t *testing.T) {
	req := &psproto.Request{
		Active: []psproto.RequestActive{{Moves: []psproto.RequestMove{
			{ID: "taunt", Disabled: true},
			{ID: "surf"},
			{ID: "recover"},
		}}},
	}
	choice, ok := DefaultChooser(req)
	if !ok || choice != "move 2" {
		t.Fatalf("choice = %q, %v", choice, ok)
	}
}

func TestDefaultChooserForcedSwitch(t *testing.T) {
	req := &psproto.Request{
		ForceSwitch: []bool{true},
		Side: psproto.RequestSide{
			ID: "p1",
			Pokemon: []psproto.RequestPokemon{
				{Ident: "p1: Ace", Condition: "0 fnt", Active: true},
				{Ident: "p1: Duck", Condition: "0 fnt"},
				{Ident: "p1: Hippo", Condition: "120/301"},
			},
		},
	}
	choice, ok := DefaultChooser(req)
	if !ok || choice != "switch 3" {
		t.Fatalf("choice = %q, %v", choice, ok)
	}

	// Nothing healthy left on the bench: no decision.
	req.Side.Pokemon[2].Condition = "0 fnt"
	if choice, ok := DefaultChooser(req); ok {
		t.Fatalf("unexpected choice %q", choice)
	}
}

func TestDefaultChooserWait(t *testing.T) {
	if _, ok := DefaultChooser(&psproto.Request{Wait: true}); ok {
		t.Fatal("wait request produced a choice")
	}
	if _, ok := DefaultChooser(nil); ok {
		t.Fatal("nil request produced a choice")
	}
	// All moves disabled: nothing to send.
	req := &psproto.Request{
		Active: []psproto.RequestActive{{Moves: []psproto.RequestMove{
			{ID: "surf", Disabled: true},
		}}},
	}
	if _, ok := DefaultChooser(req); ok {
		t.Fatal("disabled-only request produced a choice")
	}
}

func TestLogHandlerAcceptsEvents(t *testing.T) {
	h := NewLogHandler(nil)
	if err := h.HandleEvent(domain.TurnBegin{}); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if err := h.HandleEvent(domain.GameOver{Tie: true}); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
}
