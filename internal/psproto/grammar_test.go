package psproto

import (
	"testing"
)

func TestParseChunkBattleInit(t *testing.T) {
	chunk := ">battle-gen4ou-42\n" +
		"|init|battle\n" +
		"|player|p1|Alice|1\n" +
		"|player|p2|Bob|2\n" +
		"|teamsize|p1|6\n" +
		"|teamsize|p2|6\n" +
		"|gametype|singles\n" +
		"|gen|4\n" +
		"|tier|[Gen 4] OU\n" +
		"|start\n" +
		"|switch|p1a: Ace|Metagross, L100|301/301\n" +
		"|switch|p2a: Hippo|Hippowdon, L100, M|100/100\n" +
		"|turn|1\n"

	room, msgs := ParseChunk(chunk, nil)
	if room != "battle-gen4ou-42" {
		t.Fatalf("room = %q", room)
	}
	if len(msgs) != 2 {
		t.Fatalf("messages = %d, want init room + battle init", len(msgs))
	}
	if ir, ok := msgs[0].(InitRoom); !ok || ir.Type != "battle" {
		t.Fatalf("msgs[0] = %#v, want InitRoom battle", msgs[0])
	}
	init, ok := msgs[1].(BattleInit)
	if !ok {
		t.Fatalf("msgs[1] = %#v, want BattleInit", msgs[1])
	}
	if init.Players["p1"] != "Alice" || init.Players["p2"] != "Bob" {
		t.Fatalf("players = %v", init.Players)
	}
	if init.TeamSizes["p1"] != 6 || init.TeamSizes["p2"] != 6 {
		t.Fatalf("team sizes = %v", init.TeamSizes)
	}
	if init.Gen != 4 || init.GameType != "singles" {
		t.Fatalf("gen %d gametype %q", init.Gen, init.GameType)
	}
	// Two switches plus the turn marker.
	if len(init.Events) != 3 {
		t.Fatalf("init events = %d, want 3", len(init.Events))
	}
	sw, ok := init.Events[0].(SwitchEvent)
	if !ok {
		t.Fatalf("events[0] = %#v", init.Events[0])
	}
	if sw.ID.Player != "p1" || sw.ID.Nickname != "Ace" || sw.Species != "Metagross" {
		t.Fatalf("switch = %+v", sw)
	}
	if sw.Level != 100 || sw.HP.HP != 301 || sw.HP.MaxHP != 301 {
		t.Fatalf("switch details = %+v", sw)
	}
	if _, ok := init.Events[2].(TurnEvent); !ok {
		t.Fatalf("events[2] = %#v, want TurnEvent", init.Events[2])
	}
}

func TestParseChunkIncompleteInitDiscarded(t *testing.T) {
	chunk := "|player|p1|Alice|1\n|teamsize|p1|6\n|gen|4\n"
	_, msgs := ParseChunk(chunk, nil)
	if len(msgs) != 0 {
		t.Fatalf("messages = %#v, want none for partial init", msgs)
	}
}

func TestParseChunkEventBeforeInitFieldsFoldsIntoInit(t *testing.T) {
	chunk := ">battle-gen4ou-42\n" +
		"|init|battle\n" +
		"|switch|p1a: Ace|Metagross, L100|301/301\n" +
		"|player|p1|Alice|1\n" +
		"|player|p2|Bob|2\n" +
		"|teamsize|p1|6\n" +
		"|teamsize|p2|6\n" +
		"|gametype|singles\n" +
		"|gen|4\n" +
		"|turn|1\n"

	_, msgs := ParseChunk(chunk, nil)
	if len(msgs) != 2 {
		t.Fatalf("messages = %d, want init room + battle init", len(msgs))
	}
	init, ok := msgs[1].(BattleInit)
	if !ok {
		t.Fatalf("msgs[1] = %#v, want BattleInit", msgs[1])
	}
	// The switch before the first player line belongs to the init block.
	if len(init.Events) != 2 {
		t.Fatalf("init events = %d, want switch + turn", len(init.Events))
	}
	if _, ok := init.Events[0].(SwitchEvent); !ok {
		t.Fatalf("init.Events[0] = %#v, want SwitchEvent", init.Events[0])
	}
	for _, m := range msgs {
		if _, ok := m.(BattleProgress); ok {
			t.Fatalf("unexpected progress message %#v", m)
		}
	}
}

func TestParseChunkProgressWithSuffixes(t *testing.T) {
	chunk := ">battle-gen4ou-42\n" +
		"|move|p1a: Ace|Meteor Mash|p2a: Hippo\n" +
		"|-damage|p2a: Hippo|172/420|[from] item: Life Orb|[of] p1a: Ace\n" +
		"|-damage|p1a: Ace|250/301 tox|[from] psn\n" +
		"|-heal|p2a: Hippo|222/420|[from] move: Wish\n" +
		"|faint|p2a: Hippo\n"

	_, msgs := ParseChunk(chunk, nil)
	if len(msgs) != 1 {
		t.Fatalf("messages = %d, want one progress", len(msgs))
	}
	prog := msgs[0].(BattleProgress)
	if len(prog.Events) != 5 {
		t.Fatalf("events = %d, want 5", len(prog.Events))
	}

	mv := prog.Events[0].(MoveEvent)
	if mv.Move != "Meteor Mash" || mv.Target == nil || mv.Target.Nickname != "Hippo" {
		t.Fatalf("move = %+v", mv)
	}

	dmg := prog.Events[1].(DamageEvent)
	if dmg.From == nil || dmg.From.Type != CauseItem || dmg.From.Name != "Life Orb" {
		t.Fatalf("damage cause = %+v", dmg.From)
	}
	if dmg.Of == nil || dmg.Of.Nickname != "Ace" {
		t.Fatalf("damage of = %+v", dmg.Of)
	}

	tox := prog.Events[2].(DamageEvent)
	if tox.From == nil || tox.From.Type != CausePoison {
		t.Fatalf("toxic cause = %+v", tox.From)
	}
	if tox.HP.Status != "tox" {
		t.Fatalf("toxic hp = %+v", tox.HP)
	}

	heal := prog.Events[3].(DamageEvent)
	if !heal.Heal || heal.From == nil || heal.From.Type != CauseMove || heal.From.Name != "Wish" {
		t.Fatalf("heal = %+v cause %+v", heal, heal.From)
	}

	if _, ok := prog.Events[4].(FaintEvent); !ok {
		t.Fatalf("events[4] = %#v", prog.Events[4])
	}
}

func TestParseChunkMalformedLineDropped(t *testing.T) {
	chunk := "|move|garbage-no-position|Tackle\n|turn|3\n"
	_, msgs := ParseChunk(chunk, nil)
	if len(msgs) != 1 {
		t.Fatalf("messages = %d, want 1", len(msgs))
	}
	prog := msgs[0].(BattleProgress)
	if len(prog.Events) != 1 {
		t.Fatalf("events = %#v, want only the turn marker", prog.Events)
	}
	turn := prog.Events[0].(TurnEvent)
	if turn.Num != 3 {
		t.Fatalf("turn = %d", turn.Num)
	}
}

func TestParseChunkChallStr(t *testing.T) {
	_, msgs := ParseChunk("|challstr|4|abc|def==", nil)
	if len(msgs) != 1 {
		t.Fatalf("messages = %d", len(msgs))
	}
	c := msgs[0].(ChallStr)
	if c.KeyID != 4 || c.Challenge != "abc|def==" {
		t.Fatalf("challstr = %+v", c)
	}
}

func TestParseChunkRequest(t *testing.T) {
	payload := `{"active":[{"moves":[{"move":"Surf","id":"surf","pp":24,"maxpp":24}]}],` +
		`"side":{"name":"Alice","id":"p1","pokemon":[` +
		`{"ident":"p1: Ace","details":"Starmie, L100","condition":"268/268","active":true,"moves":["surf"]}]},"rqid":3}`
	_, msgs := ParseChunk("|request|"+payload, nil)
	if len(msgs) != 1 {
		t.Fatalf("messages = %d", len(msgs))
	}
	req := msgs[0].(*Request)
	if req.RQID != 3 || req.Side.ID != "p1" || len(req.Active) != 1 {
		t.Fatalf("request = %+v", req)
	}
	if req.Active[0].Moves[0].ID != "surf" {
		t.Fatalf("moves = %+v", req.Active[0].Moves)
	}
	p := req.Side.Pokemon[0]
	if p.Species() != "Starmie" || p.Fainted() {
		t.Fatalf("pokemon = %+v", p)
	}

	// Empty request payloads keep the old snapshot.
	if _, msgs := ParseChunk("|request|", nil); len(msgs) != 0 {
		t.Fatalf("empty request produced %#v", msgs)
	}
}

func TestParseChunkUpdateChallenges(t *testing.T) {
	payload := `{"challengesFrom":{"rival":"gen4ou"},"challengeTo":null}`
	_, msgs := ParseChunk("|updatechallenges|"+payload, nil)
	if len(msgs) != 1 {
		t.Fatalf("messages = %d", len(msgs))
	}
	u := msgs[0].(UpdateChallenges)
	if u.ChallengesFrom["rival"] != "gen4ou" {
		t.Fatalf("challenges = %+v", u)
	}
}

func TestParseChunkCantAndBrackets(t *testing.T) {
	chunk := "|cant|p1a: Ace|slp\n" +
		"|cant|p2a: Hippo|ability: Truant\n" +
		"|-start|p1a: Ace|confusion|[fatigue]\n" +
		"|-enditem|p1a: Ace|Sitrus Berry|[eat]\n" +
		"|-weather|Sandstorm|[upkeep]\n"
	_, msgs := ParseChunk(chunk, nil)
	prog := msgs[0].(BattleProgress)
	if len(prog.Events) != 5 {
		t.Fatalf("events = %d, want 5", len(prog.Events))
	}
	if c := prog.Events[0].(CantEvent); c.Reason != "slp" {
		t.Fatalf("cant = %+v", c)
	}
	if c := prog.Events[1].(CantEvent); c.Reason != "ability: Truant" {
		t.Fatalf("cant = %+v", c)
	}
	if st := prog.Events[2].(StartEvent); !st.Fatigue {
		t.Fatalf("start = %+v", st)
	}
	if ei := prog.Events[3].(EndItemEvent); !ei.Eat {
		t.Fatalf("enditem = %+v", ei)
	}
	if w := prog.Events[4].(WeatherEvent); !w.Upkeep || w.Weather != "Sandstorm" {
		t.Fatalf("weather = %+v", w)
	}
}

func TestParsePokemonIDStrict(t *testing.T) {
	if _, err := parsePokemonIDString("p1a: Ace", false); err != nil {
		t.Fatalf("strict parse: %v", err)
	}
	if _, err := parsePokemonIDString("p1: Ace", false); err == nil {
		t.Fatal("strict parse accepted missing slot")
	}
	id, err := parsePokemonIDString("p1: Ace", true)
	if err != nil {
		t.Fatalf("request parse: %v", err)
	}
	if id.Player != "p1" || id.Nickname != "Ace" {
		t.Fatalf("id = %+v", id)
	}
	if _, err := parsePokemonIDString("p9a: Ace", false); err == nil {
		t.Fatal("accepted invalid player tag")
	}
}

func TestHPStatusRoundTrip(t *testing.T) {
	cases := []string{"301/301", "250/301 tox", "0 fnt"}
	for _, c := range cases {
		hp, err := parseHPStatusString(c)
		if err != nil {
			t.Fatalf("parse %q: %v", c, err)
		}
		if got := hp.String(); got != c {
			t.Errorf("round trip %q = %q", c, got)
		}
	}
	hp, err := parseHPStatusString("0 fnt")
	if err != nil {
		t.Fatal(err)
	}
	if !hp.Fainted() {
		t.Fatal("0 fnt not fainted")
	}
}

func TestCantReasonWithMove(t *testing.T) {
	chunk := "|cant|p1a: Ace|Imprison|Tackle\n"
	_, msgs := ParseChunk(chunk, nil)
	prog := msgs[0].(BattleProgress)
	c := prog.Events[0].(CantEvent)
	if c.Reason != "Imprison" || c.Move != "Tackle" {
		t.Fatalf("cant = %+v", c)
	}
}
