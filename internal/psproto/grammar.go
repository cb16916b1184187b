package psproto

import (
	"encoding/json"
	"strings"

	"go.uber.org/zap"
)

// pokemonID parses one "p1a: Nickname" field.
func pokemonID(in Input) (Result[PokemonID], error) {
	r, err := AnyWord(in)
	if err != nil {
		return Result[PokemonID]{}, err
	}
	id, err := parsePokemonIDString(r.Value, false)
	if err != nil {
		return Result[PokemonID]{}, err
	}
	return Result[PokemonID]{Value: id, Rest: r.Rest}, nil
}

// hpStatus parses one "<hp>/<hpMax>[ <status>]" or "0 fnt" field.
func hpStatus(in Input) (Result[HPStatus], error) {
	r, err := AnyWord(in)
	if err != nil {
		return Result[HPStatus]{}, err
	}
	hp, err := parseHPStatusString(r.Value)
	if err != nil {
		return Result[HPStatus]{}, err
	}
	return Result[HPStatus]{Value: hp, Rest: r.Rest}, nil
}

// plainWord consumes one word token that is not a bracketed suffix, so
// optional trailing fields never swallow annotations.
func plainWord(in Input) (Result[string], error) {
	r, err := AnyWord(in)
	if err != nil {
		return Result[string]{}, err
	}
	if strings.HasPrefix(r.Value, "[") {
		return Result[string]{}, failf("suffix token %q where field expected", r.Value)
	}
	return r, nil
}

// maybeTarget parses an optional trailing pokemon-id field.
func maybeTarget(in Input) (Result[*PokemonID], error) {
	r, err := pokemonID(in)
	if err != nil {
		return Result[*PokemonID]{Value: nil, Rest: in}, nil
	}
	id := r.Value
	return Result[*PokemonID]{Value: &id, Rest: r.Rest}, nil
}

// parseDetails splits a details field like "Pikachu, L83, M, shiny" into
// species, level (100 when absent) and gender ("" when absent).
func parseDetails(s string) (species string, level int, gender string) {
	level = 100
	parts := strings.Split(s, ",")
	species = strings.TrimSpace(parts[0])
	for _, p := range parts[1:] {
		p = strings.TrimSpace(p)
		switch {
		case p == "M" || p == "F" || p == "N":
			gender = p
		case strings.HasPrefix(p, "L"):
			if n, err := parseLevel(p[1:]); err == nil {
				level = n
			}
		}
	}
	return species, level, gender
}

func parseLevel(s string) (int, error) {
	r, err := Int(Input{toks: []Token{{Kind: TokenWord, Text: s}}})
	if err != nil {
		return 0, err
	}
	return r.Value, nil
}

// trailing scans the rest of the current line for bracketed suffix
// annotations and bare argument fields, then consumes the line break. The
// scan starts strictly after the event's required fields; unrecognized tags
// are dropped without error.
func trailing(in Input) (args []string, suf Suffix, rest Input, err error) {
	cur := in
	for !cur.AtLineEnd() {
		r, werr := AnyWord(cur)
		if werr != nil {
			break
		}
		cur = r.Rest
		text := r.Value
		if !strings.HasPrefix(text, "[") {
			args = append(args, text)
			continue
		}
		end := strings.IndexByte(text, ']')
		if end < 0 {
			continue
		}
		tag := text[1:end]
		value := strings.TrimSpace(text[end+1:])
		switch tag {
		case "from":
			if c, ok := parseCause(value); ok {
				suf.From = &c
			}
		case "of":
			if id, perr := parsePokemonIDString(value, false); perr == nil {
				suf.Of = &id
			}
		case "fatigue":
			suf.Fatigue = true
		case "eat":
			suf.Eat = true
		case "miss":
			suf.Miss = true
		case "upkeep":
			suf.Upkeep = true
		}
	}
	nr, nerr := Newline(cur)
	if nerr != nil {
		return nil, Suffix{}, in, nerr
	}
	return args, suf, nr.Rest, nil
}

// parseCause resolves a [from] value. Unknown shapes report !ok and are
// ignored by the caller.
func parseCause(s string) (Cause, bool) {
	if kind, name, found := strings.Cut(s, ": "); found {
		switch kind {
		case "ability":
			return Cause{Type: CauseAbility, Name: name}, true
		case "item":
			return Cause{Type: CauseItem, Name: name}, true
		case "move":
			return Cause{Type: CauseMove, Name: name}, true
		}
		return Cause{}, false
	}
	switch s {
	case "psn", "tox":
		return Cause{Type: CausePoison}, true
	case "stealeat":
		return Cause{Type: CauseStealEat}, true
	case "lockedmove":
		return Cause{Type: CauseLockedMove}, true
	case "recoil":
		return Cause{Type: CauseMove, Name: "recoil"}, true
	}
	return Cause{}, false
}

type eventRule func(Input) (Event, Input, error)

// eventRules maps a line's leading type tag to its grammar rule. The rules
// receive the cursor positioned just after the tag.
var eventRules map[string]eventRule

func init() {
	eventRules = map[string]eventRule{
		"-ability":        parseAbilityEvent,
		"-endability":     parseEndAbilityEvent,
		"-start":          parseStartEvent,
		"-end":            parseEndEvent,
		"-activate":       parseActivateEvent,
		"-boost":          parseBoostEvent,
		"-unboost":        parseUnboostEvent,
		"-setboost":       parseSetBoostEvent,
		"-swapboost":      parseSwapBoostEvent,
		"-copyboost":      parseCopyBoostEvent,
		"-invertboost":    parseInvertBoostEvent,
		"-clearallboost":  parseClearAllBoostEvent,
		"switch":          parseSwitchEvent,
		"drag":            parseSwitchEvent,
		"detailschange":   parseDetailsChangeEvent,
		"-formechange":    parseFormeChangeEvent,
		"move":            parseMoveEvent,
		"-damage":         parseDamageEvent,
		"-heal":           parseHealEvent,
		"-sethp":          parseSetHPEvent,
		"-status":         parseStatusEvent,
		"-curestatus":     parseCureStatusEvent,
		"-cureteam":       parseCureTeamEvent,
		"faint":           parseFaintEvent,
		"-fieldstart":     parseFieldStartEvent,
		"-fieldend":       parseFieldEndEvent,
		"-sidestart":      parseSideStartEvent,
		"-sideend":        parseSideEndEvent,
		"-weather":        parseWeatherEvent,
		"turn":            parseTurnEvent,
		"upkeep":          parseUpkeepEvent,
		"win":             parseWinEvent,
		"tie":             parseTieEvent,
		"cant":            parseCantEvent,
		"-item":           parseItemEvent,
		"-enditem":        parseEndItemEvent,
		"-transform":      parseTransformEvent,
		"-mustrecharge":   parseMustRechargeEvent,
		"-prepare":        parsePrepareEvent,
		"-singleturn":     parseSingleTurnEvent,
		"-singlemove":     parseSingleMoveEvent,
		"-crit":           parseCritEvent,
		"-supereffective": parseSuperEffectiveEvent,
		"-resisted":       parseResistedEvent,
		"-immune":         parseImmuneEvent,
		"-miss":           parseMissEvent,
		"-fail":           parseFailEvent,
	}
}

func parseAbilityEvent(in Input) (Event, Input, error) {
	r, err := Seq2(pokemonID, plainWord)(in)
	if err != nil {
		return nil, in, err
	}
	_, suf, rest, err := trailing(r.Rest)
	if err != nil {
		return nil, in, err
	}
	return AbilityEvent{Suffix: suf, ID: r.Value.First, Ability: r.Value.Second}, rest, nil
}

func parseEndAbilityEvent(in Input) (Event, Input, error) {
	r, err := pokemonID(in)
	if err != nil {
		return nil, in, err
	}
	_, suf, rest, err := trailing(r.Rest)
	if err != nil {
		return nil, in, err
	}
	return EndAbilityEvent{Suffix: suf, ID: r.Value}, rest, nil
}

func parseStartEvent(in Input) (Event, Input, error) {
	r, err := Seq2(pokemonID, plainWord)(in)
	if err != nil {
		return nil, in, err
	}
	args, suf, rest, err := trailing(r.Rest)
	if err != nil {
		return nil, in, err
	}
	return StartEvent{Suffix: suf, ID: r.Value.First, Name: r.Value.Second, Args: args}, rest, nil
}

func parseEndEvent(in Input) (Event, Input, error) {
	r, err := Seq2(pokemonID, plainWord)(in)
	if err != nil {
		return nil, in, err
	}
	_, suf, rest, err := trailing(r.Rest)
	if err != nil {
		return nil, in, err
	}
	return EndEvent{Suffix: suf, ID: r.Value.First, Name: r.Value.Second}, rest, nil
}

func parseActivateEvent(in Input) (Event, Input, error) {
	r, err := Seq2(pokemonID, plainWord)(in)
	if err != nil {
		return nil, in, err
	}
	args, suf, rest, err := trailing(r.Rest)
	if err != nil {
		return nil, in, err
	}
	return ActivateEvent{Suffix: suf, ID: r.Value.First, Name: r.Value.Second, Args: args}, rest, nil
}

func parseBoostEvent(in Input) (Event, Input, error) {
	r, err := Seq3(pokemonID, plainWord, Int)(in)
	if err != nil {
		return nil, in, err
	}
	_, suf, rest, err := trailing(r.Rest)
	if err != nil {
		return nil, in, err
	}
	return BoostEvent{Suffix: suf, ID: r.Value.First, Stat: r.Value.Second, Amount: r.Value.Third}, rest, nil
}

func parseUnboostEvent(in Input) (Event, Input, error) {
	r, err := Seq3(pokemonID, plainWord, Int)(in)
	if err != nil {
		return nil, in, err
	}
	_, suf, rest, err := trailing(r.Rest)
	if err != nil {
		return nil, in, err
	}
	return UnboostEvent{Suffix: suf, ID: r.Value.First, Stat: r.Value.Second, Amount: r.Value.Third}, rest, nil
}

func parseSetBoostEvent(in Input) (Event, Input, error) {
	r, err := Seq3(pokemonID, plainWord, Int)(in)
	if err != nil {
		return nil, in, err
	}
	_, suf, rest, err := trailing(r.Rest)
	if err != nil {
		return nil, in, err
	}
	return SetBoostEvent{Suffix: suf, ID: r.Value.First, Stat: r.Value.Second, Amount: r.Value.Third}, rest, nil
}

func parseSwapBoostEvent(in Input) (Event, Input, error) {
	r, err := Seq2(pokemonID, pokemonID)(in)
	if err != nil {
		return nil, in, err
	}
	args, suf, rest, err := trailing(r.Rest)
	if err != nil {
		return nil, in, err
	}
	ev := SwapBoostEvent{Suffix: suf, Source: r.Value.First, Target: r.Value.Second}
	if len(args) > 0 {
		for _, s := range strings.Split(args[0], ",") {
			if s = strings.TrimSpace(s); s != "" {
				ev.Stats = append(ev.Stats, s)
			}
		}
	}
	return ev, rest, nil
}

func parseCopyBoostEvent(in Input) (Event, Input, error) {
	r, err := Seq2(pokemonID, pokemonID)(in)
	if err != nil {
		return nil, in, err
	}
	_, suf, rest, err := trailing(r.Rest)
	if err != nil {
		return nil, in, err
	}
	return CopyBoostEvent{Suffix: suf, Source: r.Value.First, Target: r.Value.Second}, rest, nil
}

func parseInvertBoostEvent(in Input) (Event, Input, error) {
	r, err := pokemonID(in)
	if err != nil {
		return nil, in, err
	}
	_, suf, rest, err := trailing(r.Rest)
	if err != nil {
		return nil, in, err
	}
	return InvertBoostEvent{Suffix: suf, ID: r.Value}, rest, nil
}

func parseClearAllBoostEvent(in Input) (Event, Input, error) {
	_, suf, rest, err := trailing(in)
	if err != nil {
		return nil, in, err
	}
	return ClearAllBoostEvent{Suffix: suf}, rest, nil
}

func parseSwitchEvent(in Input) (Event, Input, error) {
	r, err := Seq3(pokemonID, plainWord, hpStatus)(in)
	if err != nil {
		return nil, in, err
	}
	_, suf, rest, err := trailing(r.Rest)
	if err != nil {
		return nil, in, err
	}
	species, level, gender := parseDetails(r.Value.Second)
	return SwitchEvent{
		Suffix: suf, ID: r.Value.First,
		Species: species, Level: level, Gender: gender, HP: r.Value.Third,
	}, rest, nil
}

func parseDetailsChangeEvent(in Input) (Event, Input, error) {
	ev, rest, err := parseSwitchEvent(in)
	if err != nil {
		return nil, in, err
	}
	sw := ev.(SwitchEvent)
	return DetailsChangeEvent{Suffix: sw.Suffix, ID: sw.ID, Species: sw.Species, Level: sw.Level, Gender: sw.Gender, HP: sw.HP}, rest, nil
}

func parseFormeChangeEvent(in Input) (Event, Input, error) {
	ev, rest, err := parseSwitchEvent(in)
	if err != nil {
		return nil, in, err
	}
	sw := ev.(SwitchEvent)
	return FormeChangeEvent{Suffix: sw.Suffix, ID: sw.ID, Species: sw.Species, Level: sw.Level, Gender: sw.Gender, HP: sw.HP}, rest, nil
}

func parseMoveEvent(in Input) (Event, Input, error) {
	r, err := Seq3(pokemonID, plainWord, maybeTarget)(in)
	if err != nil {
		return nil, in, err
	}
	_, suf, rest, err := trailing(r.Rest)
	if err != nil {
		return nil, in, err
	}
	return MoveEvent{Suffix: suf, ID: r.Value.First, Move: r.Value.Second, Target: r.Value.Third}, rest, nil
}

func parseDamageEvent(in Input) (Event, Input, error) {
	return parseDamageLike(in, false)
}

func parseHealEvent(in Input) (Event, Input, error) {
	return parseDamageLike(in, true)
}

func parseDamageLike(in Input, heal bool) (Event, Input, error) {
	r, err := Seq2(pokemonID, hpStatus)(in)
	if err != nil {
		return nil, in, err
	}
	_, suf, rest, err := trailing(r.Rest)
	if err != nil {
		return nil, in, err
	}
	return DamageEvent{Suffix: suf, ID: r.Value.First, HP: r.Value.Second, Heal: heal}, rest, nil
}

func parseSetHPEvent(in Input) (Event, Input, error) {
	r, err := Seq2(pokemonID, hpStatus)(in)
	if err != nil {
		return nil, in, err
	}
	_, suf, rest, err := trailing(r.Rest)
	if err != nil {
		return nil, in, err
	}
	return SetHPEvent{Suffix: suf, ID: r.Value.First, HP: r.Value.Second}, rest, nil
}

func parseStatusEvent(in Input) (Event, Input, error) {
	r, err := Seq2(pokemonID, plainWord)(in)
	if err != nil {
		return nil, in, err
	}
	_, suf, rest, err := trailing(r.Rest)
	if err != nil {
		return nil, in, err
	}
	return StatusEvent{Suffix: suf, ID: r.Value.First, Condition: r.Value.Second}, rest, nil
}

func parseCureStatusEvent(in Input) (Event, Input, error) {
	r, err := Seq2(pokemonID, plainWord)(in)
	if err != nil {
		return nil, in, err
	}
	_, suf, rest, err := trailing(r.Rest)
	if err != nil {
		return nil, in, err
	}
	return CureStatusEvent{Suffix: suf, ID: r.Value.First, Condition: r.Value.Second}, rest, nil
}

func parseCureTeamEvent(in Input) (Event, Input, error) {
	r, err := pokemonID(in)
	if err != nil {
		return nil, in, err
	}
	_, suf, rest, err := trailing(r.Rest)
	if err != nil {
		return nil, in, err
	}
	return CureTeamEvent{Suffix: suf, ID: r.Value}, rest, nil
}

func parseFaintEvent(in Input) (Event, Input, error) {
	r, err := pokemonID(in)
	if err != nil {
		return nil, in, err
	}
	_, suf, rest, err := trailing(r.Rest)
	if err != nil {
		return nil, in, err
	}
	return FaintEvent{Suffix: suf, ID: r.Value}, rest, nil
}

func parseFieldStartEvent(in Input) (Event, Input, error) {
	r, err := plainWord(in)
	if err != nil {
		return nil, in, err
	}
	_, suf, rest, err := trailing(r.Rest)
	if err != nil {
		return nil, in, err
	}
	return FieldStartEvent{Suffix: suf, Effect: r.Value}, rest, nil
}

func parseFieldEndEvent(in Input) (Event, Input, error) {
	r, err := plainWord(in)
	if err != nil {
		return nil, in, err
	}
	_, suf, rest, err := trailing(r.Rest)
	if err != nil {
		return nil, in, err
	}
	return FieldEndEvent{Suffix: suf, Effect: r.Value}, rest, nil
}

// sideID parses the "p1: username" form used by side-condition lines; only
// the player tag matters.
func sideID(in Input) (Result[PlayerID], error) {
	r, err := AnyWord(in)
	if err != nil {
		return Result[PlayerID]{}, err
	}
	if len(r.Value) < 2 {
		return Result[PlayerID]{}, failf("bad side %q", r.Value)
	}
	p := PlayerID(r.Value[:2])
	if p != Player1 && p != Player2 {
		return Result[PlayerID]{}, failf("bad side %q", r.Value)
	}
	return Result[PlayerID]{Value: p, Rest: r.Rest}, nil
}

func parseSideStartEvent(in Input) (Event, Input, error) {
	r, err := Seq2(sideID, plainWord)(in)
	if err != nil {
		return nil, in, err
	}
	_, suf, rest, err := trailing(r.Rest)
	if err != nil {
		return nil, in, err
	}
	return SideStartEvent{Suffix: suf, Player: r.Value.First, Condition: r.Value.Second}, rest, nil
}

func parseSideEndEvent(in Input) (Event, Input, error) {
	r, err := Seq2(sideID, plainWord)(in)
	if err != nil {
		return nil, in, err
	}
	_, suf, rest, err := trailing(r.Rest)
	if err != nil {
		return nil, in, err
	}
	return SideEndEvent{Suffix: suf, Player: r.Value.First, Condition: r.Value.Second}, rest, nil
}

func parseWeatherEvent(in Input) (Event, Input, error) {
	r, err := plainWord(in)
	if err != nil {
		return nil, in, err
	}
	_, suf, rest, err := trailing(r.Rest)
	if err != nil {
		return nil, in, err
	}
	return WeatherEvent{Suffix: suf, Weather: r.Value}, rest, nil
}

func parseTurnEvent(in Input) (Event, Input, error) {
	r, err := Int(in)
	if err != nil {
		return nil, in, err
	}
	_, suf, rest, err := trailing(r.Rest)
	if err != nil {
		return nil, in, err
	}
	return TurnEvent{Suffix: suf, Num: r.Value}, rest, nil
}

func parseUpkeepEvent(in Input) (Event, Input, error) {
	_, suf, rest, err := trailing(in)
	if err != nil {
		return nil, in, err
	}
	return UpkeepEvent{Suffix: suf}, rest, nil
}

func parseWinEvent(in Input) (Event, Input, error) {
	r, err := plainWord(in)
	if err != nil {
		return nil, in, err
	}
	_, suf, rest, err := trailing(r.Rest)
	if err != nil {
		return nil, in, err
	}
	return WinEvent{Suffix: suf, Winner: r.Value}, rest, nil
}

func parseTieEvent(in Input) (Event, Input, error) {
	_, suf, rest, err := trailing(in)
	if err != nil {
		return nil, in, err
	}
	return TieEvent{Suffix: suf}, rest, nil
}

func parseCantEvent(in Input) (Event, Input, error) {
	r, err := Seq3(pokemonID, plainWord, Maybe(plainWord, ""))(in)
	if err != nil {
		return nil, in, err
	}
	_, suf, rest, err := trailing(r.Rest)
	if err != nil {
		return nil, in, err
	}
	return CantEvent{Suffix: suf, ID: r.Value.First, Reason: r.Value.Second, Move: r.Value.Third}, rest, nil
}

func parseItemEvent(in Input) (Event, Input, error) {
	r, err := Seq2(pokemonID, plainWord)(in)
	if err != nil {
		return nil, in, err
	}
	_, suf, rest, err := trailing(r.Rest)
	if err != nil {
		return nil, in, err
	}
	return ItemEvent{Suffix: suf, ID: r.Value.First, Item: r.Value.Second}, rest, nil
}

func parseEndItemEvent(in Input) (Event, Input, error) {
	r, err := Seq2(pokemonID, plainWord)(in)
	if err != nil {
		return nil, in, err
	}
	_, suf, rest, err := trailing(r.Rest)
	if err != nil {
		return nil, in, err
	}
	return EndItemEvent{Suffix: suf, ID: r.Value.First, Item: r.Value.Second}, rest, nil
}

func parseTransformEvent(in Input) (Event, Input, error) {
	r, err := Seq2(pokemonID, pokemonID)(in)
	if err != nil {
		return nil, in, err
	}
	_, suf, rest, err := trailing(r.Rest)
	if err != nil {
		return nil, in, err
	}
	return TransformEvent{Suffix: suf, Source: r.Value.First, Target: r.Value.Second}, rest, nil
}

func parseMustRechargeEvent(in Input) (Event, Input, error) {
	r, err := pokemonID(in)
	if err != nil {
		return nil, in, err
	}
	_, suf, rest, err := trailing(r.Rest)
	if err != nil {
		return nil, in, err
	}
	return MustRechargeEvent{Suffix: suf, ID: r.Value}, rest, nil
}

func parsePrepareEvent(in Input) (Event, Input, error) {
	r, err := Seq3(pokemonID, plainWord, maybeTarget)(in)
	if err != nil {
		return nil, in, err
	}
	_, suf, rest, err := trailing(r.Rest)
	if err != nil {
		return nil, in, err
	}
	return PrepareEvent{Suffix: suf, ID: r.Value.First, Move: r.Value.Second, Target: r.Value.Third}, rest, nil
}

func parseSingleTurnEvent(in Input) (Event, Input, error) {
	r, err := Seq2(pokemonID, plainWord)(in)
	if err != nil {
		return nil, in, err
	}
	_, suf, rest, err := trailing(r.Rest)
	if err != nil {
		return nil, in, err
	}
	return SingleTurnEvent{Suffix: suf, ID: r.Value.First, Move: r.Value.Second}, rest, nil
}

func parseSingleMoveEvent(in Input) (Event, Input, error) {
	r, err := Seq2(pokemonID, plainWord)(in)
	if err != nil {
		return nil, in, err
	}
	_, suf, rest, err := trailing(r.Rest)
	if err != nil {
		return nil, in, err
	}
	return SingleMoveEvent{Suffix: suf, ID: r.Value.First, Move: r.Value.Second}, rest, nil
}

func parseCritEvent(in Input) (Event, Input, error) {
	r, err := pokemonID(in)
	if err != nil {
		return nil, in, err
	}
	_, suf, rest, err := trailing(r.Rest)
	if err != nil {
		return nil, in, err
	}
	return CritEvent{Suffix: suf, ID: r.Value}, rest, nil
}

func parseSuperEffectiveEvent(in Input) (Event, Input, error) {
	r, err := pokemonID(in)
	if err != nil {
		return nil, in, err
	}
	_, suf, rest, err := trailing(r.Rest)
	if err != nil {
		return nil, in, err
	}
	return SuperEffectiveEvent{Suffix: suf, ID: r.Value}, rest, nil
}

func parseResistedEvent(in Input) (Event, Input, error) {
	r, err := pokemonID(in)
	if err != nil {
		return nil, in, err
	}
	_, suf, rest, err := trailing(r.Rest)
	if err != nil {
		return nil, in, err
	}
	return ResistedEvent{Suffix: suf, ID: r.Value}, rest, nil
}

func parseImmuneEvent(in Input) (Event, Input, error) {
	r, err := pokemonID(in)
	if err != nil {
		return nil, in, err
	}
	_, suf, rest, err := trailing(r.Rest)
	if err != nil {
		return nil, in, err
	}
	return ImmuneEvent{Suffix: suf, ID: r.Value}, rest, nil
}

func parseMissEvent(in Input) (Event, Input, error) {
	r, err := Seq2(pokemonID, maybeTarget)(in)
	if err != nil {
		return nil, in, err
	}
	_, suf, rest, err := trailing(r.Rest)
	if err != nil {
		return nil, in, err
	}
	return MissEvent{Suffix: suf, ID: r.Value.First, Target: r.Value.Second}, rest, nil
}

func parseFailEvent(in Input) (Event, Input, error) {
	r, err := Seq2(pokemonID, Maybe(plainWord, ""))(in)
	if err != nil {
		return nil, in, err
	}
	_, suf, rest, err := trailing(r.Rest)
	if err != nil {
		return nil, in, err
	}
	return FailEvent{Suffix: suf, ID: r.Value.First, Reason: r.Value.Second}, rest, nil
}

// initBuilder accumulates the multi-line battle-initialization aggregate. It
// is finalized at chunk end and discarded silently when required fields are
// missing, which models an early partial send from the server.
type initBuilder struct {
	started   bool
	players   map[PlayerID]string
	teamSizes map[PlayerID]int
	gameType  string
	gen       int
	events    []Event
}

func (b *initBuilder) finalize() (BattleInit, bool) {
	if !b.started {
		return BattleInit{}, false
	}
	if len(b.teamSizes) < 2 || b.gen == 0 {
		return BattleInit{}, false
	}
	return BattleInit{
		Players:   b.players,
		TeamSizes: b.teamSizes,
		GameType:  b.gameType,
		Gen:       b.gen,
		Events:    b.events,
	}, true
}

// ParseChunk tokenizes and parses one server chunk into its room name and
// ordered messages. It never fails as a whole: lines that do not parse are
// logged and dropped, unknown type tags are skipped silently.
func ParseChunk(chunk string, log *zap.Logger) (string, []Message) {
	if log == nil {
		log = zap.NewNop()
	}
	room, in := Tokenize(chunk)

	var (
		msgs     []Message
		builder  initBuilder
		progress []Event
	)

	appendEvent := func(ev Event) {
		if builder.started {
			builder.events = append(builder.events, ev)
		} else {
			progress = append(progress, ev)
		}
	}

	// startInit flips into init-accumulation mode. Event lines can precede
	// the first init field within the same chunk; they belong to the init
	// block, not to a progress update, so they are folded in rather than
	// dropped.
	startInit := func() {
		if builder.started {
			return
		}
		builder.started = true
		if len(progress) > 0 {
			builder.events = append(builder.events, progress...)
			progress = nil
		}
	}

	for !in.Done() {
		tok, ok := in.Peek()
		if !ok {
			break
		}
		if tok.Kind == TokenNewline {
			_, in, _ = in.Next()
			continue
		}
		tagRes, err := AnyWord(in)
		if err != nil {
			in = in.SkipLine()
			continue
		}
		tag := tagRes.Value
		rest := tagRes.Rest

		if rule, found := eventRules[tag]; found {
			ev, after, perr := rule(rest)
			if perr != nil {
				log.Debug("dropping malformed event line",
					zap.String("tag", tag), zap.Error(perr))
				in = in.SkipLine()
				continue
			}
			appendEvent(ev)
			in = after
			continue
		}

		switch tag {
		case "challstr":
			msg, after, perr := parseChallStr(rest)
			if perr != nil {
				log.Debug("dropping malformed challstr", zap.Error(perr))
				in = in.SkipLine()
				continue
			}
			msgs = append(msgs, msg)
			in = after
		case "init":
			r, perr := AnyWord(rest)
			if perr != nil {
				in = in.SkipLine()
				continue
			}
			msgs = append(msgs, InitRoom{Type: r.Value})
			in = r.Rest.SkipLine()
		case "deinit":
			msgs = append(msgs, DeinitRoom{})
			in = rest.SkipLine()
		case "error":
			msgs = append(msgs, ErrorMessage{Reason: lineRemainder(rest)})
			in = rest.SkipLine()
		case "request":
			payload := lineRemainder(rest)
			in = rest.SkipLine()
			if strings.TrimSpace(payload) == "" {
				continue
			}
			req, perr := ParseRequest(payload)
			if perr != nil {
				log.Debug("dropping malformed request", zap.Error(perr))
				continue
			}
			msgs = append(msgs, req)
		case "updateuser":
			msg, after, perr := parseUpdateUser(rest)
			if perr != nil {
				in = in.SkipLine()
				continue
			}
			msgs = append(msgs, msg)
			in = after
		case "updatechallenges":
			payload := lineRemainder(rest)
			in = rest.SkipLine()
			var raw struct {
				ChallengesFrom map[string]string `json:"challengesFrom"`
				ChallengeTo    *ChallengeTo      `json:"challengeTo"`
			}
			if jerr := json.Unmarshal([]byte(payload), &raw); jerr != nil {
				log.Debug("dropping malformed updatechallenges", zap.Error(jerr))
				continue
			}
			msgs = append(msgs, UpdateChallenges{
				ChallengesFrom: raw.ChallengesFrom,
				ChallengeTo:    raw.ChallengeTo,
			})
		case "player":
			startInit()
			if r, perr := Seq2(AnyWord, AnyWord)(rest); perr == nil {
				if builder.players == nil {
					builder.players = make(map[PlayerID]string)
				}
				builder.players[PlayerID(r.Value.First)] = r.Value.Second
			}
			in = rest.SkipLine()
		case "teamsize":
			startInit()
			if r, perr := Seq2(AnyWord, Int)(rest); perr == nil {
				if builder.teamSizes == nil {
					builder.teamSizes = make(map[PlayerID]int)
				}
				builder.teamSizes[PlayerID(r.Value.First)] = r.Value.Second
			}
			in = rest.SkipLine()
		case "gametype":
			startInit()
			if r, perr := AnyWord(rest); perr == nil {
				builder.gameType = r.Value
			}
			in = rest.SkipLine()
		case "gen":
			startInit()
			if r, perr := Int(rest); perr == nil {
				builder.gen = r.Value
			}
			in = rest.SkipLine()
		case "tier", "rated", "rule", "start", "clearpoke", "poke", "teampreview":
			// Init-block furniture with no translated meaning.
			in = rest.SkipLine()
		default:
			in = rest.SkipLine()
		}
	}

	if init, valid := builder.finalize(); valid {
		msgs = append(msgs, init)
	} else if builder.started {
		log.Debug("discarding incomplete battle init block")
	}
	if !builder.started && len(progress) > 0 {
		msgs = append(msgs, BattleProgress{Events: progress})
	}
	return room, msgs
}

// parseChallStr reads "|challstr|<keyid>|<challenge>". The challenge value
// itself may contain separators, so the rest of the line is rejoined.
func parseChallStr(in Input) (Message, Input, error) {
	r, err := Int(in)
	if err != nil {
		return nil, in, err
	}
	challenge := lineRemainder(r.Rest)
	if challenge == "" {
		return nil, in, failf("empty challstr")
	}
	return ChallStr{KeyID: r.Value, Challenge: challenge}, r.Rest.SkipLine(), nil
}

func parseUpdateUser(in Input) (Message, Input, error) {
	r, err := Seq2(AnyWord, AnyWord)(in)
	if err != nil {
		return nil, in, err
	}
	return UpdateUser{
		Username: strings.TrimSpace(r.Value.First),
		Named:    r.Value.Second == "1",
	}, r.Rest.SkipLine(), nil
}

// lineRemainder joins the rest of the current line back together with the
// field separator, for payloads that may legally contain it.
func lineRemainder(in Input) string {
	var parts []string
	cur := in
	for !cur.AtLineEnd() {
		r, err := AnyWord(cur)
		if err != nil {
			break
		}
		parts = append(parts, r.Value)
		cur = r.Rest
	}
	return strings.Join(parts, "|")
}
