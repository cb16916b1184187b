// Package battle translates parsed protocol events into the normalized
// domain event stream. One Translator instance owns one battle's cross-call
// state; callers must serialize calls per battle.
package battle

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/park285/showdown-battle-bot/internal/dex"
	"github.com/park285/showdown-battle-bot/internal/domain"
	"github.com/park285/showdown-battle-bot/internal/psproto"
)

var (
	// ErrNoSideMapping is returned when translation is attempted before a
	// battle-initialization fixed the player-to-side mapping.
	ErrNoSideMapping = errors.New("battle: side mapping not set")
	// ErrUnknownPlayer is returned when the configured username matches
	// neither player of a battle-initialization.
	ErrUnknownPlayer = errors.New("battle: username matches no player")
	// ErrSuffixTarget is returned when a suffix annotation must be emitted
	// but no pokemon id is addressable.
	ErrSuffixTarget = errors.New("battle: suffix with no addressable pokemon")
	// ErrMoveCopyLookback is returned when a move-copy activation is not
	// immediately preceded by a matching move use.
	ErrMoveCopyLookback = errors.New("battle: move-copy lookback violated")
)

// traceAbility is the copy-ability at the heart of the triplet emission and
// the reorder pass.
const traceAbility = "trace"

// SideMap fixes each wire player to a logical side for the whole battle.
type SideMap map[psproto.PlayerID]domain.Side

// State is the translator's entire cross-call state. It is small and
// serializable; the Translate functions take it in and hand an updated copy
// back, keeping the transition itself a pure function.
type State struct {
	Battling bool
	NewTurn  bool
	Sides    SideMap
	Request  *psproto.Request
}

// Translator pairs a State with the client username and a logger.
type Translator struct {
	username string
	log      *zap.Logger
	state    State
}

// New returns a translator for the given client username.
func New(username string, log *zap.Logger) *Translator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Translator{username: username, log: log}
}

// State returns a copy of the current cross-call state.
func (t *Translator) State() State { return t.state }

// Battling reports whether a battle is in progress.
func (t *Translator) Battling() bool { return t.state.Battling }

// HandleMessage feeds one protocol message through the translator. Messages
// that are not battle traffic update context (request snapshots) or are
// ignored; battle messages yield domain events.
func (t *Translator) HandleMessage(msg psproto.Message) ([]domain.Event, error) {
	switch m := msg.(type) {
	case *psproto.Request:
		t.state.Request = m
		return nil, nil
	case psproto.BattleInit:
		st, evs, err := TranslateInit(t.state, t.username, m, t.log)
		if err != nil {
			return nil, err
		}
		t.state = st
		return evs, nil
	case psproto.BattleProgress:
		st, evs, err := Translate(t.state, t.username, m.Events, t.log)
		if err != nil {
			return nil, err
		}
		t.state = st
		return evs, nil
	default:
		return nil, nil
	}
}

// TranslateInit enters the battling state: it fixes the side mapping from
// the init block's player identities and translates the initial event block.
func TranslateInit(st State, username string, init psproto.BattleInit, log *zap.Logger) (State, []domain.Event, error) {
	sides := make(SideMap, 2)
	me := dex.ToID(username)
	for player, name := range init.Players {
		if dex.ToID(name) == me {
			sides[player] = domain.SideUs
			sides[player.Opponent()] = domain.SideThem
		}
	}
	if len(sides) != 2 {
		return st, nil, fmt.Errorf("%w: %q", ErrUnknownPlayer, username)
	}
	st.Battling = true
	st.NewTurn = false
	st.Sides = sides
	return Translate(st, username, init.Events, log)
}

// Translate runs one update cycle: given the cross-call state and an ordered
// event block, it produces the ordered domain events with the reorder
// post-pass applied, and the successor state. Escalated failures abort the
// whole call; the caller should treat the chunk as unusable.
func Translate(st State, username string, events []psproto.Event, log *zap.Logger) (State, []domain.Event, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if !st.Battling || len(st.Sides) != 2 {
		return st, nil, ErrNoSideMapping
	}

	s := &session{st: st, username: username, events: events, log: log}
	if s.st.NewTurn {
		s.emit(domain.TurnBegin{})
	}
	s.st.NewTurn = false

	sawTurn := false
	for i, ev := range events {
		s.idx = i
		if _, ok := ev.(psproto.TurnEvent); ok {
			sawTurn = true
			continue
		}
		if err := s.handle(ev); err != nil {
			return st, nil, err
		}
	}
	if sawTurn {
		s.emit(domain.TurnEnd{})
		s.st.NewTurn = true
	}

	return s.st, reorder(s.out), nil
}

// session is the scratch state of one Translate call.
type session struct {
	st       State
	username string
	events   []psproto.Event
	idx      int
	out      []domain.Event
	log      *zap.Logger
}

func (s *session) emit(evs ...domain.Event) {
	s.out = append(s.out, evs...)
}

func (s *session) mon(id psproto.PokemonID) domain.Mon {
	return domain.Mon{Side: s.st.Sides[id.Player], Name: id.Nickname}
}

func (s *session) side(p psproto.PlayerID) domain.Side {
	return s.st.Sides[p]
}

// prev returns the protocol event immediately preceding the current one in
// this block, for the move-copy lookback.
func (s *session) prev() (psproto.Event, bool) {
	if s.idx == 0 {
		return nil, false
	}
	return s.events[s.idx-1], true
}

func (s *session) handle(ev psproto.Event) error {
	switch e := ev.(type) {
	case psproto.AbilityEvent:
		return s.handleAbility(e)
	case psproto.EndAbilityEvent:
		s.emit(domain.SuppressAbility{Mon: s.mon(e.ID)})
		return s.suffixEmission(e, false)
	case psproto.StartEvent:
		return s.handleStart(e)
	case psproto.EndEvent:
		return s.handleEnd(e)
	case psproto.ActivateEvent:
		return s.handleActivate(e)
	case psproto.BoostEvent:
		s.emit(domain.Boost{Mon: s.mon(e.ID), Stat: e.Stat, Amount: e.Amount})
		return s.suffixEmission(e, false)
	case psproto.UnboostEvent:
		s.emit(domain.Boost{Mon: s.mon(e.ID), Stat: e.Stat, Amount: -e.Amount})
		return s.suffixEmission(e, false)
	case psproto.SetBoostEvent:
		s.emit(domain.Boost{Mon: s.mon(e.ID), Stat: e.Stat, Amount: e.Amount, Set: true})
		return s.suffixEmission(e, false)
	case psproto.SwapBoostEvent:
		s.emit(domain.SwapBoosts{Mon1: s.mon(e.Source), Mon2: s.mon(e.Target), Stats: e.Stats})
		return s.suffixEmission(e, false)
	case psproto.CopyBoostEvent:
		s.emit(domain.CopyBoosts{From: s.mon(e.Target), To: s.mon(e.Source)})
		return s.suffixEmission(e, false)
	case psproto.InvertBoostEvent:
		s.emit(domain.InvertBoosts{Mon: s.mon(e.ID)})
		return s.suffixEmission(e, false)
	case psproto.ClearAllBoostEvent:
		s.emit(domain.ClearAllBoosts{})
		return nil
	case psproto.SwitchEvent:
		s.emit(domain.SwitchIn{
			Mon:     s.mon(e.ID),
			Species: dex.ToID(e.Species),
			Level:   e.Level,
			Gender:  e.Gender,
			HP:      domain.HPPair{HP: e.HP.HP, MaxHP: e.HP.MaxHP},
			Status:  e.HP.Status,
		})
		return s.suffixEmission(e, false)
	case psproto.DetailsChangeEvent:
		s.emit(domain.FormChange{Mon: s.mon(e.ID), Species: dex.ToID(e.Species), Level: e.Level, Gender: e.Gender, Permanent: true})
		return s.suffixEmission(e, false)
	case psproto.FormeChangeEvent:
		s.emit(domain.FormChange{Mon: s.mon(e.ID), Species: dex.ToID(e.Species), Level: e.Level, Gender: e.Gender})
		return s.suffixEmission(e, false)
	case psproto.MoveEvent:
		s.emit(domain.UseMove{Mon: s.mon(e.ID), Move: dex.ToID(e.Move)})
		return s.suffixEmission(e, false)
	case psproto.DamageEvent:
		return s.handleDamage(e.ID, e.HP, e.Suffix, ev)
	case psproto.SetHPEvent:
		return s.handleDamage(e.ID, e.HP, e.Suffix, ev)
	case psproto.StatusEvent:
		s.emit(domain.AfflictStatus{Mon: s.mon(e.ID), Status: e.Condition})
		return s.suffixEmission(e, false)
	case psproto.CureStatusEvent:
		s.emit(domain.CureStatus{Mon: s.mon(e.ID), Status: e.Condition})
		return s.suffixEmission(e, false)
	case psproto.CureTeamEvent:
		s.emit(domain.CureTeam{Side: s.side(e.ID.Player)})
		return s.suffixEmission(e, false)
	case psproto.FaintEvent:
		s.emit(domain.Faint{Mon: s.mon(e.ID)})
		return nil
	case psproto.FieldStartEvent:
		return s.handleField(e.Effect, true, ev)
	case psproto.FieldEndEvent:
		return s.handleField(e.Effect, false, ev)
	case psproto.SideStartEvent:
		return s.handleSide(e.Player, e.Condition, true, ev)
	case psproto.SideEndEvent:
		return s.handleSide(e.Player, e.Condition, false, ev)
	case psproto.WeatherEvent:
		return s.handleWeather(e)
	case psproto.UpkeepEvent:
		return nil
	case psproto.WinEvent:
		s.st.Battling = false
		winner := domain.SideThem
		// The winner arrives as plain text; resolve it against the client's
		// username the same way player identities were resolved.
		if s.winnerIsUs(e.Winner) {
			winner = domain.SideUs
		}
		s.emit(domain.GameOver{Winner: winner})
		return nil
	case psproto.TieEvent:
		s.st.Battling = false
		s.emit(domain.GameOver{Tie: true})
		return nil
	case psproto.CantEvent:
		return s.handleCant(e)
	case psproto.ItemEvent:
		gained := e.From != nil && e.From.Type == psproto.CauseMove
		s.emit(domain.RevealItem{Mon: s.mon(e.ID), Item: dex.ToID(e.Item), Gained: gained})
		return s.suffixEmission(e, gained)
	case psproto.EndItemEvent:
		consumed := e.Eat || (e.From != nil && e.From.Type == psproto.CauseStealEat)
		s.emit(domain.RemoveItem{Mon: s.mon(e.ID), Item: dex.ToID(e.Item), Consumed: consumed})
		return nil
	case psproto.TransformEvent:
		return s.handleTransform(e)
	case psproto.MustRechargeEvent:
		s.emit(domain.MustRecharge{Mon: s.mon(e.ID)})
		return nil
	case psproto.PrepareEvent:
		s.emit(domain.PrepareMove{Mon: s.mon(e.ID), Move: dex.ToID(e.Move)})
		return nil
	case psproto.SingleTurnEvent:
		return s.handleSingle(e.ID, e.Move, singleTurnTable, ev)
	case psproto.SingleMoveEvent:
		return s.handleSingle(e.ID, e.Move, singleMoveTable, ev)
	case psproto.CritEvent, psproto.SuperEffectiveEvent, psproto.ResistedEvent:
		// Hit-quality flavor; the model has no use for it.
		return nil
	case psproto.ImmuneEvent:
		s.emit(domain.Immune{Mon: s.mon(e.ID)})
		return s.suffixEmission(e, false)
	case psproto.MissEvent:
		target := e.ID
		if e.Target != nil {
			target = *e.Target
		}
		s.emit(domain.Miss{Mon: s.mon(target)})
		return nil
	case psproto.FailEvent:
		s.emit(domain.Fail{Mon: s.mon(e.ID)})
		return s.suffixEmission(e, false)
	case psproto.TurnEvent:
		// Consumed by the Translate loop.
		return nil
	default:
		s.log.Debug("unhandled protocol event", zap.Any("event", ev))
		return nil
	}
}

func (s *session) winnerIsUs(winner string) bool {
	return dex.ToID(winner) == dex.ToID(s.username)
}

func (s *session) handleAbility(e psproto.AbilityEvent) error {
	if e.From != nil && e.From.Type == psproto.CauseAbility &&
		dex.ToID(e.From.Name) == traceAbility && e.Of != nil {
		copier := s.mon(e.ID)
		owner := s.mon(*e.Of)
		copied := dex.ToID(e.Ability)
		// The copy-ability announcement expands to a triplet: the copy
		// itself, then the copied ability on both pokemon involved. The
		// reorder pass may relocate this triplet later.
		s.emit(
			domain.ActivateAbility{Mon: copier, Ability: traceAbility},
			domain.ActivateAbility{Mon: copier, Ability: copied},
			domain.ActivateAbility{Mon: owner, Ability: copied},
		)
		return nil
	}
	s.emit(domain.ActivateAbility{Mon: s.mon(e.ID), Ability: dex.ToID(e.Ability)})
	return s.suffixEmission(e, false)
}

// statusTable maps volatile-status literals (id form) to effect tags for the
// generic activate-status-effect translation.
var statusTable = map[string]domain.StatusEffect{
	"aquaring":    domain.EffectAquaRing,
	"attract":     domain.EffectAttract,
	"bide":        domain.EffectBide,
	"confusion":   domain.EffectConfusion,
	"curse":       domain.EffectCurse,
	"disable":     domain.EffectDisable,
	"embargo":     domain.EffectEmbargo,
	"encore":      domain.EffectEncore,
	"focusenergy": domain.EffectFocusEnergy,
	"foresight":   domain.EffectForesight,
	"healblock":   domain.EffectHealBlock,
	"imprison":    domain.EffectImprison,
	"ingrain":     domain.EffectIngrain,
	"leechseed":   domain.EffectLeechSeed,
	"magnetrise":  domain.EffectMagnetRise,
	"miracleeye":  domain.EffectMiracleEye,
	"mudsport":    domain.EffectMudSport,
	"nightmare":   domain.EffectNightmare,
	"powertrick":  domain.EffectPowerTrick,
	"slowstart":   domain.EffectSlowStart,
	"substitute":  domain.EffectSubstitute,
	"taunt":       domain.EffectTaunt,
	"torment":     domain.EffectTorment,
	"uproar":      domain.EffectUproar,
	"watersport":  domain.EffectWaterSport,
	"yawn":        domain.EffectYawn,
}

var singleTurnTable = map[string]domain.StatusEffect{
	"protect":   domain.EffectProtect,
	"detect":    domain.EffectProtect,
	"endure":    domain.EffectEndure,
	"roost":     domain.EffectRoost,
	"magiccoat": domain.EffectMagicCoat,
	"snatch":    domain.EffectSnatch,
}

var singleMoveTable = map[string]domain.StatusEffect{
	"destinybond": domain.EffectDestinyBond,
	"grudge":      domain.EffectGrudge,
	"rage":        domain.EffectRage,
}

// stripMovePrefix drops the "move: " qualifier some status names carry.
func stripMovePrefix(name string) string {
	return strings.TrimPrefix(name, "move: ")
}

// countable parses names like "perish3" or "stockpile2" into an effect tag
// and count.
func countable(id string) (domain.StatusEffect, int, bool) {
	for _, base := range []string{"perish", "stockpile"} {
		if rest, found := strings.CutPrefix(id, base); found && rest != "" {
			if n, err := strconv.Atoi(rest); err == nil {
				if base == "perish" {
					return domain.EffectPerish, n, true
				}
				return domain.EffectStockpile, n, true
			}
		}
	}
	return "", 0, false
}

func (s *session) handleStart(e psproto.StartEvent) error {
	name := stripMovePrefix(e.Name)
	id := dex.ToID(name)
	mon := s.mon(e.ID)

	switch {
	case id == "typeadd":
		if len(e.Args) > 0 {
			s.emit(domain.AddType{Mon: mon, Type: dex.ToID(e.Args[0])})
		}
		return s.suffixEmission(e, false)
	case id == "typechange":
		s.emit(s.changeType(mon, e.Args))
		return s.suffixEmission(e, false)
	}

	if effect, count, ok := countable(id); ok {
		s.emit(domain.CountStatusEffect{Mon: mon, Effect: effect, Count: count})
		return s.suffixEmission(e, false)
	}

	effect, ok := statusTable[id]
	if !ok {
		s.log.Debug("unrecognized volatile status", zap.String("name", e.Name))
		return s.suffixEmission(e, false)
	}
	if effect == domain.EffectConfusion && e.Fatigue {
		// Confusion from fatigue means a locked move just ran out.
		s.emit(domain.Fatigue{Mon: mon})
	}
	if e.Upkeep {
		s.emit(domain.UpdateStatusEffect{Mon: mon, Effect: effect})
	} else {
		s.emit(domain.ActivateStatusEffect{Mon: mon, Effect: effect, Start: true})
	}
	return s.suffixEmission(e, false)
}

// changeType parses up to two "/"-joined types, padding with the placeholder
// when fewer are listed and truncating with a warning when more are.
func (s *session) changeType(mon domain.Mon, args []string) domain.Event {
	types := [2]string{domain.TypeNone, domain.TypeNone}
	if len(args) > 0 && args[0] != "" {
		listed := strings.Split(args[0], "/")
		if len(listed) > 2 {
			s.log.Warn("truncating type change",
				zap.String("mon", mon.Name), zap.Strings("types", listed))
			listed = listed[:2]
		}
		for i, t := range listed {
			types[i] = dex.ToID(t)
		}
	}
	return domain.ChangeType{Mon: mon, Types: types}
}

func (s *session) handleEnd(e psproto.EndEvent) error {
	id := dex.ToID(stripMovePrefix(e.Name))
	if effect, _, ok := countable(id); ok {
		s.emit(domain.ActivateStatusEffect{Mon: s.mon(e.ID), Effect: effect, Start: false})
		return s.suffixEmission(e, false)
	}
	effect, ok := statusTable[id]
	if !ok {
		s.log.Debug("unrecognized volatile status end", zap.String("name", e.Name))
		return s.suffixEmission(e, false)
	}
	s.emit(domain.ActivateStatusEffect{Mon: s.mon(e.ID), Effect: effect, Start: false})
	return s.suffixEmission(e, false)
}

func (s *session) handleActivate(e psproto.ActivateEvent) error {
	id := dex.ToID(stripMovePrefix(e.Name))
	mon := s.mon(e.ID)

	switch id {
	case "mimic":
		return s.handleMoveCopy(e, mon)
	case "trapped":
		// The protocol omits the trapping actor; it can only be the
		// opposing side's active pokemon.
		s.emit(domain.Trap{Target: mon, By: s.side(e.ID.Player.Opponent())})
		return nil
	case "confusion":
		s.emit(domain.UpdateStatusEffect{Mon: mon, Effect: domain.EffectConfusion})
		return nil
	case "bide":
		s.emit(domain.UpdateStatusEffect{Mon: mon, Effect: domain.EffectBide})
		return nil
	case "charge":
		s.emit(domain.ActivateStatusEffect{Mon: mon, Effect: domain.EffectCharge, Start: true})
		return nil
	case "endure":
		s.emit(domain.ActivateStatusEffect{Mon: mon, Effect: domain.EffectEndure, Start: false})
		return nil
	case "feint":
		s.emit(domain.Feint{Mon: mon})
		return nil
	case "grudge":
		s.emit(domain.ActivateStatusEffect{Mon: mon, Effect: domain.EffectGrudge, Start: false})
		return nil
	case "destinybond":
		s.emit(domain.ActivateStatusEffect{Mon: mon, Effect: domain.EffectDestinyBond, Start: false})
		return nil
	case "lockon", "mindreader":
		s.emit(domain.ActivateStatusEffect{Mon: mon, Effect: domain.EffectLockOn, Start: true})
		return nil
	case "forewarn":
		s.emit(domain.ActivateAbility{Mon: mon, Ability: "forewarn"})
		return nil
	case "substitute":
		s.emit(domain.UpdateStatusEffect{Mon: mon, Effect: domain.EffectSubstitute})
		return nil
	default:
		s.log.Debug("unrecognized activation", zap.String("name", e.Name))
		return nil
	}
}

// handleMoveCopy resolves the move-copy ambiguity: the wire names the copied
// move but not whether the copy is temporary (Mimic) or permanent (Sketch).
// Only the immediately preceding move use disambiguates, and its absence is
// an invariant violation the translator cannot paper over.
func (s *session) handleMoveCopy(e psproto.ActivateEvent, mon domain.Mon) error {
	if len(e.Args) == 0 {
		return fmt.Errorf("%w: no copied move named", ErrMoveCopyLookback)
	}
	prev, ok := s.prev()
	if !ok {
		return fmt.Errorf("%w: no preceding event", ErrMoveCopyLookback)
	}
	mv, ok := prev.(psproto.MoveEvent)
	if !ok {
		return fmt.Errorf("%w: preceding event is not a move use", ErrMoveCopyLookback)
	}
	if mv.ID.Player != e.ID.Player || mv.ID.Nickname != e.ID.Nickname {
		return fmt.Errorf("%w: preceding move by %s, want %s", ErrMoveCopyLookback, mv.ID, e.ID)
	}
	copied := dex.ToID(e.Args[0])
	switch dex.ToID(mv.Move) {
	case "mimic":
		s.emit(domain.MimicMove{Mon: mon, Move: copied})
	case "sketch":
		s.emit(domain.SketchMove{Mon: mon, Move: copied})
	default:
		return fmt.Errorf("%w: preceding move %q is not a copy move", ErrMoveCopyLookback, mv.Move)
	}
	return nil
}

func (s *session) handleDamage(id psproto.PokemonID, hp psproto.HPStatus, suf psproto.Suffix, ev psproto.Event) error {
	toxic := suf.From != nil && suf.From.Type == psproto.CausePoison
	s.emit(domain.TakeDamage{
		Mon:   s.mon(id),
		HP:    domain.HPPair{HP: hp.HP, MaxHP: hp.MaxHP},
		Toxic: toxic,
	})
	if suf.From != nil && suf.From.Type == psproto.CauseMove {
		switch dex.ToID(suf.From.Name) {
		case "healingwish":
			// The restorative team effect is spent by this heal.
			s.emit(domain.ActivateTeamEffect{Side: s.side(id.Player), Effect: domain.TeamHealingWish, Start: false})
			return nil
		case "lunardance":
			s.emit(
				domain.ActivateTeamEffect{Side: s.side(id.Player), Effect: domain.TeamLunarDance, Start: false},
				domain.RestoreMoves{Side: s.side(id.Player)},
			)
			return nil
		}
	}
	if toxic {
		return nil
	}
	return s.suffixEmission(ev, false)
}

// fieldTable maps field condition literals to tags.
var fieldTable = map[string]domain.FieldEffect{
	"gravity":   domain.FieldGravity,
	"trickroom": domain.FieldTrickRoom,
}

func (s *session) handleField(effect string, start bool, ev psproto.Event) error {
	tag, ok := fieldTable[dex.ToID(stripMovePrefix(effect))]
	if !ok {
		s.log.Debug("unrecognized field condition", zap.String("name", effect))
		return nil
	}
	s.emit(domain.ActivateFieldEffect{Effect: tag, Start: start})
	return s.suffixEmission(ev, false)
}

// teamTable maps side condition literals to tags.
var teamTable = map[string]domain.TeamEffect{
	"healingwish": domain.TeamHealingWish,
	"lightscreen": domain.TeamLightScreen,
	"luckychant":  domain.TeamLuckyChant,
	"lunardance":  domain.TeamLunarDance,
	"mist":        domain.TeamMist,
	"reflect":     domain.TeamReflect,
	"safeguard":   domain.TeamSafeguard,
	"spikes":      domain.TeamSpikes,
	"stealthrock": domain.TeamStealthRock,
	"tailwind":    domain.TeamTailwind,
	"toxicspikes": domain.TeamToxicSpikes,
}

func (s *session) handleSide(player psproto.PlayerID, condition string, start bool, ev psproto.Event) error {
	tag, ok := teamTable[dex.ToID(stripMovePrefix(condition))]
	if !ok {
		s.log.Debug("unrecognized side condition", zap.String("name", condition))
		return nil
	}
	s.emit(domain.ActivateTeamEffect{Side: s.side(player), Effect: tag, Start: start})
	return s.suffixEmission(ev, false)
}

var weatherTable = map[string]domain.Weather{
	"none":      domain.WeatherNone,
	"hail":      domain.WeatherHail,
	"raindance": domain.WeatherRainDance,
	"sandstorm": domain.WeatherSandstorm,
	"sunnyday":  domain.WeatherSunnyDay,
}

func (s *session) handleWeather(e psproto.WeatherEvent) error {
	w, ok := weatherTable[dex.ToID(e.Weather)]
	if !ok {
		s.log.Debug("unrecognized weather", zap.String("name", e.Weather))
		return nil
	}
	s.emit(domain.SetWeather{Weather: w, Upkeep: e.Upkeep})
	if e.Upkeep {
		return nil
	}
	return s.suffixEmission(e, false)
}

func (s *session) handleCant(e psproto.CantEvent) error {
	mon := s.mon(e.ID)
	move := ""
	if e.Move != "" {
		move = dex.ToID(e.Move)
	}
	if ability, found := strings.CutPrefix(e.Reason, "ability: "); found {
		id := dex.ToID(ability)
		s.emit(domain.ActivateAbility{Mon: mon, Ability: id})
		reason := domain.ReasonNone
		if id == "truant" {
			reason = domain.ReasonTruant
		}
		s.emit(domain.Inactive{Mon: mon, Reason: reason, Move: move})
		return nil
	}
	reason := domain.ReasonNone
	switch e.Reason {
	case "imprison":
		reason = domain.ReasonImprison
	case "recharge":
		reason = domain.ReasonRecharge
	case "slp":
		reason = domain.ReasonAsleep
	}
	s.emit(domain.Inactive{Mon: mon, Reason: reason, Move: move})
	return nil
}

func (s *session) handleSingle(id psproto.PokemonID, move string, table map[string]domain.StatusEffect, ev psproto.Event) error {
	effect, ok := table[dex.ToID(stripMovePrefix(move))]
	if !ok {
		s.log.Debug("unrecognized single-turn move", zap.String("name", move))
		return nil
	}
	s.emit(domain.ActivateStatusEffect{Mon: s.mon(id), Effect: effect, Start: true})
	return s.suffixEmission(ev, false)
}

// handleTransform emits the transform and, when the latest request snapshot
// still shows the source active and standing, the post-transform move set.
// The snapshot races the event stream; a source fainted pending a forced
// switch must not produce the post event. Heuristic tuned against observed
// server behavior, deliberately not strengthened.
func (s *session) handleTransform(e psproto.TransformEvent) error {
	s.emit(domain.Transform{Source: s.mon(e.Source), Target: s.mon(e.Target)})

	req := s.st.Request
	if req == nil || len(req.Active) == 0 || req.Side.ID != e.Source.Player {
		return nil
	}
	for _, p := range req.Side.Pokemon {
		pid, err := p.PokemonID()
		if err != nil || pid.Nickname != e.Source.Nickname {
			continue
		}
		if !p.Active || p.Fainted() {
			return nil
		}
		moves := make([]string, 0, len(req.Active[0].Moves))
		for _, m := range req.Active[0].Moves {
			moves = append(moves, m.ID)
		}
		s.emit(domain.TransformPost{Mon: s.mon(e.Source), Moves: moves})
		return nil
	}
	return nil
}

// suffixEmission handles a still-unconsumed [from]/[of] annotation after an
// event's core translation: an ability cause becomes an ability activation
// and an item cause an item reveal, both attributed to the auxiliary pokemon
// when present and otherwise to the event's own. Consumable berries are
// skipped because the server sends an explicit removal event for them.
func (s *session) suffixEmission(ev psproto.Event, consumed bool) error {
	if consumed {
		return nil
	}
	suf := ev.Suf()
	if suf.From == nil {
		return nil
	}
	var target psproto.PokemonID
	switch {
	case suf.Of != nil:
		target = *suf.Of
	default:
		id, ok := eventPokemon(ev)
		if !ok {
			return fmt.Errorf("%w: cause %q", ErrSuffixTarget, suf.From.Name)
		}
		target = id
	}
	switch suf.From.Type {
	case psproto.CauseAbility:
		s.emit(domain.ActivateAbility{Mon: s.mon(target), Ability: dex.ToID(suf.From.Name)})
	case psproto.CauseItem:
		item := dex.ToID(suf.From.Name)
		if strings.HasSuffix(item, "berry") {
			return nil
		}
		s.emit(domain.RevealItem{Mon: s.mon(target), Item: item})
	}
	return nil
}

// eventPokemon extracts the primary pokemon id from an event, when it has
// one.
func eventPokemon(ev psproto.Event) (psproto.PokemonID, bool) {
	switch e := ev.(type) {
	case psproto.AbilityEvent:
		return e.ID, true
	case psproto.EndAbilityEvent:
		return e.ID, true
	case psproto.StartEvent:
		return e.ID, true
	case psproto.EndEvent:
		return e.ID, true
	case psproto.ActivateEvent:
		return e.ID, true
	case psproto.BoostEvent:
		return e.ID, true
	case psproto.UnboostEvent:
		return e.ID, true
	case psproto.SetBoostEvent:
		return e.ID, true
	case psproto.SwapBoostEvent:
		return e.Source, true
	case psproto.CopyBoostEvent:
		return e.Source, true
	case psproto.InvertBoostEvent:
		return e.ID, true
	case psproto.SwitchEvent:
		return e.ID, true
	case psproto.DetailsChangeEvent:
		return e.ID, true
	case psproto.FormeChangeEvent:
		return e.ID, true
	case psproto.MoveEvent:
		return e.ID, true
	case psproto.DamageEvent:
		return e.ID, true
	case psproto.SetHPEvent:
		return e.ID, true
	case psproto.StatusEvent:
		return e.ID, true
	case psproto.CureStatusEvent:
		return e.ID, true
	case psproto.CureTeamEvent:
		return e.ID, true
	case psproto.FaintEvent:
		return e.ID, true
	case psproto.WeatherEvent:
		return psproto.PokemonID{}, false
	case psproto.CantEvent:
		return e.ID, true
	case psproto.ItemEvent:
		return e.ID, true
	case psproto.EndItemEvent:
		return e.ID, true
	case psproto.TransformEvent:
		return e.Source, true
	case psproto.MustRechargeEvent:
		return e.ID, true
	case psproto.PrepareEvent:
		return e.ID, true
	case psproto.SingleTurnEvent:
		return e.ID, true
	case psproto.SingleMoveEvent:
		return e.ID, true
	case psproto.ImmuneEvent:
		return e.ID, true
	case psproto.MissEvent:
		return e.ID, true
	case psproto.FailEvent:
		return e.ID, true
	default:
		return psproto.PokemonID{}, false
	}
}
