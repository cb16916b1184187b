package psproto

import "fmt"

// PlayerID is a wire player identity tag ("p1" or "p2").
type PlayerID string

const (
	Player1 PlayerID = "p1"
	Player2 PlayerID = "p2"
)

// Opponent returns the other wire player.
func (p PlayerID) Opponent() PlayerID {
	if p == Player1 {
		return Player2
	}
	return Player1
}

// PokemonID addresses a pokemon on the wire: owning player, optional active
// slot letter ("a".."c"), and nickname. There is no stable numeric identity
// in the protocol; lookups match on player+nickname.
type PokemonID struct {
	Player   PlayerID
	Slot     string
	Nickname string
}

func (id PokemonID) String() string {
	return fmt.Sprintf("%s%s: %s", id.Player, id.Slot, id.Nickname)
}

// HPStatus is the wire "HP[ STATUS]" pair. A fainted pokemon is the sentinel
// value zero HP with no status.
type HPStatus struct {
	HP     int
	MaxHP  int
	Status string
}

// Fainted reports the fainted sentinel.
func (h HPStatus) Fainted() bool { return h.HP == 0 && h.MaxHP == 0 && h.Status == "" }

func (h HPStatus) String() string {
	if h.Fainted() {
		return "0 fnt"
	}
	if h.Status != "" {
		return fmt.Sprintf("%d/%d %s", h.HP, h.MaxHP, h.Status)
	}
	return fmt.Sprintf("%d/%d", h.HP, h.MaxHP)
}

// CauseType classifies a [from] suffix annotation.
type CauseType int

const (
	CauseAbility CauseType = iota
	CauseItem
	CauseMove
	CausePoison
	CauseStealEat
	CauseLockedMove
)

// Cause is a resolved [from] annotation. Name is empty for the bare causes
// (poison, lockedmove).
type Cause struct {
	Type CauseType
	Name string
}

// Suffix carries the optional bracketed annotations trailing an event line.
// It is embedded in every event struct; unset fields mean the annotation was
// absent.
type Suffix struct {
	From    *Cause
	Of      *PokemonID
	Fatigue bool
	Eat     bool
	Miss    bool
	Upkeep  bool
}

// Suf exposes the embedded suffix through the Event interface.
func (s Suffix) Suf() Suffix { return s }

// Event is one in-battle protocol line in the server's vocabulary.
type Event interface {
	Suf() Suffix
	battleEvent()
}

// AbilityEvent reveals or triggers an ability (|-ability|).
type AbilityEvent struct {
	Suffix
	ID      PokemonID
	Ability string
}

// EndAbilityEvent suppresses an ability (|-endability|, Gastro Acid).
type EndAbilityEvent struct {
	Suffix
	ID PokemonID
}

// StartEvent begins a volatile status (|-start|).
type StartEvent struct {
	Suffix
	ID   PokemonID
	Name string
	Args []string
}

// EndEvent ends a volatile status (|-end|).
type EndEvent struct {
	Suffix
	ID   PokemonID
	Name string
}

// ActivateEvent is a one-shot volatile effect with no start/end pair
// (|-activate|).
type ActivateEvent struct {
	Suffix
	ID   PokemonID
	Name string
	Args []string
}

// BoostEvent raises a stat stage (|-boost|).
type BoostEvent struct {
	Suffix
	ID     PokemonID
	Stat   string
	Amount int
}

// UnboostEvent lowers a stat stage (|-unboost|).
type UnboostEvent struct {
	Suffix
	ID     PokemonID
	Stat   string
	Amount int
}

// SetBoostEvent sets a stat stage to an absolute value (|-setboost|).
type SetBoostEvent struct {
	Suffix
	ID     PokemonID
	Stat   string
	Amount int
}

// SwapBoostEvent swaps stat stages between two pokemon (|-swapboost|).
type SwapBoostEvent struct {
	Suffix
	Source PokemonID
	Target PokemonID
	Stats  []string
}

// CopyBoostEvent copies stat stages from target to source (|-copyboost|).
type CopyBoostEvent struct {
	Suffix
	Source PokemonID
	Target PokemonID
}

// InvertBoostEvent inverts all stat stages (|-invertboost|).
type InvertBoostEvent struct {
	Suffix
	ID PokemonID
}

// ClearAllBoostEvent clears every stat stage on the field (|-clearallboost|).
type ClearAllBoostEvent struct {
	Suffix
}

// SwitchEvent brings a pokemon onto the field (|switch| and |drag|).
type SwitchEvent struct {
	Suffix
	ID      PokemonID
	Species string
	Level   int
	Gender  string
	HP      HPStatus
}

// DetailsChangeEvent permanently changes forme (|detailschange|).
type DetailsChangeEvent struct {
	Suffix
	ID      PokemonID
	Species string
	Level   int
	Gender  string
	HP      HPStatus
}

// FormeChangeEvent temporarily changes forme (|-formechange|).
type FormeChangeEvent struct {
	Suffix
	ID      PokemonID
	Species string
	Level   int
	Gender  string
	HP      HPStatus
}

// MoveEvent announces a move use (|move|).
type MoveEvent struct {
	Suffix
	ID     PokemonID
	Move   string
	Target *PokemonID
}

// DamageEvent reports new HP after damage or healing (|-damage|, |-heal|).
type DamageEvent struct {
	Suffix
	ID   PokemonID
	HP   HPStatus
	Heal bool
}

// SetHPEvent sets HP directly (|-sethp|).
type SetHPEvent struct {
	Suffix
	ID PokemonID
	HP HPStatus
}

// StatusEvent afflicts a major status (|-status|).
type StatusEvent struct {
	Suffix
	ID        PokemonID
	Condition string
}

// CureStatusEvent cures a major status (|-curestatus|).
type CureStatusEvent struct {
	Suffix
	ID        PokemonID
	Condition string
}

// CureTeamEvent cures the whole team (|-cureteam|).
type CureTeamEvent struct {
	Suffix
	ID PokemonID
}

// FaintEvent (|faint|).
type FaintEvent struct {
	Suffix
	ID PokemonID
}

// FieldStartEvent begins a field-wide condition (|-fieldstart|).
type FieldStartEvent struct {
	Suffix
	Effect string
}

// FieldEndEvent ends a field-wide condition (|-fieldend|).
type FieldEndEvent struct {
	Suffix
	Effect string
}

// SideStartEvent begins a one-side condition (|-sidestart|).
type SideStartEvent struct {
	Suffix
	Player    PlayerID
	Condition string
}

// SideEndEvent ends a one-side condition (|-sideend|).
type SideEndEvent struct {
	Suffix
	Player    PlayerID
	Condition string
}

// WeatherEvent sets or upkeeps weather (|-weather|). "none" clears it.
type WeatherEvent struct {
	Suffix
	Weather string
}

// TurnEvent marks a turn boundary (|turn|).
type TurnEvent struct {
	Suffix
	Num int
}

// UpkeepEvent marks end-of-turn upkeep (|upkeep|).
type UpkeepEvent struct {
	Suffix
}

// WinEvent ends the battle with a winner (|win|).
type WinEvent struct {
	Suffix
	Winner string
}

// TieEvent ends the battle in a tie (|tie|).
type TieEvent struct {
	Suffix
}

// CantEvent reports a pokemon unable to act (|cant|). Move is the revealed
// move name when the server discloses one.
type CantEvent struct {
	Suffix
	ID     PokemonID
	Reason string
	Move   string
}

// ItemEvent reveals a held item (|-item|).
type ItemEvent struct {
	Suffix
	ID   PokemonID
	Item string
}

// EndItemEvent removes a held item (|-enditem|).
type EndItemEvent struct {
	Suffix
	ID   PokemonID
	Item string
}

// TransformEvent transforms source into target (|-transform|).
type TransformEvent struct {
	Suffix
	Source PokemonID
	Target PokemonID
}

// MustRechargeEvent (|-mustrecharge|).
type MustRechargeEvent struct {
	Suffix
	ID PokemonID
}

// PrepareEvent charges a two-turn move (|-prepare|).
type PrepareEvent struct {
	Suffix
	ID     PokemonID
	Move   string
	Target *PokemonID
}

// SingleTurnEvent starts a one-turn status (|-singleturn|, e.g. Protect).
type SingleTurnEvent struct {
	Suffix
	ID   PokemonID
	Move string
}

// SingleMoveEvent starts a status lasting until the next move
// (|-singlemove|, e.g. Destiny Bond).
type SingleMoveEvent struct {
	Suffix
	ID   PokemonID
	Move string
}

// CritEvent (|-crit|).
type CritEvent struct {
	Suffix
	ID PokemonID
}

// SuperEffectiveEvent (|-supereffective|).
type SuperEffectiveEvent struct {
	Suffix
	ID PokemonID
}

// ResistedEvent (|-resisted|).
type ResistedEvent struct {
	Suffix
	ID PokemonID
}

// ImmuneEvent (|-immune|).
type ImmuneEvent struct {
	Suffix
	ID PokemonID
}

// MissEvent (|-miss|).
type MissEvent struct {
	Suffix
	ID     PokemonID
	Target *PokemonID
}

// FailEvent (|-fail|).
type FailEvent struct {
	Suffix
	ID     PokemonID
	Reason string
}

func (AbilityEvent) battleEvent()       {}
func (EndAbilityEvent) battleEvent()    {}
func (StartEvent) battleEvent()         {}
func (EndEvent) battleEvent()           {}
func (ActivateEvent) battleEvent()      {}
func (BoostEvent) battleEvent()         {}
func (UnboostEvent) battleEvent()       {}
func (SetBoostEvent) battleEvent()      {}
func (SwapBoostEvent) battleEvent()     {}
func (CopyBoostEvent) battleEvent()     {}
func (InvertBoostEvent) battleEvent()   {}
func (ClearAllBoostEvent) battleEvent() {}
func (SwitchEvent) battleEvent()        {}
func (DetailsChangeEvent) battleEvent() {}
func (FormeChangeEvent) battleEvent()   {}
func (MoveEvent) battleEvent()          {}
func (DamageEvent) battleEvent()        {}
func (SetHPEvent) battleEvent()         {}
func (StatusEvent) battleEvent()        {}
func (CureStatusEvent) battleEvent()    {}
func (CureTeamEvent) battleEvent()      {}
func (FaintEvent) battleEvent()         {}
func (FieldStartEvent) battleEvent()    {}
func (FieldEndEvent) battleEvent()      {}
func (SideStartEvent) battleEvent()     {}
func (SideEndEvent) battleEvent()       {}
func (WeatherEvent) battleEvent()       {}
func (TurnEvent) battleEvent()          {}
func (UpkeepEvent) battleEvent()        {}
func (WinEvent) battleEvent()           {}
func (TieEvent) battleEvent()           {}
func (CantEvent) battleEvent()          {}
func (ItemEvent) battleEvent()          {}
func (EndItemEvent) battleEvent()       {}
func (TransformEvent) battleEvent()     {}
func (MustRechargeEvent) battleEvent()  {}
func (PrepareEvent) battleEvent()       {}
func (SingleTurnEvent) battleEvent()    {}
func (SingleMoveEvent) battleEvent()    {}
func (CritEvent) battleEvent()          {}
func (SuperEffectiveEvent) battleEvent() {}
func (ResistedEvent) battleEvent()      {}
func (ImmuneEvent) battleEvent()        {}
func (MissEvent) battleEvent()          {}
func (FailEvent) battleEvent()          {}

// Message is one out-of-band protocol message.
type Message interface{ message() }

// ChallStr is the login challenge (|challstr|).
type ChallStr struct {
	KeyID     int
	Challenge string
}

// InitRoom joins a room (|init|).
type InitRoom struct {
	Type string
}

// DeinitRoom leaves a room (|deinit|).
type DeinitRoom struct{}

// ErrorMessage is a server error (|error|).
type ErrorMessage struct {
	Reason string
}

// UpdateUser updates the client's username (|updateuser|).
type UpdateUser struct {
	Username string
	Named    bool
}

// UpdateChallenges updates the pending challenge list (|updatechallenges|).
type UpdateChallenges struct {
	ChallengesFrom map[string]string
	ChallengeTo    *ChallengeTo
}

// ChallengeTo is an outgoing challenge inside UpdateChallenges.
type ChallengeTo struct {
	To     string `json:"to"`
	Format string `json:"format"`
}

// BattleInit aggregates the multi-line battle start block.
type BattleInit struct {
	Players   map[PlayerID]string
	TeamSizes map[PlayerID]int
	GameType  string
	Gen       int
	Events    []Event
}

// BattleProgress carries one update cycle's event block.
type BattleProgress struct {
	Events []Event
}

func (ChallStr) message()         {}
func (InitRoom) message()         {}
func (DeinitRoom) message()       {}
func (ErrorMessage) message()     {}
func (*Request) message()         {}
func (UpdateUser) message()       {}
func (UpdateChallenges) message() {}
func (BattleInit) message()       {}
func (BattleProgress) message()   {}
