// Package domain defines the normalized battle events consumed by the
// battle-state model. This vocabulary is the stable contract out of the
// translator; the wire protocol's many status names collapse into the
// smaller effect enumerations here.
package domain

// Side is a logical battle participant, distinct from wire player tags.
type Side string

const (
	SideUs   Side = "us"
	SideThem Side = "them"
)

// Opponent returns the other side.
func (s Side) Opponent() Side {
	if s == SideUs {
		return SideThem
	}
	return SideUs
}

// Mon references one pokemon by side and nickname.
type Mon struct {
	Side Side
	Name string
}

// HPPair is a current/max HP reading.
type HPPair struct {
	HP    int
	MaxHP int
}

// InactiveReason says why a pokemon could not act.
type InactiveReason string

const (
	ReasonNone     InactiveReason = ""
	ReasonImprison InactiveReason = "imprison"
	ReasonRecharge InactiveReason = "recharge"
	ReasonAsleep   InactiveReason = "asleep"
	ReasonTruant   InactiveReason = "truant"
)

// StatusEffect tags the generic activate-status-effect event.
type StatusEffect string

const (
	EffectAquaRing    StatusEffect = "aquaring"
	EffectAttract     StatusEffect = "attract"
	EffectBide        StatusEffect = "bide"
	EffectCharge      StatusEffect = "charge"
	EffectConfusion   StatusEffect = "confusion"
	EffectCurse       StatusEffect = "curse"
	EffectDisable     StatusEffect = "disable"
	EffectEmbargo     StatusEffect = "embargo"
	EffectEncore      StatusEffect = "encore"
	EffectEndure      StatusEffect = "endure"
	EffectFocusEnergy StatusEffect = "focusenergy"
	EffectForesight   StatusEffect = "foresight"
	EffectHealBlock   StatusEffect = "healblock"
	EffectImprison    StatusEffect = "imprison"
	EffectIngrain     StatusEffect = "ingrain"
	EffectLeechSeed   StatusEffect = "leechseed"
	EffectLockOn      StatusEffect = "lockon"
	EffectMagnetRise  StatusEffect = "magnetrise"
	EffectMiracleEye  StatusEffect = "miracleeye"
	EffectMudSport    StatusEffect = "mudsport"
	EffectNightmare   StatusEffect = "nightmare"
	EffectPerish      StatusEffect = "perish"
	EffectPowerTrick  StatusEffect = "powertrick"
	EffectProtect     StatusEffect = "protect"
	EffectRoost       StatusEffect = "roost"
	EffectSlowStart   StatusEffect = "slowstart"
	EffectStockpile   StatusEffect = "stockpile"
	EffectSubstitute  StatusEffect = "substitute"
	EffectTaunt       StatusEffect = "taunt"
	EffectTorment     StatusEffect = "torment"
	EffectUproar      StatusEffect = "uproar"
	EffectWaterSport  StatusEffect = "watersport"
	EffectYawn        StatusEffect = "yawn"
	EffectDestinyBond StatusEffect = "destinybond"
	EffectGrudge      StatusEffect = "grudge"
	EffectRage        StatusEffect = "rage"
	EffectMagicCoat   StatusEffect = "magiccoat"
	EffectSnatch      StatusEffect = "snatch"
)

// FieldEffect tags a field-wide condition.
type FieldEffect string

const (
	FieldGravity   FieldEffect = "gravity"
	FieldTrickRoom FieldEffect = "trickroom"
)

// TeamEffect tags a one-side condition.
type TeamEffect string

const (
	TeamHealingWish TeamEffect = "healingwish"
	TeamLightScreen TeamEffect = "lightscreen"
	TeamLuckyChant  TeamEffect = "luckychant"
	TeamLunarDance  TeamEffect = "lunardance"
	TeamMist        TeamEffect = "mist"
	TeamReflect     TeamEffect = "reflect"
	TeamSafeguard   TeamEffect = "safeguard"
	TeamSpikes      TeamEffect = "spikes"
	TeamStealthRock TeamEffect = "stealthrock"
	TeamTailwind    TeamEffect = "tailwind"
	TeamToxicSpikes TeamEffect = "toxicspikes"
)

// Weather tags the weather state. WeatherNone clears it.
type Weather string

const (
	WeatherNone      Weather = "none"
	WeatherHail      Weather = "hail"
	WeatherRainDance Weather = "raindance"
	WeatherSandstorm Weather = "sandstorm"
	WeatherSunnyDay  Weather = "sunnyday"
)

// Event is one normalized domain event. The downstream model applies events
// strictly in order; there is no feedback channel.
type Event interface{ domainEvent() }

// TurnBegin marks the start of a new turn's block.
type TurnBegin struct{}

// TurnEnd marks the end of a turn's block.
type TurnEnd struct{}

// Inactive reports a pokemon unable to act, optionally revealing a move.
type Inactive struct {
	Mon    Mon
	Reason InactiveReason
	Move   string
}

// ActivateAbility reveals or triggers an ability.
type ActivateAbility struct {
	Mon     Mon
	Ability string
}

// SuppressAbility disables a pokemon's ability.
type SuppressAbility struct{ Mon Mon }

// ActivateStatusEffect starts or ends a volatile status.
type ActivateStatusEffect struct {
	Mon    Mon
	Effect StatusEffect
	Start  bool
}

// UpdateStatusEffect refreshes an already-active status (upkeep repeat).
type UpdateStatusEffect struct {
	Mon    Mon
	Effect StatusEffect
}

// CountStatusEffect sets the counter of a countable status.
type CountStatusEffect struct {
	Mon    Mon
	Effect StatusEffect
	Count  int
}

// Fatigue reports the end of a locked move run.
type Fatigue struct{ Mon Mon }

// ChangeType overwrites a pokemon's types. Exactly two entries; a missing
// second type is TypeNone.
type ChangeType struct {
	Mon   Mon
	Types [2]string
}

// TypeNone pads ChangeType when fewer than two types are revealed.
const TypeNone = "???"

// AddType appends a third type to a pokemon.
type AddType struct {
	Mon  Mon
	Type string
}

// Boost changes one stat stage, either by delta or to an absolute value.
type Boost struct {
	Mon    Mon
	Stat   string
	Amount int
	Set    bool
}

// SwapBoosts exchanges stat stages between two pokemon.
type SwapBoosts struct {
	Mon1  Mon
	Mon2  Mon
	Stats []string
}

// CopyBoosts copies stat stages from one pokemon onto another.
type CopyBoosts struct {
	From Mon
	To   Mon
}

// InvertBoosts flips all stat stages of a pokemon.
type InvertBoosts struct{ Mon Mon }

// ClearAllBoosts clears stat stages on the whole field.
type ClearAllBoosts struct{}

// SwitchIn brings a pokemon onto the field.
type SwitchIn struct {
	Mon     Mon
	Species string
	Level   int
	Gender  string
	HP      HPPair
	Status  string
}

// FormChange changes a pokemon's forme; Permanent distinguishes
// detailschange from formechange.
type FormChange struct {
	Mon       Mon
	Species   string
	Level     int
	Gender    string
	Permanent bool
}

// UseMove reports a move use.
type UseMove struct {
	Mon  Mon
	Move string
}

// PrepareMove charges a two-turn move.
type PrepareMove struct {
	Mon  Mon
	Move string
}

// MustRecharge flags a recharge turn owed.
type MustRecharge struct{ Mon Mon }

// TakeDamage carries a new HP reading after damage or healing. Toxic is set
// only when the damage cause was poison.
type TakeDamage struct {
	Mon   Mon
	HP    HPPair
	Toxic bool
}

// AfflictStatus inflicts a major status condition.
type AfflictStatus struct {
	Mon    Mon
	Status string
}

// CureStatus heals a major status condition.
type CureStatus struct {
	Mon    Mon
	Status string
}

// CureTeam heals the whole team's major statuses.
type CureTeam struct{ Side Side }

// Faint removes a pokemon from play.
type Faint struct{ Mon Mon }

// ActivateFieldEffect starts or ends a field-wide condition.
type ActivateFieldEffect struct {
	Effect FieldEffect
	Start  bool
}

// ActivateTeamEffect starts or ends a one-side condition.
type ActivateTeamEffect struct {
	Side   Side
	Effect TeamEffect
	Start  bool
}

// SetWeather sets, clears or upkeeps the weather.
type SetWeather struct {
	Weather Weather
	Upkeep  bool
}

// RevealItem discloses a held item.
type RevealItem struct {
	Mon    Mon
	Item   string
	Gained bool
}

// RemoveItem removes a held item; Consumed marks eaten/used items.
type RemoveItem struct {
	Mon      Mon
	Item     string
	Consumed bool
}

// Transform copies the target's battle presence onto the source.
type Transform struct {
	Source Mon
	Target Mon
}

// TransformPost reconciles a transform with the copied move set from the
// latest request snapshot.
type TransformPost struct {
	Mon   Mon
	Moves []string
}

// MimicMove temporarily overwrites Mimic with the copied move.
type MimicMove struct {
	Mon  Mon
	Move string
}

// SketchMove permanently learns the copied move in place of Sketch.
type SketchMove struct {
	Mon  Mon
	Move string
}

// Trap marks a pokemon as trapped by the given side's active pokemon.
type Trap struct {
	Target Mon
	By     Side
}

// RestoreMoves restores PP of a side's pokemon (Lunar Dance).
type RestoreMoves struct{ Side Side }

// Feint negates protection for this turn.
type Feint struct{ Mon Mon }

// Miss reports an avoided attack against Mon.
type Miss struct{ Mon Mon }

// Immune reports an immunity proc on Mon.
type Immune struct{ Mon Mon }

// Fail reports a failed action by Mon.
type Fail struct{ Mon Mon }

// GameOver ends the battle. Tie battles have no winner.
type GameOver struct {
	Winner Side
	Tie    bool
}

func (TurnBegin) domainEvent()            {}
func (TurnEnd) domainEvent()              {}
func (Inactive) domainEvent()             {}
func (ActivateAbility) domainEvent()      {}
func (SuppressAbility) domainEvent()      {}
func (ActivateStatusEffect) domainEvent() {}
func (UpdateStatusEffect) domainEvent()   {}
func (CountStatusEffect) domainEvent()    {}
func (Fatigue) domainEvent()              {}
func (ChangeType) domainEvent()           {}
func (AddType) domainEvent()              {}
func (Boost) domainEvent()                {}
func (SwapBoosts) domainEvent()           {}
func (CopyBoosts) domainEvent()           {}
func (InvertBoosts) domainEvent()         {}
func (ClearAllBoosts) domainEvent()       {}
func (SwitchIn) domainEvent()             {}
func (FormChange) domainEvent()           {}
func (UseMove) domainEvent()              {}
func (PrepareMove) domainEvent()          {}
func (MustRecharge) domainEvent()         {}
func (TakeDamage) domainEvent()           {}
func (AfflictStatus) domainEvent()        {}
func (CureStatus) domainEvent()           {}
func (CureTeam) domainEvent()             {}
func (Faint) domainEvent()                {}
func (ActivateFieldEffect) domainEvent()  {}
func (ActivateTeamEffect) domainEvent()   {}
func (SetWeather) domainEvent()           {}
func (RevealItem) domainEvent()           {}
func (RemoveItem) domainEvent()           {}
func (Transform) domainEvent()            {}
func (TransformPost) domainEvent()        {}
func (MimicMove) domainEvent()            {}
func (SketchMove) domainEvent()           {}
func (Trap) domainEvent()                 {}
func (RestoreMoves) domainEvent()         {}
func (Feint) domainEvent()                {}
func (Miss) domainEvent()                 {}
func (Immune) domainEvent()               {}
func (Fail) domainEvent()                 {}
func (GameOver) domainEvent()             {}

// Handler consumes the ordered domain event stream. The battle-state model
// behind this interface is an external collaborator.
type Handler interface {
	HandleEvent(ev Event) error
}
