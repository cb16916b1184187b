package psproto

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Request is the periodic out-of-band team/move snapshot (|request|). The
// translator keeps only the latest one as corroborating context; it is never
// authoritative over the event stream.
type Request struct {
	Active      []RequestActive `json:"active"`
	Side        RequestSide     `json:"side"`
	RQID        int             `json:"rqid"`
	Wait        bool            `json:"wait"`
	ForceSwitch []bool          `json:"forceSwitch"`
}

// RequestActive lists the move choices of one active slot.
type RequestActive struct {
	Moves   []RequestMove `json:"moves"`
	Trapped bool          `json:"trapped"`
}

// RequestMove is one selectable move in a request.
type RequestMove struct {
	Move     string `json:"move"`
	ID       string `json:"id"`
	PP       int    `json:"pp"`
	MaxPP    int    `json:"maxpp"`
	Target   string `json:"target"`
	Disabled bool   `json:"disabled"`
}

// RequestSide describes the client's own team.
type RequestSide struct {
	Name    string           `json:"name"`
	ID      PlayerID         `json:"id"`
	Pokemon []RequestPokemon `json:"pokemon"`
}

// RequestPokemon is one team member in a request snapshot.
type RequestPokemon struct {
	Ident       string         `json:"ident"`
	Details     string         `json:"details"`
	Condition   string         `json:"condition"`
	Active      bool           `json:"active"`
	Stats       map[string]int `json:"stats"`
	Moves       []string       `json:"moves"`
	BaseAbility string         `json:"baseAbility"`
	Item        string         `json:"item"`
}

// ParseRequest decodes the JSON payload of a |request| line.
func ParseRequest(payload string) (*Request, error) {
	var req Request
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	return &req, nil
}

// ID parses the pokemon's ident field. Request idents omit the slot letter
// ("p1: Nick"), which the pokemon-id micro-parser tolerates in request mode.
func (p RequestPokemon) PokemonID() (PokemonID, error) {
	return parsePokemonIDString(p.Ident, true)
}

// HP parses the pokemon's condition field into an HP/status pair.
func (p RequestPokemon) HP() (HPStatus, error) {
	return parseHPStatusString(p.Condition)
}

// Species extracts the species name from the details field
// ("Pikachu, L83, M" → "Pikachu").
func (p RequestPokemon) Species() string {
	if i := strings.IndexByte(p.Details, ','); i >= 0 {
		return strings.TrimSpace(p.Details[:i])
	}
	return strings.TrimSpace(p.Details)
}

// Fainted reports whether the condition field is the fainted sentinel.
func (p RequestPokemon) Fainted() bool {
	hp, err := p.HP()
	return err == nil && hp.Fainted()
}

// parseHPStatusString parses "<hp>/<hpMax>[ <status>]" or the fainted
// sentinel "0 fnt".
func parseHPStatusString(s string) (HPStatus, error) {
	s = strings.TrimSpace(s)
	if s == "0 fnt" || s == "0" {
		return HPStatus{}, nil
	}
	fields := strings.Fields(s)
	if len(fields) == 0 || len(fields) > 2 {
		return HPStatus{}, failf("bad hp/status %q", s)
	}
	hpPart, maxPart, ok := strings.Cut(fields[0], "/")
	if !ok {
		return HPStatus{}, failf("bad hp pair %q", s)
	}
	hp, err := strconv.Atoi(hpPart)
	if err != nil {
		return HPStatus{}, failf("bad hp %q", s)
	}
	maxHP, err := strconv.Atoi(maxPart)
	if err != nil {
		return HPStatus{}, failf("bad max hp %q", s)
	}
	out := HPStatus{HP: hp, MaxHP: maxHP}
	if len(fields) == 2 {
		out.Status = fields[1]
	}
	return out, nil
}

// parsePokemonIDString parses "p1a: Nickname". The two-character player tag
// is required; the one-character slot letter is optional only in request
// mode, matching the laxer request ident format.
func parsePokemonIDString(s string, request bool) (PokemonID, error) {
	head, nick, ok := strings.Cut(s, ": ")
	if !ok || nick == "" {
		return PokemonID{}, failf("bad pokemon id %q", s)
	}
	if len(head) < 2 {
		return PokemonID{}, failf("bad pokemon id %q", s)
	}
	player := PlayerID(head[:2])
	if player != Player1 && player != Player2 {
		return PokemonID{}, failf("bad player tag in %q", s)
	}
	slot := head[2:]
	switch {
	case slot == "":
		if !request {
			return PokemonID{}, failf("missing slot in %q", s)
		}
	case len(slot) == 1 && slot[0] >= 'a' && slot[0] <= 'c':
	default:
		return PokemonID{}, failf("bad slot in %q", s)
	}
	return PokemonID{Player: player, Slot: slot, Nickname: nick}, nil
}
