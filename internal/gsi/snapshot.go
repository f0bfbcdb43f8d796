// Package gsi implements the game-state-integration boundary: the webhook
// server the game client pushes snapshots to, the loose snapshot wire
// types, and the generated client configuration artifact.
package gsi

import (
	"encoding/json"
	"fmt"
)

// Snapshot is one full state push from the game client. Every scalar is a
// pointer: the client omits unchanged sections, and an absent key must
// mean "keep the previous value", never zero.
type Snapshot struct {
	Auth   *AuthSnapshot   `json:"auth"`
	Player *PlayerSnapshot `json:"player"`
	Round  *RoundSnapshot  `json:"round"`
	Map    *MapSnapshot    `json:"map"`
}

// AuthSnapshot carries the token the client config embeds in every post.
type AuthSnapshot struct {
	Token string `json:"token"`
}

// Token returns the auth token, or empty when the section is absent.
func (s *Snapshot) Token() string {
	if s == nil || s.Auth == nil {
		return ""
	}
	return s.Auth.Token
}

// PlayerSnapshot carries the tracked player's section of a snapshot.
type PlayerSnapshot struct {
	Name       string                     `json:"name"`
	Team       string                     `json:"team"`
	State      *PlayerStateSnapshot       `json:"state"`
	MatchStats *MatchStatsSnapshot        `json:"match_stats"`
	Weapons    map[string]*WeaponSnapshot `json:"weapons"`
	Position   *PositionSnapshot          `json:"position"`
}

type PlayerStateSnapshot struct {
	Health     *int  `json:"health"`
	Armor      *int  `json:"armor"`
	Helmet     *bool `json:"helmet"`
	Money      *int  `json:"money"`
	RoundKills *int  `json:"round_kills"`
	RoundKillHS *int `json:"round_killhs"`
	EquipValue *int  `json:"equip_value"`
	DefuseKit  *bool `json:"defusekit"`
	Bomb       *bool `json:"bomb"`
}

type MatchStatsSnapshot struct {
	Kills   *int `json:"kills"`
	Assists *int `json:"assists"`
	Deaths  *int `json:"deaths"`
	MVPs    *int `json:"mvps"`
	Score   *int `json:"score"`
}

// WeaponSnapshot describes one inventory slot. State is "active" for the
// weapon currently in hand.
type WeaponSnapshot struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	State       string `json:"state"`
	AmmoClip    *int   `json:"ammo_clip"`
	AmmoReserve *int   `json:"ammo_clip_reserve"`
}

type PositionSnapshot struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type RoundSnapshot struct {
	Phase   string `json:"phase"`
	Bomb    string `json:"bomb"`
	WinTeam string `json:"win_team"`
}

type MapSnapshot struct {
	Name   string        `json:"name"`
	Mode   string        `json:"mode"`
	Phase  string        `json:"phase"`
	Round  *int          `json:"round"`
	TeamCT *TeamSnapshot `json:"team_ct"`
	TeamT  *TeamSnapshot `json:"team_t"`
}

type TeamSnapshot struct {
	Score *int `json:"score"`
}

// ActiveWeapon returns the weapon currently in hand, or nil when no slot
// reports the active state.
func (p *PlayerSnapshot) ActiveWeapon() *WeaponSnapshot {
	if p == nil {
		return nil
	}
	for _, w := range p.Weapons {
		if w != nil && w.State == "active" {
			return w
		}
	}
	return nil
}

// ParseSnapshot decodes a webhook body. A nil or empty body is an error;
// the caller acknowledges it to the publisher regardless.
func ParseSnapshot(body []byte) (*Snapshot, error) {
	if len(body) == 0 {
		return nil, fmt.Errorf("gsi: empty snapshot body")
	}
	snap := new(Snapshot)
	if err := json.Unmarshal(body, snap); err != nil {
		return nil, fmt.Errorf("gsi: decode snapshot: %w", err)
	}
	return snap, nil
}
