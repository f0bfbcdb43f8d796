// Package domain holds the core types shared by the snapshot diff engine,
// the classifier, and the dispatch queue, plus the interfaces for the two
// external collaborators (text generation and speech output).
package domain

import (
	"fmt"
	"time"
)

// EventType identifies a discrete occurrence inferred from comparing two
// consecutive game-state snapshots.
type EventType string

const (
	EventKill        EventType = "kill"
	EventDoubleKill  EventType = "double_kill"
	EventTripleKill  EventType = "triple_kill"
	EventQuadraKill  EventType = "quadra_kill"
	EventAce         EventType = "ace"
	EventDeath       EventType = "death"
	EventDamage      EventType = "damage"
	EventHeavyDamage EventType = "heavy_damage"
	EventLowHealth   EventType = "low_health"
	EventLowAmmo     EventType = "low_ammo_warning"
	EventRoundStart  EventType = "round_start"
	EventRoundEnd    EventType = "round_end"
	EventBombPlant   EventType = "bomb_planted"
	EventBombDefuse  EventType = "bomb_defused"
	EventBombBoom    EventType = "bomb_exploded"
	EventMatchEnd    EventType = "match_end"
)

// Event is an immutable value emitted by the diff engine. It is owned by
// the pipeline stage that created it until the dispatch queue consumes it.
type Event struct {
	Type       EventType
	Payload    Payload
	DetectedAt time.Time
}

// Payload carries the event-specific data. Describe builds the structured
// description handed to the text-generation collaborator (never raw
// snapshot JSON). CacheKey returns only the fields that make two events
// materially identical — no timestamps, and continuous values bucketed —
// so repeat situations collide in the response cache.
type Payload interface {
	Describe() string
	CacheKey() string
}

// KillPayload covers kill and every multi-kill variant. The subtype is
// carried by the event type; the payload is shared.
type KillPayload struct {
	Weapon     string
	Headshot   bool
	RoundKills int
	KillStreak int
}

func (p KillPayload) Describe() string {
	s := fmt.Sprintf("killed an enemy with %s (%d kills this round, streak %d)",
		weaponName(p.Weapon), p.RoundKills, p.KillStreak)
	if p.Headshot {
		s += ", headshot"
	}
	return s
}

func (p KillPayload) CacheKey() string {
	return fmt.Sprintf("%s|%d|%t", p.Weapon, p.RoundKills, p.Headshot)
}

// DeathPayload is emitted when the tracked player's death counter rises.
type DeathPayload struct {
	Deaths  int
	KDRatio float64
	Round   int
}

func (p DeathPayload) Describe() string {
	return fmt.Sprintf("died (death %d, K/D %.2f)", p.Deaths, p.KDRatio)
}

func (p DeathPayload) CacheKey() string {
	return fmt.Sprintf("kd:%.1f", p.KDRatio)
}

// DamagePayload reports a health drop that left the player alive.
type DamagePayload struct {
	Damage int
	Health int
	Armor  int
}

func (p DamagePayload) Describe() string {
	return fmt.Sprintf("took %d damage, %d health left", p.Damage, p.Health)
}

func (p DamagePayload) CacheKey() string {
	return fmt.Sprintf("dmg:%s|hp:%s", bucket(p.Damage, 25), HealthBracket(p.Health))
}

// LowHealthPayload is emitted alongside a damage event once health falls
// under the warning threshold. The classifier escalates it to CRITICAL
// below the critical floor.
type LowHealthPayload struct {
	Health int
	Armor  int
}

func (p LowHealthPayload) Describe() string {
	return fmt.Sprintf("health critically low: %d", p.Health)
}

func (p LowHealthPayload) CacheKey() string {
	return "hp:" + HealthBracket(p.Health)
}

// LowAmmoPayload warns that the active weapon is nearly dry.
type LowAmmoPayload struct {
	Weapon   string
	Magazine int
	Reserve  int
	Total    int
}

func (p LowAmmoPayload) Describe() string {
	return fmt.Sprintf("only %d rounds left for %s", p.Total, weaponName(p.Weapon))
}

func (p LowAmmoPayload) CacheKey() string {
	return fmt.Sprintf("%s|ammo:%s", p.Weapon, AmmoBracket(p.Total))
}

// RoundStartPayload marks the freezetime transition.
type RoundStartPayload struct {
	Round   int
	CTScore int
	TScore  int
	Money   int
	Eco     bool
}

func (p RoundStartPayload) Describe() string {
	s := fmt.Sprintf("round %d starting, score CT %d : T %d", p.Round, p.CTScore, p.TScore)
	if p.Eco {
		s += ", eco round"
	}
	return s
}

func (p RoundStartPayload) CacheKey() string {
	return fmt.Sprintf("eco:%t", p.Eco)
}

// RoundEndPayload marks the round-over transition.
type RoundEndPayload struct {
	Round        int
	WinTeam      string
	PlayerTeam   string
	Won          bool
	RoundKills   int
	MVPCandidate bool
}

func (p RoundEndPayload) Describe() string {
	outcome := "lost"
	if p.Won {
		outcome = "won"
	}
	s := fmt.Sprintf("round %d %s (%s take it), %d kills this round", p.Round, outcome, p.WinTeam, p.RoundKills)
	if p.MVPCandidate {
		s += ", MVP performance"
	}
	return s
}

func (p RoundEndPayload) CacheKey() string {
	return fmt.Sprintf("won:%t|kills:%d", p.Won, p.RoundKills)
}

// BombPayload covers planted, defused and exploded one-shots.
type BombPayload struct {
	Round       int
	PlayerTeam  string
	NinjaDefuse bool
}

func (p BombPayload) Describe() string {
	if p.NinjaDefuse {
		return "bomb defused with almost no health left"
	}
	return fmt.Sprintf("bomb event in round %d", p.Round)
}

func (p BombPayload) CacheKey() string {
	return fmt.Sprintf("team:%s|ninja:%t", p.PlayerTeam, p.NinjaDefuse)
}

// MatchEndPayload summarizes the finished match.
type MatchEndPayload struct {
	Map     string
	CTScore int
	TScore  int
	Won     bool
	Kills   int
	Deaths  int
	Assists int
}

func (p MatchEndPayload) Describe() string {
	outcome := "lost"
	if p.Won {
		outcome = "won"
	}
	return fmt.Sprintf("match on %s %s %d:%d, finished %d-%d-%d",
		p.Map, outcome, p.CTScore, p.TScore, p.Kills, p.Deaths, p.Assists)
}

func (p MatchEndPayload) CacheKey() string {
	return fmt.Sprintf("%s|won:%t", p.Map, p.Won)
}

// HealthBracket buckets a health value the way the commentary cares about
// it: the exact number does not change what gets said.
func HealthBracket(hp int) string {
	switch {
	case hp <= 1:
		return "critical"
	case hp <= 15:
		return "very_low"
	case hp <= 30:
		return "low"
	case hp <= 60:
		return "medium"
	default:
		return "healthy"
	}
}

// AmmoBracket buckets a total ammo count.
func AmmoBracket(total int) string {
	switch {
	case total == 0:
		return "empty"
	case total <= 3:
		return "critical"
	case total <= 10:
		return "low"
	case total <= 30:
		return "medium"
	default:
		return "plenty"
	}
}

func bucket(v, step int) string {
	if step <= 0 {
		return fmt.Sprint(v)
	}
	return fmt.Sprint(v / step * step)
}

// weaponName strips the engine prefix from weapon identifiers
// ("weapon_ak47" -> "ak47").
func weaponName(w string) string {
	const prefix = "weapon_"
	if len(w) > len(prefix) && w[:len(prefix)] == prefix {
		return w[len(prefix):]
	}
	if w == "" {
		return "unknown weapon"
	}
	return w
}
