// Package track implements the state diff engine: it holds the last-known
// game state and turns each incoming snapshot into zero or more typed
// events by comparing field by field.
package track

import (
	"strings"
	"sync"
	"time"

	"github.com/castmate/castmate/internal/domain"
	"github.com/castmate/castmate/internal/gsi"
	"github.com/castmate/castmate/internal/logger"
)

// PlayerState is the long-lived, mutable snapshot of the tracked player.
// Health is always clamped to [0,100].
type PlayerState struct {
	Name        string
	Team        string
	Health      int
	Armor       int
	Helmet      bool
	Money       int
	RoundKills  int
	RoundKillHS int
	EquipValue  int
	Kills       int
	Assists     int
	Deaths      int
	MVPs        int
	Score       int
	Weapon      string
	AmmoMag     int
	AmmoReserve int
	DefuseKit   bool
	HasBomb     bool
	X, Y, Z     float64
}

// RoundState mirrors the round section of the last snapshot.
type RoundState struct {
	Phase   string
	Bomb    string
	WinTeam string
}

// MapState mirrors the map section of the last snapshot. Round is
// monotonic non-decreasing within a match; a decrease signals a new match.
type MapState struct {
	Name    string
	Mode    string
	Phase   string
	Round   int
	CTScore int
	TScore  int
}

// Option configures the tracker.
type Option func(*Tracker)

// WithLowHealthThreshold sets the health value at or under which a damage
// event also emits a low-health warning.
func WithLowHealthThreshold(hp int) Option {
	return func(t *Tracker) { t.lowHealth = hp }
}

// WithHeavyDamageThreshold sets the single-hit damage at or over which a
// damage event is reported as heavy.
func WithHeavyDamageThreshold(dmg int) Option {
	return func(t *Tracker) { t.heavyDamage = dmg }
}

// WithLowAmmoThreshold sets the total ammo count at or under which a drop
// emits a low-ammo warning.
func WithLowAmmoThreshold(n int) Option {
	return func(t *Tracker) { t.lowAmmo = n }
}

// WithAmmoWarnInterval sets the minimum spacing between low-ammo warnings
// for the same weapon.
func WithAmmoWarnInterval(d time.Duration) Option {
	return func(t *Tracker) { t.ammoWarnInterval = d }
}

// WithEcoMoney sets the money threshold under which a round start is
// flagged as an eco round.
func WithEcoMoney(n int) Option {
	return func(t *Tracker) { t.ecoMoney = n }
}

// Tracker is the diff engine. All state mutation happens under one mutex
// so two snapshots can never interleave their read-modify-write.
type Tracker struct {
	mu     sync.Mutex
	player PlayerState
	round  RoundState
	gmap   MapState

	killStreak      int
	roundStartKills int
	lastAmmoWarn    map[string]time.Time

	lowHealth        int
	heavyDamage      int
	lowAmmo          int
	ammoWarnInterval time.Duration
	ecoMoney         int
	ninjaHealth      int
	mvpKills         int

	log *logger.Logger
}

// New creates a tracker with the default thresholds.
func New(log *logger.Logger, opts ...Option) *Tracker {
	t := &Tracker{
		player:           PlayerState{Health: 100},
		lastAmmoWarn:     make(map[string]time.Time),
		lowHealth:        30,
		heavyDamage:      50,
		lowAmmo:          10,
		ammoWarnInterval: 3 * time.Second,
		ecoMoney:         2000,
		ninjaHealth:      10,
		mvpKills:         3,
		log:              log,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Ingest diffs a snapshot against the stored state, mutates the stored
// state, and returns the detected events. A nil snapshot returns no events
// and leaves the state untouched. The caller supplies now so replaying a
// snapshot sequence is deterministic.
func (t *Tracker) Ingest(snap *gsi.Snapshot, now time.Time) []domain.Event {
	if snap == nil {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// Round regression means the client started a new match. Reset
	// round-scoped counters before diffing so the stale baseline cannot
	// produce phantom events.
	if snap.Map != nil && snap.Map.Round != nil && *snap.Map.Round < t.gmap.Round {
		t.log.Info("round %d after round %d, resetting for new match", *snap.Map.Round, t.gmap.Round)
		t.resetMatch()
	}

	var events []domain.Event
	emit := func(typ domain.EventType, p domain.Payload) {
		events = append(events, domain.Event{Type: typ, Payload: p, DetectedAt: now})
	}

	if snap.Player != nil {
		t.diffPlayer(snap.Player, now, emit)
	}
	if snap.Round != nil {
		t.diffRound(snap.Round, emit)
	}
	if snap.Map != nil {
		t.diffMap(snap.Map, emit)
	}

	return events
}

// Player returns a copy of the tracked player state.
func (t *Tracker) Player() PlayerState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.player
}

// Status reports the fields the health endpoint exposes.
func (t *Tracker) Status() (player, mapName string, round int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.player.Name, t.gmap.Name, t.gmap.Round
}

func (t *Tracker) resetMatch() {
	t.killStreak = 0
	t.roundStartKills = 0
	t.lastAmmoWarn = make(map[string]time.Time)
	t.player.Kills = 0
	t.player.Assists = 0
	t.player.Deaths = 0
	t.player.MVPs = 0
	t.player.Score = 0
	t.player.RoundKills = 0
	t.player.RoundKillHS = 0
	t.round = RoundState{}
}

func (t *Tracker) diffPlayer(p *gsi.PlayerSnapshot, now time.Time, emit func(domain.EventType, domain.Payload)) {
	oldHealth := t.player.Health
	oldKills := t.player.Kills
	oldDeaths := t.player.Deaths
	oldAmmo := t.player.AmmoMag + t.player.AmmoReserve

	if p.Name != "" {
		t.player.Name = p.Name
	}
	if p.Team != "" {
		t.player.Team = p.Team
	}
	if s := p.State; s != nil {
		applyInt(&t.player.Health, s.Health)
		applyInt(&t.player.Armor, s.Armor)
		applyBool(&t.player.Helmet, s.Helmet)
		applyInt(&t.player.Money, s.Money)
		applyInt(&t.player.RoundKills, s.RoundKills)
		applyInt(&t.player.RoundKillHS, s.RoundKillHS)
		applyInt(&t.player.EquipValue, s.EquipValue)
		applyBool(&t.player.DefuseKit, s.DefuseKit)
		applyBool(&t.player.HasBomb, s.Bomb)
	}
	if m := p.MatchStats; m != nil {
		applyInt(&t.player.Kills, m.Kills)
		applyInt(&t.player.Assists, m.Assists)
		applyInt(&t.player.Deaths, m.Deaths)
		applyInt(&t.player.MVPs, m.MVPs)
		applyInt(&t.player.Score, m.Score)
	}
	if w := p.ActiveWeapon(); w != nil {
		t.player.Weapon = w.Name
		applyInt(&t.player.AmmoMag, w.AmmoClip)
		applyInt(&t.player.AmmoReserve, w.AmmoReserve)
	}
	if p.Position != nil {
		t.player.X, t.player.Y, t.player.Z = p.Position.X, p.Position.Y, p.Position.Z
	}
	t.player.Health = clamp(t.player.Health, 0, 100)

	newAmmo := t.player.AmmoMag + t.player.AmmoReserve
	if newAmmo < oldAmmo && newAmmo > 0 && newAmmo <= t.lowAmmo {
		if now.Sub(t.lastAmmoWarn[t.player.Weapon]) >= t.ammoWarnInterval {
			t.lastAmmoWarn[t.player.Weapon] = now
			emit(domain.EventLowAmmo, domain.LowAmmoPayload{
				Weapon:   t.player.Weapon,
				Magazine: t.player.AmmoMag,
				Reserve:  t.player.AmmoReserve,
				Total:    newAmmo,
			})
		}
	}

	if t.player.Kills > oldKills {
		t.killStreak += t.player.Kills - oldKills
		emit(t.killEventType(), domain.KillPayload{
			Weapon:     t.player.Weapon,
			Headshot:   t.player.RoundKillHS > 0,
			RoundKills: t.player.RoundKills,
			KillStreak: t.killStreak,
		})
	}

	if t.player.Deaths > oldDeaths {
		t.killStreak = 0
		kd := float64(t.player.Kills) / float64(max(1, t.player.Deaths))
		emit(domain.EventDeath, domain.DeathPayload{
			Deaths:  t.player.Deaths,
			KDRatio: kd,
			Round:   t.gmap.Round,
		})
	}

	if t.player.Health < oldHealth && t.player.Health > 0 {
		damage := oldHealth - t.player.Health
		// A single big hit that leaves the player above the warning line
		// is its own story; once health is low, the warning takes over.
		typ := domain.EventDamage
		if damage >= t.heavyDamage && t.player.Health > t.lowHealth {
			typ = domain.EventHeavyDamage
		}
		emit(typ, domain.DamagePayload{
			Damage: damage,
			Health: t.player.Health,
			Armor:  t.player.Armor,
		})
		if t.player.Health <= t.lowHealth {
			emit(domain.EventLowHealth, domain.LowHealthPayload{
				Health: t.player.Health,
				Armor:  t.player.Armor,
			})
		}
	}
}

// killEventType picks the single highest applicable kill tier for the
// round-kill counter at the time of detection. A counter jumping straight
// from 0 to 5 still yields exactly one ace.
func (t *Tracker) killEventType() domain.EventType {
	switch {
	case t.player.RoundKills >= 5:
		return domain.EventAce
	case t.player.RoundKills >= 4:
		return domain.EventQuadraKill
	case t.player.RoundKills >= 3:
		return domain.EventTripleKill
	case t.player.RoundKills >= 2:
		return domain.EventDoubleKill
	default:
		return domain.EventKill
	}
}

func (t *Tracker) diffRound(r *gsi.RoundSnapshot, emit func(domain.EventType, domain.Payload)) {
	oldPhase := t.round.Phase
	oldBomb := t.round.Bomb

	if r.Phase != "" {
		t.round.Phase = r.Phase
	}
	if r.Bomb != "" {
		t.round.Bomb = r.Bomb
	}
	if r.WinTeam != "" {
		t.round.WinTeam = r.WinTeam
	}

	if t.round.Phase == "freezetime" && oldPhase != "freezetime" {
		t.killStreak = 0
		t.roundStartKills = t.player.Kills
		emit(domain.EventRoundStart, domain.RoundStartPayload{
			Round:   t.gmap.Round,
			CTScore: t.gmap.CTScore,
			TScore:  t.gmap.TScore,
			Money:   t.player.Money,
			Eco:     t.player.Money < t.ecoMoney,
		})
	}

	if t.round.Phase == "over" && oldPhase != "over" {
		roundKills := t.player.Kills - t.roundStartKills
		emit(domain.EventRoundEnd, domain.RoundEndPayload{
			Round:        t.gmap.Round,
			WinTeam:      t.round.WinTeam,
			PlayerTeam:   t.player.Team,
			Won:          t.round.WinTeam != "" && strings.EqualFold(t.round.WinTeam, t.player.Team),
			RoundKills:   roundKills,
			MVPCandidate: roundKills >= t.mvpKills,
		})
	}

	// Bomb phases fire on the rising edge only; repeated snapshots
	// reporting the same phase stay silent.
	if t.round.Bomb != oldBomb {
		switch t.round.Bomb {
		case "planted":
			emit(domain.EventBombPlant, domain.BombPayload{Round: t.gmap.Round, PlayerTeam: t.player.Team})
		case "defused":
			emit(domain.EventBombDefuse, domain.BombPayload{
				Round:       t.gmap.Round,
				PlayerTeam:  t.player.Team,
				NinjaDefuse: t.player.Health <= t.ninjaHealth,
			})
		case "exploded":
			emit(domain.EventBombBoom, domain.BombPayload{Round: t.gmap.Round, PlayerTeam: t.player.Team})
		}
	}
}

func (t *Tracker) diffMap(m *gsi.MapSnapshot, emit func(domain.EventType, domain.Payload)) {
	oldPhase := t.gmap.Phase

	if m.Name != "" {
		t.gmap.Name = m.Name
	}
	if m.Mode != "" {
		t.gmap.Mode = m.Mode
	}
	if m.Phase != "" {
		t.gmap.Phase = m.Phase
	}
	applyInt(&t.gmap.Round, m.Round)
	if m.TeamCT != nil {
		applyInt(&t.gmap.CTScore, m.TeamCT.Score)
	}
	if m.TeamT != nil {
		applyInt(&t.gmap.TScore, m.TeamT.Score)
	}

	if t.gmap.Phase == "gameover" && oldPhase != "gameover" {
		won := (t.player.Team == "CT" && t.gmap.CTScore > t.gmap.TScore) ||
			(t.player.Team == "T" && t.gmap.TScore > t.gmap.CTScore)
		emit(domain.EventMatchEnd, domain.MatchEndPayload{
			Map:     t.gmap.Name,
			CTScore: t.gmap.CTScore,
			TScore:  t.gmap.TScore,
			Won:     won,
			Kills:   t.player.Kills,
			Deaths:  t.player.Deaths,
			Assists: t.player.Assists,
		})
	}
}

func applyInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func applyBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

