package game

import (
	"time"

	"github.com/jremy42/42-ft-transcendence/internal/engine"
)

// PlayerView is the outward projection of a Player. The session ID stays
// out: connection handles must never leak past the adapter boundary.
type PlayerView struct {
	User         User    `json:"user"`
	Pos          float64 `json:"pos"`
	Momentum     int     `json:"momentum"`
	PaddleLength float64 `json:"paddleLength"`
	PaddleWidth  float64 `json:"paddleWidth"`
	Score        int     `json:"score"`
	Ammo         int     `json:"ammo"`
	Leaving      bool    `json:"leaving"`
}

// ProjectileView is the outward projection of an in-flight projectile.
type ProjectileView struct {
	Owner int64       `json:"owner"`
	Pos   engine.Vec2 `json:"pos"`
	Size  float64     `json:"size"`
}

// Snapshot is an immutable, serializable view of a match's public state,
// emitted to every participant after each tick.
type Snapshot struct {
	ID          string           `json:"gameId"`
	Status      string           `json:"status"`
	Ball        engine.Vec2      `json:"posBall"`
	Players     []PlayerView     `json:"players"`
	Assets      []engine.Rect    `json:"assets,omitempty"`
	Projectiles []ProjectileView `json:"projectiles,omitempty"`
	Viewers     int              `json:"viewers"`
	Private     bool             `json:"private"`
	Countdown   int              `json:"countdown,omitempty"`
	Date        time.Time        `json:"date"`
}

// Result is the persistable record of a finished match.
type Result struct {
	ID      string    `json:"id"`
	Players [2]User   `json:"players"`
	Score   [2]int    `json:"score"`
	Winner  User      `json:"winner"`
	Date    time.Time `json:"date"`
}

// snapshotLocked builds a Snapshot. Callers must hold m.mu.
func (m *Match) snapshotLocked() Snapshot {
	players := make([]PlayerView, len(m.players))
	for i, p := range m.players {
		players[i] = PlayerView{
			User:         p.User,
			Pos:          p.Pos,
			Momentum:     p.Momentum,
			PaddleLength: p.PaddleLength,
			PaddleWidth:  p.PaddleWidth,
			Score:        p.Score,
			Ammo:         p.Ammo,
			Leaving:      p.Leaving,
		}
	}
	var projectiles []ProjectileView
	for i, p := range m.players {
		if p.projectile != nil {
			projectiles = append(projectiles, ProjectileView{
				Owner: m.players[i].User.ID,
				Pos:   p.projectile.Pos,
				Size:  p.projectile.Size,
			})
		}
	}
	var assets []engine.Rect
	if len(m.assets) > 0 {
		assets = append(assets, m.assets...)
	}
	return Snapshot{
		ID:          m.id.String(),
		Status:      m.status.String(),
		Ball:        m.ballPos,
		Players:     players,
		Assets:      assets,
		Projectiles: projectiles,
		Viewers:     len(m.viewers),
		Private:     m.private,
		Countdown:   m.countdown,
		Date:        m.clock.Now(),
	}
}
