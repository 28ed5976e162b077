package game

import (
	"time"

	"github.com/jremy42/42-ft-transcendence/internal/engine"
	"github.com/jremy42/42-ft-transcendence/internal/session"
)

// User is the identity of a participant. Accounts are owned by an external
// collaborator; only the identity is carried here.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Player is one participant's in-match state. All fields are mutated only
// by the match's input-application and tick routines, under the match lock.
// Conn is a non-owning back-reference: connection lifecycle belongs to the
// session adapter.
type Player struct {
	User         User
	Conn         session.ID
	Pos          float64
	Momentum     int
	LastMove     time.Time
	PaddleLength float64
	PaddleWidth  float64
	Score        int
	Ammo         int
	Leaving      bool

	projectile *engine.Projectile
}

// paddleRect returns the paddle rectangle for the player seated at slot
// (0 = left, 1 = right).
func (p *Player) paddleRect(slot int) engine.Rect {
	x := 0.0
	if slot == 1 {
		x = CanvasWidth - p.PaddleWidth
	}
	return engine.Rect{X: x, Y: p.Pos, W: p.PaddleWidth, H: p.PaddleLength}
}

// Viewer is a read-only participant: it receives snapshots and never
// mutates match state.
type Viewer struct {
	User User
	Conn session.ID
}
