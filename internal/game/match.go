// Package game implements the authoritative match: roster, options, status
// state machine and the fixed-interval tick loop that advances the physics
// and emits snapshots. A match never touches a transport; it addresses
// participants through opaque session IDs and a Broadcaster.
package game

import (
	"errors"
	"io"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/jremy42/42-ft-transcendence/internal/engine"
	"github.com/jremy42/42-ft-transcendence/internal/session"
)

// ErrAlreadyInMatch is returned when a user already holds a seat (player or
// viewer) in the match they are trying to join.
var ErrAlreadyInMatch = errors.New("game: user already in match")

// Status is the match lifecycle state.
type Status int

const (
	StatusWaiting Status = iota + 1 // 0-1 players, no rally yet
	StatusStart                     // 2 players, countdown running
	StatusPlaying                   // tick loop advancing the ball
	StatusEnd                       // terminal: threshold reached or abandonment
	StatusError                     // terminal: invariant violation
)

// String returns the wire-level status name.
func (s Status) String() string {
	switch s {
	case StatusWaiting:
		return "waiting"
	case StatusStart:
		return "start"
	case StatusPlaying:
		return "playing"
	case StatusEnd:
		return "end"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Participation describes a user's relationship to a match.
type Participation int

const (
	NotInMatch Participation = iota
	AsPlayer
	AsViewer
)

// Broadcaster fans an event out to the listed sessions. The session hub
// implements it in production; tests substitute a recording fake.
type Broadcaster interface {
	Broadcast(to []session.ID, evt session.Event)
}

type noopBroadcaster struct{}

func (noopBroadcaster) Broadcast([]session.ID, session.Event) {}

// Input is one player input event.
type Input struct {
	Move  string `json:"move,omitempty"`
	Shoot bool   `json:"shoot,omitempty"`
}

// Move verbs accepted by ApplyInput. Anything else is dropped silently.
const (
	MoveUp   = "Up"
	MoveDown = "Down"
)

// countdownStepTicks is how many physics ticks make up one countdown step.
const countdownStepTicks = int(CountdownInterval / TickInterval)

// joinSnapshotDelay spaces the out-of-band snapshot push after a join so it
// does not race the join acknowledgment on the wire.
const joinSnapshotDelay = 100 * time.Millisecond

// Deps carries the match's collaborators. Zero fields get safe defaults:
// real clock, discard logger, no-op broadcaster.
type Deps struct {
	Clock     clockwork.Clock
	Broadcast Broadcaster
	Logger    *log.Logger
	// OnEnd is invoked exactly once when the match reaches a terminal
	// state; res is nil when there is nothing to persist (never started,
	// or invariant failure).
	OnEnd func(m *Match, res *Result)
	// Seed fixes the serve-direction RNG; 0 derives one from the clock.
	Seed int64
}

// Match is a single authoritative game instance.
type Match struct {
	id        uuid.UUID
	private   bool
	opts      Options
	clock     clockwork.Clock
	bcast     Broadcaster
	logger    *log.Logger
	onEnd     func(*Match, *Result)
	rng       *rand.Rand
	createdAt time.Time

	mu             sync.Mutex
	status         Status
	players        []*Player
	viewers        []*Viewer
	ballPos        engine.Vec2
	ballVel        engine.Vec2
	assets         []engine.Rect
	countdown      int // countdown steps remaining; 0 when idle
	countdownTicks int // physics ticks until the next countdown step
	finalized      bool
	ended          bool // onEnd fired; guards the exactly-once contract
	loopStarted    bool

	done     chan struct{}
	doneOnce sync.Once
}

// NewMatch creates a match in the waiting state. The tick loop starts when
// the first player joins.
func NewMatch(id uuid.UUID, private bool, opts Options, deps Deps) *Match {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Broadcast == nil {
		deps.Broadcast = noopBroadcaster{}
	}
	if deps.Logger == nil {
		deps.Logger = log.New(io.Discard)
	}
	seed := deps.Seed
	if seed == 0 {
		seed = deps.Clock.Now().UnixNano()
	}
	m := &Match{
		id:        id,
		private:   private,
		opts:      opts.Normalized(),
		clock:     deps.Clock,
		bcast:     deps.Broadcast,
		logger:    deps.Logger.With("gameId", id.String()),
		onEnd:     deps.OnEnd,
		rng:       rand.New(rand.NewSource(seed)),
		createdAt: deps.Clock.Now(),
		status:    StatusWaiting,
		done:      make(chan struct{}),
	}
	if m.opts.Obstacle {
		m.assets = centerObstacles()
	}
	m.resetBallLocked()
	return m
}

// centerObstacles places two blocks on the center line, leaving the serve
// position free.
func centerObstacles() []engine.Rect {
	const w, h = 20.0, 120.0
	x := CanvasWidth/2 - w/2
	return []engine.Rect{
		{X: x, Y: CanvasHeight*0.15, W: w, H: h},
		{X: x, Y: CanvasHeight*0.65, W: w, H: h},
	}
}

// ID returns the match identifier.
func (m *Match) ID() uuid.UUID { return m.id }

// Private reports whether the match is hidden from matchmaking.
func (m *Match) Private() bool { return m.private }

// CreatedAt returns the creation timestamp.
func (m *Match) CreatedAt() time.Time { return m.createdAt }

// Status returns the current lifecycle state.
func (m *Match) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// FreeSlot reports whether a player seat is still open.
func (m *Match) FreeSlot() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.players) < 2
}

// Players returns the identities currently seated as players.
func (m *Match) Players() []User {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := make([]User, len(m.players))
	for i, p := range m.players {
		users[i] = p.User
	}
	return users
}

// ViewerCount returns the number of viewers.
func (m *Match) ViewerCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.viewers)
}

// Participation reports the user's role in this match.
func (m *Match) Participation(userID int64) Participation {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.players {
		if p.User.ID == userID && !p.Leaving {
			return AsPlayer
		}
	}
	for _, v := range m.viewers {
		if v.User.ID == userID {
			return AsViewer
		}
	}
	return NotInMatch
}

// Snapshot produces the serializable view of the current public state.
func (m *Match) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// AddParticipant seats a user: first open player slot if available,
// otherwise viewer. Returns ErrAlreadyInMatch if the user is already
// seated. The first player starts the tick loop; the second triggers the
// pre-game countdown.
func (m *Match) AddParticipant(user User, conn session.ID) error {
	m.mu.Lock()
	for _, p := range m.players {
		if p.User.ID == user.ID {
			m.mu.Unlock()
			return ErrAlreadyInMatch
		}
	}
	for _, v := range m.viewers {
		if v.User.ID == user.ID {
			m.mu.Unlock()
			return ErrAlreadyInMatch
		}
	}

	countdownStarted := false
	if len(m.players) < 2 {
		ammo := 0
		if m.opts.Projectiles {
			ammo = m.opts.ProjectileAmmo
		}
		m.players = append(m.players, &Player{
			User:         user,
			Conn:         conn,
			Pos:          CanvasHeight/2 - m.opts.PaddleLength/2,
			LastMove:     m.clock.Now(),
			PaddleLength: m.opts.PaddleLength,
			PaddleWidth:  m.opts.PaddleWidth,
			Ammo:         ammo,
		})
		if len(m.players) == 1 && !m.loopStarted {
			m.loopStarted = true
			go m.run()
		}
		if len(m.players) == 2 {
			m.status = StatusStart
			m.beginCountdownLocked(PregameCountdown)
			countdownStarted = true
		}
	} else {
		m.viewers = append(m.viewers, &Viewer{User: user, Conn: conn})
	}
	conns := m.connsLocked()
	m.mu.Unlock()

	if countdownStarted {
		m.bcast.Broadcast(conns, CountdownEvent{GameID: m.id.String(), Remaining: PregameCountdown})
	}
	go m.pushSnapshotSoon()
	return nil
}

// pushSnapshotSoon emits one out-of-band snapshot shortly after a join.
func (m *Match) pushSnapshotSoon() {
	select {
	case <-m.clock.After(joinSnapshotDelay):
	case <-m.done:
		return
	}
	m.mu.Lock()
	snap := m.snapshotLocked()
	conns := m.connsLocked()
	m.mu.Unlock()
	m.bcast.Broadcast(conns, SnapshotEvent{Snapshot: snap})
}

// ApplyInput applies one input event for the given user. Unknown users and
// unknown move verbs are ignored: stale input after a player left is
// expected and must not disturb the tick loop.
func (m *Match) ApplyInput(userID int64, in Input) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var p *Player
	slot := -1
	for i, c := range m.players {
		if c.User.ID == userID {
			p, slot = c, i
			break
		}
	}
	if p == nil || p.Leaving {
		return
	}

	switch in.Move {
	case MoveUp:
		if p.Momentum <= 0 {
			p.Momentum--
		} else {
			p.Momentum = 0
		}
		if p.Momentum < -MomentumMax {
			p.Momentum = -MomentumMax
		}
		p.Pos -= m.opts.PlayerSpeed - float64(p.Momentum)/10
		p.Pos = math.Floor(p.Pos)
		if p.Pos <= 0 {
			p.Pos = 0
			p.Momentum = 0
		}
		p.LastMove = m.clock.Now()
	case MoveDown:
		if p.Momentum >= 0 {
			p.Momentum++
		} else {
			p.Momentum = 0
		}
		if p.Momentum > MomentumMax {
			p.Momentum = MomentumMax
		}
		p.Pos += m.opts.PlayerSpeed + float64(p.Momentum)/10
		p.Pos = math.Floor(p.Pos)
		if limit := CanvasHeight - p.PaddleLength; p.Pos >= limit {
			p.Pos = limit
			p.Momentum = 0
		}
		p.LastMove = m.clock.Now()
	}

	if in.Shoot {
		m.shootLocked(p, slot)
	}
}

// shootLocked spawns a projectile for the player at the given slot.
// Rejected silently when the mode is off, ammo is out, or a projectile is
// already in flight for that player.
func (m *Match) shootLocked(p *Player, slot int) {
	if !m.opts.Projectiles || p.Ammo <= 0 || p.projectile != nil {
		return
	}
	p.Ammo--
	dir := 1.0
	x := p.PaddleWidth + m.opts.ProjectileSize
	if slot == 1 {
		dir = -1
		x = CanvasWidth - p.PaddleWidth - m.opts.ProjectileSize
	}
	p.projectile = &engine.Projectile{
		Pos:  engine.Vec2{X: x, Y: p.Pos + p.PaddleLength/2},
		Vel:  engine.Vec2{X: dir * m.opts.ProjectileSpeed, Y: 0},
		Size: m.opts.ProjectileSize,
	}
}

// RemoveParticipant evicts a user from the match. Viewers are simply
// dropped. A player leaving tears the match down: the remaining player is
// the implicit winner and the result is finalized. Idempotent: removing an
// absent or already-removed user is a no-op.
func (m *Match) RemoveParticipant(userID int64) {
	m.mu.Lock()
	for i, v := range m.viewers {
		if v.User.ID == userID {
			m.viewers = append(m.viewers[:i], m.viewers[i+1:]...)
			m.mu.Unlock()
			return
		}
	}
	var leaver *Player
	for _, p := range m.players {
		if p.User.ID == userID {
			leaver = p
			break
		}
	}
	if leaver == nil || leaver.Leaving {
		m.mu.Unlock()
		return
	}
	leaver.Leaving = true

	if m.status == StatusEnd || m.status == StatusError {
		// Already torn down; nothing more to finalize.
		m.mu.Unlock()
		return
	}

	if len(m.players) < 2 {
		// Match never started; evict without a result.
		fireEnd := !m.ended
		m.ended = true
		m.mu.Unlock()
		m.stop()
		if fireEnd && m.onEnd != nil {
			m.onEnd(m, nil)
		}
		return
	}

	// Abandonment of a started match.
	m.status = StatusEnd
	var res *Result
	if !m.finalized {
		m.finalized = true
		res = m.resultLocked()
	}
	fireEnd := !m.ended
	m.ended = true
	snap := m.snapshotLocked()
	conns := m.connsLocked()
	m.mu.Unlock()

	m.logger.Info("player left, match abandoned", "userId", userID)
	m.bcast.Broadcast(conns, SnapshotEvent{Snapshot: snap})
	if res != nil {
		m.bcast.Broadcast(conns, EndEvent{Result: *res})
	}
	m.stop()
	if fireEnd && m.onEnd != nil {
		m.onEnd(m, res)
	}
}

// Tick advances the match by one physics interval: countdown bookkeeping,
// physics while playing, and a snapshot broadcast regardless of status.
// Returns true when the match reached a terminal state and the loop must
// stop. Exported so tests can drive the simulation deterministically.
func (m *Match) Tick() bool {
	var events []session.Event

	m.mu.Lock()
	if m.status == StatusStart && m.countdown > 0 {
		m.countdownTicks--
		if m.countdownTicks <= 0 {
			m.countdown--
			m.countdownTicks = countdownStepTicks
			events = append(events, CountdownEvent{GameID: m.id.String(), Remaining: m.countdown})
			if m.countdown <= 0 {
				m.status = StatusPlaying
			}
		}
	}
	if m.status == StatusPlaying {
		m.stepLocked(&events)
	}
	stop := m.status == StatusEnd || m.status == StatusError
	var res *Result
	if stop && !m.finalized {
		m.finalized = true
		if m.status == StatusEnd {
			res = m.resultLocked()
		}
	}
	// A tick pending in the run loop can land after RemoveParticipant
	// already tore the match down; the callback must still fire once.
	fireEnd := stop && !m.ended
	if fireEnd {
		m.ended = true
	}
	snap := m.snapshotLocked()
	conns := m.connsLocked()
	m.mu.Unlock()

	m.bcast.Broadcast(conns, SnapshotEvent{Snapshot: snap})
	for _, evt := range events {
		m.bcast.Broadcast(conns, evt)
	}
	if stop {
		if res != nil {
			m.logger.Info("match finished", "score1", res.Score[0], "score2", res.Score[1], "winner", res.Winner.ID)
			m.bcast.Broadcast(conns, EndEvent{Result: *res})
		}
		m.stop()
		if fireEnd && m.onEnd != nil {
			m.onEnd(m, res)
		}
	}
	return stop
}

// stepLocked advances one physics tick. Callers must hold m.mu.
func (m *Match) stepLocked(events *[]session.Event) {
	if len(m.players) < 2 || m.players[0] == nil || m.players[1] == nil {
		// Fail closed: halt ticking rather than panic inside the loop.
		m.logger.Error("physics step with incomplete roster", "players", len(m.players))
		m.status = StatusError
		return
	}

	now := m.clock.Now()
	for _, p := range m.players {
		if now.Sub(p.LastMove) > MomentumIdleWindow {
			p.Momentum = 0
		}
	}

	if m.opts.PaddleShrink {
		perTick := m.opts.ShrinkPerSecond * TickInterval.Seconds()
		for _, p := range m.players {
			p.PaddleLength = math.Max(m.opts.MinPaddleLength, p.PaddleLength-perTick)
		}
	}

	m.stepProjectilesLocked()

	prev := m.ballPos
	next := engine.Advance(m.ballPos, m.ballVel, m.opts.BallSpeed)
	m.ballVel = engine.BounceWalls(next, m.ballVel, m.opts.BallSize, CanvasHeight)

	// Fixed collision order: left paddle, right paddle, then obstacles.
	// At most one correction applies per edge crossing; simultaneous
	// corner hits resolve against whichever check ran first.
	next, m.ballVel, _ = engine.CollideRect(prev, next, m.ballVel, m.players[0].paddleRect(0), m.spinFor(m.players[0]))
	next, m.ballVel, _ = engine.CollideRect(prev, next, m.ballVel, m.players[1].paddleRect(1), m.spinFor(m.players[1]))
	for _, a := range m.assets {
		next, m.ballVel, _ = engine.CollideRect(prev, next, m.ballVel, a, 0)
	}
	m.ballPos = next

	if m.ballPos.X <= 0 {
		m.scoreLocked(1, events)
	} else if m.ballPos.X >= CanvasWidth {
		m.scoreLocked(0, events)
	}
}

// spinFor translates paddle momentum into a bounce-angle offset: a paddle
// moving up imparts upward spin.
func (m *Match) spinFor(p *Player) float64 {
	if m.opts.LiftEffect == 0 {
		return 0
	}
	return -m.opts.LiftEffect * float64(p.Momentum) / MomentumMax * engine.MaxBounceAngle
}

// stepProjectilesLocked advances in-flight projectiles. A projectile that
// strikes the opposing paddle shrinks it by a quarter of its current
// length, floored at the configured minimum.
func (m *Match) stepProjectilesLocked() {
	if !m.opts.Projectiles || len(m.players) < 2 {
		return
	}
	for i, p := range m.players {
		if p.projectile == nil {
			continue
		}
		prev := p.projectile.Pos
		next := engine.StepProjectile(*p.projectile, CanvasHeight)
		opp := m.players[1-i]
		if engine.CrossesRect(prev, next.Pos, opp.paddleRect(1-i)) {
			opp.PaddleLength = math.Max(m.opts.MinPaddleLength, opp.PaddleLength*0.75)
			p.projectile = nil
			continue
		}
		if next.Bounces > m.opts.ProjectileMaxBounces || next.OffField(CanvasWidth) {
			p.projectile = nil
			continue
		}
		*p.projectile = next
	}
}

// scoreLocked awards a point to the player at the given slot and either
// ends the match or resets the rally behind a short countdown.
func (m *Match) scoreLocked(slot int, events *[]session.Event) {
	m.players[slot].Score++
	if m.players[0].Score+m.players[1].Score >= m.opts.VictoryRounds {
		m.status = StatusEnd
		return
	}
	m.status = StatusStart
	m.beginCountdownLocked(PointCountdown)
	*events = append(*events, CountdownEvent{GameID: m.id.String(), Remaining: PointCountdown})
	m.resetRallyLocked()
}

// resetRallyLocked re-centers the ball with a fresh random direction and
// resets both paddles to vertical center with zero momentum.
func (m *Match) resetRallyLocked() {
	m.resetBallLocked()
	for _, p := range m.players {
		p.Pos = CanvasHeight/2 - p.PaddleLength/2
		p.Momentum = 0
	}
}

// resetBallLocked centers the ball and picks each velocity sign
// independently.
func (m *Match) resetBallLocked() {
	m.ballPos = engine.Vec2{X: CanvasWidth / 2, Y: CanvasHeight / 2}
	vx, vy := 1.0, 1.0
	if m.rng.Intn(2) == 0 {
		vx = -1
	}
	if m.rng.Intn(2) == 0 {
		vy = -1
	}
	m.ballVel = engine.Vec2{X: vx, Y: vy}
}

// resultLocked derives the persistable record. Callers must hold m.mu.
func (m *Match) resultLocked() *Result {
	if len(m.players) < 2 {
		return nil
	}
	p0, p1 := m.players[0], m.players[1]
	winner := p0.User
	switch {
	case p0.Leaving && !p1.Leaving:
		winner = p1.User
	case p1.Leaving && !p0.Leaving:
		winner = p0.User
	case p1.Score > p0.Score:
		winner = p1.User
	}
	return &Result{
		ID:      m.id.String(),
		Players: [2]User{p0.User, p1.User},
		Score:   [2]int{p0.Score, p1.Score},
		Winner:  winner,
		Date:    m.clock.Now(),
	}
}

// beginCountdownLocked arms the countdown. Callers must hold m.mu and emit
// the initial CountdownEvent after releasing the lock.
func (m *Match) beginCountdownLocked(steps int) {
	m.countdown = steps
	m.countdownTicks = countdownStepTicks
}

// connsLocked collects the session IDs of every current participant.
func (m *Match) connsLocked() []session.ID {
	conns := make([]session.ID, 0, len(m.players)+len(m.viewers))
	for _, p := range m.players {
		if p.Conn != "" && !p.Leaving {
			conns = append(conns, p.Conn)
		}
	}
	for _, v := range m.viewers {
		if v.Conn != "" {
			conns = append(conns, v.Conn)
		}
	}
	return conns
}

// run is the per-match tick loop. One goroutine per match; independent
// matches never share timers or state.
func (m *Match) run() {
	ticker := m.clock.NewTicker(TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.Chan():
			if m.Tick() {
				return
			}
		case <-m.done:
			return
		}
	}
}

// Stop cancels the tick loop without finalizing a result. Used for process
// shutdown; normal teardown goes through Tick or RemoveParticipant.
func (m *Match) Stop() {
	m.stop()
}

func (m *Match) stop() {
	m.doneOnce.Do(func() {
		close(m.done)
	})
}

// Done returns a channel closed when the match has fully stopped.
func (m *Match) Done() <-chan struct{} {
	return m.done
}
