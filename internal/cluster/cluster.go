// Package cluster maintains the process-wide pool of active matches:
// creation, lookup by id, matchmaking over the open-public index, eviction,
// and user presence. Structural mutations are serialized by the cluster
// lock; each match serializes its own internal state, so independent
// matches never contend with each other.
package cluster

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/jremy42/42-ft-transcendence/internal/game"
	"github.com/jremy42/42-ft-transcendence/internal/session"
)

// ErrNotFound is returned when an operation references a match id that is
// not (or no longer) registered.
var ErrNotFound = errors.New("cluster: game not found")

// ResultSaver persists terminal match records. The storage package
// implements it; the cluster only depends on the interface.
type ResultSaver interface {
	SaveGame(res game.Result) error
}

// Summary is a lightweight view of an active match for public display. It
// exposes no physics state.
type Summary struct {
	ID      string      `json:"gameId"`
	Players []game.User `json:"players"`
	Viewers int         `json:"viewers"`
	Status  string      `json:"status"`
}

// UserState describes what a user is currently doing.
type UserState struct {
	State  string `json:"state"` // offline, online, waiting, playing, watching
	GameID string `json:"gameId,omitempty"`
}

// Deps carries the cluster's collaborators. Saver may be nil when results
// are not persisted (tests).
type Deps struct {
	Clock     clockwork.Clock
	Broadcast game.Broadcaster
	Logger    *log.Logger
	Saver     ResultSaver
}

// Cluster is the registry of active matches.
type Cluster struct {
	clock  clockwork.Clock
	bcast  game.Broadcaster
	logger *log.Logger
	saver  ResultSaver

	mu       sync.RWMutex
	games    map[uuid.UUID]*game.Match
	open     map[uuid.UUID]*game.Match // public matches with a free player slot
	seats    map[int64]uuid.UUID       // user id -> match currently seated in
	presence map[int64]bool            // user id -> connected
}

// New creates an empty cluster.
func New(deps Deps) *Cluster {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Logger == nil {
		deps.Logger = log.New(io.Discard)
	}
	return &Cluster{
		clock:    deps.Clock,
		bcast:    deps.Broadcast,
		logger:   deps.Logger,
		saver:    deps.Saver,
		games:    make(map[uuid.UUID]*game.Match),
		open:     make(map[uuid.UUID]*game.Match),
		seats:    make(map[int64]uuid.UUID),
		presence: make(map[int64]bool),
	}
}

// CreateMatch allocates an id, constructs the match and registers it.
// Public matches enter the open-slot index until their second player joins.
func (c *Cluster) CreateMatch(private bool, opts game.Options) *game.Match {
	id := uuid.New()
	m := game.NewMatch(id, private, opts, game.Deps{
		Clock:     c.clock,
		Broadcast: c.bcast,
		Logger:    c.logger,
		OnEnd:     c.onMatchEnd,
	})
	c.mu.Lock()
	c.games[id] = m
	if !private {
		c.open[id] = m
	}
	c.mu.Unlock()
	c.logger.Info("match created", "gameId", id.String(), "private", private)
	return m
}

// FindAvailable returns any public match awaiting a second player, or nil.
// No fairness or ranking: first found wins.
func (c *Cluster) FindAvailable() *game.Match {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, m := range c.open {
		return m
	}
	return nil
}

// FindOrCreate joins matchmaking: an open public match if one exists,
// otherwise a fresh public match with the given options.
func (c *Cluster) FindOrCreate(opts game.Options) *game.Match {
	if m := c.FindAvailable(); m != nil {
		return m
	}
	return c.CreateMatch(false, opts)
}

// FindOne returns the match with the given id, or nil.
func (c *Cluster) FindOne(id uuid.UUID) *game.Match {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.games[id]
}

// Join seats a user in the match and returns the initial snapshot.
func (c *Cluster) Join(id uuid.UUID, user game.User, conn session.ID) (game.Snapshot, error) {
	m := c.FindOne(id)
	if m == nil {
		return game.Snapshot{}, ErrNotFound
	}
	if err := m.AddParticipant(user, conn); err != nil {
		return game.Snapshot{}, err
	}
	c.mu.Lock()
	c.seats[user.ID] = id
	if !m.FreeSlot() {
		delete(c.open, id)
	}
	c.mu.Unlock()
	return m.Snapshot(), nil
}

// Leave removes a user from the given match. Unknown match ids and absent
// users are no-ops: a quit racing an eviction is expected.
func (c *Cluster) Leave(id uuid.UUID, userID int64) {
	m := c.FindOne(id)
	if m == nil {
		return
	}
	m.RemoveParticipant(userID)
	c.mu.Lock()
	if c.seats[userID] == id {
		delete(c.seats, userID)
	}
	c.mu.Unlock()
}

// ListActive returns summaries of every public match for display.
func (c *Cluster) ListActive() []Summary {
	c.mu.RLock()
	matches := make([]*game.Match, 0, len(c.games))
	for _, m := range c.games {
		if !m.Private() {
			matches = append(matches, m)
		}
	}
	c.mu.RUnlock()

	out := make([]Summary, 0, len(matches))
	for _, m := range matches {
		out = append(out, Summary{
			ID:      m.ID().String(),
			Players: m.Players(),
			Viewers: m.ViewerCount(),
			Status:  m.Status().String(),
		})
	}
	return out
}

// Evict removes a match from every index and stops its loop. Normally
// invoked through the match's end callback; callable directly for
// administrative teardown.
func (c *Cluster) Evict(id uuid.UUID) {
	c.mu.Lock()
	m := c.games[id]
	delete(c.games, id)
	delete(c.open, id)
	for userID, seat := range c.seats {
		if seat == id {
			delete(c.seats, userID)
		}
	}
	c.mu.Unlock()
	if m != nil {
		m.Stop()
	}
}

// Connect marks a user as online. Presence is mutated only through
// Connect and Disconnect.
func (c *Cluster) Connect(userID int64) {
	c.mu.Lock()
	c.presence[userID] = true
	c.mu.Unlock()
}

// Disconnect marks a user offline and evicts them from any match they were
// seated in; the connection adapter calls this when the transport drops.
func (c *Cluster) Disconnect(userID int64) {
	c.mu.Lock()
	delete(c.presence, userID)
	seat, seated := c.seats[userID]
	c.mu.Unlock()
	if seated {
		c.Leave(seat, userID)
	}
}

// Online reports whether the user currently has a live connection.
func (c *Cluster) Online(userID int64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.presence[userID]
}

// UserState derives the public activity state for a user.
func (c *Cluster) UserState(userID int64) UserState {
	c.mu.RLock()
	online := c.presence[userID]
	seat, seated := c.seats[userID]
	m := c.games[seat]
	c.mu.RUnlock()

	if seated && m != nil {
		switch m.Participation(userID) {
		case game.AsViewer:
			return UserState{State: "watching", GameID: seat.String()}
		case game.AsPlayer:
			if m.Status() == game.StatusWaiting {
				return UserState{State: "waiting", GameID: seat.String()}
			}
			return UserState{State: "playing", GameID: seat.String()}
		}
	}
	if online {
		return UserState{State: "online"}
	}
	return UserState{State: "offline"}
}

// Count returns the number of registered matches.
func (c *Cluster) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.games)
}

// Close stops every match loop. Used at process shutdown.
func (c *Cluster) Close() {
	c.mu.Lock()
	matches := make([]*game.Match, 0, len(c.games))
	for _, m := range c.games {
		matches = append(matches, m)
	}
	c.games = make(map[uuid.UUID]*game.Match)
	c.open = make(map[uuid.UUID]*game.Match)
	c.mu.Unlock()
	for _, m := range matches {
		m.Stop()
	}
}

// onMatchEnd is the match terminal callback: persist the result if any,
// then drop the match from every index.
func (c *Cluster) onMatchEnd(m *game.Match, res *game.Result) {
	if res != nil && c.saver != nil {
		// Persist off the tick goroutine; the loop is already stopping
		// but eviction should not wait on the database.
		go func(r game.Result) {
			if err := c.saver.SaveGame(r); err != nil {
				c.logger.Error("failed to save match result", "gameId", r.ID, "err", err)
			}
		}(*res)
	}
	c.Evict(m.ID())
	c.logger.Info("match evicted", "gameId", m.ID().String(), "age", c.clock.Since(m.CreatedAt()).Round(time.Second))
}
