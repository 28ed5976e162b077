package game

// Outbound events produced by a match and fanned out by the session
// adapter to all current participants.

// SnapshotEvent carries the periodic full-state snapshot.
type SnapshotEvent struct {
	Snapshot
}

// EventName returns the wire event name.
func (SnapshotEvent) EventName() string { return "game.update" }

// CountdownEvent announces the seconds remaining before play (re)starts.
type CountdownEvent struct {
	GameID    string `json:"gameId"`
	Remaining int    `json:"remaining"`
}

// EventName returns the wire event name.
func (CountdownEvent) EventName() string { return "game.countdown" }

// EndEvent carries the terminal result of a match. The same record is
// handed to the persistence collaborator as a durable row.
type EndEvent struct {
	Result
}

// EventName returns the wire event name.
func (EndEvent) EventName() string { return "game.end" }
