/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package impostor runs rooms for a social deduction party game: every player
// but one receives the same secret word, and the group has to work out who
// was left without it.
//
// Identity is connection-scoped. A player is whatever connection id the
// gateway hands in, and a dropped connection is a departed player.
package impostor

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const MinPlayers = 3

const (
	EventRoomUpdate = "room:update"
	EventSecret     = "game:secret"
	EventRoomClosed = "room:closed"
)

// Event is a push to a single connection.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Notifier delivers events to connections. The engine calls it while holding
// a room's lock, so implementations must not block and must not call back
// into the engine.
type Notifier interface {
	Notify(connID string, ev Event)
}

// Joined is the reply to a successful create or join.
type Joined struct {
	RoomCode string `json:"roomCode"`
	HostID   string `json:"hostId"`
}

type Engine struct {
	rooms  *Registry
	words  []string
	src    Source
	notify Notifier
	log    zerolog.Logger
}

func NewEngine(rooms *Registry, words []string, src Source, notify Notifier, logger zerolog.Logger) *Engine {
	if len(words) == 0 {
		words = fallbackWords
	}

	return &Engine{
		rooms:  rooms,
		words:  words,
		src:    src,
		notify: notify,
		log:    logger,
	}
}

// lock returns the live room for code with its lock held.
func (e *Engine) lock(code string) (*Room, error) {
	room, err := e.rooms.Get(code)
	if err != nil {
		return nil, err
	}

	room.mu.Lock()
	if room.closed {
		room.mu.Unlock()

		return nil, fmt.Errorf("room %s: %w", room.code, ErrRoomNotFound)
	}

	return room, nil
}

func (e *Engine) broadcastLocked(room *Room) {
	snap := room.snapshotLocked()
	for _, p := range room.players {
		e.notify.Notify(p.ID, Event{Type: EventRoomUpdate, Data: snap})
	}
}

// CreateRoom opens a new room with connID as host and sole member.
func (e *Engine) CreateRoom(connID, name string) (Joined, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Joined{}, ErrEmptyName
	}

	room, err := e.rooms.Create(connID, name)
	if err != nil {
		e.log.Error().Err(err).Str("conn", connID).Msg("room creation failed")

		return Joined{}, err
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	e.log.Info().Str("room", room.code).Str("host", name).Msg("room created")
	e.broadcastLocked(room)

	return Joined{RoomCode: room.code, HostID: room.hostID}, nil
}

// Join seats connID in the room. Joining again under a new name renames the
// player. Late joins are refused once a round has started.
func (e *Engine) Join(code, connID, name string) (Joined, error) {
	room, err := e.lock(code)
	if err != nil {
		return Joined{}, err
	}
	defer room.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		return Joined{}, ErrEmptyName
	}

	if room.started {
		return Joined{}, fmt.Errorf("room %s: %w", room.code, ErrRoundInProgress)
	}

	if i := room.indexLocked(connID); i >= 0 {
		room.players[i].Name = name
	} else {
		room.players = append(room.players, Player{ID: connID, Name: name})
		e.log.Debug().Str("room", room.code).Str("player", name).Int("players", len(room.players)).Msg("player joined")
	}

	e.broadcastLocked(room)

	return Joined{RoomCode: room.code, HostID: room.hostID}, nil
}

// StartRound draws a word, an impostor and a turn order, then pushes each
// player their secret followed by the new snapshot. It serves both the first
// round and every later one.
func (e *Engine) StartRound(code, connID string) error {
	room, err := e.lock(code)
	if err != nil {
		return err
	}
	defer room.mu.Unlock()

	if connID != room.hostID {
		return fmt.Errorf("room %s: %w", room.code, ErrForbidden)
	}

	if len(room.players) < MinPlayers {
		return fmt.Errorf("room %s has %d players: %w", room.code, len(room.players), ErrInsufficientPlayers)
	}

	ids := room.playerIDsLocked()
	word := pick(e.src, e.words)
	impostorID := pick(e.src, ids)

	room.word = word
	room.impostorID = impostorID
	room.turnOrder = buildTurnOrder(e.src, ids, impostorID)
	room.started = true
	room.round++

	e.log.Info().Str("room", room.code).Int("round", room.round).Int("players", len(ids)).Msg("round started")

	for _, id := range ids {
		e.notify.Notify(id, Event{Type: EventSecret, Data: room.secretLocked(id)})
	}
	e.broadcastLocked(room)

	return nil
}

// NewRound starts another round with the same players.
func (e *Engine) NewRound(code, connID string) error {
	return e.StartRound(code, connID)
}

// buildTurnOrder shuffles ids and, if the impostor lands first, swaps them
// with a uniformly chosen later position.
func buildTurnOrder(src Source, ids []string, impostorID string) []string {
	order := shuffled(src, ids)
	if len(order) < 2 || order[0] != impostorID {
		return order
	}

	swap := 1 + src.Intn(len(order)-1)
	order[0], order[swap] = order[swap], order[0]

	return order
}

// State returns the public snapshot and the caller's own secret, computed
// from the current round.
func (e *Engine) State(code, connID string) (Snapshot, SecretView, error) {
	room, err := e.lock(code)
	if err != nil {
		return Snapshot{}, SecretView{}, err
	}
	defer room.mu.Unlock()

	if room.indexLocked(connID) < 0 {
		return Snapshot{}, SecretView{}, fmt.Errorf("room %s: %w", room.code, ErrNotAMember)
	}

	return room.snapshotLocked(), room.secretLocked(connID), nil
}

// Leave removes connID from the room. The host leaving closes the room for
// everyone. It is a no-op for unknown rooms and non-members.
func (e *Engine) Leave(code, connID string) {
	room, err := e.lock(code)
	if err != nil {
		return
	}
	defer room.mu.Unlock()

	if room.indexLocked(connID) < 0 {
		return
	}

	room.removeLocked(connID)

	if connID == room.hostID {
		room.closed = true
		for _, p := range room.players {
			e.notify.Notify(p.ID, Event{Type: EventRoomClosed})
		}
		e.rooms.remove(room)

		e.log.Info().Str("room", room.code).Int("rounds", room.round).Dur("age", time.Since(room.createdAt)).Msg("host left, room closed")

		return
	}

	// unreachable while the host is a member
	if len(room.players) == 0 {
		room.closed = true
		e.rooms.remove(room)

		return
	}

	// a departed impostor leaves the round running
	e.broadcastLocked(room)
}
