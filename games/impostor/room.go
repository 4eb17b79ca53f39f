package impostor

import (
	"sync"
	"time"
)

// Player is one connection seated in a room.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Room holds one game session. All fields are guarded by mu.
type Room struct {
	mu sync.Mutex

	code      string
	hostID    string
	players   []Player // insertion order; this is the shuffle pool
	createdAt time.Time

	started    bool
	round      int
	word       string
	impostorID string
	turnOrder  []string

	// set once the room has been torn down, so callers that looked it up
	// before deletion see it as gone
	closed bool
}

func newRoom(code, hostID, hostName string) *Room {
	return &Room{
		code:      code,
		hostID:    hostID,
		players:   []Player{{ID: hostID, Name: hostName}},
		createdAt: time.Now(),
	}
}

// Code is immutable, so it is safe to read without the lock.
func (r *Room) Code() string {
	return r.code
}

func (r *Room) indexLocked(id string) int {
	for i, p := range r.players {
		if p.ID == id {
			return i
		}
	}

	return -1
}

func (r *Room) playerIDsLocked() []string {
	ids := make([]string, 0, len(r.players))
	for _, p := range r.players {
		ids = append(ids, p.ID)
	}

	return ids
}

func (r *Room) removeLocked(id string) {
	dst := r.players[:0]
	for _, p := range r.players {
		if p.ID != id {
			dst = append(dst, p)
		}
	}
	r.players = dst

	order := r.turnOrder[:0]
	for _, pid := range r.turnOrder {
		if pid != id {
			order = append(order, pid)
		}
	}
	r.turnOrder = order
}

// Snapshot is the public view of a room. It never carries the word or the
// impostor.
type Snapshot struct {
	Code       string   `json:"code"`
	HostID     string   `json:"hostId"`
	Started    bool     `json:"started"`
	WordChosen bool     `json:"wordChosen"`
	Round      int      `json:"round"`
	Players    []Player `json:"players"`
	TurnOrder  []Player `json:"turnOrder"`
}

// SecretView is what a single connection is allowed to know about the round.
type SecretView struct {
	Started    bool    `json:"started"`
	IsImpostor bool    `json:"isImpostor"`
	Word       *string `json:"word"`
}

func (r *Room) snapshotLocked() Snapshot {
	players := make([]Player, len(r.players))
	copy(players, r.players)

	names := make(map[string]string, len(r.players))
	for _, p := range r.players {
		names[p.ID] = p.Name
	}

	order := make([]Player, 0, len(r.turnOrder))
	for _, id := range r.turnOrder {
		name, ok := names[id]
		if !ok {
			name = "?"
		}
		order = append(order, Player{ID: id, Name: name})
	}

	return Snapshot{
		Code:       r.code,
		HostID:     r.hostID,
		Started:    r.started,
		WordChosen: r.word != "",
		Round:      r.round,
		Players:    players,
		TurnOrder:  order,
	}
}

func (r *Room) secretLocked(id string) SecretView {
	if !r.started {
		return SecretView{}
	}

	if id == r.impostorID {
		return SecretView{Started: true, IsImpostor: true}
	}

	word := r.word

	return SecretView{Started: true, Word: &word}
}
