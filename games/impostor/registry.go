package impostor

import (
	"fmt"
	"sync"
)

// Registry maps room codes to live rooms. Its lock only protects the map;
// each Room serializes its own state.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	codes *CodeGenerator
}

func NewRegistry(codes *CodeGenerator) *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
		codes: codes,
	}
}

// Create allocates a fresh code and stores a room with the host as its only
// member.
func (reg *Registry) Create(hostID, hostName string) (*Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	code, err := reg.codes.Generate(func(code string) bool {
		_, exists := reg.rooms[code]
		return exists
	})
	if err != nil {
		return nil, err
	}

	room := newRoom(code, hostID, hostName)
	reg.rooms[code] = room

	return room, nil
}

// Get looks up a room by code, accepting any casing and surrounding space.
func (reg *Registry) Get(code string) (*Room, error) {
	code = NormalizeCode(code)
	if !ValidCode(code) {
		return nil, fmt.Errorf("room %q: %w", code, ErrInvalidCode)
	}

	reg.mu.RLock()
	room, ok := reg.rooms[code]
	reg.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("room %s: %w", code, ErrRoomNotFound)
	}

	return room, nil
}

// Delete removes code if present.
func (reg *Registry) Delete(code string) {
	reg.mu.Lock()
	delete(reg.rooms, NormalizeCode(code))
	reg.mu.Unlock()
}

// remove deletes the entry only while it still points at room.
func (reg *Registry) remove(room *Room) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if reg.rooms[room.code] == room {
		delete(reg.rooms, room.code)
	}
}

func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	return len(reg.rooms)
}
