package impostor

import (
	"sync"

	"github.com/stretchr/testify/mock"
)

// --- Source ---

type MockSource struct {
	mock.Mock
}

func (m *MockSource) Intn(n int) int {
	args := m.Called(n)
	return args.Int(0)
}

func (m *MockSource) Shuffle(n int, swap func(i, j int)) {
	m.Called(n, swap)
}

// swaps returns a Run func applying the given swaps to the shuffle target.
func swaps(pairs ...[2]int) func(mock.Arguments) {
	return func(args mock.Arguments) {
		swap := args.Get(1).(func(i, j int))
		for _, p := range pairs {
			swap(p[0], p[1])
		}
	}
}

// sequenceSource replays fixed values for Intn and leaves Shuffle as identity.
type sequenceSource struct {
	values []int
}

func (s *sequenceSource) Intn(n int) int {
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[0]
	s.values = s.values[1:]

	return v % n
}

func (s *sequenceSource) Shuffle(int, func(i, j int)) {}

// --- Notifier ---

type recordedEvent struct {
	to string
	ev Event
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (n *recordingNotifier) Notify(connID string, ev Event) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.events = append(n.events, recordedEvent{to: connID, ev: ev})
}

func (n *recordingNotifier) reset() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.events = nil
}

func (n *recordingNotifier) of(typ string) []recordedEvent {
	n.mu.Lock()
	defer n.mu.Unlock()

	var out []recordedEvent
	for _, e := range n.events {
		if e.ev.Type == typ {
			out = append(out, e)
		}
	}

	return out
}

func (n *recordingNotifier) secrets() map[string]SecretView {
	out := make(map[string]SecretView)
	for _, e := range n.of(EventSecret) {
		out[e.to] = e.ev.Data.(SecretView)
	}

	return out
}
