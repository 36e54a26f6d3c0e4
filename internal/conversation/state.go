// Package conversation holds the ordered turn log and the uploaded document set
// of a single conversation.
package conversation

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/capitalize-ai/multilingual-assistant/internal/model"
	"github.com/capitalize-ai/multilingual-assistant/pkg/metrics"
)

// State is the append-only turn log of one conversation.
type State struct {
	mu      sync.RWMutex
	turns   []model.Turn
	nextSeq int

	subs    map[int]chan model.TurnEvent
	nextSub int

	now func() time.Time
}

// NewState creates an empty turn log.
func NewState() *State {
	return &State{
		subs: make(map[int]chan model.TurnEvent),
		now:  time.Now,
	}
}

// Append adds a turn to the end of the log and returns it.
func (s *State) Append(role model.Role, content string) model.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	turn := model.Turn{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Role:      role,
		Content:   content,
		CreatedAt: s.now(),
		Seq:       s.nextSeq,
		Index:     len(s.turns),
	}
	s.nextSeq++
	s.turns = append(s.turns, turn)
	s.publish(model.TurnEvent{Type: model.TurnAppended, Turn: turn})

	return turn
}

// Remove drops the turn with the given id. Only transient turns are removed;
// regular turns stay for the life of the conversation.
func (s *State) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, t := range s.turns {
		if t.ID != id {
			continue
		}
		next := make([]model.Turn, 0, len(s.turns)-1)
		next = append(next, s.turns[:i]...)
		next = append(next, s.turns[i+1:]...)
		s.turns = next
		s.publish(model.TurnEvent{Type: model.TurnRemoved, Turn: t})
		return true
	}
	return false
}

// Len returns the number of turns.
func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// Snapshot returns a copy of the whole log.
func (s *State) Snapshot() []model.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyFrom(0)
}

// Since returns a copy of the turns whose Seq is >= seq.
func (s *State) Since(seq int) []model.Turn {
	turns, _ := s.Page(seq)
	return turns
}

// Page returns the turns whose Seq is >= seq together with the cursor to pass
// on the next call.
func (s *State) Page(seq int) ([]model.Turn, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if seq < 0 {
		seq = 0
	}

	// Removals keep the log ordered by Seq.
	start := sort.Search(len(s.turns), func(i int) bool {
		return s.turns[i].Seq >= seq
	})
	if start >= len(s.turns) {
		return []model.Turn{}, min(seq, s.nextSeq)
	}

	turns := s.copyFrom(start)
	return turns, turns[len(turns)-1].Seq + 1
}

// NextSeq returns the Seq the next appended turn will get.
func (s *State) NextSeq() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextSeq
}

// Recent returns a copy of at most n most recent turns. n <= 0 means all.
func (s *State) Recent(n int) []model.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := 0
	if n > 0 && len(s.turns) > n {
		start = len(s.turns) - n
	}
	return s.copyFrom(start)
}

// Last returns the most recent turn.
func (s *State) Last() (model.Turn, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.turns) == 0 {
		return model.Turn{}, false
	}
	t := s.turns[len(s.turns)-1]
	t.Index = len(s.turns) - 1
	return t, true
}

// Subscribe registers a listener for log changes. Events are dropped, and
// counted, for a listener whose buffer is full. The returned func unregisters the listener.
func (s *State) Subscribe(buffer int) (<-chan model.TurnEvent, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan model.TurnEvent, buffer)
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
}

// copyFrom must be called with s.mu held.
func (s *State) copyFrom(index int) []model.Turn {
	out := make([]model.Turn, len(s.turns)-index)
	copy(out, s.turns[index:])
	for i := range out {
		out[i].Index = index + i
	}
	return out
}

// publish must be called with s.mu held.
func (s *State) publish(ev model.TurnEvent) {
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			metrics.RecordDroppedTurnEvent()
		}
	}
}
