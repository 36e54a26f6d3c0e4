package conversation

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/multilingual-assistant/internal/model"
	"github.com/capitalize-ai/multilingual-assistant/pkg/metrics"
)

func TestStateAppendKeepsOrder(t *testing.T) {
	s := NewState()
	a := s.Append(model.RoleUser, "one")
	b := s.Append(model.RoleAssistant, "two")
	c := s.Append(model.RoleSystem, "three")

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 0, a.Index)
	assert.Equal(t, 2, c.Index)
	assert.Equal(t, 0, a.Seq)
	assert.Equal(t, 2, c.Seq)
	assert.Equal(t, 3, s.NextSeq())

	turns := s.Snapshot()
	require.Len(t, turns, 3)
	assert.Equal(t, "one", turns[0].Content)
	assert.Equal(t, "two", turns[1].Content)
	assert.Equal(t, "three", turns[2].Content)
	assert.Equal(t, model.RoleSystem, turns[2].Role)
}

func TestStateSnapshotIsACopy(t *testing.T) {
	s := NewState()
	s.Append(model.RoleUser, "original")

	turns := s.Snapshot()
	turns[0].Content = "mutated"

	assert.Equal(t, "original", s.Snapshot()[0].Content)
}

func TestStateRemove(t *testing.T) {
	s := NewState()
	s.Append(model.RoleUser, "keep")
	transient := s.Append(model.RoleSystem, "Listening... Speak now.")
	s.Append(model.RoleAssistant, "after")

	assert.True(t, s.Remove(transient.ID))
	assert.False(t, s.Remove(transient.ID))

	turns := s.Snapshot()
	require.Len(t, turns, 2)
	assert.Equal(t, "after", turns[1].Content)
	assert.Equal(t, 1, turns[1].Index)
}

func TestStateRecentAndSince(t *testing.T) {
	s := NewState()
	for _, c := range []string{"a", "b", "c", "d"} {
		s.Append(model.RoleUser, c)
	}

	recent := s.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "c", recent[0].Content)
	assert.Equal(t, 2, recent[0].Index)

	assert.Len(t, s.Recent(0), 4)
	assert.Len(t, s.Recent(10), 4)
	assert.Len(t, s.Since(3), 1)
	assert.Empty(t, s.Since(4))
	assert.Len(t, s.Since(-1), 4)

	last, ok := s.Last()
	require.True(t, ok)
	assert.Equal(t, "d", last.Content)
	assert.Equal(t, 3, last.Index)
}

func TestStateSinceSurvivesRemoval(t *testing.T) {
	s := NewState()
	listening := s.Append(model.RoleSystem, "Listening... Speak now.")

	polled := s.Since(0)
	require.Len(t, polled, 1)
	cursor := polled[len(polled)-1].Seq + 1

	s.Remove(listening.ID)
	user := s.Append(model.RoleUser, "hello there")
	s.Append(model.RoleAssistant, "answer")

	assert.Equal(t, 0, user.Index)
	assert.Equal(t, 1, user.Seq)

	next := s.Since(cursor)
	require.Len(t, next, 2)
	assert.Equal(t, "hello there", next[0].Content)
	assert.Equal(t, 0, next[0].Index)
	assert.Equal(t, "answer", next[1].Content)
	assert.Equal(t, 3, s.NextSeq())
}

func TestStateSubscribeCountsDrops(t *testing.T) {
	s := NewState()
	_, cancel := s.Subscribe(1)
	defer cancel()

	before := testutil.ToFloat64(metrics.TurnEventsDropped)
	s.Append(model.RoleUser, "fits")
	s.Append(model.RoleUser, "dropped")
	s.Append(model.RoleUser, "dropped too")

	assert.Equal(t, before+2, testutil.ToFloat64(metrics.TurnEventsDropped))
}

func TestStateSubscribe(t *testing.T) {
	s := NewState()
	events, cancel := s.Subscribe(4)

	turn := s.Append(model.RoleUser, "hello")
	s.Remove(turn.ID)

	ev := <-events
	assert.Equal(t, model.TurnAppended, ev.Type)
	assert.Equal(t, "hello", ev.Turn.Content)

	ev = <-events
	assert.Equal(t, model.TurnRemoved, ev.Type)

	cancel()
	cancel()
	_, open := <-events
	assert.False(t, open)

	s.Append(model.RoleUser, "after cancel")
}

func TestDocumentsRemoveByName(t *testing.T) {
	d := NewDocuments()
	d.Put(model.Document{Name: "a.txt", Content: "A"})
	d.Put(model.Document{Name: "b.txt", Content: "B"})
	d.Put(model.Document{Name: "c.txt", Content: "C"})

	assert.Equal(t, 1, d.Remove("b.txt"))
	assert.Equal(t, 0, d.Remove("missing.txt"))

	docs := d.List()
	require.Len(t, docs, 2)
	assert.Equal(t, "a.txt", docs[0].Name)
	assert.Equal(t, "c.txt", docs[1].Name)
}

func TestDocumentsPutReplacesSameName(t *testing.T) {
	d := NewDocuments()
	assert.False(t, d.Put(model.Document{Name: "a.txt", Content: "v1"}))
	d.Put(model.Document{Name: "b.txt", Content: "B"})
	assert.True(t, d.Put(model.Document{Name: "a.txt", Content: "v2"}))

	docs := d.List()
	require.Len(t, docs, 2)
	assert.Equal(t, "b.txt", docs[0].Name)
	assert.Equal(t, "v2", docs[1].Content)
	assert.Equal(t, 2, d.Len())
}
