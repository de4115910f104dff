// internal/game/scores_test.go
package game

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PirateGame/game-pod/internal/models"
)

// chanRecorder delivers records onto channels so a test can wait for the
// asynchronous publish without sleeping.
type chanRecorder struct {
	turns chan map[string]int
	tasks chan models.Task
}

func newChanRecorder() *chanRecorder {
	return &chanRecorder{
		turns: make(chan map[string]int, 8),
		tasks: make(chan models.Task, 8),
	}
}

func (c *chanRecorder) RecordTurn(ctx context.Context, room string, turn int, scores map[string]int) error {
	c.turns <- scores
	return nil
}

func (c *chanRecorder) RecordTask(ctx context.Context, room string, task models.Task) error {
	c.tasks <- task
	return nil
}

func TestSnapshotInitializesMissingHistory(t *testing.T) {
	store := newFakeStore()
	room := setupRoom(store, "r", 2, 2, "alice", "bob")
	store.players["r"]["alice"].money = 100
	store.players["r"]["bob"].bank = 250

	s, _ := newTestScheduler("r", store, newMockBroadcaster(), 1)
	require.Nil(t, room.history)

	require.NoError(t, s.snapshotScores(context.Background(), 3, []string{"alice", "bob"}))
	require.NotNil(t, room.history)
	assert.Equal(t, map[string]int{"alice": 100, "bob": 250}, room.history[3])
}

func TestSnapshotPublishesToRecorder(t *testing.T) {
	store := newFakeStore()
	setupRoom(store, "r", 2, 2, "alice")
	store.players["r"]["alice"].money = 640

	rec := newChanRecorder()
	s, _ := newTestScheduler("r", store, newMockBroadcaster(), 1)
	s.recorder = rec

	require.NoError(t, s.snapshotScores(context.Background(), 1, []string{"alice"}))
	select {
	case scores := <-rec.turns:
		assert.Equal(t, map[string]int{"alice": 640}, scores)
	case <-time.After(time.Second):
		t.Fatal("turn record never published")
	}
}

func TestResolvedTaskPublishesToRecorder(t *testing.T) {
	store := newFakeStore()
	room := setupRoom(store, "r", 2, 2, "alice", "bob")
	store.players["r"]["bob"].money = 300

	rec := newChanRecorder()
	s, clock := newTestScheduler("r", store, newMockBroadcaster(), 1)
	s.recorder = rec

	room.queue = []models.Task{threatTask(clock, models.TaskSteal, "alice", "bob", "bob", models.OptionDoNothing, 0)}
	_, done := s.Tick(context.Background())
	require.False(t, done)

	select {
	case task := <-rec.tasks:
		assert.Equal(t, models.TaskSteal, task.Kind)
		assert.Equal(t, "bob", task.Target)
	case <-time.After(time.Second):
		t.Fatal("task record never published")
	}
}

func TestSnapshotAbortsOnMissingFinancials(t *testing.T) {
	store := newFakeStore()
	room := setupRoom(store, "r", 2, 2, "alice")

	s, _ := newTestScheduler("r", store, newMockBroadcaster(), 1)
	err := s.snapshotScores(context.Background(), 1, []string{"alice", "ghost"})
	require.Error(t, err)
	assert.Nil(t, room.history, "a failed snapshot must not write a partial row")
}
