// internal/game/effects_test.go — tile effect dispatch.
package game

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PirateGame/game-pod/internal/models"
)

func TestInstantTileEffects(t *testing.T) {
	tests := []struct {
		name    string
		content models.TileContent
		before  fakePlayer
		after   fakePlayer
		notice  string
	}{
		{
			name:    "gold 200",
			content: models.TileGold200,
			before:  fakePlayer{money: 100},
			after:   fakePlayer{money: 300},
			notice:  "You got 200 Gold Coins",
		},
		{
			name:    "gold 1000",
			content: models.TileGold1000,
			before:  fakePlayer{money: 100},
			after:   fakePlayer{money: 1100},
			notice:  "You got 1000 Gold Coins",
		},
		{
			name:    "gold 3000",
			content: models.TileGold3000,
			after:   fakePlayer{money: 3000},
			notice:  "You got 3000 Gold Coins",
		},
		{
			name:    "gold 5000",
			content: models.TileGold5000,
			after:   fakePlayer{money: 5000},
			notice:  "You got 5000 Gold Coins",
		},
		{
			name:    "double",
			content: models.TileDouble,
			before:  fakePlayer{money: 450},
			after:   fakePlayer{money: 900},
			notice:  "You Doubled your stash",
		},
		{
			name:    "double of nothing",
			content: models.TileDouble,
			after:   fakePlayer{money: 0},
			notice:  "You Doubled your stash",
		},
		{
			name:    "bomb",
			content: models.TileBomb,
			before:  fakePlayer{money: 900, bank: 300},
			after:   fakePlayer{money: 0, bank: 300},
			notice:  "You got Bombed! You lost all your stash",
		},
		{
			name:    "bank",
			content: models.TileBank,
			before:  fakePlayer{money: 900, bank: 300},
			after:   fakePlayer{money: 0, bank: 1200},
			notice:  "Your stash has been saved to the chest.",
		},
		{
			name:    "shield",
			content: models.TileShield,
			before:  fakePlayer{shields: 1},
			after:   fakePlayer{shields: 2},
			notice:  "You got a Shield",
		},
		{
			name:    "mirror",
			content: models.TileMirror,
			after:   fakePlayer{mirrors: 1},
			notice:  "You got a mirror",
		},
		{
			name:    "team kill is notice only",
			content: models.TileTeamKill,
			before:  fakePlayer{money: 800},
			after:   fakePlayer{money: 800},
			notice:  "Skull and cross bones not implemented",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			room := setupRoom(store, "r", 3, 3, "alice", "bob")
			*store.players["r"]["alice"] = tt.before

			bc := newMockBroadcaster()
			s, _ := newTestScheduler("r", store, bc, 1)

			err := s.applyTile(context.Background(), "alice", tt.content, []string{"bob"}, room.decision)
			require.NoError(t, err)

			got := store.players["r"]["alice"]
			assert.Equal(t, tt.after.money, got.money)
			assert.Equal(t, tt.after.bank, got.bank)
			assert.Equal(t, tt.after.shields, got.shields)
			assert.Equal(t, tt.after.mirrors, got.mirrors)
			assert.Equal(t, tt.notice, bc.lastNotice("alice"))
			assert.Empty(t, room.queue, "instant effects must not enqueue tasks")
		})
	}
}

func TestInteractiveTilesEnqueueTargetSelection(t *testing.T) {
	tests := []struct {
		content models.TileContent
		kind    models.TaskKind
		title   string
		notice  string
	}{
		{models.TileSteal, models.TaskSteal, "Who do you want to steal from?", "You get to steal from someone this turn"},
		{models.TileKill, models.TaskKill, "Who do you want to kill?", "You get to kill someone this turn"},
		{models.TileSwap, models.TaskSwap, "Who do you want to swap with?", "You get to swap with someone this turn"},
		{models.TilePresent, models.TaskPresent, "Who do you want to give a present to?", "You get to give a present someone this turn"},
	}

	for _, tt := range tests {
		t.Run(string(tt.content), func(t *testing.T) {
			store := newFakeStore()
			room := setupRoom(store, "r", 3, 3, "alice", "bob", "carol")

			bc := newMockBroadcaster()
			s, _ := newTestScheduler("r", store, bc, 1)

			err := s.applyTile(context.Background(), "alice", tt.content, []string{"bob", "carol"}, room.decision)
			require.NoError(t, err)

			require.Len(t, room.queue, 1)
			task := room.queue[0]
			assert.Equal(t, models.PhaseTargetSelect, task.Phase)
			assert.Equal(t, tt.kind, task.Kind)
			assert.Equal(t, "alice", task.Initiator)
			assert.Equal(t, "alice", task.Responder)
			assert.Equal(t, tt.title, task.Title)
			assert.Equal(t, []string{"bob", "carol"}, task.Options)
			assert.False(t, task.Emitted)
			assert.NotZero(t, task.Deadline)
			assert.Equal(t, tt.notice, bc.lastNotice("alice"))
		})
	}
}

func TestChooseNextTileOffersUndrawnTiles(t *testing.T) {
	store := newFakeStore()
	room := setupRoom(store, "r", 3, 3, "alice", "bob")
	room.tilesRemaining = []int{2, 7}

	s, _ := newTestScheduler("r", store, newMockBroadcaster(), 1)
	err := s.applyTile(context.Background(), "alice", models.TileChooseNextTile, []string{"bob"}, room.decision)
	require.NoError(t, err)

	require.Len(t, room.queue, 1)
	assert.Equal(t, models.TaskChooseNextTile, room.queue[0].Kind)
	assert.Equal(t, []string{"2", "7"}, room.queue[0].Options)
}

func TestInteractiveTileWithNoTargetsQueuesNothing(t *testing.T) {
	store := newFakeStore()
	room := setupRoom(store, "r", 3, 3, "alice")

	s, _ := newTestScheduler("r", store, newMockBroadcaster(), 1)
	err := s.applyTile(context.Background(), "alice", models.TileSteal, nil, room.decision)
	require.NoError(t, err)
	assert.Empty(t, room.queue)
}

func TestEffectsApplyOnlyToMatchingCells(t *testing.T) {
	store := newFakeStore()
	setupRoom(store, "r", 2, 2, "alice", "bob")
	store.players["r"]["alice"].board = []models.Cell{
		{ID: 0, Content: models.TileGold200},
		{ID: 1, Content: models.TileGold5000},
	}
	store.players["r"]["bob"].board = []models.Cell{
		{ID: 0, Content: models.TileBomb},
		{ID: 1, Content: models.TileGold200},
	}
	store.players["r"]["bob"].money = 400

	s, _ := newTestScheduler("r", store, newMockBroadcaster(), 1)
	err := s.applyEffects(context.Background(), []string{"alice", "bob"}, 1)
	require.NoError(t, err)

	// Only the cells with the revealed id fire.
	assert.Equal(t, 5000, store.players["r"]["alice"].money)
	assert.Equal(t, 600, store.players["r"]["bob"].money)
}

func TestMissingBoardSkipsPlayerNotTurn(t *testing.T) {
	store := newFakeStore()
	setupRoom(store, "r", 2, 2, "alice", "bob")
	store.players["r"]["bob"].board = []models.Cell{{ID: 0, Content: models.TileGold1000}}

	s, _ := newTestScheduler("r", store, newMockBroadcaster(), 1)
	err := s.applyEffects(context.Background(), []string{"alice", "bob"}, 0)
	require.NoError(t, err)
	assert.Equal(t, 1000, store.players["r"]["bob"].money)
}
