// internal/game/scores.go — per-turn net-worth snapshots.
package game

import (
	"context"
	"fmt"

	"github.com/PirateGame/game-pod/internal/models"
)

// snapshotScores writes every player's money+bank into the score history
// under the turn being closed. Purely observational: the engine never reads
// the history back. A failed read aborts the snapshot (and the caller's
// tick) so the history never holds a partial row.
func (s *Scheduler) snapshotScores(ctx context.Context, turn int, players []string) error {
	scores := make(map[string]int, len(players))
	for _, player := range players {
		money, err := s.store.Money(ctx, s.room, player)
		if err != nil {
			return fmt.Errorf("score snapshot for %s: %w", player, err)
		}
		bank, err := s.store.Bank(ctx, s.room, player)
		if err != nil {
			return fmt.Errorf("score snapshot for %s: %w", player, err)
		}
		scores[player] = money + bank
	}

	history, err := s.store.ScoreHistory(ctx, s.room)
	if err != nil {
		return fmt.Errorf("loading score history: %w", err)
	}
	if history == nil {
		history = models.ScoreHistory{}
	}
	history[turn] = scores
	if err := s.store.SetScoreHistory(ctx, s.room, history); err != nil {
		return fmt.Errorf("persisting score history: %w", err)
	}

	s.recordAsync(func(ctx context.Context) error {
		return s.recorder.RecordTurn(ctx, s.room, turn, scores)
	})
	return nil
}
