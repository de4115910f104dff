// internal/game/effects.go — tile content to effect dispatch.
package game

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/PirateGame/game-pod/internal/models"
)

// presentAmount is the gift paid out by a resolved Present task.
const presentAmount = 1000

// applyEffects applies the revealed tile to every player whose board holds a
// cell with that id, in the already-shuffled player order. A failed read of a
// player's financial fields aborts the remaining applications for the tick;
// the loop re-arms and the turn is simply shorter than intended rather than
// half-applied.
func (s *Scheduler) applyEffects(ctx context.Context, players []string, tile int) error {
	decision, err := s.store.DecisionTime(ctx, s.room)
	if err != nil {
		return fmt.Errorf("loading decision time: %w", err)
	}
	for i, player := range players {
		board, err := s.store.Board(ctx, s.room, player)
		if err != nil {
			// A missing board is a lobby-phase leftover, not a reason to
			// skip everyone else's effects.
			log.Printf("Room %s: board for %s: %v", s.room, player, err)
			continue
		}
		others := make([]string, 0, len(players)-1)
		others = append(others, players[:i]...)
		others = append(others, players[i+1:]...)

		for _, cell := range board {
			if cell.ID != tile {
				continue
			}
			if err := s.applyTile(ctx, player, cell.Content, others, decision); err != nil {
				return fmt.Errorf("applying %q to %s: %w", cell.Content, player, err)
			}
		}
	}
	return nil
}

// applyTile executes one tile effect for one player. Instant effects mutate
// holdings synchronously; interactive effects enqueue a target-selection
// task at the tail of the room queue.
func (s *Scheduler) applyTile(ctx context.Context, player string, content models.TileContent, others []string, decisionSeconds int) error {
	switch content {
	case models.TileGold200:
		return s.awardGold(ctx, player, 200)
	case models.TileGold1000:
		return s.awardGold(ctx, player, 1000)
	case models.TileGold3000:
		return s.awardGold(ctx, player, 3000)
	case models.TileGold5000:
		return s.awardGold(ctx, player, 5000)

	case models.TileDouble:
		money, err := s.store.Money(ctx, s.room, player)
		if err != nil {
			return err
		}
		if err := s.store.SetMoney(ctx, s.room, player, money*2); err != nil {
			return err
		}
		s.notify(ctx, player, "You Doubled your stash")
		return nil

	case models.TileBomb:
		if err := s.store.SetMoney(ctx, s.room, player, 0); err != nil {
			return err
		}
		s.notify(ctx, player, "You got Bombed! You lost all your stash")
		return nil

	case models.TileBank:
		money, err := s.store.Money(ctx, s.room, player)
		if err != nil {
			return err
		}
		bank, err := s.store.Bank(ctx, s.room, player)
		if err != nil {
			return err
		}
		if err := s.store.SetMoney(ctx, s.room, player, 0); err != nil {
			return err
		}
		if err := s.store.SetBank(ctx, s.room, player, bank+money); err != nil {
			return err
		}
		s.notify(ctx, player, "Your stash has been saved to the chest.")
		return nil

	case models.TileShield:
		shields, err := s.store.Shields(ctx, s.room, player)
		if err != nil {
			return err
		}
		if err := s.store.SetShields(ctx, s.room, player, shields+1); err != nil {
			return err
		}
		s.notify(ctx, player, "You got a Shield")
		return nil

	case models.TileMirror:
		mirrors, err := s.store.Mirrors(ctx, s.room, player)
		if err != nil {
			return err
		}
		if err := s.store.SetMirrors(ctx, s.room, player, mirrors+1); err != nil {
			return err
		}
		s.notify(ctx, player, "You got a mirror")
		return nil

	case models.TileSteal:
		s.notify(ctx, player, "You get to steal from someone this turn")
		return s.enqueueTask(ctx, models.TaskSteal, player, "Who do you want to steal from?", others, decisionSeconds)

	case models.TileKill:
		s.notify(ctx, player, "You get to kill someone this turn")
		return s.enqueueTask(ctx, models.TaskKill, player, "Who do you want to kill?", others, decisionSeconds)

	case models.TileSwap:
		s.notify(ctx, player, "You get to swap with someone this turn")
		return s.enqueueTask(ctx, models.TaskSwap, player, "Who do you want to swap with?", others, decisionSeconds)

	case models.TilePresent:
		s.notify(ctx, player, "You get to give a present someone this turn")
		return s.enqueueTask(ctx, models.TaskPresent, player, "Who do you want to give a present to?", others, decisionSeconds)

	case models.TileChooseNextTile:
		remaining, err := s.store.TilesRemaining(ctx, s.room)
		if err != nil {
			return err
		}
		options := make([]string, len(remaining))
		for i, id := range remaining {
			options[i] = strconv.Itoa(id)
		}
		s.notify(ctx, player, "You get to choose the next tile")
		return s.enqueueTask(ctx, models.TaskChooseNextTile, player, "Which tile do you want next?", options, decisionSeconds)

	case models.TileTeamKill:
		// Recognized but never shipped; notice only.
		s.notify(ctx, player, "Skull and cross bones not implemented")
		return nil

	default:
		log.Printf("Room %s: unknown tile content %q on %s's board.", s.room, content, player)
		return nil
	}
}

// awardGold credits a fixed reward tier and sends the private notice.
func (s *Scheduler) awardGold(ctx context.Context, player string, amount int) error {
	money, err := s.store.Money(ctx, s.room, player)
	if err != nil {
		return err
	}
	if err := s.store.SetMoney(ctx, s.room, player, money+amount); err != nil {
		return err
	}
	s.notify(ctx, player, fmt.Sprintf("You got %d Gold Coins", amount))
	return nil
}

// enqueueTask appends a fresh target-selection task to the tail of the room
// queue. For player-targeting kinds the options are every other player in
// turn order; ChooseNextTile passes the stringified undrawn tile ids.
func (s *Scheduler) enqueueTask(ctx context.Context, kind models.TaskKind, initiator, title string, options []string, decisionSeconds int) error {
	if len(options) == 0 {
		// A lone player cannot target anyone; nothing to queue.
		log.Printf("Room %s: no options for %s task by %s, skipping.", s.room, kind, initiator)
		return nil
	}
	task := models.Task{
		Phase:     models.PhaseTargetSelect,
		Kind:      kind,
		Initiator: initiator,
		Responder: initiator,
		Title:     title,
		Options:   options,
		Deadline:  s.deadline(time.Duration(decisionSeconds) * time.Second),
	}
	queue, err := s.store.Queue(ctx, s.room)
	if err != nil {
		return err
	}
	return s.store.SetQueue(ctx, s.room, append(queue, task))
}

// notify sends a private one-line notice to a player.
func (s *Scheduler) notify(ctx context.Context, player, title string) {
	s.bc.ToPlayer(ctx, s.room, player, EventNotice, NoticePayload{Title: title})
}
