// internal/game/tasks.go — head-of-queue task state machine.
//
// A task moves NotEmitted -> Emitted(awaiting) -> Resolved, or is re-built
// and pushed back to the FRONT of the queue when the interaction has another
// step (target selected, mirror reflected). The front push pre-empts every
// other queued task, so a multi-step interaction runs to completion before
// the next one begins.
package game

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/PirateGame/game-pod/internal/models"
)

// resolveTask evaluates the popped head task. rest is the remainder of the
// queue, already persisted. Returns the backoff before the next tick.
func (s *Scheduler) resolveTask(ctx context.Context, task models.Task, rest []models.Task) (time.Duration, error) {
	if !task.Valid() {
		// Known gap carried from the source behavior: no dead-letter, the
		// malformed task is simply gone.
		log.Printf("Room %s: dropping malformed task %+v", s.room, task)
		return s.tickEvery, nil
	}

	decisionSeconds, err := s.store.DecisionTime(ctx, s.room)
	if err != nil {
		return 0, fmt.Errorf("loading decision time: %w", err)
	}
	decision := time.Duration(decisionSeconds) * time.Second

	switch {
	case !task.Emitted:
		return s.emitTask(ctx, task, rest, decision)

	case task.Response != "":
		return s.resolveResponse(ctx, task, rest, decision)

	case s.now().UnixMilli() > task.Deadline:
		// Decision window missed: substitute a uniform pick and treat it
		// exactly like a player-supplied response on the next (fast) tick.
		task.Response = task.Options[s.rng.Intn(len(task.Options))]
		s.notify(ctx, task.Responder, "you didn't answer the question in time")
		if err := s.pushFront(ctx, task, rest); err != nil {
			return 0, err
		}
		return s.fastRetry, nil

	default:
		// Still awaiting an answer.
		if err := s.pushFront(ctx, task, rest); err != nil {
			return 0, err
		}
		return s.tickEvery, nil
	}
}

// emitTask hands the pending question to its responder. Synthetic players
// answer immediately with a uniform pick and a short deadline standing in
// for decision latency; humans get a private question prompt and the full
// decision window.
func (s *Scheduler) emitTask(ctx context.Context, task models.Task, rest []models.Task, decision time.Duration) (time.Duration, error) {
	synthetic, err := s.store.IsAI(ctx, s.room, task.Responder)
	if err != nil {
		return 0, fmt.Errorf("looking up responder %s: %w", task.Responder, err)
	}

	task.Emitted = true
	if synthetic {
		task.Response = task.Options[s.rng.Intn(len(task.Options))]
		task.Deadline = s.deadline(aiDecisionDelay)
	} else {
		s.bc.ToPlayer(ctx, s.room, task.Responder, EventQuestion, QuestionPayload{
			Title:   task.Title,
			Options: task.Options,
		})
		task.Deadline = s.deadline(decision)
	}

	if err := s.pushFront(ctx, task, rest); err != nil {
		return 0, err
	}
	return s.tickEvery, nil
}

// resolveResponse applies an answered task according to its phase.
func (s *Scheduler) resolveResponse(ctx context.Context, task models.Task, rest []models.Task, decision time.Duration) (time.Duration, error) {
	switch task.Phase {
	case models.PhaseTargetSelect:
		switch task.Kind {
		case models.TaskPresent:
			return s.tickEvery, s.resolvePresent(ctx, task)
		case models.TaskChooseNextTile:
			return s.tickEvery, s.resolveChooseNextTile(ctx, task)
		default:
			return s.tickEvery, s.selectTarget(ctx, task, rest, decision)
		}

	case models.PhaseThreatResponse:
		switch task.Response {
		case models.OptionDoNothing:
			return s.tickEvery, s.resolveEffect(ctx, task)
		case models.OptionShield:
			return s.tickEvery, s.resolveShield(ctx, task)
		case models.OptionMirror:
			return s.tickEvery, s.resolveMirror(ctx, task, rest, decision)
		default:
			// Options are server-built, so this can only come from a
			// tampered client. Drop the task rather than guess.
			log.Printf("Room %s: unexpected threat response %q from %s, dropping task.", s.room, task.Response, task.Responder)
			return s.tickEvery, nil
		}

	default:
		log.Printf("Room %s: task in unknown phase %q, dropping.", s.room, task.Phase)
		return s.tickEvery, nil
	}
}

// selectTarget fixes the target from the initiator's answer and pre-empts the
// queue with the threat-response question for that target.
func (s *Scheduler) selectTarget(ctx context.Context, task models.Task, rest []models.Task, decision time.Duration) error {
	task.Target = task.Response

	switch task.Kind {
	case models.TaskSteal:
		s.notify(ctx, task.Target, fmt.Sprintf("%s is trying to rob you!", task.Initiator))
	case models.TaskKill:
		s.notify(ctx, task.Target, fmt.Sprintf("%s is trying to kill you!", task.Initiator))
	case models.TaskSwap:
		s.notify(ctx, task.Target, fmt.Sprintf("%s is trying to swap with you!", task.Initiator))
	}

	options, err := s.defenseOptions(ctx, task.Target)
	if err != nil {
		return err
	}
	followUp := models.Task{
		Phase:     models.PhaseThreatResponse,
		Kind:      task.Kind,
		Initiator: task.Initiator,
		Target:    task.Target,
		Responder: task.Target,
		Title:     "How are you going to respond to this?",
		Options:   options,
		Deadline:  s.deadline(decision),
		Mirrored:  task.Mirrored,
	}
	return s.pushFront(ctx, followUp, rest)
}

// resolveEffect performs the pending hostile effect. Direction follows the
// mirror parity: even means the target suffers as originally intended, odd
// means the effect has been reflected onto the initiator.
func (s *Scheduler) resolveEffect(ctx context.Context, task models.Task) error {
	loser := task.Threatened()
	winner := task.Threatener()

	switch task.Kind {
	case models.TaskSteal:
		winnerMoney, err := s.store.Money(ctx, s.room, winner)
		if err != nil {
			return err
		}
		loserMoney, err := s.store.Money(ctx, s.room, loser)
		if err != nil {
			return err
		}
		if err := s.store.SetMoney(ctx, s.room, winner, winnerMoney+loserMoney); err != nil {
			return err
		}
		if err := s.store.SetMoney(ctx, s.room, loser, 0); err != nil {
			return err
		}
		s.notify(ctx, winner, fmt.Sprintf("You robbed %s", loser))
		s.notify(ctx, loser, fmt.Sprintf("You were robbed by %s", winner))

	case models.TaskKill:
		if err := s.store.SetMoney(ctx, s.room, loser, 0); err != nil {
			return err
		}
		s.notify(ctx, winner, fmt.Sprintf("You killed %s", loser))
		s.notify(ctx, loser, fmt.Sprintf("You were killed by %s", winner))

	case models.TaskSwap:
		// Swap is symmetric; parity only changes who is credited with it.
		initiatorMoney, err := s.store.Money(ctx, s.room, task.Initiator)
		if err != nil {
			return err
		}
		targetMoney, err := s.store.Money(ctx, s.room, task.Target)
		if err != nil {
			return err
		}
		if err := s.store.SetMoney(ctx, s.room, task.Initiator, targetMoney); err != nil {
			return err
		}
		if err := s.store.SetMoney(ctx, s.room, task.Target, initiatorMoney); err != nil {
			return err
		}
		s.notify(ctx, task.Initiator, fmt.Sprintf("You swapped with %s", task.Target))
		s.notify(ctx, task.Target, fmt.Sprintf("You swapped with %s", task.Initiator))

	default:
		log.Printf("Room %s: %s task reached effect resolution, dropping.", s.room, task.Kind)
		return nil
	}

	s.recordResolvedTask(task)
	return nil
}

// resolveShield spends one shield charge from the threatened side and blocks
// the effect entirely.
func (s *Scheduler) resolveShield(ctx context.Context, task models.Task) error {
	blocker := task.Threatened()
	attacker := task.Threatener()

	shields, err := s.store.Shields(ctx, s.room, blocker)
	if err != nil {
		return err
	}
	if shields > 0 {
		shields--
	}
	if err := s.store.SetShields(ctx, s.room, blocker, shields); err != nil {
		return err
	}

	s.notify(ctx, blocker, fmt.Sprintf("You used a shield to block %s", attacker))
	s.notify(ctx, attacker, fmt.Sprintf("%s blocked the attack with a shield", blocker))
	s.recordResolvedTask(task)
	return nil
}

// resolveMirror spends one mirror charge from the currently-threatened side
// and inverts the roles: the pending effect now bears on the other player,
// who gets their own chance to respond. Each reflection burns a finite
// charge, so the chain always terminates.
func (s *Scheduler) resolveMirror(ctx context.Context, task models.Task, rest []models.Task, decision time.Duration) error {
	reflector := task.Threatened() // Pre-increment parity.
	task.Mirrored++
	newDefender := task.Threatened() // Roles inverted.

	mirrors, err := s.store.Mirrors(ctx, s.room, reflector)
	if err != nil {
		return err
	}
	if mirrors > 0 {
		mirrors--
	}
	if err := s.store.SetMirrors(ctx, s.room, reflector, mirrors); err != nil {
		return err
	}

	s.notify(ctx, reflector, fmt.Sprintf("You used a mirror to reflect %s", newDefender))
	s.notify(ctx, newDefender, fmt.Sprintf("%s reflected the attack back at you with a mirror", reflector))

	options, err := s.defenseOptions(ctx, newDefender)
	if err != nil {
		return err
	}
	followUp := models.Task{
		Phase:     models.PhaseThreatResponse,
		Kind:      task.Kind,
		Initiator: task.Initiator,
		Target:    task.Target,
		Responder: newDefender,
		Title:     "How are you going to respond to this?",
		Options:   options,
		Deadline:  s.deadline(decision),
		Mirrored:  task.Mirrored,
	}
	return s.pushFront(ctx, followUp, rest)
}

// resolvePresent credits the chosen recipient and finishes.
func (s *Scheduler) resolvePresent(ctx context.Context, task models.Task) error {
	recipient := task.Response
	money, err := s.store.Money(ctx, s.room, recipient)
	if err != nil {
		return err
	}
	if err := s.store.SetMoney(ctx, s.room, recipient, money+presentAmount); err != nil {
		return err
	}
	s.notify(ctx, task.Initiator, fmt.Sprintf("You gave a present to %s", recipient))
	s.notify(ctx, recipient, fmt.Sprintf("You got a present from %s", task.Initiator))
	s.recordResolvedTask(task)
	return nil
}

// resolveChooseNextTile moves the chosen tile id from the undrawn pool into
// the forced tile queue; the two sets stay disjoint. The choice is checked
// against the live pool: tasks queued in the same turn offer options from
// the same snapshot, so a second chooser can name a tile the first already
// claimed. A stale choice is dropped rather than forcing a duplicate draw.
func (s *Scheduler) resolveChooseNextTile(ctx context.Context, task models.Task) error {
	tile, err := strconv.Atoi(task.Response)
	if err != nil {
		log.Printf("Room %s: non-numeric tile choice %q from %s, dropping.", s.room, task.Response, task.Responder)
		return nil
	}

	remaining, err := s.store.TilesRemaining(ctx, s.room)
	if err != nil {
		return err
	}
	idx := -1
	for i, id := range remaining {
		if id == tile {
			idx = i
			break
		}
	}
	if idx < 0 {
		log.Printf("Room %s: tile %d chosen by %s is no longer undrawn, dropping.", s.room, tile, task.Responder)
		s.notify(ctx, task.Responder, "That tile has already been claimed")
		return nil
	}
	remaining = append(remaining[:idx], remaining[idx+1:]...)
	if err := s.store.SetTilesRemaining(ctx, s.room, remaining); err != nil {
		return err
	}

	forced, err := s.store.TileQueue(ctx, s.room)
	if err != nil {
		return err
	}
	if err := s.store.SetTileQueue(ctx, s.room, append(forced, tile)); err != nil {
		return err
	}
	s.recordResolvedTask(task)
	return nil
}

// defenseOptions builds the threat-response choices for a defender: Do
// Nothing always, Mirror and Shield only while charges remain.
func (s *Scheduler) defenseOptions(ctx context.Context, defender string) ([]string, error) {
	mirrors, err := s.store.Mirrors(ctx, s.room, defender)
	if err != nil {
		return nil, err
	}
	shields, err := s.store.Shields(ctx, s.room, defender)
	if err != nil {
		return nil, err
	}
	options := []string{models.OptionDoNothing}
	if mirrors > 0 {
		options = append(options, models.OptionMirror)
	}
	if shields > 0 {
		options = append(options, models.OptionShield)
	}
	return options, nil
}

// pushFront re-inserts a task at the head of the queue ahead of rest.
func (s *Scheduler) pushFront(ctx context.Context, task models.Task, rest []models.Task) error {
	queue := make([]models.Task, 0, len(rest)+1)
	queue = append(queue, task)
	queue = append(queue, rest...)
	return s.store.SetQueue(ctx, s.room, queue)
}

// recordResolvedTask ships a finished task to the action recorder.
func (s *Scheduler) recordResolvedTask(task models.Task) {
	s.recordAsync(func(ctx context.Context) error {
		return s.recorder.RecordTask(ctx, s.room, task)
	})
}
