// internal/game/scheduler.go — per-room turn loop.
package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/PirateGame/game-pod/internal/models"
)

const (
	// tickInterval is the normal backoff between ticks.
	tickInterval = 5 * time.Second
	// fastInterval re-arms quickly after a forced timeout so the substituted
	// answer resolves without the full backoff.
	fastInterval = 1 * time.Second
	// aiDecisionDelay is the synthetic latency attached to AI answers.
	aiDecisionDelay = 1 * time.Second
	// startGraceDelay lets clients transition screens before the first tick.
	startGraceDelay = 10 * time.Second
)

// Scheduler drives the turn loop for a single room. One instance per room,
// one goroutine per instance; rooms share nothing. Within a room the next
// tick is armed only after the current tick completes, so the room's queue
// and turn state have single-threaded semantics without locks.
type Scheduler struct {
	room     string
	store    Store
	bc       Broadcaster
	recorder ActionRecorder // Optional; nil disables action records.

	rng *rand.Rand
	now func() time.Time

	tickEvery time.Duration
	fastRetry time.Duration
}

// NewScheduler returns a scheduler for the named room.
func NewScheduler(room string, store Store, bc Broadcaster, recorder ActionRecorder) *Scheduler {
	return &Scheduler{
		room:      room,
		store:     store,
		bc:        bc,
		recorder:  recorder,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		now:       time.Now,
		tickEvery: tickInterval,
		fastRetry: fastInterval,
	}
}

// Run executes ticks until the room finishes, disappears, or ctx is canceled.
// The first tick fires after initialDelay.
func (s *Scheduler) Run(ctx context.Context, initialDelay time.Duration) {
	timer := time.NewTimer(initialDelay)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		delay, done := s.Tick(ctx)
		if done {
			log.Printf("Room %s: loop stopped.", s.room)
			return
		}
		timer.Reset(delay)
	}
}

// Tick performs one unit of work: resolve the head task if the queue is
// non-empty, otherwise advance the turn. Returns the delay before the next
// tick and whether the loop should stop re-arming.
//
// Errors inside a tick abort that tick but never the loop; the next tick
// retries against whatever state persisted.
func (s *Scheduler) Tick(ctx context.Context) (time.Duration, bool) {
	players, err := s.store.PlayerNames(ctx, s.room)
	if err != nil {
		log.Printf("Room %s: loading player list: %v", s.room, err)
		// A missing room will not come back; transient errors might.
		return s.tickEvery, errors.Is(err, models.ErrNotFound)
	}
	if len(players) == 0 {
		log.Printf("Room %s: empty player list, assuming room was deleted.", s.room)
		return 0, true
	}
	// Randomize effect-application order once per tick.
	s.rng.Shuffle(len(players), func(i, j int) {
		players[i], players[j] = players[j], players[i]
	})

	queue, err := s.store.Queue(ctx, s.room)
	if err != nil {
		log.Printf("Room %s: loading task queue: %v", s.room, err)
		return s.tickEvery, false
	}

	if len(queue) > 0 {
		head := queue[0]
		rest := queue[1:]
		if err := s.store.SetQueue(ctx, s.room, rest); err != nil {
			log.Printf("Room %s: persisting popped queue: %v", s.room, err)
			return s.tickEvery, false
		}
		delay, err := s.resolveTask(ctx, head, rest)
		if err != nil {
			log.Printf("Room %s: resolving task %s/%s: %v", s.room, head.Kind, head.Phase, err)
			return s.tickEvery, false
		}
		return delay, false
	}

	return s.advanceTurn(ctx, players)
}

// advanceTurn closes the current turn: snapshot scores, bump the turn
// counter, check the cap, draw the next tile, and fan out its effect.
func (s *Scheduler) advanceTurn(ctx context.Context, players []string) (time.Duration, bool) {
	turn, err := s.store.TurnNumber(ctx, s.room)
	if err != nil {
		log.Printf("Room %s: loading turn number: %v", s.room, err)
		return s.tickEvery, false
	}

	// The snapshot is keyed by the turn being closed, so it runs before the
	// increment; the final turn is snapshotted right before the game ends.
	if err := s.snapshotScores(ctx, turn, players); err != nil {
		log.Printf("Room %s: aborting turn %d: %v", s.room, turn, err)
		return s.tickEvery, false
	}

	turn++
	if err := s.store.SetTurnNumber(ctx, s.room, turn); err != nil {
		log.Printf("Room %s: persisting turn number: %v", s.room, err)
		return s.tickEvery, false
	}

	sizeX, sizeY, err := s.store.BoardSize(ctx, s.room)
	if err != nil {
		log.Printf("Room %s: loading board size: %v", s.room, err)
		return s.tickEvery, false
	}
	if turn > sizeX*sizeY+1 {
		s.bc.ToRoom(ctx, s.room, EventNotice, NoticePayload{Title: "Game Over."})
		if err := s.store.SetRoomState(ctx, s.room, models.RoomFinished); err != nil {
			log.Printf("Room %s: persisting finished state: %v", s.room, err)
		}
		log.Printf("Room %s: finished after turn %d.", s.room, turn-1)
		return 0, true
	}

	tile, err := s.drawTile(ctx)
	if err != nil {
		log.Printf("Room %s: drawing tile: %v", s.room, err)
		return s.tickEvery, false
	}
	log.Printf("Room %s: turn %d revealed tile %d.", s.room, turn, tile)

	if err := s.applyEffects(ctx, players, tile); err != nil {
		// Defensive: never partially apply a turn's effects.
		log.Printf("Room %s: aborting effect application for tile %d: %v", s.room, tile, err)
	}
	return s.tickEvery, false
}

// drawTile picks the next revealed tile: the head of the forced tile queue
// when present, otherwise a uniform draw from the undrawn pool. The pool the
// tile came from is persisted before the current tile is.
func (s *Scheduler) drawTile(ctx context.Context) (int, error) {
	forced, err := s.store.TileQueue(ctx, s.room)
	if err != nil {
		return 0, err
	}

	var tile int
	if len(forced) > 0 {
		tile = forced[0]
		if err := s.store.SetTileQueue(ctx, s.room, forced[1:]); err != nil {
			return 0, err
		}
	} else {
		remaining, err := s.store.TilesRemaining(ctx, s.room)
		if err != nil {
			return 0, err
		}
		if len(remaining) == 0 {
			return 0, fmt.Errorf("no tiles remaining")
		}
		idx := s.rng.Intn(len(remaining))
		tile = remaining[idx]
		remaining = append(remaining[:idx], remaining[idx+1:]...)
		if err := s.store.SetTilesRemaining(ctx, s.room, remaining); err != nil {
			return 0, err
		}
	}

	if err := s.store.SetCurrentTile(ctx, s.room, tile); err != nil {
		return 0, err
	}
	return tile, nil
}

// deadline converts a duration from now into the task deadline representation.
func (s *Scheduler) deadline(d time.Duration) int64 {
	return s.now().Add(d).UnixMilli()
}

// recordAsync hands a record to the recorder off the tick path. A slow or
// down recorder must never stall the room loop.
func (s *Scheduler) recordAsync(fn func(ctx context.Context) error) {
	if s.recorder == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := fn(ctx); err != nil {
			log.Printf("Room %s: publishing action record: %v", s.room, err)
		}
	}()
}
