// internal/game/registry.go — room loop lifecycle.
package game

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/PirateGame/game-pod/internal/models"
)

// Registry owns the set of running room loops. It resumes loops for rooms
// that were Active when the process started and launches a loop when a room
// transitions into Active. At most one loop runs per room.
//
// Room loops live for the whole process: they run on the context given at
// construction, never on the context of whichever request triggered them.
type Registry struct {
	baseCtx  context.Context
	store    Store
	bc       Broadcaster
	recorder ActionRecorder

	// StartDelay is the grace period between game start and the first tick,
	// letting clients transition screens.
	StartDelay time.Duration

	mu      sync.Mutex
	running map[string]struct{}
}

// NewRegistry builds a registry. ctx bounds the lifetime of every room loop
// and should only cancel at process shutdown. recorder may be nil.
func NewRegistry(ctx context.Context, store Store, bc Broadcaster, recorder ActionRecorder) *Registry {
	return &Registry{
		baseCtx:    ctx,
		store:      store,
		bc:         bc,
		recorder:   recorder,
		StartDelay: startGraceDelay,
		running:    make(map[string]struct{}),
	}
}

// Resume scans all rooms and relaunches a loop for each one still Active,
// typically after a process restart. Rooms whose state cannot be read are
// skipped, not fatal.
func (r *Registry) Resume(ctx context.Context) error {
	rooms, err := r.store.RoomNames(ctx)
	if err != nil {
		return err
	}
	resumed := 0
	for _, room := range rooms {
		state, err := r.store.RoomState(ctx, room)
		if err != nil {
			log.Printf("Room %s: reading state during resume: %v", room, err)
			continue
		}
		if state != models.RoomActive {
			continue
		}
		if r.launch(room, 0) {
			resumed++
		}
	}
	log.Printf("Registry: resumed %d active room loop(s).", resumed)
	return nil
}

// Start transitions a room into Active play: turn 1, Active state, a start
// event to every socket in the room, and the first tick armed after the
// grace delay. ctx covers only the synchronous store writes; the loop itself
// runs on the registry's base context. A room that already started (or
// finished) is rejected so a repeated trigger cannot reset a game mid-flight.
func (r *Registry) Start(ctx context.Context, room string) error {
	state, err := r.store.RoomState(ctx, room)
	if err != nil {
		return err
	}
	if state == models.RoomActive || state == models.RoomFinished {
		return fmt.Errorf("room %s cannot start from state %s", room, state)
	}
	if err := r.store.SetTurnNumber(ctx, room, 1); err != nil {
		return err
	}
	if err := r.store.SetRoomState(ctx, room, models.RoomActive); err != nil {
		return err
	}
	r.bc.ToRoom(ctx, room, EventGameStart, nil)
	log.Printf("Room %s: started.", room)
	r.launch(room, r.StartDelay)
	return nil
}

// Running reports whether a loop is currently live for the room.
func (r *Registry) Running(room string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.running[room]
	return ok
}

// launch spawns the room's scheduler goroutine unless one is already live.
func (r *Registry) launch(room string, delay time.Duration) bool {
	r.mu.Lock()
	if _, ok := r.running[room]; ok {
		r.mu.Unlock()
		return false
	}
	r.running[room] = struct{}{}
	r.mu.Unlock()

	s := NewScheduler(room, r.store, r.bc, r.recorder)
	go func() {
		defer func() {
			r.mu.Lock()
			delete(r.running, room)
			r.mu.Unlock()
		}()
		s.Run(r.baseCtx, delay)
	}()
	return true
}
