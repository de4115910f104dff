// internal/database/rooms.go — per-room field accessors.
package database

import (
	"context"

	"github.com/PirateGame/game-pod/internal/models"
)

// RoomNames lists every room name.
func (s *Store) RoomNames(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT name FROM rooms ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// RoomState reads a room's lifecycle state.
func (s *Store) RoomState(ctx context.Context, room string) (models.RoomState, error) {
	state, err := getScalar[int](ctx, s, `SELECT state FROM rooms WHERE name = $1`, room)
	return models.RoomState(state), err
}

// SetRoomState persists a room's lifecycle state.
func (s *Store) SetRoomState(ctx context.Context, room string, state models.RoomState) error {
	return s.exec(ctx, `UPDATE rooms SET state = $1 WHERE name = $2`, int(state), room)
}

// TurnNumber reads the current turn counter.
func (s *Store) TurnNumber(ctx context.Context, room string) (int, error) {
	return getScalar[int](ctx, s, `SELECT turn_number FROM rooms WHERE name = $1`, room)
}

// SetTurnNumber persists the turn counter.
func (s *Store) SetTurnNumber(ctx context.Context, room string, turn int) error {
	return s.exec(ctx, `UPDATE rooms SET turn_number = $1 WHERE name = $2`, turn, room)
}

// BoardSize reads the grid dimensions.
func (s *Store) BoardSize(ctx context.Context, room string) (int, int, error) {
	var sizeX, sizeY int
	err := s.pool.QueryRow(ctx, `SELECT size_x, size_y FROM rooms WHERE name = $1`, room).Scan(&sizeX, &sizeY)
	if err != nil {
		return 0, 0, mapNoRows(err)
	}
	return sizeX, sizeY, nil
}

// DecisionTime reads the per-decision window in seconds.
func (s *Store) DecisionTime(ctx context.Context, room string) (int, error) {
	return getScalar[int](ctx, s, `SELECT decision_time FROM rooms WHERE name = $1`, room)
}

// SetCurrentTile persists the last revealed tile id.
func (s *Store) SetCurrentTile(ctx context.Context, room string, tile int) error {
	return s.exec(ctx, `UPDATE rooms SET current_tile = $1 WHERE name = $2`, tile, room)
}

// CurrentTile reads the last revealed tile id.
func (s *Store) CurrentTile(ctx context.Context, room string) (int, error) {
	return getScalar[int](ctx, s, `SELECT current_tile FROM rooms WHERE name = $1`, room)
}

// Queue reads the room's pending task list.
func (s *Store) Queue(ctx context.Context, room string) ([]models.Task, error) {
	var queue []models.Task
	err := s.getJSON(ctx, `SELECT queue FROM rooms WHERE name = $1`, room, &queue)
	return queue, err
}

// SetQueue rewrites the room's pending task list.
func (s *Store) SetQueue(ctx context.Context, room string, queue []models.Task) error {
	if queue == nil {
		queue = []models.Task{}
	}
	return s.setJSON(ctx, `UPDATE rooms SET queue = $1 WHERE name = $2`, room, queue)
}

// TileQueue reads the forced-next tile list.
func (s *Store) TileQueue(ctx context.Context, room string) ([]int, error) {
	var tiles []int
	err := s.getJSON(ctx, `SELECT tile_queue FROM rooms WHERE name = $1`, room, &tiles)
	return tiles, err
}

// SetTileQueue rewrites the forced-next tile list.
func (s *Store) SetTileQueue(ctx context.Context, room string, tiles []int) error {
	if tiles == nil {
		tiles = []int{}
	}
	return s.setJSON(ctx, `UPDATE rooms SET tile_queue = $1 WHERE name = $2`, room, tiles)
}

// TilesRemaining reads the undrawn tile pool.
func (s *Store) TilesRemaining(ctx context.Context, room string) ([]int, error) {
	var tiles []int
	err := s.getJSON(ctx, `SELECT tiles_remaining FROM rooms WHERE name = $1`, room, &tiles)
	return tiles, err
}

// SetTilesRemaining rewrites the undrawn tile pool.
func (s *Store) SetTilesRemaining(ctx context.Context, room string, tiles []int) error {
	if tiles == nil {
		tiles = []int{}
	}
	return s.setJSON(ctx, `UPDATE rooms SET tiles_remaining = $1 WHERE name = $2`, room, tiles)
}

// ScoreHistory reads the per-turn net-worth snapshots.
func (s *Store) ScoreHistory(ctx context.Context, room string) (models.ScoreHistory, error) {
	var history models.ScoreHistory
	err := s.getJSON(ctx, `SELECT score_history FROM rooms WHERE name = $1`, room, &history)
	return history, err
}

// SetScoreHistory rewrites the per-turn net-worth snapshots.
func (s *Store) SetScoreHistory(ctx context.Context, room string, history models.ScoreHistory) error {
	if history == nil {
		history = models.ScoreHistory{}
	}
	return s.setJSON(ctx, `UPDATE rooms SET score_history = $1 WHERE name = $2`, room, history)
}
